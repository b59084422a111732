package dto

import (
	"encoding/json"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/examina/examina-api/internal/grading"
	"github.com/examina/examina-api/internal/models"
)

// GradeExamRequest optionally overrides grading tunables for one run.
type GradeExamRequest struct {
	DivergenceThreshold *float64 `json:"divergence_threshold" validate:"omitempty,gt=0,lte=10"`
}

// CriterionScoreResponse is one absolute per-criterion score.
type CriterionScoreResponse struct {
	Criterion string  `json:"criterion"`
	Score     float64 `json:"score"`
}

// CorrectionResponse is one evaluator's grading pass as returned by the API.
type CorrectionResponse struct {
	AgentID        string                   `json:"agent_id"`
	Reasoning      string                   `json:"reasoning"`
	CriteriaScores []CriterionScoreResponse `json:"criteria_scores,omitempty"`
	TotalScore     float64                  `json:"total_score"`
	Feedback       string                   `json:"feedback,omitempty"`
}

// GradingOutcomeResponse is the persisted outcome of grading one answer.
type GradingOutcomeResponse struct {
	RunID       string               `json:"run_id"`
	ExamID      uint                 `json:"exam_id"`
	QuestionID  uint                 `json:"question_id"`
	AnswerID    uint                 `json:"answer_id"`
	FinalScore  *float64             `json:"final_score"`
	Divergent   bool                 `json:"divergent"`
	Error       string               `json:"error,omitempty"`
	Corrections []CorrectionResponse `json:"corrections"`
	CreatedAt   time.Time            `json:"created_at"`
}

// BatchSummaryResponse reports aggregate counts for one exam grading run.
type BatchSummaryResponse struct {
	ExamID     uint      `json:"exam_id"`
	RunID      string    `json:"run_id"`
	Total      int       `json:"total"`
	Graded     int       `json:"graded"`
	Failed     int       `json:"failed"`
	Status     string    `json:"status"`
	FinishedAt time.Time `json:"finished_at"`
}

// GradingStatusResponse reports an exam's grading state.
type GradingStatusResponse struct {
	ExamID uint   `json:"exam_id"`
	Status string `json:"status"`
}

// NewGradingOutcomeResponse maps a persisted record to its API shape,
// sanitizing learner-facing feedback.
func NewGradingOutcomeResponse(record models.GradingRecord, sanitizer *bluemonday.Policy) GradingOutcomeResponse {
	response := GradingOutcomeResponse{
		RunID:      record.RunID,
		ExamID:     record.ExamID,
		QuestionID: record.QuestionID,
		AnswerID:   record.AnswerID,
		FinalScore: record.FinalScore,
		Divergent:  record.Divergent,
		Error:      record.Error,
		CreatedAt:  record.CreatedAt,
	}

	var corrections []grading.Correction
	if len(record.Corrections) > 0 {
		// Stored by this service, so a decode failure means data corruption;
		// the outcome is still served without its corrections.
		_ = json.Unmarshal(record.Corrections, &corrections)
	}

	for _, correction := range corrections {
		item := CorrectionResponse{
			AgentID:    string(correction.AgentID),
			Reasoning:  correction.Reasoning,
			TotalScore: correction.TotalScore,
			Feedback:   correction.Feedback,
		}
		if sanitizer != nil {
			item.Feedback = sanitizer.Sanitize(item.Feedback)
		}
		for _, score := range correction.CriteriaScores {
			item.CriteriaScores = append(item.CriteriaScores, CriterionScoreResponse{
				Criterion: score.Criterion,
				Score:     score.Score,
			})
		}
		response.Corrections = append(response.Corrections, item)
	}

	return response
}

// NewGradingOutcomeResponseSlice maps a list of records.
func NewGradingOutcomeResponseSlice(records []models.GradingRecord, sanitizer *bluemonday.Policy) []GradingOutcomeResponse {
	responses := make([]GradingOutcomeResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, NewGradingOutcomeResponse(record, sanitizer))
	}
	return responses
}
