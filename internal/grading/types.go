// Package grading implements the multi-examiner grading pipeline: context
// retrieval, two parallel examiner evaluations, divergence checking,
// conditional arbitration, and consensus scoring.
package grading

import "context"

// AgentID identifies which evaluator produced a correction.
type AgentID string

const (
	AgentExaminerOne AgentID = "examiner-1"
	AgentExaminerTwo AgentID = "examiner-2"
	AgentArbiter     AgentID = "arbiter"
)

// Criterion is one rubric entry with its maximum point weight on the 0-10 scale.
type Criterion struct {
	Name        string
	Description string
	MaxPoints   float64
}

// Question is the statement plus its ordered rubric. Immutable once grading starts.
type Question struct {
	ID        string
	Statement string
	Rubric    []Criterion
}

// Answer is one free-text submission for a (question, respondent) pair.
type Answer struct {
	ID         string
	Respondent string
	Text       string
}

// Fragment is one retrieved piece of indexed exam material.
type Fragment struct {
	Source    string
	Locator   string
	Relevance float64
	Text      string
}

// Retriever returns ranked fragments relevant to a question, filtered to the
// exam's own material. An empty slice is a valid result meaning "grade from
// the rubric alone".
type Retriever interface {
	Retrieve(ctx context.Context, question Question, examScope string, k int) ([]Fragment, error)
}

// CriterionScore holds one absolute per-criterion score on that criterion's own scale.
type CriterionScore struct {
	Criterion string  `json:"criterion"`
	Score     float64 `json:"score"`
}

// Correction is the structured result of one evaluator's pass over one answer.
// When criteria scores are present, TotalScore equals their sum; when they are
// missing (fallback path), TotalScore alone is authoritative.
type Correction struct {
	AgentID        AgentID          `json:"agent_id"`
	Reasoning      string           `json:"reasoning"`
	CriteriaScores []CriterionScore `json:"criteria_scores,omitempty"`
	TotalScore     float64          `json:"total_score"`
	Feedback       string           `json:"feedback,omitempty"`
}

// DivergenceResult reports whether two examiner totals disagree beyond the threshold.
type DivergenceResult struct {
	Divergent bool
	Diff      float64
	Threshold float64
}

// Outcome aggregates everything produced for one answer: 2 or 3 corrections,
// the consensus score, the divergence flag, and an error when the pipeline
// degraded unrecoverably.
type Outcome struct {
	QuestionID  string
	AnswerID    string
	Corrections []Correction
	FinalScore  float64
	Divergent   bool
	Err         string
}

// Failed reports whether the answer could not be graded.
func (o Outcome) Failed() bool {
	return o.Err != ""
}
