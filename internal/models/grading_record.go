package models

import (
	"time"

	"gorm.io/datatypes"
)

// GradingRecord persists the outcome of grading one answer: the consensus
// score, the divergence flag, every correction produced, and the error text
// when the pipeline degraded.
type GradingRecord struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	RunID       string         `gorm:"size:64;index;not null" json:"run_id"`
	ExamID      uint           `gorm:"index;not null" json:"exam_id"`
	QuestionID  uint           `gorm:"index;not null" json:"question_id"`
	AnswerID    uint           `gorm:"index;not null" json:"answer_id"`
	FinalScore  *float64       `json:"final_score"`
	Divergent   bool           `json:"divergent"`
	Error       string         `gorm:"type:text" json:"error,omitempty"`
	Corrections datatypes.JSON `json:"corrections"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Failed reports whether this answer could not be graded.
func (r GradingRecord) Failed() bool {
	return r.Error != ""
}
