package models

import "time"

// Exam grading lifecycle states.
const (
	ExamStatusDraft          = "draft"
	ExamStatusGraded         = "graded"
	ExamStatusNeedsAttention = "needs_attention"
)

// Exam groups questions and carries the scope identifier used to filter
// content retrieval to the exam's own material.
type Exam struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Title     string     `gorm:"size:255;not null" json:"title"`
	Scope     string     `gorm:"size:64;uniqueIndex;not null" json:"scope"`
	Status    string     `gorm:"size:32;default:draft" json:"status"`
	Questions []Question `json:"questions,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Question is one exam question with its ordered rubric.
type Question struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	ExamID    uint        `gorm:"index;not null" json:"exam_id"`
	Position  int         `gorm:"not null" json:"position"`
	Statement string      `gorm:"type:text;not null" json:"statement"`
	Criteria  []Criterion `json:"criteria,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Criterion is one rubric entry contributing MaxPoints to the 0-10 scale.
type Criterion struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	QuestionID  uint    `gorm:"index;not null" json:"question_id"`
	Position    int     `gorm:"not null" json:"position"`
	Name        string  `gorm:"size:128;not null" json:"name"`
	Description string  `gorm:"type:text" json:"description"`
	MaxPoints   float64 `gorm:"not null" json:"max_points"`
}
