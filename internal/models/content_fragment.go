package models

import "time"

// ContentFragment is one indexed piece of exam material served to the
// context retriever. Ingestion happens out of band; this service only reads.
type ContentFragment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ExamScope string    `gorm:"size:64;index;not null" json:"exam_scope"`
	Source    string    `gorm:"size:255;not null" json:"source"`
	Locator   string    `gorm:"size:64" json:"locator"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
