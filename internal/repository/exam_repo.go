package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/examina/examina-api/internal/models"
)

// ExamRepository defines data operations for exams and their questions.
type ExamRepository interface {
	GetByID(ctx context.Context, id uint) (models.Exam, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
}

type examRepository struct {
	db *gorm.DB
}

// NewExamRepository instantiates the repository.
func NewExamRepository(db *gorm.DB) ExamRepository {
	return &examRepository{db: db}
}

func (r *examRepository) GetByID(ctx context.Context, id uint) (models.Exam, error) {
	var exam models.Exam
	err := r.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Questions.Criteria", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&exam, id).Error
	if err != nil {
		return models.Exam{}, err
	}

	return exam, nil
}

func (r *examRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	return r.db.WithContext(ctx).Model(&models.Exam{}).Where("id = ?", id).Update("status", status).Error
}
