package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/examina/examina-api/internal/models"
)

// GradingRecordRepository persists and reads grading outcomes.
type GradingRecordRepository interface {
	Create(ctx context.Context, record *models.GradingRecord) error
	ListByExam(ctx context.Context, examID uint) ([]models.GradingRecord, error)
	GetLatestByAnswer(ctx context.Context, answerID uint) (models.GradingRecord, error)
}

type gradingRecordRepository struct {
	db *gorm.DB
}

// NewGradingRecordRepository instantiates the repository.
func NewGradingRecordRepository(db *gorm.DB) GradingRecordRepository {
	return &gradingRecordRepository{db: db}
}

func (r *gradingRecordRepository) Create(ctx context.Context, record *models.GradingRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *gradingRecordRepository) ListByExam(ctx context.Context, examID uint) ([]models.GradingRecord, error) {
	var records []models.GradingRecord
	err := r.db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Order("question_id ASC, answer_id ASC, created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	return records, nil
}

func (r *gradingRecordRepository) GetLatestByAnswer(ctx context.Context, answerID uint) (models.GradingRecord, error) {
	var record models.GradingRecord
	err := r.db.WithContext(ctx).
		Where("answer_id = ?", answerID).
		Order("created_at DESC, id DESC").
		First(&record).Error
	if err != nil {
		return models.GradingRecord{}, err
	}

	return record, nil
}
