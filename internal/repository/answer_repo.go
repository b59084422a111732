package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/examina/examina-api/internal/models"
)

// AnswerRepository defines data operations for submitted answers.
type AnswerRepository interface {
	GetByID(ctx context.Context, id uint) (models.Answer, error)
	ListByExam(ctx context.Context, examID uint) ([]models.Answer, error)
}

type answerRepository struct {
	db *gorm.DB
}

// NewAnswerRepository instantiates the repository.
func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db}
}

func (r *answerRepository) GetByID(ctx context.Context, id uint) (models.Answer, error) {
	var answer models.Answer
	if err := r.db.WithContext(ctx).First(&answer, id).Error; err != nil {
		return models.Answer{}, err
	}

	return answer, nil
}

func (r *answerRepository) ListByExam(ctx context.Context, examID uint) ([]models.Answer, error) {
	var answers []models.Answer
	err := r.db.WithContext(ctx).
		Joins("JOIN questions ON questions.id = answers.question_id").
		Where("questions.exam_id = ?", examID).
		Order("answers.question_id ASC, answers.id ASC").
		Find(&answers).Error
	if err != nil {
		return nil, err
	}

	return answers, nil
}
