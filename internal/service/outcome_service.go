package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/examina/examina-api/internal/dto"
	"github.com/examina/examina-api/internal/models"
	"github.com/examina/examina-api/internal/repository"
)

var ErrOutcomeNotFound = errors.New("grading outcome not found")

// OutcomeService reads back persisted grading results.
type OutcomeService interface {
	ListByExam(ctx context.Context, examID uint) ([]dto.GradingOutcomeResponse, error)
	GetByAnswer(ctx context.Context, answerID uint) (dto.GradingOutcomeResponse, error)
	Status(ctx context.Context, examID uint) (dto.GradingStatusResponse, error)
}

type outcomeService struct {
	exams     repository.ExamRepository
	records   repository.GradingRecordRepository
	cache     *redis.Client
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewOutcomeService instantiates the read side of grading. cache may be nil.
func NewOutcomeService(
	exams repository.ExamRepository,
	records repository.GradingRecordRepository,
	cache *redis.Client,
	logger zerolog.Logger,
) OutcomeService {
	return &outcomeService{
		exams:     exams,
		records:   records,
		cache:     cache,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "outcome_service").Logger(),
	}
}

func (s *outcomeService) ListByExam(ctx context.Context, examID uint) ([]dto.GradingOutcomeResponse, error) {
	if _, err := s.exams.GetByID(ctx, examID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("loading exam %d: %w", examID, err)
	}

	records, err := s.records.ListByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("listing grading records for exam %d: %w", examID, err)
	}

	return dto.NewGradingOutcomeResponseSlice(records, s.sanitizer), nil
}

func (s *outcomeService) GetByAnswer(ctx context.Context, answerID uint) (dto.GradingOutcomeResponse, error) {
	record, err := s.records.GetLatestByAnswer(ctx, answerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GradingOutcomeResponse{}, ErrOutcomeNotFound
		}
		return dto.GradingOutcomeResponse{}, fmt.Errorf("loading outcome for answer %d: %w", answerID, err)
	}

	return dto.NewGradingOutcomeResponse(record, s.sanitizer), nil
}

// Status reports an exam's grading state, served from the cache when warm.
func (s *outcomeService) Status(ctx context.Context, examID uint) (dto.GradingStatusResponse, error) {
	if s.cache != nil {
		status, err := s.cache.Get(ctx, statusCacheKey(examID)).Result()
		if err == nil {
			return dto.GradingStatusResponse{ExamID: examID, Status: status}, nil
		}
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Uint("exam_id", examID).Msg("grading status cache read failed")
		}
	}

	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GradingStatusResponse{}, ErrExamNotFound
		}
		return dto.GradingStatusResponse{}, fmt.Errorf("loading exam %d: %w", examID, err)
	}

	status := exam.Status
	if status == "" {
		status = models.ExamStatusDraft
	}

	return dto.GradingStatusResponse{ExamID: examID, Status: status}, nil
}
