package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/examina/examina-api/internal/dto"
	"github.com/examina/examina-api/internal/grading"
	"github.com/examina/examina-api/internal/models"
	"github.com/examina/examina-api/internal/repository"
)

var (
	ErrExamNotFound     = errors.New("exam not found")
	ErrNoAnswersToGrade = errors.New("exam has no answers to grade")
)

// SubjectGradingCompleted is the broker subject batch summaries are published on.
const SubjectGradingCompleted = "examina.grading.completed"

// GradingService triggers the grading pipeline for a whole exam and persists
// its outcomes.
type GradingService interface {
	GradeExam(ctx context.Context, examID uint, request dto.GradeExamRequest) (dto.BatchSummaryResponse, error)
}

type gradingService struct {
	exams     repository.ExamRepository
	answers   repository.AnswerRepository
	records   repository.GradingRecordRepository
	retriever grading.Retriever
	examiner  *grading.Examiner
	cfg       grading.Config
	cache     *redis.Client
	broker    *nats.Conn
	cacheTTL  time.Duration
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewGradingService wires the pipeline behind its persistence and messaging
// sides. cache and broker may be nil; status caching and event publishing are
// then skipped.
func NewGradingService(
	exams repository.ExamRepository,
	answers repository.AnswerRepository,
	records repository.GradingRecordRepository,
	retriever grading.Retriever,
	examiner *grading.Examiner,
	cfg grading.Config,
	cache *redis.Client,
	broker *nats.Conn,
	cacheTTL time.Duration,
	logger zerolog.Logger,
) GradingService {
	return &gradingService{
		exams:     exams,
		answers:   answers,
		records:   records,
		retriever: retriever,
		examiner:  examiner,
		cfg:       cfg,
		cache:     cache,
		broker:    broker,
		cacheTTL:  cacheTTL,
		logger:    logger.With().Str("component", "grading_service").Logger(),
		tracer:    otel.Tracer("github.com/examina/examina-api/internal/service/grading"),
		now:       time.Now,
	}
}

func (s *gradingService) GradeExam(ctx context.Context, examID uint, request dto.GradeExamRequest) (dto.BatchSummaryResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grading.exam", trace.WithAttributes(
		attribute.Int64("grading.exam_id", int64(examID)),
	))
	defer span.End()

	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.BatchSummaryResponse{}, ErrExamNotFound
		}
		return dto.BatchSummaryResponse{}, fmt.Errorf("loading exam %d: %w", examID, err)
	}

	tasks, err := s.buildTasks(ctx, exam)
	if err != nil {
		return dto.BatchSummaryResponse{}, err
	}

	cfg := s.cfg
	if request.DivergenceThreshold != nil {
		cfg.DivergenceThreshold = *request.DivergenceThreshold
	}

	runID := uuid.NewString()
	span.SetAttributes(
		attribute.String("grading.run_id", runID),
		attribute.Int("grading.tasks", len(tasks)),
	)

	orchestrator := grading.NewOrchestrator(s.retriever, s.examiner, cfg, s.logger)
	outcomes, summary := orchestrator.GradeExam(ctx, exam.Scope, tasks)

	s.persistOutcomes(ctx, runID, exam.ID, outcomes)

	status := models.ExamStatusGraded
	if summary.NeedsAttention() {
		status = models.ExamStatusNeedsAttention
	}
	if err := s.exams.UpdateStatus(ctx, exam.ID, status); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "status_update_failed")
		s.logger.Error().Err(err).Uint("exam_id", exam.ID).Msg("failed to update exam status")
	}
	s.cacheStatus(ctx, exam.ID, status)

	response := dto.BatchSummaryResponse{
		ExamID:     exam.ID,
		RunID:      runID,
		Total:      summary.Total,
		Graded:     summary.Graded,
		Failed:     summary.Failed,
		Status:     status,
		FinishedAt: s.now().UTC(),
	}
	s.publishSummary(response)

	s.logger.Info().
		Uint("exam_id", exam.ID).
		Str("run_id", runID).
		Int("graded", summary.Graded).
		Int("failed", summary.Failed).
		Str("status", status).
		Msg("exam grading run finished")

	return response, nil
}

func (s *gradingService) buildTasks(ctx context.Context, exam models.Exam) ([]grading.Task, error) {
	answers, err := s.answers.ListByExam(ctx, exam.ID)
	if err != nil {
		return nil, fmt.Errorf("listing answers for exam %d: %w", exam.ID, err)
	}
	if len(answers) == 0 {
		return nil, ErrNoAnswersToGrade
	}

	questions := make(map[uint]grading.Question, len(exam.Questions))
	for _, question := range exam.Questions {
		rubric := make([]grading.Criterion, 0, len(question.Criteria))
		for _, criterion := range question.Criteria {
			rubric = append(rubric, grading.Criterion{
				Name:        criterion.Name,
				Description: criterion.Description,
				MaxPoints:   criterion.MaxPoints,
			})
		}
		questions[question.ID] = grading.Question{
			ID:        strconv.FormatUint(uint64(question.ID), 10),
			Statement: question.Statement,
			Rubric:    rubric,
		}
	}

	tasks := make([]grading.Task, 0, len(answers))
	for _, answer := range answers {
		question, ok := questions[answer.QuestionID]
		if !ok {
			// Answer rows always join through questions, so a miss here
			// means the exam was mutated mid-run.
			s.logger.Warn().Uint("answer_id", answer.ID).Uint("question_id", answer.QuestionID).Msg("answer references unknown question, skipping")
			continue
		}
		tasks = append(tasks, grading.Task{
			Question: question,
			Answer: grading.Answer{
				ID:         strconv.FormatUint(uint64(answer.ID), 10),
				Respondent: answer.Respondent,
				Text:       answer.Text,
			},
		})
	}
	if len(tasks) == 0 {
		return nil, ErrNoAnswersToGrade
	}

	return tasks, nil
}

func (s *gradingService) persistOutcomes(ctx context.Context, runID string, examID uint, outcomes []grading.Outcome) {
	for _, outcome := range outcomes {
		record := models.GradingRecord{
			RunID:      runID,
			ExamID:     examID,
			QuestionID: parseID(outcome.QuestionID),
			AnswerID:   parseID(outcome.AnswerID),
			Divergent:  outcome.Divergent,
			Error:      outcome.Err,
		}
		if !outcome.Failed() {
			score := outcome.FinalScore
			record.FinalScore = &score
		}
		if payload, err := json.Marshal(outcome.Corrections); err == nil {
			record.Corrections = payload
		}

		if err := s.records.Create(ctx, &record); err != nil {
			s.logger.Error().Err(err).
				Str("run_id", runID).
				Str("answer_id", outcome.AnswerID).
				Msg("failed to persist grading record")
		}
	}
}

func (s *gradingService) cacheStatus(ctx context.Context, examID uint, status string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, statusCacheKey(examID), status, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("exam_id", examID).Msg("failed to cache grading status")
	}
}

func (s *gradingService) publishSummary(summary dto.BatchSummaryResponse) {
	if s.broker == nil {
		return
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := s.broker.Publish(SubjectGradingCompleted, payload); err != nil {
		s.logger.Warn().Err(err).Str("run_id", summary.RunID).Msg("failed to publish grading summary")
	}
}

func statusCacheKey(examID uint) string {
	return fmt.Sprintf("grading:exam:%d:status", examID)
}

func parseID(id string) uint {
	value, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return 0
	}
	return uint(value)
}
