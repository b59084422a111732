package service

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/examina/examina-api/internal/models"
	"github.com/examina/examina-api/internal/repository"
)

func newTestOutcomeService(db *gorm.DB, cache *redis.Client) OutcomeService {
	return NewOutcomeService(
		repository.NewExamRepository(db),
		repository.NewGradingRecordRepository(db),
		cache,
		zerolog.Nop(),
	)
}

func seedRecord(t *testing.T, db *gorm.DB, examID, answerID uint, corrections string) models.GradingRecord {
	t.Helper()

	score := 7.0
	record := models.GradingRecord{
		RunID:       "run-1",
		ExamID:      examID,
		QuestionID:  1,
		AnswerID:    answerID,
		FinalScore:  &score,
		Corrections: datatypes.JSON(corrections),
	}
	require.NoError(t, db.Create(&record).Error)

	return record
}

func TestListByExamSanitizesFeedback(t *testing.T) {
	db := setupTestDB(t)
	exam := seedExam(t, db, "The log survives crashes.")

	seedRecord(t, db, exam.ID, 1, `[{"agent_id":"examiner-1","reasoning":"solid","total_score":7,"feedback":"good work<script>alert(1)</script>"}]`)

	outcomes, err := newTestOutcomeService(db, nil).ListByExam(context.Background(), exam.ID)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	require.Len(t, outcomes[0].Corrections, 1)
	require.Equal(t, "good work", outcomes[0].Corrections[0].Feedback)
	require.NotNil(t, outcomes[0].FinalScore)
	require.InDelta(t, 7.0, *outcomes[0].FinalScore, 1e-9)
}

func TestListByExamUnknownExam(t *testing.T) {
	db := setupTestDB(t)

	_, err := newTestOutcomeService(db, nil).ListByExam(context.Background(), 999)
	require.ErrorIs(t, err, ErrExamNotFound)
}

func TestGetByAnswerReturnsLatestRecord(t *testing.T) {
	db := setupTestDB(t)
	exam := seedExam(t, db, "The log survives crashes.")

	seedRecord(t, db, exam.ID, 1, `[{"agent_id":"examiner-1","reasoning":"first pass","total_score":5}]`)
	second := seedRecord(t, db, exam.ID, 1, `[{"agent_id":"examiner-1","reasoning":"second pass","total_score":7}]`)

	outcome, err := newTestOutcomeService(db, nil).GetByAnswer(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, second.RunID, outcome.RunID)
	require.Len(t, outcome.Corrections, 1)
	require.Equal(t, "second pass", outcome.Corrections[0].Reasoning)
}

func TestGetByAnswerNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := newTestOutcomeService(db, nil).GetByAnswer(context.Background(), 42)
	require.ErrorIs(t, err, ErrOutcomeNotFound)
}

func TestStatusServedFromCache(t *testing.T) {
	db := setupTestDB(t)
	exam := seedExam(t, db, "The log survives crashes.")

	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	require.NoError(t, mr.Set(statusCacheKey(exam.ID), models.ExamStatusGraded))

	status, err := newTestOutcomeService(db, cache).Status(context.Background(), exam.ID)
	require.NoError(t, err)
	require.Equal(t, models.ExamStatusGraded, status.Status)
}

func TestStatusFallsBackToExamRow(t *testing.T) {
	db := setupTestDB(t)
	exam := seedExam(t, db, "The log survives crashes.")

	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	status, err := newTestOutcomeService(db, cache).Status(context.Background(), exam.ID)
	require.NoError(t, err)
	require.Equal(t, models.ExamStatusDraft, status.Status)
	require.Equal(t, exam.ID, status.ExamID)
}

func TestStatusUnknownExam(t *testing.T) {
	db := setupTestDB(t)

	_, err := newTestOutcomeService(db, nil).Status(context.Background(), 999)
	require.ErrorIs(t, err, ErrExamNotFound)
}
