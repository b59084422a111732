package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/examina/examina-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Exam{},
		&models.Question{},
		&models.Criterion{},
		&models.Answer{},
		&models.ContentFragment{},
		&models.GradingRecord{},
	))

	return db
}

func TestExamRepositoryPreloadsOrderedRubric(t *testing.T) {
	db := setupTestDB(t)

	exam := models.Exam{Title: "Final", Scope: "final-2026"}
	require.NoError(t, db.Create(&exam).Error)
	question := models.Question{ExamID: exam.ID, Position: 1, Statement: "Explain durability."}
	require.NoError(t, db.Create(&question).Error)
	require.NoError(t, db.Create(&models.Criterion{QuestionID: question.ID, Position: 2, Name: "depth", MaxPoints: 4}).Error)
	require.NoError(t, db.Create(&models.Criterion{QuestionID: question.ID, Position: 1, Name: "accuracy", MaxPoints: 6}).Error)

	loaded, err := NewExamRepository(db).GetByID(context.Background(), exam.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Questions, 1)
	require.Len(t, loaded.Questions[0].Criteria, 2)
	require.Equal(t, "accuracy", loaded.Questions[0].Criteria[0].Name)
	require.Equal(t, "depth", loaded.Questions[0].Criteria[1].Name)
}

func TestExamRepositoryUpdateStatus(t *testing.T) {
	db := setupTestDB(t)

	exam := models.Exam{Title: "Final", Scope: "final-2026", Status: models.ExamStatusDraft}
	require.NoError(t, db.Create(&exam).Error)

	require.NoError(t, NewExamRepository(db).UpdateStatus(context.Background(), exam.ID, models.ExamStatusGraded))

	var updated models.Exam
	require.NoError(t, db.First(&updated, exam.ID).Error)
	require.Equal(t, models.ExamStatusGraded, updated.Status)
}

func TestAnswerRepositoryListByExam(t *testing.T) {
	db := setupTestDB(t)

	examA := models.Exam{Title: "A", Scope: "scope-a"}
	examB := models.Exam{Title: "B", Scope: "scope-b"}
	require.NoError(t, db.Create(&examA).Error)
	require.NoError(t, db.Create(&examB).Error)

	questionA := models.Question{ExamID: examA.ID, Position: 1, Statement: "Q"}
	questionB := models.Question{ExamID: examB.ID, Position: 1, Statement: "Q"}
	require.NoError(t, db.Create(&questionA).Error)
	require.NoError(t, db.Create(&questionB).Error)

	require.NoError(t, db.Create(&models.Answer{QuestionID: questionA.ID, Respondent: "s1", Text: "one"}).Error)
	require.NoError(t, db.Create(&models.Answer{QuestionID: questionA.ID, Respondent: "s2", Text: "two"}).Error)
	require.NoError(t, db.Create(&models.Answer{QuestionID: questionB.ID, Respondent: "s3", Text: "other exam"}).Error)

	answers, err := NewAnswerRepository(db).ListByExam(context.Background(), examA.ID)
	require.NoError(t, err)
	require.Len(t, answers, 2)
	for _, answer := range answers {
		require.Equal(t, questionA.ID, answer.QuestionID)
	}
}

func TestFragmentRepositorySearchStaysInScope(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.Create(&models.ContentFragment{ExamScope: "scope-a", Source: "notes.pdf", Text: "The WAL guarantees durability."}).Error)
	require.NoError(t, db.Create(&models.ContentFragment{ExamScope: "scope-b", Source: "notes.pdf", Text: "The WAL guarantees durability elsewhere."}).Error)

	fragments, err := NewFragmentRepository(db).SearchByTerms(context.Background(), "scope-a", []string{"durability"}, 10)
	require.NoError(t, err)
	require.Len(t, fragments, 1)
	require.Equal(t, "scope-a", fragments[0].ExamScope)
}

func TestFragmentRepositorySearchMatchesCaseInsensitively(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.Create(&models.ContentFragment{ExamScope: "scope-a", Source: "notes.pdf", Text: "Durability survives CRASHES."}).Error)

	fragments, err := NewFragmentRepository(db).SearchByTerms(context.Background(), "scope-a", []string{"durability", "crashes"}, 10)
	require.NoError(t, err)
	require.Len(t, fragments, 1)
}

func TestFragmentRepositorySearchEmptyTerms(t *testing.T) {
	db := setupTestDB(t)

	fragments, err := NewFragmentRepository(db).SearchByTerms(context.Background(), "scope-a", nil, 10)
	require.NoError(t, err)
	require.Empty(t, fragments)
}

func TestGradingRecordRepositoryLatestByAnswer(t *testing.T) {
	db := setupTestDB(t)

	first := models.GradingRecord{RunID: "run-1", ExamID: 1, QuestionID: 1, AnswerID: 7}
	require.NoError(t, db.Create(&first).Error)
	second := models.GradingRecord{RunID: "run-2", ExamID: 1, QuestionID: 1, AnswerID: 7}
	require.NoError(t, db.Create(&second).Error)

	record, err := NewGradingRecordRepository(db).GetLatestByAnswer(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, second.ID, record.ID)
}
