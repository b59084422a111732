package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/examina/examina-api/internal/dto"
	"github.com/examina/examina-api/internal/handler"
	"github.com/examina/examina-api/internal/service"
)

type stubGradingService struct {
	summary dto.BatchSummaryResponse
	err     error
	request dto.GradeExamRequest
	examID  uint
}

func (s *stubGradingService) GradeExam(ctx context.Context, examID uint, request dto.GradeExamRequest) (dto.BatchSummaryResponse, error) {
	s.examID = examID
	s.request = request
	return s.summary, s.err
}

type stubOutcomeService struct {
	outcomes []dto.GradingOutcomeResponse
	outcome  dto.GradingOutcomeResponse
	status   dto.GradingStatusResponse
	err      error
}

func (s *stubOutcomeService) ListByExam(context.Context, uint) ([]dto.GradingOutcomeResponse, error) {
	return s.outcomes, s.err
}

func (s *stubOutcomeService) GetByAnswer(context.Context, uint) (dto.GradingOutcomeResponse, error) {
	return s.outcome, s.err
}

func (s *stubOutcomeService) Status(context.Context, uint) (dto.GradingStatusResponse, error) {
	return s.status, s.err
}

func newTestApp(grading service.GradingService, outcomes service.OutcomeService) *fiber.App {
	app := fiber.New()
	h := handler.NewGradingHandler(grading, outcomes, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())
	h.RegisterExamRoutes(app.Group("/api/v1/exams"))
	h.RegisterAnswerRoutes(app.Group("/api/v1/answers"))
	return app
}

func TestGradeExamEndpoint(t *testing.T) {
	grading := &stubGradingService{
		summary: dto.BatchSummaryResponse{ExamID: 3, RunID: "run-1", Total: 5, Graded: 5, Status: "graded"},
	}
	app := newTestApp(grading, &stubOutcomeService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/exams/3/grade", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, uint(3), grading.examID)

	var payload struct {
		Success bool                     `json:"success"`
		Data    dto.BatchSummaryResponse `json:"data"`
	}
	decodeBody(t, resp, &payload)
	require.True(t, payload.Success)
	require.Equal(t, "run-1", payload.Data.RunID)
	require.Equal(t, 5, payload.Data.Graded)
}

func TestGradeExamEndpointPassesThresholdOverride(t *testing.T) {
	grading := &stubGradingService{}
	app := newTestApp(grading, &stubOutcomeService{})

	body := strings.NewReader(`{"divergence_threshold": 3.5}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/exams/3/grade", body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, grading.request.DivergenceThreshold)
	require.InDelta(t, 3.5, *grading.request.DivergenceThreshold, 1e-9)
}

func TestGradeExamEndpointRejectsInvalidThreshold(t *testing.T) {
	app := newTestApp(&stubGradingService{}, &stubOutcomeService{})

	body := strings.NewReader(`{"divergence_threshold": -1}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/exams/3/grade", body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGradeExamEndpointUnknownExam(t *testing.T) {
	app := newTestApp(&stubGradingService{err: service.ErrExamNotFound}, &stubOutcomeService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/exams/99/grade", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGradeExamEndpointNoAnswers(t *testing.T) {
	app := newTestApp(&stubGradingService{err: service.ErrNoAnswersToGrade}, &stubOutcomeService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/exams/3/grade", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestGradeExamEndpointInvalidIdentifier(t *testing.T) {
	app := newTestApp(&stubGradingService{}, &stubOutcomeService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/exams/not-a-number/grade", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListOutcomesEndpoint(t *testing.T) {
	score := 7.35
	outcomes := &stubOutcomeService{
		outcomes: []dto.GradingOutcomeResponse{{RunID: "run-1", AnswerID: 1, FinalScore: &score}},
	}
	app := newTestApp(&stubGradingService{}, outcomes)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/exams/3/outcomes", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Data []dto.GradingOutcomeResponse `json:"data"`
	}
	decodeBody(t, resp, &payload)
	require.Len(t, payload.Data, 1)
	require.NotNil(t, payload.Data[0].FinalScore)
	require.InDelta(t, 7.35, *payload.Data[0].FinalScore, 1e-9)
}

func TestGradingStatusEndpoint(t *testing.T) {
	outcomes := &stubOutcomeService{status: dto.GradingStatusResponse{ExamID: 3, Status: "graded"}}
	app := newTestApp(&stubGradingService{}, outcomes)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/exams/3/grading-status", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Data dto.GradingStatusResponse `json:"data"`
	}
	decodeBody(t, resp, &payload)
	require.Equal(t, "graded", payload.Data.Status)
}

func TestAnswerOutcomeEndpointNotFound(t *testing.T) {
	app := newTestApp(&stubGradingService{}, &stubOutcomeService{err: service.ErrOutcomeNotFound})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/answers/42/outcome", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func decodeBody(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}
