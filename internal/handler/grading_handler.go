package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/examina/examina-api/internal/dto"
	"github.com/examina/examina-api/internal/service"
	"github.com/examina/examina-api/internal/utils"
)

// GradingHandler wires the grading trigger and the outcome read endpoints.
type GradingHandler struct {
	grading  service.GradingService
	outcomes service.OutcomeService
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewGradingHandler constructs the handler.
func NewGradingHandler(grading service.GradingService, outcomes service.OutcomeService, validate *validator.Validate, logger zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		grading:  grading,
		outcomes: outcomes,
		validate: validate,
		logger:   logger.With().Str("component", "grading_handler").Logger(),
	}
}

// RegisterExamRoutes attaches the exam-scoped grading endpoints.
func (h *GradingHandler) RegisterExamRoutes(router fiber.Router) {
	router.Post("/:id/grade", h.grade)
	router.Get("/:id/outcomes", h.listOutcomes)
	router.Get("/:id/grading-status", h.status)
}

// RegisterAnswerRoutes attaches the answer-scoped read endpoint.
func (h *GradingHandler) RegisterAnswerRoutes(router fiber.Router) {
	router.Get("/:id/outcome", h.answerOutcome)
}

func (h *GradingHandler) grade(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.GradeExamRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}
	}
	if err := h.validate.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	summary, err := h.grading.GradeExam(c.UserContext(), id, payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExamNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "exam not found")
		case errors.Is(err, service.ErrNoAnswersToGrade):
			return utils.SendError(c, fiber.StatusUnprocessableEntity, "exam has no answers to grade")
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			h.logger.Error().Err(err).Uint("exam_id", id).Msg("failed to grade exam")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to grade exam")
		}
	}

	return utils.SendSuccess(c, "exam graded", summary)
}

func (h *GradingHandler) listOutcomes(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	outcomes, err := h.outcomes.ListByExam(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, service.ErrExamNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "exam not found")
		}
		h.logger.Error().Err(err).Uint("exam_id", id).Msg("failed to list grading outcomes")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list grading outcomes")
	}

	return utils.SendSuccess(c, "grading outcomes", outcomes)
}

func (h *GradingHandler) status(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	status, err := h.outcomes.Status(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, service.ErrExamNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "exam not found")
		}
		h.logger.Error().Err(err).Uint("exam_id", id).Msg("failed to read grading status")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to read grading status")
	}

	return utils.SendSuccess(c, "grading status", status)
}

func (h *GradingHandler) answerOutcome(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	outcome, err := h.outcomes.GetByAnswer(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, service.ErrOutcomeNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "grading outcome not found")
		}
		h.logger.Error().Err(err).Uint("answer_id", id).Msg("failed to read answer outcome")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to read answer outcome")
	}

	return utils.SendSuccess(c, "grading outcome", outcome)
}
