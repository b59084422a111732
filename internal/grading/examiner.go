package grading

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/examina/examina-api/pkg/ai"
)

// Examiner wraps one model invocation: prompt assembly, the gated provider
// call, and normalization of whatever comes back. The same instance serves
// both examiner roles and the arbiter; only the prompt and agent identifier
// differ. A valid Correction is always returned unless the invocation itself
// fails unrecoverably.
type Examiner struct {
	client        ai.Client
	limiter       *Limiter
	fallbackScore float64
	logger        zerolog.Logger
	tracer        trace.Tracer
}

// NewExaminer constructs an examiner over the given model client and limiter.
func NewExaminer(client ai.Client, limiter *Limiter, fallbackScore float64, logger zerolog.Logger) *Examiner {
	return &Examiner{
		client:        client,
		limiter:       limiter,
		fallbackScore: fallbackScore,
		logger:        logger.With().Str("component", "examiner").Logger(),
		tracer:        otel.Tracer("github.com/examina/examina-api/internal/grading/examiner"),
	}
}

// Evaluate grades one answer against the question's rubric and the retrieved
// context, acting as the given examiner.
func (e *Examiner) Evaluate(ctx context.Context, question Question, fragments []Fragment, answer Answer, agent AgentID) (Correction, error) {
	prompt := buildExaminerPrompt(question, fragments, answer)
	return e.invoke(ctx, examinerSystemPrompt(), prompt, agent)
}

// Arbitrate re-scores an answer after the two examiners diverged, with both
// prior assessments embedded in the prompt.
func (e *Examiner) Arbitrate(ctx context.Context, question Question, fragments []Fragment, answer Answer, a, b Correction) (Correction, error) {
	prompt := buildArbiterPrompt(question, fragments, answer, a, b)
	return e.invoke(ctx, arbiterSystemPrompt(), prompt, AgentArbiter)
}

func (e *Examiner) invoke(parent context.Context, system, user string, agent AgentID) (Correction, error) {
	ctx, span := e.tracer.Start(parent, "grading.invoke", trace.WithAttributes(
		attribute.String("grading.agent_id", string(agent)),
	))
	defer span.End()

	if err := e.limiter.Acquire(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "limiter_acquire_failed")
		return Correction{}, fmt.Errorf("acquire invocation slot: %w", err)
	}

	result, err := e.client.Complete(ctx, ai.CompletionRequest{System: system, User: user})
	e.limiter.Release()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invocation_failed")
		return Correction{}, err
	}

	correction := Normalize(RawFromText(result.Content).WithRationale(result.Rationale), agent, e.fallbackScore)
	span.SetAttributes(attribute.Float64("grading.total_score", correction.TotalScore))
	e.logger.Debug().Str("agent_id", string(agent)).Float64("total_score", correction.TotalScore).Msg("correction produced")

	return correction, nil
}
