package grading

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/examina/examina-api/internal/observability"
)

// Config holds the orchestrator's tunables.
type Config struct {
	// DivergenceThreshold is the absolute total-score difference above which
	// the two examiners are considered in disagreement.
	DivergenceThreshold float64
	// TopK bounds how many context fragments are retrieved per question.
	TopK int
}

// Task pairs one question with one answer to grade.
type Task struct {
	Question Question
	Answer   Answer
}

// BatchSummary aggregates success and failure counts across one exam run.
type BatchSummary struct {
	Total  int
	Graded int
	Failed int
}

// NeedsAttention reports whether any answer in the batch failed.
func (s BatchSummary) NeedsAttention() bool {
	return s.Failed > 0
}

// Orchestrator runs the fixed-topology pipeline per answer:
// retrieve, examine in parallel, check divergence, arbitrate when needed,
// build consensus.
type Orchestrator struct {
	retriever Retriever
	examiner  *Examiner
	cfg       Config
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewOrchestrator wires the pipeline components together.
func NewOrchestrator(retriever Retriever, examiner *Examiner, cfg Config, logger zerolog.Logger) *Orchestrator {
	if cfg.TopK <= 0 {
		cfg.TopK = 4
	}

	return &Orchestrator{
		retriever: retriever,
		examiner:  examiner,
		cfg:       cfg,
		logger:    logger.With().Str("component", "grading_orchestrator").Logger(),
		tracer:    otel.Tracer("github.com/examina/examina-api/internal/grading/orchestrator"),
	}
}

// GradeAnswer runs the per-answer pipeline. An unrecoverable invocation
// failure is recorded in the outcome's Err field rather than returned, so a
// batch caller can keep going.
func (o *Orchestrator) GradeAnswer(parent context.Context, examScope string, question Question, answer Answer) Outcome {
	ctx, span := o.tracer.Start(parent, "grading.answer", trace.WithAttributes(
		attribute.String("grading.question_id", question.ID),
		attribute.String("grading.answer_id", answer.ID),
	))
	defer span.End()

	start := time.Now()
	state := StateRetrieve

	fragments, err := o.retriever.Retrieve(ctx, question, examScope, o.cfg.TopK)
	if err != nil {
		// An unreachable content store degrades to rubric-only grading;
		// empty context is a valid retriever result.
		o.logger.Warn().Err(err).Str("question_id", question.ID).Msg("context retrieval failed, grading from rubric alone")
		fragments = nil
	}
	state = advance(state, EventContextReady)

	corrections := make([]Correction, 2)
	group, groupCtx := errgroup.WithContext(ctx)
	for i, agent := range []AgentID{AgentExaminerOne, AgentExaminerTwo} {
		i, agent := i, agent
		group.Go(func() error {
			correction, err := o.examiner.Evaluate(groupCtx, question, fragments, answer, agent)
			if err != nil {
				return err
			}
			corrections[i] = correction
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		advance(state, EventFailure)
		return o.failed(span, question, answer, nil, err)
	}
	state = advance(state, EventExaminersDone)

	divergence := CheckDivergence(corrections[0], corrections[1], o.cfg.DivergenceThreshold)
	span.SetAttributes(
		attribute.Bool("grading.divergent", divergence.Divergent),
		attribute.Float64("grading.diff", divergence.Diff),
	)

	all := corrections
	if divergence.Divergent {
		observability.Divergences().Inc()
		state = advance(state, EventDivergent)

		arbiterCorrection, err := o.examiner.Arbitrate(ctx, question, fragments, answer, corrections[0], corrections[1])
		if err != nil {
			advance(state, EventFailure)
			return o.failed(span, question, answer, corrections, err)
		}
		observability.Arbitrations().Inc()
		all = append(all, arbiterCorrection)
		state = advance(state, EventArbitrated)
	} else {
		state = advance(state, EventConverged)
	}

	final, err := Consensus(all)
	if err != nil {
		advance(state, EventFailure)
		return o.failed(span, question, answer, all, err)
	}
	state = advance(state, EventFinalized)

	observability.AnswersGraded().WithLabelValues("graded").Inc()
	observability.GradingDuration().WithLabelValues(boolLabel(divergence.Divergent)).Observe(time.Since(start).Seconds())
	span.SetAttributes(
		attribute.Float64("grading.final_score", final),
		attribute.String("grading.state", string(state)),
	)

	return Outcome{
		QuestionID:  question.ID,
		AnswerID:    answer.ID,
		Corrections: all,
		FinalScore:  final,
		Divergent:   divergence.Divergent,
	}
}

// GradeExam runs the per-answer pipeline for every task. Answers complete in
// no particular order; one answer's failure never aborts its siblings.
func (o *Orchestrator) GradeExam(ctx context.Context, examScope string, tasks []Task) ([]Outcome, BatchSummary) {
	outcomes := make([]Outcome, len(tasks))

	var wg sync.WaitGroup
	for i, task := range tasks {
		i, task := i, task
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i] = o.GradeAnswer(ctx, examScope, task.Question, task.Answer)
		}()
	}
	wg.Wait()

	summary := BatchSummary{Total: len(tasks)}
	for _, outcome := range outcomes {
		if outcome.Failed() {
			summary.Failed++
		} else {
			summary.Graded++
		}
	}

	o.logger.Info().
		Str("exam_scope", examScope).
		Int("total", summary.Total).
		Int("graded", summary.Graded).
		Int("failed", summary.Failed).
		Msg("exam batch graded")

	return outcomes, summary
}

func (o *Orchestrator) failed(span trace.Span, question Question, answer Answer, corrections []Correction, err error) Outcome {
	span.RecordError(err)
	span.SetStatus(codes.Error, "grading_failed")
	observability.AnswersGraded().WithLabelValues("failed").Inc()
	o.logger.Error().Err(err).Str("question_id", question.ID).Str("answer_id", answer.ID).Msg("answer grading failed")

	return Outcome{
		QuestionID:  question.ID,
		AnswerID:    answer.ID,
		Corrections: corrections,
		Err:         err.Error(),
	}
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
