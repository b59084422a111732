package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	invocationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "examina",
		Subsystem: "ai",
		Name:      "invocation_duration_seconds",
		Help:      "Duration of model invocations",
	}, []string{"model"})

	invocationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "examina",
		Subsystem: "ai",
		Name:      "invocation_failures_total",
		Help:      "Number of failed model invocations",
	}, []string{"model"})
)

// OpenAIConfig defines configuration options for the OpenAI-backed client.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	MaxRetries  int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIClient implements Client against the OpenAI chat completion API.
type OpenAIClient struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIClient builds a new client using the provided configuration.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}

	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}

	tracer := otel.Tracer("github.com/examina/examina-api/pkg/ai/openai")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	client := openai.NewClientWithConfig(config)

	return &OpenAIClient{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger,
	}, nil
}

// Complete sends the composed prompt to OpenAI. Transient provider errors are
// retried with backoff; exhausted retries surface as an *InvocationError.
func (c *OpenAIClient) Complete(parent context.Context, req CompletionRequest) (CompletionResult, error) {
	ctx, span := c.tracer.Start(parent, "openai.complete", trace.WithAttributes(
		attribute.String("model", c.cfg.Model),
	))
	defer span.End()

	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.cfg.Temperature
	}

	request := openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: req.System,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.User,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	start := time.Now()
	resp, attempts, err := c.completeWithRetry(ctx, request)
	invocationDuration.WithLabelValues(c.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		invocationFailures.WithLabelValues(c.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return CompletionResult{}, &InvocationError{Provider: "openai", Attempts: attempts, Err: err}
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		invocationFailures.WithLabelValues(c.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return CompletionResult{}, &InvocationError{Provider: "openai", Attempts: attempts, Err: err}
	}

	choice := resp.Choices[0].Message
	result := CompletionResult{
		Content:   strings.TrimSpace(choice.Content),
		Rationale: strings.TrimSpace(choice.ReasoningContent),
		Raw: map[string]interface{}{
			"usage": resp.Usage,
		},
	}

	return result, nil
}

func (c *OpenAIClient) completeWithRetry(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, int, error) {
	backoff := time.Second
	var lastErr error

	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		resp, err := c.client.CreateChatCompletion(ctx, request)
		if err == nil {
			return resp, attempt, nil
		}

		lastErr = err
		if ctx.Err() != nil {
			return openai.ChatCompletionResponse{}, attempt, lastErr
		}

		c.logger.Warn().Err(err).Int("attempt", attempt).Str("model", c.cfg.Model).Msg("model invocation attempt failed")

		if attempt < c.cfg.MaxRetries {
			select {
			case <-ctx.Done():
				return openai.ChatCompletionResponse{}, attempt, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}

	return openai.ChatCompletionResponse{}, c.cfg.MaxRetries, lastErr
}
