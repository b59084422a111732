package service

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/examina/examina-api/internal/grading"
	"github.com/examina/examina-api/internal/repository"
)

const (
	minTermLength = 4
	maxQueryTerms = 8
)

// RetrievalService ranks indexed exam material against a question so the
// grading pipeline can cite it. Implements grading.Retriever.
type RetrievalService interface {
	Retrieve(ctx context.Context, question grading.Question, examScope string, k int) ([]grading.Fragment, error)
}

type retrievalService struct {
	fragments repository.FragmentRepository
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewRetrievalService instantiates the retriever over the fragment store.
func NewRetrievalService(fragments repository.FragmentRepository, logger zerolog.Logger) RetrievalService {
	return &retrievalService{
		fragments: fragments,
		logger:    logger.With().Str("component", "retrieval_service").Logger(),
		tracer:    otel.Tracer("github.com/examina/examina-api/internal/service/retrieval"),
	}
}

func (s *retrievalService) Retrieve(ctx context.Context, question grading.Question, examScope string, k int) ([]grading.Fragment, error) {
	ctx, span := s.tracer.Start(ctx, "retrieval.retrieve", trace.WithAttributes(
		attribute.String("retrieval.exam_scope", examScope),
		attribute.Int("retrieval.k", k),
	))
	defer span.End()

	terms := queryTerms(question.Statement)
	if len(terms) == 0 {
		return nil, nil
	}

	// Over-fetch so ranking has candidates to discard.
	rows, err := s.fragments.SearchByTerms(ctx, examScope, terms, k*4)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	fragments := make([]grading.Fragment, 0, len(rows))
	for _, row := range rows {
		hits := termHits(row.Text, terms)
		if hits == 0 {
			continue
		}
		fragments = append(fragments, grading.Fragment{
			Source:    row.Source,
			Locator:   row.Locator,
			Relevance: float64(hits) / float64(len(terms)),
			Text:      row.Text,
		})
	}

	sort.SliceStable(fragments, func(i, j int) bool {
		return fragments[i].Relevance > fragments[j].Relevance
	})
	if len(fragments) > k {
		fragments = fragments[:k]
	}

	span.SetAttributes(attribute.Int("retrieval.fragments", len(fragments)))
	s.logger.Debug().
		Str("exam_scope", examScope).
		Int("terms", len(terms)).
		Int("fragments", len(fragments)).
		Msg("context retrieved")

	return fragments, nil
}

// queryTerms extracts the distinctive words of a question statement. Short
// words carry no discriminating power against a lexical index and are dropped.
func queryTerms(statement string) []string {
	fields := strings.FieldsFunc(strings.ToLower(statement), func(r rune) bool {
		return !isWordRune(r)
	})

	seen := make(map[string]struct{}, len(fields))
	terms := make([]string, 0, maxQueryTerms)
	for _, field := range fields {
		if len([]rune(field)) < minTermLength {
			continue
		}
		if _, ok := seen[field]; ok {
			continue
		}
		seen[field] = struct{}{}
		terms = append(terms, field)
		if len(terms) == maxQueryTerms {
			break
		}
	}

	return terms
}

func termHits(text string, terms []string) int {
	lowered := strings.ToLower(text)
	hits := 0
	for _, term := range terms {
		if strings.Contains(lowered, term) {
			hits++
		}
	}
	return hits
}

func isWordRune(r rune) bool {
	return r == '-' || ('0' <= r && r <= '9') || ('a' <= r && r <= 'z') || r > 127
}
