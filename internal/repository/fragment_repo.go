package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/examina/examina-api/internal/models"
)

// FragmentRepository reads the indexed exam material backing context retrieval.
type FragmentRepository interface {
	// SearchByTerms returns fragments of one exam's material matching at
	// least one term. Scoping by exam is mandatory; there is no unscoped
	// query path.
	SearchByTerms(ctx context.Context, examScope string, terms []string, limit int) ([]models.ContentFragment, error)
}

type fragmentRepository struct {
	db *gorm.DB
}

// NewFragmentRepository instantiates the repository.
func NewFragmentRepository(db *gorm.DB) FragmentRepository {
	return &fragmentRepository{db: db}
}

func (r *fragmentRepository) SearchByTerms(ctx context.Context, examScope string, terms []string, limit int) ([]models.ContentFragment, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	query := r.db.WithContext(ctx).
		Model(&models.ContentFragment{}).
		Where("exam_scope = ?", examScope)

	matcher := r.db.Session(&gorm.Session{NewDB: true})
	for _, term := range terms {
		pattern := "%" + strings.ToLower(term) + "%"
		matcher = matcher.Or("LOWER(text) LIKE ?", pattern)
	}
	query = query.Where(matcher)

	var fragments []models.ContentFragment
	if err := query.Limit(limit).Find(&fragments).Error; err != nil {
		return nil, err
	}

	return fragments, nil
}
