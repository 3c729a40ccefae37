// Package lookup loads the dropdown data a report form needs before it can
// generate: branches, products of the report's category and the institute.
package lookup

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/cache"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/models"
)

// Message is shown at form level when any lookup fails
const Message = "Failed to load dropdown data"

// Source provides the raw lookup lists
type Source interface {
	ListBranches(ctx context.Context) ([]models.Branch, error)
	ListProducts(ctx context.Context, category int64) ([]models.Product, error)
	GetInstitute(ctx context.Context) (*models.Institute, error)
}

// Error reports a failed lookup load. Generation stays available with
// whatever selections the user already has.
type Error struct {
	Err error
}

func (e *Error) Error() string {
	return Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Service fans out lookup requests and caches the combined result per category
type Service struct {
	source Source
	cache  cache.Cache
	ttl    time.Duration
}

// NewService creates a lookup service. A zero ttl disables caching.
func NewService(source Source, c cache.Cache, ttl time.Duration) *Service {
	return &Service{source: source, cache: c, ttl: ttl}
}

// Load issues the three lookups concurrently and waits for all of them
func (s *Service) Load(ctx context.Context, category int64) (*models.Lookups, error) {
	key := fmt.Sprintf("lookups:%d", category)
	if s.cache != nil && s.ttl > 0 {
		if v, ok := s.cache.Get(key); ok {
			return v.(*models.Lookups), nil
		}
	}

	var (
		branches  []models.Branch
		products  []models.Product
		institute *models.Institute
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		branches, err = s.source.ListBranches(gctx)
		if err != nil {
			return fmt.Errorf("list branches: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		products, err = s.source.ListProducts(gctx, category)
		if err != nil {
			return fmt.Errorf("list products: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		institute, err = s.source.GetInstitute(gctx)
		if err != nil {
			return fmt.Errorf("get institute: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Int64("category", category).Msg("Failed to load lookups")
		return nil, &Error{Err: err}
	}

	if branches == nil {
		branches = []models.Branch{}
	}
	if products == nil {
		products = []models.Product{}
	}
	result := &models.Lookups{Branches: branches, Products: products, Institute: institute}

	if s.cache != nil && s.ttl > 0 {
		s.cache.Set(key, result, s.ttl)
	}
	return result, nil
}

// InstituteName returns the institute display name, empty when unavailable
func (s *Service) InstituteName(ctx context.Context, category int64) string {
	l, err := s.Load(ctx, category)
	if err != nil || l.Institute == nil {
		return ""
	}
	return l.Institute.Name
}
