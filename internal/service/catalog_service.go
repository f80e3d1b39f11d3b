package service

import (
	"context"
	"time"

	"cpa-academy/internal/cache"
	"cpa-academy/internal/domain"
)

// CatalogService lists subjects and units.
type CatalogService interface {
	ListSubjects(ctx context.Context) ([]domain.Subject, error)
	ListUnits(ctx context.Context, filter domain.UnitFilter) ([]domain.Unit, error)
}

type catalogService struct {
	repo  domain.CatalogRepository
	cache domain.Cache
	ttl   time.Duration
}

// NewCatalogService creates a CatalogService. cache may be nil.
func NewCatalogService(repo domain.CatalogRepository, cache domain.Cache, ttl time.Duration) CatalogService {
	return &catalogService{repo: repo, cache: cache, ttl: ttl}
}

func (s *catalogService) ListSubjects(ctx context.Context) ([]domain.Subject, error) {
	subjects, err := cachedJSON(ctx, s.cache, cache.SubjectsKey(), s.ttl, func() ([]domain.Subject, error) {
		return s.repo.ListSubjects(ctx)
	})
	if err != nil {
		return nil, domain.NewInternalError("Failed to list subjects", err)
	}
	return subjects, nil
}

func (s *catalogService) ListUnits(ctx context.Context, filter domain.UnitFilter) ([]domain.Unit, error) {
	if filter.SubjectID < 0 {
		return nil, domain.NewInvalidInputError("subject must be a positive id.")
	}
	units, err := cachedJSON(ctx, s.cache, cache.UnitsKey(filter.SubjectID, filter.Search), s.ttl, func() ([]domain.Unit, error) {
		return s.repo.ListUnits(ctx, filter)
	})
	if err != nil {
		return nil, domain.NewInternalError("Failed to list units", err)
	}
	return units, nil
}
