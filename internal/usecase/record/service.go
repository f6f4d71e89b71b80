package record

import (
	"context"
	"fmt"
	"net/url"

	"github.com/fieldops/trackapi/internal/domain"
	"github.com/fieldops/trackapi/internal/domain/query"
	"github.com/fieldops/trackapi/internal/domain/resource"
)

// Service answers equality-filtered reads for registered resources.
type Service struct {
	repo      Repository
	resources *resource.Registry
}

// New creates a record service.
func New(repo Repository, resources *resource.Registry) *Service {
	return &Service{repo: repo, resources: resources}
}

// Resources returns the registered resources in registration order.
func (s *Service) Resources() []resource.Resource {
	return s.resources.All()
}

// List returns the records of resourceName matching the allow-listed, non-empty params.
func (s *Service) List(ctx context.Context, resourceName string, params url.Values) ([]domain.Record, error) {
	res, ok := s.resources.Get(resourceName)
	if !ok {
		return nil, fmt.Errorf("%q: %w", resourceName, domain.ErrUnknownResource)
	}

	recs, err := s.repo.Find(ctx, res, query.Build(params, res.Fields()))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", resourceName, err)
	}
	return recs, nil
}
