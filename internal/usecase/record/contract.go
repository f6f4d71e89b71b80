package record

import (
	"context"

	"github.com/fieldops/trackapi/internal/domain"
	"github.com/fieldops/trackapi/internal/domain/query"
	"github.com/fieldops/trackapi/internal/domain/resource"
)

// Repository defines the storage contract for record reads.
type Repository interface {
	Find(ctx context.Context, res resource.Resource, f query.Filter) ([]domain.Record, error)
}
