package record

import (
	"context"
	"testing"

	"github.com/fieldops/trackapi/internal/db"
	"github.com/fieldops/trackapi/internal/domain"
	"github.com/fieldops/trackapi/internal/domain/query"
	"github.com/fieldops/trackapi/internal/domain/resource"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	findFn func(ctx context.Context, coll db.Collection, f query.Filter) ([]domain.Record, error)
}

func (m *mockStore) Find(ctx context.Context, coll db.Collection, f query.Filter) ([]domain.Record, error) {
	if m.findFn != nil {
		return m.findFn(ctx, coll, f)
	}
	return nil, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms), ms
}

func personnelResource(t *testing.T) resource.Resource {
	t.Helper()
	return resource.Defaults()[0]
}

func mustFilter(t *testing.T, pairs ...string) query.Filter {
	t.Helper()
	var conds []query.Condition
	for i := 0; i+1 < len(pairs); i += 2 {
		c, err := query.NewCondition(pairs[i], pairs[i+1])
		if err != nil {
			t.Fatalf("NewCondition: %v", err)
		}
		conds = append(conds, c)
	}
	return query.NewFilter(conds...)
}
