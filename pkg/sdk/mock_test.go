package trackapi

import (
	"context"
	"net/url"
	"time"

	"github.com/fieldops/trackapi/internal/db"
	"github.com/fieldops/trackapi/internal/domain"
	"github.com/fieldops/trackapi/internal/domain/query"
	healthuc "github.com/fieldops/trackapi/internal/usecase/health"
)

// --- recordUseCase mock ---

type mockRecordUC struct {
	listFn func(ctx context.Context, resourceName string, params url.Values) ([]domain.Record, error)
}

func (m *mockRecordUC) List(ctx context.Context, resourceName string, params url.Values) ([]domain.Record, error) {
	return m.listFn(ctx, resourceName, params)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report {
	return m.report
}

// --- db.Store mock ---

type mockStore struct {
	pingErr error
	closed  bool
}

func (m *mockStore) Ping(context.Context) error { return m.pingErr }

func (m *mockStore) Close() { m.closed = true }

func (m *mockStore) WaitForReady(context.Context, time.Duration) error { return m.pingErr }

func (m *mockStore) Find(context.Context, db.Collection, query.Filter) ([]domain.Record, error) {
	return []domain.Record{}, nil
}

// prepStore is a mockStore that also needs per-collection setup.
type prepStore struct {
	mockStore
	prepared []db.Collection
	err      error
}

func (p *prepStore) PrepareCollection(_ context.Context, coll db.Collection, _ []string) error {
	p.prepared = append(p.prepared, coll)
	return p.err
}

// --- helpers ---

func testClient(recordSvc recordUseCase) *Client {
	return &Client{recordSvc: recordSvc}
}
