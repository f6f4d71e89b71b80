package trackapi

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// Record is one stored document without its storage key.
type Record map[string]any

// Filter selects records by exact, case-sensitive equality. Empty fields are ignored.
type Filter struct {
	ID         string
	Name       string
	Location   string
	Status     string
	LastUpdate string

	// Extra holds conditions on fields of custom resources. Keys outside the
	// resource's allow-list are ignored.
	Extra map[string]string
}

// Values renders the filter as the query parameters accepted by the HTTP API.
func (f Filter) Values() url.Values {
	v := url.Values{}
	set := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}
	for k, val := range f.Extra {
		set(k, val)
	}
	set("id", f.ID)
	set("name", f.Name)
	set("location", f.Location)
	set("status", f.Status)
	set("lastUpdate", f.LastUpdate)
	return v
}

// RecordService reads records of one resource.
type RecordService struct {
	resource string
	svc      recordUseCase
	obs      *observer
}

// List returns every record matching f. No match yields an empty, non-nil slice.
func (s *RecordService) List(ctx context.Context, f Filter) (out []Record, err error) {
	start := time.Now()
	defer func() { s.obs.observe("list", s.resource, start, len(out), err) }()

	recs, err := s.svc.List(ctx, s.resource, f.Values())
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.resource, err)
	}

	out = make([]Record, len(recs))
	for i, r := range recs {
		out[i] = Record(r)
	}
	return out, nil
}
