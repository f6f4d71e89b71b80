package query

import (
	"net/url"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/fieldops/trackapi/internal/domain"
)

func TestNewCondition_Validation(t *testing.T) {
	if _, err := NewCondition("", "x"); err == nil {
		t.Error("expected error for empty field")
	}
	if _, err := NewCondition("status", ""); err == nil {
		t.Error("expected error for empty value")
	}
	c, err := NewCondition("status", "active")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Field() != "status" || c.Value() != "active" {
		t.Errorf("got %q=%q", c.Field(), c.Value())
	}
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  map[string]string
	}{
		{"no params", "", map[string]string{}},
		{"single", "id=P1", map[string]string{"id": "P1"}},
		{"location and status", "location=HQ&status=active", map[string]string{"location": "HQ", "status": "active"}},
		{"all fields", "id=P1&name=Alice&location=HQ&status=active&lastUpdate=2024-01-01T00:00:00Z",
			map[string]string{
				"id": "P1", "name": "Alice", "location": "HQ", "status": "active",
				"lastUpdate": "2024-01-01T00:00:00Z",
			}},
		{"unsupported param ignored", "foo=bar", map[string]string{}},
		{"empty value ignored", "status=&name=Bob", map[string]string{"name": "Bob"}},
		{"first value wins", "status=active&status=inactive", map[string]string{"status": "active"}},
		{"case preserved", "status=Active", map[string]string{"status": "Active"}},
		{"field names are case-sensitive", "Status=active", map[string]string{}},
		{"unparsed timestamp passes through", "lastUpdate=not-a-date", map[string]string{"lastUpdate": "not-a-date"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatalf("parse query: %v", err)
			}
			got := Build(params, DefaultFields).Map()
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("%s = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestBuild_KeepsAllowListOrder(t *testing.T) {
	params := url.Values{"status": {"active"}, "id": {"P1"}, "lastUpdate": {"t"}}
	conds := Build(params, DefaultFields).Conditions()

	want := []string{"id", "status", "lastUpdate"}
	if len(conds) != len(want) {
		t.Fatalf("expected %d conditions, got %d", len(want), len(conds))
	}
	for i, c := range conds {
		if c.Field() != want[i] {
			t.Errorf("condition %d: got %q, want %q", i, c.Field(), want[i])
		}
	}
}

func TestBuild_DuplicateAllowListEntries(t *testing.T) {
	f := Build(url.Values{"id": {"P1"}}, []string{"id", "id"})
	if len(f.Conditions()) != 1 {
		t.Errorf("expected 1 condition, got %d", len(f.Conditions()))
	}
}

func TestBuild_NilParams(t *testing.T) {
	if !Build(nil, DefaultFields).IsEmpty() {
		t.Error("expected empty filter for nil params")
	}
}

func TestFilter_Matches(t *testing.T) {
	p1 := domain.Record{"id": "P1", "name": "Alice", "location": "HQ", "status": "active"}
	p2 := domain.Record{"id": "P2", "name": "Bob", "location": "HQ", "status": "inactive"}

	tests := []struct {
		name   string
		query  string
		wantP1 bool
		wantP2 bool
	}{
		{"empty filter matches all", "", true, true},
		{"shared location", "location=HQ", true, true},
		{"AND combination", "location=HQ&status=active", true, false},
		{"case-sensitive", "status=Active", false, false},
		{"no partial match", "name=Ali", false, false},
		{"missing field never matches", "lastUpdate=x", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, _ := url.ParseQuery(tt.query)
			f := Build(params, DefaultFields)
			if got := f.Matches(p1); got != tt.wantP1 {
				t.Errorf("P1: got %v, want %v", got, tt.wantP1)
			}
			if got := f.Matches(p2); got != tt.wantP2 {
				t.Errorf("P2: got %v, want %v", got, tt.wantP2)
			}
		})
	}
}

func TestFilter_Matches_NoCoercion(t *testing.T) {
	f := NewFilter(Condition{field: "id", value: "5"})
	if f.Matches(domain.Record{"id": 5}) {
		t.Error("numeric field must not match a string filter")
	}
}

func TestBuild_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("filter holds exactly the supplied allow-listed subset", prop.ForAll(
		func(present []bool, values []string) bool {
			params := url.Values{}
			want := map[string]string{}
			for i, field := range DefaultFields {
				if present[i] {
					params.Set(field, values[i])
					want[field] = values[i]
				}
			}
			got := Build(params, DefaultFields).Map()
			if len(got) != len(want) {
				return false
			}
			for k, v := range want {
				if got[k] != v {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(len(DefaultFields), gen.Bool()),
		gen.SliceOfN(len(DefaultFields), gen.Identifier()),
	))

	properties.Property("parameters outside the allow-list never constrain", prop.ForAll(
		func(key, value string) bool {
			params := url.Values{"x_" + key: {value}}
			return Build(params, DefaultFields).IsEmpty()
		},
		gen.Identifier(),
		gen.AlphaString(),
	))

	properties.Property("a record matches the filter built from its own fields", prop.ForAll(
		func(values []string) bool {
			rec := domain.Record{"extra": "kept"}
			params := url.Values{}
			for i, field := range DefaultFields {
				rec[field] = values[i]
				params.Set(field, values[i])
			}
			return Build(params, DefaultFields).Matches(rec)
		},
		gen.SliceOfN(len(DefaultFields), gen.Identifier()),
	))

	properties.Property("matching is case-sensitive", prop.ForAll(
		func(value string) bool {
			upper := strings.ToUpper(value)
			if upper == value {
				return true
			}
			f := Build(url.Values{"status": {upper}}, DefaultFields)
			return !f.Matches(domain.Record{"status": value})
		},
		gen.Identifier(),
	))

	properties.TestingRun(t)
}
