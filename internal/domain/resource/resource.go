// Package resource describes the queryable record collections.
package resource

import (
	"fmt"
	"slices"

	"github.com/fieldops/trackapi/internal/domain"
	"github.com/fieldops/trackapi/internal/domain/query"
)

// Resource binds a public name to a stored collection and its filterable fields.
type Resource struct {
	name       string
	database   string
	collection string
	fields     []string
}

// New validates and creates a Resource. An empty field list falls back to query.DefaultFields.
func New(name, database, collection string, fields []string) (Resource, error) {
	if name == "" {
		return Resource{}, fmt.Errorf("resource name is required")
	}
	if collection == "" {
		return Resource{}, fmt.Errorf("collection is required for resource %q", name)
	}
	if len(fields) == 0 {
		fields = query.DefaultFields
	}
	for _, f := range fields {
		if f == "" {
			return Resource{}, fmt.Errorf("empty field name in resource %q", name)
		}
		if f == domain.InternalKeyField {
			return Resource{}, fmt.Errorf("field %q of resource %q is the storage key and cannot be filtered", f, name)
		}
	}
	return Resource{
		name:       name,
		database:   database,
		collection: collection,
		fields:     slices.Clone(fields),
	}, nil
}

// Name returns the public resource name used in the URL path.
func (r Resource) Name() string { return r.name }

// Database returns the database holding the collection. Empty means the store default.
func (r Resource) Database() string { return r.database }

// Collection returns the stored collection name.
func (r Resource) Collection() string { return r.collection }

// Fields returns the filterable field allow-list.
func (r Resource) Fields() []string { return r.fields }

// Defaults returns the personnel and vehicle resources with their historical storage layout.
func Defaults() []Resource {
	return []Resource{
		{name: "personnel", database: "usetrackingDB", collection: "personnel", fields: slices.Clone(query.DefaultFields)},
		{name: "vehicles", database: "vehicletrackingDB", collection: "vehicle", fields: slices.Clone(query.DefaultFields)},
	}
}

// Registry looks up resources by name.
type Registry struct {
	byName map[string]Resource
	order  []string
}

// NewRegistry indexes resources by name, rejecting duplicates.
func NewRegistry(resources ...Resource) (*Registry, error) {
	r := &Registry{byName: make(map[string]Resource, len(resources))}
	for _, res := range resources {
		if res.name == "" {
			return nil, fmt.Errorf("resource name is required")
		}
		if _, ok := r.byName[res.name]; ok {
			return nil, fmt.Errorf("duplicate resource %q", res.name)
		}
		r.byName[res.name] = res
		r.order = append(r.order, res.name)
	}
	return r, nil
}

// Get returns the resource registered under name.
func (r *Registry) Get(name string) (Resource, bool) {
	res, ok := r.byName[name]
	return res, ok
}

// All returns the resources in registration order.
func (r *Registry) All() []Resource {
	out := make([]Resource, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.byName[n])
	}
	return out
}
