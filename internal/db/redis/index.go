package redis

import (
	"context"
	"fmt"

	"github.com/fieldops/trackapi/internal/db"
)

// tagSeparator keeps commas and spaces inside a single tag value.
const tagSeparator = "\x1f"

// PrepareCollection creates the search index over coll's documents if it does not exist.
// Every filterable field becomes a case-sensitive TAG so matching stays exact.
func (s *Store) PrepareCollection(ctx context.Context, coll db.Collection, fields []string) error {
	name := s.indexName(coll)

	exists, err := s.indexExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	args, err := buildCreateArgs(name, s.KeyPrefix(coll), fields)
	if err != nil {
		return err
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return nil
		}
		return &db.Error{Op: db.OpCreateIndex, Err: fmt.Errorf("%s: %w", name, err)}
	}
	return nil
}

// indexExists probes index existence via FT.INFO; "unknown index name" means absent.
func (s *Store) indexExists(ctx context.Context, name string) (bool, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(name).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index name") || isRedisErr(err, "no such index") {
			return false, nil
		}
		return false, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
	return true, nil
}

func buildCreateArgs(name, prefix string, fields []string) ([]string, error) {
	b := db.NewIndex(name).OnJSON().Prefix(prefix)
	for _, f := range fields {
		b.JSONTag(f, tagSeparator, true)
	}
	def, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", name, err)
	}
	return def.Args(), nil
}
