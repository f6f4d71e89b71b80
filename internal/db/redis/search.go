package redis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/fieldops/trackapi/internal/db"
	"github.com/fieldops/trackapi/internal/domain"
	"github.com/fieldops/trackapi/internal/domain/query"
)

// Find pages through FT.SEARCH until every matching document has been read.
// An empty filter scans the collection keys instead, so documents the index
// could not ingest are still listed.
func (s *Store) Find(ctx context.Context, coll db.Collection, f query.Filter) ([]domain.Record, error) {
	if coll.Name == "" {
		return nil, errors.New("collection name is required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	if f.IsEmpty() {
		return s.findAll(ctx, coll)
	}

	index := s.indexName(coll)
	q := buildQuery(f)

	records := make([]domain.Record, 0)
	for offset := 0; ; offset += s.pageSize {
		page, err := s.searchPage(ctx, index, q, offset, s.pageSize)
		if err != nil {
			return nil, err
		}

		for _, entry := range page.entries {
			rec, err := decodeRecord(entry.fields["$"])
			if err != nil {
				return nil, &db.Error{Op: db.OpDecode, Err: fmt.Errorf("%s: %w", entry.key, err)}
			}
			records = append(records, rec.StripInternalKey())
		}

		if len(page.entries) < s.pageSize || offset+len(page.entries) >= page.total {
			break
		}
	}
	return records, nil
}

func (s *Store) searchPage(ctx context.Context, index, q string, offset, limit int) (*searchResult, error) {
	args := []string{
		index, q,
		"RETURN", "1", "$",
		"LIMIT", strconv.Itoa(offset), strconv.Itoa(limit),
		"DIALECT", "2",
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("%s: %w", index, err)}
	}

	return parseListResult(raw)
}

// --- Result parsing ---

type searchResult struct {
	total   int
	entries []searchEntry
}

type searchEntry struct {
	key    string
	fields map[string]string
}

func parseListResult(raw []rueidis.RedisMessage) (*searchResult, error) {
	if len(raw) == 0 {
		return &searchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &searchResult{}, nil
	}

	entries := make([]searchEntry, 0, len(raw)/2)
	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		entries = append(entries, searchEntry{
			key:    key,
			fields: parseFieldPairs(fields),
		})
	}

	return &searchResult{total: int(total), entries: entries}, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// decodeRecord parses a stored JSON document, keeping numbers as their original literals.
func decodeRecord(raw string) (domain.Record, error) {
	if raw == "" {
		return nil, errors.New("empty document")
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()

	var rec domain.Record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	if rec == nil {
		return nil, errors.New("document is not an object")
	}
	return rec, nil
}

// --- Query building ---

// buildQuery translates a query.Filter into an FT.SEARCH intersection of tag matches.
func buildQuery(f query.Filter) string {
	if f.IsEmpty() {
		return "*"
	}
	parts := make([]string, 0, len(f.Conditions()))
	for _, c := range f.Conditions() {
		parts = append(parts, buildTagFilter(c.Field(), c.Value()))
	}
	return strings.Join(parts, " ")
}

func buildTagFilter(key, value string) string {
	return fmt.Sprintf("@%s:{%s}", key, tagEscaper.Replace(value))
}

var tagEscaper = strings.NewReplacer(
	`\`, `\\`,
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"[", "\\[",
	"]", "\\]",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"|", "\\|",
	"/", "\\/",
	" ", "\\ ",
)
