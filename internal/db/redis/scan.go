package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/rueidis"

	"github.com/fieldops/trackapi/internal/db"
	"github.com/fieldops/trackapi/internal/domain"
)

const jsonKeyType = "ReJSON-RL"

// findAll reads every document under the collection prefix with SCAN and JSON.GET.
// Unlike FT.SEARCH it also returns documents the index rejected.
func (s *Store) findAll(ctx context.Context, coll db.Collection) ([]domain.Record, error) {
	keys, err := s.scanKeys(ctx, globEscaper.Replace(s.KeyPrefix(coll))+"*")
	if err != nil {
		return nil, err
	}

	records := make([]domain.Record, 0, len(keys))
	for start := 0; start < len(keys); start += s.pageSize {
		end := min(start+s.pageSize, len(keys))
		batch, err := s.getDocuments(ctx, keys[start:end])
		if err != nil {
			return nil, err
		}
		records = append(records, batch...)
	}
	return records, nil
}

// scanKeys collects JSON keys matching pattern from every node, sorted and deduplicated.
func (s *Store) scanKeys(ctx context.Context, pattern string) ([]string, error) {
	seen := make(map[string]struct{})
	for _, node := range s.client.Nodes() {
		var cursor uint64
		for {
			cmd := node.B().Scan().Cursor(cursor).Match(pattern).Count(int64(s.pageSize)).Type(jsonKeyType).Build()
			res, err := node.Do(ctx, cmd).AsScanEntry()
			if err != nil {
				return nil, &db.Error{Op: db.OpScan, Err: err}
			}
			for _, k := range res.Elements {
				seen[k] = struct{}{}
			}
			cursor = res.Cursor
			if cursor == 0 {
				break
			}
		}
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// getDocuments fetches keys in a single DoMulti round-trip. Keys deleted after the scan are skipped.
func (s *Store) getDocuments(ctx context.Context, keys []string) ([]domain.Record, error) {
	cmds := make([]rueidis.Completed, len(keys))
	for i, key := range keys {
		cmds[i] = s.b().Arbitrary("JSON.GET").Keys(key).Args("$").Build()
	}

	results := s.client.DoMulti(ctx, cmds...)
	out := make([]domain.Record, 0, len(results))
	for i, res := range results {
		raw, err := res.ToString()
		if err != nil {
			if rueidis.IsRedisNil(err) {
				continue
			}
			return nil, &db.Error{Op: db.OpGet, Err: fmt.Errorf("%s: %w", keys[i], err)}
		}
		rec, err := decodePathResult(raw)
		if err != nil {
			return nil, &db.Error{Op: db.OpDecode, Err: fmt.Errorf("%s: %w", keys[i], err)}
		}
		out = append(out, rec.StripInternalKey())
	}
	return out, nil
}

// decodePathResult unwraps the single-element array JSON.GET returns for the root path.
func decodePathResult(raw string) (domain.Record, error) {
	var matches []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &matches); err != nil {
		return nil, fmt.Errorf("unmarshal path result: %w", err)
	}
	if len(matches) == 0 {
		return nil, errors.New("empty path result")
	}
	return decodeRecord(string(matches[0]))
}

var globEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"?", `\?`,
	"[", `\[`,
	"]", `\]`,
)
