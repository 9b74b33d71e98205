// Package remotetest provides an in-memory remote.Store for tests, with
// failure injection per table and operation.
package remotetest

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/angelmondragon/nearbuy-backend/pkg/remote"
)

const (
	OpSelect = "select"
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
)

type row = map[string]any

// Store keeps tables as ordered lists of JSON objects.
type Store struct {
	mu       sync.Mutex
	tables   map[string][]row
	failures map[string]error
	calls    map[string]int

	// OmitIDs makes inserts leave rows without an id, like a remote that
	// does not return generated keys.
	OmitIDs bool
}

func New() *Store {
	return &Store{
		tables:   map[string][]row{},
		failures: map[string]error{},
		calls:    map[string]int{},
	}
}

// Fail makes every op on table return err until Recover is called.
func (s *Store) Fail(op, table string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op+"/"+table] = err
}

// FailAll makes every operation on every table fail with err.
func (s *Store) FailAll(err error) {
	for _, op := range []string{OpSelect, OpInsert, OpUpdate, OpDelete} {
		s.Fail(op, "*", err)
	}
}

func (s *Store) Recover() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = map[string]error{}
}

// Calls reports how many times op ran against table, failed calls included.
func (s *Store) Calls(op, table string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op+"/"+table]
}

// Seed inserts rows without recording a call.
func (s *Store) Seed(table string, rows any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	decoded, err := toRows(rows)
	if err != nil {
		panic(err)
	}
	s.tables[table] = append(s.tables[table], decoded...)
}

// Rows returns a copy of a table decoded into dest.
func (s *Store) Rows(table string, dest any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := decodeInto(s.tables[table], dest); err != nil {
		panic(err)
	}
}

func (s *Store) Select(ctx context.Context, table string, q remote.Query, dest any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, OpSelect, table); err != nil {
		return err
	}
	if err := q.Validate(); err != nil {
		return err
	}

	var matched []row
	for _, r := range s.tables[table] {
		if matches(r, q.Filter) {
			matched = append(matched, r)
		}
	}
	for i := len(q.OrderBy) - 1; i >= 0; i-- {
		o := q.OrderBy[i]
		sort.SliceStable(matched, func(a, b int) bool {
			c := compare(matched[a][o.Column], matched[b][o.Column])
			if o.Desc {
				return c > 0
			}
			return c < 0
		})
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return decodeInto(matched, dest)
}

func (s *Store) Insert(ctx context.Context, table string, rows any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, OpInsert, table); err != nil {
		return err
	}

	decoded, err := toRows(rows)
	if err != nil {
		return err
	}
	for _, r := range decoded {
		if id, _ := r["id"].(string); !s.OmitIDs && (id == "" || id == uuid.Nil.String()) {
			r["id"] = uuid.NewString()
		}
	}
	s.tables[table] = append(s.tables[table], decoded...)

	buf, err := json.Marshal(decoded)
	if err != nil {
		return err
	}
	if reflect.TypeOf(rows).Elem().Kind() == reflect.Slice {
		return json.Unmarshal(buf, rows)
	}
	return json.Unmarshal(mustMarshal(decoded[0]), rows)
}

func (s *Store) Update(ctx context.Context, table string, patch map[string]any, f remote.Filter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, OpUpdate, table); err != nil {
		return err
	}
	if err := f.Validate(); err != nil {
		return err
	}

	var normalized row
	if err := json.Unmarshal(mustMarshal(patch), &normalized); err != nil {
		return err
	}
	for _, r := range s.tables[table] {
		if matches(r, f) {
			for k, v := range normalized {
				r[k] = v
			}
		}
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, table string, f remote.Filter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, OpDelete, table); err != nil {
		return err
	}
	if err := f.Validate(); err != nil {
		return err
	}

	kept := s.tables[table][:0]
	for _, r := range s.tables[table] {
		if !matches(r, f) {
			kept = append(kept, r)
		}
	}
	s.tables[table] = kept
	return nil
}

// InTx restores every table when fn fails.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx remote.Store) error) error {
	s.mu.Lock()
	snapshot := map[string][]row{}
	for name, rows := range s.tables {
		var copied []row
		if err := json.Unmarshal(mustMarshal(rows), &copied); err != nil {
			s.mu.Unlock()
			return err
		}
		snapshot[name] = copied
	}
	s.mu.Unlock()

	if err := fn(ctx, s); err != nil {
		s.mu.Lock()
		s.tables = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) enter(ctx context.Context, op, table string) error {
	s.calls[op+"/"+table]++
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.failures[op+"/"+table]; err != nil {
		return err
	}
	return s.failures[op+"/*"]
}

func matches(r row, f remote.Filter) bool {
	for _, clause := range f {
		ok := false
		for _, cond := range clause.Any {
			actual := scalar(r[cond.Column])
			expected := scalar(normalize(cond.Value))
			switch cond.Op {
			case remote.OpILike:
				ok = strings.Contains(strings.ToLower(actual), strings.ToLower(expected))
			default:
				ok = actual == expected
			}
			if ok {
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

func normalize(v any) any {
	var out any
	if err := json.Unmarshal(mustMarshal(v), &out); err != nil {
		return v
	}
	return out
}

func scalar(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

func compare(a, b any) int {
	af, aok := a.(float64)
	bf, bok := b.(float64)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}
	return strings.Compare(scalar(a), scalar(b))
}

func toRows(v any) ([]row, error) {
	buf, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(string(buf))
	if strings.HasPrefix(trimmed, "[") {
		var out []row
		return out, json.Unmarshal(buf, &out)
	}
	var single row
	if err := json.Unmarshal(buf, &single); err != nil {
		return nil, err
	}
	return []row{single}, nil
}

func decodeInto(rows []row, dest any) error {
	if rows == nil {
		rows = []row{}
	}
	return json.Unmarshal(mustMarshal(rows), dest)
}

func mustMarshal(v any) []byte {
	buf, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return buf
}
