package syncpolicy

import (
	"github.com/angelmondragon/nearbuy-backend/pkg/enums"
	"github.com/angelmondragon/nearbuy-backend/pkg/localcache"
	"github.com/angelmondragon/nearbuy-backend/pkg/remote"
)

// Query describes one read for both sources.
type Query[T localcache.Row] struct {
	// Remote is sent to the remote store as is.
	Remote remote.Query
	// CacheIndex selects cached rows by index key; empty means every row.
	CacheIndex string
	// Match narrows cached rows the way Remote.Filter narrows remote ones.
	// Without Match and without a Remote limit the answer is taken as the
	// whole CacheIndex and replaces it in the cache.
	Match func(T) bool
}

func (q Query[T]) wholeIndex() string {
	if q.Match != nil || q.Remote.Limit > 0 {
		return ""
	}
	return q.CacheIndex
}

// Result carries the rows of a read and where they came from. Cause holds
// the remote error that forced a cache answer.
type Result[T any] struct {
	Items  []T
	Source enums.DataSource
	Cause  error
}

// Degraded reports whether the remote failed and the cache answered.
func (r Result[T]) Degraded() bool {
	return r.Source == enums.DataSourceCache && r.Cause != nil
}

// Map converts the items of a result while keeping its source and cause.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	out := Result[U]{Items: make([]U, 0, len(r.Items)), Source: r.Source, Cause: r.Cause}
	for _, item := range r.Items {
		out.Items = append(out.Items, fn(item))
	}
	return out
}
