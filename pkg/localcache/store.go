// Package localcache keeps the last known good copy of remote rows so reads
// can be served while the remote is unreachable.
package localcache

import "context"

// Row is anything the cache can hold: an entity with a stable id and one
// secondary index key (owning customer, store, order, ...).
type Row interface {
	EntityID() string
	IndexKey() string
}

// Store is an embedded table store keyed by entity id.
type Store interface {
	// Get decodes the row into dest and reports whether it was present.
	Get(ctx context.Context, table, id string, dest any) (bool, error)
	// GetAllByIndex decodes every row sharing index into dest, a pointer to a slice.
	GetAllByIndex(ctx context.Context, table, index string, dest any) error
	All(ctx context.Context, table string, dest any) error
	Upsert(ctx context.Context, table string, row Row) error
	Delete(ctx context.Context, table, id string) error
	DeleteByIndex(ctx context.Context, table, index string) error
}
