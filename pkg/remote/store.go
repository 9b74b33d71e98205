// Package remote talks to the authoritative row store. Rows are addressed by
// table name and selected with Filter expressions; implementations decode
// into caller supplied slices so the same models serve SQL and REST backends.
package remote

import "context"

// Store is the remote source of truth.
type Store interface {
	// Select decodes matching rows into dest, a pointer to a slice.
	Select(ctx context.Context, table string, q Query, dest any) error
	// Insert writes rows (pointer to a struct or slice) and refreshes them
	// with the stored representation, so generated ids flow back.
	Insert(ctx context.Context, table string, rows any) error
	Update(ctx context.Context, table string, patch map[string]any, f Filter) error
	Delete(ctx context.Context, table string, f Filter) error
}

// Atomic is implemented by stores that can group writes in one transaction.
type Atomic interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
