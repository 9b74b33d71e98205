// Package syncpolicy implements remote-first reads with a local write-through
// cache. A Policy is bound to one table; reads fall back to the cache when the
// remote fails and report which source served them, writes surface remote
// failures and refresh the cache on success.
package syncpolicy

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/nearbuy-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/nearbuy-backend/pkg/errors"
	"github.com/angelmondragon/nearbuy-backend/pkg/localcache"
	"github.com/angelmondragon/nearbuy-backend/pkg/logger"
	"github.com/angelmondragon/nearbuy-backend/pkg/metrics"
	"github.com/angelmondragon/nearbuy-backend/pkg/remote"
)

// DefaultRemoteTimeout bounds each remote call before falling back.
const DefaultRemoteTimeout = 5 * time.Second

var errCacheOnly = errors.New("table has no remote source")

// Policy applies the sync algorithm to rows of type T stored in one table.
type Policy[T localcache.Row] struct {
	table     string
	remote    remote.Store
	cache     localcache.Store
	timeout   time.Duration
	logg      *logger.Logger
	metrics   *metrics.SyncMetrics
	transform func(T) T
}

// Options are shared by every policy of a process.
type Options struct {
	// Timeout bounds each remote call; zero means DefaultRemoteTimeout.
	Timeout time.Duration
	Logger  *logger.Logger
	Metrics *metrics.SyncMetrics
}

// New binds a policy to table. remoteStore may be nil for cache-only tables.
func New[T localcache.Row](table string, remoteStore remote.Store, cache localcache.Store, opts Options) (*Policy[T], error) {
	if table == "" {
		return nil, errors.New("table required")
	}
	if cache == nil {
		return nil, errors.New("local cache required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultRemoteTimeout
	}
	return &Policy[T]{
		table:   table,
		remote:  remoteStore,
		cache:   cache,
		timeout: timeout,
		logg:    opts.Logger,
		metrics: opts.Metrics,
	}, nil
}

// WithCacheTransform rewrites rows before they are cached, e.g. to drop
// display fields the cache must not retain.
func (p *Policy[T]) WithCacheTransform(fn func(T) T) *Policy[T] {
	p.transform = fn
	return p
}

// Table returns the table the policy is bound to.
func (p *Policy[T]) Table() string { return p.table }

// CacheOnly reports whether the policy has no remote source.
func (p *Policy[T]) CacheOnly() bool { return p.remote == nil }

// Fetch reads from the remote and writes every row through to the cache. Any
// remote failure is logged and answered from the cache instead; an empty
// cache yields an empty CACHE result. The error is non-nil only when the
// cache could not be read either.
func (p *Policy[T]) Fetch(ctx context.Context, q Query[T]) (Result[T], error) {
	if p.remote == nil {
		items, err := p.Cached(ctx, q.CacheIndex, q.Match)
		if err != nil {
			return Result[T]{Source: enums.DataSourceCache}, err
		}
		p.metrics.IncFetch(p.table, enums.DataSourceCache.String())
		return Result[T]{Items: items, Source: enums.DataSourceCache}, nil
	}

	items, remoteErr := p.load(ctx, q.Remote, q.wholeIndex())
	if remoteErr == nil {
		p.metrics.IncFetch(p.table, enums.DataSourceRemote.String())
		return Result[T]{Items: items, Source: enums.DataSourceRemote}, nil
	}

	p.degraded(ctx, remoteErr)
	items, cacheErr := p.Cached(ctx, q.CacheIndex, q.Match)
	if cacheErr != nil {
		return Result[T]{Source: enums.DataSourceCache, Cause: remoteErr},
			pkgerrors.Wrap(pkgerrors.CodeInternal, multierr.Combine(remoteErr, cacheErr), "read "+p.table)
	}
	p.metrics.IncFetch(p.table, enums.DataSourceCache.String())
	return Result[T]{Items: items, Source: enums.DataSourceCache, Cause: remoteErr}, nil
}

// Remote selects from the remote under the policy timeout and writes the
// rows through. It does not fall back; failures come back as
// REMOTE_UNAVAILABLE.
func (p *Policy[T]) Remote(ctx context.Context, q remote.Query) ([]T, error) {
	return p.load(ctx, q, "")
}

// load selects remotely and writes the rows through. A non-empty replace
// index is emptied first so rows deleted remotely leave the cache too.
func (p *Policy[T]) load(ctx context.Context, q remote.Query, replace string) ([]T, error) {
	if p.remote == nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeRemoteUnavailable, errCacheOnly, p.table)
	}

	var rows []T
	err := p.call(ctx, "select", func(ctx context.Context) error {
		return p.remote.Select(ctx, p.table, q, &rows)
	})
	if err != nil {
		return nil, err
	}

	if replace != "" {
		if err := p.EvictIndex(ctx, replace); err != nil {
			p.warn(ctx, "cache eviction failed", err)
		}
	}
	if err := p.WriteThrough(ctx, rows...); err != nil {
		p.warn(ctx, "cache write-through failed", err)
	}
	if rows == nil {
		rows = []T{}
	}
	return rows, nil
}

// Cached reads rows sharing index (every row when index is empty) and keeps
// those accepted by match.
func (p *Policy[T]) Cached(ctx context.Context, index string, match func(T) bool) ([]T, error) {
	var rows []T
	var err error
	if index == "" {
		err = p.cache.All(ctx, p.table, &rows)
	} else {
		err = p.cache.GetAllByIndex(ctx, p.table, index, &rows)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read cached "+p.table)
	}

	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if match == nil || match(row) {
			out = append(out, row)
		}
	}
	return out, nil
}

// Lookup reads a single cached row by id without asking the remote.
func (p *Policy[T]) Lookup(ctx context.Context, id string) (T, bool, error) {
	var row T
	found, err := p.cache.Get(ctx, p.table, id, &row)
	if err != nil {
		return row, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read cached "+p.table)
	}
	return row, found, nil
}

// Get reads a single row by id. The remote is asked first with f; when it
// fails or has no such row the cache is consulted. Absent from both is
// NOT_FOUND.
func (p *Policy[T]) Get(ctx context.Context, id string, f remote.Filter) (T, enums.DataSource, error) {
	var zero T

	if p.remote != nil {
		rows, err := p.Remote(ctx, remote.Query{Filter: f, Limit: 1})
		switch {
		case err != nil:
			p.degraded(ctx, err)
		case len(rows) > 0:
			p.metrics.IncFetch(p.table, enums.DataSourceRemote.String())
			return rows[0], enums.DataSourceRemote, nil
		}
	}

	row, found, err := p.Lookup(ctx, id)
	if err != nil {
		return zero, enums.DataSourceCache, err
	}
	if !found {
		return zero, enums.DataSourceCache, pkgerrors.New(pkgerrors.CodeNotFound, p.table+" "+id+" not found")
	}
	p.metrics.IncFetch(p.table, enums.DataSourceCache.String())
	return row, enums.DataSourceCache, nil
}

// Insert writes rows to the remote, refreshing them with the stored
// representation, then caches them.
func (p *Policy[T]) Insert(ctx context.Context, rows ...T) ([]T, error) {
	if len(rows) == 0 {
		return rows, nil
	}
	if p.remote == nil {
		return rows, p.WriteThrough(ctx, rows...)
	}

	err := p.call(ctx, "insert", func(ctx context.Context) error {
		return p.remote.Insert(ctx, p.table, &rows)
	})
	if err != nil {
		return nil, err
	}
	if err := p.WriteThrough(ctx, rows...); err != nil {
		p.warn(ctx, "cache write-through failed", err)
	}
	return rows, nil
}

// Update applies patch remotely to rows matching f and caches updated, the
// caller's post-update copies.
func (p *Policy[T]) Update(ctx context.Context, f remote.Filter, patch map[string]any, updated ...T) error {
	if p.remote != nil {
		err := p.call(ctx, "update", func(ctx context.Context) error {
			return p.remote.Update(ctx, p.table, patch, f)
		})
		if err != nil {
			return err
		}
	}
	if err := p.WriteThrough(ctx, updated...); err != nil {
		p.warn(ctx, "cache write-through failed", err)
	}
	return nil
}

// Delete removes rows matching f remotely and evicts ids from the cache.
func (p *Policy[T]) Delete(ctx context.Context, f remote.Filter, ids ...string) error {
	if p.remote != nil {
		err := p.call(ctx, "delete", func(ctx context.Context) error {
			return p.remote.Delete(ctx, p.table, f)
		})
		if err != nil {
			return err
		}
	}
	if err := p.Evict(ctx, ids...); err != nil {
		p.warn(ctx, "cache eviction failed", err)
	}
	return nil
}

// InTx runs fn inside one remote transaction bounded by the remote timeout.
// fn must issue its writes with the ctx it is given. It reports false
// without running fn when the remote cannot provide transactions.
func (p *Policy[T]) InTx(ctx context.Context, fn func(ctx context.Context, tx remote.Store) error) (bool, error) {
	atomic, ok := p.remote.(remote.Atomic)
	if !ok {
		return false, nil
	}
	return true, p.call(ctx, "tx", func(ctx context.Context) error {
		return atomic.InTx(ctx, fn)
	})
}

// WriteThrough upserts rows into the cache only. Rows without an identity
// are skipped.
func (p *Policy[T]) WriteThrough(ctx context.Context, rows ...T) error {
	var errs error
	for _, row := range rows {
		if id := row.EntityID(); id == "" || id == uuid.Nil.String() {
			continue
		}
		if p.transform != nil {
			row = p.transform(row)
		}
		errs = multierr.Append(errs, p.cache.Upsert(ctx, p.table, row))
	}
	return errs
}

// Evict removes ids from the cache only.
func (p *Policy[T]) Evict(ctx context.Context, ids ...string) error {
	var errs error
	for _, id := range ids {
		errs = multierr.Append(errs, p.cache.Delete(ctx, p.table, id))
	}
	return errs
}

// EvictIndex removes every cached row sharing index.
func (p *Policy[T]) EvictIndex(ctx context.Context, index string) error {
	return p.cache.DeleteByIndex(ctx, p.table, index)
}

func (p *Policy[T]) call(ctx context.Context, op string, fn func(context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	err := fn(callCtx)
	p.metrics.ObserveRemote(p.table, op, time.Since(start), err)
	if err == nil {
		return nil
	}
	if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeRemoteUnavailable {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeRemoteUnavailable, err, op+" "+p.table)
}

func (p *Policy[T]) degraded(ctx context.Context, cause error) {
	if p.logg == nil {
		return
	}
	p.logg.Degraded(ctx, p.table, cause)
}

func (p *Policy[T]) warn(ctx context.Context, msg string, err error) {
	if p.logg == nil {
		return
	}
	ctx = p.logg.WithTable(ctx, p.table)
	ctx = p.logg.WithField(ctx, "error", err.Error())
	p.logg.Warn(ctx, msg)
}
