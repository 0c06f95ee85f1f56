package schema

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Loader fetches a table's schema from the authoritative source (DynamoDB's
// DescribeTable, in production; a fixture map in tests). It is the seam
// CachingProvider caches in front of.
type Loader interface {
	Load(ctx context.Context, table string) (*TableSchema, error)
	ListTables(ctx context.Context) ([]string, error)
}

// Provider is the schema lookup surface the semantic analyzer and planner
// consume (spec.md §4.6). Describe/Invalidate/List correspond to the
// lowercase describe/invalidate/list operations the spec names; Go exports
// them capitalized.
type Provider interface {
	Describe(ctx context.Context, table string) (*TableSchema, error)
	Invalidate(table string)
	List(ctx context.Context) ([]string, error)
}

type cacheEntry struct {
	schema  *TableSchema
	err     error
	expires time.Time
}

// CachingProvider wraps a Loader with a TTL cache and at-most-one-in-flight
// coalescing per table name, so concurrent statements describing the same
// table share a single DescribeTable call. Coalescing uses a per-key mutex,
// the same primitive the request-level Query type in this codebase's
// ancestry guards its cursor state with — there is no singleflight-style
// dependency anywhere in this module's stack.
type CachingProvider struct {
	loader Loader
	log    *zap.Logger
	ttl    time.Duration

	mu      sync.Mutex
	entries map[string]*cacheEntry
	locks   map[string]*sync.Mutex
}

// NewCachingProvider builds a CachingProvider with the given TTL. A zero TTL
// disables caching (every Describe call reaches the Loader).
func NewCachingProvider(loader Loader, ttl time.Duration, log *zap.Logger) *CachingProvider {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachingProvider{
		loader:  loader,
		ttl:     ttl,
		log:     log,
		entries: make(map[string]*cacheEntry),
		locks:   make(map[string]*sync.Mutex),
	}
}

func (p *CachingProvider) lockFor(table string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.locks[table]
	if !ok {
		l = &sync.Mutex{}
		p.locks[table] = l
	}
	return l
}

// Describe returns the cached schema if fresh, otherwise loads it, holding a
// per-table lock so concurrent callers for the same table wait on one
// upstream call instead of issuing one each.
func (p *CachingProvider) Describe(ctx context.Context, table string) (*TableSchema, error) {
	if entry, ok := p.fresh(table); ok {
		return entry.schema, entry.err
	}

	l := p.lockFor(table)
	l.Lock()
	defer l.Unlock()

	// Re-check: another goroutine may have populated the cache while we
	// waited for the lock.
	if entry, ok := p.fresh(table); ok {
		return entry.schema, entry.err
	}

	p.log.Debug("describing table", zap.String("table", table))
	sch, err := p.loader.Load(ctx, table)

	p.mu.Lock()
	p.entries[table] = &cacheEntry{schema: sch, err: err, expires: time.Now().Add(p.ttl)}
	p.mu.Unlock()

	if err != nil {
		p.log.Warn("describe table failed", zap.String("table", table), zap.Error(err))
	}
	return sch, err
}

func (p *CachingProvider) fresh(table string) (*cacheEntry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.entries[table]
	if !ok {
		return nil, false
	}
	if p.ttl <= 0 || time.Now().After(entry.expires) {
		return nil, false
	}
	return entry, true
}

// Invalidate drops a table's cached schema. The core calls this immediately
// after emitting any DDL statement so the next Describe observes the
// change (spec.md §4.6).
func (p *CachingProvider) Invalidate(table string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.entries, table)
}

// List delegates to the Loader; table lists are not cached since DUMP
// SCHEMA and DDL planning both want a live view.
func (p *CachingProvider) List(ctx context.Context) ([]string, error) {
	return p.loader.ListTables(ctx)
}
