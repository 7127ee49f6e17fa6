package redis

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/pspschool/studentms/internal/domain/school"
	"github.com/pspschool/studentms/pkg/circuitbreaker"
	"github.com/pspschool/studentms/pkg/logger"
)

// kv is the subset of Cache used by ReportCache.
type kv interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// ReportCache implements school.ReportCache on top of Cache.
//
// Calls go through a circuit breaker so an unreachable Redis costs one
// timeout, not one per report. Any invalidation that could not be delivered
// marks the cache stale; a stale cache serves nothing until a full flush
// succeeds.
type ReportCache struct {
	kv      kv
	ttl     time.Duration
	breaker *circuitbreaker.CircuitBreaker
	stale   atomic.Bool
	log     *logger.Logger
}

var _ school.ReportCache = (*ReportCache)(nil)

// ReportCacheOption configures a ReportCache.
type ReportCacheOption func(*ReportCache)

// WithBreaker replaces the default breaker.
func WithBreaker(cb *circuitbreaker.CircuitBreaker) ReportCacheOption {
	return func(r *ReportCache) { r.breaker = cb }
}

// WithLogger logs breaker transitions.
func WithLogger(log *logger.Logger) ReportCacheOption {
	return func(r *ReportCache) { r.log = log }
}

// NewReportCache creates a ReportCache. A non-positive ttl uses TTLReport.
func NewReportCache(cache *Cache, ttl time.Duration, opts ...ReportCacheOption) *ReportCache {
	return newReportCache(cache, ttl, opts...)
}

func newReportCache(store kv, ttl time.Duration, opts ...ReportCacheOption) *ReportCache {
	if ttl <= 0 {
		ttl = TTLReport
	}
	r := &ReportCache{kv: store, ttl: ttl, log: logger.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	if r.breaker == nil {
		r.breaker = circuitbreaker.CacheBreaker(r.onStateChange, countsAsFailure)
	}
	return r
}

func (r *ReportCache) onStateChange(name string, from, to circuitbreaker.State) {
	r.log.Warn("circuit breaker state changed",
		logger.String("breaker", name),
		logger.String("from", from.String()),
		logger.String("to", to.String()),
	)
}

// countsAsFailure ignores misses and caller cancellations.
func countsAsFailure(err error) bool {
	return !errors.Is(err, ErrCacheMiss) && !errors.Is(err, context.Canceled)
}

// Get returns the cached report for roll.
func (r *ReportCache) Get(ctx context.Context, roll string) (school.Report, bool, error) {
	if r.stale.Load() {
		if err := r.flush(ctx); err != nil {
			return school.Report{}, false, err
		}
	}

	var rep school.Report
	err := r.breaker.Execute(ctx, func(ctx context.Context) error {
		return r.kv.Get(ctx, ReportKey(roll), &rep)
	})
	switch {
	case errors.Is(err, ErrCacheMiss):
		return school.Report{}, false, nil
	case err != nil:
		return school.Report{}, false, err
	}
	return rep, true, nil
}

// Set caches rep under its student's roll number. Skipped while stale.
func (r *ReportCache) Set(ctx context.Context, rep school.Report) error {
	if r.stale.Load() {
		return nil
	}
	return r.breaker.Execute(ctx, func(ctx context.Context) error {
		return r.kv.Set(ctx, ReportKey(rep.Student.RollNo), rep, r.ttl)
	})
}

// Invalidate drops the reports of the given students.
func (r *ReportCache) Invalidate(ctx context.Context, rolls ...string) error {
	keys := make([]string, 0, len(rolls))
	for _, roll := range rolls {
		keys = append(keys, ReportKey(roll))
	}
	err := r.breaker.Execute(ctx, func(ctx context.Context) error {
		return r.kv.Delete(ctx, keys...)
	})
	if err != nil {
		r.stale.Store(true)
	}
	return err
}

// InvalidateAll drops every cached report.
func (r *ReportCache) InvalidateAll(ctx context.Context) error {
	if err := r.flush(ctx); err != nil {
		r.stale.Store(true)
		return err
	}
	return nil
}

// Stale reports whether an invalidation is still owed.
func (r *ReportCache) Stale() bool {
	return r.stale.Load()
}

func (r *ReportCache) flush(ctx context.Context) error {
	err := r.breaker.Execute(ctx, func(ctx context.Context) error {
		return r.kv.DeleteByPattern(ctx, PrefixReport+"*")
	})
	if err != nil {
		return err
	}
	r.stale.Store(false)
	return nil
}
