// Package registry is the single write path for students, courses and
// enrollments. Every mutation goes to the durable store first; the in-memory
// mirror is patched only after the store confirmed the change.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pspschool/studentms/internal/domain/school"
	"github.com/pspschool/studentms/internal/infrastructure/persistence/mirror"
	"github.com/pspschool/studentms/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Policy decides what happens when the store accepted a write that the
// mirror could not apply.
type Policy string

const (
	// PolicyResync rebuilds the mirror from the store and reports the error.
	PolicyResync Policy = "resync"

	// PolicyPanic treats the divergence as an assertion failure.
	PolicyPanic Policy = "panic"
)

// Options configures a Registry.
type Options struct {
	Logger          *logger.Logger
	Cache           school.ReportCache // nil disables report caching
	OnInconsistency Policy             // default PolicyResync
}

// Registry composes a Store and a Mirror behind one mutex.
type Registry struct {
	mu     sync.Mutex
	store  school.Store
	mirror *mirror.Mirror
	cache  school.ReportCache
	policy Policy
	log    *logger.Logger

	newOpID func() string
}

// New loads the mirror from store and returns a ready registry.
// The store must already have its schema initialised.
func New(ctx context.Context, store school.Store, opts Options) (*Registry, error) {
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Cache == nil {
		opts.Cache = nopCache{}
	}
	if opts.OnInconsistency == "" {
		opts.OnInconsistency = PolicyResync
	}

	r := &Registry{
		store:   store,
		mirror:  mirror.New(),
		cache:   opts.Cache,
		policy:  opts.OnInconsistency,
		log:     opts.Logger.With(logger.Component("registry")),
		newOpID: uuid.NewString,
	}

	if err := r.reloadLocked(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PROTOCOL
// ══════════════════════════════════════════════════════════════════════════════

// invalidation names the cached reports a successful write makes stale.
type invalidation struct {
	rolls []string
	all   bool
}

// mutation is one store-then-mirror composite operation.
type mutation struct {
	name   string
	fields []logger.Field

	// precheck runs against the mirror and rejects obviously invalid
	// requests without a store round-trip.
	precheck func() error

	// write performs the durable change.
	write func(ctx context.Context) error

	// apply patches the mirror. false means the mirror diverged.
	apply func() bool

	invalidate invalidation
}

func (r *Registry) run(ctx context.Context, m mutation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	op := "registry." + m.name
	log := r.log.WithOperationID(r.newOpID()).With(logger.Operation(m.name)).With(m.fields...)
	start := time.Now()

	if err := m.precheck(); err != nil {
		log.Debug("rejected by pre-check", logger.Err(err))
		return err
	}

	if err := m.write(ctx); err != nil {
		log.Warn("store rejected write", logger.Err(err), logger.String("outcome", school.OutcomeOf(err).String()))
		return err
	}

	if !m.apply() {
		return r.diverged(ctx, log, op)
	}

	r.invalidate(ctx, log, m.invalidate)
	log.Info("applied", logger.Latency(time.Since(start)))
	return nil
}

// diverged handles a store success the mirror could not follow.
// Called with r.mu held.
func (r *Registry) diverged(ctx context.Context, log *logger.Logger, op string) error {
	err := school.E(op, school.ErrMirrorInconsistency, errors.New("store changed, mirror did not"))
	log.Error("mirror diverged from store", logger.Err(err), logger.String("policy", string(r.policy)))

	if r.policy == PolicyPanic {
		panic(err)
	}

	if rerr := r.reloadLocked(ctx); rerr != nil {
		log.Error("resync failed", logger.Err(rerr))
		return errors.Join(err, rerr)
	}
	log.Warn("mirror resynced from store")
	return err
}

func (r *Registry) invalidate(ctx context.Context, log *logger.Logger, inv invalidation) {
	var err error
	switch {
	case inv.all:
		err = r.cache.InvalidateAll(ctx)
	case len(inv.rolls) > 0:
		err = r.cache.Invalidate(ctx, inv.rolls...)
	}
	if err != nil {
		log.Warn("report cache invalidation failed", logger.Err(err))
	}
}

// reloadLocked replaces the mirror with the store's content.
func (r *Registry) reloadLocked(ctx context.Context) error {
	snap, err := r.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load mirror: %w", err)
	}
	r.mirror.Load(snap)

	if err := r.cache.InvalidateAll(ctx); err != nil {
		r.log.Warn("report cache reset failed", logger.Err(err))
	}

	c := r.mirror.Counts()
	r.log.Debug("mirror loaded",
		logger.Int("students", c.Students),
		logger.Int("courses", c.Courses),
		logger.Int("enrollments", c.Enrollments),
	)
	return nil
}

// Reload rebuilds the mirror from the store.
func (r *Registry) Reload(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reloadLocked(ctx)
}

// ══════════════════════════════════════════════════════════════════════════════
// NO-OP CACHE
// ══════════════════════════════════════════════════════════════════════════════

type nopCache struct{}

func (nopCache) Get(context.Context, string) (school.Report, bool, error) {
	return school.Report{}, false, nil
}
func (nopCache) Set(context.Context, school.Report) error    { return nil }
func (nopCache) Invalidate(context.Context, ...string) error { return nil }
func (nopCache) InvalidateAll(context.Context) error         { return nil }
