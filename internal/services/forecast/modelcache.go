package forecast

import (
	"context"
	"sync/atomic"
	"time"

	domsvc "AirCast/internal/domain/service"
	applogger "AirCast/pkg/logger"

	"golang.org/x/sync/singleflight"
)

// ModelSet is one loaded pair of frozen models. It is never mutated after load.
type ModelSet struct {
	Mean       SeasonalModel
	Volatility VarianceModel
}

// Loader builds a fully validated ModelSet.
type Loader interface {
	Load(ctx context.Context) (*ModelSet, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context) (*ModelSet, error)

func (f LoaderFunc) Load(ctx context.Context) (*ModelSet, error) { return f(ctx) }

// ModelProvider hands out the current model set.
type ModelProvider interface {
	GetOrLoad(ctx context.Context) (*ModelSet, error)
}

type cachedModels struct {
	set      *ModelSet
	loadedAt time.Time
}

// ModelCache keeps the current ModelSet behind an atomic pointer. Readers never
// lock; concurrent misses share one load; a new set is published only after
// it loaded completely.
type ModelCache struct {
	loader Loader
	ttl    time.Duration
	now    func() time.Time
	log    *applogger.Logger
	cur    atomic.Pointer[cachedModels]
	group  singleflight.Group
}

// NewModelCache creates a cache. ttl <= 0 keeps a loaded set forever.
func NewModelCache(loader Loader, ttl time.Duration, l *applogger.Logger) *ModelCache {
	if l == nil {
		l = applogger.Nop()
	}
	return &ModelCache{loader: loader, ttl: ttl, now: time.Now, log: l}
}

func (c *ModelCache) fresh(m *cachedModels) bool {
	return m != nil && (c.ttl <= 0 || c.now().Sub(m.loadedAt) < c.ttl)
}

// GetOrLoad returns the cached set, loading it when absent or expired.
func (c *ModelCache) GetOrLoad(ctx context.Context) (*ModelSet, error) {
	m, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	return m.set, nil
}

// Ensure makes sure a fresh set is loaded and returns its load time. The
// result identifies the set, so callers can key derived data on it.
func (c *ModelCache) Ensure(ctx context.Context) (time.Time, error) {
	m, err := c.load(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return m.loadedAt, nil
}

func (c *ModelCache) load(ctx context.Context) (*cachedModels, error) {
	if m := c.cur.Load(); c.fresh(m) {
		return m, nil
	}
	v, err, _ := c.group.Do("models", func() (interface{}, error) {
		if m := c.cur.Load(); c.fresh(m) {
			return m, nil
		}
		start := c.now()
		set, err := c.loader.Load(ctx)
		if err != nil {
			c.log.Error("model load failed", applogger.Error(err))
			return nil, err
		}
		m := &cachedModels{set: set, loadedAt: c.now()}
		c.cur.Store(m)
		c.log.Info("models loaded",
			applogger.String("mean", set.Mean.Version()),
			applogger.String("volatility", set.Volatility.Version()),
			applogger.Duration("took", c.now().Sub(start)),
		)
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*cachedModels), nil
}

// Invalidate drops the cached set. Forecasts already holding it are unaffected.
func (c *ModelCache) Invalidate() {
	c.cur.Store(nil)
}

// Reload invalidates and loads again.
func (c *ModelCache) Reload(ctx context.Context) error {
	c.Invalidate()
	_, err := c.GetOrLoad(ctx)
	return err
}

// LoadedAt returns when the current set was loaded, or zero when none is cached.
func (c *ModelCache) LoadedAt() time.Time {
	if m := c.cur.Load(); m != nil {
		return m.loadedAt
	}
	return time.Time{}
}

var (
	_ ModelProvider     = (*ModelCache)(nil)
	_ domsvc.ModelState = (*ModelCache)(nil)
)
