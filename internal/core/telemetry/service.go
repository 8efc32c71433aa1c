package telemetry

import (
	"context"
	"sync"
	"time"

	"lcars-core/internal/domain"
	"lcars-core/internal/logger"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultStaticTTL      = 5 * time.Minute
	DefaultAttemptTimeout = 10 * time.Second
)

type Options struct {
	StaticTTL      time.Duration
	AttemptTimeout time.Duration

	Static   []Source[domain.StaticInfo]
	Dynamic  []Source[domain.DynamicSnapshot]
	Graphics []Source[domain.GraphicsInfo]

	// Now is overridable so cache expiry can be tested without sleeping.
	Now func() time.Time
}

type staticCache struct {
	info     domain.StaticInfo
	storedAt time.Time
}

// Service owns the static cache. It is safe for concurrent use.
type Service struct {
	ttl      time.Duration
	static   *Chain[domain.StaticInfo]
	dynamic  *Chain[domain.DynamicSnapshot]
	graphics *Chain[domain.GraphicsInfo]
	now      func() time.Time
	log      logger.Logger

	mu    sync.RWMutex
	cache *staticCache

	sf singleflight.Group
}

func NewService(log logger.Logger, opts Options) *Service {
	ttl := opts.StaticTTL
	if ttl <= 0 {
		ttl = DefaultStaticTTL
	}
	timeout := opts.AttemptTimeout
	if timeout <= 0 {
		timeout = DefaultAttemptTimeout
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		ttl:      ttl,
		static:   NewChain("static", timeout, log, opts.Static...),
		dynamic:  NewChain("dynamic", timeout, log, opts.Dynamic...),
		graphics: NewChain("graphics", timeout, log, opts.Graphics...),
		now:      now,
		log:      log,
	}
}

// Full returns a complete snapshot. Static fields come from the cache while it
// is younger than the TTL; dynamic fields and GPU readings are always
// collected.
func (s *Service) Full(ctx context.Context) domain.SystemSnapshot {
	if static, ok := s.cached(); ok {
		var (
			dyn  domain.DynamicSnapshot
			live domain.GraphicsInfo
		)

		var g errgroup.Group
		g.Go(func() error {
			dyn = s.Light(ctx)
			return nil
		})
		g.Go(func() error {
			live = s.Graphics(ctx)
			return nil
		})
		g.Wait()

		// A failed live read keeps the cached enumeration, without readings.
		if !live.Synthetic {
			static.Graphics = live
		}

		snap := domain.Merge(static, dyn)
		snap.Cached = true
		return snap
	}

	var (
		static domain.StaticInfo
		dyn    domain.DynamicSnapshot
	)

	// Neither branch returns an error; a failing branch degrades to its
	// fallback without cancelling the other.
	var g errgroup.Group
	g.Go(func() error {
		static = s.refreshStatic(ctx)
		return nil
	})
	g.Go(func() error {
		dyn = s.Light(ctx)
		return nil
	})
	g.Wait()

	return domain.Merge(static, dyn)
}

// Light collects the dynamic fields only. The static cache is not touched.
func (s *Service) Light(ctx context.Context) domain.DynamicSnapshot {
	dyn, source, err := s.dynamic.Run(ctx)
	if err != nil {
		s.log.Warn("telemetry: dynamic collection fell back to baseline", "error", err)
		dyn = BaselineDynamic()
		source = SourceBaseline
	}

	dyn.Memory = dyn.Memory.Normalize()
	dyn.Storage = domain.NewStorageInfo(dyn.Storage.Drives)
	dyn.Source = source
	if dyn.CollectedAt.IsZero() {
		dyn.CollectedAt = s.now()
	}

	return dyn
}

// Graphics is collected independently of the cache. On failure a
// placeholder flagged as synthetic is returned.
func (s *Service) Graphics(ctx context.Context) domain.GraphicsInfo {
	info, source, err := s.graphics.Run(ctx)
	if err != nil {
		s.log.Warn("telemetry: graphics collection failed, using placeholder", "error", err)
		return domain.PlaceholderGraphics()
	}

	info.Source = source
	return info.Ensure()
}

// Invalidate drops the static cache so the next Full recollects it.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.cache = nil
	s.mu.Unlock()
}

func (s *Service) cached() (domain.StaticInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cache == nil || s.now().Sub(s.cache.storedAt) >= s.ttl {
		return domain.StaticInfo{}, false
	}
	return s.cache.info, true
}

// refreshStatic collects static fields and graphics enumeration concurrently.
// Concurrent misses share one collection.
func (s *Service) refreshStatic(ctx context.Context) domain.StaticInfo {
	v, _, _ := s.sf.Do("static", func() (any, error) {
		if static, ok := s.cached(); ok {
			return static, nil
		}

		var (
			static   domain.StaticInfo
			graphics domain.GraphicsInfo
			source   string
			err      error
		)

		var g errgroup.Group
		g.Go(func() error {
			static, source, err = s.static.Run(ctx)
			return nil
		})
		g.Go(func() error {
			graphics = s.Graphics(ctx)
			return nil
		})
		g.Wait()

		if err != nil {
			s.log.Warn("telemetry: static collection fell back to baseline", "error", err)
			static = BaselineStatic()
			source = SourceBaseline
		}

		static.Source = source

		// A baseline result is not worth keeping: the next call should retry
		// the richer sources.
		if source != SourceBaseline {
			cached := static
			cached.Graphics = graphics.Inventory()
			s.mu.Lock()
			s.cache = &staticCache{info: cached, storedAt: s.now()}
			s.mu.Unlock()
		}

		static.Graphics = graphics

		return static, nil
	})

	return v.(domain.StaticInfo)
}
