// Package datasource loads measurement sets for the dashboard through a TTL
// cache. A Session keeps one resident all-entity set and discards responses
// that arrive after a newer request of its own has started.
package datasource

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"spcdash/domain/core"
	"spcdash/domain/measurement"
	"spcdash/internal"
	"spcdash/internal/cache"
	"spcdash/internal/errors"
	"spcdash/ports"
)

// Snapshot is the resident data set after a load
type Snapshot struct {
	RequestID core.RequestID       `json:"requestId"`
	Filter    measurement.Filter   `json:"filter"`
	Entity    string               `json:"entity"`
	Data      []measurement.Record `json:"data"`
	AllData   []measurement.Record `json:"allData"`
	Limits    []measurement.Limits `json:"limits"`
	LoadedAt  time.Time            `json:"loadedAt"`
	FromCache bool                 `json:"fromCache"`
}

type fetched struct {
	Records []measurement.Record
	Limits  []measurement.Limits
}

// DefaultFetchTimeout bounds one shared fetch against the sources
const DefaultFetchTimeout = time.Minute

// Options configure a Loader
type Options struct {
	TTL          time.Duration
	MaxEntries   int
	MaxRecords   int
	FetchTimeout time.Duration
	Clock        cache.Clock
}

// Loader fetches and holds measurement sets
type Loader struct {
	records ports.RecordSource
	limits  ports.LimitsSource
	cache   *cache.TTL[fetched]
	group   singleflight.Group
	now     cache.Clock
	max     int
	timeout time.Duration
	logger  *internal.Logger

	session   *Session
	closeOnce sync.Once
}

// NewLoader creates a loader. limits may be nil when no limits source is
// configured.
func NewLoader(ctx context.Context, records ports.RecordSource, limits ports.LimitsSource, opts Options) (*Loader, error) {
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	timeout := opts.FetchTimeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	c, err := cache.New[fetched](ctx, cache.Options{TTL: opts.TTL, Capacity: opts.MaxEntries, Clock: now})
	if err != nil {
		return nil, err
	}
	l := &Loader{
		records: records,
		limits:  limits,
		cache:   c,
		now:     now,
		max:     opts.MaxRecords,
		timeout: timeout,
		logger:  internal.DefaultLogger.With("datasource"),
	}
	l.session = l.NewSession()
	return l, nil
}

// Close releases the cache. Later calls do nothing.
func (l *Loader) Close(ctx context.Context) {
	l.closeOnce.Do(func() { l.cache.Close(ctx) })
}

// Begin reserves the next request id of the loader's own session
func (l *Loader) Begin() core.RequestID { return l.session.Begin() }

// Latest returns the most recently issued request id of the loader's session
func (l *Loader) Latest() core.RequestID { return l.session.Latest() }

// Load starts a new request on the loader's session and loads filter
func (l *Loader) Load(ctx context.Context, filter measurement.Filter) (*Snapshot, error) {
	return l.session.Load(ctx, filter)
}

// LoadAs loads filter on behalf of request id of the loader's session
func (l *Loader) LoadAs(ctx context.Context, id core.RequestID, filter measurement.Filter) (*Snapshot, error) {
	return l.session.LoadAs(ctx, id, filter)
}

// Query loads filter through the cache without touching the resident
// snapshot or the request sequence. Stateless callers use it.
func (l *Loader) Query(ctx context.Context, filter measurement.Filter) (*Snapshot, error) {
	filter, key, err := l.effective(filter)
	if err != nil {
		return nil, err
	}

	f, fromCache, err := l.fetch(ctx, key, filter)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Filter:    filter,
		Entity:    filter.Entity,
		Data:      measurement.FilterByEntity(f.Records, filter.Entity),
		AllData:   f.Records,
		Limits:    f.Limits,
		LoadedAt:  l.now(),
		FromCache: fromCache,
	}, nil
}

// effective normalizes filter, caps its page size and returns it with the
// cache key every path must use for it.
func (l *Loader) effective(filter measurement.Filter) (measurement.Filter, string, error) {
	filter = filter.Normalize()
	if l.max > 0 && filter.PageSize > l.max {
		filter.PageSize = l.max
	}
	if err := filter.Validate(); err != nil {
		return filter, "", errors.WithCode(errors.CodeValidationError, err)
	}
	key, err := filter.Key()
	if err != nil {
		return filter, "", errors.Wrap(err, "computing filter key")
	}
	return filter, key, nil
}

func (l *Loader) fetch(ctx context.Context, key string, filter measurement.Filter) (fetched, bool, error) {
	if f, ok := l.cache.Get(ctx, key); ok {
		l.logger.Debug("cache hit for %s", key)
		return f, true, nil
	}

	v, err, shared := l.group.Do(key, func() (interface{}, error) {
		// Callers share this fetch, so one caller going away must not
		// cancel it for the rest.
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
		defer cancel()

		start := time.Now()
		var f fetched
		g, gctx := errgroup.WithContext(fctx)
		g.Go(func() error {
			records, err := l.records.FetchRecords(gctx, filter)
			if err != nil {
				return errors.SourceError(l.records.Name(), err)
			}
			f.Records = records
			return nil
		})
		if l.limits != nil {
			g.Go(func() error {
				limits, err := l.limits.CurrentLimits(gctx, measurement.LimitsQuery{
					SPCMonitor:  filter.SPCMonitor,
					ProcessType: filter.ProcessType,
					ProductType: filter.ProductType,
				})
				if err != nil {
					return errors.SourceError("limits", err)
				}
				f.Limits = limits
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return fetched{}, err
		}
		if err := l.cache.Set(fctx, key, f); err != nil {
			l.logger.Warn("not caching %s: %v", key, err)
		}
		l.logger.Info("fetched %d records, %d limits from %s in %s", len(f.Records), len(f.Limits), l.records.Name(), time.Since(start))
		return f, nil
	})
	if err != nil {
		return fetched{}, false, err
	}
	if shared {
		l.logger.Trace("shared in-flight fetch for %s", key)
	}
	return v.(fetched), false, nil
}

// Current returns the resident snapshot of the loader's session
func (l *Loader) Current() *Snapshot { return l.session.Current() }

// SelectEntity re-applies the entity filter to the loader's resident set
func (l *Loader) SelectEntity(entity string) (*Snapshot, error) {
	return l.session.SelectEntity(entity)
}

// Refresh drops the cached entry for filter and loads it again on the
// loader's session
func (l *Loader) Refresh(ctx context.Context, filter measurement.Filter) (*Snapshot, error) {
	return l.session.Refresh(ctx, filter)
}

// CacheStats exposes the cache counters
func (l *Loader) CacheStats(ctx context.Context) cache.Stats {
	return l.cache.Stats(ctx)
}
