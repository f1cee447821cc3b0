package datasource

import (
	"context"
	"sync"
	"sync/atomic"

	"spcdash/domain/core"
	"spcdash/domain/measurement"
	"spcdash/internal/errors"
)

// Session is one consumer's view of a Loader: its own request sequence and
// resident snapshot over the loader's shared cache. A dashboard chart owns
// one session so its filter changes never supersede another chart's.
type Session struct {
	loader *Loader

	latest  atomic.Uint64
	mu      sync.RWMutex
	current *Snapshot
}

// NewSession starts an empty session
func (l *Loader) NewSession() *Session {
	return &Session{loader: l}
}

// Begin reserves the next request id. Only the most recent id may update
// the resident snapshot.
func (s *Session) Begin() core.RequestID {
	return core.RequestID(s.latest.Add(1))
}

// Latest returns the most recently issued request id
func (s *Session) Latest() core.RequestID {
	return core.RequestID(s.latest.Load())
}

// Load starts a new request and loads filter
func (s *Session) Load(ctx context.Context, filter measurement.Filter) (*Snapshot, error) {
	return s.LoadAs(ctx, s.Begin(), filter)
}

// LoadAs loads filter on behalf of request id. The result is discarded with
// core.ErrSuperseded when a newer request has begun meanwhile.
func (s *Session) LoadAs(ctx context.Context, id core.RequestID, filter measurement.Filter) (*Snapshot, error) {
	return s.Apply(ctx, id, filter, nil)
}

// Apply is LoadAs with a commit hook. apply runs with the new snapshot while
// the session is locked and id is still the latest, so no older response can
// land after it.
func (s *Session) Apply(ctx context.Context, id core.RequestID, filter measurement.Filter, apply func(*Snapshot)) (*Snapshot, error) {
	snap, err := s.loader.Query(ctx, filter)
	if err != nil {
		return nil, err
	}
	snap.RequestID = id

	s.mu.Lock()
	defer s.mu.Unlock()
	if id != s.Latest() {
		s.loader.logger.Debug("discarding response for request %d, latest is %d", id, s.Latest())
		return nil, errors.WithCode(errors.CodeSuperseded, core.ErrSuperseded)
	}
	if apply != nil {
		apply(snap)
	}
	s.current = snap
	return snap, nil
}

// Current returns the resident snapshot, or nil before the first load
func (s *Session) Current() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SelectEntity re-applies the entity filter to the resident set without
// fetching
func (s *Session) SelectEntity(entity string) (*Snapshot, error) {
	return s.ApplyEntity(entity, nil)
}

// ApplyEntity is SelectEntity with a commit hook run under the session lock
func (s *Session) ApplyEntity(entity string, apply func(*Snapshot)) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, errors.NotFound("resident data set")
	}
	next := *s.current
	next.Entity = entity
	next.Filter.Entity = entity
	next.Data = measurement.FilterByEntity(next.AllData, entity)
	if apply != nil {
		apply(&next)
	}
	s.current = &next
	return &next, nil
}

// Refresh drops the cached entry for filter and loads it again
func (s *Session) Refresh(ctx context.Context, filter measurement.Filter) (*Snapshot, error) {
	_, key, err := s.loader.effective(filter)
	if err != nil {
		return nil, err
	}
	s.loader.cache.Invalidate(ctx, key)
	return s.Load(ctx, filter)
}
