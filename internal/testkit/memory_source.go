package testkit

import (
	"context"
	"sync"

	"spcdash/domain/measurement"
)

// MemorySource serves records and limits from memory. It applies the same
// filtering the database adapter does so it can stand in for it in
// development and tests.
type MemorySource struct {
	mu      sync.RWMutex
	records []measurement.Record
	limits  []measurement.Limits
	fetches int
}

// NewMemorySource wraps fixed data
func NewMemorySource(records []measurement.Record, limits []measurement.Limits) *MemorySource {
	return &MemorySource{records: records, limits: limits}
}

// NewSyntheticSource generates a data set from config
func NewSyntheticSource(config CDGeneratorConfig) *MemorySource {
	g := NewCDGenerator(config)
	records := g.Generate()
	return NewMemorySource(records, g.GenerateLimits())
}

func (s *MemorySource) Name() string { return "memory" }

// Fetches returns how many times FetchRecords ran
func (s *MemorySource) Fetches() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetches
}

// FetchRecords returns matching records, newest first, capped at the page size
func (s *MemorySource) FetchRecords(ctx context.Context, filter measurement.Filter) ([]measurement.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	return measurement.Select(s.records, filter)
}

// CurrentLimits returns the newest limits per chart for the query
func (s *MemorySource) CurrentLimits(ctx context.Context, q measurement.LimitsQuery) ([]measurement.Limits, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return measurement.CurrentLimits(s.limits, q), nil
}

// Monitors lists the distinct monitor/process/product combinations
func (s *MemorySource) Monitors(ctx context.Context) ([]measurement.LimitsQuery, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	return measurement.Monitors(s.records), nil
}
