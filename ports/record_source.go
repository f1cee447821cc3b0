package ports

import (
	"context"

	"spcdash/domain/measurement"
)

// RecordSource provides read-only access to CD measurement records.
// Implementations return every entity matching the filter; the entity
// filter is applied by the caller on the resident set.
type RecordSource interface {
	// FetchRecords returns at most filter.PageSize records, newest first
	FetchRecords(ctx context.Context, filter measurement.Filter) ([]measurement.Record, error)

	// Name identifies the source in logs
	Name() string
}

// LimitsSource provides the SPC control limits currently in effect
type LimitsSource interface {
	// CurrentLimits returns the most recent limits per chart name
	CurrentLimits(ctx context.Context, query measurement.LimitsQuery) ([]measurement.Limits, error)
}

// Catalog lists the filter values available for selection
type Catalog interface {
	// Monitors returns the distinct SPC monitor / process / product combinations
	Monitors(ctx context.Context) ([]measurement.LimitsQuery, error)
}
