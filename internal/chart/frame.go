package chart

import (
	"sync"

	"spcdash/domain/measurement"
	"spcdash/internal/boxplot"
	"spcdash/internal/scale"
)

// yPadding is the fraction of the combined extent added above and below
const yPadding = 0.05

// Frame holds the base domains both views draw against. There is exactly
// one Frame per chart; views hold a pointer to it and read it on every
// render.
type Frame struct {
	mu sync.RWMutex

	x      scale.Domain
	y      scale.Domain
	y2     scale.Domain
	hasY2  bool
	keys   []string
	data   []measurement.Record
	all    []measurement.Record
	limits *measurement.Limits
}

// frameView is an immutable copy handed to renderers
type frameView struct {
	X      scale.Domain
	Y      scale.Domain
	Y2     scale.Domain
	HasY2  bool
	Keys   []string
	Data   []measurement.Record
	All    []measurement.Record
	Limits *measurement.Limits
}

func newFrame() *Frame {
	unit := scale.Domain{Min: 0, Max: 1}
	return &Frame{x: unit, y: unit, y2: unit}
}

// Base returns the current base domains
func (f *Frame) Base() (x, y, y2 scale.Domain) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.x, f.y, f.y2
}

func (f *Frame) view() frameView {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return frameView{
		X: f.x, Y: f.y, Y2: f.y2, HasY2: f.hasY2,
		Keys: f.keys, Data: f.data, All: f.all, Limits: f.limits,
	}
}

// rebuild recomputes the base domains from a new data set. The Y base spans
// both the entity-filtered timeline data and the all-entity variability
// data so the two views share one scale.
func (f *Frame) rebuild(series Series, data, all []measurement.Record, limits *measurement.Limits, threshold float64) {
	times := make([]float64, 0, len(data))
	for _, r := range data {
		if v, ok := r.Value(measurement.FieldDate); ok {
			times = append(times, v)
		}
	}
	x, ok := scale.Extent(times)
	if !ok {
		x = scale.Domain{Min: 0, Max: 1}
	}

	y, ok := scale.Extent(fieldValues(data, series.ValueField), fieldValues(all, series.ValueField))
	if ok {
		y = scale.NiceDomain(scale.Pad(y, yPadding), 10)
	}
	if limits != nil {
		y = boxplot.SPCDomain(y, limits, boxplot.AllEntitiesStdDev(all, series.ValueField))
	}

	var y2 scale.Domain
	hasY2 := series.Y2Field != ""
	if hasY2 {
		if d, ok := scale.Extent(fieldValues(data, series.Y2Field)); ok {
			y2 = scale.NiceDomain(scale.Pad(d, yPadding), 10)
		}
	}

	grouped := boxplot.ProcessGroupedStatistics(all, series.ValueField, series.GroupField, threshold)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.x = boxplot.ValidateDomain(x)
	f.y = boxplot.ValidateDomain(y)
	f.y2 = boxplot.ValidateDomain(y2)
	f.hasY2 = hasY2
	f.keys = grouped.Keys
	f.data = data
	f.all = all
	f.limits = limits
}

func fieldValues(records []measurement.Record, field string) []float64 {
	out := make([]float64, 0, len(records))
	for _, r := range records {
		if v, ok := r.Value(field); ok {
			out = append(out, v)
		}
	}
	return out
}
