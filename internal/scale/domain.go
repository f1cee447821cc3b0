// Package scale maps data values to screen coordinates the way the chart
// layer expects: continuous linear scales for measurements and time, band
// scales for categorical group keys.
package scale

import "math"

// Domain is a closed numeric interval [Min, Max]
type Domain struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Span returns Max - Min
func (d Domain) Span() float64 { return d.Max - d.Min }

// Center returns the midpoint of the interval
func (d Domain) Center() float64 { return (d.Min + d.Max) / 2 }

// IsFinite reports whether both ends are finite numbers
func (d Domain) IsFinite() bool {
	return !math.IsNaN(d.Min) && !math.IsNaN(d.Max) && !math.IsInf(d.Min, 0) && !math.IsInf(d.Max, 0)
}

// Contains reports whether v lies inside the interval, inclusive
func (d Domain) Contains(v float64) bool { return v >= d.Min && v <= d.Max }

// Union returns the smallest domain covering both d and o
func (d Domain) Union(o Domain) Domain {
	return Domain{Min: math.Min(d.Min, o.Min), Max: math.Max(d.Max, o.Max)}
}

// Extent returns the min and max of the finite values. ok is false when
// there are none.
func Extent(values ...[]float64) (d Domain, ok bool) {
	d = Domain{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, set := range values {
		for _, v := range set {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			if v < d.Min {
				d.Min = v
			}
			if v > d.Max {
				d.Max = v
			}
			ok = true
		}
	}
	if !ok {
		return Domain{}, false
	}
	return d, true
}

// Pad widens d by fraction of its span on each side
func Pad(d Domain, fraction float64) Domain {
	p := d.Span() * fraction
	return Domain{Min: d.Min - p, Max: d.Max + p}
}
