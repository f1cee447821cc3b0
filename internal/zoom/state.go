// Package zoom holds the per-chart zoom state shared by every view of a
// chart, and the pure transforms that turn it into visible domains.
//
// A State is the single source of truth: views never copy it, they read a
// Snapshot at render time. Writes may arrive from concurrent HTTP handlers,
// so every access goes through the State's mutex.
package zoom

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"spcdash/domain/core"
)

// Factor bounds. A factor of 1 shows the whole base domain.
const (
	MinFactor = 0.1
	MaxFactor = 50.0
)

// Axis names one zoomable axis
type Axis string

const (
	AxisX  Axis = "x"
	AxisY  Axis = "y"
	AxisY2 Axis = "y2"
)

// Axes lists every axis in display order
var Axes = []Axis{AxisX, AxisY, AxisY2}

// ParseAxis accepts x, y and y2 in any case
func ParseAxis(s string) (Axis, error) {
	switch Axis(strings.ToLower(strings.TrimSpace(s))) {
	case AxisX:
		return AxisX, nil
	case AxisY:
		return AxisY, nil
	case AxisY2:
		return AxisY2, nil
	}
	return "", fmt.Errorf("%w: %q", core.ErrUnknownAxis, s)
}

// AxisZoom is the zoom of one axis. Offset is a pan expressed as a fraction
// of the base span, so it does not depend on data units.
type AxisZoom struct {
	Factor float64 `json:"factor"`
	Offset float64 `json:"offset"`
}

// Identity is the at-rest zoom
var Identity = AxisZoom{Factor: 1}

// IsIdentity reports whether the axis shows the base domain unchanged
func (a AxisZoom) IsIdentity() bool {
	return a.Factor == 1 && a.Offset == 0
}

// Snapshot is a value copy of a State
type Snapshot struct {
	X       AxisZoom `json:"x"`
	Y       AxisZoom `json:"y"`
	Y2      AxisZoom `json:"y2"`
	Version uint64   `json:"version"`
}

// Axis returns the zoom of a single axis from the snapshot
func (s Snapshot) Axis(a Axis) AxisZoom {
	switch a {
	case AxisX:
		return s.X
	case AxisY:
		return s.Y
	case AxisY2:
		return s.Y2
	}
	return Identity
}

// State is the mutable zoom of one logical chart
type State struct {
	mu      sync.RWMutex
	x       AxisZoom
	y       AxisZoom
	y2      AxisZoom
	version uint64
}

// NewState returns a state with every axis at rest
func NewState() *State {
	return &State{x: Identity, y: Identity, y2: Identity}
}

func (s *State) slot(a Axis) *AxisZoom {
	switch a {
	case AxisX:
		return &s.x
	case AxisY:
		return &s.y
	case AxisY2:
		return &s.y2
	}
	return nil
}

// ClampFactor bounds f to [MinFactor, MaxFactor]. NaN maps to MinFactor.
func ClampFactor(f float64) float64 {
	switch {
	case math.IsNaN(f) || f <= MinFactor:
		return MinFactor
	case f >= MaxFactor:
		return MaxFactor
	}
	return f
}

func validRatio(r float64) bool {
	return r > 0 && !math.IsNaN(r) && !math.IsInf(r, 0)
}

// Zoom multiplies the axis factor by ratio, clamped to the factor bounds.
// Non-finite or non-positive ratios are ignored. It reports whether the
// state changed.
func (s *State) Zoom(a Axis, ratio float64) bool {
	return s.Apply(a, ratio, 0)
}

// Pan shifts the axis offset by fraction of the base span
func (s *State) Pan(a Axis, fraction float64) bool {
	return s.Apply(a, 1, fraction)
}

// Apply zooms then pans one axis as a single update
func (s *State) Apply(a Axis, ratio, pan float64) bool {
	if !validRatio(ratio) || math.IsNaN(pan) || math.IsInf(pan, 0) {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	az := s.slot(a)
	if az == nil {
		return false
	}
	next := AxisZoom{Factor: ClampFactor(az.Factor * ratio), Offset: az.Offset + pan}
	if next == *az {
		return false
	}
	*az = next
	s.version++
	return true
}

// SetFactor replaces the axis factor, clamped to the factor bounds
func (s *State) SetFactor(a Axis, f float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	az := s.slot(a)
	if az == nil {
		return false
	}
	f = ClampFactor(f)
	if az.Factor == f {
		return false
	}
	az.Factor = f
	s.version++
	return true
}

// Reset returns the given axes to rest. With no arguments every axis is reset.
func (s *State) Reset(axes ...Axis) {
	if len(axes) == 0 {
		axes = Axes
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for _, a := range axes {
		if az := s.slot(a); az != nil && *az != Identity {
			*az = Identity
			changed = true
		}
	}
	if changed {
		s.version++
	}
}

// ResetAll returns every axis to rest
func (s *State) ResetAll() {
	s.Reset()
}

// Axis returns the zoom of one axis
func (s *State) Axis(a Axis) AxisZoom {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if az := s.slot(a); az != nil {
		return *az
	}
	return Identity
}

// Snapshot copies the whole state
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{X: s.x, Y: s.y, Y2: s.y2, Version: s.version}
}

// IsZoomed reports whether any axis is away from rest
func (s *State) IsZoomed() bool {
	snap := s.Snapshot()
	return !snap.X.IsIdentity() || !snap.Y.IsIdentity() || !snap.Y2.IsIdentity()
}

// Version increases on every change
func (s *State) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}
