package zoom

import "sync"

type pending struct {
	ratio float64
	pan   float64
}

// Accumulator coalesces rapid gestures per axis so a burst of wheel notches
// lands on the State as one update.
type Accumulator struct {
	mu   sync.Mutex
	axes map[Axis]*pending
}

// NewAccumulator returns an empty accumulator
func NewAccumulator() *Accumulator {
	return &Accumulator{axes: make(map[Axis]*pending)}
}

func (a *Accumulator) entry(axis Axis) *pending {
	p, ok := a.axes[axis]
	if !ok {
		p = &pending{ratio: 1}
		a.axes[axis] = p
	}
	return p
}

// AddRatio multiplies the pending zoom of an axis
func (a *Accumulator) AddRatio(axis Axis, ratio float64) {
	if !validRatio(ratio) {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entry(axis).ratio *= ratio
}

// AddPan adds to the pending offset of an axis
func (a *Accumulator) AddPan(axis Axis, fraction float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entry(axis).pan += fraction
}

// Clear drops everything pending
func (a *Accumulator) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.axes = make(map[Axis]*pending)
}

// Pending reports whether anything is waiting to be flushed
func (a *Accumulator) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.axes) > 0
}

// Flush applies the net change of every axis to state and clears the
// accumulator. It reports whether the state changed.
func (a *Accumulator) Flush(state *State) bool {
	a.mu.Lock()
	axes := a.axes
	a.axes = make(map[Axis]*pending)
	a.mu.Unlock()

	changed := false
	for _, axis := range Axes {
		p, ok := axes[axis]
		if !ok {
			continue
		}
		if state.Apply(axis, p.ratio, p.pan) {
			changed = true
		}
	}
	return changed
}
