// Package chart keeps a Timeline view and a Variability view of the same
// measurement set numerically consistent. Both views are built by one
// Controller around one shared zoom.State and one shared Frame, so a zoom
// applied through either view is what the other view renders.
package chart

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"spcdash/domain/core"
	"spcdash/domain/measurement"
	"spcdash/internal"
	"spcdash/internal/boxplot"
	"spcdash/internal/debounce"
	"spcdash/internal/zoom"
)

// Options configure a Controller
type Options struct {
	Series           Series
	Layout           zoom.Layout
	OutlierThreshold float64
	Debounce         time.Duration
	// OnRender is called after each committed zoom change
	OnRender func(Render)
}

// Render is the active view's output
type Render struct {
	View        View               `json:"view"`
	Version     uint64             `json:"version"`
	Zoom        zoom.Snapshot      `json:"zoom"`
	Timeline    *TimelineRender    `json:"timeline,omitempty"`
	Variability *VariabilityRender `json:"variability,omitempty"`
}

// Controller owns the zoom state and data frame of one logical chart
type Controller struct {
	id     core.ChartID
	opts   Options
	logger *internal.Logger

	state       *zoom.State
	frame       *Frame
	timeline    *TimelineView
	variability *VariabilityView
	acc         *zoom.Accumulator
	debouncer   *debounce.Debouncer

	mu     sync.RWMutex
	active View
}

// ParseView accepts "timeline" and "variability"
func ParseView(s string) (View, error) {
	switch View(strings.ToLower(strings.TrimSpace(s))) {
	case ViewTimeline:
		return ViewTimeline, nil
	case ViewVariability:
		return ViewVariability, nil
	}
	return "", fmt.Errorf("%w: %q", core.ErrUnknownView, s)
}

// New builds a controller with both views wired to the same state and frame
func New(opts Options) *Controller {
	if opts.Series.GroupField == "" {
		opts.Series.GroupField = measurement.FieldEntity
	}
	if opts.Layout.Width == 0 && opts.Layout.Height == 0 {
		opts.Layout = zoom.NewLayout(1000, 500, opts.Series.Y2Field != "")
	}
	opts.OutlierThreshold = boxplot.NormalizeThreshold(opts.OutlierThreshold)

	state := zoom.NewState()
	frame := newFrame()
	c := &Controller{
		id:     core.NewChartID(),
		opts:   opts,
		logger: internal.DefaultLogger.With("chart"),
		state:  state,
		frame:  frame,
		timeline: &TimelineView{
			state: state, frame: frame, layout: opts.Layout, series: opts.Series,
		},
		variability: &VariabilityView{
			state: state, frame: frame, layout: opts.Layout, series: opts.Series,
			threshold: opts.OutlierThreshold,
		},
		acc:       zoom.NewAccumulator(),
		debouncer: debounce.New(opts.Debounce),
		active:    ViewTimeline,
	}
	return c
}

// ID returns the chart id
func (c *Controller) ID() core.ChartID { return c.id }

// State returns the zoom state both views read and write
func (c *Controller) State() *zoom.State { return c.state }

// Frame returns the base domains both views share
func (c *Controller) Frame() *Frame { return c.frame }

// Timeline returns the timeline view
func (c *Controller) Timeline() *TimelineView { return c.timeline }

// Variability returns the variability view
func (c *Controller) Variability() *VariabilityView { return c.variability }

// Series returns the fields the chart plots
func (c *Controller) Series() Series { return c.opts.Series }

// Active returns the view that receives gestures
func (c *Controller) Active() View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// SetData replaces the records behind both views. data is the
// entity-filtered set shown on the timeline; all spans every entity and
// feeds the variability view. Zoom is kept.
func (c *Controller) SetData(data, all []measurement.Record, limits *measurement.Limits) {
	c.frame.rebuild(c.opts.Series, data, all, limits, c.opts.OutlierThreshold)
	c.logger.Debug("chart %s data set: %d timeline records, %d total", c.id, len(data), len(all))
}

// Switch changes which view receives gestures. Zoom state is untouched.
func (c *Controller) Switch(v View) error {
	if v != ViewTimeline && v != ViewVariability {
		return fmt.Errorf("%w: %q", core.ErrUnknownView, v)
	}
	c.mu.Lock()
	c.active = v
	c.mu.Unlock()
	return nil
}

func (c *Controller) hitTest(x, y float64) (zoom.Axis, bool) {
	if c.Active() == ViewVariability {
		return c.variability.HitTest(x, y)
	}
	return c.timeline.HitTest(x, y)
}

// Wheel queues a wheel notch at a pointer position on the active view. The
// zoom lands once the debounce window passes or Flush is called.
func (c *Controller) Wheel(x, y, deltaY float64) (zoom.Axis, bool) {
	axis, ok := c.hitTest(x, y)
	if !ok {
		return "", false
	}
	c.acc.AddRatio(axis, zoom.WheelRatio(deltaY))
	c.debouncer.Trigger(func() { c.commit() })
	return axis, true
}

// Drag queues a pan of pixels along axis on the active view
func (c *Controller) Drag(axis zoom.Axis, pixels float64) bool {
	if c.Active() == ViewVariability && axis != zoom.AxisY {
		return false
	}
	if axis == zoom.AxisY2 && c.opts.Series.Y2Field == "" {
		return false
	}
	extent := c.opts.Layout.Extent(axis)
	pan := zoom.Drag(axis, pixels, extent, c.state.Axis(axis).Factor)
	if pan == 0 {
		return false
	}
	c.acc.AddPan(axis, pan)
	c.debouncer.Trigger(func() { c.commit() })
	return true
}

// Flush commits queued gestures now
func (c *Controller) Flush() bool {
	c.debouncer.Stop()
	return c.commit()
}

func (c *Controller) commit() bool {
	if !c.acc.Flush(c.state) {
		return false
	}
	snap := c.state.Snapshot()
	c.logger.Trace("chart %s zoom v%d x=%.2f y=%.2f y2=%.2f", c.id, snap.Version, snap.X.Factor, snap.Y.Factor, snap.Y2.Factor)
	if c.opts.OnRender != nil {
		c.opts.OnRender(c.Render())
	}
	return true
}

// Reset drops queued gestures and returns the given axes (all when none are
// named) to rest
func (c *Controller) Reset(axes ...zoom.Axis) {
	c.debouncer.Stop()
	c.acc.Clear()
	before := c.state.Version()
	c.state.Reset(axes...)
	if c.state.Version() != before && c.opts.OnRender != nil {
		c.opts.OnRender(c.Render())
	}
}

// ZoomLabel is the indicator text for the active view
func (c *Controller) ZoomLabel() string {
	snap := c.state.Snapshot()
	if c.Active() == ViewVariability {
		return boxplot.FormatZoomLevel(nil, zoom.Level(snap.Y), nil)
	}
	x := zoom.Level(snap.X)
	if c.opts.Series.Y2Field == "" {
		return boxplot.FormatZoomLevel(&x, zoom.Level(snap.Y), nil)
	}
	y2 := zoom.Level(snap.Y2)
	return boxplot.FormatZoomLevel(&x, zoom.Level(snap.Y), &y2)
}

// Render draws the active view
func (c *Controller) Render() Render {
	v := c.Active()
	out := Render{View: v, Zoom: c.state.Snapshot()}
	out.Version = out.Zoom.Version
	if v == ViewVariability {
		r := c.variability.Render()
		out.Variability = &r
	} else {
		r := c.timeline.Render()
		out.Timeline = &r
	}
	return out
}
