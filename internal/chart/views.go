package chart

import (
	"sort"
	"time"

	"spcdash/domain/measurement"
	dstats "spcdash/domain/stats"
	"spcdash/internal/boxplot"
	"spcdash/internal/scale"
	"spcdash/internal/zoom"
)

// View names one of the two chart presentations
type View string

const (
	ViewTimeline    View = "timeline"
	ViewVariability View = "variability"
)

// Series names the record fields a chart plots
type Series struct {
	ValueField string `json:"valueField"`
	Y2Field    string `json:"y2Field,omitempty"`
	GroupField string `json:"groupField"`
}

// Point is one plotted measurement
type Point struct {
	Entity string    `json:"entity"`
	Lot    string    `json:"lot,omitempty"`
	Time   time.Time `json:"time"`
	Value  float64   `json:"value"`
	Y2     *float64  `json:"y2,omitempty"`
	PX     float64   `json:"px"`
	PY     float64   `json:"py"`
	PY2    *float64  `json:"py2,omitempty"`
}

// LimitLines are control limits projected onto the Y axis in pixels
type LimitLines struct {
	CL  *float64 `json:"cl,omitempty"`
	UCL *float64 `json:"ucl,omitempty"`
	LCL *float64 `json:"lcl,omitempty"`
}

// TimelineRender is everything needed to draw the timeline
type TimelineRender struct {
	XDomain  scale.Domain  `json:"xDomain"`
	YDomain  scale.Domain  `json:"yDomain"`
	Y2Domain *scale.Domain `json:"y2Domain,omitempty"`
	YTicks   []float64     `json:"yTicks"`
	Points   []Point       `json:"points"`
	Limits   *LimitLines   `json:"limits,omitempty"`
	Label    string        `json:"zoomLabel"`
}

// Box is the geometry of one box in the variability view
type Box struct {
	Key         string                   `json:"key"`
	Count       int                      `json:"count"`
	Stats       dstats.BoxPlotStatistics `json:"stats"`
	X           float64                  `json:"x"`
	Width       float64                  `json:"width"`
	YQ1         float64                  `json:"yQ1"`
	YMedian     float64                  `json:"yMedian"`
	YQ3         float64                  `json:"yQ3"`
	YWhiskerMin float64                  `json:"yWhiskerMin"`
	YWhiskerMax float64                  `json:"yWhiskerMax"`
	YOutliers   []float64                `json:"yOutliers"`
	Tooltip     string                   `json:"tooltip"`
}

// VariabilityRender is everything needed to draw the box plots
type VariabilityRender struct {
	YDomain scale.Domain `json:"yDomain"`
	YTicks  []float64    `json:"yTicks"`
	Keys    []string     `json:"keys"`
	Boxes   []Box        `json:"boxes"`
	Label   string       `json:"zoomLabel"`
}

// TimelineView draws the entity-filtered records over time. It zooms on
// X, Y and, when a second series is configured, Y2.
type TimelineView struct {
	state  *zoom.State
	frame  *Frame
	layout zoom.Layout
	series Series
}

// YDomain returns the visible Y domain
func (v *TimelineView) YDomain() scale.Domain {
	_, y, _ := v.frame.Base()
	return zoom.EffectiveDomain(y, v.state.Axis(zoom.AxisY))
}

// HitTest finds the zoomable axis under a pointer
func (v *TimelineView) HitTest(x, y float64) (zoom.Axis, bool) {
	return v.layout.HitTest(x, y)
}

// Render computes domains and point positions at the current zoom
func (v *TimelineView) Render() TimelineRender {
	fv := v.frame.view()
	snap := v.state.Snapshot()

	xd := zoom.EffectiveDomain(fv.X, snap.X)
	yd := zoom.EffectiveDomain(fv.Y, snap.Y)
	xs := scale.NewLinear(xd, 0, v.layout.InnerWidth())
	ys := scale.NewLinear(yd, v.layout.InnerHeight(), 0)

	out := TimelineRender{
		XDomain: xd,
		YDomain: yd,
		YTicks:  ys.Ticks(10),
		Points:  make([]Point, 0, len(fv.Data)),
	}

	var y2s *scale.Linear
	if fv.HasY2 {
		d := zoom.EffectiveDomain(fv.Y2, snap.Y2)
		out.Y2Domain = &d
		s := scale.NewLinear(d, v.layout.InnerHeight(), 0)
		y2s = &s
	}

	for _, r := range fv.Data {
		val, ok := r.Value(v.series.ValueField)
		if !ok {
			continue
		}
		t, ok := r.Value(measurement.FieldDate)
		if !ok {
			continue
		}
		p := Point{
			Entity: r.Entity,
			Lot:    r.Lot,
			Time:   r.Timestamp,
			Value:  val,
			PX:     xs.Map(t),
			PY:     ys.Map(val),
		}
		if y2s != nil {
			if y2, ok := r.Value(v.series.Y2Field); ok {
				py2 := y2s.Map(y2)
				p.Y2, p.PY2 = &y2, &py2
			}
		}
		out.Points = append(out.Points, p)
	}
	sort.SliceStable(out.Points, func(i, j int) bool { return out.Points[i].Time.Before(out.Points[j].Time) })

	if fv.Limits != nil {
		out.Limits = &LimitLines{
			CL:  project(ys, fv.Limits.CL),
			UCL: project(ys, fv.Limits.UCL),
			LCL: project(ys, fv.Limits.LCL),
		}
	}
	x, y, y2 := zoom.Level(snap.X), zoom.Level(snap.Y), zoom.Level(snap.Y2)
	if !fv.HasY2 {
		out.Label = boxplot.FormatZoomLevel(&x, y, nil)
	} else {
		out.Label = boxplot.FormatZoomLevel(&x, y, &y2)
	}
	return out
}

// VariabilityView draws one box per group across all entities. Only the Y
// axis zooms; it is the same Y the timeline uses.
type VariabilityView struct {
	state     *zoom.State
	frame     *Frame
	layout    zoom.Layout
	series    Series
	threshold float64
}

// YDomain returns the visible Y domain
func (v *VariabilityView) YDomain() scale.Domain {
	_, y, _ := v.frame.Base()
	return zoom.EffectiveDomain(y, v.state.Axis(zoom.AxisY))
}

// HitTest only reports the Y zone
func (v *VariabilityView) HitTest(x, y float64) (zoom.Axis, bool) {
	a, ok := v.layout.HitTest(x, y)
	if !ok || a != zoom.AxisY {
		return "", false
	}
	return a, true
}

// Render groups the all-entity data and lays out the boxes
func (v *VariabilityView) Render() VariabilityRender {
	fv := v.frame.view()
	snap := v.state.Snapshot()

	yd := zoom.EffectiveDomain(fv.Y, snap.Y)
	ys := scale.NewLinear(yd, v.layout.InnerHeight(), 0)

	grouped := boxplot.ProcessGroupedStatistics(fv.All, v.series.ValueField, v.series.GroupField, v.threshold)
	band := scale.NewBand(grouped.Keys, 0, v.layout.InnerWidth())

	out := VariabilityRender{
		YDomain: yd,
		YTicks:  ys.Ticks(10),
		Keys:    grouped.Keys,
		Boxes:   make([]Box, 0, len(grouped.Groups)),
		Label:   boxplot.FormatZoomLevel(nil, zoom.Level(snap.Y), nil),
	}
	for _, g := range grouped.Groups {
		x, _ := band.Position(g.Key)
		yOut := make([]float64, len(g.Stats.Outliers))
		for i, o := range g.Stats.Outliers {
			yOut[i] = ys.Map(o)
		}
		out.Boxes = append(out.Boxes, Box{
			Key:         g.Key,
			Count:       g.Count,
			Stats:       g.Stats,
			X:           x,
			Width:       band.Bandwidth(),
			YQ1:         ys.Map(g.Stats.Q1),
			YMedian:     ys.Map(g.Stats.Median),
			YQ3:         ys.Map(g.Stats.Q3),
			YWhiskerMin: ys.Map(g.Stats.WhiskerMin),
			YWhiskerMax: ys.Map(g.Stats.WhiskerMax),
			YOutliers:   yOut,
			Tooltip:     boxplot.FormatTooltip(g.Stats, g.Key, g.Count),
		})
	}
	return out
}

func project(s scale.Linear, v *float64) *float64 {
	if v == nil {
		return nil
	}
	p := s.Map(*v)
	return &p
}
