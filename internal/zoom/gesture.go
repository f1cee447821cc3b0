package zoom

import "math"

// WheelStep is the zoom ratio of one wheel notch
const WheelStep = 1.2

// DefaultLegendGap is the width right of the plot that still counts as the
// Y2 axis before the legend begins
const DefaultLegendGap = 85

// WheelRatio converts a wheel delta to a zoom ratio. Scrolling up (negative
// delta) zooms in.
func WheelRatio(deltaY float64) float64 {
	switch {
	case deltaY < 0:
		return WheelStep
	case deltaY > 0:
		return 1 / WheelStep
	}
	return 1
}

// Margin is the space around the plot area
type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// DefaultMargin leaves room for axis labels and the right-hand legend
var DefaultMargin = Margin{Top: 30, Right: 240, Bottom: 60, Left: 70}

// Layout is the pixel geometry of one chart
type Layout struct {
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Margin    Margin  `json:"margin"`
	HasY2     bool    `json:"hasY2"`
	LegendGap float64 `json:"legendGap"`
}

// NewLayout returns a layout with the default margin and legend gap
func NewLayout(width, height float64, hasY2 bool) Layout {
	return Layout{Width: width, Height: height, Margin: DefaultMargin, HasY2: hasY2, LegendGap: DefaultLegendGap}
}

// InnerWidth is the plot width inside the margins
func (l Layout) InnerWidth() float64 {
	return math.Max(0, l.Width-l.Margin.Left-l.Margin.Right)
}

// InnerHeight is the plot height inside the margins
func (l Layout) InnerHeight() float64 {
	return math.Max(0, l.Height-l.Margin.Top-l.Margin.Bottom)
}

// Extent returns the pixel length of the axis, used to convert drags
func (l Layout) Extent(a Axis) float64 {
	if a == AxisX {
		return l.InnerWidth()
	}
	return l.InnerHeight()
}

// HitTest maps a pointer position, relative to the chart's top-left corner,
// to the axis zone under it. The X zone runs from the X-axis line to the
// bottom edge across the plot width, the Y zone is the left margin and the
// Y2 zone is the strip right of the plot up to the legend.
func (l Layout) HitTest(x, y float64) (Axis, bool) {
	plotLeft := l.Margin.Left
	plotRight := l.Margin.Left + l.InnerWidth()
	plotTop := l.Margin.Top
	plotBottom := l.Margin.Top + l.InnerHeight()

	if y >= plotBottom && y <= l.Height && x >= plotLeft && x <= plotRight {
		return AxisX, true
	}
	if x >= 0 && x <= plotLeft && y >= plotTop && y <= plotBottom {
		return AxisY, true
	}
	if l.HasY2 && x >= plotRight && x <= plotRight+l.LegendGap && y >= plotTop && y <= plotBottom {
		return AxisY2, true
	}
	return "", false
}

// Cursor returns the CSS cursor for a pointer position
func (l Layout) Cursor(x, y float64) string {
	a, ok := l.HitTest(x, y)
	switch {
	case !ok:
		return "default"
	case a == AxisX:
		return "ew-resize"
	}
	return "ns-resize"
}

// Drag converts a pointer drag of pixels along an axis of the given pixel
// extent into an offset change. Dragging right moves the X window left in
// data terms; screen Y grows downward so Y drags keep their sign.
func Drag(a Axis, pixels, extent, factor float64) float64 {
	if extent <= 0 || math.IsNaN(pixels) || math.IsInf(pixels, 0) {
		return 0
	}
	f := ClampFactor(factor)
	if a == AxisX {
		return -pixels / (extent * f)
	}
	return pixels / (extent * f)
}
