package zoom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWheelRatio(t *testing.T) {
	assert.Equal(t, WheelStep, WheelRatio(-120))
	assert.InDelta(t, 1/1.2, WheelRatio(120), 1e-12)
	assert.Equal(t, 1.0, WheelRatio(0))
}

func TestHitTest(t *testing.T) {
	// plot spans x 70..690, y 30..340
	l := NewLayout(930, 400, true)
	assert.Equal(t, 620.0, l.InnerWidth())
	assert.Equal(t, 310.0, l.InnerHeight())

	cases := []struct {
		name string
		x, y float64
		axis Axis
		ok   bool
	}{
		{"x axis line", 300, 340, AxisX, true},
		{"below x axis", 300, 399, AxisX, true},
		{"left margin", 20, 100, AxisY, true},
		{"right strip", 700, 100, AxisY2, true},
		{"legend", 800, 100, "", false},
		{"plot area", 300, 100, "", false},
		{"top margin", 300, 10, "", false},
	}
	for _, tc := range cases {
		a, ok := l.HitTest(tc.x, tc.y)
		assert.Equal(t, tc.ok, ok, tc.name)
		assert.Equal(t, tc.axis, a, tc.name)
	}

	noY2 := NewLayout(930, 400, false)
	_, ok := noY2.HitTest(700, 100)
	assert.False(t, ok)
}

func TestCursor(t *testing.T) {
	l := NewLayout(930, 400, true)
	assert.Equal(t, "ew-resize", l.Cursor(300, 350))
	assert.Equal(t, "ns-resize", l.Cursor(20, 100))
	assert.Equal(t, "default", l.Cursor(300, 100))
}

func TestDragDirection(t *testing.T) {
	assert.InDelta(t, -0.1, Drag(AxisX, 62, 620, 1), 1e-12)
	assert.InDelta(t, 0.05, Drag(AxisY, 31, 310, 2), 1e-12)
	assert.Equal(t, 0.0, Drag(AxisY, 31, 0, 1))
}

func TestAccumulatorCoalesces(t *testing.T) {
	s := NewState()
	acc := NewAccumulator()
	for i := 0; i < 3; i++ {
		acc.AddRatio(AxisY, WheelStep)
	}
	acc.AddPan(AxisX, 0.2)
	assert.True(t, acc.Pending())

	assert.True(t, acc.Flush(s))
	assert.False(t, acc.Pending())
	assert.InDelta(t, 1.728, s.Axis(AxisY).Factor, 1e-12)
	assert.InDelta(t, 0.2, s.Axis(AxisX).Offset, 1e-12)

	assert.False(t, acc.Flush(s))
}

func TestAccumulatorNetZero(t *testing.T) {
	s := NewState()
	acc := NewAccumulator()
	acc.AddRatio(AxisY, 2)
	acc.AddRatio(AxisY, 0.5)

	assert.False(t, acc.Flush(s))
	assert.Equal(t, uint64(0), s.Version())
}
