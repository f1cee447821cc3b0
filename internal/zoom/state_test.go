package zoom

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spcdash/domain/core"
	"spcdash/internal/scale"
)

func TestEffectiveDomainIdentity(t *testing.T) {
	for _, base := range []scale.Domain{
		{Min: 0, Max: 1},
		{Min: -3.3, Max: 17.1},
		{Min: 1e12, Max: 1e12 + 0.1},
		{Min: 5, Max: 5},
	} {
		assert.Equal(t, base, EffectiveDomain(base, Identity))
	}
}

func TestEffectiveDomainZoomAndPan(t *testing.T) {
	base := scale.Domain{Min: 0, Max: 100}

	d := EffectiveDomain(base, AxisZoom{Factor: 2})
	assert.InDelta(t, 25, d.Min, 1e-9)
	assert.InDelta(t, 75, d.Max, 1e-9)

	d = EffectiveDomain(base, AxisZoom{Factor: 2, Offset: 0.1})
	assert.InDelta(t, 35, d.Min, 1e-9)
	assert.InDelta(t, 85, d.Max, 1e-9)

	d = EffectiveDomain(base, AxisZoom{Factor: 0.5})
	assert.InDelta(t, -50, d.Min, 1e-9)
	assert.InDelta(t, 150, d.Max, 1e-9)
}

func TestZoomClampsFactor(t *testing.T) {
	s := NewState()
	for i := 0; i < 100; i++ {
		s.Zoom(AxisY, WheelStep)
	}
	assert.Equal(t, MaxFactor, s.Axis(AxisY).Factor)

	for i := 0; i < 200; i++ {
		s.Zoom(AxisY, 1/WheelStep)
	}
	assert.Equal(t, MinFactor, s.Axis(AxisY).Factor)
}

func TestZoomIgnoresBadRatios(t *testing.T) {
	s := NewState()
	for _, r := range []float64{0, -2, math.NaN(), math.Inf(1)} {
		assert.False(t, s.Zoom(AxisX, r))
	}
	assert.Equal(t, Identity, s.Axis(AxisX))
	assert.Equal(t, uint64(0), s.Version())
}

func TestSetFactorClamps(t *testing.T) {
	s := NewState()

	s.SetFactor(AxisY2, math.NaN())
	assert.Equal(t, MinFactor, s.Axis(AxisY2).Factor)
	s.SetFactor(AxisY2, math.Inf(1))
	assert.Equal(t, MaxFactor, s.Axis(AxisY2).Factor)
	s.SetFactor(AxisY2, -4)
	assert.Equal(t, MinFactor, s.Axis(AxisY2).Factor)
	s.SetFactor(AxisY2, 3)
	assert.Equal(t, 3.0, s.Axis(AxisY2).Factor)
}

func TestAxesAreIndependent(t *testing.T) {
	s := NewState()
	s.Zoom(AxisY, 2)
	s.Pan(AxisX, 0.25)

	snap := s.Snapshot()
	assert.Equal(t, AxisZoom{Factor: 2}, snap.Y)
	assert.Equal(t, AxisZoom{Factor: 1, Offset: 0.25}, snap.X)
	assert.Equal(t, Identity, snap.Y2)
	assert.Equal(t, uint64(2), snap.Version)
}

func TestResetRestoresBaseDomain(t *testing.T) {
	base := scale.Domain{Min: -7, Max: 42}
	s := NewState()
	s.Zoom(AxisX, 3)
	s.Zoom(AxisY, 1.7)
	s.Pan(AxisY, -0.3)
	s.SetFactor(AxisY2, 0.4)
	require.True(t, s.IsZoomed())

	s.Reset(AxisY)
	assert.Equal(t, Identity, s.Axis(AxisY))
	assert.Equal(t, 3.0, s.Axis(AxisX).Factor)

	s.ResetAll()
	assert.False(t, s.IsZoomed())
	for _, a := range Axes {
		assert.Equal(t, Identity, s.Axis(a))
		assert.Equal(t, base, EffectiveDomain(base, s.Axis(a)))
	}
}

func TestResetWhenAtRestKeepsVersion(t *testing.T) {
	s := NewState()
	s.ResetAll()
	assert.Equal(t, uint64(0), s.Version())
}

func TestParseAxis(t *testing.T) {
	a, err := ParseAxis(" Y2 ")
	require.NoError(t, err)
	assert.Equal(t, AxisY2, a)

	_, err = ParseAxis("z")
	assert.True(t, errors.Is(err, core.ErrUnknownAxis))
}

func TestConcurrentZoom(t *testing.T) {
	s := NewState()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Pan(AxisX, 0.01)
		}()
		go func() {
			defer wg.Done()
			_ = s.Snapshot()
		}()
	}
	wg.Wait()
	assert.InDelta(t, 0.5, s.Axis(AxisX).Offset, 1e-9)
	assert.Equal(t, uint64(50), s.Version())
}
