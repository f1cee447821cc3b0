package zoom

import "spcdash/internal/scale"

// EffectiveDomain returns the visible part of base under az. The visible
// span is span/factor, centred on the base centre shifted by offset*span.
// An at-rest zoom returns base unchanged.
func EffectiveDomain(base scale.Domain, az AxisZoom) scale.Domain {
	if az.IsIdentity() {
		return base
	}
	f := ClampFactor(az.Factor)
	span := base.Span()
	shrink := (span - span/f) / 2
	shift := az.Offset * span
	return scale.Domain{Min: base.Min + shrink + shift, Max: base.Max - shrink + shift}
}

// Level returns the display zoom level of an axis
func Level(az AxisZoom) float64 {
	if az.Factor == 0 {
		return 1
	}
	return az.Factor
}
