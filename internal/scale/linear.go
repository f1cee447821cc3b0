package scale

import "math"

var (
	e10 = math.Sqrt(50)
	e5  = math.Sqrt(10)
	e2  = math.Sqrt(2)
)

// Linear is a continuous scale from Domain to Range. Range may be inverted
// (Range[0] > Range[1]) as it is for a screen Y axis.
type Linear struct {
	Domain Domain
	Range  [2]float64
}

// NewLinear builds a scale mapping d onto [r0, r1]
func NewLinear(d Domain, r0, r1 float64) Linear {
	return Linear{Domain: d, Range: [2]float64{r0, r1}}
}

// Map converts a domain value to range coordinates. A collapsed domain maps
// everything to the middle of the range.
func (s Linear) Map(v float64) float64 {
	span := s.Domain.Span()
	t := 0.5
	if span != 0 {
		t = (v - s.Domain.Min) / span
	}
	return s.Range[0] + t*(s.Range[1]-s.Range[0])
}

// Invert converts a range coordinate back to a domain value
func (s Linear) Invert(px float64) float64 {
	width := s.Range[1] - s.Range[0]
	t := 0.5
	if width != 0 {
		t = (px - s.Range[0]) / width
	}
	return s.Domain.Min + t*s.Domain.Span()
}

// Nice extends the domain outward to round tick boundaries
func (s Linear) Nice(count int) Linear {
	s.Domain = NiceDomain(s.Domain, count)
	return s
}

// Ticks returns roughly count evenly spaced round values inside the domain
func (s Linear) Ticks(count int) []float64 {
	return Ticks(s.Domain, count)
}

// NiceDomain rounds d outward so both ends land on a tick step. It iterates
// because widening can change the chosen step.
func NiceDomain(d Domain, count int) Domain {
	if count <= 0 {
		count = 10
	}
	start, stop := d.Min, d.Max
	if !d.IsFinite() || start == stop {
		return d
	}
	reversed := stop < start
	if reversed {
		start, stop = stop, start
	}
	var prestep float64
loop:
	for i := 0; i < 10; i++ {
		step := tickIncrement(start, stop, count)
		if step == prestep {
			break
		}
		switch {
		case step > 0:
			start = math.Floor(start/step) * step
			stop = math.Ceil(stop/step) * step
		case step < 0:
			start = math.Ceil(start*step) / step
			stop = math.Floor(stop*step) / step
		default:
			break loop
		}
		prestep = step
	}
	if reversed {
		return Domain{Min: stop, Max: start}
	}
	return Domain{Min: start, Max: stop}
}

// Ticks returns the round values within d for about count ticks
func Ticks(d Domain, count int) []float64 {
	if count <= 0 || !d.IsFinite() {
		return nil
	}
	start, stop := d.Min, d.Max
	if start == stop {
		return []float64{start}
	}
	if stop < start {
		start, stop = stop, start
	}
	step := tickIncrement(start, stop, count)
	if step == 0 || math.IsNaN(step) || math.IsInf(step, 0) {
		return nil
	}
	var ticks []float64
	if step > 0 {
		i0, i1 := math.Ceil(start/step), math.Floor(stop/step)
		for i := i0; i <= i1; i++ {
			ticks = append(ticks, i*step)
		}
	} else {
		inv := -step
		i0, i1 := math.Ceil(start*inv), math.Floor(stop*inv)
		for i := i0; i <= i1; i++ {
			ticks = append(ticks, i/inv)
		}
	}
	return ticks
}

// tickIncrement returns a positive step (10^k * {1,2,5}) or, for steps
// below one, the negated reciprocal so callers can stay in integer math.
func tickIncrement(start, stop float64, count int) float64 {
	step := (stop - start) / math.Max(0, float64(count))
	power := math.Floor(math.Log10(step))
	e := step / math.Pow(10, power)
	factor := 1.0
	switch {
	case e >= e10:
		factor = 10
	case e >= e5:
		factor = 5
	case e >= e2:
		factor = 2
	}
	if power >= 0 {
		return factor * math.Pow(10, power)
	}
	return -math.Pow(10, -power) / factor
}
