package scale

// Band lays out categorical keys as equal-width bands across Range
type Band struct {
	Keys         []string
	Range        [2]float64
	PaddingInner float64
	PaddingOuter float64
}

// NewBand creates a band scale with the chart's default padding
func NewBand(keys []string, r0, r1 float64) Band {
	return Band{Keys: keys, Range: [2]float64{r0, r1}, PaddingInner: 0.1, PaddingOuter: 0.1}
}

func (b Band) layout() (start, step float64) {
	n := float64(len(b.Keys))
	r0, r1 := b.Range[0], b.Range[1]
	denom := n - b.PaddingInner + b.PaddingOuter*2
	if denom < 1 {
		denom = 1
	}
	step = (r1 - r0) / denom
	start = r0 + (r1-r0-step*(n-b.PaddingInner))*0.5
	return start, step
}

// Bandwidth returns the width of one band
func (b Band) Bandwidth() float64 {
	_, step := b.layout()
	return step * (1 - b.PaddingInner)
}

// Position returns the start coordinate of key's band
func (b Band) Position(key string) (float64, bool) {
	start, step := b.layout()
	for i, k := range b.Keys {
		if k == key {
			return start + step*float64(i), true
		}
	}
	return 0, false
}
