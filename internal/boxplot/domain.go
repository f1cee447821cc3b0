package boxplot

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"spcdash/domain/measurement"
	"spcdash/internal/scale"
)

// SPCDomain widens the data extent so control limits stay on screen. With a
// centre line present each side extends to CL ± 2|limit-CL|, or CL ± 4σ when
// the limit is missing. The result always covers the data.
func SPCDomain(data scale.Domain, limits *measurement.Limits, allStdDev *float64) scale.Domain {
	if limits == nil || limits.CL == nil {
		return data
	}
	cl := *limits.CL

	yMax := data.Max
	switch {
	case limits.UCL != nil:
		yMax = cl + 2*math.Abs(*limits.UCL-cl)
	case allStdDev != nil:
		yMax = cl + 4*math.Abs(*allStdDev)
	}

	yMin := data.Min
	switch {
	case limits.LCL != nil:
		yMin = cl - 2*math.Abs(cl-*limits.LCL)
	case allStdDev != nil:
		yMin = cl - 4*math.Abs(*allStdDev)
	}

	return scale.Domain{Min: math.Min(yMin, data.Min), Max: math.Max(yMax, data.Max)}
}

// AllEntitiesStdDev returns the population standard deviation of field across
// all records, or nil when no record carries a finite value.
func AllEntitiesStdDev(records []measurement.Record, field string) *float64 {
	values := make([]float64, 0, len(records))
	for _, r := range records {
		if v, ok := r.Value(field); ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return nil
	}
	sd := stat.PopStdDev(values, nil)
	return &sd
}

// ValidateDomain guarantees a drawable domain: a collapsed interval is padded
// by max(10% of |centre|, 1) each side and a non-finite one becomes [0, 1].
func ValidateDomain(d scale.Domain) scale.Domain {
	if !d.IsFinite() {
		return scale.Domain{Min: 0, Max: 1}
	}
	if d.Min > d.Max {
		d.Min, d.Max = d.Max, d.Min
	}
	if d.Min == d.Max {
		pad := math.Max(math.Abs(d.Min)*0.1, 1)
		return scale.Domain{Min: d.Min - pad, Max: d.Max + pad}
	}
	return d
}
