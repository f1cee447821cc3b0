package boxplot

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spcdash/domain/measurement"
	"spcdash/internal/scale"
)

func f(v float64) *float64 { return &v }

func TestSPCDomainWithLimits(t *testing.T) {
	data := scale.Domain{Min: 95, Max: 105}
	limits := &measurement.Limits{CL: f(100), UCL: f(103), LCL: f(97)}

	d := SPCDomain(data, limits, nil)
	assert.Equal(t, scale.Domain{Min: 94, Max: 106}, d)
}

func TestSPCDomainKeepsData(t *testing.T) {
	data := scale.Domain{Min: 80, Max: 130}
	limits := &measurement.Limits{CL: f(100), UCL: f(103), LCL: f(97)}

	assert.Equal(t, data, SPCDomain(data, limits, nil))
}

func TestSPCDomainStdDevFallback(t *testing.T) {
	data := scale.Domain{Min: 99, Max: 101}
	limits := &measurement.Limits{CL: f(100)}

	d := SPCDomain(data, limits, f(2))
	assert.Equal(t, scale.Domain{Min: 92, Max: 108}, d)

	d = SPCDomain(data, limits, nil)
	assert.Equal(t, data, d)
}

func TestSPCDomainWithoutCentreLine(t *testing.T) {
	data := scale.Domain{Min: 1, Max: 2}
	assert.Equal(t, data, SPCDomain(data, nil, f(3)))
	assert.Equal(t, data, SPCDomain(data, &measurement.Limits{UCL: f(9)}, nil))
}

func TestAllEntitiesStdDev(t *testing.T) {
	records := []measurement.Record{
		rec("A", 2), rec("A", 4), rec("B", 4), rec("B", 4),
		rec("C", 5), rec("C", 5), rec("D", 7), rec("D", 9), rec("D", "x"),
	}
	sd := AllEntitiesStdDev(records, "v")
	require.NotNil(t, sd)
	assert.InDelta(t, 2.0, *sd, 1e-12)

	assert.Nil(t, AllEntitiesStdDev([]measurement.Record{rec("A", "x")}, "v"))
}

func TestValidateDomain(t *testing.T) {
	assert.Equal(t, scale.Domain{Min: 0, Max: 1}, ValidateDomain(scale.Domain{Min: math.NaN(), Max: 3}))
	assert.Equal(t, scale.Domain{Min: 0, Max: 1}, ValidateDomain(scale.Domain{Min: 0, Max: math.Inf(1)}))
	assert.Equal(t, scale.Domain{Min: 90, Max: 110}, ValidateDomain(scale.Domain{Min: 100, Max: 100}))
	assert.Equal(t, scale.Domain{Min: -1, Max: 1}, ValidateDomain(scale.Domain{Min: 0, Max: 0}))
	assert.Equal(t, scale.Domain{Min: 1, Max: 2}, ValidateDomain(scale.Domain{Min: 2, Max: 1}))
}
