package testkit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spcdash/domain/measurement"
)

func smallConfig() CDGeneratorConfig {
	cfg := DefaultCDConfig()
	cfg.Days = 10
	cfg.PointsPerDay = 20
	return cfg
}

func TestCDGeneratorDeterministic(t *testing.T) {
	a := NewCDGenerator(smallConfig()).Generate()
	b := NewCDGenerator(smallConfig()).Generate()

	require.Len(t, a, 200)
	assert.Equal(t, a, b)
}

func TestCDGeneratorShape(t *testing.T) {
	records := NewCDGenerator(smallConfig()).Generate()

	entities := map[string]bool{}
	for i, r := range records {
		entities[r.Entity] = true
		if i > 0 {
			assert.False(t, r.Timestamp.Before(records[i-1].Timestamp))
		}
		v, ok := r.Value("cd_att")
		require.True(t, ok)
		assert.GreaterOrEqual(t, v, -100.0)
		assert.LessOrEqual(t, v, 100.0)

		sig, ok := r.Value("cd_6sig")
		require.True(t, ok)
		assert.GreaterOrEqual(t, sig, 0.0)
		assert.Equal(t, "SPC_CD_L1", r.SPCMonitor)
	}
	assert.Len(t, entities, 6)
}

func TestGenerateLimits(t *testing.T) {
	limits := NewCDGenerator(smallConfig()).GenerateLimits()
	require.Len(t, limits, 3*4*3)

	for _, l := range limits {
		require.NotNil(t, l.CL)
		require.NotNil(t, l.UCL)
		if l.ChartName == "cd_6sig" {
			assert.Nil(t, l.LCL)
		} else {
			require.NotNil(t, l.LCL)
			assert.Less(t, *l.LCL, *l.CL)
		}
		assert.Greater(t, *l.UCL, *l.CL)
	}
}

func TestMemorySourceFilters(t *testing.T) {
	src := NewSyntheticSource(smallConfig())
	filter := measurement.Filter{
		SPCMonitor:  "SPC_CD_L1",
		ProcessType: "1000",
		ProductType: "XLY2",
		StartDate:   "2024-01-02",
		EndDate:     "2024-01-08",
		PageSize:    25,
	}

	records, err := src.FetchRecords(context.Background(), filter)
	require.NoError(t, err)
	require.NotEmpty(t, records)
	assert.LessOrEqual(t, len(records), 25)

	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)
	for i, r := range records {
		assert.Equal(t, "1000", r.ProcessType)
		assert.Equal(t, "XLY2", r.ProductType)
		assert.False(t, r.Timestamp.Before(start))
		assert.True(t, r.Timestamp.Before(end))
		if i > 0 {
			assert.False(t, r.Timestamp.After(records[i-1].Timestamp), "newest first")
		}
	}
	assert.Equal(t, 1, src.Fetches())
}

func TestMemorySourceLimits(t *testing.T) {
	cl1, cl2 := 1.0, 2.0
	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	src := NewMemorySource(nil, []measurement.Limits{
		{ID: 1, SPCMonitor: "M", ProcessType: "900", ProductType: "P", ChartName: "cd_att", CL: &cl1, EffectiveDate: old},
		{ID: 2, SPCMonitor: "M", ProcessType: "900", ProductType: "P", ChartName: "cd_att", CL: &cl2, EffectiveDate: old.AddDate(0, 1, 0)},
		{ID: 3, SPCMonitor: "M", ProcessType: "1000", ProductType: "P", ChartName: "cd_att", CL: &cl1, EffectiveDate: old},
	})

	limits, err := src.CurrentLimits(context.Background(), measurement.LimitsQuery{SPCMonitor: "M", ProcessType: "900", ProductType: "P"})
	require.NoError(t, err)
	require.Len(t, limits, 1)
	assert.Equal(t, int64(2), limits[0].ID)
}

func TestMemorySourceMonitors(t *testing.T) {
	src := NewSyntheticSource(smallConfig())
	monitors, err := src.Monitors(context.Background())
	require.NoError(t, err)
	assert.Len(t, monitors, 12)
	assert.Equal(t, "1000", monitors[0].ProcessType)
}
