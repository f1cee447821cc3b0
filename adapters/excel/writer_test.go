package excel

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spcdash/domain/measurement"
	"spcdash/internal/testkit"
)

func TestWriteFileFeedsSource(t *testing.T) {
	cfg := testkit.DefaultCDConfig()
	cfg.Days = 2
	cfg.PointsPerDay = 12
	gen := testkit.NewCDGenerator(cfg)
	records := gen.Generate()
	limits := gen.GenerateLimits()

	for _, name := range []string{"cd.xlsx", "cd.csv"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, WriteFile(path, records, limits))

			src := NewSource(DefaultExcelConfig(path))
			got, err := src.FetchRecords(context.Background(), measurement.Filter{})
			require.NoError(t, err)
			require.Len(t, got, len(records))

			// newest first, same instants to the second
			assert.Equal(t, records[len(records)-1].Timestamp.Unix(), got[0].Timestamp.Unix())
			want, _ := records[len(records)-1].Value("cd_att")
			v, ok := got[0].Value("cd_att")
			assert.True(t, ok)
			assert.InDelta(t, want, v, 1e-9)
			assert.NotEmpty(t, got[0].Group("fake_property1"))
		})
	}

	path := filepath.Join(t.TempDir(), "limits.xlsx")
	require.NoError(t, WriteFile(path, records, limits))
	got, err := NewSource(DefaultExcelConfig(path)).CurrentLimits(context.Background(), measurement.LimitsQuery{})
	require.NoError(t, err)
	assert.Len(t, got, len(limits))
}

func TestWriteFileRejectsUnknownExtension(t *testing.T) {
	err := WriteFile(filepath.Join(t.TempDir(), "cd.json"), nil, nil)
	assert.Error(t, err)
}
