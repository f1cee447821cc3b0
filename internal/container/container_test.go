package container

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spcdash/domain/measurement"
	"spcdash/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: "0", UIPort: "0", GinMode: "test"},
		Data:   config.DataConfig{MaxRecords: 50, CacheTTL: time.Minute},
		Stats:  config.StatsConfig{OutlierThreshold: 1.5},
	}
}

func TestNewUsesSyntheticSourceByDefault(t *testing.T) {
	c, err := New(testConfig())
	require.NoError(t, err)
	defer c.Shutdown(context.Background())

	assert.Nil(t, c.DB)
	assert.Equal(t, "memory", c.Records.Name())
	require.NotNil(t, c.API)
	require.NotNil(t, c.UI)

	snap, err := c.Loader.Query(context.Background(), measurement.Filter{})
	require.NoError(t, err)
	assert.Len(t, snap.AllData, 50, "MAX_RECORDS caps the page size")
}

func TestNewUsesExcelWhenConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.Data.ExcelFile = "testdata/missing.xlsx"
	c, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, "excel", c.Records.Name())

	_, err = c.Loader.Query(context.Background(), measurement.Filter{})
	assert.Error(t, err)
}

func TestNewRejectsNilConfig(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}
