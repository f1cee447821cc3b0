package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"spcdash/domain/measurement"
	"spcdash/internal/boxplot"
)

func sampleInput() Input {
	records := []measurement.Record{
		{Entity: "T1", Fields: map[string]interface{}{"cd_att": 10.0}},
		{Entity: "T1", Fields: map[string]interface{}{"cd_att": 11.0}},
		{Entity: "T1", Fields: map[string]interface{}{"cd_att": 12.0}},
		{Entity: "T1", Fields: map[string]interface{}{"cd_att": 25.0}},
		{Entity: "T2", Fields: map[string]interface{}{"cd_att": 20.0}},
		{Entity: "T2", Fields: map[string]interface{}{"cd_att": 35.0}},
	}
	ucl := 40.0
	return Input{
		Filter:           measurement.Filter{SPCMonitor: "SPC_CD_L1", StartDate: "2024-01-01", EndDate: "2024-01-31"},
		ValueField:       "cd_att",
		Grouped:          boxplot.ProcessGroupedStatistics(records, "cd_att", "entity", 1.5),
		Limits:           []measurement.Limits{{ChartName: "cd_att", UCL: &ucl, EffectiveDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}},
		OutlierThreshold: 1.5,
	}
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleInput())

	assert.Contains(t, md, "# SPC statistics")
	assert.Contains(t, md, "- **Monitor:** SPC_CD_L1")
	assert.Contains(t, md, "| T1 | 4 | 11.50 | 10.50 | 18.50 | 8.00 |")
	assert.Contains(t, md, "| T2 | 2 |")
	assert.Contains(t, md, "| All entities | 6 |")
	assert.Contains(t, md, "| cd_att | - | - | 40.00 | 2024-01-01 |")
}

func TestMarkdown_Empty(t *testing.T) {
	md := Markdown(Input{Title: "Nothing", ValueField: "cd_att"})
	assert.Contains(t, md, "# Nothing")
	assert.Contains(t, md, "No numeric values")
	assert.NotContains(t, md, "| Entity |")
}

func TestHTML(t *testing.T) {
	out := string(HTML(sampleInput()))

	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<td>T1</td>")
	assert.Contains(t, out, "<strong>Monitor:</strong>")
	assert.Contains(t, out, "<h1")
}
