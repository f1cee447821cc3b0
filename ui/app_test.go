package ui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spcdash/internal/datasource"
	"spcdash/internal/testkit"
)

func testApp(t *testing.T) *App {
	t.Helper()
	cfg := testkit.DefaultCDConfig()
	cfg.EntityCount = 2
	cfg.Days = 3
	cfg.PointsPerDay = 10
	src := testkit.NewSyntheticSource(cfg)
	loader, err := datasource.NewLoader(context.Background(), src, src, datasource.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { loader.Close(context.Background()) })
	app, err := NewApp(Config{OutlierThreshold: 1.5}, loader, src.Name())
	require.NoError(t, err)
	return app
}

func get(app *App, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	app.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestReportHTML(t *testing.T) {
	app := testApp(t)
	w := get(app, "/report?field=cd_att")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, body, "<table>")
	assert.Contains(t, body, "FAKE_TOOL1")
	assert.Contains(t, body, "All entities")
	assert.Contains(t, body, "Source: memory")
}

func TestReportMarkdown(t *testing.T) {
	app := testApp(t)
	w := get(app, "/report.md?field=cd_att&entity=FAKE_TOOL2")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/markdown")
	assert.Contains(t, w.Body.String(), "# SPC statistics: cd_att")
	assert.Contains(t, w.Body.String(), "| FAKE_TOOL2 |")
}

func TestReportBadFilter(t *testing.T) {
	app := testApp(t)
	w := get(app, "/report?startDate=not-a-date")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIndexRedirects(t *testing.T) {
	app := testApp(t)
	w := get(app, "/?field=bias")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/report?field=bias", w.Header().Get("Location"))
}
