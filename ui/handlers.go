package ui

import (
	"html/template"
	"net/http"

	"spcdash/domain/measurement"
	"spcdash/internal/boxplot"
	apperrors "spcdash/internal/errors"
	"spcdash/internal/report"
)

type reportPage struct {
	Title     string
	Body      template.HTML
	Source    string
	Records   int
	FromCache bool
	Query     template.URL
}

func filterFromRequest(r *http.Request) measurement.Filter {
	q := r.URL.Query()
	return measurement.Filter{
		SPCMonitor:  q.Get("spcMonitor"),
		ProcessType: q.Get("processType"),
		ProductType: q.Get("productType"),
		Entity:      q.Get("entity"),
		StartDate:   q.Get("startDate"),
		EndDate:     q.Get("endDate"),
	}.Normalize()
}

// buildReport loads the filter and summarizes field per group
func (a *App) buildReport(r *http.Request) (report.Input, int, bool, error) {
	filter := filterFromRequest(r)
	snap, err := a.loader.Query(r.Context(), filter)
	if err != nil {
		return report.Input{}, 0, false, err
	}

	field := r.URL.Query().Get("field")
	if field == "" {
		field = "cd_att"
	}
	groupBy := r.URL.Query().Get("groupBy")
	if groupBy == "" {
		groupBy = measurement.FieldEntity
	}
	threshold := boxplot.NormalizeThreshold(queryFloat(r, "threshold", a.config.OutlierThreshold))

	in := report.Input{
		Title:            "SPC statistics: " + field,
		Filter:           snap.Filter,
		ValueField:       field,
		Grouped:          boxplot.ProcessGroupedStatistics(snap.AllData, field, groupBy, threshold),
		Limits:           snap.Limits,
		OutlierThreshold: threshold,
		GeneratedAt:      snap.LoadedAt,
	}
	return in, len(snap.AllData), snap.FromCache, nil
}

func (a *App) handleReport(w http.ResponseWriter, r *http.Request) {
	in, count, fromCache, err := a.buildReport(r)
	if err != nil {
		http.Error(w, err.Error(), apperrors.HTTPStatus(err))
		return
	}
	a.renderTemplate(w, "report.html", reportPage{
		Title:     in.Title,
		Body:      template.HTML(report.HTML(in)),
		Source:    a.source,
		Records:   count,
		FromCache: fromCache,
		Query:     template.URL(r.URL.RawQuery),
	})
}

func (a *App) handleReportMarkdown(w http.ResponseWriter, r *http.Request) {
	in, _, _, err := a.buildReport(r)
	if err != nil {
		http.Error(w, err.Error(), apperrors.HTTPStatus(err))
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write([]byte(report.Markdown(in)))
}
