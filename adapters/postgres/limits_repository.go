package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"spcdash/domain/measurement"
	"spcdash/ports"
)

// limitsRepository reads spc_limits
type limitsRepository struct {
	db *sqlx.DB
}

// NewLimitsRepository creates a read-only spc_limits reader
func NewLimitsRepository(db *sqlx.DB) ports.LimitsSource {
	return &limitsRepository{db: db}
}

// CurrentLimits returns the row with the latest effective date for every
// monitor/process/product/chart combination the query selects
func (r *limitsRepository) CurrentLimits(ctx context.Context, q measurement.LimitsQuery) ([]measurement.Limits, error) {
	query, args := buildLimitsQuery(q)

	var limits []measurement.Limits
	if err := r.db.SelectContext(ctx, &limits, query, args...); err != nil {
		return nil, classify("query spc_limits", err)
	}
	return limits, nil
}

func buildLimitsQuery(q measurement.LimitsQuery) (string, []interface{}) {
	var where []string
	var args []interface{}
	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		where = append(where, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("spc_monitor_name", q.SPCMonitor)
	add("process_type", q.ProcessType)
	add("product_type", q.ProductType)
	add("spc_chart_name", q.ChartName)

	var b strings.Builder
	b.WriteString(`SELECT id, process_type, product_type, spc_monitor_name, spc_chart_name,
		cl, lcl, ucl, effective_date
	FROM (
		SELECT DISTINCT ON (spc_monitor_name, process_type, product_type, spc_chart_name) *
		FROM spc_limits`)
	if len(where) > 0 {
		b.WriteString("\n\t\tWHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(`
		ORDER BY spc_monitor_name, process_type, product_type, spc_chart_name, effective_date DESC
	) latest
	ORDER BY id`)
	return b.String(), args
}

// catalogRepository lists selectable filter values from cd_data
type catalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository creates the cd_data catalog reader
func NewCatalogRepository(db *sqlx.DB) ports.Catalog {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) Monitors(ctx context.Context) ([]measurement.LimitsQuery, error) {
	var rows []struct {
		SPCMonitor  string `db:"spc_monitor_name"`
		ProcessType string `db:"process_type"`
		ProductType string `db:"product_type"`
	}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT DISTINCT spc_monitor_name, process_type, product_type
		FROM cd_data
		WHERE spc_monitor_name IS NOT NULL
		ORDER BY spc_monitor_name, process_type, product_type
	`)
	if err != nil {
		return nil, classify("list monitors", err)
	}

	out := make([]measurement.LimitsQuery, 0, len(rows))
	for _, row := range rows {
		out = append(out, measurement.LimitsQuery{
			SPCMonitor:  row.SPCMonitor,
			ProcessType: row.ProcessType,
			ProductType: row.ProductType,
		})
	}
	return out, nil
}
