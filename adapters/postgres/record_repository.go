package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"spcdash/domain/core"
	"spcdash/domain/measurement"
	apperrors "spcdash/internal/errors"
	"spcdash/ports"
)

// cdRow mirrors one row of cd_data
type cdRow struct {
	Lot                sql.NullString  `db:"lot"`
	DateProcess        time.Time       `db:"date_process"`
	Bias               sql.NullInt64   `db:"bias"`
	BiasXY             sql.NullInt64   `db:"bias_x_y"`
	CDAtt              sql.NullFloat64 `db:"cd_att"`
	CDXY               sql.NullFloat64 `db:"cd_x_y"`
	CD6Sig             sql.NullFloat64 `db:"cd_6sig"`
	DurationSubseqStep sql.NullFloat64 `db:"duration_subseq_process_step"`
	Entity             string          `db:"entity"`
	FakeProperty1      sql.NullString  `db:"fake_property1"`
	FakeProperty2      sql.NullString  `db:"fake_property2"`
	ProcessType        sql.NullString  `db:"process_type"`
	ProductType        sql.NullString  `db:"product_type"`
	SPCMonitorName     sql.NullString  `db:"spc_monitor_name"`
}

const cdColumns = `lot, date_process, bias, bias_x_y, cd_att, cd_x_y, cd_6sig,
	duration_subseq_process_step, entity, fake_property1, fake_property2,
	process_type, product_type, spc_monitor_name`

// recordRepository reads CD measurements. It never writes.
type recordRepository struct {
	db *sqlx.DB
}

// NewRecordRepository creates a read-only cd_data reader
func NewRecordRepository(db *sqlx.DB) ports.RecordSource {
	return &recordRepository{db: db}
}

func (r *recordRepository) Name() string { return "postgres" }

// FetchRecords returns matching rows, newest first
func (r *recordRepository) FetchRecords(ctx context.Context, filter measurement.Filter) ([]measurement.Record, error) {
	query, args, err := buildRecordQuery(filter)
	if err != nil {
		return nil, err
	}

	var rows []cdRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, classify("query cd_data", err)
	}

	records := make([]measurement.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toRecord())
	}
	return records, nil
}

// buildRecordQuery renders the cd_data select for filter. Empty selectors
// are left out; the end date covers its whole day.
func buildRecordQuery(filter measurement.Filter) (string, []interface{}, error) {
	filter = filter.Normalize()
	rng, err := filter.Range()
	if err != nil {
		return "", nil, err
	}

	var where []string
	var args []interface{}
	add := func(clause string, arg interface{}) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filter.SPCMonitor != "" {
		add("spc_monitor_name = $%d", filter.SPCMonitor)
	}
	if filter.ProcessType != "" {
		add("process_type = $%d", filter.ProcessType)
	}
	if filter.ProductType != "" {
		add("product_type = $%d", filter.ProductType)
	}
	if !rng.Start.IsZero() {
		add("date_process >= $%d", rng.Start)
	}
	if !rng.End.IsZero() {
		add("date_process < $%d", rng.End.Add(24*time.Hour))
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(cdColumns)
	b.WriteString("\n\tFROM cd_data")
	if len(where) > 0 {
		b.WriteString("\n\tWHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	args = append(args, filter.PageSize)
	fmt.Fprintf(&b, "\n\tORDER BY date_process DESC\n\tLIMIT $%d", len(args))
	return b.String(), args, nil
}

func (row cdRow) toRecord() measurement.Record {
	fields := make(map[string]interface{}, 8)
	putInt := func(k string, v sql.NullInt64) {
		if v.Valid {
			fields[k] = v.Int64
		}
	}
	putFloat := func(k string, v sql.NullFloat64) {
		if v.Valid {
			fields[k] = v.Float64
		}
	}
	putString := func(k string, v sql.NullString) {
		if v.Valid {
			fields[k] = v.String
		}
	}
	putInt("bias", row.Bias)
	putInt("bias_x_y", row.BiasXY)
	putFloat("cd_att", row.CDAtt)
	putFloat("cd_x_y", row.CDXY)
	putFloat("cd_6sig", row.CD6Sig)
	putFloat("duration_subseq_process_step", row.DurationSubseqStep)
	putString("fake_property1", row.FakeProperty1)
	putString("fake_property2", row.FakeProperty2)

	return measurement.Record{
		Entity:      row.Entity,
		Timestamp:   row.DateProcess,
		Lot:         row.Lot.String,
		ProcessType: row.ProcessType.String,
		ProductType: row.ProductType.String,
		SPCMonitor:  row.SPCMonitorName.String,
		Fields:      fields,
	}
}

// classify turns driver errors into application errors
func classify(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.WithCode(apperrors.CodeNotFound, core.ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return apperrors.DatabaseError(fmt.Sprintf("%s failed (%s %s)", op, pqErr.Code, pqErr.Code.Name()), err)
	}
	return apperrors.DatabaseError(op+" failed", err)
}
