package migration

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"spcdash/domain/measurement"
	"spcdash/internal"
	"spcdash/internal/errors"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner creates the cd_data and spc_limits schema the read-only
// repositories query. Statements are idempotent.
type MigrationRunner struct {
	version string
	logger  *internal.Logger
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
		logger:  internal.DefaultLogger.With("migration"),
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

type step struct {
	name string
	sql  string
}

var schemaSteps = []step{
	{"create cd_data table", `
		CREATE TABLE IF NOT EXISTS cd_data (
			id SERIAL PRIMARY KEY,
			lot VARCHAR(64),
			date_process TIMESTAMP NOT NULL,
			bias INTEGER,
			bias_x_y INTEGER,
			cd_att DOUBLE PRECISION,
			cd_x_y DOUBLE PRECISION,
			cd_6sig DOUBLE PRECISION,
			duration_subseq_process_step DOUBLE PRECISION,
			entity VARCHAR(64) NOT NULL,
			fake_property1 VARCHAR(64),
			fake_property2 VARCHAR(64),
			process_type VARCHAR(32),
			product_type VARCHAR(32),
			spc_monitor_name VARCHAR(64)
		)
	`},
	{"create spc_limits table", `
		CREATE TABLE IF NOT EXISTS spc_limits (
			id SERIAL PRIMARY KEY,
			process_type VARCHAR(32) NOT NULL,
			product_type VARCHAR(32) NOT NULL,
			spc_monitor_name VARCHAR(64) NOT NULL,
			spc_chart_name VARCHAR(64) NOT NULL,
			cl DOUBLE PRECISION,
			lcl DOUBLE PRECISION,
			ucl DOUBLE PRECISION,
			effective_date TIMESTAMP NOT NULL
		)
	`},
}

var indexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_cd_data_date_process ON cd_data(date_process DESC)",
	"CREATE INDEX IF NOT EXISTS idx_cd_data_entity ON cd_data(entity)",
	"CREATE INDEX IF NOT EXISTS idx_cd_data_selector ON cd_data(spc_monitor_name, process_type, product_type, date_process DESC)",
	"CREATE INDEX IF NOT EXISTS idx_spc_limits_selector ON spc_limits(spc_monitor_name, process_type, product_type, spc_chart_name, effective_date DESC)",
}

// Run executes all database migrations in order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	for _, s := range schemaSteps {
		if _, err := db.ExecContext(ctx, s.sql); err != nil {
			return errors.Wrap(err, "failed to "+s.name)
		}
	}
	for _, idxSQL := range indexes {
		if _, err := db.ExecContext(ctx, idxSQL); err != nil {
			// Log but don't fail on index creation errors
			r.logger.Warn("failed to create index: %v", err)
		}
	}
	return nil
}

// IsEmpty reports whether a table has no rows
func (r *MigrationRunner) IsEmpty(ctx context.Context, db *sqlx.DB, table string) (bool, error) {
	if table != "cd_data" && table != "spc_limits" {
		return false, fmt.Errorf("unknown table %q", table)
	}
	var n int
	if err := db.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+table); err != nil {
		return false, errors.DatabaseError("count "+table, err)
	}
	return n == 0, nil
}

// cdInsert is one cd_data row for named inserts
type cdInsert struct {
	Lot                interface{} `db:"lot"`
	DateProcess        interface{} `db:"date_process"`
	Bias               interface{} `db:"bias"`
	BiasXY             interface{} `db:"bias_x_y"`
	CDAtt              interface{} `db:"cd_att"`
	CDXY               interface{} `db:"cd_x_y"`
	CD6Sig             interface{} `db:"cd_6sig"`
	DurationSubseqStep interface{} `db:"duration_subseq_process_step"`
	Entity             string      `db:"entity"`
	FakeProperty1      interface{} `db:"fake_property1"`
	FakeProperty2      interface{} `db:"fake_property2"`
	ProcessType        string      `db:"process_type"`
	ProductType        string      `db:"product_type"`
	SPCMonitor         string      `db:"spc_monitor_name"`
}

func toInsert(r measurement.Record) cdInsert {
	num := func(k string) interface{} {
		if v, ok := r.Value(k); ok {
			return v
		}
		return nil
	}
	str := func(k string) interface{} {
		if _, ok := r.Fields[k]; !ok {
			return nil
		}
		return r.Group(k)
	}
	var lot interface{}
	if r.Lot != "" {
		lot = r.Lot
	}
	return cdInsert{
		Lot:                lot,
		DateProcess:        r.Timestamp,
		Bias:               num("bias"),
		BiasXY:             num("bias_x_y"),
		CDAtt:              num("cd_att"),
		CDXY:               num("cd_x_y"),
		CD6Sig:             num("cd_6sig"),
		DurationSubseqStep: num("duration_subseq_process_step"),
		Entity:             r.Entity,
		FakeProperty1:      str("fake_property1"),
		FakeProperty2:      str("fake_property2"),
		ProcessType:        r.ProcessType,
		ProductType:        r.ProductType,
		SPCMonitor:         r.SPCMonitor,
	}
}

const insertCDData = `
	INSERT INTO cd_data (lot, date_process, bias, bias_x_y, cd_att, cd_x_y, cd_6sig,
		duration_subseq_process_step, entity, fake_property1, fake_property2,
		process_type, product_type, spc_monitor_name)
	VALUES (:lot, :date_process, :bias, :bias_x_y, :cd_att, :cd_x_y, :cd_6sig,
		:duration_subseq_process_step, :entity, :fake_property1, :fake_property2,
		:process_type, :product_type, :spc_monitor_name)`

const insertLimits = `
	INSERT INTO spc_limits (process_type, product_type, spc_monitor_name, spc_chart_name,
		cl, lcl, ucl, effective_date)
	VALUES (:process_type, :product_type, :spc_monitor_name, :spc_chart_name,
		:cl, :lcl, :ucl, :effective_date)`

// seedBatch bounds rows per insert statement; Postgres allows 65535 bind
// parameters and a cd_data row uses 14
const seedBatch = 1000

// Seed inserts records and limits in one transaction
func (r *MigrationRunner) Seed(ctx context.Context, db *sqlx.DB, records []measurement.Record, limits []measurement.Limits) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("begin seed transaction", err)
	}
	defer tx.Rollback()

	for start := 0; start < len(records); start += seedBatch {
		end := start + seedBatch
		if end > len(records) {
			end = len(records)
		}
		rows := make([]cdInsert, 0, end-start)
		for _, rec := range records[start:end] {
			rows = append(rows, toInsert(rec))
		}
		if _, err := tx.NamedExecContext(ctx, insertCDData, rows); err != nil {
			return errors.DatabaseError("insert cd_data", err)
		}
	}
	if len(limits) > 0 {
		if _, err := tx.NamedExecContext(ctx, insertLimits, limits); err != nil {
			return errors.DatabaseError("insert spc_limits", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("commit seed", err)
	}
	r.logger.Info("seeded %d records and %d limits", len(records), len(limits))
	return nil
}
