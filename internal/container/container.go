package container

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"spcdash/adapters/excel"
	"spcdash/adapters/postgres"
	"spcdash/internal"
	"spcdash/internal/api"
	"spcdash/internal/config"
	"spcdash/internal/datasource"
	"spcdash/internal/errors"
	"spcdash/internal/testkit"
	"spcdash/ports"
	"spcdash/ui"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	DB *sqlx.DB

	// Data access
	Records ports.RecordSource
	Limits  ports.LimitsSource
	Catalog ports.Catalog
	Loader  *datasource.Loader

	// Transport
	API *api.Server
	UI  *ui.App

	logger *internal.Logger
}

// New creates a new dependency injection container. The record source is
// Postgres when DATABASE_URL is set, else the configured Excel/CSV file,
// else synthetic data.
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{
		Config: cfg,
		logger: internal.DefaultLogger.With("container"),
	}

	switch {
	case cfg.Database.Enabled():
		db, err := connectDatabase(cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		c.InitWithDatabase(db)
	case cfg.Data.ExcelFile != "":
		src := excel.NewSource(excel.DefaultExcelConfig(cfg.Data.ExcelFile))
		c.Records, c.Limits, c.Catalog = src, src, src
		c.logger.Info("using Excel data source: %s", cfg.Data.ExcelFile)
	default:
		src := testkit.NewSyntheticSource(testkit.DefaultCDConfig())
		c.Records, c.Limits, c.Catalog = src, src, src
		c.logger.Info("no database or Excel file configured, using synthetic data")
	}

	if err := c.initTransport(); err != nil {
		return nil, err
	}
	return c, nil
}

// InitWithDatabase switches the container to the read-only Postgres
// repositories
func (c *Container) InitWithDatabase(db *sqlx.DB) {
	c.DB = db
	c.Records = postgres.NewRecordRepository(db)
	c.Limits = postgres.NewLimitsRepository(db)
	c.Catalog = postgres.NewCatalogRepository(db)
	c.logger.Info("using Postgres data source")
}

func connectDatabase(url string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to database", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

func (c *Container) initTransport() error {
	cfg := c.Config
	loader, err := datasource.NewLoader(context.Background(), c.Records, c.Limits, datasource.Options{
		TTL:        cfg.Data.CacheTTL,
		MaxRecords: cfg.Data.MaxRecords,
	})
	if err != nil {
		return errors.Wrap(err, "failed to initialize data loader")
	}
	c.Loader = loader

	c.API = api.NewServer(api.Config{
		Port:             cfg.Server.Port,
		GinMode:          cfg.Server.GinMode,
		OutlierThreshold: cfg.Stats.OutlierThreshold,
		Debounce:         cfg.Zoom.Debounce,
	}, c.Loader, c.Catalog, c.Records.Name())

	app, err := ui.NewApp(ui.Config{
		Port:             cfg.Server.UIPort,
		OutlierThreshold: cfg.Stats.OutlierThreshold,
	}, c.Loader, c.Records.Name())
	if err != nil {
		return errors.Wrap(err, "failed to initialize UI")
	}
	c.UI = app
	return nil
}

// Shutdown closes held resources
func (c *Container) Shutdown(ctx context.Context) error {
	if c.Loader != nil {
		c.Loader.Close(ctx)
	}
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
