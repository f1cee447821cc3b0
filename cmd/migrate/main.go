package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"spcdash/internal/migration"
	"spcdash/internal/testkit"
)

// Creates the cd_data and spc_limits tables and, with -seed, fills empty
// tables with synthetic data.
func main() {
	_ = godotenv.Load()

	databaseURL := flag.String("db", os.Getenv("DATABASE_URL"), "Postgres connection URL")
	seed := flag.Bool("seed", false, "insert synthetic data when the tables are empty")
	days := flag.Int("days", 60, "days of synthetic data")
	flag.Parse()

	if *databaseURL == "" {
		log.Fatal("Usage: migrate -db <database_url> [-seed] [-days N]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := sqlx.Connect("postgres", *databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	runner := migration.NewRunner()
	if err := runner.Run(ctx, db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Printf("Schema version %s applied", runner.Version())

	if !*seed {
		return
	}
	empty, err := runner.IsEmpty(ctx, db, "cd_data")
	if err != nil {
		log.Fatalf("Failed to check cd_data: %v", err)
	}
	if !empty {
		log.Println("cd_data already has rows, skipping seed")
		return
	}

	cfg := testkit.DefaultCDConfig()
	cfg.Days = *days
	gen := testkit.NewCDGenerator(cfg)
	if err := runner.Seed(ctx, db, gen.Generate(), gen.GenerateLimits()); err != nil {
		log.Fatalf("Seed failed: %v", err)
	}
}
