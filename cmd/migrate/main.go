// Command migrate applies the PostgreSQL session store migrations and, with
// -bigquery, creates the BigQuery transaction export table.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dvloznov/taxease/internal/config"
	infraBQ "github.com/dvloznov/taxease/internal/infra/bigquery"
	"github.com/dvloznov/taxease/internal/logger"
	"github.com/dvloznov/taxease/internal/session/postgres"
)

var (
	databaseURL = flag.String("database-url", "", "PostgreSQL connection string (defaults to DATABASE_URL)")
	appliedBy   = flag.String("applied-by", "migrate-cli", "Name of the tool applying migrations")
	statusOnly  = flag.Bool("status", false, "Print the migration plan without applying it")
	withBQ      = flag.Bool("bigquery", false, "Also create the BigQuery transactions table (uses BQ_PROJECT, BQ_DATASET)")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewWithOptions(logger.Options{Level: cfg.LogLevel, Console: true})

	dsn := *databaseURL
	if dsn == "" {
		dsn = cfg.DatabaseURL
	}
	if dsn == "" {
		log.Fatal().Msg("Error: -database-url or DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create connection pool")
	}
	defer pool.Close()

	migrations, err := postgres.Migrations()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read migrations")
	}
	log.Info().Int("count", len(migrations)).Msg("Found migration files")

	applied, err := postgres.AppliedVersions(ctx, pool)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get applied migrations")
	}

	steps, err := plan(migrations, applied)
	for _, s := range steps {
		fmt.Println(s)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Migration history does not match the migration files")
	}

	if !*statusOnly {
		n, err := postgres.Migrate(ctx, pool, *appliedBy, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Migration failed")
		}
		if n == 0 {
			log.Info().Msg("No new migrations to apply. Database is up to date.")
		} else {
			log.Info().Int("applied", n).Msg("Successfully applied migrations")
		}
	}

	if *withBQ {
		if cfg.BQProject == "" {
			log.Fatal().Msg("Error: BQ_PROJECT is required with -bigquery")
		}
		repo, err := infraBQ.NewBigQueryTransactionRepository(ctx, cfg.BQProject, cfg.BQDataset, cfg.GoogleCredentialsFile, nil)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create BigQuery client")
		}
		defer repo.Close()

		if *statusOnly {
			return
		}
		created, err := repo.EnsureTable(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to ensure BigQuery transactions table")
		}
		log.Info().Bool("created", created).Str("dataset", cfg.BQDataset).Msg("BigQuery transactions table ready")
	}
}

// plan renders one status line per migration. A migration recorded with a
// different checksum makes plan return an error after listing everything.
func plan(migrations []postgres.Migration, applied map[int]string) ([]string, error) {
	lines := make([]string, 0, len(migrations))
	var modified []string
	for _, m := range migrations {
		checksum, ok := applied[m.Version]
		switch {
		case !ok:
			lines = append(lines, fmt.Sprintf("  [RUN]  %04d_%s", m.Version, m.Name))
		case checksum != m.Checksum:
			lines = append(lines, fmt.Sprintf("  [DIFF] %04d_%s (modified after being applied)", m.Version, m.Name))
			modified = append(modified, m.Filename)
		default:
			lines = append(lines, fmt.Sprintf("  [SKIP] %04d_%s (already applied)", m.Version, m.Name))
		}
	}
	if len(modified) > 0 {
		return lines, fmt.Errorf("modified migrations: %v", modified)
	}
	return lines, nil
}
