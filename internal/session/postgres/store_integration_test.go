//go:build integration

package postgres

import (
	"context"
	"testing"

	"github.com/dvloznov/taxease/internal/session"
	"github.com/dvloznov/taxease/internal/session/sessiontest"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

func TestStore(t *testing.T) {
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("taxease"),
		tcpostgres.WithUsername("taxease"),
		tcpostgres.WithPassword("taxease"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("starting postgres container: %v", err)
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("ConnectionString() error = %v", err)
	}

	store, err := Open(ctx, Config{DSN: dsn, AutoMigrate: true}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	// Migrations are idempotent.
	n, err := Migrate(ctx, store.Pool(), "test", zerolog.Nop())
	if err != nil || n != 0 {
		t.Fatalf("second Migrate() = %d, %v; want 0, nil", n, err)
	}

	sessiontest.Run(t, func(t *testing.T) session.Store {
		if err := store.Reset(ctx); err != nil {
			t.Fatalf("Reset() error = %v", err)
		}
		return store
	})
}
