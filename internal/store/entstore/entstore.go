// Package entstore provides the "ent" store driver: the same Postgres schema
// as the sqlx driver, accessed through plain database/sql with OTEL
// instrumentation via otelsql.
package entstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/XSAM/otelsql"
	_ "github.com/lib/pq" // postgres driver
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/jensholdgaard/auctiondesk/internal/clock"
	"github.com/jensholdgaard/auctiondesk/internal/config"
	"github.com/jensholdgaard/auctiondesk/internal/store"
	"github.com/jensholdgaard/auctiondesk/internal/store/postgres"
)

func init() {
	store.Register("ent", openEnt)
}

func openEnt(ctx context.Context, cfg config.DatabaseConfig, clk clock.Clock) (*store.Repositories, error) {
	db, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := postgres.Migrate(db); err != nil {
			db.Close()
			return nil, err
		}
	}
	return &store.Repositories{
		Events: NewEventStore(db, clk),
		Sales:  NewSaleRepo(db, clk),
		Closer: db,
		Ping:   db.PingContext,
	}, nil
}

// Connect opens and verifies a Postgres connection via database/sql.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := otelsql.Open("postgres", cfg.DSN(),
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
	)
	if err != nil {
		return nil, fmt.Errorf("opening ent database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging ent database: %w", err)
	}

	return db, nil
}
