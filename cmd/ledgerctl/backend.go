package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/flash-wallet/flash_ledger/internal/config"
	"github.com/flash-wallet/flash_ledger/internal/fees"
	"github.com/flash-wallet/flash_ledger/internal/infra"
	"github.com/flash-wallet/flash_ledger/internal/ledger"
	"github.com/flash-wallet/flash_ledger/internal/logging"
	"github.com/flash-wallet/flash_ledger/internal/volume"
)

// backend is what the operator commands run against.
type backend struct {
	journal   *ledger.Journal
	imbalance *fees.ImbalanceCalculator
	migrate   func(infra.Direction) error
	close     func()
}

type opener func(ctx context.Context, cfg config.Config) (*backend, error)

func postgresBackend(ctx context.Context, cfg config.Config) (*backend, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL must be set")
	}
	pool, err := infra.NewPostgresPool(ctx, cfg.DatabaseURL, "ledgerctl")
	if err != nil {
		return nil, err
	}
	return newBackend(pool, cfg), nil
}

func newBackend(pool *pgxpool.Pool, cfg config.Config) *backend {
	journal := ledger.NewJournal(ledger.NewPostgresStore(pool), logging.New(cfg.LogLevel, "ledgerctl"))
	sqlDB := stdlib.OpenDBFromPool(pool)
	return &backend{
		journal: journal,
		imbalance: fees.NewImbalanceCalculator(cfg.WithdrawFee,
			volume.NewPostgresSource(sqlDB, ledger.RailLightning),
			volume.NewPostgresSource(sqlDB, ledger.RailOnChain)),
		migrate: func(dir infra.Direction) error { return infra.Migrate(pool, dir) },
		close: func() {
			sqlDB.Close()
			pool.Close()
		},
	}
}
