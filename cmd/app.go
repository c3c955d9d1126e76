package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tinoosan/budget/internal/audit"
	"github.com/tinoosan/budget/internal/audit/amqp"
	"github.com/tinoosan/budget/internal/config"
	v1 "github.com/tinoosan/budget/internal/httpapi/v1"
	"github.com/tinoosan/budget/internal/ledger"
	"github.com/tinoosan/budget/internal/schema"
	"github.com/tinoosan/budget/internal/service/budget"
	"github.com/tinoosan/budget/internal/storage/memory"
	pgstore "github.com/tinoosan/budget/internal/storage/postgres"
	"github.com/tinoosan/budget/internal/storage/sqlite"
)

// app holds everything a command needs once configuration is applied.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	book    *budget.Book
	ready   v1.ReadyChecker
	closers []func()
}

// persistentStore is what every backend provides.
type persistentStore interface {
	schema.KV
	v1.ReadyChecker
}

// openApp loads configuration, connects the selected backend and audit
// sinks, and opens the book. Migration always runs; the period check runs
// unless deferCheck is set.
func openApp(ctx context.Context, deferCheck bool) (*app, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := buildLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	a := &app{cfg: cfg, log: logger}
	store, err := a.openStore(ctx)
	if err != nil {
		a.close()
		return nil, err
	}
	a.ready = store

	sink, err := a.auditSink()
	if err != nil {
		a.close()
		return nil, err
	}
	seed, err := cfg.Seed()
	if err != nil {
		a.close()
		return nil, fmt.Errorf("load seed file: %w", err)
	}

	book, err := budget.Open(ctx, store, budget.Options{
		Currency:                  cfg.Curr(),
		Policy:                    cfg.Policy(),
		Clock:                     ledger.SystemClock(cfg.Location()),
		Logger:                    logger,
		Audit:                     sink,
		Seed:                      seed,
		ReassignDuplicateExpenses: cfg.ReassignDuplicateExpenses,
		DeferPeriodCheck:          deferCheck,
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("open book: %w", err)
	}
	a.book = book
	logger.Debug("book opened",
		"currency", cfg.Curr().Code(),
		"timezone", cfg.Timezone,
		"carry_policy", cfg.CarryPolicy,
		"last_rollover", book.LastRollover().String(),
	)
	return a, nil
}

func (a *app) openStore(ctx context.Context) (persistentStore, error) {
	switch a.cfg.DataBackend {
	case config.BackendPostgres:
		pg, err := pgstore.Open(ctx, a.cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.closers = append(a.closers, pg.Close)
		a.log.Info("storage backend: postgres")
		return pg, nil
	case config.BackendSQLite:
		db, err := sqlite.Open(ctx, a.cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		a.closers = append(a.closers, func() {
			if err := db.Close(); err != nil {
				a.log.Warn("close sqlite", "err", err)
			}
		})
		a.log.Info("storage backend: sqlite", "path", a.cfg.SQLitePath)
		return db, nil
	default:
		a.log.Warn("storage backend: memory; data is lost on exit")
		return memory.New(), nil
	}
}

// auditSink logs every carry event, publishes to AMQP when configured and
// counts events for /metrics.
func (a *app) auditSink() (audit.Sink, error) {
	sinks := audit.Multi{audit.Logger{Log: a.log}}
	if a.cfg.AMQPURL != "" {
		pub, err := amqp.Dial(a.cfg.AMQPURL, a.cfg.AMQPExchange, a.cfg.AMQPQueue, a.log)
		if err != nil {
			return nil, fmt.Errorf("connect AMQP: %w", err)
		}
		a.closers = append(a.closers, func() {
			if err := pub.Close(); err != nil {
				a.log.Warn("close AMQP publisher", "err", err)
			}
		})
		a.log.Info("audit publishing enabled", "exchange", a.cfg.AMQPExchange, "queue", a.cfg.AMQPQueue)
		sinks = append(sinks, pub)
	}
	return audit.Counting(sinks, v1.CountRolloverEvent), nil
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
