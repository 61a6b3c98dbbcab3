// Command stock-monitor periodically checks the catalog for items at or
// below their restock threshold and mails the admin a grouped report.
// Check failures are logged and retried on the next tick, never fatal.
package main

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	appkg "github.com/doughlab/pizzeria/internal/app"
	"github.com/doughlab/pizzeria/internal/domain/catalog"
	"github.com/doughlab/pizzeria/internal/mailer"
	"github.com/doughlab/pizzeria/internal/repository"
)

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, _ *app.Telemetry) error {
		cfg, err := appkg.LoadConfig()
		if err != nil {
			return err
		}
		return run(ctx, lg, cfg)
	})
}

func run(ctx context.Context, lg *zap.Logger, cfg *appkg.Config) error {
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	catalogRepo := repository.NewCatalogRepository(pool)
	sender := mailer.New(mailer.Config{
		Host:       cfg.SMTP.Host,
		Port:       cfg.SMTP.Port,
		Username:   cfg.SMTP.Username,
		Password:   cfg.SMTP.Password,
		From:       cfg.SMTP.From,
		AdminEmail: cfg.SMTP.AdminEmail,
	})

	lg.Info("Stock monitor started", zap.Duration("interval", cfg.Stock.CheckInterval))

	ticker := time.NewTicker(cfg.Stock.CheckInterval)
	defer ticker.Stop()

	// First check runs immediately so a restart never delays an alert by a
	// full interval.
	check(ctx, lg, catalogRepo, sender)
	for {
		select {
		case <-ctx.Done():
			lg.Info("Stock monitor stopped")
			return nil
		case <-ticker.C:
			check(ctx, lg, catalogRepo, sender)
		}
	}
}

func check(ctx context.Context, lg *zap.Logger, repo catalog.Repository, sender mailer.Sender) {
	items, err := repo.LowStock(ctx)
	if err != nil {
		lg.Error("Low stock query failed", zap.Error(err))
		return
	}
	if len(items) == 0 {
		lg.Debug("All stock levels healthy")
		return
	}

	lg.Warn("Low stock detected", zap.Int("items", len(items)))
	if err := sender.SendLowStockAlert(items); err != nil {
		lg.Error("Low stock alert failed", zap.Error(err))
	}
}
