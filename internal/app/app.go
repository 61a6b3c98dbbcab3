// Package app wires configuration, storage, domain services, and the HTTP
// server into a runnable application.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/doughlab/pizzeria/internal/api"
	"github.com/doughlab/pizzeria/internal/domain/order"
	"github.com/doughlab/pizzeria/internal/domain/pricing"
	"github.com/doughlab/pizzeria/internal/domain/report"
	"github.com/doughlab/pizzeria/internal/notify"
	"github.com/doughlab/pizzeria/internal/payment"
	"github.com/doughlab/pizzeria/internal/repository"
	"github.com/doughlab/pizzeria/pkg/health"
	"github.com/doughlab/pizzeria/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories.
	catalogRepo := repository.NewCatalogRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	apikeyRepo := repository.NewAPIKeyRepository(pool)
	reportRepo := repository.NewReportRepository(pool)

	// Notification gateway: Redis pub/sub when configured, no-op otherwise.
	var publisher order.Publisher = notify.NopPublisher{}
	if cfg.RedisURL != "" {
		redisPub, err := notify.NewRedisPublisher(ctx, cfg.RedisURL)
		if err != nil {
			return errors.Wrap(err, "create redis publisher")
		}
		defer func() {
			if err := redisPub.Close(); err != nil {
				lg.Warn("Close redis publisher", zap.Error(err))
			}
		}()
		publisher = redisPub
		lg.Info("Order notifications enabled")
	}

	// Domain services.
	engine := pricing.NewEngine(catalogRepo)
	orderCfg := order.Config{
		PaymentsEnabled: cfg.Payments.Enabled,
		Currency:        cfg.Payments.Currency,
	}
	orderSvc := order.NewService(
		orderRepo, catalogRepo, userRepo, engine,
		payment.NewMockGateway(),
		payment.NewVerifier([]byte(cfg.Payments.Secret), cfg.Payments.TestMode),
		publisher,
		orderCfg,
	)
	reportSvc := report.NewService(reportRepo, catalogRepo, 10)

	// HTTP surface.
	auth := api.NewAuthenticator(apikeyRepo, userRepo, []byte(cfg.APIKeyPepper))
	h := api.NewHandler(catalogRepo, engine, orderSvc, userRepo, reportSvc, orderCfg)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	h.Register(mux, auth)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", api.APIKeyHeader},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("pizzeria-api", m),
			httpmiddleware.LogRequests(),
			httpmiddleware.Labeler(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
