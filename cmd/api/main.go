package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/puntosclub/kiosk-backend/api/routes"
	authsvc "github.com/puntosclub/kiosk-backend/internal/auth"
	clientsvc "github.com/puntosclub/kiosk-backend/internal/clients"
	"github.com/puntosclub/kiosk-backend/internal/gateway"
	ledgersvc "github.com/puntosclub/kiosk-backend/internal/ledger"
	offersvc "github.com/puntosclub/kiosk-backend/internal/offers"
	prizesvc "github.com/puntosclub/kiosk-backend/internal/prizes"
	productsvc "github.com/puntosclub/kiosk-backend/internal/products"
	"github.com/puntosclub/kiosk-backend/internal/sessionstate"
	"github.com/puntosclub/kiosk-backend/pkg/auth/session"
	"github.com/puntosclub/kiosk-backend/pkg/config"
	"github.com/puntosclub/kiosk-backend/pkg/db"
	"github.com/puntosclub/kiosk-backend/pkg/instance"
	"github.com/puntosclub/kiosk-backend/pkg/logger"
	"github.com/puntosclub/kiosk-backend/pkg/metrics"
	"github.com/puntosclub/kiosk-backend/pkg/migrate"
	"github.com/puntosclub/kiosk-backend/pkg/redis"
	"github.com/puntosclub/kiosk-backend/pkg/remote"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = "sqlite"
	}
	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	remoteMetrics := metrics.NewRemoteCallMetrics(registry)
	ledgerMetrics := metrics.NewLedgerMetrics(registry)

	executor := remote.New(cfg.Remote, remote.WithMetrics(remoteMetrics))
	gw := gateway.WithRetry(gateway.NewGorm(dbClient.DB()), executor)

	clientService, err := clientsvc.NewService(gw, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create client service", err)
		os.Exit(1)
	}
	productService, err := productsvc.NewService(gw)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}
	prizeService, err := prizesvc.NewService(gw)
	if err != nil {
		logg.Error(context.Background(), "failed to create prize service", err)
		os.Exit(1)
	}
	offerService, err := offersvc.NewService(gw)
	if err != nil {
		logg.Error(context.Background(), "failed to create offer service", err)
		os.Exit(1)
	}
	ledgerService, err := ledgersvc.NewService(gw, logg, ledgerMetrics, cfg.Loyalty.TaxRate)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	stateHolder := sessionstate.NewHolder()
	defer stateHolder.Close()

	authService, err := authsvc.NewService(clientService, sessionManager, stateHolder, cfg.JWT, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:         cfg,
			Logger:         logg,
			DB:             dbClient,
			Redis:          redisClient,
			Sessions:       sessionManager,
			Auth:           authService,
			Ledger:         ledgerService,
			Clients:        clientService,
			Products:       productService,
			Prizes:         prizeService,
			Offers:         offerService,
			MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
}
