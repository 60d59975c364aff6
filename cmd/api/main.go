package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/sweetdelights-backend/api/controllers"
	"github.com/angelmondragon/sweetdelights-backend/api/routes"
	"github.com/angelmondragon/sweetdelights-backend/internal/account"
	"github.com/angelmondragon/sweetdelights-backend/internal/admin"
	"github.com/angelmondragon/sweetdelights-backend/internal/auth"
	"github.com/angelmondragon/sweetdelights-backend/internal/cart"
	"github.com/angelmondragon/sweetdelights-backend/internal/catalog"
	"github.com/angelmondragon/sweetdelights-backend/internal/checkout"
	"github.com/angelmondragon/sweetdelights-backend/internal/contact"
	"github.com/angelmondragon/sweetdelights-backend/internal/store"
	"github.com/angelmondragon/sweetdelights-backend/internal/users"
	"github.com/angelmondragon/sweetdelights-backend/pkg/auth/session"
	"github.com/angelmondragon/sweetdelights-backend/pkg/config"
	"github.com/angelmondragon/sweetdelights-backend/pkg/db"
	"github.com/angelmondragon/sweetdelights-backend/pkg/logger"
	"github.com/angelmondragon/sweetdelights-backend/pkg/metrics"
	"github.com/angelmondragon/sweetdelights-backend/pkg/migrate"
	"github.com/angelmondragon/sweetdelights-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i].Close())
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	storefrontMetrics := metrics.NewStorefront(registry)

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("bootstrap redis: %w", err)
	}
	closers = append(closers, redisClient)
	readiness := map[string]controllers.Pinger{"redis": redisClient}

	// A SQL connection backs postgres state and, whenever configured, the user table.
	var dbClient *db.Client
	if cfg.State.NeedsDB() || cfg.DB.DSN != "" {
		dbClient, err = db.New(ctx, cfg.DB, logg)
		if err != nil {
			return fmt.Errorf("bootstrap database: %w", err)
		}
		closers = append(closers, dbClient)
		readiness["database"] = dbClient

		if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
			return fmt.Errorf("dev migrations: %w", err)
		}
	}

	persister, err := newPersister(cfg, redisClient, dbClient)
	if err != nil {
		return err
	}
	stateStore, err := store.NewStore(persister, logg, storefrontMetrics)
	if err != nil {
		return fmt.Errorf("state store: %w", err)
	}

	userRepo := users.NewMemoryRepository()
	if dbClient != nil {
		userRepo = users.NewRepository(dbClient.DB())
	}

	cakes, err := catalog.Load()
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return fmt.Errorf("session manager: %w", err)
	}

	progress, err := checkout.NewRedisProgressRepository(redisClient, cfg.Redis.StateTTL)
	if err != nil {
		return fmt.Errorf("checkout progress: %w", err)
	}

	cartService, err := cart.NewService(stateStore, cakes)
	if err != nil {
		return fmt.Errorf("cart service: %w", err)
	}
	checkoutService, err := checkout.NewService(stateStore, progress, cfg.Simulation.PaymentDelay, logg, storefrontMetrics)
	if err != nil {
		return fmt.Errorf("checkout service: %w", err)
	}
	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		Store:          stateStore,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		AuthConfig:     cfg.Auth,
		Delay:          cfg.Simulation.LoginDelay,
		Logger:         logg,
		Metrics:        storefrontMetrics,
	})
	if err != nil {
		return fmt.Errorf("auth service: %w", err)
	}
	accountService, err := account.NewService(stateStore, cakes)
	if err != nil {
		return fmt.Errorf("account service: %w", err)
	}
	contactService, err := contact.NewService(cfg.Simulation.ContactDelay, logg, storefrontMetrics)
	if err != nil {
		return fmt.Errorf("contact service: %w", err)
	}
	adminService, err := admin.NewService(cakes, userRepo)
	if err != nil {
		return fmt.Errorf("admin service: %w", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			registry,
			metrics.NewHTTP(registry),
			readiness,
			redisClient,
			sessionManager,
			stateStore,
			cakes,
			cartService,
			checkoutService,
			authService,
			accountService,
			contactService,
			adminService,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"env":           cfg.App.Env,
		"addr":          addr,
		"state_backend": cfg.State.Backend,
		"cakes":         cakes.Count(),
	})
	logg.Info(ctx, "starting api server")

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

func newPersister(cfg *config.Config, redisClient *redis.Client, dbClient *db.Client) (store.Persister, error) {
	switch cfg.State.Backend {
	case config.StateBackendMemory:
		return store.NewMemoryPersister(), nil
	case config.StateBackendPostgres:
		persister, err := store.NewDBPersister(dbClient.DB())
		if err != nil {
			return nil, fmt.Errorf("db persister: %w", err)
		}
		return persister, nil
	default:
		persister, err := store.NewRedisPersister(redisClient, cfg.Redis.StateTTL)
		if err != nil {
			return nil, fmt.Errorf("redis persister: %w", err)
		}
		return persister, nil
	}
}
