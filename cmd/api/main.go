package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	httptransport "github.com/jlr/user-service/internal/api/http"
	"github.com/jlr/user-service/internal/api/http/handlers"
	"github.com/jlr/user-service/internal/auth"
	"github.com/jlr/user-service/internal/config"
	"github.com/jlr/user-service/internal/events"
	"github.com/jlr/user-service/internal/observability"
	"github.com/jlr/user-service/internal/persistence"
	"github.com/jlr/user-service/internal/repository"
	"github.com/jlr/user-service/internal/service"
	"github.com/jlr/user-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.App, cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, cfg.App.Name, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.Pool, cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger))

	liveJWT := config.NewLiveJWT(cfg.JWT)
	keys := auth.NewSigningKeyProvider(func() string { return liveJWT.Current().Secret }, logger)
	if _, err := keys.Key(); err != nil {
		logger.Fatal("invalid jwt secret", zap.Error(err))
	}
	tokens := auth.NewTokenService(liveJWT, keys, logger)
	cookies := auth.NewCookieTransport(liveJWT, logger)
	policy := auth.NewPolicy()

	userService := service.NewUserService(cfg.Auth, service.UserDependencies{
		UserRepo:   repository.NewUserRepository(pg.Pool),
		Attempts:   repository.NewLoginAttemptRepository(redis.Client),
		Hasher:     auth.NewPasswordHasher(cfg.Auth.BcryptCost),
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	authMiddleware := auth.NewAuthMiddleware(auth.MiddlewareDependencies{
		Tokens:     tokens,
		Cookies:    cookies,
		Principals: userService,
		Policy:     policy,
		Logger:     logger,
		Metrics:    metrics,
	})

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:  logger,
		Metrics: metrics,
		Timeout: cfg.App.RequestTimeout(),
		Auth:    authMiddleware,
		Policy:  policy,
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version,
			handlers.DependencyCheck{Name: "postgres", Check: pg.Ping},
			handlers.DependencyCheck{Name: "redis", Check: redis.Ping},
			handlers.DependencyCheck{Name: "signing_key", Check: func(context.Context) error {
				_, err := keys.Key()
				return err
			}},
		),
		Metrics: handlers.NewMetricsHandler(metrics),
		Users:   handlers.NewUsersHandler(userService, tokens, cookies, logger),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger, liveJWT)

	_ = app.Shutdown()
}

// waitForShutdown blocks until SIGINT or SIGTERM. SIGHUP reloads the token settings.
func waitForShutdown(logger *zap.Logger, liveJWT *config.LiveJWT) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for sig := range sigCh {
		if sig == syscall.SIGHUP {
			reloadJWT(logger, liveJWT)
			continue
		}
		logger.Info("shutting down", zap.String("signal", sig.String()))
		return
	}
}

func reloadJWT(logger *zap.Logger, liveJWT *config.LiveJWT) {
	_ = godotenv.Overload()
	next := config.LoadJWT()
	if err := next.Validate(); err != nil {
		logger.Error("jwt config reload rejected", zap.Error(err))
		return
	}
	liveJWT.Store(next)
	logger.Info("jwt config reloaded",
		zap.String("issuer", next.Issuer),
		zap.String("audience", next.Audience),
		zap.String("cookie", next.Cookie.Name))
}
