package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	httptransport "github.com/faraddouglas/conecsa-api/internal/api/http"
	"github.com/faraddouglas/conecsa-api/internal/api/http/handlers"
	"github.com/faraddouglas/conecsa-api/internal/auth"
	"github.com/faraddouglas/conecsa-api/internal/config"
	"github.com/faraddouglas/conecsa-api/internal/events"
	"github.com/faraddouglas/conecsa-api/internal/mail"
	"github.com/faraddouglas/conecsa-api/internal/observability"
	"github.com/faraddouglas/conecsa-api/internal/persistence"
	"github.com/faraddouglas/conecsa-api/internal/repository"
	"github.com/faraddouglas/conecsa-api/internal/service"
	"github.com/faraddouglas/conecsa-api/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	pool := pg.PoolHandle()
	if pool == nil {
		logger.Fatal("POSTGRES_DSN is required")
	}

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartActivityWorker(service.NewActivityService(dispatcher, logger, metrics))

	mailer, err := newMailer(cfg.Mail, logger)
	if err != nil {
		logger.Fatal("failed to init mailer", zap.Error(err))
	}

	var ledger repository.ResetLedger
	if redis.Available() {
		ledger = repository.NewRedisResetLedger(redis.Client)
	} else {
		ledger = repository.NewPostgresResetLedger(pool)
	}

	userRepo := repository.NewUserRepository(pool)
	hasher := auth.NewHasher(cfg.Auth.BcryptCost)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:    userRepo,
		ResetLedger: ledger,
		Mailer:      mailer,
		Dispatcher:  dispatcher,
		Hasher:      hasher,
		Logger:      logger,
	})
	userService := service.NewUserService(userRepo, hasher)
	photoService := service.NewPhotoService(cfg.Storage.PhotoDir, logger)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo, logger)

	dependencies := map[string]handlers.Dependency{"postgres": pg}
	if redis.Available() {
		dependencies["redis"] = redis
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler(logger, metrics),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout(),
		httptransport.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window()))

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, dependencies),
		Auth:           handlers.NewAuthHandler(authService, photoService),
		Users:          handlers.NewUsersHandler(userService),
		AuthMiddleware: authMiddleware,
		Metrics:        adaptor.HTTPHandler(observability.Handler(registry)),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
}

func newMailer(cfg config.MailConfig, logger *zap.Logger) (mail.Mailer, error) {
	renderer, err := mail.NewRenderer()
	if err != nil {
		return nil, err
	}
	if cfg.Host == "" {
		logger.Warn("MAIL_HOST not set; reset mails are logged instead of sent")
		return mail.NewLogMailer(renderer, logger), nil
	}
	smtp, err := mail.NewSMTPMailer(cfg, renderer, logger)
	if err != nil {
		return nil, err
	}
	return smtp, nil
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
