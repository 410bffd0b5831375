// Package main is the entrypoint for the Roomify API server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/roomify/roomify/internal/audit"
	"github.com/roomify/roomify/internal/cache"
	"github.com/roomify/roomify/internal/capture"
	"github.com/roomify/roomify/internal/config"
	"github.com/roomify/roomify/internal/handler"
	"github.com/roomify/roomify/internal/metrics"
	"github.com/roomify/roomify/internal/middleware"
	"github.com/roomify/roomify/internal/repository"
	"github.com/roomify/roomify/internal/server"
	"github.com/roomify/roomify/internal/service"
	"github.com/roomify/roomify/internal/storage"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	// Metrics
	recorder := metrics.NewInMemory()

	// Capture token lifecycle
	tokenStore := capture.NewMemoryStore()
	tokenService := capture.NewService(tokenStore, cfg.CaptureTokenTTL, recorder)
	enforcer := capture.NewEnforcer(cfg.CaptureUploadMaxAge)
	sweeper := capture.NewSweeper(tokenService, cfg.CaptureSweepInterval, logger)

	// Audit trail
	auditPublisher := audit.NewPublisher(cacheClient.Client(), logger, recorder)
	auditWorker := audit.NewWorker(cacheClient.Client(), repo, logger, audit.NewConsumerID(), recorder)

	// Image storage
	imageStore := storage.NewImageStore(cfg.UploadDir, cfg.BaseURL)

	// Services
	userService := service.NewUserService(repo)
	roomService := service.NewRoomService(repo)
	rentalService := service.NewRentalService(repo, cacheClient, logger, recorder)
	meterService := service.NewMeterService(repo)
	invoiceService := service.NewInvoiceService(repo, recorder)
	issueService := service.NewIssueService(repo)

	// Handlers
	h := handler.New()
	healthHandler := handler.NewHealthHandler(repo, cacheClient, imageStore)
	metricsHandler := handler.NewMetricsHandler(recorder)
	userHandler := handler.NewUserHandler(userService, logger)
	roomHandler := handler.NewRoomHandler(roomService, logger)
	rentalHandler := handler.NewRentalHandler(rentalService, logger)
	meterHandler := handler.NewMeterHandler(meterService, logger)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService, logger)
	issueHandler := handler.NewIssueHandler(issueService, logger)
	auditHandler := handler.NewAuditHandler(repo, logger)
	captureHandler := handler.NewCaptureHandler(tokenService, enforcer, rentalService, imageStore, auditPublisher, logger, recorder)

	// Router
	r := setupRouter(routerDeps{
		hello:    h,
		health:   healthHandler,
		metrics:  metricsHandler,
		users:    userHandler,
		rooms:    roomHandler,
		rentals:  rentalHandler,
		meters:   meterHandler,
		invoices: invoiceHandler,
		issues:   issueHandler,
		auditLog: auditHandler,
		capture:  captureHandler,
	}, cacheClient, cfg, logger)

	// Server
	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	// Background workers run until shutdown.
	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()

	go func() {
		if err := sweeper.Run(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("sweeper stopped", "error", err)
		}
	}()
	srv.OnShutdown("capture-sweeper", func(ctx context.Context) error {
		stopWorkers()
		return nil
	})

	go func() {
		if err := auditWorker.Run(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("audit worker stopped", "error", err)
		}
	}()
	srv.OnShutdown("audit-worker", auditWorker.Shutdown)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"base_url", cfg.BaseURL,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type routerDeps struct {
	hello    *handler.Handler
	health   *handler.HealthHandler
	metrics  *handler.MetricsHandler
	users    *handler.UserHandler
	rooms    *handler.RoomHandler
	rentals  *handler.RentalHandler
	meters   *handler.MeterHandler
	invoices *handler.InvoiceHandler
	issues   *handler.IssueHandler
	auditLog *handler.AuditHandler
	capture  *handler.CaptureHandler
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(deps routerDeps, cacheClient *cache.Cache, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: cfg.GetCORSAllowedOrigins(),
	}))
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment: cfg.IsDevelopment(),
	}))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	// Health and metrics endpoints (no auth required)
	r.Get("/healthz", deps.health.Healthz)
	r.Get("/readyz", deps.health.Readyz)
	r.Get("/metrics", deps.metrics.Metrics)

	// Root info endpoint
	r.Get("/", deps.hello.Hello)

	// Stored meter images
	r.Handle("/uploads/meter-images/*", http.StripPrefix("/uploads/meter-images/",
		http.FileServer(http.Dir(cfg.UploadDir))))

	authCfg := middleware.AuthConfig{
		Logger: logger,
	}

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:  logger,
		Cache:   cacheClient,
		Enabled: cfg.RateLimitCaptureEnabled,
		RPS:     cfg.RateLimitCaptureRPS,
		Burst:   cfg.RateLimitCaptureBurst,
	}

	admin := middleware.RequireAdmin(logger)

	r.Route("/api/v1", func(r chi.Router) {
		// Registration and login (no auth required)
		r.Post("/auth/register", deps.users.Create)
		r.Post("/auth/login", deps.users.Login)

		// Everything else requires a gateway identity
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(authCfg))

			// Meter capture flow, IP rate limited to slow token guessing
			r.Route("/capture", func(r chi.Router) {
				r.Use(middleware.RateLimitIP(rateLimitCfg))
				r.Post("/token", deps.capture.IssueToken)
				r.Post("/upload", deps.capture.Upload)
			})

			r.Route("/users", func(r chi.Router) {
				r.With(admin).Get("/", deps.users.List)
				r.Get("/{id}", deps.users.Get)
				r.Patch("/{id}", deps.users.Update)
				r.With(admin).Delete("/{id}", deps.users.Delete)
			})

			r.Route("/rooms", func(r chi.Router) {
				r.Get("/", deps.rooms.List)
				r.Get("/{id}", deps.rooms.Get)
				r.With(admin).Post("/", deps.rooms.Create)
				r.With(admin).Patch("/{id}", deps.rooms.Update)
				r.With(admin).Delete("/{id}", deps.rooms.Delete)
			})

			r.Route("/rentals", func(r chi.Router) {
				r.Get("/", deps.rentals.List)
				r.Get("/{id}", deps.rentals.Get)
				r.With(admin).Post("/", deps.rentals.Create)
				r.With(admin).Post("/{id}/end", deps.rentals.End)
				r.Get("/{id}/meters", deps.meters.ListByRental)
				r.Get("/{id}/invoices", deps.invoices.ListByRental)
				r.Get("/{id}/issues", deps.issues.ListByRental)
				r.With(admin).Get("/{id}/audit", deps.auditLog.ListByRental)
			})

			r.Route("/meters", func(r chi.Router) {
				r.Post("/", deps.meters.Record)
				r.Get("/{id}", deps.meters.Get)
				r.With(admin).Post("/{id}/confirm", deps.meters.Confirm)
				r.Delete("/{id}", deps.meters.Delete)
			})

			r.Route("/invoices", func(r chi.Router) {
				r.With(admin).Post("/", deps.invoices.Generate)
				r.With(admin).Get("/", deps.invoices.List)
				r.Get("/{id}", deps.invoices.Get)
				r.With(admin).Post("/{id}/pay", deps.invoices.Pay)
				r.With(admin).Post("/{id}/fail", deps.invoices.Fail)
			})

			r.Route("/issues", func(r chi.Router) {
				r.Post("/", deps.issues.Create)
				r.With(admin).Get("/", deps.issues.List)
				r.Get("/{id}", deps.issues.Get)
				r.With(admin).Patch("/{id}/status", deps.issues.UpdateStatus)
			})
		})
	})

	// 404 and 405 handlers
	r.NotFound(deps.hello.NotFound)
	r.MethodNotAllowed(deps.hello.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
