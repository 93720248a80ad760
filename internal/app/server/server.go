package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"hrms/internal/domain/audit"
	"hrms/internal/domain/auth"
	"hrms/internal/domain/notifications"
	"hrms/internal/domain/payroll"
	"hrms/internal/domain/recruitment"
	"hrms/internal/domain/staff"
	"hrms/internal/platform/authz"
	"hrms/internal/platform/config"
	cryptoutil "hrms/internal/platform/crypto"
	"hrms/internal/platform/db"
	"hrms/internal/platform/email"
	"hrms/internal/platform/jobs"
	"hrms/internal/platform/metrics"
	"hrms/internal/platform/storage"
	"hrms/internal/transport/http/api"
	payrollhandler "hrms/internal/transport/http/handlers/payroll"
	recruitmenthandler "hrms/internal/transport/http/handlers/recruitment"
	staffhandler "hrms/internal/transport/http/handlers/staff"
	"hrms/internal/transport/http/middleware"
)

const shutdownTimeout = 15 * time.Second

// App is a fully wired service: database, domain services, background jobs
// and the HTTP router.
type App struct {
	Config  config.Config
	DB      *pgxpool.Pool
	Redis   *redis.Client
	Router  http.Handler
	Jobs    *jobs.Service
	Metrics *metrics.Collector
}

// New connects to the database, optionally migrates and seeds it, and builds
// the router. Call Close when done.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := jobs.ValidateSchedules(cfg); err != nil {
		return nil, err
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	app := &App{Config: cfg, DB: pool, Metrics: metrics.New()}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			app.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			app.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	if err := app.build(ctx); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) build(ctx context.Context) error {
	cfg := a.Config
	crypto, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		return err
	}
	if !crypto.Configured() {
		slog.Warn("DATA_ENCRYPTION_KEY not set, payslips and bank details are stored in plaintext")
	}

	uploads := storage.NewLocal(cfg.UploadDir)
	payslips := storage.NewLocal(cfg.PayslipDir)
	cvs := storage.NewLocal(cfg.CVDir)

	authStore := auth.NewStore(a.DB)
	perms, err := authz.New(cfg.AuthzMode, authStore)
	if err != nil {
		return err
	}
	if err := perms.Load(ctx); err != nil {
		return fmt.Errorf("load authz policies: %w", err)
	}

	notifier := notifications.New(notifications.NewStore(a.DB), email.New(cfg))
	notifier.DefaultFrom = cfg.EmailFrom
	notifier.BaseURL = cfg.PublicBaseURL

	staffStore := staff.NewStore(a.DB, crypto)
	payrollStore := payroll.NewStore(a.DB)
	processor := &payroll.Processor{
		Store:         payrollStore,
		Staff:         staff.NewResolver(staffStore),
		Notifier:      notifier,
		Uploads:       uploads,
		Payslips:      payslips,
		Sealer:        crypto,
		Metrics:       a.Metrics,
		PeriodKeyMode: cfg.PayrollPeriodKeyMode,
	}
	payrollService := payroll.NewService(payrollStore, processor, staffStore, crypto, uploads, payslips)
	recruitmentService := recruitment.NewService(recruitment.NewStore(a.DB), staffStore, cvs)

	auditor := audit.New(a.DB)
	idem := middleware.NewIdempotencyStore(a.DB, cfg.IdempotencyWindow)

	a.Jobs = jobs.New(a.DB, cfg, recruitmentService, payrollService)
	a.Jobs.Keys = idem

	var counter middleware.RateCounter = middleware.NewMemoryCounter()
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("REDIS_URL: %w", err)
		}
		a.Redis = redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := a.Redis.Ping(pingCtx).Err(); err != nil {
			slog.Warn("redis unreachable, rate limits fail open until it recovers", "err", err)
		}
		cancel()
		counter = middleware.NewRedisCounter(a.Redis, "hrms:ratelimit:")
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Metrics(a.Metrics))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes, cfg.MaxUploadBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute, middleware.WithCounter(counter)))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute, middleware.WithCounter(counter)))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", a.handleReady)
	if cfg.MetricsEnabled {
		router.With(middleware.RequirePermission(auth.PermSystemMetricsRead, perms)).Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, a.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		payrollhandler.NewHandler(payrollService, perms, auditor, idem, authStore).RegisterRoutes(r)
		staffhandler.NewHandler(staff.NewImporter(staffStore), perms, auditor).RegisterRoutes(r)
		recruitmenthandler.NewHandler(recruitmentService, perms, auditor, authStore).RegisterRoutes(r)
	})

	a.Router = router
	return nil
}

func (a *App) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := a.DB.Ping(ctx); err != nil {
		http.Error(w, "db not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Run serves HTTP and runs background jobs until ctx is cancelled, then shuts
// the server down gracefully.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	if err := a.Jobs.Start(gctx); err != nil {
		return err
	}
	g.Go(func() error {
		slog.Info("HRMS server listening", "addr", a.Config.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			slog.Warn("redis close failed", "err", err)
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
