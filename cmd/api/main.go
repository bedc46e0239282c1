package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/rs/cors"

	"github.com/studioloop/backend/internal/auth"
	"github.com/studioloop/backend/internal/cache"
	"github.com/studioloop/backend/internal/config"
	"github.com/studioloop/backend/internal/handlers"
	"github.com/studioloop/backend/internal/ledger"
	"github.com/studioloop/backend/internal/notifications"
	"github.com/studioloop/backend/internal/observability"
	"github.com/studioloop/backend/internal/repository"
	"github.com/studioloop/backend/internal/router"
	"github.com/studioloop/backend/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := observability.SetupLogger(cfg)
	observability.InitMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Unable to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("Cannot reach PostgreSQL. Ensure Postgres is running, e.g. docker compose up -d", "error", err)
		os.Exit(1)
	}
	slog.Info("Connected to PostgreSQL")

	// River migrations
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		slog.Error("Failed to create River migrator", "error", err)
		os.Exit(1)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		slog.Error("River migrate up failed", "error", err)
		os.Exit(1)
	}
	slog.Info("River migrations applied")

	// Optional redis in front of category lookups
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("Invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()
	}

	table := services.DefaultWeightTable()
	if cfg.WeightsFile != "" {
		if table, err = services.LoadWeightTable(cfg.WeightsFile); err != nil {
			slog.Error("Failed to load weight table", "path", cfg.WeightsFile, "error", err)
			os.Exit(1)
		}
		slog.Info("Loaded weight table", "path", cfg.WeightsFile)
	}

	// Repositories
	userRepo := repository.NewUserRepo(pool)
	freelancerRepo := repository.NewFreelancerRepo(pool)
	taskRepo := repository.NewTaskRepo(pool)
	offerRepo := repository.NewOfferRepo(pool)
	activityRepo := repository.NewActivityRepo(pool)
	categories := cache.NewCategoryResolver(rdb, repository.NewCategoryRepo(pool), cfg.CategoryCacheTTL)
	ledgerSvc := ledger.NewService(ledger.NewRepository(pool))

	// Outbox: insert func is set after the River client is created (breaks init cycle)
	var insertMu sync.Mutex
	var insertFn notifications.InsertTxFunc
	outbox := notifications.NewOutbox(func(ctx context.Context, tx pgx.Tx, args river.JobArgs, opts *river.InsertOpts) error {
		insertMu.Lock()
		fn := insertFn
		insertMu.Unlock()
		if fn == nil {
			return errors.New("river insert not wired")
		}
		return fn(ctx, tx, args, opts)
	}, cfg.NotifyMaxAttempts)

	emailSender := notifications.SenderFor(cfg.NotifyEmailURL, cfg.NotifyTimeout)
	whatsappSender := notifications.SenderFor(cfg.NotifyWhatsAppURL, cfg.NotifyTimeout)

	workers := river.NewWorkers()
	river.AddWorker(workers, notifications.NewFreelancerWorker(emailSender))
	river.AddWorker(workers, notifications.NewAdminWorker(emailSender, whatsappSender, cfg.AdminRecipients))

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: cfg.WorkerConcurrency},
		},
		Workers: workers,
		Logger:  logger,
	})
	if err != nil {
		slog.Error("Failed to create River client", "error", err)
		os.Exit(1)
	}

	insertMu.Lock()
	insertFn = func(ctx context.Context, tx pgx.Tx, args river.JobArgs, opts *river.InsertOpts) error {
		_, err := riverClient.InsertTx(ctx, tx, args, opts)
		return err
	}
	insertMu.Unlock()

	// Assignment engine
	matcher := services.NewMatcher(freelancerRepo, table)
	coordinator := &services.Coordinator{
		Pool:        pool,
		Credits:     services.NewCreditService(userRepo, ledgerSvc),
		Categories:  categories,
		Selector:    services.NewSelector(matcher, freelancerRepo, cfg.RankTopN),
		Tasks:       taskRepo,
		Offers:      offerRepo,
		Activity:    activityRepo,
		Attachments: repository.NewAttachmentRepo(pool),
		Outbox:      outbox,
	}

	validator, err := services.NewValidator()
	if err != nil {
		slog.Error("Schema validator init failed", "error", err)
		os.Exit(1)
	}

	authSvc := auth.NewService(userRepo, cfg.JWTSecret, cfg.TokenTTL)

	taskHandler := &handlers.TaskHandler{
		Creator:   coordinator,
		Tasks:     taskRepo,
		Validator: validator,
		Offers:    offerRepo,
		Activity:  activityRepo,
		Logger:    logger,
	}

	apiRouter := router.New(router.Deps{
		Auth:     auth.NewHandler(authSvc, logger),
		Tasks:    taskHandler,
		Accounts: &handlers.AccountHandler{Users: userRepo, Credits: ledgerSvc, Logger: logger},
		Tokens:   authSvc,
		Ready: func(ctx context.Context) error {
			if err := pool.Ping(ctx); err != nil {
				return err
			}
			return categories.Ping(ctx)
		},
		CreateRateLimit: cfg.RateLimitPerMin,
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
	}).Handler(apiRouter)

	// Start River client (processes jobs); stopped explicitly after the HTTP server drains
	riverCtx, stopRiver := context.WithCancel(context.Background())
	defer stopRiver()
	if err := riverClient.Start(riverCtx); err != nil {
		slog.Error("Failed to start River client", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      corsHandler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}
	go func() {
		slog.Info("Starting HTTP server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown failed", "error", err)
	}
	if err := riverClient.Stop(shutdownCtx); err != nil {
		slog.Error("River shutdown failed", "error", err)
	}
}
