package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/plannerd/taskplanner/internal/config"
	"github.com/plannerd/taskplanner/internal/database"
	"github.com/plannerd/taskplanner/internal/dateparse"
	"github.com/plannerd/taskplanner/internal/handlers"
	"github.com/plannerd/taskplanner/internal/logger"
	"github.com/plannerd/taskplanner/internal/middleware"
	"github.com/plannerd/taskplanner/internal/notify"
	"github.com/plannerd/taskplanner/internal/orchestrator"
	"github.com/plannerd/taskplanner/internal/queue"
	"github.com/plannerd/taskplanner/internal/scheduler"
	"github.com/plannerd/taskplanner/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.Bool("calendar_mirror", cfg.CalDAVAvailable()),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(context.Background(), "taskplanner-api", cfg.OTELEndpoint)
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()

	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer migrateCancel()
	if err := db.Migrate(migrateCtx); err != nil {
		zapLogger.Fatal("failed_to_migrate_database", zap.Error(err))
	}
	zapLogger.Info("connected_to_database")

	redisClient, err := middleware.NewRedisClient(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_redis")

	jobQueue := connectQueue(cfg.RabbitMQURL, zapLogger)
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()

	taskRepo := database.NewTaskRepository(db)
	userRepo := database.NewUserRepository(db)

	var notifier notify.Notifier
	if cfg.ReminderWebhookURL != "" {
		notifier = notify.NewWebhook(cfg.ReminderWebhookURL, zapLogger)
		zapLogger.Info("reminder_webhook_configured")
	} else {
		notifier = notify.NewLog(zapLogger)
		zapLogger.Warn("reminder_webhook_not_configured_logging_reminders")
	}

	sched := scheduler.New(notifier.Notify, time.Duration(cfg.MisfireGraceSec)*time.Second, zapLogger)
	defer sched.Stop()

	orch := orchestrator.New(
		taskRepo,
		userRepo,
		sched,
		jobQueue,
		dateparse.NewNatural(),
		cfg.CalDAVAvailable(),
		orchestrator.Defaults{
			Timezone:    cfg.DefaultTimezone,
			RemindMin:   cfg.DefaultRemindMin,
			ListLimit:   cfg.ListLimit,
			ExportLimit: cfg.ExportLimit,
		},
		zapLogger,
	)

	rearmCtx, rearmCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer rearmCancel()
	if err := orch.RearmPending(rearmCtx); err != nil {
		zapLogger.Warn("failed_to_rearm_pending_reminders", zap.Error(err))
	}

	taskHandler := handlers.NewTaskHandler(orch)
	prefsHandler := handlers.NewPreferencesHandler(orch)
	exportHandler := handlers.NewExportHandler(orch)
	healthChecker := handlers.NewHealthChecker(db, jobQueue)

	rateLimitMW, err := middleware.RateLimit(redisClient, cfg.RateLimitRate)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}

	r := mux.NewRouter()

	if cfg.OTELEnabled {
		r.Use(otelmux.Middleware("taskplanner-api"))
	}
	r.Use(middleware.SecurityHeaders(false))
	r.Use(middleware.CORS(cfg.FrontendURL))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(middleware.DefaultRequestTimeout))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")

	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	authMW := middleware.Auth(middleware.AuthConfig{
		Secret:           []byte(cfg.JWTSecret),
		DefaultTimezone:  cfg.DefaultTimezone,
		DefaultRemindMin: cfg.DefaultRemindMin,
	}, userRepo)

	tasksRouter := apiRouter.PathPrefix("/tasks").Subrouter()
	tasksRouter.Use(authMW)
	tasksRouter.Use(rateLimitMW)
	taskHandler.RegisterRoutes(tasksRouter)

	prefsRouter := apiRouter.PathPrefix("/preferences").Subrouter()
	prefsRouter.Use(authMW)
	prefsRouter.Use(rateLimitMW)
	prefsHandler.RegisterRoutes(prefsRouter)

	exportRouter := apiRouter.PathPrefix("/export.ics").Subrouter()
	exportRouter.Use(authMW)
	exportRouter.Use(rateLimitMW)
	exportRouter.HandleFunc("", exportHandler.ExportICS).Methods("GET")

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

// connectQueue dials RabbitMQ with exponential backoff so the server
// tolerates broker startup delays.
func connectQueue(rabbitURL string, zapLogger *zap.Logger) queue.JobQueue {
	const maxRetries = 10
	const initialDelay = 2 * time.Second

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		jobQueue, err := queue.NewRabbitMQQueue(rabbitURL)
		if err == nil {
			zapLogger.Info("connected_to_rabbitmq")
			return jobQueue
		}

		lastErr = err
		delay := initialDelay * time.Duration(1<<uint(attempt))
		if delay > 30*time.Second {
			delay = 30 * time.Second
		}
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
			zap.Duration("retry_delay", delay),
		)
		time.Sleep(delay)
	}

	zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries",
		zap.Int("max_retries", maxRetries),
		zap.Error(lastErr),
	)
	return nil
}
