package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/plannerd/taskplanner/internal/caldav"
	"github.com/plannerd/taskplanner/internal/config"
	"github.com/plannerd/taskplanner/internal/database"
	"github.com/plannerd/taskplanner/internal/logger"
	"github.com/plannerd/taskplanner/internal/queue"
	"github.com/plannerd/taskplanner/internal/workers"
	"go.uber.org/zap"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.WorkerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.Bool("caldav_configured", cfg.CalDAVAvailable()),
		zap.String("caldav_calendar", cfg.CalDAVCalendar),
	)

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_rabbitmq", zap.Int("prefetch", cfg.RabbitMQPrefetch))

	gateway := caldav.New(caldav.Config{
		Endpoint:     cfg.CalDAVURL,
		Username:     cfg.CalDAVUsername,
		Password:     cfg.CalDAVPassword,
		CalendarName: cfg.CalDAVCalendar,
	}, zapLogger)

	taskRepo := database.NewTaskRepository(db)
	worker := workers.NewCalendarSyncWorker(gateway, taskRepo, jobQueue, zapLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	msgChan, errChan, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		zapLogger.Fatal("failed_to_start_consuming", zap.Error(err))
	}

	zapLogger.Info("worker_started")

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgChan:
				if !ok {
					zapLogger.Info("message_channel_closed")
					return
				}

				if err := worker.ProcessJob(ctx, msg); err != nil {
					zapLogger.Error("failed_to_process_job",
						zap.Error(err),
						zap.String("job_id", msg.GetJob().ID.String()),
						zap.String("job_type", string(msg.GetJob().Type)),
					)
				}
			}
		}
	}()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-errChan:
				if !ok {
					return
				}
				zapLogger.Error("queue_consumer_error", zap.Error(err))
			}
		}
	}()

	<-sigChan
	zapLogger.Info("worker_shutting_down")
	cancel()
	zapLogger.Info("worker_exited")
}
