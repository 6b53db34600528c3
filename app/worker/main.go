package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"fuel-pricing/internal/jobs"
	"fuel-pricing/internal/repositories"
	"fuel-pricing/internal/services"
	"fuel-pricing/pkg/config"
	"fuel-pricing/pkg/database/postgresql"
	applogger "fuel-pricing/pkg/logger"
	"fuel-pricing/pkg/metrics"
	"fuel-pricing/pkg/push"
)

func main() {
	cfg := config.New()
	logger := applogger.NewLogger(cfg.Log.Level, cfg.Log.File).Named("worker")
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbConn, err := postgresql.ConnectDB(ctx, cfg.Postgres.DSN, logger)
	if err != nil {
		logger.Fatal("failed to connect to PostgreSQL", zap.Error(err))
	}
	defer dbConn.Close()

	redisOpts := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	asynqClient := asynq.NewClient(redisOpts)
	defer asynqClient.Close()

	m := metrics.NewMetrics()
	go func() {
		srv := &http.Server{Addr: cfg.Worker.MetricsAddr, Handler: m.Handler()}
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics listener stopped", zap.Error(err))
		}
	}()

	userRepo := repositories.NewUserRepository(dbConn, logger)
	suggestionRepo := repositories.NewPriceSuggestionRepository(dbConn, logger)
	pushRepo := repositories.NewPushSubscriptionRepository(dbConn)

	// No websocket hub here: reminders are stored and pushed only.
	notifier := services.NewNotifier(
		repositories.NewNotificationRepository(dbConn),
		nil,
		jobs.NewDispatcher(asynqClient),
		cfg.Frontend.URL,
		logger,
	)
	sender := push.NewFCMSender(cfg.Push.Endpoint, cfg.Push.ProjectID, cfg.Push.AccessToken, logger)

	pushJob := jobs.NewPushJob(pushRepo, sender, m, logger)
	reminderJob := jobs.NewReminderJob(suggestionRepo, userRepo, notifier, cfg.Pricing.PendingReminderAfter, logger)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   redisOpts,
		Concurrency: cfg.Worker.Concurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskPushSend, Handler: pushJob.Handle},
			{Type: jobs.TaskPendingReminder, Handler: reminderJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: jobs.PendingReminderCron, Task: jobs.NewPendingReminderTask()},
		},
		Logger: logger,
	})
	if err != nil {
		logger.Fatal("failed to configure worker", zap.Error(err))
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("worker stopped", zap.Error(err))
	}
	logger.Info("worker stopped")
}
