package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"fuel-pricing/internal/jobs"
	"fuel-pricing/internal/listeners"
	"fuel-pricing/internal/repositories"
	"fuel-pricing/internal/routes"
	"fuel-pricing/internal/services"
	"fuel-pricing/pkg/config"
	"fuel-pricing/pkg/database/postgresql"
	apperrors "fuel-pricing/pkg/errors"
	"fuel-pricing/pkg/eventbus"
	applogger "fuel-pricing/pkg/logger"
	"fuel-pricing/pkg/metrics"
	"fuel-pricing/pkg/middleware"
	"fuel-pricing/pkg/service"
	"fuel-pricing/pkg/utils"
	"fuel-pricing/pkg/validation"
	"fuel-pricing/pkg/websocket"
)

func main() {
	cfg := config.New()
	logger := applogger.NewLogger(cfg.Log.Level, cfg.Log.File)
	defer func() { _ = logger.Sync() }()
	loggers := routes.NewLoggers(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e := echo.New()
	e.HideBanner = true
	e.Validator = validation.New()
	m := metrics.NewMetrics()

	e.Use(echomw.RecoverWithConfig(echomw.RecoverConfig{
		DisableStackAll: true,
		StackSize:       1 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("panic recovered",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err),
				zap.String("stack", string(stack)),
			)
			if !c.Response().Committed {
				httpErr := apperrors.NewHttpError(http.StatusInternalServerError, "internal server error", err, nil)
				_ = utils.ErrorResponse(c, httpErr, logger)
			}
			return err
		},
	}))
	e.Use(middleware.RequestLogger(logger))
	e.Use(middleware.SecureHeaders(cfg.IsProduction()))
	e.Use(m.Middleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		ExposeHeaders:    []string{echo.HeaderContentDisposition},
	}))

	dbConn, err := postgresql.ConnectDB(ctx, cfg.Postgres.DSN, logger)
	if err != nil {
		logger.Fatal("failed to connect to PostgreSQL", zap.Error(err))
	}
	defer dbConn.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		logger.Fatal("failed to connect to Redis", zap.Error(err), zap.String("address", cfg.Redis.Address))
	}
	defer redisClient.Close()

	jwtSvc := service.NewJWTService(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL)

	hub := websocket.NewHub(loggers.Notification)
	go hub.Run(ctx)

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	// Events raised by the services become notifications: stored, sent to open sockets, queued for push.
	bus := eventbus.New(loggers.Notification)
	notifier := services.NewNotifier(
		repositories.NewNotificationRepository(dbConn),
		hub,
		jobs.NewDispatcher(asynqClient),
		cfg.Frontend.URL,
		loggers.Notification,
	)
	listener := listeners.NewNotificationListener(notifier, repositories.NewUserRepository(dbConn, loggers.Auth), loggers.Notification)
	listener.Register(bus)

	routes.InitRouter(e, dbConn, redisClient, jwtSvc, loggers, cfg, hub, bus, m)

	go func() {
		logger.Info("server started", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Server.Env))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server stopped unexpectedly", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	bus.Wait()
	listener.Flush(shutdownCtx)
}
