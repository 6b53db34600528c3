package routes

import (
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"fuel-pricing/internal/controllers"
	"fuel-pricing/internal/pricing"
	"fuel-pricing/internal/repositories"
	"fuel-pricing/internal/services"
	"fuel-pricing/pkg/config"
	"fuel-pricing/pkg/filestorage"
	"fuel-pricing/pkg/metrics"
	"fuel-pricing/pkg/middleware"
	"fuel-pricing/pkg/service"
	"fuel-pricing/pkg/websocket"
)

const (
	rolePermissionsCacheTTL = 10 * time.Minute
	loginRateLimit          = 10
	loginRateWindow         = time.Minute
)

type Loggers struct {
	Main         *zap.Logger
	Auth         *zap.Logger
	Suggestion   *zap.Logger
	Research     *zap.Logger
	Notification *zap.Logger
}

// NewLoggers derives one named logger per area from base.
func NewLoggers(base *zap.Logger) *Loggers {
	return &Loggers{
		Main:         base,
		Auth:         base.Named("auth"),
		Suggestion:   base.Named("suggestion"),
		Research:     base.Named("research"),
		Notification: base.Named("notification"),
	}
}

func InitRouter(
	e *echo.Echo,
	dbConn *pgxpool.Pool,
	redisClient *redis.Client,
	jwtSvc service.JWTService,
	loggers *Loggers,
	cfg *config.Config,
	hub *websocket.Hub,
	publisher services.EventPublisher,
	m *metrics.Metrics,
) {
	loggers.Main.Info("InitRouter: registering routes")

	fileStorage, err := filestorage.NewLocalFileStorage(cfg.Server.UploadsDir)
	if err != nil {
		loggers.Main.Fatal("failed to create file storage", zap.Error(err))
	}
	txManager := repositories.NewTxManager(dbConn)
	cacheRepo := repositories.NewRedisCacheRepository(redisClient)

	// --- repositories ---
	userRepo := repositories.NewUserRepository(dbConn, loggers.Auth)
	roleRepo := repositories.NewRoleRepository(dbConn, loggers.Main)
	stationRepo := repositories.NewStationRepository(dbConn, loggers.Main)
	clientRepo := repositories.NewClientRepository(dbConn, loggers.Main)
	paymentMethodRepo := repositories.NewPaymentMethodRepository(dbConn, loggers.Main)
	suggestionRepo := repositories.NewPriceSuggestionRepository(dbConn, loggers.Suggestion)
	historyRepo := repositories.NewApprovalHistoryRepository(dbConn)
	competitorRepo := repositories.NewCompetitorPriceRepository(dbConn, loggers.Research)
	dashboardRepo := repositories.NewDashboardRepository(dbConn, loggers.Main)
	notificationRepo := repositories.NewNotificationRepository(dbConn)
	pushRepo := repositories.NewPushSubscriptionRepository(dbConn)

	// --- services ---
	base := services.NewBaseService(userRepo, cacheRepo, loggers.Main)
	authPermissionService := services.NewAuthPermissionService(roleRepo, cacheRepo, loggers.Auth, rolePermissionsCacheTTL)
	tokenService := services.NewTokenService(jwtSvc, cacheRepo, loggers.Auth)
	authService := services.NewAuthService(userRepo, cacheRepo, tokenService, authPermissionService, jwtSvc, loggers.Auth, &cfg.Auth)
	calculator := pricing.NewCalculator(cfg.Pricing.ApprovalTierMarginCents, cfg.Pricing.ArlaRatioPermille)

	mapService := services.NewMapService(base, stationRepo, suggestionRepo, competitorRepo, cacheRepo, m, loggers.Main)
	stationService := services.NewStationService(base, txManager, stationRepo, mapService, loggers.Main)
	clientService := services.NewClientService(base, txManager, clientRepo, loggers.Main)
	paymentMethodService := services.NewPaymentMethodService(base, txManager, paymentMethodRepo, loggers.Main)
	suggestionService := services.NewPriceSuggestionService(
		base, txManager, suggestionRepo, historyRepo, stationRepo, calculator, publisher, m, loggers.Suggestion,
	)
	approvalService := services.NewApprovalService(base, txManager, suggestionRepo, historyRepo, publisher, m, loggers.Suggestion)
	historyService := services.NewApprovalHistoryService(base, historyRepo, suggestionRepo, loggers.Suggestion)
	researchService := services.NewResearchService(
		base, txManager, competitorRepo, stationRepo, suggestionRepo, fileStorage, mapService, loggers.Research,
	)
	notificationService := services.NewNotificationService(notificationRepo, pushRepo, loggers.Notification)
	dashboardService := services.NewDashboardService(base, dashboardRepo, historyRepo, loggers.Main)
	reportService := services.NewReportService(base, suggestionRepo, loggers.Main)
	userService := services.NewUserService(base, txManager, userRepo, roleRepo, tokenService, loggers.Main)
	roleService := services.NewRoleService(base, txManager, roleRepo, authPermissionService, loggers.Main)

	// --- routers ---
	authMW := middleware.NewAuthMiddleware(jwtSvc, tokenService, authPermissionService, loggers.Auth)
	api := e.Group("/api")
	secureGroup := api.Group("", authMW.Auth)

	e.GET("/metrics", echo.WrapHandler(m.Handler()))
	e.Static("/uploads", cfg.Server.UploadsDir)

	runAuthRouter(api, secureGroup, authService, tokenService, cfg.IsProduction(), loggers.Auth)
	runWebSocketRouter(e, hub, jwtSvc, tokenService, cfg.Server.CORSOrigins, loggers.Notification)

	runStationRouter(secureGroup, controllers.NewStationController(stationService, loggers.Main))
	runClientRouter(
		secureGroup,
		controllers.NewClientController(clientService, loggers.Main),
		controllers.NewPaymentMethodController(paymentMethodService, loggers.Main),
	)
	runSuggestionRouter(
		secureGroup,
		controllers.NewSuggestionController(suggestionService, historyService, loggers.Suggestion),
		controllers.NewApprovalController(approvalService, loggers.Suggestion),
	)
	runResearchRouter(
		secureGroup,
		controllers.NewResearchController(researchService, loggers.Research),
		controllers.NewMapController(mapService, loggers.Research),
	)
	runNotificationRouter(secureGroup, controllers.NewNotificationController(notificationService, loggers.Notification))
	runReportRouter(
		secureGroup,
		controllers.NewDashboardController(dashboardService, loggers.Main),
		controllers.NewReportController(reportService, loggers.Main),
	)
	runUserRouter(secureGroup, controllers.NewUserController(userService, loggers.Main))
	runRoleRouter(secureGroup, controllers.NewRoleController(roleService, loggers.Main))

	loggers.Main.Info("InitRouter: routes registered")
}
