package routes

import (
	"net/http"

	"hospital-equipment/internal/listeners"
	"hospital-equipment/internal/repositories"
	"hospital-equipment/internal/services"
	"hospital-equipment/pkg/codegen"
	"hospital-equipment/pkg/config"
	"hospital-equipment/pkg/eventbus"
	"hospital-equipment/pkg/metrics"
	"hospital-equipment/pkg/middleware"
	"hospital-equipment/pkg/service"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type Loggers struct {
	Main     *zap.Logger
	Auth     *zap.Logger
	Movement *zap.Logger
	Report   *zap.Logger
}

// Deps - общие компоненты процесса, созданные в main.
type Deps struct {
	DB        *pgxpool.Pool
	Redis     *redis.Client
	JWT       service.JWTService
	Bus       *eventbus.Bus
	Metrics   *metrics.Metrics
	Validator services.Validator
	Config    *config.Config
}

func InitRouter(e *echo.Echo, deps Deps, loggers *Loggers) {
	loggers.Main.Info("InitRouter: Начало создания маршрутов")
	cfg := deps.Config

	// --- 0. ОБЩИЕ КОМПОНЕНТЫ ---
	api := e.Group("/api")
	authMW := middleware.NewAuthMiddleware(deps.JWT, loggers.Auth)
	txManager := repositories.NewTxManager(deps.DB)

	// --- 1. РЕПОЗИТОРИИ ---
	equipmentRepo := repositories.NewEquipmentRepository(deps.DB, loggers.Movement)
	movementRepo := repositories.NewMovementRepository(deps.DB, loggers.Movement)
	dashboardRepo := repositories.NewDashboardRepository(deps.DB, loggers.Report)
	userRepo := repositories.NewUserRepository(deps.DB, loggers.Auth)
	cacheRepo := repositories.NewRedisCacheRepository(deps.Redis)

	// --- 2. СЕРВИСЫ ---
	movementService := services.NewMovementService(
		txManager, equipmentRepo, movementRepo, deps.Validator,
		codegen.New(cfg.Tracking.LogCodePrefix), deps.Bus, deps.Metrics,
		cfg.Tracking.TxTimeout, loggers.Movement,
	)
	equipmentService := services.NewEquipmentService(equipmentRepo, movementRepo, deps.Validator, deps.Bus, loggers.Movement)
	reportService := services.NewReportService(movementRepo, equipmentRepo, deps.Validator, cfg.Tracking.Location, loggers.Report)
	dashboardService := services.NewDashboardService(dashboardRepo, cacheRepo, cfg.Dashboard.CacheTTL, cfg.Tracking.Location, loggers.Report)
	authService := services.NewAuthService(userRepo, cacheRepo, deps.JWT, deps.Validator, services.LockoutPolicy{
		MaxAttempts: cfg.JWT.MaxLoginAttempts,
		Duration:    cfg.JWT.LockoutDuration,
	}, loggers.Auth)
	userService := services.NewUserService(userRepo, loggers.Auth)

	// --- 3. СЛУШАТЕЛИ ---
	listeners.NewDashboardListener(dashboardService, loggers.Report).Register(deps.Bus)

	// --- 4. РОУТЕРЫ ---
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	// Метрики содержат причины отказов по операциям, поэтому отдаются только с токеном.
	e.GET("/metrics", echo.WrapHandler(deps.Metrics.Handler()), authMW.Auth)

	runAuthRouter(api, authService, loggers.Auth)

	secureGroup := api.Group("", authMW.Auth)
	runEquipmentRouter(secureGroup, equipmentService, movementService, loggers.Movement)
	runMovementRouter(secureGroup, movementService, reportService, loggers.Movement)
	runReportRouter(secureGroup, reportService, loggers.Report)
	runDashboardRouter(secureGroup, dashboardService, loggers.Report)
	runUserRouter(secureGroup, userService, loggers.Auth)

	loggers.Main.Info("INIT_ROUTER: Создание маршрутов завершено")
}
