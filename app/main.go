// Файл: main.go

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hospital-equipment/internal/routes"
	"hospital-equipment/migrations"
	"hospital-equipment/pkg/config"
	"hospital-equipment/pkg/database/postgresql"
	apperrors "hospital-equipment/pkg/errors"
	"hospital-equipment/pkg/eventbus"
	applogger "hospital-equipment/pkg/logger"
	"hospital-equipment/pkg/metrics"
	appmw "hospital-equipment/pkg/middleware"
	"hospital-equipment/pkg/service"
	"hospital-equipment/pkg/utils"
	"hospital-equipment/pkg/validation"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// 1. Конфиг и логгер
	cfg := config.New()
	logger := applogger.MustNewLogger(cfg.Logger.Level, cfg.Logger.OutputPaths)
	defer func() { _ = logger.Sync() }()

	loggers := &routes.Loggers{
		Main:     logger.Named("Main"),
		Auth:     logger.Named("Auth"),
		Movement: logger.Named("Movement"),
		Report:   logger.Named("Report"),
	}

	// 2. Echo и middleware
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		DisableStackAll: true,
		StackSize:       1 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("!!! ОБНАРУЖЕНА ПАНИКА (PANIC) !!!",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err),
				zap.String("stack", string(stack)),
			)
			if !c.Response().Committed {
				httpErr := apperrors.NewHttpError(http.StatusInternalServerError, "Внутренняя ошибка сервера", err, nil)
				_ = utils.ErrorResponse(c, httpErr, logger)
			}
			return err
		},
	}))
	e.Use(appmw.RequestLogger(logger.Named("HTTP")))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		ExposeHeaders:    []string{"Content-Disposition"},
	}))

	v := validation.New()
	e.Validator = v

	// 3. Хранилище: миграции, пул соединений, Redis
	if cfg.Postgres.MigrateOnStart {
		if err := postgresql.Migrate(cfg.Postgres.DSN, migrations.FS, logger); err != nil {
			logger.Fatal("Не удалось применить миграции", zap.Error(err))
		}
	}

	dbConn, err := postgresql.ConnectDB(context.Background(), cfg.Postgres.DSN, logger)
	if err != nil {
		logger.Fatal("Не удалось подключиться к PostgreSQL", zap.Error(err))
	}
	defer dbConn.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() { _ = redisClient.Close() }()
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		// Redis держит только кеш сводки и счётчики входа, без него учёт работает.
		logger.Warn("Redis недоступен, кеш отключён до восстановления соединения", zap.Error(err), zap.String("address", cfg.Redis.Address))
	}

	// 4. Общие сервисы
	jwtSvc := service.NewJWTService(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL, loggers.Auth)
	bus := eventbus.New(logger.Named("EventBus"))

	// 5. Роуты
	routes.InitRouter(e, routes.Deps{
		DB:        dbConn,
		Redis:     redisClient,
		JWT:       jwtSvc,
		Bus:       bus,
		Metrics:   metrics.New(),
		Validator: v,
		Config:    cfg,
	}, loggers)

	// 6. Запуск и корректная остановка
	go func() {
		logger.Info("🚀 Сервер запущен", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Ошибка запуска сервера", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Получен сигнал остановки, завершаем работу")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Ошибка при остановке сервера", zap.Error(err))
	}
	bus.Wait()
	logger.Info("Сервер остановлен")
}
