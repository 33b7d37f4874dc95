package seeders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hospital-equipment/internal/entities"
	"hospital-equipment/internal/repositories"
	"hospital-equipment/internal/services"
	"hospital-equipment/pkg/codegen"
	"hospital-equipment/pkg/config"
	apperrors "hospital-equipment/pkg/errors"
	"hospital-equipment/pkg/eventbus"
	"hospital-equipment/pkg/utils"
	"hospital-equipment/pkg/validation"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// SeedAdmin создаёт администратора из ADMIN_* переменных. Если пользователь с таким email уже есть, он не меняется.
func SeedAdmin(ctx context.Context, db *pgxpool.Pool, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("▶️  Создание администратора...", zap.String("email", cfg.Admin.Email))

	if strings.TrimSpace(cfg.Admin.Password) == "" {
		logger.Warn("ADMIN_PASSWORD не задан, администратор не создан")
		return nil
	}

	hashedPassword, err := utils.HashPassword(cfg.Admin.Password)
	if err != nil {
		return fmt.Errorf("не удалось захешировать пароль администратора: %w", err)
	}

	admin := &entities.User{
		Name:     cfg.Admin.Name,
		Email:    strings.ToLower(strings.TrimSpace(cfg.Admin.Email)),
		Password: hashedPassword,
		Role:     entities.RoleAdmin,
	}
	if err := repositories.NewUserRepository(db, logger).CreateUser(ctx, admin); err != nil {
		return err
	}

	logger.Info("✅ Администратор готов", zap.Uint64("user_id", admin.ID))
	return nil
}

// SeedDemoEquipment регистрирует демонстрационное оборудование через сервис перемещений,
// поэтому у каждой единицы появляется запись о регистрации в журнале.
func SeedDemoEquipment(ctx context.Context, db *pgxpool.Pool, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("▶️  Регистрация демонстрационного оборудования...", zap.Int("count", len(demoEquipmentData)))

	bus := eventbus.New(logger.Named("EventBus"))
	defer bus.Wait()

	movementService := services.NewMovementService(
		repositories.NewTxManager(db),
		repositories.NewEquipmentRepository(db, logger),
		repositories.NewMovementRepository(db, logger),
		validation.New(),
		codegen.New(cfg.Tracking.LogCodePrefix),
		bus,
		nil,
		cfg.Tracking.TxTimeout,
		logger,
	)

	created := 0
	for _, item := range demoEquipmentData {
		res, err := movementService.RegisterEquipment(ctx, item)
		if err != nil {
			// Код уже занят: оборудование осталось с прошлого запуска.
			if errors.Is(err, apperrors.ErrValidation) {
				logger.Info("    - Уже зарегистрировано, пропускаем", zap.String("code", item.Code))
				continue
			}
			return fmt.Errorf("ошибка регистрации %s: %w", item.Code, err)
		}
		created++
		logger.Info("    - Зарегистрировано",
			zap.String("code", res.Equipment.Code),
			zap.String("qr_code", res.Equipment.QRCode),
			zap.String("log_code", res.Movement.LogCode),
		)
	}

	logger.Info("✅ Демонстрационное оборудование готово", zap.Int("created", created))
	return nil
}
