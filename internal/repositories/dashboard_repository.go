package repositories

import (
	"context"
	"fmt"
	"time"

	"hospital-equipment/internal/entities"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type DashboardRepositoryInterface interface {
	GetStats(ctx context.Context, dayStart time.Time) (*entities.DashboardStats, error)
}

type DashboardRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewDashboardRepository(storage *pgxpool.Pool, logger *zap.Logger) DashboardRepositoryInterface {
	return &DashboardRepository{storage: storage, logger: logger}
}

// GetStats считает живое оборудование по состоянию и перемещения начиная с dayStart.
func (r *DashboardRepository) GetStats(ctx context.Context, dayStart time.Time) (*entities.DashboardStats, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	var stats entities.DashboardStats

	equipmentQuery, equipmentArgs, err := psql.Select(
		"COUNT(*) FILTER (WHERE location_state = 'inside')",
		"COUNT(*) FILTER (WHERE location_state = 'outside')",
		"COUNT(*)",
	).From(equipmentTable).Where(sq.Eq{"is_active": true}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки запроса по оборудованию: %w", err)
	}
	if err := r.storage.QueryRow(ctx, equipmentQuery, equipmentArgs...).
		Scan(&stats.EquipmentInside, &stats.EquipmentOutside, &stats.TotalEquipment); err != nil {
		return nil, fmt.Errorf("ошибка подсчёта оборудования: %w", err)
	}

	movementQuery, movementArgs, err := psql.Select(
		"COUNT(*)",
		"COUNT(*) FILTER (WHERE kind = 'entry')",
		"COUNT(*) FILTER (WHERE kind = 'exit')",
	).From(movementTable).Where(sq.GtOrEq{"created_at": dayStart}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки запроса по журналу: %w", err)
	}
	if err := r.storage.QueryRow(ctx, movementQuery, movementArgs...).
		Scan(&stats.MovementsToday, &stats.EntriesToday, &stats.ExitsToday); err != nil {
		return nil, fmt.Errorf("ошибка подсчёта перемещений: %w", err)
	}

	return &stats, nil
}
