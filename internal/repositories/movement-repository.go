package repositories

import (
	"context"
	"fmt"

	"hospital-equipment/internal/entities"
	apperrors "hospital-equipment/pkg/errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const movementTable = "movements"

const (
	movementEquipmentConstraint   = "movements_equipment_id_fkey"
	movementResponsibleConstraint = "movements_responsible_user_id_fkey"
)

var movementViewColumns = []string{
	"m.id", "m.log_code", "m.equipment_id", "m.kind", "m.responsible_user_id", "m.notes", "m.created_at",
	"COALESCE(e.code, '')", "e.name", "e.serial", "e.owner_name", "e.location_state",
	"u.name",
}

// MovementRepositoryInterface - журнал только на добавление: методов изменения и удаления нет.
type MovementRepositoryInterface interface {
	CreateInTx(ctx context.Context, tx pgx.Tx, movement *entities.Movement) error
	GetMovements(ctx context.Context, filter entities.MovementFilter) ([]entities.MovementView, uint64, error)
	FindByEquipmentID(ctx context.Context, equipmentID uint64, limit, offset int) ([]entities.MovementView, uint64, error)
	CountByKind(ctx context.Context, filter entities.MovementFilter) (map[entities.MovementKind]uint64, error)
}

type MovementRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewMovementRepository(storage *pgxpool.Pool, logger *zap.Logger) MovementRepositoryInterface {
	return &MovementRepository{storage: storage, logger: logger}
}

func (r *MovementRepository) CreateInTx(ctx context.Context, tx pgx.Tx, movement *entities.Movement) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (log_code, equipment_id, kind, responsible_user_id, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`, movementTable)

	err := tx.QueryRow(ctx, query,
		movement.LogCode,
		movement.EquipmentID,
		string(movement.Kind),
		movement.ResponsibleUserID,
		movement.Notes,
	).Scan(&movement.ID, &movement.CreatedAt)
	if err != nil {
		switch {
		case isForeignKeyViolation(err, movementResponsibleConstraint):
			return apperrors.NewValidationError("Ошибка валидации", map[string]string{"responsible_user_id": "пользователь не найден"})
		case isForeignKeyViolation(err, movementEquipmentConstraint):
			return apperrors.NewNotFoundError(equipmentEntity, movement.EquipmentID)
		}
		return fmt.Errorf("ошибка записи в журнал перемещений: %w", err)
	}
	return nil
}

func applyMovementFilter(b sq.SelectBuilder, filter entities.MovementFilter) sq.SelectBuilder {
	if filter.DateFrom != nil {
		b = b.Where(sq.GtOrEq{"m.created_at": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		b = b.Where(sq.Lt{"m.created_at": *filter.DateTo})
	}
	if filter.Kind != "" {
		b = b.Where(sq.Eq{"m.kind": string(filter.Kind)})
	}
	if filter.EquipmentID != 0 {
		b = b.Where(sq.Eq{"m.equipment_id": filter.EquipmentID})
	}
	return b
}

// GetMovements возвращает записи журнала от новых к старым. Деактивированное оборудование
// в выборку входит: журнал хранит его историю.
func (r *MovementRepository) GetMovements(ctx context.Context, filter entities.MovementFilter) ([]entities.MovementView, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	baseSelect := applyMovementFilter(
		psql.Select().
			From(movementTable+" m").
			Join(equipmentTable+" e ON e.id = m.equipment_id").
			LeftJoin("users u ON u.id = m.responsible_user_id"),
		filter,
	)

	countQuery, countArgs, err := baseSelect.Columns("COUNT(m.id)").ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки COUNT-запроса: %w", err)
	}
	var total uint64
	if err = r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка выполнения COUNT-запроса: %w", err)
	}
	if total == 0 {
		return []entities.MovementView{}, 0, nil
	}

	mainBuilder := baseSelect.Columns(movementViewColumns...).OrderBy("m.created_at DESC", "m.id DESC")
	if filter.Limit > 0 {
		mainBuilder = mainBuilder.Limit(uint64(filter.Limit)).Offset(uint64(filter.Offset))
	}

	query, args, err := mainBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки основного запроса: %w", err)
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка выполнения основного запроса: %w", err)
	}
	defer rows.Close()

	items := make([]entities.MovementView, 0)
	for rows.Next() {
		var (
			item          entities.MovementView
			kind, current string
		)
		err := rows.Scan(
			&item.ID, &item.LogCode, &item.EquipmentID, &kind, &item.ResponsibleUserID, &item.Notes, &item.CreatedAt,
			&item.EquipmentCode, &item.EquipmentName, &item.EquipmentSerial, &item.OwnerName, &current,
			&item.ResponsibleName,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		item.Kind = entities.MovementKind(kind)
		item.CurrentState = entities.LocationState(current)
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (r *MovementRepository) FindByEquipmentID(ctx context.Context, equipmentID uint64, limit, offset int) ([]entities.MovementView, uint64, error) {
	return r.GetMovements(ctx, entities.MovementFilter{EquipmentID: equipmentID, Limit: limit, Offset: offset})
}

func (r *MovementRepository) CountByKind(ctx context.Context, filter entities.MovementFilter) (map[entities.MovementKind]uint64, error) {
	filter.Limit, filter.Offset = 0, 0
	builder := applyMovementFilter(
		sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
			Select("m.kind", "COUNT(m.id)").
			From(movementTable+" m"),
		filter,
	).GroupBy("m.kind")

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки запроса сводки: %w", err)
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса сводки: %w", err)
	}
	defer rows.Close()

	counts := make(map[entities.MovementKind]uint64, 3)
	for rows.Next() {
		var (
			kind  string
			count uint64
		)
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("ошибка сканирования сводки: %w", err)
		}
		counts[entities.MovementKind(kind)] = count
	}
	return counts, rows.Err()
}
