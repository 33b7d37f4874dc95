package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hospital-equipment/internal/entities"
	apperrors "hospital-equipment/pkg/errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const equipmentTable = "equipments"
const equipmentEntity = "Оборудование"
const equipmentCodeConstraint = "equipments_code_key"
const equipmentRegisteredByConstraint = "equipments_registered_by_fkey"
const equipmentSelectFields = "id, COALESCE(code, ''), name, serial, category, owner_name, owner_category, frequency, qr_code, location_state, is_active, registered_by, created_at, updated_at"

type EquipmentRepositoryInterface interface {
	CreateInTx(ctx context.Context, tx pgx.Tx, equipment *entities.Equipment) error
	AssignCodeInTx(ctx context.Context, tx pgx.Tx, id uint64, code string) error
	FindForUpdateInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Equipment, error)
	UpdateLocationInTx(ctx context.Context, tx pgx.Tx, id uint64, state entities.LocationState) (time.Time, error)

	FindByID(ctx context.Context, id uint64) (*entities.Equipment, error)
	FindByQRCode(ctx context.Context, qrCode string) (*entities.Equipment, error)
	GetEquipments(ctx context.Context, filter entities.EquipmentFilter) ([]entities.Equipment, uint64, error)
	Update(ctx context.Context, id uint64, changes entities.EquipmentChanges) (*entities.Equipment, error)
	SoftDelete(ctx context.Context, id uint64) error
}

type EquipmentRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewEquipmentRepository(storage *pgxpool.Pool, logger *zap.Logger) EquipmentRepositoryInterface {
	return &EquipmentRepository{storage: storage, logger: logger}
}

func scanEquipment(row pgx.Row) (*entities.Equipment, error) {
	var e entities.Equipment
	var category, ownerCategory, frequency, locationState string
	err := row.Scan(
		&e.ID, &e.Code, &e.Name, &e.Serial, &category, &e.OwnerName, &ownerCategory,
		&frequency, &e.QRCode, &locationState, &e.IsActive, &e.RegisteredBy,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Category = entities.EquipmentCategory(category)
	e.OwnerCategory = entities.OwnerCategory(ownerCategory)
	e.Frequency = entities.Frequency(frequency)
	e.LocationState = entities.LocationState(locationState)
	return &e, nil
}

func (r *EquipmentRepository) CreateInTx(ctx context.Context, tx pgx.Tx, equipment *entities.Equipment) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (code, name, serial, category, owner_name, owner_category, frequency, qr_code, location_state, registered_by)
		VALUES (NULLIF($1, ''), $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, is_active, created_at, updated_at`, equipmentTable)

	err := tx.QueryRow(ctx, query,
		equipment.Code,
		equipment.Name,
		equipment.Serial,
		string(equipment.Category),
		equipment.OwnerName,
		string(equipment.OwnerCategory),
		string(equipment.Frequency),
		equipment.QRCode,
		string(equipment.LocationState),
		equipment.RegisteredBy,
	).Scan(&equipment.ID, &equipment.IsActive, &equipment.CreatedAt, &equipment.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, equipmentCodeConstraint) {
			return apperrors.NewValidationError("Ошибка валидации", map[string]string{"code": "код уже используется"})
		}
		if isForeignKeyViolation(err, equipmentRegisteredByConstraint) {
			return apperrors.NewValidationError("Ошибка валидации", map[string]string{"registered_by": "пользователь не найден"})
		}
		return fmt.Errorf("ошибка вставки оборудования: %w", err)
	}
	return nil
}

func (r *EquipmentRepository) AssignCodeInTx(ctx context.Context, tx pgx.Tx, id uint64, code string) error {
	query := fmt.Sprintf("UPDATE %s SET code = $1 WHERE id = $2", equipmentTable)
	tag, err := tx.Exec(ctx, query, code, id)
	if err != nil {
		if isUniqueViolation(err, equipmentCodeConstraint) {
			return apperrors.NewValidationError("Ошибка валидации", map[string]string{"code": "код уже используется"})
		}
		return fmt.Errorf("ошибка присвоения кода оборудованию: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError(equipmentEntity, id)
	}
	return nil
}

// FindForUpdateInTx читает активное оборудование и блокирует строку до конца транзакции.
func (r *EquipmentRepository) FindForUpdateInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Equipment, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1 AND is_active FOR UPDATE", equipmentSelectFields, equipmentTable)
	equipment, err := scanEquipment(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError(equipmentEntity, id)
		}
		return nil, fmt.Errorf("ошибка блокировки оборудования: %w", err)
	}
	return equipment, nil
}

func (r *EquipmentRepository) UpdateLocationInTx(ctx context.Context, tx pgx.Tx, id uint64, state entities.LocationState) (time.Time, error) {
	query := fmt.Sprintf("UPDATE %s SET location_state = $1, updated_at = NOW() WHERE id = $2 AND is_active RETURNING updated_at", equipmentTable)
	var updatedAt time.Time
	if err := tx.QueryRow(ctx, query, string(state), id).Scan(&updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, apperrors.NewNotFoundError(equipmentEntity, id)
		}
		return time.Time{}, fmt.Errorf("ошибка обновления состояния оборудования: %w", err)
	}
	return updatedAt, nil
}

func (r *EquipmentRepository) FindByID(ctx context.Context, id uint64) (*entities.Equipment, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1 AND is_active", equipmentSelectFields, equipmentTable)
	equipment, err := scanEquipment(r.storage.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError(equipmentEntity, id)
		}
		return nil, fmt.Errorf("ошибка поиска оборудования: %w", err)
	}
	return equipment, nil
}

func (r *EquipmentRepository) FindByQRCode(ctx context.Context, qrCode string) (*entities.Equipment, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE qr_code = $1 AND is_active ORDER BY id DESC LIMIT 1", equipmentSelectFields, equipmentTable)
	equipment, err := scanEquipment(r.storage.QueryRow(ctx, query, qrCode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundByKeyError(equipmentEntity, qrCode)
		}
		return nil, fmt.Errorf("ошибка поиска оборудования по QR: %w", err)
	}
	return equipment, nil
}

func (r *EquipmentRepository) GetEquipments(ctx context.Context, filter entities.EquipmentFilter) ([]entities.Equipment, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	baseSelect := psql.Select().From(equipmentTable).Where(sq.Eq{"is_active": true})

	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		baseSelect = baseSelect.Where(sq.Or{
			sq.ILike{"name": pattern},
			sq.ILike{"serial": pattern},
			sq.ILike{"owner_name": pattern},
			sq.ILike{"code": pattern},
		})
	}
	if filter.LocationState != "" {
		baseSelect = baseSelect.Where(sq.Eq{"location_state": string(filter.LocationState)})
	}
	if filter.Category != "" {
		baseSelect = baseSelect.Where(sq.Eq{"category": string(filter.Category)})
	}
	if filter.Frequency != "" {
		baseSelect = baseSelect.Where(sq.Eq{"frequency": string(filter.Frequency)})
	}

	countQuery, countArgs, err := baseSelect.Columns("COUNT(id)").ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки COUNT-запроса: %w", err)
	}
	var total uint64
	if err = r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка выполнения COUNT-запроса: %w", err)
	}
	if total == 0 {
		return []entities.Equipment{}, 0, nil
	}

	mainBuilder := baseSelect.Columns(equipmentSelectFields).OrderBy("created_at DESC", "id DESC")
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

	items := make([]entities.Equipment, 0)
	for rows.Next() {
		equipment, err := scanEquipment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		items = append(items, *equipment)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// Update меняет только описательные поля. Состояние размещения здесь не трогается.
func (r *EquipmentRepository) Update(ctx context.Context, id uint64, changes entities.EquipmentChanges) (*entities.Equipment, error) {
	if changes.Empty() {
		return r.FindByID(ctx, id)
	}

	builder := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Update(equipmentTable).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id, "is_active": true}).
		Suffix("RETURNING " + equipmentSelectFields)

	if changes.Name != nil {
		builder = builder.Set("name", *changes.Name)
	}
	if changes.Serial != nil {
		builder = builder.Set("serial", *changes.Serial)
	}
	if changes.OwnerName != nil {
		builder = builder.Set("owner_name", *changes.OwnerName)
	}
	if changes.OwnerCategory != nil {
		builder = builder.Set("owner_category", string(*changes.OwnerCategory))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки UPDATE-запроса: %w", err)
	}

	equipment, err := scanEquipment(r.storage.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError(equipmentEntity, id)
		}
		return nil, fmt.Errorf("ошибка обновления оборудования: %w", err)
	}
	return equipment, nil
}

// SoftDelete снимает флаг активности. Журнал перемещений сохраняется.
func (r *EquipmentRepository) SoftDelete(ctx context.Context, id uint64) error {
	query := fmt.Sprintf("UPDATE %s SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND is_active", equipmentTable)
	result, err := r.storage.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("ошибка деактивации оборудования: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NewNotFoundError(equipmentEntity, id)
	}
	r.logger.Info("Оборудование деактивировано", zap.Uint64("id", id))
	return nil
}
