package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"hospital-equipment/internal/dto"
	"hospital-equipment/internal/entities"
	"hospital-equipment/internal/events"
	"hospital-equipment/internal/repositories"
	"hospital-equipment/pkg/codegen"
	apperrors "hospital-equipment/pkg/errors"
	"hospital-equipment/pkg/metrics"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type MovementServiceInterface interface {
	RegisterEquipment(ctx context.Context, payload dto.RegisterEquipmentDTO) (*dto.RegistrationResultDTO, error)
	RequestEntry(ctx context.Context, payload dto.TransitionDTO) (*dto.TransitionResultDTO, error)
	RequestExit(ctx context.Context, payload dto.TransitionDTO) (*dto.TransitionResultDTO, error)
}

// MovementService - единственное место, где меняется состояние размещения оборудования.
// Каждое изменение и его запись в журнале выполняются в одной транзакции.
type MovementService struct {
	txManager     repositories.TxManagerInterface
	equipmentRepo repositories.EquipmentRepositoryInterface
	movementRepo  repositories.MovementRepositoryInterface
	validator     Validator
	codes         *codegen.Generator
	publisher     EventPublisher
	metrics       *metrics.Metrics
	txTimeout     time.Duration
	logger        *zap.Logger
}

func NewMovementService(
	txManager repositories.TxManagerInterface,
	equipmentRepo repositories.EquipmentRepositoryInterface,
	movementRepo repositories.MovementRepositoryInterface,
	validator Validator,
	codes *codegen.Generator,
	publisher EventPublisher,
	metrics *metrics.Metrics,
	txTimeout time.Duration,
	logger *zap.Logger,
) MovementServiceInterface {
	return &MovementService{
		txManager:     txManager,
		equipmentRepo: equipmentRepo,
		movementRepo:  movementRepo,
		validator:     validator,
		codes:         codes,
		publisher:     publisher,
		metrics:       metrics,
		txTimeout:     txTimeout,
		logger:        logger,
	}
}

func (s *MovementService) RegisterEquipment(ctx context.Context, payload dto.RegisterEquipmentDTO) (*dto.RegistrationResultDTO, error) {
	const op = string(entities.MovementRegistration)

	if err := s.validator.Validate(&payload); err != nil {
		s.reject(op, 0, err)
		return nil, err
	}

	registeredBy := responsibleUser(ctx, payload.RegisteredBy)
	equipment := &entities.Equipment{
		Code:          strings.TrimSpace(payload.Code),
		Name:          strings.TrimSpace(payload.Name),
		Serial:        strings.TrimSpace(payload.Serial),
		Category:      entities.EquipmentCategory(orDefault(payload.Category, string(entities.CategoryTechnological))),
		OwnerName:     strings.TrimSpace(payload.OwnerName),
		OwnerCategory: entities.OwnerCategory(orDefault(payload.OwnerCategory, string(entities.OwnerStaff))),
		Frequency:     entities.Frequency(orDefault(payload.Frequency, string(entities.FrequencyOccasional))),
		LocationState: entities.LocationOutside,
		RegisteredBy:  registeredBy,
	}
	equipment.QRCode = s.qrCodeFor(equipment)

	movement := &entities.Movement{
		Kind:              entities.MovementRegistration,
		ResponsibleUserID: registeredBy,
		Notes:             strings.TrimSpace(payload.Notes.String),
	}

	err := s.runAtomic(ctx, op, func(ctx context.Context, tx pgx.Tx) error {
		if err := s.equipmentRepo.CreateInTx(ctx, tx, equipment); err != nil {
			return err
		}
		if equipment.Code == "" {
			equipment.Code = codegen.EquipmentCode(equipment.ID)
			if err := s.equipmentRepo.AssignCodeInTx(ctx, tx, equipment.ID, equipment.Code); err != nil {
				return err
			}
		}

		movement.EquipmentID = equipment.ID
		movement.LogCode = s.codes.RegistrationLogCode(equipment.ID)
		return s.movementRepo.CreateInTx(ctx, tx, movement)
	})
	if err != nil {
		s.reject(op, 0, err)
		return nil, err
	}

	s.recorded(ctx, equipment, movement)
	return &dto.RegistrationResultDTO{Equipment: equipment, Movement: movement}, nil
}

func (s *MovementService) RequestEntry(ctx context.Context, payload dto.TransitionDTO) (*dto.TransitionResultDTO, error) {
	return s.transition(ctx, entities.MovementEntry, payload)
}

func (s *MovementService) RequestExit(ctx context.Context, payload dto.TransitionDTO) (*dto.TransitionResultDTO, error) {
	return s.transition(ctx, entities.MovementExit, payload)
}

// transition читает строку оборудования под блокировкой, проверяет переход,
// меняет состояние и пишет запись в журнал. Решение всегда принимается по свежему состоянию.
func (s *MovementService) transition(ctx context.Context, kind entities.MovementKind, payload dto.TransitionDTO) (*dto.TransitionResultDTO, error) {
	op := string(kind)

	if err := s.validator.Validate(&payload); err != nil {
		s.reject(op, payload.EquipmentID, err)
		return nil, err
	}

	movement := &entities.Movement{
		EquipmentID:       payload.EquipmentID,
		Kind:              kind,
		ResponsibleUserID: responsibleUser(ctx, payload.ResponsibleUserID),
		Notes:             strings.TrimSpace(payload.Notes.String),
	}

	var equipment *entities.Equipment
	err := s.runAtomic(ctx, op, func(ctx context.Context, tx pgx.Tx) error {
		current, err := s.equipmentRepo.FindForUpdateInTx(ctx, tx, payload.EquipmentID)
		if err != nil {
			return err
		}

		next, err := entities.NextLocation(current.LocationState, kind)
		if err != nil {
			return err
		}

		updatedAt, err := s.equipmentRepo.UpdateLocationInTx(ctx, tx, current.ID, next)
		if err != nil {
			return err
		}
		current.LocationState = next
		current.UpdatedAt = updatedAt

		movement.LogCode = s.codes.TransitionLogCode()
		if err := s.movementRepo.CreateInTx(ctx, tx, movement); err != nil {
			return err
		}

		equipment = current
		return nil
	})
	if err != nil {
		s.reject(op, payload.EquipmentID, err)
		return nil, err
	}

	s.recorded(ctx, equipment, movement)
	return &dto.TransitionResultDTO{Equipment: equipment, Movement: movement}, nil
}

// runAtomic ограничивает транзакцию таймаутом и приводит ошибки к таксономии.
func (s *MovementService) runAtomic(ctx context.Context, op string, fn func(ctx context.Context, tx pgx.Tx) error) error {
	started := time.Now()
	defer s.metrics.ObserveTx(op, started)

	txCtx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	err := s.txManager.RunInTransaction(txCtx, func(tx pgx.Tx) error {
		return fn(txCtx, tx)
	})
	return persistenceOr(op, err)
}

// recorded вызывается только после коммита.
func (s *MovementService) recorded(ctx context.Context, equipment *entities.Equipment, movement *entities.Movement) {
	s.metrics.MovementRecorded(string(movement.Kind))
	s.publisher.Publish(ctx, events.MovementRecordedEvent{Movement: *movement, Equipment: *equipment})

	s.logger.Info("Перемещение зафиксировано",
		zap.String("kind", string(movement.Kind)),
		zap.String("log_code", movement.LogCode),
		zap.Uint64("equipment_id", equipment.ID),
		zap.String("location_state", string(equipment.LocationState)),
	)
}

func (s *MovementService) reject(op string, equipmentID uint64, err error) {
	reason := rejectionReason(err)
	s.metrics.Rejected(op, reason)

	fields := []zap.Field{
		zap.String("operation", op),
		zap.String("reason", reason),
		zap.Uint64("equipment_id", equipmentID),
		zap.Error(err),
	}
	if errors.Is(err, apperrors.ErrPersistence) {
		s.logger.Error("Операция откатена из-за ошибки хранилища", fields...)
		return
	}
	s.logger.Warn("Операция отклонена", fields...)
}

func (s *MovementService) qrCodeFor(equipment *entities.Equipment) string {
	if equipment.Frequency == entities.FrequencyFrequent {
		return s.codes.QRToken()
	}
	return equipment.Serial
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
