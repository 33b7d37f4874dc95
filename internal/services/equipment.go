package services

import (
	"context"
	"strings"

	"hospital-equipment/internal/dto"
	"hospital-equipment/internal/entities"
	"hospital-equipment/internal/events"
	"hospital-equipment/internal/repositories"
	"hospital-equipment/pkg/types"

	"go.uber.org/zap"
)

type EquipmentServiceInterface interface {
	GetEquipments(ctx context.Context, filter types.Filter) ([]entities.Equipment, uint64, error)
	FindEquipment(ctx context.Context, id uint64) (*entities.Equipment, error)
	FindByQRCode(ctx context.Context, qrCode string) (*entities.Equipment, error)
	UpdateEquipment(ctx context.Context, id uint64, payload dto.UpdateEquipmentDTO) (*entities.Equipment, error)
	DeleteEquipment(ctx context.Context, id uint64) error
	GetHistory(ctx context.Context, id uint64, filter types.Filter) ([]entities.MovementView, uint64, error)
}

// EquipmentService - чтение реестра и правка описательных полей.
// Состояние размещения меняет только MovementService.
type EquipmentService struct {
	equipmentRepo repositories.EquipmentRepositoryInterface
	movementRepo  repositories.MovementRepositoryInterface
	validator     Validator
	publisher     EventPublisher
	logger        *zap.Logger
}

func NewEquipmentService(
	equipmentRepo repositories.EquipmentRepositoryInterface,
	movementRepo repositories.MovementRepositoryInterface,
	validator Validator,
	publisher EventPublisher,
	logger *zap.Logger,
) EquipmentServiceInterface {
	return &EquipmentService{
		equipmentRepo: equipmentRepo,
		movementRepo:  movementRepo,
		validator:     validator,
		publisher:     publisher,
		logger:        logger,
	}
}

func (s *EquipmentService) GetEquipments(ctx context.Context, filter types.Filter) ([]entities.Equipment, uint64, error) {
	items, total, err := s.equipmentRepo.GetEquipments(ctx, entities.EquipmentFilter{
		Search:        filter.Search,
		LocationState: entities.LocationState(filter.FilterString("location_state")),
		Category:      entities.EquipmentCategory(filter.FilterString("category")),
		Frequency:     entities.Frequency(filter.FilterString("frequency")),
		Limit:         filter.Limit,
		Offset:        filter.Offset,
	})
	if err != nil {
		return nil, 0, persistenceOr("list_equipment", err)
	}
	return items, total, nil
}

func (s *EquipmentService) FindEquipment(ctx context.Context, id uint64) (*entities.Equipment, error) {
	equipment, err := s.equipmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, persistenceOr("find_equipment", err)
	}
	return equipment, nil
}

func (s *EquipmentService) FindByQRCode(ctx context.Context, qrCode string) (*entities.Equipment, error) {
	equipment, err := s.equipmentRepo.FindByQRCode(ctx, strings.TrimSpace(qrCode))
	if err != nil {
		return nil, persistenceOr("find_equipment_by_qr", err)
	}
	return equipment, nil
}

func (s *EquipmentService) UpdateEquipment(ctx context.Context, id uint64, payload dto.UpdateEquipmentDTO) (*entities.Equipment, error) {
	if err := s.validator.Validate(&payload); err != nil {
		return nil, err
	}

	changes := entities.EquipmentChanges{
		Name:      trimmed(payload.Name),
		Serial:    trimmed(payload.Serial),
		OwnerName: trimmed(payload.OwnerName),
	}
	if payload.OwnerCategory != nil {
		category := entities.OwnerCategory(*payload.OwnerCategory)
		changes.OwnerCategory = &category
	}

	equipment, err := s.equipmentRepo.Update(ctx, id, changes)
	if err != nil {
		return nil, persistenceOr("update_equipment", err)
	}

	s.logger.Info("Описание оборудования обновлено", zap.Uint64("equipment_id", id))
	return equipment, nil
}

// DeleteEquipment снимает оборудование с учёта. Записи журнала остаются.
func (s *EquipmentService) DeleteEquipment(ctx context.Context, id uint64) error {
	if err := s.equipmentRepo.SoftDelete(ctx, id); err != nil {
		return persistenceOr("delete_equipment", err)
	}
	s.publisher.Publish(ctx, events.EquipmentDeactivatedEvent{EquipmentID: id})
	return nil
}

// GetHistory отдаёт журнал по оборудованию, в том числе снятому с учёта.
// У зарегистрированного оборудования всегда есть хотя бы запись о регистрации,
// поэтому пустой журнал означает, что такого оборудования нет.
func (s *EquipmentService) GetHistory(ctx context.Context, id uint64, filter types.Filter) ([]entities.MovementView, uint64, error) {
	items, total, err := s.movementRepo.FindByEquipmentID(ctx, id, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, persistenceOr("equipment_history", err)
	}
	if total == 0 {
		return nil, 0, errNoEquipment(id)
	}
	return items, total, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
