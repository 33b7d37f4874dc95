package events

import "hospital-equipment/internal/entities"

const (
	MovementRecordedEventName     = "equipment.movement.recorded"
	EquipmentDeactivatedEventName = "equipment.deactivated"
)

// MovementRecordedEvent публикуется после коммита регистрации, въезда или выезда.
type MovementRecordedEvent struct {
	Movement  entities.Movement
	Equipment entities.Equipment
}

func (e MovementRecordedEvent) Name() string {
	return MovementRecordedEventName
}

type EquipmentDeactivatedEvent struct {
	EquipmentID uint64
}

func (e EquipmentDeactivatedEvent) Name() string {
	return EquipmentDeactivatedEventName
}
