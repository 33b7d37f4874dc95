package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

type MovementKind string

const (
	MovementRegistration MovementKind = "registration"
	MovementEntry        MovementKind = "entry"
	MovementExit         MovementKind = "exit"
)

func (k MovementKind) Valid() bool {
	return k == MovementRegistration || k == MovementEntry || k == MovementExit
}

// Movement - неизменяемая запись журнала.
type Movement struct {
	ID                uint64       `json:"id" db:"id"`
	LogCode           string       `json:"log_code" db:"log_code"`
	EquipmentID       uint64       `json:"equipment_id" db:"equipment_id"`
	Kind              MovementKind `json:"kind" db:"kind"`
	ResponsibleUserID null.Int64   `json:"responsible_user_id" db:"responsible_user_id"`
	Notes             string       `json:"notes" db:"notes"`
	CreatedAt         time.Time    `json:"created_at" db:"created_at"`
}

// MovementView - запись журнала вместе с оборудованием и ответственным.
type MovementView struct {
	Movement

	EquipmentCode   string        `json:"equipment_code" db:"equipment_code"`
	EquipmentName   string        `json:"equipment_name" db:"equipment_name"`
	EquipmentSerial string        `json:"equipment_serial" db:"equipment_serial"`
	OwnerName       string        `json:"owner_name" db:"owner_name"`
	CurrentState    LocationState `json:"current_state" db:"current_state"`
	ResponsibleName null.String   `json:"responsible_name" db:"responsible_name"`
}

// MovementFilter - условия выборки журнала. DateTo не включается.
type MovementFilter struct {
	DateFrom    *time.Time
	DateTo      *time.Time
	Kind        MovementKind
	EquipmentID uint64
	Limit       int
	Offset      int
}
