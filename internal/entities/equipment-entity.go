package entities

import (
	"hospital-equipment/pkg/types"

	"github.com/aarondl/null/v8"
)

type LocationState string

const (
	LocationInside  LocationState = "inside"
	LocationOutside LocationState = "outside"
)

func (s LocationState) Valid() bool {
	return s == LocationInside || s == LocationOutside
}

type EquipmentCategory string

const (
	CategoryTechnological EquipmentCategory = "technological"
	CategoryBiomedical    EquipmentCategory = "biomedical"
)

type OwnerCategory string

const (
	OwnerStaff      OwnerCategory = "staff"
	OwnerSupplier   OwnerCategory = "supplier"
	OwnerContractor OwnerCategory = "contractor"
)

// Frequency - как часто оборудование проходит через пост.
type Frequency string

const (
	FrequencyFrequent   Frequency = "frequent"
	FrequencyOccasional Frequency = "occasional"
)

type Equipment struct {
	ID            uint64            `json:"id" db:"id"`
	Code          string            `json:"code" db:"code"`
	Name          string            `json:"name" db:"name"`
	Serial        string            `json:"serial" db:"serial"`
	Category      EquipmentCategory `json:"category" db:"category"`
	OwnerName     string            `json:"owner_name" db:"owner_name"`
	OwnerCategory OwnerCategory     `json:"owner_category" db:"owner_category"`
	Frequency     Frequency         `json:"frequency" db:"frequency"`
	QRCode        string            `json:"qr_code" db:"qr_code"`
	LocationState LocationState     `json:"location_state" db:"location_state"`
	IsActive      bool              `json:"is_active" db:"is_active"`
	RegisteredBy  null.Int64        `json:"registered_by" db:"registered_by"`

	types.BaseEntity
}

// EquipmentFilter - условия выборки живого оборудования.
type EquipmentFilter struct {
	Search        string
	LocationState LocationState
	Category      EquipmentCategory
	Frequency     Frequency
	Limit         int
	Offset        int
}

// EquipmentChanges - описательные поля, которые разрешено править. nil - не менять.
type EquipmentChanges struct {
	Name          *string
	Serial        *string
	OwnerName     *string
	OwnerCategory *OwnerCategory
}

func (c EquipmentChanges) Empty() bool {
	return c.Name == nil && c.Serial == nil && c.OwnerName == nil && c.OwnerCategory == nil
}
