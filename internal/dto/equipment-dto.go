package dto

import (
	"hospital-equipment/internal/entities"

	"github.com/aarondl/null/v8"
)

type RegisterEquipmentDTO struct {
	Code          string      `json:"code"            validate:"omitempty,max=50,manual_code"`
	Name          string      `json:"name"            validate:"notblank,max=200"`
	Serial        string      `json:"serial"          validate:"notblank,max=100"`
	Category      string      `json:"category"        validate:"omitempty,oneof=technological biomedical"`
	OwnerName     string      `json:"owner_name"      validate:"notblank,max=200"`
	OwnerCategory string      `json:"owner_category"  validate:"omitempty,oneof=staff supplier contractor"`
	Frequency     string      `json:"frequency"       validate:"omitempty,oneof=frequent occasional"`
	RegisteredBy  null.Int64  `json:"registered_by"   validate:"omitempty,gt=0"`
	Notes         null.String `json:"notes"           validate:"omitempty,max=1000"`
}

type UpdateEquipmentDTO struct {
	Name          *string `json:"name,omitempty"           validate:"omitempty,notblank,max=200"`
	Serial        *string `json:"serial,omitempty"         validate:"omitempty,notblank,max=100"`
	OwnerName     *string `json:"owner_name,omitempty"     validate:"omitempty,notblank,max=200"`
	OwnerCategory *string `json:"owner_category,omitempty" validate:"omitempty,oneof=staff supplier contractor"`
}

// RegistrationResultDTO - созданное оборудование и его запись о регистрации.
type RegistrationResultDTO struct {
	Equipment *entities.Equipment `json:"equipment"`
	Movement  *entities.Movement  `json:"movement"`
}
