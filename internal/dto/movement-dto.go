package dto

import (
	"hospital-equipment/internal/entities"

	"github.com/aarondl/null/v8"
)

// TransitionDTO - запрос на въезд или выезд.
// Если ResponsibleUserID не передан, ответственным становится текущий пользователь.
type TransitionDTO struct {
	EquipmentID       uint64      `json:"equipment_id"        validate:"required,gt=0"`
	ResponsibleUserID null.Int64  `json:"responsible_user_id" validate:"omitempty,gt=0"`
	Notes             null.String `json:"notes"               validate:"omitempty,max=1000"`
}

type TransitionResultDTO struct {
	Equipment *entities.Equipment `json:"equipment"`
	Movement  *entities.Movement  `json:"movement"`
}
