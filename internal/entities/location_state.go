package entities

import (
	"fmt"

	apperrors "hospital-equipment/pkg/errors"
)

// NextLocation возвращает состояние после перехода kind из current.
// Въезд разрешён только снаружи, выезд только изнутри.
func NextLocation(current LocationState, kind MovementKind) (LocationState, error) {
	if !current.Valid() {
		return current, fmt.Errorf("неизвестное состояние оборудования %q", current)
	}

	switch kind {
	case MovementEntry:
		if current == LocationInside {
			return current, apperrors.NewConflictError("оборудование уже находится внутри")
		}
		return LocationInside, nil
	case MovementExit:
		if current == LocationOutside {
			return current, apperrors.NewConflictError("оборудование уже находится снаружи")
		}
		return LocationOutside, nil
	default:
		return current, apperrors.NewValidationError(
			"недопустимый тип перехода",
			map[string]string{"kind": string(kind)},
		)
	}
}
