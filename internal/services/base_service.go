package services

import (
	"context"
	"errors"

	apperrors "hospital-equipment/pkg/errors"
	"hospital-equipment/pkg/eventbus"
	"hospital-equipment/pkg/utils"

	"github.com/aarondl/null/v8"
)

// Validator - то, что умеет проверять DTO (validation.CustomValidator).
type Validator interface {
	Validate(i interface{}) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event eventbus.Event)
}

// responsibleUser: явно переданный пользователь, иначе текущий из контекста, иначе NULL.
func responsibleUser(ctx context.Context, explicit null.Int64) null.Int64 {
	if explicit.Valid {
		return explicit
	}
	if userID, err := utils.GetUserIDFromCtx(ctx); err == nil {
		return null.Int64From(int64(userID))
	}
	return null.Int64{}
}

// persistenceOr возвращает доменную ошибку как есть, остальные оборачивает в PersistenceError.
func persistenceOr(op string, err error) error {
	if err == nil || apperrors.IsDomain(err) {
		return err
	}
	return apperrors.NewPersistenceError(op, err)
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperrors.ErrValidation):
		return "validation"
	case errors.Is(err, apperrors.ErrConflict):
		return "conflict"
	default:
		return "persistence"
	}
}

func errNoEquipment(id uint64) error {
	return apperrors.NewNotFoundError("Оборудование", id)
}
