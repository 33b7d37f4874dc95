package controllers

import (
	"net/http"

	apperrors "hospital-equipment/pkg/errors"

	"github.com/labstack/echo/v4"
)

// bindPayload разбирает тело запроса. Проверку полей выполняют сервисы.
func bindPayload(ctx echo.Context, payload interface{}) error {
	if err := ctx.Bind(payload); err != nil {
		return apperrors.NewHttpError(
			http.StatusBadRequest,
			"Неверный формат данных",
			err,
			nil,
		)
	}
	return nil
}
