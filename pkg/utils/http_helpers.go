package utils

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	apperrors "hospital-equipment/pkg/errors"
	"hospital-equipment/pkg/types"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type HTTPResponse struct {
	Status  bool        `json:"status"`
	Body    interface{} `json:"body,omitempty"`
	Message string      `json:"message"`
}

const (
	DefaultLimit = 200
	MaxLimit     = 500
)

var authErrors = []error{
	apperrors.ErrEmptyAuthHeader,
	apperrors.ErrInvalidAuthHeader,
	apperrors.ErrInvalidToken,
	apperrors.ErrTokenExpired,
	apperrors.ErrInvalidSigningMethod,
	apperrors.ErrInvalidCredentials,
	apperrors.ErrUnauthorized,
	apperrors.ErrUserIDNotFoundInContext,
}

func ParseFilterFromQuery(values url.Values) types.Filter {
	filterReq := types.Filter{
		Sort:   make(map[string]string),
		Filter: make(map[string]interface{}),
		Limit:  DefaultLimit,
		Page:   1,
	}

	if limitStr := values.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			if l > MaxLimit {
				filterReq.Limit = MaxLimit
			} else {
				filterReq.Limit = l
			}
		}
	}

	if pageStr := values.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			filterReq.Page = p
		}
	}

	if offsetStr := values.Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			filterReq.Offset = o
		}
	} else {
		filterReq.Offset = (filterReq.Page - 1) * filterReq.Limit
	}

	filterReq.WithPagination = values.Get("withPagination") == "true"

	for key, vals := range values {
		if len(vals) == 0 || vals[0] == "" {
			continue
		}

		if key == "search" {
			filterReq.Search = strings.TrimSpace(vals[0])
			continue
		}

		if strings.HasPrefix(key, "sort[") && strings.HasSuffix(key, "]") {
			field := key[5 : len(key)-1]
			direction := strings.ToLower(vals[0])
			if direction == "asc" || direction == "desc" {
				filterReq.Sort[field] = direction
			}
			continue
		}

		if strings.HasPrefix(key, "filter[") && strings.HasSuffix(key, "]") {
			field := key[7 : len(key)-1]

			if existing, ok := filterReq.Filter[field]; ok {
				filterReq.Filter[field] = fmt.Sprintf("%v,%s", existing, vals[0])
			} else {
				filterReq.Filter[field] = vals[0]
			}
		}
	}

	return filterReq
}

// ParseIDParam читает положительный числовой параметр пути.
func ParseIDParam(ctx echo.Context, name string) (uint64, error) {
	raw := ctx.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.NewHttpError(
			http.StatusBadRequest,
			"Неверный формат ID",
			err,
			map[string]interface{}{"param": raw},
		)
	}
	return id, nil
}

func SuccessResponse(ctx echo.Context, body interface{}, message string, code int, total ...uint64) error {
	response := &HTTPResponse{Status: true, Message: message}
	withPagination, _ := strconv.ParseBool(ctx.QueryParam("withPagination"))
	if withPagination && len(total) > 0 {
		filter := ParseFilterFromQuery(ctx.Request().URL.Query())
		response.Body = map[string]interface{}{
			"list":       body,
			"pagination": types.NewPagination(total[0], filter.Page, filter.Limit),
		}
	} else {
		response.Body = body
	}
	return ctx.JSON(code, response)
}

func ErrorResponse(c echo.Context, err error, logger *zap.Logger) error {
	code, message, details := resolveError(err)

	if code >= http.StatusInternalServerError {
		logger.Error("HTTP Error",
			zap.Int("code", code),
			zap.String("message", message),
			zap.String("uri", c.Request().RequestURI),
			zap.Error(err),
		)
	} else {
		logger.Debug("HTTP Error",
			zap.Int("code", code),
			zap.String("message", message),
			zap.Error(err),
		)
	}

	response := &HTTPResponse{Status: false, Message: message}
	if details != nil {
		response.Body = details
	}
	return c.JSON(code, response)
}

// resolveError сопоставляет ошибку со статусом, сообщением и деталями ответа.
func resolveError(err error) (int, string, interface{}) {
	var (
		notFoundErr    *apperrors.NotFoundError
		validationErr  *apperrors.ValidationError
		conflictErr    *apperrors.ConflictError
		persistenceErr *apperrors.PersistenceError
		httpErr        *apperrors.HttpError
		echoErr        *echo.HTTPError
		fieldErrs      validator.ValidationErrors
	)

	for _, authErr := range authErrors {
		if errors.Is(err, authErr) {
			return http.StatusUnauthorized, authErr.Error(), nil
		}
	}

	switch {
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound, notFoundErr.Error(), nil
	case errors.As(err, &validationErr):
		if len(validationErr.Fields) > 0 {
			return http.StatusBadRequest, validationErr.Message, validationErr.Fields
		}
		return http.StatusBadRequest, validationErr.Message, nil
	case errors.As(err, &conflictErr):
		return http.StatusBadRequest, conflictErr.Message, nil
	case errors.As(err, &persistenceErr):
		return http.StatusInternalServerError, "Ошибка хранилища данных, изменения не применены", nil
	case errors.As(err, &fieldErrs):
		fields := make(map[string]string, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields[fe.Field()] = fe.Tag()
		}
		return http.StatusBadRequest, "Ошибка валидации", fields
	case errors.As(err, &httpErr):
		return httpErr.Code, httpErr.Message, httpErr.Details
	case errors.As(err, &echoErr):
		return echoErr.Code, fmt.Sprint(echoErr.Message), nil
	default:
		return http.StatusInternalServerError, "Внутренняя ошибка сервера", nil
	}
}
