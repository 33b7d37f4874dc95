package validation

import (
	"errors"
	"reflect"
	"strings"

	apperrors "hospital-equipment/pkg/errors"

	"github.com/go-playground/validator/v10"
)

// CustomValidator - обертка для использования в Echo и в сервисах
type CustomValidator struct {
	validator *validator.Validate
}

// Validate реализует интерфейс echo.Validator.
// Ошибки полей возвращаются как *apperrors.ValidationError с именами из json-тегов.
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		fields := make(map[string]string, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields[fe.Field()] = describe(fe)
		}
		return apperrors.NewValidationError("Ошибка валидации", fields)
	}
	return apperrors.NewValidationError(err.Error(), nil)
}

// New создает и настраивает валидатор
func New() *CustomValidator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	registerNullTypes(v)

	// Если правило не зарегистрировалось - паникуем, сервер не должен стартовать
	if err := registerRules(v); err != nil {
		panic("ошибка регистрации валидаторов: " + err.Error())
	}

	return &CustomValidator{validator: v}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "обязательное поле"
	case "oneof":
		return "допустимые значения: " + fe.Param()
	case "max":
		return "максимальная длина " + fe.Param()
	case "date_ymd":
		return "ожидается дата в формате ГГГГ-ММ-ДД"
	case "manual_code":
		return "коды вида EQ<число> присваиваются автоматически"
	case "email":
		return "некорректный email"
	default:
		return "не прошло проверку '" + fe.Tag() + "'"
	}
}
