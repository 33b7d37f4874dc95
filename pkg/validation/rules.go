package validation

import (
	"strings"
	"time"

	"hospital-equipment/pkg/codegen"

	"github.com/go-playground/validator/v10"
)

// registerRules регистрирует теги, которые мы используем в struct tags
func registerRules(v *validator.Validate) error {
	if err := v.RegisterValidation("notblank", isNotBlank); err != nil {
		return err
	}
	if err := v.RegisterValidation("date_ymd", isDateYMD); err != nil {
		return err
	}
	if err := v.RegisterValidation("manual_code", isManualCode); err != nil {
		return err
	}
	return nil
}

// isNotBlank - строка не пустая после обрезки пробелов
func isNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// isDateYMD - дата вида 2024-05-31
func isDateYMD(fl validator.FieldLevel) bool {
	_, err := time.Parse("2006-01-02", fl.Field().String())
	return err == nil
}

// isManualCode - код не из пространства автоматических кодов оборудования
func isManualCode(fl validator.FieldLevel) bool {
	return !codegen.IsEquipmentCode(fl.Field().String())
}
