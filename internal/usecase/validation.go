package usecase

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/GoArmGo/CampusEvents/internal/domain"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// В сообщениях используются имена полей из JSON.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateInput проверяет структуру; нарушение required даёт missingMsg,
// превышение длины — сообщение с именем поля.
func validateInput(in any, missingMsg string) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("usecase: ошибка валидации: %w", err)
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return domain.Validation(missingMsg)
		}
	}
	fe := verrs[0]
	if fe.Tag() == "max" {
		return domain.Validation(fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
	}
	return domain.Validation(fmt.Sprintf("%s is invalid", fe.Field()))
}
