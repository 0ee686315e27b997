package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"fabric/service"

	"github.com/go-playground/validator/v10"
)

// RequestValidator implements echo.Validator with go-playground/validator struct tags.
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator creates a RequestValidator that reports json field names.
func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &RequestValidator{validate: v}
}

// Validate returns a bad_parameter error listing every failed field.
func (r *RequestValidator) Validate(i any) error {
	err := r.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return service.NewBadParameterError("invalid request body", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return service.NewBadParameterError(strings.Join(msgs, "; "), err)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}
