package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "agroprices/internal/errors"
	"agroprices/pkg/contracts/domain"
)

// LabelsValidator checks the labels that identify a unit of work
type LabelsValidator struct {
	validate *validator.Validate
}

// NewLabelsValidator creates a validator that reports fields by their JSON names
func NewLabelsValidator() *LabelsValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &LabelsValidator{validate: v}
}

// Validate returns a VALIDATION error listing every offending field
func (v *LabelsValidator) Validate(labels domain.Labels) error {
	err := v.validate.Struct(labels)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return apperrors.NewAppValidationError("invalid labels", err)
	}

	messages := make([]string, 0, len(fieldErrors))
	fields := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		messages = append(messages, formatFieldError(fe))
		fields = append(fields, fe.Field())
	}
	return apperrors.NewAppValidationError("invalid labels: "+strings.Join(messages, "; "), err).
		WithContext("fields", fields)
}

func formatFieldError(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}
