package service

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/theapemachine/ukg/pkg/errors"
)

/*
structValidator checks the validate tags of request structs and turns field
errors into a single ErrInvalidQuery.
*/
type structValidator struct {
	validate *validator.Validate
}

func newStructValidator() *structValidator {
	return &structValidator{validate: validator.New()}
}

func (v *structValidator) Validate(out any) error {
	err := v.validate.Struct(out)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.ErrInvalidQuery.WithMessagef("validation error: %v", err)
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, formatFieldError(fe))
	}

	return errors.ErrInvalidQuery.WithMessagef("invalid request: %s", strings.Join(messages, "; "))
}

func formatFieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation '%s'", field, fe.Tag())
	}
}
