package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/Top-Pesinde/backend-sub001/apperror"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report json names so messages match what the client sent.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks struct tags and returns a VALIDATION_ERROR naming the first
// offending field.
func Validate(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
		return apperror.Wrap(apperror.CodeValidation, "invalid input", err)
	}

	fe := fieldErrors[0]
	switch fe.Tag() {
	case "required":
		return apperror.Validation(fmt.Sprintf("%s is required", fe.Field()))
	case "max":
		return apperror.Validation(fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
	case "min":
		return apperror.Validation(fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param()))
	case "oneof":
		return apperror.Validation(fmt.Sprintf("%s must be one of %s", fe.Field(), fe.Param()))
	case "nefield":
		return apperror.Validation(fmt.Sprintf("%s must differ from %s", fe.Field(), fe.Param()))
	default:
		return apperror.Validation(fmt.Sprintf("%s is invalid", fe.Field()))
	}
}
