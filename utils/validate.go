package utils

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"quicker-admin/errs"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// ValidateStruct runs `validate` tags and reports the first failure as a validation error.
func ValidateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return errs.Validation("invalid request")
	}

	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return errs.Validation("%s is required", fe.Field())
	case "min":
		return errs.Validation("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return errs.Validation("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return errs.Validation("%s must be one of: %s", fe.Field(), fe.Param())
	case "eqfield":
		return errs.Validation("%s must match %s", fe.Field(), fe.Param())
	default:
		return errs.Validation("%s is invalid", fe.Field())
	}
}
