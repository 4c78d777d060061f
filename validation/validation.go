package validation

import (
	stderrors "errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"ceramics-booking/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

// Struct validates v and returns a validation error naming the first failing field.
func Struct(v any) error {
	if err := validate.Struct(v); err != nil {
		return toError(err)
	}
	return nil
}

// Var validates a single value against tag, reporting it as field.
func Var(field string, value any, tag string) error {
	if err := validate.Var(value, tag); err != nil {
		var fieldErrs validator.ValidationErrors
		if stderrors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return errors.Validation("%s", describe(field, fieldErrs[0]))
		}
		return errors.Validation("%s is invalid", field).Wrap(err)
	}
	return nil
}

func toError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return errors.Validation("invalid input").Wrap(err)
	}
	return errors.Validation("%s", describe(fieldErrs[0].Field(), fieldErrs[0]))
}

func describe(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min", "gte":
		if fe.Kind() == reflect.String || fe.Kind() == reflect.Slice {
			return field + " must have at least " + fe.Param() + " characters or items"
		}
		return field + " must be at least " + fe.Param()
	case "max", "lte":
		if fe.Kind() == reflect.String || fe.Kind() == reflect.Slice {
			return field + " must have at most " + fe.Param() + " characters or items"
		}
		return field + " must be at most " + fe.Param()
	case "datetime":
		return field + " must match the format " + fe.Param()
	case "oneof":
		return field + " must be one of " + fe.Param()
	case "uuid", "uuid4":
		return field + " must be a valid identifier"
	default:
		return field + " is invalid"
	}
}
