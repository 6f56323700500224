package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// validateStruct returns ValidationErrors keyed by json field name, or nil.
func validateStruct(s interface{}) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return fmt.Errorf("failed to validate input: %w", err)
	}

	result := make(ValidationErrors, len(fieldErrors))
	for _, fe := range fieldErrors {
		if _, exists := result[fe.Field()]; !exists {
			result[fe.Field()] = validationMessage(fe)
		}
	}
	return result
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_with":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters long", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters long", fe.Param())
	case "eqfield":
		return "does not match"
	default:
		return fmt.Sprintf("failed on the %q rule", fe.Tag())
	}
}

// merge adds the entries of other that v does not have yet.
func (v ValidationErrors) merge(other error) error {
	if other == nil {
		if len(v) == 0 {
			return nil
		}
		return v
	}

	var ve ValidationErrors
	if !errors.As(other, &ve) {
		return other
	}
	for field, msg := range ve {
		if _, exists := v[field]; !exists {
			v[field] = msg
		}
	}
	return v
}
