// Package validator validates request structs and renders field errors as
// readable messages keyed by the field's json name.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

var messages = map[string]string{
	"required": "The field '%s' is required.",
	"email":    "The field '%s' must be a valid email address.",
	"min":      "The field '%s' must be at least %s characters long.",
	"max":      "The field '%s' must be no longer than %s characters.",
	"gte":      "The field '%s' must be greater than or equal to %s.",
	"lte":      "The field '%s' must be less than or equal to %s.",
	"oneof":    "The field '%s' must be one of %s.",
}

// Struct validates s against its `validate` tags. It returns a map of json
// field name to message for each failing field, or nil when valid.
func Struct(s any) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return map[string]string{"": invalid.Error()}
	}

	out := map[string]string{}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return map[string]string{"": err.Error()}
	}
	for _, fe := range fieldErrors {
		name := jsonFieldName(s, fe.StructField())
		out[name] = message(name, fe)
	}
	return out
}

func message(name string, fe validator.FieldError) string {
	msg, ok := messages[fe.Tag()]
	if !ok {
		return fmt.Sprintf("The field '%s' is invalid.", name)
	}
	if strings.Count(msg, "%s") == 2 {
		return fmt.Sprintf(msg, name, fe.Param())
	}
	return fmt.Sprintf(msg, name)
}

// jsonFieldName resolves the json tag for a struct field, falling back to the
// Go field name.
func jsonFieldName(s any, fieldName string) string {
	t := reflect.TypeOf(s)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return fieldName
	}
	field, ok := t.FieldByName(fieldName)
	if !ok {
		return fieldName
	}
	tag := field.Tag.Get("json")
	if tag == "" || tag == "-" {
		return fieldName
	}
	if idx := strings.Index(tag, ","); idx >= 0 {
		tag = tag[:idx]
	}
	if tag == "" {
		return fieldName
	}
	return tag
}
