package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
}

// Validate struct fields
func Validate(v interface{}) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}

	errors := make(map[string]string)
	for _, err := range verrs {
		errors[err.Field()] = err.Tag()
	}
	return errors
}

// Messages is Validate with human-readable messages per field.
func Messages(v interface{}) map[string]string {
	tags := Validate(v)
	if tags == nil {
		return nil
	}
	out := make(map[string]string, len(tags))
	for field, tag := range tags {
		out[field] = message(tag)
	}
	return out
}

func message(tag string) string {
	switch tag {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "gte", "min":
		return "is below the minimum"
	case "oneof":
		return "is not an allowed value"
	case "datetime":
		return "must be a YYYY-MM-DD date"
	default:
		return "is invalid (" + tag + ")"
	}
}
