package services

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"ticket-admin/internal/backend"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateForm runs the struct's validate tags and reports failures as a backend
// validation error keyed by json field name.
func validateForm(op string, form any) error {
	fields, err := formErrors(form)
	if err != nil {
		return err
	}
	if len(fields) > 0 {
		return backend.NewValidationError(op, fields)
	}
	return nil
}

// formErrors returns one message per failing field. The map is never nil.
func formErrors(form any) (map[string]string, error) {
	fields := make(map[string]string)

	err := validate.Struct(form)
	if err == nil {
		return fields, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}
	for _, fe := range verrs {
		name := fe.Field()
		if _, seen := fields[name]; seen {
			continue
		}
		fields[name] = fieldMessage(fe)
	}
	return fields, nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "needs at least " + fe.Param()
	case "max":
		return "allows at most " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	}
	return "is invalid"
}
