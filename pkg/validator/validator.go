package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type ErrorResponse struct {
	FailedField string
	Tag         string
	Value       string
}

var validate = validator.New()

func init() {
	// Register custom validation for UUID
	validate.RegisterValidation("uuid_required", func(fl validator.FieldLevel) bool {
		if id, ok := fl.Field().Interface().(uuid.UUID); ok {
			return id != uuid.Nil
		}
		return false
	})

	// Report fields by their JSON name so errors line up with request bodies
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
}

func ValidateStruct(data interface{}) []*ErrorResponse {
	var errors []*ErrorResponse
	err := validate.Struct(data)
	if err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return []*ErrorResponse{{FailedField: "request", Tag: "invalid"}}
		}
		for _, err := range validationErrors {
			var element ErrorResponse
			element.FailedField = err.Field()
			element.Tag = err.Tag()
			element.Value = err.Param()
			errors = append(errors, &element)
		}
	}
	return errors
}

// Fields validates data and returns a field-keyed message set, or nil when valid.
func Fields(data interface{}) map[string]string {
	errs := ValidateStruct(data)
	if len(errs) == 0 {
		return nil
	}
	fields := make(map[string]string, len(errs))
	for _, e := range errs {
		if _, seen := fields[e.FailedField]; !seen {
			fields[e.FailedField] = Message(e)
		}
	}
	return fields
}

// Message renders a human-readable message for a single failed rule.
func Message(e *ErrorResponse) string {
	switch e.Tag {
	case "required", "uuid_required":
		return e.FailedField + " is required"
	case "oneof":
		return e.FailedField + " must be one of: " + strings.ReplaceAll(e.Value, " ", ", ")
	case "min", "gte":
		return e.FailedField + " must be at least " + e.Value
	case "max", "lte":
		return e.FailedField + " must be at most " + e.Value
	default:
		return e.FailedField + " failed on '" + e.Tag + "'"
	}
}
