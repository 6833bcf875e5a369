// Package validation checks inbound request bodies against their struct
// tags before any handler or service logic runs.
package validation

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Error describes one failed field.
type Error struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// Struct validates a struct and returns formatted errors, or nil when the
// value passes.
func Struct(s interface{}) []Error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var errs []Error
	for _, fe := range err.(validator.ValidationErrors) {
		errs = append(errs, Error{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: message(fe),
		})
	}
	return errs
}

func message(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "email":
		return err.Field() + " must be a valid email address"
	case "min":
		return err.Field() + " must be at least " + err.Param()
	case "max":
		return err.Field() + " must be at most " + err.Param()
	case "gt":
		return err.Field() + " must be greater than " + err.Param()
	case "gte":
		return err.Field() + " must be greater than or equal to " + err.Param()
	case "lte":
		return err.Field() + " must be less than or equal to " + err.Param()
	case "oneof":
		return err.Field() + " must be one of " + err.Param()
	default:
		return err.Field() + " is invalid"
	}
}
