package validator

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ErrorResponse struct {
	FailedField string
	Tag         string
	Param       string // tag argument, "3" for min=3
}

var validate = validator.New()

func init() {
	// Rejects strings made only of whitespace
	validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

// ValidateStruct returns the failed constraints in struct field order.
func ValidateStruct(data interface{}) []*ErrorResponse {
	var errs []*ErrorResponse
	err := validate.Struct(data)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return []*ErrorResponse{{Tag: "invalid"}}
	}
	for _, fe := range validationErrs {
		errs = append(errs, &ErrorResponse{
			FailedField: fe.StructField(),
			Tag:         fe.Tag(),
			Param:       fe.Param(),
		})
	}
	return errs
}
