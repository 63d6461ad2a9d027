package api

import (
	"reflect"
	"strings"
	"time"

	"streambook/internal/utils"

	"github.com/go-playground/validator/v10"
)

// requestValidator checks the shape of request bodies before they reach the services.
var requestValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(utils.DateLayout, fl.Field().String())
		return err == nil
	})
	v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := utils.ParseClock(fl.Field().String())
		return err == nil
	})
	return v
}

// invalidRequestError carries per-field validation failures to the client.
type invalidRequestError struct {
	details map[string]string
}

func (e *invalidRequestError) Error() string {
	return "validation error"
}

func validationDetails(errs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(errs))
	for _, err := range errs {
		details[err.Field()] = err.Tag()
	}
	return details
}

func validateRequest(v interface{}) error {
	err := requestValidator.Struct(v)
	if err == nil {
		return nil
	}
	if errs, ok := err.(validator.ValidationErrors); ok {
		return &invalidRequestError{details: validationDetails(errs)}
	}
	return err
}
