package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"inventory-api/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var productValidator = newProductValidator()

func newProductValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	must(v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return domain.Category(fl.Field().String()).Valid()
	}))
	must(v.RegisterValidation("decimal", func(fl validator.FieldLevel) bool {
		_, err := decimal.NewFromString(fl.Field().String())
		return err == nil
	}))
	must(v.RegisterValidation("release_date", func(fl validator.FieldLevel) bool {
		_, ok := domain.ParseYear(fl.Field().String())
		return ok
	}))

	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// validateProductInput checks the submitted fields. Failures wrap
// domain.ErrBadRequest and keep the validator.ValidationErrors reachable with
// errors.As.
func validateProductInput(in domain.ProductInput) error {
	err := productValidator.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return fmt.Errorf("invalid product: %w: %w", domain.ErrBadRequest, verrs)
	}
	return fmt.Errorf("failed to validate product: %w", err)
}
