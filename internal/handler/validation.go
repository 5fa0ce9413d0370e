package handler

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Alexseyf/elo-escola/internal/models"
	appErrors "github.com/Alexseyf/elo-escola/pkg/errors"
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	// Dates validate as their string form so "required" rejects the zero value.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(models.Date); ok {
			if d.IsZero() {
				return ""
			}
			return d.String()
		}
		return nil
	}, models.Date{})
	return v
}

func validationError(err error) error {
	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fe.Field()+" is required")
		case "gt", "gte":
			parts = append(parts, fe.Field()+" must be "+fe.Tag()+" "+fe.Param())
		default:
			parts = append(parts, fe.Field()+" is invalid")
		}
	}
	return appErrors.Clone(appErrors.ErrValidation, strings.Join(parts, "; "))
}
