// Package validation validates service inputs with go-playground/validator
// and converts failures into domain validation errors keyed by JSON field.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	domainerrors "github.com/listenupapp/recipes-server/internal/errors"
)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator configured for our domain.
//
// Besides the built-in tags it registers:
//
//	notblank  string is not empty after trimming whitespace
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() == reflect.Pointer {
			if field.IsNil() {
				return true
			}
			field = field.Elem()
		}
		return field.Kind() != reflect.String || strings.TrimSpace(field.String()) != ""
	})

	return &Validator{v: v}
}

// Validate validates a struct and returns a VALIDATION domain error whose
// details map each failing field to a message.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

// Var validates a single value against tag and reports failures under field.
func (v *Validator) Var(field string, value any, tag string) error {
	err := v.v.Var(value, tag)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		return domainerrors.FieldError(field, friendlyMessage(validationErrs[0]))
	}
	return err
}

func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fieldErrors := make(map[string]string, len(validationErrs))
	for _, e := range validationErrs {
		if _, seen := fieldErrors[e.Field()]; !seen {
			fieldErrors[e.Field()] = friendlyMessage(e)
		}
	}

	fields := make([]string, 0, len(fieldErrors))
	for f := range fieldErrors {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+fieldErrors[f])
	}

	return domainerrors.ValidationWithDetails(strings.Join(parts, "; "), fieldErrors)
}

func isText(e validator.FieldError) bool {
	k := e.Kind()
	return k == reflect.String || k == reflect.Slice || k == reflect.Map
}

//nolint:gocyclo // Switch statement covering validation tags is intentionally exhaustive.
func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "notblank":
		return "this field is required"
	case "email":
		return "enter a valid email address"
	case "min":
		if isText(e) {
			return fmt.Sprintf("ensure this field has at least %s characters", e.Param())
		}
		return "ensure this value is greater than or equal to " + e.Param()
	case "max":
		if isText(e) {
			return fmt.Sprintf("ensure this field has no more than %s characters", e.Param())
		}
		return "ensure this value is less than or equal to " + e.Param()
	case "url", "http_url":
		return "enter a valid URL"
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "ensure this value is greater than or equal to " + e.Param()
	case "lte":
		return "ensure this value is less than or equal to " + e.Param()
	case "gt":
		return "ensure this value is greater than " + e.Param()
	case "lt":
		return "ensure this value is less than " + e.Param()
	case "dive", "unique":
		return "contains invalid or duplicate entries"
	default:
		return "is invalid"
	}
}
