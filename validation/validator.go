// Package validation wraps go-playground/validator with the custom tags used
// by drafts, patches and API payloads.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// BloodGroups are the accepted ABO groups for requisitions.
var BloodGroups = []string{"O(I)", "A(II)", "B(III)", "AB(IV)"}

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("blood_group", validateBloodGroup)
	validate.RegisterValidation("notblank", validateNotBlank)
}

// Struct validates s against its `validate` tags.
func Struct(s any) error {
	return validate.Struct(s)
}

// IsBloodGroup reports whether g is one of BloodGroups.
func IsBloodGroup(g string) bool {
	for _, known := range BloodGroups {
		if g == known {
			return true
		}
	}
	return false
}

func validateBloodGroup(fl validator.FieldLevel) bool {
	return IsBloodGroup(fl.Field().String())
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// FieldError is the API-facing form of one failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// Fields flattens a validator error into FieldErrors. Non-validator errors
// yield nil.
func Fields(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]FieldError, 0, len(verrs))
	for _, e := range verrs {
		out = append(out, FieldError{
			Field:   strings.ToLower(e.Field()),
			Tag:     e.Tag(),
			Message: message(e),
		})
	}
	return out
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "notblank":
		return "is required"
	case "gt":
		return fmt.Sprintf("must be greater than %s", e.Param())
	case "blood_group":
		return fmt.Sprintf("must be one of %s", strings.Join(BloodGroups, ", "))
	case "max":
		return fmt.Sprintf("must be at most %s characters", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of %s", e.Param())
	default:
		return fmt.Sprintf("failed %s validation", e.Tag())
	}
}
