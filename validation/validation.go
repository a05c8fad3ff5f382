// Package validation evaluates request field rules and reports failures as
// human-readable messages in field declaration order.
//
// Rules are declared with `validate` struct tags. Evaluation of a field stops
// at its first failing rule, so an empty field reports only that it is empty.
// The `display` tag overrides the field name used in messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Errors is a validation failure: one message per failing field.
type Errors []string

func (e Errors) Error() string {
	return strings.Join(e, " ")
}

// Validator checks struct values against their `validate` tags.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("display"); name != "" {
			return name
		}
		return f.Name
	})
	// notempty also rejects whitespace-only strings, which required accepts.
	_ = v.RegisterValidation("notempty", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}, true)
	return &Validator{v: v}
}

// Validate returns nil when req satisfies its rules, Errors when it does not,
// and any other error when req cannot be validated at all.
func (v *Validator) Validate(req any) error {
	err := v.v.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := make(Errors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, message(fe))
	}
	return out
}

// For adapts v to a typed validation function for Req.
func For[Req any](v *Validator) func(Req) error {
	return func(req Req) error {
		return v.Validate(req)
	}
}

func message(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "notempty", "required":
		return fmt.Sprintf("'%s' must not be empty.", name)
	case "email":
		return fmt.Sprintf("'%s' is not a valid email address.", name)
	case "max":
		return fmt.Sprintf("The length of '%s' must be %s characters or fewer. You entered %d characters.",
			name, fe.Param(), length(fe.Value()))
	case "min":
		return fmt.Sprintf("The length of '%s' must be at least %s characters. You entered %d characters.",
			name, fe.Param(), length(fe.Value()))
	default:
		return fmt.Sprintf("'%s' is not valid.", name)
	}
}

func length(v any) int {
	if s, ok := v.(string); ok {
		return utf8.RuneCountInString(s)
	}
	return 0
}
