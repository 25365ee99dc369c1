package validation

import (
	"fmt"
	"strings"
)

// Rule validates a single field value. A nil result means the field passed.
type Rule interface {
	Field() string
	Validate() *Error
}

// ObjectRule is a cross-field invariant. It only runs when none of the fields
// it depends on has already failed, but its errors are aggregated with the
// field-level ones rather than replacing them.
type ObjectRule struct {
	DependsOn []string
	Check     func() []Error
}

type fieldRule struct {
	field string
	check func() *Error
}

func (r fieldRule) Field() string    { return r.field }
func (r fieldRule) Validate() *Error { return r.check() }

// Required fails when the value is empty or whitespace.
func Required(field, value string) Rule {
	return fieldRule{field: field, check: func() *Error {
		if strings.TrimSpace(value) == "" {
			return &Error{
				Code:       "required",
				Message:    fmt.Sprintf("%s is required.", field),
				Properties: []string{field},
			}
		}
		return nil
	}}
}

// MinLength fails when a non-empty value is shorter than min.
func MinLength(field, value string, min int) Rule {
	return fieldRule{field: field, check: func() *Error {
		if value != "" && len(value) < min {
			return &Error{
				Code:       "min-length-not-met",
				Message:    fmt.Sprintf("%s must be at least %d characters.", field, min),
				Properties: []string{field},
			}
		}
		return nil
	}}
}

// MaxLength fails when the value is longer than max.
func MaxLength(field, value string, max int) Rule {
	return fieldRule{field: field, check: func() *Error {
		if len(value) > max {
			return &Error{
				Code:       "max-length-exceeded",
				Message:    fmt.Sprintf("%s must be %d characters or less.", field, max),
				Properties: []string{field},
			}
		}
		return nil
	}}
}

// StringLength bounds a non-empty value to [min, max].
func StringLength(field, value string, min, max int) Rule {
	return fieldRule{field: field, check: func() *Error {
		if value == "" {
			return nil
		}
		if len(value) < min || len(value) > max {
			return &Error{
				Code:       "string-length-out-of-range",
				Message:    fmt.Sprintf("%s must be between %d and %d characters.", field, min, max),
				Properties: []string{field},
			}
		}
		return nil
	}}
}

// FixedLength fails unless the value is exactly length characters.
func FixedLength(field, value string, length int) Rule {
	return fieldRule{field: field, check: func() *Error {
		if len(value) != length {
			return &Error{
				Code:       "fixed-length-mismatch",
				Message:    fmt.Sprintf("%s must be exactly %d characters.", field, length),
				Properties: []string{field},
			}
		}
		return nil
	}}
}

// Email fails when a non-empty value does not look like an email address.
func Email(field, value string) Rule {
	return fieldRule{field: field, check: func() *Error {
		if value == "" {
			return nil
		}
		at := strings.Index(value, "@")
		if at <= 0 || at == len(value)-1 || strings.ContainsAny(value, " \t") {
			return &Error{
				Code:       "email-format-invalid",
				Message:    "Please use a valid email address.",
				Properties: []string{field},
			}
		}
		return nil
	}}
}
