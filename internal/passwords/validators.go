package passwords

import (
	"fmt"
	"unicode"

	"lumacms.org/internal/validation"
)

// Length bounds every configurable length validator must stay within.
// Misconfiguration outside this range is a programming error surfaced at
// construction time, never at evaluation time.
const (
	MinLengthBoundary = 6
	MaxLengthBoundary = 2048
)

const codeNamespace = "new-password-"

func errorCode(suffix string) string {
	return codeNamespace + suffix
}

// NewPasswordContext carries the candidate password being validated and the
// field name violations are tagged with. CurrentHash and Verify are set for
// flows where the candidate must differ from the current password.
type NewPasswordContext struct {
	Password     string
	PropertyName string
	CurrentHash  string
	Verify       func(candidate, hash string) bool
}

// Validator is a single password rule.
type Validator interface {
	Criteria() string
	Validate(ctx NewPasswordContext) *validation.Error
}

type minLengthValidator struct {
	min int
}

// NewMinLengthValidator enforces an inclusive minimum length within
// [MinLengthBoundary, MaxLengthBoundary].
func NewMinLengthValidator(min int) (Validator, error) {
	if min < MinLengthBoundary || min > MaxLengthBoundary {
		return nil, fmt.Errorf("passwords: min length %d outside [%d, %d]", min, MinLengthBoundary, MaxLengthBoundary)
	}
	return &minLengthValidator{min: min}, nil
}

func (v *minLengthValidator) Criteria() string {
	return fmt.Sprintf("Must be at least %d characters.", v.min)
}

func (v *minLengthValidator) Validate(ctx NewPasswordContext) *validation.Error {
	if len(ctx.Password) < v.min {
		return &validation.Error{
			Code:       errorCode("min-length-not-met"),
			Message:    fmt.Sprintf("Password must be at least %d characters.", v.min),
			Properties: []string{ctx.PropertyName},
		}
	}
	return nil
}

type maxLengthValidator struct {
	max int
}

// NewMaxLengthValidator enforces an inclusive maximum length within
// [MinLengthBoundary, MaxLengthBoundary].
func NewMaxLengthValidator(max int) (Validator, error) {
	if max < MinLengthBoundary || max > MaxLengthBoundary {
		return nil, fmt.Errorf("passwords: max length %d outside [%d, %d]", max, MinLengthBoundary, MaxLengthBoundary)
	}
	return &maxLengthValidator{max: max}, nil
}

func (v *maxLengthValidator) Criteria() string {
	return fmt.Sprintf("Must be %d characters or less.", v.max)
}

func (v *maxLengthValidator) Validate(ctx NewPasswordContext) *validation.Error {
	if len(ctx.Password) > v.max {
		return &validation.Error{
			Code:       errorCode("max-length-exceeded"),
			Message:    fmt.Sprintf("Password must be %d characters or less.", v.max),
			Properties: []string{ctx.PropertyName},
		}
	}
	return nil
}

type characterClassValidator struct {
	codeSuffix string
	criteria   string
	message    string
	match      func(rune) bool
}

func (v *characterClassValidator) Criteria() string { return v.criteria }

func (v *characterClassValidator) Validate(ctx NewPasswordContext) *validation.Error {
	for _, r := range ctx.Password {
		if v.match(r) {
			return nil
		}
	}
	return &validation.Error{
		Code:       errorCode(v.codeSuffix),
		Message:    v.message,
		Properties: []string{ctx.PropertyName},
	}
}

// NewRequireDigitValidator demands at least one decimal digit.
func NewRequireDigitValidator() Validator {
	return &characterClassValidator{
		codeSuffix: "missing-digit",
		criteria:   "Must contain at least one number.",
		message:    "Password must contain at least one number.",
		match:      unicode.IsDigit,
	}
}

// NewRequireUppercaseValidator demands at least one uppercase letter.
func NewRequireUppercaseValidator() Validator {
	return &characterClassValidator{
		codeSuffix: "missing-uppercase",
		criteria:   "Must contain at least one uppercase letter.",
		message:    "Password must contain at least one uppercase letter.",
		match:      unicode.IsUpper,
	}
}

// NewRequireLowercaseValidator demands at least one lowercase letter.
func NewRequireLowercaseValidator() Validator {
	return &characterClassValidator{
		codeSuffix: "missing-lowercase",
		criteria:   "Must contain at least one lowercase letter.",
		message:    "Password must contain at least one lowercase letter.",
		match:      unicode.IsLower,
	}
}

type notCurrentPasswordValidator struct{}

// NewNotCurrentPasswordValidator rejects a candidate equal to the current
// password. It only applies when the context supplies the current hash and a
// verify function.
func NewNotCurrentPasswordValidator() Validator {
	return &notCurrentPasswordValidator{}
}

func (v *notCurrentPasswordValidator) Criteria() string {
	return "Must not be the same as your current password."
}

func (v *notCurrentPasswordValidator) Validate(ctx NewPasswordContext) *validation.Error {
	if ctx.CurrentHash == "" || ctx.Verify == nil {
		return nil
	}
	if ctx.Verify(ctx.Password, ctx.CurrentHash) {
		return &validation.Error{
			Code:       errorCode("not-current"),
			Message:    "Password must not be the same as your current password.",
			Properties: []string{ctx.PropertyName},
		}
	}
	return nil
}
