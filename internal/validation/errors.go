package validation

import (
	"fmt"
	"strings"
)

// Error describes a single rule violation tagged with the fields it applies to.
type Error struct {
	Code       string
	Message    string
	Properties []string
}

func (e Error) Error() string {
	if len(e.Properties) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(e.Properties, ", "))
}

// FailedError aggregates every violation discovered during a validation pass.
type FailedError struct {
	Errors []Error
}

func (e *FailedError) Error() string {
	if len(e.Errors) == 1 {
		return "validation failed: " + e.Errors[0].Error()
	}
	return fmt.Sprintf("validation failed with %d errors", len(e.Errors))
}

// HasCode reports whether any aggregated error carries the given code.
func (e *FailedError) HasCode(code string) bool {
	for _, v := range e.Errors {
		if v.Code == code {
			return true
		}
	}
	return false
}
