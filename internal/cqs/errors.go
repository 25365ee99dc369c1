package cqs

import (
	"errors"
	"fmt"
)

// ErrRegistration reports a handler wired up incorrectly at process start.
var ErrRegistration = errors.New("cqs: invalid handler registration")

// NotFoundError reports a referenced entity that does not exist. The message
// carries the entity type and identifier for diagnostics; callers should show
// end users a generic message.
type NotFoundError struct {
	Entity string
	ID     string
}

func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q could not be found", e.Entity, e.ID)
}

// InvalidCredentialsError reports a failed credential check, tagged to the
// credential field. The message is deliberately uniform: it must not reveal
// whether the account exists or the password was wrong.
type InvalidCredentialsError struct {
	Property string
}

func (e *InvalidCredentialsError) Error() string {
	return "invalid username or password"
}

// InvalidStateError reports a sequencing or programming error, e.g. running
// setup on an already set up site. Not retriable.
type InvalidStateError struct {
	Reason string
}

func (e *InvalidStateError) Error() string {
	return e.Reason
}
