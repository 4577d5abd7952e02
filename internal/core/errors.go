package core

import (
	"errors"
	"fmt"
)

// Error kinds. Specific errors wrap one of these so callers can branch with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrTemporalViolation = errors.New("temporal violation")
	ErrValidation        = errors.New("validation error")
	ErrConflict          = errors.New("conflict")
	ErrUnauthorized      = errors.New("unauthorized")
)

var (
	ErrUserNotFound    = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrExpenseNotFound = fmt.Errorf("%w: expense not found", ErrNotFound)
	ErrLimitNotFound   = fmt.Errorf("%w: limit not found", ErrNotFound)

	ErrEmailTaken     = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrDuplicateLimit = fmt.Errorf("%w: a limit already exists for this month", ErrConflict)

	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrUnauthorized)

	ErrLimitNotCurrentOrFuture = fmt.Errorf("%w: limit may only be set for the current or a future month", ErrTemporalViolation)
	ErrPastLimitUpdate         = fmt.Errorf("%w: cannot modify a limit for a past month", ErrTemporalViolation)
	ErrPastLimitDelete         = fmt.Errorf("%w: cannot delete a limit for a past month", ErrTemporalViolation)
	ErrPastExpenseUpdate       = fmt.Errorf("%w: cannot modify an expense from a past month", ErrTemporalViolation)
	ErrPastExpenseDelete       = fmt.Errorf("%w: cannot delete an expense from a past month", ErrTemporalViolation)
)

// Kind returns the error kind err belongs to, or nil when it carries none.
func Kind(err error) error {
	for _, kind := range []error{ErrValidation, ErrUnauthorized, ErrNotFound, ErrConflict, ErrTemporalViolation} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
