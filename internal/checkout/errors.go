package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrMissingField         = errors.New("missing required field")
	ErrTransportFailure     = errors.New("order transport failed")
	ErrTransportUnreachable = errors.New("order transport unreachable")
	ErrSubmissionInProgress = errors.New("submission already in progress")
	ErrIllegalTransition    = errors.New("illegal submission state transition")
)

// MissingFieldError names the first customer field that failed validation.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingField, e.Field)
}

func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}
