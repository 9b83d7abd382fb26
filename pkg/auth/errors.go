package auth

import (
	"errors"
	"fmt"
)

// ErrAuthentication is matched by every login failure. It is fatal to a run.
var ErrAuthentication = errors.New("authentication failed")

// Error describes why a login attempt failed.
type Error struct {
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrAuthentication, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrAuthentication, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrAuthentication) hold for every *Error.
func (e *Error) Is(target error) bool {
	return target == ErrAuthentication
}

func fail(reason string, err error) error {
	return &Error{Reason: reason, Err: err}
}
