package errors

import (
	"errors"
	"fmt"
)

var (
	// Session errors
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrSessionLoading   = errors.New("session is still loading")

	// Token errors
	ErrInvalidToken = errors.New("invalid token")
	ErrSealedStore  = errors.New("token store could not be opened")

	ErrInvalidRequest = errors.New("invalid request")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// Wrapf prefixes sentinel with a formatted message. The result still matches sentinel with errors.Is.
func Wrapf(sentinel error, format string, args ...any) error {
	if sentinel == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, sentinel)...)
}

// WithCause is Wrapf that also keeps the lower level error, so both the sentinel
// and cause match errors.Is and the message shows what went wrong underneath.
func WithCause(sentinel, cause error, format string, args ...any) error {
	if cause == nil {
		return Wrapf(sentinel, format, args...)
	}
	return fmt.Errorf(format+": %w: %w", append(args, sentinel, cause)...)
}
