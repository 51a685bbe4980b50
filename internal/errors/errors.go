package errors

import (
	"errors"
	"fmt"
)

// Common error types for the Carmot client
var (
	// ErrNoCredential - no bearer credential is persisted; session checks
	// short-circuit without touching the network.
	ErrNoCredential = errors.New("no credential persisted")
	// ErrLoginFailed - the backend answered a login without a usable token.
	ErrLoginFailed = errors.New("login failed")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
