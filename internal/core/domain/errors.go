package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks malformed scorer or rule setup. Fatal, never retried.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrUnknownLease marks an amendment whose target lease has not arrived yet.
	ErrUnknownLease = errors.New("unknown lease")
	// ErrInvalidTransition marks an illegal conflict-status change.
	ErrInvalidTransition = errors.New("invalid conflict transition")
	ErrLeaseNotFound     = errors.New("lease not found")
	ErrConflictNotFound  = errors.New("conflict not found")
	ErrDocumentNotFound  = errors.New("document not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrTemporary         = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
