package db

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors shared by the service packages. Handlers map them to HTTP
// status codes with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("permission denied")
	ErrConflict        = errors.New("already exists")
	ErrInvalid         = errors.New("invalid input")
	ErrUnauthenticated = errors.New("authentication required")
	ErrSuspended       = errors.New("account suspended")
)

// Error carries a user facing message while matching one of the sentinels.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

// Errorf builds an *Error of the given kind.
func Errorf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// SuspendedError is returned when a suspended account tries to act.
type SuspendedError struct {
	Info SuspensionInfo
}

func (e *SuspendedError) Error() string {
	if e.Info.Until != nil {
		return fmt.Sprintf("account suspended until %s: %s", e.Info.Until.Format(time.RFC3339), e.Info.Reason)
	}
	return "account suspended: " + e.Info.Reason
}

func (e *SuspendedError) Unwrap() error { return ErrSuspended }
