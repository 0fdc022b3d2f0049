// Package corerr enumerates the error kinds the configuration store and
// scheduler surface to callers, per spec.md 7. Kinds are distinguished by
// errors.Is against the package-level sentinels below, with the
// human-readable detail carried by fmt.Errorf's %w wrapping, the way the
// teacher's internal/storage distinguishes ErrDBNotInitialized from
// generic wrapped errors.
package corerr

import (
	"errors"
	"fmt"
)

// Sentinels identifying an error's Kind. Wrap with fmt.Errorf("...: %w", …).
var (
	ErrValidation     = errors.New("validation error")
	ErrNotFound       = errors.New("not found")
	ErrReserved       = errors.New("reserved category")
	ErrStorage        = errors.New("storage error")
	ErrSchedulerState = errors.New("scheduler state error")
	ErrTimeout        = errors.New("timeout")
	ErrCallback       = errors.New("callback error")
)

// Validation builds an ErrValidation from format.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrValidation)
}

// NotFound builds an ErrNotFound for the named resource.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

// Reserved builds an ErrReserved for a recursive-delete refusal.
func Reserved(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrReserved)
}

// Storage wraps an underlying storage failure. Per spec.md 7, storage
// failures are surfaced as validation errors except on recursive delete,
// where the caller should report the underlying err verbatim instead of
// calling this helper.
func Storage(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

// SchedulerState builds an ErrSchedulerState (start-when-running, etc).
func SchedulerState(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrSchedulerState)
}

// Timeout builds a Timeout error, e.g. stop() with tasks still live.
func Timeout(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrTimeout)
}

// Callback wraps a callback-resolution or callback-execution failure.
func Callback(id string, err error) error {
	return fmt.Errorf("callback %q: %w: %w", id, ErrCallback, err)
}

// Is reports whether err's chain contains target, a thin re-export so
// callers don't need a separate "errors" import purely for this check.
func Is(err, target error) bool { return errors.Is(err, target) }
