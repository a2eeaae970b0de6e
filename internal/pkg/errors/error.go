package xerrors

import (
	"errors"
	"fmt"
)

// Common reusable application errors
var (
	ErrNotFound       = errors.New("resource not found")
	ErrUnauthorized   = errors.New("unauthorized access")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidInput   = errors.New("invalid input")
	ErrConflict       = errors.New("conflict: resource already exists")
	ErrInternal       = errors.New("internal server error")
	ErrRateLimited    = errors.New("too many requests")
	ErrSessionExpired = errors.New("session expired or invalid")
	ErrAccountBlocked = errors.New("account is not active")
)

// FeatureDeniedError signals that an organization's plan does not include a
// feature. It names the feature and the current plan so the caller can render
// an actionable upgrade message.
type FeatureDeniedError struct {
	Feature string
	Plan    string
}

func (e *FeatureDeniedError) Error() string {
	return fmt.Sprintf("feature %q is not available on the %s plan", e.Feature, e.Plan)
}

func (e *FeatureDeniedError) Unwrap() error { return ErrForbidden }

// FeatureDenied builds a FeatureDeniedError.
func FeatureDenied(feature, plan string) error {
	return &FeatureDeniedError{Feature: feature, Plan: plan}
}

// QuotaExceededError signals that an organization hit its monthly issuance
// ceiling. Limit and Current are carried so callers can show usage.
type QuotaExceededError struct {
	Limit   int
	Current int
	Plan    string
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("monthly certificate limit of %d reached (%d issued) on the %s plan", e.Limit, e.Current, e.Plan)
}

func (e *QuotaExceededError) Unwrap() error { return ErrForbidden }

// QuotaExceeded builds a QuotaExceededError.
func QuotaExceeded(limit, current int, plan string) error {
	return &QuotaExceededError{Limit: limit, Current: current, Plan: plan}
}

// Wrap adds context to an error (similar to fmt.Errorf("%w")).
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is allows checking whether an error is a specific sentinel error.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Unwrap extracts the underlying wrapped error.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// MessageOrDefault returns err.Error() or a fallback message if err is nil.
func MessageOrDefault(err error, fallback string) string {
	if err != nil {
		return err.Error()
	}
	return fallback
}
