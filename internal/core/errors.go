package core

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by repositories when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrValidation marks rejected input. Use errors.Is(err, ErrValidation) or
// errors.As with *ValidationError to access the offending field.
var ErrValidation = errors.New("validation failed")

// Business-rule rejections. They are detected before any write is applied.
var (
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrCouponInvalid       = errors.New("coupon is invalid or already used")
	ErrCouponExpired       = errors.New("coupon has expired")
	ErrAssetUnavailable    = errors.New("asset is not available")
	ErrQuotaExceeded       = errors.New("subscription quota exceeded")
	ErrSubscriptionClosed  = errors.New("subscription is not active")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrModuleDisabled      = errors.New("module is not enabled for this company")
	ErrDuplicate           = errors.New("already exists")
)

var businessRuleErrors = []error{
	ErrInsufficientStock,
	ErrInsufficientBalance,
	ErrCouponInvalid,
	ErrCouponExpired,
	ErrAssetUnavailable,
	ErrQuotaExceeded,
	ErrSubscriptionClosed,
	ErrInvalidTransition,
	ErrModuleDisabled,
	ErrDuplicate,
}

// ValidationError describes missing or malformed input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsBusinessRule reports whether err is a business-rule rejection.
func IsBusinessRule(err error) bool {
	for _, target := range businessRuleErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsValidation reports whether err is a validation rejection.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
