package domain

import (
	"errors"
	"fmt"
)

// Verification failure codes recognized from the secure-document endpoint.
// Anything else is treated as a transient transport problem.
const (
	CodeTooManyAttempts = "TOO_MANY_ATTEMPTS"
	CodeInvalidYear     = "INVALID_YEAR"
	CodeNotFound        = "NOT_FOUND"
	CodeSecurityError   = "SECURITY_ERROR"
	CodeConfigError     = "CONFIG_ERROR"
	CodeInvalidSession  = "INVALID_SESSION"
)

// recognizedCodes maps upstream verification codes to translation keys.
var recognizedCodes = map[string]string{
	CodeTooManyAttempts: "errTooManyAttempts",
	CodeInvalidYear:     "errInvalidYear",
	CodeNotFound:        "errDocNotFound",
	CodeSecurityError:   "errSecurity",
	CodeConfigError:     "errConfig",
	CodeInvalidSession:  "errInvalidSession",
}

type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

// VerificationError carries an upstream secure-document failure code.
// Recognized codes stay retryable on the caller side.
type VerificationError struct {
	Code string
	Err  error
}

func (e VerificationError) Error() string {
	if e.Code == "" {
		return "verification failed"
	}
	return fmt.Sprintf("verification failed: %s", e.Code)
}

func (e VerificationError) Unwrap() error { return e.Err }

// Recognized reports whether the code is one of the six documented ones.
func (e VerificationError) Recognized() bool {
	_, ok := recognizedCodes[e.Code]
	return ok
}

// MessageKey returns the translation key for the code, or a generic one.
func (e VerificationError) MessageKey() string {
	if key, ok := recognizedCodes[e.Code]; ok {
		return key
	}
	return "errVerifyGeneric"
}

// UnavailableError marks data that cannot be produced right now: upstream
// down and no usable snapshot, or a degraded storage backend.
type UnavailableError struct {
	Msg string
	Err error
}

func (e UnavailableError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "temporarily unavailable"
}

func (e UnavailableError) Unwrap() error { return e.Err }

type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsVerification(err error) (VerificationError, bool) {
	var target VerificationError
	ok := errors.As(err, &target)
	return target, ok
}

func IsUnavailable(err error) bool {
	var target UnavailableError
	return errors.As(err, &target)
}

func IsInternal(err error) bool {
	var target InternalError
	return errors.As(err, &target)
}
