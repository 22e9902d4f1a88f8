package ophelib

import (
	"fmt"

	"github.com/pkg/errors"
)

// The error taxonomy below mirrors the category distinctions the rest of
// this package relies on: callers can use errors.As to recover the
// specific category and react to it (e.g. retry on ParamError but not on
// CryptoError). Each category value is wrapped with errors.WithStack at
// the point of failure so Describe can print a
// file:line source location, the one piece of the original exception-based
// design ("print message, category, file:line, exit 1") that has no direct
// stdlib equivalent.

// MathError reports a domain error in arithmetic: a modular inverse that
// does not exist, division or modulo by zero, an out-of-range conversion,
// or an attempt to invert a non-invertible matrix.
type MathError struct {
	Msg   string
	cause error
}

func (e *MathError) Error() string {
	if e.Msg != "" {
		return "math error: " + e.Msg
	}
	return "math error"
}

func (e *MathError) Unwrap() error { return e.cause }

// DimensionError reports a vector/matrix shape mismatch.
type DimensionError struct {
	Msg   string
	cause error
}

func (e *DimensionError) Error() string {
	if e.Msg != "" {
		return "dimension error: " + e.Msg
	}
	return "dimension mismatch"
}

func (e *DimensionError) Unwrap() error { return e.cause }

// CryptoError reports a missing key, a missing modulus reference on a
// Ciphertext, mismatched moduli between two ciphertexts, or invalid key
// parameters for the requested Scheme variant.
type CryptoError struct {
	Msg   string
	cause error
}

func (e *CryptoError) Error() string {
	if e.Msg != "" {
		return "crypto error: " + e.Msg
	}
	return "crypto error"
}

func (e *CryptoError) Unwrap() error { return e.cause }

// ParamError reports an unsupported key size, r_bits, or plaintext-bit
// configuration.
type ParamError struct {
	Msg   string
	cause error
}

func (e *ParamError) Error() string {
	if e.Msg != "" {
		return "param error: " + e.Msg
	}
	return "param error"
}

func (e *ParamError) Unwrap() error { return e.cause }

// NotImplementedError flags a capability intentionally left blank.
type NotImplementedError struct {
	Msg string
}

func (e *NotImplementedError) Error() string {
	if e.Msg != "" {
		return "not implemented: " + e.Msg
	}
	return "not implemented"
}

// Describe formats err with its category, message, and (if captured by
// github.com/pkg/errors) the file:line of the call site that produced it.
// This is the CLI-facing counterpart of the library's typed errors.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	category := "error"
	switch {
	case errorsAs[*MathError](err):
		category = "MathError"
	case errorsAs[*DimensionError](err):
		category = "DimensionError"
	case errorsAs[*CryptoError](err):
		category = "CryptoError"
	case errorsAs[*ParamError](err):
		category = "ParamError"
	case errorsAs[*NotImplementedError](err):
		category = "NotImplementedError"
	}

	type stackTracer interface {
		StackTrace() errors.StackTrace
	}
	var st stackTracer
	if errors.As(err, &st) {
		trace := st.StackTrace()
		if len(trace) > 0 {
			return fmt.Sprintf("%s: %s (%+v)", category, err.Error(), trace[0])
		}
	}
	return fmt.Sprintf("%s: %s", category, err.Error())
}

func errorsAs[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}
