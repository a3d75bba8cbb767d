// Package valerr defines the typed failures returned by the valuation engine.
package valerr

import (
	"errors"
	"fmt"
)

// Kind classifies a valuation failure.
type Kind string

const (
	// UnsupportedCity means the city key is not one of the known cities.
	UnsupportedCity Kind = "UnsupportedCity"
	// UnknownLocation means an area or PIN code was not found where an exact match is required.
	UnknownLocation Kind = "UnknownLocation"
	// IncompletePriceData means the resolved location has no usable positive price bounds.
	IncompletePriceData Kind = "IncompletePriceData"
	// InvalidAttribute means a request attribute is malformed.
	InvalidAttribute Kind = "InvalidAttribute"
)

// Error is a structured valuation failure. It is deterministic: retrying the
// same request yields the same error.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// New creates an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err (or any error in its chain) is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the human-readable part of a valuation failure, or
// err.Error() for any other error.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
