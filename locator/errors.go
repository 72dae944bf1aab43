// Copyright 2025 The Agrovet Authors
// SPDX-License-Identifier: Apache-2.0

package locator

import (
	"errors"
	"fmt"
)

// Error is returned by catalog loading and supplier queries.
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

// ErrorType classifies an Error.
type ErrorType int

const (
	// ErrorTypeUnknown unclassified failure.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeDataUnavailable the supplier source is missing, unreadable or
	// has too many malformed rows.
	ErrorTypeDataUnavailable
	// ErrorTypeUninitialized a query was issued without a loaded catalog.
	ErrorTypeUninitialized
	// ErrorTypeInvalidLocation the query coordinate is missing or out of range.
	ErrorTypeInvalidLocation
	// ErrorTypeInvalidQuery top-k, radius or resolution are out of range.
	ErrorTypeInvalidQuery
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeDataUnavailable:
		return "data unavailable"
	case ErrorTypeUninitialized:
		return "locator uninitialized"
	case ErrorTypeInvalidLocation:
		return "invalid location"
	case ErrorTypeInvalidQuery:
		return "invalid query"
	default:
		return "unknown"
	}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(t ErrorType, err error, format string, args ...any) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...), Err: err}
}

func isType(err error, t ErrorType) bool {
	var locErr *Error
	if errors.As(err, &locErr) {
		return locErr.Type == t
	}

	return false
}

// IsDataUnavailable reports whether err means the catalog source could not be used.
func IsDataUnavailable(err error) bool {
	return isType(err, ErrorTypeDataUnavailable)
}

// IsUninitialized reports whether err means no catalog was loaded.
func IsUninitialized(err error) bool {
	return isType(err, ErrorTypeUninitialized)
}

// IsInvalidLocation reports whether err was caused by a bad query coordinate.
func IsInvalidLocation(err error) bool {
	return isType(err, ErrorTypeInvalidLocation)
}

// IsInvalidQuery reports whether err was caused by bad query parameters.
func IsInvalidQuery(err error) bool {
	return isType(err, ErrorTypeInvalidQuery)
}
