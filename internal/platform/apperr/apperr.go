// Package apperr defines the user-visible failure kinds of the service.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind discriminates user-visible failures.
type Kind string

const (
	KindInsufficientSelection Kind = "insufficient_selection"
	KindContactNotFound       Kind = "contact_not_found"
	KindNoActiveFeed          Kind = "no_active_feed"
	KindValidation            Kind = "validation"
	KindNotFound              Kind = "not_found"
	KindPersistence           Kind = "persistence"
)

// Error is a classified failure. IDs carries offending identifiers when relevant.
type Error struct {
	Kind    Kind
	Message string
	IDs     []string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil && e.Message != "" {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Status maps the kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindInsufficientSelection, KindContactNotFound, KindValidation:
		return http.StatusBadRequest
	case KindNoActiveFeed, KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func InsufficientSelection(got, min int) *Error {
	return &Error{
		Kind:    KindInsufficientSelection,
		Message: fmt.Sprintf("please select at least %d contacts (got %d)", min, got),
	}
}

func ContactNotFound(ids []string) *Error {
	return &Error{
		Kind:    KindContactNotFound,
		Message: fmt.Sprintf("%d selected contacts were not found", len(ids)),
		IDs:     ids,
	}
}

func NoActiveFeed() *Error {
	return &Error{Kind: KindNoActiveFeed, Message: "no active friends feed found; generate a feed first"}
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Persistence wraps a storage failure.
func Persistence(op string, err error) *Error {
	return &Error{Kind: KindPersistence, Message: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindPersistence
// for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindPersistence
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
