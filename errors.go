package extract

import (
	"context"
	"fmt"
	"reflect"

	"github.com/pkg/errors"
)

// Kind classifies why an extractor failed.
type Kind int

const (
	// DecodeFailure means the body did not match the expected shape:
	// malformed syntax, a wrong type, or a missing field.
	DecodeFailure Kind = iota + 1

	// MetadataFailure means a path segment, route variable, or header
	// was absent or could not be parsed.
	MetadataFailure

	// Canceled means the request context ended before the position
	// could run.
	Canceled
)

func (k Kind) String() string {
	switch k {
	case DecodeFailure:
		return "decode failure"
	case MetadataFailure:
		return "metadata failure"
	case Canceled:
		return "canceled"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

var (
	ErrMissingSegment = errors.New("path segment not present")
	ErrMissingVar     = errors.New("route variable not present")
	ErrMissingHeader  = errors.New("header not present")
	ErrEmptyBody      = errors.New("request body is empty")
	ErrBodyTooLarge   = errors.New("request body exceeds limit")
)

// Error is returned by Run when an extractor fails.  Position counts
// extractors in the order they were appended, starting at zero.
type Error struct {
	Position int
	Kind     Kind
	Type     reflect.Type // output type of the failed position
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("extract position %d (%s): %s: %v", e.Position, e.Type, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Cause lets errors.Cause from github.com/pkg/errors reach the
// underlying failure.
func (e *Error) Cause() error { return e.Err }

// KindOf reports the Kind of err if err is, or wraps, an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// PositionOf reports which chain position failed if err is, or
// wraps, an *Error.
func PositionOf(err error) (int, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Position, true
	}
	return -1, false
}

// MetadataError marks err as a metadata-access failure.  Custom
// Extractor implementations use it to pick the Kind reported by Run.
func MetadataError(err error) error { return classify(MetadataFailure, err) }

// DecodeError marks err as a decode failure.  Errors returned by an
// Extractor without a mark are treated as decode failures.
func DecodeError(err error) error { return classify(DecodeFailure, err) }

// kindError tags an extractor error with the failure kind it
// belongs to.
type kindError struct {
	kind Kind
	err  error
}

func (k kindError) Error() string { return k.err.Error() }
func (k kindError) Unwrap() error { return k.err }
func (k kindError) Cause() error  { return k.err }

func classify(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	var ke kindError
	if errors.As(err, &ke) {
		return err
	}
	return kindError{kind: kind, err: err}
}

// newError builds the *Error for a failed position.  A bare mark is
// stripped so Err holds what the extractor actually reported.  A
// nested chain's *Error keeps its kind and is kept whole as Err.
func newError(position int, typ reflect.Type, err error) *Error {
	e := &Error{Position: position, Type: typ, Kind: DecodeFailure, Err: err}
	var ke kindError
	var nested *Error
	switch {
	case errors.As(err, &nested):
		e.Kind = nested.Kind
	case errors.As(err, &ke):
		e.Kind = ke.kind
		if top, ok := err.(kindError); ok {
			e.Err = top.err
		}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		e.Kind = Canceled
	}
	return e
}
