// Package apperr classifies failures into a closed set of kinds so callers
// can decide retry eligibility and HTTP status without matching on messages.
package apperr

import (
	"errors"
)

// Kind identifies the class of a failure.
type Kind uint8

const (
	Unknown Kind = iota
	Fetch
	Summarization
	Overloaded
	Synthesis
	Validation
	Agent
)

func (k Kind) String() string {
	switch k {
	case Fetch:
		return "fetch"
	case Summarization:
		return "summarization"
	case Overloaded:
		return "overloaded"
	case Synthesis:
		return "synthesis"
	case Validation:
		return "validation"
	case Agent:
		return "agent"
	default:
		return "unknown"
	}
}

// Retryable reports whether a failure of this kind is transient upstream
// congestion worth backing off and trying again.
func (k Kind) Retryable() bool { return k == Overloaded }

// Error attaches a Kind to an underlying error. The message is the
// underlying message, optionally prefixed by Op.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	msg := "<nil>"
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// E wraps err with kind. A nil err yields nil.
func E(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// Op wraps err with kind and an operation prefix.
func Op(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// New builds a kinded error from a message.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Err: errors.New(msg)}
}

// KindOf returns the kind of the outermost classified error in the chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Is reports whether err carries kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}

// IsRetryable reports whether err is eligible for backoff retry.
func IsRetryable(err error) bool {
	return Is(err, Overloaded)
}
