package storage

import (
	"errors"
	"fmt"
)

// Kind classifies content store failures into a closed set.
type Kind int

const (
	KindUnavailable Kind = iota
	KindNotFound
	KindRateLimited
	KindConflict
	KindUnauthorized
	KindMalformed
)

var (
	ErrUnavailable  = errors.New("content store unavailable")
	ErrNotFound     = errors.New("object not found")
	ErrRateLimited  = errors.New("rate limit exceeded")
	ErrConflict     = errors.New("object changed concurrently")
	ErrUnauthorized = errors.New("unauthorized")
	ErrMalformed    = errors.New("unexpected response shape")
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindRateLimited:
		return "rate_limited"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindMalformed:
		return "malformed"
	default:
		return "unavailable"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindRateLimited:
		return ErrRateLimited
	case KindConflict:
		return ErrConflict
	case KindUnauthorized:
		return ErrUnauthorized
	case KindMalformed:
		return ErrMalformed
	default:
		return ErrUnavailable
	}
}

// Error is the only error type returned by ContentStore implementations.
type Error struct {
	Kind       Kind
	Op         string
	Path       string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Kind.sentinel())
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of the error's kind, so errors.Is(err, ErrNotFound) works.
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// KindOf returns the kind of a store error. Nil and foreign errors report KindUnavailable.
func KindOf(err error) Kind {
	var storeErr *Error
	if errors.As(err, &storeErr) {
		return storeErr.Kind
	}
	return KindUnavailable
}

func newError(kind Kind, op, objectPath string, status int, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: objectPath, StatusCode: status, Err: err}
}
