// File: cqlerr/cqlerr.go
// Author: momentics <momentics@gmail.com>
//
// Error values a Worker sees back from a Reporter: either a decoded
// server-side CqlError, or one of the driver's own sentinel conditions
// (ran out of streams, lost the connection mid-request, no ring to
// route through). Plain sentinels plus one wrapping type, matching the
// teacher's api/errors.go convention rather than a third-party
// error-wrapping library.
package cqlerr

import (
	"errors"
	"fmt"

	"github.com/nativecql/corecql/cql"
)

// ErrOverload is returned to a Worker when a Reporter has no free
// stream id left to assign the request.
var ErrOverload = errors.New("cqlerr: reporter overloaded, no free stream ids")

// ErrLost is returned to every in-flight Worker when a Stage's
// connection is torn down before a response arrives.
var ErrLost = errors.New("cqlerr: connection lost while request was in flight")

// ErrNoRing is returned when a request is issued before any Ring
// snapshot has been published (no node to route to yet).
var ErrNoRing = errors.New("cqlerr: no ring snapshot available")

// ServerError wraps a decoded CQL ERROR frame, letting callers use
// errors.As to recover the structured CqlError.
type ServerError struct {
	Err *cql.CqlError
}

// NewServerError wraps a decoded CqlError.
func NewServerError(e *cql.CqlError) *ServerError {
	return &ServerError{Err: e}
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("cqlerr: server error: %s", e.Err.Error())
}

// Unwrap exposes the underlying *cql.CqlError to errors.Is/errors.As.
func (e *ServerError) Unwrap() error { return e.Err }

// Retryable reports whether the error taxonomy in spec.md §7 says this
// error is safe to retry: Overloaded, WriteTimeout, ReadTimeout, and
// UnavailableException are transient; everything else (syntax errors,
// auth failures, already-exists, function failures, ...) is not.
func Retryable(err error) bool {
	if errors.Is(err, ErrOverload) {
		return true
	}
	var se *ServerError
	if errors.As(err, &se) {
		switch se.Err.Code {
		case cql.ErrOverloaded, cql.ErrWriteTimeout, cql.ErrReadTimeout, cql.ErrUnavailableException:
			return true
		default:
			return false
		}
	}
	return false
}

// Unprepared reports whether err is an UNPREPARED server error, and
// returns the unknown statement id if so.
func Unprepared(err error) (id [16]byte, ok bool) {
	var se *ServerError
	if errors.As(err, &se) && se.Err.Code == cql.ErrUnprepared && se.Err.UnpreparedErr != nil {
		return se.Err.UnpreparedErr.ID, true
	}
	return id, false
}
