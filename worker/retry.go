// File: worker/retry.go
// Author: momentics <momentics@gmail.com>
//
// RetryableWorker is the connection.Worker implementation every
// request issued by this driver actually uses: it decodes a successful
// response with a Marker[T], retries a transient failure by resending
// itself through a caller-supplied Resend, and recovers transparently
// from an UNPREPARED error by repreparing the statement and resending
// on the same connection that reported it — the Go shape of the
// reference driver's AnyWorker/BasicRetryWorker pair plus
// handle_unprepared_error, collapsed into one generic type since Go has
// no macro-generated per-query worker types to keep separate.
package worker

import (
	"context"
	"fmt"

	"github.com/nativecql/corecql/connection"
	"github.com/nativecql/corecql/cql"
	"github.com/nativecql/corecql/cqlerr"
	"github.com/nativecql/corecql/internal/clog"
)

var log = clog.New("worker")

// Resend resubmits worker with payload, the same shape as
// Connection.Submit, letting a RetryableWorker retry without knowing
// whether it's resubmitted to the same Stage or routed to a different
// replica by a ring-aware caller.
type Resend func(worker connection.Worker, payload []byte) bool

// StatementSource resolves a prepared statement id (surfaced by an
// UNPREPARED server error) back to its CQL text, so a RetryableWorker
// can reprepare it transparently instead of surfacing the error.
type StatementSource interface {
	StatementByID(id [16]byte) (string, bool)
}

// Result is the terminal outcome of a RetryableWorker: either the
// Marker's decoded value, or the error that ended retries.
type Result[T any] struct {
	Value T
	Err   error
}

// RetryableWorker decodes its eventual response with Marker, retrying
// up to Retries times on a transient error (per cqlerr.Retryable) and
// recovering from every UNPREPARED error without spending the retry
// budget, since repreparing isn't a "failed attempt" in the same sense.
type RetryableWorker[T any] struct {
	payload    []byte
	marker     Marker[T]
	retries    int
	resend     Resend
	statements StatementSource
	result     chan Result[T]
}

// NewRetryableWorker builds a RetryableWorker for payload (a fully
// built, framed request with a placeholder stream id), decoding its
// response with marker. resend and statements may be nil: nil resend
// disables retry (a Retries budget with no way to resend is never
// consumed); nil statements means an UNPREPARED error surfaces as a
// plain error instead of being recovered.
func NewRetryableWorker[T any](payload []byte, marker Marker[T], retries int, resend Resend, statements StatementSource) *RetryableWorker[T] {
	return &RetryableWorker[T]{
		payload:    payload,
		marker:     marker,
		retries:    retries,
		resend:     resend,
		statements: statements,
		result:     make(chan Result[T], 1),
	}
}

// NewBasicWorker builds a RetryableWorker with no retry budget and no
// UNPREPARED recovery — the simplest Worker, used for one-shot requests
// like a PREPARE itself where resending on failure isn't meaningful.
func NewBasicWorker[T any](payload []byte, marker Marker[T]) *RetryableWorker[T] {
	return NewRetryableWorker(payload, marker, 0, nil, nil)
}

// Result returns the channel the worker's terminal outcome is
// delivered on, exactly once.
func (w *RetryableWorker[T]) Result() <-chan Result[T] { return w.result }

// Await blocks for the worker's terminal outcome or ctx's cancellation,
// whichever comes first.
func (w *RetryableWorker[T]) Await(ctx context.Context) (T, error) {
	select {
	case r := <-w.result:
		return r.Value, r.Err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// HandleResponse decodes body with Marker and delivers the result.
func (w *RetryableWorker[T]) HandleResponse(body []byte) error {
	value, err := w.marker.Decode(body)
	w.result <- Result[T]{Value: value, Err: err}
	return err
}

// HandleError recovers from an UNPREPARED error if a StatementSource
// is configured, otherwise retries a transient error up to the retry
// budget, otherwise delivers err as the terminal outcome.
func (w *RetryableWorker[T]) HandleError(err error, reporter *connection.ReporterHandle) error {
	if id, ok := cqlerr.Unprepared(err); ok && reporter != nil {
		return w.handleUnprepared(id, reporter)
	}
	if w.retries > 0 && cqlerr.Retryable(err) {
		w.retries--
		if w.resend != nil && w.resend(w, w.payload) {
			return nil
		}
	}
	w.result <- Result[T]{Err: err}
	return nil
}

func (w *RetryableWorker[T]) handleUnprepared(id [16]byte, reporter *connection.ReporterHandle) error {
	if w.statements == nil {
		w.result <- Result[T]{Err: fmt.Errorf("worker: unprepared statement %x with no statement source configured", id)}
		return nil
	}
	statement, ok := w.statements.StatementByID(id)
	if !ok {
		w.result <- Result[T]{Err: fmt.Errorf("worker: unprepared statement %x: no matching statement registered", id)}
		return nil
	}
	prep := NewPrepareWorker(statement)
	reporter.Send(connection.RequestEvent(prep, prep.Frame()))
	reporter.Send(connection.RequestEvent(w, w.payload))
	return nil
}

// PrepareWorker issues a bare PREPARE and discards the response: used
// both standalone and as the fire-and-forget reprepare step
// RetryableWorker issues alongside resending the original request —
// the original request isn't held back waiting for this to complete,
// matching the reference driver's handle_unprepared_error.
type PrepareWorker struct {
	Statement string
}

// NewPrepareWorker builds a PrepareWorker for statement.
func NewPrepareWorker(statement string) *PrepareWorker {
	return &PrepareWorker{Statement: statement}
}

// Frame builds the framed PREPARE request for Statement, stream id 0 as
// a placeholder the Reporter assigns on submit.
func (w *PrepareWorker) Frame() []byte {
	body := cql.EncodePrepare(w.Statement)
	frame := make([]byte, cql.HeaderLen+len(body))
	cql.EncodeHeader(frame, 0, cql.OpPrepare, int32(len(body)))
	copy(frame[cql.HeaderLen:], body)
	return frame
}

func (w *PrepareWorker) HandleResponse(body []byte) error {
	res, err := cql.DecodeResult(body)
	if err != nil {
		return err
	}
	if res.Kind != cql.ResultPrepared {
		return fmt.Errorf("worker: expected Prepared result for %q, got kind %#x", w.Statement, res.Kind)
	}
	return nil
}

func (w *PrepareWorker) HandleError(err error, _ *connection.ReporterHandle) error {
	log.Errorf("failed to reprepare %q: %v", w.Statement, err)
	return nil
}
