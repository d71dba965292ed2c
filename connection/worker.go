// File: connection/worker.go
// Author: momentics <momentics@gmail.com>
//
// Worker is the contract a Reporter dispatches a response or failure
// to, defined here (rather than in the worker package) so Reporter
// never needs to import the concrete worker implementations — the
// same inversion the teacher's api package uses for Ring/Affinity/
// NetConn.
package connection

// Worker receives the outcome of exactly one in-flight request.
// Implementations must be safe to hand off across goroutines: a
// Reporter calls HandleResponse/HandleError from its own goroutine,
// never the caller's.
type Worker interface {
	// HandleResponse is called once with the raw RESULT frame body
	// when the server answers the request this Worker was registered
	// for.
	HandleResponse(payload []byte) error

	// HandleError is called instead of HandleResponse when the
	// request failed: a decoded *cqlerr.ServerError, one of
	// cqlerr.ErrOverload/ErrLost/ErrNoRing, or an error from compressing,
	// writing or decoding the frame. reporter is nil when the error
	// originates before a stream was ever assigned.
	HandleError(err error, reporter *ReporterHandle) error
}
