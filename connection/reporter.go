// File: connection/reporter.go
// Author: momentics <momentics@gmail.com>
//
// Reporter owns the free stream-id list, the map of in-flight workers,
// and decides what happens to a Request/Response/Err/Shutdown event.
// It is the Go goroutine-and-channel equivalent of the Rust actor in
// app/stage/reporter/mod.rs: every mutation of streams/pending below
// happens only on the Reporter's own goroutine, so none of it needs a
// lock.
package connection

import (
	"github.com/nativecql/corecql/compression"
	"github.com/nativecql/corecql/cql"
	"github.com/nativecql/corecql/cqlerr"
	"github.com/nativecql/corecql/internal/clog"
	"github.com/nativecql/corecql/pool"
)

var log = clog.New("connection")

type reporterEventKind int

const (
	eventRequest reporterEventKind = iota
	eventResponse
	eventErr
	eventShutdown
)

// ReporterEvent is the Reporter inbox's single message type, tagged by
// kind; only the fields relevant to that kind are populated.
type ReporterEvent struct {
	kind reporterEventKind

	worker  Worker
	payload []byte // Request: the frame to send. Response: the frame received.
	stream  int16
	err     error
}

// RequestEvent builds a Request event: assign a stream, send payload,
// register worker to receive the eventual response.
func RequestEvent(worker Worker, payload []byte) ReporterEvent {
	return ReporterEvent{kind: eventRequest, worker: worker, payload: payload}
}

func responseEvent(stream int16, frame []byte) ReporterEvent {
	return ReporterEvent{kind: eventResponse, stream: stream, payload: frame}
}

func errEvent(stream int16, err error) ReporterEvent {
	return ReporterEvent{kind: eventErr, stream: stream, err: err}
}

func shutdownEvent() ReporterEvent {
	return ReporterEvent{kind: eventShutdown}
}

// ReporterHandle is the send-only view of a Reporter's inbox, handed
// out to Workers and to the Sender/Receiver goroutines that feed it.
type ReporterHandle struct {
	inbox chan ReporterEvent
}

// Send enqueues ev. Returns false if the Reporter has already shut
// down and stopped accepting new events.
func (h *ReporterHandle) Send(ev ReporterEvent) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	h.inbox <- ev
	return true
}

type pendingRequest struct {
	worker  Worker
	payload []byte
}

// Reporter assigns stream ids to requests, routes responses and errors
// back to the Worker that issued them, and on Shutdown fails every
// still-in-flight Worker with cqlerr.ErrLost.
type Reporter struct {
	handle    *ReporterHandle
	streams   *pool.RingBuffer[int16]
	pending   map[int16]pendingRequest
	send      func([]byte) error
	algorithm compression.Algorithm
}

// NewReporter builds a Reporter with streamPoolSize usable stream ids
// (stream 0 is never handed out — cql.EventStreamID is reserved for
// pushed EVENT frames). send is called on the Reporter's own goroutine
// to hand a fully framed request to the connection's write half.
// algorithm compresses each outbound request before it reaches send;
// compression.Uncompressed{} leaves the body untouched.
func NewReporter(streamPoolSize int, inboxDepth int, send func([]byte) error, algorithm compression.Algorithm) *Reporter {
	streams := pool.NewRingBuffer[int16](uint64(streamPoolSize + 1))
	for s := 1; s <= streamPoolSize; s++ {
		streams.Enqueue(int16(s))
	}
	return &Reporter{
		handle:    &ReporterHandle{inbox: make(chan ReporterEvent, inboxDepth)},
		streams:   streams,
		pending:   make(map[int16]pendingRequest, streamPoolSize),
		send:      send,
		algorithm: algorithm,
	}
}

// Handle returns the Reporter's inbox handle.
func (r *Reporter) Handle() *ReporterHandle { return r.handle }

// Run drains the inbox until a Shutdown event is processed, then fails
// every still-pending Worker with cqlerr.ErrLost (force_consistency).
// Intended to run on its own goroutine.
func (r *Reporter) Run() {
	for ev := range r.handle.inbox {
		switch ev.kind {
		case eventRequest:
			r.handleRequest(ev.worker, ev.payload)
		case eventResponse:
			r.handleResponse(ev.stream, ev.payload)
		case eventErr:
			r.handleErr(ev.stream, ev.err)
		case eventShutdown:
			r.forceConsistency()
			close(r.handle.inbox)
			return
		}
	}
	r.forceConsistency()
}

// Shutdown requests that Run drain remaining work and return.
func (r *Reporter) Shutdown() { r.handle.Send(shutdownEvent()) }

// DeliverResponse is called by the Receiver goroutine for every frame
// read off the wire.
func (r *Reporter) DeliverResponse(stream int16, frame []byte) {
	r.handle.Send(responseEvent(stream, frame))
}

// DeliverErr enqueues err for the Worker waiting on stream. Nothing in
// this package calls it: a failed write is handled inside the Reporter,
// and a failed read ends Receiver.Run.
func (r *Reporter) DeliverErr(stream int16, err error) {
	r.handle.Send(errEvent(stream, err))
}

func (r *Reporter) handleRequest(worker Worker, payload []byte) {
	stream, ok := r.streams.Dequeue()
	if !ok {
		if err := worker.HandleError(cqlerr.ErrOverload, nil); err != nil {
			log.Errorf("overloaded worker failed to handle its own overload: %v", err)
		}
		return
	}
	assignStreamToPayload(stream, payload)
	r.pending[stream] = pendingRequest{worker: worker, payload: payload}

	out := payload
	if r.algorithm != nil {
		compressedPayload, err := r.algorithm.Compress(payload)
		if err != nil {
			r.handleErr(stream, err)
			return
		}
		out = compressedPayload
	}
	if err := r.send(out); err != nil {
		r.handleErr(stream, err)
	}
}

func (r *Reporter) handleResponse(stream int16, frame []byte) {
	req, ok := r.pending[stream]
	if !ok {
		log.Errorf("no worker found while handling response for stream %d", stream)
		return
	}
	delete(r.pending, stream)
	r.streams.Enqueue(stream)

	body := frame[cql.HeaderLen:]
	var err error
	if cql.IsCqlError(frame) {
		cqlErr, decodeErr := cql.DecodeCqlError(body)
		if decodeErr != nil {
			err = req.worker.HandleError(decodeErr, r.handle)
		} else {
			err = req.worker.HandleError(cqlerr.NewServerError(cqlErr), r.handle)
		}
	} else {
		err = req.worker.HandleResponse(body)
	}
	if err != nil {
		log.Errorf("worker failed to handle response for stream %d: %v", stream, err)
	}
}

func (r *Reporter) handleErr(stream int16, cause error) {
	req, ok := r.pending[stream]
	if !ok {
		log.Errorf("no worker found while handling error for stream %d: %v", stream, cause)
		return
	}
	delete(r.pending, stream)
	r.streams.Enqueue(stream)
	if err := req.worker.HandleError(cause, r.handle); err != nil {
		log.Errorf("worker failed to handle error for stream %d: %v", stream, err)
	}
}

// forceConsistency fails every still-pending Worker with cqlerr.ErrLost,
// mirroring the Rust reference's behavior when the connection drops
// mid-request.
func (r *Reporter) forceConsistency() {
	for stream, req := range r.pending {
		delete(r.pending, stream)
		r.streams.Enqueue(stream)
		if err := req.worker.HandleError(cqlerr.ErrLost, r.handle); err != nil {
			log.Errorf("worker failed to handle lost connection for stream %d: %v", stream, err)
		}
	}
}

// assignStreamToPayload writes stream into the frame header's stream
// field (bytes 2-3), the same fixup the Rust reference applies after
// popping a stream id, since the builder that produced payload encoded
// a placeholder stream of 0.
func assignStreamToPayload(stream int16, payload []byte) {
	payload[2] = byte(stream >> 8)
	payload[3] = byte(stream)
}
