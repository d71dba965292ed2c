// File: connection/connection.go
// Author: momentics <momentics@gmail.com>
//
// Connection bundles one dialed, handshaken socket with its
// Sender/Receiver/Reporter trio and the compression algorithm
// negotiated for it at construction. Stage owns the dial and
// handshake; Connection owns everything after READY.
package connection

import (
	"github.com/nativecql/corecql/api"
	"github.com/nativecql/corecql/compression"
)

// Config controls a Connection's internal sizing, set once by Stage at
// construction and never mutated afterward (the open-question
// resolution for the Rust reference's process-wide compression global:
// here it is a plain immutable field instead).
type Config struct {
	// StreamPoolSize bounds how many requests this connection can have
	// in flight at once (streams 1..StreamPoolSize; 0 is reserved for
	// EVENT frames).
	StreamPoolSize int

	// InboxDepth sizes the Reporter's event channel.
	InboxDepth int

	// Algorithm is the frame body compression negotiated during
	// STARTUP. compression.Uncompressed{} if none was negotiated.
	Algorithm compression.Algorithm

	// OnEvent receives pushed EVENT frame bodies, or nil to discard them.
	OnEvent EventSink
}

// Connection is one live, authenticated CQL socket.
type Connection struct {
	conn     api.NetConn
	sender   *Sender
	receiver *Receiver
	reporter *Reporter

	done chan struct{}
}

// New wraps an already-handshaken socket (STARTUP/AUTH/READY already
// completed by Stage) with its Sender/Receiver/Reporter. Run must be
// called to start processing.
func New(conn api.NetConn, cfg Config) *Connection {
	sender := NewSender(conn)
	reporter := NewReporter(cfg.StreamPoolSize, cfg.InboxDepth, sender.Send, cfg.Algorithm)
	receiver := NewReceiver(conn, cfg.Algorithm, reporter, cfg.OnEvent)
	return &Connection{
		conn:     conn,
		sender:   sender,
		receiver: receiver,
		reporter: reporter,
		done:     make(chan struct{}),
	}
}

// Handle returns the handle Workers use to submit requests.
func (c *Connection) Handle() *ReporterHandle { return c.reporter.Handle() }

// Run starts the Reporter's event loop on the calling goroutine and the
// Receiver's read loop on a new goroutine; it returns once the
// Reporter has drained and shut down (either because Close was called,
// forcing the Receiver to error out, or because the Receiver itself
// hit a fatal read error).
func (c *Connection) Run() {
	go func() {
		_ = c.receiver.Run()
		// A receive error (including the one caused by our own Close)
		// means the socket is no longer usable; fail every in-flight
		// worker and stop the Reporter.
		c.reporter.Shutdown()
	}()
	c.reporter.Run()
	close(c.done)
}

// Done is closed once Run has returned.
func (c *Connection) Done() <-chan struct{} { return c.done }

// Submit hands payload (a fully built, framed request with stream id 0
// as a placeholder) to the Reporter for dispatch; worker receives the
// eventual response or error. Returns false if the connection has
// already shut down.
func (c *Connection) Submit(worker Worker, payload []byte) bool {
	return c.reporter.Handle().Send(RequestEvent(worker, payload))
}

// Close tears down the underlying socket, which causes the Receiver's
// next read to fail and Run to return.
func (c *Connection) Close() error {
	return c.conn.Close()
}
