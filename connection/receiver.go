// File: connection/receiver.go
// Author: momentics <momentics@gmail.com>
//
// Receiver owns the socket's read half: it decodes one frame at a
// time, decompresses it if needed, and either delivers it to the
// Reporter (by stream id) or, for stream 0, to an optional EventSink.
// This driver never sends REGISTER, so a server pushes no EVENT frames
// to it; any stream-0 frame that does arrive goes to the sink, or is
// logged and discarded when no sink is set.
package connection

import (
	"fmt"
	"io"

	"github.com/nativecql/corecql/compression"
	"github.com/nativecql/corecql/cql"
)

// EventSink receives a decoded EVENT frame's body. A nil sink means
// inbound EVENT frames are logged and discarded.
type EventSink func(body []byte)

// Receiver reads frames off r until a read error or Close.
type Receiver struct {
	r         io.Reader
	algorithm compression.Algorithm
	reporter  *Reporter
	onEvent   EventSink
}

// NewReceiver builds a Receiver reading frames from r, decompressing
// with algorithm, and delivering them to reporter. onEvent may be nil.
func NewReceiver(r io.Reader, algorithm compression.Algorithm, reporter *Reporter, onEvent EventSink) *Receiver {
	return &Receiver{r: r, algorithm: algorithm, reporter: reporter, onEvent: onEvent}
}

// Run reads frames until the underlying reader returns an error (EOF
// on a graceful close, or a network error), then returns that error.
// Intended to run on its own goroutine; the caller is responsible for
// calling Reporter.Shutdown once Run returns.
func (r *Receiver) Run() error {
	header := make([]byte, cql.HeaderLen)
	for {
		if _, err := io.ReadFull(r.r, header); err != nil {
			return fmt.Errorf("connection: reading frame header: %w", err)
		}
		h, err := cql.DecodeHeader(header)
		if err != nil {
			return err
		}
		frame := make([]byte, cql.HeaderLen+int(h.Length))
		copy(frame, header)
		if h.Length > 0 {
			if _, err := io.ReadFull(r.r, frame[cql.HeaderLen:]); err != nil {
				return fmt.Errorf("connection: reading frame body (stream %d): %w", h.Stream, err)
			}
		}
		if h.Compressed() {
			frame, err = r.algorithm.Decompress(frame)
			if err != nil {
				return fmt.Errorf("connection: decompressing frame (stream %d): %w", h.Stream, err)
			}
		}
		if h.Stream == cql.EventStreamID {
			r.dispatchEvent(frame)
			continue
		}
		r.reporter.DeliverResponse(h.Stream, frame)
	}
}

func (r *Receiver) dispatchEvent(frame []byte) {
	body := frame[cql.HeaderLen:]
	if r.onEvent != nil {
		r.onEvent(body)
		return
	}
	log.Infof("discarding EVENT frame with no registered sink (%d bytes)", len(body))
}
