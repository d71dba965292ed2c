// File: connection/sender.go
// Author: momentics <momentics@gmail.com>
//
// Sender owns the socket's write half. A Reporter calls Send directly
// (synchronously, from its own goroutine) rather than handing work
// across another channel: the Rust reference forwards a stream id to
// a separate Sender actor only because its payload lives in a shared
// array it must not race on; here the payload is an ordinary Go slice
// passed by value into Send, so no extra indirection is needed.
package connection

import (
	"io"
	"sync"
)

// Sender serializes writes to a single connection.
type Sender struct {
	mu sync.Mutex
	w  io.Writer
}

// NewSender wraps w for serialized writes.
func NewSender(w io.Writer) *Sender {
	return &Sender{w: w}
}

// Send writes frame in full, serialized against concurrent callers.
func (s *Sender) Send(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.w.Write(frame)
	return err
}
