package stage

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/nativecql/corecql/cql"
)

// fakeServer drives the handshake side of net.Pipe: OPTIONS -> SUPPORTED,
// STARTUP -> READY or AUTHENTICATE, and then idles serving a Reporter's
// QUERY requests with an immediate Void result, until closed.
func fakeServer(t *testing.T, conn net.Conn, requireAuth bool) {
	t.Helper()
	readHeader := func() (cql.Header, []byte, error) {
		hbuf := make([]byte, cql.HeaderLen)
		if _, err := io.ReadFull(conn, hbuf); err != nil {
			return cql.Header{}, nil, err
		}
		h, err := cql.DecodeHeader(hbuf)
		if err != nil {
			return cql.Header{}, nil, err
		}
		body := make([]byte, h.Length)
		if _, err := io.ReadFull(conn, body); err != nil {
			return cql.Header{}, nil, err
		}
		return h, body, nil
	}
	writeFrame := func(stream int16, opcode cql.Opcode, body []byte) error {
		frame := make([]byte, cql.HeaderLen+len(body))
		cql.EncodeHeader(frame, stream, opcode, int32(len(body)))
		copy(frame[cql.HeaderLen:], body)
		_, err := conn.Write(frame)
		return err
	}

	h, _, err := readHeader()
	if err != nil || h.Opcode != cql.OpOptions {
		t.Errorf("expected OPTIONS, got %+v err=%v", h, err)
		return
	}
	var buf []byte
	buf = cql.WriteShort(buf, 1)
	buf = cql.WriteString(buf, "CQL_VERSION")
	buf = cql.WriteStringList(buf, []string{"3.0.0"})
	if err := writeFrame(0, cql.OpSupported, buf); err != nil {
		t.Errorf("write SUPPORTED: %v", err)
		return
	}

	h, _, err = readHeader()
	if err != nil || h.Opcode != cql.OpStartup {
		t.Errorf("expected STARTUP, got %+v err=%v", h, err)
		return
	}

	if requireAuth {
		authBody := cql.WriteLongString(nil, "org.apache.cassandra.auth.PasswordAuthenticator")
		if err := writeFrame(0, cql.OpAuthenticate, authBody); err != nil {
			t.Errorf("write AUTHENTICATE: %v", err)
			return
		}
		h, _, err = readHeader()
		if err != nil || h.Opcode != cql.OpAuthResponse {
			t.Errorf("expected AUTH_RESPONSE, got %+v err=%v", h, err)
			return
		}
		if err := writeFrame(0, cql.OpAuthSuccess, cql.WriteBytes(nil, nil)); err != nil {
			t.Errorf("write AUTH_SUCCESS: %v", err)
			return
		}
	} else {
		if err := writeFrame(0, cql.OpReady, nil); err != nil {
			t.Errorf("write READY: %v", err)
			return
		}
	}

	// Serve a single QUERY with an immediate Void result so Connection's
	// goroutines have something to exercise after the handshake.
	h, _, err = readHeader()
	if err != nil {
		return
	}
	if h.Opcode == cql.OpQuery {
		respBody := cql.WriteInt(nil, cql.ResultVoid)
		_ = writeFrame(h.Stream, cql.OpResult, respBody)
	}
}

func TestStageHandshakeReady(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	done := make(chan struct{})
	go func() {
		fakeServer(t, serverConn, false)
		close(done)
	}()

	s := New(Config{
		Address: "ignored",
		Dial: func(ctx context.Context, address string) (net.Conn, error) {
			return clientConn, nil
		},
		StreamPoolSize: 4,
		InboxDepth:     4,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)

	deadline := time.After(2 * time.Second)
	for s.Handle() == nil {
		select {
		case <-deadline:
			t.Fatal("stage never published a handle")
		case <-time.After(5 * time.Millisecond):
		}
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("fake server handshake never completed")
	}

	cancel()
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("stage never shut down after context cancel")
	}
}

func TestStageHandshakeWithAuthentication(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	done := make(chan struct{})
	go func() {
		fakeServer(t, serverConn, true)
		close(done)
	}()

	s := New(Config{
		Address:       "ignored",
		Authenticator: PlainTextAuthenticator("user", "pass"),
		Dial: func(ctx context.Context, address string) (net.Conn, error) {
			return clientConn, nil
		},
		StreamPoolSize: 4,
		InboxDepth:     4,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("authenticated handshake never completed")
	}
	if s.Handle() == nil {
		t.Fatal("expected a published handle after authenticated handshake")
	}
}

func TestStageFailsWithoutConfiguredAuthenticator(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	go func() {
		h, _, err := func() (cql.Header, []byte, error) {
			hbuf := make([]byte, cql.HeaderLen)
			if _, err := io.ReadFull(serverConn, hbuf); err != nil {
				return cql.Header{}, nil, err
			}
			hh, err := cql.DecodeHeader(hbuf)
			return hh, nil, err
		}()
		_ = h
		_ = err
		var buf []byte
		buf = cql.WriteShort(buf, 0)
		frame := make([]byte, cql.HeaderLen+len(buf))
		cql.EncodeHeader(frame, 0, cql.OpSupported, int32(len(buf)))
		copy(frame[cql.HeaderLen:], buf)
		serverConn.Write(frame)

		hbuf := make([]byte, cql.HeaderLen)
		io.ReadFull(serverConn, hbuf)
		hh, _ := cql.DecodeHeader(hbuf)
		body := make([]byte, hh.Length)
		io.ReadFull(serverConn, body)

		authBody := cql.WriteLongString(nil, "org.apache.cassandra.auth.PasswordAuthenticator")
		authFrame := make([]byte, cql.HeaderLen+len(authBody))
		cql.EncodeHeader(authFrame, 0, cql.OpAuthenticate, int32(len(authBody)))
		copy(authFrame[cql.HeaderLen:], authBody)
		serverConn.Write(authFrame)
	}()

	s := New(Config{
		Address: "ignored",
		Dial: func(ctx context.Context, address string) (net.Conn, error) {
			return clientConn, nil
		},
		ConnectTimeout: 200 * time.Millisecond,
		MaxBackoff:     10 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	s.Run(ctx)

	if s.Handle() != nil {
		t.Fatal("expected no published handle when authentication is required but unconfigured")
	}
}
