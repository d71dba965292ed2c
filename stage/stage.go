// File: stage/stage.go
// Author: momentics <momentics@gmail.com>
//
// Stage owns one shard's connection lifecycle: dial, STARTUP/AUTH
// handshake, fork Sender/Receiver/Reporter, and publish the Reporter
// handle for Workers to submit against. When the connection drops,
// Stage redials with backoff until its context is canceled, the same
// supervised-retry role the teacher's WebSocketClient.connect() plays
// for a WebSocket endpoint.
package stage

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/nativecql/corecql/compression"
	"github.com/nativecql/corecql/connection"
	"github.com/nativecql/corecql/cql"
	"github.com/nativecql/corecql/internal/clog"
	"github.com/nativecql/corecql/metrics"
	"github.com/nativecql/corecql/shard"
	"golang.org/x/time/rate"
)

var log = clog.New("stage")

// Authenticator answers an AUTHENTICATE challenge for the named
// IAuthenticator class with a SASL response token. A nil Authenticator
// fails the handshake if the server requests one.
type Authenticator func(authenticatorClass string) ([]byte, error)

// PlainTextAuthenticator builds the SASL PLAIN token
// org.apache.cassandra.auth.PasswordAuthenticator expects:
// "\x00"+user+"\x00"+pass.
func PlainTextAuthenticator(user, pass string) Authenticator {
	return func(string) ([]byte, error) {
		return []byte("\x00" + user + "\x00" + pass), nil
	}
}

// Dialer opens the raw connection a Stage then handshakes over. nil
// defaults to a plain net.Dialer against "tcp".
type Dialer func(ctx context.Context, address string) (net.Conn, error)

// Config controls how a Stage dials and maintains its connection.
type Config struct {
	// Address is the "host:port" to dial.
	Address string

	// ShardID and NrShards identify which Scylla shard this Stage
	// speaks for, used for affinity pinning and logging; routing
	// decisions based on them live in the ring/cluster layer above.
	ShardID  int
	NrShards int

	// CQLVersion advertised in STARTUP; defaults to "3.0.0".
	CQLVersion string

	// Compression is the preferred STARTUP COMPRESSION option ("",
	// "lz4", or "snappy"). Only used if the server's SUPPORTED options
	// advertise it; falls back to no compression otherwise.
	Compression string

	// Authenticator answers AUTHENTICATE, if the server issues one.
	Authenticator Authenticator

	StreamPoolSize int
	InboxDepth     int

	ConnectTimeout time.Duration
	MaxBackoff     time.Duration

	// PinAffinity pins the connection's Run goroutine to ShardID's CPU
	// via shard.PinCurrentThread, for shard-aware cache locality.
	PinAffinity bool

	// OnEvent receives pushed EVENT frame bodies, or nil to discard them.
	OnEvent connection.EventSink

	Dial Dialer

	// Metrics, if set, records redial attempts against Address. nil
	// disables recording.
	Metrics *metrics.Collector
}

func (c *Config) setDefaults() {
	if c.CQLVersion == "" {
		c.CQLVersion = "3.0.0"
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	if c.MaxBackoff == 0 {
		c.MaxBackoff = 30 * time.Second
	}
	if c.StreamPoolSize == 0 {
		c.StreamPoolSize = 32767
	}
	if c.InboxDepth == 0 {
		c.InboxDepth = 256
	}
	if c.Dial == nil {
		c.Dial = func(ctx context.Context, address string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "tcp", address)
		}
	}
}

// Stage is one shard connection's supervisor: Run dials, handshakes,
// serves, and redials on failure until its context is canceled.
type Stage struct {
	cfg     Config
	handle  atomic.Pointer[connection.ReporterHandle]
	limiter *rate.Limiter
	done    chan struct{}

	// compression is the COMPRESSION option the last STARTUP announced.
	compression string
}

// New builds a Stage. Run must be called to start dialing.
func New(cfg Config) *Stage {
	cfg.setDefaults()
	return &Stage{
		cfg: cfg,
		// One reconnect attempt per 100ms at most, bursts of 1 — a
		// flapping node gets backoff-paced redials instead of a tight
		// loop burning a goroutine.
		limiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 1),
		done:    make(chan struct{}),
	}
}

// Handle returns the current live connection's ReporterHandle, or nil
// if no handshake has completed yet (freshly constructed, or between a
// drop and the next successful redial).
func (s *Stage) Handle() *connection.ReporterHandle { return s.handle.Load() }

// Done is closed once Run has returned.
func (s *Stage) Done() <-chan struct{} { return s.done }

// Run dials, handshakes, and serves the connection until ctx is
// canceled, redialing after every drop and retrying a failed dial or
// handshake with exponential backoff (capped at cfg.MaxBackoff); every
// attempt is also paced by the rate limiter. Intended to run on its own
// goroutine; returns when ctx is canceled.
func (s *Stage) Run(ctx context.Context) {
	defer close(s.done)
	attempt := 0
	for {
		if ctx.Err() != nil {
			return
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return
		}

		if s.cfg.Metrics != nil {
			s.cfg.Metrics.ObserveStageReconnect(s.cfg.Address)
		}
		conn, err := s.dialAndHandshake(ctx)
		if err != nil {
			attempt++
			backoff := backoffFor(attempt, s.cfg.MaxBackoff)
			log.Warnf("%s shard %d: handshake failed, retrying in %s: %v", s.cfg.Address, s.cfg.ShardID, backoff, err)
			select {
			case <-time.After(backoff):
				continue
			case <-ctx.Done():
				return
			}
		}
		attempt = 0

		c := connection.New(conn, connection.Config{
			StreamPoolSize: s.cfg.StreamPoolSize,
			InboxDepth:     s.cfg.InboxDepth,
			Algorithm:      algorithmFor(s.compression),
			OnEvent:        s.cfg.OnEvent,
		})
		s.handle.Store(c.Handle())

		connDone := make(chan struct{})
		go func() {
			if s.cfg.PinAffinity {
				if err := shard.PinCurrentThread(s.cfg.ShardID); err != nil {
					log.Warnf("shard %d affinity pin failed: %v", s.cfg.ShardID, err)
				}
			}
			c.Run()
			close(connDone)
		}()

		select {
		case <-connDone:
			s.handle.Store(nil)
		case <-ctx.Done():
			c.Close()
			<-connDone
			s.handle.Store(nil)
			return
		}
	}
}

func backoffFor(attempt int, max time.Duration) time.Duration {
	d := 200 * time.Millisecond
	for i := 1; i < attempt && d < max; i++ {
		d *= 2
	}
	if d > max {
		return max
	}
	return d
}

func algorithmFor(name string) compression.Algorithm {
	switch name {
	case "lz4":
		return compression.NewLZ4()
	case "snappy":
		return compression.NewSnappy()
	default:
		return compression.Uncompressed{}
	}
}

// dialAndHandshake opens the socket and runs STARTUP/AUTH to READY,
// returning a connection ready for connection.New.
func (s *Stage) dialAndHandshake(ctx context.Context) (net.Conn, error) {
	dctx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
	defer cancel()

	conn, err := s.cfg.Dial(dctx, s.cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("stage: dial %s: %w", s.cfg.Address, err)
	}
	_ = conn.SetDeadline(time.Now().Add(s.cfg.ConnectTimeout))

	if err := s.handshake(conn); err != nil {
		conn.Close()
		return nil, err
	}
	_ = conn.SetDeadline(time.Time{})
	return conn, nil
}

func (s *Stage) handshake(conn net.Conn) error {
	if err := writeFrame(conn, 0, cql.OpOptions, nil); err != nil {
		return fmt.Errorf("stage: send OPTIONS: %w", err)
	}
	h, body, err := readFrame(conn)
	if err != nil {
		return fmt.Errorf("stage: read SUPPORTED: %w", err)
	}
	if h.Opcode != cql.OpSupported {
		return fmt.Errorf("stage: expected SUPPORTED, got %s", h.Opcode)
	}
	supported, err := cql.DecodeSupported(body)
	if err != nil {
		return fmt.Errorf("stage: decode SUPPORTED: %w", err)
	}

	compressionOpt := ""
	if s.cfg.Compression != "" && supported.SupportsCompression(s.cfg.Compression) {
		compressionOpt = s.cfg.Compression
	} else if s.cfg.Compression != "" {
		log.Warnf("%s: server does not support %s compression, using none", s.cfg.Address, s.cfg.Compression)
	}
	s.compression = compressionOpt

	startupBody := cql.EncodeStartup(cql.StartupOptions{CQLVersion: s.cfg.CQLVersion, Compression: compressionOpt})
	if err := writeFrame(conn, 0, cql.OpStartup, startupBody); err != nil {
		return fmt.Errorf("stage: send STARTUP: %w", err)
	}

	h, body, err = readFrame(conn)
	if err != nil {
		return fmt.Errorf("stage: read STARTUP response: %w", err)
	}
	switch h.Opcode {
	case cql.OpReady:
		return nil
	case cql.OpAuthenticate:
		return s.authenticate(conn, body)
	case cql.OpError:
		return serverHandshakeError(body)
	default:
		return fmt.Errorf("stage: unexpected opcode %s after STARTUP", h.Opcode)
	}
}

func (s *Stage) authenticate(conn net.Conn, body []byte) error {
	auth, err := cql.DecodeAuthenticate(body)
	if err != nil {
		return fmt.Errorf("stage: decode AUTHENTICATE: %w", err)
	}
	if s.cfg.Authenticator == nil {
		return fmt.Errorf("stage: server requires %s but no Authenticator configured", auth.Authenticator)
	}
	token, err := s.cfg.Authenticator(auth.Authenticator)
	if err != nil {
		return fmt.Errorf("stage: build auth response: %w", err)
	}

	for {
		if err := writeFrame(conn, 0, cql.OpAuthResponse, cql.EncodeAuthResponse(token)); err != nil {
			return fmt.Errorf("stage: send AUTH_RESPONSE: %w", err)
		}
		h, respBody, err := readFrame(conn)
		if err != nil {
			return fmt.Errorf("stage: read auth response: %w", err)
		}
		switch h.Opcode {
		case cql.OpAuthSuccess:
			return nil
		case cql.OpAuthChallenge:
			challenge, err := cql.DecodeAuthChallenge(respBody)
			if err != nil {
				return fmt.Errorf("stage: decode AUTH_CHALLENGE: %w", err)
			}
			token, err = s.cfg.Authenticator(auth.Authenticator)
			if err != nil {
				return fmt.Errorf("stage: build auth challenge response: %w", err)
			}
			_ = challenge
		case cql.OpError:
			return serverHandshakeError(respBody)
		default:
			return fmt.Errorf("stage: unexpected opcode %s during AUTH", h.Opcode)
		}
	}
}

func serverHandshakeError(body []byte) error {
	cqlErr, err := cql.DecodeCqlError(body)
	if err != nil {
		return fmt.Errorf("stage: decode ERROR during handshake: %w", err)
	}
	return fmt.Errorf("stage: server rejected handshake: %w", cqlErr)
}

func writeFrame(conn net.Conn, stream int16, opcode cql.Opcode, body []byte) error {
	frame := make([]byte, cql.HeaderLen+len(body))
	cql.EncodeHeader(frame, stream, opcode, int32(len(body)))
	copy(frame[cql.HeaderLen:], body)
	_, err := conn.Write(frame)
	return err
}

func readFrame(conn net.Conn) (cql.Header, []byte, error) {
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
