package cluster

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/nativecql/corecql/connection"
	"github.com/nativecql/corecql/cql"
	"github.com/nativecql/corecql/ring"
	"github.com/nativecql/corecql/stage"
	"github.com/nativecql/corecql/worker"
)

// fakeNode drives the server side of net.Pipe through a bare
// OPTIONS/SUPPORTED/STARTUP/READY handshake and then answers exactly
// one QUERY with a Void result, mirroring stage's own fakeServer.
func fakeNode(t *testing.T, conn net.Conn) {
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

	if h, _, err := readHeader(); err != nil || h.Opcode != cql.OpOptions {
		t.Errorf("expected OPTIONS, got %+v err=%v", h, err)
		return
	}
	var buf []byte
	buf = cql.WriteShort(buf, 0)
	if err := writeFrame(0, cql.OpSupported, buf); err != nil {
		t.Errorf("write SUPPORTED: %v", err)
		return
	}

	if h, _, err := readHeader(); err != nil || h.Opcode != cql.OpStartup {
		t.Errorf("expected STARTUP, got %+v err=%v", h, err)
		return
	}
	if err := writeFrame(0, cql.OpReady, nil); err != nil {
		t.Errorf("write READY: %v", err)
		return
	}

	for {
		h, _, err := readHeader()
		if err != nil {
			return
		}
		if h.Opcode == cql.OpQuery {
			respBody := cql.WriteInt(nil, cql.ResultVoid)
			_ = writeFrame(h.Stream, cql.OpResult, respBody)
		}
	}
}

func awaitHandle(t *testing.T, c *Cluster, nodeID string) *connection.ReporterHandle {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if h := c.Handle(nodeID); h != nil {
			return h
		}
		select {
		case <-deadline:
			t.Fatalf("node %s never published a handle", nodeID)
			return nil
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestAddNodeRejectsDuplicate(t *testing.T) {
	c := New(Config{})
	defer c.Close()

	spec := NodeSpec{
		Node: ring.Node{ID: "n1", Address: "ignored"},
		Stage: stage.Config{
			Address: "ignored",
			Dial: func(ctx context.Context, address string) (net.Conn, error) {
				return nil, context.Canceled
			},
		},
	}
	if err := c.AddNode(spec); err != nil {
		t.Fatal(err)
	}
	if err := c.AddNode(spec); err == nil {
		t.Fatal("expected an error adding the same node twice")
	}
}

func TestClusterConnectsRebuildsRingAndRoutesRequests(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	go fakeNode(t, serverConn)

	c := New(Config{
		Keyspaces: map[string]ring.Strategy{
			"ks": ring.SimpleStrategy{ReplicationFactor: 1},
		},
	})
	defer c.Close()

	spec := NodeSpec{
		Node:   ring.Node{ID: "n1", Address: "127.0.0.1:9042", Datacenter: "dc1"},
		Tokens: []int64{10},
		Stage: stage.Config{
			Address: "127.0.0.1:9042",
			Dial: func(ctx context.Context, address string) (net.Conn, error) {
				return clientConn, nil
			},
			StreamPoolSize: 4,
			InboxDepth:     4,
		},
	}
	if err := c.AddNode(spec); err != nil {
		t.Fatal(err)
	}
	awaitHandle(t, c, "n1")

	if err := c.RebuildRing(); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(2 * time.Second)
	for c.Ring().Load() == nil {
		select {
		case <-deadline:
			t.Fatal("ring snapshot never published")
		case <-time.After(5 * time.Millisecond):
		}
	}

	w := worker.NewBasicWorker[struct{}](buildQueryFrame(), worker.VoidMarker{})
	if !c.SendGlobal("ks", 10, w, buildQueryFrame()) {
		t.Fatal("expected SendGlobal to reach the only replica")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := w.Await(ctx); err != nil {
		t.Fatalf("expected a Void result, got error: %v", err)
	}
}

func TestSendGlobalFailsWithoutRingSnapshot(t *testing.T) {
	c := New(Config{})
	defer c.Close()

	w := worker.NewBasicWorker[struct{}](buildQueryFrame(), worker.VoidMarker{})
	if c.SendGlobal("ks", 10, w, buildQueryFrame()) {
		t.Fatal("expected SendGlobal to fail with no published ring snapshot")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := w.Await(ctx); err == nil {
		t.Fatal("expected a terminal error delivered to the worker")
	}
}

func TestRemoveNodeDropsHandle(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	go fakeNode(t, serverConn)

	c := New(Config{})
	defer c.Close()

	spec := NodeSpec{
		Node: ring.Node{ID: "n1", Address: "ignored"},
		Stage: stage.Config{
			Address: "ignored",
			Dial: func(ctx context.Context, address string) (net.Conn, error) {
				return clientConn, nil
			},
			StreamPoolSize: 4,
			InboxDepth:     4,
		},
	}
	if err := c.AddNode(spec); err != nil {
		t.Fatal(err)
	}
	awaitHandle(t, c, "n1")

	c.RemoveNode("n1")
	if h := c.Handle("n1"); h != nil {
		t.Fatal("expected no handle for a removed node")
	}
}

func buildQueryFrame() []byte {
	body := cql.NewQuery("SELECT 1").Consistency(cql.One).Values().Build()
	frame := make([]byte, cql.HeaderLen+len(body))
	cql.EncodeHeader(frame, 0, cql.OpQuery, int32(len(body)))
	copy(frame[cql.HeaderLen:], body)
	return frame
}
