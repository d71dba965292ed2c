// File: cmd/cqlping/main.go
// Author: momentics <momentics@gmail.com>
//
// cqlping dials a single node, runs the STARTUP/OPTIONS handshake, and
// issues a QUERY against system.local on every -interval tick until
// interrupted, printing each round-trip latency — the STARTUP+OPTIONS+QUERY equivalent of the teacher's
// examples/lowlevel/echo, scoped to this driver's own wire protocol
// instead of a WebSocket handler.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nativecql/corecql/connection"
	"github.com/nativecql/corecql/cql"
	"github.com/nativecql/corecql/metrics"
	"github.com/nativecql/corecql/stage"
	"github.com/nativecql/corecql/worker"
)

type localRow struct {
	ReleaseVersion string
	ClusterName    string
}

func localRowDest(r *localRow) []any {
	return []any{&r.ReleaseVersion, &r.ClusterName}
}

func main() {
	addr := flag.String("addr", "127.0.0.1:9042", "node address to ping")
	user := flag.String("user", "", "CQL username (empty disables auth)")
	pass := flag.String("pass", "", "CQL password")
	compression := flag.String("compression", "", "STARTUP compression: \"\", lz4, or snappy")
	interval := flag.Duration("interval", 5*time.Second, "ping interval")
	connectTimeout := flag.Duration("connect-timeout", 10*time.Second, "handshake timeout")
	flag.Parse()

	collector := metrics.New()

	cfg := stage.Config{
		Address:        *addr,
		Compression:    *compression,
		ConnectTimeout: *connectTimeout,
		Metrics:        collector,
	}
	if *user != "" {
		cfg.Authenticator = stage.PlainTextAuthenticator(*user, *pass)
	}
	s := stage.New(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	fmt.Printf("pinging %s every %s (ctrl-c to stop)\n", *addr, *interval)
	for {
		select {
		case <-ticker.C:
			ping(s, collector)
		case <-sigCh:
			fmt.Println("shutting down")
			cancel()
			<-s.Done()
			return
		}
	}
}

func ping(s *stage.Stage, collector *metrics.Collector) {
	handle := s.Handle()
	if handle == nil {
		fmt.Println("not connected yet")
		return
	}

	marker := worker.RowsMarker[localRow]{NewDest: localRowDest}
	payload := buildQuery("SELECT release_version, cluster_name FROM system.local")
	w := worker.NewBasicWorker[[]localRow](payload, marker)

	start := time.Now()
	if !handle.Send(connection.RequestEvent(w, payload)) {
		fmt.Println("send failed: connection is shutting down")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rows, err := w.Await(ctx)
	elapsed := time.Since(start)
	if err != nil {
		collector.ObserveError("cqlping", "query_failed")
		fmt.Printf("query failed after %s: %v\n", elapsed, err)
		return
	}
	collector.ObserveLatency("cqlping", "QUERY", elapsed.Seconds())
	if len(rows) == 0 {
		fmt.Printf("ok in %s, but system.local returned no rows\n", elapsed)
		return
	}
	fmt.Printf("ok in %s: release=%s cluster=%s\n", elapsed, rows[0].ReleaseVersion, rows[0].ClusterName)
}

func buildQuery(cqlText string) []byte {
	body := cql.NewQuery(cqlText).Consistency(cql.One).Values().Build()
	frame := make([]byte, cql.HeaderLen+len(body))
	cql.EncodeHeader(frame, 0, cql.OpQuery, int32(len(body)))
	copy(frame[cql.HeaderLen:], body)
	return frame
}
