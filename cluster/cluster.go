// File: cluster/cluster.go
// Author: momentics <momentics@gmail.com>
//
// Cluster is the minimal supervisor this driver's core assumes but
// doesn't itself define: it owns every node's Stage, rebuilds Ring
// snapshots when topology changes, and restarts a Stage's supervisor
// loop with backoff if that loop ever exits unexpectedly. Stage.Run
// already retries transient connection failures on its own; Cluster is
// the layer above that decides whether an exit (a panic, or a
// deliberately canceled context) should be restarted at all. Go has no
// external supervisor process to defer this to the way the reference
// driver's overclock actor runtime does, so this package plays that
// role directly.
package cluster

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/nativecql/corecql/concurrency"
	"github.com/nativecql/corecql/connection"
	"github.com/nativecql/corecql/cql"
	"github.com/nativecql/corecql/cqlerr"
	"github.com/nativecql/corecql/internal/clog"
	"github.com/nativecql/corecql/metrics"
	"github.com/nativecql/corecql/ring"
	"github.com/nativecql/corecql/stage"
)

var log = clog.New("cluster")

// NodeSpec describes one storage node to maintain a Stage for.
type NodeSpec struct {
	Node   ring.Node
	Tokens []int64
	Stage  stage.Config
}

// Config controls cluster-wide defaults shared by every node.
type Config struct {
	// Keyspaces maps keyspace name to its replication strategy, used
	// by RebuildRing to precompute replica sets.
	Keyspaces map[string]ring.Strategy

	// LocalDatacenter is preferred by SendLocal.
	LocalDatacenter string

	// Metrics, if set, records ring rebuilds and per-node request
	// counts. nil disables recording.
	Metrics *metrics.Collector
}

type nodeEntry struct {
	spec   NodeSpec
	stage  *stage.Stage
	cancel context.CancelFunc
}

// Cluster owns every node's Stage and the cluster's single Ring.
type Cluster struct {
	cfg      Config
	topology *ring.Ring
	executor *concurrency.Executor

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	nodes map[string]*nodeEntry
}

// New builds a Cluster with no nodes yet.
func New(cfg Config) *Cluster {
	ctx, cancel := context.WithCancel(context.Background())
	return &Cluster{
		cfg:      cfg,
		topology: ring.New(),
		executor: concurrency.NewExecutor(runtime.NumCPU()),
		ctx:      ctx,
		cancel:   cancel,
		nodes:    make(map[string]*nodeEntry),
	}
}

// Ring returns the cluster's topology snapshot container.
func (c *Cluster) Ring() *ring.Ring { return c.topology }

// AddNode starts a Stage for spec and submits its supervised run loop
// to the shared Executor.
func (c *Cluster) AddNode(spec NodeSpec) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.nodes[spec.Node.ID]; exists {
		return fmt.Errorf("cluster: node %s already added", spec.Node.ID)
	}

	s := stage.New(spec.Stage)
	nodeCtx, cancel := context.WithCancel(c.ctx)
	entry := &nodeEntry{spec: spec, stage: s, cancel: cancel}
	c.nodes[spec.Node.ID] = entry

	// Executor's worker count is sized to the number of long-lived
	// supervisor tasks it hosts, since each occupies a worker for the
	// node's whole lifetime rather than running to quick completion.
	if n := len(c.nodes); n > c.executor.NumWorkers() {
		c.executor.Resize(n)
	}

	if err := c.executor.Submit(func() { c.superviseStage(spec.Node.ID, s, nodeCtx) }); err != nil {
		delete(c.nodes, spec.Node.ID)
		cancel()
		return fmt.Errorf("cluster: submit stage supervisor for %s: %w", spec.Node.ID, err)
	}
	return nil
}

// RemoveNode stops nodeID's Stage and drops it from the cluster.
// Callers should follow with RebuildRing to drop the node from
// routing.
func (c *Cluster) RemoveNode(nodeID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.nodes[nodeID]; ok {
		entry.cancel()
		delete(c.nodes, nodeID)
	}
}

// RebuildRing recomputes the ring snapshot from every currently added
// node's tokens and publishes it, submitted to the shared Executor so a
// burst of topology events can't spawn an unbounded number of rebuild
// goroutines.
func (c *Cluster) RebuildRing() error {
	return c.executor.Submit(func() {
		c.mu.Lock()
		assignments := make(map[int64]ring.Node)
		for _, entry := range c.nodes {
			for _, t := range entry.spec.Tokens {
				assignments[t] = entry.spec.Node
			}
		}
		keyspaces := c.cfg.Keyspaces
		metricsCollector := c.cfg.Metrics
		c.mu.Unlock()
		c.topology.Publish(ring.NewSnapshot(assignments, keyspaces))
		if metricsCollector != nil {
			metricsCollector.ObserveRingRebuild()
		}
	})
}

// Handle returns the current ReporterHandle for nodeID's Stage, or nil
// if the node is unknown or not yet connected.
func (c *Cluster) Handle(nodeID string) *connection.ReporterHandle {
	c.mu.Lock()
	entry, ok := c.nodes[nodeID]
	c.mu.Unlock()
	if !ok {
		return nil
	}
	return entry.stage.Handle()
}

// SendGlobal submits worker's payload to a random replica owning token
// in keyspace, with no datacenter preference — the send_global_random_
// replica routing policy. Returns false (and fails worker) if no ring
// snapshot is published yet or the chosen replica has no live
// connection.
func (c *Cluster) SendGlobal(keyspace string, token int64, worker connection.Worker, payload []byte) bool {
	return c.send(keyspace, token, "", worker, payload)
}

// SendLocal is SendGlobal but preferring a replica in the cluster's
// configured LocalDatacenter — the send_local_random_replica routing
// policy.
func (c *Cluster) SendLocal(keyspace string, token int64, worker connection.Worker, payload []byte) bool {
	return c.send(keyspace, token, c.cfg.LocalDatacenter, worker, payload)
}

func (c *Cluster) send(keyspace string, token int64, localDC string, worker connection.Worker, payload []byte) bool {
	snap := c.topology.Load()
	if snap == nil {
		_ = worker.HandleError(cqlerr.ErrNoRing, nil)
		return false
	}
	var node ring.Node
	var ok bool
	if localDC != "" {
		node, ok = ring.LocalRandomReplica(snap, keyspace, token, localDC)
	} else {
		node, ok = ring.GlobalRandomReplica(snap, keyspace, token)
	}
	if !ok {
		_ = worker.HandleError(cqlerr.ErrNoRing, nil)
		return false
	}
	handle := c.Handle(node.ID)
	if handle == nil {
		_ = worker.HandleError(cqlerr.ErrLost, nil)
		return false
	}
	if c.cfg.Metrics != nil && len(payload) >= cql.HeaderLen {
		c.cfg.Metrics.ObserveRequest(node.ID, cql.Opcode(payload[4]).String())
	}
	return handle.Send(connection.RequestEvent(worker, payload))
}

// Close cancels every Stage and stops the shared Executor.
func (c *Cluster) Close() {
	c.cancel()
	c.executor.Close()
}

// superviseStage runs s.Run until ctx is canceled, restarting it with
// backoff if it returns early (only possible via panic, since Stage.Run
// itself loops on transient connection errors without returning).
func (c *Cluster) superviseStage(nodeID string, s *stage.Stage, ctx context.Context) {
	backoff := 500 * time.Millisecond
	for {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Errorf("stage %s panicked: %v", nodeID, r)
				}
			}()
			s.Run(ctx)
		}()
		if ctx.Err() != nil {
			return
		}
		log.Warnf("stage %s exited unexpectedly, restarting in %s", nodeID, backoff)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}
	}
}
