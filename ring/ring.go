// File: ring/ring.go
// Author: momentics <momentics@gmail.com>
//
// Ring holds the immutable topology snapshot a Worker consults to pick
// which node's Stage to send a request to: the token ring, the
// replica-placement strategy per keyspace, and the precomputed replica
// set for every token. A new topology (node join/leave, RF change)
// builds a brand new Snapshot and atomically swaps it in; readers never
// block and never see a half-built ring.
package ring

import (
	"math/rand"
	"sort"
	"sync/atomic"
)

// Node identifies one storage node a Stage dials.
type Node struct {
	ID         string
	Address    string
	Datacenter string
}

// Strategy computes the ordered replica set for a token given the
// token ring's owner list, starting the walk at startIdx (the index of
// the token's primary owner).
type Strategy interface {
	replicas(tr *tokenRing, startIdx int) []Node
}

// SimpleStrategy walks the ring taking the next ReplicationFactor
// distinct nodes, ignoring datacenter.
type SimpleStrategy struct {
	ReplicationFactor int
}

func (s SimpleStrategy) replicas(tr *tokenRing, startIdx int) []Node {
	return walkDistinct(tr, startIdx, s.ReplicationFactor, nil)
}

// NetworkTopologyStrategy walks the ring once, assigning each
// encountered node to its datacenter's quota until every configured
// datacenter has its ReplicationFactors[dc] replicas or the ring is
// exhausted. Nodes in a datacenter not named in ReplicationFactors are
// skipped.
type NetworkTopologyStrategy struct {
	ReplicationFactors map[string]int
}

func (s NetworkTopologyStrategy) replicas(tr *tokenRing, startIdx int) []Node {
	need := 0
	for _, rf := range s.ReplicationFactors {
		need += rf
	}
	perDC := make(map[string]int, len(s.ReplicationFactors))
	return walkDistinct(tr, startIdx, need, func(n Node, out []Node) bool {
		rf, ok := s.ReplicationFactors[n.Datacenter]
		if !ok || perDC[n.Datacenter] >= rf {
			return false
		}
		perDC[n.Datacenter]++
		return true
	})
}

// walkDistinct walks the ring starting at startIdx, taking distinct
// nodes (by ID) until want have been collected or the ring is
// exhausted. accept, if non-nil, additionally filters candidates
// (e.g. per-datacenter quota); nil accepts every distinct node.
func walkDistinct(tr *tokenRing, startIdx, want int, accept func(Node, []Node) bool) []Node {
	n := len(tr.owners)
	if n == 0 || want <= 0 {
		return nil
	}
	seen := make(map[string]bool, want)
	out := make([]Node, 0, want)
	for i := 0; i < n && len(out) < want; i++ {
		node := tr.owners[(startIdx+i)%n]
		if seen[node.ID] {
			continue
		}
		if accept != nil && !accept(node, out) {
			continue
		}
		seen[node.ID] = true
		out = append(out, node)
	}
	return out
}

// tokenRing is the sorted token->owner mapping a Snapshot is built
// from: tokens[i] is owned by owners[i].
type tokenRing struct {
	tokens []int64
	owners []Node
}

func buildTokenRing(assignments map[int64]Node) *tokenRing {
	tokens := make([]int64, 0, len(assignments))
	for t := range assignments {
		tokens = append(tokens, t)
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i] < tokens[j] })
	owners := make([]Node, len(tokens))
	for i, t := range tokens {
		owners[i] = assignments[t]
	}
	return &tokenRing{tokens: tokens, owners: owners}
}

// ownerIndex returns the index of the first token >= target, wrapping
// around to index 0 past the ring's largest token (the token-ring
// wraparound invariant: the ring has no edges).
func (tr *tokenRing) ownerIndex(target int64) int {
	if len(tr.tokens) == 0 {
		return -1
	}
	idx := sort.Search(len(tr.tokens), func(i int) bool { return tr.tokens[i] >= target })
	if idx == len(tr.tokens) {
		idx = 0
	}
	return idx
}

// Snapshot is one immutable, fully-built view of the ring: every
// token's owner and, per keyspace, every token's precomputed replica
// set. Build with NewSnapshot; never mutated after construction.
type Snapshot struct {
	tr        *tokenRing
	keyspaces map[string]Strategy
	replicas  map[string]map[int64][]Node
}

// NewSnapshot builds a Snapshot from a token->primary-owner assignment
// and a keyspace->Strategy map, precomputing every token's replica set
// for every keyspace up front so ReplicasFor never allocates on a
// request's hot path.
func NewSnapshot(assignments map[int64]Node, keyspaces map[string]Strategy) *Snapshot {
	tr := buildTokenRing(assignments)
	replicas := make(map[string]map[int64][]Node, len(keyspaces))
	for ks, strat := range keyspaces {
		perToken := make(map[int64][]Node, len(tr.tokens))
		for i, t := range tr.tokens {
			perToken[t] = strat.replicas(tr, i)
		}
		replicas[ks] = perToken
	}
	return &Snapshot{tr: tr, keyspaces: keyspaces, replicas: replicas}
}

// ReplicasFor returns the ordered replica set that owns token in
// keyspace, or nil if the keyspace is unknown or the ring is empty.
func (s *Snapshot) ReplicasFor(keyspace string, token int64) []Node {
	if s == nil || len(s.tr.tokens) == 0 {
		return nil
	}
	idx := s.tr.ownerIndex(token)
	owner := s.tr.tokens[idx]
	return s.replicas[keyspace][owner]
}

// Ring holds the currently published Snapshot behind a typed atomic
// pointer: Load never blocks a concurrent Publish, and a reader that
// has already Loaded a Snapshot keeps it alive for as long as it holds
// the reference, GC reclaiming it once every reader has moved on — the
// Go-native substitute for manual epoch-based reclamation.
type Ring struct {
	snapshot atomic.Pointer[Snapshot]
}

// New returns a Ring with no snapshot published yet; Load returns nil
// until the first Publish.
func New() *Ring { return &Ring{} }

// Load returns the currently published Snapshot, or nil if none has
// been published yet.
func (r *Ring) Load() *Snapshot { return r.snapshot.Load() }

// Publish atomically swaps in a new Snapshot. Safe to call
// concurrently with any number of Loads.
func (r *Ring) Publish(s *Snapshot) { r.snapshot.Store(s) }

// GlobalRandomReplica picks uniformly at random among every replica
// that owns token in keyspace, regardless of datacenter — the
// send_global_random_replica routing policy, used for requests with no
// locality preference and as the fallback when no local replica
// exists.
func GlobalRandomReplica(snap *Snapshot, keyspace string, token int64) (Node, bool) {
	replicas := snap.ReplicasFor(keyspace, token)
	if len(replicas) == 0 {
		return Node{}, false
	}
	return replicas[rand.Intn(len(replicas))], true
}

// LocalRandomReplica picks uniformly at random among the replicas that
// own token in keyspace and sit in localDC — the
// send_local_random_replica routing policy — falling back to
// GlobalRandomReplica if localDC has no replica for this token.
func LocalRandomReplica(snap *Snapshot, keyspace string, token int64, localDC string) (Node, bool) {
	replicas := snap.ReplicasFor(keyspace, token)
	local := make([]Node, 0, len(replicas))
	for _, n := range replicas {
		if n.Datacenter == localDC {
			local = append(local, n)
		}
	}
	if len(local) == 0 {
		return GlobalRandomReplica(snap, keyspace, token)
	}
	return local[rand.Intn(len(local))], true
}
