// File: shard/shard.go
// Author: momentics <momentics@gmail.com>
//
// A shard is a CPU-core-bound execution unit inside a Scylla node.
// Shard-aware clients open one connection per shard and pin that
// connection's goroutines to the matching CPU so request routing stays
// cache-local instead of bouncing across cores. Pick derives which
// shard a token belongs to; PinCurrentThread does the actual affinity
// syscall, adapted from the teacher's transport/tcp CPU-affinity helper
// to use golang.org/x/sys/unix instead of a hand-rolled raw syscall.
package shard

import "github.com/nativecql/corecql/cql"

// Hint is the decoded SCYLLA_SHARD/SCYLLA_NR_SHARDS advertisement from
// a SUPPORTED response (cql.ShardHint once parsed), or the zero value
// when the server isn't shard-aware.
type Hint = cql.ShardHint

// Pick derives which shard of nrShards a Murmur3 token belongs to, the
// same low-bits-of-the-token rule Scylla's shard-aware drivers use:
// shard = (token >> 12) % nrShards for the Scylla-specific shard-mapping
// scheme advertised alongside SCYLLA_NR_SHARDS (nrShards a power of two
// in practice, but the modulo works for any positive value).
func Pick(token int64, nrShards int) int {
	if nrShards <= 0 {
		return 0
	}
	unsignedToken := uint64(token) >> 12
	return int(unsignedToken % uint64(nrShards))
}
