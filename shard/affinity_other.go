//go:build !linux

// File: shard/affinity_other.go
// Author: momentics <momentics@gmail.com>
package shard

import "github.com/nativecql/corecql/api"

// PinCurrentThread pins nothing outside Linux and returns
// api.ErrNotSupported: CPU affinity is a best-effort cache-locality
// optimization, not a correctness requirement, so a platform without it
// just runs unpinned.
func PinCurrentThread(cpu int) error {
	_ = cpu
	return api.ErrNotSupported
}
