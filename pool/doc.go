// File: pool/doc.go
// Package pool
// Author: momentics <momentics@gmail.com>
//
// Reusable allocation primitives: a lock-free ring, which connection
// uses for the Reporter's stream-id free list, plus a size-classed byte
// pool and a generic object pool that no other package in this module
// uses.
package pool
