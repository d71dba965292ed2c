// Package api
// Author: momentics <momentics@gmail.com>
//
// Common low-level error values shared by pool, concurrency, and shard.
// Connection/worker-level errors that carry CQL semantics live in
// package cqlerr instead — these are plumbing-level only.

package api

import "errors"

var (
	ErrClosed        = errors.New("api: resource is closed")
	ErrResourceFull  = errors.New("api: resource exhausted")
	ErrNotSupported  = errors.New("api: operation not supported on this platform")
)
