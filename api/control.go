// File: api/control.go
// Package api
// Author: momentics
//
// Runtime statistics and hot-reload contract, implemented by the
// metrics package and consumed by cluster.Cluster.

package api

// Control exposes live metrics and config hot-reload for a running
// cluster/stage/ring trio.
type Control interface {
	// Stats returns current aggregated runtime and performance metrics.
	Stats() map[string]any

	// OnReload registers a callback invoked after a config update.
	OnReload(fn func())
}
