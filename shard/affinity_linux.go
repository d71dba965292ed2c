//go:build linux

// File: shard/affinity_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux CPU affinity via golang.org/x/sys/unix, replacing the teacher's
// hand-rolled raw SYS_SCHED_SETAFFINITY syscall in
// transport/tcp/affinity_linux.go with the maintained syscall wrapper
// library the rest of the example pack already depends on.
package shard

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// PinCurrentThread locks the calling goroutine to its current OS
// thread and restricts that thread to cpu. Must be called from the
// goroutine that should be pinned (stage.Stage calls it from the
// goroutine that runs the connection's Reporter loop), since
// runtime.LockOSThread only affects the calling goroutine.
func PinCurrentThread(cpu int) error {
	runtime.LockOSThread()
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("shard: pinning to CPU %d: %w", cpu, err)
	}
	return nil
}
