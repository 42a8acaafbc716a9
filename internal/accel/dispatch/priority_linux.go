//go:build linux

package dispatch

import "golang.org/x/sys/unix"

// requestHighPriority asks the OS to raise the calling thread's priority
// to the highest the kernel permits; permission failure is logged once
// and otherwise ignored, since this is best-effort.
func requestHighPriority() error {
	return unix.Setpriority(unix.PRIO_PROCESS, 0, -20)
}
