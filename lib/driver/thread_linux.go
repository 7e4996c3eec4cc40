//go:build linux

package driver

import "syscall"

// CanCheckThread reports whether the platform exposes a stable OS thread
// identity, enabling the StrictThread option.
const CanCheckThread = true

// threadID returns the calling OS thread's id.
func threadID() int64 {
	return int64(syscall.Gettid())
}
