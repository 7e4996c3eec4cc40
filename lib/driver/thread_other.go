//go:build !linux

package driver

// CanCheckThread reports whether the platform exposes a stable OS thread
// identity. Without it the StrictThread option is silently disabled.
const CanCheckThread = false

func threadID() int64 {
	return 0
}
