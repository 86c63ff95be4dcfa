package testsupport

import (
	"testing"
	"time"
)

// WaitFor polls cond until it holds or the timeout passes, then fails the
// test with msg. Poll-based waiting keeps worker tests free of fixed sleeps.
func WaitFor(t testing.TB, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s: %s", timeout, msg)
}
