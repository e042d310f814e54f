// Package clock provides a Lamport logical clock used to order cart events
// originating from the same device without relying on wall-clock time.
package clock

import (
	"sync"

	"github.com/google/uuid"
)

// LamportClock is a monotonically increasing logical clock scoped to one
// device. Events stamped by the same clock are causally ordered.
type LamportClock struct {
	counter  int64
	deviceID string
	mu       sync.Mutex
}

// New creates a clock with a fresh random device id.
func New() *LamportClock {
	return &LamportClock{deviceID: uuid.New().String()}
}

// NewWithDeviceID creates a clock for a known device id, used when
// restoring state after a restart.
func NewWithDeviceID(deviceID string) *LamportClock {
	return &LamportClock{deviceID: deviceID}
}

// Tick advances the clock and returns the new timestamp. Called once per
// local mutation.
func (lc *LamportClock) Tick() int64 {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	lc.counter++
	return lc.counter
}

// Observe merges a timestamp seen on a remote event into the clock:
// counter = max(counter, remote) + 1. Guarantees events created after the
// merge sort after everything already observed.
func (lc *LamportClock) Observe(remote int64) int64 {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	if remote > lc.counter {
		lc.counter = remote
	}
	lc.counter++
	return lc.counter
}

// Now returns the current timestamp without advancing the clock.
func (lc *LamportClock) Now() int64 {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	return lc.counter
}

// DeviceID returns the device id the clock stamps events with.
func (lc *LamportClock) DeviceID() string {
	return lc.deviceID
}

// Restore sets the counter, used when loading persisted clock state.
func (lc *LamportClock) Restore(counter int64) {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	lc.counter = counter
}
