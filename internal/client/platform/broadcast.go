package platform

import (
	"sync"

	"github.com/mercanto/cartsync/internal/models"
)

// CrossContextChannel is the local-only broadcast between sibling contexts
// on the same device (for example, multiple open sessions). Batches
// published here never touch the network; siblings converge without their
// own round-trip.
type CrossContextChannel interface {
	// Join subscribes a context to the channel for one cart identity.
	Join(cartID string) *Sibling
}

// Sibling is one joined context. Publish delivers to every other sibling on
// the same cart, never back to the publisher.
type Sibling struct {
	bus    *LocalBus
	cartID string
	events chan []models.SyncEvent
	closed bool
}

// Events returns the channel carrying batches published by other siblings.
func (s *Sibling) Events() <-chan []models.SyncEvent {
	return s.events
}

// Publish sends an applied batch to the other siblings on this cart.
func (s *Sibling) Publish(batch []models.SyncEvent) {
	s.bus.publish(s, batch)
}

// Close leaves the channel.
func (s *Sibling) Close() {
	s.bus.leave(s)
}

// LocalBus is the in-process CrossContextChannel implementation.
type LocalBus struct {
	mu       sync.Mutex
	siblings map[string][]*Sibling
}

// NewLocalBus creates an empty bus.
func NewLocalBus() *LocalBus {
	return &LocalBus{siblings: make(map[string][]*Sibling)}
}

// Join subscribes a new sibling context for a cart.
func (b *LocalBus) Join(cartID string) *Sibling {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := &Sibling{
		bus:    b,
		cartID: cartID,
		events: make(chan []models.SyncEvent, 16),
	}
	b.siblings[cartID] = append(b.siblings[cartID], s)
	return s
}

func (b *LocalBus) publish(from *Sibling, batch []models.SyncEvent) {
	if len(batch) == 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, s := range b.siblings[from.cartID] {
		if s == from || s.closed {
			continue
		}
		// A full sibling misses the batch; it will converge on its next
		// pull instead of blocking the publisher.
		select {
		case s.events <- models.CloneEvents(batch):
		default:
		}
	}
}

func (b *LocalBus) leave(s *Sibling) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true

	peers := b.siblings[s.cartID]
	for i, peer := range peers {
		if peer == s {
			b.siblings[s.cartID] = append(peers[:i], peers[i+1:]...)
			break
		}
	}
	close(s.events)
}
