// Package coordinator drives the sync protocol for one cart identity:
// optimistic local apply, durable queueing, push/pull timing, bounded
// retry with backoff, conflict resolution and cross-context broadcast.
// Callers only ever see a coarse status; retry and conflict handling never
// leak out.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/mercanto/cartsync/internal/client/api"
	"github.com/mercanto/cartsync/internal/client/platform"
	"github.com/mercanto/cartsync/internal/client/registry"
	"github.com/mercanto/cartsync/internal/client/resolver"
	"github.com/mercanto/cartsync/internal/client/storage"
	"github.com/mercanto/cartsync/internal/clock"
	"github.com/mercanto/cartsync/internal/models"
)

// Status is the coarse sync state surfaced to callers.
type Status string

const (
	// StatusSynced means the store has acknowledged everything.
	StatusSynced Status = "synced"
	// StatusPending means local events are queued and propagation is under way.
	StatusPending Status = "pending"
	// StatusDegraded means auto-retry is exhausted (or durable storage is
	// unavailable); local state stays fully usable, propagation resumes on
	// the next trigger.
	StatusDegraded Status = "degraded"
	// StatusOffline means the connectivity observer reports no network.
	StatusOffline Status = "offline"
)

// Transport is the network boundary the coordinator drives. Implemented by
// the HTTP client in internal/client/api; tests supply fakes.
type Transport interface {
	Push(ctx context.Context, cartID, deviceID string, baseVersion int64, events []models.SyncEvent) (*api.PushOutcome, error)
	Pull(ctx context.Context, cartID string, sinceVersion int64) ([]models.SyncEvent, int64, error)
	RegisterDevice(ctx context.Context, cartID string, rec *models.DeviceRecord) error
}

// Config tunes the sync loop.
type Config struct {
	// SyncInterval is the periodic trigger. Default 30s.
	SyncInterval time.Duration
	// CallTimeout bounds each push/pull round-trip. Default 10s.
	CallTimeout time.Duration
	// BackoffBase is the first retry delay. Default 500ms.
	BackoffBase time.Duration
	// BackoffCap caps the exponential delay. Default 10s.
	BackoffCap time.Duration
	// MaxRetries bounds consecutive transport failures before the
	// coordinator reports degraded. Default 3.
	MaxRetries uint64
	// MaxConflictRounds bounds resolve-and-repush cycles within one sync.
	// Default 5.
	MaxConflictRounds int
	// MemoryOnly marks that durable storage was unavailable at startup;
	// the status never rises above degraded.
	MemoryOnly bool
}

func (c *Config) defaults() {
	if c.SyncInterval <= 0 {
		c.SyncInterval = 30 * time.Second
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = api.DefaultTimeout
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = 500 * time.Millisecond
	}
	if c.BackoffCap <= 0 {
		c.BackoffCap = 10 * time.Second
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.MaxConflictRounds <= 0 {
		c.MaxConflictRounds = 5
	}
}

// Deps are the collaborators the coordinator orchestrates.
type Deps struct {
	Log          storage.EventLog
	Meta         storage.MetadataStorage
	Transport    Transport
	Resolver     *resolver.Resolver
	Clock        *clock.LamportClock
	Connectivity platform.ConnectivityObserver
	Channel      platform.CrossContextChannel
	Registry     *registry.Service
	Logger       *slog.Logger
}

// Coordinator serializes all sync work for one cart identity: at most one
// push/pull cycle is in flight at a time. Different carts get independent
// coordinators.
type Coordinator struct {
	cartID string
	device models.DeviceRecord
	cfg    Config
	deps   Deps

	sibling *platform.Sibling
	trigger chan struct{}

	// cycleMu serializes whole sync cycles: at most one push/pull
	// round-trip is in flight per cart, however many callers trigger one.
	cycleMu sync.Mutex

	mu             sync.Mutex
	base           *models.CartState // acknowledged state; pending replays on top
	status         Status
	lastConflict   *models.ConflictRecord
	inflightCancel context.CancelFunc
}

// New creates a coordinator, restoring the acknowledged snapshot and the
// Lamport clock from metadata storage so a restart picks up exactly where
// the last run stopped.
func New(ctx context.Context, cartID string, device models.DeviceRecord, cfg Config, deps Deps) (*Coordinator, error) {
	cfg.defaults()

	base, err := deps.Meta.GetSnapshot(ctx, cartID)
	if err != nil {
		if !errors.Is(err, storage.ErrSnapshotNotFound) {
			return nil, fmt.Errorf("failed to load cart snapshot: %w", err)
		}
		base = models.NewCartState(cartID)
	}

	counter, err := deps.Meta.GetClock(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load clock state: %w", err)
	}
	deps.Clock.Restore(counter)

	status := StatusSynced
	if cfg.MemoryOnly {
		status = StatusDegraded
	}
	if n, err := deps.Log.PendingCount(ctx, cartID); err == nil && n > 0 {
		status = StatusPending
	}

	c := &Coordinator{
		cartID:  cartID,
		device:  device,
		cfg:     cfg,
		deps:    deps,
		sibling: deps.Channel.Join(cartID),
		trigger: make(chan struct{}, 1),
		base:    base,
		status:  status,
	}

	if err := deps.Registry.Register(ctx, cartID, &c.device); err != nil {
		return nil, fmt.Errorf("failed to register own device: %w", err)
	}

	return c, nil
}

// Close marks this device offline in the local registry and leaves the
// cross-context channel.
func (c *Coordinator) Close() {
	if err := c.deps.Registry.MarkOffline(context.Background(), c.cartID, c.device.DeviceID); err != nil {
		c.deps.Logger.Debug("failed to mark device offline", "error", err)
	}
	c.sibling.Close()
}

// Run drives the sync loop until ctx is cancelled. Triggers into a cycle:
// a local mutation, the periodic interval, connectivity regained, or a
// sibling broadcast (which is applied locally without a network trip).
func (c *Coordinator) Run(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.SyncInterval)
	defer ticker.Stop()

	connCh := c.deps.Connectivity.Changes()

	// Drain anything queued from a previous run before waiting.
	c.syncOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.trigger:
			c.syncOnce(ctx)
		case <-ticker.C:
			c.heartbeat(ctx)
			c.syncOnce(ctx)
		case online := <-connCh:
			if online {
				c.deps.Logger.Info("connectivity regained", "cart_id", c.cartID)
				c.syncOnce(ctx)
			} else {
				c.setStatus(StatusOffline)
			}
		case batch, ok := <-c.sibling.Events():
			if ok {
				c.applySiblingBatch(ctx, batch)
			}
		}
	}
}

// SyncNow runs a single synchronous sync cycle, used by one-shot callers
// and as the explicit trigger that revives a degraded coordinator.
func (c *Coordinator) SyncNow(ctx context.Context) error {
	return c.syncOnce(ctx)
}

// AddItem appends an add mutation: quantity accumulates onto any existing
// line for the item.
func (c *Coordinator) AddItem(ctx context.Context, item models.ItemPayload) (*models.SyncEvent, error) {
	return c.mutate(ctx, models.EventAdd, item)
}

// UpdateQuantity appends an update mutation setting the absolute quantity.
func (c *Coordinator) UpdateQuantity(ctx context.Context, itemID string, quantity int) (*models.SyncEvent, error) {
	return c.mutate(ctx, models.EventUpdate, models.ItemPayload{ItemID: itemID, Quantity: quantity})
}

// RemoveItem appends a remove mutation.
func (c *Coordinator) RemoveItem(ctx context.Context, itemID string) (*models.SyncEvent, error) {
	return c.mutate(ctx, models.EventRemove, models.ItemPayload{ItemID: itemID})
}

// ClearCart appends a clear mutation. Clear beats any concurrent mutation
// during conflict resolution regardless of timestamps.
func (c *Coordinator) ClearCart(ctx context.Context) (*models.SyncEvent, error) {
	return c.mutate(ctx, models.EventClear, models.ItemPayload{})
}

// mutate is the optimistic local apply: validate, stamp, durably append,
// return. The network round-trip happens later in the background; it is
// never required for the mutation call to complete.
func (c *Coordinator) mutate(ctx context.Context, typ models.EventType, item models.ItemPayload) (*models.SyncEvent, error) {
	event := &models.SyncEvent{
		ID:        uuid.New().String(),
		Type:      typ,
		CartID:    c.cartID,
		Item:      item,
		Timestamp: c.deps.Clock.Tick(),
		DeviceID:  c.deps.Clock.DeviceID(),
	}

	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mutation: %w", err)
	}

	if err := c.deps.Log.Append(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to append event: %w", err)
	}
	if err := c.deps.Meta.SaveClock(ctx, c.deps.Clock.Now()); err != nil {
		c.deps.Logger.Warn("failed to persist clock", "error", err)
	}

	c.setStatus(StatusPending)

	// A new mutation supersedes any in-flight push: the stale attempt is
	// cancelled and its result ignored, and the next cycle covers the full
	// pending set. At most one round-trip stays active per cart.
	c.cancelInflight()
	c.signal()

	return event, nil
}

// Snapshot returns the current cart state: the acknowledged base with the
// pending queue replayed on top. Read-only; callers never touch the log.
func (c *Coordinator) Snapshot(ctx context.Context) (*models.CartState, error) {
	pending, err := c.deps.Log.Pending(ctx, c.cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to read pending events: %w", err)
	}

	c.mu.Lock()
	state := c.base.Clone()
	c.mu.Unlock()

	state.ApplyAll(pending)
	return state, nil
}

// Status returns the coarse sync status.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// LastConflict returns the most recent conflict audit record, or nil. This
// is the "cart updated elsewhere" signal; it never blocks further use.
func (c *Coordinator) LastConflict() *models.ConflictRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastConflict
}

// syncOnce performs one full cycle: push pending events, resolving
// conflicts and re-pushing as needed, or pull when the queue is empty.
func (c *Coordinator) syncOnce(ctx context.Context) error {
	c.cycleMu.Lock()
	defer c.cycleMu.Unlock()

	if !c.deps.Connectivity.Online() {
		c.setStatus(StatusOffline)
		return nil
	}

	for round := 0; round <= c.cfg.MaxConflictRounds; round++ {
		pending, err := c.deps.Log.Pending(ctx, c.cartID)
		if err != nil {
			return fmt.Errorf("failed to read pending events: %w", err)
		}
		pending, err = c.dropInvalid(ctx, pending)
		if err != nil {
			return err
		}

		if len(pending) == 0 {
			return c.pull(ctx)
		}

		baseVersion, err := c.deps.Meta.GetLastSyncVersion(ctx, c.cartID)
		if err != nil {
			return fmt.Errorf("failed to read last sync version: %w", err)
		}

		outcome, err := c.pushWithRetry(ctx, baseVersion, pending)
		if err != nil {
			if isSuperseded(ctx, err) {
				// A fresh mutation cancelled this attempt; the queued
				// trigger restarts the cycle with the full pending set.
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			c.setStatus(StatusDegraded)
			c.deps.Logger.Warn("push retries exhausted, sync degraded",
				"cart_id", c.cartID,
				"error", err)
			return err
		}

		if outcome.Accepted {
			return c.commitAccepted(ctx, pending, outcome.NewVersion)
		}

		// Version divergence: resolve, rebase, and go around to re-push
		// the surviving local events against the server's version.
		if err := c.resolveAndRebase(ctx, pending, outcome); err != nil {
			return err
		}
	}

	c.setStatus(StatusDegraded)
	c.deps.Logger.Warn("conflict rounds exhausted, sync degraded", "cart_id", c.cartID)
	return errConflictRoundsExhausted
}

var errConflictRoundsExhausted = errors.New("conflict resolution rounds exhausted")

// pushWithRetry pushes one batch, retrying transport failures with capped
// exponential backoff. Conflicts are returned, never retried here: blind
// re-push of a stale base version can only conflict again.
func (c *Coordinator) pushWithRetry(ctx context.Context, baseVersion int64, events []models.SyncEvent) (*api.PushOutcome, error) {
	pushCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.setInflight(cancel)
	defer c.setInflight(nil)

	backoff := retry.WithMaxRetries(c.cfg.MaxRetries,
		retry.WithCappedDuration(c.cfg.BackoffCap,
			retry.NewExponential(c.cfg.BackoffBase)))

	var outcome *api.PushOutcome
	err := retry.Do(pushCtx, backoff, func(ctx context.Context) error {
		callCtx, cancelCall := context.WithTimeout(ctx, c.cfg.CallTimeout)
		defer cancelCall()

		out, err := c.deps.Transport.Push(callCtx, c.cartID, c.device.DeviceID, baseVersion, events)
		if err != nil {
			if pushCtx.Err() != nil {
				return pushCtx.Err()
			}
			transportFailures.Inc()
			c.deps.Logger.Warn("push transport failure",
				"cart_id", c.cartID,
				"base_version", baseVersion,
				"error", err)
			return retry.RetryableError(err)
		}
		outcome = out
		return nil
	})
	if err != nil {
		return nil, err
	}

	pushesTotal.WithLabelValues(resultLabel(outcome)).Inc()
	return outcome, nil
}

// commitAccepted folds an acknowledged batch into the base snapshot,
// advances the version, trims the queue and tells the siblings.
func (c *Coordinator) commitAccepted(ctx context.Context, batch []models.SyncEvent, newVersion int64) error {
	c.mu.Lock()
	c.base.ApplyAll(batch)
	c.base.Version = newVersion
	snapshot := c.base.Clone()
	c.mu.Unlock()

	if err := c.persist(ctx, snapshot, newVersion); err != nil {
		return err
	}

	ids := make([]string, 0, len(batch))
	for i := range batch {
		ids = append(ids, batch[i].ID)
	}
	if err := c.deps.Log.Acknowledge(ctx, c.cartID, ids); err != nil {
		return fmt.Errorf("failed to acknowledge events: %w", err)
	}

	c.settleStatus(ctx)
	eventsApplied.WithLabelValues("local").Add(float64(len(batch)))
	c.sibling.Publish(batch)

	c.deps.Logger.Info("push accepted",
		"cart_id", c.cartID,
		"events", len(batch),
		"new_version", newVersion)
	return nil
}

// resolveAndRebase applies the deterministic conflict policy, folds the
// surviving remote events into the base, drops the losing local events from
// the queue and rebases onto the server's version.
func (c *Coordinator) resolveAndRebase(ctx context.Context, pending []models.SyncEvent, outcome *api.PushOutcome) error {
	baseVersion, err := c.deps.Meta.GetLastSyncVersion(ctx, c.cartID)
	if err != nil {
		return fmt.Errorf("failed to read last sync version: %w", err)
	}

	res := c.deps.Resolver.Resolve(c.cartID, pending, outcome.ServerEvents, baseVersion, outcome.ServerVersion)
	conflictsResolved.Inc()

	// Fold observed remote timestamps into the clock so events created
	// from now on sort after everything the server has seen.
	for i := range outcome.ServerEvents {
		if outcome.ServerEvents[i].Timestamp > c.deps.Clock.Now() {
			c.deps.Clock.Observe(outcome.ServerEvents[i].Timestamp)
		}
	}
	if err := c.deps.Meta.SaveClock(ctx, c.deps.Clock.Now()); err != nil {
		c.deps.Logger.Warn("failed to persist clock", "error", err)
	}

	localIDs := make(map[string]struct{}, len(pending))
	for i := range pending {
		localIDs[pending[i].ID] = struct{}{}
	}

	// Split the merged sequence: remote survivors fold into the base now,
	// local survivors stay queued for the re-push. The resolver guarantees
	// the two groups touch disjoint items, so fold order cannot matter.
	var remoteSurvivors []models.SyncEvent
	survivingLocal := make(map[string]struct{})
	for _, event := range res.Merged {
		if _, ok := localIDs[event.ID]; ok {
			survivingLocal[event.ID] = struct{}{}
		} else {
			remoteSurvivors = append(remoteSurvivors, event)
		}
	}

	var droppedLocal []string
	for i := range pending {
		if _, ok := survivingLocal[pending[i].ID]; !ok {
			droppedLocal = append(droppedLocal, pending[i].ID)
		}
	}

	c.mu.Lock()
	c.base.ApplyAll(remoteSurvivors)
	// Mark dropped remote events as seen: they lost to a local event and
	// must stay no-ops if a later pull replays them.
	for i := range res.Record.Dropped {
		if _, ok := localIDs[res.Record.Dropped[i].ID]; !ok {
			c.base.Applied[res.Record.Dropped[i].ID] = struct{}{}
		}
	}
	c.base.Version = outcome.ServerVersion
	snapshot := c.base.Clone()
	c.lastConflict = &res.Record
	c.mu.Unlock()

	if err := c.persist(ctx, snapshot, outcome.ServerVersion); err != nil {
		return err
	}
	if err := c.deps.Log.Acknowledge(ctx, c.cartID, droppedLocal); err != nil {
		return fmt.Errorf("failed to drop superseded events: %w", err)
	}

	eventsApplied.WithLabelValues("remote").Add(float64(len(remoteSurvivors)))
	c.sibling.Publish(remoteSurvivors)
	return nil
}

// pull fetches and applies events accepted at the store after our version.
// Runs when the pending queue is empty, with the same bounded backoff as a
// push.
func (c *Coordinator) pull(ctx context.Context) error {
	sinceVersion, err := c.deps.Meta.GetLastSyncVersion(ctx, c.cartID)
	if err != nil {
		return fmt.Errorf("failed to read last sync version: %w", err)
	}

	backoff := retry.WithMaxRetries(c.cfg.MaxRetries,
		retry.WithCappedDuration(c.cfg.BackoffCap,
			retry.NewExponential(c.cfg.BackoffBase)))

	var (
		events  []models.SyncEvent
		version int64
	)
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		callCtx, cancelCall := context.WithTimeout(ctx, c.cfg.CallTimeout)
		defer cancelCall()

		evs, ver, err := c.deps.Transport.Pull(callCtx, c.cartID, sinceVersion)
		if err != nil {
			transportFailures.Inc()
			return retry.RetryableError(err)
		}
		events, version = evs, ver
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		c.setStatus(StatusDegraded)
		c.deps.Logger.Warn("pull retries exhausted, sync degraded",
			"cart_id", c.cartID,
			"error", err)
		return err
	}

	if len(events) == 0 && version == sinceVersion {
		c.settleStatus(ctx)
		return nil
	}

	for i := range events {
		if events[i].Timestamp > c.deps.Clock.Now() {
			c.deps.Clock.Observe(events[i].Timestamp)
		}
	}

	c.mu.Lock()
	applied := c.base.ApplyAll(events)
	c.base.Version = version
	snapshot := c.base.Clone()
	c.mu.Unlock()

	if err := c.persist(ctx, snapshot, version); err != nil {
		return err
	}

	c.settleStatus(ctx)
	if applied > 0 {
		eventsApplied.WithLabelValues("remote").Add(float64(applied))
		c.sibling.Publish(events)
		c.deps.Logger.Info("pulled remote events",
			"cart_id", c.cartID,
			"events", applied,
			"version", version)
	}
	return nil
}

// applySiblingBatch folds a batch another local context already synced into
// our base. Local-only: no network round-trip.
func (c *Coordinator) applySiblingBatch(ctx context.Context, batch []models.SyncEvent) {
	for i := range batch {
		if batch[i].Timestamp > c.deps.Clock.Now() {
			c.deps.Clock.Observe(batch[i].Timestamp)
		}
	}

	c.mu.Lock()
	applied := c.base.ApplyAll(batch)
	snapshot := c.base.Clone()
	c.mu.Unlock()

	if applied == 0 {
		return
	}

	if err := c.deps.Meta.SaveSnapshot(ctx, snapshot); err != nil {
		c.deps.Logger.Warn("failed to persist sibling batch", "error", err)
	}

	eventsApplied.WithLabelValues("sibling").Add(float64(applied))
	c.deps.Logger.Debug("applied sibling batch",
		"cart_id", c.cartID,
		"events", applied)
}

// dropInvalid removes malformed events from the queue: dropped locally and
// logged, never retried, so corrupt input cannot cause an infinite loop.
func (c *Coordinator) dropInvalid(ctx context.Context, pending []models.SyncEvent) ([]models.SyncEvent, error) {
	var invalid []string
	valid := pending[:0]
	for i := range pending {
		if err := pending[i].Validate(); err != nil {
			invalid = append(invalid, pending[i].ID)
			c.deps.Logger.Error("dropping malformed event",
				"cart_id", c.cartID,
				"event_id", pending[i].ID,
				"error", err)
			continue
		}
		valid = append(valid, pending[i])
	}
	if len(invalid) == 0 {
		return valid, nil
	}
	if err := c.deps.Log.Acknowledge(ctx, c.cartID, invalid); err != nil {
		return nil, fmt.Errorf("failed to drop malformed events: %w", err)
	}
	return valid, nil
}

// heartbeat refreshes this device's record locally and at the store, and
// prunes devices silent past the registry's inactivity window.
func (c *Coordinator) heartbeat(ctx context.Context) {
	if err := c.deps.Registry.Heartbeat(ctx, c.cartID, c.device.DeviceID); err != nil {
		c.deps.Logger.Debug("local heartbeat failed", "error", err)
	}
	if _, err := c.deps.Registry.Prune(ctx, c.cartID); err != nil {
		c.deps.Logger.Debug("device prune failed", "error", err)
	}
	if !c.deps.Connectivity.Online() {
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	rec := c.device
	rec.LastSeen = time.Now()
	rec.Online = true
	if err := c.deps.Transport.RegisterDevice(callCtx, c.cartID, &rec); err != nil {
		c.deps.Logger.Debug("device heartbeat failed", "error", err)
	}
}

func (c *Coordinator) persist(ctx context.Context, snapshot *models.CartState, version int64) error {
	if err := c.deps.Meta.SaveSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to persist snapshot: %w", err)
	}
	if err := c.deps.Meta.SaveLastSyncVersion(ctx, c.cartID, version); err != nil {
		return fmt.Errorf("failed to persist sync version: %w", err)
	}
	return nil
}

// settleStatus recomputes the resting status after a successful cycle.
func (c *Coordinator) settleStatus(ctx context.Context) {
	n, err := c.deps.Log.PendingCount(ctx, c.cartID)
	if err != nil || n > 0 {
		c.setStatus(StatusPending)
		return
	}
	c.setStatus(StatusSynced)
}

func (c *Coordinator) setStatus(status Status) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Without durable storage there is no cross-device guarantee; the
	// status floor stays degraded for the whole session.
	if c.cfg.MemoryOnly && status == StatusSynced {
		status = StatusDegraded
	}
	c.status = status
}

func (c *Coordinator) setInflight(cancel context.CancelFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflightCancel = cancel
}

func (c *Coordinator) cancelInflight() {
	c.mu.Lock()
	cancel := c.inflightCancel
	c.inflightCancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (c *Coordinator) signal() {
	select {
	case c.trigger <- struct{}{}:
	default:
	}
}

// isSuperseded reports whether an in-flight attempt was cancelled by a
// newer mutation rather than by the caller shutting down.
func isSuperseded(ctx context.Context, err error) bool {
	return errors.Is(err, context.Canceled) && ctx.Err() == nil
}

func resultLabel(outcome *api.PushOutcome) string {
	if outcome.Conflict {
		return "conflict"
	}
	return "accepted"
}
