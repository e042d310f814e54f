package coordinator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercanto/cartsync/internal/client/api"
	"github.com/mercanto/cartsync/internal/client/platform"
	"github.com/mercanto/cartsync/internal/client/registry"
	"github.com/mercanto/cartsync/internal/client/resolver"
	"github.com/mercanto/cartsync/internal/client/storage/memory"
	"github.com/mercanto/cartsync/internal/clock"
	"github.com/mercanto/cartsync/internal/models"
)

// fakeServer mimics the cart store's append semantics in process: optimistic
// version check, id dedup, one version bump per accepted batch.
type fakeServer struct {
	mu      sync.Mutex
	events  []models.SyncEvent
	version int64
	known   map[string]struct{}
}

func newFakeServer() *fakeServer {
	return &fakeServer{known: make(map[string]struct{})}
}

func (s *fakeServer) push(baseVersion int64, events []models.SyncEvent) *api.PushOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if baseVersion != s.version {
		return &api.PushOutcome{
			Conflict:      true,
			ServerEvents:  s.eventsSinceLocked(baseVersion),
			ServerVersion: s.version,
		}
	}

	newVersion := s.version
	for _, event := range events {
		if _, ok := s.known[event.ID]; ok {
			continue
		}
		if newVersion == s.version {
			newVersion = s.version + 1
		}
		event.Version = newVersion
		s.events = append(s.events, event)
		s.known[event.ID] = struct{}{}
	}
	s.version = newVersion
	return &api.PushOutcome{Accepted: true, NewVersion: newVersion}
}

func (s *fakeServer) pull(sinceVersion int64) ([]models.SyncEvent, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eventsSinceLocked(sinceVersion), s.version
}

func (s *fakeServer) eventsSinceLocked(sinceVersion int64) []models.SyncEvent {
	var out []models.SyncEvent
	for _, event := range s.events {
		if event.Version > sinceVersion {
			out = append(out, event)
		}
	}
	return out
}

// fakeTransport drives the fake server and injects transport failures,
// slow round-trips and blocked pushes.
type fakeTransport struct {
	server *fakeServer

	mu          sync.Mutex
	failPush    bool
	failPull    bool
	pushCalls   int
	pullCalls   int
	pushDelay   time.Duration
	blockPush   chan struct{}
	pushStarted chan struct{}
	inflight    int
	maxInflight int
}

func (f *fakeTransport) Push(ctx context.Context, cartID, deviceID string, baseVersion int64, events []models.SyncEvent) (*api.PushOutcome, error) {
	f.mu.Lock()
	f.pushCalls++
	f.inflight++
	if f.inflight > f.maxInflight {
		f.maxInflight = f.inflight
	}
	fail := f.failPush
	delay := f.pushDelay
	block := f.blockPush
	started := f.pushStarted
	f.blockPush = nil
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inflight--
		f.mu.Unlock()
	}()

	if block != nil {
		if started != nil {
			started <- struct{}{}
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-block:
		}
	}
	if delay > 0 {
		time.Sleep(delay)
	}

	if fail {
		return nil, &api.TransportError{Op: "push", Err: errors.New("connection refused")}
	}
	return f.server.push(baseVersion, events), nil
}

func (f *fakeTransport) Pull(ctx context.Context, cartID string, sinceVersion int64) ([]models.SyncEvent, int64, error) {
	f.mu.Lock()
	f.pullCalls++
	fail := f.failPull
	f.mu.Unlock()

	if fail {
		return nil, 0, &api.TransportError{Op: "pull", Err: errors.New("connection refused")}
	}
	events, version := f.server.pull(sinceVersion)
	return events, version, nil
}

func (f *fakeTransport) RegisterDevice(ctx context.Context, cartID string, rec *models.DeviceRecord) error {
	return nil
}

func (f *fakeTransport) setFailPush(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failPush = fail
}

func (f *fakeTransport) setBlockPush(release, started chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blockPush = release
	f.pushStarted = started
}

func (f *fakeTransport) pushCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pushCalls
}

func (f *fakeTransport) maxInflightCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxInflight
}

type testEnv struct {
	coord     *Coordinator
	store     *memory.Storage
	transport *fakeTransport
	monitor   *platform.Monitor
}

func fastConfig() Config {
	return Config{
		BackoffBase: time.Millisecond,
		BackoffCap:  2 * time.Millisecond,
		MaxRetries:  2,
	}
}

func newTestEnv(t *testing.T, deviceID string, server *fakeServer, cfg Config, bus *platform.LocalBus) *testEnv {
	t.Helper()

	store := memory.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	transport := &fakeTransport{server: server}
	monitor := platform.NewMonitor(true)

	coord, err := New(context.Background(), "cart-1",
		models.DeviceRecord{DeviceID: deviceID, DisplayName: deviceID, DeviceClass: models.DeviceClassDesktop},
		cfg,
		Deps{
			Log:          store,
			Meta:         store,
			Transport:    transport,
			Resolver:     resolver.New(logger),
			Clock:        clock.NewWithDeviceID(deviceID),
			Connectivity: monitor,
			Channel:      bus,
			Registry:     registry.NewService(store, logger),
			Logger:       logger,
		})
	require.NoError(t, err)
	t.Cleanup(coord.Close)

	return &testEnv{coord: coord, store: store, transport: transport, monitor: monitor}
}

func itemX(qty int) models.ItemPayload {
	return models.ItemPayload{ItemID: "sku-x", Name: "Beans", Price: 100, Quantity: qty}
}

func itemY(qty int) models.ItemPayload {
	return models.ItemPayload{ItemID: "sku-y", Name: "Filters", Price: 50, Quantity: qty}
}

func TestCoordinator_MutateIsOptimistic(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "device-a", newFakeServer(), fastConfig(), platform.NewLocalBus())

	event, err := env.coord.AddItem(ctx, itemX(2))
	require.NoError(t, err)
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "device-a", event.DeviceID)

	// The mutation is visible immediately, before any network round-trip.
	state, err := env.coord.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, state.Items["sku-x"].Quantity)
	assert.Equal(t, StatusPending, env.coord.Status())

	count, err := env.store.PendingCount(ctx, "cart-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCoordinator_SyncPushesAndSettles(t *testing.T) {
	ctx := context.Background()
	server := newFakeServer()
	env := newTestEnv(t, "device-a", server, fastConfig(), platform.NewLocalBus())

	_, err := env.coord.AddItem(ctx, itemX(2))
	require.NoError(t, err)

	require.NoError(t, env.coord.SyncNow(ctx))

	assert.Equal(t, StatusSynced, env.coord.Status())

	count, err := env.store.PendingCount(ctx, "cart-1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	events, version := server.pull(0)
	assert.Equal(t, int64(1), version)
	require.Len(t, events, 1)

	// Replaying the same sync is a no-op for the store.
	require.NoError(t, env.coord.SyncNow(ctx))
	_, version = server.pull(0)
	assert.Equal(t, int64(1), version)
}

func TestCoordinator_RestartRestoresState(t *testing.T) {
	ctx := context.Background()
	server := newFakeServer()
	env := newTestEnv(t, "device-a", server, fastConfig(), platform.NewLocalBus())

	_, err := env.coord.AddItem(ctx, itemX(2))
	require.NoError(t, err)
	require.NoError(t, env.coord.SyncNow(ctx))

	// A second coordinator over the same storage is a process restart.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	restarted, err := New(ctx, "cart-1",
		models.DeviceRecord{DeviceID: "device-a", DeviceClass: models.DeviceClassDesktop},
		fastConfig(),
		Deps{
			Log:          env.store,
			Meta:         env.store,
			Transport:    env.transport,
			Resolver:     resolver.New(logger),
			Clock:        clock.NewWithDeviceID("device-a"),
			Connectivity: env.monitor,
			Channel:      platform.NewLocalBus(),
			Registry:     registry.NewService(env.store, logger),
			Logger:       logger,
		})
	require.NoError(t, err)
	defer restarted.Close()

	state, err := restarted.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, state.Items["sku-x"].Quantity)
	assert.Equal(t, int64(1), state.Version)
	assert.Equal(t, StatusSynced, restarted.Status())
}

func TestCoordinator_DisjointConflictConverges(t *testing.T) {
	ctx := context.Background()
	server := newFakeServer()
	bus := platform.NewLocalBus()

	deviceA := newTestEnv(t, "device-a", server, fastConfig(), bus)
	deviceB := newTestEnv(t, "device-b", server, fastConfig(), platform.NewLocalBus())

	// Device A queues an add while effectively offline; device B syncs
	// first and moves the store to version 1.
	_, err := deviceA.coord.AddItem(ctx, itemX(2))
	require.NoError(t, err)

	_, err = deviceB.coord.AddItem(ctx, itemY(1))
	require.NoError(t, err)
	require.NoError(t, deviceB.coord.SyncNow(ctx))

	// Device A's push declares base version 0 and conflicts; the engine
	// resolves and re-pushes within the same cycle.
	require.NoError(t, deviceA.coord.SyncNow(ctx))

	record := deviceA.coord.LastConflict()
	require.NotNil(t, record)
	assert.Equal(t, models.ResolutionMerge, record.Resolution)
	assert.Empty(t, record.Dropped)

	// Device B pulls A's event on its next cycle.
	require.NoError(t, deviceB.coord.SyncNow(ctx))

	stateA, err := deviceA.coord.Snapshot(ctx)
	require.NoError(t, err)
	stateB, err := deviceB.coord.Snapshot(ctx)
	require.NoError(t, err)

	// Both replicas converge to the same cart: X times 2 and Y times 1.
	assert.Equal(t, stateA.Items, stateB.Items)
	assert.Equal(t, 2, stateA.Items["sku-x"].Quantity)
	assert.Equal(t, 1, stateA.Items["sku-y"].Quantity)
	assert.Equal(t, stateA.Version, stateB.Version)
	assert.Equal(t, StatusSynced, deviceA.coord.Status())
	assert.Equal(t, StatusSynced, deviceB.coord.Status())
}

func TestCoordinator_ClearWinsAndStaysCleared(t *testing.T) {
	ctx := context.Background()
	server := newFakeServer()

	deviceA := newTestEnv(t, "device-a", server, fastConfig(), platform.NewLocalBus())
	deviceB := newTestEnv(t, "device-b", server, fastConfig(), platform.NewLocalBus())

	// Device B gets an item into the store first.
	_, err := deviceB.coord.AddItem(ctx, itemX(3))
	require.NoError(t, err)
	require.NoError(t, deviceB.coord.SyncNow(ctx))

	// Device A clears concurrently, never having seen B's add.
	_, err = deviceA.coord.ClearCart(ctx)
	require.NoError(t, err)
	require.NoError(t, deviceA.coord.SyncNow(ctx))

	record := deviceA.coord.LastConflict()
	require.NotNil(t, record)
	require.Len(t, record.Dropped, 1)
	assert.Equal(t, models.EventAdd, record.Dropped[0].Type)

	// The dropped add must not resurrect through a later pull.
	require.NoError(t, deviceA.coord.SyncNow(ctx))
	stateA, err := deviceA.coord.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, stateA.Items)

	// Device B converges to the cleared cart.
	require.NoError(t, deviceB.coord.SyncNow(ctx))
	stateB, err := deviceB.coord.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, stateB.Items)
	assert.Equal(t, stateA.Version, stateB.Version)
}

func TestCoordinator_BackoffExhaustionDegrades(t *testing.T) {
	ctx := context.Background()
	server := newFakeServer()
	env := newTestEnv(t, "device-a", server, fastConfig(), platform.NewLocalBus())
	env.transport.setFailPush(true)

	_, err := env.coord.AddItem(ctx, itemX(1))
	require.NoError(t, err)

	err = env.coord.SyncNow(ctx)
	require.Error(t, err)
	assert.Equal(t, StatusDegraded, env.coord.Status())

	// Bounded retries: the initial attempt plus MaxRetries, never more.
	assert.Equal(t, 3, env.transport.pushCount())

	// Local state stays fully usable while degraded.
	state, err := env.coord.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, state.Items["sku-x"].Quantity)

	// The next explicit trigger revives the engine.
	env.transport.setFailPush(false)
	require.NoError(t, env.coord.SyncNow(ctx))
	assert.Equal(t, StatusSynced, env.coord.Status())
}

func TestCoordinator_OfflineSkipsNetwork(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "device-a", newFakeServer(), fastConfig(), platform.NewLocalBus())
	env.monitor.Set(false)

	_, err := env.coord.AddItem(ctx, itemX(1))
	require.NoError(t, err)

	require.NoError(t, env.coord.SyncNow(ctx))
	assert.Equal(t, StatusOffline, env.coord.Status())
	assert.Equal(t, 0, env.transport.pushCount())

	// Connectivity regained: the same queue drains normally.
	env.monitor.Set(true)
	require.NoError(t, env.coord.SyncNow(ctx))
	assert.Equal(t, StatusSynced, env.coord.Status())
}

func TestCoordinator_MemoryOnlyNeverReportsSynced(t *testing.T) {
	ctx := context.Background()
	cfg := fastConfig()
	cfg.MemoryOnly = true
	env := newTestEnv(t, "device-a", newFakeServer(), cfg, platform.NewLocalBus())

	assert.Equal(t, StatusDegraded, env.coord.Status())

	_, err := env.coord.AddItem(ctx, itemX(1))
	require.NoError(t, err)
	require.NoError(t, env.coord.SyncNow(ctx))

	// The push succeeded, but without durable storage the status floor
	// stays degraded for the session.
	assert.Equal(t, StatusDegraded, env.coord.Status())
}

func TestCoordinator_SiblingBroadcast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server := newFakeServer()
	bus := platform.NewLocalBus()

	publisher := newTestEnv(t, "device-a", server, fastConfig(), bus)
	sibling := newTestEnv(t, "device-a2", server, fastConfig(), bus)

	go sibling.coord.Run(ctx)

	_, err := publisher.coord.AddItem(ctx, itemX(2))
	require.NoError(t, err)
	require.NoError(t, publisher.coord.SyncNow(ctx))

	// The sibling context converges without its own network round-trip.
	require.Eventually(t, func() bool {
		state, err := sibling.coord.Snapshot(ctx)
		return err == nil && state.Items["sku-x"].Quantity == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCoordinator_InvalidEventsDroppedNotRetried(t *testing.T) {
	ctx := context.Background()
	server := newFakeServer()
	env := newTestEnv(t, "device-a", server, fastConfig(), platform.NewLocalBus())

	// A corrupt event sneaks into the queue beneath the coordinator.
	require.NoError(t, env.store.Append(ctx, &models.SyncEvent{
		ID: "corrupt", Type: models.EventAdd, CartID: "cart-1", DeviceID: "device-a",
		Timestamp: 1,
	}))
	_, err := env.coord.AddItem(ctx, itemX(1))
	require.NoError(t, err)

	require.NoError(t, env.coord.SyncNow(ctx))

	// Only the valid event reached the store; the corrupt one is gone.
	events, _ := server.pull(0)
	require.Len(t, events, 1)
	assert.Equal(t, "sku-x", events[0].Item.ItemID)

	count, err := env.store.PendingCount(ctx, "cart-1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Equal(t, StatusSynced, env.coord.Status())
}

func TestCoordinator_ConcurrentSyncCallsSerialize(t *testing.T) {
	ctx := context.Background()
	server := newFakeServer()
	env := newTestEnv(t, "device-a", server, fastConfig(), platform.NewLocalBus())
	env.transport.pushDelay = 30 * time.Millisecond

	_, err := env.coord.AddItem(ctx, itemX(1))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = env.coord.SyncNow(ctx)
		}()
	}
	wg.Wait()

	// One push/pull round-trip in flight per cart, however many callers
	// trigger a cycle at once.
	assert.Equal(t, 1, env.transport.maxInflightCount())
	assert.Equal(t, StatusSynced, env.coord.Status())

	_, version := server.pull(0)
	assert.Equal(t, int64(1), version)
}

func TestCoordinator_MutationSupersedesInflightPush(t *testing.T) {
	ctx := context.Background()
	server := newFakeServer()
	env := newTestEnv(t, "device-a", server, fastConfig(), platform.NewLocalBus())

	_, err := env.coord.AddItem(ctx, itemX(1))
	require.NoError(t, err)

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	env.transport.setBlockPush(release, started)

	done := make(chan error, 1)
	go func() { done <- env.coord.SyncNow(ctx) }()

	// Wait until the push is on the wire, then mutate: the fresh event
	// cancels the stale attempt.
	<-started
	_, err = env.coord.AddItem(ctx, itemY(2))
	require.NoError(t, err)

	// The superseded cycle finishes quietly and its result is discarded:
	// nothing landed at the store, the queue stays pending.
	require.NoError(t, <-done)
	_, version := server.pull(0)
	assert.Equal(t, int64(0), version)
	assert.Equal(t, StatusPending, env.coord.Status())

	close(release)

	// The next cycle covers the full pending set in a single batch.
	require.NoError(t, env.coord.SyncNow(ctx))

	events, version := server.pull(0)
	assert.Equal(t, int64(1), version)
	require.Len(t, events, 2)
	assert.Equal(t, StatusSynced, env.coord.Status())

	count, err := env.store.PendingCount(ctx, "cart-1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestCoordinator_HeartbeatPrunesStaleDevices(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "device-a", newFakeServer(), fastConfig(), platform.NewLocalBus())

	// A record silent far past the registry's inactivity window.
	require.NoError(t, env.store.SaveDevice(ctx, "cart-1", &models.DeviceRecord{
		DeviceID:    "device-old",
		DisplayName: "Retired phone",
		DeviceClass: models.DeviceClassMobile,
		LastSeen:    time.Now().Add(-60 * 24 * time.Hour),
	}))

	env.coord.heartbeat(ctx)

	devices, err := env.store.ListDevices(ctx, "cart-1")
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "device-a", devices[0].DeviceID)
}

func TestCoordinator_CloseMarksDeviceOffline(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "device-a", newFakeServer(), fastConfig(), platform.NewLocalBus())

	env.coord.Close()

	rec, err := env.store.GetDevice(ctx, "cart-1", "device-a")
	require.NoError(t, err)
	assert.False(t, rec.Online)
}

func TestCoordinator_EmptyQueuePulls(t *testing.T) {
	ctx := context.Background()
	server := newFakeServer()

	writer := newTestEnv(t, "device-a", server, fastConfig(), platform.NewLocalBus())
	reader := newTestEnv(t, "device-b", server, fastConfig(), platform.NewLocalBus())

	_, err := writer.coord.AddItem(ctx, itemX(2))
	require.NoError(t, err)
	require.NoError(t, writer.coord.SyncNow(ctx))

	// Reader has nothing queued, so its cycle is a pull.
	require.NoError(t, reader.coord.SyncNow(ctx))

	state, err := reader.coord.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, state.Items["sku-x"].Quantity)
	assert.Equal(t, int64(1), state.Version)
}
