// Package resolver turns a version-divergence response from the cart store
// into a single merged event sequence both sides can converge to. The
// policy is deterministic: every replica given the same two event sets
// produces the same merged order.
package resolver

import (
	"log/slog"
	"sort"

	"github.com/mercanto/cartsync/internal/models"
)

// Result is the outcome of resolving one conflict: the merged sequence to
// replay and the audit record describing what was kept and dropped.
type Result struct {
	Merged []models.SyncEvent
	Record models.ConflictRecord
}

// Resolver applies the deterministic conflict policy.
type Resolver struct {
	logger *slog.Logger
}

// New creates a resolver.
func New(logger *slog.Logger) *Resolver {
	return &Resolver{logger: logger}
}

// Resolve merges local pending events with the server events returned in a
// conflict response. Rules, in precedence order:
//
//  1. A clear event beats any concurrent mutation regardless of timestamp.
//     Only the winning clear's own device can mutate past it: its later
//     events are causally ordered behind the clear and replay on top of
//     the emptied cart. Everything else in the conflict window is dropped.
//  2. Events targeting disjoint items are all kept, ordered by
//     (timestamp, id).
//  3. Events targeting the same item resolve latest-timestamp-wins, with a
//     device-id tiebreak; losers are audited, never reapplied.
func (r *Resolver) Resolve(cartID string, local, remote []models.SyncEvent, localVersion, remoteVersion int64) Result {
	record := models.ConflictRecord{
		CartID:        cartID,
		LocalVersion:  localVersion,
		RemoteVersion: remoteVersion,
		LocalEvents:   models.CloneEvents(local),
		RemoteEvents:  models.CloneEvents(remote),
	}

	var merged, dropped []models.SyncEvent
	if clear := latestClear(local, remote); clear != nil {
		merged, dropped = resolveClear(clear, local, remote)
	} else {
		merged, dropped = resolveByItem(local, remote)
	}

	sortEvents(merged)
	record.Dropped = dropped
	record.Resolution = resolution(merged, local)

	r.logger.Info("conflict resolved",
		"cart_id", cartID,
		"local_version", localVersion,
		"remote_version", remoteVersion,
		"resolution", record.Resolution,
		"kept", len(merged),
		"dropped", len(dropped))

	return Result{Merged: merged, Record: record}
}

// latestClear returns the winning clear event across both sides, or nil if
// neither side cleared the cart.
func latestClear(local, remote []models.SyncEvent) *models.SyncEvent {
	var winner *models.SyncEvent
	for _, side := range [][]models.SyncEvent{local, remote} {
		for i := range side {
			if side[i].Type != models.EventClear {
				continue
			}
			if winner == nil || side[i].IsNewerThan(winner) {
				winner = side[i].Clone()
			}
		}
	}
	return winner
}

// resolveClear keeps the winning clear, so a stale update can never
// resurrect cleared items. Events the clearing device itself issued after
// the clear are not concurrent with it: per-device timestamps are
// monotonic, so they are kept and replay on top of the emptied cart.
func resolveClear(clear *models.SyncEvent, local, remote []models.SyncEvent) (merged, dropped []models.SyncEvent) {
	merged = []models.SyncEvent{*clear}
	for _, side := range [][]models.SyncEvent{local, remote} {
		for i := range side {
			event := side[i]
			if event.ID == clear.ID {
				continue
			}
			if event.DeviceID == clear.DeviceID && event.IsNewerThan(clear) {
				merged = append(merged, event)
				continue
			}
			dropped = append(dropped, event)
		}
	}
	return merged, dropped
}

// resolveByItem keeps every event for items touched by only one side and
// applies last-write-wins per item where both sides touched the same item.
func resolveByItem(local, remote []models.SyncEvent) (merged, dropped []models.SyncEvent) {
	localKeys := keySet(local)
	remoteKeys := keySet(remote)

	overlap := make(map[string]bool)
	for key := range localKeys {
		if remoteKeys[key] {
			overlap[key] = true
		}
	}

	winners := make(map[string]*models.SyncEvent)
	for _, side := range [][]models.SyncEvent{local, remote} {
		for i := range side {
			event := side[i]
			if !overlap[event.ItemKey()] {
				merged = append(merged, event)
				continue
			}
			best := winners[event.ItemKey()]
			if best == nil || event.IsNewerThan(best) {
				if best != nil {
					dropped = append(dropped, *best)
				}
				winners[event.ItemKey()] = event.Clone()
			} else {
				dropped = append(dropped, event)
			}
		}
	}
	for _, winner := range winners {
		merged = append(merged, *winner)
	}
	return merged, dropped
}

// resolution labels which side's events survived.
func resolution(merged, local []models.SyncEvent) models.Resolution {
	localIDs := make(map[string]struct{}, len(local))
	for _, event := range local {
		localIDs[event.ID] = struct{}{}
	}

	var keptLocal, keptRemote bool
	for _, event := range merged {
		if _, ok := localIDs[event.ID]; ok {
			keptLocal = true
		} else {
			keptRemote = true
		}
	}

	switch {
	case keptLocal && keptRemote:
		return models.ResolutionMerge
	case keptLocal:
		return models.ResolutionLocal
	default:
		return models.ResolutionRemote
	}
}

func keySet(events []models.SyncEvent) map[string]bool {
	keys := make(map[string]bool, len(events))
	for i := range events {
		keys[events[i].ItemKey()] = true
	}
	return keys
}

func sortEvents(events []models.SyncEvent) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].Timestamp != events[j].Timestamp {
			return events[i].Timestamp < events[j].Timestamp
		}
		return events[i].ID < events[j].ID
	})
}
