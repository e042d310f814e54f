// Package handlers holds the HTTP handlers of the cart store service.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mercanto/cartsync/internal/models"
	"github.com/mercanto/cartsync/internal/server/storage"
	"github.com/mercanto/cartsync/pkg/api"
)

// CartStorage is the slice of the store the sync handlers need.
type CartStorage interface {
	AppendEvents(ctx context.Context, cartID string, baseVersion int64, events []models.SyncEvent) (int64, error)
	EventsSince(ctx context.Context, cartID string, sinceVersion int64) ([]models.SyncEvent, int64, error)
	Version(ctx context.Context, cartID string) (int64, error)
}

// SyncHandler serves push and pull for cart event batches.
type SyncHandler struct {
	logger  *slog.Logger
	storage CartStorage
}

// NewSyncHandler creates a sync handler.
func NewSyncHandler(logger *slog.Logger, storage CartStorage) *SyncHandler {
	return &SyncHandler{
		logger:  logger,
		storage: storage,
	}
}

// HandlePush handles POST /cart/sync. A batch pushed against a stale
// BaseVersion is answered with a conflict payload carrying the events the
// client is missing; the store never silently overwrites.
func (h *SyncHandler) HandlePush(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.PushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode push request", "error", err)
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	if req.CartID == "" || req.DeviceID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "cartId and deviceId are required")
		return
	}

	events := models.EventsFromWire(req.Events)
	for i := range events {
		if err := events[i].Validate(); err != nil {
			h.logger.Warn("rejecting malformed event",
				"event_id", events[i].ID, "error", err)
			writeError(w, http.StatusBadRequest, "invalid_event", err.Error())
			return
		}
		if events[i].CartID != req.CartID {
			writeError(w, http.StatusBadRequest, "invalid_event", "event cart id does not match request")
			return
		}
	}

	h.logger.Info("push request",
		"cart_id", req.CartID,
		"device_id", req.DeviceID,
		"base_version", req.BaseVersion,
		"events_count", len(events))

	newVersion, err := h.storage.AppendEvents(ctx, req.CartID, req.BaseVersion, events)
	if errors.Is(err, storage.ErrVersionConflict) {
		serverEvents, serverVersion, err := h.storage.EventsSince(ctx, req.CartID, req.BaseVersion)
		if err != nil {
			h.logger.Error("failed to load conflicting events", "error", err, "cart_id", req.CartID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
			return
		}

		h.logger.Info("push conflict",
			"cart_id", req.CartID,
			"device_id", req.DeviceID,
			"base_version", req.BaseVersion,
			"server_version", serverVersion)

		// A conflict is a normal sync outcome, not a transport failure,
		// so it travels as a 200 with the conflict payload.
		writeJSON(w, h.logger, http.StatusOK, api.PushResponse{
			Conflict:      true,
			ServerEvents:  models.EventsToWire(serverEvents),
			ServerVersion: serverVersion,
		})
		return
	}
	if err != nil {
		h.logger.Error("failed to append events", "error", err, "cart_id", req.CartID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	h.logger.Info("push accepted",
		"cart_id", req.CartID,
		"device_id", req.DeviceID,
		"new_version", newVersion)

	writeJSON(w, h.logger, http.StatusOK, api.PushResponse{
		Accepted:   true,
		NewVersion: newVersion,
	})
}

// HandlePull handles GET /cart/state?cartId=...&sinceVersion=N. An unknown
// cart is an empty cart at version 0, not an error.
func (h *SyncHandler) HandlePull(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cartID := r.URL.Query().Get("cartId")
	if cartID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "cartId is required")
		return
	}

	var sinceVersion int64
	if raw := r.URL.Query().Get("sinceVersion"); raw != "" {
		var err error
		sinceVersion, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.logger.Warn("invalid sinceVersion parameter", "since_version", raw, "error", err)
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid sinceVersion parameter")
			return
		}
	}

	events, version, err := h.storage.EventsSince(ctx, cartID, sinceVersion)
	if err != nil {
		h.logger.Error("failed to load events", "error", err, "cart_id", cartID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	h.logger.Info("pull completed",
		"cart_id", cartID,
		"since_version", sinceVersion,
		"events_count", len(events),
		"version", version)

	writeJSON(w, h.logger, http.StatusOK, api.PullResponse{
		Events:  models.EventsToWire(events),
		Version: version,
	})
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{
		Error:   code,
		Message: message,
	})
}
