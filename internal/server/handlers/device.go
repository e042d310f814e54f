package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mercanto/cartsync/internal/models"
	"github.com/mercanto/cartsync/pkg/api"
)

// DeviceStorage is the slice of the store the device handlers need.
type DeviceStorage interface {
	SaveDevice(ctx context.Context, cartID string, rec *models.DeviceRecord) error
	ListDevices(ctx context.Context, cartID string) ([]models.DeviceRecord, error)
}

// DeviceHandler serves device registration, heartbeat and listing.
type DeviceHandler struct {
	logger  *slog.Logger
	storage DeviceStorage
}

// NewDeviceHandler creates a device handler.
func NewDeviceHandler(logger *slog.Logger, storage DeviceStorage) *DeviceHandler {
	return &DeviceHandler{
		logger:  logger,
		storage: storage,
	}
}

// HandleRegister handles POST /cart/sync/device. Registration and heartbeat
// are the same upsert.
func (h *DeviceHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.DeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode device request", "error", err)
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	if req.CartID == "" || req.Device.DeviceID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "cartId and deviceId are required")
		return
	}

	rec := models.DeviceFromWire(req.Device)
	if err := h.storage.SaveDevice(ctx, req.CartID, &rec); err != nil {
		h.logger.Error("failed to save device",
			"error", err, "cart_id", req.CartID, "device_id", rec.DeviceID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	h.logger.Info("device registered",
		"cart_id", req.CartID,
		"device_id", rec.DeviceID,
		"device_class", rec.DeviceClass)

	w.WriteHeader(http.StatusNoContent)
}

// HandleList handles GET /cart/sync/device?cartId=...
func (h *DeviceHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cartID := r.URL.Query().Get("cartId")
	if cartID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "cartId is required")
		return
	}

	devices, err := h.storage.ListDevices(ctx, cartID)
	if err != nil {
		h.logger.Error("failed to list devices", "error", err, "cart_id", cartID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	wire := make([]api.DeviceRecord, 0, len(devices))
	for i := range devices {
		wire = append(wire, models.DeviceToWire(&devices[i]))
	}

	writeJSON(w, h.logger, http.StatusOK, api.DeviceListResponse{Devices: wire})
}
