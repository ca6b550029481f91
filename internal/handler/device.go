package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"vidshare/internal/httputil"
	"vidshare/internal/model"
	"vidshare/internal/transport/http/middleware"
)

// DeviceStore keeps the Expo push tokens of users.
type DeviceStore interface {
	Upsert(ctx context.Context, userID, token, platform string) error
	Delete(ctx context.Context, userID, token string) error
}

type DeviceHandler struct {
	devices DeviceStore
	logger  *zap.Logger
}

func NewDeviceHandler(devices DeviceStore, logger *zap.Logger) *DeviceHandler {
	return &DeviceHandler{devices: devices, logger: logger}
}

// Register handles POST /devices
// Registers the signed-in user's device for "video is live" pushes.
func (h *DeviceHandler) Register(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.DeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteFromError(w, h.logger, err)
		return
	}

	if err := h.devices.Upsert(r.Context(), user.ID, req.Token, req.Platform); err != nil {
		h.logger.Error("register device token", zap.String("user_id", user.ID), zap.Error(err))
		httputil.WriteInternalError(w, "Failed to register device token")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Device token registered",
	})
}

// Remove handles DELETE /devices
// Removes one of the signed-in user's device tokens, e.g. on sign out.
func (h *DeviceHandler) Remove(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.DeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.Token == "" {
		httputil.WriteBadRequest(w, "token is required")
		return
	}

	if err := h.devices.Delete(r.Context(), user.ID, req.Token); err != nil {
		h.logger.Error("remove device token", zap.String("user_id", user.ID), zap.Error(err))
		httputil.WriteInternalError(w, "Failed to remove device token")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
