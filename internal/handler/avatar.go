package handler

import (
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"vidshare/internal/httputil"
	"vidshare/internal/model"
	"vidshare/internal/service"
)

const maxAvatarSize = 1024

type AvatarHandler struct {
	projectID string
	logger    *zap.Logger
}

func NewAvatarHandler(projectID string, logger *zap.Logger) *AvatarHandler {
	return &AvatarHandler{projectID: projectID, logger: logger}
}

// Initials handles GET /avatars/initials?name=&project=[&size=]
func (h *AvatarHandler) Initials(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("project") != h.projectID {
		httputil.WriteNotFound(w, "Project not found")
		return
	}

	name := strings.TrimSpace(q.Get("name"))
	if name == "" {
		httputil.WriteBadRequest(w, "name is required")
		return
	}

	size := model.AvatarSize
	if raw := q.Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxAvatarSize {
			httputil.WriteBadRequest(w, "size must be between 1 and 1024")
			return
		}
		size = n
	}

	png, err := service.RenderInitialsAvatar(name, size)
	if err != nil {
		h.logger.Error("render avatar", zap.String("name", name), zap.Error(err))
		httputil.WriteInternalError(w, "Failed to render avatar")
		return
	}

	w.Header().Set("Content-Type", model.ContentTypePNG)
	w.Header().Set("Cache-Control", model.ObjectCacheControl)
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
