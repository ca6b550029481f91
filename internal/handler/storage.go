package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"vidshare/internal/config"
	"vidshare/internal/httputil"
	"vidshare/internal/model"
)

// FileStore is the storage surface of the data client.
type FileStore interface {
	Upload(ctx context.Context, file *model.MediaFile, kind model.FileKind) (*model.UploadResult, error)
	ReadFile(ctx context.Context, fileID string) (io.ReadCloser, string, error)
}

// StorageHandler serves the bucket endpoints the stored URLs point at.
type StorageHandler struct {
	files   FileStore
	backend config.Backend
	logger  *zap.Logger
}

func NewStorageHandler(files FileStore, backend config.Backend, logger *zap.Logger) *StorageHandler {
	return &StorageHandler{files: files, backend: backend, logger: logger}
}

// Upload handles POST /storage/buckets/{bucket}/files with a "file" part and
// a "type" field of image or video.
func (h *StorageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "bucket") != h.backend.BucketID {
		httputil.WriteNotFound(w, "Bucket not found")
		return
	}

	if err := parseUploadForm(w, r, int64(model.MaxVideoSizeBytes)+1024*1024); err != nil {
		httputil.WriteFromError(w, h.logger, err)
		return
	}

	var picked pickedFiles
	defer picked.cleanup()

	file, err := picked.mediaFromForm(r, "file")
	if err != nil {
		httputil.WriteFromError(w, h.logger, err)
		return
	}
	if file == nil {
		httputil.WriteFromError(w, h.logger, &model.ValidationError{Field: "file", Message: "is required"})
		return
	}

	result, err := h.files.Upload(r.Context(), file, model.FileKind(r.FormValue("type")))
	if err != nil {
		httputil.WriteFromError(w, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, result)
}

// View handles GET /storage/buckets/{bucket}/files/{id}/view?project=
// and streams the stored object.
func (h *StorageHandler) View(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "bucket") != h.backend.BucketID || r.URL.Query().Get("project") != h.backend.ProjectID {
		httputil.WriteNotFound(w, "File not found")
		return
	}

	body, contentType, err := h.files.ReadFile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteFromError(w, h.logger, err)
		return
	}
	defer body.Close()

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.Header().Set("Cache-Control", model.ObjectCacheControl)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Debug("view stream interrupted", zap.Error(err))
	}
}
