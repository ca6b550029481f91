package model

import (
	"errors"
	"strings"
)

// FileKind tags an upload as a thumbnail image or a video.
type FileKind string

const (
	FileKindImage FileKind = "image"
	FileKindVideo FileKind = "video"
)

// Valid reports whether k is a known kind.
func (k FileKind) Valid() bool {
	return k == FileKindImage || k == FileKindVideo
}

// MediaFile describes a locally picked file for the duration of an upload.
type MediaFile struct {
	Name string `json:"name"`
	Type string `json:"type"` // MIME type
	Size int64  `json:"size"`
	URI  string `json:"uri"`
}

const (
	MaxThumbnailSizeBytes = 10 * 1024 * 1024
	MaxVideoSizeBytes     = 200 * 1024 * 1024
	ThumbnailMaxEdge      = 1280
	ObjectCacheControl    = "public, max-age=31536000" // 1 year
	AvatarSize            = 256
)

// Supported image content types for thumbnail normalization
const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
	ContentTypeGIF  = "image/gif"
	ContentTypeWebP = "image/webp"
	ContentTypeMP4  = "video/mp4"
)

var decodableImageTypes = map[string]struct{}{
	ContentTypeJPEG: {},
	ContentTypePNG:  {},
	ContentTypeGIF:  {},
}

// Error codes for HTTP responses
const (
	CodeFileTooLarge   = "FILE_TOO_LARGE"
	CodeValidation     = "VALIDATION_FAILED"
	CodeBackendFailure = "BACKEND_FAILURE"
)

var (
	ErrFileTooLarge      = errors.New("file too large")
	ErrUnsupportedScheme = errors.New("unsupported uri scheme")
	ErrObjectNotFound    = errors.New("object not found")
)

// UploadResult describes a stored object.
type UploadResult struct {
	FileID string `json:"file_id"`
	URL    string `json:"url"`
}

// IsDecodableImageType reports if thumbnails of this type can be re-encoded.
// WebP is accepted for upload but stored as-is.
func IsDecodableImageType(contentType string) bool {
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	_, ok := decodableImageTypes[contentType]
	return ok
}
