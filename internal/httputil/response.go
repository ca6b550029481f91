package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"vidshare/internal/model"
)

// Error codes returned in error bodies
const (
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ErrorResponse is the standard error body:
// {"error": {"code": "ERROR_CODE", "message": "Human readable message"}}
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Stage   string `json:"stage,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		// Headers are already sent; nothing useful to do on failure.
		_ = json.NewEncoder(w).Encode(data)
	}
}

func WriteError(w http.ResponseWriter, status int, code string, message string) {
	WriteJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// WriteFromError maps a service error to a status code and error body.
// Unexpected errors are logged and reported without detail.
func WriteFromError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status, detail := classify(err)

	var ue *model.UploadError
	if errors.As(err, &ue) {
		detail.Stage = string(ue.Stage)
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	WriteJSON(w, status, ErrorResponse{Error: detail})
}

func classify(err error) (int, ErrorDetail) {
	var (
		ve *model.ValidationError
		re *model.RemoteError
	)

	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ErrorDetail{Code: model.CodeValidation, Message: ve.Error()}
	case errors.Is(err, model.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, ErrorDetail{Code: model.CodeFileTooLarge, Message: "File is too large"}
	case errors.Is(err, model.ErrUnsupportedScheme):
		return http.StatusBadRequest, ErrorDetail{Code: ErrCodeBadRequest, Message: "Unsupported file location"}
	case errors.Is(err, model.ErrEmailExists):
		return http.StatusConflict, ErrorDetail{Code: ErrCodeConflict, Message: "Email is already registered"}
	case errors.Is(err, model.ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrorDetail{Code: ErrCodeUnauthorized, Message: "Invalid email or password"}
	case errors.Is(err, model.ErrUnauthenticated):
		return http.StatusUnauthorized, ErrorDetail{Code: ErrCodeUnauthorized, Message: "Authentication required"}
	case errors.Is(err, model.ErrObjectNotFound):
		return http.StatusNotFound, ErrorDetail{Code: ErrCodeNotFound, Message: "File not found"}
	case errors.As(err, &re):
		return http.StatusBadGateway, ErrorDetail{Code: model.CodeBackendFailure, Message: re.Error()}
	default:
		return http.StatusInternalServerError, ErrorDetail{Code: ErrCodeInternal, Message: "Something went wrong"}
	}
}
