package model

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated means there is no usable session: the token is missing,
// malformed, expired or revoked. It is distinct from a RemoteError, which
// means the identity backend could not be asked at all.
var ErrUnauthenticated = errors.New("not authenticated")

// ErrInvalidCredentials is returned when email/password do not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrEmailExists is returned when registering an email that is taken.
var ErrEmailExists = errors.New("email already registered")

// ValidationError reports a missing or malformed field before any remote call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// RemoteError wraps any failure of the backend transport or API.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// NewRemoteError wraps err unless it is nil or already a RemoteError.
func NewRemoteError(op string, err error) error {
	if err == nil {
		return nil
	}
	var re *RemoteError
	if errors.As(err, &re) {
		return err
	}
	return &RemoteError{Op: op, Err: err}
}

// UploadStage names the step of the upload flow that failed.
type UploadStage string

const (
	StageValidation  UploadStage = "validation"
	StageUpload      UploadStage = "upload"
	StageSession     UploadStage = "session"
	StageRowCreation UploadStage = "row_creation"
)

// UploadError is returned by the upload orchestrator.
type UploadError struct {
	Stage UploadStage
	Err   error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("create video post (%s): %v", e.Stage, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }
