package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the media stream
const (
	EventPostCreated    = "post_created"
	EventUploadOrphaned = "upload_orphaned"
)

const (
	StreamMedia        = "stream:media"
	ConsumerGroupMedia = "media_workers"
)

// MediaEvent is published after the upload flow finishes, successfully or not.
type MediaEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`

	// post_created
	PostID    string `json:"post_id,omitempty"`
	CreatorID string `json:"creator_id,omitempty"`

	// upload_orphaned: stored objects no post row refers to
	FileIDs []string `json:"file_ids,omitempty"`
}

// NewPostCreatedEvent creates an event for a freshly stored post.
func NewPostCreatedEvent(postID, creatorID string) MediaEvent {
	return MediaEvent{
		Type:      EventPostCreated,
		Timestamp: time.Now().Unix(),
		PostID:    postID,
		CreatorID: creatorID,
	}
}

// NewUploadOrphanedEvent names objects the worker should delete.
func NewUploadOrphanedEvent(fileIDs ...string) MediaEvent {
	return MediaEvent{
		Type:      EventUploadOrphaned,
		Timestamp: time.Now().Unix(),
		FileIDs:   fileIDs,
	}
}

// ToMap converts the event to XADD field-value pairs. The payload is JSON in
// the "data" field.
func (e MediaEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseMediaEvent parses a MediaEvent from stream message values.
func ParseMediaEvent(values map[string]interface{}) (MediaEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return MediaEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event MediaEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return MediaEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
