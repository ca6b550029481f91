package model

import (
	"strings"
	"time"
)

// DeviceToken is an Expo push token a user's phone registered. The media
// worker pushes "video is live" to every device of a post's creator.
type DeviceToken struct {
	Token     string    `db:"token" json:"-"`
	UserID    string    `db:"user_id" json:"-"`
	Platform  string    `db:"platform" json:"platform"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// DeviceRequest is the body of POST and DELETE /devices.
type DeviceRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform,omitempty"`
}

const (
	PlatformIOS     = "ios"
	PlatformAndroid = "android"
)

// IsExpoPushToken reports whether token has the Expo push token shape.
func IsExpoPushToken(token string) bool {
	return strings.HasPrefix(token, "ExponentPushToken[") || strings.HasPrefix(token, "ExpoPushToken[")
}

// Validate checks a registration request.
func (r DeviceRequest) Validate() error {
	switch {
	case !IsExpoPushToken(r.Token):
		return &ValidationError{Field: "token", Message: "must be an Expo push token"}
	case r.Platform != PlatformIOS && r.Platform != PlatformAndroid:
		return &ValidationError{Field: "platform", Message: "must be ios or android"}
	}
	return nil
}
