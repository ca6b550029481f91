package model

import (
	"time"
)

// Post is a row of the videos table. CreatorID is the raw reference stored in
// the row; Creator is the resolved user and is nil when resolution failed.
type Post struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Prompt    string    `db:"prompt" json:"prompt"`
	Thumbnail string    `db:"thumbnail" json:"thumbnail"`
	Video     string    `db:"video" json:"video"`
	CreatorID *string   `db:"creator" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	// Resolved from CreatorID after the row is read
	Creator *User `db:"-" json:"creator"`
}

// VideoPostForm is the input of the upload flow.
type VideoPostForm struct {
	Title     string
	Prompt    string
	Thumbnail *MediaFile
	Video     *MediaFile
	UserID    string
}

// PostListResponse wraps read endpoints. Notice carries the user-facing
// message when the read failed and Posts is empty because of it.
type PostListResponse struct {
	Posts  []Post  `json:"posts"`
	Notice *string `json:"notice,omitempty"`
}

// RecentPostsLimit caps the latest/trending listing.
const RecentPostsLimit = 7

// Post constraints
const (
	MaxPostTitleLength  = 200
	MaxPostPromptLength = 2200
)
