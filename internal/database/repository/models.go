package repository

import (
	"errors"
	"time"
)

// ErrNotFound is returned by updates that match no row.
var ErrNotFound = errors.New("repository: not found")

// Author is the creator of a post.
type Author struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

// Hashtag marks a topic span inside a post's content.
type Hashtag struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"hashtag_text"`
}

// Clip is one media item attached to a post.
type Clip struct {
	Type   int    `json:"type"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	URL    string `json:"url"`
}

// Music is the optional soundtrack of a post.
type Music struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	Volume int    `json:"volume"`
}

// Post represents a cached feed item. Nested values are stored as JSON columns.
type Post struct {
	PostID     string
	Title      string
	Content    string
	Hashtags   []Hashtag
	CreateTime time.Time
	Author     Author
	Clips      []Clip
	Music      *Music
	LikeCount  int
	IsLiked    bool
}

// FollowedUser represents a followed_users row. UserID is the primary key;
// Nickname may be empty for authors that never set one.
type FollowedUser struct {
	UserID       string `validate:"required"`
	Nickname     string
	Avatar       string
	Bio          string
	FollowedTime time.Time
}
