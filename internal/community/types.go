// Package community implements the member forum: pseudonymous profiles
// layered over accounts, spaces, posts, comments and likes. Counter fields
// are cached counts; every counter mutation happens in the same transaction
// as the row change it mirrors, so the counts cannot drift from the rows.
package community

import (
	"errors"
	"time"
)

// Profile is a pseudonymous forum identity. One per account, created
// explicitly by the user; required before posting or commenting.
type Profile struct {
	ID           int64     `json:"id"`
	SubjectID    string    `json:"-"`
	DisplayName  string    `json:"displayName"`
	Avatar       string    `json:"avatar,omitempty"`
	Bio          string    `json:"bio,omitempty"`
	PostCount    int64     `json:"postCount"`
	CommentCount int64     `json:"commentCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Space groups posts by topic.
type Space struct {
	ID          int64     `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	PostCount   int64     `json:"postCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Post is a forum post owned by a profile, scoped to a space.
type Post struct {
	ID           int64     `json:"id"`
	SpaceID      int64     `json:"spaceId"`
	ProfileID    int64     `json:"profileId"`
	AuthorName   string    `json:"authorName,omitempty"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	LikeCount    int64     `json:"likeCount"`
	CommentCount int64     `json:"commentCount"`
	ViewCount    int64     `json:"viewCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Comment is a reply to a post.
type Comment struct {
	ID         int64     `json:"id"`
	PostID     int64     `json:"postId"`
	ProfileID  int64     `json:"profileId"`
	AuthorName string    `json:"authorName,omitempty"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"createdAt"`
}

var (
	ErrNotFound     = errors.New("community: not found")
	ErrConflict     = errors.New("community: already exists")
	ErrInvalidInput = errors.New("community: invalid input")
	// ErrNoProfile is returned when an account without a community profile
	// attempts to post, comment or like.
	ErrNoProfile = errors.New("community: profile required")
	// ErrNotOwner is returned when a mutation targets content owned by a
	// different profile.
	ErrNotOwner = errors.New("community: not the author")
)
