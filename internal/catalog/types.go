// Package catalog holds the site's reference content: blog posts, mailing
// list subscribers, the vendor directory and the resource library. All of it
// is ordinary row data with public reads and admin-gated writes.
package catalog

import (
	"errors"
	"time"
)

// BlogPost is a long-form article. Body is markdown; rendering is the
// frontend's concern.
type BlogPost struct {
	ID          int64      `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Excerpt     string     `json:"excerpt,omitempty"`
	Body        string     `json:"body"`
	HeroImage   string     `json:"heroImage,omitempty"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Subscriber is a mailing-list signup. The row is the primary record; the
// list-provider sync is best-effort on top.
type Subscriber struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Category is shared by the vendor directory and the resource library.
type Category struct {
	ID   int64  `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// Vendor is a directory listing.
type Vendor struct {
	ID          int64     `json:"id"`
	CategoryID  int64     `json:"categoryId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Website     string    `json:"website,omitempty"`
	Location    string    `json:"location,omitempty"`
	Featured    bool      `json:"featured"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Resource is a library entry (article, book, practitioner, hotline...).
type Resource struct {
	ID          int64     `json:"id"`
	CategoryID  int64     `json:"categoryId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url,omitempty"`
	Kind        string    `json:"kind,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

var (
	ErrNotFound     = errors.New("catalog: not found")
	ErrConflict     = errors.New("catalog: already exists")
	ErrInvalidInput = errors.New("catalog: invalid input")
)
