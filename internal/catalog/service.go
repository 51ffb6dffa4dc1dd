package catalog

import (
	"context"
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"speakeasy.club/internal/obs"
)

const (
	maxSlug        = 120
	maxTitle       = 200
	maxBody        = 100000
	defaultLimit   = 50
	maxLimit       = 100
	maxEmailLength = 254
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ListSyncer pushes a new subscriber to the external mailing-list provider.
// Failures are logged and swallowed; the local row is the source of truth.
type ListSyncer interface {
	Subscribe(ctx context.Context, email string) error
}

// Service validates catalog writes and fronts the Store.
type Service struct {
	store  Store
	syncer ListSyncer
}

type ServiceOption func(*Service)

// WithListSyncer attaches the mailing-list provider client.
func WithListSyncer(ls ListSyncer) ServiceOption {
	return func(s *Service) { s.syncer = ls }
}

func NewService(store Store, opts ...ServiceOption) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UpsertBlogPost creates or replaces the post with the given slug.
func (s *Service) UpsertBlogPost(ctx context.Context, p *BlogPost) (*BlogPost, error) {
	p.Slug = strings.ToLower(strings.TrimSpace(p.Slug))
	p.Title = strings.TrimSpace(p.Title)
	switch {
	case p.Slug == "" || len(p.Slug) > maxSlug || !slugPattern.MatchString(p.Slug):
		return nil, fmt.Errorf("%w: slug", ErrInvalidInput)
	case p.Title == "" || len(p.Title) > maxTitle:
		return nil, fmt.Errorf("%w: title", ErrInvalidInput)
	case len(p.Body) > maxBody:
		return nil, fmt.Errorf("%w: body too long", ErrInvalidInput)
	}
	return s.store.UpsertBlogPost(ctx, p)
}

func (s *Service) BlogPost(ctx context.Context, slug string) (*BlogPost, error) {
	return s.store.BlogPostBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
}

// PublishedPosts lists live posts, newest first.
func (s *Service) PublishedPosts(ctx context.Context, limit, offset int) ([]*BlogPost, error) {
	return s.store.ListBlogPosts(ctx, true, clampLimit(limit), max(offset, 0))
}

// AllPosts includes drafts. Admin only; the transport layer gates it.
func (s *Service) AllPosts(ctx context.Context, limit, offset int) ([]*BlogPost, error) {
	return s.store.ListBlogPosts(ctx, false, clampLimit(limit), max(offset, 0))
}

func (s *Service) DeleteBlogPost(ctx context.Context, slug string) error {
	return s.store.DeleteBlogPost(ctx, strings.ToLower(strings.TrimSpace(slug)))
}

// Subscribe records a mailing-list signup and pushes it to the provider.
// Re-subscribing an existing address is not an error.
func (s *Service) Subscribe(ctx context.Context, email, source string) (*Subscriber, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || len(email) > maxEmailLength {
		return nil, fmt.Errorf("%w: email", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: email", ErrInvalidInput)
	}
	sub, created, err := s.store.AddSubscriber(ctx, email, source)
	if err != nil {
		return nil, err
	}
	if created && s.syncer != nil {
		if err := s.syncer.Subscribe(ctx, email); err != nil {
			obs.Warn("mailing list sync failed", map[string]any{"error": err.Error()})
		}
	}
	return sub, nil
}

func (s *Service) Subscribers(ctx context.Context, limit, offset int) ([]*Subscriber, error) {
	return s.store.ListSubscribers(ctx, clampLimit(limit), max(offset, 0))
}

func (s *Service) EnsureVendorCategory(ctx context.Context, slug, name string) (*Category, error) {
	slug, name, err := normalizeCategory(slug, name)
	if err != nil {
		return nil, err
	}
	return s.store.EnsureVendorCategory(ctx, slug, name)
}

func (s *Service) VendorCategories(ctx context.Context) ([]*Category, error) {
	return s.store.ListVendorCategories(ctx)
}

func (s *Service) UpsertVendor(ctx context.Context, v *Vendor) (*Vendor, error) {
	v.Name = strings.TrimSpace(v.Name)
	if v.Name == "" || len(v.Name) > maxTitle {
		return nil, fmt.Errorf("%w: name", ErrInvalidInput)
	}
	if v.CategoryID == 0 {
		return nil, fmt.Errorf("%w: categoryId", ErrInvalidInput)
	}
	return s.store.UpsertVendor(ctx, v)
}

func (s *Service) Vendors(ctx context.Context, categoryID int64) ([]*Vendor, error) {
	return s.store.ListVendors(ctx, categoryID)
}

func (s *Service) DeleteVendor(ctx context.Context, id int64) error {
	return s.store.DeleteVendor(ctx, id)
}

func (s *Service) EnsureResourceCategory(ctx context.Context, slug, name string) (*Category, error) {
	slug, name, err := normalizeCategory(slug, name)
	if err != nil {
		return nil, err
	}
	return s.store.EnsureResourceCategory(ctx, slug, name)
}

func (s *Service) ResourceCategories(ctx context.Context) ([]*Category, error) {
	return s.store.ListResourceCategories(ctx)
}

func (s *Service) UpsertResource(ctx context.Context, r *Resource) (*Resource, error) {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" || len(r.Title) > maxTitle {
		return nil, fmt.Errorf("%w: title", ErrInvalidInput)
	}
	if r.CategoryID == 0 {
		return nil, fmt.Errorf("%w: categoryId", ErrInvalidInput)
	}
	return s.store.UpsertResource(ctx, r)
}

func (s *Service) Resources(ctx context.Context, categoryID int64) ([]*Resource, error) {
	return s.store.ListResources(ctx, categoryID)
}

func (s *Service) DeleteResource(ctx context.Context, id int64) error {
	return s.store.DeleteResource(ctx, id)
}

func normalizeCategory(slug, name string) (string, string, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	name = strings.TrimSpace(name)
	if slug == "" || len(slug) > maxSlug || !slugPattern.MatchString(slug) {
		return "", "", fmt.Errorf("%w: slug", ErrInvalidInput)
	}
	if name == "" || len(name) > maxTitle {
		return "", "", fmt.Errorf("%w: name", ErrInvalidInput)
	}
	return slug, name, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
