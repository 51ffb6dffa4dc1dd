package catalog

import "context"

// Store is the persistence contract for catalog content. PostgresStore is the
// production implementation; MemoryStore backs tests and degraded mode.
type Store interface {
	UpsertBlogPost(ctx context.Context, p *BlogPost) (*BlogPost, error)
	BlogPostBySlug(ctx context.Context, slug string) (*BlogPost, error)
	ListBlogPosts(ctx context.Context, publishedOnly bool, limit, offset int) ([]*BlogPost, error)
	DeleteBlogPost(ctx context.Context, slug string) error

	AddSubscriber(ctx context.Context, email, source string) (*Subscriber, bool, error)
	ListSubscribers(ctx context.Context, limit, offset int) ([]*Subscriber, error)

	EnsureVendorCategory(ctx context.Context, slug, name string) (*Category, error)
	ListVendorCategories(ctx context.Context) ([]*Category, error)
	UpsertVendor(ctx context.Context, v *Vendor) (*Vendor, error)
	ListVendors(ctx context.Context, categoryID int64) ([]*Vendor, error)
	DeleteVendor(ctx context.Context, id int64) error

	EnsureResourceCategory(ctx context.Context, slug, name string) (*Category, error)
	ListResourceCategories(ctx context.Context) ([]*Category, error)
	UpsertResource(ctx context.Context, r *Resource) (*Resource, error)
	ListResources(ctx context.Context, categoryID int64) ([]*Resource, error)
	DeleteResource(ctx context.Context, id int64) error
}
