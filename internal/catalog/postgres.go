package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"speakeasy.club/internal/dbstore"
)

// PostgresStore implements Store on top of PostgreSQL.
type PostgresStore struct {
	db dbstore.DBTX
}

func NewPostgresStore(db dbstore.DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

const blogColumns = `id, slug, title, excerpt, body, hero_image, published, published_at, created_at, updated_at`

func (s *PostgresStore) UpsertBlogPost(ctx context.Context, p *BlogPost) (*BlogPost, error) {
	row := s.db.QueryRowContext(ctx, `
		insert into blog_posts (slug, title, excerpt, body, hero_image, published, published_at)
		values ($1, $2, $3, $4, $5, $6, case when $6 then now() else null end)
		on conflict (slug) do update set
			title = excluded.title,
			excerpt = excluded.excerpt,
			body = excluded.body,
			hero_image = excluded.hero_image,
			published = excluded.published,
			published_at = coalesce(blog_posts.published_at, excluded.published_at),
			updated_at = now()
		returning `+blogColumns,
		p.Slug, p.Title, p.Excerpt, p.Body, p.HeroImage, p.Published,
	)
	return scanBlogPost(row)
}

func (s *PostgresStore) BlogPostBySlug(ctx context.Context, slug string) (*BlogPost, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+blogColumns+` from blog_posts where slug = $1`, slug)
	return scanBlogPost(row)
}

func (s *PostgresStore) ListBlogPosts(ctx context.Context, publishedOnly bool, limit, offset int) ([]*BlogPost, error) {
	q := `select ` + blogColumns + ` from blog_posts`
	if publishedOnly {
		q += ` where published`
	}
	q += ` order by coalesce(published_at, created_at) desc limit $1 offset $2`
	rows, err := s.db.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list blog posts: %w", err)
	}
	defer rows.Close()
	var out []*BlogPost
	for rows.Next() {
		p, err := scanBlogPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DeleteBlogPost(ctx context.Context, slug string) error {
	res, err := s.db.ExecContext(ctx, `delete from blog_posts where slug = $1`, slug)
	if err != nil {
		return fmt.Errorf("delete blog post: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) AddSubscriber(ctx context.Context, email, source string) (*Subscriber, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		insert into subscribers (email, source) values ($1, $2)
		on conflict (email) do nothing
		returning id, email, source, created_at`,
		email, source,
	)
	sub, err := scanSubscriber(row)
	if err == nil {
		return sub, true, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}
	// Conflict path: the row already existed, fetch it.
	row = s.db.QueryRowContext(ctx,
		`select id, email, source, created_at from subscribers where email = $1`, email)
	sub, err = scanSubscriber(row)
	if err != nil {
		return nil, false, err
	}
	return sub, false, nil
}

func (s *PostgresStore) ListSubscribers(ctx context.Context, limit, offset int) ([]*Subscriber, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, email, source, created_at from subscribers order by created_at desc limit $1 offset $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()
	var out []*Subscriber
	for rows.Next() {
		sub, err := scanSubscriber(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *PostgresStore) EnsureVendorCategory(ctx context.Context, slug, name string) (*Category, error) {
	return s.ensureCategory(ctx, "vendor_categories", slug, name)
}

func (s *PostgresStore) ListVendorCategories(ctx context.Context) ([]*Category, error) {
	return s.listCategories(ctx, "vendor_categories")
}

func (s *PostgresStore) EnsureResourceCategory(ctx context.Context, slug, name string) (*Category, error) {
	return s.ensureCategory(ctx, "resource_categories", slug, name)
}

func (s *PostgresStore) ListResourceCategories(ctx context.Context) ([]*Category, error) {
	return s.listCategories(ctx, "resource_categories")
}

func (s *PostgresStore) ensureCategory(ctx context.Context, table, slug, name string) (*Category, error) {
	row := s.db.QueryRowContext(ctx, `
		insert into `+table+` (slug, name) values ($1, $2)
		on conflict (slug) do update set name = excluded.name
		returning id, slug, name`,
		slug, name,
	)
	c := &Category{}
	if err := row.Scan(&c.ID, &c.Slug, &c.Name); err != nil {
		return nil, fmt.Errorf("ensure category: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) listCategories(ctx context.Context, table string) ([]*Category, error) {
	rows, err := s.db.QueryContext(ctx, `select id, slug, name from `+table+` order by name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	var out []*Category
	for rows.Next() {
		c := &Category{}
		if err := rows.Scan(&c.ID, &c.Slug, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const vendorColumns = `id, category_id, name, description, website, location, featured, created_at, updated_at`

func (s *PostgresStore) UpsertVendor(ctx context.Context, v *Vendor) (*Vendor, error) {
	var row rowScanner
	if v.ID == 0 {
		row = s.db.QueryRowContext(ctx, `
			insert into vendors (category_id, name, description, website, location, featured)
			values ($1, $2, $3, $4, $5, $6)
			returning `+vendorColumns,
			v.CategoryID, v.Name, v.Description, v.Website, v.Location, v.Featured,
		)
	} else {
		row = s.db.QueryRowContext(ctx, `
			update vendors set category_id = $2, name = $3, description = $4,
				website = $5, location = $6, featured = $7, updated_at = now()
			where id = $1
			returning `+vendorColumns,
			v.ID, v.CategoryID, v.Name, v.Description, v.Website, v.Location, v.Featured,
		)
	}
	return scanVendor(row)
}

func (s *PostgresStore) ListVendors(ctx context.Context, categoryID int64) ([]*Vendor, error) {
	q := `select ` + vendorColumns + ` from vendors`
	args := []any{}
	if categoryID != 0 {
		q += ` where category_id = $1`
		args = append(args, categoryID)
	}
	q += ` order by featured desc, name`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	defer rows.Close()
	var out []*Vendor
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DeleteVendor(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `delete from vendors where id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete vendor: %w", err)
	}
	return requireRow(res)
}

const resourceColumns = `id, category_id, title, description, url, kind, created_at`

func (s *PostgresStore) UpsertResource(ctx context.Context, r *Resource) (*Resource, error) {
	var row rowScanner
	if r.ID == 0 {
		row = s.db.QueryRowContext(ctx, `
			insert into resources (category_id, title, description, url, kind)
			values ($1, $2, $3, $4, $5)
			returning `+resourceColumns,
			r.CategoryID, r.Title, r.Description, r.URL, r.Kind,
		)
	} else {
		row = s.db.QueryRowContext(ctx, `
			update resources set category_id = $2, title = $3, description = $4,
				url = $5, kind = $6
			where id = $1
			returning `+resourceColumns,
			r.ID, r.CategoryID, r.Title, r.Description, r.URL, r.Kind,
		)
	}
	return scanResource(row)
}

func (s *PostgresStore) ListResources(ctx context.Context, categoryID int64) ([]*Resource, error) {
	q := `select ` + resourceColumns + ` from resources`
	args := []any{}
	if categoryID != 0 {
		q += ` where category_id = $1`
		args = append(args, categoryID)
	}
	q += ` order by title`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	defer rows.Close()
	var out []*Resource
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DeleteResource(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `delete from resources where id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete resource: %w", err)
	}
	return requireRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBlogPost(row rowScanner) (*BlogPost, error) {
	p := &BlogPost{}
	var excerpt, hero sql.NullString
	var publishedAt sql.NullTime
	err := row.Scan(&p.ID, &p.Slug, &p.Title, &excerpt, &p.Body, &hero,
		&p.Published, &publishedAt, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan blog post: %w", err)
	}
	p.Excerpt = excerpt.String
	p.HeroImage = hero.String
	if publishedAt.Valid {
		t := publishedAt.Time
		p.PublishedAt = &t
	}
	return p, nil
}

func scanSubscriber(row rowScanner) (*Subscriber, error) {
	sub := &Subscriber{}
	var source sql.NullString
	err := row.Scan(&sub.ID, &sub.Email, &source, &sub.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan subscriber: %w", err)
	}
	sub.Source = source.String
	return sub, nil
}

func scanVendor(row rowScanner) (*Vendor, error) {
	v := &Vendor{}
	var desc, website, location sql.NullString
	err := row.Scan(&v.ID, &v.CategoryID, &v.Name, &desc, &website, &location,
		&v.Featured, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan vendor: %w", err)
	}
	v.Description = desc.String
	v.Website = website.String
	v.Location = location.String
	return v, nil
}

func scanResource(row rowScanner) (*Resource, error) {
	r := &Resource{}
	var desc, url, kind sql.NullString
	err := row.Scan(&r.ID, &r.CategoryID, &r.Title, &desc, &url, &kind, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan resource: %w", err)
	}
	r.Description = desc.String
	r.URL = url.String
	r.Kind = kind.String
	return r, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
