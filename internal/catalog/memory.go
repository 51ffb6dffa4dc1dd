package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for tests and for running the API
// without a database.
type MemoryStore struct {
	mu sync.Mutex

	blogSeq  int64
	blog     map[string]*BlogPost
	subSeq   int64
	subs     map[string]*Subscriber
	catSeq   int64
	vendCats map[string]*Category
	resCats  map[string]*Category
	vendSeq  int64
	vendors  map[int64]*Vendor
	resSeq   int64
	res      map[int64]*Resource
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blog:     make(map[string]*BlogPost),
		subs:     make(map[string]*Subscriber),
		vendCats: make(map[string]*Category),
		resCats:  make(map[string]*Category),
		vendors:  make(map[int64]*Vendor),
		res:      make(map[int64]*Resource),
	}
}

func (s *MemoryStore) UpsertBlogPost(_ context.Context, p *BlogPost) (*BlogPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	existing, ok := s.blog[p.Slug]
	if !ok {
		s.blogSeq++
		existing = &BlogPost{ID: s.blogSeq, Slug: p.Slug, CreatedAt: now}
	}
	existing.Title = p.Title
	existing.Excerpt = p.Excerpt
	existing.Body = p.Body
	existing.HeroImage = p.HeroImage
	existing.Published = p.Published
	if p.Published && existing.PublishedAt == nil {
		t := now
		existing.PublishedAt = &t
	}
	existing.UpdatedAt = now
	s.blog[p.Slug] = existing
	cp := *existing
	return &cp, nil
}

func (s *MemoryStore) BlogPostBySlug(_ context.Context, slug string) (*BlogPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.blog[slug]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) ListBlogPosts(_ context.Context, publishedOnly bool, limit, offset int) ([]*BlogPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []*BlogPost
	for _, p := range s.blog {
		if publishedOnly && !p.Published {
			continue
		}
		cp := *p
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool {
		return blogSortKey(all[i]).After(blogSortKey(all[j]))
	})
	return page(all, limit, offset), nil
}

func blogSortKey(p *BlogPost) time.Time {
	if p.PublishedAt != nil {
		return *p.PublishedAt
	}
	return p.CreatedAt
}

func (s *MemoryStore) DeleteBlogPost(_ context.Context, slug string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blog[slug]; !ok {
		return ErrNotFound
	}
	delete(s.blog, slug)
	return nil
}

func (s *MemoryStore) AddSubscriber(_ context.Context, email, source string) (*Subscriber, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub, ok := s.subs[email]; ok {
		cp := *sub
		return &cp, false, nil
	}
	s.subSeq++
	sub := &Subscriber{ID: s.subSeq, Email: email, Source: source, CreatedAt: time.Now().UTC()}
	s.subs[email] = sub
	cp := *sub
	return &cp, true, nil
}

func (s *MemoryStore) ListSubscribers(_ context.Context, limit, offset int) ([]*Subscriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []*Subscriber
	for _, sub := range s.subs {
		cp := *sub
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return page(all, limit, offset), nil
}

func (s *MemoryStore) EnsureVendorCategory(_ context.Context, slug, name string) (*Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureCategory(s.vendCats, slug, name), nil
}

func (s *MemoryStore) ListVendorCategories(_ context.Context) ([]*Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedCategories(s.vendCats), nil
}

func (s *MemoryStore) EnsureResourceCategory(_ context.Context, slug, name string) (*Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureCategory(s.resCats, slug, name), nil
}

func (s *MemoryStore) ListResourceCategories(_ context.Context) ([]*Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedCategories(s.resCats), nil
}

func (s *MemoryStore) ensureCategory(m map[string]*Category, slug, name string) *Category {
	if c, ok := m[slug]; ok {
		c.Name = name
		cp := *c
		return &cp
	}
	s.catSeq++
	c := &Category{ID: s.catSeq, Slug: slug, Name: name}
	m[slug] = c
	cp := *c
	return &cp
}

func sortedCategories(m map[string]*Category) []*Category {
	var all []*Category
	for _, c := range m {
		cp := *c
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool {
		return strings.ToLower(all[i].Name) < strings.ToLower(all[j].Name)
	})
	return all
}

func (s *MemoryStore) UpsertVendor(_ context.Context, v *Vendor) (*Vendor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if v.ID == 0 {
		s.vendSeq++
		nv := *v
		nv.ID = s.vendSeq
		nv.CreatedAt = now
		nv.UpdatedAt = now
		s.vendors[nv.ID] = &nv
		cp := nv
		return &cp, nil
	}
	existing, ok := s.vendors[v.ID]
	if !ok {
		return nil, ErrNotFound
	}
	existing.CategoryID = v.CategoryID
	existing.Name = v.Name
	existing.Description = v.Description
	existing.Website = v.Website
	existing.Location = v.Location
	existing.Featured = v.Featured
	existing.UpdatedAt = now
	cp := *existing
	return &cp, nil
}

func (s *MemoryStore) ListVendors(_ context.Context, categoryID int64) ([]*Vendor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []*Vendor
	for _, v := range s.vendors {
		if categoryID != 0 && v.CategoryID != categoryID {
			continue
		}
		cp := *v
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Featured != all[j].Featured {
			return all[i].Featured
		}
		return strings.ToLower(all[i].Name) < strings.ToLower(all[j].Name)
	})
	return all, nil
}

func (s *MemoryStore) DeleteVendor(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vendors[id]; !ok {
		return ErrNotFound
	}
	delete(s.vendors, id)
	return nil
}

func (s *MemoryStore) UpsertResource(_ context.Context, r *Resource) (*Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == 0 {
		s.resSeq++
		nr := *r
		nr.ID = s.resSeq
		nr.CreatedAt = time.Now().UTC()
		s.res[nr.ID] = &nr
		cp := nr
		return &cp, nil
	}
	existing, ok := s.res[r.ID]
	if !ok {
		return nil, ErrNotFound
	}
	existing.CategoryID = r.CategoryID
	existing.Title = r.Title
	existing.Description = r.Description
	existing.URL = r.URL
	existing.Kind = r.Kind
	cp := *existing
	return &cp, nil
}

func (s *MemoryStore) ListResources(_ context.Context, categoryID int64) ([]*Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []*Resource
	for _, r := range s.res {
		if categoryID != 0 && r.CategoryID != categoryID {
			continue
		}
		cp := *r
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool {
		return strings.ToLower(all[i].Title) < strings.ToLower(all[j].Title)
	})
	return all, nil
}

func (s *MemoryStore) DeleteResource(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.res[id]; !ok {
		return ErrNotFound
	}
	delete(s.res, id)
	return nil
}

func page[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all
}
