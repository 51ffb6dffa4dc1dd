package community

import (
	"context"
	"sort"
	"sync"
	"time"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore implements Store in process memory. A single mutex stands in
// for the transactions the Postgres implementation uses, so the counter
// guarantees hold here too.
type MemoryStore struct {
	mu       sync.Mutex
	profiles map[int64]*Profile
	spaces   map[int64]*Space
	posts    map[int64]*Post
	comments map[int64]*Comment
	likes    map[[2]int64]struct{} // (postID, profileID)
	nextID   int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[int64]*Profile),
		spaces:   make(map[int64]*Space),
		posts:    make(map[int64]*Post),
		comments: make(map[int64]*Comment),
		likes:    make(map[[2]int64]struct{}),
	}
}

func (s *MemoryStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *MemoryStore) CreateProfile(ctx context.Context, p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.profiles {
		if existing.SubjectID == p.SubjectID {
			return ErrConflict
		}
	}
	now := time.Now().UTC()
	p.ID = s.id()
	p.CreatedAt = now
	p.UpdatedAt = now
	copied := *p
	s.profiles[p.ID] = &copied
	return nil
}

func (s *MemoryStore) ProfileBySubject(ctx context.Context, subjectID string) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.profiles {
		if p.SubjectID == subjectID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ProfileByID(ctx context.Context, id int64) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (s *MemoryStore) UpdateProfile(ctx context.Context, id int64, fields ProfileFields) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	if fields.DisplayName != nil {
		p.DisplayName = *fields.DisplayName
	}
	if fields.Avatar != nil {
		p.Avatar = *fields.Avatar
	}
	if fields.Bio != nil {
		p.Bio = *fields.Bio
	}
	p.UpdatedAt = time.Now().UTC()
	copied := *p
	return &copied, nil
}

func (s *MemoryStore) ListProfiles(ctx context.Context) ([]*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profiles := make([]*Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		copied := *p
		profiles = append(profiles, &copied)
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].ID < profiles[j].ID })
	return profiles, nil
}

func (s *MemoryStore) CreateSpace(ctx context.Context, space *Space) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.spaces {
		if existing.Slug == space.Slug {
			existing.Name = space.Name
			existing.Description = space.Description
			space.ID = existing.ID
			space.CreatedAt = existing.CreatedAt
			return nil
		}
	}
	space.ID = s.id()
	space.CreatedAt = time.Now().UTC()
	copied := *space
	s.spaces[space.ID] = &copied
	return nil
}

func (s *MemoryStore) SpaceBySlug(ctx context.Context, slug string) (*Space, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sp := range s.spaces {
		if sp.Slug == slug {
			copied := *sp
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListSpaces(ctx context.Context) ([]*Space, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	spaces := make([]*Space, 0, len(s.spaces))
	for _, sp := range s.spaces {
		copied := *sp
		spaces = append(spaces, &copied)
	}
	sort.Slice(spaces, func(i, j int) bool { return spaces[i].ID < spaces[j].ID })
	return spaces, nil
}

func (s *MemoryStore) CreatePost(ctx context.Context, p *Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	space, ok := s.spaces[p.SpaceID]
	if !ok {
		return ErrNotFound
	}
	profile, ok := s.profiles[p.ProfileID]
	if !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	p.ID = s.id()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.AuthorName = profile.DisplayName
	copied := *p
	s.posts[p.ID] = &copied
	space.PostCount++
	profile.PostCount++
	return nil
}

func (s *MemoryStore) GetPost(ctx context.Context, id int64) (*Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	p.ViewCount++
	copied := *p
	return &copied, nil
}

func (s *MemoryStore) ListPosts(ctx context.Context, spaceID int64, limit, offset int) ([]*Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var posts []*Post
	for _, p := range s.posts {
		if p.SpaceID == spaceID {
			copied := *p
			posts = append(posts, &copied)
		}
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].ID > posts[j].ID })
	if offset >= len(posts) {
		return nil, nil
	}
	posts = posts[offset:]
	if limit > 0 && limit < len(posts) {
		posts = posts[:limit]
	}
	return posts, nil
}

func (s *MemoryStore) CreateComment(ctx context.Context, c *Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[c.PostID]
	if !ok {
		return ErrNotFound
	}
	profile, ok := s.profiles[c.ProfileID]
	if !ok {
		return ErrNotFound
	}
	c.ID = s.id()
	c.CreatedAt = time.Now().UTC()
	c.AuthorName = profile.DisplayName
	copied := *c
	s.comments[c.ID] = &copied
	post.CommentCount++
	profile.CommentCount++
	return nil
}

func (s *MemoryStore) ListComments(ctx context.Context, postID int64) ([]*Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var comments []*Comment
	for _, c := range s.comments {
		if c.PostID == postID {
			copied := *c
			comments = append(comments, &copied)
		}
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].ID < comments[j].ID })
	return comments, nil
}

func (s *MemoryStore) GetComment(ctx context.Context, id int64) (*Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (s *MemoryStore) DeleteComment(ctx context.Context, id int64) (*Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(s.comments, id)
	if post, ok := s.posts[c.PostID]; ok && post.CommentCount > 0 {
		post.CommentCount--
	}
	if profile, ok := s.profiles[c.ProfileID]; ok && profile.CommentCount > 0 {
		profile.CommentCount--
	}
	copied := *c
	return &copied, nil
}

func (s *MemoryStore) ToggleLike(ctx context.Context, postID, profileID int64) (bool, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[postID]
	if !ok {
		return false, 0, ErrNotFound
	}
	key := [2]int64{postID, profileID}
	if _, liked := s.likes[key]; liked {
		delete(s.likes, key)
		if post.LikeCount > 0 {
			post.LikeCount--
		}
		return false, post.LikeCount, nil
	}
	s.likes[key] = struct{}{}
	post.LikeCount++
	return true, post.LikeCount, nil
}

// LikeRowCount reports the number of stored like rows for a post. Test hook
// for verifying the counter matches the rows.
func (s *MemoryStore) LikeRowCount(postID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key := range s.likes {
		if key[0] == postID {
			n++
		}
	}
	return n
}
