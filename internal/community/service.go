package community

import (
	"context"
	"errors"
	"strings"
)

const (
	maxDisplayName = 64
	maxTitle       = 200
	maxBody        = 20000
	defaultLimit   = 50
	maxLimit       = 100
)

// Service applies validation and ownership rules over a Store.
type Service struct {
	store Store
}

// NewService constructs a Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// CreateProfile creates the pseudonymous forum identity for an account. A
// second profile for the same account is a conflict.
func (s *Service) CreateProfile(ctx context.Context, subjectID, displayName, avatar, bio string) (*Profile, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" || len(displayName) > maxDisplayName {
		return nil, ErrInvalidInput
	}
	p := &Profile{
		SubjectID:   subjectID,
		DisplayName: displayName,
		Avatar:      strings.TrimSpace(avatar),
		Bio:         strings.TrimSpace(bio),
	}
	if err := s.store.CreateProfile(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ProfileFor returns the profile owned by the subject, or ErrNoProfile.
func (s *Service) ProfileFor(ctx context.Context, subjectID string) (*Profile, error) {
	p, err := s.store.ProfileBySubject(ctx, subjectID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNoProfile
	}
	return p, err
}

// UpdateProfile applies a partial update to the caller's own profile.
func (s *Service) UpdateProfile(ctx context.Context, subjectID string, fields ProfileFields) (*Profile, error) {
	p, err := s.ProfileFor(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if fields.DisplayName != nil {
		name := strings.TrimSpace(*fields.DisplayName)
		if name == "" || len(name) > maxDisplayName {
			return nil, ErrInvalidInput
		}
		fields.DisplayName = &name
	}
	return s.store.UpdateProfile(ctx, p.ID, fields)
}

// ListProfiles returns every community profile, oldest first.
func (s *Service) ListProfiles(ctx context.Context) ([]*Profile, error) {
	return s.store.ListProfiles(ctx)
}

// ListSpaces returns all spaces.
func (s *Service) ListSpaces(ctx context.Context) ([]*Space, error) {
	return s.store.ListSpaces(ctx)
}

// EnsureSpace creates or refreshes a space. Used by seeding and admins.
func (s *Service) EnsureSpace(ctx context.Context, slug, name, description string) (*Space, error) {
	slug = strings.TrimSpace(strings.ToLower(slug))
	name = strings.TrimSpace(name)
	if slug == "" || name == "" {
		return nil, ErrInvalidInput
	}
	sp := &Space{Slug: slug, Name: name, Description: strings.TrimSpace(description)}
	if err := s.store.CreateSpace(ctx, sp); err != nil {
		return nil, err
	}
	return sp, nil
}

// CreatePost publishes a post authored by the subject's profile.
func (s *Service) CreatePost(ctx context.Context, subjectID string, spaceID int64, title, body string) (*Post, error) {
	profile, err := s.ProfileFor(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if title == "" || len(title) > maxTitle || body == "" || len(body) > maxBody {
		return nil, ErrInvalidInput
	}
	p := &Post{SpaceID: spaceID, ProfileID: profile.ID, Title: title, Body: body}
	if err := s.store.CreatePost(ctx, p); err != nil {
		return nil, err
	}
	p.AuthorName = profile.DisplayName
	return p, nil
}

// GetPost returns a post and counts the view.
func (s *Service) GetPost(ctx context.Context, id int64) (*Post, error) {
	return s.store.GetPost(ctx, id)
}

// ListPosts pages through a space's posts, newest first.
func (s *Service) ListPosts(ctx context.Context, spaceID int64, limit, offset int) ([]*Post, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListPosts(ctx, spaceID, limit, offset)
}

// CreateComment replies to a post as the subject's profile.
func (s *Service) CreateComment(ctx context.Context, subjectID string, postID int64, body string) (*Comment, error) {
	profile, err := s.ProfileFor(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	body = strings.TrimSpace(body)
	if body == "" || len(body) > maxBody {
		return nil, ErrInvalidInput
	}
	c := &Comment{PostID: postID, ProfileID: profile.ID, Body: body}
	if err := s.store.CreateComment(ctx, c); err != nil {
		return nil, err
	}
	c.AuthorName = profile.DisplayName
	return c, nil
}

// ListComments returns a post's comments, oldest first.
func (s *Service) ListComments(ctx context.Context, postID int64) ([]*Comment, error) {
	return s.store.ListComments(ctx, postID)
}

// DeleteComment removes a comment. Only the author may delete their own
// comment; isAdmin bypasses the ownership check.
func (s *Service) DeleteComment(ctx context.Context, subjectID string, commentID int64, isAdmin bool) error {
	if !isAdmin {
		profile, err := s.ProfileFor(ctx, subjectID)
		if err != nil {
			return err
		}
		c, err := s.store.GetComment(ctx, commentID)
		if err != nil {
			return err
		}
		if c.ProfileID != profile.ID {
			return ErrNotOwner
		}
	}
	_, err := s.store.DeleteComment(ctx, commentID)
	return err
}

// ToggleLike flips the caller's like on a post and returns the liked state
// and the resulting count.
func (s *Service) ToggleLike(ctx context.Context, subjectID string, postID int64) (bool, int64, error) {
	profile, err := s.ProfileFor(ctx, subjectID)
	if err != nil {
		return false, 0, err
	}
	return s.store.ToggleLike(ctx, postID, profile.ID)
}
