package community

import "context"

// ProfileFields carries a partial profile update.
type ProfileFields struct {
	DisplayName *string
	Avatar      *string
	Bio         *string
}

// Store describes persistence operations for the forum. Implementations must
// keep every counter mutation in the same atomic unit as the row change it
// reflects.
type Store interface {
	CreateProfile(ctx context.Context, p *Profile) error
	ProfileBySubject(ctx context.Context, subjectID string) (*Profile, error)
	ProfileByID(ctx context.Context, id int64) (*Profile, error)
	UpdateProfile(ctx context.Context, id int64, fields ProfileFields) (*Profile, error)
	ListProfiles(ctx context.Context) ([]*Profile, error)

	CreateSpace(ctx context.Context, s *Space) error
	SpaceBySlug(ctx context.Context, slug string) (*Space, error)
	ListSpaces(ctx context.Context) ([]*Space, error)

	// CreatePost inserts the post and bumps the space and profile counters.
	CreatePost(ctx context.Context, p *Post) error
	// GetPost returns the post and increments its view count in one step.
	GetPost(ctx context.Context, id int64) (*Post, error)
	ListPosts(ctx context.Context, spaceID int64, limit, offset int) ([]*Post, error)

	// CreateComment inserts the comment and bumps the post and profile
	// counters.
	CreateComment(ctx context.Context, c *Comment) error
	ListComments(ctx context.Context, postID int64) ([]*Comment, error)
	GetComment(ctx context.Context, id int64) (*Comment, error)
	// DeleteComment removes the comment and decrements the counters. The
	// returned comment is the deleted row.
	DeleteComment(ctx context.Context, id int64) (*Comment, error)

	// ToggleLike inserts or removes the like row for (postID, profileID)
	// and adjusts the post's like count in the same atomic unit. It
	// returns whether the post is liked after the call and the new count.
	ToggleLike(ctx context.Context, postID, profileID int64) (liked bool, likeCount int64, err error)
}
