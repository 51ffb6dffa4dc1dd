package community

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func seedForum(t *testing.T) (*Service, *MemoryStore, *Space) {
	t.Helper()
	store := NewMemoryStore()
	svc := NewService(store)
	ctx := context.Background()

	space, err := svc.EnsureSpace(ctx, "integration", "Integration", "Trip reports and integration circles")
	require.NoError(t, err)

	_, err = svc.CreateProfile(ctx, "subj-1", "Luna", "mushroom", "")
	require.NoError(t, err)
	_, err = svc.CreateProfile(ctx, "subj-2", "Sol", "", "")
	require.NoError(t, err)

	return svc, store, space
}

func TestCreateProfileConflict(t *testing.T) {
	svc, _, _ := seedForum(t)
	_, err := svc.CreateProfile(context.Background(), "subj-1", "Second Luna", "", "")
	require.ErrorIs(t, err, ErrConflict)
}

func TestPostingRequiresProfile(t *testing.T) {
	svc, _, space := seedForum(t)
	_, err := svc.CreatePost(context.Background(), "no-profile-subject", space.ID, "Hello", "First post")
	require.ErrorIs(t, err, ErrNoProfile)
}

func TestCreatePostBumpsCounters(t *testing.T) {
	svc, _, space := seedForum(t)
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, "subj-1", space.ID, "Set and setting", "Some thoughts.")
	require.NoError(t, err)
	require.Equal(t, "Luna", post.AuthorName)

	spaces, err := svc.ListSpaces(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, spaces[0].PostCount)

	profile, err := svc.ProfileFor(ctx, "subj-1")
	require.NoError(t, err)
	require.EqualValues(t, 1, profile.PostCount)
}

func TestGetPostCountsView(t *testing.T) {
	svc, _, space := seedForum(t)
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, "subj-1", space.ID, "Title", "Body")
	require.NoError(t, err)

	got, err := svc.GetPost(ctx, post.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, got.ViewCount)

	got, err = svc.GetPost(ctx, post.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, got.ViewCount)
}

func TestCommentLifecycle(t *testing.T) {
	svc, _, space := seedForum(t)
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, "subj-1", space.ID, "Title", "Body")
	require.NoError(t, err)

	comment, err := svc.CreateComment(ctx, "subj-2", post.ID, "Thanks for sharing")
	require.NoError(t, err)
	require.Equal(t, "Sol", comment.AuthorName)

	got, err := svc.GetPost(ctx, post.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, got.CommentCount)

	// The author may not delete someone else's comment.
	err = svc.DeleteComment(ctx, "subj-1", comment.ID, false)
	require.ErrorIs(t, err, ErrNotOwner)

	// An admin may.
	require.NoError(t, svc.DeleteComment(ctx, "subj-1", comment.ID, true))

	got, err = svc.GetPost(ctx, post.ID)
	require.NoError(t, err)
	require.EqualValues(t, 0, got.CommentCount)
}

func TestToggleLikeFlips(t *testing.T) {
	svc, store, space := seedForum(t)
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, "subj-1", space.ID, "Title", "Body")
	require.NoError(t, err)

	liked, count, err := svc.ToggleLike(ctx, "subj-2", post.ID)
	require.NoError(t, err)
	require.True(t, liked)
	require.EqualValues(t, 1, count)

	liked, count, err = svc.ToggleLike(ctx, "subj-2", post.ID)
	require.NoError(t, err)
	require.False(t, liked)
	require.EqualValues(t, 0, count)
	require.Equal(t, 0, store.LikeRowCount(post.ID))
}

func TestConcurrentLikersKeepCountConsistent(t *testing.T) {
	svc, store, space := seedForum(t)
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, "subj-1", space.ID, "Title", "Body")
	require.NoError(t, err)

	subjects := []string{"subj-1", "subj-2"}
	var wg sync.WaitGroup
	for _, subject := range subjects {
		wg.Add(1)
		go func(subject string) {
			defer wg.Done()
			_, _, err := svc.ToggleLike(ctx, subject, post.ID)
			require.NoError(t, err)
		}(subject)
	}
	wg.Wait()

	got, err := svc.GetPost(ctx, post.ID)
	require.NoError(t, err)
	require.EqualValues(t, store.LikeRowCount(post.ID), got.LikeCount)
	require.EqualValues(t, 2, got.LikeCount)
}

func TestCreatePostValidation(t *testing.T) {
	svc, _, space := seedForum(t)
	ctx := context.Background()

	_, err := svc.CreatePost(ctx, "subj-1", space.ID, "   ", "Body")
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreatePost(ctx, "subj-1", space.ID, "Title", "")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestEnsureSpaceIsIdempotent(t *testing.T) {
	svc, _, _ := seedForum(t)
	ctx := context.Background()

	again, err := svc.EnsureSpace(ctx, "integration", "Integration Circle", "updated")
	require.NoError(t, err)

	spaces, err := svc.ListSpaces(ctx)
	require.NoError(t, err)
	require.Len(t, spaces, 1)
	require.Equal(t, again.ID, spaces[0].ID)
	require.Equal(t, "Integration Circle", spaces[0].Name)
}
