package httpapi

import (
	"context"
	"encoding/json"
	"errors"

	"speakeasy.club/internal/community"
)

func (a *API) registerForumProcedures() {
	a.register("profile.me", gateUser, a.rpcProfileMe)
	a.register("profile.create", gateMember, a.rpcProfileCreate)
	a.register("profile.update", gateMember, a.rpcProfileUpdate)

	a.register("members.list", gateMember, a.rpcMembersList)

	a.register("spaces.list", gateMember, a.rpcSpacesList)
	a.register("spaces.ensure", gateAdmin, a.rpcSpacesEnsure)

	a.register("posts.list", gateMember, a.rpcPostsList)
	a.register("posts.get", gateMember, a.rpcPostsGet)
	a.register("posts.create", gateMember, a.rpcPostsCreate)
	a.register("posts.toggleLike", gateMember, a.rpcPostsToggleLike)

	a.register("comments.list", gateMember, a.rpcCommentsList)
	a.register("comments.create", gateMember, a.rpcCommentsCreate)
	a.register("comments.delete", gateMember, a.rpcCommentsDelete)
}

// profile.me is gateUser, not gateMember: the frontend shows lapsed members
// their own profile alongside the renewal prompt. No profile yet is a normal
// state, not an error.
func (a *API) rpcProfileMe(ctx context.Context, rc *rpcContext, _ json.RawMessage) (any, error) {
	profile, err := a.forum.ProfileFor(ctx, rc.account.SubjectID)
	if err != nil {
		if errors.Is(err, community.ErrNoProfile) {
			return map[string]any{"profile": nil}, nil
		}
		return nil, err
	}
	return map[string]any{"profile": profile}, nil
}

func (a *API) rpcProfileCreate(ctx context.Context, rc *rpcContext, params json.RawMessage) (any, error) {
	var p struct {
		DisplayName string `json:"displayName"`
		Avatar      string `json:"avatar"`
		Bio         string `json:"bio"`
	}
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	return a.forum.CreateProfile(ctx, rc.account.SubjectID, p.DisplayName, p.Avatar, p.Bio)
}

func (a *API) rpcProfileUpdate(ctx context.Context, rc *rpcContext, params json.RawMessage) (any, error) {
	var p struct {
		DisplayName *string `json:"displayName"`
		Avatar      *string `json:"avatar"`
		Bio         *string `json:"bio"`
	}
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	return a.forum.UpdateProfile(ctx, rc.account.SubjectID, community.ProfileFields{
		DisplayName: p.DisplayName,
		Avatar:      p.Avatar,
		Bio:         p.Bio,
	})
}

func (a *API) rpcMembersList(ctx context.Context, _ *rpcContext, _ json.RawMessage) (any, error) {
	profiles, err := a.forum.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"members": profiles}, nil
}

func (a *API) rpcSpacesList(ctx context.Context, _ *rpcContext, _ json.RawMessage) (any, error) {
	spaces, err := a.forum.ListSpaces(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"spaces": spaces}, nil
}

func (a *API) rpcSpacesEnsure(ctx context.Context, _ *rpcContext, params json.RawMessage) (any, error) {
	var p struct {
		Slug        string `json:"slug"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	return a.forum.EnsureSpace(ctx, p.Slug, p.Name, p.Description)
}

func (a *API) rpcPostsList(ctx context.Context, _ *rpcContext, params json.RawMessage) (any, error) {
	var p struct {
		SpaceID int64 `json:"spaceId"`
		Limit   int   `json:"limit"`
		Offset  int   `json:"offset"`
	}
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	posts, err := a.forum.ListPosts(ctx, p.SpaceID, p.Limit, p.Offset)
	if err != nil {
		return nil, err
	}
	return map[string]any{"posts": posts}, nil
}

func (a *API) rpcPostsGet(ctx context.Context, _ *rpcContext, params json.RawMessage) (any, error) {
	var p struct {
		ID int64 `json:"id"`
	}
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	return a.forum.GetPost(ctx, p.ID)
}

func (a *API) rpcPostsCreate(ctx context.Context, rc *rpcContext, params json.RawMessage) (any, error) {
	var p struct {
		SpaceID int64  `json:"spaceId"`
		Title   string `json:"title"`
		Body    string `json:"body"`
	}
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	return a.forum.CreatePost(ctx, rc.account.SubjectID, p.SpaceID, p.Title, p.Body)
}

func (a *API) rpcPostsToggleLike(ctx context.Context, rc *rpcContext, params json.RawMessage) (any, error) {
	var p struct {
		PostID int64 `json:"postId"`
	}
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	liked, count, err := a.forum.ToggleLike(ctx, rc.account.SubjectID, p.PostID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"liked": liked, "likeCount": count}, nil
}

func (a *API) rpcCommentsList(ctx context.Context, _ *rpcContext, params json.RawMessage) (any, error) {
	var p struct {
		PostID int64 `json:"postId"`
	}
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	comments, err := a.forum.ListComments(ctx, p.PostID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"comments": comments}, nil
}

func (a *API) rpcCommentsCreate(ctx context.Context, rc *rpcContext, params json.RawMessage) (any, error) {
	var p struct {
		PostID int64  `json:"postId"`
		Body   string `json:"body"`
	}
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	return a.forum.CreateComment(ctx, rc.account.SubjectID, p.PostID, p.Body)
}

func (a *API) rpcCommentsDelete(ctx context.Context, rc *rpcContext, params json.RawMessage) (any, error) {
	var p struct {
		CommentID int64 `json:"commentId"`
	}
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	if err := a.forum.DeleteComment(ctx, rc.account.SubjectID, p.CommentID, rc.isAdmin()); err != nil {
		return nil, err
	}
	return map[string]any{"deleted": true}, nil
}
