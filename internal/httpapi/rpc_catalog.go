package httpapi

import (
	"context"
	"encoding/json"

	"speakeasy.club/internal/catalog"
)

func (a *API) registerCatalogProcedures() {
	a.register("blog.list", gateNone, a.rpcBlogList)
	a.register("blog.get", gateNone, a.rpcBlogGet)
	a.register("blog.listAll", gateAdmin, a.rpcBlogListAll)
	a.register("blog.upsert", gateAdmin, a.rpcBlogUpsert)
	a.register("blog.delete", gateAdmin, a.rpcBlogDelete)

	a.register("subscriber.add", gateNone, a.rpcSubscriberAdd)
	a.register("subscriber.list", gateAdmin, a.rpcSubscriberList)

	a.register("vendorCategories.list", gateNone, a.rpcVendorCategoriesList)
	a.register("vendorCategories.ensure", gateAdmin, a.rpcVendorCategoriesEnsure)
	a.register("vendors.list", gateNone, a.rpcVendorsList)
	a.register("vendors.upsert", gateAdmin, a.rpcVendorsUpsert)
	a.register("vendors.delete", gateAdmin, a.rpcVendorsDelete)

	a.register("resourceCategories.list", gateNone, a.rpcResourceCategoriesList)
	a.register("resourceCategories.ensure", gateAdmin, a.rpcResourceCategoriesEnsure)
	a.register("resources.list", gateNone, a.rpcResourcesList)
	a.register("resources.upsert", gateAdmin, a.rpcResourcesUpsert)
	a.register("resources.delete", gateAdmin, a.rpcResourcesDelete)
}

func (a *API) rpcBlogList(ctx context.Context, _ *rpcContext, params json.RawMessage) (any, error) {
	var p struct {
		Limit  int `json:"limit"`
		Offset int `json:"offset"`
	}
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	posts, err := a.catalog.PublishedPosts(ctx, p.Limit, p.Offset)
	if err != nil {
		return nil, err
	}
	return map[string]any{"posts": posts}, nil
}

func (a *API) rpcBlogGet(ctx context.Context, rc *rpcContext, params json.RawMessage) (any, error) {
	var p struct {
		Slug string `json:"slug"`
	}
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	post, err := a.catalog.BlogPost(ctx, p.Slug)
	if err != nil {
		return nil, err
	}
	// Drafts are visible to admins only.
	if !post.Published && !rc.isAdmin() {
		return nil, rpcFail(codeNotFound, "not found")
	}
	return post, nil
}

func (a *API) rpcBlogListAll(ctx context.Context, _ *rpcContext, params json.RawMessage) (any, error) {
	var p struct {
		Limit  int `json:"limit"`
		Offset int `json:"offset"`
	}
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	posts, err := a.catalog.AllPosts(ctx, p.Limit, p.Offset)
	if err != nil {
		return nil, err
	}
	return map[string]any{"posts": posts}, nil
}

func (a *API) rpcBlogUpsert(ctx context.Context, _ *rpcContext, params json.RawMessage) (any, error) {
	var p catalog.BlogPost
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	return a.catalog.UpsertBlogPost(ctx, &p)
}

func (a *API) rpcBlogDelete(ctx context.Context, _ *rpcContext, params json.RawMessage) (any, error) {
	var p struct {
		Slug string `json:"slug"`
	}
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	if err := a.catalog.DeleteBlogPost(ctx, p.Slug); err != nil {
		return nil, err
	}
	return map[string]any{"deleted": true}, nil
}

func (a *API) rpcSubscriberAdd(ctx context.Context, _ *rpcContext, params json.RawMessage) (any, error) {
	var p struct {
		Email  string `json:"email"`
		Source string `json:"source"`
	}
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	sub, err := a.catalog.Subscribe(ctx, p.Email, p.Source)
	if err != nil {
		return nil, err
	}
	return map[string]any{"subscribed": true, "email": sub.Email}, nil
}

func (a *API) rpcSubscriberList(ctx context.Context, _ *rpcContext, params json.RawMessage) (any, error) {
	var p struct {
		Limit  int `json:"limit"`
		Offset int `json:"offset"`
	}
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	subs, err := a.catalog.Subscribers(ctx, p.Limit, p.Offset)
	if err != nil {
		return nil, err
	}
	return map[string]any{"subscribers": subs}, nil
}

func (a *API) rpcVendorCategoriesList(ctx context.Context, _ *rpcContext, _ json.RawMessage) (any, error) {
	cats, err := a.catalog.VendorCategories(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"categories": cats}, nil
}

func (a *API) rpcVendorCategoriesEnsure(ctx context.Context, _ *rpcContext, params json.RawMessage) (any, error) {
	var p struct {
		Slug string `json:"slug"`
		Name string `json:"name"`
	}
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	return a.catalog.EnsureVendorCategory(ctx, p.Slug, p.Name)
}

func (a *API) rpcVendorsList(ctx context.Context, _ *rpcContext, params json.RawMessage) (any, error) {
	var p struct {
		CategoryID int64 `json:"categoryId"`
	}
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	vendors, err := a.catalog.Vendors(ctx, p.CategoryID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"vendors": vendors}, nil
}

func (a *API) rpcVendorsUpsert(ctx context.Context, _ *rpcContext, params json.RawMessage) (any, error) {
	var p catalog.Vendor
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	return a.catalog.UpsertVendor(ctx, &p)
}

func (a *API) rpcVendorsDelete(ctx context.Context, _ *rpcContext, params json.RawMessage) (any, error) {
	var p struct {
		ID int64 `json:"id"`
	}
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	if err := a.catalog.DeleteVendor(ctx, p.ID); err != nil {
		return nil, err
	}
	return map[string]any{"deleted": true}, nil
}

func (a *API) rpcResourceCategoriesList(ctx context.Context, _ *rpcContext, _ json.RawMessage) (any, error) {
	cats, err := a.catalog.ResourceCategories(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"categories": cats}, nil
}

func (a *API) rpcResourceCategoriesEnsure(ctx context.Context, _ *rpcContext, params json.RawMessage) (any, error) {
	var p struct {
		Slug string `json:"slug"`
		Name string `json:"name"`
	}
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	return a.catalog.EnsureResourceCategory(ctx, p.Slug, p.Name)
}

func (a *API) rpcResourcesList(ctx context.Context, _ *rpcContext, params json.RawMessage) (any, error) {
	var p struct {
		CategoryID int64 `json:"categoryId"`
	}
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	resources, err := a.catalog.Resources(ctx, p.CategoryID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"resources": resources}, nil
}

func (a *API) rpcResourcesUpsert(ctx context.Context, _ *rpcContext, params json.RawMessage) (any, error) {
	var p catalog.Resource
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	return a.catalog.UpsertResource(ctx, &p)
}

func (a *API) rpcResourcesDelete(ctx context.Context, _ *rpcContext, params json.RawMessage) (any, error) {
	var p struct {
		ID int64 `json:"id"`
	}
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	if err := a.catalog.DeleteResource(ctx, p.ID); err != nil {
		return nil, err
	}
	return map[string]any{"deleted": true}, nil
}
