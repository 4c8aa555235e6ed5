package usecase

import (
	"context"
	"fmt"

	"content-planner/pkg/tagcache"
	"content-planner/services/planner/internal/entity"
	"content-planner/services/planner/internal/query"
)

type PostUseCase interface {
	ListPosts(ctx context.Context, filters query.PostFilters) ([]entity.Post, error)
	GetPost(ctx context.Context, id string) (entity.Post, error)
	CreatePost(ctx context.Context, input entity.CreatePostInput) (entity.Post, error)
	UpdatePost(ctx context.Context, id string, patch entity.PostPatch) (entity.Post, error)
	DeletePost(ctx context.Context, id string) error
	Summary(ctx context.Context, filters query.PostFilters) (query.Summary, error)
	Calendar(ctx context.Context, filters query.PostFilters) ([]query.DateGroup, error)
}

type postUseCase struct {
	env  *Env
	list tagcache.QueryDef[query.PostFilters, []entity.Post]
	get  tagcache.QueryDef[string, entity.Post]
}

func NewPostUseCase(env *Env) PostUseCase {
	uc := &postUseCase{env: env}
	uc.list = tagcache.QueryDef[query.PostFilters, []entity.Post]{
		Endpoint: "getPosts",
		Fetch: func(ctx context.Context, filters query.PostFilters) ([]entity.Post, error) {
			posts, err := env.Repos.Posts.ReadAll(ctx)
			if err != nil {
				return nil, err
			}
			return query.FilterPosts(posts, filters), nil
		},
		ProvidesTags: func(posts []entity.Post, _ query.PostFilters) []tagcache.Tag {
			return entity.ProvidedTags(entity.KindPost, posts)
		},
	}
	uc.get = tagcache.QueryDef[string, entity.Post]{
		Endpoint: "getPost",
		Fetch: func(ctx context.Context, id string) (entity.Post, error) {
			post, err := env.Repos.Posts.Find(ctx, id)
			if err != nil {
				return post, notFound(entity.KindPost, id, err)
			}
			return post, nil
		},
		ProvidesTags: func(_ entity.Post, id string) []tagcache.Tag {
			return []tagcache.Tag{entity.KindPost.ItemTag(id)}
		},
	}
	return uc
}

func (uc *postUseCase) ListPosts(ctx context.Context, filters query.PostFilters) ([]entity.Post, error) {
	return tagcache.Query(ctx, uc.env.Cache, uc.list, filters)
}

func (uc *postUseCase) GetPost(ctx context.Context, id string) (entity.Post, error) {
	return tagcache.Query(ctx, uc.env.Cache, uc.get, id)
}

func (uc *postUseCase) CreatePost(ctx context.Context, input entity.CreatePostInput) (entity.Post, error) {
	if err := validationError(input.Validate()); err != nil {
		return entity.Post{}, err
	}

	now := uc.env.now()
	post := input.ToPost()
	post.CreatedAt = now
	post.UpdatedAt = now

	created, err := uc.env.Repos.Posts.Insert(ctx, post)
	if err != nil {
		return entity.Post{}, fmt.Errorf("failed to create post: %w", err)
	}

	uc.env.Events.Changed(ctx, entity.CreatedTags(entity.KindPost)...)
	return created, nil
}

func (uc *postUseCase) UpdatePost(ctx context.Context, id string, patch entity.PostPatch) (entity.Post, error) {
	if err := validationError(patch.Validate()); err != nil {
		return entity.Post{}, err
	}

	now := uc.env.now()
	updated, err := uc.env.Repos.Posts.Replace(ctx, id, func(current entity.Post) (entity.Post, error) {
		next := patch.Apply(current)
		next.UpdatedAt = laterOf(now, next.CreatedAt)
		return next, nil
	})
	if err != nil {
		return entity.Post{}, notFound(entity.KindPost, id, err)
	}

	uc.env.Events.Changed(ctx, entity.ChangedTags(entity.KindPost, id)...)
	return updated, nil
}

func (uc *postUseCase) DeletePost(ctx context.Context, id string) error {
	tags, err := uc.env.Deleter.DeletePost(ctx, id)
	uc.env.Events.Changed(ctx, tags...)
	return err
}

func (uc *postUseCase) Summary(ctx context.Context, filters query.PostFilters) (query.Summary, error) {
	posts, err := uc.ListPosts(ctx, filters)
	if err != nil {
		return query.Summary{}, err
	}
	return query.Summarize(posts, uc.env.Now()), nil
}

func (uc *postUseCase) Calendar(ctx context.Context, filters query.PostFilters) ([]query.DateGroup, error) {
	posts, err := uc.ListPosts(ctx, filters)
	if err != nil {
		return nil, err
	}
	return query.GroupByDate(posts), nil
}
