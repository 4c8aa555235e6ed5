package usecase

import (
	"context"
	"fmt"

	"content-planner/pkg/tagcache"
	"content-planner/services/planner/internal/entity"
)

type ChannelUseCase interface {
	ListChannels(ctx context.Context) ([]entity.Channel, error)
	GetChannel(ctx context.Context, id string) (entity.Channel, error)
	CreateChannel(ctx context.Context, input entity.CreateChannelInput) (entity.Channel, error)
	UpdateChannel(ctx context.Context, id string, patch entity.ChannelPatch) (entity.Channel, error)
	DeleteChannel(ctx context.Context, id string) error
}

type channelUseCase struct {
	env  *Env
	list tagcache.QueryDef[struct{}, []entity.Channel]
	get  tagcache.QueryDef[string, entity.Channel]
}

func NewChannelUseCase(env *Env) ChannelUseCase {
	return &channelUseCase{
		env:  env,
		list: listQuery("getChannels", entity.KindChannel, env.Repos.Channels.ReadAll),
		get:  getQuery("getChannel", entity.KindChannel, env.Repos.Channels.Find),
	}
}

func (uc *channelUseCase) ListChannels(ctx context.Context) ([]entity.Channel, error) {
	return tagcache.Query(ctx, uc.env.Cache, uc.list, struct{}{})
}

func (uc *channelUseCase) GetChannel(ctx context.Context, id string) (entity.Channel, error) {
	return tagcache.Query(ctx, uc.env.Cache, uc.get, id)
}

func (uc *channelUseCase) CreateChannel(ctx context.Context, input entity.CreateChannelInput) (entity.Channel, error) {
	if err := validationError(input.Validate()); err != nil {
		return entity.Channel{}, err
	}

	created, err := uc.env.Repos.Channels.Insert(ctx, input.ToChannel())
	if err != nil {
		return entity.Channel{}, fmt.Errorf("failed to create channel: %w", err)
	}

	uc.env.Events.Changed(ctx, entity.CreatedTags(entity.KindChannel)...)
	return created, nil
}

func (uc *channelUseCase) UpdateChannel(ctx context.Context, id string, patch entity.ChannelPatch) (entity.Channel, error) {
	if err := validationError(patch.Validate()); err != nil {
		return entity.Channel{}, err
	}

	updated, err := uc.env.Repos.Channels.Replace(ctx, id, func(current entity.Channel) (entity.Channel, error) {
		return patch.Apply(current), nil
	})
	if err != nil {
		return entity.Channel{}, notFound(entity.KindChannel, id, err)
	}

	uc.env.Events.Changed(ctx, entity.ChangedTags(entity.KindChannel, id)...)
	return updated, nil
}

func (uc *channelUseCase) DeleteChannel(ctx context.Context, id string) error {
	tags, err := uc.env.Deleter.DeleteChannel(ctx, id)
	uc.env.Events.Changed(ctx, tags...)
	return err
}

// listQuery caches a whole collection under its item tags and LIST tag.
func listQuery[T entity.Record[T]](endpoint string, kind entity.Kind, readAll func(context.Context) ([]T, error)) tagcache.QueryDef[struct{}, []T] {
	return tagcache.QueryDef[struct{}, []T]{
		Endpoint: endpoint,
		Fetch: func(ctx context.Context, _ struct{}) ([]T, error) {
			return readAll(ctx)
		},
		ProvidesTags: func(records []T, _ struct{}) []tagcache.Tag {
			return entity.ProvidedTags(kind, records)
		},
	}
}

func getQuery[T entity.Record[T]](endpoint string, kind entity.Kind, find func(context.Context, string) (T, error)) tagcache.QueryDef[string, T] {
	return tagcache.QueryDef[string, T]{
		Endpoint: endpoint,
		Fetch: func(ctx context.Context, id string) (T, error) {
			record, err := find(ctx, id)
			if err != nil {
				return record, notFound(kind, id, err)
			}
			return record, nil
		},
		ProvidesTags: func(_ T, id string) []tagcache.Tag {
			return []tagcache.Tag{kind.ItemTag(id)}
		},
	}
}
