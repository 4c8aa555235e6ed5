package usecase

import (
	"context"
	"fmt"

	"content-planner/pkg/tagcache"
	"content-planner/services/planner/internal/entity"
)

type CampaignUseCase interface {
	ListCampaigns(ctx context.Context) ([]entity.Campaign, error)
	GetCampaign(ctx context.Context, id string) (entity.Campaign, error)
	CreateCampaign(ctx context.Context, input entity.CreateCampaignInput) (entity.Campaign, error)
	UpdateCampaign(ctx context.Context, id string, patch entity.CampaignPatch) (entity.Campaign, error)
	DeleteCampaign(ctx context.Context, id string) error
}

type campaignUseCase struct {
	env  *Env
	list tagcache.QueryDef[struct{}, []entity.Campaign]
	get  tagcache.QueryDef[string, entity.Campaign]
}

func NewCampaignUseCase(env *Env) CampaignUseCase {
	return &campaignUseCase{
		env:  env,
		list: listQuery("getCampaigns", entity.KindCampaign, env.Repos.Campaigns.ReadAll),
		get:  getQuery("getCampaign", entity.KindCampaign, env.Repos.Campaigns.Find),
	}
}

func (uc *campaignUseCase) ListCampaigns(ctx context.Context) ([]entity.Campaign, error) {
	return tagcache.Query(ctx, uc.env.Cache, uc.list, struct{}{})
}

func (uc *campaignUseCase) GetCampaign(ctx context.Context, id string) (entity.Campaign, error) {
	return tagcache.Query(ctx, uc.env.Cache, uc.get, id)
}

func (uc *campaignUseCase) CreateCampaign(ctx context.Context, input entity.CreateCampaignInput) (entity.Campaign, error) {
	if err := validationError(input.Validate()); err != nil {
		return entity.Campaign{}, err
	}

	created, err := uc.env.Repos.Campaigns.Insert(ctx, input.ToCampaign())
	if err != nil {
		return entity.Campaign{}, fmt.Errorf("failed to create campaign: %w", err)
	}

	uc.env.Events.Changed(ctx, entity.CreatedTags(entity.KindCampaign)...)
	return created, nil
}

func (uc *campaignUseCase) UpdateCampaign(ctx context.Context, id string, patch entity.CampaignPatch) (entity.Campaign, error) {
	if err := validationError(patch.Validate()); err != nil {
		return entity.Campaign{}, err
	}

	updated, err := uc.env.Repos.Campaigns.Replace(ctx, id, func(current entity.Campaign) (entity.Campaign, error) {
		return patch.Apply(current), nil
	})
	if err != nil {
		return entity.Campaign{}, notFound(entity.KindCampaign, id, err)
	}

	uc.env.Events.Changed(ctx, entity.ChangedTags(entity.KindCampaign, id)...)
	return updated, nil
}

func (uc *campaignUseCase) DeleteCampaign(ctx context.Context, id string) error {
	tags, err := uc.env.Deleter.DeleteCampaign(ctx, id)
	uc.env.Events.Changed(ctx, tags...)
	return err
}
