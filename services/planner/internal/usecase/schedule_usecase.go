package usecase

import (
	"context"
	"fmt"

	"content-planner/pkg/tagcache"
	"content-planner/services/planner/internal/entity"
	"content-planner/services/planner/internal/query"
)

type ScheduleUseCase interface {
	ListSchedules(ctx context.Context, filters query.ScheduleFilters) ([]entity.Schedule, error)
	GetSchedule(ctx context.Context, id string) (entity.Schedule, error)
	CreateSchedule(ctx context.Context, input entity.CreateScheduleInput) (entity.Schedule, error)
	UpdateSchedule(ctx context.Context, id string, patch entity.SchedulePatch) (entity.Schedule, error)
	DeleteSchedule(ctx context.Context, id string) error
}

type scheduleUseCase struct {
	env  *Env
	list tagcache.QueryDef[query.ScheduleFilters, []entity.Schedule]
	get  tagcache.QueryDef[string, entity.Schedule]
}

func NewScheduleUseCase(env *Env) ScheduleUseCase {
	return &scheduleUseCase{
		env: env,
		list: tagcache.QueryDef[query.ScheduleFilters, []entity.Schedule]{
			Endpoint: "getSchedules",
			Fetch: func(ctx context.Context, filters query.ScheduleFilters) ([]entity.Schedule, error) {
				schedules, err := env.Repos.Schedules.ReadAll(ctx)
				if err != nil {
					return nil, err
				}
				return query.FilterSchedules(schedules, filters), nil
			},
			ProvidesTags: func(schedules []entity.Schedule, _ query.ScheduleFilters) []tagcache.Tag {
				return entity.ProvidedTags(entity.KindSchedule, schedules)
			},
		},
		get: getQuery("getSchedule", entity.KindSchedule, env.Repos.Schedules.Find),
	}
}

func (uc *scheduleUseCase) ListSchedules(ctx context.Context, filters query.ScheduleFilters) ([]entity.Schedule, error) {
	return tagcache.Query(ctx, uc.env.Cache, uc.list, filters)
}

func (uc *scheduleUseCase) GetSchedule(ctx context.Context, id string) (entity.Schedule, error) {
	return tagcache.Query(ctx, uc.env.Cache, uc.get, id)
}

func (uc *scheduleUseCase) CreateSchedule(ctx context.Context, input entity.CreateScheduleInput) (entity.Schedule, error) {
	if err := validationError(input.Validate()); err != nil {
		return entity.Schedule{}, err
	}

	schedule := input.ToSchedule()
	schedule.CreatedAt = uc.env.now()

	created, err := uc.env.Repos.Schedules.Insert(ctx, schedule)
	if err != nil {
		return entity.Schedule{}, fmt.Errorf("failed to create schedule: %w", err)
	}

	uc.env.Events.Changed(ctx, entity.CreatedTags(entity.KindSchedule)...)
	return created, nil
}

func (uc *scheduleUseCase) UpdateSchedule(ctx context.Context, id string, patch entity.SchedulePatch) (entity.Schedule, error) {
	if err := validationError(patch.Validate()); err != nil {
		return entity.Schedule{}, err
	}

	updated, err := uc.env.Repos.Schedules.Replace(ctx, id, func(current entity.Schedule) (entity.Schedule, error) {
		return patch.Apply(current), nil
	})
	if err != nil {
		return entity.Schedule{}, notFound(entity.KindSchedule, id, err)
	}

	uc.env.Events.Changed(ctx, entity.ChangedTags(entity.KindSchedule, id)...)
	return updated, nil
}

func (uc *scheduleUseCase) DeleteSchedule(ctx context.Context, id string) error {
	tags, err := uc.env.Deleter.DeleteSchedule(ctx, id)
	uc.env.Events.Changed(ctx, tags...)
	return err
}
