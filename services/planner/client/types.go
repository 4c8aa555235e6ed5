package client

import (
	"content-planner/services/planner/internal/entity"
	"content-planner/services/planner/internal/query"
)

// Records, inputs and filters are aliases of the server-side types so callers
// outside this module tree can name every argument and result of Client.

type (
	Post     = entity.Post
	Channel  = entity.Channel
	Campaign = entity.Campaign
	Schedule = entity.Schedule

	PostStatus     = entity.PostStatus
	ChannelType    = entity.ChannelType
	CampaignStatus = entity.CampaignStatus
	ScheduleStatus = entity.ScheduleStatus

	CreatePostInput     = entity.CreatePostInput
	CreateChannelInput  = entity.CreateChannelInput
	CreateCampaignInput = entity.CreateCampaignInput
	CreateScheduleInput = entity.CreateScheduleInput

	PostPatch     = entity.PostPatch
	ChannelPatch  = entity.ChannelPatch
	CampaignPatch = entity.CampaignPatch
	SchedulePatch = entity.SchedulePatch

	FieldErrors = entity.FieldErrors

	PostFilters = query.PostFilters
	Summary     = query.Summary
	DateGroup   = query.DateGroup
)

// Optional is a patch field: unset, explicit null, or a value.
type Optional[T any] = entity.Optional[T]

func Some[T any](value T) Optional[T] { return entity.Some(value) }

func Null[T any]() Optional[T] { return entity.Null[T]() }

const (
	PostStatusDraft     = entity.PostStatusDraft
	PostStatusScheduled = entity.PostStatusScheduled
	PostStatusPublished = entity.PostStatusPublished
	PostStatusArchived  = entity.PostStatusArchived

	ChannelTypeSocial       = entity.ChannelTypeSocial
	ChannelTypeProfessional = entity.ChannelTypeProfessional
	ChannelTypeContent      = entity.ChannelTypeContent
	ChannelTypeEmail        = entity.ChannelTypeEmail

	CampaignStatusPlanning  = entity.CampaignStatusPlanning
	CampaignStatusActive    = entity.CampaignStatusActive
	CampaignStatusPaused    = entity.CampaignStatusPaused
	CampaignStatusCompleted = entity.CampaignStatusCompleted

	ScheduleStatusPending   = entity.ScheduleStatusPending
	ScheduleStatusPublished = entity.ScheduleStatusPublished
	ScheduleStatusFailed    = entity.ScheduleStatusFailed
)
