package entity

import (
	"encoding/json"
	"time"
)

type ScheduleStatus string

const (
	ScheduleStatusPending   ScheduleStatus = "pending"
	ScheduleStatusPublished ScheduleStatus = "published"
	ScheduleStatusFailed    ScheduleStatus = "failed"
)

func (s ScheduleStatus) Valid() bool {
	switch s {
	case ScheduleStatusPending, ScheduleStatusPublished, ScheduleStatusFailed:
		return true
	}
	return false
}

// Schedule is independent of Post.PublishDate; the two are never reconciled.
type Schedule struct {
	ID            string         `json:"id"`
	PostID        string         `json:"postId"`
	ChannelID     string         `json:"channelId"`
	ScheduledDate time.Time      `json:"scheduledDate"`
	Status        ScheduleStatus `json:"status"`
	CreatedAt     time.Time      `json:"createdAt"`
}

func (s Schedule) GetID() string { return s.ID }

func (s Schedule) WithID(id string) Schedule {
	s.ID = id
	return s
}

type CreateScheduleInput struct {
	ID            json.RawMessage `json:"id,omitempty" swaggerignore:"true"`
	PostID        string          `json:"postId" binding:"required"`
	ChannelID     string          `json:"channelId" binding:"required"`
	ScheduledDate time.Time       `json:"scheduledDate" binding:"required"`
	Status        ScheduleStatus  `json:"status" binding:"omitempty,oneof=pending published failed"`
}

func (in CreateScheduleInput) Validate() FieldErrors {
	errs := FieldErrors{}
	if in.PostID == "" {
		errs.Add("postId", "is required")
	}
	if in.ChannelID == "" {
		errs.Add("channelId", "is required")
	}
	if in.ScheduledDate.IsZero() {
		errs.Add("scheduledDate", "is required")
	}
	if in.Status != "" && !in.Status.Valid() {
		errs.Add("status", "must be one of pending, published, failed")
	}
	return errs
}

func (in CreateScheduleInput) ToSchedule() Schedule {
	schedule := Schedule{
		PostID:        in.PostID,
		ChannelID:     in.ChannelID,
		ScheduledDate: in.ScheduledDate.UTC(),
		Status:        in.Status,
	}
	if schedule.Status == "" {
		schedule.Status = ScheduleStatusPending
	}
	return schedule
}

type SchedulePatch struct {
	ID            json.RawMessage          `json:"id,omitempty" swaggerignore:"true"`
	PostID        Optional[string]         `json:"postId,omitzero" swaggertype:"string"`
	ChannelID     Optional[string]         `json:"channelId,omitzero" swaggertype:"string"`
	ScheduledDate Optional[time.Time]      `json:"scheduledDate,omitzero" swaggertype:"string" format:"date-time"`
	Status        Optional[ScheduleStatus] `json:"status,omitzero" swaggertype:"string" enums:"pending,published,failed"`
	CreatedAt     json.RawMessage          `json:"createdAt,omitempty" swaggerignore:"true"`
}

func (p SchedulePatch) Validate() FieldErrors {
	errs := FieldErrors{}
	requireNonNull(errs, "postId", p.PostID)
	requireNonNull(errs, "channelId", p.ChannelID)
	requireNonNull(errs, "scheduledDate", p.ScheduledDate)
	requireNonNull(errs, "status", p.Status)
	if p.PostID.Set && !p.PostID.Null && p.PostID.Value == "" {
		errs.Add("postId", "must not be empty")
	}
	if p.ChannelID.Set && !p.ChannelID.Null && p.ChannelID.Value == "" {
		errs.Add("channelId", "must not be empty")
	}
	if p.Status.Set && !p.Status.Null && !p.Status.Value.Valid() {
		errs.Add("status", "must be one of pending, published, failed")
	}
	return errs
}

func (p SchedulePatch) Apply(schedule Schedule) Schedule {
	if p.PostID.Set {
		schedule.PostID = p.PostID.Value
	}
	if p.ChannelID.Set {
		schedule.ChannelID = p.ChannelID.Value
	}
	if p.ScheduledDate.Set {
		schedule.ScheduledDate = p.ScheduledDate.Value.UTC()
	}
	if p.Status.Set {
		schedule.Status = p.Status.Value
	}
	return schedule
}
