package entity

import (
	"encoding/json"
	"time"
)

type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusScheduled PostStatus = "scheduled"
	PostStatusPublished PostStatus = "published"
	PostStatusArchived  PostStatus = "archived"
)

// PostStatuses lists every status in display order.
var PostStatuses = []PostStatus{PostStatusDraft, PostStatusScheduled, PostStatusPublished, PostStatusArchived}

func (s PostStatus) Valid() bool {
	switch s {
	case PostStatusDraft, PostStatusScheduled, PostStatusPublished, PostStatusArchived:
		return true
	}
	return false
}

type Post struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Status      PostStatus `json:"status"`
	ChannelIDs  []string   `json:"channelIds"`
	CampaignID  *string    `json:"campaignId"`
	PublishDate *time.Time `json:"publishDate"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (p Post) GetID() string { return p.ID }

func (p Post) WithID(id string) Post {
	p.ID = id
	return p
}

// EffectiveDate is the publish date when set, the creation date otherwise.
func (p Post) EffectiveDate() time.Time {
	if p.PublishDate != nil {
		return *p.PublishDate
	}
	return p.CreatedAt
}

func (p Post) HasChannel(channelID string) bool {
	for _, id := range p.ChannelIDs {
		if id == channelID {
			return true
		}
	}
	return false
}

type CreatePostInput struct {
	ID          json.RawMessage `json:"id,omitempty" swaggerignore:"true"`
	Title       string          `json:"title"`
	Content     string          `json:"content"`
	Status      PostStatus      `json:"status" binding:"omitempty,oneof=draft scheduled published archived"`
	ChannelIDs  []string        `json:"channelIds"`
	CampaignID  *string         `json:"campaignId"`
	PublishDate *time.Time      `json:"publishDate"`
}

func (in CreatePostInput) Validate() FieldErrors {
	errs := FieldErrors{}
	if in.Status != "" && !in.Status.Valid() {
		errs.Add("status", "must be one of draft, scheduled, published, archived")
	}
	return errs
}

// ToPost applies create defaults. Timestamps are left to the caller.
func (in CreatePostInput) ToPost() Post {
	post := Post{
		Title:       in.Title,
		Content:     in.Content,
		Status:      in.Status,
		ChannelIDs:  normalizeIDs(in.ChannelIDs),
		CampaignID:  nonEmpty(in.CampaignID),
		PublishDate: utc(in.PublishDate),
	}
	if post.Status == "" {
		post.Status = PostStatusDraft
	}
	return post
}

// PostPatch is a partial update. id, createdAt and updatedAt are accepted
// and ignored.
type PostPatch struct {
	ID          json.RawMessage      `json:"id,omitempty" swaggerignore:"true"`
	Title       Optional[string]     `json:"title,omitzero" swaggertype:"string"`
	Content     Optional[string]     `json:"content,omitzero" swaggertype:"string"`
	Status      Optional[PostStatus] `json:"status,omitzero" swaggertype:"string" enums:"draft,scheduled,published,archived"`
	ChannelIDs  Optional[[]string]   `json:"channelIds,omitzero" swaggertype:"array,string"`
	CampaignID  Optional[*string]    `json:"campaignId,omitzero" swaggertype:"string"`
	PublishDate Optional[*time.Time] `json:"publishDate,omitzero" swaggertype:"string" format:"date-time"`
	CreatedAt   json.RawMessage      `json:"createdAt,omitempty" swaggerignore:"true"`
	UpdatedAt   json.RawMessage      `json:"updatedAt,omitempty" swaggerignore:"true"`
}

func (p PostPatch) Validate() FieldErrors {
	errs := FieldErrors{}
	requireNonNull(errs, "title", p.Title)
	requireNonNull(errs, "content", p.Content)
	requireNonNull(errs, "status", p.Status)
	if p.Status.Set && !p.Status.Null && !p.Status.Value.Valid() {
		errs.Add("status", "must be one of draft, scheduled, published, archived")
	}
	return errs
}

// Apply merges the patch onto post. updatedAt is refreshed by the caller.
func (p PostPatch) Apply(post Post) Post {
	if p.Title.Set {
		post.Title = p.Title.Value
	}
	if p.Content.Set {
		post.Content = p.Content.Value
	}
	if p.Status.Set {
		post.Status = p.Status.Value
	}
	if p.ChannelIDs.Set {
		post.ChannelIDs = normalizeIDs(p.ChannelIDs.Value)
	}
	if p.CampaignID.Set {
		post.CampaignID = nonEmpty(p.CampaignID.Value)
	}
	if p.PublishDate.Set {
		post.PublishDate = utc(p.PublishDate.Value)
	}
	return post
}

func normalizeIDs(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

// nonEmpty turns an empty reference into a missing one.
func nonEmpty(id *string) *string {
	if id == nil || *id == "" {
		return nil
	}
	v := *id
	return &v
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
