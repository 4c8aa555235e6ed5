package usecase

import (
	"context"
	"errors"
	"time"

	"content-planner/pkg/tagcache"
	"content-planner/services/planner/internal/entity"
	"content-planner/services/planner/internal/repo/persistent"
)

// Deleter removes records and applies the configured policy to their
// dependents. Every method returns the tags of all records it changed.
//
// The four collections live in separate documents, so a cascade that fails
// half way leaves the records it already changed in place.
type Deleter struct {
	repos    *persistent.Repositories
	policies DeletePolicies
	now      func() time.Time
}

func NewDeleter(repos *persistent.Repositories, policies DeletePolicies, now func() time.Time) *Deleter {
	return &Deleter{repos: repos, policies: policies, now: now}
}

func (d *Deleter) Policies() DeletePolicies {
	return d.policies
}

func (d *Deleter) DeletePost(ctx context.Context, id string) ([]tagcache.Tag, error) {
	if _, err := d.repos.Posts.Find(ctx, id); err != nil {
		return nil, notFound(entity.KindPost, id, err)
	}
	if err := d.checkPosts(ctx, []string{id}); err != nil {
		return nil, err
	}

	if _, err := d.repos.Posts.Remove(ctx, id); err != nil {
		return nil, notFound(entity.KindPost, id, err)
	}
	tags := entity.ChangedTags(entity.KindPost, id)

	more, err := d.afterPostsRemoved(ctx, []string{id})
	return append(tags, more...), err
}

func (d *Deleter) DeleteChannel(ctx context.Context, id string) ([]tagcache.Tag, error) {
	if _, err := d.repos.Channels.Find(ctx, id); err != nil {
		return nil, notFound(entity.KindChannel, id, err)
	}

	posts, err := d.repos.Posts.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	var postIDs []string
	for _, post := range posts {
		if post.HasChannel(id) {
			postIDs = append(postIDs, post.ID)
		}
	}
	schedules, err := d.repos.Schedules.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	scheduleRefs := 0
	for _, schedule := range schedules {
		if schedule.ChannelID == id {
			scheduleRefs++
		}
	}

	switch d.policies.PostChannel {
	case PolicyReject:
		if len(postIDs) > 0 {
			return nil, &ReferencedError{Kind: entity.KindChannel, ID: id, By: entity.KindPost, Count: len(postIDs)}
		}
	case PolicyCascade:
		if err := d.checkPosts(ctx, postIDs); err != nil {
			return nil, err
		}
	}
	if d.policies.ScheduleChannel == PolicyReject && scheduleRefs > 0 {
		return nil, &ReferencedError{Kind: entity.KindChannel, ID: id, By: entity.KindSchedule, Count: scheduleRefs}
	}

	if _, err := d.repos.Channels.Remove(ctx, id); err != nil {
		return nil, notFound(entity.KindChannel, id, err)
	}
	tags := entity.ChangedTags(entity.KindChannel, id)

	if len(postIDs) > 0 {
		switch d.policies.PostChannel {
		case PolicyCascade:
			removed, err := d.repos.Posts.RemoveWhere(ctx, func(p entity.Post) bool { return p.HasChannel(id) })
			if err != nil {
				return tags, err
			}
			ids := recordIDs(removed)
			tags = append(tags, changedTags(entity.KindPost, ids)...)
			more, err := d.afterPostsRemoved(ctx, ids)
			tags = append(tags, more...)
			if err != nil {
				return tags, err
			}
		case PolicyNullify:
			updatedAt := d.now()
			changed, err := d.repos.Posts.UpdateWhere(ctx,
				func(p entity.Post) bool { return p.HasChannel(id) },
				func(p entity.Post) entity.Post {
					p.ChannelIDs = without(p.ChannelIDs, id)
					p.UpdatedAt = laterOf(updatedAt, p.CreatedAt)
					return p
				})
			if err != nil {
				return tags, err
			}
			tags = append(tags, changedTags(entity.KindPost, recordIDs(changed))...)
		}
	}

	if scheduleRefs > 0 && d.policies.ScheduleChannel == PolicyCascade {
		removed, err := d.repos.Schedules.RemoveWhere(ctx, func(s entity.Schedule) bool { return s.ChannelID == id })
		if err != nil {
			return tags, err
		}
		tags = append(tags, changedTags(entity.KindSchedule, recordIDs(removed))...)
	}

	return tags, nil
}

func (d *Deleter) DeleteCampaign(ctx context.Context, id string) ([]tagcache.Tag, error) {
	if _, err := d.repos.Campaigns.Find(ctx, id); err != nil {
		return nil, notFound(entity.KindCampaign, id, err)
	}

	posts, err := d.repos.Posts.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	var postIDs []string
	for _, post := range posts {
		if inCampaign(post, id) {
			postIDs = append(postIDs, post.ID)
		}
	}

	switch d.policies.PostCampaign {
	case PolicyReject:
		if len(postIDs) > 0 {
			return nil, &ReferencedError{Kind: entity.KindCampaign, ID: id, By: entity.KindPost, Count: len(postIDs)}
		}
	case PolicyCascade:
		if err := d.checkPosts(ctx, postIDs); err != nil {
			return nil, err
		}
	}

	if _, err := d.repos.Campaigns.Remove(ctx, id); err != nil {
		return nil, notFound(entity.KindCampaign, id, err)
	}
	tags := entity.ChangedTags(entity.KindCampaign, id)

	if len(postIDs) == 0 {
		return tags, nil
	}

	switch d.policies.PostCampaign {
	case PolicyCascade:
		removed, err := d.repos.Posts.RemoveWhere(ctx, func(p entity.Post) bool { return inCampaign(p, id) })
		if err != nil {
			return tags, err
		}
		ids := recordIDs(removed)
		tags = append(tags, changedTags(entity.KindPost, ids)...)
		more, err := d.afterPostsRemoved(ctx, ids)
		tags = append(tags, more...)
		if err != nil {
			return tags, err
		}
	case PolicyNullify:
		updatedAt := d.now()
		changed, err := d.repos.Posts.UpdateWhere(ctx,
			func(p entity.Post) bool { return inCampaign(p, id) },
			func(p entity.Post) entity.Post {
				p.CampaignID = nil
				p.UpdatedAt = laterOf(updatedAt, p.CreatedAt)
				return p
			})
		if err != nil {
			return tags, err
		}
		tags = append(tags, changedTags(entity.KindPost, recordIDs(changed))...)
	}
	return tags, nil
}

// Nothing references a schedule.
func (d *Deleter) DeleteSchedule(ctx context.Context, id string) ([]tagcache.Tag, error) {
	if _, err := d.repos.Schedules.Remove(ctx, id); err != nil {
		return nil, notFound(entity.KindSchedule, id, err)
	}
	return entity.ChangedTags(entity.KindSchedule, id), nil
}

// checkPosts fails when removing the posts would violate the reject policy of
// their schedules.
func (d *Deleter) checkPosts(ctx context.Context, postIDs []string) error {
	if d.policies.SchedulePost != PolicyReject || len(postIDs) == 0 {
		return nil
	}
	schedules, err := d.repos.Schedules.ReadAll(ctx)
	if err != nil {
		return err
	}
	count := 0
	for _, schedule := range schedules {
		if contains(postIDs, schedule.PostID) {
			count++
		}
	}
	if count > 0 {
		return &ReferencedError{Kind: entity.KindPost, ID: postIDs[0], By: entity.KindSchedule, Count: count}
	}
	return nil
}

func (d *Deleter) afterPostsRemoved(ctx context.Context, postIDs []string) ([]tagcache.Tag, error) {
	if d.policies.SchedulePost != PolicyCascade || len(postIDs) == 0 {
		return nil, nil
	}
	removed, err := d.repos.Schedules.RemoveWhere(ctx, func(s entity.Schedule) bool {
		return contains(postIDs, s.PostID)
	})
	if err != nil {
		return nil, err
	}
	return changedTags(entity.KindSchedule, recordIDs(removed)), nil
}

func notFound(kind entity.Kind, id string, err error) error {
	if errors.Is(err, persistent.ErrNotFound) {
		return &NotFoundError{Kind: kind, ID: id}
	}
	return err
}

func changedTags(kind entity.Kind, ids []string) []tagcache.Tag {
	var tags []tagcache.Tag
	for _, id := range ids {
		tags = append(tags, entity.ChangedTags(kind, id)...)
	}
	return tags
}

func recordIDs[T entity.Record[T]](records []T) []string {
	ids := make([]string, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.GetID())
	}
	return ids
}

func inCampaign(post entity.Post, campaignID string) bool {
	return post.CampaignID != nil && *post.CampaignID == campaignID
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

func without(values []string, value string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != value {
			out = append(out, v)
		}
	}
	return out
}

func laterOf(a, b time.Time) time.Time {
	if a.Before(b) {
		return b
	}
	return a
}
