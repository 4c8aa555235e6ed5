// Package query holds the pure filter, grouping and statistics functions used by
// the list endpoints and by the dashboard client.
package query

import (
	"sort"
	"strings"
	"time"

	"content-planner/services/planner/internal/entity"

	"github.com/jinzhu/now"
)

// PostFilters is a conjunction of optional criteria. An empty criterion never
// excludes anything.
type PostFilters struct {
	Search      string              `json:"search,omitempty" form:"search"`
	Statuses    []entity.PostStatus `json:"statuses,omitempty" form:"status"`
	ChannelIDs  []string            `json:"channelIds,omitempty" form:"channelId"`
	CampaignIDs []string            `json:"campaignIds,omitempty" form:"campaignId"`
}

func (f PostFilters) Empty() bool {
	return f.Search == "" && len(f.Statuses) == 0 && len(f.ChannelIDs) == 0 && len(f.CampaignIDs) == 0
}

func (f PostFilters) Match(post entity.Post) bool {
	// Plain substring match: surrounding spaces are part of the term.
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(post.Title), needle) &&
			!strings.Contains(strings.ToLower(post.Content), needle) {
			return false
		}
	}

	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, post.Status) {
		return false
	}

	if len(f.ChannelIDs) > 0 && !intersects(f.ChannelIDs, post.ChannelIDs) {
		return false
	}

	if len(f.CampaignIDs) > 0 {
		if post.CampaignID == nil || !contains(f.CampaignIDs, *post.CampaignID) {
			return false
		}
	}

	return true
}

// FilterPosts keeps matching posts in their original order.
func FilterPosts(posts []entity.Post, filters PostFilters) []entity.Post {
	result := make([]entity.Post, 0, len(posts))
	for _, post := range posts {
		if filters.Match(post) {
			result = append(result, post)
		}
	}
	return result
}

type DateGroup struct {
	Date  string        `json:"date"`
	Posts []entity.Post `json:"posts"`
}

// DateKey is the calendar day of t in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// GroupByDate partitions posts by the day of their effective date. Groups are
// sorted by day; posts keep their relative order inside a group.
func GroupByDate(posts []entity.Post) []DateGroup {
	index := make(map[string]int)
	groups := make([]DateGroup, 0)
	for _, post := range posts {
		key := DateKey(post.EffectiveDate())
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, DateGroup{Date: key})
		}
		groups[i].Posts = append(groups[i].Posts, post)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Date < groups[j].Date
	})
	return groups
}

type Summary struct {
	Total        int                       `json:"total"`
	ByStatus     map[entity.PostStatus]int `json:"byStatus"`
	Upcoming     int                       `json:"upcoming"`
	ChannelUsage map[string]int            `json:"channelUsage"`
}

// Summarize counts posts by status, counts posts publishing after the start of
// the day containing at, and counts every channel reference of every post.
func Summarize(posts []entity.Post, at time.Time) Summary {
	summary := Summary{
		Total:        len(posts),
		ByStatus:     make(map[entity.PostStatus]int, len(entity.PostStatuses)),
		ChannelUsage: make(map[string]int),
	}
	for _, status := range entity.PostStatuses {
		summary.ByStatus[status] = 0
	}

	startOfToday := now.With(at).BeginningOfDay()
	for _, post := range posts {
		if post.Status.Valid() {
			summary.ByStatus[post.Status]++
		}
		if post.PublishDate != nil && post.PublishDate.After(startOfToday) {
			summary.Upcoming++
		}
		for _, channelID := range post.ChannelIDs {
			summary.ChannelUsage[channelID]++
		}
	}
	return summary
}

func containsStatus(statuses []entity.PostStatus, status entity.PostStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

func intersects(wanted, have []string) bool {
	for _, id := range have {
		if contains(wanted, id) {
			return true
		}
	}
	return false
}
