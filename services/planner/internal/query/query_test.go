package query

import (
	"testing"
	"time"

	"content-planner/services/planner/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func day(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func samplePosts() []entity.Post {
	return []entity.Post{
		{ID: "1", Title: "Launch Day", Content: "big news", Status: entity.PostStatusDraft, ChannelIDs: []string{"1", "2"}, CampaignID: ptr("1"), CreatedAt: day("2024-01-01T08:00:00Z")},
		{ID: "2", Title: "Weekly recap", Content: "what we shipped at launch", Status: entity.PostStatusScheduled, ChannelIDs: []string{"3"}, CreatedAt: day("2024-01-02T08:00:00Z")},
		{ID: "3", Title: "Hiring", Content: "join us", Status: entity.PostStatusPublished, ChannelIDs: []string{"2"}, CampaignID: ptr("2"), CreatedAt: day("2024-01-03T08:00:00Z")},
	}
}

func TestFilterPosts_EmptyCriteriaIsNoOp(t *testing.T) {
	posts := samplePosts()

	assert.Equal(t, posts, FilterPosts(posts, PostFilters{}))
	assert.Equal(t, posts, FilterPosts(posts, PostFilters{Statuses: []entity.PostStatus{}, ChannelIDs: []string{}, Search: ""}))
}

func TestFilterPosts_SearchKeepsSurroundingSpaces(t *testing.T) {
	posts := append(samplePosts(), entity.Post{ID: "4", Title: "Recap", Content: "notes", Status: entity.PostStatusDraft})

	spaces := FilterPosts(posts, PostFilters{Search: " "})
	assert.Len(t, spaces, 3)
	for _, post := range spaces {
		assert.NotEqual(t, "4", post.ID)
	}

	assert.Empty(t, FilterPosts(posts, PostFilters{Search: "ing "}))
	assert.False(t, PostFilters{Search: " "}.Empty())
}

func TestFilterPosts_SearchIsCaseInsensitiveOverTitleOrContent(t *testing.T) {
	posts := samplePosts()

	result := FilterPosts(posts, PostFilters{Search: "LAUNCH"})

	require.Len(t, result, 2)
	assert.Equal(t, "1", result[0].ID)
	assert.Equal(t, "2", result[1].ID)
}

func TestFilterPosts_CriteriaCompose(t *testing.T) {
	posts := samplePosts()

	tests := []struct {
		name    string
		filters PostFilters
		want    []string
	}{
		{"status set", PostFilters{Statuses: []entity.PostStatus{entity.PostStatusDraft, entity.PostStatusPublished}}, []string{"1", "3"}},
		{"any channel intersects", PostFilters{ChannelIDs: []string{"2", "9"}}, []string{"1", "3"}},
		{"campaign skips posts without one", PostFilters{CampaignIDs: []string{"1", "2"}}, []string{"1", "3"}},
		{"conjunction", PostFilters{ChannelIDs: []string{"2"}, Search: "join"}, []string{"3"}},
		{"no match", PostFilters{Statuses: []entity.PostStatus{entity.PostStatusArchived}}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids := []string{}
			for _, post := range FilterPosts(posts, tt.filters) {
				ids = append(ids, post.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestGroupByDate(t *testing.T) {
	posts := []entity.Post{
		{ID: "A", PublishDate: ptr(day("2024-01-15T10:00:00Z")), CreatedAt: day("2024-01-01T00:00:00Z")},
		{ID: "B", CreatedAt: day("2024-01-14T09:00:00Z")},
		{ID: "C", PublishDate: ptr(day("2024-01-15T18:00:00Z")), CreatedAt: day("2024-01-02T00:00:00Z")},
	}

	groups := GroupByDate(posts)

	require.Len(t, groups, 2)
	assert.Equal(t, "2024-01-14", groups[0].Date)
	assert.Equal(t, "B", groups[0].Posts[0].ID)
	assert.Equal(t, "2024-01-15", groups[1].Date)
	require.Len(t, groups[1].Posts, 2)
	assert.Equal(t, "A", groups[1].Posts[0].ID)
	assert.Equal(t, "C", groups[1].Posts[1].ID)
}

func TestGroupByDate_UsesUTC(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	posts := []entity.Post{{ID: "A", CreatedAt: time.Date(2024, 1, 15, 2, 0, 0, 0, tokyo)}}

	groups := GroupByDate(posts)

	require.Len(t, groups, 1)
	assert.Equal(t, "2024-01-14", groups[0].Date)
}

func TestSummarize(t *testing.T) {
	at := day("2024-01-15T12:00:00Z")
	posts := []entity.Post{
		{ID: "1", Status: entity.PostStatusDraft, ChannelIDs: []string{"c1", "c2"}, PublishDate: ptr(day("2024-01-15T06:00:00Z"))},
		{ID: "2", Status: entity.PostStatusDraft, ChannelIDs: []string{"c1"}, PublishDate: ptr(day("2024-01-14T23:59:59Z"))},
		{ID: "3", Status: entity.PostStatusPublished, ChannelIDs: []string{}},
	}

	summary := Summarize(posts, at)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, map[entity.PostStatus]int{
		entity.PostStatusDraft:     2,
		entity.PostStatusScheduled: 0,
		entity.PostStatusPublished: 1,
		entity.PostStatusArchived:  0,
	}, summary.ByStatus)
	assert.Equal(t, 1, summary.Upcoming)
	assert.Equal(t, map[string]int{"c1": 2, "c2": 1}, summary.ChannelUsage)
}

func TestSummarize_IgnoresUnknownStatus(t *testing.T) {
	posts := []entity.Post{
		{ID: "1", Status: entity.PostStatusDraft},
		{ID: "2", Status: entity.PostStatus("deleted")},
	}

	summary := Summarize(posts, day("2024-01-15T12:00:00Z"))

	assert.Equal(t, 2, summary.Total)
	assert.Len(t, summary.ByStatus, 4)
	assert.Equal(t, 1, summary.ByStatus[entity.PostStatusDraft])
	assert.NotContains(t, summary.ByStatus, entity.PostStatus("deleted"))
}

func TestSummarize_Empty(t *testing.T) {
	summary := Summarize(nil, time.Now())

	assert.Zero(t, summary.Total)
	assert.Len(t, summary.ByStatus, 4)
	assert.Empty(t, summary.ChannelUsage)
}

func TestParseScheduleFilters(t *testing.T) {
	filters, err := ParseScheduleFilters("p1", "2024-01-10", "2024-01-12")
	require.NoError(t, err)

	assert.Equal(t, "p1", filters.PostID)
	assert.Equal(t, day("2024-01-10T00:00:00Z"), *filters.Start)
	assert.Equal(t, time.Date(2024, 1, 12, 23, 59, 59, 999999999, time.UTC), *filters.End)

	filters, err = ParseScheduleFilters("", "", "2024-01-12T08:00:00Z")
	require.NoError(t, err)
	assert.Nil(t, filters.Start)
	assert.Equal(t, day("2024-01-12T08:00:00Z"), *filters.End)

	_, err = ParseScheduleFilters("", "yesterday", "")
	assert.Error(t, err)
}

func TestFilterSchedules_InclusiveRange(t *testing.T) {
	schedules := []entity.Schedule{
		{ID: "s1", PostID: "p1", ScheduledDate: day("2024-01-10T00:00:00Z")},
		{ID: "s2", PostID: "p2", ScheduledDate: day("2024-01-12T21:00:00Z")},
		{ID: "s3", PostID: "p1", ScheduledDate: day("2024-01-13T00:00:00Z")},
	}

	filters, err := ParseScheduleFilters("", "2024-01-10", "2024-01-12")
	require.NoError(t, err)
	result := FilterSchedules(schedules, filters)
	require.Len(t, result, 2)
	assert.Equal(t, "s1", result[0].ID)
	assert.Equal(t, "s2", result[1].ID)

	result = FilterSchedules(schedules, ScheduleFilters{PostID: "p1"})
	require.Len(t, result, 2)
	assert.Equal(t, "s3", result[1].ID)
}
