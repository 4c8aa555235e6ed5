package usecase

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"content-planner/pkg/config"
	"content-planner/pkg/logger"
	"content-planner/pkg/tagcache"
	"content-planner/services/planner/internal/entity"
	"content-planner/services/planner/internal/query"
	"content-planner/services/planner/internal/repo/persistent"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) PublishInvalidation(ctx context.Context, tags []tagcache.Tag) error {
	args := m.Called(ctx, tags)
	return args.Error(0)
}

type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) UploadFile(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	data, _ := io.ReadAll(body)
	args := m.Called(key, string(data), contentType)
	return args.String(0), args.Error(1)
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fixture struct {
	env       *Env
	clock     *testClock
	posts     PostUseCase
	channels  ChannelUseCase
	campaigns CampaignUseCase
	schedules ScheduleUseCase
}

func newFixture(t *testing.T, policies DeletePolicies, notifier Notifier) *fixture {
	t.Helper()
	store := persistent.NewFileStore(filepath.Join(t.TempDir(), "data"))
	clock := &testClock{now: time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)}
	_, err := persistent.Initialize(context.Background(), store, persistent.DefaultSeed(clock.now))
	require.NoError(t, err)

	log := logger.Discard()
	env := NewEnv(persistent.NewRepositories(store), tagcache.New(tagcache.NewMemoryBackend(), tagcache.WithLogger(log)), notifier, policies, log)
	env.Now = clock.Now

	return &fixture{
		env:       env,
		clock:     clock,
		posts:     NewPostUseCase(env),
		channels:  NewChannelUseCase(env),
		campaigns: NewCampaignUseCase(env),
		schedules: NewScheduleUseCase(env),
	}
}

func TestCreatePost_Defaults(t *testing.T) {
	f := newFixture(t, DefaultDeletePolicies(), nil)
	ctx := context.Background()

	created, err := f.posts.CreatePost(ctx, entity.CreatePostInput{Title: "T", Content: "C"})
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, entity.PostStatusDraft, created.Status)
	assert.Equal(t, []string{}, created.ChannelIDs)
	assert.Nil(t, created.CampaignID)
	assert.Nil(t, created.PublishDate)
	assert.Equal(t, f.clock.now, created.CreatedAt)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	fetched, err := f.posts.GetPost(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, fetched)
}

func TestCreatePost_RejectsUnknownStatus(t *testing.T) {
	f := newFixture(t, DefaultDeletePolicies(), nil)

	_, err := f.posts.CreatePost(context.Background(), entity.CreatePostInput{Status: "deleted"})

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Fields, "status")
}

func TestUpdatePost_KeepsCreatedAtAndAdvancesUpdatedAt(t *testing.T) {
	f := newFixture(t, DefaultDeletePolicies(), nil)
	ctx := context.Background()

	created, err := f.posts.CreatePost(ctx, entity.CreatePostInput{Title: "Before"})
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	updated, err := f.posts.UpdatePost(ctx, created.ID, entity.PostPatch{Title: entity.Some("After")})
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "After", updated.Title)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
}

func TestUpdatePost_NotFound(t *testing.T) {
	f := newFixture(t, DefaultDeletePolicies(), nil)

	_, err := f.posts.UpdatePost(context.Background(), "missing", entity.PostPatch{Title: entity.Some("x")})

	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "Post not found")
}

func TestDeletePost_MissingLeavesCountUnchanged(t *testing.T) {
	f := newFixture(t, DefaultDeletePolicies(), nil)
	ctx := context.Background()

	before, err := f.posts.ListPosts(ctx, query.PostFilters{})
	require.NoError(t, err)

	err = f.posts.DeletePost(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	after, err := f.posts.ListPosts(ctx, query.PostFilters{})
	require.NoError(t, err)
	assert.Len(t, after, len(before))
}

func TestListPosts_ServedFromCacheUntilInvalidated(t *testing.T) {
	f := newFixture(t, DefaultDeletePolicies(), nil)
	ctx := context.Background()

	posts, err := f.posts.ListPosts(ctx, query.PostFilters{})
	require.NoError(t, err)
	require.Len(t, posts, 1)

	// a write that bypasses the use case is not seen until a tag is invalidated
	require.NoError(t, f.env.Repos.Posts.WriteAll(ctx, nil))
	cached, err := f.posts.ListPosts(ctx, query.PostFilters{})
	require.NoError(t, err)
	assert.Len(t, cached, 1)

	_, err = f.posts.CreatePost(ctx, entity.CreatePostInput{Title: "fresh"})
	require.NoError(t, err)
	refreshed, err := f.posts.ListPosts(ctx, query.PostFilters{})
	require.NoError(t, err)
	require.Len(t, refreshed, 1)
	assert.Equal(t, "fresh", refreshed[0].Title)
}

func TestListPosts_Filters(t *testing.T) {
	f := newFixture(t, DefaultDeletePolicies(), nil)
	ctx := context.Background()
	_, err := f.posts.CreatePost(ctx, entity.CreatePostInput{Title: "Release notes", Status: entity.PostStatusPublished, ChannelIDs: []string{"4"}})
	require.NoError(t, err)

	posts, err := f.posts.ListPosts(ctx, query.PostFilters{Statuses: []entity.PostStatus{entity.PostStatusPublished}})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Release notes", posts[0].Title)

	posts, err = f.posts.ListPosts(ctx, query.PostFilters{Search: "welcome"})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "1", posts[0].ID)
}

func TestSummaryAndCalendar(t *testing.T) {
	f := newFixture(t, DefaultDeletePolicies(), nil)
	ctx := context.Background()

	summary, err := f.posts.Summary(ctx, query.PostFilters{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.ByStatus[entity.PostStatusDraft])
	assert.Equal(t, 1, summary.Upcoming)
	assert.Equal(t, map[string]int{"1": 1}, summary.ChannelUsage)

	groups, err := f.posts.Calendar(ctx, query.PostFilters{})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "2024-01-16", groups[0].Date)
}

func TestMutations_PublishInvalidatedTags(t *testing.T) {
	notifier := new(MockNotifier)
	f := newFixture(t, DefaultDeletePolicies(), notifier)
	ctx := context.Background()

	notifier.On("PublishInvalidation", mock.Anything, []tagcache.Tag{entity.KindChannel.ListTag()}).Return(nil).Once()
	notifier.On("PublishInvalidation", mock.Anything, []tagcache.Tag{
		entity.KindSchedule.ListTag(),
		entity.KindPost.ListTag(),
	}).Return(nil).Once()

	_, err := f.channels.CreateChannel(ctx, entity.CreateChannelInput{Name: "Newsletter", Type: entity.ChannelTypeEmail})
	require.NoError(t, err)
	_, err = f.schedules.CreateSchedule(ctx, entity.CreateScheduleInput{PostID: "1", ChannelID: "1", ScheduledDate: f.clock.now})
	require.NoError(t, err)

	notifier.AssertExpectations(t)
}

func TestFailedMutation_PublishesNothing(t *testing.T) {
	notifier := new(MockNotifier)
	f := newFixture(t, DefaultDeletePolicies(), notifier)

	err := f.campaigns.DeleteCampaign(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrNotFound)
	notifier.AssertNotCalled(t, "PublishInvalidation", mock.Anything, mock.Anything)
}

func TestChannelAndCampaignCRUD(t *testing.T) {
	f := newFixture(t, DefaultDeletePolicies(), nil)
	ctx := context.Background()

	channel, err := f.channels.CreateChannel(ctx, entity.CreateChannelInput{Name: "Threads"})
	require.NoError(t, err)
	assert.Equal(t, entity.ChannelTypeSocial, channel.Type)
	assert.Equal(t, "#000000", channel.Color)

	channel, err = f.channels.UpdateChannel(ctx, channel.ID, entity.ChannelPatch{Color: entity.Some("#101010")})
	require.NoError(t, err)
	assert.Equal(t, "Threads", channel.Name)
	assert.Equal(t, "#101010", channel.Color)

	channels, err := f.channels.ListChannels(ctx)
	require.NoError(t, err)
	assert.Len(t, channels, 5)

	require.NoError(t, f.channels.DeleteChannel(ctx, channel.ID))
	_, err = f.channels.GetChannel(ctx, channel.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	campaign, err := f.campaigns.CreateCampaign(ctx, entity.CreateCampaignInput{Name: "Spring"})
	require.NoError(t, err)
	assert.Equal(t, entity.CampaignStatusPlanning, campaign.Status)

	campaign, err = f.campaigns.UpdateCampaign(ctx, campaign.ID, entity.CampaignPatch{Status: entity.Some(entity.CampaignStatusPaused)})
	require.NoError(t, err)
	assert.Equal(t, entity.CampaignStatusPaused, campaign.Status)

	fetched, err := f.campaigns.GetCampaign(ctx, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, campaign, fetched)
}

func TestSchedules_ListByRangeAndUpdate(t *testing.T) {
	f := newFixture(t, DefaultDeletePolicies(), nil)
	ctx := context.Background()

	first, err := f.schedules.CreateSchedule(ctx, entity.CreateScheduleInput{PostID: "1", ChannelID: "1", ScheduledDate: time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	assert.Equal(t, entity.ScheduleStatusPending, first.Status)
	_, err = f.schedules.CreateSchedule(ctx, entity.CreateScheduleInput{PostID: "1", ChannelID: "2", ScheduledDate: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)})
	require.NoError(t, err)

	filters, err := query.ParseScheduleFilters("1", "2024-02-01", "2024-02-01")
	require.NoError(t, err)
	schedules, err := f.schedules.ListSchedules(ctx, filters)
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	assert.Equal(t, first.ID, schedules[0].ID)

	updated, err := f.schedules.UpdateSchedule(ctx, first.ID, entity.SchedulePatch{Status: entity.Some(entity.ScheduleStatusPublished)})
	require.NoError(t, err)
	assert.Equal(t, entity.ScheduleStatusPublished, updated.Status)
	assert.Equal(t, first.CreatedAt, updated.CreatedAt)

	_, err = f.schedules.CreateSchedule(ctx, entity.CreateScheduleInput{ChannelID: "1"})
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Fields, "postId")
	assert.Contains(t, validation.Fields, "scheduledDate")
}

func TestDeletePost_Policies(t *testing.T) {
	tests := []struct {
		name          string
		policy        DeletePolicy
		wantErr       error
		wantPosts     int
		wantSchedules int
	}{
		{"orphan keeps schedules", PolicyOrphan, nil, 0, 1},
		{"cascade removes schedules", PolicyCascade, nil, 0, 0},
		{"reject keeps everything", PolicyReject, ErrReferenced, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policies := DefaultDeletePolicies()
			policies.SchedulePost = tt.policy
			f := newFixture(t, policies, nil)
			ctx := context.Background()

			_, err := f.schedules.CreateSchedule(ctx, entity.CreateScheduleInput{PostID: "1", ChannelID: "1", ScheduledDate: f.clock.now})
			require.NoError(t, err)

			err = f.posts.DeletePost(ctx, "1")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			posts, err := f.posts.ListPosts(ctx, query.PostFilters{})
			require.NoError(t, err)
			assert.Len(t, posts, tt.wantPosts)
			schedules, err := f.schedules.ListSchedules(ctx, query.ScheduleFilters{})
			require.NoError(t, err)
			assert.Len(t, schedules, tt.wantSchedules)
		})
	}
}

func TestDeleteChannel_Nullify(t *testing.T) {
	policies := DefaultDeletePolicies()
	policies.PostChannel = PolicyNullify
	f := newFixture(t, policies, nil)
	ctx := context.Background()

	_, err := f.posts.GetPost(ctx, "1")
	require.NoError(t, err)

	require.NoError(t, f.channels.DeleteChannel(ctx, "1"))

	post, err := f.posts.GetPost(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, []string{}, post.ChannelIDs)
}

func TestDeleteChannel_CascadeReachesSchedules(t *testing.T) {
	policies := DefaultDeletePolicies()
	policies.PostChannel = PolicyCascade
	policies.SchedulePost = PolicyCascade
	f := newFixture(t, policies, nil)
	ctx := context.Background()

	_, err := f.schedules.CreateSchedule(ctx, entity.CreateScheduleInput{PostID: "1", ChannelID: "3", ScheduledDate: f.clock.now})
	require.NoError(t, err)

	require.NoError(t, f.channels.DeleteChannel(ctx, "1"))

	_, err = f.posts.GetPost(ctx, "1")
	assert.ErrorIs(t, err, ErrNotFound)
	schedules, err := f.schedules.ListSchedules(ctx, query.ScheduleFilters{})
	require.NoError(t, err)
	assert.Empty(t, schedules)
}

func TestDeleteChannel_RejectedBySchedules(t *testing.T) {
	policies := DefaultDeletePolicies()
	policies.ScheduleChannel = PolicyReject
	f := newFixture(t, policies, nil)
	ctx := context.Background()

	_, err := f.schedules.CreateSchedule(ctx, entity.CreateScheduleInput{PostID: "1", ChannelID: "2", ScheduledDate: f.clock.now})
	require.NoError(t, err)

	err = f.channels.DeleteChannel(ctx, "2")

	var referenced *ReferencedError
	require.ErrorAs(t, err, &referenced)
	assert.Equal(t, entity.KindSchedule, referenced.By)
	assert.Equal(t, 1, referenced.Count)
	_, err = f.channels.GetChannel(ctx, "2")
	assert.NoError(t, err)
}

func TestDeleteCampaign_Policies(t *testing.T) {
	t.Run("nullify clears the reference", func(t *testing.T) {
		policies := DefaultDeletePolicies()
		policies.PostCampaign = PolicyNullify
		f := newFixture(t, policies, nil)
		ctx := context.Background()

		require.NoError(t, f.campaigns.DeleteCampaign(ctx, "1"))

		post, err := f.posts.GetPost(ctx, "1")
		require.NoError(t, err)
		assert.Nil(t, post.CampaignID)
	})

	t.Run("orphan keeps the dangling reference", func(t *testing.T) {
		f := newFixture(t, DefaultDeletePolicies(), nil)
		ctx := context.Background()

		require.NoError(t, f.campaigns.DeleteCampaign(ctx, "1"))

		post, err := f.posts.GetPost(ctx, "1")
		require.NoError(t, err)
		require.NotNil(t, post.CampaignID)
		assert.Equal(t, "1", *post.CampaignID)
	})

	t.Run("reject", func(t *testing.T) {
		policies := DefaultDeletePolicies()
		policies.PostCampaign = PolicyReject
		f := newFixture(t, policies, nil)

		err := f.campaigns.DeleteCampaign(context.Background(), "1")
		assert.ErrorIs(t, err, ErrReferenced)

		require.NoError(t, f.campaigns.DeleteCampaign(context.Background(), "2"))
	})
}

func TestDeletePoliciesFromConfig(t *testing.T) {
	cfg := &config.Config{
		DeletePolicySchedulePost:    "cascade",
		DeletePolicyPostChannel:     "nullify",
		DeletePolicyScheduleChannel: "reject",
		DeletePolicyPostCampaign:    "",
	}

	policies, err := DeletePoliciesFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, DeletePolicies{
		SchedulePost:    PolicyCascade,
		PostChannel:     PolicyNullify,
		ScheduleChannel: PolicyReject,
		PostCampaign:    PolicyOrphan,
	}, policies)

	cfg.DeletePolicySchedulePost = "nullify"
	_, err = DeletePoliciesFromConfig(cfg)
	assert.ErrorContains(t, err, "DELETE_POLICY_SCHEDULE_POST")

	cfg.DeletePolicySchedulePost = "archive"
	_, err = DeletePoliciesFromConfig(cfg)
	assert.Error(t, err)
}

func TestSnapshotExport(t *testing.T) {
	f := newFixture(t, DefaultDeletePolicies(), nil)
	ctx := context.Background()

	unavailable := NewSnapshotUseCase(f.env, nil)
	_, err := unavailable.Export(ctx)
	assert.ErrorIs(t, err, ErrExportUnavailable)

	uploader := new(MockUploader)
	uploader.On("UploadFile", "snapshots/20240115T120000Z.json", mock.MatchedBy(func(body string) bool {
		return strings.Contains(body, `"Welcome to Content Planner"`) && strings.Contains(body, `"Instagram"`)
	}), "application/json").Return("http://minio/content-planner-snapshots/snapshots/20240115T120000Z.json", nil)

	result, err := NewSnapshotUseCase(f.env, uploader).Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, "snapshots/20240115T120000Z.json", result.Key)
	uploader.AssertExpectations(t)

	snapshot, err := unavailable.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snapshot.Posts, 1)
	assert.Len(t, snapshot.Channels, 4)
	assert.Len(t, snapshot.Campaigns, 2)
	assert.Empty(t, snapshot.Schedules)
}
