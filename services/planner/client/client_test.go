package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"content-planner/pkg/config"
	"content-planner/pkg/logger"
	"content-planner/pkg/tagcache"
	"content-planner/services/planner/internal/app"
	"content-planner/services/planner/internal/entity"
	"content-planner/services/planner/internal/query"
	"content-planner/services/planner/internal/repo/persistent"
	"content-planner/services/planner/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type requestCounter struct {
	handler http.Handler
	mu      sync.Mutex
	counts  map[string]int
}

func (rc *requestCounter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rc.mu.Lock()
	rc.counts[r.Method+" "+r.URL.Path]++
	rc.mu.Unlock()
	rc.handler.ServeHTTP(w, r)
}

func (rc *requestCounter) Count(method, path string) int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.counts[method+" "+path]
}

type testServer struct {
	client   *Client
	requests *requestCounter
	server   *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := persistent.NewFileStore(t.TempDir())
	_, err := persistent.Initialize(context.Background(), store, persistent.DefaultSeed(time.Now()))
	require.NoError(t, err)

	router := app.NewRouter(&config.Config{CORSAllowedOrigins: "*"}, logger.Discard(), app.Dependencies{
		Store:    store,
		Policies: usecase.DefaultDeletePolicies(),
	})
	requests := &requestCounter{handler: router, counts: make(map[string]int)}
	server := httptest.NewServer(requests)
	t.Cleanup(server.Close)

	return &testServer{
		client:   New(server.URL+"/api", WithLogger(logger.Discard())),
		requests: requests,
		server:   server,
	}
}

func entryFor(t *testing.T, c *Client, endpoint string, arg any) tagcache.Entry {
	t.Helper()
	key, err := tagcache.Key(endpoint, arg)
	require.NoError(t, err)
	entry, ok := c.Cache().Lookup(context.Background(), key)
	require.True(t, ok, "no cache entry for %s", key)
	return entry
}

func validPost(title string) entity.CreatePostInput {
	return entity.CreatePostInput{Title: title, Content: "Body", ChannelIDs: []string{"1"}}
}

func TestPosts_CachedUntilMutation(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	first, err := ts.client.Posts(ctx, query.PostFilters{})
	require.NoError(t, err)
	_, err = ts.client.Posts(ctx, query.PostFilters{})
	require.NoError(t, err)
	assert.Equal(t, 1, ts.requests.Count(http.MethodGet, "/api/posts"))

	created, err := ts.client.CreatePost(ctx, validPost("Launch"))
	require.NoError(t, err)
	assert.Equal(t, entity.PostStatusDraft, created.Status)

	second, err := ts.client.Posts(ctx, query.PostFilters{})
	require.NoError(t, err)
	assert.Equal(t, 2, ts.requests.Count(http.MethodGet, "/api/posts"))
	assert.Len(t, second, len(first)+1)
}

func TestPosts_ServerSideFilters(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	_, err := ts.client.CreatePost(ctx, entity.CreatePostInput{Title: "Launch", Content: "Body", Status: entity.PostStatusPublished, ChannelIDs: []string{"2"}})
	require.NoError(t, err)

	posts, err := ts.client.Posts(ctx, query.PostFilters{Statuses: []entity.PostStatus{entity.PostStatusPublished}, ChannelIDs: []string{"2", "3"}})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Launch", posts[0].Title)
}

func TestCreateChannel_InvalidatesListButNotOtherChannel(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	_, err := ts.client.Channels(ctx)
	require.NoError(t, err)
	_, err = ts.client.Channel(ctx, "2")
	require.NoError(t, err)

	_, err = ts.client.CreateChannel(ctx, entity.CreateChannelInput{Name: "Newsletter", Type: entity.ChannelTypeEmail})
	require.NoError(t, err)

	assert.True(t, entryFor(t, ts.client, "getChannels", struct{}{}).Stale)
	assert.False(t, entryFor(t, ts.client, "getChannel", "2").Stale)

	_, err = ts.client.Channel(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, 1, ts.requests.Count(http.MethodGet, "/api/channels/2"))

	channels, err := ts.client.Channels(ctx)
	require.NoError(t, err)
	assert.Len(t, channels, 5)
}

func TestUpdatePost_InvalidatesItemAndList(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	_, err := ts.client.Post(ctx, "1")
	require.NoError(t, err)
	_, err = ts.client.Posts(ctx, query.PostFilters{})
	require.NoError(t, err)

	_, err = ts.client.UpdatePost(ctx, "1", entity.PostPatch{Title: entity.Some("Renamed"), CampaignID: entity.Null[*string]()})
	require.NoError(t, err)

	assert.True(t, entryFor(t, ts.client, "getPost", "1").Stale)
	assert.True(t, entryFor(t, ts.client, "getPosts", query.PostFilters{}).Stale)

	post, err := ts.client.Post(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", post.Title)
	assert.Nil(t, post.CampaignID)
}

func TestCreatePost_ValidationNeverReachesNetwork(t *testing.T) {
	ts := newTestServer(t)

	_, err := ts.client.CreatePost(context.Background(), entity.CreatePostInput{Title: "  "})

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "Title is required", validation.Fields["title"])
	assert.Equal(t, "Content is required", validation.Fields["content"])
	assert.Equal(t, "At least one channel must be selected", validation.Fields["channelIds"])
	assert.Equal(t, 0, ts.requests.Count(http.MethodPost, "/api/posts"))
}

func TestDeletePost_NotFoundInvalidatesNothing(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	_, err := ts.client.Posts(ctx, query.PostFilters{})
	require.NoError(t, err)

	err = ts.client.DeletePost(ctx, "missing")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Post not found", apiErr.Message)
	assert.True(t, IsNotFound(err))
	assert.False(t, entryFor(t, ts.client, "getPosts", query.PostFilters{}).Stale)
}

func TestCreateSchedule_InvalidatesPostList(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	_, err := ts.client.Posts(ctx, query.PostFilters{})
	require.NoError(t, err)

	schedule, err := ts.client.CreateSchedule(ctx, entity.CreateScheduleInput{PostID: "1", ChannelID: "1", ScheduledDate: time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	assert.Equal(t, entity.ScheduleStatusPending, schedule.Status)

	assert.True(t, entryFor(t, ts.client, "getPosts", query.PostFilters{}).Stale)

	schedules, err := ts.client.Schedules(ctx, ScheduleQuery{PostID: "1", StartDate: "2024-02-01", EndDate: "2024-02-01"})
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	assert.Equal(t, schedule.ID, schedules[0].ID)
}

func TestCreateSchedule_ServerValidation(t *testing.T) {
	ts := newTestServer(t)

	_, err := ts.client.CreateSchedule(context.Background(), entity.CreateScheduleInput{ChannelID: "1"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Validation failed", apiErr.Message)
	assert.Contains(t, apiErr.Fields, "postId")
	assert.Contains(t, apiErr.Fields, "scheduledDate")
}

func TestCampaignLifecycle(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	campaign, err := ts.client.CreateCampaign(ctx, entity.CreateCampaignInput{Name: "Autumn"})
	require.NoError(t, err)
	assert.Equal(t, entity.CampaignStatusPlanning, campaign.Status)

	campaign, err = ts.client.UpdateCampaign(ctx, campaign.ID, entity.CampaignPatch{Status: entity.Some(entity.CampaignStatusActive)})
	require.NoError(t, err)
	assert.Equal(t, entity.CampaignStatusActive, campaign.Status)

	require.NoError(t, ts.client.DeleteCampaign(ctx, campaign.ID))
	_, err = ts.client.Campaign(ctx, campaign.ID)
	assert.True(t, IsNotFound(err))
}

func TestDashboard_Load(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	_, err := ts.client.CreatePost(ctx, entity.CreatePostInput{Title: "Launch day", Content: "Body", Status: entity.PostStatusPublished, ChannelIDs: []string{"1", "2"}})
	require.NoError(t, err)

	dashboard := NewDashboard(ts.client)
	view, err := dashboard.Load(ctx, query.PostFilters{ChannelIDs: []string{"2"}})
	require.NoError(t, err)

	require.Len(t, view.Posts, 1)
	assert.Equal(t, "Launch day", view.Posts[0].Title)
	assert.Equal(t, 1, view.Summary.Total)
	assert.Equal(t, 1, view.Summary.ByStatus[entity.PostStatusPublished])
	assert.Equal(t, map[string]int{"1": 1, "2": 1}, view.Summary.ChannelUsage)
	require.Len(t, view.Calendar, 1)
	assert.Equal(t, "Twitter", view.Channels["2"].Name)
	assert.Contains(t, view.Campaigns, "1")

	// a different filter is served from the same cached list
	_, err = dashboard.Load(ctx, query.PostFilters{Search: "welcome"})
	require.NoError(t, err)
	assert.Equal(t, 1, ts.requests.Count(http.MethodGet, "/api/posts"))
}

func TestDashboard_KeepsLastGoodPostsWhenFetchFails(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	dashboard := NewDashboard(ts.client)

	first, err := dashboard.Load(ctx, query.PostFilters{})
	require.NoError(t, err)

	ts.server.Close()
	require.NoError(t, ts.client.Invalidate(ctx, entity.KindPost.ListTag()))

	view, err := dashboard.Load(ctx, query.PostFilters{})
	require.NoError(t, err)
	assert.Error(t, view.Err)
	assert.Equal(t, first.Posts, view.Posts)
	assert.True(t, entryFor(t, ts.client, "getPosts", query.PostFilters{}).Failed())
}

func TestDashboard_WatchRerendersAfterMutation(t *testing.T) {
	ts := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	views := make(chan DashboardView, 4)
	done := make(chan error, 1)
	go func() {
		done <- NewDashboard(ts.client).Watch(ctx, query.PostFilters{}, func(view DashboardView, err error) {
			if err == nil {
				views <- view
			}
		})
	}()

	first := receiveView(t, views)
	_, err := ts.client.CreatePost(context.Background(), validPost("Fresh"))
	require.NoError(t, err)
	second := receiveView(t, views)
	assert.Len(t, second.Posts, len(first.Posts)+1)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func receiveView(t *testing.T, views <-chan DashboardView) DashboardView {
	t.Helper()
	select {
	case view := <-views:
		return view
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a render")
		return DashboardView{}
	}
}

func TestPosts_SearchTermSentUntrimmed(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	_, err := ts.client.CreatePost(ctx, entity.CreatePostInput{Title: "Launch", Content: "Body", ChannelIDs: []string{"1"}})
	require.NoError(t, err)

	posts, err := ts.client.Posts(ctx, query.PostFilters{Search: " "})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "1", posts[0].ID)

	posts, err = ts.client.Posts(ctx, query.PostFilters{Search: "launch "})
	require.NoError(t, err)
	assert.Empty(t, posts)
}
