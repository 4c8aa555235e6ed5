package client_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"content-planner/pkg/config"
	"content-planner/pkg/logger"
	"content-planner/services/planner/client"
	"content-planner/services/planner/internal/app"
	"content-planner/services/planner/internal/repo/persistent"
	"content-planner/services/planner/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExternalClient(t *testing.T) *client.Client {
	t.Helper()
	store := persistent.NewFileStore(t.TempDir())
	_, err := persistent.Initialize(context.Background(), store, persistent.DefaultSeed(time.Now()))
	require.NoError(t, err)

	router := app.NewRouter(&config.Config{CORSAllowedOrigins: "*"}, logger.Discard(), app.Dependencies{
		Store:    store,
		Policies: usecase.DefaultDeletePolicies(),
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return client.New(server.URL+"/api", client.WithLogger(logger.Discard()))
}

func TestClient_UsableThroughExportedTypes(t *testing.T) {
	c := newExternalClient(t)
	ctx := context.Background()

	created, err := c.CreatePost(ctx, client.CreatePostInput{
		Title:      "Launch",
		Content:    "Body",
		Status:     client.PostStatusScheduled,
		ChannelIDs: []string{"1"},
	})
	require.NoError(t, err)

	updated, err := c.UpdatePost(ctx, created.ID, client.PostPatch{
		Title:      client.Some("Launch day"),
		CampaignID: client.Null[*string](),
	})
	require.NoError(t, err)
	assert.Equal(t, "Launch day", updated.Title)
	assert.Nil(t, updated.CampaignID)

	posts, err := c.Posts(ctx, client.PostFilters{Statuses: []client.PostStatus{client.PostStatusScheduled}})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	var post client.Post = posts[0]
	assert.Equal(t, created.ID, post.ID)
}
