package persistent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"content-planner/services/planner/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepositories(t *testing.T) (*Repositories, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "data")
	return NewRepositories(NewFileStore(dir)), dir
}

func TestCollection_ReadAllOfMissingDocumentIsEmpty(t *testing.T) {
	repos, _ := newTestRepositories(t)

	posts, err := repos.Posts.ReadAll(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)
}

func TestCollection_WriteAllIsPrettyPrintedAndAssignsIDs(t *testing.T) {
	repos, dir := newTestRepositories(t)
	ctx := context.Background()

	err := repos.Channels.WriteAll(ctx, []entity.Channel{{Name: "Blog", Type: entity.ChannelTypeContent, Color: "#FF6B6B"}})
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, "channels.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[\n  {\n    \"id\": ")

	channels, err := repos.Channels.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.Len(t, channels[0].ID, 36)
}

func TestCollection_MalformedDocument(t *testing.T) {
	repos, dir := newTestRepositories(t)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "campaigns.json"), []byte("{not json"), 0o644))

	_, err := repos.Campaigns.ReadAll(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse Campaign collection")
}

func TestCollection_InsertFindReplaceRemove(t *testing.T) {
	repos, _ := newTestRepositories(t)
	ctx := context.Background()

	created, err := repos.Campaigns.Insert(ctx, entity.Campaign{Name: "Summer", Status: entity.CampaignStatusPlanning})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	found, err := repos.Campaigns.Find(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, found)

	updated, err := repos.Campaigns.Replace(ctx, created.ID, func(current entity.Campaign) (entity.Campaign, error) {
		current.Status = entity.CampaignStatusActive
		current.ID = "hijacked"
		return current, nil
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, entity.CampaignStatusActive, updated.Status)

	removed, err := repos.Campaigns.Remove(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, removed)

	_, err = repos.Campaigns.Find(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCollection_RemoveMissingLeavesDocumentUntouched(t *testing.T) {
	repos, dir := newTestRepositories(t)
	ctx := context.Background()
	require.NoError(t, repos.Schedules.WriteAll(ctx, []entity.Schedule{{ID: "s1", PostID: "1", ChannelID: "1"}}))

	path := filepath.Join(dir, "schedules.json")
	before, err := os.Stat(path)
	require.NoError(t, err)

	_, err = repos.Schedules.Remove(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
	schedules, err := repos.Schedules.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, schedules, 1)
}

func TestCollection_ConcurrentInsertsAreNotLost(t *testing.T) {
	repos, _ := newTestRepositories(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repos.Posts.Insert(ctx, entity.Post{Title: fmt.Sprintf("post %d", i), ChannelIDs: []string{}})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	posts, err := repos.Posts.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, posts, 20)
}

// WriteAll outside of Update is last-writer-wins at document granularity.
func TestCollection_ReadModifyWriteWithoutUpdateLosesWrites(t *testing.T) {
	repos, _ := newTestRepositories(t)
	ctx := context.Background()

	first, err := repos.Channels.ReadAll(ctx)
	require.NoError(t, err)
	second, err := repos.Channels.ReadAll(ctx)
	require.NoError(t, err)

	require.NoError(t, repos.Channels.WriteAll(ctx, append(first, entity.Channel{ID: "a"})))
	require.NoError(t, repos.Channels.WriteAll(ctx, append(second, entity.Channel{ID: "b"})))

	channels, err := repos.Channels.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.Equal(t, "b", channels[0].ID)
}

func TestCollection_UpdateErrorAbortsWrite(t *testing.T) {
	repos, _ := newTestRepositories(t)
	ctx := context.Background()
	require.NoError(t, repos.Channels.WriteAll(ctx, []entity.Channel{{ID: "1"}}))

	boom := errors.New("boom")
	err := repos.Channels.Update(ctx, func(records []entity.Channel) ([]entity.Channel, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	channels, err := repos.Channels.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, channels, 1)
}

func TestFileStore_CanceledContext(t *testing.T) {
	store := NewFileStore(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := store.Load(ctx, entity.KindPost)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.Save(ctx, entity.KindPost, []byte("[]")), context.Canceled)
}

func TestInitialize_SeedsMissingKindsOnly(t *testing.T) {
	repos, dir := newTestRepositories(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repos.Campaigns.WriteAll(ctx, []entity.Campaign{{ID: "mine", Name: "Kept"}}))

	seeded, err := Initialize(ctx, repos.Store, DefaultSeed(now))
	require.NoError(t, err)
	assert.Equal(t, []entity.Kind{entity.KindPost, entity.KindChannel, entity.KindSchedule}, seeded)

	for _, name := range []string{"posts.json", "channels.json", "campaigns.json", "schedules.json"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	posts, err := repos.Posts.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Welcome to Content Planner", posts[0].Title)
	assert.Equal(t, now.Add(24*time.Hour), *posts[0].PublishDate)

	channels, err := repos.Channels.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, channels, 4)
	assert.Equal(t, "LinkedIn", channels[2].Name)
	assert.Equal(t, entity.ChannelTypeProfessional, channels[2].Type)

	campaigns, err := repos.Campaigns.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, campaigns, 1)
	assert.Equal(t, "Kept", campaigns[0].Name)

	schedules, err := repos.Schedules.ReadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, schedules)

	seeded, err = Initialize(ctx, repos.Store, DefaultSeed(now))
	require.NoError(t, err)
	assert.Empty(t, seeded)
}

func TestReset_OverwritesEverything(t *testing.T) {
	repos, _ := newTestRepositories(t)
	ctx := context.Background()
	require.NoError(t, repos.Channels.WriteAll(ctx, []entity.Channel{{ID: "x", Name: "Custom"}}))

	require.NoError(t, Reset(ctx, repos.Store, DefaultSeed(time.Now())))

	channels, err := repos.Channels.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, channels, 4)
}
