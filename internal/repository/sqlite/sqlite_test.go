package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storycanvas/internal/models"
)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	store, err := New(context.Background(), filepath.Join(t.TempDir(), "test.db"), zap.NewNop(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return store
}

func frozenClock() Clock {
	t := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return t }
}

func TestStories_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	story := &models.Story{Content: "<p>Hello world</p>", WordCount: 2}
	require.NoError(t, store.Stories().Create(ctx, story))
	assert.Equal(t, int64(1), story.ID)
	assert.Equal(t, models.DefaultStoryTitle, story.Title)
	assert.Equal(t, models.DefaultOwnerID, story.OwnerID)

	got, err := store.Stories().Get(ctx, story.ID)
	require.NoError(t, err)
	assert.Equal(t, story.Title, got.Title)
	assert.Equal(t, story.Content, got.Content)
	assert.Equal(t, story.WordCount, got.WordCount)
	assert.True(t, story.CreatedAt.Equal(got.CreatedAt))
	assert.True(t, story.UpdatedAt.Equal(got.UpdatedAt))

	_, err = store.Stories().Get(ctx, 99)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStories_UpdateRefreshesUpdatedAtStrictly(t *testing.T) {
	store := newTestStore(t, WithClock(frozenClock()))
	ctx := context.Background()

	story := &models.Story{Title: "Draft", Content: "<p>keep</p>"}
	require.NoError(t, store.Stories().Create(ctx, story))

	title := "Renamed"
	updated, err := store.Stories().Update(ctx, story.ID, models.StoryPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "<p>keep</p>", updated.Content)
	assert.True(t, updated.UpdatedAt.After(story.UpdatedAt))

	again, err := store.Stories().Update(ctx, story.ID, models.StoryPatch{})
	require.NoError(t, err)
	assert.True(t, again.UpdatedAt.After(updated.UpdatedAt))

	stored, err := store.Stories().Get(ctx, story.ID)
	require.NoError(t, err)
	assert.True(t, stored.UpdatedAt.Equal(again.UpdatedAt))

	_, err = store.Stories().Update(ctx, 42, models.StoryPatch{Title: &title})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStories_DeleteNeverReusesIDs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := &models.Story{Title: "one"}
	require.NoError(t, store.Stories().Create(ctx, first))

	deleted, err := store.Stories().Delete(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.Stories().Delete(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	second := &models.Story{Title: "two"}
	require.NoError(t, store.Stories().Create(ctx, second))
	assert.Equal(t, int64(2), second.ID)

	list, err := store.Stories().List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "two", list[0].Title)
}

func TestIdeas_CRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	lyra := &models.Idea{StoryID: 1, Category: "Characters", Name: "Lyra", IsActive: true}
	require.NoError(t, store.Ideas().Create(ctx, lyra))
	other := &models.Idea{StoryID: 2, Category: "Locations", Name: "Avaloria"}
	require.NoError(t, store.Ideas().Create(ctx, other))

	ideas, err := store.Ideas().ListByStory(ctx, 1)
	require.NoError(t, err)
	require.Len(t, ideas, 1)
	assert.Equal(t, "Lyra", ideas[0].Name)
	assert.True(t, ideas[0].IsActive)

	inactive := false
	updated, err := store.Ideas().Update(ctx, lyra.ID, models.IdeaPatch{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.True(t, lyra.CreatedAt.Equal(updated.CreatedAt))

	got, err := store.Ideas().Get(ctx, lyra.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	deleted, err := store.Ideas().Delete(ctx, lyra.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = store.Ideas().Update(ctx, lyra.ID, models.IdeaPatch{IsActive: &inactive})
	assert.ErrorIs(t, err, models.ErrNotFound)

	empty, err := store.Ideas().ListByStory(ctx, 1)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestGenerations_UsedIdeasSnapshot(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	used := []models.Idea{{ID: 7, StoryID: 1, Category: "Key Elements", Name: "Crystal of Eldoria", IsActive: true}}
	gen := &models.ContentGeneration{StoryID: 1, Prompt: "What happens next?", GeneratedContent: "text", UsedIdeas: used}
	require.NoError(t, store.Generations().Create(ctx, gen))

	bare := &models.ContentGeneration{StoryID: 1, Prompt: "again", GeneratedContent: "more"}
	require.NoError(t, store.Generations().Create(ctx, bare))

	list, err := store.Generations().ListByStory(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "What happens next?", list[0].Prompt)
	require.Len(t, list[0].UsedIdeas, 1)
	assert.Equal(t, "Crystal of Eldoria", list[0].UsedIdeas[0].Name)
	assert.NotNil(t, list[1].UsedIdeas)
	assert.Empty(t, list[1].UsedIdeas)

	got, err := store.Generations().Get(ctx, gen.ID)
	require.NoError(t, err)
	assert.Equal(t, "text", got.GeneratedContent)

	_, err = store.Generations().Get(ctx, 99)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")
	ctx := context.Background()

	store, err := New(ctx, path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.Stories().Create(ctx, &models.Story{Title: "Saved"}))
	require.NoError(t, store.Close(ctx))

	reopened, err := New(ctx, path, zap.NewNop())
	require.NoError(t, err)
	defer func() { _ = reopened.Close(ctx) }()

	got, err := reopened.Stories().Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Saved", got.Title)
}
