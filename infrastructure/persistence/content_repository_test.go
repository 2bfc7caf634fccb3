package persistence

import (
	"context"
	"testing"
	"time"

	"crosspost/domain/model"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestContentRepository(t *testing.T) *ContentRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	repo := NewContentRepository(db)
	require.NoError(t, repo.AutoMigrate(context.Background()))
	return repo
}

func TestContentRepository_CreateAndGet(t *testing.T) {
	repo := newTestContentRepository(t)
	ctx := context.Background()

	desc := "launch clip"
	c := &model.PublishableContent{
		UserID:      "user-1",
		MediaURL:    "https://cdn.example.com/a.mp4",
		MediaType:   model.MediaTypeVideo,
		Title:       "Demo",
		Description: &desc,
		Platforms:   []model.Provider{model.ProviderYouTube, model.ProviderTikTok},
		Status:      model.ContentStatusDraft,
	}
	require.NoError(t, repo.Create(ctx, c))
	require.NotZero(t, c.ID)

	got, err := repo.GetByID(ctx, "user-1", c.ID)
	require.NoError(t, err)
	require.Equal(t, []model.Provider{model.ProviderYouTube, model.ProviderTikTok}, got.Platforms)
	require.Equal(t, "launch clip", *got.Description)

	_, err = repo.GetByID(ctx, "someone-else", c.ID)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestContentRepository_UpdateAndStatus(t *testing.T) {
	repo := newTestContentRepository(t)
	ctx := context.Background()

	c := &model.PublishableContent{UserID: "user-1", MediaURL: "https://cdn.example.com/a.jpg", MediaType: model.MediaTypeImage, Title: "Old", Status: model.ContentStatusDraft}
	require.NoError(t, repo.Create(ctx, c))

	c.Title = "New"
	when := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	c.ScheduledAt = &when
	c.Status = model.ContentStatusScheduled
	require.NoError(t, repo.Update(ctx, c))

	got, err := repo.GetByID(ctx, "user-1", c.ID)
	require.NoError(t, err)
	require.Equal(t, "New", got.Title)
	require.Equal(t, model.ContentStatusScheduled, got.Status)

	require.NoError(t, repo.UpdateStatus(ctx, c.ID, model.ContentStatusPublished))
	got, err = repo.GetByID(ctx, "user-1", c.ID)
	require.NoError(t, err)
	require.Equal(t, model.ContentStatusPublished, got.Status)

	require.ErrorIs(t, repo.UpdateStatus(ctx, 9999, model.ContentStatusPublished), model.ErrNotFound)
}

func TestContentRepository_FindDueScheduled(t *testing.T) {
	repo := newTestContentRepository(t)
	ctx := context.Background()
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

	past := now.Add(-time.Minute)
	exact := now
	future := now.Add(time.Minute)
	items := []*model.PublishableContent{
		{UserID: "u", MediaURL: "m", MediaType: model.MediaTypeVideo, Title: "due", Status: model.ContentStatusScheduled, ScheduledAt: &past},
		{UserID: "u", MediaURL: "m", MediaType: model.MediaTypeVideo, Title: "exact", Status: model.ContentStatusScheduled, ScheduledAt: &exact},
		{UserID: "u", MediaURL: "m", MediaType: model.MediaTypeVideo, Title: "later", Status: model.ContentStatusScheduled, ScheduledAt: &future},
		{UserID: "u", MediaURL: "m", MediaType: model.MediaTypeVideo, Title: "draft", Status: model.ContentStatusDraft, ScheduledAt: &past},
	}
	for _, c := range items {
		require.NoError(t, repo.Create(ctx, c))
	}

	due, err := repo.FindDueScheduled(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, due, 2)
	require.Equal(t, "due", due[0].Title)
	require.Equal(t, "exact", due[1].Title)

	limited, err := repo.FindDueScheduled(ctx, now, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
}
