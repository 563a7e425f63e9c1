package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"dailybright/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryRepository_UpsertSQL(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewEntryRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "entries"`) + `.*` +
		regexp.QuoteMeta(`ON CONFLICT ("user_id","date","prompt_id") DO UPDATE SET "text"="excluded"."text","photo_url"="excluded"."photo_url","updated_at"="excluded"."updated_at"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "entries" WHERE user_id = $1 AND date = $2 AND prompt_id = $3`)).
		WithArgs(7, "2026-04-01", 3, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "date", "prompt_id", "text", "created_at", "updated_at"}).
			AddRow(1, 7, "2026-04-01", 3, "hello", now.Add(-time.Hour), now))

	entry, created, err := repo.Upsert(context.Background(), &models.Entry{UserID: 7, Date: "2026-04-01", PromptID: 3, Text: "hello", OnTime: true})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, uint(1), entry.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryRepository_UpsertKeepsOneRow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntryRepository(db)
	ctx := context.Background()

	user := createUser(t, db)
	prompt := createPrompt(t, db, "What made you smile?")

	first, created, err := repo.Upsert(ctx, &models.Entry{UserID: user.ID, Date: "2026-04-01", PromptID: prompt.ID, Text: "coffee", OnTime: true})
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, first.OnTime)

	url := "https://cdn.example.com/p.webp"
	second, created, err := repo.Upsert(ctx, &models.Entry{UserID: user.ID, Date: "2026-04-01", PromptID: prompt.ID, Text: "sunshine", PhotoURL: &url, OnTime: false})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "sunshine", second.Text)
	require.NotNil(t, second.PhotoURL)
	assert.Equal(t, url, *second.PhotoURL)
	assert.True(t, second.OnTime, "on_time keeps its first value")
	assert.True(t, second.CreatedAt.Equal(first.CreatedAt))

	var n int64
	require.NoError(t, db.Model(&models.Entry{}).Where("user_id = ?", user.ID).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestEntryRepository_UpsertStoresLateEntry(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntryRepository(db)
	ctx := context.Background()

	user := createUser(t, db)
	prompt := createPrompt(t, db, "What made you laugh?")

	stored, created, err := repo.Upsert(ctx, &models.Entry{UserID: user.ID, Date: "2026-04-01", PromptID: prompt.ID, Text: "late", OnTime: false})
	require.NoError(t, err)
	assert.True(t, created)
	assert.False(t, stored.OnTime)

	var onTime bool
	require.NoError(t, db.Model(&models.Entry{}).Select("on_time").Where("id = ?", stored.ID).Scan(&onTime).Error)
	assert.False(t, onTime)
}

func TestEntryRepository_RecentAndFeed(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntryRepository(db)
	ctx := context.Background()

	me := createUser(t, db)
	friend := createUser(t, db)
	stranger := createUser(t, db)
	prompt := createPrompt(t, db, "prompt")

	for _, e := range []models.Entry{
		{UserID: me.ID, Date: "2026-03-30", PromptID: prompt.ID, Text: "old"},
		{UserID: me.ID, Date: "2026-04-01", PromptID: prompt.ID, Text: "today"},
		{UserID: friend.ID, Date: "2026-03-20", PromptID: prompt.ID, Text: "too old"},
		{UserID: friend.ID, Date: "2026-03-31", PromptID: prompt.ID, Text: "friend"},
		{UserID: stranger.ID, Date: "2026-03-31", PromptID: prompt.ID, Text: "stranger"},
	} {
		_, _, err := repo.Upsert(ctx, &e)
		require.NoError(t, err)
	}

	recent, err := repo.RecentForUser(ctx, me.ID, "2026-04-01", 5)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "old", recent[0].Text)
	assert.Equal(t, "prompt", recent[0].Prompt.Text)

	feed, err := repo.FeedForUsers(ctx, []uint{friend.ID}, "2026-03-25", 10)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "friend", feed[0].Text)
	assert.Equal(t, friend.Email, feed[0].User.Email)

	feed, err = repo.FeedForUsers(ctx, nil, "2026-03-25", 10)
	require.NoError(t, err)
	assert.Empty(t, feed)
}

func TestPhotoRepository_CreateIfAbsentDeduplicates(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPhotoRepository(db)
	ctx := context.Background()
	user := createUser(t, db)

	p := &models.Photo{UserID: user.ID, Bucket: models.PhotoBucketEntries, Hash: "abc", Path: "entries/1/abc.webp", ContentType: "image/webp"}
	first, err := repo.CreateIfAbsent(ctx, p)
	require.NoError(t, err)

	dup := &models.Photo{UserID: user.ID, Bucket: models.PhotoBucketEntries, Hash: "abc", Path: "other", ContentType: "image/webp"}
	second, err := repo.CreateIfAbsent(ctx, dup)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "entries/1/abc.webp", second.Path)

	profile, err := repo.CreateIfAbsent(ctx, &models.Photo{UserID: user.ID, Bucket: models.PhotoBucketProfiles, Hash: "abc", Path: "profiles/1/abc.webp", ContentType: "image/webp"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, profile.ID)
}

func TestPhotoRepository_GetByPathAndDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPhotoRepository(db)
	ctx := context.Background()
	user := createUser(t, db)

	stored, err := repo.CreateIfAbsent(ctx, &models.Photo{UserID: user.ID, Bucket: models.PhotoBucketProfiles, Hash: "def", Path: "profiles/1/def.webp", ContentType: "image/webp"})
	require.NoError(t, err)

	got, err := repo.GetByPath(ctx, user.ID, "profiles/1/def.webp")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, stored.ID, got.ID)

	missing, err := repo.GetByPath(ctx, user.ID+1, "profiles/1/def.webp")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, repo.Delete(ctx, stored.ID))
	got, err = repo.GetByPath(ctx, user.ID, "profiles/1/def.webp")
	require.NoError(t, err)
	assert.Nil(t, got)
}
