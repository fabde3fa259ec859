package profiles

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/fablereads/fable/pkg/migrations"
	"github.com/fablereads/fable/pkg/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)

	// A single connection keeps the in-memory database shared across the
	// pool and the foreign key pragma applied to every statement.
	sqldb.SetMaxOpenConns(1)
	_, err = sqldb.Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func newTestUser(t *testing.T, db *bun.DB) *models.User {
	t.Helper()

	user := &models.User{
		ID:           uuid.New().String(),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
		Username:     "reader-" + uuid.New().String()[:8],
		Email:        uuid.New().String() + "@example.com",
		PasswordHash: "x",
		IsActive:     true,
	}

	_, err := db.NewInsert().Model(user).Exec(context.Background())
	require.NoError(t, err)

	return user
}

func TestServiceRetrieveCounts(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	user := newTestUser(t, db)
	fanOne := newTestUser(t, db)
	fanTwo := newTestUser(t, db)
	ctx := context.Background()

	require.NoError(t, svc.Follow(ctx, fanOne.ID, user.ID))
	require.NoError(t, svc.Follow(ctx, fanTwo.ID, user.ID))
	require.NoError(t, svc.Follow(ctx, user.ID, fanOne.ID))

	book := &models.Book{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		UserID:    user.ID,
		Title:     "Published",
		Category:  "fantasy",
		Status:    models.BookStatusPublished,
	}
	_, err := db.NewInsert().Model(book).Exec(ctx)
	require.NoError(t, err)

	draft := &models.Book{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		UserID:    user.ID,
		Title:     "Draft",
		Category:  "fantasy",
		Status:    models.BookStatusDraft,
	}
	_, err = db.NewInsert().Model(draft).Exec(ctx)
	require.NoError(t, err)

	profile, err := svc.Retrieve(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, profile.FollowerCount)
	assert.Equal(t, 1, profile.FollowingCount)
	assert.Equal(t, 1, profile.BookCount)
}

func TestServiceFollowIsIdempotent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	follower := newTestUser(t, db)
	target := newTestUser(t, db)
	ctx := context.Background()

	require.NoError(t, svc.Follow(ctx, follower.ID, target.ID))
	require.NoError(t, svc.Follow(ctx, follower.ID, target.ID))

	count, err := db.NewSelect().
		Model((*models.Follow)(nil)).
		Where("follower_id = ?", follower.ID).
		Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	following, err := svc.IsFollowing(ctx, follower.ID, target.ID)
	require.NoError(t, err)
	assert.True(t, following)
}

func TestServiceFollowSelf(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	user := newTestUser(t, db)

	err := svc.Follow(context.Background(), user.ID, user.ID)
	require.Error(t, err)
}

func TestServiceUnfollow(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	follower := newTestUser(t, db)
	target := newTestUser(t, db)
	ctx := context.Background()

	require.NoError(t, svc.Follow(ctx, follower.ID, target.ID))
	require.NoError(t, svc.Unfollow(ctx, follower.ID, target.ID))

	following, err := svc.IsFollowing(ctx, follower.ID, target.ID)
	require.NoError(t, err)
	assert.False(t, following)

	// Unfollowing again is a no-op.
	require.NoError(t, svc.Unfollow(ctx, follower.ID, target.ID))
}

func TestServiceFollowersAndFollowing(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	user := newTestUser(t, db)
	fan := newTestUser(t, db)
	idol := newTestUser(t, db)
	ctx := context.Background()

	require.NoError(t, svc.Follow(ctx, fan.ID, user.ID))
	require.NoError(t, svc.Follow(ctx, user.ID, idol.ID))

	followers, err := svc.Followers(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, fan.ID, followers[0].ID)

	following, err := svc.Following(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, idol.ID, following[0].ID)
}

func TestServiceUpdateProfile(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	user := newTestUser(t, db)
	ctx := context.Background()

	bio := "I read a lot."
	avatar := "https://example.com/avatar.png"
	updated, err := svc.Update(ctx, user.ID, UpdateProfileOptions{
		Bio:       &bio,
		AvatarURL: &avatar,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Bio)
	assert.Equal(t, bio, *updated.Bio)

	// Absent fields are left alone.
	updated, err = svc.Update(ctx, user.ID, UpdateProfileOptions{})
	require.NoError(t, err)
	require.NotNil(t, updated.Bio)
	assert.Equal(t, bio, *updated.Bio)
}

func TestServiceUpdateUsernameTaken(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	user := newTestUser(t, db)
	other := newTestUser(t, db)
	ctx := context.Background()

	// Case-insensitive collision with another user's name is rejected.
	taken := strings.ToUpper(other.Username)
	_, err := svc.Update(ctx, user.ID, UpdateProfileOptions{Username: &taken})
	require.Error(t, err)

	fresh := "brand-new-name"
	updated, err := svc.Update(ctx, user.ID, UpdateProfileOptions{Username: &fresh})
	require.NoError(t, err)
	assert.Equal(t, fresh, updated.Username)
}
