package library

import (
	"context"
	"database/sql"
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

func newTestBook(t *testing.T, db *bun.DB, authorID string) *models.Book {
	t.Helper()

	book := &models.Book{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		UserID:    authorID,
		Title:     "Book " + uuid.New().String()[:8],
		Category:  "fantasy",
		Status:    models.BookStatusPublished,
	}

	_, err := db.NewInsert().Model(book).Exec(context.Background())
	require.NoError(t, err)

	return book
}

func TestServiceAddAndList(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	user := newTestUser(t, db)
	author := newTestUser(t, db)
	ctx := context.Background()

	book := newTestBook(t, db, author.ID)

	entry, err := svc.Add(ctx, user.ID, book.ID)
	require.NoError(t, err)
	assert.Equal(t, book.ID, entry.BookID)
	assert.False(t, entry.IsFavorite)

	entries, err := svc.List(ctx, user.ID, ListLibraryOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].Book)
	assert.Equal(t, book.Title, entries[0].Book.Title)
}

func TestServiceAddTwiceIsIdempotent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	user := newTestUser(t, db)
	author := newTestUser(t, db)
	ctx := context.Background()

	book := newTestBook(t, db, author.ID)

	first, err := svc.Add(ctx, user.ID, book.ID)
	require.NoError(t, err)

	second, err := svc.Add(ctx, user.ID, book.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	count, err := svc.Count(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestServiceAddMissingBook(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	user := newTestUser(t, db)

	_, err := svc.Add(context.Background(), user.ID, uuid.New().String())
	require.Error(t, err)
}

func TestServiceAddGrantsMilestoneBadges(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	user := newTestUser(t, db)
	author := newTestUser(t, db)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		book := newTestBook(t, db, author.ID)
		_, err := svc.Add(ctx, user.ID, book.ID)
		require.NoError(t, err)
	}

	badges := []*models.Achievement{}
	err := db.NewSelect().
		Model(&badges).
		Where("user_id = ?", user.ID).
		Order("earned_at ASC").
		Scan(ctx)
	require.NoError(t, err)
	require.Len(t, badges, 2)
	assert.Equal(t, models.BadgeFirstBook, badges[0].BadgeType)
	assert.Equal(t, models.BadgeBookworm, badges[1].BadgeType)
}

func TestServiceRemoveAndReAddGrantsFirstBookAgain(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	user := newTestUser(t, db)
	author := newTestUser(t, db)
	ctx := context.Background()

	book := newTestBook(t, db, author.ID)

	_, err := svc.Add(ctx, user.ID, book.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Remove(ctx, user.ID, book.ID))
	_, err = svc.Add(ctx, user.ID, book.ID)
	require.NoError(t, err)

	// Badge grants are at-least-once, so crossing the first-book milestone
	// twice produces two rows.
	count, err := db.NewSelect().
		Model((*models.Achievement)(nil)).
		Where("user_id = ?", user.ID).
		Where("badge_type = ?", models.BadgeFirstBook).
		Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestServiceRemoveMissingIsNoOp(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	user := newTestUser(t, db)
	author := newTestUser(t, db)
	book := newTestBook(t, db, author.ID)

	require.NoError(t, svc.Remove(context.Background(), user.ID, book.ID))
}

func TestServiceSetFavorite(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	user := newTestUser(t, db)
	author := newTestUser(t, db)
	ctx := context.Background()

	book := newTestBook(t, db, author.ID)

	_, err := svc.Add(ctx, user.ID, book.ID)
	require.NoError(t, err)

	entry, err := svc.SetFavorite(ctx, user.ID, book.ID, true)
	require.NoError(t, err)
	assert.True(t, entry.IsFavorite)

	favorites, err := svc.List(ctx, user.ID, ListLibraryOptions{FavoritesOnly: true})
	require.NoError(t, err)
	assert.Len(t, favorites, 1)

	entry, err = svc.SetFavorite(ctx, user.ID, book.ID, false)
	require.NoError(t, err)
	assert.False(t, entry.IsFavorite)

	favorites, err = svc.List(ctx, user.ID, ListLibraryOptions{FavoritesOnly: true})
	require.NoError(t, err)
	assert.Len(t, favorites, 0)
}

func TestServiceTouchLastRead(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	user := newTestUser(t, db)
	author := newTestUser(t, db)
	ctx := context.Background()

	book := newTestBook(t, db, author.ID)

	_, err := svc.Add(ctx, user.ID, book.ID)
	require.NoError(t, err)

	require.NoError(t, svc.TouchLastRead(ctx, user.ID, book.ID))

	entries, err := svc.List(ctx, user.ID, ListLibraryOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].LastReadAt)
	assert.WithinDuration(t, time.Now(), *entries[0].LastReadAt, 5*time.Second)

	// Touching a book outside the library is a no-op.
	other := newTestBook(t, db, author.ID)
	require.NoError(t, svc.TouchLastRead(ctx, user.ID, other.ID))
}

func TestServiceCount(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	user := newTestUser(t, db)
	author := newTestUser(t, db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		book := newTestBook(t, db, author.ID)
		_, err := svc.Add(ctx, user.ID, book.ID)
		require.NoError(t, err)
	}

	count, err := svc.Count(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// Another user's library is unaffected.
	other := newTestUser(t, db)
	count, err = svc.Count(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
