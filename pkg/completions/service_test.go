package completions

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/fablereads/fable/pkg/goals"
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

func TestServiceMarkAndGoalProgression(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	goalService := goals.NewService(db)
	user := newTestUser(t, db)
	author := newTestUser(t, db)
	ctx := context.Background()

	_, err := goalService.Create(ctx, goals.CreateGoalOptions{
		UserID:      user.ID,
		GoalType:    models.GoalTypeMonthly,
		TargetBooks: 2,
	})
	require.NoError(t, err)

	book := newTestBook(t, db, author.ID)

	result, err := svc.Mark(ctx, user.ID, book.ID)
	require.NoError(t, err)
	assert.False(t, result.AlreadyCompleted)
	require.NotNil(t, result.Completion)
	assert.Equal(t, goals.OutcomeProgressed, result.Goal.Status)
	assert.Equal(t, 1, result.Goal.CompletedBooks)

	completed, err := svc.IsCompleted(ctx, user.ID, book.ID)
	require.NoError(t, err)
	assert.True(t, completed)
}

func TestServiceMarkTwiceIsIdempotent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	goalService := goals.NewService(db)
	user := newTestUser(t, db)
	author := newTestUser(t, db)
	ctx := context.Background()

	_, err := goalService.Create(ctx, goals.CreateGoalOptions{
		UserID:      user.ID,
		GoalType:    models.GoalTypeMonthly,
		TargetBooks: 5,
	})
	require.NoError(t, err)

	book := newTestBook(t, db, author.ID)

	_, err = svc.Mark(ctx, user.ID, book.ID)
	require.NoError(t, err)

	result, err := svc.Mark(ctx, user.ID, book.ID)
	require.NoError(t, err)
	assert.True(t, result.AlreadyCompleted)

	// The second mark must not advance the goal.
	goal, err := goalService.Active(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, goal)
	assert.Equal(t, 1, goal.CompletedBooks)

	count, err := db.NewSelect().
		Model((*models.CompletedBook)(nil)).
		Where("user_id = ?", user.ID).
		Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestServiceMarkCompletesGoalAndGrantsBadge(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	goalService := goals.NewService(db)
	user := newTestUser(t, db)
	author := newTestUser(t, db)
	ctx := context.Background()

	_, err := goalService.Create(ctx, goals.CreateGoalOptions{
		UserID:      user.ID,
		GoalType:    models.GoalTypeMonthly,
		TargetBooks: 2,
	})
	require.NoError(t, err)

	first := newTestBook(t, db, author.ID)
	second := newTestBook(t, db, author.ID)

	_, err = svc.Mark(ctx, user.ID, first.ID)
	require.NoError(t, err)

	result, err := svc.Mark(ctx, user.ID, second.ID)
	require.NoError(t, err)
	assert.Equal(t, goals.OutcomeCompleted, result.Goal.Status)

	badges := []*models.Achievement{}
	err = db.NewSelect().
		Model(&badges).
		Where("user_id = ?", user.ID).
		Where("badge_type = ?", models.BadgeGoalAchiever).
		Scan(ctx)
	require.NoError(t, err)
	assert.Len(t, badges, 1)

	// The goal is done, so the next completion counts toward nothing.
	third := newTestBook(t, db, author.ID)
	result, err = svc.Mark(ctx, user.ID, third.ID)
	require.NoError(t, err)
	assert.Equal(t, goals.OutcomeNoGoal, result.Goal.Status)
}

func TestServiceUnmarkRoundTrip(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	goalService := goals.NewService(db)
	user := newTestUser(t, db)
	author := newTestUser(t, db)
	ctx := context.Background()

	_, err := goalService.Create(ctx, goals.CreateGoalOptions{
		UserID:      user.ID,
		GoalType:    models.GoalTypeMonthly,
		TargetBooks: 3,
	})
	require.NoError(t, err)

	book := newTestBook(t, db, author.ID)

	marked, err := svc.Mark(ctx, user.ID, book.ID)
	require.NoError(t, err)
	require.NotNil(t, marked.Completion)

	require.NoError(t, svc.Unmark(ctx, user.ID, marked.Completion.ID))

	goal, err := goalService.Active(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, goal)
	assert.Equal(t, 0, goal.CompletedBooks)

	// Marking again after unmark counts again.
	result, err := svc.Mark(ctx, user.ID, book.ID)
	require.NoError(t, err)
	assert.False(t, result.AlreadyCompleted)
	assert.Equal(t, 1, result.Goal.CompletedBooks)
}

func TestServiceUnmarkMissingStillDecrements(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	goalService := goals.NewService(db)
	user := newTestUser(t, db)
	ctx := context.Background()

	_, err := goalService.Create(ctx, goals.CreateGoalOptions{
		UserID:      user.ID,
		GoalType:    models.GoalTypeMonthly,
		TargetBooks: 3,
	})
	require.NoError(t, err)

	// The decrement isn't conditioned on the delete matching a row, so
	// undoing a nonexistent completion still nudges the goal, floored at
	// zero.
	require.NoError(t, svc.Unmark(ctx, user.ID, 999))

	goal, err := goalService.Active(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, goal)
	assert.Equal(t, 0, goal.CompletedBooks)
}

func TestServiceList(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	user := newTestUser(t, db)
	author := newTestUser(t, db)
	ctx := context.Background()

	first := newTestBook(t, db, author.ID)
	second := newTestBook(t, db, author.ID)

	_, err := svc.Mark(ctx, user.ID, first.ID)
	require.NoError(t, err)
	_, err = svc.Mark(ctx, user.ID, second.ID)
	require.NoError(t, err)

	completions, err := svc.List(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, completions, 2)
	assert.NotNil(t, completions[0].Book)
}
