package goals

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

func TestServiceActiveNone(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	user := newTestUser(t, db)

	goal, err := svc.Active(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Nil(t, goal)
}

func TestServiceCreateAndActive(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	user := newTestUser(t, db)
	ctx := context.Background()

	goal, err := svc.Create(ctx, CreateGoalOptions{
		UserID:      user.ID,
		GoalType:    models.GoalTypeMonthly,
		TargetBooks: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, goal.CompletedBooks)
	assert.False(t, goal.IsCompleted)
	assert.WithinDuration(t, goal.StartDate.AddDate(0, 1, 0), goal.EndDate, time.Second)

	active, err := svc.Active(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, goal.ID, active.ID)
}

func TestServiceRecordCompletionProgression(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	user := newTestUser(t, db)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateGoalOptions{
		UserID:      user.ID,
		GoalType:    models.GoalTypeMonthly,
		TargetBooks: 3,
	})
	require.NoError(t, err)

	out, err := svc.RecordCompletion(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeProgressed, out.Status)
	assert.Equal(t, 1, out.CompletedBooks)

	out, err = svc.RecordCompletion(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeProgressed, out.Status)

	out, err = svc.RecordCompletion(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, out.Status)
	assert.Equal(t, 3, out.CompletedBooks)

	// Once the goal is completed it is no longer active.
	active, err := svc.Active(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, active)

	// Further completions count toward nothing until a new goal exists.
	out, err = svc.RecordCompletion(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoGoal, out.Status)
}

func TestServiceRecordCompletionNoGoal(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	user := newTestUser(t, db)

	out, err := svc.RecordCompletion(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoGoal, out.Status)
}

func TestServiceNewerGoalShadowsOlder(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	user := newTestUser(t, db)
	ctx := context.Background()

	older, err := svc.Create(ctx, CreateGoalOptions{
		UserID:      user.ID,
		GoalType:    models.GoalTypeYearly,
		TargetBooks: 12,
	})
	require.NoError(t, err)

	// Force a distinct created_at so ordering is deterministic.
	_, err = db.NewUpdate().
		Model((*models.ReadingGoal)(nil)).
		Set("created_at = ?", older.CreatedAt.Add(-time.Hour)).
		Where("id = ?", older.ID).
		Exec(ctx)
	require.NoError(t, err)

	newer, err := svc.Create(ctx, CreateGoalOptions{
		UserID:      user.ID,
		GoalType:    models.GoalTypeMonthly,
		TargetBooks: 2,
	})
	require.NoError(t, err)

	active, err := svc.Active(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, newer.ID, active.ID)
}

func TestServiceUpdateRecomputesCompletion(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	user := newTestUser(t, db)
	ctx := context.Background()

	goal, err := svc.Create(ctx, CreateGoalOptions{
		UserID:      user.ID,
		GoalType:    models.GoalTypeMonthly,
		TargetBooks: 5,
	})
	require.NoError(t, err)

	_, err = svc.RecordCompletion(ctx, user.ID)
	require.NoError(t, err)
	_, err = svc.RecordCompletion(ctx, user.ID)
	require.NoError(t, err)

	// Lowering the target to the current progress flips the goal to
	// completed without a new completion event.
	updated, err := svc.Update(ctx, user.ID, goal.ID, UpdateGoalOptions{
		GoalType:    models.GoalTypeMonthly,
		TargetBooks: 2,
	})
	require.NoError(t, err)
	assert.True(t, updated.IsCompleted)
	assert.Equal(t, 2, updated.CompletedBooks)

	// Raising it back reopens the goal.
	updated, err = svc.Update(ctx, user.ID, goal.ID, UpdateGoalOptions{
		GoalType:    models.GoalTypeMonthly,
		TargetBooks: 10,
	})
	require.NoError(t, err)
	assert.False(t, updated.IsCompleted)
}

func TestServiceUpdateWrongUser(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	owner := newTestUser(t, db)
	other := newTestUser(t, db)
	ctx := context.Background()

	goal, err := svc.Create(ctx, CreateGoalOptions{
		UserID:      owner.ID,
		GoalType:    models.GoalTypeMonthly,
		TargetBooks: 3,
	})
	require.NoError(t, err)

	_, err = svc.Update(ctx, other.ID, goal.ID, UpdateGoalOptions{
		GoalType:    models.GoalTypeMonthly,
		TargetBooks: 1,
	})
	require.Error(t, err)
}

func TestServiceDecrementActive(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	user := newTestUser(t, db)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateGoalOptions{
		UserID:      user.ID,
		GoalType:    models.GoalTypeMonthly,
		TargetBooks: 3,
	})
	require.NoError(t, err)

	_, err = svc.RecordCompletion(ctx, user.ID)
	require.NoError(t, err)

	require.NoError(t, svc.DecrementActive(ctx, user.ID))

	active, err := svc.Active(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, 0, active.CompletedBooks)

	// Progress is floored at zero.
	require.NoError(t, svc.DecrementActive(ctx, user.ID))

	active, err = svc.Active(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, 0, active.CompletedBooks)

	// With no active goal it is a no-op.
	otherUser := newTestUser(t, db)
	require.NoError(t, svc.DecrementActive(ctx, otherUser.ID))
}
