package goals

import (
	"context"
	"database/sql"
	"time"

	"github.com/fablereads/fable/pkg/errcodes"
	"github.com/fablereads/fable/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// Outcome statuses for RecordCompletion. Callers use these to decide which
// notification to surface.
const (
	OutcomeNoGoal     = "no_goal"
	OutcomeProgressed = "progressed"
	OutcomeCompleted  = "completed"
)

// CompletionOutcome reports how a recorded completion affected the active
// goal.
type CompletionOutcome struct {
	Status         string `json:"status"`
	CompletedBooks int    `json:"completed_books,omitempty"`
	TargetBooks    int    `json:"target_books,omitempty"`
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// Active returns the user's active reading goal: the most recently created
// goal that isn't completed yet. Returns (nil, nil) when there is none, since
// absence is not an error. Older incomplete goals are never selected again
// once a newer one exists.
func (svc *Service) Active(ctx context.Context, userID string) (*models.ReadingGoal, error) {
	goal := &models.ReadingGoal{}

	err := svc.db.
		NewSelect().
		Model(goal).
		Where("user_id = ?", userID).
		Where("is_completed = ?", false).
		Order("created_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.WithStack(err)
	}

	return goal, nil
}

type CreateGoalOptions struct {
	UserID      string
	GoalType    string
	TargetBooks int
}

// Create inserts a new reading goal with zero progress. The end date is one
// month or one year out from creation depending on the goal type. A
// pre-existing active goal is not deactivated; it just stops being selected
// by Active because the new goal is more recent.
func (svc *Service) Create(ctx context.Context, opts CreateGoalOptions) (*models.ReadingGoal, error) {
	if opts.TargetBooks <= 0 {
		return nil, errcodes.ValidationError("Target book count must be positive")
	}

	now := time.Now()
	endDate := now.AddDate(1, 0, 0)
	if opts.GoalType == models.GoalTypeMonthly {
		endDate = now.AddDate(0, 1, 0)
	}

	goal := &models.ReadingGoal{
		CreatedAt:      now,
		UpdatedAt:      now,
		UserID:         opts.UserID,
		GoalType:       opts.GoalType,
		TargetBooks:    opts.TargetBooks,
		CompletedBooks: 0,
		StartDate:      now,
		EndDate:        endDate,
		IsCompleted:    false,
	}

	_, err := svc.db.NewInsert().Model(goal).Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return goal, nil
}

type UpdateGoalOptions struct {
	GoalType    string
	TargetBooks int
}

// Update overwrites the goal's type and target. The completion flag is
// recomputed against the current progress counter, so lowering the target at
// or below the books already completed flips the goal to completed with no
// new completion event.
func (svc *Service) Update(ctx context.Context, userID string, goalID int, opts UpdateGoalOptions) (*models.ReadingGoal, error) {
	if opts.TargetBooks <= 0 {
		return nil, errcodes.ValidationError("Target book count must be positive")
	}

	goal := &models.ReadingGoal{}
	err := svc.db.
		NewSelect().
		Model(goal).
		Where("id = ?", goalID).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Reading goal")
		}
		return nil, errors.WithStack(err)
	}

	goal.GoalType = opts.GoalType
	goal.TargetBooks = opts.TargetBooks
	goal.IsCompleted = goal.CompletedBooks >= opts.TargetBooks
	goal.UpdatedAt = time.Now()

	_, err = svc.db.
		NewUpdate().
		Model(goal).
		Column("goal_type", "target_books", "is_completed", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return goal, nil
}

// RecordCompletion advances the active goal by one completed book. When no
// goal is active the completion still stands, it just counts toward nothing.
func (svc *Service) RecordCompletion(ctx context.Context, userID string) (CompletionOutcome, error) {
	goal, err := svc.Active(ctx, userID)
	if err != nil {
		return CompletionOutcome{}, err
	}
	if goal == nil {
		return CompletionOutcome{Status: OutcomeNoGoal}, nil
	}

	goal.CompletedBooks++
	goal.IsCompleted = goal.CompletedBooks >= goal.TargetBooks
	goal.UpdatedAt = time.Now()

	_, err = svc.db.
		NewUpdate().
		Model(goal).
		Column("completed_books", "is_completed", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return CompletionOutcome{}, errors.WithStack(err)
	}

	status := OutcomeProgressed
	if goal.IsCompleted {
		status = OutcomeCompleted
	}

	return CompletionOutcome{
		Status:         status,
		CompletedBooks: goal.CompletedBooks,
		TargetBooks:    goal.TargetBooks,
	}, nil
}

// DecrementActive walks the active goal's progress back by one, floored at
// zero, after a completion is undone. It decrements whatever goal is active
// right now, which may not be the goal that was incremented when the book was
// originally completed.
func (svc *Service) DecrementActive(ctx context.Context, userID string) error {
	goal, err := svc.Active(ctx, userID)
	if err != nil {
		return err
	}
	if goal == nil {
		return nil
	}

	if goal.CompletedBooks > 0 {
		goal.CompletedBooks--
	}
	goal.IsCompleted = goal.CompletedBooks >= goal.TargetBooks
	goal.UpdatedAt = time.Now()

	_, err = svc.db.
		NewUpdate().
		Model(goal).
		Column("completed_books", "is_completed", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}
