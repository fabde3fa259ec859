package completions

import (
	"context"
	"strings"
	"time"

	"github.com/fablereads/fable/pkg/achievements"
	"github.com/fablereads/fable/pkg/goals"
	"github.com/fablereads/fable/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

type Service struct {
	db                 *bun.DB
	goalService        *goals.Service
	achievementService *achievements.Service
}

func NewService(db *bun.DB) *Service {
	return &Service{
		db:                 db,
		goalService:        goals.NewService(db),
		achievementService: achievements.NewService(db),
	}
}

// MarkResult reports what a completion mark did. AlreadyCompleted means the
// book was marked before and nothing changed this time.
type MarkResult struct {
	AlreadyCompleted bool                    `json:"already_completed"`
	Completion       *models.CompletedBook   `json:"completion,omitempty"`
	Goal             goals.CompletionOutcome `json:"goal"`
}

// Mark records the book as completed for the user, then advances the active
// reading goal. The two writes are not atomic: if the goal update fails the
// completion record still stands, and the goal catches up on a later
// completion. Marking the same book twice is a no-op for both the record and
// the goal counter.
func (svc *Service) Mark(ctx context.Context, userID string, bookID string) (*MarkResult, error) {
	exists, err := svc.db.
		NewSelect().
		Model((*models.CompletedBook)(nil)).
		Where("user_id = ?", userID).
		Where("book_id = ?", bookID).
		Exists(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if exists {
		return &MarkResult{
			AlreadyCompleted: true,
			Goal:             goals.CompletionOutcome{Status: goals.OutcomeNoGoal},
		}, nil
	}

	completion := &models.CompletedBook{
		UserID:      userID,
		BookID:      bookID,
		CompletedAt: time.Now(),
	}

	_, err = svc.db.NewInsert().Model(completion).Exec(ctx)
	if err != nil {
		// A concurrent mark can slip in between the existence check and
		// the insert. The unique index makes the race harmless.
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return &MarkResult{
				AlreadyCompleted: true,
				Goal:             goals.CompletionOutcome{Status: goals.OutcomeNoGoal},
			}, nil
		}
		return nil, errors.WithStack(err)
	}

	outcome, err := svc.goalService.RecordCompletion(ctx, userID)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Warn("failed to update reading goal after completion", logger.Data{"user_id": userID, "book_id": bookID, "error": err.Error()})
		outcome = goals.CompletionOutcome{Status: goals.OutcomeNoGoal}
	}

	if outcome.Status == goals.OutcomeCompleted {
		if err := svc.achievementService.Evaluate(ctx, userID, 0, true); err != nil {
			log := logger.FromContext(ctx)
			log.Warn("failed to grant goal achievement", logger.Data{"user_id": userID, "error": err.Error()})
		}
	}

	return &MarkResult{
		Completion: completion,
		Goal:       outcome,
	}, nil
}

// Unmark deletes the completion record by id and walks the active goal back
// by one. The decrement targets whatever goal is active at undo time, and it
// isn't conditioned on the delete having matched a row, so a repeated undo
// keeps nudging the counter down until the floor at zero.
func (svc *Service) Unmark(ctx context.Context, userID string, completedBookID int) error {
	_, err := svc.db.
		NewDelete().
		Model((*models.CompletedBook)(nil)).
		Where("id = ?", completedBookID).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	if err := svc.goalService.DecrementActive(ctx, userID); err != nil {
		log := logger.FromContext(ctx)
		log.Warn("failed to decrement reading goal after unmark", logger.Data{"user_id": userID, "completed_book_id": completedBookID, "error": err.Error()})
	}

	return nil
}

// IsCompleted reports whether the user has marked the book as completed.
func (svc *Service) IsCompleted(ctx context.Context, userID string, bookID string) (bool, error) {
	exists, err := svc.db.
		NewSelect().
		Model((*models.CompletedBook)(nil)).
		Where("user_id = ?", userID).
		Where("book_id = ?", bookID).
		Exists(ctx)
	if err != nil {
		return false, errors.WithStack(err)
	}

	return exists, nil
}

// List returns the user's completed books, most recent first.
func (svc *Service) List(ctx context.Context, userID string) ([]*models.CompletedBook, error) {
	completions := []*models.CompletedBook{}

	err := svc.db.
		NewSelect().
		Model(&completions).
		Relation("Book").
		Where("cb.user_id = ?", userID).
		Order("cb.completed_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return completions, nil
}
