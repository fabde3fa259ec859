package achievements

import (
	"context"
	"time"

	"github.com/fablereads/fable/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// Grant records a badge for the user without checking whether it was already
// earned. Badges are at-least-once: two concurrent grants of the same badge
// both land, and readers deduplicate by badge type.
func (svc *Service) Grant(ctx context.Context, userID string, badgeType string) (*models.Achievement, error) {
	achievement := &models.Achievement{
		UserID:    userID,
		BadgeType: badgeType,
		EarnedAt:  time.Now(),
	}

	_, err := svc.db.NewInsert().Model(achievement).Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return achievement, nil
}

// Evaluate grants whatever badges the current state has earned. The library
// count is the caller's snapshot of the library size after an add, so size
// badges fire only on the exact milestone crossing.
func (svc *Service) Evaluate(ctx context.Context, userID string, libraryCount int, goalJustCompleted bool) error {
	switch libraryCount {
	case 1:
		if _, err := svc.Grant(ctx, userID, models.BadgeFirstBook); err != nil {
			return err
		}
	case 10:
		if _, err := svc.Grant(ctx, userID, models.BadgeBookworm); err != nil {
			return err
		}
	}

	if goalJustCompleted {
		if _, err := svc.Grant(ctx, userID, models.BadgeGoalAchiever); err != nil {
			return err
		}
	}

	return nil
}

// List returns the user's badges, newest first. Duplicate badge rows are
// collapsed to the earliest earned instance of each type.
func (svc *Service) List(ctx context.Context, userID string) ([]*models.Achievement, error) {
	achievements := []*models.Achievement{}

	err := svc.db.
		NewSelect().
		Model(&achievements).
		Where("user_id = ?", userID).
		Order("earned_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	seen := map[string]bool{}
	deduped := make([]*models.Achievement, 0, len(achievements))
	for _, a := range achievements {
		if seen[a.BadgeType] {
			continue
		}
		seen[a.BadgeType] = true
		deduped = append(deduped, a)
	}

	// Newest first for display.
	for i, j := 0, len(deduped)-1; i < j; i, j = i+1, j-1 {
		deduped[i], deduped[j] = deduped[j], deduped[i]
	}

	return deduped, nil
}
