package profiles

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/fablereads/fable/pkg/errcodes"
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

// Retrieve fetches a user's public profile with follower, following and
// published book counts.
func (svc *Service) Retrieve(ctx context.Context, userID string) (*models.User, error) {
	user := &models.User{}

	err := svc.db.
		NewSelect().
		Model(user).
		Where("u.id = ?", userID).
		Where("u.is_active = ?", true).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("User")
		}
		return nil, errors.WithStack(err)
	}

	if err := svc.fillCounts(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

type UpdateProfileOptions struct {
	Username  *string
	Bio       *string
	AvatarURL *string
}

// Update applies profile fields to the user's own record. A username change
// must not collide with another user; the check is case-insensitive and the
// unique index backs it up under concurrency.
func (svc *Service) Update(ctx context.Context, userID string, opts UpdateProfileOptions) (*models.User, error) {
	user, err := svc.Retrieve(ctx, userID)
	if err != nil {
		return nil, err
	}

	columns := []string{}
	if opts.Username != nil && *opts.Username != user.Username {
		taken, err := svc.db.
			NewSelect().
			Model((*models.User)(nil)).
			Where("username = ? COLLATE NOCASE", *opts.Username).
			Where("id != ?", userID).
			Exists(ctx)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if taken {
			return nil, errcodes.ValidationError("Username already exists")
		}
		user.Username = *opts.Username
		columns = append(columns, "username")
	}
	if opts.Bio != nil {
		user.Bio = opts.Bio
		columns = append(columns, "bio")
	}
	if opts.AvatarURL != nil {
		user.AvatarURL = opts.AvatarURL
		columns = append(columns, "avatar_url")
	}

	if len(columns) == 0 {
		return user, nil
	}

	user.UpdatedAt = time.Now()
	columns = append(columns, "updated_at")

	_, err = svc.db.
		NewUpdate().
		Model(user).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil, errcodes.ValidationError("Username already exists")
		}
		return nil, errors.WithStack(err)
	}

	return user, nil
}

// Follow creates a follow edge from follower to target. Following someone
// twice is a no-op thanks to the unique index; following yourself is
// rejected.
func (svc *Service) Follow(ctx context.Context, followerID string, targetID string) error {
	if followerID == targetID {
		return errcodes.ValidationError("You can't follow yourself")
	}

	if _, err := svc.Retrieve(ctx, targetID); err != nil {
		return err
	}

	follow := &models.Follow{
		CreatedAt:   time.Now(),
		FollowerID:  followerID,
		FollowingID: targetID,
	}

	_, err := svc.db.NewInsert().Model(follow).Exec(ctx)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil
		}
		return errors.WithStack(err)
	}

	return nil
}

// Unfollow removes the follow edge. Unfollowing someone you don't follow is a
// no-op.
func (svc *Service) Unfollow(ctx context.Context, followerID string, targetID string) error {
	_, err := svc.db.
		NewDelete().
		Model((*models.Follow)(nil)).
		Where("follower_id = ?", followerID).
		Where("following_id = ?", targetID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// IsFollowing reports whether follower follows target.
func (svc *Service) IsFollowing(ctx context.Context, followerID string, targetID string) (bool, error) {
	exists, err := svc.db.
		NewSelect().
		Model((*models.Follow)(nil)).
		Where("follower_id = ?", followerID).
		Where("following_id = ?", targetID).
		Exists(ctx)
	if err != nil {
		return false, errors.WithStack(err)
	}

	return exists, nil
}

// Followers lists the users following the given user.
func (svc *Service) Followers(ctx context.Context, userID string) ([]*models.User, error) {
	follows := []*models.Follow{}

	err := svc.db.
		NewSelect().
		Model(&follows).
		Relation("Follower").
		Where("fo.following_id = ?", userID).
		Order("fo.created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	users := make([]*models.User, 0, len(follows))
	for _, f := range follows {
		if f.Follower != nil {
			users = append(users, f.Follower)
		}
	}

	return users, nil
}

// Following lists the users the given user follows.
func (svc *Service) Following(ctx context.Context, userID string) ([]*models.User, error) {
	follows := []*models.Follow{}

	err := svc.db.
		NewSelect().
		Model(&follows).
		Relation("Following").
		Where("fo.follower_id = ?", userID).
		Order("fo.created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	users := make([]*models.User, 0, len(follows))
	for _, f := range follows {
		if f.Following != nil {
			users = append(users, f.Following)
		}
	}

	return users, nil
}

func (svc *Service) fillCounts(ctx context.Context, user *models.User) error {
	followers, err := svc.db.
		NewSelect().
		Model((*models.Follow)(nil)).
		Where("following_id = ?", user.ID).
		Count(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	following, err := svc.db.
		NewSelect().
		Model((*models.Follow)(nil)).
		Where("follower_id = ?", user.ID).
		Count(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	books, err := svc.db.
		NewSelect().
		Model((*models.Book)(nil)).
		Where("user_id = ?", user.ID).
		Where("status = ?", models.BookStatusPublished).
		Count(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	user.FollowerCount = followers
	user.FollowingCount = following
	user.BookCount = books

	return nil
}
