package library

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/fablereads/fable/pkg/achievements"
	"github.com/fablereads/fable/pkg/errcodes"
	"github.com/fablereads/fable/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

type Service struct {
	db                 *bun.DB
	achievementService *achievements.Service
}

func NewService(db *bun.DB) *Service {
	return &Service{
		db:                 db,
		achievementService: achievements.NewService(db),
	}
}

// Add puts a book in the user's library. Adding a book that is already there
// is a no-op that returns the existing entry; the unique index on
// (user_id, book_id) is what makes the operation idempotent under concurrent
// adds. Library milestone badges are evaluated after a successful insert, and
// a badge failure never fails the add.
func (svc *Service) Add(ctx context.Context, userID string, bookID string) (*models.LibraryBook, error) {
	exists, err := svc.db.
		NewSelect().
		Model((*models.Book)(nil)).
		Where("id = ?", bookID).
		Exists(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if !exists {
		return nil, errcodes.NotFound("Book")
	}

	entry := &models.LibraryBook{
		CreatedAt: time.Now(),
		UserID:    userID,
		BookID:    bookID,
	}

	_, err = svc.db.NewInsert().Model(entry).Exec(ctx)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return svc.get(ctx, userID, bookID)
		}
		return nil, errors.WithStack(err)
	}

	count, err := svc.Count(ctx, userID)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Warn("failed to count library for badge evaluation", logger.Data{"user_id": userID, "error": err.Error()})
		return entry, nil
	}

	if err := svc.achievementService.Evaluate(ctx, userID, count, false); err != nil {
		log := logger.FromContext(ctx)
		log.Warn("failed to grant library badge", logger.Data{"user_id": userID, "library_count": count, "error": err.Error()})
	}

	return entry, nil
}

// Remove takes the book out of the user's library. Removing a book that
// isn't there is a no-op, and the completion record, if any, is untouched.
func (svc *Service) Remove(ctx context.Context, userID string, bookID string) error {
	_, err := svc.db.
		NewDelete().
		Model((*models.LibraryBook)(nil)).
		Where("user_id = ?", userID).
		Where("book_id = ?", bookID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// SetFavorite flips the favorite flag on a library entry. Concurrent writers
// race and the last write wins.
func (svc *Service) SetFavorite(ctx context.Context, userID string, bookID string, favorite bool) (*models.LibraryBook, error) {
	entry, err := svc.get(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}

	entry.IsFavorite = favorite

	_, err = svc.db.
		NewUpdate().
		Model(entry).
		Column("is_favorite").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return entry, nil
}

// TouchLastRead stamps the library entry with the current time. Reading a
// book that isn't in the library is fine; there is just nothing to stamp.
func (svc *Service) TouchLastRead(ctx context.Context, userID string, bookID string) error {
	_, err := svc.db.
		NewUpdate().
		Model((*models.LibraryBook)(nil)).
		Set("last_read_at = ?", time.Now()).
		Where("user_id = ?", userID).
		Where("book_id = ?", bookID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

type ListLibraryOptions struct {
	FavoritesOnly bool
	Search        *string
}

// List returns the user's library entries with their books, most recently
// added first.
func (svc *Service) List(ctx context.Context, userID string, opts ListLibraryOptions) ([]*models.LibraryBook, error) {
	entries := []*models.LibraryBook{}

	q := svc.db.
		NewSelect().
		Model(&entries).
		Relation("Book").
		Relation("Book.Author").
		Where("lb.user_id = ?", userID).
		Order("lb.created_at DESC")

	if opts.FavoritesOnly {
		q = q.Where("lb.is_favorite = ?", true)
	}
	if opts.Search != nil && *opts.Search != "" {
		q = q.Where("lb.book_id IN (SELECT id FROM books WHERE title LIKE ?)", "%"+*opts.Search+"%")
	}

	if err := q.Scan(ctx); err != nil {
		return nil, errors.WithStack(err)
	}

	return entries, nil
}

// Count returns the number of books in the user's library.
func (svc *Service) Count(ctx context.Context, userID string) (int, error) {
	count, err := svc.db.
		NewSelect().
		Model((*models.LibraryBook)(nil)).
		Where("user_id = ?", userID).
		Count(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	return count, nil
}

func (svc *Service) get(ctx context.Context, userID string, bookID string) (*models.LibraryBook, error) {
	entry := &models.LibraryBook{}

	err := svc.db.
		NewSelect().
		Model(entry).
		Where("user_id = ?", userID).
		Where("book_id = ?", bookID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Library book")
		}
		return nil, errors.WithStack(err)
	}

	return entry, nil
}
