package chapters

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/fablereads/fable/pkg/completions"
	"github.com/fablereads/fable/pkg/errcodes"
	"github.com/fablereads/fable/pkg/library"
	"github.com/fablereads/fable/pkg/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

type Service struct {
	db                *bun.DB
	libraryService    *library.Service
	completionService *completions.Service
}

func NewService(db *bun.DB) *Service {
	return &Service{
		db:                db,
		libraryService:    library.NewService(db),
		completionService: completions.NewService(db),
	}
}

type RetrieveChapterOptions struct {
	ID *string

	// When set, draft chapters owned by this user are visible.
	ViewerID *string
}

// RetrieveChapter fetches a chapter with its book. Drafts, and chapters of
// draft books, are only visible to the book's author.
func (svc *Service) RetrieveChapter(ctx context.Context, opts RetrieveChapterOptions) (*models.Chapter, error) {
	chapter := &models.Chapter{}

	q := svc.db.
		NewSelect().
		Model(chapter).
		Relation("Book")

	if opts.ID != nil {
		q = q.Where("ch.id = ?", *opts.ID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Chapter")
		}
		return nil, errors.WithStack(err)
	}

	if chapter.Status != models.ChapterStatusPublished || chapter.Book.Status != models.BookStatusPublished {
		if opts.ViewerID == nil || *opts.ViewerID != chapter.Book.UserID {
			return nil, errcodes.NotFound("Chapter")
		}
	}

	return chapter, nil
}

// ListChapters returns a book's chapters in reading order. Only the book's
// author sees drafts.
func (svc *Service) ListChapters(ctx context.Context, bookID string, viewerID *string) ([]*models.Chapter, error) {
	book := &models.Book{}
	err := svc.db.
		NewSelect().
		Model(book).
		Where("b.id = ?", bookID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}

	isOwner := viewerID != nil && *viewerID == book.UserID
	if book.Status != models.BookStatusPublished && !isOwner {
		return nil, errcodes.NotFound("Book")
	}

	chapters := []*models.Chapter{}
	q := svc.db.
		NewSelect().
		Model(&chapters).
		Where("ch.book_id = ?", bookID).
		Order("ch.sort_order ASC")

	if !isOwner {
		q = q.Where("ch.status = ?", models.ChapterStatusPublished)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, errors.WithStack(err)
	}

	return chapters, nil
}

type CreateChapterOptions struct {
	UserID  string
	BookID  string
	Title   string
	Content string
}

// CreateChapter appends a draft chapter to the author's book. The sort order
// is one past the current highest, so chapters read in creation order.
func (svc *Service) CreateChapter(ctx context.Context, opts CreateChapterOptions) (*models.Chapter, error) {
	book := &models.Book{}
	err := svc.db.
		NewSelect().
		Model(book).
		Where("b.id = ?", opts.BookID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}
	if book.UserID != opts.UserID {
		return nil, errcodes.Forbidden("You don't own this book")
	}

	var maxOrder int
	err = svc.db.
		NewSelect().
		Model((*models.Chapter)(nil)).
		ColumnExpr("COALESCE(MAX(ch.sort_order), 0)").
		Where("ch.book_id = ?", opts.BookID).
		Scan(ctx, &maxOrder)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	now := time.Now()
	chapter := &models.Chapter{
		ID:        uuid.New().String(),
		CreatedAt: now,
		UpdatedAt: now,
		BookID:    opts.BookID,
		Title:     opts.Title,
		Content:   opts.Content,
		SortOrder: maxOrder + 1,
		Status:    models.ChapterStatusDraft,
	}

	_, err = svc.db.NewInsert().Model(chapter).Exec(ctx)
	if err != nil {
		// Two chapters created at once can collide on the same slot.
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil, errcodes.Conflict("Chapter slot already taken, retry")
		}
		return nil, errors.WithStack(err)
	}

	return chapter, nil
}

type UpdateChapterOptions struct {
	Title   *string
	Content *string
}

// UpdateChapter applies the provided fields to a chapter of the author's own
// book.
func (svc *Service) UpdateChapter(ctx context.Context, userID string, chapterID string, opts UpdateChapterOptions) (*models.Chapter, error) {
	chapter, err := svc.retrieveOwn(ctx, userID, chapterID)
	if err != nil {
		return nil, err
	}

	columns := []string{}
	if opts.Title != nil {
		chapter.Title = *opts.Title
		columns = append(columns, "title")
	}
	if opts.Content != nil {
		chapter.Content = *opts.Content
		columns = append(columns, "content")
	}

	if len(columns) == 0 {
		return chapter, nil
	}

	chapter.UpdatedAt = time.Now()
	columns = append(columns, "updated_at")

	_, err = svc.db.
		NewUpdate().
		Model(chapter).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return chapter, nil
}

// PublishChapter makes a chapter readable. Publishing a chapter changes which
// chapter counts as the last one, so a reader mid-book never completes early
// against a stale count.
func (svc *Service) PublishChapter(ctx context.Context, userID string, chapterID string) (*models.Chapter, error) {
	chapter, err := svc.retrieveOwn(ctx, userID, chapterID)
	if err != nil {
		return nil, err
	}

	if chapter.Status == models.ChapterStatusPublished {
		return chapter, nil
	}

	chapter.Status = models.ChapterStatusPublished
	chapter.UpdatedAt = time.Now()

	_, err = svc.db.
		NewUpdate().
		Model(chapter).
		Column("status", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return chapter, nil
}

// DeleteChapter removes a chapter from the author's book.
func (svc *Service) DeleteChapter(ctx context.Context, userID string, chapterID string) error {
	chapter, err := svc.retrieveOwn(ctx, userID, chapterID)
	if err != nil {
		return err
	}

	_, err = svc.db.
		NewDelete().
		Model(chapter).
		WherePK().
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// LikeResult reports the state of the like toggle after the call.
type LikeResult struct {
	Liked bool `json:"liked"`
	Likes int  `json:"likes"`
}

// ToggleLike likes the chapter, or unlikes it if the user already liked it.
// The counter on the chapter row is adjusted alongside the like row.
func (svc *Service) ToggleLike(ctx context.Context, userID string, chapterID string) (*LikeResult, error) {
	chapter, err := svc.RetrieveChapter(ctx, RetrieveChapterOptions{ID: &chapterID})
	if err != nil {
		return nil, err
	}

	like := &models.ChapterLike{
		CreatedAt: time.Now(),
		UserID:    userID,
		ChapterID: chapter.ID,
	}

	_, err = svc.db.NewInsert().Model(like).Exec(ctx)
	if err == nil {
		return svc.adjustLikes(ctx, chapter.ID, +1, true)
	}
	if !strings.Contains(err.Error(), "UNIQUE constraint") {
		return nil, errors.WithStack(err)
	}

	// Already liked; remove the like.
	_, err = svc.db.
		NewDelete().
		Model((*models.ChapterLike)(nil)).
		Where("user_id = ?", userID).
		Where("chapter_id = ?", chapter.ID).
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return svc.adjustLikes(ctx, chapter.ID, -1, false)
}

func (svc *Service) adjustLikes(ctx context.Context, chapterID string, delta int, liked bool) (*LikeResult, error) {
	_, err := svc.db.
		NewUpdate().
		Model((*models.Chapter)(nil)).
		Set("likes = MAX(likes + ?, 0)", delta).
		Where("id = ?", chapterID).
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var likes int
	err = svc.db.
		NewSelect().
		Model((*models.Chapter)(nil)).
		Column("likes").
		Where("id = ?", chapterID).
		Scan(ctx, &likes)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &LikeResult{Liked: liked, Likes: likes}, nil
}

// ReadResult is what a reader gets back after finishing a chapter.
type ReadResult struct {
	Chapter       *models.Chapter         `json:"chapter"`
	IsLastChapter bool                    `json:"is_last_chapter"`
	Completion    *completions.MarkResult `json:"completion,omitempty"`
}

// RecordRead registers that the user read the chapter. It bumps the view
// counter, stamps the library entry, and, when this is the last published
// chapter of the book, marks the book completed. The published-chapter count
// is re-fetched here rather than trusted from the client, so a chapter
// published mid-read moves the finish line before the completion fires.
func (svc *Service) RecordRead(ctx context.Context, userID string, chapterID string) (*ReadResult, error) {
	chapter, err := svc.RetrieveChapter(ctx, RetrieveChapterOptions{ID: &chapterID})
	if err != nil {
		return nil, err
	}

	_, err = svc.db.
		NewUpdate().
		Model((*models.Chapter)(nil)).
		Set("views = views + 1").
		Where("id = ?", chapter.ID).
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	chapter.Views++

	if err := svc.libraryService.TouchLastRead(ctx, userID, chapter.BookID); err != nil {
		log := logger.FromContext(ctx)
		log.Warn("failed to stamp last read time", logger.Data{"user_id": userID, "book_id": chapter.BookID, "error": err.Error()})
	}

	total, err := svc.db.
		NewSelect().
		Model((*models.Chapter)(nil)).
		Where("book_id = ?", chapter.BookID).
		Where("status = ?", models.ChapterStatusPublished).
		Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	result := &ReadResult{
		Chapter:       chapter,
		IsLastChapter: chapter.SortOrder == total,
	}

	if result.IsLastChapter {
		completion, err := svc.completionService.Mark(ctx, userID, chapter.BookID)
		if err != nil {
			return nil, err
		}
		result.Completion = completion
	}

	return result, nil
}

func (svc *Service) retrieveOwn(ctx context.Context, userID string, chapterID string) (*models.Chapter, error) {
	chapter := &models.Chapter{}

	err := svc.db.
		NewSelect().
		Model(chapter).
		Relation("Book").
		Where("ch.id = ?", chapterID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Chapter")
		}
		return nil, errors.WithStack(err)
	}

	if chapter.Book.UserID != userID {
		return nil, errcodes.Forbidden("You don't own this book")
	}

	return chapter, nil
}
