package books

import (
	"context"
	"database/sql"
	"time"

	"github.com/fablereads/fable/pkg/errcodes"
	"github.com/fablereads/fable/pkg/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type RetrieveBookOptions struct {
	ID              *string
	IncludeChapters bool

	// When set, drafts owned by this user are visible; otherwise only
	// published books are returned.
	ViewerID *string
}

type ListBooksOptions struct {
	Limit    *int
	Offset   *int
	Search   *string
	Category *string
	AuthorID *string
	Sort     *string

	includeTotal bool
}

const (
	SortNewest  = "newest"
	SortPopular = "popular"
	SortTitle   = "title"
)

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

type CreateBookOptions struct {
	UserID      string
	Title       string
	Description string
	Category    string
	CoverURL    *string
}

// CreateBook inserts a new draft book for the author.
func (svc *Service) CreateBook(ctx context.Context, opts CreateBookOptions) (*models.Book, error) {
	now := time.Now()

	book := &models.Book{
		ID:          uuid.New().String(),
		CreatedAt:   now,
		UpdatedAt:   now,
		UserID:      opts.UserID,
		Title:       opts.Title,
		Description: opts.Description,
		Category:    opts.Category,
		CoverURL:    opts.CoverURL,
		Status:      models.BookStatusDraft,
	}

	_, err := svc.db.NewInsert().Model(book).Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return book, nil
}

// RetrieveBook fetches a single book with its author and aggregated view and
// like counts from published chapters. Drafts are only visible to their
// author.
func (svc *Service) RetrieveBook(ctx context.Context, opts RetrieveBookOptions) (*models.Book, error) {
	book := &models.Book{}

	q := svc.db.
		NewSelect().
		Model(book).
		Relation("Author")

	if opts.IncludeChapters {
		q = q.Relation("Chapters", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Order("ch.sort_order ASC")
		})
	}

	if opts.ID != nil {
		q = q.Where("b.id = ?", *opts.ID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}

	if book.Status != models.BookStatusPublished {
		if opts.ViewerID == nil || *opts.ViewerID != book.UserID {
			return nil, errcodes.NotFound("Book")
		}
	}

	if err := svc.fillAggregates(ctx, book); err != nil {
		return nil, err
	}

	return book, nil
}

func (svc *Service) ListBooks(ctx context.Context, opts ListBooksOptions) ([]*models.Book, error) {
	b, _, err := svc.listBooksWithTotal(ctx, opts)
	return b, errors.WithStack(err)
}

func (svc *Service) ListBooksWithTotal(ctx context.Context, opts ListBooksOptions) ([]*models.Book, int, error) {
	opts.includeTotal = true
	return svc.listBooksWithTotal(ctx, opts)
}

func (svc *Service) listBooksWithTotal(ctx context.Context, opts ListBooksOptions) ([]*models.Book, int, error) {
	books := []*models.Book{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&books).
		Relation("Author").
		Where("b.status = ?", models.BookStatusPublished)

	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}
	if opts.Search != nil && *opts.Search != "" {
		q = q.Where("b.title LIKE ?", "%"+*opts.Search+"%")
	}
	if opts.Category != nil {
		q = q.Where("b.category = ?", *opts.Category)
	}
	if opts.AuthorID != nil {
		q = q.Where("b.user_id = ?", *opts.AuthorID)
	}

	sort := SortNewest
	if opts.Sort != nil {
		sort = *opts.Sort
	}
	switch sort {
	case SortTitle:
		q = q.Order("b.title ASC")
	case SortPopular:
		q = q.OrderExpr(`(
			SELECT COALESCE(SUM(ch.views), 0)
			FROM chapters ch
			WHERE ch.book_id = b.id AND ch.status = ?
		) DESC`, models.ChapterStatusPublished)
	default:
		q = q.Order("b.created_at DESC")
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	for _, book := range books {
		if err := svc.fillAggregates(ctx, book); err != nil {
			return nil, 0, err
		}
	}

	return books, total, nil
}

// ListOwn returns all of the author's books regardless of status.
func (svc *Service) ListOwn(ctx context.Context, userID string) ([]*models.Book, error) {
	books := []*models.Book{}

	err := svc.db.
		NewSelect().
		Model(&books).
		Where("b.user_id = ?", userID).
		Order("b.created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	for _, book := range books {
		if err := svc.fillAggregates(ctx, book); err != nil {
			return nil, err
		}
	}

	return books, nil
}

type UpdateBookOptions struct {
	Title       *string
	Description *string
	Category    *string
	CoverURL    *string
}

// UpdateBook applies the provided fields to the author's own book.
func (svc *Service) UpdateBook(ctx context.Context, userID string, bookID string, opts UpdateBookOptions) (*models.Book, error) {
	book, err := svc.retrieveOwn(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}

	columns := []string{}
	if opts.Title != nil {
		book.Title = *opts.Title
		columns = append(columns, "title")
	}
	if opts.Description != nil {
		book.Description = *opts.Description
		columns = append(columns, "description")
	}
	if opts.Category != nil {
		book.Category = *opts.Category
		columns = append(columns, "category")
	}
	if opts.CoverURL != nil {
		book.CoverURL = opts.CoverURL
		columns = append(columns, "cover_url")
	}

	if len(columns) == 0 {
		return book, nil
	}

	book.UpdatedAt = time.Now()
	columns = append(columns, "updated_at")

	_, err = svc.db.
		NewUpdate().
		Model(book).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return book, nil
}

// PublishBook makes the author's book visible to everyone.
func (svc *Service) PublishBook(ctx context.Context, userID string, bookID string) (*models.Book, error) {
	book, err := svc.retrieveOwn(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}

	if book.Status == models.BookStatusPublished {
		return book, nil
	}

	book.Status = models.BookStatusPublished
	book.UpdatedAt = time.Now()

	_, err = svc.db.
		NewUpdate().
		Model(book).
		Column("status", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return book, nil
}

// DeleteBook removes the author's book. Chapters, likes, library entries and
// completion records go with it via foreign key cascades.
func (svc *Service) DeleteBook(ctx context.Context, userID string, bookID string) error {
	book, err := svc.retrieveOwn(ctx, userID, bookID)
	if err != nil {
		return err
	}

	_, err = svc.db.
		NewDelete().
		Model(book).
		WherePK().
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func (svc *Service) retrieveOwn(ctx context.Context, userID string, bookID string) (*models.Book, error) {
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

	if book.UserID != userID {
		return nil, errcodes.Forbidden("You don't own this book")
	}

	return book, nil
}

func (svc *Service) fillAggregates(ctx context.Context, book *models.Book) error {
	var agg struct {
		TotalViews int `bun:"total_views"`
		TotalLikes int `bun:"total_likes"`
	}

	err := svc.db.
		NewSelect().
		Model((*models.Chapter)(nil)).
		ColumnExpr("COALESCE(SUM(ch.views), 0) AS total_views").
		ColumnExpr("COALESCE(SUM(ch.likes), 0) AS total_likes").
		Where("ch.book_id = ?", book.ID).
		Where("ch.status = ?", models.ChapterStatusPublished).
		Scan(ctx, &agg)
	if err != nil {
		return errors.WithStack(err)
	}

	book.TotalViews = agg.TotalViews
	book.TotalLikes = agg.TotalLikes

	return nil
}
