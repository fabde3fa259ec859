package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	ChapterStatusDraft     = "draft"
	ChapterStatusPublished = "published"
)

type Chapter struct {
	bun.BaseModel `bun:"table:chapters,alias:ch"`

	ID        string    `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	BookID    string    `bun:",notnull" json:"book_id"`
	Title     string    `bun:",nullzero" json:"title"`
	Content   string    `json:"content"`
	SortOrder int       `bun:",notnull" json:"sort_order"`
	Status    string    `bun:",nullzero" json:"status"`
	Views     int       `json:"views"`
	Likes     int       `json:"likes"`

	// Relations
	Book *Book `bun:"rel:belongs-to,join:book_id=id" json:"book,omitempty"`
}

// ChapterLike records that a user liked a chapter. The likes counter on the
// chapter row is maintained alongside these rows; the unique index on
// (user_id, chapter_id) keeps the toggle idempotent.
type ChapterLike struct {
	bun.BaseModel `bun:"table:chapter_likes,alias:cl"`

	ID        int       `bun:",pk,autoincrement" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    string    `bun:",notnull" json:"user_id"`
	ChapterID string    `bun:",notnull" json:"chapter_id"`
}
