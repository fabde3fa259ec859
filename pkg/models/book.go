package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	BookStatusDraft     = "draft"
	BookStatusPublished = "published"
)

type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID          string    `bun:",pk,nullzero" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	UserID      string    `bun:",notnull" json:"user_id"`
	Title       string    `bun:",nullzero" json:"title"`
	Description string    `json:"description"`
	Category    string    `bun:",nullzero" json:"category"`
	CoverURL    *string   `json:"cover_url,omitempty"`
	Status      string    `bun:",nullzero" json:"status"`

	// Aggregated from published chapters, not stored.
	TotalViews int `bun:"-" json:"total_views"`
	TotalLikes int `bun:"-" json:"total_likes"`

	// Relations
	Author   *User      `bun:"rel:belongs-to,join:user_id=id" json:"author,omitempty"`
	Chapters []*Chapter `bun:"rel:has-many,join:id=book_id" json:"chapters,omitempty"`
}
