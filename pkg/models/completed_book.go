package models

import (
	"time"

	"github.com/uptrace/bun"
)

// CompletedBook records the one-time fact that a user finished a book. Rows
// are never mutated; the only way back is an explicit undo, which deletes the
// row. The unique index on (user_id, book_id) is the authoritative guard
// against duplicate completions; the service's existence check is just an
// optimization.
type CompletedBook struct {
	bun.BaseModel `bun:"table:completed_books,alias:cb"`

	ID          int       `bun:",pk,autoincrement" json:"id"`
	UserID      string    `bun:",notnull" json:"user_id"`
	BookID      string    `bun:",notnull" json:"book_id"`
	CompletedAt time.Time `json:"completed_at"`

	// Relations
	Book *Book `bun:"rel:belongs-to,join:book_id=id" json:"book,omitempty"`
}
