package models

import (
	"time"

	"github.com/uptrace/bun"
)

// LibraryBook is one book in a user's personal library. The database enforces
// uniqueness on (user_id, book_id); the service treats a constraint violation
// on insert as "already in the library".
type LibraryBook struct {
	bun.BaseModel `bun:"table:library_books,alias:lb"`

	ID         int        `bun:",pk,autoincrement" json:"id"`
	CreatedAt  time.Time  `json:"created_at"`
	UserID     string     `bun:",notnull" json:"user_id"`
	BookID     string     `bun:",notnull" json:"book_id"`
	IsFavorite bool       `json:"is_favorite"`
	LastReadAt *time.Time `json:"last_read_at,omitempty"`

	// Relations
	Book *Book `bun:"rel:belongs-to,join:book_id=id" json:"book,omitempty"`
}
