package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		statements := []string{
			`CREATE TABLE users (
				id TEXT PRIMARY KEY,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				username TEXT NOT NULL,
				email TEXT NOT NULL,
				password_hash TEXT NOT NULL,
				bio TEXT,
				avatar_url TEXT,
				is_active BOOLEAN NOT NULL DEFAULT TRUE
			)`,
			`CREATE UNIQUE INDEX ux_users_username ON users(username COLLATE NOCASE)`,
			`CREATE UNIQUE INDEX ux_users_email ON users(email COLLATE NOCASE)`,

			`CREATE TABLE follows (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				follower_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				following_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE
			)`,
			`CREATE UNIQUE INDEX ux_follows_edge ON follows(follower_id, following_id)`,
			`CREATE INDEX ix_follows_following_id ON follows(following_id)`,

			`CREATE TABLE books (
				id TEXT PRIMARY KEY,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				title TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				category TEXT NOT NULL,
				cover_url TEXT,
				status TEXT NOT NULL DEFAULT 'draft'
			)`,
			`CREATE INDEX ix_books_user_id ON books(user_id)`,
			`CREATE INDEX ix_books_category ON books(category)`,

			`CREATE TABLE chapters (
				id TEXT PRIMARY KEY,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				book_id TEXT NOT NULL REFERENCES books(id) ON DELETE CASCADE,
				title TEXT NOT NULL,
				content TEXT NOT NULL DEFAULT '',
				sort_order INTEGER NOT NULL,
				status TEXT NOT NULL DEFAULT 'draft',
				views INTEGER NOT NULL DEFAULT 0,
				likes INTEGER NOT NULL DEFAULT 0
			)`,
			`CREATE INDEX ix_chapters_book_id ON chapters(book_id)`,
			`CREATE UNIQUE INDEX ux_chapters_book_sort ON chapters(book_id, sort_order)`,

			`CREATE TABLE chapter_likes (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				chapter_id TEXT NOT NULL REFERENCES chapters(id) ON DELETE CASCADE
			)`,
			`CREATE UNIQUE INDEX ux_chapter_likes_user_chapter ON chapter_likes(user_id, chapter_id)`,

			`CREATE TABLE library_books (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				book_id TEXT NOT NULL REFERENCES books(id) ON DELETE CASCADE,
				is_favorite BOOLEAN NOT NULL DEFAULT FALSE,
				last_read_at TIMESTAMPTZ
			)`,
			`CREATE UNIQUE INDEX ux_library_books_user_book ON library_books(user_id, book_id)`,

			`CREATE TABLE completed_books (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				book_id TEXT NOT NULL REFERENCES books(id) ON DELETE CASCADE,
				completed_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE UNIQUE INDEX ux_completed_books_user_book ON completed_books(user_id, book_id)`,

			`CREATE TABLE reading_goals (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				goal_type TEXT NOT NULL CHECK (goal_type IN ('monthly', 'yearly')),
				target_books INTEGER NOT NULL CHECK (target_books > 0),
				completed_books INTEGER NOT NULL DEFAULT 0,
				start_date TIMESTAMPTZ NOT NULL,
				end_date TIMESTAMPTZ NOT NULL,
				is_completed BOOLEAN NOT NULL DEFAULT FALSE
			)`,
			`CREATE INDEX ix_reading_goals_user_id ON reading_goals(user_id)`,

			// No unique index on (user_id, badge_type): badge grants are
			// append-only and at-least-once.
			`CREATE TABLE achievements (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				badge_type TEXT NOT NULL,
				earned_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE INDEX ix_achievements_user_id ON achievements(user_id)`,
		}

		for _, stmt := range statements {
			if _, err := db.Exec(stmt); err != nil {
				return errors.WithStack(err)
			}
		}

		return nil
	}

	down := func(_ context.Context, db *bun.DB) error {
		tables := []string{
			"achievements",
			"reading_goals",
			"completed_books",
			"library_books",
			"chapter_likes",
			"chapters",
			"books",
			"follows",
			"users",
		}
		for _, table := range tables {
			if _, err := db.Exec("DROP TABLE IF EXISTS " + table); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}

	Migrations.MustRegister(up, down)
}
