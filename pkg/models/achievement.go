package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	BadgeFirstBook    = "FIRST_BOOK"
	BadgeBookworm     = "BOOKWORM"
	BadgeGoalAchiever = "GOAL_ACHIEVER"
)

// Achievement is an append-only badge grant. There is deliberately no unique
// index on (user_id, badge_type): grants are at-least-once, and a threshold
// that fires twice (e.g. the library count passing 1 again after a remove and
// re-add) produces a second row.
type Achievement struct {
	bun.BaseModel `bun:"table:achievements,alias:a"`

	ID        int       `bun:",pk,autoincrement" json:"id"`
	UserID    string    `bun:",notnull" json:"user_id"`
	BadgeType string    `bun:",nullzero" json:"badge_type"`
	EarnedAt  time.Time `json:"earned_at"`
}
