package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	GoalTypeMonthly = "monthly"
	GoalTypeYearly  = "yearly"
)

// ReadingGoal is a numeric reading target within a time window. There is no
// explicit active pointer: the active goal is the most recently created row
// with is_completed = false. Creating a new goal does not deactivate an older
// incomplete one; the older goal is simply never selected again.
type ReadingGoal struct {
	bun.BaseModel `bun:"table:reading_goals,alias:rg"`

	ID             int       `bun:",pk,autoincrement" json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	UserID         string    `bun:",notnull" json:"user_id"`
	GoalType       string    `bun:",nullzero" json:"goal_type"`
	TargetBooks    int       `bun:",notnull" json:"target_books"`
	CompletedBooks int       `json:"completed_books"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	IsCompleted    bool      `json:"is_completed"`
}
