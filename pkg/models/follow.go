package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Follow is one edge of the social graph. Uniqueness on
// (follower_id, following_id) is enforced by the database so repeated follow
// requests collapse into a single edge.
type Follow struct {
	bun.BaseModel `bun:"table:follows,alias:fo"`

	ID          int       `bun:",pk,autoincrement" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	FollowerID  string    `bun:",notnull" json:"follower_id"`
	FollowingID string    `bun:",notnull" json:"following_id"`

	// Relations
	Follower  *User `bun:"rel:belongs-to,join:follower_id=id" json:"follower,omitempty"`
	Following *User `bun:"rel:belongs-to,join:following_id=id" json:"following,omitempty"`
}
