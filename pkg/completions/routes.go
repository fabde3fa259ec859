package completions

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers completion routes on an authenticated
// group. The mark and unmark routes hang off the book resource.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB) {
	completionService := NewService(db)

	h := &handler{
		completionService: completionService,
	}

	g.POST("/books/:id/complete", h.mark)
	g.DELETE("/completions/:id", h.unmark)
	g.GET("/completions", h.list)
}
