package goals

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers goal routes on an authenticated group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB) {
	goalService := NewService(db)

	h := &handler{
		goalService: goalService,
	}

	g.GET("/active", h.active)
	g.POST("", h.create)
	g.POST("/:id", h.update)
}
