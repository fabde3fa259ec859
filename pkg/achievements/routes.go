package achievements

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers achievement routes on an authenticated
// group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB) {
	achievementService := NewService(db)

	h := &handler{
		achievementService: achievementService,
	}

	g.GET("", h.list)
}
