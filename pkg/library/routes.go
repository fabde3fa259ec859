package library

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers library routes on an authenticated group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB) {
	libraryService := NewService(db)

	h := &handler{
		libraryService: libraryService,
	}

	g.GET("", h.list)
	g.POST("/books/:id", h.add)
	g.DELETE("/books/:id", h.remove)
	g.POST("/books/:id/favorite", h.setFavorite)
}
