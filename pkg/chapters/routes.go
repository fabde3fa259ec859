package chapters

import (
	"github.com/fablereads/fable/pkg/auth"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers chapter routes on a pre-configured group.
// Reading is public; writing and progress tracking require a session.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, authMiddleware *auth.Middleware) {
	chapterService := NewService(db)

	h := &handler{
		chapterService: chapterService,
	}

	g.GET("", h.list, authMiddleware.AuthenticateOptional)
	g.GET("/:id", h.retrieve, authMiddleware.AuthenticateOptional)
	g.POST("", h.create, authMiddleware.Authenticate)
	g.POST("/:id", h.update, authMiddleware.Authenticate)
	g.POST("/:id/publish", h.publish, authMiddleware.Authenticate)
	g.DELETE("/:id", h.delete, authMiddleware.Authenticate)
	g.POST("/:id/like", h.toggleLike, authMiddleware.Authenticate)
	g.POST("/:id/read", h.recordRead, authMiddleware.Authenticate)
}
