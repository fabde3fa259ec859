package books

import (
	"github.com/fablereads/fable/pkg/auth"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers book routes on a pre-configured group.
// Listing and retrieval are public; everything else requires a session.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, authMiddleware *auth.Middleware) {
	bookService := NewService(db)

	h := &handler{
		bookService: bookService,
	}

	g.GET("", h.list, authMiddleware.AuthenticateOptional)
	g.GET("/mine", h.listOwn, authMiddleware.Authenticate)
	g.GET("/:id", h.retrieve, authMiddleware.AuthenticateOptional)
	g.POST("", h.create, authMiddleware.Authenticate)
	g.POST("/:id", h.update, authMiddleware.Authenticate)
	g.POST("/:id/publish", h.publish, authMiddleware.Authenticate)
	g.DELETE("/:id", h.delete, authMiddleware.Authenticate)
}
