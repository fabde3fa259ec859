package profiles

import (
	"github.com/fablereads/fable/pkg/auth"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers profile routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, authMiddleware *auth.Middleware) {
	profileService := NewService(db)

	h := &handler{
		profileService: profileService,
	}

	g.GET("/:id", h.retrieve, authMiddleware.AuthenticateOptional)
	g.GET("/:id/followers", h.followers)
	g.GET("/:id/following", h.following)
	g.POST("/me", h.update, authMiddleware.Authenticate)
	g.POST("/:id/follow", h.follow, authMiddleware.Authenticate)
	g.DELETE("/:id/follow", h.unfollow, authMiddleware.Authenticate)
}
