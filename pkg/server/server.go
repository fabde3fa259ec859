package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/fablereads/fable/pkg/achievements"
	"github.com/fablereads/fable/pkg/auth"
	"github.com/fablereads/fable/pkg/binder"
	"github.com/fablereads/fable/pkg/books"
	"github.com/fablereads/fable/pkg/chapters"
	"github.com/fablereads/fable/pkg/completions"
	"github.com/fablereads/fable/pkg/config"
	"github.com/fablereads/fable/pkg/errcodes"
	"github.com/fablereads/fable/pkg/goals"
	"github.com/fablereads/fable/pkg/library"
	"github.com/fablereads/fable/pkg/profiles"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/uptrace/bun"
)

func New(cfg *config.Config, db *bun.DB) (*http.Server, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())

	health.RegisterRoutes(e)

	// Register auth routes and get the auth service
	authService := auth.RegisterRoutes(e, db, cfg.JWTSecret)
	authMiddleware := auth.NewMiddleware(authService)

	// Books and chapters mix public reads with authenticated writes, so
	// their groups carry no blanket middleware.
	books.RegisterRoutesWithGroup(e.Group("/books"), db, authMiddleware)
	chapters.RegisterRoutesWithGroup(e.Group("/chapters"), db, authMiddleware)
	profiles.RegisterRoutesWithGroup(e.Group("/users"), db, authMiddleware)

	registerProtectedRoutes(e, db, authMiddleware)

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

// registerProtectedRoutes registers the routes that always require a session.
func registerProtectedRoutes(e *echo.Echo, db *bun.DB, authMiddleware *auth.Middleware) {
	// Library routes
	libraryGroup := e.Group("/library")
	libraryGroup.Use(authMiddleware.Authenticate)
	library.RegisterRoutesWithGroup(libraryGroup, db)

	// Completion routes, rooted at / so they can hang off /books/:id.
	completionsGroup := e.Group("")
	completionsGroup.Use(authMiddleware.Authenticate)
	completions.RegisterRoutesWithGroup(completionsGroup, db)

	// Reading goal routes
	goalsGroup := e.Group("/goals")
	goalsGroup.Use(authMiddleware.Authenticate)
	goals.RegisterRoutesWithGroup(goalsGroup, db)

	// Achievement routes
	achievementsGroup := e.Group("/achievements")
	achievementsGroup.Use(authMiddleware.Authenticate)
	achievements.RegisterRoutesWithGroup(achievementsGroup, db)
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
