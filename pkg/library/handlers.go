package library

import (
	"net/http"

	"github.com/fablereads/fable/pkg/auth"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	libraryService *Service
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()
	userID, _ := auth.UserIDFromContext(c)

	params := ListLibraryPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	entries, err := h.libraryService.List(ctx, userID, ListLibraryOptions{
		FavoritesOnly: params.FavoritesOnly,
		Search:        params.Search,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, entries))
}

func (h *handler) add(c echo.Context) error {
	ctx := c.Request().Context()
	userID, _ := auth.UserIDFromContext(c)

	entry, err := h.libraryService.Add(ctx, userID, c.Param("id"))
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, entry))
}

func (h *handler) remove(c echo.Context) error {
	ctx := c.Request().Context()
	userID, _ := auth.UserIDFromContext(c)

	err := h.libraryService.Remove(ctx, userID, c.Param("id"))
	if err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *handler) setFavorite(c echo.Context) error {
	ctx := c.Request().Context()
	userID, _ := auth.UserIDFromContext(c)

	params := SetFavoritePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	entry, err := h.libraryService.SetFavorite(ctx, userID, c.Param("id"), *params.IsFavorite)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, entry))
}
