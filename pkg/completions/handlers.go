package completions

import (
	"net/http"
	"strconv"

	"github.com/fablereads/fable/pkg/auth"
	"github.com/fablereads/fable/pkg/errcodes"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	completionService *Service
}

func (h *handler) mark(c echo.Context) error {
	ctx := c.Request().Context()
	userID, _ := auth.UserIDFromContext(c)

	result, err := h.completionService.Mark(ctx, userID, c.Param("id"))
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, result))
}

func (h *handler) unmark(c echo.Context) error {
	ctx := c.Request().Context()
	userID, _ := auth.UserIDFromContext(c)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Completed book")
	}

	if err := h.completionService.Unmark(ctx, userID, id); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()
	userID, _ := auth.UserIDFromContext(c)

	completions, err := h.completionService.List(ctx, userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, completions))
}
