package achievements

import (
	"net/http"

	"github.com/fablereads/fable/pkg/auth"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	achievementService *Service
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()
	userID, _ := auth.UserIDFromContext(c)

	achievements, err := h.achievementService.List(ctx, userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, achievements))
}
