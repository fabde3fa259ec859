package goals

import (
	"net/http"
	"strconv"

	"github.com/fablereads/fable/pkg/auth"
	"github.com/fablereads/fable/pkg/errcodes"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	goalService *Service
}

func (h *handler) active(c echo.Context) error {
	ctx := c.Request().Context()
	userID, _ := auth.UserIDFromContext(c)

	goal, err := h.goalService.Active(ctx, userID)
	if err != nil {
		return errors.WithStack(err)
	}
	if goal == nil {
		return errcodes.NotFound("Reading goal")
	}

	return errors.WithStack(c.JSON(http.StatusOK, goal))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()
	userID, _ := auth.UserIDFromContext(c)

	params := CreateGoalPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	goal, err := h.goalService.Create(ctx, CreateGoalOptions{
		UserID:      userID,
		GoalType:    params.GoalType,
		TargetBooks: params.TargetBooks,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, goal))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	userID, _ := auth.UserIDFromContext(c)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Reading goal")
	}

	params := UpdateGoalPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	goal, err := h.goalService.Update(ctx, userID, id, UpdateGoalOptions{
		GoalType:    params.GoalType,
		TargetBooks: params.TargetBooks,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, goal))
}
