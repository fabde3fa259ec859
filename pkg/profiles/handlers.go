package profiles

import (
	"net/http"

	"github.com/fablereads/fable/pkg/auth"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	profileService *Service
}

type profileResponse struct {
	User        interface{} `json:"user"`
	IsFollowing bool        `json:"is_following"`
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	user, err := h.profileService.Retrieve(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	resp := profileResponse{User: user}
	if viewerID, ok := auth.UserIDFromContext(c); ok && viewerID != id {
		following, err := h.profileService.IsFollowing(ctx, viewerID, id)
		if err != nil {
			return errors.WithStack(err)
		}
		resp.IsFollowing = following
	}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	userID, _ := auth.UserIDFromContext(c)

	params := UpdateProfilePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.profileService.Update(ctx, userID, UpdateProfileOptions{
		Username:  params.Username,
		Bio:       params.Bio,
		AvatarURL: params.AvatarURL,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, user))
}

func (h *handler) follow(c echo.Context) error {
	ctx := c.Request().Context()
	userID, _ := auth.UserIDFromContext(c)

	if err := h.profileService.Follow(ctx, userID, c.Param("id")); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *handler) unfollow(c echo.Context) error {
	ctx := c.Request().Context()
	userID, _ := auth.UserIDFromContext(c)

	if err := h.profileService.Unfollow(ctx, userID, c.Param("id")); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *handler) followers(c echo.Context) error {
	ctx := c.Request().Context()

	users, err := h.profileService.Followers(ctx, c.Param("id"))
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, users))
}

func (h *handler) following(c echo.Context) error {
	ctx := c.Request().Context()

	users, err := h.profileService.Following(ctx, c.Param("id"))
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, users))
}
