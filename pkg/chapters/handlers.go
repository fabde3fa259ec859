package chapters

import (
	"net/http"

	"github.com/fablereads/fable/pkg/auth"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	chapterService *Service
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	opts := RetrieveChapterOptions{ID: &id}
	if userID, ok := auth.UserIDFromContext(c); ok {
		opts.ViewerID = &userID
	}

	chapter, err := h.chapterService.RetrieveChapter(ctx, opts)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, chapter))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListChaptersQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	var viewerID *string
	if userID, ok := auth.UserIDFromContext(c); ok {
		viewerID = &userID
	}

	chapters, err := h.chapterService.ListChapters(ctx, params.BookID, viewerID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, chapters))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()
	userID, _ := auth.UserIDFromContext(c)

	params := CreateChapterPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	chapter, err := h.chapterService.CreateChapter(ctx, CreateChapterOptions{
		UserID:  userID,
		BookID:  params.BookID,
		Title:   params.Title,
		Content: params.Content,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, chapter))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	userID, _ := auth.UserIDFromContext(c)

	params := UpdateChapterPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	chapter, err := h.chapterService.UpdateChapter(ctx, userID, c.Param("id"), UpdateChapterOptions{
		Title:   params.Title,
		Content: params.Content,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, chapter))
}

func (h *handler) publish(c echo.Context) error {
	ctx := c.Request().Context()
	userID, _ := auth.UserIDFromContext(c)

	chapter, err := h.chapterService.PublishChapter(ctx, userID, c.Param("id"))
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, chapter))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()
	userID, _ := auth.UserIDFromContext(c)

	err := h.chapterService.DeleteChapter(ctx, userID, c.Param("id"))
	if err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *handler) toggleLike(c echo.Context) error {
	ctx := c.Request().Context()
	userID, _ := auth.UserIDFromContext(c)

	result, err := h.chapterService.ToggleLike(ctx, userID, c.Param("id"))
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, result))
}

func (h *handler) recordRead(c echo.Context) error {
	ctx := c.Request().Context()
	userID, _ := auth.UserIDFromContext(c)

	result, err := h.chapterService.RecordRead(ctx, userID, c.Param("id"))
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, result))
}
