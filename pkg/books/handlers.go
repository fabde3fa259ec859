package books

import (
	"net/http"

	"github.com/fablereads/fable/pkg/auth"
	"github.com/fablereads/fable/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	bookService *Service
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	opts := RetrieveBookOptions{
		ID:              &id,
		IncludeChapters: true,
	}
	if userID, ok := auth.UserIDFromContext(c); ok {
		opts.ViewerID = &userID
	}

	book, err := h.bookService.RetrieveBook(ctx, opts)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	// Bind params.
	params := ListBooksQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	books, total, err := h.bookService.ListBooksWithTotal(ctx, ListBooksOptions{
		Limit:    &params.Limit,
		Offset:   &params.Offset,
		Search:   params.Search,
		Category: params.Category,
		AuthorID: params.AuthorID,
		Sort:     params.Sort,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Books []*models.Book `json:"books"`
		Total int            `json:"total"`
	}{books, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) listOwn(c echo.Context) error {
	ctx := c.Request().Context()
	userID, _ := auth.UserIDFromContext(c)

	books, err := h.bookService.ListOwn(ctx, userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, books))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()
	userID, _ := auth.UserIDFromContext(c)

	params := CreateBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	book, err := h.bookService.CreateBook(ctx, CreateBookOptions{
		UserID:      userID,
		Title:       params.Title,
		Description: params.Description,
		Category:    params.Category,
		CoverURL:    params.CoverURL,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, book))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	userID, _ := auth.UserIDFromContext(c)

	params := UpdateBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	book, err := h.bookService.UpdateBook(ctx, userID, c.Param("id"), UpdateBookOptions{
		Title:       params.Title,
		Description: params.Description,
		Category:    params.Category,
		CoverURL:    params.CoverURL,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

func (h *handler) publish(c echo.Context) error {
	ctx := c.Request().Context()
	userID, _ := auth.UserIDFromContext(c)

	book, err := h.bookService.PublishBook(ctx, userID, c.Param("id"))
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()
	userID, _ := auth.UserIDFromContext(c)

	err := h.bookService.DeleteBook(ctx, userID, c.Param("id"))
	if err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}
