package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/Astemirdum/book-inventory/inventory/internal/errs"
	"github.com/Astemirdum/book-inventory/inventory/internal/model"
	md "github.com/Astemirdum/book-inventory/pkg/middleware"
	"github.com/Astemirdum/book-inventory/pkg/validate"
	_ "github.com/Astemirdum/book-inventory/swagger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"
)

const (
	msgBooksAdded   = "Books added successfully"
	msgBookUpdated  = "Book updated successfully"
	msgBookDeleted  = "book deleted successfully"
	msgBooksDeleted = "Books deleted successfully"

	detailNoBooks        = "No books found"
	detailBookNotFound   = "Book not found"
	detailNoBooksWithIDs = "No books found with the given IDs"
	detailSaveBooks      = "Error saving books"
	detailFetchBooks     = "Error fetching books"
	detailUpdateBook     = "Error updating book"
	detailDeleteBooks    = "Error deleting books"
	detailInvalidID      = "book id must be an integer"
	detailIDsRequired    = "a list of book ids is required"
)

type Handler struct {
	bookSvc BookService
	log     *zap.Logger
}

func New(bookSvc BookService, log *zap.Logger) *Handler {
	h := &Handler{
		bookSvc: bookSvc,
		log:     log.Named("handler"),
	}
	return h
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.HTTPErrorHandler = h.errorHandler
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)
	base.GET("/manage/ready", h.Ready)
	base.GET("/swagger/*", echoSwagger.WrapHandler)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/books",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig(h.log)),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
	)

	api.POST("", h.CreateBooks)
	api.GET("", h.ListBooks)
	api.DELETE("", h.DeleteBooks)
	api.GET("/:id", h.GetBook)
	api.PUT("/:id", h.UpdateBook)
	api.DELETE("/:id", h.DeleteBook)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (h *Handler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := h.bookSvc.Ping(ctx); err != nil {
		h.log.Warn("ready", zap.Error(err))
		return echo.NewHTTPError(http.StatusServiceUnavailable, "database is unreachable")
	}
	return c.String(http.StatusOK, "OK")
}

// CreateBooks godoc
// @Summary  Add books
// @Tags     books
// @Accept   json
// @Produce  json
// @Param    request body     model.CreateBooksRequest true "books to add"
// @Success  200     {object} model.CreateBooksResponse
// @Failure  422     {object} errs.ErrorResponse
// @Failure  500     {object} errs.ErrorResponse
// @Router   /books/ [post]
func (h *Handler) CreateBooks(c echo.Context) error {
	var req model.CreateBooksRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	ids, err := h.bookSvc.CreateBooks(c.Request().Context(), req.Books)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, detailSaveBooks)
	}
	return c.JSON(http.StatusOK, model.CreateBooksResponse{
		Message: msgBooksAdded,
		BookIDs: ids,
	})
}

// ListBooks godoc
// @Summary  List all books
// @Tags     books
// @Produce  json
// @Success  200 {array}  model.Book
// @Failure  404 {object} errs.ErrorResponse
// @Router   /books [get]
func (h *Handler) ListBooks(c echo.Context) error {
	books, err := h.bookSvc.ListBooks(c.Request().Context())
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, detailNoBooks)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, detailFetchBooks)
	}
	return c.JSON(http.StatusOK, books)
}

// GetBook godoc
// @Summary  Get a book
// @Tags     books
// @Produce  json
// @Param    id  path     int true "book id"
// @Success  200 {object} model.Book
// @Failure  404 {object} errs.ErrorResponse
// @Router   /books/{id} [get]
func (h *Handler) GetBook(c echo.Context) error {
	id, err := bookID(c)
	if err != nil {
		return err
	}
	book, err := h.bookSvc.GetBook(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, detailBookNotFound)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, detailFetchBooks)
	}
	return c.JSON(http.StatusOK, book)
}

// UpdateBook godoc
// @Summary  Update some fields of a book
// @Tags     books
// @Accept   json
// @Produce  json
// @Param    id      path     int                     true "book id"
// @Param    request body     model.UpdateBookRequest true "fields to change"
// @Success  200     {object} model.UpdateBookResponse
// @Failure  404     {object} errs.ErrorResponse
// @Router   /books/{id} [put]
func (h *Handler) UpdateBook(c echo.Context) error {
	id, err := bookID(c)
	if err != nil {
		return err
	}
	var req model.UpdateBookRequest
	if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
		return bindError(err)
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	if err := h.bookSvc.UpdateBook(c.Request().Context(), id, req); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, detailBookNotFound)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, detailUpdateBook)
	}
	return c.JSON(http.StatusOK, model.UpdateBookResponse{
		Message: msgBookUpdated,
		BookID:  id,
	})
}

// DeleteBook godoc
// @Summary  Delete a book
// @Tags     books
// @Produce  json
// @Param    id  path     int true "book id"
// @Success  200 {object} model.DeleteBookResponse
// @Failure  404 {object} errs.ErrorResponse
// @Router   /books/{id} [delete]
func (h *Handler) DeleteBook(c echo.Context) error {
	id, err := bookID(c)
	if err != nil {
		return err
	}
	if err := h.bookSvc.DeleteBook(c.Request().Context(), id); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, detailBookNotFound)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, detailDeleteBooks)
	}
	return c.JSON(http.StatusOK, model.DeleteBookResponse{Detail: msgBookDeleted})
}

// DeleteBooks godoc
// @Summary  Delete several books
// @Tags     books
// @Accept   json
// @Produce  json
// @Param    request body     []int true "book ids"
// @Success  200     {object} model.DeleteBooksResponse
// @Failure  404     {object} errs.ErrorResponse
// @Failure  500     {object} errs.ErrorResponse
// @Router   /books [delete]
func (h *Handler) DeleteBooks(c echo.Context) error {
	var ids []int64
	if err := (&echo.DefaultBinder{}).BindBody(c, &ids); err != nil {
		return bindError(err)
	}
	if ids == nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, detailIDsRequired)
	}

	deleted, err := h.bookSvc.DeleteBooks(c.Request().Context(), ids)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, detailNoBooksWithIDs)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, detailDeleteBooks)
	}
	return c.JSON(http.StatusOK, model.DeleteBooksResponse{
		Message:    msgBooksDeleted,
		DeletedIDs: deleted,
	})
}

func bookID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusUnprocessableEntity, detailInvalidID)
	}
	return id, nil
}

// bindError keeps the binder's message but reports it as 422.
func bindError(err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, he.Message).SetInternal(err)
	}
	return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
}

// errorHandler renders every error as {"detail": "..."}.
func (h *Handler) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	detail := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		switch m := he.Message.(type) {
		case string:
			detail = m
		case error:
			detail = m.Error()
		default:
			detail = http.StatusText(code)
		}
	} else {
		h.log.Error("unhandled", zap.Error(err))
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, errs.ErrorResponse{Detail: detail})
	}
	if err != nil {
		h.log.Error("errorHandler", zap.Error(err))
	}
}
