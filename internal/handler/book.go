package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"bookcourier/internal/model"
	"bookcourier/internal/policy"
	"bookcourier/internal/repository"
)

// latestLimit caps the storefront's newest-books strip.
const latestLimit = 6

// bookStore is the slice of the book repository the catalog endpoints
// use. DB hands out the handle for the delete cascade transaction.
type bookStore interface {
	DB() *sql.DB
	Create(ctx context.Context, b *model.Book) error
	GetByID(ctx context.Context, id uint64) (model.Book, error)
	ListPublished(ctx context.Context, limit int) ([]model.Book, error)
	ListByLibrarian(ctx context.Context, email string) ([]model.Book, error)
	Update(ctx context.Context, b *model.Book) error
	DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error
}

// bookOrderStore is the order-side step of the delete cascade.
type bookOrderStore interface {
	DeleteByBookTx(ctx context.Context, tx *sql.Tx, bookID uint64) (int64, error)
}

// BookHandler exposes the catalog: public browsing, librarian listing
// management, and the admin delete with its order cascade.
type BookHandler struct {
	Books  bookStore
	Orders bookOrderStore
}

func NewBookHandler(b bookStore, o bookOrderStore) *BookHandler {
	if b == nil || o == nil {
		panic("nil repository passed to NewBookHandler")
	}
	return &BookHandler{Books: b, Orders: o}
}

type bookReq struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description"`
	PriceCents  uint32 `json:"price_cents"`
	Status      string `json:"status"` // draft | published
}

type bookResp struct {
	ID             uint64    `json:"id"`
	LibrarianEmail string    `json:"librarian_email"`
	Title          string    `json:"title"`
	Author         string    `json:"author"`
	Description    string    `json:"description"`
	PriceCents     uint32    `json:"price_cents"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

func toBookResp(b model.Book) bookResp {
	return bookResp{
		ID:             b.ID,
		LibrarianEmail: b.LibrarianEmail,
		Title:          b.Title,
		Author:         b.Author,
		Description:    b.Description,
		PriceCents:     b.PriceCents,
		Status:         string(b.Status),
		CreatedAt:      b.CreatedAt,
	}
}

func parseBookStatus(s string) (model.BookStatus, bool) {
	switch model.BookStatus(s) {
	case model.BookDraft, model.BookPublished:
		return model.BookStatus(s), true
	case "":
		return model.BookDraft, true
	}
	return "", false
}

// Create handles POST /v1/books. Librarian only; the caller becomes the
// owner.
func (h *BookHandler) Create(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := policy.Authorize(id, policy.ActionCreateBook, policy.Resource{}); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	var req bookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title required"})
	}
	status, ok := parseBookStatus(req.Status)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be draft or published"})
	}
	b := model.Book{
		LibrarianEmail: id.Email,
		Title:          req.Title,
		Author:         req.Author,
		Description:    req.Description,
		PriceCents:     req.PriceCents,
		Status:         status,
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Books.Create(ctx, &b); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create book failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": toBookResp(b)})
}

// ListPublished handles GET /v1/books. Public; only published listings
// are returned. ?latest=true narrows to the newest six.
func (h *BookHandler) ListPublished(c echo.Context) error {
	limit := 0
	if c.QueryParam("latest") == "true" {
		limit = latestLimit
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	books, err := h.Books.ListPublished(ctx, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	items := make([]bookResp, 0, len(books))
	for _, b := range books {
		items = append(items, toBookResp(b))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListMine handles GET /v1/librarian/books. Librarian only; returns the
// caller's own books, drafts included.
func (h *BookHandler) ListMine(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := policy.Authorize(id, policy.ActionListOwnBooks, policy.Resource{OwnerEmail: id.Email}); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	books, err := h.Books.ListByLibrarian(ctx, id.Email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	items := make([]bookResp, 0, len(books))
	for _, b := range books {
		items = append(items, toBookResp(b))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Update handles PATCH /v1/books/:id. Only the owning librarian may
// change a listing; non-owners get a uniform forbidden.
func (h *BookHandler) Update(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || bookID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid book id"})
	}
	var req bookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Books.GetByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "book not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := policy.Authorize(id, policy.ActionUpdateBook, policy.Resource{OwnerEmail: b.LibrarianEmail}); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if req.Title != "" {
		b.Title = req.Title
	}
	if req.Author != "" {
		b.Author = req.Author
	}
	if req.Description != "" {
		b.Description = req.Description
	}
	if req.PriceCents != 0 {
		b.PriceCents = req.PriceCents
	}
	if req.Status != "" {
		status, ok := parseBookStatus(req.Status)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be draft or published"})
		}
		b.Status = status
	}
	if err := h.Books.Update(ctx, &b); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toBookResp(b)})
}

// Delete handles DELETE /v1/books/:id. Admin only. Orders referencing
// the book and the book itself are removed in one transaction, so a
// failure never leaves orphaned orders pointing at a missing book.
func (h *BookHandler) Delete(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := policy.Authorize(id, policy.ActionDeleteBook, policy.Resource{}); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	bookID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || bookID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid book id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	tx, err := h.Books.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store unavailable"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	removed, err := h.Orders.DeleteByBookTx(ctx, tx, bookID)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store unavailable"})
	}
	if err := h.Books.DeleteTx(ctx, tx, bookID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "book not found"})
		}
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store unavailable"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store unavailable"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{"deleted_orders": removed})
}
