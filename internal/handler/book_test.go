package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"bookcourier/internal/model"
	"bookcourier/internal/repository"
)

func TestDeleteBookCascade(t *testing.T) {
	asAdmin := func(c echo.Context) {
		asIdentity("eve@example.com", model.RoleAdmin)(c)
		c.SetParamNames("id")
		c.SetParamValues("5")
	}

	t.Run("orders go first, then the book, in one committed transaction", func(t *testing.T) {
		rec := &txRecorder{}
		books := &mockBookStore{db: newStubDB(rec)}
		orders := new(mockBookOrders)

		var calls []string
		orders.On("DeleteByBookTx", mock.Anything, mock.Anything, uint64(5)).
			Run(func(mock.Arguments) { calls = append(calls, "orders") }).
			Return(int64(2), nil)
		books.On("DeleteTx", mock.Anything, mock.Anything, uint64(5)).
			Run(func(mock.Arguments) { calls = append(calls, "book") }).
			Return(nil)

		h := NewBookHandler(books, orders)
		res := doJSON(t, h.Delete, http.MethodDelete, "/v1/books/5", "", asAdmin)

		assert.Equal(t, http.StatusOK, res.Code)
		assert.Contains(t, res.Body.String(), `"deleted_orders":2`)
		assert.Equal(t, []string{"orders", "book"}, calls)
		assert.Equal(t, 1, rec.commits)
		assert.Equal(t, 0, rec.rollbacks)
	})

	t.Run("missing book rolls the whole cascade back", func(t *testing.T) {
		rec := &txRecorder{}
		books := &mockBookStore{db: newStubDB(rec)}
		orders := new(mockBookOrders)

		orders.On("DeleteByBookTx", mock.Anything, mock.Anything, uint64(5)).Return(int64(0), nil)
		books.On("DeleteTx", mock.Anything, mock.Anything, uint64(5)).Return(repository.ErrNotFound)

		h := NewBookHandler(books, orders)
		res := doJSON(t, h.Delete, http.MethodDelete, "/v1/books/5", "", asAdmin)

		assert.Equal(t, http.StatusNotFound, res.Code)
		assert.Equal(t, 0, rec.commits)
		assert.Equal(t, 1, rec.rollbacks)
	})

	t.Run("store failure mid-cascade commits nothing", func(t *testing.T) {
		rec := &txRecorder{}
		books := &mockBookStore{db: newStubDB(rec)}
		orders := new(mockBookOrders)

		orders.On("DeleteByBookTx", mock.Anything, mock.Anything, uint64(5)).Return(int64(3), nil)
		books.On("DeleteTx", mock.Anything, mock.Anything, uint64(5)).Return(errors.New("connection reset"))

		h := NewBookHandler(books, orders)
		res := doJSON(t, h.Delete, http.MethodDelete, "/v1/books/5", "", asAdmin)

		assert.Equal(t, http.StatusServiceUnavailable, res.Code)
		assert.Equal(t, 0, rec.commits)
		assert.Equal(t, 1, rec.rollbacks)
	})

	t.Run("non-admin never reaches the store", func(t *testing.T) {
		rec := &txRecorder{}
		books := &mockBookStore{db: newStubDB(rec)}
		orders := new(mockBookOrders)

		h := NewBookHandler(books, orders)
		res := doJSON(t, h.Delete, http.MethodDelete, "/v1/books/5", "", func(c echo.Context) {
			asIdentity("carol@example.com", model.RoleLibrarian)(c)
			c.SetParamNames("id")
			c.SetParamValues("5")
		})

		assert.Equal(t, http.StatusForbidden, res.Code)
		orders.AssertNotCalled(t, "DeleteByBookTx", mock.Anything, mock.Anything, mock.Anything)
		assert.Equal(t, 0, rec.commits)
		assert.Equal(t, 0, rec.rollbacks)
	})
}
