package repository

import (
	"context"
	"database/sql"
	"strings"

	"bookcourier/internal/model"
)

// OrderRepo provides access to the orders table. Multi-step mutations
// (settlement, book-delete cascade) run through the Tx variants inside a
// transaction owned by the handler.
type OrderRepo struct{ db *sql.DB }

func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// DB exposes the underlying handle for handlers that open transactions.
func (r *OrderRepo) DB() *sql.DB { return r.db }

const orderColumns = "id,book_id,user_email,librarian_email,status,payment_status,created_at,updated_at"

// Create inserts a new pending/unpaid order and populates the generated
// ID and timestamps on the record.
func (r *OrderRepo) Create(ctx context.Context, o *model.Order) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO orders (book_id, user_email, librarian_email, status, payment_status) VALUES (?,?,?,?,?)",
		o.BookID, strings.ToLower(o.UserEmail), strings.ToLower(o.LibrarianEmail),
		string(o.Status), string(o.PaymentStatus))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM orders WHERE id=?", o.ID).
		Scan(&o.CreatedAt, &o.UpdatedAt)
}

// GetByID fetches a single order.
func (r *OrderRepo) GetByID(ctx context.Context, id uint64) (model.Order, error) {
	var o model.Order
	err := r.db.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE id=? LIMIT 1", id).
		Scan(&o.ID, &o.BookID, &o.UserEmail, &o.LibrarianEmail, &o.Status, &o.PaymentStatus, &o.CreatedAt, &o.UpdatedAt)
	if err == sql.ErrNoRows {
		return o, ErrNotFound
	}
	return o, err
}

// GetByIDForUpdateTx fetches an order inside a transaction with a row
// lock, so settlement can check and flip payment status without racing a
// concurrent settle on the same order.
func (r *OrderRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Order, error) {
	var o model.Order
	err := tx.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE id=? LIMIT 1 FOR UPDATE", id).
		Scan(&o.ID, &o.BookID, &o.UserEmail, &o.LibrarianEmail, &o.Status, &o.PaymentStatus, &o.CreatedAt, &o.UpdatedAt)
	if err == sql.ErrNoRows {
		return o, ErrNotFound
	}
	return o, err
}

// ListByUserEmail returns a purchaser's orders, newest first.
func (r *OrderRepo) ListByUserEmail(ctx context.Context, email string) ([]model.Order, error) {
	return r.list(ctx, "user_email", email)
}

// ListByLibrarianEmail returns the orders on a librarian's books, newest
// first, via the denormalized owner column.
func (r *OrderRepo) ListByLibrarianEmail(ctx context.Context, email string) ([]model.Order, error) {
	return r.list(ctx, "librarian_email", email)
}

func (r *OrderRepo) list(ctx context.Context, column, email string) ([]model.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE "+column+"=? ORDER BY created_at DESC",
		strings.ToLower(email))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	orders := make([]model.Order, 0)
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.BookID, &o.UserEmail, &o.LibrarianEmail, &o.Status, &o.PaymentStatus, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// UpdateStatus persists a lifecycle status the caller has already
// validated against the transition rules.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id uint64, status model.OrderStatus) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE orders SET status=? WHERE id=?", string(status), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM orders WHERE id=?)", id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
	}
	return err
}

// MarkPaidTx flips payment_status to paid within the settlement
// transaction.
func (r *OrderRepo) MarkPaidTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE orders SET payment_status=? WHERE id=?", string(model.PaymentPaid), id)
	return err
}

// DeleteByBookTx removes every order referencing a book inside the
// cascade transaction and returns how many were removed.
func (r *OrderRepo) DeleteByBookTx(ctx context.Context, tx *sql.Tx, bookID uint64) (int64, error) {
	res, err := tx.ExecContext(ctx, "DELETE FROM orders WHERE book_id=?", bookID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
