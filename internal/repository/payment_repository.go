package repository

import (
	"context"
	"database/sql"
	"strings"

	"bookcourier/internal/model"
)

// PaymentRepo provides access to the payments table. Inserts happen only
// inside the settlement transaction so a payment row and its order's
// paid status commit or roll back together.
type PaymentRepo struct{ db *sql.DB }

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentColumns = "id,order_id,payer_email,amount_cents,method,created_at"

// CreateTx inserts a payment within the settlement transaction and
// populates the generated ID and timestamp.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO payments (order_id, payer_email, amount_cents, method) VALUES (?,?,?,?)",
		p.OrderID, strings.ToLower(p.PayerEmail), p.AmountCents, p.Method)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return tx.QueryRowContext(ctx,
		"SELECT created_at FROM payments WHERE id=?", p.ID).Scan(&p.CreatedAt)
}

// GetByOrderTx fetches the payment for an order inside a transaction.
// Used by the settlement retry path to return the already-recorded
// payment instead of inserting a duplicate.
func (r *PaymentRepo) GetByOrderTx(ctx context.Context, tx *sql.Tx, orderID uint64) (model.Payment, error) {
	var p model.Payment
	err := tx.QueryRowContext(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE order_id=? ORDER BY created_at ASC LIMIT 1",
		orderID).Scan(&p.ID, &p.OrderID, &p.PayerEmail, &p.AmountCents, &p.Method, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	return p, err
}

// ListByPayer returns a user's own payments, newest first.
func (r *PaymentRepo) ListByPayer(ctx context.Context, email string) ([]model.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE payer_email=? ORDER BY created_at DESC",
		strings.ToLower(email))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPayments(rows)
}

// ListAll returns every payment, newest first. Admin-only at the policy
// layer.
func (r *PaymentRepo) ListAll(ctx context.Context) ([]model.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+paymentColumns+" FROM payments ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPayments(rows)
}

func scanPayments(rows *sql.Rows) ([]model.Payment, error) {
	payments := make([]model.Payment, 0)
	for rows.Next() {
		var p model.Payment
		if err := rows.Scan(&p.ID, &p.OrderID, &p.PayerEmail, &p.AmountCents, &p.Method, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
