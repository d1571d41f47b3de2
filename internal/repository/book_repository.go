package repository

import (
	"context"
	"database/sql"
	"strings"

	"bookcourier/internal/model"
)

// BookRepo provides CRUD operations for book listings. Ownership checks
// happen at the policy layer; the repo only scopes queries by the fields
// it is given.
type BookRepo struct{ db *sql.DB }

func NewBookRepo(db *sql.DB) *BookRepo { return &BookRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// spanning books and orders (book-delete cascade).
func (r *BookRepo) DB() *sql.DB { return r.db }

// Create inserts a book and populates its generated ID and timestamps.
func (r *BookRepo) Create(ctx context.Context, b *model.Book) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO books (librarian_email, title, author, description, price_cents, status) VALUES (?,?,?,?,?,?)",
		strings.ToLower(b.LibrarianEmail), b.Title, b.Author, b.Description, b.PriceCents, string(b.Status))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM books WHERE id=?", b.ID).
		Scan(&b.CreatedAt, &b.UpdatedAt)
}

// GetByID fetches a single book.
func (r *BookRepo) GetByID(ctx context.Context, id uint64) (model.Book, error) {
	var b model.Book
	err := r.db.QueryRowContext(ctx,
		"SELECT id,librarian_email,title,author,description,price_cents,status,created_at,updated_at FROM books WHERE id=? LIMIT 1",
		id).Scan(&b.ID, &b.LibrarianEmail, &b.Title, &b.Author, &b.Description, &b.PriceCents, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return b, ErrNotFound
	}
	return b, err
}

// ListPublished returns the public catalog, newest first. A positive
// limit caps the result (the storefront's latest-books strip).
func (r *BookRepo) ListPublished(ctx context.Context, limit int) ([]model.Book, error) {
	q := "SELECT id,librarian_email,title,author,description,price_cents,status,created_at,updated_at FROM books WHERE status=? ORDER BY created_at DESC"
	args := []interface{}{string(model.BookPublished)}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBooks(rows)
}

// ListByLibrarian returns all books owned by a librarian, drafts included.
func (r *BookRepo) ListByLibrarian(ctx context.Context, email string) ([]model.Book, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id,librarian_email,title,author,description,price_cents,status,created_at,updated_at FROM books WHERE librarian_email=? ORDER BY created_at DESC",
		strings.ToLower(email))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBooks(rows)
}

// Update persists the descriptive fields and publication status of a
// book the caller has already loaded and checked ownership on.
func (r *BookRepo) Update(ctx context.Context, b *model.Book) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE books SET title=?, author=?, description=?, price_cents=?, status=? WHERE id=?",
		b.Title, b.Author, b.Description, b.PriceCents, string(b.Status), b.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM books WHERE id=?)", b.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
	}
	return err
}

// DeleteTx removes a book within an existing transaction. The caller is
// responsible for deleting dependent orders first and for commit or
// rollback.
func (r *BookRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx, "DELETE FROM books WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanBooks(rows *sql.Rows) ([]model.Book, error) {
	books := make([]model.Book, 0)
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(&b.ID, &b.LibrarianEmail, &b.Title, &b.Author, &b.Description, &b.PriceCents, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}
