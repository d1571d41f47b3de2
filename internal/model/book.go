package model

import "time"

// BookStatus is the publication state of a listing. Only published books
// appear in the public catalog and only published books can be ordered.
type BookStatus string

const (
	BookDraft     BookStatus = "draft"
	BookPublished BookStatus = "published"
)

// Book mirrors the `books` table. A book is owned by the librarian who
// created it, identified by email.
type Book struct {
	ID             uint64     // books.id
	LibrarianEmail string     // books.librarian_email (owner)
	Title          string     // books.title
	Author         string     // books.author
	Description    string     // books.description
	PriceCents     uint32     // books.price_cents
	Status         BookStatus // books.status
	CreatedAt      time.Time  // books.created_at
	UpdatedAt      time.Time  // books.updated_at
}
