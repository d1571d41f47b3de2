package model

import "time"

// Order mirrors the `orders` table. The owning librarian's email is
// denormalized onto the row so librarian queries need no join through
// books, and so orders remain queryable while a book delete cascade is
// in flight.
type Order struct {
	ID             uint64        // orders.id
	BookID         uint64        // orders.book_id
	UserEmail      string        // orders.user_email (purchaser)
	LibrarianEmail string        // orders.librarian_email (denormalized owner)
	Status         OrderStatus   // orders.status
	PaymentStatus  PaymentStatus // orders.payment_status
	CreatedAt      time.Time     // orders.created_at
	UpdatedAt      time.Time     // orders.updated_at
}
