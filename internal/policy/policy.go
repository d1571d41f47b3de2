// Package policy is the single source of truth for authorization
// decisions. Handlers derive an identity once (from the JWT middleware),
// load the target resource, and ask Authorize before mutating anything.
// Denials are uniform: the error carries no information about the
// resource, so a caller with no relationship to it learns nothing.
package policy

import (
	"errors"

	"bookcourier/internal/auth"
	"bookcourier/internal/model"
)

// Action enumerates every policy-gated operation the transport exposes.
type Action int

const (
	ActionListUsers Action = iota
	ActionViewUser
	ActionSetUserRole
	ActionCreateBook
	ActionListOwnBooks
	ActionUpdateBook
	ActionDeleteBook
	ActionCreateOrder
	ActionListUserOrders
	ActionListLibrarianOrders
	ActionViewOrder
	ActionSetOrderStatus
	ActionCancelOrder
	ActionSettlePayment
	ActionListOwnPayments
	ActionListAllPayments
)

// Resource carries the ownership attributes of the target. For orders,
// OwnerEmail is the purchaser and LibrarianEmail the owning librarian;
// for books and users only OwnerEmail is set.
type Resource struct {
	OwnerEmail     string
	LibrarianEmail string
}

// ErrDenied is returned for every denial, regardless of reason.
var ErrDenied = errors.New("forbidden")

// Authorize decides whether the identity may perform the action on the
// resource. A zero identity (no verified credential) is denied for every
// action; the register and public catalog endpoints never reach here.
func Authorize(id auth.Identity, action Action, res Resource) error {
	if id.Email == "" || !id.Role.Valid() {
		return ErrDenied
	}
	switch action {
	case ActionListUsers, ActionSetUserRole, ActionDeleteBook, ActionListAllPayments:
		if id.Role != model.RoleAdmin {
			return ErrDenied
		}
	case ActionViewUser:
		if id.Role != model.RoleAdmin && id.Email != res.OwnerEmail {
			return ErrDenied
		}
	case ActionCreateBook, ActionListOwnBooks:
		if id.Role != model.RoleLibrarian {
			return ErrDenied
		}
	case ActionUpdateBook:
		if id.Role != model.RoleLibrarian || id.Email != res.OwnerEmail {
			return ErrDenied
		}
	case ActionCreateOrder, ActionSettlePayment, ActionListOwnPayments:
		if id.Role != model.RoleUser {
			return ErrDenied
		}
	case ActionListUserOrders:
		if id.Email != res.OwnerEmail {
			return ErrDenied
		}
	case ActionListLibrarianOrders:
		if id.Role != model.RoleLibrarian {
			return ErrDenied
		}
	case ActionViewOrder:
		if id.Role == model.RoleAdmin {
			return nil
		}
		if id.Email != res.OwnerEmail && id.Email != res.LibrarianEmail {
			return ErrDenied
		}
	case ActionSetOrderStatus:
		if id.Role != model.RoleLibrarian || id.Email != res.LibrarianEmail {
			return ErrDenied
		}
	case ActionCancelOrder:
		if id.Email != res.OwnerEmail && id.Email != res.LibrarianEmail {
			return ErrDenied
		}
	default:
		return ErrDenied
	}
	return nil
}
