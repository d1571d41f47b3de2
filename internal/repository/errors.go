// Package repository implements data access over the MySQL store using
// hand-written SQL. Sentinel errors defined here let handlers translate
// store outcomes into distinct HTTP responses without inspecting SQL
// error strings themselves.
package repository

import "errors"

// ErrNotFound is returned when a referenced row does not exist. Handlers
// translate it into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when a registration hits the unique email
// index. Handlers translate it into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrConflict is returned when an operation cannot proceed because of the
// current state of the row, such as settling a cancelled order. Handlers
// translate it into HTTP 409.
var ErrConflict = errors.New("conflict")
