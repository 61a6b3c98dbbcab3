// Package user holds the minimal user model the ordering core depends on.
// Account management itself (registration, credentials) lives outside this
// service; orders only reference users.
package user

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a referenced user does not exist.
var ErrNotFound = errors.New("user not found")

// Role distinguishes customers from back-office staff.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Address is a user's stored default delivery address.
type Address struct {
	Street string
	City   string
	State  string
	Zip    string
}

// User is a referenced account.
type User struct {
	ID      string
	Name    string
	Email   string
	Phone   string
	Role    Role
	Address Address
	Active  bool
}

// HasAddress reports whether the stored address is usable as an order
// delivery fallback.
func (u *User) HasAddress() bool {
	return u.Address.Street != ""
}

// ListPage pages through user listings.
type ListPage struct {
	Role   Role
	Limit  int
	Offset int
}

// Repository defines the user lookups the ordering core needs.
type Repository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context, page ListPage) ([]User, int, error)
	SetActive(ctx context.Context, id string, active bool) error
}
