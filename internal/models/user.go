package models

import (
	"time"

	"github.com/google/uuid"
)

// Role controls what a user may do inside their business.
type Role string

const (
	// RoleAdmin manages the catalog, users and stock and may void sales.
	RoleAdmin Role = "admin"
	// RoleCashier rings up sales and reads the catalog.
	RoleCashier Role = "cashier"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleCashier
}

// Business is the tenant that owns users, catalog and sales.
type Business struct {
	ID string

	Name string

	// TaxID is the taxpayer registration number printed on receipts (RUC).
	TaxID string

	Address string

	CreatedAt int64
}

// NewBusiness creates a business with a generated ID.
func NewBusiness(name, taxID, address string) *Business {
	return &Business{
		ID:        uuid.New().String(),
		Name:      name,
		TaxID:     taxID,
		Address:   address,
		CreatedAt: time.Now().Unix(),
	}
}

// User represents a registered account working for a business.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	BusinessID string

	// Email is the login identifier, unique across all businesses.
	Email string

	DisplayName string

	// PasswordHash is the bcrypt hash of the password. Never returned by the API.
	PasswordHash string

	Role Role

	CreatedAt int64
	UpdatedAt int64
}

// NewUser creates a user with a generated ID and current timestamps.
func NewUser(businessID, email, displayName, passwordHash string, role Role) *User {
	now := time.Now().Unix()
	return &User{
		ID:           uuid.New().String(),
		BusinessID:   businessID,
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
