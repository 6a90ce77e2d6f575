// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/mmynk/tiendapos/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist in the caller's business.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateCode is returned when a sale number or SKU is already taken.
	// Sequence allocation retries on it.
	ErrDuplicateCode = errors.New("code already taken")

	// ErrConflict is returned when another unique field collides, such as an
	// email, category name or customer document number.
	ErrConflict = errors.New("already exists")

	// ErrInsufficientStock is returned when a change would take stock below zero.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrAlreadyVoided is returned when voiding a sale twice.
	ErrAlreadyVoided = errors.New("sale already voided")
)

// UserStore persists businesses and their users.
type UserStore interface {
	CreateBusiness(ctx context.Context, business *models.Business) error
	GetBusiness(ctx context.Context, businessID string) (*models.Business, error)

	// CreateUser returns ErrConflict when the email is taken.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context, businessID string) ([]*models.User, error)
}

// CatalogStore persists categories, products and customers.
type CatalogStore interface {
	CreateCategory(ctx context.Context, category *models.Category) error
	ListCategories(ctx context.Context, businessID string) ([]*models.Category, error)
	UpdateCategory(ctx context.Context, category *models.Category) error
	// DeleteCategory detaches the category's products before removing it.
	DeleteCategory(ctx context.Context, businessID, categoryID string) error

	// LastSKUValue returns the highest allocated SKU value, or NULL when the
	// business has none yet.
	LastSKUValue(ctx context.Context, businessID string) (sql.NullInt64, error)
	// CreateProduct returns ErrDuplicateCode when the SKU is taken.
	CreateProduct(ctx context.Context, product *models.Product) error
	GetProduct(ctx context.Context, businessID, productID string) (*models.Product, error)
	// GetProducts returns the requested products keyed by ID. Missing IDs are omitted.
	GetProducts(ctx context.Context, businessID string, productIDs []string) (map[string]*models.Product, error)
	ListProducts(ctx context.Context, businessID string, filter models.ProductFilter) ([]*models.Product, error)
	// UpdateProduct updates descriptive fields and price. Stock is changed only
	// through sales and adjustments.
	UpdateProduct(ctx context.Context, product *models.Product) error
	SetProductActive(ctx context.Context, businessID, productID string, active bool) error

	// CreateCustomer returns ErrConflict when the document number is taken.
	CreateCustomer(ctx context.Context, customer *models.Customer) error
	GetCustomer(ctx context.Context, businessID, customerID string) (*models.Customer, error)
	ListCustomers(ctx context.Context, businessID, search string) ([]*models.Customer, error)
	UpdateCustomer(ctx context.Context, customer *models.Customer) error
}

// SaleStore persists sales.
type SaleStore interface {
	// LastSaleNumber returns the highest sale sequence value for the business
	// day, or NULL when no numbered sale exists yet.
	LastSaleNumber(ctx context.Context, businessID, day string) (sql.NullInt64, error)

	// CreateSale inserts the sale and its items, decrements stock and records a
	// movement per item in one transaction. It returns ErrDuplicateCode when
	// the sale number is taken and ErrInsufficientStock when any product is
	// short; nothing is written in either case. The returned levels are the
	// stock of every product touched, after the sale.
	CreateSale(ctx context.Context, sale *models.Sale) ([]models.StockLevel, error)

	GetSale(ctx context.Context, businessID, saleID string) (*models.Sale, error)
	ListSalesByDay(ctx context.Context, businessID, day string) ([]*models.Sale, error)

	// VoidSale marks the sale voided and restores its stock in one transaction.
	VoidSale(ctx context.Context, businessID, saleID, userID string, voidedAt int64) (*models.Sale, error)
}

// StockStore persists stock adjustments and the movement ledger.
type StockStore interface {
	// AdjustStock applies movement.Delta to the product and appends the
	// movement. It returns ErrInsufficientStock when stock would go below zero.
	AdjustStock(ctx context.Context, movement *models.StockMovement) (models.StockLevel, error)
	ListMovements(ctx context.Context, businessID, productID string, limit int) ([]*models.StockMovement, error)
	ListLowStock(ctx context.Context, businessID string) ([]*models.Product, error)
}

// Store defines the full set of storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the service layer.
type Store interface {
	UserStore
	CatalogStore
	SaleStore
	StockStore

	// Close releases any resources held by the store.
	Close() error
}
