package models

import "github.com/shopspring/decimal"

// Category groups products for browsing and reporting.
type Category struct {
	ID         string
	BusinessID string

	// Name is unique within the business.
	Name string

	CreatedAt int64
}

// Product is a sellable catalog entry with its on-hand stock.
type Product struct {
	ID         string
	BusinessID string

	// CategoryID is empty for uncategorized products.
	CategoryID string

	// SKU is unique within the business. Allocated as SKU-000001 when not supplied.
	SKU string

	// SKUValue is the numeric part of an allocated SKU, or 0 when the SKU is
	// custom or a timestamp fallback. The next SKU is derived from its maximum.
	SKUValue int64

	Name string

	Price decimal.Decimal

	// Stock is the quantity on hand. It never goes below zero.
	Stock int

	// MinStock is the low-stock threshold. Zero disables low-stock alerts.
	MinStock int

	// Active products can be sold. Deactivated products stay for sale history.
	Active bool

	CreatedAt int64
	UpdatedAt int64
}

// LowStock reports whether the product is at or below its threshold.
func (p *Product) LowStock() bool {
	return p.MinStock > 0 && p.Stock <= p.MinStock
}

// ProductFilter narrows product listings. The zero value lists active products.
type ProductFilter struct {
	CategoryID string

	// Search matches a case-insensitive substring of the name or SKU.
	Search string

	IncludeInactive bool
}

// Customer is a buyer identified by a tax or identity document.
type Customer struct {
	ID         string
	BusinessID string

	// DocumentNumber is the DNI or RUC, unique within the business.
	DocumentNumber string

	Name  string
	Phone string
	Email string

	CreatedAt int64
}
