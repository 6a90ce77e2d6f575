package models

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/tiendapos/internal/calculator"
)

// SaleStatus tracks whether a sale still counts toward the day's totals.
type SaleStatus string

const (
	SaleCompleted SaleStatus = "completed"
	SaleVoided    SaleStatus = "voided"
)

// Sale is a completed checkout.
type Sale struct {
	ID         string
	BusinessID string

	// Number is the human-facing sale number, unique per business and day.
	Number string

	// SequenceValue is the numeric part of Number, or 0 for a timestamp fallback.
	SequenceValue int64

	// BusinessDay is the yyyymmdd bucket the sale number belongs to.
	BusinessDay string

	// UserID is the cashier who rang up the sale.
	UserID string

	// CustomerID is required for credit sales and optional otherwise.
	CustomerID string

	PaymentMethod calculator.PaymentMethod

	// TaxApplied records whether tax was charged on this sale.
	TaxApplied bool

	Totals calculator.SaleTotals

	Status SaleStatus

	Items []SaleItem

	CreatedAt int64

	// VoidedAt and VoidedBy are set once the sale is voided.
	VoidedAt int64
	VoidedBy string
}

// SaleItem is one line of a sale, frozen at the price charged.
type SaleItem struct {
	ID     string
	SaleID string

	ProductID string
	SKU       string
	Name      string

	UnitPrice decimal.Decimal
	Quantity  int

	// LineTotal is UnitPrice times Quantity before discount and tax.
	LineTotal decimal.Decimal
}
