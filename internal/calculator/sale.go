// Package calculator computes sale totals for a checkout.
//
// Everything here is pure: no I/O, no logging, no shared state. Callers own
// persistence and presentation of the results.
package calculator

import (
	"github.com/shopspring/decimal"
)

// moneyPlaces is the number of decimal places every derived amount is rounded to.
const moneyPlaces = 2

// PaymentMethod identifies how the customer settles a sale.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentCredit   PaymentMethod = "credit"
)

// Valid reports whether m is one of the supported payment methods.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentTransfer, PaymentCredit:
		return true
	}
	return false
}

// TaxMode selects how the tax rate is applied when tax is enabled for a sale.
type TaxMode string

const (
	// TaxAddedOnDiscounted adds tax on top of (subtotal - discount). This is the default.
	TaxAddedOnDiscounted TaxMode = "added"
	// TaxAddedOnGross adds tax computed on the undiscounted subtotal.
	TaxAddedOnGross TaxMode = "gross"
	// TaxEmbedded treats listed prices as already containing tax and only breaks it out.
	TaxEmbedded TaxMode = "embedded"
)

// Valid reports whether m is a known tax mode. The empty mode is valid and means TaxAddedOnDiscounted.
func (m TaxMode) Valid() bool {
	switch m {
	case "", TaxAddedOnDiscounted, TaxAddedOnGross, TaxEmbedded:
		return true
	}
	return false
}

// TaxPolicy is the configured tax regime. Rate is a fraction (0.18 for 18% IGV).
type TaxPolicy struct {
	Rate decimal.Decimal
	Mode TaxMode
}

// LineItem is a single cart line as read from the cart.
type LineItem struct {
	ProductRef string
	UnitPrice  decimal.Decimal
	Quantity   int
}

// SaleInput is everything Compute needs for one checkout attempt.
type SaleInput struct {
	Items    []LineItem
	Discount decimal.Decimal
	Tax      TaxPolicy

	// TaxInclusive is the IGV toggle on the checkout screen. When false no tax is charged.
	TaxInclusive bool

	PaymentMethod PaymentMethod

	// CashReceived is the amount tendered. Only meaningful for cash payments.
	CashReceived decimal.Decimal

	// StrictPayment makes Compute return an *InsufficientPaymentError when cash
	// tendered is below the total. Totals are returned either way.
	StrictPayment bool
}

// SaleTotals is the derived breakdown of a sale. All amounts have two decimal places.
type SaleTotals struct {
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountApplied decimal.Decimal `json:"discount_applied"`
	TaxableBase     decimal.Decimal `json:"taxable_base"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	Total           decimal.Decimal `json:"total"`
	CashReceived    decimal.Decimal `json:"cash_received"`

	// Change is max(0, cash received - total) for cash sales. It is negative
	// only alongside an *InsufficientPaymentError. Always zero for other
	// payment methods.
	Change decimal.Decimal `json:"change"`

	shortfall decimal.Decimal
}

// Shortfall returns how much cash is missing, or zero when the payment covers the total.
func (t SaleTotals) Shortfall() decimal.Decimal {
	return t.shortfall
}

// Compute calculates the totals for a sale.
//
// Subtotal = Σ(unit_price × quantity), taxable base = subtotal - discount,
// and with tax enabled in the default mode tax = base × rate and total = base + tax.
// Each derived amount is rounded once, from exact intermediate values.
//
// A discount above the subtotal is rejected rather than clamped. When the
// payment is short and StrictPayment is set, the returned totals are complete
// and the error is an *InsufficientPaymentError carrying the shortfall.
func Compute(in SaleInput) (SaleTotals, error) {
	if err := validate(in); err != nil {
		return SaleTotals{}, err
	}

	subtotal := decimal.Zero
	for _, item := range in.Items {
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	if in.Discount.GreaterThan(subtotal) {
		return SaleTotals{}, invalidInput("discount", "discount %s exceeds subtotal %s",
			in.Discount.StringFixed(moneyPlaces), subtotal.StringFixed(moneyPlaces))
	}

	base := subtotal.Sub(in.Discount)
	tax, total := applyTax(subtotal, base, in)

	totals := SaleTotals{
		Subtotal:        round(subtotal),
		DiscountApplied: round(in.Discount),
		TaxableBase:     round(base),
		TaxAmount:       round(tax),
		Total:           round(total),
		CashReceived:    decimal.Zero,
		Change:          decimal.Zero,
		shortfall:       decimal.Zero,
	}

	if in.PaymentMethod != PaymentCash {
		return totals, nil
	}

	totals.CashReceived = round(in.CashReceived)
	diff := totals.CashReceived.Sub(totals.Total)
	if !diff.IsNegative() {
		totals.Change = diff
		return totals, nil
	}

	totals.shortfall = diff.Neg()
	if !in.StrictPayment {
		return totals, nil
	}
	totals.Change = diff
	return totals, &InsufficientPaymentError{
		Total:     totals.Total,
		Received:  totals.CashReceived,
		Shortfall: totals.shortfall,
	}
}

// applyTax returns unrounded tax and total for the configured mode.
func applyTax(subtotal, base decimal.Decimal, in SaleInput) (tax, total decimal.Decimal) {
	if !in.TaxInclusive {
		return decimal.Zero, base
	}
	rate := in.Tax.Rate
	switch in.Tax.Mode {
	case TaxEmbedded:
		tax = base.Mul(rate).Div(decimal.NewFromInt(1).Add(rate))
		return tax, base
	case TaxAddedOnGross:
		if base.IsZero() {
			return decimal.Zero, base
		}
		tax = subtotal.Mul(rate)
		return tax, base.Add(tax)
	default:
		tax = base.Mul(rate)
		return tax, base.Add(tax)
	}
}

func validate(in SaleInput) error {
	for i, item := range in.Items {
		if item.Quantity <= 0 {
			return invalidInput("quantity", "item %d (%s): quantity must be positive, got %d", i, item.ProductRef, item.Quantity)
		}
		if item.UnitPrice.IsNegative() {
			return invalidInput("unit_price", "item %d (%s): unit price must not be negative", i, item.ProductRef)
		}
	}
	if in.Discount.IsNegative() {
		return invalidInput("discount", "discount must not be negative")
	}
	if in.Tax.Rate.IsNegative() {
		return invalidInput("tax_rate", "tax rate must not be negative")
	}
	if !in.Tax.Mode.Valid() {
		return invalidInput("tax_mode", "unknown tax mode %q", in.Tax.Mode)
	}
	if !in.PaymentMethod.Valid() {
		return invalidInput("payment_method", "unknown payment method %q", in.PaymentMethod)
	}
	if in.CashReceived.IsNegative() {
		return invalidInput("cash_received", "cash received must not be negative")
	}
	return nil
}

func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(moneyPlaces)
}
