package calculator

import (
	"sort"

	"github.com/shopspring/decimal"
)

// SaleForSummary is the minimal view of a completed sale needed for the daily close.
type SaleForSummary struct {
	PaymentMethod PaymentMethod
	Totals        SaleTotals
	Voided        bool
}

// MethodSummary aggregates the sales settled with one payment method.
type MethodSummary struct {
	Method   PaymentMethod   `json:"method"`
	Count    int             `json:"count"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// DailySummary is the cash-drawer report for one business day.
type DailySummary struct {
	SalesCount  int             `json:"sales_count"`
	VoidedCount int             `json:"voided_count"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Discount    decimal.Decimal `json:"discount"`
	Tax         decimal.Decimal `json:"tax"`
	Total       decimal.Decimal `json:"total"`

	// ExpectedCash is what should be in the drawer from cash sales: tendered cash minus change given.
	ExpectedCash decimal.Decimal `json:"expected_cash"`

	// ByMethod is sorted by payment method name.
	ByMethod []MethodSummary `json:"by_method"`
}

// Summarize aggregates a day's sales. Voided sales are counted but contribute no amounts.
func Summarize(sales []SaleForSummary) DailySummary {
	summary := DailySummary{
		Subtotal:     decimal.Zero,
		Discount:     decimal.Zero,
		Tax:          decimal.Zero,
		Total:        decimal.Zero,
		ExpectedCash: decimal.Zero,
	}

	byMethod := make(map[PaymentMethod]*MethodSummary)

	for _, sale := range sales {
		if sale.Voided {
			summary.VoidedCount++
			continue
		}
		summary.SalesCount++

		t := sale.Totals
		summary.Subtotal = summary.Subtotal.Add(t.Subtotal)
		summary.Discount = summary.Discount.Add(t.DiscountApplied)
		summary.Tax = summary.Tax.Add(t.TaxAmount)
		summary.Total = summary.Total.Add(t.Total)

		if sale.PaymentMethod == PaymentCash {
			// Change is negative only for accepted shortfalls, which still leave just the received cash.
			given := decimal.Max(t.Change, decimal.Zero)
			summary.ExpectedCash = summary.ExpectedCash.Add(t.CashReceived.Sub(given))
		}

		m, ok := byMethod[sale.PaymentMethod]
		if !ok {
			m = &MethodSummary{
				Method:   sale.PaymentMethod,
				Subtotal: decimal.Zero,
				Discount: decimal.Zero,
				Tax:      decimal.Zero,
				Total:    decimal.Zero,
			}
			byMethod[sale.PaymentMethod] = m
		}
		m.Count++
		m.Subtotal = m.Subtotal.Add(t.Subtotal)
		m.Discount = m.Discount.Add(t.DiscountApplied)
		m.Tax = m.Tax.Add(t.TaxAmount)
		m.Total = m.Total.Add(t.Total)
	}

	for _, m := range byMethod {
		summary.ByMethod = append(summary.ByMethod, *m)
	}
	sort.Slice(summary.ByMethod, func(i, j int) bool {
		return summary.ByMethod[i].Method < summary.ByMethod[j].Method
	})

	return summary
}
