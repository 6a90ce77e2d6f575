package proto

import "github.com/shopspring/decimal"

// CartItem is one line of the cart. The unit price is read from the catalog.
type CartItem struct {
	ProductId string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type SaleTotals struct {
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountApplied decimal.Decimal `json:"discountApplied"`
	TaxableBase     decimal.Decimal `json:"taxableBase"`
	TaxAmount       decimal.Decimal `json:"taxAmount"`
	Total           decimal.Decimal `json:"total"`
	CashReceived    decimal.Decimal `json:"cashReceived"`
	Change          decimal.Decimal `json:"change"`
}

type SaleItem struct {
	ProductId string          `json:"productId"`
	Sku       string          `json:"sku"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

type Sale struct {
	Id            string      `json:"id"`
	Number        string      `json:"number"`
	BusinessDay   string      `json:"businessDay"`
	UserId        string      `json:"userId"`
	CustomerId    string      `json:"customerId"`
	PaymentMethod string      `json:"paymentMethod"`
	TaxApplied    bool        `json:"taxApplied"`
	Totals        *SaleTotals `json:"totals"`
	Status        string      `json:"status"`
	Items         []*SaleItem `json:"items"`
	CreatedAt     int64       `json:"createdAt"`
	VoidedAt      int64       `json:"voidedAt"`
	VoidedBy      string      `json:"voidedBy"`
}

type QuoteRequest struct {
	Items         []*CartItem     `json:"items"`
	Discount      decimal.Decimal `json:"discount"`
	TaxInclusive  bool            `json:"taxInclusive"`
	PaymentMethod string          `json:"paymentMethod"`
	CashReceived  decimal.Decimal `json:"cashReceived"`
}

type QuoteResponse struct {
	Lines  []*SaleItem `json:"lines"`
	Totals *SaleTotals `json:"totals"`
	// Shortfall is the cash still owed, zero when the payment covers the total.
	Shortfall decimal.Decimal `json:"shortfall"`
}

type CheckoutRequest struct {
	Items         []*CartItem     `json:"items"`
	Discount      decimal.Decimal `json:"discount"`
	TaxInclusive  bool            `json:"taxInclusive"`
	PaymentMethod string          `json:"paymentMethod"`
	CashReceived  decimal.Decimal `json:"cashReceived"`
	CustomerId    string          `json:"customerId"`
}

type CheckoutResponse struct {
	Sale *Sale `json:"sale"`
	// Receipt is the printable ticket.
	Receipt string `json:"receipt"`
	// LowStock lists products that reached their threshold with this sale.
	LowStock []*StockLevel `json:"lowStock"`
}

type GetSaleRequest struct {
	SaleId string `json:"saleId"`
}

type GetSaleResponse struct {
	Sale *Sale `json:"sale"`
}

// ListSalesRequest lists one business day. Day is yyyymmdd; empty means today.
type ListSalesRequest struct {
	Day string `json:"day"`
}

type ListSalesResponse struct {
	Day   string  `json:"day"`
	Sales []*Sale `json:"sales"`
}

type VoidSaleRequest struct {
	SaleId string `json:"saleId"`
}

type VoidSaleResponse struct {
	Sale *Sale `json:"sale"`
}

type DailySummaryRequest struct {
	Day string `json:"day"`
}

type MethodSummary struct {
	Method   string          `json:"method"`
	Count    int             `json:"count"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

type DailySummaryResponse struct {
	Day          string           `json:"day"`
	SalesCount   int              `json:"salesCount"`
	VoidedCount  int              `json:"voidedCount"`
	Subtotal     decimal.Decimal  `json:"subtotal"`
	Discount     decimal.Decimal  `json:"discount"`
	Tax          decimal.Decimal  `json:"tax"`
	Total        decimal.Decimal  `json:"total"`
	ExpectedCash decimal.Decimal  `json:"expectedCash"`
	ByMethod     []*MethodSummary `json:"byMethod"`
}
