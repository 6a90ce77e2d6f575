// Package events publishes domain events for downstream consumers such as
// accounting exports and restocking alerts.
package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/tiendapos/internal/models"
)

const (
	SaleCompletedRoutingKey = "sale.completed.v1"
	SaleVoidedRoutingKey    = "sale.voided.v1"
	StockLowRoutingKey      = "stock.low.v1"
)

// Publisher delivers events. Failures are reported to the caller, which
// decides whether they matter; checkout never fails because of them.
type Publisher interface {
	PublishSale(ctx context.Context, ev SaleEvent) error
	PublishStockLow(ctx context.Context, ev StockLow) error
	Close() error
}

type SaleLine struct {
	ProductID string          `json:"product_id"`
	SKU       string          `json:"sku"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// SaleEvent is published when a sale completes and again when it is voided.
type SaleEvent struct {
	EventType     string          `json:"event_type"`
	BusinessID    string          `json:"business_id"`
	SaleID        string          `json:"sale_id"`
	Number        string          `json:"number"`
	BusinessDay   string          `json:"business_day"`
	PaymentMethod string          `json:"payment_method"`
	Total         decimal.Decimal `json:"total"`
	Lines         []SaleLine      `json:"lines"`
	Timestamp     time.Time       `json:"timestamp"`
}

// RoutingKey selects the topic for the event type.
func (e SaleEvent) RoutingKey() string {
	if e.EventType == "SaleVoided" {
		return SaleVoidedRoutingKey
	}
	return SaleCompletedRoutingKey
}

// StockLow is published when a change leaves a product at or below its threshold.
type StockLow struct {
	EventType  string    `json:"event_type"`
	BusinessID string    `json:"business_id"`
	ProductID  string    `json:"product_id"`
	SKU        string    `json:"sku"`
	Name       string    `json:"name"`
	Stock      int       `json:"stock"`
	MinStock   int       `json:"min_stock"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewSaleEvent builds the event for a sale in its current status.
func NewSaleEvent(sale *models.Sale) SaleEvent {
	ev := SaleEvent{
		EventType:     "SaleCompleted",
		BusinessID:    sale.BusinessID,
		SaleID:        sale.ID,
		Number:        sale.Number,
		BusinessDay:   sale.BusinessDay,
		PaymentMethod: string(sale.PaymentMethod),
		Total:         sale.Totals.Total,
		Timestamp:     time.Unix(sale.CreatedAt, 0).UTC(),
	}
	if sale.Status == models.SaleVoided {
		ev.EventType = "SaleVoided"
		ev.Timestamp = time.Unix(sale.VoidedAt, 0).UTC()
	}
	for _, item := range sale.Items {
		ev.Lines = append(ev.Lines, SaleLine{
			ProductID: item.ProductID,
			SKU:       item.SKU,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return ev
}

// NewStockLow builds the alert for a product's stock level.
func NewStockLow(businessID string, level models.StockLevel, at time.Time) StockLow {
	return StockLow{
		EventType:  "StockLow",
		BusinessID: businessID,
		ProductID:  level.ProductID,
		SKU:        level.SKU,
		Name:       level.Name,
		Stock:      level.Stock,
		MinStock:   level.MinStock,
		Timestamp:  at.UTC(),
	}
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishSale(context.Context, SaleEvent) error    { return nil }
func (NopPublisher) PublishStockLow(context.Context, StockLow) error { return nil }
func (NopPublisher) Close() error                                    { return nil }
