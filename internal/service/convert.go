package service

import (
	"github.com/mmynk/tiendapos/internal/calculator"
	"github.com/mmynk/tiendapos/internal/models"
	pb "github.com/mmynk/tiendapos/pkg/proto"
)

func toProtoUser(u *models.User) *pb.User {
	return &pb.User{
		Id:          u.ID,
		BusinessId:  u.BusinessID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
		CreatedAt:   u.CreatedAt,
	}
}

func toProtoBusiness(b *models.Business) *pb.Business {
	return &pb.Business{
		Id:        b.ID,
		Name:      b.Name,
		TaxId:     b.TaxID,
		Address:   b.Address,
		CreatedAt: b.CreatedAt,
	}
}

func toProtoCategory(c *models.Category) *pb.Category {
	return &pb.Category{Id: c.ID, Name: c.Name, CreatedAt: c.CreatedAt}
}

func toProtoProduct(p *models.Product) *pb.Product {
	return &pb.Product{
		Id:         p.ID,
		CategoryId: p.CategoryID,
		Sku:        p.SKU,
		Name:       p.Name,
		Price:      p.Price,
		Stock:      p.Stock,
		MinStock:   p.MinStock,
		Active:     p.Active,
		LowStock:   p.LowStock(),
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func toProtoCustomer(c *models.Customer) *pb.Customer {
	return &pb.Customer{
		Id:             c.ID,
		DocumentNumber: c.DocumentNumber,
		Name:           c.Name,
		Phone:          c.Phone,
		Email:          c.Email,
		CreatedAt:      c.CreatedAt,
	}
}

func toProtoTotals(t calculator.SaleTotals) *pb.SaleTotals {
	return &pb.SaleTotals{
		Subtotal:        t.Subtotal,
		DiscountApplied: t.DiscountApplied,
		TaxableBase:     t.TaxableBase,
		TaxAmount:       t.TaxAmount,
		Total:           t.Total,
		CashReceived:    t.CashReceived,
		Change:          t.Change,
	}
}

func toProtoItems(items []models.SaleItem) []*pb.SaleItem {
	out := make([]*pb.SaleItem, len(items))
	for i, item := range items {
		out[i] = &pb.SaleItem{
			ProductId: item.ProductID,
			Sku:       item.SKU,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal,
		}
	}
	return out
}

func toProtoSale(s *models.Sale) *pb.Sale {
	return &pb.Sale{
		Id:            s.ID,
		Number:        s.Number,
		BusinessDay:   s.BusinessDay,
		UserId:        s.UserID,
		CustomerId:    s.CustomerID,
		PaymentMethod: string(s.PaymentMethod),
		TaxApplied:    s.TaxApplied,
		Totals:        toProtoTotals(s.Totals),
		Status:        string(s.Status),
		Items:         toProtoItems(s.Items),
		CreatedAt:     s.CreatedAt,
		VoidedAt:      s.VoidedAt,
		VoidedBy:      s.VoidedBy,
	}
}

func toProtoLevel(l models.StockLevel) *pb.StockLevel {
	return &pb.StockLevel{
		ProductId: l.ProductID,
		Sku:       l.SKU,
		Name:      l.Name,
		Stock:     l.Stock,
		MinStock:  l.MinStock,
	}
}

func toProtoMovement(m *models.StockMovement) *pb.StockMovement {
	return &pb.StockMovement{
		Id:         m.ID,
		ProductId:  m.ProductID,
		Delta:      m.Delta,
		Reason:     string(m.Reason),
		Reference:  m.Reference,
		StockAfter: m.StockAfter,
		Note:       m.Note,
		CreatedBy:  m.CreatedBy,
		CreatedAt:  m.CreatedAt,
	}
}
