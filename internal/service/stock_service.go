package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/tiendapos/internal/events"
	"github.com/mmynk/tiendapos/internal/metrics"
	"github.com/mmynk/tiendapos/internal/middleware"
	"github.com/mmynk/tiendapos/internal/models"
	"github.com/mmynk/tiendapos/internal/storage"
	pb "github.com/mmynk/tiendapos/pkg/proto"
	"github.com/mmynk/tiendapos/pkg/proto/protoconnect"
)

// StockService implements the Connect StockService.
type StockService struct {
	protoconnect.UnimplementedStockServiceHandler
	store     storage.Store
	publisher events.Publisher
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewStockService creates a StockService. A nil publisher drops events.
func NewStockService(store storage.Store, publisher events.Publisher, m *metrics.Metrics) *StockService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &StockService{store: store, publisher: publisher, metrics: m, now: time.Now}
}

// AdjustStock records a manual stock change such as a delivery or breakage.
func (s *StockService) AdjustStock(ctx context.Context, req *connect.Request[pb.AdjustStockRequest]) (*connect.Response[pb.AdjustStockResponse], error) {
	businessID, userID, err := session(ctx)
	if err != nil {
		return nil, err
	}
	if err := middleware.RequireRole(ctx, models.RoleAdmin); err != nil {
		return nil, err
	}
	slog.Info("AdjustStock request received", "product_id", req.Msg.ProductId, "delta", req.Msg.Delta, "reason", req.Msg.Reason)

	reason := models.MovementReason(req.Msg.Reason)
	if !reason.Manual() {
		return nil, connect.NewError(connect.CodeInvalidArgument,
			fmt.Errorf("reason %q is not one of purchase, adjustment, return, damage", req.Msg.Reason))
	}
	if req.Msg.Delta == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("delta must not be zero"))
	}

	now := s.now()
	movement := &models.StockMovement{
		BusinessID: businessID,
		ProductID:  req.Msg.ProductId,
		Delta:      req.Msg.Delta,
		Reason:     reason,
		Note:       req.Msg.Note,
		CreatedBy:  userID,
		CreatedAt:  now.Unix(),
	}
	level, err := s.store.AdjustStock(ctx, movement)
	if err != nil {
		slog.Warn("AdjustStock failed", "product_id", req.Msg.ProductId, "error", err)
		return nil, toConnectError(err)
	}

	if level.CrossedLow(req.Msg.Delta) {
		s.metrics.StockLow.Inc()
		if err := s.publisher.PublishStockLow(ctx, events.NewStockLow(businessID, level, now)); err != nil {
			slog.Warn("Failed to publish stock low event", "product_id", level.ProductID, "error", err)
		}
	}

	slog.Info("Stock adjusted", "product_id", level.ProductID, "stock", level.Stock)
	return connect.NewResponse(&pb.AdjustStockResponse{
		Movement: toProtoMovement(movement),
		Level:    toProtoLevel(level),
	}), nil
}

// ListMovements returns a product's stock ledger, newest first.
func (s *StockService) ListMovements(ctx context.Context, req *connect.Request[pb.ListMovementsRequest]) (*connect.Response[pb.ListMovementsResponse], error) {
	businessID, _, err := session(ctx)
	if err != nil {
		return nil, err
	}

	// Distinguish an unknown product from one with no movements.
	if _, err := s.store.GetProduct(ctx, businessID, req.Msg.ProductId); err != nil {
		return nil, toConnectError(err)
	}
	movements, err := s.store.ListMovements(ctx, businessID, req.Msg.ProductId, req.Msg.Limit)
	if err != nil {
		slog.Error("ListMovements failed", "product_id", req.Msg.ProductId, "error", err)
		return nil, toConnectError(err)
	}

	resp := &pb.ListMovementsResponse{Movements: make([]*pb.StockMovement, len(movements))}
	for i, m := range movements {
		resp.Movements[i] = toProtoMovement(m)
	}
	return connect.NewResponse(resp), nil
}

// ListLowStock lists active products at or below their threshold.
func (s *StockService) ListLowStock(ctx context.Context, req *connect.Request[pb.ListLowStockRequest]) (*connect.Response[pb.ListLowStockResponse], error) {
	businessID, _, err := session(ctx)
	if err != nil {
		return nil, err
	}

	products, err := s.store.ListLowStock(ctx, businessID)
	if err != nil {
		slog.Error("ListLowStock failed", "error", err)
		return nil, toConnectError(err)
	}

	resp := &pb.ListLowStockResponse{Levels: make([]*pb.StockLevel, len(products))}
	for i, p := range products {
		resp.Levels[i] = toProtoLevel(models.StockLevel{
			ProductID: p.ID,
			SKU:       p.SKU,
			Name:      p.Name,
			Stock:     p.Stock,
			MinStock:  p.MinStock,
		})
	}
	return connect.NewResponse(resp), nil
}
