package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmynk/tiendapos/internal/models"
)

func (s *PostgresStore) AdjustStock(ctx context.Context, movement *models.StockMovement) (models.StockLevel, error) {
	var level models.StockLevel
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		var err error
		level, err = applyStockDelta(ctx, tx, movement.BusinessID, movement.ProductID, movement.Delta, movement.CreatedAt)
		if err != nil {
			return err
		}
		movement.StockAfter = level.Stock
		return insertMovement(ctx, tx, movement)
	})
	if err != nil {
		return models.StockLevel{}, err
	}
	return level, nil
}

func (s *PostgresStore) ListMovements(ctx context.Context, businessID, productID string, limit int) ([]*models.StockMovement, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, business_id, product_id, delta, reason, reference, stock_after, note, created_by, created_at
		 FROM stock_movements WHERE business_id = $1 AND product_id = $2
		 ORDER BY id DESC LIMIT $3`,
		businessID, productID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock movements: %w", err)
	}
	defer rows.Close()

	var movements []*models.StockMovement
	for rows.Next() {
		m := &models.StockMovement{}
		var reason string
		if err := rows.Scan(&m.ID, &m.BusinessID, &m.ProductID, &m.Delta, &reason, &m.Reference,
			&m.StockAfter, &m.Note, &m.CreatedBy, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stock movement: %w", err)
		}
		m.Reason = models.MovementReason(reason)
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stock movements: %w", err)
	}
	return movements, nil
}

func (s *PostgresStore) ListLowStock(ctx context.Context, businessID string) ([]*models.Product, error) {
	return s.queryProducts(ctx,
		`SELECT `+productColumns+` FROM products
		 WHERE business_id = $1 AND active AND min_stock > 0 AND stock <= min_stock
		 ORDER BY stock, name`,
		businessID,
	)
}
