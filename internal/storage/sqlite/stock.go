package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/tiendapos/internal/models"
)

// AdjustStock applies a manual stock movement.
func (s *SQLiteStore) AdjustStock(ctx context.Context, movement *models.StockMovement) (models.StockLevel, error) {
	var level models.StockLevel
	err := s.withTx(ctx, func(tx *sql.Tx) error {
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

// ListMovements returns a product's most recent movements, newest first.
func (s *SQLiteStore) ListMovements(ctx context.Context, businessID, productID string, limit int) ([]*models.StockMovement, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, business_id, product_id, delta, reason, reference, stock_after, note, created_by, created_at
		 FROM stock_movements WHERE business_id = ? AND product_id = ?
		 ORDER BY id DESC LIMIT ?`,
		businessID, productID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock movements: %w", err)
	}
	defer rows.Close()

	var movements []*models.StockMovement
	for rows.Next() {
		m := &models.StockMovement{}
		if err := rows.Scan(&m.ID, &m.BusinessID, &m.ProductID, &m.Delta, &m.Reason, &m.Reference,
			&m.StockAfter, &m.Note, &m.CreatedBy, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stock movement: %w", err)
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stock movements: %w", err)
	}
	return movements, nil
}

// ListLowStock returns active products at or below their threshold.
func (s *SQLiteStore) ListLowStock(ctx context.Context, businessID string) ([]*models.Product, error) {
	return s.queryProducts(ctx,
		`SELECT `+productColumns+` FROM products
		 WHERE business_id = ? AND active = 1 AND min_stock > 0 AND stock <= min_stock
		 ORDER BY stock, name`,
		businessID,
	)
}
