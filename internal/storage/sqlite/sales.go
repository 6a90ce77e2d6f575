package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/mmynk/tiendapos/internal/models"
	"github.com/mmynk/tiendapos/internal/storage"
)

// LastSaleNumber returns the highest numbered sale for the business day.
// Timestamp fallback numbers carry no sequence value and are ignored.
func (s *SQLiteStore) LastSaleNumber(ctx context.Context, businessID, day string) (sql.NullInt64, error) {
	var last sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		"SELECT MAX(sequence_value) FROM sales WHERE business_id = ? AND business_day = ?",
		businessID, day,
	).Scan(&last)
	if err != nil {
		return sql.NullInt64{}, fmt.Errorf("failed to read last sale number: %w", err)
	}
	return last, nil
}

// CreateSale persists a sale and its stock effects atomically.
func (s *SQLiteStore) CreateSale(ctx context.Context, sale *models.Sale) ([]models.StockLevel, error) {
	var levels []models.StockLevel

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		t := sale.Totals
		_, err := tx.ExecContext(ctx,
			`INSERT INTO sales (id, business_id, number, sequence_value, business_day, user_id, customer_id,
			   payment_method, tax_applied, subtotal, discount, taxable_base, tax_amount, total,
			   cash_received, change_due, status, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sale.ID, sale.BusinessID, sale.Number, nullInt(sale.SequenceValue), sale.BusinessDay,
			sale.UserID, nullString(sale.CustomerID), sale.PaymentMethod, boolToInt(sale.TaxApplied),
			t.Subtotal, t.DiscountApplied, t.TaxableBase, t.TaxAmount, t.Total,
			t.CashReceived, t.Change, sale.Status, sale.CreatedAt,
		)
		if isUniqueViolation(err) {
			return fmt.Errorf("sale number %s: %w", sale.Number, storage.ErrDuplicateCode)
		}
		if err != nil {
			return fmt.Errorf("failed to insert sale: %w", err)
		}

		touched := make(map[string]int)
		for i := range sale.Items {
			item := &sale.Items[i]
			if item.ID == "" {
				item.ID = uuid.New().String()
			}
			item.SaleID = sale.ID

			if _, err := tx.ExecContext(ctx,
				`INSERT INTO sale_items (id, sale_id, position, product_id, sku, name, unit_price, quantity, line_total)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				item.ID, sale.ID, i, item.ProductID, item.SKU, item.Name, item.UnitPrice, item.Quantity, item.LineTotal,
			); err != nil {
				return fmt.Errorf("failed to insert sale item: %w", err)
			}

			level, err := applyStockDelta(ctx, tx, sale.BusinessID, item.ProductID, -item.Quantity, sale.CreatedAt)
			if err != nil {
				return err
			}

			if err := insertMovement(ctx, tx, &models.StockMovement{
				BusinessID: sale.BusinessID,
				ProductID:  item.ProductID,
				Delta:      -item.Quantity,
				Reason:     models.MovementSale,
				Reference:  sale.ID,
				StockAfter: level.Stock,
				CreatedBy:  sale.UserID,
				CreatedAt:  sale.CreatedAt,
			}); err != nil {
				return err
			}

			if idx, ok := touched[level.ProductID]; ok {
				levels[idx] = level
			} else {
				touched[level.ProductID] = len(levels)
				levels = append(levels, level)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return levels, nil
}

const saleColumns = `id, business_id, number, sequence_value, business_day, user_id, customer_id,
	payment_method, tax_applied, subtotal, discount, taxable_base, tax_amount, total,
	cash_received, change_due, status, created_at, voided_at, voided_by`

// GetSale retrieves a sale with its items.
func (s *SQLiteStore) GetSale(ctx context.Context, businessID, saleID string) (*models.Sale, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+saleColumns+" FROM sales WHERE id = ? AND business_id = ?",
		saleID, businessID,
	)
	sale, err := scanSale(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sale %s: %w", saleID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sale: %w", err)
	}

	items, err := s.saleItems(ctx, sale.ID)
	if err != nil {
		return nil, err
	}
	sale.Items = items
	return sale, nil
}

// ListSalesByDay returns the business day's sales in creation order, with items.
func (s *SQLiteStore) ListSalesByDay(ctx context.Context, businessID, day string) ([]*models.Sale, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+saleColumns+" FROM sales WHERE business_id = ? AND business_day = ? ORDER BY created_at, number",
		businessID, day,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}

	var sales []*models.Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, sale)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sales: %w", err)
	}

	// Items are loaded after the sales cursor is closed; the store holds a single connection.
	for _, sale := range sales {
		items, err := s.saleItems(ctx, sale.ID)
		if err != nil {
			return nil, err
		}
		sale.Items = items
	}
	return sales, nil
}

// VoidSale marks a sale voided and puts its items back in stock.
func (s *SQLiteStore) VoidSale(ctx context.Context, businessID, saleID, userID string, voidedAt int64) (*models.Sale, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var status string
		err := tx.QueryRowContext(ctx,
			"SELECT status FROM sales WHERE id = ? AND business_id = ?",
			saleID, businessID,
		).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("sale %s: %w", saleID, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to read sale status: %w", err)
		}
		if models.SaleStatus(status) == models.SaleVoided {
			return storage.ErrAlreadyVoided
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE sales SET status = ?, voided_at = ?, voided_by = ? WHERE id = ?",
			models.SaleVoided, voidedAt, userID, saleID,
		); err != nil {
			return fmt.Errorf("failed to void sale: %w", err)
		}

		rows, err := tx.QueryContext(ctx,
			"SELECT product_id, quantity FROM sale_items WHERE sale_id = ? ORDER BY position",
			saleID,
		)
		if err != nil {
			return fmt.Errorf("failed to read sale items: %w", err)
		}
		type line struct {
			productID string
			quantity  int
		}
		var lines []line
		for rows.Next() {
			var l line
			if err := rows.Scan(&l.productID, &l.quantity); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan sale item: %w", err)
			}
			lines = append(lines, l)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to iterate sale items: %w", err)
		}

		for _, l := range lines {
			level, err := applyStockDelta(ctx, tx, businessID, l.productID, l.quantity, voidedAt)
			if err != nil {
				return err
			}
			if err := insertMovement(ctx, tx, &models.StockMovement{
				BusinessID: businessID,
				ProductID:  l.productID,
				Delta:      l.quantity,
				Reason:     models.MovementVoid,
				Reference:  saleID,
				StockAfter: level.Stock,
				CreatedBy:  userID,
				CreatedAt:  voidedAt,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetSale(ctx, businessID, saleID)
}

func (s *SQLiteStore) saleItems(ctx context.Context, saleID string) ([]models.SaleItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, sale_id, product_id, sku, name, unit_price, quantity, line_total
		 FROM sale_items WHERE sale_id = ? ORDER BY position`,
		saleID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get sale items: %w", err)
	}
	defer rows.Close()

	var items []models.SaleItem
	for rows.Next() {
		var item models.SaleItem
		if err := rows.Scan(&item.ID, &item.SaleID, &item.ProductID, &item.SKU, &item.Name,
			&item.UnitPrice, &item.Quantity, &item.LineTotal); err != nil {
			return nil, fmt.Errorf("failed to scan sale item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sale items: %w", err)
	}
	return items, nil
}

func scanSale(row rowScanner) (*models.Sale, error) {
	sale := &models.Sale{}
	var sequenceValue, voidedAt sql.NullInt64
	var customerID, voidedBy sql.NullString
	var taxApplied int
	t := &sale.Totals
	err := row.Scan(&sale.ID, &sale.BusinessID, &sale.Number, &sequenceValue, &sale.BusinessDay,
		&sale.UserID, &customerID, &sale.PaymentMethod, &taxApplied,
		&t.Subtotal, &t.DiscountApplied, &t.TaxableBase, &t.TaxAmount, &t.Total,
		&t.CashReceived, &t.Change, &sale.Status, &sale.CreatedAt, &voidedAt, &voidedBy)
	if err != nil {
		return nil, err
	}
	sale.SequenceValue = sequenceValue.Int64
	sale.CustomerID = customerID.String
	sale.TaxApplied = taxApplied == 1
	sale.VoidedAt = voidedAt.Int64
	sale.VoidedBy = voidedBy.String
	return sale, nil
}

// applyStockDelta changes a product's stock inside tx, refusing to go below zero.
func applyStockDelta(ctx context.Context, tx *sql.Tx, businessID, productID string, delta int, at int64) (models.StockLevel, error) {
	result, err := tx.ExecContext(ctx,
		`UPDATE products SET stock = stock + ?, updated_at = ?
		 WHERE id = ? AND business_id = ? AND stock + ? >= 0`,
		delta, at, productID, businessID, delta,
	)
	if err != nil {
		return models.StockLevel{}, fmt.Errorf("failed to update stock: %w", err)
	}

	level := models.StockLevel{ProductID: productID}
	err = tx.QueryRowContext(ctx,
		"SELECT sku, name, stock, min_stock FROM products WHERE id = ? AND business_id = ?",
		productID, businessID,
	).Scan(&level.SKU, &level.Name, &level.Stock, &level.MinStock)
	if errors.Is(err, sql.ErrNoRows) {
		return models.StockLevel{}, fmt.Errorf("product %s: %w", productID, storage.ErrNotFound)
	}
	if err != nil {
		return models.StockLevel{}, fmt.Errorf("failed to read stock: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return models.StockLevel{}, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return models.StockLevel{}, fmt.Errorf("%w: %s has %d, needs %d", storage.ErrInsufficientStock, level.SKU, level.Stock, -delta)
	}
	return level, nil
}

func insertMovement(ctx context.Context, tx *sql.Tx, m *models.StockMovement) error {
	if m.ID == "" {
		m.ID = ulid.Make().String()
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO stock_movements (id, business_id, product_id, delta, reason, reference, stock_after, note, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.BusinessID, m.ProductID, m.Delta, m.Reason, m.Reference, m.StockAfter, m.Note, m.CreatedBy, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert stock movement: %w", err)
	}
	return nil
}
