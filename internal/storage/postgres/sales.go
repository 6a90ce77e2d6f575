package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"

	"github.com/mmynk/tiendapos/internal/calculator"
	"github.com/mmynk/tiendapos/internal/models"
	"github.com/mmynk/tiendapos/internal/storage"
)

// LastSaleNumber returns the highest numbered sale for the business day.
func (s *PostgresStore) LastSaleNumber(ctx context.Context, businessID, day string) (sql.NullInt64, error) {
	var last *int64
	if err := s.pool.QueryRow(ctx,
		"SELECT MAX(sequence_value) FROM sales WHERE business_id = $1 AND business_day = $2",
		businessID, day,
	).Scan(&last); err != nil {
		return sql.NullInt64{}, fmt.Errorf("failed to read last sale number: %w", err)
	}
	if last == nil {
		return sql.NullInt64{}, nil
	}
	return sql.NullInt64{Int64: *last, Valid: true}, nil
}

// CreateSale persists a sale and its stock effects atomically.
func (s *PostgresStore) CreateSale(ctx context.Context, sale *models.Sale) ([]models.StockLevel, error) {
	var levels []models.StockLevel

	err := s.withTx(ctx, func(tx pgx.Tx) error {
		t := sale.Totals
		_, err := tx.Exec(ctx,
			`INSERT INTO sales (id, business_id, number, sequence_value, business_day, user_id, customer_id,
			   payment_method, tax_applied, subtotal, discount, taxable_base, tax_amount, total,
			   cash_received, change_due, status, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
			sale.ID, sale.BusinessID, sale.Number, nullInt(sale.SequenceValue), sale.BusinessDay,
			sale.UserID, nullString(sale.CustomerID), string(sale.PaymentMethod), sale.TaxApplied,
			t.Subtotal, t.DiscountApplied, t.TaxableBase, t.TaxAmount, t.Total,
			t.CashReceived, t.Change, string(sale.Status), sale.CreatedAt,
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

			if _, err := tx.Exec(ctx,
				`INSERT INTO sale_items (id, sale_id, position, product_id, sku, name, unit_price, quantity, line_total)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
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

func (s *PostgresStore) GetSale(ctx context.Context, businessID, saleID string) (*models.Sale, error) {
	sale, err := scanSale(s.pool.QueryRow(ctx,
		"SELECT "+saleColumns+" FROM sales WHERE id = $1 AND business_id = $2",
		saleID, businessID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("sale %s: %w", saleID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sale: %w", err)
	}
	if sale.Items, err = s.saleItems(ctx, sale.ID); err != nil {
		return nil, err
	}
	return sale, nil
}

func (s *PostgresStore) ListSalesByDay(ctx context.Context, businessID, day string) ([]*models.Sale, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+saleColumns+" FROM sales WHERE business_id = $1 AND business_day = $2 ORDER BY created_at, number",
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

	for _, sale := range sales {
		if sale.Items, err = s.saleItems(ctx, sale.ID); err != nil {
			return nil, err
		}
	}
	return sales, nil
}

func (s *PostgresStore) VoidSale(ctx context.Context, businessID, saleID, userID string, voidedAt int64) (*models.Sale, error) {
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		var status string
		err := tx.QueryRow(ctx,
			"SELECT status FROM sales WHERE id = $1 AND business_id = $2 FOR UPDATE",
			saleID, businessID,
		).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("sale %s: %w", saleID, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to read sale status: %w", err)
		}
		if models.SaleStatus(status) == models.SaleVoided {
			return storage.ErrAlreadyVoided
		}

		if _, err := tx.Exec(ctx,
			"UPDATE sales SET status = $1, voided_at = $2, voided_by = $3 WHERE id = $4",
			string(models.SaleVoided), voidedAt, userID, saleID,
		); err != nil {
			return fmt.Errorf("failed to void sale: %w", err)
		}

		rows, err := tx.Query(ctx,
			"SELECT product_id, quantity FROM sale_items WHERE sale_id = $1 ORDER BY position",
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

func (s *PostgresStore) saleItems(ctx context.Context, saleID string) ([]models.SaleItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, sale_id, product_id, sku, name, unit_price, quantity, line_total
		 FROM sale_items WHERE sale_id = $1 ORDER BY position`,
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
	var sequenceValue, voidedAt *int64
	var customerID, voidedBy *string
	var paymentMethod, status string
	t := &sale.Totals
	if err := row.Scan(&sale.ID, &sale.BusinessID, &sale.Number, &sequenceValue, &sale.BusinessDay,
		&sale.UserID, &customerID, &paymentMethod, &sale.TaxApplied,
		&t.Subtotal, &t.DiscountApplied, &t.TaxableBase, &t.TaxAmount, &t.Total,
		&t.CashReceived, &t.Change, &status, &sale.CreatedAt, &voidedAt, &voidedBy); err != nil {
		return nil, err
	}
	sale.SequenceValue = deref(sequenceValue)
	sale.CustomerID = deref(customerID)
	sale.PaymentMethod = calculator.PaymentMethod(paymentMethod)
	sale.Status = models.SaleStatus(status)
	sale.VoidedAt = deref(voidedAt)
	sale.VoidedBy = deref(voidedBy)
	return sale, nil
}

// applyStockDelta changes a product's stock inside tx, refusing to go below zero.
func applyStockDelta(ctx context.Context, tx pgx.Tx, businessID, productID string, delta int, at int64) (models.StockLevel, error) {
	level := models.StockLevel{ProductID: productID}
	err := tx.QueryRow(ctx,
		`UPDATE products SET stock = stock + $1, updated_at = $2
		 WHERE id = $3 AND business_id = $4 AND stock + $1 >= 0
		 RETURNING sku, name, stock, min_stock`,
		delta, at, productID, businessID,
	).Scan(&level.SKU, &level.Name, &level.Stock, &level.MinStock)
	if err == nil {
		return level, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return models.StockLevel{}, fmt.Errorf("failed to update stock: %w", err)
	}

	var stock int
	err = tx.QueryRow(ctx,
		"SELECT sku, stock FROM products WHERE id = $1 AND business_id = $2",
		productID, businessID,
	).Scan(&level.SKU, &stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.StockLevel{}, fmt.Errorf("product %s: %w", productID, storage.ErrNotFound)
	}
	if err != nil {
		return models.StockLevel{}, fmt.Errorf("failed to read stock: %w", err)
	}
	return models.StockLevel{}, fmt.Errorf("%w: %s has %d, needs %d", storage.ErrInsufficientStock, level.SKU, stock, -delta)
}

func insertMovement(ctx context.Context, tx pgx.Tx, m *models.StockMovement) error {
	if m.ID == "" {
		m.ID = ulid.Make().String()
	}
	_, err := tx.Exec(ctx,
		`INSERT INTO stock_movements (id, business_id, product_id, delta, reason, reference, stock_after, note, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		m.ID, m.BusinessID, m.ProductID, m.Delta, string(m.Reason), m.Reference, m.StockAfter, m.Note, m.CreatedBy, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert stock movement: %w", err)
	}
	return nil
}
