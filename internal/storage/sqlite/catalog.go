package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mmynk/tiendapos/internal/models"
	"github.com/mmynk/tiendapos/internal/storage"
)

// CreateCategory inserts a category. Names are unique per business.
func (s *SQLiteStore) CreateCategory(ctx context.Context, category *models.Category) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO categories (id, business_id, name, created_at) VALUES (?, ?, ?, ?)",
		category.ID, category.BusinessID, category.Name, category.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("category %q: %w", category.Name, storage.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}
	return nil
}

// ListCategories returns the business's categories ordered by name.
func (s *SQLiteStore) ListCategories(ctx context.Context, businessID string) ([]*models.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, business_id, name, created_at FROM categories WHERE business_id = ? ORDER BY name",
		businessID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		c := &models.Category{}
		if err := rows.Scan(&c.ID, &c.BusinessID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}
	return categories, nil
}

// UpdateCategory renames a category.
func (s *SQLiteStore) UpdateCategory(ctx context.Context, category *models.Category) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE categories SET name = ? WHERE id = ? AND business_id = ?",
		category.Name, category.ID, category.BusinessID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("category %q: %w", category.Name, storage.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	return expectOneRow(result, "category", category.ID)
}

// DeleteCategory removes a category. Its products become uncategorized.
func (s *SQLiteStore) DeleteCategory(ctx context.Context, businessID, categoryID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"UPDATE products SET category_id = NULL WHERE category_id = ? AND business_id = ?",
			categoryID, businessID,
		); err != nil {
			return fmt.Errorf("failed to detach products: %w", err)
		}

		result, err := tx.ExecContext(ctx,
			"DELETE FROM categories WHERE id = ? AND business_id = ?",
			categoryID, businessID,
		)
		if err != nil {
			return fmt.Errorf("failed to delete category: %w", err)
		}
		return expectOneRow(result, "category", categoryID)
	})
}

// LastSKUValue returns the highest allocated SKU value for the business.
func (s *SQLiteStore) LastSKUValue(ctx context.Context, businessID string) (sql.NullInt64, error) {
	var last sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		"SELECT MAX(sku_value) FROM products WHERE business_id = ?",
		businessID,
	).Scan(&last)
	if err != nil {
		return sql.NullInt64{}, fmt.Errorf("failed to read last SKU: %w", err)
	}
	return last, nil
}

const productColumns = "id, business_id, category_id, sku, sku_value, name, price, stock, min_stock, active, created_at, updated_at"

// CreateProduct inserts a product. A taken SKU returns storage.ErrDuplicateCode.
func (s *SQLiteStore) CreateProduct(ctx context.Context, product *models.Product) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO products (`+productColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		product.ID, product.BusinessID, nullString(product.CategoryID), product.SKU, nullInt(product.SKUValue),
		product.Name, product.Price, product.Stock, product.MinStock, boolToInt(product.Active),
		product.CreatedAt, product.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("sku %s: %w", product.SKU, storage.ErrDuplicateCode)
	}
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// GetProduct retrieves a product by ID.
func (s *SQLiteStore) GetProduct(ctx context.Context, businessID, productID string) (*models.Product, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = ? AND business_id = ?",
		productID, businessID,
	)
	product, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product %s: %w", productID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

// GetProducts retrieves several products by ID.
func (s *SQLiteStore) GetProducts(ctx context.Context, businessID string, productIDs []string) (map[string]*models.Product, error) {
	products := make(map[string]*models.Product)
	if len(productIDs) == 0 {
		return products, nil
	}

	args := make([]any, 0, len(productIDs)+1)
	args = append(args, businessID)
	for _, id := range productIDs {
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE business_id = ? AND id IN ("+placeholders(len(productIDs))+")",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products[product.ID] = product
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}
	return products, nil
}

// ListProducts returns the products matching filter ordered by name.
func (s *SQLiteStore) ListProducts(ctx context.Context, businessID string, filter models.ProductFilter) ([]*models.Product, error) {
	query := "SELECT " + productColumns + " FROM products WHERE business_id = ?"
	args := []any{businessID}

	if !filter.IncludeInactive {
		query += " AND active = 1"
	}
	if filter.CategoryID != "" {
		query += " AND category_id = ?"
		args = append(args, filter.CategoryID)
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		query += " AND (LOWER(name) LIKE ? OR LOWER(sku) LIKE ?)"
		like := "%" + strings.ToLower(term) + "%"
		args = append(args, like, like)
	}
	query += " ORDER BY name"

	return s.queryProducts(ctx, query, args...)
}

// UpdateProduct updates a product's descriptive fields, price and threshold.
func (s *SQLiteStore) UpdateProduct(ctx context.Context, product *models.Product) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE products SET category_id = ?, name = ?, price = ?, min_stock = ?, updated_at = ?
		 WHERE id = ? AND business_id = ?`,
		nullString(product.CategoryID), product.Name, product.Price, product.MinStock, product.UpdatedAt,
		product.ID, product.BusinessID,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return expectOneRow(result, "product", product.ID)
}

// SetProductActive activates or deactivates a product.
func (s *SQLiteStore) SetProductActive(ctx context.Context, businessID, productID string, active bool) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE products SET active = ? WHERE id = ? AND business_id = ?",
		boolToInt(active), productID, businessID,
	)
	if err != nil {
		return fmt.Errorf("failed to update product status: %w", err)
	}
	return expectOneRow(result, "product", productID)
}

func (s *SQLiteStore) queryProducts(ctx context.Context, query string, args ...any) ([]*models.Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}
	return products, nil
}

func scanProduct(row rowScanner) (*models.Product, error) {
	p := &models.Product{}
	var categoryID sql.NullString
	var skuValue sql.NullInt64
	var active int
	err := row.Scan(&p.ID, &p.BusinessID, &categoryID, &p.SKU, &skuValue, &p.Name, &p.Price,
		&p.Stock, &p.MinStock, &active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.CategoryID = categoryID.String
	p.SKUValue = skuValue.Int64
	p.Active = active == 1
	return p, nil
}

const customerColumns = "id, business_id, document_number, name, phone, email, created_at"

// CreateCustomer inserts a customer. Document numbers are unique per business.
func (s *SQLiteStore) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO customers ("+customerColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		customer.ID, customer.BusinessID, customer.DocumentNumber, customer.Name,
		customer.Phone, customer.Email, customer.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("document %s: %w", customer.DocumentNumber, storage.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to insert customer: %w", err)
	}
	return nil
}

// GetCustomer retrieves a customer by ID.
func (s *SQLiteStore) GetCustomer(ctx context.Context, businessID, customerID string) (*models.Customer, error) {
	c := &models.Customer{}
	err := s.db.QueryRowContext(ctx,
		"SELECT "+customerColumns+" FROM customers WHERE id = ? AND business_id = ?",
		customerID, businessID,
	).Scan(&c.ID, &c.BusinessID, &c.DocumentNumber, &c.Name, &c.Phone, &c.Email, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("customer %s: %w", customerID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return c, nil
}

// ListCustomers returns customers whose name or document contains search.
func (s *SQLiteStore) ListCustomers(ctx context.Context, businessID, search string) ([]*models.Customer, error) {
	query := "SELECT " + customerColumns + " FROM customers WHERE business_id = ?"
	args := []any{businessID}
	if term := strings.TrimSpace(search); term != "" {
		query += " AND (LOWER(name) LIKE ? OR document_number LIKE ?)"
		like := "%" + strings.ToLower(term) + "%"
		args = append(args, like, like)
	}
	query += " ORDER BY name"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	var customers []*models.Customer
	for rows.Next() {
		c := &models.Customer{}
		if err := rows.Scan(&c.ID, &c.BusinessID, &c.DocumentNumber, &c.Name, &c.Phone, &c.Email, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate customers: %w", err)
	}
	return customers, nil
}

// UpdateCustomer updates a customer's details.
func (s *SQLiteStore) UpdateCustomer(ctx context.Context, customer *models.Customer) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE customers SET document_number = ?, name = ?, phone = ?, email = ? WHERE id = ? AND business_id = ?",
		customer.DocumentNumber, customer.Name, customer.Phone, customer.Email, customer.ID, customer.BusinessID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("document %s: %w", customer.DocumentNumber, storage.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}
	return expectOneRow(result, "customer", customer.ID)
}

// expectOneRow maps an update or delete that touched nothing to storage.ErrNotFound.
func expectOneRow(result sql.Result, kind, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, storage.ErrNotFound)
	}
	return nil
}
