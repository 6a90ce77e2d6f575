package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/mmynk/tiendapos/internal/models"
	"github.com/mmynk/tiendapos/internal/storage"
)

func (s *PostgresStore) CreateCategory(ctx context.Context, category *models.Category) error {
	_, err := s.pool.Exec(ctx,
		"INSERT INTO categories (id, business_id, name, created_at) VALUES ($1, $2, $3, $4)",
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

func (s *PostgresStore) ListCategories(ctx context.Context, businessID string) ([]*models.Category, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT id, business_id, name, created_at FROM categories WHERE business_id = $1 ORDER BY name",
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

func (s *PostgresStore) UpdateCategory(ctx context.Context, category *models.Category) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE categories SET name = $1 WHERE id = $2 AND business_id = $3",
		category.Name, category.ID, category.BusinessID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("category %q: %w", category.Name, storage.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	return expectOneRow(tag, "category", category.ID)
}

func (s *PostgresStore) DeleteCategory(ctx context.Context, businessID, categoryID string) error {
	// ON DELETE SET NULL detaches the products.
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM categories WHERE id = $1 AND business_id = $2",
		categoryID, businessID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return expectOneRow(tag, "category", categoryID)
}

func (s *PostgresStore) LastSKUValue(ctx context.Context, businessID string) (sql.NullInt64, error) {
	var last *int64
	if err := s.pool.QueryRow(ctx,
		"SELECT MAX(sku_value) FROM products WHERE business_id = $1",
		businessID,
	).Scan(&last); err != nil {
		return sql.NullInt64{}, fmt.Errorf("failed to read last SKU: %w", err)
	}
	if last == nil {
		return sql.NullInt64{}, nil
	}
	return sql.NullInt64{Int64: *last, Valid: true}, nil
}

const productColumns = "id, business_id, category_id, sku, sku_value, name, price, stock, min_stock, active, created_at, updated_at"

func (s *PostgresStore) CreateProduct(ctx context.Context, product *models.Product) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO products (`+productColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		product.ID, product.BusinessID, nullString(product.CategoryID), product.SKU, nullInt(product.SKUValue),
		product.Name, product.Price, product.Stock, product.MinStock, product.Active,
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

func (s *PostgresStore) GetProduct(ctx context.Context, businessID, productID string) (*models.Product, error) {
	product, err := scanProduct(s.pool.QueryRow(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = $1 AND business_id = $2",
		productID, businessID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("product %s: %w", productID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

func (s *PostgresStore) GetProducts(ctx context.Context, businessID string, productIDs []string) (map[string]*models.Product, error) {
	products := make(map[string]*models.Product)
	if len(productIDs) == 0 {
		return products, nil
	}
	list, err := s.queryProducts(ctx,
		"SELECT "+productColumns+" FROM products WHERE business_id = $1 AND id = ANY($2)",
		businessID, productIDs,
	)
	if err != nil {
		return nil, err
	}
	for _, p := range list {
		products[p.ID] = p
	}
	return products, nil
}

func (s *PostgresStore) ListProducts(ctx context.Context, businessID string, filter models.ProductFilter) ([]*models.Product, error) {
	query := "SELECT " + productColumns + " FROM products WHERE business_id = $1"
	args := []any{businessID}

	if !filter.IncludeInactive {
		query += " AND active"
	}
	if filter.CategoryID != "" {
		args = append(args, filter.CategoryID)
		query += fmt.Sprintf(" AND category_id = $%d", len(args))
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		args = append(args, "%"+term+"%")
		query += fmt.Sprintf(" AND (name ILIKE $%d OR sku ILIKE $%d)", len(args), len(args))
	}
	query += " ORDER BY name"

	return s.queryProducts(ctx, query, args...)
}

func (s *PostgresStore) UpdateProduct(ctx context.Context, product *models.Product) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE products SET category_id = $1, name = $2, price = $3, min_stock = $4, updated_at = $5
		 WHERE id = $6 AND business_id = $7`,
		nullString(product.CategoryID), product.Name, product.Price, product.MinStock, product.UpdatedAt,
		product.ID, product.BusinessID,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return expectOneRow(tag, "product", product.ID)
}

func (s *PostgresStore) SetProductActive(ctx context.Context, businessID, productID string, active bool) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE products SET active = $1 WHERE id = $2 AND business_id = $3",
		active, productID, businessID,
	)
	if err != nil {
		return fmt.Errorf("failed to update product status: %w", err)
	}
	return expectOneRow(tag, "product", productID)
}

func (s *PostgresStore) queryProducts(ctx context.Context, query string, args ...any) ([]*models.Product, error) {
	rows, err := s.pool.Query(ctx, query, args...)
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
	var categoryID *string
	var skuValue *int64
	if err := row.Scan(&p.ID, &p.BusinessID, &categoryID, &p.SKU, &skuValue, &p.Name, &p.Price,
		&p.Stock, &p.MinStock, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.CategoryID = deref(categoryID)
	p.SKUValue = deref(skuValue)
	return p, nil
}

const customerColumns = "id, business_id, document_number, name, phone, email, created_at"

func (s *PostgresStore) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	_, err := s.pool.Exec(ctx,
		"INSERT INTO customers ("+customerColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7)",
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

func (s *PostgresStore) GetCustomer(ctx context.Context, businessID, customerID string) (*models.Customer, error) {
	c := &models.Customer{}
	err := s.pool.QueryRow(ctx,
		"SELECT "+customerColumns+" FROM customers WHERE id = $1 AND business_id = $2",
		customerID, businessID,
	).Scan(&c.ID, &c.BusinessID, &c.DocumentNumber, &c.Name, &c.Phone, &c.Email, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("customer %s: %w", customerID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) ListCustomers(ctx context.Context, businessID, search string) ([]*models.Customer, error) {
	query := "SELECT " + customerColumns + " FROM customers WHERE business_id = $1"
	args := []any{businessID}
	if term := strings.TrimSpace(search); term != "" {
		args = append(args, "%"+term+"%")
		query += " AND (name ILIKE $2 OR document_number LIKE $2)"
	}
	query += " ORDER BY name"

	rows, err := s.pool.Query(ctx, query, args...)
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

func (s *PostgresStore) UpdateCustomer(ctx context.Context, customer *models.Customer) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE customers SET document_number = $1, name = $2, phone = $3, email = $4 WHERE id = $5 AND business_id = $6",
		customer.DocumentNumber, customer.Name, customer.Phone, customer.Email, customer.ID, customer.BusinessID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("document %s: %w", customer.DocumentNumber, storage.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}
	return expectOneRow(tag, "customer", customer.ID)
}
