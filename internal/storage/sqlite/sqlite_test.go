package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/tiendapos/internal/calculator"
	"github.com/mmynk/tiendapos/internal/models"
	"github.com/mmynk/tiendapos/internal/sequence"
	"github.com/mmynk/tiendapos/internal/storage"
)

const testDay = "20261018"

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func seedBusiness(t *testing.T, store *SQLiteStore) *models.Business {
	t.Helper()
	business := models.NewBusiness("Bodega Rosa", "20123456789", "Av. Grau 123")
	if err := store.CreateBusiness(context.Background(), business); err != nil {
		t.Fatalf("CreateBusiness failed: %v", err)
	}
	return business
}

func seedProduct(t *testing.T, store *SQLiteStore, businessID, sku, price string, stock, minStock int) *models.Product {
	t.Helper()
	now := time.Now().Unix()
	product := &models.Product{
		ID:         uuid.New().String(),
		BusinessID: businessID,
		SKU:        sku,
		Name:       "Product " + sku,
		Price:      decimal.RequireFromString(price),
		Stock:      stock,
		MinStock:   minStock,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if value, ok := sequence.SKUSeries().Parse(sku); ok {
		product.SKUValue = value
	}
	if err := store.CreateProduct(context.Background(), product); err != nil {
		t.Fatalf("CreateProduct failed: %v", err)
	}
	return product
}

func newSale(businessID, number string, value int64, items ...models.SaleItem) *models.Sale {
	total := decimal.Zero
	for i := range items {
		items[i].LineTotal = items[i].UnitPrice.Mul(decimal.NewFromInt(int64(items[i].Quantity)))
		total = total.Add(items[i].LineTotal)
	}
	return &models.Sale{
		ID:            uuid.New().String(),
		BusinessID:    businessID,
		Number:        number,
		SequenceValue: value,
		BusinessDay:   testDay,
		UserID:        "cashier-1",
		PaymentMethod: calculator.PaymentCard,
		Totals: calculator.SaleTotals{
			Subtotal:        total,
			DiscountApplied: decimal.Zero,
			TaxableBase:     total,
			TaxAmount:       decimal.Zero,
			Total:           total,
			CashReceived:    decimal.Zero,
			Change:          decimal.Zero,
		},
		Status:    models.SaleCompleted,
		Items:     items,
		CreatedAt: time.Now().Unix(),
	}
}

func lineFor(p *models.Product, quantity int) models.SaleItem {
	return models.SaleItem{ProductID: p.ID, SKU: p.SKU, Name: p.Name, UnitPrice: p.Price, Quantity: quantity}
}

func TestSQLiteStore_Users(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	business := seedBusiness(t, store)

	t.Run("GetBusiness returns the business", func(t *testing.T) {
		got, err := store.GetBusiness(ctx, business.ID)
		if err != nil {
			t.Fatalf("GetBusiness failed: %v", err)
		}
		if got.Name != business.Name || got.TaxID != business.TaxID {
			t.Errorf("got %+v, want %+v", got, business)
		}
	})

	t.Run("CreateUser and lookups", func(t *testing.T) {
		user := models.NewUser(business.ID, "rosa@example.com", "Rosa", "hash", models.RoleAdmin)
		if err := store.CreateUser(ctx, user); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}

		byEmail, err := store.GetUserByEmail(ctx, "rosa@example.com")
		if err != nil {
			t.Fatalf("GetUserByEmail failed: %v", err)
		}
		if byEmail.ID != user.ID || byEmail.Role != models.RoleAdmin || byEmail.BusinessID != business.ID {
			t.Errorf("unexpected user: %+v", byEmail)
		}

		byID, err := store.GetUserByID(ctx, user.ID)
		if err != nil {
			t.Fatalf("GetUserByID failed: %v", err)
		}
		if byID.Email != user.Email {
			t.Errorf("email mismatch: got %s", byID.Email)
		}

		users, err := store.ListUsers(ctx, business.ID)
		if err != nil {
			t.Fatalf("ListUsers failed: %v", err)
		}
		if len(users) != 1 {
			t.Errorf("expected 1 user, got %d", len(users))
		}
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		user := models.NewUser(business.ID, "rosa@example.com", "Other", "hash", models.RoleCashier)
		if err := store.CreateUser(ctx, user); !errors.Is(err, storage.ErrConflict) {
			t.Errorf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("missing user is not found", func(t *testing.T) {
		if _, err := store.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestSQLiteStore_Catalog(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	business := seedBusiness(t, store)
	other := seedBusiness(t, store)

	t.Run("category names are unique per business", func(t *testing.T) {
		drinks := &models.Category{ID: uuid.New().String(), BusinessID: business.ID, Name: "Bebidas", CreatedAt: 1}
		if err := store.CreateCategory(ctx, drinks); err != nil {
			t.Fatalf("CreateCategory failed: %v", err)
		}
		dup := &models.Category{ID: uuid.New().String(), BusinessID: business.ID, Name: "Bebidas", CreatedAt: 2}
		if err := store.CreateCategory(ctx, dup); !errors.Is(err, storage.ErrConflict) {
			t.Errorf("expected ErrConflict, got %v", err)
		}
		elsewhere := &models.Category{ID: uuid.New().String(), BusinessID: other.ID, Name: "Bebidas", CreatedAt: 3}
		if err := store.CreateCategory(ctx, elsewhere); err != nil {
			t.Errorf("same name in another business should be allowed: %v", err)
		}
	})

	t.Run("SKU collision maps to ErrDuplicateCode", func(t *testing.T) {
		seedProduct(t, store, business.ID, "SKU-000001", "3.50", 10, 2)
		dup := &models.Product{
			ID: uuid.New().String(), BusinessID: business.ID, SKU: "SKU-000001", SKUValue: 1,
			Name: "Dup", Price: decimal.NewFromInt(1), Active: true,
		}
		if err := store.CreateProduct(ctx, dup); !errors.Is(err, storage.ErrDuplicateCode) {
			t.Errorf("expected ErrDuplicateCode, got %v", err)
		}
		// Same SKU in another business is fine.
		seedProduct(t, store, other.ID, "SKU-000001", "1.00", 0, 0)
	})

	t.Run("LastSKUValue ignores custom SKUs", func(t *testing.T) {
		seedProduct(t, store, business.ID, "SKU-000007", "1.00", 0, 0)
		seedProduct(t, store, business.ID, "LECHE-GLORIA", "4.20", 0, 0)

		last, err := store.LastSKUValue(ctx, business.ID)
		if err != nil {
			t.Fatalf("LastSKUValue failed: %v", err)
		}
		if !last.Valid || last.Int64 != 7 {
			t.Errorf("last = %+v, want 7", last)
		}

		empty := seedBusiness(t, store)
		last, err = store.LastSKUValue(ctx, empty.ID)
		if err != nil {
			t.Fatalf("LastSKUValue failed: %v", err)
		}
		if last.Valid {
			t.Errorf("expected NULL for empty business, got %d", last.Int64)
		}
	})

	t.Run("ListProducts filters", func(t *testing.T) {
		products, err := store.ListProducts(ctx, business.ID, models.ProductFilter{Search: "gloria"})
		if err != nil {
			t.Fatalf("ListProducts failed: %v", err)
		}
		if len(products) != 1 || products[0].SKU != "LECHE-GLORIA" {
			t.Fatalf("unexpected search result: %+v", products)
		}
		if !products[0].Price.Equal(decimal.RequireFromString("4.20")) {
			t.Errorf("price = %s, want 4.20", products[0].Price)
		}

		if err := store.SetProductActive(ctx, business.ID, products[0].ID, false); err != nil {
			t.Fatalf("SetProductActive failed: %v", err)
		}
		active, err := store.ListProducts(ctx, business.ID, models.ProductFilter{Search: "gloria"})
		if err != nil {
			t.Fatalf("ListProducts failed: %v", err)
		}
		if len(active) != 0 {
			t.Errorf("deactivated product should be hidden, got %d", len(active))
		}
		all, err := store.ListProducts(ctx, business.ID, models.ProductFilter{Search: "gloria", IncludeInactive: true})
		if err != nil {
			t.Fatalf("ListProducts failed: %v", err)
		}
		if len(all) != 1 {
			t.Errorf("IncludeInactive should list it, got %d", len(all))
		}
	})

	t.Run("DeleteCategory detaches products", func(t *testing.T) {
		snacks := &models.Category{ID: uuid.New().String(), BusinessID: business.ID, Name: "Snacks", CreatedAt: 4}
		if err := store.CreateCategory(ctx, snacks); err != nil {
			t.Fatalf("CreateCategory failed: %v", err)
		}
		p := seedProduct(t, store, business.ID, "SKU-000020", "2.00", 5, 0)
		p.CategoryID = snacks.ID
		if err := store.UpdateProduct(ctx, p); err != nil {
			t.Fatalf("UpdateProduct failed: %v", err)
		}

		if err := store.DeleteCategory(ctx, business.ID, snacks.ID); err != nil {
			t.Fatalf("DeleteCategory failed: %v", err)
		}
		got, err := store.GetProduct(ctx, business.ID, p.ID)
		if err != nil {
			t.Fatalf("GetProduct failed: %v", err)
		}
		if got.CategoryID != "" {
			t.Errorf("expected category to be cleared, got %s", got.CategoryID)
		}
		if err := store.DeleteCategory(ctx, business.ID, snacks.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("second delete should be ErrNotFound, got %v", err)
		}
	})

	t.Run("customer documents are unique per business", func(t *testing.T) {
		c := &models.Customer{ID: uuid.New().String(), BusinessID: business.ID, DocumentNumber: "45678912", Name: "Juan Perez"}
		if err := store.CreateCustomer(ctx, c); err != nil {
			t.Fatalf("CreateCustomer failed: %v", err)
		}
		dup := &models.Customer{ID: uuid.New().String(), BusinessID: business.ID, DocumentNumber: "45678912", Name: "Otro"}
		if err := store.CreateCustomer(ctx, dup); !errors.Is(err, storage.ErrConflict) {
			t.Errorf("expected ErrConflict, got %v", err)
		}

		found, err := store.ListCustomers(ctx, business.ID, "perez")
		if err != nil {
			t.Fatalf("ListCustomers failed: %v", err)
		}
		if len(found) != 1 {
			t.Errorf("expected 1 customer, got %d", len(found))
		}
	})
}

func TestSQLiteStore_Sales(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	business := seedBusiness(t, store)
	rice := seedProduct(t, store, business.ID, "SKU-000001", "4.50", 10, 8)
	oil := seedProduct(t, store, business.ID, "SKU-000002", "9.90", 3, 0)

	t.Run("LastSaleNumber is NULL for an empty day", func(t *testing.T) {
		last, err := store.LastSaleNumber(ctx, business.ID, testDay)
		if err != nil {
			t.Fatalf("LastSaleNumber failed: %v", err)
		}
		if last.Valid {
			t.Errorf("expected NULL, got %d", last.Int64)
		}
	})

	var first *models.Sale
	t.Run("CreateSale decrements stock and records movements", func(t *testing.T) {
		first = newSale(business.ID, "V20261018-0001", 1, lineFor(rice, 2), lineFor(oil, 1))
		levels, err := store.CreateSale(ctx, first)
		if err != nil {
			t.Fatalf("CreateSale failed: %v", err)
		}
		if len(levels) != 2 {
			t.Fatalf("expected 2 stock levels, got %d", len(levels))
		}
		if levels[0].Stock != 8 || !levels[0].Low() {
			t.Errorf("rice level = %+v, want 8 and low", levels[0])
		}

		got, err := store.GetSale(ctx, business.ID, first.ID)
		if err != nil {
			t.Fatalf("GetSale failed: %v", err)
		}
		if got.Number != "V20261018-0001" || len(got.Items) != 2 {
			t.Errorf("unexpected sale: %+v", got)
		}
		if !got.Totals.Total.Equal(decimal.RequireFromString("18.90")) {
			t.Errorf("total = %s, want 18.90", got.Totals.Total)
		}
		if got.Items[0].SKU != "SKU-000001" {
			t.Errorf("items out of order: %+v", got.Items)
		}

		movements, err := store.ListMovements(ctx, business.ID, rice.ID, 10)
		if err != nil {
			t.Fatalf("ListMovements failed: %v", err)
		}
		if len(movements) != 1 || movements[0].Delta != -2 || movements[0].Reason != models.MovementSale {
			t.Errorf("unexpected movements: %+v", movements)
		}

		last, err := store.LastSaleNumber(ctx, business.ID, testDay)
		if err != nil {
			t.Fatalf("LastSaleNumber failed: %v", err)
		}
		if !last.Valid || last.Int64 != 1 {
			t.Errorf("last = %+v, want 1", last)
		}
	})

	t.Run("duplicate number writes nothing", func(t *testing.T) {
		dup := newSale(business.ID, "V20261018-0001", 1, lineFor(rice, 1))
		if _, err := store.CreateSale(ctx, dup); !errors.Is(err, storage.ErrDuplicateCode) {
			t.Fatalf("expected ErrDuplicateCode, got %v", err)
		}
		p, _ := store.GetProduct(ctx, business.ID, rice.ID)
		if p.Stock != 8 {
			t.Errorf("stock changed on failed sale: %d", p.Stock)
		}
	})

	t.Run("insufficient stock rolls back", func(t *testing.T) {
		short := newSale(business.ID, "V20261018-0002", 2, lineFor(rice, 1), lineFor(oil, 5))
		if _, err := store.CreateSale(ctx, short); !errors.Is(err, storage.ErrInsufficientStock) {
			t.Fatalf("expected ErrInsufficientStock, got %v", err)
		}
		p, _ := store.GetProduct(ctx, business.ID, rice.ID)
		if p.Stock != 8 {
			t.Errorf("rice stock changed on rolled back sale: %d", p.Stock)
		}
		if _, err := store.GetSale(ctx, business.ID, short.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("sale should not exist, got %v", err)
		}
	})

	t.Run("VoidSale restores stock once", func(t *testing.T) {
		voided, err := store.VoidSale(ctx, business.ID, first.ID, "admin-1", time.Now().Unix())
		if err != nil {
			t.Fatalf("VoidSale failed: %v", err)
		}
		if voided.Status != models.SaleVoided || voided.VoidedBy != "admin-1" {
			t.Errorf("unexpected voided sale: %+v", voided)
		}
		p, _ := store.GetProduct(ctx, business.ID, rice.ID)
		if p.Stock != 10 {
			t.Errorf("rice stock = %d, want 10", p.Stock)
		}
		if _, err := store.VoidSale(ctx, business.ID, first.ID, "admin-1", time.Now().Unix()); !errors.Is(err, storage.ErrAlreadyVoided) {
			t.Errorf("expected ErrAlreadyVoided, got %v", err)
		}
	})

	t.Run("ListSalesByDay includes voided sales", func(t *testing.T) {
		sales, err := store.ListSalesByDay(ctx, business.ID, testDay)
		if err != nil {
			t.Fatalf("ListSalesByDay failed: %v", err)
		}
		if len(sales) != 1 || sales[0].Status != models.SaleVoided || len(sales[0].Items) != 2 {
			t.Errorf("unexpected sales: %+v", sales)
		}
	})

	t.Run("fallback numbers are ignored by LastSaleNumber", func(t *testing.T) {
		fallback := newSale(business.ID, "V20261018-T1760803200123", 0, lineFor(oil, 1))
		if _, err := store.CreateSale(ctx, fallback); err != nil {
			t.Fatalf("CreateSale failed: %v", err)
		}
		last, err := store.LastSaleNumber(ctx, business.ID, testDay)
		if err != nil {
			t.Fatalf("LastSaleNumber failed: %v", err)
		}
		if last.Int64 != 1 {
			t.Errorf("last = %d, want 1", last.Int64)
		}
	})
}

func TestSQLiteStore_Stock(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	business := seedBusiness(t, store)
	sugar := seedProduct(t, store, business.ID, "SKU-000001", "3.80", 4, 5)

	t.Run("ListLowStock", func(t *testing.T) {
		low, err := store.ListLowStock(ctx, business.ID)
		if err != nil {
			t.Fatalf("ListLowStock failed: %v", err)
		}
		if len(low) != 1 || low[0].ID != sugar.ID {
			t.Errorf("unexpected low stock: %+v", low)
		}
	})

	t.Run("purchase increases stock", func(t *testing.T) {
		level, err := store.AdjustStock(ctx, &models.StockMovement{
			BusinessID: business.ID, ProductID: sugar.ID, Delta: 20,
			Reason: models.MovementPurchase, CreatedBy: "admin-1", CreatedAt: time.Now().Unix(),
		})
		if err != nil {
			t.Fatalf("AdjustStock failed: %v", err)
		}
		if level.Stock != 24 || level.Low() {
			t.Errorf("level = %+v, want 24 and not low", level)
		}
	})

	t.Run("cannot go below zero", func(t *testing.T) {
		_, err := store.AdjustStock(ctx, &models.StockMovement{
			BusinessID: business.ID, ProductID: sugar.ID, Delta: -25,
			Reason: models.MovementDamage, CreatedBy: "admin-1", CreatedAt: time.Now().Unix(),
		})
		if !errors.Is(err, storage.ErrInsufficientStock) {
			t.Fatalf("expected ErrInsufficientStock, got %v", err)
		}
		movements, _ := store.ListMovements(ctx, business.ID, sugar.ID, 0)
		if len(movements) != 1 {
			t.Errorf("failed adjustment should not be recorded, got %d movements", len(movements))
		}
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := store.AdjustStock(ctx, &models.StockMovement{
			BusinessID: business.ID, ProductID: "missing", Delta: 1,
			Reason: models.MovementPurchase, CreatedBy: "admin-1",
		})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

// TestConcurrentSaleNumbers checks that allocation plus the UNIQUE constraint
// yields distinct sale numbers under concurrent checkouts.
func TestConcurrentSaleNumbers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	business := seedBusiness(t, store)
	water := seedProduct(t, store, business.ID, "SKU-000001", "1.50", 100, 0)

	alloc := sequence.NewAllocator(sequence.Options{MaxAttempts: 50})
	series := sequence.SaleNumberSeries(time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC))

	const checkouts = 20
	numbers := make(chan string, checkouts)
	var wg sync.WaitGroup
	for i := 0; i < checkouts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var sale *models.Sale
			read := func(ctx context.Context) (sql.NullInt64, error) {
				return store.LastSaleNumber(ctx, business.ID, testDay)
			}
			commit := func(ctx context.Context, code sequence.Code) error {
				sale = newSale(business.ID, code.Formatted, code.Value, lineFor(water, 1))
				_, err := store.CreateSale(ctx, sale)
				if errors.Is(err, storage.ErrDuplicateCode) {
					return sequence.ErrCollision
				}
				return err
			}
			got, err := alloc.Allocate(ctx, series, read, commit)
			if err != nil {
				t.Errorf("Allocate failed: %v", err)
				return
			}
			numbers <- got.Formatted
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[string]bool)
	for n := range numbers {
		if seen[n] {
			t.Errorf("duplicate sale number %s", n)
		}
		seen[n] = true
	}
	if len(seen) != checkouts {
		t.Errorf("got %d numbers, want %d", len(seen), checkouts)
	}

	p, err := store.GetProduct(ctx, business.ID, water.ID)
	if err != nil {
		t.Fatalf("GetProduct failed: %v", err)
	}
	if p.Stock != 100-checkouts {
		t.Errorf("stock = %d, want %d", p.Stock, 100-checkouts)
	}
}
