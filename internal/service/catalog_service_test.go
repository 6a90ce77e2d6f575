package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	pb "github.com/mmynk/tiendapos/pkg/proto"
)

func TestCreateProductAllocatesSKUs(t *testing.T) {
	ts := setupTestServer(t)

	first := ts.createProduct(t, "Inca Kola 500ml", "2.50", 0, 0)
	second := ts.createProduct(t, "Galletas Soda", "1.20", 0, 0)

	if first.Sku != "SKU-000001" {
		t.Errorf("first sku: expected SKU-000001, got %s", first.Sku)
	}
	if second.Sku != "SKU-000002" {
		t.Errorf("second sku: expected SKU-000002, got %s", second.Sku)
	}
	if !first.Active {
		t.Error("expected new product to be active")
	}
	expectAmount(t, "price", first.Price, "2.50")
}

func TestCreateProductCustomSKU(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()

	resp, err := ts.catalog.CreateProduct(ctx, withToken(&pb.CreateProductRequest{
		Sku:   "SKU-000010",
		Name:  "Arroz Costeño 1kg",
		Price: decimal.RequireFromString("4.90"),
	}, ts.adminToken))
	if err != nil {
		t.Fatalf("CreateProduct failed: %v", err)
	}
	if resp.Msg.Product.Sku != "SKU-000010" {
		t.Errorf("sku: expected SKU-000010, got %s", resp.Msg.Product.Sku)
	}

	// Allocation continues after a hand-typed code from the series.
	next := ts.createProduct(t, "Azúcar 1kg", "3.80", 0, 0)
	if next.Sku != "SKU-000011" {
		t.Errorf("next sku: expected SKU-000011, got %s", next.Sku)
	}

	_, err = ts.catalog.CreateProduct(ctx, withToken(&pb.CreateProductRequest{
		Sku:   "SKU-000010",
		Name:  "Duplicado",
		Price: decimal.RequireFromString("1.00"),
	}, ts.adminToken))
	expectCode(t, err, connect.CodeAlreadyExists)
}

func TestCreateProductOutOfRangeSKUDoesNotStallAllocation(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()

	for _, sku := range []string{"SKU-9223372036854775807", "SKU-+000050"} {
		if _, err := ts.catalog.CreateProduct(ctx, withToken(&pb.CreateProductRequest{
			Sku:   sku,
			Name:  "Importado " + sku,
			Price: decimal.RequireFromString("1.00"),
		}, ts.adminToken)); err != nil {
			t.Fatalf("CreateProduct(%s) failed: %v", sku, err)
		}
	}

	next := ts.createProduct(t, "Azúcar 1kg", "3.80", 0, 0)
	if next.Sku != "SKU-000001" {
		t.Errorf("expected SKU-000001, got %s", next.Sku)
	}
}

func TestCreateProductInitialStock(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()

	product := ts.createProduct(t, "Leche Gloria", "4.20", 12, 3)
	if product.Stock != 12 {
		t.Errorf("stock: expected 12, got %d", product.Stock)
	}

	resp, err := ts.stock.ListMovements(ctx, withToken(&pb.ListMovementsRequest{ProductId: product.Id}, ts.adminToken))
	if err != nil {
		t.Fatalf("ListMovements failed: %v", err)
	}
	if len(resp.Msg.Movements) != 1 {
		t.Fatalf("movements: expected 1, got %d", len(resp.Msg.Movements))
	}
	m := resp.Msg.Movements[0]
	if m.Reason != "purchase" || m.Delta != 12 || m.StockAfter != 12 {
		t.Errorf("unexpected movement %+v", m)
	}
}

func TestCreateProductValidation(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  *pb.CreateProductRequest
		code connect.Code
	}{
		{"missing name", &pb.CreateProductRequest{Price: decimal.NewFromInt(1)}, connect.CodeInvalidArgument},
		{"negative price", &pb.CreateProductRequest{Name: "X", Price: decimal.NewFromInt(-1)}, connect.CodeInvalidArgument},
		{"negative min stock", &pb.CreateProductRequest{Name: "X", Price: decimal.NewFromInt(1), MinStock: -1}, connect.CodeInvalidArgument},
		{"negative initial stock", &pb.CreateProductRequest{Name: "X", Price: decimal.NewFromInt(1), InitialStock: -5}, connect.CodeInvalidArgument},
		{"unknown category", &pb.CreateProductRequest{Name: "X", Price: decimal.NewFromInt(1), CategoryId: "nope"}, connect.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ts.catalog.CreateProduct(ctx, withToken(tt.req, ts.adminToken))
			expectCode(t, err, tt.code)
		})
	}
}

func TestCatalogChangesRequireAdmin(t *testing.T) {
	ts := setupTestServer(t)
	cashier := ts.cashierToken(t)
	ctx := context.Background()

	_, err := ts.catalog.CreateProduct(ctx, withToken(&pb.CreateProductRequest{
		Name:  "Pan",
		Price: decimal.RequireFromString("0.30"),
	}, cashier))
	expectCode(t, err, connect.CodePermissionDenied)

	_, err = ts.catalog.CreateCategory(ctx, withToken(&pb.CreateCategoryRequest{Name: "Panadería"}, cashier))
	expectCode(t, err, connect.CodePermissionDenied)

	// Cashiers can still read the catalog and register customers.
	if _, err := ts.catalog.ListProducts(ctx, withToken(&pb.ListProductsRequest{}, cashier)); err != nil {
		t.Errorf("ListProducts as cashier failed: %v", err)
	}
	if _, err := ts.catalog.CreateCustomer(ctx, withToken(&pb.CreateCustomerRequest{
		DocumentNumber: "45678912",
		Name:           "Juan Pérez",
	}, cashier)); err != nil {
		t.Errorf("CreateCustomer as cashier failed: %v", err)
	}
}

func TestCategoryLifecycle(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()

	created, err := ts.catalog.CreateCategory(ctx, withToken(&pb.CreateCategoryRequest{Name: "Bebidas"}, ts.adminToken))
	if err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	categoryID := created.Msg.Category.Id

	_, err = ts.catalog.CreateCategory(ctx, withToken(&pb.CreateCategoryRequest{Name: "Bebidas"}, ts.adminToken))
	expectCode(t, err, connect.CodeAlreadyExists)

	updated, err := ts.catalog.UpdateCategory(ctx, withToken(&pb.UpdateCategoryRequest{
		CategoryId: categoryID,
		Name:       "Bebidas y gaseosas",
	}, ts.adminToken))
	if err != nil {
		t.Fatalf("UpdateCategory failed: %v", err)
	}
	if updated.Msg.Category.Name != "Bebidas y gaseosas" {
		t.Errorf("name: expected 'Bebidas y gaseosas', got '%s'", updated.Msg.Category.Name)
	}

	product, err := ts.catalog.CreateProduct(ctx, withToken(&pb.CreateProductRequest{
		CategoryId: categoryID,
		Name:       "Agua San Luis",
		Price:      decimal.RequireFromString("1.50"),
	}, ts.adminToken))
	if err != nil {
		t.Fatalf("CreateProduct failed: %v", err)
	}

	if _, err := ts.catalog.DeleteCategory(ctx, withToken(&pb.DeleteCategoryRequest{CategoryId: categoryID}, ts.adminToken)); err != nil {
		t.Fatalf("DeleteCategory failed: %v", err)
	}

	list, err := ts.catalog.ListCategories(ctx, withToken(&pb.ListCategoriesRequest{}, ts.adminToken))
	if err != nil {
		t.Fatalf("ListCategories failed: %v", err)
	}
	if len(list.Msg.Categories) != 0 {
		t.Errorf("categories: expected 0, got %d", len(list.Msg.Categories))
	}

	got, err := ts.catalog.GetProduct(ctx, withToken(&pb.GetProductRequest{ProductId: product.Msg.Product.Id}, ts.adminToken))
	if err != nil {
		t.Fatalf("GetProduct failed: %v", err)
	}
	if got.Msg.Product.CategoryId != "" {
		t.Errorf("expected product to be uncategorized, got %s", got.Msg.Product.CategoryId)
	}

	_, err = ts.catalog.DeleteCategory(ctx, withToken(&pb.DeleteCategoryRequest{CategoryId: categoryID}, ts.adminToken))
	expectCode(t, err, connect.CodeNotFound)
}

func TestUpdateProductAndDeactivate(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()
	product := ts.createProduct(t, "Atún Florida", "5.50", 10, 2)

	updated, err := ts.catalog.UpdateProduct(ctx, withToken(&pb.UpdateProductRequest{
		ProductId: product.Id,
		Name:      "Atún Florida 170g",
		Price:     decimal.RequireFromString("5.90"),
		MinStock:  4,
	}, ts.adminToken))
	if err != nil {
		t.Fatalf("UpdateProduct failed: %v", err)
	}
	p := updated.Msg.Product
	if p.Name != "Atún Florida 170g" || p.MinStock != 4 || p.Stock != 10 || p.Sku != product.Sku {
		t.Errorf("unexpected product after update %+v", p)
	}
	expectAmount(t, "price", p.Price, "5.90")

	deactivated, err := ts.catalog.SetProductActive(ctx, withToken(&pb.SetProductActiveRequest{
		ProductId: product.Id,
		Active:    false,
	}, ts.adminToken))
	if err != nil {
		t.Fatalf("SetProductActive failed: %v", err)
	}
	if deactivated.Msg.Product.Active {
		t.Error("expected product to be inactive")
	}

	active, err := ts.catalog.ListProducts(ctx, withToken(&pb.ListProductsRequest{}, ts.adminToken))
	if err != nil {
		t.Fatalf("ListProducts failed: %v", err)
	}
	if len(active.Msg.Products) != 0 {
		t.Errorf("active products: expected 0, got %d", len(active.Msg.Products))
	}
	all, err := ts.catalog.ListProducts(ctx, withToken(&pb.ListProductsRequest{IncludeInactive: true}, ts.adminToken))
	if err != nil {
		t.Fatalf("ListProducts failed: %v", err)
	}
	if len(all.Msg.Products) != 1 {
		t.Errorf("all products: expected 1, got %d", len(all.Msg.Products))
	}

	_, err = ts.catalog.GetProduct(ctx, withToken(&pb.GetProductRequest{ProductId: "missing"}, ts.adminToken))
	expectCode(t, err, connect.CodeNotFound)
}

func TestCustomerLifecycle(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()

	created, err := ts.catalog.CreateCustomer(ctx, withToken(&pb.CreateCustomerRequest{
		DocumentNumber: "10456789123",
		Name:           "Comercial Lima SAC",
		Phone:          "999888777",
	}, ts.adminToken))
	if err != nil {
		t.Fatalf("CreateCustomer failed: %v", err)
	}
	customerID := created.Msg.Customer.Id

	_, err = ts.catalog.CreateCustomer(ctx, withToken(&pb.CreateCustomerRequest{
		DocumentNumber: "10456789123",
		Name:           "Otro",
	}, ts.adminToken))
	expectCode(t, err, connect.CodeAlreadyExists)

	_, err = ts.catalog.CreateCustomer(ctx, withToken(&pb.CreateCustomerRequest{Name: "Sin documento"}, ts.adminToken))
	expectCode(t, err, connect.CodeInvalidArgument)

	updated, err := ts.catalog.UpdateCustomer(ctx, withToken(&pb.UpdateCustomerRequest{
		CustomerId:     customerID,
		DocumentNumber: "10456789123",
		Name:           "Comercial Lima SAC",
		Email:          "compras@comerciallima.pe",
	}, ts.adminToken))
	if err != nil {
		t.Fatalf("UpdateCustomer failed: %v", err)
	}
	if updated.Msg.Customer.Email != "compras@comerciallima.pe" {
		t.Errorf("email: expected update, got %s", updated.Msg.Customer.Email)
	}

	got, err := ts.catalog.GetCustomer(ctx, withToken(&pb.GetCustomerRequest{CustomerId: customerID}, ts.adminToken))
	if err != nil {
		t.Fatalf("GetCustomer failed: %v", err)
	}
	if got.Msg.Customer.Name != "Comercial Lima SAC" {
		t.Errorf("name: expected 'Comercial Lima SAC', got '%s'", got.Msg.Customer.Name)
	}

	list, err := ts.catalog.ListCustomers(ctx, withToken(&pb.ListCustomersRequest{Search: "lima"}, ts.adminToken))
	if err != nil {
		t.Fatalf("ListCustomers failed: %v", err)
	}
	if len(list.Msg.Customers) != 1 {
		t.Errorf("customers: expected 1, got %d", len(list.Msg.Customers))
	}
}
