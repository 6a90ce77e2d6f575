package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/tiendapos/internal/metrics"
	"github.com/mmynk/tiendapos/internal/middleware"
	"github.com/mmynk/tiendapos/internal/models"
	"github.com/mmynk/tiendapos/internal/sequence"
	"github.com/mmynk/tiendapos/internal/storage"
	pb "github.com/mmynk/tiendapos/pkg/proto"
	"github.com/mmynk/tiendapos/pkg/proto/protoconnect"
)

// CatalogService implements the Connect CatalogService.
// Reads are open to every role; catalog changes need an admin.
// Cashiers may register customers at the counter.
type CatalogService struct {
	protoconnect.UnimplementedCatalogServiceHandler
	store     storage.Store
	allocator *sequence.Allocator
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewCatalogService creates a CatalogService backed by store. SKUs are
// allocated with allocator.
func NewCatalogService(store storage.Store, allocator *sequence.Allocator, m *metrics.Metrics) *CatalogService {
	return &CatalogService{store: store, allocator: allocator, metrics: m, now: time.Now}
}

// CreateCategory creates a new category.
func (s *CatalogService) CreateCategory(ctx context.Context, req *connect.Request[pb.CreateCategoryRequest]) (*connect.Response[pb.CreateCategoryResponse], error) {
	businessID, _, err := session(ctx)
	if err != nil {
		return nil, err
	}
	if err := middleware.RequireRole(ctx, models.RoleAdmin); err != nil {
		return nil, err
	}
	slog.Info("CreateCategory request received", "business_id", businessID, "name", req.Msg.Name)

	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("category name required"))
	}

	category := &models.Category{
		ID:         uuid.New().String(),
		BusinessID: businessID,
		Name:       name,
		CreatedAt:  s.now().Unix(),
	}
	if err := s.store.CreateCategory(ctx, category); err != nil {
		slog.Error("CreateCategory failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Category created", "category_id", category.ID)
	return connect.NewResponse(&pb.CreateCategoryResponse{Category: toProtoCategory(category)}), nil
}

// ListCategories lists the business's categories by name.
func (s *CatalogService) ListCategories(ctx context.Context, req *connect.Request[pb.ListCategoriesRequest]) (*connect.Response[pb.ListCategoriesResponse], error) {
	businessID, _, err := session(ctx)
	if err != nil {
		return nil, err
	}

	categories, err := s.store.ListCategories(ctx, businessID)
	if err != nil {
		slog.Error("ListCategories failed", "error", err)
		return nil, toConnectError(err)
	}

	resp := &pb.ListCategoriesResponse{Categories: make([]*pb.Category, len(categories))}
	for i, c := range categories {
		resp.Categories[i] = toProtoCategory(c)
	}
	return connect.NewResponse(resp), nil
}

// UpdateCategory renames a category.
func (s *CatalogService) UpdateCategory(ctx context.Context, req *connect.Request[pb.UpdateCategoryRequest]) (*connect.Response[pb.UpdateCategoryResponse], error) {
	businessID, _, err := session(ctx)
	if err != nil {
		return nil, err
	}
	if err := middleware.RequireRole(ctx, models.RoleAdmin); err != nil {
		return nil, err
	}
	slog.Info("UpdateCategory request received", "category_id", req.Msg.CategoryId, "name", req.Msg.Name)

	name := strings.TrimSpace(req.Msg.Name)
	if req.Msg.CategoryId == "" || name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("category_id and name required"))
	}

	category, err := s.findCategory(ctx, businessID, req.Msg.CategoryId)
	if err != nil {
		return nil, toConnectError(err)
	}
	category.Name = name
	if err := s.store.UpdateCategory(ctx, category); err != nil {
		slog.Error("UpdateCategory failed", "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&pb.UpdateCategoryResponse{Category: toProtoCategory(category)}), nil
}

// DeleteCategory removes a category. Its products become uncategorized.
func (s *CatalogService) DeleteCategory(ctx context.Context, req *connect.Request[pb.DeleteCategoryRequest]) (*connect.Response[pb.DeleteCategoryResponse], error) {
	businessID, _, err := session(ctx)
	if err != nil {
		return nil, err
	}
	if err := middleware.RequireRole(ctx, models.RoleAdmin); err != nil {
		return nil, err
	}
	slog.Info("DeleteCategory request received", "category_id", req.Msg.CategoryId)

	if err := s.store.DeleteCategory(ctx, businessID, req.Msg.CategoryId); err != nil {
		slog.Error("DeleteCategory failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Category deleted", "category_id", req.Msg.CategoryId)
	return connect.NewResponse(&pb.DeleteCategoryResponse{}), nil
}

// findCategory looks a category up among the business's categories.
func (s *CatalogService) findCategory(ctx context.Context, businessID, categoryID string) (*models.Category, error) {
	categories, err := s.store.ListCategories(ctx, businessID)
	if err != nil {
		return nil, err
	}
	for _, c := range categories {
		if c.ID == categoryID {
			return c, nil
		}
	}
	return nil, fmt.Errorf("category %s: %w", categoryID, storage.ErrNotFound)
}

func validateProduct(name string, price decimal.Decimal, minStock int) error {
	if strings.TrimSpace(name) == "" {
		return connect.NewError(connect.CodeInvalidArgument, errors.New("product name required"))
	}
	if price.IsNegative() {
		return connect.NewError(connect.CodeInvalidArgument, errors.New("price must not be negative"))
	}
	if minStock < 0 {
		return connect.NewError(connect.CodeInvalidArgument, errors.New("min_stock must not be negative"))
	}
	return nil
}

// CreateProduct adds a product. Without an explicit SKU the next one in the
// business's SKU series is allocated.
func (s *CatalogService) CreateProduct(ctx context.Context, req *connect.Request[pb.CreateProductRequest]) (*connect.Response[pb.CreateProductResponse], error) {
	businessID, userID, err := session(ctx)
	if err != nil {
		return nil, err
	}
	if err := middleware.RequireRole(ctx, models.RoleAdmin); err != nil {
		return nil, err
	}
	slog.Info("CreateProduct request received", "business_id", businessID, "name", req.Msg.Name, "sku", req.Msg.Sku)

	if err := validateProduct(req.Msg.Name, req.Msg.Price, req.Msg.MinStock); err != nil {
		return nil, err
	}
	if req.Msg.InitialStock < 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("initial_stock must not be negative"))
	}
	if req.Msg.CategoryId != "" {
		if _, err := s.findCategory(ctx, businessID, req.Msg.CategoryId); err != nil {
			return nil, toConnectError(err)
		}
	}

	now := s.now().Unix()
	product := &models.Product{
		ID:         uuid.New().String(),
		BusinessID: businessID,
		CategoryID: req.Msg.CategoryId,
		Name:       strings.TrimSpace(req.Msg.Name),
		Price:      req.Msg.Price.Round(2),
		MinStock:   req.Msg.MinStock,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	fallback := false
	series := sequence.SKUSeries()
	if sku := strings.TrimSpace(req.Msg.Sku); sku != "" {
		product.SKU = sku
		// A hand-typed code from the series still advances it.
		product.SKUValue, _ = series.Parse(sku)
		if err := s.store.CreateProduct(ctx, product); err != nil {
			slog.Warn("CreateProduct failed", "sku", sku, "error", err)
			return nil, toConnectError(err)
		}
	} else {
		alloc, err := s.allocator.Allocate(ctx, series,
			func(ctx context.Context) (sql.NullInt64, error) {
				return s.store.LastSKUValue(ctx, businessID)
			},
			func(ctx context.Context, code sequence.Code) error {
				product.SKU = code.Formatted
				product.SKUValue = code.Value
				return asCollision(s.store.CreateProduct(ctx, product))
			},
		)
		if err != nil {
			slog.Error("CreateProduct failed - SKU allocation", "business_id", businessID, "error", err)
			return nil, toConnectError(err)
		}
		s.metrics.SequenceAttempts.WithLabelValues("sku").Observe(float64(alloc.Attempts))
		if alloc.Fallback {
			fallback = true
			s.metrics.SequenceFallbacks.WithLabelValues("sku").Inc()
			slog.Warn("SKU allocation fell back to timestamp code", "sku", alloc.Formatted, "attempts", alloc.Attempts)
		}
	}

	if req.Msg.InitialStock > 0 {
		level, err := s.store.AdjustStock(ctx, &models.StockMovement{
			BusinessID: businessID,
			ProductID:  product.ID,
			Delta:      req.Msg.InitialStock,
			Reason:     models.MovementPurchase,
			Note:       "initial stock",
			CreatedBy:  userID,
			CreatedAt:  now,
		})
		if err != nil {
			slog.Error("CreateProduct failed - initial stock", "product_id", product.ID, "error", err)
			return nil, toConnectError(err)
		}
		product.Stock = level.Stock
	}

	slog.Info("Product created", "product_id", product.ID, "sku", product.SKU)
	return connect.NewResponse(&pb.CreateProductResponse{
		Product:     toProtoProduct(product),
		SkuFallback: fallback,
	}), nil
}

// GetProduct retrieves a product by ID.
func (s *CatalogService) GetProduct(ctx context.Context, req *connect.Request[pb.GetProductRequest]) (*connect.Response[pb.GetProductResponse], error) {
	businessID, _, err := session(ctx)
	if err != nil {
		return nil, err
	}

	product, err := s.store.GetProduct(ctx, businessID, req.Msg.ProductId)
	if err != nil {
		slog.Warn("GetProduct failed", "product_id", req.Msg.ProductId, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&pb.GetProductResponse{Product: toProtoProduct(product)}), nil
}

// ListProducts lists products, optionally narrowed by category and search term.
func (s *CatalogService) ListProducts(ctx context.Context, req *connect.Request[pb.ListProductsRequest]) (*connect.Response[pb.ListProductsResponse], error) {
	businessID, _, err := session(ctx)
	if err != nil {
		return nil, err
	}

	products, err := s.store.ListProducts(ctx, businessID, models.ProductFilter{
		CategoryID:      req.Msg.CategoryId,
		Search:          req.Msg.Search,
		IncludeInactive: req.Msg.IncludeInactive,
	})
	if err != nil {
		slog.Error("ListProducts failed", "error", err)
		return nil, toConnectError(err)
	}

	resp := &pb.ListProductsResponse{Products: make([]*pb.Product, len(products))}
	for i, p := range products {
		resp.Products[i] = toProtoProduct(p)
	}
	slog.Info("ListProducts successful", "count", len(products))
	return connect.NewResponse(resp), nil
}

// UpdateProduct changes a product's name, category, price and threshold.
func (s *CatalogService) UpdateProduct(ctx context.Context, req *connect.Request[pb.UpdateProductRequest]) (*connect.Response[pb.UpdateProductResponse], error) {
	businessID, _, err := session(ctx)
	if err != nil {
		return nil, err
	}
	if err := middleware.RequireRole(ctx, models.RoleAdmin); err != nil {
		return nil, err
	}
	slog.Info("UpdateProduct request received", "product_id", req.Msg.ProductId)

	if err := validateProduct(req.Msg.Name, req.Msg.Price, req.Msg.MinStock); err != nil {
		return nil, err
	}
	if req.Msg.CategoryId != "" {
		if _, err := s.findCategory(ctx, businessID, req.Msg.CategoryId); err != nil {
			return nil, toConnectError(err)
		}
	}

	product, err := s.store.GetProduct(ctx, businessID, req.Msg.ProductId)
	if err != nil {
		return nil, toConnectError(err)
	}
	product.CategoryID = req.Msg.CategoryId
	product.Name = strings.TrimSpace(req.Msg.Name)
	product.Price = req.Msg.Price.Round(2)
	product.MinStock = req.Msg.MinStock
	product.UpdatedAt = s.now().Unix()

	if err := s.store.UpdateProduct(ctx, product); err != nil {
		slog.Error("UpdateProduct failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Product updated", "product_id", product.ID)
	return connect.NewResponse(&pb.UpdateProductResponse{Product: toProtoProduct(product)}), nil
}

// SetProductActive deactivates a product, or reactivates it. Inactive
// products cannot be sold but stay in sale history.
func (s *CatalogService) SetProductActive(ctx context.Context, req *connect.Request[pb.SetProductActiveRequest]) (*connect.Response[pb.SetProductActiveResponse], error) {
	businessID, _, err := session(ctx)
	if err != nil {
		return nil, err
	}
	if err := middleware.RequireRole(ctx, models.RoleAdmin); err != nil {
		return nil, err
	}
	slog.Info("SetProductActive request received", "product_id", req.Msg.ProductId, "active", req.Msg.Active)

	if err := s.store.SetProductActive(ctx, businessID, req.Msg.ProductId, req.Msg.Active); err != nil {
		slog.Error("SetProductActive failed", "error", err)
		return nil, toConnectError(err)
	}
	product, err := s.store.GetProduct(ctx, businessID, req.Msg.ProductId)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&pb.SetProductActiveResponse{Product: toProtoProduct(product)}), nil
}

func validateCustomer(documentNumber, name string) error {
	if strings.TrimSpace(documentNumber) == "" || strings.TrimSpace(name) == "" {
		return connect.NewError(connect.CodeInvalidArgument, errors.New("document_number and name required"))
	}
	return nil
}

// CreateCustomer registers a customer.
func (s *CatalogService) CreateCustomer(ctx context.Context, req *connect.Request[pb.CreateCustomerRequest]) (*connect.Response[pb.CreateCustomerResponse], error) {
	businessID, _, err := session(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CreateCustomer request received", "business_id", businessID, "document", req.Msg.DocumentNumber)

	if err := validateCustomer(req.Msg.DocumentNumber, req.Msg.Name); err != nil {
		return nil, err
	}

	customer := &models.Customer{
		ID:             uuid.New().String(),
		BusinessID:     businessID,
		DocumentNumber: strings.TrimSpace(req.Msg.DocumentNumber),
		Name:           strings.TrimSpace(req.Msg.Name),
		Phone:          req.Msg.Phone,
		Email:          req.Msg.Email,
		CreatedAt:      s.now().Unix(),
	}
	if err := s.store.CreateCustomer(ctx, customer); err != nil {
		slog.Warn("CreateCustomer failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Customer created", "customer_id", customer.ID)
	return connect.NewResponse(&pb.CreateCustomerResponse{Customer: toProtoCustomer(customer)}), nil
}

// GetCustomer retrieves a customer by ID.
func (s *CatalogService) GetCustomer(ctx context.Context, req *connect.Request[pb.GetCustomerRequest]) (*connect.Response[pb.GetCustomerResponse], error) {
	businessID, _, err := session(ctx)
	if err != nil {
		return nil, err
	}

	customer, err := s.store.GetCustomer(ctx, businessID, req.Msg.CustomerId)
	if err != nil {
		slog.Warn("GetCustomer failed", "customer_id", req.Msg.CustomerId, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&pb.GetCustomerResponse{Customer: toProtoCustomer(customer)}), nil
}

// ListCustomers lists customers whose name or document matches the search term.
func (s *CatalogService) ListCustomers(ctx context.Context, req *connect.Request[pb.ListCustomersRequest]) (*connect.Response[pb.ListCustomersResponse], error) {
	businessID, _, err := session(ctx)
	if err != nil {
		return nil, err
	}

	customers, err := s.store.ListCustomers(ctx, businessID, req.Msg.Search)
	if err != nil {
		slog.Error("ListCustomers failed", "error", err)
		return nil, toConnectError(err)
	}

	resp := &pb.ListCustomersResponse{Customers: make([]*pb.Customer, len(customers))}
	for i, c := range customers {
		resp.Customers[i] = toProtoCustomer(c)
	}
	return connect.NewResponse(resp), nil
}

// UpdateCustomer updates a customer's details.
func (s *CatalogService) UpdateCustomer(ctx context.Context, req *connect.Request[pb.UpdateCustomerRequest]) (*connect.Response[pb.UpdateCustomerResponse], error) {
	businessID, _, err := session(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("UpdateCustomer request received", "customer_id", req.Msg.CustomerId)

	if err := validateCustomer(req.Msg.DocumentNumber, req.Msg.Name); err != nil {
		return nil, err
	}

	customer, err := s.store.GetCustomer(ctx, businessID, req.Msg.CustomerId)
	if err != nil {
		return nil, toConnectError(err)
	}
	customer.DocumentNumber = strings.TrimSpace(req.Msg.DocumentNumber)
	customer.Name = strings.TrimSpace(req.Msg.Name)
	customer.Phone = req.Msg.Phone
	customer.Email = req.Msg.Email

	if err := s.store.UpdateCustomer(ctx, customer); err != nil {
		slog.Warn("UpdateCustomer failed", "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&pb.UpdateCustomerResponse{Customer: toProtoCustomer(customer)}), nil
}
