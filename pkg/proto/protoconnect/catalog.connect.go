package protoconnect

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"

	pb "github.com/mmynk/tiendapos/pkg/proto"
)

const CatalogServiceName = "pos.v1.CatalogService"

const (
	CatalogServiceCreateCategoryProcedure   = "/pos.v1.CatalogService/CreateCategory"
	CatalogServiceListCategoriesProcedure   = "/pos.v1.CatalogService/ListCategories"
	CatalogServiceUpdateCategoryProcedure   = "/pos.v1.CatalogService/UpdateCategory"
	CatalogServiceDeleteCategoryProcedure   = "/pos.v1.CatalogService/DeleteCategory"
	CatalogServiceCreateProductProcedure    = "/pos.v1.CatalogService/CreateProduct"
	CatalogServiceGetProductProcedure       = "/pos.v1.CatalogService/GetProduct"
	CatalogServiceListProductsProcedure     = "/pos.v1.CatalogService/ListProducts"
	CatalogServiceUpdateProductProcedure    = "/pos.v1.CatalogService/UpdateProduct"
	CatalogServiceSetProductActiveProcedure = "/pos.v1.CatalogService/SetProductActive"
	CatalogServiceCreateCustomerProcedure   = "/pos.v1.CatalogService/CreateCustomer"
	CatalogServiceGetCustomerProcedure      = "/pos.v1.CatalogService/GetCustomer"
	CatalogServiceListCustomersProcedure    = "/pos.v1.CatalogService/ListCustomers"
	CatalogServiceUpdateCustomerProcedure   = "/pos.v1.CatalogService/UpdateCustomer"
)

type CatalogServiceHandler interface {
	CreateCategory(context.Context, *connect.Request[pb.CreateCategoryRequest]) (*connect.Response[pb.CreateCategoryResponse], error)
	ListCategories(context.Context, *connect.Request[pb.ListCategoriesRequest]) (*connect.Response[pb.ListCategoriesResponse], error)
	UpdateCategory(context.Context, *connect.Request[pb.UpdateCategoryRequest]) (*connect.Response[pb.UpdateCategoryResponse], error)
	DeleteCategory(context.Context, *connect.Request[pb.DeleteCategoryRequest]) (*connect.Response[pb.DeleteCategoryResponse], error)
	CreateProduct(context.Context, *connect.Request[pb.CreateProductRequest]) (*connect.Response[pb.CreateProductResponse], error)
	GetProduct(context.Context, *connect.Request[pb.GetProductRequest]) (*connect.Response[pb.GetProductResponse], error)
	ListProducts(context.Context, *connect.Request[pb.ListProductsRequest]) (*connect.Response[pb.ListProductsResponse], error)
	UpdateProduct(context.Context, *connect.Request[pb.UpdateProductRequest]) (*connect.Response[pb.UpdateProductResponse], error)
	SetProductActive(context.Context, *connect.Request[pb.SetProductActiveRequest]) (*connect.Response[pb.SetProductActiveResponse], error)
	CreateCustomer(context.Context, *connect.Request[pb.CreateCustomerRequest]) (*connect.Response[pb.CreateCustomerResponse], error)
	GetCustomer(context.Context, *connect.Request[pb.GetCustomerRequest]) (*connect.Response[pb.GetCustomerResponse], error)
	ListCustomers(context.Context, *connect.Request[pb.ListCustomersRequest]) (*connect.Response[pb.ListCustomersResponse], error)
	UpdateCustomer(context.Context, *connect.Request[pb.UpdateCustomerRequest]) (*connect.Response[pb.UpdateCustomerResponse], error)
}

// NewCatalogServiceHandler returns the path prefix to mount and its handler.
func NewCatalogServiceHandler(svc CatalogServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return "/" + CatalogServiceName + "/", routes{
		CatalogServiceCreateCategoryProcedure:   connect.NewUnaryHandler(CatalogServiceCreateCategoryProcedure, svc.CreateCategory, opts...),
		CatalogServiceListCategoriesProcedure:   connect.NewUnaryHandler(CatalogServiceListCategoriesProcedure, svc.ListCategories, opts...),
		CatalogServiceUpdateCategoryProcedure:   connect.NewUnaryHandler(CatalogServiceUpdateCategoryProcedure, svc.UpdateCategory, opts...),
		CatalogServiceDeleteCategoryProcedure:   connect.NewUnaryHandler(CatalogServiceDeleteCategoryProcedure, svc.DeleteCategory, opts...),
		CatalogServiceCreateProductProcedure:    connect.NewUnaryHandler(CatalogServiceCreateProductProcedure, svc.CreateProduct, opts...),
		CatalogServiceGetProductProcedure:       connect.NewUnaryHandler(CatalogServiceGetProductProcedure, svc.GetProduct, opts...),
		CatalogServiceListProductsProcedure:     connect.NewUnaryHandler(CatalogServiceListProductsProcedure, svc.ListProducts, opts...),
		CatalogServiceUpdateProductProcedure:    connect.NewUnaryHandler(CatalogServiceUpdateProductProcedure, svc.UpdateProduct, opts...),
		CatalogServiceSetProductActiveProcedure: connect.NewUnaryHandler(CatalogServiceSetProductActiveProcedure, svc.SetProductActive, opts...),
		CatalogServiceCreateCustomerProcedure:   connect.NewUnaryHandler(CatalogServiceCreateCustomerProcedure, svc.CreateCustomer, opts...),
		CatalogServiceGetCustomerProcedure:      connect.NewUnaryHandler(CatalogServiceGetCustomerProcedure, svc.GetCustomer, opts...),
		CatalogServiceListCustomersProcedure:    connect.NewUnaryHandler(CatalogServiceListCustomersProcedure, svc.ListCustomers, opts...),
		CatalogServiceUpdateCustomerProcedure:   connect.NewUnaryHandler(CatalogServiceUpdateCustomerProcedure, svc.UpdateCustomer, opts...),
	}
}

// UnimplementedCatalogServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedCatalogServiceHandler struct{}

func (UnimplementedCatalogServiceHandler) CreateCategory(context.Context, *connect.Request[pb.CreateCategoryRequest]) (*connect.Response[pb.CreateCategoryResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("pos.v1.CatalogService.CreateCategory is not implemented"))
}

func (UnimplementedCatalogServiceHandler) ListCategories(context.Context, *connect.Request[pb.ListCategoriesRequest]) (*connect.Response[pb.ListCategoriesResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("pos.v1.CatalogService.ListCategories is not implemented"))
}

func (UnimplementedCatalogServiceHandler) UpdateCategory(context.Context, *connect.Request[pb.UpdateCategoryRequest]) (*connect.Response[pb.UpdateCategoryResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("pos.v1.CatalogService.UpdateCategory is not implemented"))
}

func (UnimplementedCatalogServiceHandler) DeleteCategory(context.Context, *connect.Request[pb.DeleteCategoryRequest]) (*connect.Response[pb.DeleteCategoryResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("pos.v1.CatalogService.DeleteCategory is not implemented"))
}

func (UnimplementedCatalogServiceHandler) CreateProduct(context.Context, *connect.Request[pb.CreateProductRequest]) (*connect.Response[pb.CreateProductResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("pos.v1.CatalogService.CreateProduct is not implemented"))
}

func (UnimplementedCatalogServiceHandler) GetProduct(context.Context, *connect.Request[pb.GetProductRequest]) (*connect.Response[pb.GetProductResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("pos.v1.CatalogService.GetProduct is not implemented"))
}

func (UnimplementedCatalogServiceHandler) ListProducts(context.Context, *connect.Request[pb.ListProductsRequest]) (*connect.Response[pb.ListProductsResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("pos.v1.CatalogService.ListProducts is not implemented"))
}

func (UnimplementedCatalogServiceHandler) UpdateProduct(context.Context, *connect.Request[pb.UpdateProductRequest]) (*connect.Response[pb.UpdateProductResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("pos.v1.CatalogService.UpdateProduct is not implemented"))
}

func (UnimplementedCatalogServiceHandler) SetProductActive(context.Context, *connect.Request[pb.SetProductActiveRequest]) (*connect.Response[pb.SetProductActiveResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("pos.v1.CatalogService.SetProductActive is not implemented"))
}

func (UnimplementedCatalogServiceHandler) CreateCustomer(context.Context, *connect.Request[pb.CreateCustomerRequest]) (*connect.Response[pb.CreateCustomerResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("pos.v1.CatalogService.CreateCustomer is not implemented"))
}

func (UnimplementedCatalogServiceHandler) GetCustomer(context.Context, *connect.Request[pb.GetCustomerRequest]) (*connect.Response[pb.GetCustomerResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("pos.v1.CatalogService.GetCustomer is not implemented"))
}

func (UnimplementedCatalogServiceHandler) ListCustomers(context.Context, *connect.Request[pb.ListCustomersRequest]) (*connect.Response[pb.ListCustomersResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("pos.v1.CatalogService.ListCustomers is not implemented"))
}

func (UnimplementedCatalogServiceHandler) UpdateCustomer(context.Context, *connect.Request[pb.UpdateCustomerRequest]) (*connect.Response[pb.UpdateCustomerResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("pos.v1.CatalogService.UpdateCustomer is not implemented"))
}

type CatalogServiceClient interface {
	CreateCategory(context.Context, *connect.Request[pb.CreateCategoryRequest]) (*connect.Response[pb.CreateCategoryResponse], error)
	ListCategories(context.Context, *connect.Request[pb.ListCategoriesRequest]) (*connect.Response[pb.ListCategoriesResponse], error)
	UpdateCategory(context.Context, *connect.Request[pb.UpdateCategoryRequest]) (*connect.Response[pb.UpdateCategoryResponse], error)
	DeleteCategory(context.Context, *connect.Request[pb.DeleteCategoryRequest]) (*connect.Response[pb.DeleteCategoryResponse], error)
	CreateProduct(context.Context, *connect.Request[pb.CreateProductRequest]) (*connect.Response[pb.CreateProductResponse], error)
	GetProduct(context.Context, *connect.Request[pb.GetProductRequest]) (*connect.Response[pb.GetProductResponse], error)
	ListProducts(context.Context, *connect.Request[pb.ListProductsRequest]) (*connect.Response[pb.ListProductsResponse], error)
	UpdateProduct(context.Context, *connect.Request[pb.UpdateProductRequest]) (*connect.Response[pb.UpdateProductResponse], error)
	SetProductActive(context.Context, *connect.Request[pb.SetProductActiveRequest]) (*connect.Response[pb.SetProductActiveResponse], error)
	CreateCustomer(context.Context, *connect.Request[pb.CreateCustomerRequest]) (*connect.Response[pb.CreateCustomerResponse], error)
	GetCustomer(context.Context, *connect.Request[pb.GetCustomerRequest]) (*connect.Response[pb.GetCustomerResponse], error)
	ListCustomers(context.Context, *connect.Request[pb.ListCustomersRequest]) (*connect.Response[pb.ListCustomersResponse], error)
	UpdateCustomer(context.Context, *connect.Request[pb.UpdateCustomerRequest]) (*connect.Response[pb.UpdateCustomerResponse], error)
}

// NewCatalogServiceClient builds a client for the service at baseURL, e.g. http://localhost:8080.
func NewCatalogServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) CatalogServiceClient {
	opts = clientOptions(opts)
	return &catalogServiceClient{
		createCategory:   connect.NewClient[pb.CreateCategoryRequest, pb.CreateCategoryResponse](httpClient, baseURL+CatalogServiceCreateCategoryProcedure, opts...),
		listCategories:   connect.NewClient[pb.ListCategoriesRequest, pb.ListCategoriesResponse](httpClient, baseURL+CatalogServiceListCategoriesProcedure, opts...),
		updateCategory:   connect.NewClient[pb.UpdateCategoryRequest, pb.UpdateCategoryResponse](httpClient, baseURL+CatalogServiceUpdateCategoryProcedure, opts...),
		deleteCategory:   connect.NewClient[pb.DeleteCategoryRequest, pb.DeleteCategoryResponse](httpClient, baseURL+CatalogServiceDeleteCategoryProcedure, opts...),
		createProduct:    connect.NewClient[pb.CreateProductRequest, pb.CreateProductResponse](httpClient, baseURL+CatalogServiceCreateProductProcedure, opts...),
		getProduct:       connect.NewClient[pb.GetProductRequest, pb.GetProductResponse](httpClient, baseURL+CatalogServiceGetProductProcedure, opts...),
		listProducts:     connect.NewClient[pb.ListProductsRequest, pb.ListProductsResponse](httpClient, baseURL+CatalogServiceListProductsProcedure, opts...),
		updateProduct:    connect.NewClient[pb.UpdateProductRequest, pb.UpdateProductResponse](httpClient, baseURL+CatalogServiceUpdateProductProcedure, opts...),
		setProductActive: connect.NewClient[pb.SetProductActiveRequest, pb.SetProductActiveResponse](httpClient, baseURL+CatalogServiceSetProductActiveProcedure, opts...),
		createCustomer:   connect.NewClient[pb.CreateCustomerRequest, pb.CreateCustomerResponse](httpClient, baseURL+CatalogServiceCreateCustomerProcedure, opts...),
		getCustomer:      connect.NewClient[pb.GetCustomerRequest, pb.GetCustomerResponse](httpClient, baseURL+CatalogServiceGetCustomerProcedure, opts...),
		listCustomers:    connect.NewClient[pb.ListCustomersRequest, pb.ListCustomersResponse](httpClient, baseURL+CatalogServiceListCustomersProcedure, opts...),
		updateCustomer:   connect.NewClient[pb.UpdateCustomerRequest, pb.UpdateCustomerResponse](httpClient, baseURL+CatalogServiceUpdateCustomerProcedure, opts...),
	}
}

type catalogServiceClient struct {
	createCategory   *connect.Client[pb.CreateCategoryRequest, pb.CreateCategoryResponse]
	listCategories   *connect.Client[pb.ListCategoriesRequest, pb.ListCategoriesResponse]
	updateCategory   *connect.Client[pb.UpdateCategoryRequest, pb.UpdateCategoryResponse]
	deleteCategory   *connect.Client[pb.DeleteCategoryRequest, pb.DeleteCategoryResponse]
	createProduct    *connect.Client[pb.CreateProductRequest, pb.CreateProductResponse]
	getProduct       *connect.Client[pb.GetProductRequest, pb.GetProductResponse]
	listProducts     *connect.Client[pb.ListProductsRequest, pb.ListProductsResponse]
	updateProduct    *connect.Client[pb.UpdateProductRequest, pb.UpdateProductResponse]
	setProductActive *connect.Client[pb.SetProductActiveRequest, pb.SetProductActiveResponse]
	createCustomer   *connect.Client[pb.CreateCustomerRequest, pb.CreateCustomerResponse]
	getCustomer      *connect.Client[pb.GetCustomerRequest, pb.GetCustomerResponse]
	listCustomers    *connect.Client[pb.ListCustomersRequest, pb.ListCustomersResponse]
	updateCustomer   *connect.Client[pb.UpdateCustomerRequest, pb.UpdateCustomerResponse]
}

func (c *catalogServiceClient) CreateCategory(ctx context.Context, req *connect.Request[pb.CreateCategoryRequest]) (*connect.Response[pb.CreateCategoryResponse], error) {
	return c.createCategory.CallUnary(ctx, req)
}

func (c *catalogServiceClient) ListCategories(ctx context.Context, req *connect.Request[pb.ListCategoriesRequest]) (*connect.Response[pb.ListCategoriesResponse], error) {
	return c.listCategories.CallUnary(ctx, req)
}

func (c *catalogServiceClient) UpdateCategory(ctx context.Context, req *connect.Request[pb.UpdateCategoryRequest]) (*connect.Response[pb.UpdateCategoryResponse], error) {
	return c.updateCategory.CallUnary(ctx, req)
}

func (c *catalogServiceClient) DeleteCategory(ctx context.Context, req *connect.Request[pb.DeleteCategoryRequest]) (*connect.Response[pb.DeleteCategoryResponse], error) {
	return c.deleteCategory.CallUnary(ctx, req)
}

func (c *catalogServiceClient) CreateProduct(ctx context.Context, req *connect.Request[pb.CreateProductRequest]) (*connect.Response[pb.CreateProductResponse], error) {
	return c.createProduct.CallUnary(ctx, req)
}

func (c *catalogServiceClient) GetProduct(ctx context.Context, req *connect.Request[pb.GetProductRequest]) (*connect.Response[pb.GetProductResponse], error) {
	return c.getProduct.CallUnary(ctx, req)
}

func (c *catalogServiceClient) ListProducts(ctx context.Context, req *connect.Request[pb.ListProductsRequest]) (*connect.Response[pb.ListProductsResponse], error) {
	return c.listProducts.CallUnary(ctx, req)
}

func (c *catalogServiceClient) UpdateProduct(ctx context.Context, req *connect.Request[pb.UpdateProductRequest]) (*connect.Response[pb.UpdateProductResponse], error) {
	return c.updateProduct.CallUnary(ctx, req)
}

func (c *catalogServiceClient) SetProductActive(ctx context.Context, req *connect.Request[pb.SetProductActiveRequest]) (*connect.Response[pb.SetProductActiveResponse], error) {
	return c.setProductActive.CallUnary(ctx, req)
}

func (c *catalogServiceClient) CreateCustomer(ctx context.Context, req *connect.Request[pb.CreateCustomerRequest]) (*connect.Response[pb.CreateCustomerResponse], error) {
	return c.createCustomer.CallUnary(ctx, req)
}

func (c *catalogServiceClient) GetCustomer(ctx context.Context, req *connect.Request[pb.GetCustomerRequest]) (*connect.Response[pb.GetCustomerResponse], error) {
	return c.getCustomer.CallUnary(ctx, req)
}

func (c *catalogServiceClient) ListCustomers(ctx context.Context, req *connect.Request[pb.ListCustomersRequest]) (*connect.Response[pb.ListCustomersResponse], error) {
	return c.listCustomers.CallUnary(ctx, req)
}

func (c *catalogServiceClient) UpdateCustomer(ctx context.Context, req *connect.Request[pb.UpdateCustomerRequest]) (*connect.Response[pb.UpdateCustomerResponse], error) {
	return c.updateCustomer.CallUnary(ctx, req)
}
