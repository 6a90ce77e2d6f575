package proto

import "github.com/shopspring/decimal"

type Category struct {
	Id        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"createdAt"`
}

type Product struct {
	Id         string          `json:"id"`
	CategoryId string          `json:"categoryId"`
	Sku        string          `json:"sku"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Stock      int             `json:"stock"`
	MinStock   int             `json:"minStock"`
	Active     bool            `json:"active"`
	LowStock   bool            `json:"lowStock"`
	CreatedAt  int64           `json:"createdAt"`
	UpdatedAt  int64           `json:"updatedAt"`
}

type Customer struct {
	Id             string `json:"id"`
	DocumentNumber string `json:"documentNumber"`
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	CreatedAt      int64  `json:"createdAt"`
}

type CreateCategoryRequest struct {
	Name string `json:"name"`
}

type CreateCategoryResponse struct {
	Category *Category `json:"category"`
}

type ListCategoriesRequest struct{}

type ListCategoriesResponse struct {
	Categories []*Category `json:"categories"`
}

type UpdateCategoryRequest struct {
	CategoryId string `json:"categoryId"`
	Name       string `json:"name"`
}

type UpdateCategoryResponse struct {
	Category *Category `json:"category"`
}

type DeleteCategoryRequest struct {
	CategoryId string `json:"categoryId"`
}

type DeleteCategoryResponse struct{}

// CreateProductRequest adds a product. An empty Sku is allocated from the
// business's SKU series.
type CreateProductRequest struct {
	CategoryId   string          `json:"categoryId"`
	Sku          string          `json:"sku"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	InitialStock int             `json:"initialStock"`
	MinStock     int             `json:"minStock"`
}

type CreateProductResponse struct {
	Product *Product `json:"product"`
	// SkuFallback is set when the allocated SKU is timestamp based.
	SkuFallback bool `json:"skuFallback"`
}

type GetProductRequest struct {
	ProductId string `json:"productId"`
}

type GetProductResponse struct {
	Product *Product `json:"product"`
}

type ListProductsRequest struct {
	CategoryId      string `json:"categoryId"`
	Search          string `json:"search"`
	IncludeInactive bool   `json:"includeInactive"`
}

type ListProductsResponse struct {
	Products []*Product `json:"products"`
}

type UpdateProductRequest struct {
	ProductId  string          `json:"productId"`
	CategoryId string          `json:"categoryId"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	MinStock   int             `json:"minStock"`
}

type UpdateProductResponse struct {
	Product *Product `json:"product"`
}

type SetProductActiveRequest struct {
	ProductId string `json:"productId"`
	Active    bool   `json:"active"`
}

type SetProductActiveResponse struct {
	Product *Product `json:"product"`
}

type CreateCustomerRequest struct {
	DocumentNumber string `json:"documentNumber"`
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
}

type CreateCustomerResponse struct {
	Customer *Customer `json:"customer"`
}

type GetCustomerRequest struct {
	CustomerId string `json:"customerId"`
}

type GetCustomerResponse struct {
	Customer *Customer `json:"customer"`
}

type ListCustomersRequest struct {
	Search string `json:"search"`
}

type ListCustomersResponse struct {
	Customers []*Customer `json:"customers"`
}

type UpdateCustomerRequest struct {
	CustomerId     string `json:"customerId"`
	DocumentNumber string `json:"documentNumber"`
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
}

type UpdateCustomerResponse struct {
	Customer *Customer `json:"customer"`
}
