package proto

type StockLevel struct {
	ProductId string `json:"productId"`
	Sku       string `json:"sku"`
	Name      string `json:"name"`
	Stock     int    `json:"stock"`
	MinStock  int    `json:"minStock"`
}

type StockMovement struct {
	Id         string `json:"id"`
	ProductId  string `json:"productId"`
	Delta      int    `json:"delta"`
	Reason     string `json:"reason"`
	Reference  string `json:"reference"`
	StockAfter int    `json:"stockAfter"`
	Note       string `json:"note"`
	CreatedBy  string `json:"createdBy"`
	CreatedAt  int64  `json:"createdAt"`
}

// AdjustStockRequest records a manual stock change. Reason is one of
// purchase, adjustment, return or damage.
type AdjustStockRequest struct {
	ProductId string `json:"productId"`
	Delta     int    `json:"delta"`
	Reason    string `json:"reason"`
	Note      string `json:"note"`
}

type AdjustStockResponse struct {
	Movement *StockMovement `json:"movement"`
	Level    *StockLevel    `json:"level"`
}

type ListMovementsRequest struct {
	ProductId string `json:"productId"`
	// Limit defaults to 50.
	Limit int `json:"limit"`
}

type ListMovementsResponse struct {
	Movements []*StockMovement `json:"movements"`
}

type ListLowStockRequest struct{}

type ListLowStockResponse struct {
	Levels []*StockLevel `json:"levels"`
}
