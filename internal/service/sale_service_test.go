package service

import (
	"context"
	"strings"
	"testing"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	pb "github.com/mmynk/tiendapos/pkg/proto"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// stockOf reads a product's current stock.
func (ts *testServer) stockOf(t *testing.T, productID string) int {
	t.Helper()
	resp, err := ts.catalog.GetProduct(context.Background(), withToken(&pb.GetProductRequest{ProductId: productID}, ts.adminToken))
	if err != nil {
		t.Fatalf("GetProduct failed: %v", err)
	}
	return resp.Msg.Product.Stock
}

func TestQuote(t *testing.T) {
	ts := setupTestServer(t)
	cola := ts.createProduct(t, "Coca Cola 1L", "10.00", 20, 0)
	pan := ts.createProduct(t, "Pan Francés x6", "5.50", 20, 0)

	resp, err := ts.sales.Quote(context.Background(), withToken(&pb.QuoteRequest{
		Items: []*pb.CartItem{
			{ProductId: cola.Id, Quantity: 2},
			{ProductId: pan.Id, Quantity: 1},
		},
		TaxInclusive:  true,
		PaymentMethod: "cash",
		CashReceived:  dec("20.00"),
	}, ts.adminToken))
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}

	totals := resp.Msg.Totals
	expectAmount(t, "subtotal", totals.Subtotal, "25.50")
	expectAmount(t, "tax", totals.TaxAmount, "4.59")
	expectAmount(t, "total", totals.Total, "30.09")
	expectAmount(t, "shortfall", resp.Msg.Shortfall, "10.09")
	if len(resp.Msg.Lines) != 2 {
		t.Fatalf("lines: expected 2, got %d", len(resp.Msg.Lines))
	}
	expectAmount(t, "line total", resp.Msg.Lines[0].LineTotal, "20.00")

	// Quoting never touches stock.
	if got := ts.stockOf(t, cola.Id); got != 20 {
		t.Errorf("stock: expected 20, got %d", got)
	}
}

func TestQuoteMergesRepeatedProducts(t *testing.T) {
	ts := setupTestServer(t)
	cola := ts.createProduct(t, "Coca Cola 1L", "10.00", 20, 0)

	resp, err := ts.sales.Quote(context.Background(), withToken(&pb.QuoteRequest{
		Items: []*pb.CartItem{
			{ProductId: cola.Id, Quantity: 1},
			{ProductId: cola.Id, Quantity: 2},
		},
		PaymentMethod: "card",
	}, ts.adminToken))
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}
	if len(resp.Msg.Lines) != 1 || resp.Msg.Lines[0].Quantity != 3 {
		t.Errorf("expected one line of 3, got %+v", resp.Msg.Lines)
	}
	expectAmount(t, "total", resp.Msg.Totals.Total, "30.00")
}

func TestQuoteRejectsBadCarts(t *testing.T) {
	ts := setupTestServer(t)
	cola := ts.createProduct(t, "Coca Cola 1L", "10.00", 20, 0)
	ctx := context.Background()

	tests := []struct {
		name string
		req  *pb.QuoteRequest
		code connect.Code
	}{
		{"empty cart", &pb.QuoteRequest{PaymentMethod: "cash"}, connect.CodeInvalidArgument},
		{"zero quantity", &pb.QuoteRequest{Items: []*pb.CartItem{{ProductId: cola.Id}}, PaymentMethod: "cash"}, connect.CodeInvalidArgument},
		{"unknown product", &pb.QuoteRequest{Items: []*pb.CartItem{{ProductId: "missing", Quantity: 1}}, PaymentMethod: "cash"}, connect.CodeNotFound},
		{"unknown payment method", &pb.QuoteRequest{Items: []*pb.CartItem{{ProductId: cola.Id, Quantity: 1}}, PaymentMethod: "bitcoin"}, connect.CodeInvalidArgument},
		{"discount above subtotal", &pb.QuoteRequest{Items: []*pb.CartItem{{ProductId: cola.Id, Quantity: 1}}, PaymentMethod: "card", Discount: dec("11")}, connect.CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ts.sales.Quote(ctx, withToken(tt.req, ts.adminToken))
			expectCode(t, err, tt.code)
		})
	}
}

func TestCheckout(t *testing.T) {
	ts := setupTestServer(t)
	cashier := ts.cashierToken(t)
	cola := ts.createProduct(t, "Coca Cola 1L", "10.00", 20, 0)
	pan := ts.createProduct(t, "Pan Francés x6", "5.50", 20, 0)
	ctx := context.Background()

	resp, err := ts.sales.Checkout(ctx, withToken(&pb.CheckoutRequest{
		Items: []*pb.CartItem{
			{ProductId: cola.Id, Quantity: 2},
			{ProductId: pan.Id, Quantity: 1},
		},
		TaxInclusive:  true,
		PaymentMethod: "cash",
		CashReceived:  dec("50.00"),
	}, cashier))
	if err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}

	sale := resp.Msg.Sale
	if sale.Number != "V20261018-0001" {
		t.Errorf("number: expected V20261018-0001, got %s", sale.Number)
	}
	if sale.BusinessDay != "20261018" || sale.Status != "completed" || !sale.TaxApplied {
		t.Errorf("unexpected sale header %+v", sale)
	}
	expectAmount(t, "total", sale.Totals.Total, "30.09")
	expectAmount(t, "change", sale.Totals.Change, "19.91")
	if len(sale.Items) != 2 || sale.Items[0].Sku != cola.Sku {
		t.Errorf("unexpected items %+v", sale.Items)
	}

	if !strings.Contains(resp.Msg.Receipt, "V20261018-0001") || !strings.Contains(resp.Msg.Receipt, "Caja 1") {
		t.Errorf("receipt missing number or cashier:\n%s", resp.Msg.Receipt)
	}

	if got := ts.stockOf(t, cola.Id); got != 18 {
		t.Errorf("cola stock: expected 18, got %d", got)
	}
	if got := ts.stockOf(t, pan.Id); got != 19 {
		t.Errorf("pan stock: expected 19, got %d", got)
	}

	second, err := ts.sales.Checkout(ctx, withToken(&pb.CheckoutRequest{
		Items:         []*pb.CartItem{{ProductId: pan.Id, Quantity: 1}},
		PaymentMethod: "card",
	}, cashier))
	if err != nil {
		t.Fatalf("second Checkout failed: %v", err)
	}
	if second.Msg.Sale.Number != "V20261018-0002" {
		t.Errorf("second number: expected V20261018-0002, got %s", second.Msg.Sale.Number)
	}

	published := ts.publisher.saleEvents()
	if len(published) != 2 || published[0].EventType != "SaleCompleted" || published[0].Number != "V20261018-0001" {
		t.Errorf("unexpected sale events %+v", published)
	}
	if got := counterValue(t, ts.registry, "pos_sales_completed_total", map[string]string{"payment_method": "cash"}); got != 1 {
		t.Errorf("cash sales metric: expected 1, got %v", got)
	}
}

func TestCheckoutRejectsShortCash(t *testing.T) {
	ts := setupTestServer(t)
	cola := ts.createProduct(t, "Coca Cola 1L", "10.00", 20, 0)
	ctx := context.Background()

	_, err := ts.sales.Checkout(ctx, withToken(&pb.CheckoutRequest{
		Items:         []*pb.CartItem{{ProductId: cola.Id, Quantity: 1}},
		PaymentMethod: "cash",
		CashReceived:  dec("5.00"),
	}, ts.adminToken))
	expectCode(t, err, connect.CodeFailedPrecondition)

	list, err := ts.sales.ListSales(ctx, withToken(&pb.ListSalesRequest{}, ts.adminToken))
	if err != nil {
		t.Fatalf("ListSales failed: %v", err)
	}
	if len(list.Msg.Sales) != 0 {
		t.Errorf("sales: expected none, got %d", len(list.Msg.Sales))
	}
	if got := ts.stockOf(t, cola.Id); got != 20 {
		t.Errorf("stock: expected 20, got %d", got)
	}
}

func TestCheckoutShortCashWithoutStrictCheck(t *testing.T) {
	ts := setupTestServer(t)
	ts.sale.strictCash = false
	cola := ts.createProduct(t, "Coca Cola 1L", "10.00", 20, 0)

	resp, err := ts.sales.Checkout(context.Background(), withToken(&pb.CheckoutRequest{
		Items:         []*pb.CartItem{{ProductId: cola.Id, Quantity: 1}},
		PaymentMethod: "cash",
		CashReceived:  dec("4.00"),
	}, ts.adminToken))
	if err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}
	expectAmount(t, "change", resp.Msg.Sale.Totals.Change, "0")

	for _, line := range strings.Split(resp.Msg.Receipt, "\n") {
		if strings.HasPrefix(line, "Vuelto") && strings.Contains(line, "-") {
			t.Errorf("receipt prints negative change: %q", line)
		}
	}
}

func TestCheckoutInsufficientStock(t *testing.T) {
	ts := setupTestServer(t)
	cola := ts.createProduct(t, "Coca Cola 1L", "10.00", 1, 0)

	_, err := ts.sales.Checkout(context.Background(), withToken(&pb.CheckoutRequest{
		Items:         []*pb.CartItem{{ProductId: cola.Id, Quantity: 2}},
		PaymentMethod: "card",
	}, ts.adminToken))
	expectCode(t, err, connect.CodeFailedPrecondition)
}

func TestCheckoutInactiveProduct(t *testing.T) {
	ts := setupTestServer(t)
	cola := ts.createProduct(t, "Coca Cola 1L", "10.00", 5, 0)
	ctx := context.Background()

	if _, err := ts.catalog.SetProductActive(ctx, withToken(&pb.SetProductActiveRequest{ProductId: cola.Id}, ts.adminToken)); err != nil {
		t.Fatalf("SetProductActive failed: %v", err)
	}
	_, err := ts.sales.Checkout(ctx, withToken(&pb.CheckoutRequest{
		Items:         []*pb.CartItem{{ProductId: cola.Id, Quantity: 1}},
		PaymentMethod: "card",
	}, ts.adminToken))
	expectCode(t, err, connect.CodeFailedPrecondition)
}

func TestCheckoutCreditRequiresCustomer(t *testing.T) {
	ts := setupTestServer(t)
	cola := ts.createProduct(t, "Coca Cola 1L", "10.00", 5, 0)
	ctx := context.Background()

	_, err := ts.sales.Checkout(ctx, withToken(&pb.CheckoutRequest{
		Items:         []*pb.CartItem{{ProductId: cola.Id, Quantity: 1}},
		PaymentMethod: "credit",
	}, ts.adminToken))
	expectCode(t, err, connect.CodeInvalidArgument)

	_, err = ts.sales.Checkout(ctx, withToken(&pb.CheckoutRequest{
		Items:         []*pb.CartItem{{ProductId: cola.Id, Quantity: 1}},
		PaymentMethod: "credit",
		CustomerId:    "missing",
	}, ts.adminToken))
	expectCode(t, err, connect.CodeNotFound)

	customer, err := ts.catalog.CreateCustomer(ctx, withToken(&pb.CreateCustomerRequest{
		DocumentNumber: "45678912",
		Name:           "Juan Pérez",
	}, ts.adminToken))
	if err != nil {
		t.Fatalf("CreateCustomer failed: %v", err)
	}
	resp, err := ts.sales.Checkout(ctx, withToken(&pb.CheckoutRequest{
		Items:         []*pb.CartItem{{ProductId: cola.Id, Quantity: 1}},
		PaymentMethod: "credit",
		CustomerId:    customer.Msg.Customer.Id,
	}, ts.adminToken))
	if err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}
	if resp.Msg.Sale.CustomerId != customer.Msg.Customer.Id {
		t.Errorf("customer: expected %s, got %s", customer.Msg.Customer.Id, resp.Msg.Sale.CustomerId)
	}
	if !strings.Contains(resp.Msg.Receipt, "Juan Pérez") {
		t.Errorf("receipt missing customer:\n%s", resp.Msg.Receipt)
	}
}

func TestCheckoutIdempotencyKey(t *testing.T) {
	ts := setupTestServer(t)
	cola := ts.createProduct(t, "Coca Cola 1L", "10.00", 10, 0)
	ctx := context.Background()

	checkout := func() *pb.CheckoutResponse {
		t.Helper()
		req := withToken(&pb.CheckoutRequest{
			Items:         []*pb.CartItem{{ProductId: cola.Id, Quantity: 1}},
			PaymentMethod: "card",
		}, ts.adminToken)
		req.Header().Set(IdempotencyHeader, "caja1-000042")
		resp, err := ts.sales.Checkout(ctx, req)
		if err != nil {
			t.Fatalf("Checkout failed: %v", err)
		}
		return resp.Msg
	}

	first := checkout()
	second := checkout()

	if first.Sale.Id != second.Sale.Id || first.Sale.Number != second.Sale.Number {
		t.Errorf("expected replayed sale %s, got %s", first.Sale.Number, second.Sale.Number)
	}
	expectAmount(t, "replayed total", second.Sale.Totals.Total, "10.00")
	if got := ts.stockOf(t, cola.Id); got != 9 {
		t.Errorf("stock: expected 9, got %d", got)
	}
	if n := len(ts.publisher.saleEvents()); n != 1 {
		t.Errorf("sale events: expected 1, got %d", n)
	}
}

func TestCheckoutFailureReleasesIdempotencyKey(t *testing.T) {
	ts := setupTestServer(t)
	cola := ts.createProduct(t, "Coca Cola 1L", "10.00", 10, 0)
	ctx := context.Background()

	req := withToken(&pb.CheckoutRequest{
		Items:         []*pb.CartItem{{ProductId: cola.Id, Quantity: 1}},
		PaymentMethod: "cash",
		CashReceived:  dec("1.00"),
	}, ts.adminToken)
	req.Header().Set(IdempotencyHeader, "retry-me")
	_, err := ts.sales.Checkout(ctx, req)
	expectCode(t, err, connect.CodeFailedPrecondition)

	// The customer hands over more cash and the cashier retries with the same key.
	retry := withToken(&pb.CheckoutRequest{
		Items:         []*pb.CartItem{{ProductId: cola.Id, Quantity: 1}},
		PaymentMethod: "cash",
		CashReceived:  dec("20.00"),
	}, ts.adminToken)
	retry.Header().Set(IdempotencyHeader, "retry-me")
	resp, err := ts.sales.Checkout(ctx, retry)
	if err != nil {
		t.Fatalf("retried Checkout failed: %v", err)
	}
	expectAmount(t, "change", resp.Msg.Sale.Totals.Change, "10.00")
}

func TestCheckoutReportsLowStock(t *testing.T) {
	ts := setupTestServer(t)
	cola := ts.createProduct(t, "Coca Cola 1L", "10.00", 4, 3)
	pan := ts.createProduct(t, "Pan Francés x6", "5.50", 20, 3)

	resp, err := ts.sales.Checkout(context.Background(), withToken(&pb.CheckoutRequest{
		Items: []*pb.CartItem{
			{ProductId: cola.Id, Quantity: 1},
			{ProductId: pan.Id, Quantity: 1},
		},
		PaymentMethod: "card",
	}, ts.adminToken))
	if err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}

	if len(resp.Msg.LowStock) != 1 || resp.Msg.LowStock[0].ProductId != cola.Id || resp.Msg.LowStock[0].Stock != 3 {
		t.Errorf("unexpected low stock %+v", resp.Msg.LowStock)
	}
	alerts := ts.publisher.stockLowEvents()
	if len(alerts) != 1 || alerts[0].ProductID != cola.Id || alerts[0].BusinessID != ts.businessID {
		t.Errorf("unexpected stock low events %+v", alerts)
	}
	// Still low after another sale, but already alerted.
	resp, err = ts.sales.Checkout(context.Background(), withToken(&pb.CheckoutRequest{
		Items:         []*pb.CartItem{{ProductId: cola.Id, Quantity: 1}},
		PaymentMethod: "card",
	}, ts.adminToken))
	if err != nil {
		t.Fatalf("second Checkout failed: %v", err)
	}
	if len(resp.Msg.LowStock) != 1 || resp.Msg.LowStock[0].Stock != 2 {
		t.Errorf("unexpected low stock %+v", resp.Msg.LowStock)
	}
	if n := len(ts.publisher.stockLowEvents()); n != 1 {
		t.Errorf("expected no new stock low event, got %d total", n)
	}
}

func TestVoidSale(t *testing.T) {
	ts := setupTestServer(t)
	cashier := ts.cashierToken(t)
	cola := ts.createProduct(t, "Coca Cola 1L", "10.00", 10, 0)
	ctx := context.Background()

	checkout, err := ts.sales.Checkout(ctx, withToken(&pb.CheckoutRequest{
		Items:         []*pb.CartItem{{ProductId: cola.Id, Quantity: 3}},
		PaymentMethod: "card",
	}, cashier))
	if err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}
	saleID := checkout.Msg.Sale.Id

	_, err = ts.sales.VoidSale(ctx, withToken(&pb.VoidSaleRequest{SaleId: saleID}, cashier))
	expectCode(t, err, connect.CodePermissionDenied)

	voided, err := ts.sales.VoidSale(ctx, withToken(&pb.VoidSaleRequest{SaleId: saleID}, ts.adminToken))
	if err != nil {
		t.Fatalf("VoidSale failed: %v", err)
	}
	if voided.Msg.Sale.Status != "voided" || voided.Msg.Sale.VoidedAt == 0 {
		t.Errorf("unexpected voided sale %+v", voided.Msg.Sale)
	}
	if got := ts.stockOf(t, cola.Id); got != 10 {
		t.Errorf("stock after void: expected 10, got %d", got)
	}

	_, err = ts.sales.VoidSale(ctx, withToken(&pb.VoidSaleRequest{SaleId: saleID}, ts.adminToken))
	expectCode(t, err, connect.CodeFailedPrecondition)

	published := ts.publisher.saleEvents()
	if len(published) != 2 || published[1].EventType != "SaleVoided" {
		t.Errorf("unexpected sale events %+v", published)
	}

	got, err := ts.sales.GetSale(ctx, withToken(&pb.GetSaleRequest{SaleId: saleID}, ts.adminToken))
	if err != nil {
		t.Fatalf("GetSale failed: %v", err)
	}
	if got.Msg.Sale.Status != "voided" {
		t.Errorf("status: expected voided, got %s", got.Msg.Sale.Status)
	}
}

func TestDailySummary(t *testing.T) {
	ts := setupTestServer(t)
	cola := ts.createProduct(t, "Coca Cola 1L", "10.00", 50, 0)
	ctx := context.Background()

	ring := func(qty int, method string, cash string) string {
		t.Helper()
		req := &pb.CheckoutRequest{
			Items:         []*pb.CartItem{{ProductId: cola.Id, Quantity: qty}},
			PaymentMethod: method,
		}
		if cash != "" {
			req.CashReceived = dec(cash)
		}
		resp, err := ts.sales.Checkout(ctx, withToken(req, ts.adminToken))
		if err != nil {
			t.Fatalf("Checkout failed: %v", err)
		}
		return resp.Msg.Sale.Id
	}

	ring(1, "cash", "20.00")
	ring(2, "cash", "50.00")
	ring(3, "card", "")
	voidID := ring(1, "card", "")
	if _, err := ts.sales.VoidSale(ctx, withToken(&pb.VoidSaleRequest{SaleId: voidID}, ts.adminToken)); err != nil {
		t.Fatalf("VoidSale failed: %v", err)
	}

	resp, err := ts.sales.DailySummary(ctx, withToken(&pb.DailySummaryRequest{Day: "20261018"}, ts.adminToken))
	if err != nil {
		t.Fatalf("DailySummary failed: %v", err)
	}
	s := resp.Msg
	if s.SalesCount != 3 || s.VoidedCount != 1 {
		t.Errorf("counts: expected 3 sales and 1 voided, got %d and %d", s.SalesCount, s.VoidedCount)
	}
	expectAmount(t, "total", s.Total, "60.00")
	expectAmount(t, "expected cash", s.ExpectedCash, "30.00")
	if len(s.ByMethod) != 2 || s.ByMethod[0].Method != "card" || s.ByMethod[0].Count != 1 {
		t.Errorf("unexpected method breakdown %+v", s.ByMethod)
	}

	list, err := ts.sales.ListSales(ctx, withToken(&pb.ListSalesRequest{}, ts.adminToken))
	if err != nil {
		t.Fatalf("ListSales failed: %v", err)
	}
	if list.Msg.Day != "20261018" || len(list.Msg.Sales) != 4 {
		t.Errorf("expected 4 sales on 20261018, got %d on %s", len(list.Msg.Sales), list.Msg.Day)
	}

	_, err = ts.sales.DailySummary(ctx, withToken(&pb.DailySummaryRequest{Day: "2026-10-18"}, ts.adminToken))
	expectCode(t, err, connect.CodeInvalidArgument)
}

func TestRenderReceipt(t *testing.T) {
	ts := setupTestServer(t)
	cola := ts.createProduct(t, "Coca Cola 1L", "10.00", 10, 0)
	ctx := context.Background()

	checkout, err := ts.sales.Checkout(ctx, withToken(&pb.CheckoutRequest{
		Items:         []*pb.CartItem{{ProductId: cola.Id, Quantity: 1}},
		PaymentMethod: "card",
	}, ts.adminToken))
	if err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}

	text, err := ts.sale.RenderReceipt(ctx, ts.businessID, checkout.Msg.Sale.Id)
	if err != nil {
		t.Fatalf("RenderReceipt failed: %v", err)
	}
	if text != checkout.Msg.Receipt {
		t.Errorf("reprint differs from checkout receipt:\n%s\n---\n%s", text, checkout.Msg.Receipt)
	}

	if _, err := ts.sale.RenderReceipt(ctx, "other-business", checkout.Msg.Sale.Id); err == nil {
		t.Error("expected another business's sale to be hidden")
	}
}
