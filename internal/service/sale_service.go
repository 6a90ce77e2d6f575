package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/mmynk/tiendapos/internal/calculator"
	"github.com/mmynk/tiendapos/internal/events"
	"github.com/mmynk/tiendapos/internal/idempotency"
	"github.com/mmynk/tiendapos/internal/metrics"
	"github.com/mmynk/tiendapos/internal/middleware"
	"github.com/mmynk/tiendapos/internal/models"
	"github.com/mmynk/tiendapos/internal/receipt"
	"github.com/mmynk/tiendapos/internal/sequence"
	"github.com/mmynk/tiendapos/internal/storage"
	pb "github.com/mmynk/tiendapos/pkg/proto"
	"github.com/mmynk/tiendapos/pkg/proto/protoconnect"
)

// IdempotencyHeader carries the client's key for a checkout attempt.
const IdempotencyHeader = "Idempotency-Key"

const dayLayout = "20060102"

// SaleConfig wires a SaleService.
type SaleConfig struct {
	Store     storage.Store
	Allocator *sequence.Allocator
	Tax       calculator.TaxPolicy

	// StrictCash rejects cash sales where the amount received is short.
	StrictCash bool

	// Location decides the business day a sale is numbered in.
	Location *time.Location

	Receipts    *receipt.Renderer
	Idempotency idempotency.Store
	Publisher   events.Publisher
	Metrics     *metrics.Metrics
	Clock       func() time.Time
}

// SaleService implements the Connect SaleService: quoting, checkout,
// voiding and the daily close.
type SaleService struct {
	protoconnect.UnimplementedSaleServiceHandler
	store       storage.Store
	allocator   *sequence.Allocator
	tax         calculator.TaxPolicy
	strictCash  bool
	loc         *time.Location
	receipts    *receipt.Renderer
	idempotency idempotency.Store
	publisher   events.Publisher
	metrics     *metrics.Metrics
	clock       func() time.Time
}

// NewSaleService creates a SaleService. Idempotency, Publisher, Metrics,
// Location and Clock are optional.
func NewSaleService(cfg SaleConfig) *SaleService {
	s := &SaleService{
		store:       cfg.Store,
		allocator:   cfg.Allocator,
		tax:         cfg.Tax,
		strictCash:  cfg.StrictCash,
		loc:         cfg.Location,
		receipts:    cfg.Receipts,
		idempotency: cfg.Idempotency,
		publisher:   cfg.Publisher,
		metrics:     cfg.Metrics,
		clock:       cfg.Clock,
	}
	if s.allocator == nil {
		s.allocator = sequence.NewAllocator(sequence.Options{})
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.publisher == nil {
		s.publisher = events.NopPublisher{}
	}
	if s.metrics == nil {
		s.metrics = metrics.New(prometheus.NewRegistry())
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	return s
}

// cartLine is a cart item resolved against the catalog.
type cartLine struct {
	product  *models.Product
	quantity int
}

// resolveCart loads the cart's products, merging repeated products into one
// line. Every product must exist and be active.
func (s *SaleService) resolveCart(ctx context.Context, businessID string, items []*pb.CartItem) ([]cartLine, error) {
	if len(items) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errEmptyCart)
	}

	ids := make([]string, 0, len(items))
	index := make(map[string]int)
	var lines []cartLine
	for _, item := range items {
		if item == nil || item.ProductId == "" {
			return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("cart item requires a product_id"))
		}
		if item.Quantity <= 0 {
			return nil, connect.NewError(connect.CodeInvalidArgument,
				fmt.Errorf("quantity for product %s must be positive, got %d", item.ProductId, item.Quantity))
		}
		if i, ok := index[item.ProductId]; ok {
			lines[i].quantity += item.Quantity
			continue
		}
		index[item.ProductId] = len(lines)
		ids = append(ids, item.ProductId)
		lines = append(lines, cartLine{quantity: item.Quantity})
	}

	products, err := s.store.GetProducts(ctx, businessID, ids)
	if err != nil {
		return nil, err
	}
	for i, id := range ids {
		p, ok := products[id]
		if !ok {
			return nil, fmt.Errorf("product %s: %w", id, storage.ErrNotFound)
		}
		if !p.Active {
			return nil, connect.NewError(connect.CodeFailedPrecondition, fmt.Errorf("product %s is inactive", p.Name))
		}
		lines[i].product = p
	}
	return lines, nil
}

func calculatorItems(lines []cartLine) []calculator.LineItem {
	items := make([]calculator.LineItem, len(lines))
	for i, l := range lines {
		items[i] = calculator.LineItem{
			ProductRef: l.product.ID,
			UnitPrice:  l.product.Price,
			Quantity:   l.quantity,
		}
	}
	return items
}

func saleItems(lines []cartLine) []models.SaleItem {
	items := make([]models.SaleItem, len(lines))
	for i, l := range lines {
		items[i] = models.SaleItem{
			ProductID: l.product.ID,
			SKU:       l.product.SKU,
			Name:      l.product.Name,
			UnitPrice: l.product.Price,
			Quantity:  l.quantity,
			LineTotal: l.product.Price.Mul(decimal.NewFromInt(int64(l.quantity))).Round(2),
		}
	}
	return items
}

// Quote prices a cart without selling it. A short cash payment is reported
// as a shortfall rather than an error.
func (s *SaleService) Quote(ctx context.Context, req *connect.Request[pb.QuoteRequest]) (*connect.Response[pb.QuoteResponse], error) {
	businessID, _, err := session(ctx)
	if err != nil {
		return nil, err
	}

	lines, err := s.resolveCart(ctx, businessID, req.Msg.Items)
	if err != nil {
		return nil, toConnectError(err)
	}
	totals, err := calculator.Compute(calculator.SaleInput{
		Items:         calculatorItems(lines),
		Discount:      req.Msg.Discount,
		Tax:           s.tax,
		TaxInclusive:  req.Msg.TaxInclusive,
		PaymentMethod: calculator.PaymentMethod(req.Msg.PaymentMethod),
		CashReceived:  req.Msg.CashReceived,
	})
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&pb.QuoteResponse{
		Lines:     toProtoItems(saleItems(lines)),
		Totals:    toProtoTotals(totals),
		Shortfall: totals.Shortfall(),
	}), nil
}

// Checkout rings up a sale: it prices the cart, allocates the day's next
// sale number and commits the sale with its stock movements.
//
// A request carrying an Idempotency-Key header is processed once per key;
// retries get the first response back.
func (s *SaleService) Checkout(ctx context.Context, req *connect.Request[pb.CheckoutRequest]) (*connect.Response[pb.CheckoutResponse], error) {
	businessID, userID, err := session(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("Checkout request received", "business_id", businessID, "items", len(req.Msg.Items), "payment_method", req.Msg.PaymentMethod)

	key := req.Header().Get(IdempotencyHeader)
	if key == "" || s.idempotency == nil {
		resp, err := s.checkout(ctx, businessID, userID, req.Msg)
		if err != nil {
			return nil, err
		}
		return connect.NewResponse(resp), nil
	}

	if resp, ok := s.recall(ctx, businessID, key); ok {
		return connect.NewResponse(resp), nil
	}
	locked, err := s.idempotency.TryLock(ctx, businessID, key)
	if err != nil {
		slog.Error("Checkout failed - idempotency lock", "key", key, "error", err)
		return nil, connect.NewError(connect.CodeUnavailable, err)
	}
	if !locked {
		// The first request may have finished between Recall and TryLock.
		if resp, ok := s.recall(ctx, businessID, key); ok {
			return connect.NewResponse(resp), nil
		}
		return nil, connect.NewError(connect.CodeAborted, fmt.Errorf("checkout %s is already in progress", key))
	}

	resp, err := s.checkout(ctx, businessID, userID, req.Msg)
	if err != nil {
		if rerr := s.idempotency.Release(context.WithoutCancel(ctx), businessID, key); rerr != nil {
			slog.Warn("Failed to release idempotency key", "key", key, "error", rerr)
		}
		return nil, err
	}

	body, err := json.Marshal(resp)
	if err == nil {
		err = s.idempotency.Remember(context.WithoutCancel(ctx), businessID, key, string(body))
	}
	if err != nil {
		slog.Warn("Failed to remember checkout result", "key", key, "sale_id", resp.Sale.Id, "error", err)
	}
	return connect.NewResponse(resp), nil
}

func (s *SaleService) recall(ctx context.Context, businessID, key string) (*pb.CheckoutResponse, bool) {
	body, ok, err := s.idempotency.Recall(ctx, businessID, key)
	if err != nil {
		slog.Warn("Idempotency recall failed", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var resp pb.CheckoutResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		slog.Warn("Stored checkout result is unreadable", "key", key, "error", err)
		return nil, false
	}
	slog.Info("Checkout replayed", "key", key, "sale_id", resp.Sale.Id)
	return &resp, true
}

func (s *SaleService) checkout(ctx context.Context, businessID, userID string, msg *pb.CheckoutRequest) (*pb.CheckoutResponse, error) {
	lines, err := s.resolveCart(ctx, businessID, msg.Items)
	if err != nil {
		return nil, toConnectError(err)
	}
	for _, l := range lines {
		if l.product.Stock < l.quantity {
			return nil, connect.NewError(connect.CodeFailedPrecondition,
				fmt.Errorf("%s: %d in stock, %d requested: %w", l.product.Name, l.product.Stock, l.quantity, storage.ErrInsufficientStock))
		}
	}

	method := calculator.PaymentMethod(msg.PaymentMethod)
	var customer *models.Customer
	if method == calculator.PaymentCredit && msg.CustomerId == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("credit sales require a customer"))
	}
	if msg.CustomerId != "" {
		customer, err = s.store.GetCustomer(ctx, businessID, msg.CustomerId)
		if err != nil {
			return nil, toConnectError(err)
		}
	}

	totals, err := calculator.Compute(calculator.SaleInput{
		Items:         calculatorItems(lines),
		Discount:      msg.Discount,
		Tax:           s.tax,
		TaxInclusive:  msg.TaxInclusive,
		PaymentMethod: method,
		CashReceived:  msg.CashReceived,
		StrictPayment: s.strictCash,
	})
	if err != nil {
		slog.Warn("Checkout rejected", "business_id", businessID, "error", err)
		return nil, toConnectError(err)
	}

	now := s.clock()
	day := now.In(s.loc)
	sale := &models.Sale{
		ID:            uuid.New().String(),
		BusinessID:    businessID,
		BusinessDay:   day.Format(dayLayout),
		UserID:        userID,
		CustomerID:    msg.CustomerId,
		PaymentMethod: method,
		TaxApplied:    msg.TaxInclusive,
		Totals:        totals,
		Status:        models.SaleCompleted,
		Items:         saleItems(lines),
		CreatedAt:     now.Unix(),
	}

	series := sequence.SaleNumberSeries(day)
	var levels []models.StockLevel
	alloc, err := s.allocator.Allocate(ctx, series,
		func(ctx context.Context) (sql.NullInt64, error) {
			return s.store.LastSaleNumber(ctx, businessID, sale.BusinessDay)
		},
		func(ctx context.Context, code sequence.Code) error {
			sale.Number = code.Formatted
			sale.SequenceValue = code.Value
			var err error
			levels, err = s.store.CreateSale(ctx, sale)
			return asCollision(err)
		},
	)
	if err != nil {
		slog.Error("Checkout failed", "business_id", businessID, "error", err)
		return nil, toConnectError(err)
	}

	s.metrics.SequenceAttempts.WithLabelValues("sale").Observe(float64(alloc.Attempts))
	if alloc.Fallback {
		s.metrics.SequenceFallbacks.WithLabelValues("sale").Inc()
		slog.Warn("Sale number fell back to timestamp code", "number", sale.Number, "attempts", alloc.Attempts)
	}
	s.metrics.SalesCompleted.WithLabelValues(string(method)).Inc()
	slog.Info("Sale completed", "sale_id", sale.ID, "number", sale.Number, "total", totals.Total.StringFixed(2))

	if err := s.publisher.PublishSale(ctx, events.NewSaleEvent(sale)); err != nil {
		slog.Warn("Failed to publish sale event", "sale_id", sale.ID, "error", err)
	}

	sold := make(map[string]int, len(lines))
	for _, line := range lines {
		sold[line.product.ID] = line.quantity
	}
	resp := &pb.CheckoutResponse{Sale: toProtoSale(sale)}
	for _, level := range levels {
		if !level.Low() {
			continue
		}
		resp.LowStock = append(resp.LowStock, toProtoLevel(level))
		if level.CrossedLow(-sold[level.ProductID]) {
			s.stockLow(ctx, businessID, level, now)
		}
	}

	text, err := s.renderReceipt(ctx, sale, customer)
	if err != nil {
		// The sale is committed; the ticket can be reprinted later.
		slog.Warn("Failed to render receipt", "sale_id", sale.ID, "error", err)
	}
	resp.Receipt = text
	return resp, nil
}

func (s *SaleService) stockLow(ctx context.Context, businessID string, level models.StockLevel, at time.Time) {
	s.metrics.StockLow.Inc()
	slog.Warn("Stock low", "product_id", level.ProductID, "stock", level.Stock, "min_stock", level.MinStock)
	if err := s.publisher.PublishStockLow(ctx, events.NewStockLow(businessID, level, at)); err != nil {
		slog.Warn("Failed to publish stock low event", "product_id", level.ProductID, "error", err)
	}
}

func (s *SaleService) renderReceipt(ctx context.Context, sale *models.Sale, customer *models.Customer) (string, error) {
	if s.receipts == nil {
		return "", nil
	}
	business, err := s.store.GetBusiness(ctx, sale.BusinessID)
	if err != nil {
		return "", err
	}
	rc := receipt.Receipt{
		Business: business,
		Sale:     sale,
		Customer: customer,
		TaxRate:  s.tax.Rate,
	}
	if cashier, err := s.store.GetUserByID(ctx, sale.UserID); err == nil {
		rc.Cashier = cashier.DisplayName
	}
	return s.receipts.Render(rc)
}

// RenderReceipt reprints a sale's ticket.
func (s *SaleService) RenderReceipt(ctx context.Context, businessID, saleID string) (string, error) {
	if s.receipts == nil {
		return "", errors.New("receipts are not configured")
	}
	sale, err := s.store.GetSale(ctx, businessID, saleID)
	if err != nil {
		return "", err
	}
	var customer *models.Customer
	if sale.CustomerID != "" {
		customer, err = s.store.GetCustomer(ctx, businessID, sale.CustomerID)
		if err != nil {
			return "", err
		}
	}
	return s.renderReceipt(ctx, sale, customer)
}

// GetSale retrieves a sale with its items.
func (s *SaleService) GetSale(ctx context.Context, req *connect.Request[pb.GetSaleRequest]) (*connect.Response[pb.GetSaleResponse], error) {
	businessID, _, err := session(ctx)
	if err != nil {
		return nil, err
	}

	sale, err := s.store.GetSale(ctx, businessID, req.Msg.SaleId)
	if err != nil {
		slog.Warn("GetSale failed", "sale_id", req.Msg.SaleId, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&pb.GetSaleResponse{Sale: toProtoSale(sale)}), nil
}

// businessDay validates a yyyymmdd day, defaulting to today.
func (s *SaleService) businessDay(day string) (string, error) {
	if day == "" {
		return s.clock().In(s.loc).Format(dayLayout), nil
	}
	if _, err := time.Parse(dayLayout, day); err != nil {
		return "", connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("day %q is not yyyymmdd", day))
	}
	return day, nil
}

// ListSales lists a business day's sales in the order they were rung up.
func (s *SaleService) ListSales(ctx context.Context, req *connect.Request[pb.ListSalesRequest]) (*connect.Response[pb.ListSalesResponse], error) {
	businessID, _, err := session(ctx)
	if err != nil {
		return nil, err
	}
	day, err := s.businessDay(req.Msg.Day)
	if err != nil {
		return nil, err
	}

	sales, err := s.store.ListSalesByDay(ctx, businessID, day)
	if err != nil {
		slog.Error("ListSales failed", "day", day, "error", err)
		return nil, toConnectError(err)
	}

	resp := &pb.ListSalesResponse{Day: day, Sales: make([]*pb.Sale, len(sales))}
	for i, sale := range sales {
		resp.Sales[i] = toProtoSale(sale)
	}
	return connect.NewResponse(resp), nil
}

// VoidSale cancels a sale and returns its items to stock. Admin only.
func (s *SaleService) VoidSale(ctx context.Context, req *connect.Request[pb.VoidSaleRequest]) (*connect.Response[pb.VoidSaleResponse], error) {
	businessID, userID, err := session(ctx)
	if err != nil {
		return nil, err
	}
	if err := middleware.RequireRole(ctx, models.RoleAdmin); err != nil {
		return nil, err
	}
	slog.Info("VoidSale request received", "sale_id", req.Msg.SaleId)

	sale, err := s.store.VoidSale(ctx, businessID, req.Msg.SaleId, userID, s.clock().Unix())
	if err != nil {
		slog.Warn("VoidSale failed", "sale_id", req.Msg.SaleId, "error", err)
		return nil, toConnectError(err)
	}

	s.metrics.SalesVoided.Inc()
	if err := s.publisher.PublishSale(ctx, events.NewSaleEvent(sale)); err != nil {
		slog.Warn("Failed to publish void event", "sale_id", sale.ID, "error", err)
	}

	slog.Info("Sale voided", "sale_id", sale.ID, "number", sale.Number)
	return connect.NewResponse(&pb.VoidSaleResponse{Sale: toProtoSale(sale)}), nil
}

// DailySummary totals a business day for the cash-drawer close.
func (s *SaleService) DailySummary(ctx context.Context, req *connect.Request[pb.DailySummaryRequest]) (*connect.Response[pb.DailySummaryResponse], error) {
	businessID, _, err := session(ctx)
	if err != nil {
		return nil, err
	}
	day, err := s.businessDay(req.Msg.Day)
	if err != nil {
		return nil, err
	}

	sales, err := s.store.ListSalesByDay(ctx, businessID, day)
	if err != nil {
		slog.Error("DailySummary failed", "day", day, "error", err)
		return nil, toConnectError(err)
	}

	in := make([]calculator.SaleForSummary, len(sales))
	for i, sale := range sales {
		in[i] = calculator.SaleForSummary{
			PaymentMethod: sale.PaymentMethod,
			Totals:        sale.Totals,
			Voided:        sale.Status == models.SaleVoided,
		}
	}
	summary := calculator.Summarize(in)

	resp := &pb.DailySummaryResponse{
		Day:          day,
		SalesCount:   summary.SalesCount,
		VoidedCount:  summary.VoidedCount,
		Subtotal:     summary.Subtotal,
		Discount:     summary.Discount,
		Tax:          summary.Tax,
		Total:        summary.Total,
		ExpectedCash: summary.ExpectedCash,
		ByMethod:     make([]*pb.MethodSummary, len(summary.ByMethod)),
	}
	for i, m := range summary.ByMethod {
		resp.ByMethod[i] = &pb.MethodSummary{
			Method:   string(m.Method),
			Count:    m.Count,
			Subtotal: m.Subtotal,
			Discount: m.Discount,
			Tax:      m.Tax,
			Total:    m.Total,
		}
	}
	return connect.NewResponse(resp), nil
}
