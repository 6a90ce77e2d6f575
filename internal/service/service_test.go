package service

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/mmynk/tiendapos/internal/auth"
	"github.com/mmynk/tiendapos/internal/calculator"
	"github.com/mmynk/tiendapos/internal/events"
	"github.com/mmynk/tiendapos/internal/idempotency"
	"github.com/mmynk/tiendapos/internal/metrics"
	"github.com/mmynk/tiendapos/internal/middleware"
	"github.com/mmynk/tiendapos/internal/receipt"
	"github.com/mmynk/tiendapos/internal/sequence"
	"github.com/mmynk/tiendapos/internal/storage/sqlite"
	pb "github.com/mmynk/tiendapos/pkg/proto"
	"github.com/mmynk/tiendapos/pkg/proto/protoconnect"
)

const testSecret = "test-secret-key-that-is-long-enough"

// testNow is 10:00 in Lima on 2026-10-18.
var testNow = time.Date(2026, 10, 18, 15, 0, 0, 0, time.UTC)

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu       sync.Mutex
	sales    []events.SaleEvent
	stockLow []events.StockLow
}

func (p *recordingPublisher) PublishSale(ctx context.Context, ev events.SaleEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sales = append(p.sales, ev)
	return nil
}

func (p *recordingPublisher) PublishStockLow(ctx context.Context, ev events.StockLow) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stockLow = append(p.stockLow, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) saleEvents() []events.SaleEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.SaleEvent(nil), p.sales...)
}

func (p *recordingPublisher) stockLowEvents() []events.StockLow {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.StockLow(nil), p.stockLow...)
}

type testServer struct {
	auth    protoconnect.AuthServiceClient
	catalog protoconnect.CatalogServiceClient
	sales   protoconnect.SaleServiceClient
	stock   protoconnect.StockServiceClient

	sale      *SaleService
	publisher *recordingPublisher
	registry  *prometheus.Registry

	adminToken string
	businessID string
}

// setupTestServer serves every service over a fresh SQLite database and
// registers a business whose admin token is returned.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "pos.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	loc, err := time.LoadLocation("America/Lima")
	if err != nil {
		t.Fatalf("failed to load location: %v", err)
	}
	renderer, err := receipt.NewRenderer(receipt.Options{Locale: "es-PE", Currency: "PEN", Symbol: "S/", Location: loc})
	if err != nil {
		t.Fatalf("failed to create renderer: %v", err)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	publisher := &recordingPublisher{}
	allocator := sequence.NewAllocator(sequence.Options{})
	jwtManager := auth.NewJWTManager(testSecret, time.Hour)

	authSvc := NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager, store, slog.Default())
	catalogSvc := NewCatalogService(store, allocator, m)
	catalogSvc.now = func() time.Time { return testNow }
	saleSvc := NewSaleService(SaleConfig{
		Store:       store,
		Allocator:   allocator,
		Tax:         calculator.TaxPolicy{Rate: decimal.RequireFromString("0.18")},
		StrictCash:  true,
		Location:    loc,
		Receipts:    renderer,
		Idempotency: idempotency.NewMemoryStore(time.Hour),
		Publisher:   publisher,
		Metrics:     m,
		Clock:       func() time.Time { return testNow },
	})
	stockSvc := NewStockService(store, publisher, m)
	stockSvc.now = func() time.Time { return testNow }

	interceptors := connect.WithInterceptors(
		middleware.MetricsInterceptor(m),
		middleware.RequireAuth(jwtManager,
			protoconnect.AuthServiceRegisterProcedure,
			protoconnect.AuthServiceLoginProcedure,
		),
		middleware.LoggingInterceptor(),
	)

	mux := http.NewServeMux()
	mux.Handle(protoconnect.NewAuthServiceHandler(authSvc, interceptors))
	mux.Handle(protoconnect.NewCatalogServiceHandler(catalogSvc, interceptors))
	mux.Handle(protoconnect.NewSaleServiceHandler(saleSvc, interceptors))
	mux.Handle(protoconnect.NewStockServiceHandler(stockSvc, interceptors))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	ts := &testServer{
		auth:      protoconnect.NewAuthServiceClient(http.DefaultClient, server.URL),
		catalog:   protoconnect.NewCatalogServiceClient(http.DefaultClient, server.URL),
		sales:     protoconnect.NewSaleServiceClient(http.DefaultClient, server.URL),
		stock:     protoconnect.NewStockServiceClient(http.DefaultClient, server.URL),
		sale:      saleSvc,
		publisher: publisher,
		registry:  reg,
	}

	resp, err := ts.auth.Register(context.Background(), connect.NewRequest(&pb.RegisterRequest{
		BusinessName: "Bodega Rosita",
		TaxId:        "20123456789",
		Address:      "Av. Arequipa 123",
		Email:        "rosa@example.com",
		DisplayName:  "Rosa",
		Password:     "password123",
	}))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	ts.adminToken = resp.Msg.Token
	ts.businessID = resp.Msg.Business.Id
	return ts
}

// cashierToken creates a cashier in the test business and logs them in.
func (ts *testServer) cashierToken(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	_, err := ts.auth.CreateUser(ctx, withToken(&pb.CreateUserRequest{
		Email:       "caja@example.com",
		DisplayName: "Caja 1",
		Password:    "password123",
		Role:        "cashier",
	}, ts.adminToken))
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	resp, err := ts.auth.Login(ctx, connect.NewRequest(&pb.LoginRequest{
		Email:    "caja@example.com",
		Password: "password123",
	}))
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	return resp.Msg.Token
}

// createProduct adds a product with an allocated SKU.
func (ts *testServer) createProduct(t *testing.T, name, price string, stock, minStock int) *pb.Product {
	t.Helper()
	resp, err := ts.catalog.CreateProduct(context.Background(), withToken(&pb.CreateProductRequest{
		Name:         name,
		Price:        decimal.RequireFromString(price),
		InitialStock: stock,
		MinStock:     minStock,
	}, ts.adminToken))
	if err != nil {
		t.Fatalf("CreateProduct(%s) failed: %v", name, err)
	}
	return resp.Msg.Product
}

func withToken[T any](msg *T, token string) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+token)
	return req
}

func expectCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Fatalf("code: expected %v, got %v (%v)", want, got, err)
	}
}

func expectAmount(t *testing.T, label string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("%s: expected %s, got %s", label, want, got)
	}
}

// counterValue reads a counter from the registry, matching every given label.
func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
	metrics:
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if want, ok := labels[l.GetName()]; ok && want != l.GetValue() {
					continue metrics
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}
