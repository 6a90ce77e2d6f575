// Package httpapi assembles the HTTP surface: the Connect services, receipt
// reprints, health and metrics endpoints and the optional web front end.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/tiendapos/internal/auth"
	"github.com/mmynk/tiendapos/internal/middleware"
	"github.com/mmynk/tiendapos/internal/storage"
)

// ReceiptRenderer reprints a sale's ticket.
type ReceiptRenderer interface {
	RenderReceipt(ctx context.Context, businessID, saleID string) (string, error)
}

// Service is a Connect handler and the path prefix it serves.
type Service struct {
	Path    string
	Handler http.Handler
}

// Config wires the router.
type Config struct {
	Services []Service
	JWT      *auth.JWTManager
	Receipts ReceiptRenderer

	// Gatherer is exposed at /metrics. Nil uses the default registry.
	Gatherer prometheus.Gatherer

	// Health reports whether dependencies are reachable. Nil always reports healthy.
	Health func(ctx context.Context) error

	// StaticDir serves the web front end when set.
	StaticDir string
}

// NewRouter builds the HTTP handler for the server.
func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger)
	r.Use(chimw.Recoverer)
	r.Use(cors)

	r.Get("/healthz", healthHandler(cfg.Health))

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	for _, svc := range cfg.Services {
		r.Handle(svc.Path+"*", svc.Handler)
	}

	if cfg.Receipts != nil {
		r.With(middleware.RequireAuthHTTP(cfg.JWT)).Get("/receipts/{saleID}", receiptHandler(cfg.Receipts))
	}

	if cfg.StaticDir != "" {
		r.Get("/*", staticHandler(cfg.StaticDir))
	}
	return r
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				slog.Warn("Health check failed", "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"ok":false}`))
				return
			}
		}
		w.Write([]byte(`{"ok":true}`))
	}
}

func receiptHandler(receipts ReceiptRenderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		saleID := chi.URLParam(r, "saleID")
		text, err := receipts.RenderReceipt(r.Context(), middleware.GetBusinessID(r.Context()), saleID)
		if errors.Is(err, storage.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			slog.Error("Receipt reprint failed", "sale_id", saleID, "error", err)
			http.Error(w, "failed to render receipt", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(text))
	}
}

// staticHandler serves files from dir, falling back to index.html for
// unknown paths so client-side routes load the app.
func staticHandler(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		urlPath := r.URL.Path
		if urlPath == "/" {
			urlPath = "/index.html"
		}
		filePath := filepath.Join(dir, filepath.Clean("/"+urlPath))
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}
		http.ServeFile(w, r, filePath)
	}
}

// requestLogger logs every request with its status and duration.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		// Probes and scrapes are not logged.
		if r.URL.Path == "/healthz" || r.URL.Path == "/metrics" {
			return
		}
		slog.Info("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", chimw.GetReqID(r.Context()),
			"remote_addr", r.RemoteAddr,
		)
	})
}

// cors adds CORS headers for browser access.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", strings.Join([]string{
			"Content-Type", "Authorization", "Idempotency-Key", "Connect-Protocol-Version", "Connect-Timeout-Ms",
		}, ", "))
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
