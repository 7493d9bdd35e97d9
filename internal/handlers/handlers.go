// Package handlers exposes the storefront checkout API over HTTP. All
// endpoints speak JSON; cart state is addressed through the visitor's
// session cookie.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/soleshopapp/soleshop/internal/config"
	"github.com/soleshopapp/soleshop/internal/logging"
	"github.com/soleshopapp/soleshop/internal/services"
	"github.com/soleshopapp/soleshop/internal/session"
)

const maxRequestBodyBytes = 1 << 20 // 1 MB

type Handlers struct {
	config          *config.Config
	db              *pgxpool.Pool
	productService  *services.ProductService
	checkoutService *services.CheckoutService
	orderService    *services.OrderService
	sessionManager  *session.Manager
	logger          *slog.Logger
}

type Dependencies struct {
	Config          *config.Config
	DB              *pgxpool.Pool
	ProductService  *services.ProductService
	CheckoutService *services.CheckoutService
	OrderService    *services.OrderService
	SessionManager  *session.Manager
	Logger          *slog.Logger
}

func New(deps Dependencies) (*Handlers, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if deps.Config == nil {
		return nil, fmt.Errorf("handlers dependencies: config is required")
	}
	if deps.ProductService == nil {
		return nil, fmt.Errorf("handlers dependencies: productService is required")
	}
	if deps.CheckoutService == nil {
		return nil, fmt.Errorf("handlers dependencies: checkoutService is required")
	}
	if deps.OrderService == nil {
		return nil, fmt.Errorf("handlers dependencies: orderService is required")
	}
	if deps.SessionManager == nil {
		return nil, fmt.Errorf("handlers dependencies: sessionManager is required")
	}

	return &Handlers{
		config:          deps.Config,
		db:              deps.DB,
		productService:  deps.ProductService,
		checkoutService: deps.CheckoutService,
		orderService:    deps.OrderService,
		sessionManager:  deps.SessionManager,
		logger:          logger.With("component", "handlers"),
	}, nil
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			logger.Error("database health check failed", "error", err)
			http.Error(w, "Database unhealthy", http.StatusServiceUnavailable)
			return
		}
	}

	h.respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "healthy"})
}

// SessionMiddleware resolves or creates the visitor's session.
func (h *Handlers) SessionMiddleware(next http.Handler) http.Handler {
	return h.sessionManager.Middleware(next)
}

func (h *Handlers) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, h.logger)
}

func (h *Handlers) respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.loggerFromContext(ctx).Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	h.respondJSON(ctx, w, status, map[string]string{"error": message})
}

// decodeJSON reads a bounded JSON request body into dst.
func (h *Handlers) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// sessionID returns the request's session identifier. The session
// middleware guarantees one is present on storefront routes.
func (h *Handlers) sessionID(r *http.Request) (string, bool) {
	return session.IDFromContext(r.Context())
}

func SecureCookiesFromConfig(cfg *config.Config) bool {
	if cfg == nil {
		return false
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL != "" {
		if parsed, err := url.Parse(baseURL); err == nil {
			return strings.EqualFold(parsed.Scheme, "https")
		}
	}

	return cfg.Port == "443" || cfg.Port == "8443"
}
