package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/soleshopapp/soleshop/internal/config"
	"github.com/soleshopapp/soleshop/internal/handlers"
)

type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	handlers   *handlers.Handlers
	httpServer *http.Server
}

func New(cfg *config.Config, logger *slog.Logger, h *handlers.Handlers) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if h == nil {
		return nil, fmt.Errorf("handlers are required")
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		handlers: h,
	}

	router := s.buildRouter()
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return s, nil
}

func (s *Server) Run() error {
	s.logger.Info("server starting", "port", s.cfg.Port)

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Close(ctx context.Context) error {
	if s == nil || s.httpServer == nil {
		return nil
	}

	s.logger.Info("server shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) buildRouter() *mux.Router {
	h := s.handlers

	r := mux.NewRouter()
	r.Use(h.RequestLogger)
	r.Use(h.SecurityHeaders)
	r.HandleFunc("/health", h.Health).Methods("GET").Name("health")

	// Public catalog routes; no session needed.
	r.HandleFunc("/products", h.ListProducts).Methods("GET").Name("products.list")
	r.HandleFunc("/products/{id}", h.GetProduct).Methods("GET").Name("products.get")
	r.HandleFunc("/products/{id}/selection", h.ValidateSelection).Methods("POST").Name("products.selection")
	r.HandleFunc("/shipping-methods", h.ListShippingMethods).Methods("GET").Name("shipping.list")
	r.HandleFunc("/payment-methods", h.ListPaymentMethods).Methods("GET").Name("payments.list")

	// Session-scoped storefront routes.
	storefront := r.PathPrefix("/").Subrouter()
	storefront.Use(h.SessionMiddleware)
	storefront.Use(h.MetricsContext)
	storefront.Use(h.RequireSameOrigin)
	storefront.HandleFunc("/cart", h.GetCart).Methods("GET").Name("cart.get")
	storefront.HandleFunc("/cart/items", h.AddCartItem).Methods("POST").Name("cart.items.add")
	storefront.HandleFunc("/cart/items/{key}", h.UpdateCartItem).Methods("PATCH").Name("cart.items.update")
	storefront.HandleFunc("/cart/items/{key}", h.RemoveCartItem).Methods("DELETE").Name("cart.items.remove")
	storefront.HandleFunc("/cart/discount", h.ApplyDiscount).Methods("POST").Name("cart.discount.apply")
	storefront.HandleFunc("/cart/discount", h.RemoveDiscount).Methods("DELETE").Name("cart.discount.remove")
	storefront.HandleFunc("/checkout/price-check", h.PriceCheck).Methods("POST").Name("checkout.price_check")
	storefront.HandleFunc("/checkout", h.SubmitOrder).Methods("POST").Name("checkout.submit")
	storefront.HandleFunc("/orders", h.ListOrders).Methods("GET").Name("orders.list")
	storefront.HandleFunc("/orders/{id}", h.GetOrder).Methods("GET").Name("orders.get")
	storefront.HandleFunc("/orders/{id}/buy-again", h.ReorderItems).Methods("POST").Name("orders.buy_again")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}`))
	})

	return r
}
