package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/soleshopapp/soleshop/internal/cache"
	"github.com/soleshopapp/soleshop/internal/catalog"
	"github.com/soleshopapp/soleshop/internal/checkout"
	"github.com/soleshopapp/soleshop/internal/logging"
)

// ProductService serves the store's product listing and per-product variant
// catalogs from the store configuration.
type ProductService struct {
	config   *catalog.StoreConfig
	products map[int64]*catalog.ProductConfig
	catalogs map[int64]*catalog.Catalog
	logger   *slog.Logger
}

func NewProductService(config *catalog.StoreConfig, logger *slog.Logger) (*ProductService, error) {
	if config == nil {
		return nil, fmt.Errorf("store config is required")
	}

	s := &ProductService{
		config:   config,
		products: make(map[int64]*catalog.ProductConfig, len(config.Products)),
		catalogs: make(map[int64]*catalog.Catalog, len(config.Products)),
		logger:   logger,
	}

	for i := range config.Products {
		product := &config.Products[i]
		if !product.Active {
			continue
		}
		s.products[product.ID] = product
		s.catalogs[product.ID] = catalog.NewCatalog(product.Variants)
	}

	return s, nil
}

// ListProducts returns the active products in configuration order.
func (s *ProductService) ListProducts() []*catalog.ProductConfig {
	products := make([]*catalog.ProductConfig, 0, len(s.products))
	for i := range s.config.Products {
		product := &s.config.Products[i]
		if _, ok := s.products[product.ID]; ok {
			products = append(products, product)
		}
	}
	return products
}

func (s *ProductService) GetProduct(productID int64) (*catalog.ProductConfig, error) {
	product, ok := s.products[productID]
	if !ok {
		return nil, fmt.Errorf("product %d not found", productID)
	}
	return product, nil
}

// Variants returns the product's variant catalog. Products sold without
// variants have an empty catalog.
func (s *ProductService) Variants(productID int64) (*catalog.Catalog, error) {
	c, ok := s.catalogs[productID]
	if !ok {
		return nil, fmt.Errorf("product %d not found", productID)
	}
	return c, nil
}

// ShippingMethods returns the configured shipping methods, cheapest first.
func (s *ProductService) ShippingMethods() []catalog.ShippingMethod {
	methods := append([]catalog.ShippingMethod(nil), s.config.Shipping...)
	sort.SliceStable(methods, func(i, j int) bool {
		return methods[i].Fee < methods[j].Fee
	})
	return methods
}

func (s *ProductService) PaymentMethods() []catalog.PaymentMethod {
	return append([]catalog.PaymentMethod(nil), s.config.Payments...)
}

func (s *ProductService) Store() catalog.StoreInfo {
	return s.config.Store
}

// CachedProductLookup wraps a remote product lookup with a short-lived
// cache. Price checks bypass it; it backs the "buy again" replay, where a
// stale-by-seconds answer only risks skipping a line.
type CachedProductLookup struct {
	lookup checkout.ProductLookup
	cache  cache.Provider
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedProductLookup(lookup checkout.ProductLookup, cacheProvider cache.Provider, ttl time.Duration, logger *slog.Logger) *CachedProductLookup {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedProductLookup{
		lookup: lookup,
		cache:  cacheProvider,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *CachedProductLookup) LookupProduct(ctx context.Context, productID int64) (*checkout.ProductInfo, error) {
	logger := logging.FromContext(ctx, c.logger)
	key := cache.ProductKey(productID)

	if c.cache != nil {
		if cached, err := c.cache.Get(ctx, key); err == nil && cached != "" {
			var info checkout.ProductInfo
			if err := json.Unmarshal([]byte(cached), &info); err == nil {
				return &info, nil
			}
		}
	}

	info, err := c.lookup.LookupProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if payload, err := json.Marshal(info); err == nil {
			if err := c.cache.Set(ctx, key, string(payload), c.ttl); err != nil {
				logger.Warn("failed to cache product lookup", "product_id", productID, "error", err)
			}
		}
	}

	return info, nil
}
