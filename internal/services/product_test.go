package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/soleshopapp/soleshop/internal/cache"
	"github.com/soleshopapp/soleshop/internal/checkout"
)

func TestProductService_ListExcludesInactive(t *testing.T) {
	t.Parallel()

	service, err := NewProductService(testStoreConfig(), slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	products := service.ListProducts()
	if len(products) != 3 {
		t.Fatalf("expected 3 active products, got %d", len(products))
	}
	for _, product := range products {
		if product.ID == 5 {
			t.Error("inactive product must not be listed")
		}
	}

	if _, err := service.GetProduct(5); err == nil {
		t.Error("inactive product must not resolve")
	}
}

func TestProductService_VariantsAndShipping(t *testing.T) {
	t.Parallel()

	service, err := NewProductService(testStoreConfig(), slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	variants, err := service.Variants(7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if variants.Empty() || len(variants.Colors()) != 1 {
		t.Errorf("unexpected catalog: %+v", variants.Colors())
	}

	plain, err := service.Variants(3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !plain.Empty() {
		t.Error("a product without variants must have an empty catalog")
	}

	methods := service.ShippingMethods()
	if len(methods) != 2 || methods[0].Fee > methods[1].Fee {
		t.Errorf("shipping methods must be sorted by fee, got %+v", methods)
	}
}

type countingLookup struct {
	calls int
	info  *checkout.ProductInfo
}

func (c *countingLookup) LookupProduct(_ context.Context, _ int64) (*checkout.ProductInfo, error) {
	c.calls++
	if c.info == nil {
		return nil, errors.New("product not found")
	}
	return c.info, nil
}

func TestCachedProductLookup(t *testing.T) {
	t.Parallel()

	provider, err := cache.NewMemoryProvider()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	upstream := &countingLookup{info: &checkout.ProductInfo{ID: 7, Price: 100000}}
	lookup := NewCachedProductLookup(upstream, provider, time.Minute, slog.New(slog.DiscardHandler))

	for i := 0; i < 3; i++ {
		info, err := lookup.LookupProduct(context.Background(), 7)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if info.Price != 100000 {
			t.Errorf("unexpected price: %v", info.Price)
		}
	}
	if upstream.calls != 1 {
		t.Errorf("repeated lookups must hit the cache, got %d upstream calls", upstream.calls)
	}
}

func TestCachedProductLookup_ErrorsPassThrough(t *testing.T) {
	t.Parallel()

	provider, err := cache.NewMemoryProvider()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	upstream := &countingLookup{}
	lookup := NewCachedProductLookup(upstream, provider, time.Minute, slog.New(slog.DiscardHandler))

	if _, err := lookup.LookupProduct(context.Background(), 7); err == nil {
		t.Error("upstream errors must not be cached or masked")
	}
}
