package catalog

import (
	"testing"
)

const sampleCatalogYAML = `
store:
  name: SoleShop
  currency: usd
products:
  - id: 1
    name: Runner Classic
    price: 89.90
    promotional_price: 79.90
    thumbnail: runner.jpg
    active: true
    variants:
      - color_id: 10
        color_name: Black
        image: runner-black.jpg
        sizes:
          - size: "41"
            quantity: 4
            line_item_id: 101
          - size: "42"
            quantity: 0
            line_item_id: 102
shipping:
  - id: 1
    name: Standard
    fee: 5.00
  - id: 2
    name: Express
    fee: 12.50
payments:
  - id: 1
    name: Cash on delivery
    type: cash
  - id: 2
    name: Card
    type: gateway
`

func TestLoader_Parse(t *testing.T) {
	t.Parallel()

	loader := NewLoader()
	config, err := loader.Parse([]byte(sampleCatalogYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if config.Store.Name != "SoleShop" {
		t.Errorf("expected store name SoleShop, got %q", config.Store.Name)
	}
	if len(config.Products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(config.Products))
	}

	product := config.Products[0]
	if product.EffectivePrice() != 79.90 {
		t.Errorf("expected promotional price 79.90, got %v", product.EffectivePrice())
	}
	if len(product.Variants) != 1 || len(product.Variants[0].Sizes) != 2 {
		t.Errorf("variants not parsed: %+v", product.Variants)
	}
	if len(config.Shipping) != 2 || len(config.Payments) != 2 {
		t.Errorf("shipping/payment methods not parsed")
	}
}

func TestLoader_ParseInvalidYAML(t *testing.T) {
	t.Parallel()

	loader := NewLoader()
	if _, err := loader.Parse([]byte("products: [")); err == nil {
		t.Error("expected parse error")
	}
}

func TestProductConfig_EffectivePrice(t *testing.T) {
	t.Parallel()

	promo := 50.0
	higher := 120.0
	tests := []struct {
		name    string
		product ProductConfig
		want    float64
	}{
		{
			name:    "no promotion",
			product: ProductConfig{Price: 100},
			want:    100,
		},
		{
			name:    "promotion below list price",
			product: ProductConfig{Price: 100, PromotionalPrice: &promo},
			want:    50,
		},
		{
			name:    "promotion above list price is ignored",
			product: ProductConfig{Price: 100, PromotionalPrice: &higher},
			want:    100,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.product.EffectivePrice(); got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestValidator_Validate(t *testing.T) {
	t.Parallel()

	valid := func(t *testing.T) *StoreConfig {
		t.Helper()
		config, err := NewLoader().Parse([]byte(sampleCatalogYAML))
		if err != nil {
			t.Fatalf("fixture failed to parse: %v", err)
		}
		return config
	}

	tests := []struct {
		name    string
		mutate  func(*StoreConfig)
		wantErr bool
	}{
		{
			name:   "valid config",
			mutate: func(*StoreConfig) {},
		},
		{
			name:    "missing store name",
			mutate:  func(c *StoreConfig) { c.Store.Name = "" },
			wantErr: true,
		},
		{
			name:    "no products",
			mutate:  func(c *StoreConfig) { c.Products = nil },
			wantErr: true,
		},
		{
			name: "duplicate product id",
			mutate: func(c *StoreConfig) {
				c.Products = append(c.Products, c.Products[0])
			},
			wantErr: true,
		},
		{
			name:    "non-positive price",
			mutate:  func(c *StoreConfig) { c.Products[0].Price = 0 },
			wantErr: true,
		},
		{
			name: "duplicate size within color",
			mutate: func(c *StoreConfig) {
				sizes := c.Products[0].Variants[0].Sizes
				c.Products[0].Variants[0].Sizes = append(sizes, sizes[0])
			},
			wantErr: true,
		},
		{
			name: "in-stock size without line item id",
			mutate: func(c *StoreConfig) {
				c.Products[0].Variants[0].Sizes[0].LineItemID = 0
			},
			wantErr: true,
		},
		{
			name:    "no shipping methods",
			mutate:  func(c *StoreConfig) { c.Shipping = nil },
			wantErr: true,
		},
		{
			name:    "unknown payment type",
			mutate:  func(c *StoreConfig) { c.Payments[0].Type = "crypto" },
			wantErr: true,
		},
	}

	validator := NewValidator()

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			config := valid(t)
			tc.mutate(config)

			err := validator.Validate(config)
			if tc.wantErr && err == nil {
				t.Error("expected error but got none")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
