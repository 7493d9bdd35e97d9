package catalog

// Seed catalog parsing. In dev mode the product service is backed by a
// soleshop.yaml file instead of the live catalog API.

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type StoreConfig struct {
	Store    StoreInfo        `yaml:"store" json:"store"`
	Products []ProductConfig  `yaml:"products" json:"products"`
	Shipping []ShippingMethod `yaml:"shipping" json:"shipping"`
	Payments []PaymentMethod  `yaml:"payments" json:"payments"`
}

type StoreInfo struct {
	Name     string `yaml:"name" json:"name"`
	Currency string `yaml:"currency" json:"currency"`
}

type ProductConfig struct {
	ID               int64        `yaml:"id"`
	Name             string       `yaml:"name"`
	Price            float64      `yaml:"price"`
	PromotionalPrice *float64     `yaml:"promotional_price,omitempty"`
	Thumbnail        string       `yaml:"thumbnail"`
	Active           bool         `yaml:"active"`
	Variants         []RawVariant `yaml:"variants"`
}

type ShippingMethod struct {
	ID   int64   `yaml:"id" json:"id"`
	Name string  `yaml:"name" json:"name"`
	Fee  float64 `yaml:"fee" json:"fee"`
}

const (
	PaymentTypeCash    = "cash"
	PaymentTypeGateway = "gateway"
)

type PaymentMethod struct {
	ID   int64  `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type" json:"type"`
}

// EffectivePrice returns the promotional price when one is set, else the
// list price.
func (p *ProductConfig) EffectivePrice() float64 {
	if p.PromotionalPrice != nil && *p.PromotionalPrice > 0 && *p.PromotionalPrice < p.Price {
		return *p.PromotionalPrice
	}
	return p.Price
}

type Loader struct{}

func NewLoader() *Loader {
	return &Loader{}
}

func (l *Loader) Parse(content []byte) (*StoreConfig, error) {
	var config StoreConfig
	if err := yaml.Unmarshal(content, &config); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}

	return &config, nil
}

func (l *Loader) ParseFile(path string) (*StoreConfig, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return l.Parse(content)
}
