package catalog

// Seed catalog validation.

import (
	"fmt"
	"strings"
)

type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) Validate(config *StoreConfig) error {
	if err := v.validateStore(&config.Store); err != nil {
		return fmt.Errorf("store validation failed: %w", err)
	}

	if len(config.Products) == 0 {
		return fmt.Errorf("at least one product is required")
	}

	productIDs := make(map[int64]bool)
	for i, product := range config.Products {
		if err := v.validateProduct(&product); err != nil {
			return fmt.Errorf("product %d validation failed: %w", i, err)
		}

		if productIDs[product.ID] {
			return fmt.Errorf("duplicate product id: %d", product.ID)
		}
		productIDs[product.ID] = true
	}

	if len(config.Shipping) == 0 {
		return fmt.Errorf("at least one shipping method is required")
	}
	for i, method := range config.Shipping {
		if strings.TrimSpace(method.Name) == "" {
			return fmt.Errorf("shipping method %d: name is required", i)
		}
		if method.Fee < 0 {
			return fmt.Errorf("shipping method %d: fee must be zero or positive", i)
		}
	}

	if len(config.Payments) == 0 {
		return fmt.Errorf("at least one payment method is required")
	}
	for i, method := range config.Payments {
		if strings.TrimSpace(method.Name) == "" {
			return fmt.Errorf("payment method %d: name is required", i)
		}
		if method.Type != PaymentTypeCash && method.Type != PaymentTypeGateway {
			return fmt.Errorf("payment method %d: type must be cash or gateway", i)
		}
	}

	return nil
}

func (v *Validator) validateStore(store *StoreInfo) error {
	if strings.TrimSpace(store.Name) == "" {
		return fmt.Errorf("store name is required")
	}

	if store.Currency == "" {
		return fmt.Errorf("store currency is required")
	}

	return nil
}

func (v *Validator) validateProduct(product *ProductConfig) error {
	if product.ID <= 0 {
		return fmt.Errorf("product id must be positive")
	}

	if strings.TrimSpace(product.Name) == "" {
		return fmt.Errorf("product name is required")
	}

	if product.Price <= 0 {
		return fmt.Errorf("product price must be positive")
	}

	if product.PromotionalPrice != nil && *product.PromotionalPrice < 0 {
		return fmt.Errorf("promotional price must be zero or positive")
	}

	colorIDs := make(map[int64]bool)
	for i, raw := range product.Variants {
		if colorIDs[raw.ColorID] {
			return fmt.Errorf("duplicate color id %d", raw.ColorID)
		}
		colorIDs[raw.ColorID] = true

		sizes := make(map[string]bool)
		for j, size := range raw.Sizes {
			if strings.TrimSpace(size.Size) == "" {
				return fmt.Errorf("variant %d size %d: size label is required", i, j)
			}
			if sizes[size.Size] {
				return fmt.Errorf("variant %d: duplicate size %s", i, size.Size)
			}
			sizes[size.Size] = true

			if size.Quantity < 0 {
				return fmt.Errorf("variant %d size %s: quantity must be zero or positive", i, size.Size)
			}
			if size.Quantity > 0 && size.LineItemID == 0 {
				return fmt.Errorf("variant %d size %s: line item id is required for in-stock sizes", i, size.Size)
			}
		}
	}

	return nil
}
