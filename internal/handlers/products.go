package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/soleshopapp/soleshop/internal/catalog"
	"github.com/soleshopapp/soleshop/internal/checkout"
)

type productSummary struct {
	ID               int64    `json:"id"`
	Name             string   `json:"name"`
	Price            float64  `json:"price"`
	PromotionalPrice *float64 `json:"promotional_price,omitempty"`
	Thumbnail        string   `json:"thumbnail,omitempty"`
}

type colorView struct {
	ID      int64      `json:"id"`
	Name    string     `json:"name"`
	Image   string     `json:"image,omitempty"`
	InStock bool       `json:"in_stock"`
	Sizes   []sizeView `json:"sizes"`
}

type sizeView struct {
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
	VariantID int64  `json:"variant_id"`
}

type productDetail struct {
	productSummary
	Colors []colorView `json:"colors"`
}

func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	products := h.productService.ListProducts()
	summaries := make([]productSummary, 0, len(products))
	for _, product := range products {
		summaries = append(summaries, summarize(product))
	}
	h.respondJSON(r.Context(), w, http.StatusOK, map[string]any{"products": summaries})
}

// GetProduct returns one product with its full color and size matrix. Sizes
// are served pre-sorted; clients render them in order.
func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	productID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.productService.GetProduct(productID)
	if err != nil {
		h.respondError(ctx, w, http.StatusNotFound, "product not found")
		return
	}
	variants, err := h.productService.Variants(productID)
	if err != nil {
		h.respondError(ctx, w, http.StatusNotFound, "product not found")
		return
	}

	detail := productDetail{productSummary: summarize(product)}
	for _, color := range variants.Colors() {
		view := colorView{
			ID:      color.ID,
			Name:    color.Name,
			Image:   color.Image,
			InStock: color.InStock,
			Sizes:   []sizeView{},
		}
		for _, entry := range variants.SizesFor(color.ID) {
			view.Sizes = append(view.Sizes, sizeView{
				Size:      entry.Size,
				Quantity:  entry.Quantity,
				VariantID: entry.LineItemID,
			})
		}
		detail.Colors = append(detail.Colors, view)
	}

	h.respondJSON(ctx, w, http.StatusOK, detail)
}

func (h *Handlers) ListShippingMethods(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(r.Context(), w, http.StatusOK, map[string]any{
		"shipping_methods": h.productService.ShippingMethods(),
	})
}

func (h *Handlers) ListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(r.Context(), w, http.StatusOK, map[string]any{
		"payment_methods": h.productService.PaymentMethods(),
	})
}

func summarize(product *catalog.ProductConfig) productSummary {
	return productSummary{
		ID:               product.ID,
		Name:             product.Name,
		Price:            product.Price,
		PromotionalPrice: product.PromotionalPrice,
		Thumbnail:        product.Thumbnail,
	}
}

type selectionRequest struct {
	ColorID  int64  `json:"color_id"`
	Size     string `json:"size,omitempty"`
	Quantity int    `json:"quantity,omitempty"`
}

type selectionView struct {
	ColorID   int64   `json:"color_id"`
	Size      string  `json:"size,omitempty"`
	Quantity  int     `json:"quantity"`
	Available int     `json:"available"`
	VariantID int64   `json:"variant_id,omitempty"`
	UnitPrice float64 `json:"unit_price"`
}

// ValidateSelection walks a color/size/quantity choice through the same
// rules the product page enforces, so the client can trust the resolved
// variant before adding it to the cart.
func (h *Handlers) ValidateSelection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	productID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req selectionRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	product, err := h.productService.GetProduct(productID)
	if err != nil {
		h.respondError(ctx, w, http.StatusNotFound, "product not found")
		return
	}
	variants, err := h.productService.Variants(productID)
	if err != nil {
		h.respondError(ctx, w, http.StatusNotFound, "product not found")
		return
	}
	if variants.Empty() {
		h.respondError(ctx, w, http.StatusUnprocessableEntity, "product has no variants to select")
		return
	}

	selection := checkout.NewSelection(variants)
	selection.SelectColor(req.ColorID)
	if req.Size != "" {
		if err := selection.SelectSize(req.Size); err != nil {
			h.writeCheckoutError(w, r, err)
			return
		}
	}
	if req.Quantity > 1 {
		if err := selection.ChangeQuantity(req.Quantity - 1); err != nil {
			h.writeCheckoutError(w, r, err)
			return
		}
	}

	colorID, size, quantity, ok := selection.Current()
	if !ok {
		h.writeCheckoutError(w, r, checkout.ErrSizeUnavailable)
		return
	}

	view := selectionView{
		ColorID:   colorID,
		Size:      size,
		Quantity:  quantity,
		Available: selection.Available(),
		UnitPrice: product.EffectivePrice(),
	}
	if variantID, ok := selection.LineItemID(); ok {
		view.VariantID = variantID
	}
	h.respondJSON(ctx, w, http.StatusOK, view)
}
