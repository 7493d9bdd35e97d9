package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/soleshopapp/soleshop/internal/catalog"
	"github.com/soleshopapp/soleshop/internal/checkout"
	"github.com/soleshopapp/soleshop/internal/logging"
	"github.com/soleshopapp/soleshop/internal/models"
)

const orderHistoryLimit = 20

var ErrOrderNotFound = errors.New("order not found")

// OrderService serves a session's order history and replays past orders
// back into the cart.
type OrderService struct {
	orders   orderReader
	checkout *CheckoutService
	lookup   checkout.ProductLookup
	logger   *slog.Logger
}

type orderReader interface {
	GetByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	GetBySession(ctx context.Context, sessionID string, limit int) ([]*models.Order, error)
}

// NewOrderService builds the order service. The lookup, when set, is asked
// whether each replayed product still exists upstream and whether its size
// still has stock there; a cached lookup is fine here since an unavailable
// line is skipped, never sold.
func NewOrderService(orders orderReader, checkoutService *CheckoutService, lookup checkout.ProductLookup, logger *slog.Logger) *OrderService {
	return &OrderService{
		orders:   orders,
		checkout: checkoutService,
		lookup:   lookup,
		logger:   logger,
	}
}

func (s *OrderService) ListOrders(ctx context.Context, sessionID string) ([]*models.Order, error) {
	return s.orders.GetBySession(ctx, sessionID, orderHistoryLimit)
}

// GetOrder returns one of the session's own orders. An order belonging to a
// different session reads as not found.
func (s *OrderService) GetOrder(ctx context.Context, sessionID string, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.SessionID != sessionID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// BuyAgainResult reports which lines of a replayed order made it back into
// the cart and which were skipped because the product or size is gone.
type BuyAgainResult struct {
	Cart    *CartView `json:"cart"`
	Skipped []string  `json:"skipped,omitempty"`
}

// BuyAgain adds the lines of a past order back to the cart at current
// prices and against current stock. Unavailable lines are skipped, not
// failed; a fully unavailable order yields an error.
func (s *OrderService) BuyAgain(ctx context.Context, sessionID string, orderID uuid.UUID) (*BuyAgainResult, error) {
	logger := logging.FromContext(ctx, s.logger)

	order, err := s.GetOrder(ctx, sessionID, orderID)
	if err != nil {
		return nil, err
	}

	result := &BuyAgainResult{}
	added := 0
	for _, line := range order.Lines {
		if s.lookup != nil {
			info, err := s.lookup.LookupProduct(ctx, line.ProductID)
			if err != nil {
				logger.Info("skipped line no longer sold upstream", "order_id", orderID, "product_id", line.ProductID, "error", err)
				result.Skipped = append(result.Skipped, line.Name)
				continue
			}
			if line.VariantID != 0 && len(info.Variants) > 0 {
				if _, entry, ok := catalog.NewCatalog(info.Variants).Variant(line.VariantID); !ok || entry.Quantity == 0 {
					logger.Info("skipped size no longer stocked upstream", "order_id", orderID, "product_id", line.ProductID, "variant_id", line.VariantID)
					result.Skipped = append(result.Skipped, line.Name)
					continue
				}
			}
		}
		view, err := s.checkout.AddItem(ctx, sessionID, AddItemInput{
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
		})
		if err != nil {
			logger.Info("skipped unavailable line during reorder", "order_id", orderID, "product_id", line.ProductID, "variant_id", line.VariantID, "error", err)
			result.Skipped = append(result.Skipped, line.Name)
			continue
		}
		result.Cart = view
		added++
	}

	if added == 0 {
		return nil, fmt.Errorf("none of the order's items are still available")
	}
	return result, nil
}
