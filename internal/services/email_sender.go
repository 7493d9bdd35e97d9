package services

import (
	"context"
	"fmt"

	"github.com/soleshopapp/soleshop/internal/catalog"
	"github.com/soleshopapp/soleshop/internal/email"
	"github.com/soleshopapp/soleshop/internal/models"
)

type OrderEmailSender interface {
	SendOrderConfirmation(ctx context.Context, order *models.Order, paymentURL string) error
}

// StoreOrderEmailSender renders and sends order mail through the configured
// provider.
type StoreOrderEmailSender struct {
	provider email.Provider
	store    catalog.StoreInfo
	baseURL  string
}

func NewStoreOrderEmailSender(provider email.Provider, store catalog.StoreInfo, baseURL string) *StoreOrderEmailSender {
	return &StoreOrderEmailSender{
		provider: provider,
		store:    store,
		baseURL:  baseURL,
	}
}

func (s *StoreOrderEmailSender) SendOrderConfirmation(ctx context.Context, order *models.Order, paymentURL string) error {
	if order == nil {
		return fmt.Errorf("order is required")
	}

	info := &email.OrderInfo{
		OrderNumber:   order.RemoteOrderID,
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		StoreName:     s.store.Name,
		StoreURL:      s.baseURL,
		OrderDate:     order.CreatedAt.Format("January 2, 2006"),
		Subtotal:      s.formatAmount(order.Subtotal),
		DiscountCode:  order.DiscountCode,
		Discount:      s.formatAmount(order.DiscountAmount),
		Total:         s.formatAmount(order.Total),
		PaymentURL:    paymentURL,
	}
	for _, line := range order.Lines {
		info.Items = append(info.Items, email.OrderItem{
			Name:       line.Name,
			Quantity:   line.Quantity,
			UnitPrice:  s.formatAmount(line.UnitPrice),
			TotalPrice: s.formatAmount(line.LineTotal()),
		})
	}

	return email.SendOrderConfirmation(ctx, s.provider, info)
}

func (s *StoreOrderEmailSender) formatAmount(amount float64) string {
	if s.store.Currency == "" {
		return fmt.Sprintf("%.2f", amount)
	}
	return fmt.Sprintf("%s %.2f", s.store.Currency, amount)
}

type noopOrderEmailSender struct{}

func (noopOrderEmailSender) SendOrderConfirmation(context.Context, *models.Order, string) error {
	return nil
}
