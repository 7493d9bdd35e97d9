package email

import (
	"strings"
	"testing"
)

func TestRenderOrderConfirmation(t *testing.T) {
	t.Parallel()

	renderer, err := NewRenderer()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info := &OrderInfo{
		OrderNumber:   "ord_42",
		CustomerName:  "Ada",
		CustomerEmail: "ada@example.com",
		StoreName:     "SoleShop",
		StoreURL:      "https://soleshop.example",
		OrderDate:     "August 30, 2026",
		Items: []OrderItem{
			{Name: "Runner - Black / 41", Quantity: 2, UnitPrice: "100.00", TotalPrice: "200.00"},
		},
		Subtotal:     "200.00",
		DiscountCode: "SALE10",
		Discount:     "20.00",
		Total:        "180.00",
		PaymentURL:   "https://pay.example/s",
	}

	mail, err := renderer.Render("order_confirmation", info)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if mail.To != "ada@example.com" {
		t.Errorf("unexpected recipient: %s", mail.To)
	}
	if !strings.Contains(mail.Subject, "ord_42") {
		t.Errorf("subject must carry the order number: %s", mail.Subject)
	}
	for _, want := range []string{"Runner - Black / 41", "SALE10", "180.00", "https://pay.example/s"} {
		if !strings.Contains(mail.Text, want) {
			t.Errorf("text body missing %q", want)
		}
		if !strings.Contains(mail.HTML, want) {
			t.Errorf("html body missing %q", want)
		}
	}
}

func TestRenderOmitsDiscountWhenAbsent(t *testing.T) {
	t.Parallel()

	renderer, err := NewRenderer()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mail, err := renderer.Render("order_confirmation", &OrderInfo{
		OrderNumber:   "ord_1",
		CustomerEmail: "a@b.c",
		Total:         "50.00",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(mail.HTML, "Discount (") {
		t.Error("discount row must be omitted without a code")
	}
}
