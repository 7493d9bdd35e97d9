package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrderStore struct {
	pool *pgxpool.Pool
}

var ErrInvalidStatusTransition = errors.New("invalid order status transition")

func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

// Create persists an order and its lines in one transaction. The order's ID,
// line IDs, and CreatedAt are filled in on success.
func (s *OrderStore) Create(ctx context.Context, order *Order) error {
	if order == nil {
		return fmt.Errorf("order is required")
	}
	if len(order.Lines) == 0 {
		return fmt.Errorf("order must have at least one line")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	order.ID = uuid.New()

	var createdAt pgtype.Timestamptz
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (
			id, session_id, remote_order_id, shipping_id, payment_method_id,
			discount_code, discount_percent, subtotal, discount_amount, total,
			stripe_checkout_session_id, customer_email, customer_name, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at
	`,
		order.ID, order.SessionID, order.RemoteOrderID, order.ShippingID, order.PaymentMethodID,
		textOrNull(order.DiscountCode), order.DiscountPercent, order.Subtotal, order.DiscountAmount, order.Total,
		textOrNull(order.StripeCheckoutSessionID), textOrNull(order.CustomerEmail), textOrNull(order.CustomerName),
		string(order.Status),
	).Scan(&createdAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	order.CreatedAt = createdAt.Time

	for i := range order.Lines {
		line := &order.Lines[i]
		line.ID = uuid.New()
		line.OrderID = order.ID
		_, err = tx.Exec(ctx, `
			INSERT INTO order_lines (id, order_id, product_id, variant_id, name, unit_price, quantity, thumbnail)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, line.ID, line.OrderID, line.ProductID, line.VariantID, line.Name, line.UnitPrice, line.Quantity, line.Thumbnail)
		if err != nil {
			return fmt.Errorf("failed to insert order line: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}
	return nil
}

func (s *OrderStore) GetByID(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	row := s.pool.QueryRow(ctx, selectOrder+" WHERE id = $1", orderID)
	order, err := scanOrder(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadLines(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderStore) GetByRemoteOrderID(ctx context.Context, remoteOrderID string) (*Order, error) {
	row := s.pool.QueryRow(ctx, selectOrder+" WHERE remote_order_id = $1", remoteOrderID)
	order, err := scanOrder(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadLines(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderStore) GetByStripeSessionID(ctx context.Context, checkoutSessionID string) (*Order, error) {
	row := s.pool.QueryRow(ctx, selectOrder+" WHERE stripe_checkout_session_id = $1", checkoutSessionID)
	order, err := scanOrder(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadLines(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// GetBySession returns the session's orders, newest first.
func (s *OrderStore) GetBySession(ctx context.Context, sessionID string, limit int) ([]*Order, error) {
	rows, err := s.pool.Query(ctx, selectOrder+" WHERE session_id = $1 ORDER BY created_at DESC LIMIT $2", sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, order := range orders {
		if err := s.loadLines(ctx, order); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (s *OrderStore) UpdateStripeSession(ctx context.Context, orderID uuid.UUID, checkoutSessionID string) error {
	_, err := s.pool.Exec(ctx, `UPDATE orders SET stripe_checkout_session_id = $1 WHERE id = $2`, checkoutSessionID, orderID)
	return err
}

func (s *OrderStore) MarkPaid(ctx context.Context, orderID uuid.UUID, customerEmail, customerName string) error {
	cmdTag, err := s.pool.Exec(ctx, `
		UPDATE orders
		SET status = $1, customer_email = $2, customer_name = $3, paid_at = NOW()
		WHERE id = $4 AND status IN ('pending_payment', 'payment_failed', 'paid')
	`, StatusPaid, customerEmail, customerName, orderID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: expected pending_payment/payment_failed/paid", ErrInvalidStatusTransition)
	}
	return nil
}

func (s *OrderStore) MarkFailed(ctx context.Context, orderID uuid.UUID) error {
	cmdTag, err := s.pool.Exec(ctx, `
		UPDATE orders
		SET status = $1
		WHERE id = $2 AND status IN ('pending_payment', 'payment_failed')
	`, StatusPaymentFailed, orderID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: expected pending_payment/payment_failed", ErrInvalidStatusTransition)
	}
	return nil
}

func (s *OrderStore) MarkExpired(ctx context.Context, orderID uuid.UUID) error {
	cmdTag, err := s.pool.Exec(ctx, `
		UPDATE orders
		SET status = $1
		WHERE id = $2 AND status = 'pending_payment'
	`, StatusExpired, orderID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: expected pending_payment", ErrInvalidStatusTransition)
	}
	return nil
}

func (s *OrderStore) MarkShipped(ctx context.Context, orderID uuid.UUID) error {
	cmdTag, err := s.pool.Exec(ctx, `
		UPDATE orders
		SET status = $1, shipped_at = NOW()
		WHERE id = $2 AND status = 'paid'
	`, StatusShipped, orderID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: expected paid", ErrInvalidStatusTransition)
	}
	return nil
}

func (s *OrderStore) MarkDelivered(ctx context.Context, orderID uuid.UUID) error {
	cmdTag, err := s.pool.Exec(ctx, `
		UPDATE orders
		SET status = $1, delivered_at = NOW()
		WHERE id = $2 AND status = 'shipped'
	`, StatusDelivered, orderID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: expected shipped", ErrInvalidStatusTransition)
	}
	return nil
}

func (s *OrderStore) MarkRefunded(ctx context.Context, orderID uuid.UUID) error {
	cmdTag, err := s.pool.Exec(ctx, `
		UPDATE orders
		SET status = $1
		WHERE id = $2 AND status IN ('paid', 'shipped', 'delivered')
	`, StatusRefunded, orderID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: expected paid/shipped/delivered", ErrInvalidStatusTransition)
	}
	return nil
}

const selectOrder = `
	SELECT id, session_id, remote_order_id, shipping_id, payment_method_id,
	       discount_code, discount_percent, subtotal, discount_amount, total,
	       stripe_checkout_session_id, customer_email, customer_name, status,
	       created_at, paid_at, shipped_at, delivered_at
	FROM orders
`

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		order             Order
		discountCode      pgtype.Text
		stripeSessionID   pgtype.Text
		customerEmail     pgtype.Text
		customerName      pgtype.Text
		status            string
		createdAt, paidAt pgtype.Timestamptz
		shippedAt         pgtype.Timestamptz
		deliveredAt       pgtype.Timestamptz
	)

	err := row.Scan(
		&order.ID, &order.SessionID, &order.RemoteOrderID, &order.ShippingID, &order.PaymentMethodID,
		&discountCode, &order.DiscountPercent, &order.Subtotal, &order.DiscountAmount, &order.Total,
		&stripeSessionID, &customerEmail, &customerName, &status,
		&createdAt, &paidAt, &shippedAt, &deliveredAt,
	)
	if err != nil {
		return nil, err
	}

	order.Status = OrderStatus(status)
	order.CreatedAt = createdAt.Time
	if discountCode.Valid {
		order.DiscountCode = discountCode.String
	}
	if stripeSessionID.Valid {
		order.StripeCheckoutSessionID = stripeSessionID.String
	}
	if customerEmail.Valid {
		order.CustomerEmail = customerEmail.String
	}
	if customerName.Valid {
		order.CustomerName = customerName.String
	}
	if paidAt.Valid {
		order.PaidAt = paidAt.Time
	}
	if shippedAt.Valid {
		order.ShippedAt = shippedAt.Time
	}
	if deliveredAt.Valid {
		order.DeliveredAt = deliveredAt.Time
	}

	return &order, nil
}

func (s *OrderStore) loadLines(ctx context.Context, order *Order) error {
	if order == nil {
		return nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, order_id, product_id, variant_id, name, unit_price, quantity, thumbnail
		FROM order_lines
		WHERE order_id = $1
		ORDER BY id
	`, order.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	order.Lines = order.Lines[:0]
	for rows.Next() {
		var line OrderLine
		if err := rows.Scan(&line.ID, &line.OrderID, &line.ProductID, &line.VariantID, &line.Name, &line.UnitPrice, &line.Quantity, &line.Thumbnail); err != nil {
			return err
		}
		order.Lines = append(order.Lines, line)
	}
	return rows.Err()
}

func textOrNull(value string) pgtype.Text {
	return pgtype.Text{String: value, Valid: value != ""}
}
