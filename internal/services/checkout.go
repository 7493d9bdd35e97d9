package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	"github.com/google/uuid"
	stripe "github.com/stripe/stripe-go/v84"

	"github.com/soleshopapp/soleshop/internal/cache"
	"github.com/soleshopapp/soleshop/internal/catalog"
	"github.com/soleshopapp/soleshop/internal/checkout"
	"github.com/soleshopapp/soleshop/internal/logging"
	"github.com/soleshopapp/soleshop/internal/models"
	"github.com/soleshopapp/soleshop/internal/observability"
	"github.com/soleshopapp/soleshop/internal/session"
)

var (
	ErrUnknownShippingMethod = errors.New("unknown shipping method")
	ErrUnknownPaymentMethod  = errors.New("unknown payment method")
	ErrVariantRequired       = errors.New("a size must be selected for this product")
	ErrLineNotFound          = errors.New("cart line not found")
)

// submissionGuardTTL bounds how long the cross-replica submission marker
// can outlive a crashed submit.
const submissionGuardTTL = 2 * time.Minute

// CheckoutService owns the per-session cart, discount, price check, and
// submission flows. All state lives in the session store; the service is
// stateless apart from the per-session submission guards, which are dropped
// again as soon as no submission is in flight.
type CheckoutService struct {
	sessions    *session.Manager
	products    *ProductService
	validator   checkout.DiscountValidator
	lookup      checkout.ProductLookup
	placer      checkout.OrderPlacer
	orderStore  orderWriter
	payments    PaymentLinker
	cache       cache.Provider
	emailSender OrderEmailSender
	logger      *slog.Logger

	mu         sync.Mutex
	submitters map[string]*checkout.Submitter
}

type orderWriter interface {
	Create(ctx context.Context, order *models.Order) error
	UpdateStripeSession(ctx context.Context, orderID uuid.UUID, checkoutSessionID string) error
}

// PaymentLinker turns a pending order into a hosted payment page.
type PaymentLinker interface {
	CreateCheckoutSession(ctx context.Context, order *models.Order) (*stripe.CheckoutSession, error)
}

func NewCheckoutService(
	sessions *session.Manager,
	products *ProductService,
	validator checkout.DiscountValidator,
	lookup checkout.ProductLookup,
	placer checkout.OrderPlacer,
	orderStore orderWriter,
	payments PaymentLinker,
	cacheProvider cache.Provider,
	emailSender OrderEmailSender,
	logger *slog.Logger,
) *CheckoutService {
	if emailSender == nil {
		emailSender = noopOrderEmailSender{}
	}

	return &CheckoutService{
		sessions:    sessions,
		products:    products,
		validator:   validator,
		lookup:      lookup,
		placer:      placer,
		orderStore:  orderStore,
		payments:    payments,
		cache:       cacheProvider,
		emailSender: emailSender,
		logger:      logger,
		submitters:  make(map[string]*checkout.Submitter),
	}
}

func (s *CheckoutService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

// CartView is the rendered state of one session's cart. The discount amount
// is recomputed from the current subtotal on every build; it is never stored.
type CartView struct {
	Lines                 []checkout.LineItem `json:"lines"`
	Subtotal              float64             `json:"subtotal"`
	DiscountCode          string              `json:"discount_code,omitempty"`
	DiscountPercent       float64             `json:"discount_percent,omitempty"`
	DiscountAmount        float64             `json:"discount_amount"`
	Total                 float64             `json:"total"`
	DiscountRemovedReason string              `json:"discount_removed_reason,omitempty"`
}

func buildView(cart *checkout.Cart, engine *checkout.DiscountEngine) *CartView {
	view := &CartView{
		Lines:    cart.Lines(),
		Subtotal: cart.Subtotal(),
	}
	view.DiscountAmount = engine.Recompute(view.Subtotal)
	view.Total = view.Subtotal - view.DiscountAmount
	if descriptor := engine.Descriptor(); descriptor != nil {
		view.DiscountCode = descriptor.Code
		view.DiscountPercent = descriptor.Percent
	}
	return view
}

func (s *CheckoutService) Cart(ctx context.Context, sessionID string) (*CartView, error) {
	data, ok := s.sessions.Load(ctx, sessionID)
	if !ok {
		return nil, fmt.Errorf("session not found")
	}

	cart := checkout.NewCartFromLines(data.CartLines)
	engine := checkout.NewDiscountEngine(s.validator)
	engine.Restore(data.Discount)
	return buildView(cart, engine), nil
}

type AddItemInput struct {
	ProductID int64
	VariantID int64
	Quantity  int
}

// AddItem puts a product (or one of its variants) into the session's cart.
// An already-present key has its quantity incremented. A cached discount
// code is re-validated against the new item set; if the code no longer
// applies it is dropped and the reason reported on the view.
func (s *CheckoutService) AddItem(ctx context.Context, sessionID string, input AddItemInput) (*CartView, error) {
	data, ok := s.sessions.Load(ctx, sessionID)
	if !ok {
		return nil, fmt.Errorf("session not found")
	}
	revision := data.Revision

	if input.Quantity < 1 {
		input.Quantity = 1
	}

	product, err := s.products.GetProduct(input.ProductID)
	if err != nil {
		return nil, err
	}
	variants, err := s.products.Variants(input.ProductID)
	if err != nil {
		return nil, err
	}

	line := checkout.LineItem{
		ProductID: input.ProductID,
		Name:      product.Name,
		UnitPrice: product.EffectivePrice(),
		Quantity:  input.Quantity,
		Thumbnail: product.Thumbnail,
	}

	var available int
	if !variants.Empty() {
		if input.VariantID == 0 {
			return nil, ErrVariantRequired
		}
		color, entry, ok := variants.Variant(input.VariantID)
		if !ok || entry.Quantity == 0 {
			return nil, checkout.ErrSizeUnavailable
		}
		available = entry.Quantity
		line.VariantID = input.VariantID
		line.Name = fmt.Sprintf("%s - %s / %s", product.Name, color.Name, entry.Size)
	}
	line.Key = checkout.LineKey(line.ProductID, line.VariantID)

	cart := checkout.NewCartFromLines(data.CartLines)
	if available > 0 {
		have := 0
		if existing, ok := cart.Get(line.Key); ok {
			have = existing.Quantity
		}
		if have+input.Quantity > available {
			return nil, &checkout.QuantityLimitError{Available: available}
		}
	}
	if err := cart.Add(line); err != nil {
		return nil, err
	}

	return s.commitCartChange(ctx, sessionID, data, revision, cart)
}

// UpdateQuantity replaces a cart line's quantity, capped by current stock
// for variant lines.
func (s *CheckoutService) UpdateQuantity(ctx context.Context, sessionID, key string, quantity int) (*CartView, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1")
	}

	data, ok := s.sessions.Load(ctx, sessionID)
	if !ok {
		return nil, fmt.Errorf("session not found")
	}
	revision := data.Revision

	cart := checkout.NewCartFromLines(data.CartLines)
	line, ok := cart.Get(key)
	if !ok {
		return nil, ErrLineNotFound
	}

	if line.VariantID != 0 {
		if variants, err := s.products.Variants(line.ProductID); err == nil {
			if _, entry, ok := variants.Variant(line.VariantID); ok && quantity > entry.Quantity {
				return nil, &checkout.QuantityLimitError{Available: entry.Quantity}
			}
		}
	}

	cart.SetQuantity(key, quantity)
	return s.commitCartChange(ctx, sessionID, data, revision, cart)
}

func (s *CheckoutService) RemoveItem(ctx context.Context, sessionID, key string) (*CartView, error) {
	data, ok := s.sessions.Load(ctx, sessionID)
	if !ok {
		return nil, fmt.Errorf("session not found")
	}
	revision := data.Revision

	cart := checkout.NewCartFromLines(data.CartLines)
	if !cart.Remove(key) {
		return nil, ErrLineNotFound
	}

	return s.commitCartChange(ctx, sessionID, data, revision, cart)
}

// commitCartChange re-validates any cached discount against the mutated
// item set and writes the session back. The cart change itself always
// stands; only the discount can be dropped.
func (s *CheckoutService) commitCartChange(ctx context.Context, sessionID string, data *session.Data, revision int64, cart *checkout.Cart) (*CartView, error) {
	logger := s.loggerFromContext(ctx)

	engine := checkout.NewDiscountEngine(s.validator)
	engine.Restore(data.Discount)

	var droppedReason string
	if engine.Code() != "" {
		if cart.Len() == 0 {
			engine.Remove()
		} else if _, err := engine.OnItemSetChanged(ctx, cart.Subtotal(), cart.ProductIDs()); err != nil {
			droppedReason = err.Error()
			logger.Info("discount dropped after cart change", "session_id", sessionID, "reason", droppedReason)
		}
	}

	data.CartLines = cart.Lines()
	data.Discount = engine.State()
	if err := s.sessions.Commit(ctx, sessionID, data, revision); err != nil {
		return nil, err
	}

	view := buildView(cart, engine)
	view.DiscountRemovedReason = droppedReason
	return view, nil
}

// ApplyDiscount validates a code against the current cart and caches the
// returned descriptor in the session. A rejected code clears any previously
// cached descriptor.
func (s *CheckoutService) ApplyDiscount(ctx context.Context, sessionID, code string) (*CartView, error) {
	data, ok := s.sessions.Load(ctx, sessionID)
	if !ok {
		return nil, fmt.Errorf("session not found")
	}
	revision := data.Revision

	cart := checkout.NewCartFromLines(data.CartLines)
	engine := checkout.NewDiscountEngine(s.validator)
	engine.Restore(data.Discount)

	meter := observability.MeterFromContext(ctx)
	_, applyErr := engine.Apply(ctx, code, cart.Subtotal(), cart.ProductIDs())
	if applyErr != nil {
		meter.Count("checkout.discount.rejected", 1)
	} else {
		meter.Count("checkout.discount.applied", 1)
	}

	// Persist the outcome either way so a rejected code does not leave a
	// stale descriptor in the session.
	data.Discount = engine.State()
	if err := s.sessions.Commit(ctx, sessionID, data, revision); err != nil {
		return nil, err
	}
	if applyErr != nil {
		return nil, applyErr
	}

	return buildView(cart, engine), nil
}

func (s *CheckoutService) RemoveDiscount(ctx context.Context, sessionID string) (*CartView, error) {
	data, ok := s.sessions.Load(ctx, sessionID)
	if !ok {
		return nil, fmt.Errorf("session not found")
	}
	revision := data.Revision

	cart := checkout.NewCartFromLines(data.CartLines)
	engine := checkout.NewDiscountEngine(s.validator)
	engine.Restore(data.Discount)
	engine.Remove()

	data.Discount = engine.State()
	if err := s.sessions.Commit(ctx, sessionID, data, revision); err != nil {
		return nil, err
	}

	return buildView(cart, engine), nil
}

// PriceCheckResult pairs the drift outcome with the cart view after any
// repricing has been applied.
type PriceCheckResult struct {
	Drift *checkout.DriftResult `json:"drift"`
	Cart  *CartView             `json:"cart"`
}

// CheckPrices re-fetches the authoritative price of every product in the
// cart. Changed lines are repriced in place and the discount amount follows
// the new subtotal. An unresolvable result leaves the cart untouched.
func (s *CheckoutService) CheckPrices(ctx context.Context, sessionID string) (*PriceCheckResult, error) {
	span := sentry.StartSpan(
		ctx,
		"service.checkout.check_prices",
		sentry.WithOpName("service.checkout"),
		sentry.WithDescription("CheckPrices"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	data, ok := s.sessions.Load(ctx, sessionID)
	if !ok {
		return nil, fmt.Errorf("session not found")
	}
	revision := data.Revision

	cart := checkout.NewCartFromLines(data.CartLines)
	engine := checkout.NewDiscountEngine(s.validator)
	engine.Restore(data.Discount)

	checker := checkout.NewDriftChecker(s.lookup)
	result, err := checker.Check(ctx, cart.Lines())
	if err != nil {
		return nil, err
	}

	meter := observability.MeterFromContext(ctx)
	meter.Count("checkout.price_check", 1, sentry.WithAttributes(
		attribute.String("status", string(result.Status)),
	))

	if result.Status == checkout.DriftChanged {
		for _, change := range result.Changes {
			cart.Reprice(change.Key, change.NewPrice)
		}
		data.CartLines = cart.Lines()
		if err := s.sessions.Commit(ctx, sessionID, data, revision); err != nil {
			return nil, err
		}
	}

	return &PriceCheckResult{Drift: result, Cart: buildView(cart, engine)}, nil
}

type SubmitInput struct {
	ShippingID      int64
	PaymentMethodID int64
	CustomerEmail   string
	CustomerName    string
}

// PriceDriftError aborts a submission whose cart no longer matches the
// authoritative prices. Changed prices are already written back to the cart
// when this is returned; the shopper reviews the diff and submits again.
type PriceDriftError struct {
	Drift *checkout.DriftResult
}

func (e *PriceDriftError) Error() string {
	if e.Drift != nil && e.Drift.Status == checkout.DriftUnresolvable {
		return "cart prices could not be verified"
	}
	return "cart prices changed since they were last shown"
}

// OrderResult is the outcome of a completed submission.
type OrderResult struct {
	OrderID       string  `json:"order_id"`
	RemoteOrderID string  `json:"remote_order_id"`
	PaymentURL    string  `json:"payment_url,omitempty"`
	Total         float64 `json:"total"`
}

// Submit places the order with the shop service, persists a local record,
// and empties the cart. At most one submission per session is in flight at
// a time; concurrent attempts fail with ErrSubmissionInFlight.
func (s *CheckoutService) Submit(ctx context.Context, sessionID string, input SubmitInput) (*OrderResult, error) {
	span := sentry.StartSpan(
		ctx,
		"service.checkout.submit",
		sentry.WithOpName("service.checkout"),
		sentry.WithDescription("Submit"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)
	meter.Count("checkout.submit.received", 1)
	recordFailure := func(reason string) {
		meter.Count("checkout.submit.failed", 1, sentry.WithAttributes(
			attribute.String("reason", reason),
		))
	}

	data, ok := s.sessions.Load(ctx, sessionID)
	if !ok {
		recordFailure("session_not_found")
		return nil, fmt.Errorf("session not found")
	}
	revision := data.Revision

	shipping, err := s.shippingMethod(input.ShippingID)
	if err != nil {
		recordFailure("unknown_shipping")
		return nil, err
	}
	payment, err := s.paymentMethod(input.PaymentMethodID)
	if err != nil {
		recordFailure("unknown_payment")
		return nil, err
	}

	cart := checkout.NewCartFromLines(data.CartLines)
	engine := checkout.NewDiscountEngine(s.validator)
	engine.Restore(data.Discount)

	// Prices are re-verified on every attempt, including retries made after
	// a drift was already confirmed: they can move again in between.
	drift, err := checkout.NewDriftChecker(s.lookup).Check(ctx, cart.Lines())
	if err != nil {
		recordFailure("drift_check_failed")
		return nil, err
	}
	switch drift.Status {
	case checkout.DriftChanged:
		for _, change := range drift.Changes {
			cart.Reprice(change.Key, change.NewPrice)
		}
		data.CartLines = cart.Lines()
		if err := s.sessions.Commit(ctx, sessionID, data, revision); err != nil {
			return nil, err
		}
		recordFailure("price_drift")
		return nil, &PriceDriftError{Drift: drift}
	case checkout.DriftUnresolvable:
		recordFailure("price_unresolvable")
		return nil, &PriceDriftError{Drift: drift}
	}

	if s.cache != nil {
		claimed, err := s.cache.SetNX(ctx, cache.SubmissionKey(sessionID), "1", submissionGuardTTL)
		if err != nil {
			logger.Warn("failed to set submission guard", "session_id", sessionID, "error", err)
		} else if !claimed {
			recordFailure("already_in_flight")
			return nil, checkout.ErrSubmissionInFlight
		}
		defer func() {
			if err := s.cache.Delete(ctx, cache.SubmissionKey(sessionID)); err != nil {
				logger.Warn("failed to clear submission guard", "session_id", sessionID, "error", err)
			}
		}()
	}

	draft := checkout.OrderDraft{
		Lines:           cart.Lines(),
		ShippingID:      shipping.ID,
		PaymentMethodID: payment.ID,
		DiscountCode:    engine.Code(),
	}

	submitter := s.submitterFor(sessionID)
	defer s.releaseSubmitter(sessionID)
	receipt, err := submitter.Submit(ctx, draft)
	if err != nil {
		recordFailure("placement_failed")
		return nil, err
	}
	meter.Count("checkout.submit.placed", 1, sentry.WithAttributes(
		attribute.String("payment_type", payment.Type),
	))

	subtotal := cart.Subtotal()
	discountAmount := engine.Recompute(subtotal)
	order := &models.Order{
		SessionID:       sessionID,
		RemoteOrderID:   receipt.OrderID,
		ShippingID:      shipping.ID,
		PaymentMethodID: payment.ID,
		DiscountCode:    engine.Code(),
		Subtotal:        subtotal,
		DiscountAmount:  discountAmount,
		Total:           subtotal - discountAmount + shipping.Fee,
		CustomerEmail:   input.CustomerEmail,
		CustomerName:    input.CustomerName,
		Status:          models.StatusPendingPayment,
		Lines:           orderLinesFromCart(cart.Lines()),
	}
	if descriptor := engine.Descriptor(); descriptor != nil {
		order.DiscountPercent = descriptor.Percent
	}

	if err := s.orderStore.Create(ctx, order); err != nil {
		// The remote order exists; losing the local record must not fail
		// the checkout.
		logger.Error("failed to persist order record", "session_id", sessionID, "remote_order_id", receipt.OrderID, "error", err)
	}

	paymentURL := receipt.PaymentURL
	if paymentURL == "" && payment.Type == catalog.PaymentTypeGateway && s.payments != nil {
		sess, err := s.payments.CreateCheckoutSession(ctx, order)
		if err != nil {
			logger.Error("failed to create payment session", "order_id", order.ID, "error", err)
		} else {
			paymentURL = sess.URL
			if err := s.orderStore.UpdateStripeSession(ctx, order.ID, sess.ID); err != nil {
				logger.Warn("failed to record payment session id", "order_id", order.ID, "error", err)
			}
		}
	}

	if err := s.emailSender.SendOrderConfirmation(ctx, order, paymentURL); err != nil {
		logger.Warn("failed to send confirmation email", "order_id", order.ID, "error", err)
	}

	data.CartLines = nil
	data.Discount = checkout.DiscountState{}
	if err := s.sessions.Commit(ctx, sessionID, data, revision); err != nil {
		// The session moved on while the order was in flight; its newer
		// state wins and this result is not written back.
		logger.Warn("session superseded during submit, skipping cart clear", "session_id", sessionID, "error", err)
	}

	return &OrderResult{
		OrderID:       order.ID.String(),
		RemoteOrderID: receipt.OrderID,
		PaymentURL:    paymentURL,
		Total:         order.Total,
	}, nil
}

func (s *CheckoutService) submitterFor(sessionID string) *checkout.Submitter {
	s.mu.Lock()
	defer s.mu.Unlock()
	submitter, ok := s.submitters[sessionID]
	if !ok {
		submitter = checkout.NewSubmitter(s.placer)
		s.submitters[sessionID] = submitter
	}
	return submitter
}

// releaseSubmitter evicts the session's guard once no submission is in
// flight, so expired sessions do not accumulate in the map.
func (s *CheckoutService) releaseSubmitter(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if submitter, ok := s.submitters[sessionID]; ok && !submitter.InFlight() {
		delete(s.submitters, sessionID)
	}
}

func (s *CheckoutService) shippingMethod(id int64) (catalog.ShippingMethod, error) {
	for _, method := range s.products.ShippingMethods() {
		if method.ID == id {
			return method, nil
		}
	}
	return catalog.ShippingMethod{}, fmt.Errorf("%w: %d", ErrUnknownShippingMethod, id)
}

func (s *CheckoutService) paymentMethod(id int64) (catalog.PaymentMethod, error) {
	for _, method := range s.products.PaymentMethods() {
		if method.ID == id {
			return method, nil
		}
	}
	return catalog.PaymentMethod{}, fmt.Errorf("%w: %d", ErrUnknownPaymentMethod, id)
}

func orderLinesFromCart(lines []checkout.LineItem) []models.OrderLine {
	orderLines := make([]models.OrderLine, 0, len(lines))
	for _, line := range lines {
		orderLines = append(orderLines, models.OrderLine{
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			Thumbnail: line.Thumbnail,
		})
	}
	return orderLines
}
