package portal

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"pixelpanic/internal/features/checkout/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	// ErrNotOnPaymentStep is returned when Submit is called before the last step.
	ErrNotOnPaymentStep = errors.New("complete the previous checkout steps first")
	// ErrSubmitInFlight is returned while an earlier Submit is still waiting for the server.
	ErrSubmitInFlight = errors.New("order is already being placed")
	// ErrMissingOrderID means the server accepted the order but returned no identifier.
	ErrMissingOrderID = errors.New("order was placed but no order id was returned")
)

// CheckoutFlow is one browser's cart plus its checkout steps.
type CheckoutFlow struct {
	client *Client
	store  *domain.Store
	seq    *domain.Sequencer

	mu         sync.Mutex
	submitting bool
}

// NewCheckoutFlow starts with an empty cart on the service mode step.
func NewCheckoutFlow(c *Client) *CheckoutFlow {
	store := domain.NewStore()
	return &CheckoutFlow{
		client: c,
		store:  store,
		seq:    domain.NewSequencer(store),
	}
}

// Store exposes the cart for dispatching actions.
func (f *CheckoutFlow) Store() *domain.Store {
	return f.store
}

// Sequencer exposes step navigation.
func (f *CheckoutFlow) Sequencer() *domain.Sequencer {
	return f.seq
}

// ApplyCoupon asks the server to validate code against the current subtotal and stores it on success.
func (f *CheckoutFlow) ApplyCoupon(ctx context.Context, code string) (domain.State, error) {
	var out struct {
		Data domain.AppliedCoupon `json:"data"`
	}
	err := f.client.do(ctx, http.MethodPost, "/api/checkout/apply-coupon", map[string]any{
		"code":     strings.TrimSpace(code),
		"subtotal": f.store.Total(),
	}, &out)
	if err != nil {
		return f.store.Snapshot(), err
	}
	return f.store.Dispatch(domain.ApplyCoupon{Coupon: out.Data}), nil
}

// Submit places the order. Every local gate is checked before the request. On any
// failure the cart and step are left as they were so the user can retry. On success
// the cart is cleared and the confirmation route is returned.
func (f *CheckoutFlow) Submit(ctx context.Context, info domain.CustomerInfo) (string, error) {
	if f.seq.Current() != domain.StepPayment {
		return "", ErrNotOnPaymentStep
	}
	state := f.store.Snapshot()
	if !domain.CanProceed(state) {
		return "", domain.ErrCannotProceed
	}
	if err := info.Validate(); err != nil {
		return "", err
	}
	f.seq.SetCustomerInfo(info)

	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return "", ErrSubmitInFlight
	}
	f.submitting = true
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.submitting = false
		f.mu.Unlock()
	}()

	req := domain.CreateOrderRequest{
		Items:          domain.LinesFromCart(state.Items),
		CustomerInfo:   info,
		ServiceDetails: domain.ServiceDetails{ServiceMode: state.ServiceMode, TimeSlot: state.TimeSlot},
	}
	if state.Coupon != nil {
		req.CouponCode = state.Coupon.Code
	}

	var out struct {
		Data struct {
			OrderID     string `json:"orderId"`
			OrderNumber string `json:"orderNumber"`
		} `json:"data"`
	}
	if err := f.client.do(ctx, http.MethodPost, "/api/checkout/create-order", req, &out); err != nil {
		return "", err
	}
	if out.Data.OrderID == "" {
		f.client.log.Error("Create order answered without an id")
		return "", ErrMissingOrderID
	}

	f.store.Dispatch(domain.Clear{})
	f.seq.Reset()
	f.client.log.Info("Order placed", zap.String("order_id", out.Data.OrderID))
	return ConfirmationRoute(out.Data.OrderID), nil
}

// ConfirmationRoute is where the browser goes after a successful submit.
func ConfirmationRoute(orderID string) string {
	return "/confirmation?orderId=" + url.QueryEscape(orderID)
}

// Outcome is how a confirmation page renders.
type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeRedirect Outcome = "redirect"
	OutcomeNotFound Outcome = "not_found"
	OutcomeError    Outcome = "error"
)

// Confirmation is derived only from the order the server returned.
type Confirmation struct {
	Outcome      Outcome
	Order        *domain.OrderView
	DisplayTotal string
	RedirectTo   string
	Err          error
}

// LoadConfirmation fetches the order for the confirmation page. A missing id sends the
// visitor to the site root; an unknown order renders not found.
func (c *Client) LoadConfirmation(ctx context.Context, orderID string) Confirmation {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return Confirmation{Outcome: OutcomeRedirect, RedirectTo: "/"}
	}

	var out struct {
		Data domain.OrderView `json:"data"`
	}
	err := c.do(ctx, http.MethodGet, "/api/orders/"+url.PathEscape(orderID), nil, &out)
	switch {
	case IsStatus(err, http.StatusNotFound):
		return Confirmation{Outcome: OutcomeNotFound}
	case IsStatus(err, http.StatusUnauthorized):
		return Confirmation{Outcome: OutcomeRedirect, RedirectTo: "/"}
	case err != nil:
		c.log.Error("Failed to load confirmation", zap.String("order_id", orderID), zap.Error(err))
		return Confirmation{Outcome: OutcomeError, Err: err}
	}

	total, err := decimal.NewFromString(out.Data.TotalAmount)
	if err != nil {
		return Confirmation{Outcome: OutcomeError, Err: &TransportError{Op: "GET /api/orders", Err: err}}
	}

	order := out.Data
	return Confirmation{Outcome: OutcomeOK, Order: &order, DisplayTotal: domain.FormatINR(total)}
}
