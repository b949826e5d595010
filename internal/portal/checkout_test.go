package portal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"

	"pixelpanic/internal/features/checkout/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var validInfo = domain.CustomerInfo{
	FullName: "Asha Rao",
	Phone:    "+919876543210",
	Line1:    "12 MG Road",
	City:     "Bengaluru",
	Pincode:  "560001",
}

// readyForPayment fills the cart and walks the flow to the payment step.
func readyForPayment(t *testing.T, f *CheckoutFlow) {
	t.Helper()
	grade, err := domain.ParseGrade("oem")
	require.NoError(t, err)

	f.Store().Dispatch(domain.AddItem{Item: domain.CartItem{LineID: "p1", ProductID: "p1", Grade: grade, Price: decimal.NewFromInt(500)}})
	f.Store().Dispatch(domain.SetServiceMode{Mode: domain.ServiceModeDoorstep})
	f.Store().Dispatch(domain.SetTimeSlot{Slot: "2PM - 4PM"})
	require.True(t, domain.CanProceed(f.Store().Snapshot()))

	_, err = f.Sequencer().Next()
	require.NoError(t, err)
	f.Sequencer().SetCustomerInfo(validInfo)
	step, err := f.Sequencer().Next()
	require.NoError(t, err)
	require.Equal(t, domain.StepPayment, step)
}

func TestCheckoutFlow_EndToEnd(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/checkout/create-order", func(w http.ResponseWriter, r *http.Request) {
		var req domain.CreateOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, domain.ServiceModeDoorstep, req.ServiceDetails.ServiceMode)
		assert.Equal(t, "2PM - 4PM", req.ServiceDetails.TimeSlot)
		require.Len(t, req.Items, 1)
		assert.Equal(t, "p1", req.Items[0].ProductID)
		assert.Equal(t, "Asha Rao", req.CustomerInfo.FullName)
		_, _ = w.Write([]byte(`{"data":{"orderId":"42"}}`))
	})
	mux.HandleFunc("/api/orders/42", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"id":"42","orderNumber":"PP-2025-0042","status":"confirmed","totalAmount":"500.00","items":[]}}`))
	})
	c, _ := newTestClient(t, mux)

	flow := NewCheckoutFlow(c)
	readyForPayment(t, flow)

	route, err := flow.Submit(context.Background(), validInfo)
	require.NoError(t, err)
	assert.Equal(t, "/confirmation?orderId=42", route)
	assert.Empty(t, flow.Store().Snapshot().Items)
	assert.Equal(t, domain.StepServiceMode, flow.Sequencer().Current())

	conf := c.LoadConfirmation(context.Background(), "42")
	require.Equal(t, OutcomeOK, conf.Outcome)
	assert.Equal(t, "PP-2025-0042", conf.Order.OrderNumber)
	assert.Equal(t, "₹500.00", conf.DisplayTotal)
}

func TestCheckoutFlow_LocalGates(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	t.Run("NotOnPaymentStep", func(t *testing.T) {
		flow := NewCheckoutFlow(c)
		flow.Store().Dispatch(domain.SetServiceMode{Mode: domain.ServiceModeCarryIn})
		_, err := flow.Submit(context.Background(), validInfo)
		assert.ErrorIs(t, err, ErrNotOnPaymentStep)
	})

	t.Run("SlotClearedAfterReachingPayment", func(t *testing.T) {
		flow := NewCheckoutFlow(c)
		readyForPayment(t, flow)
		flow.Store().Dispatch(domain.SetServiceMode{Mode: domain.ServiceModeDoorstep})

		_, err := flow.Submit(context.Background(), validInfo)
		assert.ErrorIs(t, err, domain.ErrCannotProceed)
	})

	t.Run("InvalidCustomerInfo", func(t *testing.T) {
		flow := NewCheckoutFlow(c)
		readyForPayment(t, flow)
		info := validInfo
		info.Pincode = "12"

		_, err := flow.Submit(context.Background(), info)
		assert.Error(t, err)
	})

	assert.Equal(t, int32(0), calls.Load())
}

func TestCheckoutFlow_RemoteRejectionKeepsState(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"message":"Payment failed, please try again","ray_id":"r1"}`))
	}))

	flow := NewCheckoutFlow(c)
	readyForPayment(t, flow)
	before := flow.Store().Snapshot()

	_, err := flow.Submit(context.Background(), validInfo)
	require.Error(t, err)
	assert.Equal(t, "Payment failed, please try again", UserMessage(err))
	assert.Equal(t, before, flow.Store().Snapshot())
	assert.Equal(t, domain.StepPayment, flow.Sequencer().Current())
}

func TestCheckoutFlow_MissingOrderID(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{}}`))
	}))

	flow := NewCheckoutFlow(c)
	readyForPayment(t, flow)

	_, err := flow.Submit(context.Background(), validInfo)
	assert.ErrorIs(t, err, ErrMissingOrderID)
	assert.Len(t, flow.Store().Snapshot().Items, 1)
}

func TestLoadConfirmation_Outcomes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/orders/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"order not found"}`))
	})
	mux.HandleFunc("/api/orders/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	c, _ := newTestClient(t, mux)

	conf := c.LoadConfirmation(context.Background(), "  ")
	assert.Equal(t, OutcomeRedirect, conf.Outcome)
	assert.Equal(t, "/", conf.RedirectTo)

	conf = c.LoadConfirmation(context.Background(), "missing")
	assert.Equal(t, OutcomeNotFound, conf.Outcome)
	assert.Nil(t, conf.Order)

	conf = c.LoadConfirmation(context.Background(), "broken")
	assert.Equal(t, OutcomeError, conf.Outcome)
	var re *RemoteError
	assert.True(t, errors.As(conf.Err, &re))
}

func TestCheckoutFlow_ApplyCoupon(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "FIRST100", body["code"])
		_, _ = w.Write([]byte(`{"data":{"couponId":"0b8f2d52-5c3e-4c1e-9d6d-6a0c3f3c9e11","code":"FIRST100","discountAmount":"100"}}`))
	}))

	flow := NewCheckoutFlow(c)
	flow.Store().Dispatch(domain.AddItem{Item: domain.CartItem{ProductID: "p1", Grade: domain.GradeOriginal, Price: decimal.NewFromInt(500)}})

	state, err := flow.ApplyCoupon(context.Background(), " FIRST100 ")
	require.NoError(t, err)
	require.NotNil(t, state.Coupon)
	assert.True(t, flow.Store().DiscountedTotal().Equal(decimal.NewFromInt(400)))
}
