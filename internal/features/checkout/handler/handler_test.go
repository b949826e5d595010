package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"pixelpanic/internal/core/apperr"
	authdomain "pixelpanic/internal/features/auth/domain"
	"pixelpanic/internal/features/auth/middleware"
	"pixelpanic/internal/features/checkout/domain"
	"pixelpanic/internal/features/checkout/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCheckoutService is a mock implementation of CheckoutService.
type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) CreateOrder(ctx context.Context, customerID uuid.UUID, req domain.CreateOrderRequest) (*domain.Order, error) {
	args := m.Called(ctx, customerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockCheckoutService) GetOrder(ctx context.Context, viewer service.Viewer, id uuid.UUID) (*domain.Order, error) {
	args := m.Called(ctx, viewer, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockCheckoutService) ApplyCoupon(ctx context.Context, code string, subtotal decimal.Decimal) (*domain.AppliedCoupon, error) {
	args := m.Called(ctx, code, subtotal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AppliedCoupon), args.Error(1)
}

type fixedResolver struct{ user *authdomain.User }

func (r fixedResolver) Resolve(context.Context, string) (*authdomain.User, error) {
	return r.user, nil
}

func setupApp(svc *MockCheckoutService, user *authdomain.User) *fiber.App {
	app := fiber.New()
	app.Use(middleware.Session(fixedResolver{user: user}, "pp_session"))
	h := NewCheckoutHandler(svc)
	app.Post("/api/checkout/create-order", h.CreateOrder)
	app.Post("/api/checkout/apply-coupon", h.ApplyCoupon)
	app.Get("/api/orders/:id", h.GetOrder)
	return app
}

func postJSON(target string, body interface{}) *http.Request {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

var customer = &authdomain.User{ID: uuid.New(), PhoneNumber: "+919876543210", Role: authdomain.RoleCustomer}

func TestCheckoutHandler_CreateOrder(t *testing.T) {
	body := map[string]any{
		"items": []map[string]any{{"productId": "p1", "grade": "oem", "price": 500}},
		"customerInfo": map[string]any{
			"fullName": "Asha Rao", "phone": "+919876543210", "line1": "12 MG Road", "city": "Bengaluru", "pincode": "560001",
		},
		"serviceDetails": map[string]any{"serviceMode": "doorstep", "timeSlot": "2PM - 4PM"},
	}

	t.Run("Success", func(t *testing.T) {
		svc := new(MockCheckoutService)
		app := setupApp(svc, customer)
		orderID := uuid.New()

		svc.On("CreateOrder", mock.Anything, customer.ID, mock.MatchedBy(func(r domain.CreateOrderRequest) bool {
			return len(r.Items) == 1 && r.Items[0].Price.Equal(decimal.NewFromInt(500)) &&
				r.ServiceDetails.ServiceMode == domain.ServiceModeDoorstep
		})).Return(&domain.Order{ID: orderID, OrderNumber: "PP-2025-0001"}, nil).Once()

		resp, err := app.Test(postJSON("/api/checkout/create-order", body))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var out CreateOrderResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.Equal(t, orderID.String(), out.Data.OrderID)
		svc.AssertExpectations(t)
	})

	t.Run("Anonymous", func(t *testing.T) {
		svc := new(MockCheckoutService)
		app := setupApp(svc, nil)

		resp, err := app.Test(postJSON("/api/checkout/create-order", body))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		svc.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ValidationMessageVerbatim", func(t *testing.T) {
		svc := new(MockCheckoutService)
		app := setupApp(svc, customer)
		svc.On("CreateOrder", mock.Anything, customer.ID, mock.Anything).
			Return(nil, apperr.Invalid("serviceDetails.timeSlot", "pick a time slot for a doorstep visit")).Once()

		resp, err := app.Test(postJSON("/api/checkout/create-order", body))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var out ErrorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.Equal(t, "pick a time slot for a doorstep visit", out.Message)
	})

	t.Run("PaymentFailed", func(t *testing.T) {
		svc := new(MockCheckoutService)
		app := setupApp(svc, customer)
		svc.On("CreateOrder", mock.Anything, customer.ID, mock.Anything).Return(nil, service.ErrPaymentFailed).Once()

		resp, err := app.Test(postJSON("/api/checkout/create-order", body))
		require.NoError(t, err)
		assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	})
}

func TestCheckoutHandler_GetOrder(t *testing.T) {
	t.Run("RendersAmounts", func(t *testing.T) {
		svc := new(MockCheckoutService)
		app := setupApp(svc, customer)
		id := uuid.New()

		svc.On("GetOrder", mock.Anything, service.Viewer{UserID: customer.ID}, id).Return(&domain.Order{
			ID:          id,
			OrderNumber: "PP-2025-0042",
			Status:      domain.OrderStatusConfirmed,
			ServiceMode: domain.ServiceModeDoorstep,
			TimeSlot:    "2PM - 4PM",
			TotalAmount: decimal.NewFromInt(500),
			Items: []domain.OrderItem{
				{ID: uuid.New(), ProductID: "p1", ModelName: "iPhone 13", Grade: domain.GradeOriginal, Price: decimal.NewFromInt(500)},
			},
		}, nil).Once()

		resp, err := app.Test(httptest.NewRequest("GET", "/api/orders/"+id.String(), nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var out OrderResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.Equal(t, "500.00", out.Data.TotalAmount)
		assert.Equal(t, "₹500.00", out.Data.DisplayTotal)
		require.Len(t, out.Data.Items, 1)
		assert.Equal(t, "500.00", out.Data.Items[0].Price)
	})

	t.Run("NotFound", func(t *testing.T) {
		svc := new(MockCheckoutService)
		app := setupApp(svc, customer)
		id := uuid.New()
		svc.On("GetOrder", mock.Anything, mock.Anything, id).Return(nil, service.ErrOrderNotFound).Once()

		resp, err := app.Test(httptest.NewRequest("GET", "/api/orders/"+id.String(), nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("MalformedID", func(t *testing.T) {
		svc := new(MockCheckoutService)
		app := setupApp(svc, customer)

		resp, err := app.Test(httptest.NewRequest("GET", "/api/orders/42x", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestCheckoutHandler_ApplyCoupon(t *testing.T) {
	svc := new(MockCheckoutService)
	app := setupApp(svc, customer)
	couponID := uuid.New()

	svc.On("ApplyCoupon", mock.Anything, "FIX50", mock.Anything).
		Return(&domain.AppliedCoupon{CouponID: couponID, Code: "FIX50", DiscountAmount: decimal.NewFromInt(50)}, nil).Once()
	svc.On("ApplyCoupon", mock.Anything, "BIG", mock.Anything).Return(nil, domain.ErrCouponMinimum).Once()

	resp, err := app.Test(postJSON("/api/checkout/apply-coupon", ApplyCouponRequest{Code: "FIX50", Subtotal: decimal.NewFromInt(500)}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out ApplyCouponResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, couponID, out.Data.CouponID)

	resp, err = app.Test(postJSON("/api/checkout/apply-coupon", ApplyCouponRequest{Code: "BIG", Subtotal: decimal.NewFromInt(500)}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
