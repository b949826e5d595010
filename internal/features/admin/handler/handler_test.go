package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"pixelpanic/internal/core/apperr"
	"pixelpanic/internal/features/admin/service"
	authdomain "pixelpanic/internal/features/auth/domain"
	"pixelpanic/internal/features/auth/middleware"
	checkout "pixelpanic/internal/features/checkout/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAdminService struct {
	mock.Mock
}

func (m *MockAdminService) ListOrders(ctx context.Context, q service.ListQuery) ([]checkout.Order, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]checkout.Order), args.Error(1)
}

func (m *MockAdminService) AssignTechnician(ctx context.Context, orderID, technicianID uuid.UUID) error {
	return m.Called(ctx, orderID, technicianID).Error(0)
}

func (m *MockAdminService) Cancel(ctx context.Context, adminID, orderID uuid.UUID, reason string) error {
	return m.Called(ctx, adminID, orderID, reason).Error(0)
}

type fixedResolver struct{ user *authdomain.User }

func (r fixedResolver) Resolve(context.Context, string) (*authdomain.User, error) {
	return r.user, nil
}

var admin = &authdomain.User{ID: uuid.New(), PhoneNumber: "+919800000001", Role: authdomain.RoleAdmin}

func setupApp(svc *MockAdminService, user *authdomain.User) *fiber.App {
	app := fiber.New()
	app.Use(middleware.Session(fixedResolver{user: user}, "pp_session"))
	app.Use(middleware.AdminGate([]string{"/admin"}, "/admin/sign-in"))
	mountRoutes(app, svc)
	return app
}

// mountRoutes registers the admin routes behind the API role guard, as cmd/api does.
func mountRoutes(app *fiber.App, svc *MockAdminService) {
	h := NewAdminHandler(svc)
	g := app.Group("/admin", middleware.RequireAPIRole(authdomain.RoleAdmin))
	g.Get("/orders", h.ListOrders)
	g.Post("/orders/:id/assign", h.AssignTechnician)
	g.Post("/orders/:id/cancel", h.Cancel)
}

func postJSON(target string, body interface{}) *http.Request {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestAdminHandler_Gate(t *testing.T) {
	svc := new(MockAdminService)
	app := setupApp(svc, &authdomain.User{ID: uuid.New(), Role: authdomain.RoleTechnician})

	resp, err := app.Test(httptest.NewRequest("GET", "/admin/orders?status=confirmed", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/admin/sign-in", loc.Path)
	assert.Equal(t, "/admin/orders?status=confirmed", loc.Query().Get("callbackUrl"))
	svc.AssertNotCalled(t, "ListOrders", mock.Anything, mock.Anything)
}

func TestAdminHandler_GateIgnoresPathCase(t *testing.T) {
	customer := &authdomain.User{ID: uuid.New(), Role: authdomain.RoleCustomer}

	for _, target := range []string{"/ADMIN/orders", "/Admin/orders", "/admin/ORDERS"} {
		t.Run(target, func(t *testing.T) {
			svc := new(MockAdminService)
			app := setupApp(svc, customer)

			resp, err := app.Test(httptest.NewRequest("GET", target, nil))
			require.NoError(t, err)
			assert.Equal(t, http.StatusFound, resp.StatusCode)
			loc, err := url.Parse(resp.Header.Get("Location"))
			require.NoError(t, err)
			assert.Equal(t, "/admin/sign-in", loc.Path)
			svc.AssertNotCalled(t, "ListOrders", mock.Anything, mock.Anything)
		})
	}
}

func TestAdminHandler_RoleGuardWithoutGate(t *testing.T) {
	tests := []struct {
		name       string
		user       *authdomain.User
		wantStatus int
	}{
		{name: "anonymous", user: nil, wantStatus: http.StatusUnauthorized},
		{name: "customer", user: &authdomain.User{ID: uuid.New(), Role: authdomain.RoleCustomer}, wantStatus: http.StatusForbidden},
		{name: "technician", user: &authdomain.User{ID: uuid.New(), Role: authdomain.RoleTechnician}, wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAdminService)
			app := fiber.New()
			app.Use(middleware.Session(fixedResolver{user: tt.user}, "pp_session"))
			mountRoutes(app, svc)

			resp, err := app.Test(httptest.NewRequest("GET", "/ADMIN/orders", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			svc.AssertNotCalled(t, "ListOrders", mock.Anything, mock.Anything)
		})
	}
}

func TestAdminHandler_ListOrders(t *testing.T) {
	svc := new(MockAdminService)
	app := setupApp(svc, admin)
	svc.On("ListOrders", mock.Anything, service.ListQuery{Statuses: []string{"confirmed", "in_progress"}, Limit: 10, Offset: 5}).
		Return([]checkout.Order{{
			ID:          uuid.New(),
			OrderNumber: "PP-2025-0007",
			Status:      checkout.OrderStatusConfirmed,
			TotalAmount: decimal.NewFromInt(1299),
		}}, nil).Once()

	resp, err := app.Test(httptest.NewRequest("GET", "/admin/orders?status=confirmed,in_progress&limit=10&offset=5", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body OrdersResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "1299.00", body.Data[0].TotalAmount)
}

func TestAdminHandler_AssignTechnician(t *testing.T) {
	orderID := uuid.New()
	techID := uuid.New()

	tests := []struct {
		name       string
		body       AssignRequest
		err        error
		call       bool
		wantStatus int
	}{
		{name: "Assigned", body: AssignRequest{TechnicianID: techID.String()}, call: true, wantStatus: http.StatusOK},
		{name: "BadTechnicianID", body: AssignRequest{TechnicianID: "nope"}, wantStatus: http.StatusBadRequest},
		{name: "NotTechnician", body: AssignRequest{TechnicianID: techID.String()}, err: service.ErrNotTechnician, call: true, wantStatus: http.StatusBadRequest},
		{
			name:       "NotConfirmed",
			body:       AssignRequest{TechnicianID: techID.String()},
			err:        &apperr.InvalidTransitionError{From: "pending_payment", To: "assigned"},
			call:       true,
			wantStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAdminService)
			app := setupApp(svc, admin)
			if tt.call {
				svc.On("AssignTechnician", mock.Anything, orderID, techID).Return(tt.err).Once()
			}

			resp, err := app.Test(postJSON("/admin/orders/"+orderID.String()+"/assign", tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			svc.AssertExpectations(t)
		})
	}
}

func TestAdminHandler_Cancel(t *testing.T) {
	orderID := uuid.New()
	svc := new(MockAdminService)
	app := setupApp(svc, admin)
	svc.On("Cancel", mock.Anything, admin.ID, orderID, "").Return(nil).Once()

	resp, err := app.Test(httptest.NewRequest("POST", "/admin/orders/"+orderID.String()+"/cancel", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	svc.On("Cancel", mock.Anything, admin.ID, orderID, "duplicate").Return(service.ErrOrderNotFound).Once()
	resp, err = app.Test(postJSON("/admin/orders/"+orderID.String()+"/cancel", CancelRequest{Reason: "duplicate"}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
