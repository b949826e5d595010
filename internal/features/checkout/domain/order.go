package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"pixelpanic/internal/core/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the current state of an order.
type OrderStatus string

const (
	// OrderStatusPendingPayment is the state an order is inserted in.
	OrderStatusPendingPayment OrderStatus = "pending_payment"
	// OrderStatusConfirmed indicates payment was captured and the job awaits a technician.
	OrderStatusConfirmed OrderStatus = "confirmed"
	// OrderStatusInProgress indicates the technician has started the job.
	OrderStatusInProgress OrderStatus = "in_progress"
	// OrderStatusCompleted is terminal.
	OrderStatusCompleted OrderStatus = "completed"
	// OrderStatusCancelled is terminal.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// ErrUnknownStatus is returned by ParseOrderStatus for anything outside the closed set.
var ErrUnknownStatus = errors.New("unknown order status")

// ParseOrderStatus decodes a stored status.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(strings.TrimSpace(s)); st {
	case OrderStatusPendingPayment, OrderStatusConfirmed, OrderStatusInProgress,
		OrderStatusCompleted, OrderStatusCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
}

// IsTerminal reports whether no further transition is possible.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// IsActive reports whether the order is still work for a technician.
func (s OrderStatus) IsActive() bool {
	return s == OrderStatusConfirmed || s == OrderStatusInProgress
}

// CanTransitionTo reports whether s may move to next. Transitions only move forward;
// cancellation is allowed from any non-terminal state.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if next == OrderStatusCancelled {
		return true
	}
	switch s {
	case OrderStatusPendingPayment:
		return next == OrderStatusConfirmed
	case OrderStatusConfirmed:
		return next == OrderStatusInProgress
	case OrderStatusInProgress:
		return next == OrderStatusCompleted
	}
	return false
}

// Transition returns an InvalidTransitionError when s cannot move to next.
func (s OrderStatus) Transition(next OrderStatus) error {
	if !s.CanTransitionTo(next) {
		return &apperr.InvalidTransitionError{From: string(s), To: string(next)}
	}
	return nil
}

// Address is the service address captured at checkout.
type Address struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"fullName"`
	Phone    string    `json:"phone"`
	Email    string    `json:"email,omitempty"`
	Line1    string    `json:"line1"`
	Line2    string    `json:"line2,omitempty"`
	City     string    `json:"city"`
	State    string    `json:"state,omitempty"`
	Pincode  string    `json:"pincode"`
}

// OrderItem is a repair line frozen at the price it was ordered at.
type OrderItem struct {
	ID        uuid.UUID       `json:"id"`
	ProductID string          `json:"productId"`
	IssueName string          `json:"issueName"`
	Brand     string          `json:"brand"`
	ModelName string          `json:"modelName"`
	Grade     Grade           `json:"grade"`
	Price     decimal.Decimal `json:"price"`
}

// Customer is the ordering user as shown on the confirmation.
type Customer struct {
	ID          uuid.UUID `json:"id"`
	PhoneNumber string    `json:"phoneNumber"`
	Name        string    `json:"name,omitempty"`
}

// Order is the persisted record of a submitted checkout.
type Order struct {
	ID             uuid.UUID
	OrderNumber    string
	UserID         uuid.UUID
	TechnicianID   *uuid.UUID
	CouponID       *uuid.UUID
	Status         OrderStatus
	ServiceMode    ServiceMode
	TimeSlot       string
	SubtotalAmount decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalAmount    decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Address  *Address
	Customer *Customer
	Items    []OrderItem
}

// CustomerInfo is the contact and address block of a checkout submission.
type CustomerInfo struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Email    string `json:"email,omitempty"`
	Line1    string `json:"line1"`
	Line2    string `json:"line2,omitempty"`
	City     string `json:"city"`
	State    string `json:"state,omitempty"`
	Pincode  string `json:"pincode"`
}

var pincodePattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)

// Validate checks the fields required to dispatch a technician.
func (c CustomerInfo) Validate() error {
	switch {
	case strings.TrimSpace(c.FullName) == "":
		return apperr.Invalid("customerInfo.fullName", "name is required")
	case strings.TrimSpace(c.Phone) == "":
		return apperr.Invalid("customerInfo.phone", "phone is required")
	case strings.TrimSpace(c.Line1) == "":
		return apperr.Invalid("customerInfo.line1", "address is required")
	case strings.TrimSpace(c.City) == "":
		return apperr.Invalid("customerInfo.city", "city is required")
	case !pincodePattern.MatchString(strings.TrimSpace(c.Pincode)):
		return apperr.Invalid("customerInfo.pincode", "enter a valid 6 digit pincode")
	}
	return nil
}

// ServiceDetails carries the mode and, for doorstep visits, the time slot.
type ServiceDetails struct {
	ServiceMode ServiceMode `json:"serviceMode"`
	TimeSlot    string      `json:"timeSlot,omitempty"`
}

// Validate enforces that doorstep has a slot and no other mode is unset.
func (d ServiceDetails) Validate() error {
	switch d.ServiceMode {
	case ServiceModeDoorstep:
		if strings.TrimSpace(d.TimeSlot) == "" {
			return apperr.Invalid("serviceDetails.timeSlot", "pick a time slot for a doorstep visit")
		}
	case ServiceModeCarryIn:
	default:
		return apperr.Invalid("serviceDetails.serviceMode", "select a service mode")
	}
	return nil
}

// Normalized drops a time slot sent along with carry-in.
func (d ServiceDetails) Normalized() ServiceDetails {
	if d.ServiceMode != ServiceModeDoorstep {
		d.TimeSlot = ""
	}
	d.TimeSlot = strings.TrimSpace(d.TimeSlot)
	return d
}

// OrderLine is a cart line as submitted to create-order.
type OrderLine struct {
	ProductID string          `json:"productId"`
	IssueName string          `json:"issueName"`
	Brand     string          `json:"brand"`
	Model     string          `json:"model"`
	Grade     string          `json:"grade"`
	Price     decimal.Decimal `json:"price"`
}

// CreateOrderRequest is the body of POST /api/checkout/create-order.
type CreateOrderRequest struct {
	Items          []OrderLine    `json:"items"`
	CustomerInfo   CustomerInfo   `json:"customerInfo"`
	ServiceDetails ServiceDetails `json:"serviceDetails"`
	CouponCode     string         `json:"couponCode,omitempty"`
}

// Lines validates the submitted lines and converts them to order items.
func (r CreateOrderRequest) Lines() ([]OrderItem, error) {
	if len(r.Items) == 0 {
		return nil, apperr.Invalid("items", "cart is empty")
	}

	items := make([]OrderItem, 0, len(r.Items))
	for i, line := range r.Items {
		grade, err := ParseGrade(line.Grade)
		if err != nil {
			return nil, apperr.Invalid(fmt.Sprintf("items[%d].grade", i), err.Error())
		}
		if !line.Price.IsPositive() {
			return nil, apperr.Invalid(fmt.Sprintf("items[%d].price", i), "price must be positive")
		}
		if strings.TrimSpace(line.ProductID) == "" {
			return nil, apperr.Invalid(fmt.Sprintf("items[%d].productId", i), "product is required")
		}
		items = append(items, OrderItem{
			ProductID: line.ProductID,
			IssueName: line.IssueName,
			Brand:     line.Brand,
			ModelName: line.Model,
			Grade:     grade,
			Price:     line.Price.Round(2),
		})
	}
	return items, nil
}

// LinesFromCart converts cart items to submission lines.
func LinesFromCart(items []CartItem) []OrderLine {
	lines := make([]OrderLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, OrderLine{
			ProductID: item.ProductID,
			IssueName: item.IssueName,
			Brand:     item.Brand,
			Model:     item.Model,
			Grade:     string(item.Grade),
			Price:     item.Price,
		})
	}
	return lines
}

// FormatINR renders an amount as rupees with two decimals, e.g. ₹500.00.
func FormatINR(amount decimal.Decimal) string {
	return "₹" + amount.StringFixed(2)
}
