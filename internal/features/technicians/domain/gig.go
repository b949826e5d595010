package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"pixelpanic/internal/core/apperr"
	checkout "pixelpanic/internal/features/checkout/domain"
)

const (
	// CompletionCodeLength is the number of digits sent to the customer when a gig starts.
	CompletionCodeLength = 4
	// MaxPhotos caps the completion photos of one gig.
	MaxPhotos = 5
)

var (
	// ErrCodeMismatch is returned when the customer code is wrong.
	ErrCodeMismatch = errors.New("incorrect completion code")
	// ErrCodeExpired is returned when no completion code is pending for the gig.
	ErrCodeExpired = errors.New("completion code expired, ask for a new one")
	// ErrTooManyAttempts is returned once the completion code is burnt.
	ErrTooManyAttempts = errors.New("too many incorrect codes, ask for a new one")
)

var otpPattern = regexp.MustCompile(`^[0-9]{4,6}$`)

// Filter selects which gigs a technician lists.
type Filter string

const (
	FilterActive Filter = "active"
	FilterAll    Filter = "all"
)

// ParseFilter defaults to active.
func ParseFilter(s string) (Filter, error) {
	switch Filter(strings.ToLower(strings.TrimSpace(s))) {
	case "", FilterActive:
		return FilterActive, nil
	case FilterAll:
		return FilterAll, nil
	default:
		return "", apperr.Invalid("status", "status must be active or all")
	}
}

// Statuses returns the order statuses the filter covers, nil meaning all.
func (f Filter) Statuses() []checkout.OrderStatus {
	if f == FilterActive {
		return []checkout.OrderStatus{checkout.OrderStatusConfirmed, checkout.OrderStatusInProgress}
	}
	return nil
}

// Gig is a technician's view of an assigned order.
type Gig struct {
	ID          string                   `json:"id"`
	OrderNumber string                   `json:"orderNumber"`
	Status      checkout.OrderStatus     `json:"status"`
	ServiceMode checkout.ServiceMode     `json:"serviceMode"`
	TimeSlot    string                   `json:"timeSlot,omitempty"`
	Address     *checkout.Address        `json:"address,omitempty"`
	Customer    *checkout.Customer       `json:"customer,omitempty"`
	Items       []checkout.OrderItemView `json:"items"`
	TotalAmount string                   `json:"totalAmount"`
	CreatedAt   time.Time                `json:"createdAt"`
}

// NewGig projects an order for its technician.
func NewGig(o *checkout.Order) Gig {
	view := checkout.NewOrderView(o)
	return Gig{
		ID:          view.ID,
		OrderNumber: view.OrderNumber,
		Status:      view.Status,
		ServiceMode: view.ServiceMode,
		TimeSlot:    view.TimeSlot,
		Address:     view.Address,
		Customer:    view.Customer,
		Items:       view.Items,
		TotalAmount: view.TotalAmount,
		CreatedAt:   view.CreatedAt,
	}
}

// CompletionRequest is the body of POST /api/technicians/gigs/:id/complete.
type CompletionRequest struct {
	OTP    string   `json:"otp"`
	Notes  string   `json:"notes,omitempty"`
	Photos []string `json:"photos"`
}

// Validate rejects a submission without a well formed code or with too many photos.
func (r CompletionRequest) Validate() error {
	if !otpPattern.MatchString(strings.TrimSpace(r.OTP)) {
		return apperr.Invalid("otp", "enter the code the customer received")
	}
	if len(r.Photos) > MaxPhotos {
		return apperr.Invalid("photos", "at most 5 photos can be attached")
	}
	for _, p := range r.Photos {
		if !strings.HasPrefix(p, "/uploads/") {
			return apperr.Invalid("photos", "photos must be uploaded first")
		}
	}
	return nil
}
