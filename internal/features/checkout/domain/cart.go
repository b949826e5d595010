package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Grade is the part quality tier of a repair line.
type Grade string

const (
	GradeOriginal    Grade = "original"
	GradeAftermarket Grade = "aftermarket"
)

// ErrUnknownGrade is returned by ParseGrade for anything outside the closed set.
var ErrUnknownGrade = errors.New("unknown grade")

// ParseGrade decodes a grade. "oem" is accepted as an alias of original.
func ParseGrade(s string) (Grade, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "original", "oem":
		return GradeOriginal, nil
	case "aftermarket":
		return GradeAftermarket, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownGrade, s)
	}
}

// ServiceMode is how the device reaches the technician.
type ServiceMode string

const (
	ServiceModeUnset    ServiceMode = ""
	ServiceModeDoorstep ServiceMode = "doorstep"
	ServiceModeCarryIn  ServiceMode = "carry_in"
)

// ErrUnknownServiceMode is returned by ParseServiceMode for anything outside the closed set.
var ErrUnknownServiceMode = errors.New("unknown service mode")

// ParseServiceMode decodes a service mode. The empty string is unset.
func ParseServiceMode(s string) (ServiceMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return ServiceModeUnset, nil
	case "doorstep":
		return ServiceModeDoorstep, nil
	case "carry_in", "carryin", "carry-in":
		return ServiceModeCarryIn, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownServiceMode, s)
	}
}

// CartItem is one repair line in the cart. LineID is assigned by the store and is distinct
// from ProductID so the same product can be added once per device.
type CartItem struct {
	LineID    string          `json:"id"`
	ProductID string          `json:"productId"`
	IssueName string          `json:"issueName"`
	Brand     string          `json:"brand"`
	Model     string          `json:"model"`
	Grade     Grade           `json:"grade"`
	Price     decimal.Decimal `json:"price"`
}

// AppliedCoupon is a coupon the server accepted for the current cart.
type AppliedCoupon struct {
	CouponID       uuid.UUID       `json:"couponId"`
	Code           string          `json:"code"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
}

// State is the whole cart and checkout selection of one session.
type State struct {
	Items       []CartItem
	ServiceMode ServiceMode
	TimeSlot    string
	Coupon      *AppliedCoupon
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := s
	out.Items = append([]CartItem(nil), s.Items...)
	if s.Coupon != nil {
		c := *s.Coupon
		out.Coupon = &c
	}
	return out
}

// Total is the sum of the current item prices.
func (s State) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.Items {
		total = total.Add(item.Price)
	}
	return total
}

// DiscountedTotal is Total minus the applied coupon, never below zero.
func (s State) DiscountedTotal() decimal.Decimal {
	total := s.Total()
	if s.Coupon == nil {
		return total
	}
	discounted := total.Sub(s.Coupon.DiscountAmount)
	if discounted.IsNegative() {
		return decimal.Zero
	}
	return discounted
}

// Action is a cart mutation understood by Reduce.
type Action interface {
	isAction()
}

// AddItem appends Item. The store fills Item.LineID when it is empty.
type AddItem struct{ Item CartItem }

// RemoveItem drops the line with LineID.
type RemoveItem struct{ LineID string }

// UpdateGrade switches a line's grade and price together.
type UpdateGrade struct {
	LineID string
	Grade  Grade
	Price  decimal.Decimal
}

// SetServiceMode selects a mode and always clears the time slot.
type SetServiceMode struct{ Mode ServiceMode }

// SetTimeSlot picks a doorstep visit window. Ignored for any other mode.
type SetTimeSlot struct{ Slot string }

// ApplyCoupon records a coupon accepted by the server.
type ApplyCoupon struct{ Coupon AppliedCoupon }

// RemoveCoupon drops the applied coupon.
type RemoveCoupon struct{}

// Clear resets items, mode, slot and coupon together.
type Clear struct{}

func (AddItem) isAction()        {}
func (RemoveItem) isAction()     {}
func (UpdateGrade) isAction()    {}
func (SetServiceMode) isAction() {}
func (SetTimeSlot) isAction()    {}
func (ApplyCoupon) isAction()    {}
func (RemoveCoupon) isAction()   {}
func (Clear) isAction()          {}

// Reduce applies a to s and returns the next state. s is never modified.
func Reduce(s State, a Action) State {
	next := s.Clone()

	switch a := a.(type) {
	case AddItem:
		next.Items = append(next.Items, a.Item)
	case RemoveItem:
		items := next.Items[:0]
		for _, item := range next.Items {
			if item.LineID != a.LineID {
				items = append(items, item)
			}
		}
		next.Items = items
	case UpdateGrade:
		for i := range next.Items {
			if next.Items[i].LineID == a.LineID {
				next.Items[i].Grade = a.Grade
				next.Items[i].Price = a.Price
			}
		}
	case SetServiceMode:
		next.ServiceMode = a.Mode
		next.TimeSlot = ""
	case SetTimeSlot:
		if next.ServiceMode == ServiceModeDoorstep {
			next.TimeSlot = strings.TrimSpace(a.Slot)
		}
	case ApplyCoupon:
		c := a.Coupon
		next.Coupon = &c
	case RemoveCoupon:
		next.Coupon = nil
	case Clear:
		next = State{}
	}

	return next
}
