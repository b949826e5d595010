package domain

import "time"

// OrderView is the wire shape of an order. Amounts are two-decimal strings.
type OrderView struct {
	ID             string          `json:"id"`
	OrderNumber    string          `json:"orderNumber"`
	Status         OrderStatus     `json:"status"`
	ServiceMode    ServiceMode     `json:"serviceMode"`
	TimeSlot       string          `json:"timeSlot,omitempty"`
	SubtotalAmount string          `json:"subtotalAmount"`
	DiscountAmount string          `json:"discountAmount"`
	TotalAmount    string          `json:"totalAmount"`
	DisplayTotal   string          `json:"displayTotal"`
	TechnicianID   string          `json:"technicianId,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	Address        *Address        `json:"address,omitempty"`
	Customer       *Customer       `json:"user,omitempty"`
	Items          []OrderItemView `json:"items"`
}

// OrderItemView is the wire shape of an order line.
type OrderItemView struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	IssueName string `json:"issueName"`
	Brand     string `json:"brand"`
	ModelName string `json:"modelName"`
	Grade     Grade  `json:"grade"`
	Price     string `json:"price"`
}

// NewOrderView renders o for the API.
func NewOrderView(o *Order) OrderView {
	v := OrderView{
		ID:             o.ID.String(),
		OrderNumber:    o.OrderNumber,
		Status:         o.Status,
		ServiceMode:    o.ServiceMode,
		TimeSlot:       o.TimeSlot,
		SubtotalAmount: o.SubtotalAmount.StringFixed(2),
		DiscountAmount: o.DiscountAmount.StringFixed(2),
		TotalAmount:    o.TotalAmount.StringFixed(2),
		DisplayTotal:   FormatINR(o.TotalAmount),
		CreatedAt:      o.CreatedAt,
		Address:        o.Address,
		Customer:       o.Customer,
		Items:          make([]OrderItemView, 0, len(o.Items)),
	}
	if o.TechnicianID != nil {
		v.TechnicianID = o.TechnicianID.String()
	}
	for _, item := range o.Items {
		v.Items = append(v.Items, OrderItemView{
			ID:        item.ID.String(),
			ProductID: item.ProductID,
			IssueName: item.IssueName,
			Brand:     item.Brand,
			ModelName: item.ModelName,
			Grade:     item.Grade,
			Price:     item.Price.StringFixed(2),
		})
	}
	return v
}
