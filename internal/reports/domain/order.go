package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus captures the lifecycle of an order in the storefront.
type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusPreparing OrderStatus = "Preparing"
	StatusShipped   OrderStatus = "Shipped"
	StatusDelivered OrderStatus = "Delivered"
	StatusCancelled OrderStatus = "Cancelled"
)

// Statuses lists the status enumeration in lifecycle order.
var Statuses = []OrderStatus{
	StatusPending,
	StatusPreparing,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

// IsKnown reports whether the status belongs to the fixed enumeration.
func (s OrderStatus) IsKnown() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// ParseStatus matches a status label case-insensitively against the enumeration.
func ParseStatus(value string) (OrderStatus, error) {
	trimmed := strings.TrimSpace(value)
	for _, known := range Statuses {
		if strings.EqualFold(trimmed, string(known)) {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown order status %q", value)
}

// Customer holds the buyer fields shown in the report. Any of them may be absent.
type Customer struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Address  *string `json:"address,omitempty"`
}

// Product is the catalogue entry a line item refers to.
type Product struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// LineItem is one product row of an order. Product is nil when the product was deleted.
type LineItem struct {
	Product   *Product        `json:"product,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Variant   string          `json:"variant,omitempty"`
}

// HasVariant reports whether a variant (color) was selected for the item.
func (li LineItem) HasVariant() bool {
	return strings.TrimSpace(li.Variant) != ""
}

// Order is a placed purchase as read from an order source.
type Order struct {
	ID          string          `json:"id"`
	Customer    *Customer       `json:"customer,omitempty"`
	Items       []LineItem      `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      OrderStatus     `json:"status"`
	OrderedAt   time.Time       `json:"ordered_at"`
}

// ShortID returns the last six characters of the identifier.
func (o Order) ShortID() string {
	runes := []rune(o.ID)
	if len(runes) <= 6 {
		return o.ID
	}
	return string(runes[len(runes)-6:])
}

// Username returns the customer username, or nil when unknown.
func (o Order) Username() *string {
	if o.Customer == nil {
		return nil
	}
	return o.Customer.Username
}

// Phone returns the customer phone, or nil when unknown.
func (o Order) Phone() *string {
	if o.Customer == nil {
		return nil
	}
	return o.Customer.Phone
}

// Address returns the customer address, or nil when unknown.
func (o Order) Address() *string {
	if o.Customer == nil {
		return nil
	}
	return o.Customer.Address
}
