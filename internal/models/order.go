package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfillment lifecycle of an order.
type OrderStatus string

const (
	StatusPending        OrderStatus = "pending"
	StatusConfirmed      OrderStatus = "confirmed"
	StatusInKitchen      OrderStatus = "in_kitchen"
	StatusReady          OrderStatus = "ready"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusCompleted      OrderStatus = "completed"
	StatusCancelled      OrderStatus = "cancelled"
)

var orderStatuses = []OrderStatus{
	StatusPending,
	StatusConfirmed,
	StatusInKitchen,
	StatusReady,
	StatusOutForDelivery,
	StatusCompleted,
	StatusCancelled,
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range orderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

// IsTerminal reports whether no further fulfillment happens after s.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// NotifiesCustomer reports whether reaching s sends the customer an update.
func (s OrderStatus) NotifiesCustomer() bool {
	switch s {
	case StatusConfirmed, StatusCancelled, StatusOutForDelivery, StatusCompleted:
		return true
	}
	return false
}

// PaymentStatus is tracked independently of OrderStatus.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

var paymentStatuses = []PaymentStatus{PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range paymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}

// DeliveryType is how the order reaches the customer.
type DeliveryType string

const (
	DeliveryPickup   DeliveryType = "pickup"
	DeliveryDelivery DeliveryType = "delivery"
)

// Order is the root aggregate of a customer purchase.
type Order struct {
	ID                string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID            string          `json:"user_id" gorm:"type:varchar(36);index;not null;<-:create"`
	User              *User           `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Status            OrderStatus     `json:"status" gorm:"type:varchar(20);index;not null;default:pending"`
	PaymentStatus     PaymentStatus   `json:"payment_status" gorm:"type:varchar(20);index;not null;default:pending"`
	DeliveryType      DeliveryType    `json:"delivery_type" gorm:"type:varchar(20);not null"`
	DeliveryAddressID *string         `json:"delivery_address_id" gorm:"type:varchar(36);index"`
	DeliveryAddress   *Address        `json:"delivery_address,omitempty" gorm:"foreignKey:DeliveryAddressID;constraint:OnDelete:SET NULL"`
	DeliveryDate      time.Time       `json:"delivery_date" gorm:"type:date;not null"`
	DeliverySlot      string          `json:"delivery_slot" gorm:"type:varchar(100);not null"`
	TotalAmount       decimal.Decimal `json:"total_amount" gorm:"type:numeric(10,2);not null;default:0"`
	DiscountAmount    decimal.Decimal `json:"discount_amount" gorm:"type:numeric(10,2);not null;default:0"`
	FinalAmount       decimal.Decimal `json:"final_amount" gorm:"type:numeric(10,2);not null;default:0"`
	CouponCode        string          `json:"coupon_code,omitempty" gorm:"type:varchar(50)"`
	PaymentReference  string          `json:"payment_reference" gorm:"type:varchar(255)"`
	Items             []OrderItem     `json:"items" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time       `json:"created_at" gorm:"index;<-:create"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// OrderItem is one frozen order line.
type OrderItem struct {
	ID               string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID          string          `json:"order_id" gorm:"type:varchar(36);index;not null"`
	ProductID        string          `json:"product_id" gorm:"type:varchar(36);index;not null"`
	Product          *Product        `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	ProductVariantID *string         `json:"product_variant_id" gorm:"type:varchar(36);index"`
	ProductVariant   *ProductVariant `json:"product_variant,omitempty" gorm:"foreignKey:ProductVariantID;constraint:OnDelete:SET NULL"`
	Quantity         int             `json:"quantity" gorm:"not null"`
	UnitPrice        decimal.Decimal `json:"unit_price" gorm:"type:numeric(10,2);not null"`
	Subtotal         decimal.Decimal `json:"subtotal" gorm:"type:numeric(10,2);not null"`
	CustomCakeConfig JSONMap         `json:"custom_cake_config,omitempty" gorm:"type:text"`
	MessageOnCake    *string         `json:"message_on_cake,omitempty" gorm:"type:varchar(500)"`
}

// ItemsTotal sums the frozen subtotals of the order lines.
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal)
	}
	return total
}
