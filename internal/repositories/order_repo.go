package repositories

import (
	"context"

	"bakehub/internal/models"
)

// OrderFilter narrows order listings. Empty fields match everything.
type OrderFilter struct {
	UserID string
	Status models.OrderStatus
}

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	// Create persists the order, its items and an optional coupon usage atomically.
	Create(ctx context.Context, order *models.Order, usage *models.CouponUsage) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error
	UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus) error
	// ListWithItems loads every order with its items, products and owner.
	ListWithItems(ctx context.Context) ([]models.Order, error)
}
