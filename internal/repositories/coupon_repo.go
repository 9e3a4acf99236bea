package repositories

import (
	"context"

	"bakehub/internal/models"
)

// CouponRepository defines the interface for coupon data access.
type CouponRepository interface {
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
	CountUsages(ctx context.Context, couponID string) (int64, error)
	CountUserUsages(ctx context.Context, couponID, userID string) (int64, error)
	Create(ctx context.Context, coupon *models.Coupon) error
}
