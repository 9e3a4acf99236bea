package repositories

import (
	"context"
	"fmt"
	"strings"

	"bakehub/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMCouponRepository is a GORM implementation of CouponRepository.
type GORMCouponRepository struct {
	db *gorm.DB
}

func NewGORMCouponRepository(db *gorm.DB) *GORMCouponRepository {
	return &GORMCouponRepository{db: db}
}

// GetByCode looks a coupon up by its code, case-insensitively.
func (r *GORMCouponRepository) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	var coupon models.Coupon
	if err := r.db.WithContext(ctx).First(&coupon, "code = ?", code).Error; err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("coupon %s not found: %w", code, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get coupon %s: %w", code, err)
	}
	return &coupon, nil
}

func (r *GORMCouponRepository) CountUsages(ctx context.Context, couponID string) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.CouponUsage{}).Where("coupon_id = ?", couponID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count coupon usages: %w", err)
	}
	return n, nil
}

func (r *GORMCouponRepository) CountUserUsages(ctx context.Context, couponID, userID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.CouponUsage{}).
		Where("coupon_id = ? AND user_id = ?", couponID, userID).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count coupon usages for user: %w", err)
	}
	return n, nil
}

// Create stores a coupon; codes are kept upper-case.
func (r *GORMCouponRepository) Create(ctx context.Context, coupon *models.Coupon) error {
	if coupon.ID == "" {
		coupon.ID = uuid.New().String()
	}
	coupon.Code = strings.ToUpper(strings.TrimSpace(coupon.Code))
	if err := r.db.WithContext(ctx).Create(coupon).Error; err != nil {
		return fmt.Errorf("failed to create coupon: %w", err)
	}
	return nil
}
