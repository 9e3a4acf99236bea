package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiscountType selects how Coupon.DiscountValue is applied.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Coupon is a redeemable discount code.
type Coupon struct {
	ID             string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Code           string          `json:"code" gorm:"uniqueIndex;type:varchar(50);not null"`
	DiscountType   DiscountType    `json:"discount_type" gorm:"type:varchar(20);not null"`
	DiscountValue  decimal.Decimal `json:"discount_value" gorm:"type:numeric(10,2);not null"`
	MinOrderAmount decimal.Decimal `json:"min_order_amount" gorm:"type:numeric(10,2);not null;default:0"`
	StartDate      time.Time       `json:"start_date" gorm:"type:date;not null"`
	EndDate        time.Time       `json:"end_date" gorm:"type:date;not null"`
	MaxUses        *int            `json:"max_uses"`
	MaxUsesPerUser int             `json:"max_uses_per_user" gorm:"not null;default:1"`
	IsActive       bool            `json:"is_active" gorm:"not null"`
}

// CouponUsage records one redemption of a coupon on an order.
type CouponUsage struct {
	ID       string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CouponID string    `json:"coupon_id" gorm:"type:varchar(36);index;not null"`
	UserID   string    `json:"user_id" gorm:"type:varchar(36);index;not null"`
	OrderID  string    `json:"order_id" gorm:"type:varchar(36);index;not null"`
	UsedAt   time.Time `json:"used_at" gorm:"autoCreateTime"`
}

// AllModels lists every persisted model in migration order.
func AllModels() []any {
	return []any{
		&User{},
		&Address{},
		&Product{},
		&ProductVariant{},
		&ProductImage{},
		&CustomCakeOption{},
		&Order{},
		&OrderItem{},
		&Coupon{},
		&CouponUsage{},
	}
}
