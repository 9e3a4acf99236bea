package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"bakehub/internal/models"
	"bakehub/internal/repositories"
	"bakehub/pkg/apperror"

	"github.com/shopspring/decimal"
)

// Reasons a coupon can be rejected for.
const (
	CouponNotFound        = "not_found"
	CouponExpired         = "expired"
	CouponMinOrderNotMet  = "min_order_not_met"
	CouponUsageExceeded   = "usage_exceeded"
	couponRejectionDetail = "reason"
)

var hundred = decimal.NewFromInt(100)

// CouponResult is an accepted coupon with the discount it grants.
type CouponResult struct {
	Coupon   *models.Coupon  `json:"-"`
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
}

// CouponService evaluates coupons against an order total.
type CouponService struct {
	repo repositories.CouponRepository
	now  func() time.Time
}

func NewCouponService(repo repositories.CouponRepository, now func() time.Time) *CouponService {
	if now == nil {
		now = time.Now
	}
	return &CouponService{repo: repo, now: now}
}

// Validate checks code for userID against total. Rejections are returned as
// typed errors whose details carry the reason.
func (s *CouponService) Validate(ctx context.Context, code string, total decimal.Decimal, userID string) (*CouponResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperror.Validation("coupon code is required")
	}

	coupon, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, rejectCoupon(apperror.CodeNotFound, CouponNotFound, "coupon not found")
		}
		return nil, apperror.Internal(err, "failed to load coupon")
	}
	if !coupon.IsActive {
		return nil, rejectCoupon(apperror.CodeNotFound, CouponNotFound, "coupon not found")
	}

	today := civilDate(s.now())
	if today.Before(civilDate(coupon.StartDate)) || today.After(civilDate(coupon.EndDate)) {
		return nil, rejectCoupon(apperror.CodeCouponRejected, CouponExpired, "coupon is not valid today")
	}
	if total.LessThan(coupon.MinOrderAmount) {
		return nil, rejectCoupon(apperror.CodeCouponRejected, CouponMinOrderNotMet,
			"order total is below the coupon minimum of "+coupon.MinOrderAmount.StringFixed(2))
	}

	if coupon.MaxUses != nil {
		used, err := s.repo.CountUsages(ctx, coupon.ID)
		if err != nil {
			return nil, apperror.Internal(err, "failed to count coupon usages")
		}
		if used >= int64(*coupon.MaxUses) {
			return nil, rejectCoupon(apperror.CodeCouponRejected, CouponUsageExceeded, "coupon usage limit reached")
		}
	}
	if coupon.MaxUsesPerUser > 0 && userID != "" {
		used, err := s.repo.CountUserUsages(ctx, coupon.ID, userID)
		if err != nil {
			return nil, apperror.Internal(err, "failed to count coupon usages")
		}
		if used >= int64(coupon.MaxUsesPerUser) {
			return nil, rejectCoupon(apperror.CodeCouponRejected, CouponUsageExceeded, "coupon already used")
		}
	}

	return &CouponResult{
		Coupon:   coupon,
		Code:     coupon.Code,
		Discount: Discount(coupon, total),
	}, nil
}

// Discount computes what coupon takes off total. It never exceeds total.
func Discount(coupon *models.Coupon, total decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch coupon.DiscountType {
	case models.DiscountPercentage:
		discount = total.Mul(coupon.DiscountValue).Div(hundred)
	case models.DiscountFixed:
		discount = coupon.DiscountValue
	default:
		return decimal.Zero
	}
	if discount.GreaterThan(total) {
		discount = total
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	return discount.Round(2)
}

func rejectCoupon(code apperror.Code, reason, message string) error {
	return apperror.New(code, message).WithDetails(map[string]string{couponRejectionDetail: reason})
}

// CouponRejectionReason extracts the rejection reason from err, if any.
func CouponRejectionReason(err error) string {
	typed := apperror.As(err)
	if typed == nil {
		return ""
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		return ""
	}
	return details[couponRejectionDetail]
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
