package repositories

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is wrapped by every repository lookup that matches no row.
var ErrNotFound = errors.New("record not found")

// ErrCouponLimitReached is returned by order creation when recording the
// coupon usage would exceed the coupon's global or per-user limit.
var ErrCouponLimitReached = errors.New("coupon usage limit reached")

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
