package repositories

import (
	"context"
	"fmt"

	"bakehub/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

// Create inserts the order first, then its items and the coupon usage, all
// inside one transaction. Any failure rolls the whole order back. With a
// usage, the coupon limits are counted again under a lock on the coupon row
// and ErrCouponLimitReached aborts the order.
func (r *GORMOrderRepository) Create(ctx context.Context, order *models.Order, usage *models.CouponUsage) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	items := order.Items
	order.Items = nil

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if usage != nil {
			if err := checkCouponLimits(tx, usage); err != nil {
				return err
			}
		}
		if err := tx.Omit("User", "DeliveryAddress").Create(order).Error; err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		for i := range items {
			if items[i].ID == "" {
				items[i].ID = uuid.New().String()
			}
			items[i].OrderID = order.ID
			if err := tx.Omit("Product", "ProductVariant").Create(&items[i]).Error; err != nil {
				return fmt.Errorf("insert order item %d: %w", i, err)
			}
		}
		if usage != nil {
			if usage.ID == "" {
				usage.ID = uuid.New().String()
			}
			usage.OrderID = order.ID
			if err := tx.Create(usage).Error; err != nil {
				return fmt.Errorf("insert coupon usage: %w", err)
			}
		}
		return nil
	})
	order.Items = items
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// checkCouponLimits counts existing usages inside tx. On postgres the coupon
// row is locked FOR UPDATE so concurrent redemptions queue behind each other;
// sqlite serializes writers on its own.
func checkCouponLimits(tx *gorm.DB, usage *models.CouponUsage) error {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var coupon models.Coupon
	if err := q.First(&coupon, "id = ?", usage.CouponID).Error; err != nil {
		if isNotFound(err) {
			return fmt.Errorf("coupon %s not found: %w", usage.CouponID, ErrNotFound)
		}
		return fmt.Errorf("lock coupon %s: %w", usage.CouponID, err)
	}

	if coupon.MaxUses != nil {
		var used int64
		if err := tx.Model(&models.CouponUsage{}).Where("coupon_id = ?", coupon.ID).Count(&used).Error; err != nil {
			return fmt.Errorf("count coupon usages: %w", err)
		}
		if used >= int64(*coupon.MaxUses) {
			return fmt.Errorf("coupon %s: %w", coupon.Code, ErrCouponLimitReached)
		}
	}
	if coupon.MaxUsesPerUser > 0 {
		var used int64
		err := tx.Model(&models.CouponUsage{}).
			Where("coupon_id = ? AND user_id = ?", coupon.ID, usage.UserID).
			Count(&used).Error
		if err != nil {
			return fmt.Errorf("count coupon usages for user: %w", err)
		}
		if used >= int64(coupon.MaxUsesPerUser) {
			return fmt.Errorf("coupon %s for user %s: %w", coupon.Code, usage.UserID, ErrCouponLimitReached)
		}
	}
	return nil
}

func (r *GORMOrderRepository) withDetails(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("User").
		Preload("DeliveryAddress").
		Preload("Items").
		Preload("Items.Product").
		Preload("Items.ProductVariant")
}

// GetByID retrieves an order with its items, products, variants and address.
func (r *GORMOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := r.withDetails(ctx).First(&order, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("order with ID %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// List returns orders matching filter, newest first.
func (r *GORMOrderRepository) List(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	q := r.withDetails(ctx).Order("created_at DESC")
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	var orders []models.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus overwrites the fulfillment status. Concurrent writers race and
// the last commit wins.
func (r *GORMOrderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error {
	return r.updateColumn(ctx, id, "status", status)
}

// UpdatePaymentStatus overwrites the payment status.
func (r *GORMOrderRepository) UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus) error {
	return r.updateColumn(ctx, id, "payment_status", status)
}

func (r *GORMOrderRepository) updateColumn(ctx context.Context, id, column string, value any) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return fmt.Errorf("failed to update %s for order %s: %w", column, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order with ID %s not found for %s update: %w", id, column, ErrNotFound)
	}
	return nil
}

// ListWithItems loads all orders oldest first for on-demand aggregation.
func (r *GORMOrderRepository) ListWithItems(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Items").
		Preload("Items.Product").
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load orders for analytics: %w", err)
	}
	return orders, nil
}
