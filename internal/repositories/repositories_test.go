package repositories_test

import (
	"context"
	"testing"
	"time"

	"bakehub/internal/models"
	"bakehub/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

type fixture struct {
	users    *repositories.GORMUserRepository
	products *repositories.GORMProductRepository
	orders   *repositories.GORMOrderRepository
	address  *repositories.GORMAddressRepository
	coupons  *repositories.GORMCouponRepository
}

func newFixture(t *testing.T) *fixture {
	db := setupTestDB(t)
	return &fixture{
		users:    repositories.NewGORMUserRepository(db),
		products: repositories.NewGORMProductRepository(db),
		orders:   repositories.NewGORMOrderRepository(db),
		address:  repositories.NewGORMAddressRepository(db),
		coupons:  repositories.NewGORMCouponRepository(db),
	}
}

func (f *fixture) customer(t *testing.T, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, Name: "Asha", Role: models.RoleCustomer, PasswordHash: "x"}
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}

func (f *fixture) cake(t *testing.T) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:     "Black Forest",
		IsActive: true,
		Variants: []models.ProductVariant{{Label: "1 kg", Price: decimal.NewFromInt(900)}},
	}
	require.NoError(t, f.products.Create(context.Background(), product))
	return product
}

func newOrder(userID string, product *models.Product, qty int) *models.Order {
	variantID := product.Variants[0].ID
	price := product.Variants[0].Price
	subtotal := price.Mul(decimal.NewFromInt(int64(qty)))
	return &models.Order{
		UserID:       userID,
		DeliveryType: models.DeliveryPickup,
		DeliveryDate: time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC),
		DeliverySlot: "10:00-12:00",
		TotalAmount:  subtotal,
		FinalAmount:  subtotal,
		Items: []models.OrderItem{{
			ProductID:        product.ID,
			ProductVariantID: &variantID,
			Quantity:         qty,
			UnitPrice:        price,
			Subtotal:         subtotal,
			CustomCakeConfig: models.JSONMap{"shape": "heart"},
		}},
	}
}

func TestOrderCreateAndGetByID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.customer(t, "asha@example.com")
	product := f.cake(t)

	order := newOrder(user.ID, product, 2)
	require.NoError(t, f.orders.Create(ctx, order, nil))
	require.NotEmpty(t, order.ID)
	require.Len(t, order.Items, 1)
	assert.Equal(t, order.ID, order.Items[0].OrderID)

	got, err := f.orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Equal(t, models.PaymentPending, got.PaymentStatus)
	require.NotNil(t, got.User)
	assert.Equal(t, "asha@example.com", got.User.Email)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Black Forest", got.Items[0].Product.Name)
	assert.Equal(t, "1 kg", got.Items[0].ProductVariant.Label)
	assert.Equal(t, "heart", got.Items[0].CustomCakeConfig["shape"])
	assert.True(t, decimal.NewFromInt(1800).Equal(got.TotalAmount))
}

func TestOrderCreateRollsBackOnItemFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.customer(t, "asha@example.com")
	product := f.cake(t)

	order := newOrder(user.ID, product, 1)
	order.Items[0].ProductID = uuid.NewString()
	order.Items[0].ProductVariantID = nil
	require.Error(t, f.orders.Create(ctx, order, nil))

	orders, err := f.orders.List(ctx, repositories.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestOrderCreateRecordsCouponUsage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.customer(t, "asha@example.com")
	product := f.cake(t)

	coupon := &models.Coupon{
		Code:          " bake10 ",
		DiscountType:  models.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(10),
		StartDate:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
		IsActive:      true,
	}
	require.NoError(t, f.coupons.Create(ctx, coupon))
	assert.Equal(t, "BAKE10", coupon.Code)

	order := newOrder(user.ID, product, 1)
	usage := &models.CouponUsage{CouponID: coupon.ID, UserID: user.ID}
	require.NoError(t, f.orders.Create(ctx, order, usage))
	assert.Equal(t, order.ID, usage.OrderID)

	total, err := f.coupons.CountUsages(ctx, coupon.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	mine, err := f.coupons.CountUserUsages(ctx, coupon.ID, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, mine)

	theirs, err := f.coupons.CountUserUsages(ctx, coupon.ID, uuid.NewString())
	require.NoError(t, err)
	assert.Zero(t, theirs)

	found, err := f.coupons.GetByCode(ctx, "bake10")
	require.NoError(t, err)
	assert.Equal(t, coupon.ID, found.ID)

	_, err = f.coupons.GetByCode(ctx, "NOPE")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestOrderListFiltersAndStatusUpdates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	asha := f.customer(t, "asha@example.com")
	ravi := f.customer(t, "ravi@example.com")
	product := f.cake(t)

	first := newOrder(asha.ID, product, 1)
	require.NoError(t, f.orders.Create(ctx, first, nil))
	second := newOrder(ravi.ID, product, 3)
	require.NoError(t, f.orders.Create(ctx, second, nil))

	require.NoError(t, f.orders.UpdateStatus(ctx, second.ID, models.StatusConfirmed))
	require.NoError(t, f.orders.UpdatePaymentStatus(ctx, second.ID, models.PaymentPaid))

	mine, err := f.orders.List(ctx, repositories.OrderFilter{UserID: asha.ID})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, first.ID, mine[0].ID)

	confirmed, err := f.orders.List(ctx, repositories.OrderFilter{Status: models.StatusConfirmed})
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, second.ID, confirmed[0].ID)
	assert.Equal(t, models.PaymentPaid, confirmed[0].PaymentStatus)

	all, err := f.orders.ListWithItems(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	err = f.orders.UpdateStatus(ctx, uuid.NewString(), models.StatusReady)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	_, err = f.orders.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestAddressDefaultAndDeleteDetachesOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.customer(t, "asha@example.com")
	product := f.cake(t)

	home := &models.Address{UserID: user.ID, Line1: "12 MG Road", City: "Kochi", State: "Kerala", Pincode: "682001", IsDefault: true}
	require.NoError(t, f.address.Create(ctx, home))
	work := &models.Address{UserID: user.ID, Line1: "Infopark", City: "Kochi", State: "Kerala", Pincode: "682042", IsDefault: true}
	require.NoError(t, f.address.Create(ctx, work))

	list, err := f.address.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, work.ID, list[0].ID)
	assert.True(t, list[0].IsDefault)
	assert.False(t, list[1].IsDefault)

	order := newOrder(user.ID, product, 1)
	order.DeliveryType = models.DeliveryDelivery
	order.DeliveryAddressID = &home.ID
	require.NoError(t, f.orders.Create(ctx, order, nil))

	require.NoError(t, f.address.Delete(ctx, home.ID))
	assert.ErrorIs(t, f.address.Delete(ctx, home.ID), repositories.ErrNotFound)

	got, err := f.orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Nil(t, got.DeliveryAddressID)
	assert.Nil(t, got.DeliveryAddress)
}

func TestUserLookupsAndPushToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.customer(t, "  Asha@Example.com ")
	baker := &models.User{Email: "baker@example.com", Name: "Baker", Role: models.RoleBaker, PasswordHash: "x"}
	require.NoError(t, f.users.Create(ctx, baker))

	found, err := f.users.GetByEmail(ctx, "ASHA@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	assert.Error(t, f.users.Create(ctx, &models.User{Email: "asha@example.com", Name: "Dup", PasswordHash: "x"}))

	bakers, err := f.users.ListByRole(ctx, models.RoleBaker)
	require.NoError(t, err)
	require.Len(t, bakers, 1)
	assert.Equal(t, baker.ID, bakers[0].ID)

	require.NoError(t, f.users.UpdatePushToken(ctx, baker.ID, "ExponentPushToken[abc]"))
	got, err := f.users.GetByID(ctx, baker.ID)
	require.NoError(t, err)
	assert.Equal(t, "ExponentPushToken[abc]", got.PushToken)

	assert.ErrorIs(t, f.users.UpdatePushToken(ctx, uuid.NewString(), "t"), repositories.ErrNotFound)
}

func TestOrderCreateEnforcesCouponLimitsInTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	asha := f.customer(t, "asha@example.com")
	ravi := f.customer(t, "ravi@example.com")
	product := f.cake(t)

	maxUses := 2
	coupon := &models.Coupon{
		Code:           "TWICE",
		DiscountType:   models.DiscountFixed,
		DiscountValue:  decimal.NewFromInt(50),
		StartDate:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
		MaxUses:        &maxUses,
		MaxUsesPerUser: 1,
		IsActive:       true,
	}
	require.NoError(t, f.coupons.Create(ctx, coupon))

	redeem := func(user *models.User) error {
		return f.orders.Create(ctx, newOrder(user.ID, product, 1), &models.CouponUsage{CouponID: coupon.ID, UserID: user.ID})
	}

	require.NoError(t, redeem(asha))
	assert.ErrorIs(t, redeem(asha), repositories.ErrCouponLimitReached)
	require.NoError(t, redeem(ravi))

	third := f.customer(t, "meera@example.com")
	assert.ErrorIs(t, redeem(third), repositories.ErrCouponLimitReached)

	orders, err := f.orders.List(ctx, repositories.OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, orders, 2)

	used, err := f.coupons.CountUsages(ctx, coupon.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, used)
}
