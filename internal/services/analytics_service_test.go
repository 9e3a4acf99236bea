package services_test

import (
	"context"
	"testing"
	"time"

	"bakehub/internal/models"
	"bakehub/internal/services"
	"bakehub/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paidOrder(id, userID string, final string, created time.Time, items ...models.OrderItem) models.Order {
	return models.Order{
		ID:            id,
		UserID:        userID,
		User:          &models.User{ID: userID, Name: "Customer " + userID, Email: userID + "@example.com"},
		PaymentStatus: models.PaymentPaid,
		FinalAmount:   dec(final),
		CreatedAt:     created,
		Items:         items,
	}
}

func line(productID string, qty int, subtotal string) models.OrderItem {
	return models.OrderItem{
		ProductID: productID,
		Product:   &models.Product{ID: productID, Name: "Product " + productID},
		Quantity:  qty,
		Subtotal:  dec(subtotal),
	}
}

func TestAnalyticsService_RequiresBaker(t *testing.T) {
	repo := new(MockOrderRepository)
	svc := services.NewAnalyticsService(repo, nil)

	_, err := svc.Summary(context.Background(), customer)
	assert.Equal(t, apperror.CodeForbidden, apperror.CodeOf(err))
	repo.AssertNotCalled(t, "ListWithItems")
}

func TestAnalyticsService_EmptyStore(t *testing.T) {
	ctx := context.Background()
	repo := new(MockOrderRepository)
	svc := services.NewAnalyticsService(repo, nil)
	repo.On("ListWithItems", ctx).Return([]models.Order{}, nil)

	summary, err := svc.Summary(ctx, baker)
	require.NoError(t, err)
	assert.Zero(t, summary.TotalOrders)
	assert.True(t, summary.TotalRevenue.IsZero())
	assert.True(t, summary.AvgOrderValue.IsZero())
	assert.Empty(t, summary.SalesTrend)
	assert.Empty(t, summary.TopProducts)
	assert.Empty(t, summary.TopCustomers)
}

func TestAnalyticsService_Summary(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 15, 18, 0, 0, 0, time.UTC)
	repo := new(MockOrderRepository)
	svc := services.NewAnalyticsService(repo, fixedClock(now))

	unpaid := paidOrder("o4", "c3", "5000", now, line("p9", 50, "5000"))
	unpaid.PaymentStatus = models.PaymentPending

	repo.On("ListWithItems", ctx).Return([]models.Order{
		paidOrder("o1", "c1", "900", now.AddDate(0, 0, -10), line("p1", 2, "900")),
		paidOrder("o2", "c2", "300", now.AddDate(0, 0, -6), line("p2", 3, "300")),
		paidOrder("o3", "c1", "450", now.Add(-2*time.Hour), line("p1", 1, "450"), line("p2", 1, "100")),
		unpaid,
	}, nil)

	summary, err := svc.Summary(ctx, baker)
	require.NoError(t, err)

	assert.Equal(t, 4, summary.TotalOrders)
	assert.True(t, dec("1650").Equal(summary.TotalRevenue))
	assert.True(t, dec("412.5").Equal(summary.AvgOrderValue), summary.AvgOrderValue.String())

	require.Len(t, summary.SalesTrend, 2)
	assert.Equal(t, "2025-06-09", summary.SalesTrend[0].Date)
	assert.Equal(t, "2025-06-15", summary.SalesTrend[1].Date)
	assert.True(t, dec("450").Equal(summary.SalesTrend[1].Revenue))

	require.Len(t, summary.TopProducts, 2)
	assert.Equal(t, "p2", summary.TopProducts[0].ProductID)
	assert.Equal(t, 4, summary.TopProducts[0].QuantitySold)
	assert.True(t, dec("400").Equal(summary.TopProducts[0].Revenue))
	assert.Equal(t, "p1", summary.TopProducts[1].ProductID)
	assert.True(t, dec("1350").Equal(summary.TopProducts[1].Revenue))

	require.Len(t, summary.TopCustomers, 2)
	assert.Equal(t, "c1", summary.TopCustomers[0].UserID)
	assert.Equal(t, 2, summary.TopCustomers[0].OrdersPlaced)
	assert.True(t, dec("1350").Equal(summary.TopCustomers[0].TotalSpent))
}

func TestAnalyticsService_TopListsAreCapped(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	repo := new(MockOrderRepository)
	svc := services.NewAnalyticsService(repo, fixedClock(now))

	var orders []models.Order
	for i, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		orders = append(orders, paidOrder("o"+id, "c"+id, "100", now, line("p"+id, i+1, "100")))
	}
	repo.On("ListWithItems", ctx).Return(orders, nil)

	summary, err := svc.Summary(ctx, baker)
	require.NoError(t, err)
	require.Len(t, summary.TopProducts, 5)
	assert.Equal(t, "pg", summary.TopProducts[0].ProductID)
	// every customer spent the same; first seen stays first
	require.Len(t, summary.TopCustomers, 5)
	assert.Equal(t, "ca", summary.TopCustomers[0].UserID)
}
