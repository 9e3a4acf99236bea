package services

import (
	"context"
	"sort"
	"time"

	"bakehub/internal/models"
	"bakehub/internal/repositories"
	"bakehub/pkg/apperror"

	"github.com/shopspring/decimal"
)

const (
	salesTrendDays = 7
	topListSize    = 5
)

// DailySales is the paid revenue of one calendar day.
type DailySales struct {
	Date    string          `json:"date"`
	Orders  int             `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

// ProductSales ranks a product by quantity sold.
type ProductSales struct {
	ProductID    string          `json:"product_id"`
	Name         string          `json:"name"`
	QuantitySold int             `json:"quantity_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
}

// CustomerSpend ranks a customer by paid spend.
type CustomerSpend struct {
	UserID       string          `json:"user_id"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	OrdersPlaced int             `json:"orders_placed"`
	TotalSpent   decimal.Decimal `json:"total_spent"`
}

// AnalyticsSummary is the baker dashboard.
type AnalyticsSummary struct {
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalOrders   int             `json:"total_orders"`
	AvgOrderValue decimal.Decimal `json:"avg_order_value"`
	SalesTrend    []DailySales    `json:"sales_trend"`
	TopProducts   []ProductSales  `json:"top_products"`
	TopCustomers  []CustomerSpend `json:"top_customers"`
}

// AnalyticsService aggregates orders into dashboard figures on every call.
type AnalyticsService struct {
	orderRepo repositories.OrderRepository
	now       func() time.Time
}

func NewAnalyticsService(orderRepo repositories.OrderRepository, now func() time.Time) *AnalyticsService {
	if now == nil {
		now = time.Now
	}
	return &AnalyticsService{orderRepo: orderRepo, now: now}
}

// Summary computes revenue, trend and rankings. Only paid orders count as
// revenue; total_orders counts every order.
func (s *AnalyticsService) Summary(ctx context.Context, actor Actor) (*AnalyticsSummary, error) {
	if err := requireBaker(actor, "view analytics"); err != nil {
		return nil, err
	}
	orders, err := s.orderRepo.ListWithItems(ctx)
	if err != nil {
		return nil, apperror.Internal(err, "could not load orders for analytics")
	}
	return summarize(orders, s.now()), nil
}

func summarize(orders []models.Order, now time.Time) *AnalyticsSummary {
	summary := &AnalyticsSummary{
		TotalRevenue:  decimal.Zero,
		TotalOrders:   len(orders),
		AvgOrderValue: decimal.Zero,
		SalesTrend:    []DailySales{},
		TopProducts:   []ProductSales{},
		TopCustomers:  []CustomerSpend{},
	}

	trendStart := civilDate(now).AddDate(0, 0, -(salesTrendDays - 1))
	trend := map[string]*DailySales{}
	products := map[string]*ProductSales{}
	customers := map[string]*CustomerSpend{}
	var productOrder, customerOrder []string

	for i := range orders {
		order := &orders[i]
		if order.PaymentStatus != models.PaymentPaid {
			continue
		}
		summary.TotalRevenue = summary.TotalRevenue.Add(order.FinalAmount)

		if day := civilDate(order.CreatedAt); !day.Before(trendStart) {
			key := day.Format("2006-01-02")
			entry, ok := trend[key]
			if !ok {
				entry = &DailySales{Date: key, Revenue: decimal.Zero}
				trend[key] = entry
			}
			entry.Orders++
			entry.Revenue = entry.Revenue.Add(order.FinalAmount)
		}

		for _, item := range order.Items {
			entry, ok := products[item.ProductID]
			if !ok {
				entry = &ProductSales{ProductID: item.ProductID, Revenue: decimal.Zero}
				if item.Product != nil {
					entry.Name = item.Product.Name
				}
				products[item.ProductID] = entry
				productOrder = append(productOrder, item.ProductID)
			}
			entry.QuantitySold += item.Quantity
			entry.Revenue = entry.Revenue.Add(item.Subtotal)
		}

		customer, ok := customers[order.UserID]
		if !ok {
			customer = &CustomerSpend{UserID: order.UserID, TotalSpent: decimal.Zero}
			if order.User != nil {
				customer.Name = order.User.Name
				customer.Email = order.User.Email
			}
			customers[order.UserID] = customer
			customerOrder = append(customerOrder, order.UserID)
		}
		customer.OrdersPlaced++
		customer.TotalSpent = customer.TotalSpent.Add(order.FinalAmount)
	}

	summary.TotalRevenue = summary.TotalRevenue.Round(2)
	if summary.TotalOrders > 0 {
		summary.AvgOrderValue = summary.TotalRevenue.Div(decimal.NewFromInt(int64(summary.TotalOrders))).Round(2)
	}

	for _, entry := range trend {
		summary.SalesTrend = append(summary.SalesTrend, *entry)
	}
	sort.Slice(summary.SalesTrend, func(i, j int) bool {
		return summary.SalesTrend[i].Date < summary.SalesTrend[j].Date
	})

	for _, id := range productOrder {
		summary.TopProducts = append(summary.TopProducts, *products[id])
	}
	sort.SliceStable(summary.TopProducts, func(i, j int) bool {
		return summary.TopProducts[i].QuantitySold > summary.TopProducts[j].QuantitySold
	})
	if len(summary.TopProducts) > topListSize {
		summary.TopProducts = summary.TopProducts[:topListSize]
	}

	for _, id := range customerOrder {
		summary.TopCustomers = append(summary.TopCustomers, *customers[id])
	}
	sort.SliceStable(summary.TopCustomers, func(i, j int) bool {
		return summary.TopCustomers[i].TotalSpent.GreaterThan(summary.TopCustomers[j].TotalSpent)
	})
	if len(summary.TopCustomers) > topListSize {
		summary.TopCustomers = summary.TopCustomers[:topListSize]
	}
	return summary
}
