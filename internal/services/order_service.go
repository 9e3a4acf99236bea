package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bakehub/internal/metrics"
	"bakehub/internal/models"
	"bakehub/internal/notifications"
	"bakehub/internal/repositories"
	"bakehub/pkg/apperror"
	"bakehub/pkg/logger"

	"github.com/shopspring/decimal"
)

// amountTolerance is how far a client-supplied amount may drift from the
// server computation before the order is rejected.
var amountTolerance = decimal.NewFromFloat(0.01)

// OrderItemInput is one requested order line.
type OrderItemInput struct {
	ProductID        string           `json:"product_id"`
	ProductVariantID string           `json:"product_variant_id"`
	Quantity         int              `json:"quantity"`
	UnitPrice        *decimal.Decimal `json:"unit_price"`
	Subtotal         *decimal.Decimal `json:"subtotal"`
	CustomCakeConfig models.JSONMap   `json:"custom_cake_config"`
	MessageOnCake    *string          `json:"message_on_cake"`
}

// CreateOrderInput is the payload of an order placement.
type CreateOrderInput struct {
	DeliveryType      string           `json:"delivery_type" validate:"required,oneof=pickup delivery"`
	DeliveryAddressID *string          `json:"delivery_address_id"`
	DeliveryDate      string           `json:"delivery_date" validate:"required"`
	DeliverySlot      string           `json:"delivery_slot" validate:"required"`
	TotalAmount       *decimal.Decimal `json:"total_amount"`
	DiscountAmount    *decimal.Decimal `json:"discount_amount"`
	FinalAmount       *decimal.Decimal `json:"final_amount"`
	CouponCode        string           `json:"coupon_code"`
	PaymentReference  string           `json:"payment_reference"`
	Items             []OrderItemInput `json:"items"`
}

// PreviewItemInput is one line of a price preview.
type PreviewItemInput struct {
	ProductID        string         `json:"product_id"`
	ProductVariantID string         `json:"product_variant_id"`
	Quantity         int            `json:"quantity"`
	CustomCakeConfig models.JSONMap `json:"custom_cake_config"`
}

// PreviewInput is a cart to price without placing an order.
type PreviewInput struct {
	Items      []PreviewItemInput `json:"items"`
	CouponCode string             `json:"coupon_code"`
}

// PreviewLine is a priced cart line.
type PreviewLine struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	VariantID   string          `json:"product_variant_id,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// Preview is the priced cart.
type Preview struct {
	Items          []PreviewLine   `json:"items"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
	CouponCode     string          `json:"coupon_code,omitempty"`
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	addressRepo repositories.AddressRepository
	coupons     *CouponService
	pricing     *PricingService
	publisher   notifications.Publisher
	log         *logger.Logger
	now         func() time.Time
}

// NewOrderService creates a new OrderService.
func NewOrderService(
	orderRepo repositories.OrderRepository,
	productRepo repositories.ProductRepository,
	addressRepo repositories.AddressRepository,
	coupons *CouponService,
	pricing *PricingService,
	publisher notifications.Publisher,
	log *logger.Logger,
) *OrderService {
	if log == nil {
		log = logger.Nop()
	}
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		addressRepo: addressRepo,
		coupons:     coupons,
		pricing:     pricing,
		publisher:   publisher,
		log:         log,
		now:         time.Now,
	}
}

// CreateOrder validates the request, freezes the item prices and persists
// the order with its items and coupon usage in one transaction. The
// order.placed event goes out only after the commit.
func (s *OrderService) CreateOrder(ctx context.Context, actor Actor, in CreateOrderInput) (order *models.Order, err error) {
	started := time.Now()
	defer func() { metrics.RecordOrderOperation("create", started, err) }()

	if len(in.Items) == 0 {
		return nil, fieldError("items", "at least one item is required")
	}

	deliveryType := models.DeliveryType(in.DeliveryType)
	if deliveryType != models.DeliveryPickup && deliveryType != models.DeliveryDelivery {
		return nil, fieldError("delivery_type", "must be pickup or delivery")
	}
	deliveryDate, perr := time.Parse("2006-01-02", strings.TrimSpace(in.DeliveryDate))
	if perr != nil {
		return nil, fieldError("delivery_date", "must be a date in YYYY-MM-DD format")
	}
	if strings.TrimSpace(in.DeliverySlot) == "" {
		return nil, fieldError("delivery_slot", "is required")
	}

	var addressID *string
	if in.DeliveryAddressID != nil && *in.DeliveryAddressID != "" {
		address, aerr := s.addressRepo.GetByID(ctx, *in.DeliveryAddressID)
		if aerr != nil {
			return nil, lookupError(aerr, "delivery address")
		}
		if address.UserID != actor.UserID {
			return nil, apperror.NotFound("delivery address not found")
		}
		addressID = &address.ID
	}

	items := make([]models.OrderItem, 0, len(in.Items))
	total := decimal.Zero
	for i, raw := range in.Items {
		item, ierr := s.buildItem(ctx, i, raw)
		if ierr != nil {
			return nil, ierr
		}
		total = total.Add(item.Subtotal)
		items = append(items, item)
	}
	total = total.Round(2)

	discount := decimal.Zero
	var usage *models.CouponUsage
	couponCode := strings.TrimSpace(in.CouponCode)
	if couponCode != "" {
		result, cerr := s.coupons.Validate(ctx, couponCode, total, actor.UserID)
		if cerr != nil {
			return nil, cerr
		}
		discount = result.Discount
		couponCode = result.Code
		usage = &models.CouponUsage{CouponID: result.Coupon.ID, UserID: actor.UserID}
	}
	final := total.Sub(discount)

	if err := checkAmount("total_amount", in.TotalAmount, total); err != nil {
		return nil, err
	}
	if err := checkAmount("discount_amount", in.DiscountAmount, discount); err != nil {
		return nil, err
	}
	if err := checkAmount("final_amount", in.FinalAmount, final); err != nil {
		return nil, err
	}

	order = &models.Order{
		UserID:            actor.UserID,
		Status:            models.StatusPending,
		PaymentStatus:     models.PaymentPending,
		DeliveryType:      deliveryType,
		DeliveryAddressID: addressID,
		DeliveryDate:      deliveryDate,
		DeliverySlot:      strings.TrimSpace(in.DeliverySlot),
		TotalAmount:       total,
		DiscountAmount:    discount,
		FinalAmount:       final,
		CouponCode:        couponCode,
		PaymentReference:  in.PaymentReference,
		Items:             items,
	}
	if err := s.orderRepo.Create(ctx, order, usage); err != nil {
		if errors.Is(err, repositories.ErrCouponLimitReached) {
			return nil, rejectCoupon(apperror.CodeCouponRejected, CouponUsageExceeded, "coupon usage limit reached")
		}
		return nil, apperror.Internal(err, "could not create order")
	}

	ctx = s.log.WithOrderID(ctx, order.ID)
	s.log.Info(ctx, "order placed")
	s.publish(ctx, notifications.OrderPlaced(order, s.now()))

	// The order is committed; a failed reload must not look like a failed
	// placement to the client.
	created, rerr := s.orderRepo.GetByID(ctx, order.ID)
	if rerr != nil {
		s.log.Error(ctx, "failed to reload placed order", rerr)
		return order, nil
	}
	return created, nil
}

func (s *OrderService) buildItem(ctx context.Context, i int, in OrderItemInput) (models.OrderItem, error) {
	field := func(name string) string { return fmt.Sprintf("items[%d].%s", i, name) }

	if in.Quantity < 1 {
		return models.OrderItem{}, fieldError(field("quantity"), "must be at least 1")
	}
	if in.UnitPrice == nil {
		return models.OrderItem{}, fieldError(field("unit_price"), "is required")
	}
	if in.UnitPrice.IsNegative() {
		return models.OrderItem{}, fieldError(field("unit_price"), "must not be negative")
	}

	item := models.OrderItem{
		Quantity:         in.Quantity,
		UnitPrice:        in.UnitPrice.Round(2),
		CustomCakeConfig: in.CustomCakeConfig,
		MessageOnCake:    in.MessageOnCake,
	}

	switch {
	case in.ProductVariantID != "":
		variant, err := s.productRepo.GetVariantByID(ctx, in.ProductVariantID)
		if err != nil {
			return models.OrderItem{}, lookupError(err, "product variant")
		}
		if in.ProductID != "" && in.ProductID != variant.ProductID {
			return models.OrderItem{}, fieldError(field("product_id"), "does not match the variant's product")
		}
		item.ProductID = variant.ProductID
		item.ProductVariantID = &variant.ID
	case in.ProductID != "":
		product, err := s.productRepo.GetByID(ctx, in.ProductID)
		if err != nil {
			return models.OrderItem{}, lookupError(err, "product")
		}
		item.ProductID = product.ID
	default:
		return models.OrderItem{}, fieldError(field("product_id"), "product_id or product_variant_id is required")
	}

	item.Subtotal = item.UnitPrice.Mul(decimal.NewFromInt(int64(in.Quantity))).Round(2)
	if in.Subtotal != nil && in.Subtotal.Sub(item.Subtotal).Abs().GreaterThan(amountTolerance) {
		return models.OrderItem{}, fieldError(field("subtotal"), "must equal quantity times unit_price")
	}
	return item, nil
}

// PreviewOrder prices a cart from the catalog without persisting anything.
func (s *OrderService) PreviewOrder(ctx context.Context, actor Actor, in PreviewInput) (*Preview, error) {
	preview := &Preview{Items: []PreviewLine{}}
	total := decimal.Zero

	for i, raw := range in.Items {
		if raw.ProductVariantID == "" && raw.ProductID == "" {
			continue
		}
		// A missing quantity means one; placement still insists on it.
		quantity := raw.Quantity
		if quantity == 0 {
			quantity = 1
		}
		if quantity < 0 {
			return nil, fieldError(fmt.Sprintf("items[%d].quantity", i), "must be at least 1")
		}
		line, err := s.previewLine(ctx, raw)
		if err != nil {
			return nil, err
		}
		line.Quantity = quantity
		line.Subtotal = line.UnitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
		total = total.Add(line.Subtotal)
		preview.Items = append(preview.Items, line)
	}

	preview.TotalAmount = total.Round(2)
	preview.DiscountAmount = decimal.Zero
	if code := strings.TrimSpace(in.CouponCode); code != "" {
		result, err := s.coupons.Validate(ctx, code, preview.TotalAmount, actor.UserID)
		if err != nil {
			return nil, err
		}
		preview.DiscountAmount = result.Discount
		preview.CouponCode = result.Code
	}
	preview.FinalAmount = preview.TotalAmount.Sub(preview.DiscountAmount)
	return preview, nil
}

func (s *OrderService) previewLine(ctx context.Context, in PreviewItemInput) (PreviewLine, error) {
	var (
		product      *models.Product
		line         PreviewLine
		variantLabel string
	)
	if in.ProductVariantID != "" {
		variant, err := s.productRepo.GetVariantByID(ctx, in.ProductVariantID)
		if err != nil {
			return line, lookupError(err, "product variant")
		}
		product = variant.Product
		line.VariantID = variant.ID
		line.UnitPrice = variant.Price
		variantLabel = variant.Label
		if product == nil {
			product = &models.Product{ID: variant.ProductID}
		}
	} else {
		p, err := s.productRepo.GetByID(ctx, in.ProductID)
		if err != nil {
			return line, lookupError(err, "product")
		}
		product = p
		line.UnitPrice = s.pricing.DisplayPrice(p)
	}
	line.ProductID = product.ID
	line.ProductName = product.Name
	if variantLabel != "" {
		line.ProductName = product.Name + " - " + variantLabel
	}

	if product.IsCustomizable {
		if optionIDs := in.CustomCakeConfig.StringSlice("options"); len(optionIDs) > 0 {
			quote, err := s.pricing.CustomCakePrice(ctx, optionIDs)
			if err != nil {
				return line, err
			}
			line.UnitPrice = quote.TotalPrice
		}
	}
	return line, nil
}

// ListOrders returns every order to bakers and only their own to customers,
// newest first.
func (s *OrderService) ListOrders(ctx context.Context, actor Actor, status string) ([]models.Order, error) {
	filter := repositories.OrderFilter{}
	if status != "" {
		parsed, err := models.ParseOrderStatus(status)
		if err != nil {
			return nil, fieldError("status", err.Error())
		}
		filter.Status = parsed
	}
	if !actor.IsBaker() {
		filter.UserID = actor.UserID
	}
	orders, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, apperror.Internal(err, "could not retrieve orders")
	}
	return orders, nil
}

// GetOrder retrieves one order. Customers cannot see other customers'
// orders; those look missing.
func (s *OrderService) GetOrder(ctx context.Context, actor Actor, id string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "order")
	}
	if !actor.IsBaker() && order.UserID != actor.UserID {
		return nil, apperror.NotFound("order not found")
	}
	return order, nil
}

// UpdateOrderStatus moves an order to status. Any status may follow any
// other. The status_changed event is published only on an actual change.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, actor Actor, id, status string) (order *models.Order, err error) {
	started := time.Now()
	defer func() { metrics.RecordOrderOperation("update_status", started, err) }()

	if err := requireBaker(actor, "update order status"); err != nil {
		return nil, err
	}
	next, perr := models.ParseOrderStatus(status)
	if perr != nil {
		return nil, fieldError("status", perr.Error())
	}

	order, err = s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "order")
	}
	previous := order.Status

	if err := s.orderRepo.UpdateStatus(ctx, id, next); err != nil {
		return nil, lookupError(err, "order")
	}
	order.Status = next

	if previous != next {
		ctx = s.log.WithOrderID(ctx, id)
		s.log.Info(ctx, fmt.Sprintf("order status changed from %s to %s", previous, next))
		s.publish(ctx, notifications.StatusChanged(id, previous, next, s.now()))
	}
	return order, nil
}

// UpdatePaymentStatus records the payment outcome. It does not touch the
// fulfillment status and sends no notification.
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, actor Actor, id, status string) (order *models.Order, err error) {
	started := time.Now()
	defer func() { metrics.RecordOrderOperation("update_payment_status", started, err) }()

	if err := requireBaker(actor, "update payment status"); err != nil {
		return nil, err
	}
	next, perr := models.ParsePaymentStatus(status)
	if perr != nil {
		return nil, fieldError("payment_status", perr.Error())
	}

	order, err = s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "order")
	}
	if err := s.orderRepo.UpdatePaymentStatus(ctx, id, next); err != nil {
		return nil, lookupError(err, "order")
	}
	order.PaymentStatus = next
	return order, nil
}

// publish hands event to the notification pipeline on a context detached
// from the request. Failures never reach the caller.
func (s *OrderService) publish(ctx context.Context, event notifications.Event) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(context.WithoutCancel(ctx), event)
	metrics.RecordNotification("publish", err)
	if err != nil {
		s.log.Error(ctx, "failed to publish "+string(event.Type)+" event", err)
	}
}

func checkAmount(field string, supplied *decimal.Decimal, computed decimal.Decimal) error {
	if supplied == nil {
		return nil
	}
	if supplied.Sub(computed).Abs().GreaterThan(amountTolerance) {
		return fieldError(field, fmt.Sprintf("expected %s", computed.StringFixed(2)))
	}
	return nil
}

func fieldError(field, message string) error {
	return apperror.Validation(fmt.Sprintf("%s %s", field, message)).
		WithDetails(map[string]string{field: message})
}
