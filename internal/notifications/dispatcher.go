package notifications

import (
	"context"
	"fmt"

	"bakehub/internal/metrics"
	"bakehub/internal/models"
	"bakehub/internal/repositories"
	"bakehub/pkg/logger"
)

// Dispatcher is the Handler that resolves recipients for an event and
// sends the messages. A failed send is logged and counted; it never stops
// the remaining sends.
type Dispatcher struct {
	orders    repositories.OrderRepository
	users     repositories.UserRepository
	push      PushSender
	mail      Mailer
	shopEmail string
	log       *logger.Logger
}

// NewDispatcher creates a Dispatcher. shopEmail, when set, receives a copy
// of every receipt.
func NewDispatcher(orders repositories.OrderRepository, users repositories.UserRepository, push PushSender, mail Mailer, shopEmail string, log *logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.Nop()
	}
	return &Dispatcher{
		orders:    orders,
		users:     users,
		push:      push,
		mail:      mail,
		shopEmail: shopEmail,
		log:       log,
	}
}

// Handle loads the order and notifies the people interested in event.
func (d *Dispatcher) Handle(ctx context.Context, event Event) error {
	order, err := d.orders.GetByID(ctx, event.OrderID)
	if err != nil {
		return fmt.Errorf("load order for %s: %w", event.Type, err)
	}

	switch event.Type {
	case EventOrderPlaced:
		d.orderPlaced(ctx, order)
	case EventOrderStatusChanged:
		d.statusChanged(ctx, order, event.Status)
	default:
		return fmt.Errorf("unknown event type %q", event.Type)
	}
	return nil
}

func (d *Dispatcher) orderPlaced(ctx context.Context, order *models.Order) {
	bakers, err := d.users.ListByRole(ctx, models.RoleBaker)
	if err != nil {
		d.log.Error(ctx, "failed to load bakers for new order push", err)
	}
	msg := PushMessage{
		Title: "New Order Received",
		Body:  fmt.Sprintf("Order %s for %s (%s)", shortID(order.ID), order.FinalAmount.StringFixed(2), order.DeliveryType),
		Data:  map[string]any{"order_id": order.ID},
	}
	for _, baker := range bakers {
		if baker.PushToken == "" {
			continue
		}
		msg.To = baker.PushToken
		err := d.push.SendPush(ctx, msg)
		metrics.RecordNotification("push", err)
		if err != nil {
			d.log.Error(d.log.WithFields(ctx, map[string]any{"recipient": baker.ID}), "failed to push new order to baker", err)
		}
	}

	receipt, err := receiptEmail(order)
	if err != nil {
		d.log.Error(ctx, "failed to render receipt", err)
		return
	}
	if order.User != nil && order.User.Email != "" {
		receipt.To = []string{order.User.Email}
		d.sendEmail(ctx, receipt)
	}
	if d.shopEmail != "" {
		receipt.To = []string{d.shopEmail}
		receipt.Subject = "[Shop copy] " + receipt.Subject
		d.sendEmail(ctx, receipt)
	}
}

func (d *Dispatcher) statusChanged(ctx context.Context, order *models.Order, status models.OrderStatus) {
	if !status.NotifiesCustomer() {
		return
	}
	if order.User == nil || order.User.Email == "" {
		d.log.Warn(ctx, "order has no customer email; skipping status update")
		return
	}
	msg, err := statusEmail(order, status)
	if err != nil {
		d.log.Error(ctx, "failed to render status update", err)
		return
	}
	msg.To = []string{order.User.Email}
	d.sendEmail(ctx, msg)
}

func (d *Dispatcher) sendEmail(ctx context.Context, msg Email) {
	err := d.mail.SendEmail(ctx, msg)
	metrics.RecordNotification("email", err)
	if err != nil {
		d.log.Error(d.log.WithFields(ctx, map[string]any{"recipient": msg.To}), "failed to send email", err)
	}
}
