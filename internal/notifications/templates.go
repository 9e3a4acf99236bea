package notifications

import (
	"fmt"
	"strings"
	"text/template"

	"bakehub/internal/models"
)

var receiptTemplate = template.Must(template.New("receipt").Parse(`Hi {{.CustomerName}},

Thank you for your order! Here is your receipt.

Order: {{.OrderID}}
Delivery: {{.DeliveryType}} on {{.DeliveryDate}} ({{.DeliverySlot}})
{{range .Lines}}
  {{.Quantity}} x {{.Name}} @ {{.UnitPrice}} = {{.Subtotal}}{{if .Message}} (message: "{{.Message}}"){{end}}{{end}}

Total:    {{.Total}}
Discount: {{.Discount}}{{if .CouponCode}} ({{.CouponCode}}){{end}}
To pay:   {{.Final}}

We will let you know as your order progresses.
`))

var statusTemplate = template.Must(template.New("status").Parse(`Hi {{.CustomerName}},

{{.Headline}}

Order: {{.OrderID}}
Status: {{.Status}}
Amount: {{.Final}}
`))

type receiptLine struct {
	Name      string
	Quantity  int
	UnitPrice string
	Subtotal  string
	Message   string
}

func customerName(order *models.Order) string {
	if order.User != nil && order.User.Name != "" {
		return order.User.Name
	}
	return "there"
}

func receiptEmail(order *models.Order) (Email, error) {
	lines := make([]receiptLine, 0, len(order.Items))
	for _, item := range order.Items {
		line := receiptLine{
			Name:      "Item",
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.StringFixed(2),
			Subtotal:  item.Subtotal.StringFixed(2),
		}
		if item.Product != nil {
			line.Name = item.Product.Name
		}
		if item.ProductVariant != nil && item.ProductVariant.Label != "" {
			line.Name += " (" + item.ProductVariant.Label + ")"
		}
		if item.MessageOnCake != nil {
			line.Message = *item.MessageOnCake
		}
		lines = append(lines, line)
	}

	var body strings.Builder
	err := receiptTemplate.Execute(&body, map[string]any{
		"CustomerName": customerName(order),
		"OrderID":      order.ID,
		"DeliveryType": order.DeliveryType,
		"DeliveryDate": order.DeliveryDate.Format("2006-01-02"),
		"DeliverySlot": order.DeliverySlot,
		"Lines":        lines,
		"Total":        order.TotalAmount.StringFixed(2),
		"Discount":     order.DiscountAmount.StringFixed(2),
		"CouponCode":   order.CouponCode,
		"Final":        order.FinalAmount.StringFixed(2),
	})
	if err != nil {
		return Email{}, fmt.Errorf("render receipt: %w", err)
	}
	return Email{
		Subject: fmt.Sprintf("Order Confirmation - %s", shortID(order.ID)),
		Body:    body.String(),
	}, nil
}

var statusHeadlines = map[models.OrderStatus]string{
	models.StatusConfirmed:      "Good news! Your order has been confirmed and will be prepared soon.",
	models.StatusOutForDelivery: "Your order is out for delivery.",
	models.StatusCompleted:      "Your order is complete. Enjoy!",
	models.StatusCancelled:      "Unfortunately your order has been cancelled.",
}

func statusEmail(order *models.Order, status models.OrderStatus) (Email, error) {
	headline, ok := statusHeadlines[status]
	if !ok {
		headline = fmt.Sprintf("Your order is now %s.", status)
	}
	var body strings.Builder
	err := statusTemplate.Execute(&body, map[string]any{
		"CustomerName": customerName(order),
		"Headline":     headline,
		"OrderID":      order.ID,
		"Status":       status,
		"Final":        order.FinalAmount.StringFixed(2),
	})
	if err != nil {
		return Email{}, fmt.Errorf("render status update: %w", err)
	}
	return Email{
		Subject: fmt.Sprintf("Order %s - %s", shortID(order.ID), strings.ReplaceAll(string(status), "_", " ")),
		Body:    body.String(),
	}, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return strings.ToUpper(id[:8])
	}
	return strings.ToUpper(id)
}
