// Package notifications turns order events into push and email messages.
// Events are queued and handled off the request path.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bakehub/internal/models"
)

// EventType names what happened to an order.
type EventType string

const (
	EventOrderPlaced        EventType = "order.placed"
	EventOrderStatusChanged EventType = "order.status_changed"
)

// Event is the queued description of an order change.
type Event struct {
	Type           EventType          `json:"type"`
	OrderID        string             `json:"order_id"`
	Status         models.OrderStatus `json:"status"`
	PreviousStatus models.OrderStatus `json:"previous_status,omitempty"`
	OccurredAt     time.Time          `json:"occurred_at"`
}

// OrderPlaced builds the event published after an order commits.
func OrderPlaced(order *models.Order, at time.Time) Event {
	return Event{
		Type:       EventOrderPlaced,
		OrderID:    order.ID,
		Status:     order.Status,
		OccurredAt: at,
	}
}

// StatusChanged builds the event published when an order moves from
// previous to current.
func StatusChanged(orderID string, previous, current models.OrderStatus, at time.Time) Event {
	return Event{
		Type:           EventOrderStatusChanged,
		OrderID:        orderID,
		Status:         current,
		PreviousStatus: previous,
		OccurredAt:     at,
	}
}

// Publisher hands events to the notification pipeline. Implementations
// must not block the caller on delivery.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Handler processes one event.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error { return f(ctx, event) }

func encodeEvent(event Event) ([]byte, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", event.Type, err)
	}
	return body, nil
}

func decodeEvent(body []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if event.OrderID == "" || event.Type == "" {
		return Event{}, fmt.Errorf("decode event: missing type or order id")
	}
	return event, nil
}
