package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"sync"
	"testing"
	"time"

	"bakehub/internal/models"
	"bakehub/internal/repositories"

	"github.com/shopspring/decimal"
	amqp "github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOrders struct {
	repositories.OrderRepository
	order *models.Order
	err   error
}

func (s *stubOrders) GetByID(_ context.Context, id string) (*models.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.order, nil
}

type stubUsers struct {
	repositories.UserRepository
	bakers []models.User
}

func (s *stubUsers) ListByRole(_ context.Context, _ models.Role) ([]models.User, error) {
	return s.bakers, nil
}

type recorder struct {
	mu      sync.Mutex
	pushes  []PushMessage
	emails  []Email
	failFor string
}

func (r *recorder) SendPush(_ context.Context, msg PushMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if msg.To == r.failFor {
		return errors.New("device unregistered")
	}
	r.pushes = append(r.pushes, msg)
	return nil
}

func (r *recorder) SendEmail(_ context.Context, msg Email) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(msg.To) > 0 && msg.To[0] == r.failFor {
		return errors.New("mailbox full")
	}
	r.emails = append(r.emails, msg)
	return nil
}

func sampleOrder() *models.Order {
	message := "Happy Birthday"
	return &models.Order{
		ID:             "0f3c2a9e-1111-2222-3333-444455556666",
		UserID:         "cust-1",
		User:           &models.User{ID: "cust-1", Name: "Asha", Email: "asha@example.com"},
		Status:         models.StatusPending,
		DeliveryType:   models.DeliveryPickup,
		DeliveryDate:   time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC),
		DeliverySlot:   "10:00-12:00",
		TotalAmount:    decimal.RequireFromString("900"),
		DiscountAmount: decimal.Zero,
		FinalAmount:    decimal.RequireFromString("900"),
		Items: []models.OrderItem{{
			ProductID:     "p1",
			Product:       &models.Product{Name: "Truffle Cake"},
			Quantity:      2,
			UnitPrice:     decimal.RequireFromString("450"),
			Subtotal:      decimal.RequireFromString("900"),
			MessageOnCake: &message,
		}},
	}
}

func TestDispatcher_OrderPlacedNotifiesBakersAndCustomer(t *testing.T) {
	rec := &recorder{failFor: "token-bad"}
	users := &stubUsers{bakers: []models.User{
		{ID: "b1", Role: models.RoleBaker, PushToken: "token-bad"},
		{ID: "b2", Role: models.RoleBaker},
		{ID: "b3", Role: models.RoleBaker, PushToken: "token-ok"},
	}}
	d := NewDispatcher(&stubOrders{order: sampleOrder()}, users, rec, rec, "shop@example.com", nil)

	err := d.Handle(context.Background(), OrderPlaced(sampleOrder(), time.Now()))
	require.NoError(t, err)

	require.Len(t, rec.pushes, 1)
	assert.Equal(t, "token-ok", rec.pushes[0].To)
	assert.Equal(t, "New Order Received", rec.pushes[0].Title)

	require.Len(t, rec.emails, 2)
	assert.Equal(t, []string{"asha@example.com"}, rec.emails[0].To)
	assert.Contains(t, rec.emails[0].Subject, "Order Confirmation - 0F3C2A9E")
	assert.Contains(t, rec.emails[0].Body, "2 x Truffle Cake @ 450.00 = 900.00")
	assert.Contains(t, rec.emails[0].Body, `Happy Birthday`)
	assert.Equal(t, []string{"shop@example.com"}, rec.emails[1].To)
	assert.True(t, strings.HasPrefix(rec.emails[1].Subject, "[Shop copy]"))
}

func TestDispatcher_StatusChangedEmailsOnlyForNotifyingStatuses(t *testing.T) {
	tests := []struct {
		status models.OrderStatus
		emails int
	}{
		{models.StatusConfirmed, 1},
		{models.StatusInKitchen, 0},
		{models.StatusReady, 0},
		{models.StatusOutForDelivery, 1},
		{models.StatusCompleted, 1},
		{models.StatusCancelled, 1},
		{models.StatusPending, 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			rec := &recorder{}
			d := NewDispatcher(&stubOrders{order: sampleOrder()}, &stubUsers{}, rec, rec, "", nil)

			err := d.Handle(context.Background(), StatusChanged("order-1", models.StatusPending, tt.status, time.Now()))
			require.NoError(t, err)
			assert.Len(t, rec.emails, tt.emails)
			assert.Empty(t, rec.pushes)
		})
	}
}

func TestDispatcher_SendFailureDoesNotFailEvent(t *testing.T) {
	rec := &recorder{failFor: "asha@example.com"}
	d := NewDispatcher(&stubOrders{order: sampleOrder()}, &stubUsers{}, rec, rec, "shop@example.com", nil)

	err := d.Handle(context.Background(), OrderPlaced(sampleOrder(), time.Now()))
	require.NoError(t, err)
	require.Len(t, rec.emails, 1)
	assert.Equal(t, []string{"shop@example.com"}, rec.emails[0].To)
}

func TestDispatcher_MissingOrder(t *testing.T) {
	rec := &recorder{}
	d := NewDispatcher(&stubOrders{err: repositories.ErrNotFound}, &stubUsers{}, rec, rec, "", nil)

	err := d.Handle(context.Background(), StatusChanged("gone", models.StatusPending, models.StatusConfirmed, time.Now()))
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestWorkerQueue_DeliversAndDrains(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	queue := NewWorkerQueue(HandlerFunc(func(_ context.Context, e Event) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e.OrderID)
		return nil
	}), 2, 10, nil)
	queue.Start(context.Background())

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, queue.Publish(context.Background(), Event{Type: EventOrderPlaced, OrderID: id}))
	}
	queue.Close()

	assert.ElementsMatch(t, []string{"a", "b", "c"}, seen)
	assert.ErrorIs(t, queue.Publish(context.Background(), Event{OrderID: "late"}), ErrQueueClosed)
}

func TestWorkerQueue_FullBufferDoesNotBlock(t *testing.T) {
	release := make(chan struct{})
	queue := NewWorkerQueue(HandlerFunc(func(context.Context, Event) error {
		<-release
		return nil
	}), 1, 1, nil)
	queue.Start(context.Background())

	// One event is held by the worker, one fills the buffer.
	require.NoError(t, queue.Publish(context.Background(), Event{OrderID: "1"}))
	require.Eventually(t, func() bool { return len(queue.events) == 0 }, time.Second, time.Millisecond)
	require.NoError(t, queue.Publish(context.Background(), Event{OrderID: "2"}))

	done := make(chan error, 1)
	go func() { done <- queue.Publish(context.Background(), Event{OrderID: "3"}) }()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrQueueFull)
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full queue")
	}
	close(release)
	queue.Close()
}

type fakeBroker struct {
	published [][]byte
}

func (f *fakeBroker) Publish(body []byte) error {
	f.published = append(f.published, body)
	return nil
}

func (f *fakeBroker) Consume(ctx context.Context, _ string, handler func(msg amqp.Delivery) error) error {
	for _, body := range f.published {
		_ = handler(amqp.Delivery{Body: body})
	}
	return nil
}

func TestAMQPQueue_RoundTrip(t *testing.T) {
	broker := &fakeBroker{}
	queue := newAMQPQueue(broker, nil)

	event := StatusChanged("order-7", models.StatusReady, models.StatusCompleted, time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, queue.Publish(context.Background(), event))
	broker.published = append(broker.published, []byte(`{"type":""}`))

	var got []Event
	err := queue.Consume(context.Background(), HandlerFunc(func(_ context.Context, e Event) error {
		got = append(got, e)
		return nil
	}))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, event, got[0])
}

func TestExpoPushSender(t *testing.T) {
	var received PushMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)
		if received.To == "reject" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"errors":[{"message":"bad token"}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":{"status":"ok"}}`))
	}))
	defer server.Close()

	sender := NewExpoPushSender(server.URL, time.Second)
	require.NoError(t, sender.SendPush(context.Background(), PushMessage{To: "ExponentPushToken[x]", Title: "Hi", Body: "there"}))
	assert.Equal(t, "ExponentPushToken[x]", received.To)
	assert.Equal(t, "default", received.Sound)

	err := sender.SendPush(context.Background(), PushMessage{To: "reject"})
	assert.ErrorContains(t, err, "status 400")
}

func TestSMTPMailer(t *testing.T) {
	mailer := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", Username: "bot", Password: "pw", From: "shop@example.com"})
	var gotAddr string
	var gotMsg []byte
	mailer.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr = addr
		gotMsg = msg
		assert.NotNil(t, a)
		assert.Equal(t, "shop@example.com", from)
		assert.Equal(t, []string{"asha@example.com"}, to)
		return nil
	}

	require.NoError(t, mailer.SendEmail(context.Background(), Email{To: []string{"asha@example.com"}, Subject: "Hello", Body: "line1\nline2"}))
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Contains(t, string(gotMsg), "Subject: Hello\r\n")
	assert.Contains(t, string(gotMsg), "line1\r\nline2")

	assert.Error(t, mailer.SendEmail(context.Background(), Email{Subject: "nobody"}))
}
