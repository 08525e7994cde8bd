package services

import (
	"fmt"
	"testing"

	"github.com/uchikuch/restaurant-pos-system/entity"
	"github.com/uchikuch/restaurant-pos-system/pkg/apperr"
	"github.com/uchikuch/restaurant-pos-system/repository"

	"github.com/stripe/stripe-go/v78"
	"gorm.io/gorm"
)

type fakeStripe struct {
	created int
	intents map[string]*stripe.PaymentIntent
	refunds []*stripe.RefundParams
}

func newFakeStripe() *fakeStripe {
	return &fakeStripe{intents: make(map[string]*stripe.PaymentIntent)}
}

func (f *fakeStripe) CreateIntent(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	f.created++
	pi := &stripe.PaymentIntent{
		ID:           fmt.Sprintf("pi_%d", f.created),
		ClientSecret: fmt.Sprintf("pi_%d_secret", f.created),
		Amount:       *params.Amount,
		Status:       stripe.PaymentIntentStatusRequiresPaymentMethod,
	}
	f.intents[pi.ID] = pi
	return pi, nil
}

func (f *fakeStripe) RetrieveIntent(id string) (*stripe.PaymentIntent, error) {
	pi, ok := f.intents[id]
	if !ok {
		return nil, fmt.Errorf("no such intent %s", id)
	}
	return pi, nil
}

func (f *fakeStripe) CreateRefund(params *stripe.RefundParams) (*stripe.Refund, error) {
	f.refunds = append(f.refunds, params)
	return &stripe.Refund{ID: "re_1"}, nil
}

func paymentFixture(t *testing.T) (*gorm.DB, *OrderService, *PaymentService, *fakeStripe, *entity.Order, *entity.User) {
	t.Helper()
	db := newTestDB(t)
	orders := newOrderService(db)
	item := seedMenuItem(t, db)
	user := seedUser(t, db, entity.RoleCustomer)

	order, err := orders.Create(user.ID, &CreateOrderIn{
		Items:     []OrderItemIn{{MenuItemID: item.ID, Quantity: 1, Customizations: sizeSelection(t, item, "Large")}},
		OrderType: entity.OrderTypePickup,
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	client := newFakeStripe()
	payments := NewPaymentService(db, repository.NewOrderRepository(db), client, NopNotifier{}, "usd")
	return db, orders, payments, client, order, user
}

func TestCreatePaymentIntent(t *testing.T) {
	_, orders, payments, client, order, user := paymentFixture(t)

	out, err := payments.CreatePaymentIntent(user.ID, order.ID)
	if err != nil {
		t.Fatalf("intent: %v", err)
	}
	if out.Amount != order.Total {
		t.Errorf("amount = %d, want order total %d", out.Amount, order.Total)
	}
	if out.ClientSecret == "" {
		t.Error("missing client secret")
	}

	updated, err := orders.Repo.GetByID(order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if updated.PaymentStatus != entity.PaymentProcessing {
		t.Errorf("payment status = %s, want processing", updated.PaymentStatus)
	}
	if updated.PaymentIntentID != out.PaymentIntentID {
		t.Errorf("intent id not stored")
	}

	// Asking again resumes the existing intent.
	again, err := payments.CreatePaymentIntent(user.ID, order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if again.PaymentIntentID != out.PaymentIntentID {
		t.Errorf("second call minted a new intent")
	}
	if client.created != 1 {
		t.Errorf("created %d intents, want 1", client.created)
	}
}

func TestCreatePaymentIntentGuards(t *testing.T) {
	_, orders, payments, _, order, user := paymentFixture(t)

	stranger := uint(9999)
	if _, err := payments.CreatePaymentIntent(stranger, order.ID); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Errorf("stranger: got %v", err)
	}
	if _, err := payments.CreatePaymentIntent(user.ID, 12345); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("missing order: got %v", err)
	}

	// Paid orders cannot be charged again.
	if err := orders.DB.Model(&entity.Order{}).Where("id = ?", order.ID).
		Update("payment_status", entity.PaymentCompleted).Error; err != nil {
		t.Fatal(err)
	}
	if _, err := payments.CreatePaymentIntent(user.ID, order.ID); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("already paid: got %v", err)
	}

	// Only pending orders accept payment, even when the payment status
	// itself would allow it.
	if err := orders.DB.Model(&entity.Order{}).Where("id = ?", order.ID).
		Updates(map[string]any{
			"status":         entity.OrderConfirmed,
			"payment_status": entity.PaymentPending,
		}).Error; err != nil {
		t.Fatal(err)
	}
	if _, err := payments.CreatePaymentIntent(user.ID, order.ID); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("confirmed order: got %v", err)
	}
}

func TestHandlePaymentSucceededIsIdempotent(t *testing.T) {
	_, orders, payments, _, order, user := paymentFixture(t)

	out, err := payments.CreatePaymentIntent(user.ID, order.ID)
	if err != nil {
		t.Fatal(err)
	}
	pi := &stripe.PaymentIntent{ID: out.PaymentIntentID}

	if err := payments.HandlePaymentSucceeded(pi); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	updated, _ := orders.Repo.GetByID(order.ID)
	if updated.PaymentStatus != entity.PaymentCompleted {
		t.Errorf("payment status = %s, want completed", updated.PaymentStatus)
	}
	if updated.Status != entity.OrderConfirmed {
		t.Errorf("order status = %s, want confirmed", updated.Status)
	}
	if updated.PaymentCompletedAt == nil {
		t.Error("completion time not recorded")
	}
	timelineLen := len(updated.Timeline)

	// Webhook redelivery must change nothing.
	if err := payments.HandlePaymentSucceeded(pi); err != nil {
		t.Fatalf("second delivery: %v", err)
	}
	updated, _ = orders.Repo.GetByID(order.ID)
	if len(updated.Timeline) != timelineLen {
		t.Errorf("timeline grew on redelivery: %d -> %d", timelineLen, len(updated.Timeline))
	}
}

func TestHandlePaymentFailed(t *testing.T) {
	_, orders, payments, _, order, user := paymentFixture(t)

	out, err := payments.CreatePaymentIntent(user.ID, order.ID)
	if err != nil {
		t.Fatal(err)
	}
	pi := &stripe.PaymentIntent{
		ID:               out.PaymentIntentID,
		LastPaymentError: &stripe.Error{Msg: "card_declined"},
	}

	if err := payments.HandlePaymentFailed(pi); err != nil {
		t.Fatalf("failed event: %v", err)
	}
	updated, _ := orders.Repo.GetByID(order.ID)
	if updated.PaymentStatus != entity.PaymentFailed {
		t.Errorf("payment status = %s, want failed", updated.PaymentStatus)
	}
	if updated.PaymentError != "card_declined" {
		t.Errorf("stored error = %q", updated.PaymentError)
	}
	// The order itself stays pending so the customer can retry.
	if updated.Status != entity.OrderPending {
		t.Errorf("order status = %s, want pending", updated.Status)
	}
}

func TestRefundFlow(t *testing.T) {
	_, orders, payments, client, order, user := paymentFixture(t)

	out, err := payments.CreatePaymentIntent(user.ID, order.ID)
	if err != nil {
		t.Fatal(err)
	}

	// Refund before payment is rejected.
	if err := payments.CreateRefund(order.ID, &RefundIn{}); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("refund unpaid: got %v", err)
	}

	if err := payments.HandlePaymentSucceeded(&stripe.PaymentIntent{ID: out.PaymentIntentID}); err != nil {
		t.Fatal(err)
	}

	if err := payments.CreateRefund(order.ID, &RefundIn{Amount: order.Total + 1}); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("over-refund: got %v", err)
	}

	if err := payments.CreateRefund(order.ID, &RefundIn{}); err != nil {
		t.Fatalf("refund: %v", err)
	}
	if len(client.refunds) != 1 {
		t.Fatalf("refund calls = %d, want 1", len(client.refunds))
	}

	// Requesting the refund does not flip the status; the webhook does.
	updated, _ := orders.Repo.GetByID(order.ID)
	if updated.PaymentStatus != entity.PaymentCompleted {
		t.Errorf("payment status = %s before webhook, want completed", updated.PaymentStatus)
	}

	ch := &stripe.Charge{
		PaymentIntent:  &stripe.PaymentIntent{ID: out.PaymentIntentID},
		AmountRefunded: updated.Total,
	}
	if err := payments.HandleChargeRefunded(ch); err != nil {
		t.Fatalf("refund webhook: %v", err)
	}
	updated, _ = orders.Repo.GetByID(order.ID)
	if updated.PaymentStatus != entity.PaymentRefunded {
		t.Errorf("payment status = %s, want refunded", updated.PaymentStatus)
	}
	if updated.RefundAmount != updated.Total || updated.RefundedAt == nil {
		t.Errorf("refund details not recorded: %+v", updated.RefundAmount)
	}

	// A stale success event after the refund must not resurrect the payment.
	if err := payments.HandlePaymentSucceeded(&stripe.PaymentIntent{ID: out.PaymentIntentID}); err != nil {
		t.Fatal(err)
	}
	updated, _ = orders.Repo.GetByID(order.ID)
	if updated.PaymentStatus != entity.PaymentRefunded {
		t.Errorf("late success overwrote refund: %s", updated.PaymentStatus)
	}
}
