package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/uchikuch/restaurant-pos-system/entity"
	"github.com/uchikuch/restaurant-pos-system/pkg/apperr"
	"github.com/uchikuch/restaurant-pos-system/repository"

	"github.com/stripe/stripe-go/v78"
	"gorm.io/gorm"
)

type PaymentService struct {
	DB     *gorm.DB
	Orders *repository.OrderRepository
	Stripe StripeClient
	Notify Notifier

	Currency string
}

func NewPaymentService(db *gorm.DB, orders *repository.OrderRepository, client StripeClient, notify Notifier, currency string) *PaymentService {
	return &PaymentService{DB: db, Orders: orders, Stripe: client, Notify: notify, Currency: currency}
}

type PaymentIntentOut struct {
	PaymentIntentID string `json:"paymentIntentId"`
	ClientSecret    string `json:"clientSecret"`
	Amount          int64  `json:"amount"`
}

// CreatePaymentIntent opens (or resumes) payment for an order. The charge
// amount always comes from the stored order total. An order that already
// has a live intent gets the same intent back instead of a second charge.
func (s *PaymentService) CreatePaymentIntent(userID, orderID uint) (*PaymentIntentOut, error) {
	order, err := s.Orders.GetByID(orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.KindNotFound, "order not found")
	}
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, apperr.New(apperr.KindForbidden, "not your order")
	}
	if order.Status != entity.OrderPending {
		return nil, apperr.Newf(apperr.KindValidation, "orders in status %q cannot be paid", order.Status)
	}
	switch order.PaymentStatus {
	case entity.PaymentCompleted:
		return nil, apperr.New(apperr.KindValidation, "order is already paid")
	case entity.PaymentRefunded:
		return nil, apperr.New(apperr.KindValidation, "order has been refunded")
	}
	if order.Total <= 0 {
		return nil, apperr.New(apperr.KindValidation, "order total must be positive")
	}

	if order.PaymentIntentID != "" {
		pi, err := s.Stripe.RetrieveIntent(order.PaymentIntentID)
		if err == nil && pi.Status != stripe.PaymentIntentStatusCanceled {
			return &PaymentIntentOut{PaymentIntentID: pi.ID, ClientSecret: pi.ClientSecret, Amount: pi.Amount}, nil
		}
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(order.Total),
		Currency: stripe.String(s.Currency),
	}
	params.AddMetadata("orderId", strconv.FormatUint(uint64(order.ID), 10))
	params.AddMetadata("orderNumber", order.OrderNumber)
	params.AddMetadata("userId", strconv.FormatUint(uint64(order.UserID), 10))

	pi, err := s.Stripe.CreateIntent(params)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPayment, "creating payment intent", err)
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		_, err := s.Orders.PaymentStatusGuard(tx, order.ID,
			[]entity.PaymentStatus{entity.PaymentPending, entity.PaymentProcessing, entity.PaymentFailed},
			entity.PaymentProcessing,
			map[string]any{"payment_intent_id": pi.ID},
		)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &PaymentIntentOut{PaymentIntentID: pi.ID, ClientSecret: pi.ClientSecret, Amount: pi.Amount}, nil
}

// HandlePaymentSucceeded processes a payment_intent.succeeded event. The
// payment status guard makes redelivery a no-op: only the first event moves
// the order to paid and confirmed.
func (s *PaymentService) HandlePaymentSucceeded(pi *stripe.PaymentIntent) error {
	order, err := s.orderForIntent(pi.ID)
	if err != nil {
		return err
	}

	var applied bool
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		affected, err := s.Orders.PaymentStatusGuard(tx, order.ID,
			[]entity.PaymentStatus{entity.PaymentPending, entity.PaymentProcessing},
			entity.PaymentCompleted,
			map[string]any{"payment_completed_at": now, "payment_error": ""},
		)
		if err != nil {
			return err
		}
		if affected == 0 {
			return nil
		}
		applied = true

		// Payment confirms the order; a cancelled or already-moved order
		// keeps its status and only the payment state changes.
		if _, err := s.Orders.UpdateStatusGuard(tx, order.ID, entity.OrderPending, entity.OrderConfirmed); err != nil {
			return err
		}
		return s.Orders.AppendTimeline(tx, &entity.OrderTimelineEntry{
			OrderID:   order.ID,
			Status:    entity.OrderConfirmed,
			Timestamp: now,
			Notes:     "Payment confirmed",
		})
	})
	if err != nil || !applied {
		return err
	}

	if s.Notify != nil {
		if updated, err := s.Orders.GetByID(order.ID); err == nil {
			s.Notify.PaymentStatusChanged(updated)
		}
	}
	return nil
}

// HandlePaymentFailed processes payment_intent.payment_failed. The raw
// processor message is kept server-side only.
func (s *PaymentService) HandlePaymentFailed(pi *stripe.PaymentIntent) error {
	order, err := s.orderForIntent(pi.ID)
	if err != nil {
		return err
	}

	msg := "payment failed"
	if pi.LastPaymentError != nil && pi.LastPaymentError.Msg != "" {
		msg = pi.LastPaymentError.Msg
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		_, err := s.Orders.PaymentStatusGuard(tx, order.ID,
			[]entity.PaymentStatus{entity.PaymentPending, entity.PaymentProcessing},
			entity.PaymentFailed,
			map[string]any{"payment_error": msg},
		)
		return err
	})
}

// HandleChargeRefunded processes charge.refunded. The from set includes
// completed and the in-flight states so a refund event that outruns its
// success event still lands, while the late success then no-ops against
// refunded.
func (s *PaymentService) HandleChargeRefunded(ch *stripe.Charge) error {
	if ch.PaymentIntent == nil {
		return apperr.New(apperr.KindValidation, "charge has no payment intent")
	}
	order, err := s.orderForIntent(ch.PaymentIntent.ID)
	if err != nil {
		return err
	}

	var applied bool
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		affected, err := s.Orders.PaymentStatusGuard(tx, order.ID,
			[]entity.PaymentStatus{entity.PaymentPending, entity.PaymentProcessing, entity.PaymentCompleted},
			entity.PaymentRefunded,
			map[string]any{"refund_amount": ch.AmountRefunded, "refunded_at": now},
		)
		if err != nil {
			return err
		}
		if affected == 0 {
			return nil
		}
		applied = true

		return s.Orders.AppendTimeline(tx, &entity.OrderTimelineEntry{
			OrderID:   order.ID,
			Status:    order.Status,
			Timestamp: now,
			Notes:     fmt.Sprintf("Refunded %d cents", ch.AmountRefunded),
		})
	})
	if err != nil || !applied {
		return err
	}

	if s.Notify != nil {
		if updated, err := s.Orders.GetByID(order.ID); err == nil {
			s.Notify.PaymentStatusChanged(updated)
		}
	}
	return nil
}

type RefundIn struct {
	Amount int64 `json:"amount"` // cents; zero refunds the full charge
}

// CreateRefund asks the processor to refund a paid order. The order's
// payment status only flips when the charge.refunded webhook arrives, so
// the database cannot claim a refund the processor never made.
func (s *PaymentService) CreateRefund(orderID uint, in *RefundIn) error {
	order, err := s.Orders.GetByID(orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.New(apperr.KindNotFound, "order not found")
	}
	if err != nil {
		return err
	}
	if order.PaymentStatus != entity.PaymentCompleted {
		return apperr.New(apperr.KindValidation, "only paid orders can be refunded")
	}
	if order.PaymentIntentID == "" {
		return apperr.New(apperr.KindValidation, "order has no payment intent")
	}
	if in.Amount < 0 || in.Amount > order.Total {
		return apperr.New(apperr.KindValidation, "refund amount exceeds the order total")
	}

	params := &stripe.RefundParams{PaymentIntent: stripe.String(order.PaymentIntentID)}
	if in.Amount > 0 {
		params.Amount = stripe.Int64(in.Amount)
	}
	if _, err := s.Stripe.CreateRefund(params); err != nil {
		return apperr.Wrap(apperr.KindPayment, "creating refund", err)
	}
	return nil
}

func (s *PaymentService) orderForIntent(intentID string) (*entity.Order, error) {
	if intentID == "" {
		return nil, apperr.New(apperr.KindValidation, "missing payment intent id")
	}
	order, err := s.Orders.GetByPaymentIntent(intentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.KindNotFound, "no order for payment intent")
	}
	return order, err
}
