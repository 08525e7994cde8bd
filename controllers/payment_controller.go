package controllers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/uchikuch/restaurant-pos-system/pkg/apperr"
	"github.com/uchikuch/restaurant-pos-system/pkg/resp"
	"github.com/uchikuch/restaurant-pos-system/services"
	"github.com/uchikuch/restaurant-pos-system/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"
)

type PaymentController struct {
	Payments *services.PaymentService

	WebhookSecret string
}

func NewPaymentController(payments *services.PaymentService, webhookSecret string) *PaymentController {
	return &PaymentController{Payments: payments, WebhookSecret: webhookSecret}
}

func (pc *PaymentController) CreateIntent(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	out, err := pc.Payments.CreatePaymentIntent(utils.CurrentUserID(c), orderID)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, out)
}

func (pc *PaymentController) Refund(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.RefundIn
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	if err := pc.Payments.CreateRefund(orderID, &req); err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, gin.H{"refundRequested": true})
}

// Webhook receives processor events. With a webhook secret configured the
// signature is verified; without one (local dev) the payload is trusted.
// Unknown event types are acknowledged so the processor stops retrying.
func (pc *PaymentController) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<16))
	if err != nil {
		resp.BadRequest(c, "cannot read payload")
		return
	}

	var event stripe.Event
	if pc.WebhookSecret != "" {
		event, err = webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), pc.WebhookSecret)
		if err != nil {
			resp.BadRequest(c, "invalid signature")
			return
		}
	} else if err := json.Unmarshal(payload, &event); err != nil {
		resp.BadRequest(c, "invalid payload")
		return
	}

	switch event.Type {
	case "payment_intent.succeeded":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			resp.BadRequest(c, "invalid event data")
			return
		}
		err = pc.Payments.HandlePaymentSucceeded(&pi)

	case "payment_intent.payment_failed":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			resp.BadRequest(c, "invalid event data")
			return
		}
		err = pc.Payments.HandlePaymentFailed(&pi)

	case "charge.refunded":
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			resp.BadRequest(c, "invalid event data")
			return
		}
		err = pc.Payments.HandleChargeRefunded(&ch)

	default:
		log.Printf("webhook: ignoring event type %s", event.Type)
		c.JSON(http.StatusOK, gin.H{"ok": true, "received": true})
		return
	}

	if err != nil {
		// An unknown intent is acknowledged; retrying cannot fix it.
		if apperr.IsKind(err, apperr.KindNotFound) || apperr.IsKind(err, apperr.KindValidation) {
			log.Printf("webhook %s: %v", event.Type, err)
			c.JSON(http.StatusOK, gin.H{"ok": true, "received": true})
			return
		}
		log.Printf("webhook %s failed: %v", event.Type, err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "received": true})
}
