package services

import (
	"strings"

	"github.com/uchikuch/restaurant-pos-system/entity"
	"github.com/uchikuch/restaurant-pos-system/pkg/apperr"
)

// allowedTransitions is the order status state machine. Completed and
// cancelled are terminal.
var allowedTransitions = map[entity.OrderStatus][]entity.OrderStatus{
	entity.OrderPending:        {entity.OrderConfirmed, entity.OrderCancelled},
	entity.OrderConfirmed:      {entity.OrderPreparing, entity.OrderCancelled},
	entity.OrderPreparing:      {entity.OrderReady, entity.OrderCancelled},
	entity.OrderReady:          {entity.OrderCompleted, entity.OrderOutForDelivery},
	entity.OrderOutForDelivery: {entity.OrderCompleted},
	entity.OrderCompleted:      {},
	entity.OrderCancelled:      {},
}

func IsValidStatus(s entity.OrderStatus) bool {
	_, ok := allowedTransitions[s]
	return ok
}

// CanTransition reports whether an order may move from one status to
// another, returning a descriptive error when it may not.
func CanTransition(from, to entity.OrderStatus) error {
	next, ok := allowedTransitions[from]
	if !ok {
		return apperr.Newf(apperr.KindValidation, "unknown order status %q", from)
	}
	for _, s := range next {
		if s == to {
			return nil
		}
	}
	if len(next) == 0 {
		return apperr.Newf(apperr.KindInvalidTransition, "order is %s and can no longer change status", from)
	}
	names := make([]string, len(next))
	for i, s := range next {
		names[i] = string(s)
	}
	return apperr.Newf(apperr.KindInvalidTransition, "cannot move order from %s to %s, valid next statuses: %s", from, to, strings.Join(names, ", "))
}
