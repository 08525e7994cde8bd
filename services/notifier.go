package services

import "github.com/uchikuch/restaurant-pos-system/entity"

// Notifier pushes order lifecycle events to connected clients. The websocket
// hub implements it; NopNotifier is used in tests.
type Notifier interface {
	OrderCreated(order *entity.Order)
	OrderStatusChanged(order *entity.Order, previous entity.OrderStatus)
	PaymentStatusChanged(order *entity.Order)
}

type NopNotifier struct{}

func (NopNotifier) OrderCreated(*entity.Order)                           {}
func (NopNotifier) OrderStatusChanged(*entity.Order, entity.OrderStatus) {}
func (NopNotifier) PaymentStatusChanged(*entity.Order)                   {}
