package ws

import (
	"log"
	"net/http"
	"sync"

	"github.com/uchikuch/restaurant-pos-system/entity"
	"github.com/uchikuch/restaurant-pos-system/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// OrderHub pushes order and payment events over WebSocket. Customers get
// events for their own orders; kitchen staff and admins get every event.
type OrderHub struct {
	clients    map[uint]map[*websocket.Conn]bool // userID -> connections
	staff      map[*websocket.Conn]bool
	broadcast  chan event
	register   chan subscription
	unregister chan subscription
	mu         sync.Mutex
}

type subscription struct {
	Conn   *websocket.Conn
	UserID uint
	Staff  bool
}

type event struct {
	UserID  uint // customer the event belongs to
	Payload Event
}

// Event is the wire shape sent to clients.
type Event struct {
	Type          string               `json:"type"`
	OrderID       uint                 `json:"orderId"`
	OrderNumber   string               `json:"orderNumber"`
	Status        entity.OrderStatus   `json:"status"`
	PaymentStatus entity.PaymentStatus `json:"paymentStatus"`
	Previous      entity.OrderStatus   `json:"previousStatus,omitempty"`
}

func NewOrderHub() *OrderHub {
	return &OrderHub{
		clients:    make(map[uint]map[*websocket.Conn]bool),
		staff:      make(map[*websocket.Conn]bool),
		broadcast:  make(chan event),
		register:   make(chan subscription),
		unregister: make(chan subscription),
	}
}

func (h *OrderHub) Run() {
	for {
		select {
		case sub := <-h.register:
			h.mu.Lock()
			if h.clients[sub.UserID] == nil {
				h.clients[sub.UserID] = make(map[*websocket.Conn]bool)
			}
			h.clients[sub.UserID][sub.Conn] = true
			if sub.Staff {
				h.staff[sub.Conn] = true
			}
			h.mu.Unlock()

		case sub := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[sub.UserID][sub.Conn]; ok {
				delete(h.clients[sub.UserID], sub.Conn)
				sub.Conn.Close()
			}
			delete(h.staff, sub.Conn)
			h.mu.Unlock()

		case ev := <-h.broadcast:
			h.mu.Lock()
			for conn := range h.clients[ev.UserID] {
				h.write(conn, ev.UserID, ev.Payload)
			}
			for conn := range h.staff {
				if h.clients[ev.UserID][conn] {
					continue // already sent as the owner
				}
				h.write(conn, 0, ev.Payload)
			}
			h.mu.Unlock()
		}
	}
}

// write assumes h.mu is held.
func (h *OrderHub) write(conn *websocket.Conn, owner uint, ev Event) {
	if err := conn.WriteJSON(ev); err != nil {
		log.Printf("ws write error: %v", err)
		conn.Close()
		if owner != 0 {
			delete(h.clients[owner], conn)
		}
		delete(h.staff, conn)
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WS route: /ws/orders
func (h *OrderHub) HandleWebSocket(c *gin.Context) {
	userID := utils.CurrentUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "unauthorized"})
		return
	}
	role := utils.CurrentRole(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}

	sub := subscription{
		Conn:   conn,
		UserID: userID,
		Staff:  role == entity.RoleKitchenStaff || role == entity.RoleAdmin,
	}
	h.register <- sub

	go h.drain(sub)
}

// drain discards client frames; the stream is one-way. Reading is still
// required to notice a closed connection.
func (h *OrderHub) drain(sub subscription) {
	defer func() { h.unregister <- sub }()
	for {
		if _, _, err := sub.Conn.ReadMessage(); err != nil {
			break
		}
	}
}

// OrderCreated implements services.Notifier.
func (h *OrderHub) OrderCreated(order *entity.Order) {
	h.broadcast <- event{UserID: order.UserID, Payload: Event{
		Type:          "order.created",
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
	}}
}

func (h *OrderHub) OrderStatusChanged(order *entity.Order, previous entity.OrderStatus) {
	h.broadcast <- event{UserID: order.UserID, Payload: Event{
		Type:          "order.status_changed",
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		Previous:      previous,
	}}
}

func (h *OrderHub) PaymentStatusChanged(order *entity.Order) {
	h.broadcast <- event{UserID: order.UserID, Payload: Event{
		Type:          "payment.status_changed",
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
	}}
}
