package controllers

import (
	"strconv"
	"time"

	"github.com/uchikuch/restaurant-pos-system/entity"
	"github.com/uchikuch/restaurant-pos-system/pkg/resp"
	"github.com/uchikuch/restaurant-pos-system/repository"
	"github.com/uchikuch/restaurant-pos-system/services"
	"github.com/uchikuch/restaurant-pos-system/utils"

	"github.com/gin-gonic/gin"
)

type OrderController struct {
	Orders *services.OrderService
	Carts  *services.CartService
}

func NewOrderController(orders *services.OrderService, carts *services.CartService) *OrderController {
	return &OrderController{Orders: orders, Carts: carts}
}

func (oc *OrderController) Create(c *gin.Context) {
	var req services.CreateOrderIn
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	order, err := oc.Orders.Create(utils.CurrentUserID(c), &req)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.Created(c, order)
}

type CheckoutReq struct {
	Tip                int64      `json:"tip"`
	ScheduledFor       *time.Time `json:"scheduledFor"`
	LoyaltyPointsToUse int        `json:"loyaltyPointsToUse"`
}

// Checkout turns the user's cart into an order. The cart is only cleared
// once the order exists.
func (oc *OrderController) Checkout(c *gin.Context) {
	uid := utils.CurrentUserID(c)

	var req CheckoutReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}

	draft, err := oc.Carts.ConvertToOrderDraft(uid)
	if err != nil {
		resp.Error(c, err)
		return
	}
	draft.Tip = req.Tip
	draft.ScheduledFor = req.ScheduledFor
	draft.LoyaltyPointsToUse = req.LoyaltyPointsToUse

	order, err := oc.Orders.Create(uid, draft)
	if err != nil {
		resp.Error(c, err)
		return
	}

	// The order exists; a stale cart is the lesser problem, so a failed
	// clear is not surfaced.
	oc.Carts.Clear(services.CartOwner{UserID: &uid})
	resp.Created(c, order)
}

func (oc *OrderController) List(c *gin.Context) {
	f := repository.OrderFilter{
		Status:        entity.OrderStatus(c.Query("status")),
		PaymentStatus: entity.PaymentStatus(c.Query("paymentStatus")),
		OrderType:     c.Query("orderType"),
		Search:        c.Query("search"),
		Page:          atoiDefault(c.Query("page"), 1),
		Limit:         atoiDefault(c.Query("limit"), 20),
	}
	if t, err := time.Parse(time.RFC3339, c.Query("startDate")); err == nil {
		f.StartDate = &t
	}
	if t, err := time.Parse(time.RFC3339, c.Query("endDate")); err == nil {
		f.EndDate = &t
	}

	// Customers only ever see their own orders.
	if utils.CurrentRole(c) == entity.RoleCustomer {
		f.UserID = utils.CurrentUserID(c)
	} else if v := c.Query("userId"); v != "" {
		f.UserID = uint(atoiDefault(v, 0))
	}

	orders, total, err := oc.Orders.List(f)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, gin.H{"orders": orders, "total": total, "page": f.Page, "limit": f.Limit})
}

func (oc *OrderController) KitchenList(c *gin.Context) {
	var staffID uint
	if v := c.Query("assignedTo"); v != "" {
		staffID = uint(atoiDefault(v, 0))
	}
	orders, total, err := oc.Orders.KitchenList(staffID, atoiDefault(c.Query("page"), 1), atoiDefault(c.Query("limit"), 50))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, gin.H{"orders": orders, "total": total})
}

func (oc *OrderController) Get(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	order, err := oc.Orders.GetByID(utils.CurrentUserID(c), utils.CurrentRole(c), orderID)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, order)
}

func (oc *OrderController) GetByNumber(c *gin.Context) {
	order, err := oc.Orders.GetByOrderNumber(utils.CurrentUserID(c), utils.CurrentRole(c), c.Param("orderNumber"))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, order)
}

type UpdateStatusReq struct {
	Status entity.OrderStatus `json:"status" binding:"required"`
	Notes  string             `json:"notes"`
}

func (oc *OrderController) UpdateStatus(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req UpdateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	order, err := oc.Orders.UpdateStatus(utils.CurrentUserID(c), utils.CurrentRole(c), orderID, req.Status, req.Notes)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, order)
}

func (oc *OrderController) AssignStaff(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.AssignStaffIn
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	order, err := oc.Orders.AssignStaff(utils.CurrentUserID(c), orderID, req.StaffID)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, order)
}

func (oc *OrderController) Rate(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.RatingIn
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	order, err := oc.Orders.AddRating(utils.CurrentUserID(c), orderID, &req)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, order)
}

func (oc *OrderController) Update(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.UpdateOrderIn
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	order, err := oc.Orders.Update(orderID, &req)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, order)
}

func (oc *OrderController) Delete(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := oc.Orders.Remove(orderID); err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, gin.H{"deleted": true})
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		resp.BadRequest(c, "invalid id")
		return 0, false
	}
	return uint(id), true
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
