package routes

import (
	"github.com/uchikuch/restaurant-pos-system/configs"
	"github.com/uchikuch/restaurant-pos-system/controllers"
	"github.com/uchikuch/restaurant-pos-system/entity"
	"github.com/uchikuch/restaurant-pos-system/middlewares"
	"github.com/uchikuch/restaurant-pos-system/repository"
	"github.com/uchikuch/restaurant-pos-system/services"
	"github.com/uchikuch/restaurant-pos-system/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg *configs.Config, hub *ws.OrderHub) {
	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	// Repositories
	userRepo := repository.NewUserRepository(db)
	menuRepo := repository.NewMenuRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	loyaltyRepo := repository.NewLoyaltyRepository(db)

	// Services
	authSvc := services.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTTTL)
	cartSvc := services.NewCartService(db, cartRepo, menuRepo, cfg.TaxRate, cfg.DeliveryFeeCents, cfg.CartTTL)
	loyaltySvc := services.NewLoyaltyService(db, loyaltyRepo)
	orderSvc := services.NewOrderService(db, orderRepo, menuRepo, userRepo, loyaltySvc, hub, cfg.TaxRate, cfg.DeliveryFeeCents)
	stripeClient := services.NewStripeClient(cfg.StripeSecretKey)
	paymentSvc := services.NewPaymentService(db, orderRepo, stripeClient, hub, cfg.StripeCurrency)

	// Controllers
	authCtrl := controllers.NewAuthController(authSvc, cartSvc)
	cartCtrl := controllers.NewCartController(cartSvc)
	orderCtrl := controllers.NewOrderController(orderSvc, cartSvc)
	paymentCtrl := controllers.NewPaymentController(paymentSvc, cfg.StripeWebhookSecret)
	loyaltyCtrl := controllers.NewLoyaltyController(loyaltySvc)
	menuCtrl := controllers.NewMenuController(menuRepo)
	categoryCtrl := controllers.NewCategoryController(menuRepo)
	adminCtrl := controllers.NewAdminController(userRepo)

	// Auth (public)
	a := r.Group("/auth")
	{
		a.POST("/register", authCtrl.Register)
		a.POST("/login", authCtrl.Login)
	}
	aAuth := a.Group("", middlewares.AuthMiddleware(cfg.JWTSecret))
	{
		aAuth.GET("/me", authCtrl.Profile)
		aAuth.PATCH("/me", authCtrl.UpdateProfile)
	}

	// Menu (public reads)
	r.GET("/menu", menuCtrl.List)
	r.GET("/menu/:id", menuCtrl.Get)
	r.GET("/categories", categoryCtrl.List)
	r.GET("/categories/:id", categoryCtrl.Get)

	// Menu (admin writes)
	menuAdmin := r.Group("", middlewares.AuthMiddleware(cfg.JWTSecret, entity.RoleAdmin))
	{
		menuAdmin.POST("/menu", menuCtrl.Create)
		menuAdmin.PUT("/menu/:id", menuCtrl.Update)
		menuAdmin.DELETE("/menu/:id", menuCtrl.Delete)
		menuAdmin.POST("/categories", categoryCtrl.Create)
		menuAdmin.PUT("/categories/:id", categoryCtrl.Update)
		menuAdmin.DELETE("/categories/:id", categoryCtrl.Delete)
	}

	// Cart: works for guests (session header) and logged-in users alike.
	cart := r.Group("/cart", middlewares.OptionalAuthMiddleware(cfg.JWTSecret))
	{
		cart.GET("", cartCtrl.Get)
		cart.POST("/items", cartCtrl.AddItem)
		cart.PATCH("/items/:itemId", cartCtrl.UpdateItem)
		cart.DELETE("/items/:itemId", cartCtrl.RemoveItem)
		cart.PATCH("", cartCtrl.UpdateSettings)
		cart.POST("/clear", cartCtrl.Clear)
		cart.DELETE("", cartCtrl.Delete)
	}

	// Orders (customer)
	u := r.Group("", middlewares.AuthMiddleware(cfg.JWTSecret))
	{
		u.POST("/orders", orderCtrl.Create)
		u.POST("/checkout", orderCtrl.Checkout)
		u.GET("/orders", orderCtrl.List)
		u.GET("/orders/:id", orderCtrl.Get)
		u.GET("/order-number/:orderNumber", orderCtrl.GetByNumber)
		u.PATCH("/orders/:id/status", orderCtrl.UpdateStatus)
		u.POST("/orders/:id/rating", orderCtrl.Rate)

		u.POST("/orders/:id/payment-intent", paymentCtrl.CreateIntent)

		u.GET("/loyalty/account", loyaltyCtrl.GetAccount)
		u.GET("/loyalty/transactions", loyaltyCtrl.Transactions)
	}

	// Kitchen (staff/admin)
	kitchen := r.Group("/kitchen", middlewares.AuthMiddleware(cfg.JWTSecret, entity.RoleKitchenStaff, entity.RoleAdmin))
	{
		kitchen.GET("/orders", orderCtrl.KitchenList)
		kitchen.PATCH("/orders/:id/assign", orderCtrl.AssignStaff)
		kitchen.PATCH("/orders/:id", orderCtrl.Update)
	}

	// Admin
	admin := r.Group("/admin", middlewares.AuthMiddleware(cfg.JWTSecret, entity.RoleAdmin))
	{
		admin.GET("/users", adminCtrl.ListUsers)
		admin.PATCH("/users/:id", adminCtrl.UpdateUser)
		admin.DELETE("/orders/:id", orderCtrl.Delete)
		admin.POST("/orders/:id/refund", paymentCtrl.Refund)
		admin.POST("/loyalty/bonus", loyaltyCtrl.AddBonus)
		admin.GET("/loyalty/stats", loyaltyCtrl.Stats)
	}

	// Webhooks: signature-verified, never behind auth.
	r.POST("/webhooks/stripe", paymentCtrl.Webhook)

	// WebSocket order events
	r.GET("/ws/orders", middlewares.WSAuthMiddleware(cfg.JWTSecret), hub.HandleWebSocket)
}
