package routes

import (
	"branch-order-api/handlers"
	"branch-order-api/middleware"
	"branch-order-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, h *handlers.Handler, jwtSecret []byte) {
	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		public.GET("/branches", h.ListBranches)
		public.GET("/branches/:id", h.GetBranch)
		public.GET("/products/:id", h.GetProduct)

		// Lifecycle info (great for docs/Postman)
		public.GET("/lifecycle", h.GetLifecycle)
	}

	// ── Customer routes ────────────────────────────────────────────
	customer := r.Group("/api")
	customer.Use(middleware.AuthRequired(jwtSecret), middleware.RoleRequired(models.RoleCustomer))
	{
		customer.POST("/orders", h.SubmitOrder)
		customer.GET("/orders", h.GetMyOrders)
		customer.GET("/orders/:id", h.GetOrderDetail)

		customer.POST("/payment/setup-intent", h.CreateSetupIntent)
		customer.POST("/payment/cards", h.RegisterCard)
		customer.DELETE("/payment/cards/:id", h.DetachCard)
		customer.DELETE("/payment/customer", h.DeletePaymentCustomer)
	}

	// ── Staff routes ───────────────────────────────────────────────
	staff := r.Group("/api/staff")
	staff.Use(middleware.AuthRequired(jwtSecret), middleware.RoleRequired(models.RoleStaff, models.RoleAdmin))
	{
		staff.GET("/orders", h.ListOpenOrders)
		staff.PUT("/orders/:id/status", h.AdvanceOrder)
		staff.DELETE("/orders/:id", h.CancelOrder)
	}

	// ── Live updates ───────────────────────────────────────────────
	// Token checked inside the handler; websocket dials can't always
	// carry an Authorization header.
	r.GET("/ws", h.ConnectWS)
}
