package handlers

import (
	"errors"
	"net/http"

	"branch-order-api/middleware"
	"branch-order-api/models"
	"branch-order-api/payment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func profileOf(user *models.User) payment.Profile {
	return payment.Profile{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Phone:  user.Phone,
	}
}

// CreateSetupIntent lazily provisions the gateway customer and returns
// the one-time secret the client uses to register a card directly with
// the gateway.
func (h *Handler) CreateSetupIntent(c *gin.Context) {
	user, err := h.directory.Profile(middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "User not found"})
		return
	}
	customer, err := h.payments.EnsureCustomer(c.Request.Context(), profileOf(user))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"status": "error", "message": err.Error()})
		return
	}
	secret, err := h.payments.CreateSetupIntent(c.Request.Context(), customer.ID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"status": "error", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "client_secret": secret})
}

// RegisterCard tokenizes raw card fields and attaches the instrument to
// the caller's gateway customer, deduplicated by card fingerprint.
func (h *Handler) RegisterCard(c *gin.Context) {
	var card payment.CardDetails
	if err := c.ShouldBindJSON(&card); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	user, err := h.directory.Profile(middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "User not found"})
		return
	}
	customer, err := h.payments.EnsureCustomer(c.Request.Context(), profileOf(user))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"status": "error", "message": err.Error()})
		return
	}

	handle, err := h.payments.RegisterCard(c.Request.Context(), card)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	if err := h.payments.AttachCard(c.Request.Context(), customer.ID, handle.ID); err != nil {
		if errors.Is(err, payment.ErrAlreadyAttached) {
			c.JSON(http.StatusConflict, gin.H{"status": "error", "message": err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "ok", "message": "Card attached", "card": handle})
}

// DetachCard removes a card from the gateway. Best-effort: a gateway
// failure is reported but nothing local rolls back.
func (h *Handler) DetachCard(c *gin.Context) {
	methodID := c.Param("id")
	if err := h.payments.DetachCard(c.Request.Context(), methodID); err != nil {
		h.log.Warn("card detach failed", zap.String("method_id", methodID), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"status": "error", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Card detached"})
}

// DeletePaymentCustomer removes the caller's gateway customer record.
func (h *Handler) DeletePaymentCustomer(c *gin.Context) {
	userID := middleware.GetUserID(c)
	customer := h.payments.ResolveCustomer(c.Request.Context(), userID)
	if customer == nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "No payment profile on file"})
		return
	}
	if err := h.payments.DeleteCustomer(c.Request.Context(), customer.ID); err != nil {
		h.log.Warn("customer delete failed", zap.Uint("user_id", userID), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"status": "error", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Payment profile deleted"})
}
