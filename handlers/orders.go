package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"branch-order-api/ledger"
	"branch-order-api/middleware"
	"branch-order-api/models"
	"branch-order-api/notify"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SubmitOrderRequest struct {
	BranchID    uint               `json:"branch_id" binding:"required"`
	ReceiveType models.ReceiveType `json:"receive_type" binding:"required"`
	Address     string             `json:"address"`
	Message     string             `json:"message"`
	Lines       []struct {
		ProductID uint `json:"product_id" binding:"required"`
		Quantity  int  `json:"quantity" binding:"required,min=1"`
	} `json:"lines" binding:"required,min=1,dive"`
	// PaymentMethod is a gateway card handle; when set the order is
	// settled by card before anything is persisted.
	PaymentMethod string `json:"payment_method"`
}

// SubmitOrder turns a cart into a tracked envelope: validate, settle
// payment when requested, persist atomically, notify the branch
// audience, then clear the basket.
func (h *Handler) SubmitOrder(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req SubmitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}
	if !req.ReceiveType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid receive type"})
		return
	}
	if req.ReceiveType.RequiresAddress() && req.Address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Delivery orders require an address"})
		return
	}

	var branch models.Branch
	if err := h.db.First(&branch, req.BranchID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "Branch not found"})
		return
	}

	// Resolve every line through the catalog and snapshot its price.
	lines := make([]ledger.LineInput, 0, len(req.Lines))
	var total int64
	for _, reqLine := range req.Lines {
		var product models.Product
		if err := h.db.First(&product, reqLine.ProductID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error",
				"message": fmt.Sprintf("Product %d not found", reqLine.ProductID)})
			return
		}
		if !product.IsAvailable {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error",
				"message": "Product '" + product.Name + "' is not available"})
			return
		}
		total += product.PriceCents * int64(reqLine.Quantity)
		lines = append(lines, ledger.LineInput{
			ProductID:  product.ID,
			Quantity:   reqLine.Quantity,
			PriceCents: product.PriceCents,
			Name:       product.Name,
		})
	}

	// Card settlement gates persistence: an error outcome means no
	// envelope, no lines, no links, and an untouched basket.
	if req.PaymentMethod != "" {
		user, err := h.directory.Profile(userID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "User not found"})
			return
		}
		customer, err := h.payments.EnsureCustomer(c.Request.Context(), profileOf(user))
		if err != nil {
			c.JSON(http.StatusPaymentRequired, gin.H{"status": "error", "message": err.Error()})
			return
		}
		result := h.payments.Charge(c.Request.Context(), customer.ID, req.PaymentMethod, total,
			fmt.Sprintf("order for branch %s", branch.Name))
		if !result.Ok() {
			c.JSON(http.StatusPaymentRequired, gin.H{"status": "error", "message": result.Message})
			return
		}
	}

	order, err := h.ledger.CreateEnvelope(userID, req.BranchID, req.ReceiveType, req.Address, req.Message, lines)
	if err != nil {
		h.respondLedgerError(c, err)
		return
	}

	// The payload must reflect the persisted envelope, so the emit
	// happens strictly after the ledger write and before the basket
	// clear.
	targets, err := h.directory.NotifyTargets(req.BranchID)
	if err != nil {
		h.log.Error("failed to compute notify targets", zap.Uint("branch_id", req.BranchID), zap.Error(err))
	} else {
		h.hub.Emit(targets, notify.EventNewOrder, order)
	}

	if err := h.basket.Clear(c.Request.Context(), userID); err != nil {
		// The order stands; a stale basket is acceptable.
		h.log.Warn("failed to clear basket after order", zap.Uint("user_id", userID), zap.Error(err))
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":  "ok",
		"message": "Order placed successfully",
		"order":   order,
	})
}

type AdvanceOrderRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

// AdvanceOrder is the staff-facing wrapper over the ledger transition.
func (h *Handler) AdvanceOrder(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid order id"})
		return
	}
	var req AdvanceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	if err := h.ledger.Transition(orderID, req.Status); err != nil {
		h.respondLedgerError(c, err)
		return
	}

	message := "Order status updated"
	if req.Status == models.StatusReceived {
		message = "Order received and archived"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"message":    message,
		"order_id":   orderID,
		"new_status": req.Status,
	})
}

// CancelOrder sets the staff override marker on a non-terminal order.
func (h *Handler) CancelOrder(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid order id"})
		return
	}
	if err := h.ledger.Cancel(orderID); err != nil {
		h.respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Order cancelled", "order_id": orderID})
}

// ListOpenOrders is the staff dashboard: open envelopes with a
// per-status summary. Branch-assigned staff default to their branch;
// company-wide staff see everything unless they filter.
func (h *Handler) ListOpenOrders(c *gin.Context) {
	var branchID *uint
	if q := c.Query("branch_id"); q != "" {
		id, ok := parseUint(q)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid branch_id"})
			return
		}
		branchID = &id
	} else {
		branchID = middleware.GetBranchID(c)
	}
	includeCancelled := c.Query("include_cancelled") == "true"

	orders, err := h.ledger.ListOpen(branchID, includeCancelled)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to list orders"})
		return
	}

	summary := map[string]int{}
	for _, o := range orders {
		summary[string(o.Status)]++
	}
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"count":         len(orders),
		"order_summary": summary,
		"orders":        orders,
	})
}

// GetMyOrders returns the caller's own open envelopes.
func (h *Handler) GetMyOrders(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var orders []models.Order
	err := h.db.
		Preload("Lines").Preload("Lines.Product").Preload("Branch").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&orders).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to list orders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "count": len(orders), "orders": orders})
}

// GetOrderDetail returns one of the caller's envelopes fully loaded.
func (h *Handler) GetOrderDetail(c *gin.Context) {
	userID := middleware.GetUserID(c)
	orderID, ok := paramID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid order id"})
		return
	}
	order, err := h.ledger.Load(orderID)
	if err != nil {
		h.respondLedgerError(c, err)
		return
	}
	if order.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": "This order does not belong to you"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "order": order})
}

func (h *Handler) respondLedgerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "Order not found"})
	case errors.Is(err, ledger.ErrUnknownBranch):
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "Branch not found"})
	case errors.Is(err, ledger.ErrInvalidTarget):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"status": "error", "message": "Invalid target status"})
	case errors.Is(err, ledger.ErrBadReceive), errors.Is(err, ledger.ErrNoAddress):
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
	case errors.Is(err, ledger.ErrTerminal):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"status": "error", "message": err.Error()})
	default:
		h.log.Error("ledger operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Internal error"})
	}
}

func parseUint(s string) (uint, bool) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}
