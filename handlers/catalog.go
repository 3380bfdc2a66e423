package handlers

import (
	"net/http"

	"branch-order-api/models"
	"branch-order-api/statemachine"

	"github.com/gin-gonic/gin"
)

// The catalog surface is read-only; catalog management lives elsewhere.

// ListBranches returns every branch, main branch first.
func (h *Handler) ListBranches(c *gin.Context) {
	var branches []models.Branch
	if err := h.db.Order("is_main desc, id asc").Find(&branches).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to list branches"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "count": len(branches), "branches": branches})
}

// GetBranch returns one branch.
func (h *Handler) GetBranch(c *gin.Context) {
	branchID, ok := paramID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid branch id"})
		return
	}
	var branch models.Branch
	if err := h.db.First(&branch, branchID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "Branch not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "branch": branch})
}

// GetProduct resolves one product to its price and availability.
func (h *Handler) GetProduct(c *gin.Context) {
	productID, ok := paramID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid product id"})
		return
	}
	var product models.Product
	if err := h.db.First(&product, productID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "Product not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "product": product})
}

// GetLifecycle publishes the order status chain (great for docs/Postman).
func (h *Handler) GetLifecycle(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"chain":    statemachine.Chain,
		"steps":    statemachine.Describe(),
		"terminal": models.StatusReceived,
	})
}
