package handlers

import (
	"net/http"
	"strings"

	"branch-order-api/middleware"
	"branch-order-api/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Staff dashboards connect from separate origins; the token is the
	// actual gate.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ConnectWS authenticates a staff token and joins the connection to the
// caller's room. Browsers can't set headers on websocket dials, so the
// token is also accepted as a query parameter.
func (h *Handler) ConnectWS(c *gin.Context) {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		tokenStr = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	}
	if tokenStr == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "Token required"})
		return
	}

	claims, err := middleware.ParseToken(tokenStr, h.jwtSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "Invalid or expired token"})
		return
	}
	if claims.Role != models.RoleStaff && claims.Role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": "Staff only"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	h.hub.Register(conn, claims.UserID)
}
