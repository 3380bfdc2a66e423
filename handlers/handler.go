package handlers

import (
	"strconv"

	"branch-order-api/basket"
	"branch-order-api/directory"
	"branch-order-api/ledger"
	"branch-order-api/notify"
	"branch-order-api/payment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler carries the orchestrator's collaborators. Everything is
// injected so tests can swap the gateway, basket, and bus.
type Handler struct {
	db        *gorm.DB
	ledger    *ledger.Ledger
	directory *directory.Directory
	basket    basket.Store
	payments  *payment.Service
	hub       *notify.Hub
	jwtSecret []byte
	log       *zap.Logger
}

func New(db *gorm.DB, led *ledger.Ledger, dir *directory.Directory, bask basket.Store, pay *payment.Service, hub *notify.Hub, jwtSecret []byte, log *zap.Logger) *Handler {
	return &Handler{
		db:        db,
		ledger:    led,
		directory: dir,
		basket:    bask,
		payments:  pay,
		hub:       hub,
		jwtSecret: jwtSecret,
		log:       log,
	}
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}
