package ledger

import (
	"errors"
	"fmt"

	"branch-order-api/models"
	"branch-order-api/statemachine"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrNotFound      = errors.New("order not found")
	ErrUnknownBranch = errors.New("branch not found")
	ErrInvalidTarget = errors.New("invalid target status")
	ErrBadReceive    = errors.New("invalid receive type")
	ErrNoAddress     = errors.New("delivery orders require an address")
	ErrTerminal      = errors.New("order is no longer active")
)

// LineInput is one validated cart entry with its snapshot price.
type LineInput struct {
	ProductID  uint
	Quantity   int
	PriceCents int64
	Name       string
}

// Ledger owns the order envelope, its lines, and the link rows between
// them, plus the status lifecycle.
type Ledger struct {
	db  *gorm.DB
	log *zap.Logger
}

func New(db *gorm.DB, log *zap.Logger) *Ledger {
	return &Ledger{db: db, log: log}
}

// CreateEnvelope persists the envelope, its lines, and the link rows in
// one transaction: either all three collections gain rows or none do.
// The address is required for delivery variants and stripped for pickup
// variants before anything is written.
func (l *Ledger) CreateEnvelope(userID, branchID uint, receiveType models.ReceiveType, address, message string, lines []LineInput) (*models.Order, error) {
	if !receiveType.Valid() {
		return nil, ErrBadReceive
	}
	if receiveType.RequiresAddress() {
		if address == "" {
			return nil, ErrNoAddress
		}
	} else {
		address = ""
	}

	var branch models.Branch
	if err := l.db.First(&branch, branchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownBranch
		}
		return nil, fmt.Errorf("failed to resolve branch: %w", err)
	}

	var total int64
	for _, in := range lines {
		total += in.PriceCents * int64(in.Quantity)
	}

	order := models.Order{
		UserID:      userID,
		BranchID:    branchID,
		ReceiveType: receiveType,
		Address:     address,
		Message:     message,
		Status:      models.StatusPending,
		TotalCents:  total,
	}

	err := l.db.Transaction(func(tx *gorm.DB) error {
		inserted := make([]models.OrderLine, 0, len(lines))
		for _, in := range lines {
			line := models.OrderLine{
				ProductID:  in.ProductID,
				Quantity:   in.Quantity,
				PriceCents: in.PriceCents,
				Name:       in.Name,
			}
			if err := tx.Create(&line).Error; err != nil {
				return fmt.Errorf("failed to insert order line: %w", err)
			}
			inserted = append(inserted, line)
		}
		if err := tx.Omit("Lines").Create(&order).Error; err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}
		for _, line := range inserted {
			link := models.OrderLineLink{OrderID: order.ID, OrderLineID: line.ID}
			if err := tx.Create(&link).Error; err != nil {
				return fmt.Errorf("failed to link order line: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.log.Info("order created",
		zap.Uint("order_id", order.ID),
		zap.Uint("branch_id", branchID),
		zap.Int("lines", len(lines)),
		zap.Int64("total_cents", total))

	return l.Load(order.ID)
}

// Transition moves an envelope to any of the five named states. The
// source chain is not adjacency-checked; membership is the only rule.
// A received target deletes the envelope and its rows instead of
// writing a status.
func (l *Ledger) Transition(orderID uint, target models.OrderStatus) error {
	if !statemachine.ValidTarget(target) {
		return ErrInvalidTarget
	}

	order, err := l.find(orderID)
	if err != nil {
		return err
	}

	if statemachine.Terminal(target) {
		return l.deleteEnvelope(order)
	}

	if err := l.db.Model(order).Update("status", target).Error; err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	l.log.Info("order advanced",
		zap.Uint("order_id", orderID), zap.String("status", string(target)))
	return nil
}

// Cancel sets the deleted marker. Allowed at any non-terminal state; a
// received envelope is already gone and reports ErrNotFound.
func (l *Ledger) Cancel(orderID uint) error {
	order, err := l.find(orderID)
	if err != nil {
		return err
	}
	if order.Status == models.StatusDeleted {
		return ErrTerminal
	}
	if err := l.db.Model(order).Update("status", models.StatusDeleted).Error; err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}
	l.log.Info("order cancelled", zap.Uint("order_id", orderID))
	return nil
}

// ListOpen returns envelopes still in play, newest first, optionally
// scoped to one branch. Cancelled envelopes stay out of the default
// dashboard but can be included on request.
func (l *Ledger) ListOpen(branchID *uint, includeCancelled bool) ([]models.Order, error) {
	query := l.db.
		Preload("Lines").Preload("Lines.Product").
		Preload("User").Preload("Branch")
	if branchID != nil {
		query = query.Where("branch_id = ?", *branchID)
	}
	if !includeCancelled {
		query = query.Where("status <> ?", models.StatusDeleted)
	}
	var orders []models.Order
	if err := query.Order("created_at desc").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// Load returns the fully-populated envelope: lines with their product
// join, the owning user profile, and the branch.
func (l *Ledger) Load(orderID uint) (*models.Order, error) {
	var order models.Order
	err := l.db.
		Preload("Lines").Preload("Lines.Product").
		Preload("User").Preload("Branch").
		First(&order, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return &order, nil
}

func (l *Ledger) find(orderID uint) (*models.Order, error) {
	var order models.Order
	if err := l.db.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return &order, nil
}

// deleteEnvelope removes the envelope, its link rows, and the lines the
// links owned, all in one transaction. No references may survive the
// terminal state.
func (l *Ledger) deleteEnvelope(order *models.Order) error {
	err := l.db.Transaction(func(tx *gorm.DB) error {
		var links []models.OrderLineLink
		if err := tx.Where("order_id = ?", order.ID).Find(&links).Error; err != nil {
			return err
		}
		lineIDs := make([]uint, 0, len(links))
		for _, link := range links {
			lineIDs = append(lineIDs, link.OrderLineID)
		}
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderLineLink{}).Error; err != nil {
			return err
		}
		if len(lineIDs) > 0 {
			if err := tx.Delete(&models.OrderLine{}, lineIDs).Error; err != nil {
				return err
			}
		}
		return tx.Delete(order).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete received order: %w", err)
	}
	l.log.Info("order received and removed", zap.Uint("order_id", order.ID))
	return nil
}
