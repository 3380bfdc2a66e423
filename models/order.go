package models

import "time"

// OrderStatus represents all possible states of an order envelope
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusInProcess OrderStatus = "inProcess"
	StatusReady     OrderStatus = "ready"
	StatusOnTheWay  OrderStatus = "onTheWay"
	StatusReceived  OrderStatus = "received" // terminal: the envelope is deleted
	StatusDeleted   OrderStatus = "deleted"  // staff cancel marker, not part of the forward chain
)

// ReceiveType is the delivery/pickup method, split by payment method
type ReceiveType string

const (
	ReceiveCashOnDelivery ReceiveType = "cashOnDelivery"
	ReceiveCardOnDelivery ReceiveType = "cardOnDelivery"
	ReceivePickupAtBranch ReceiveType = "pickupAtBranch"
	ReceiveCardAtBranch   ReceiveType = "cardAtBranch"
)

// Valid reports whether rt is one of the four receive methods.
func (rt ReceiveType) Valid() bool {
	switch rt {
	case ReceiveCashOnDelivery, ReceiveCardOnDelivery, ReceivePickupAtBranch, ReceiveCardAtBranch:
		return true
	}
	return false
}

// RequiresAddress reports whether rt is a delivery variant. Pickup
// variants ignore any submitted address.
func (rt ReceiveType) RequiresAddress() bool {
	return rt == ReceiveCashOnDelivery || rt == ReceiveCardOnDelivery
}

// Order is the customer-facing envelope grouping the lines of one
// submitted cart. Lines are joined through the explicit order_line_links
// table so they can be bulk-inserted before the envelope id exists.
type Order struct {
	ID          uint        `json:"id" gorm:"primaryKey"`
	UserID      uint        `json:"user_id" gorm:"not null"`
	User        User        `json:"user,omitempty" gorm:"foreignKey:UserID"`
	BranchID    uint        `json:"branch_id" gorm:"not null"`
	Branch      Branch      `json:"branch,omitempty" gorm:"foreignKey:BranchID"`
	ReceiveType ReceiveType `json:"receive_type" gorm:"not null;check:receive_type <> ''"`
	Address     string      `json:"address"` // present iff ReceiveType is a delivery variant
	Message     string      `json:"message"`
	Status      OrderStatus `json:"status" gorm:"not null;default:'pending'"`
	TotalCents  int64       `json:"total_cents"`
	Lines       []OrderLine `json:"lines,omitempty" gorm:"many2many:order_line_links;"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// OrderLine is one product+quantity entry. Immutable once created and
// owned by exactly one envelope via the link table.
type OrderLine struct {
	ID         uint    `json:"id" gorm:"primaryKey"`
	ProductID  uint    `json:"product_id" gorm:"not null"`
	Product    Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Quantity   int     `json:"quantity" gorm:"not null;check:quantity > 0"`
	PriceCents int64   `json:"price_cents" gorm:"not null"` // snapshot price at time of order
	Name       string  `json:"name"`                        // snapshot name
}

// OrderLineLink associates a line with exactly one envelope.
type OrderLineLink struct {
	OrderID     uint `json:"order_id" gorm:"primaryKey"`
	OrderLineID uint `json:"order_line_id" gorm:"primaryKey"`
}

func (OrderLineLink) TableName() string { return "order_line_links" }
