package payment

import (
	"context"
	"errors"
)

// ErrAlreadyAttached is returned when a card's fingerprint matches an
// instrument already attached to the same customer. Fingerprint equality
// is the canonical dedup key — the card number is never stored or compared.
var ErrAlreadyAttached = errors.New("card is already attached to this customer")

// CustomerRecord references a gateway-resident customer. Only
// identifiers cross the boundary; no gateway secrets are persisted.
type CustomerRecord struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Profile is the minimum identity needed to provision a gateway customer.
type Profile struct {
	UserID uint
	Name   string
	Email  string
	Phone  string
}

// CardDetails are raw card fields submitted for tokenization.
type CardDetails struct {
	Number   string `json:"number"`
	ExpMonth int64  `json:"exp_month"`
	ExpYear  int64  `json:"exp_year"`
	CVC      string `json:"cvc"`
}

// CardHandle is a tokenized payment instrument.
type CardHandle struct {
	ID          string `json:"id"`
	Fingerprint string `json:"-"`
	Brand       string `json:"brand"`
	Last4       string `json:"last4"`
}

// ChargeResult is the structured outcome of a charge attempt. Gateway
// failures are captured here, never raised, so callers make one uniform
// pass/fail decision.
type ChargeResult struct {
	Status    string `json:"status"` // "succeeded" or "error"
	Reference string `json:"reference,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Ok reports whether the charge settled.
func (r ChargeResult) Ok() bool { return r.Status == "succeeded" }

// Provider is the low-level gateway surface. Implementations translate
// these calls to one payment provider; Service layers the workflow
// semantics (lazy provisioning, dedup, outcome capture) on top.
type Provider interface {
	// FindCustomerByTag looks up a customer by the opaque tag carrying
	// the internal user id. A missing customer is (nil, nil).
	FindCustomerByTag(ctx context.Context, tag string) (*CustomerRecord, error)
	CreateCustomer(ctx context.Context, tag, name, email, phone string) (*CustomerRecord, error)
	// CreateSetupIntent returns the one-time client secret used by the
	// client to register a card directly with the gateway.
	CreateSetupIntent(ctx context.Context, customerID string) (string, error)
	CreateCardMethod(ctx context.Context, card CardDetails) (*CardHandle, error)
	GetCardMethod(ctx context.Context, methodID string) (*CardHandle, error)
	AttachMethod(ctx context.Context, customerID, methodID string) error
	// ListCardFingerprints maps fingerprint → method id for every card
	// currently attached to the customer.
	ListCardFingerprints(ctx context.Context, customerID string) (map[string]string, error)
	// CreateOffSessionCharge attempts an off-session confirmed charge
	// and returns the gateway reference on success.
	CreateOffSessionCharge(ctx context.Context, customerID, methodID string, amountCents int64, description string) (string, error)
	DetachMethod(ctx context.Context, methodID string) error
	DeleteCustomer(ctx context.Context, customerID string) error
}
