package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Service wraps a Provider with the workflow semantics the orchestrator
// relies on: lookups that degrade to nil instead of failing, fingerprint
// dedup on attach, and charges that always return a structured outcome.
type Service struct {
	provider Provider
	timeout  time.Duration
	log      *zap.Logger
}

func NewService(provider Provider, timeout time.Duration, log *zap.Logger) *Service {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Service{provider: provider, timeout: timeout, log: log}
}

func (s *Service) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func userTag(userID uint) string {
	return strconv.FormatUint(uint64(userID), 10)
}

// ResolveCustomer returns the gateway customer tagged with the internal
// user id, or nil if absent. Lookup failure is treated identically to
// absence — never surfaced as an error to the caller.
func (s *Service) ResolveCustomer(ctx context.Context, userID uint) *CustomerRecord {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	rec, err := s.provider.FindCustomerByTag(ctx, userTag(userID))
	if err != nil {
		s.log.Debug("payment customer lookup failed, treating as absent",
			zap.Uint("user_id", userID), zap.Error(err))
		return nil
	}
	return rec
}

// ProvisionCustomer creates the gateway customer for a user profile,
// tagged with the internal user id for future lookups.
func (s *Service) ProvisionCustomer(ctx context.Context, profile Profile) (*CustomerRecord, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	rec, err := s.provider.CreateCustomer(ctx, userTag(profile.UserID), profile.Name, profile.Email, profile.Phone)
	if err != nil {
		return nil, fmt.Errorf("failed to provision payment customer: %w", err)
	}
	return rec, nil
}

// EnsureCustomer resolves the existing gateway customer or lazily
// provisions one on first payment-setup request.
func (s *Service) EnsureCustomer(ctx context.Context, profile Profile) (*CustomerRecord, error) {
	if rec := s.ResolveCustomer(ctx, profile.UserID); rec != nil {
		return rec, nil
	}
	return s.ProvisionCustomer(ctx, profile)
}

// CreateSetupIntent obtains the one-time token the client uses to
// register a new card directly with the gateway.
func (s *Service) CreateSetupIntent(ctx context.Context, customerID string) (string, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	secret, err := s.provider.CreateSetupIntent(ctx, customerID)
	if err != nil {
		return "", fmt.Errorf("failed to create setup intent: %w", err)
	}
	return secret, nil
}

// RegisterCard validates raw card fields and tokenizes them with the
// gateway.
func (s *Service) RegisterCard(ctx context.Context, card CardDetails) (*CardHandle, error) {
	if err := validateCard(card); err != nil {
		return nil, err
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()

	handle, err := s.provider.CreateCardMethod(ctx, card)
	if err != nil {
		return nil, fmt.Errorf("failed to register card: %w", err)
	}
	return handle, nil
}

// AttachCard attaches a tokenized card to a customer, rejecting with
// ErrAlreadyAttached when the fingerprint matches an existing instrument.
func (s *Service) AttachCard(ctx context.Context, customerID, methodID string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	handle, err := s.provider.GetCardMethod(ctx, methodID)
	if err != nil {
		return fmt.Errorf("failed to retrieve card: %w", err)
	}
	attached, err := s.provider.ListCardFingerprints(ctx, customerID)
	if err != nil {
		return fmt.Errorf("failed to list attached cards: %w", err)
	}
	if _, dup := attached[handle.Fingerprint]; dup {
		return ErrAlreadyAttached
	}
	if err := s.provider.AttachMethod(ctx, customerID, methodID); err != nil {
		return fmt.Errorf("failed to attach card: %w", err)
	}
	return nil
}

// Charge attempts an off-session confirmed charge. Every gateway-side
// failure — decline, transport error, timeout — is captured into the
// result, so the caller always receives a structured outcome.
func (s *Service) Charge(ctx context.Context, customerID, methodID string, amountCents int64, description string) ChargeResult {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	ref, err := s.provider.CreateOffSessionCharge(ctx, customerID, methodID, amountCents, description)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			msg = "payment gateway timed out"
		}
		s.log.Warn("charge failed",
			zap.String("customer", customerID), zap.Int64("amount_cents", amountCents), zap.Error(err))
		return ChargeResult{Status: "error", Message: msg}
	}
	return ChargeResult{Status: "succeeded", Reference: ref}
}

// DetachCard removes a card from the gateway. Best-effort: failure is
// reported but nothing local depends on it.
func (s *Service) DetachCard(ctx context.Context, methodID string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	return s.provider.DetachMethod(ctx, methodID)
}

// DeleteCustomer removes the gateway customer. Best-effort, like DetachCard.
func (s *Service) DeleteCustomer(ctx context.Context, customerID string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	return s.provider.DeleteCustomer(ctx, customerID)
}

func validateCard(card CardDetails) error {
	if n := len(card.Number); n < 12 || n > 19 || !digitsOnly(card.Number) {
		return errors.New("card number must be 12-19 digits")
	}
	if card.ExpMonth < 1 || card.ExpMonth > 12 {
		return errors.New("expiry month must be between 1 and 12")
	}
	now := time.Now()
	if card.ExpYear < int64(now.Year()) ||
		(card.ExpYear == int64(now.Year()) && card.ExpMonth < int64(now.Month())) {
		return errors.New("card is expired")
	}
	if n := len(card.CVC); n < 3 || n > 4 || !digitsOnly(card.CVC) {
		return errors.New("cvc must be 3 or 4 digits")
	}
	return nil
}

func digitsOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
