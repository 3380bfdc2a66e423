package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeProvider is an in-memory gateway for exercising the service
// workflow without a network.
type fakeProvider struct {
	customers    map[string]*CustomerRecord // tag → record
	methods      map[string]*CardHandle     // method id → handle
	attached     map[string]map[string]string
	findErr      error
	chargeErr    error
	chargeRef    string
	deleted      []string
	detachedIDs  []string
	nextMethodID int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		customers: make(map[string]*CustomerRecord),
		methods:   make(map[string]*CardHandle),
		attached:  make(map[string]map[string]string),
		chargeRef: "pi_test_1",
	}
}

func (f *fakeProvider) FindCustomerByTag(ctx context.Context, tag string) (*CustomerRecord, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.customers[tag], nil
}

func (f *fakeProvider) CreateCustomer(ctx context.Context, tag, name, email, phone string) (*CustomerRecord, error) {
	rec := &CustomerRecord{ID: "cus_" + tag, Name: name, Email: email}
	f.customers[tag] = rec
	return rec, nil
}

func (f *fakeProvider) CreateSetupIntent(ctx context.Context, customerID string) (string, error) {
	return "seti_secret_" + customerID, nil
}

func (f *fakeProvider) CreateCardMethod(ctx context.Context, card CardDetails) (*CardHandle, error) {
	f.nextMethodID++
	handle := &CardHandle{
		ID: "pm_" + string(rune('a'+f.nextMethodID)),
		// Same pan → same fingerprint, like a real gateway.
		Fingerprint: "fp_" + card.Number,
		Brand:       "visa",
		Last4:       card.Number[len(card.Number)-4:],
	}
	f.methods[handle.ID] = handle
	return handle, nil
}

func (f *fakeProvider) GetCardMethod(ctx context.Context, methodID string) (*CardHandle, error) {
	handle, ok := f.methods[methodID]
	if !ok {
		return nil, errors.New("no such payment method")
	}
	return handle, nil
}

func (f *fakeProvider) AttachMethod(ctx context.Context, customerID, methodID string) error {
	if f.attached[customerID] == nil {
		f.attached[customerID] = make(map[string]string)
	}
	f.attached[customerID][f.methods[methodID].Fingerprint] = methodID
	return nil
}

func (f *fakeProvider) ListCardFingerprints(ctx context.Context, customerID string) (map[string]string, error) {
	out := make(map[string]string, len(f.attached[customerID]))
	for fp, id := range f.attached[customerID] {
		out[fp] = id
	}
	return out, nil
}

func (f *fakeProvider) CreateOffSessionCharge(ctx context.Context, customerID, methodID string, amountCents int64, description string) (string, error) {
	if f.chargeErr != nil {
		return "", f.chargeErr
	}
	return f.chargeRef, nil
}

func (f *fakeProvider) DetachMethod(ctx context.Context, methodID string) error {
	f.detachedIDs = append(f.detachedIDs, methodID)
	return nil
}

func (f *fakeProvider) DeleteCustomer(ctx context.Context, customerID string) error {
	f.deleted = append(f.deleted, customerID)
	return nil
}

func newTestService(p Provider) *Service {
	return NewService(p, time.Second, zap.NewNop())
}

func TestResolveCustomerTreatsFailureAsAbsence(t *testing.T) {
	fake := newFakeProvider()
	svc := newTestService(fake)
	ctx := context.Background()

	// Absent customer → nil, no error surfaced.
	assert.Nil(t, svc.ResolveCustomer(ctx, 42))

	// Lookup failure → identical to absence.
	fake.findErr = errors.New("gateway unreachable")
	assert.Nil(t, svc.ResolveCustomer(ctx, 42))
}

func TestEnsureCustomerProvisionsLazily(t *testing.T) {
	fake := newFakeProvider()
	svc := newTestService(fake)
	ctx := context.Background()
	profile := Profile{UserID: 42, Name: "Dana", Email: "dana@example.com"}

	rec, err := svc.EnsureCustomer(ctx, profile)
	require.NoError(t, err)
	assert.Equal(t, "cus_42", rec.ID)

	// Second call resolves the existing record instead of creating.
	again, err := svc.EnsureCustomer(ctx, profile)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, again.ID)
	assert.Len(t, fake.customers, 1)
}

func TestAttachCardFingerprintDedup(t *testing.T) {
	fake := newFakeProvider()
	svc := newTestService(fake)
	ctx := context.Background()

	card := CardDetails{Number: "4242424242424242", ExpMonth: 12, ExpYear: int64(time.Now().Year() + 1), CVC: "123"}
	first, err := svc.RegisterCard(ctx, card)
	require.NoError(t, err)
	require.NoError(t, svc.AttachCard(ctx, "cus_42", first.ID))

	// A second token of the same physical card shares the fingerprint.
	second, err := svc.RegisterCard(ctx, card)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.ErrorIs(t, svc.AttachCard(ctx, "cus_42", second.ID), ErrAlreadyAttached)

	// A different card attaches fine.
	other, err := svc.RegisterCard(ctx, CardDetails{Number: "5555555555554444", ExpMonth: 6, ExpYear: int64(time.Now().Year() + 2), CVC: "321"})
	require.NoError(t, err)
	assert.NoError(t, svc.AttachCard(ctx, "cus_42", other.ID))
}

func TestRegisterCardValidation(t *testing.T) {
	svc := newTestService(newFakeProvider())
	ctx := context.Background()
	nextYear := int64(time.Now().Year() + 1)

	tests := []struct {
		name string
		card CardDetails
	}{
		{"short number", CardDetails{Number: "4242", ExpMonth: 12, ExpYear: nextYear, CVC: "123"}},
		{"non-digit number", CardDetails{Number: "4242-4242-4242-4242", ExpMonth: 12, ExpYear: nextYear, CVC: "123"}},
		{"bad month", CardDetails{Number: "4242424242424242", ExpMonth: 13, ExpYear: nextYear, CVC: "123"}},
		{"expired", CardDetails{Number: "4242424242424242", ExpMonth: 1, ExpYear: 2020, CVC: "123"}},
		{"bad cvc", CardDetails{Number: "4242424242424242", ExpMonth: 12, ExpYear: nextYear, CVC: "12"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RegisterCard(ctx, tt.card)
			assert.Error(t, err)
		})
	}
}

func TestChargeCapturesGatewayFailure(t *testing.T) {
	fake := newFakeProvider()
	svc := newTestService(fake)
	ctx := context.Background()

	result := svc.Charge(ctx, "cus_42", "pm_a", 1700, "order 1")
	require.True(t, result.Ok())
	assert.Equal(t, "pi_test_1", result.Reference)

	fake.chargeErr = errors.New("Your card was declined.")
	result = svc.Charge(ctx, "cus_42", "pm_a", 1700, "order 2")
	assert.False(t, result.Ok())
	assert.Equal(t, "error", result.Status)
	assert.Equal(t, "Your card was declined.", result.Message)
	assert.Empty(t, result.Reference)
}

func TestBestEffortCleanup(t *testing.T) {
	fake := newFakeProvider()
	svc := newTestService(fake)
	ctx := context.Background()

	require.NoError(t, svc.DetachCard(ctx, "pm_a"))
	require.NoError(t, svc.DeleteCustomer(ctx, "cus_42"))
	assert.Equal(t, []string{"pm_a"}, fake.detachedIDs)
	assert.Equal(t, []string{"cus_42"}, fake.deleted)
}
