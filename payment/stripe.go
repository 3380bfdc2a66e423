package payment

import (
	"context"
	"errors"
	"fmt"

	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// metadataTag is the customer metadata key carrying the internal user id.
const metadataTag = "app_user_id"

// StripeProvider implements Provider against the Stripe API.
type StripeProvider struct {
	api      *client.API
	currency string
}

func NewStripeProvider(secretKey, currency string) *StripeProvider {
	if currency == "" {
		currency = "usd"
	}
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeProvider{api: api, currency: currency}
}

func (p *StripeProvider) FindCustomerByTag(ctx context.Context, tag string) (*CustomerRecord, error) {
	params := &stripe.CustomerSearchParams{
		SearchParams: stripe.SearchParams{
			Context: ctx,
			Query:   fmt.Sprintf("metadata['%s']:'%s'", metadataTag, tag),
		},
	}
	iter := p.api.Customers.Search(params)
	for iter.Next() {
		cust := iter.Customer()
		return &CustomerRecord{ID: cust.ID, Name: cust.Name, Email: cust.Email}, nil
	}
	if err := iter.Err(); err != nil {
		return nil, friendly(err)
	}
	return nil, nil
}

func (p *StripeProvider) CreateCustomer(ctx context.Context, tag, name, email, phone string) (*CustomerRecord, error) {
	params := &stripe.CustomerParams{
		Name:  stripe.String(name),
		Email: stripe.String(email),
		Phone: stripe.String(phone),
	}
	params.Context = ctx
	params.AddMetadata(metadataTag, tag)
	cust, err := p.api.Customers.New(params)
	if err != nil {
		return nil, friendly(err)
	}
	return &CustomerRecord{ID: cust.ID, Name: cust.Name, Email: cust.Email}, nil
}

func (p *StripeProvider) CreateSetupIntent(ctx context.Context, customerID string) (string, error) {
	params := &stripe.SetupIntentParams{
		Customer:           stripe.String(customerID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx
	si, err := p.api.SetupIntents.New(params)
	if err != nil {
		return "", friendly(err)
	}
	return si.ClientSecret, nil
}

func (p *StripeProvider) CreateCardMethod(ctx context.Context, card CardDetails) (*CardHandle, error) {
	params := &stripe.PaymentMethodParams{
		Type: stripe.String(string(stripe.PaymentMethodTypeCard)),
		Card: &stripe.PaymentMethodCardParams{
			Number:   stripe.String(card.Number),
			ExpMonth: stripe.Int64(card.ExpMonth),
			ExpYear:  stripe.Int64(card.ExpYear),
			CVC:      stripe.String(card.CVC),
		},
	}
	params.Context = ctx
	pm, err := p.api.PaymentMethods.New(params)
	if err != nil {
		return nil, friendly(err)
	}
	return cardHandle(pm), nil
}

func (p *StripeProvider) GetCardMethod(ctx context.Context, methodID string) (*CardHandle, error) {
	params := &stripe.PaymentMethodParams{}
	params.Context = ctx
	pm, err := p.api.PaymentMethods.Get(methodID, params)
	if err != nil {
		return nil, friendly(err)
	}
	return cardHandle(pm), nil
}

func (p *StripeProvider) AttachMethod(ctx context.Context, customerID, methodID string) error {
	params := &stripe.PaymentMethodAttachParams{Customer: stripe.String(customerID)}
	params.Context = ctx
	if _, err := p.api.PaymentMethods.Attach(methodID, params); err != nil {
		return friendly(err)
	}
	return nil
}

func (p *StripeProvider) ListCardFingerprints(ctx context.Context, customerID string) (map[string]string, error) {
	params := &stripe.PaymentMethodListParams{
		Customer: stripe.String(customerID),
		Type:     stripe.String(string(stripe.PaymentMethodTypeCard)),
	}
	params.Context = ctx
	fingerprints := make(map[string]string)
	iter := p.api.PaymentMethods.List(params)
	for iter.Next() {
		pm := iter.PaymentMethod()
		if pm.Card != nil {
			fingerprints[pm.Card.Fingerprint] = pm.ID
		}
	}
	if err := iter.Err(); err != nil {
		return nil, friendly(err)
	}
	return fingerprints, nil
}

func (p *StripeProvider) CreateOffSessionCharge(ctx context.Context, customerID, methodID string, amountCents int64, description string) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(amountCents),
		Currency:      stripe.String(p.currency),
		Customer:      stripe.String(customerID),
		PaymentMethod: stripe.String(methodID),
		OffSession:    stripe.Bool(true),
		Confirm:       stripe.Bool(true),
		Description:   stripe.String(description),
	}
	params.Context = ctx
	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return "", friendly(err)
	}
	return pi.ID, nil
}

func (p *StripeProvider) DetachMethod(ctx context.Context, methodID string) error {
	params := &stripe.PaymentMethodDetachParams{}
	params.Context = ctx
	if _, err := p.api.PaymentMethods.Detach(methodID, params); err != nil {
		return friendly(err)
	}
	return nil
}

func (p *StripeProvider) DeleteCustomer(ctx context.Context, customerID string) error {
	params := &stripe.CustomerParams{}
	params.Context = ctx
	if _, err := p.api.Customers.Del(customerID, params); err != nil {
		return friendly(err)
	}
	return nil
}

func cardHandle(pm *stripe.PaymentMethod) *CardHandle {
	handle := &CardHandle{ID: pm.ID}
	if pm.Card != nil {
		handle.Fingerprint = pm.Card.Fingerprint
		handle.Brand = string(pm.Card.Brand)
		handle.Last4 = pm.Card.Last4
	}
	return handle
}

// friendly unwraps Stripe's error envelope so callers see the
// human-readable gateway message, not the raw API error dump.
func friendly(err error) error {
	var serr *stripe.Error
	if errors.As(err, &serr) && serr.Msg != "" {
		return errors.New(serr.Msg)
	}
	return err
}
