package cart

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/baseemali/neushop-backend/internal/coupons"
	"github.com/baseemali/neushop-backend/internal/ledger"
	"github.com/baseemali/neushop-backend/internal/products"
	"github.com/baseemali/neushop-backend/internal/shipping"
	"github.com/baseemali/neushop-backend/pkg/config"
	"github.com/baseemali/neushop-backend/pkg/enums"
	pkgerrors "github.com/baseemali/neushop-backend/pkg/errors"
	"github.com/baseemali/neushop-backend/pkg/redis"
)

// Service owns the per-customer cart ledger. Every operation rehydrates the
// ledger from the store, applies one mutation and persists the new snapshot,
// so concurrent requests for one customer converge on the stored version.
type Service interface {
	Get(ctx context.Context, customerID string) (ledger.Snapshot, error)
	AddItem(ctx context.Context, customerID string, input AddItemInput) (ledger.Snapshot, error)
	UpdateQuantity(ctx context.Context, customerID string, productID uuid.UUID, variantKey string, quantity int) (ledger.Snapshot, error)
	RemoveItem(ctx context.Context, customerID string, productID uuid.UUID, variantKey string) (ledger.Snapshot, error)
	ApplyCoupon(ctx context.Context, customerID, code string) (ledger.Snapshot, error)
	RemoveCoupon(ctx context.Context, customerID string) (ledger.Snapshot, error)
	UpdateShipping(ctx context.Context, customerID string, input ShippingInput) (ledger.Snapshot, error)
	Clear(ctx context.Context, customerID string) (ledger.Snapshot, error)
}

// AddItemInput identifies what the customer is adding. Pricing is resolved
// from the catalog here, never trusted from the request.
type AddItemInput struct {
	ProductID  uuid.UUID
	VariantKey string
	Quantity   int
}

// ShippingInput selects a destination and service level for the cart.
type ShippingInput struct {
	Country string
	Method  string
}

type catalogPricer interface {
	PriceFor(ctx context.Context, id uuid.UUID, variantKey string) (*products.Quote, error)
}

type couponValidator interface {
	Validate(ctx context.Context, code string, subtotalCents int64) (*coupons.Discount, error)
}

type shippingQuoter interface {
	QuoteRate(ctx context.Context, input shipping.QuoteInput) (*shipping.Rate, error)
}

type service struct {
	store      redis.CartStore
	catalog    catalogPricer
	coupons    couponValidator
	shipping   shippingQuoter
	taxRateBPS int
	ttl        time.Duration
}

// ServiceParams groups dependencies for the cart service.
type ServiceParams struct {
	Store    redis.CartStore
	Catalog  catalogPricer
	Coupons  couponValidator
	Shipping shippingQuoter
	Config   config.CartConfig
}

// NewService constructs a cart service.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart store required")
	}
	if params.Catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "catalog pricer required")
	}
	if params.Coupons == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "coupon validator required")
	}
	if params.Shipping == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "shipping quoter required")
	}
	ttl := params.Config.TTL
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &service{
		store:      params.Store,
		catalog:    params.Catalog,
		coupons:    params.Coupons,
		shipping:   params.Shipping,
		taxRateBPS: params.Config.TaxRateBPS,
		ttl:        ttl,
	}, nil
}

func (s *service) Get(ctx context.Context, customerID string) (ledger.Snapshot, error) {
	led, err := s.load(ctx, customerID)
	if err != nil {
		return ledger.Snapshot{}, err
	}
	return led.Snapshot(), nil
}

// AddItem resolves catalog pricing for the product+variant and merges the
// line into the ledger. The frozen unit price survives later catalog edits.
func (s *service) AddItem(ctx context.Context, customerID string, input AddItemInput) (ledger.Snapshot, error) {
	if input.Quantity < 1 {
		return ledger.Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	quote, err := s.catalog.PriceFor(ctx, input.ProductID, input.VariantKey)
	if err != nil {
		return ledger.Snapshot{}, err
	}

	led, err := s.load(ctx, customerID)
	if err != nil {
		return ledger.Snapshot{}, err
	}
	snap, err := led.AddItem(ledger.LineItem{
		ProductID:      quote.ProductID,
		VariantKey:     quote.VariantKey,
		Name:           quote.Name,
		ImageURL:       quote.ImageURL,
		UnitPriceCents: quote.UnitPriceCents,
		Quantity:       input.Quantity,
	})
	if err != nil {
		return ledger.Snapshot{}, err
	}
	return snap, s.save(ctx, customerID, snap)
}

func (s *service) UpdateQuantity(ctx context.Context, customerID string, productID uuid.UUID, variantKey string, quantity int) (ledger.Snapshot, error) {
	if productID == uuid.Nil {
		return ledger.Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	led, err := s.load(ctx, customerID)
	if err != nil {
		return ledger.Snapshot{}, err
	}
	snap := led.UpdateQuantity(productID, variantKey, quantity)
	return snap, s.save(ctx, customerID, snap)
}

func (s *service) RemoveItem(ctx context.Context, customerID string, productID uuid.UUID, variantKey string) (ledger.Snapshot, error) {
	if productID == uuid.Nil {
		return ledger.Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	led, err := s.load(ctx, customerID)
	if err != nil {
		return ledger.Snapshot{}, err
	}
	snap := led.RemoveItem(productID, variantKey)
	return snap, s.save(ctx, customerID, snap)
}

// ApplyCoupon validates the code against the current subtotal and records the
// resulting discount. A new code replaces any previous one.
func (s *service) ApplyCoupon(ctx context.Context, customerID, code string) (ledger.Snapshot, error) {
	led, err := s.load(ctx, customerID)
	if err != nil {
		return ledger.Snapshot{}, err
	}
	current := led.Snapshot()
	if current.IsEmpty() {
		return ledger.Snapshot{}, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot apply a coupon to an empty cart")
	}

	discount, err := s.coupons.Validate(ctx, code, current.SubtotalCents)
	if err != nil {
		return ledger.Snapshot{}, err
	}
	snap, err := led.ApplyCoupon(discount.Code, discount.AmountCents)
	if err != nil {
		return ledger.Snapshot{}, err
	}
	return snap, s.save(ctx, customerID, snap)
}

func (s *service) RemoveCoupon(ctx context.Context, customerID string) (ledger.Snapshot, error) {
	led, err := s.load(ctx, customerID)
	if err != nil {
		return ledger.Snapshot{}, err
	}
	snap := led.RemoveCoupon()
	return snap, s.save(ctx, customerID, snap)
}

// UpdateShipping quotes the selected service level for the destination and
// records the cost on the ledger.
func (s *service) UpdateShipping(ctx context.Context, customerID string, input ShippingInput) (ledger.Snapshot, error) {
	led, err := s.load(ctx, customerID)
	if err != nil {
		return ledger.Snapshot{}, err
	}
	current := led.Snapshot()

	rate, err := s.shipping.QuoteRate(ctx, shipping.QuoteInput{
		Country:       input.Country,
		Method:        shippingMethod(input.Method),
		SubtotalCents: current.SubtotalCents,
	})
	if err != nil {
		return ledger.Snapshot{}, err
	}
	snap, err := led.UpdateShipping(rate.AmountCents)
	if err != nil {
		return ledger.Snapshot{}, err
	}
	return snap, s.save(ctx, customerID, snap)
}

// Clear drops the persisted cart entirely.
func (s *service) Clear(ctx context.Context, customerID string) (ledger.Snapshot, error) {
	if err := requireCustomer(customerID); err != nil {
		return ledger.Snapshot{}, err
	}
	if err := s.store.Del(ctx, s.store.CartKey(customerID)); err != nil {
		return ledger.Snapshot{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return ledger.New(s.taxRateBPS).Snapshot(), nil
}

func (s *service) load(ctx context.Context, customerID string) (*ledger.Ledger, error) {
	if err := requireCustomer(customerID); err != nil {
		return nil, err
	}
	raw, err := s.store.Get(ctx, s.store.CartKey(customerID))
	if errors.Is(err, redis.ErrNotFound) {
		return ledger.New(s.taxRateBPS), nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	var snap ledger.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode cart snapshot")
	}
	return ledger.FromSnapshot(snap), nil
}

func (s *service) save(ctx context.Context, customerID string, snap ledger.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart snapshot")
	}
	if err := s.store.Set(ctx, s.store.CartKey(customerID), payload, s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart")
	}
	return nil
}

func requireCustomer(customerID string) error {
	if strings.TrimSpace(customerID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	return nil
}

func shippingMethod(value string) enums.ShippingMethod {
	return enums.ShippingMethod(strings.ToLower(strings.TrimSpace(value)))
}
