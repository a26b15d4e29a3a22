package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/baseemali/neushop-backend/internal/coupons"
	"github.com/baseemali/neushop-backend/internal/products"
	"github.com/baseemali/neushop-backend/internal/shipping"
	"github.com/baseemali/neushop-backend/pkg/config"
	"github.com/baseemali/neushop-backend/pkg/enums"
	pkgerrors "github.com/baseemali/neushop-backend/pkg/errors"
	"github.com/baseemali/neushop-backend/pkg/redis"
)

type memoryCartStore struct {
	values map[string]string
}

func newMemoryCartStore() *memoryCartStore {
	return &memoryCartStore{values: map[string]string{}}
}

func (m *memoryCartStore) Get(_ context.Context, key string) (string, error) {
	value, ok := m.values[key]
	if !ok {
		return "", redis.ErrNotFound
	}
	return value, nil
}

func (m *memoryCartStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	switch v := value.(type) {
	case []byte:
		m.values[key] = string(v)
	case string:
		m.values[key] = v
	}
	return nil
}

func (m *memoryCartStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func (m *memoryCartStore) CartKey(customerID string) string {
	return "ns:cart:" + customerID
}

type stubPricer struct {
	quote *products.Quote
	err   error
}

func (s *stubPricer) PriceFor(_ context.Context, id uuid.UUID, variantKey string) (*products.Quote, error) {
	if s.err != nil {
		return nil, s.err
	}
	quote := *s.quote
	quote.ProductID = id
	quote.VariantKey = variantKey
	return &quote, nil
}

type stubValidator struct {
	discount *coupons.Discount
	err      error
	subtotal int64
}

func (s *stubValidator) Validate(_ context.Context, _ string, subtotalCents int64) (*coupons.Discount, error) {
	s.subtotal = subtotalCents
	return s.discount, s.err
}

type stubQuoter struct {
	rate *shipping.Rate
	err  error
}

func (s *stubQuoter) QuoteRate(_ context.Context, _ shipping.QuoteInput) (*shipping.Rate, error) {
	return s.rate, s.err
}

func newTestService(t *testing.T, store redis.CartStore, pricer catalogPricer, validator couponValidator, quoter shippingQuoter) Service {
	t.Helper()
	if pricer == nil {
		pricer = &stubPricer{quote: &products.Quote{Name: "Tee", UnitPriceCents: 10000, Currency: "USD"}}
	}
	if validator == nil {
		validator = &stubValidator{discount: &coupons.Discount{Code: "SAVE10", AmountCents: 1000}}
	}
	if quoter == nil {
		quoter = &stubQuoter{rate: &shipping.Rate{Method: enums.ShippingMethodStandard, AmountCents: 1000}}
	}
	svc, err := NewService(ServiceParams{
		Store:    store,
		Catalog:  pricer,
		Coupons:  validator,
		Shipping: quoter,
		Config:   config.CartConfig{TaxRateBPS: 1000, TTL: time.Hour},
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestGetEmptyCart(t *testing.T) {
	svc := newTestService(t, newMemoryCartStore(), nil, nil, nil)

	snap, err := svc.Get(context.Background(), "cust-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !snap.IsEmpty() || snap.TotalCents != 0 {
		t.Fatalf("expected empty cart, got %+v", snap)
	}
}

func TestAddItemPersistsAcrossLoads(t *testing.T) {
	store := newMemoryCartStore()
	svc := newTestService(t, store, nil, nil, nil)
	id := uuid.New()

	snap, err := svc.AddItem(context.Background(), "cust-1", AddItemInput{ProductID: id, Quantity: 2})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if snap.SubtotalCents != 20000 {
		t.Fatalf("subtotal = %d, want 20000", snap.SubtotalCents)
	}

	// a fresh read rehydrates the same ledger
	reloaded, err := svc.Get(context.Background(), "cust-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if reloaded.SubtotalCents != 20000 || reloaded.Version != snap.Version {
		t.Fatalf("reloaded cart diverged: %+v", reloaded)
	}
}

func TestAddItemPriceComesFromCatalog(t *testing.T) {
	store := newMemoryCartStore()
	pricer := &stubPricer{quote: &products.Quote{Name: "Tee", UnitPriceCents: 2500, Currency: "USD"}}
	svc := newTestService(t, store, pricer, nil, nil)

	snap, err := svc.AddItem(context.Background(), "cust-1", AddItemInput{ProductID: uuid.New(), Quantity: 1})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if snap.Items[0].UnitPriceCents != 2500 {
		t.Fatalf("unit price = %d, want catalog price 2500", snap.Items[0].UnitPriceCents)
	}
}

func TestAddItemUnknownProduct(t *testing.T) {
	pricer := &stubPricer{err: pkgerrors.New(pkgerrors.CodeNotFound, "product not found")}
	svc := newTestService(t, newMemoryCartStore(), pricer, nil, nil)

	_, err := svc.AddItem(context.Background(), "cust-1", AddItemInput{ProductID: uuid.New(), Quantity: 1})
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeNotFound {
		t.Fatalf("code = %s, want %s", code, pkgerrors.CodeNotFound)
	}
}

func TestApplyCouponUsesCurrentSubtotal(t *testing.T) {
	store := newMemoryCartStore()
	validator := &stubValidator{discount: &coupons.Discount{Code: "SAVE10", AmountCents: 2000}}
	svc := newTestService(t, store, nil, validator, nil)
	id := uuid.New()

	if _, err := svc.AddItem(context.Background(), "cust-1", AddItemInput{ProductID: id, Quantity: 2}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	snap, err := svc.ApplyCoupon(context.Background(), "cust-1", "save10")
	if err != nil {
		t.Fatalf("ApplyCoupon: %v", err)
	}
	if validator.subtotal != 20000 {
		t.Fatalf("validator saw subtotal %d, want 20000", validator.subtotal)
	}
	if snap.DiscountCents != 2000 || snap.CouponCode != "SAVE10" {
		t.Fatalf("discount not recorded: %+v", snap)
	}
}

func TestApplyCouponEmptyCart(t *testing.T) {
	svc := newTestService(t, newMemoryCartStore(), nil, nil, nil)

	_, err := svc.ApplyCoupon(context.Background(), "cust-1", "SAVE10")
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeStateConflict {
		t.Fatalf("code = %s, want %s", code, pkgerrors.CodeStateConflict)
	}
}

func TestUpdateShippingQuotesRate(t *testing.T) {
	store := newMemoryCartStore()
	quoter := &stubQuoter{rate: &shipping.Rate{Method: enums.ShippingMethodExpress, AmountCents: 2000}}
	svc := newTestService(t, store, nil, nil, quoter)
	id := uuid.New()

	if _, err := svc.AddItem(context.Background(), "cust-1", AddItemInput{ProductID: id, Quantity: 1}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	snap, err := svc.UpdateShipping(context.Background(), "cust-1", ShippingInput{Country: "US", Method: "express"})
	if err != nil {
		t.Fatalf("UpdateShipping: %v", err)
	}
	if snap.ShippingCents != 2000 {
		t.Fatalf("shipping = %d, want 2000", snap.ShippingCents)
	}
}

func TestRemoveItemAndQuantityFlow(t *testing.T) {
	store := newMemoryCartStore()
	svc := newTestService(t, store, nil, nil, nil)
	id := uuid.New()

	if _, err := svc.AddItem(context.Background(), "cust-1", AddItemInput{ProductID: id, Quantity: 3}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	snap, err := svc.UpdateQuantity(context.Background(), "cust-1", id, "", 1)
	if err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}
	if snap.SubtotalCents != 10000 {
		t.Fatalf("subtotal = %d, want 10000", snap.SubtotalCents)
	}

	snap, err = svc.RemoveItem(context.Background(), "cust-1", id, "")
	if err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if !snap.IsEmpty() {
		t.Fatalf("cart should be empty")
	}
}

func TestClearDropsPersistedCart(t *testing.T) {
	store := newMemoryCartStore()
	svc := newTestService(t, store, nil, nil, nil)

	if _, err := svc.AddItem(context.Background(), "cust-1", AddItemInput{ProductID: uuid.New(), Quantity: 1}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if _, err := svc.Clear(context.Background(), "cust-1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if len(store.values) != 0 {
		t.Fatalf("store still holds %d keys", len(store.values))
	}
}

func TestCustomerIdentityRequired(t *testing.T) {
	svc := newTestService(t, newMemoryCartStore(), nil, nil, nil)

	_, err := svc.Get(context.Background(), "  ")
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeUnauthorized {
		t.Fatalf("code = %s, want %s", code, pkgerrors.CodeUnauthorized)
	}
}

func TestCartsAreIsolatedPerCustomer(t *testing.T) {
	store := newMemoryCartStore()
	svc := newTestService(t, store, nil, nil, nil)

	if _, err := svc.AddItem(context.Background(), "cust-1", AddItemInput{ProductID: uuid.New(), Quantity: 1}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	snap, err := svc.Get(context.Background(), "cust-2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !snap.IsEmpty() {
		t.Fatalf("customer carts leaked into each other")
	}
}
