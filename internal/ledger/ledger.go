package ledger

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/baseemali/neushop-backend/pkg/errors"
)

// DefaultTaxRateBPS is the storefront tax policy in basis points (10%).
const DefaultTaxRateBPS = 1000

// LineItem is one purchasable entry in the cart. UnitPriceCents is frozen at
// the moment the item is added; the ledger never re-queries the catalog.
type LineItem struct {
	ProductID      uuid.UUID `json:"product_id"`
	VariantKey     string    `json:"variant_key,omitempty"`
	Name           string    `json:"name"`
	ImageURL       string    `json:"image_url,omitempty"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	Quantity       int       `json:"quantity"`
}

// LineSubtotalCents returns the extended price for the line.
func (li LineItem) LineSubtotalCents() int64 {
	return li.UnitPriceCents * int64(li.Quantity)
}

func (li LineItem) sameUnit(productID uuid.UUID, variantKey string) bool {
	return li.ProductID == productID && li.VariantKey == variantKey
}

// Ledger is the in-memory cart aggregate. Every mutation runs under one lock
// and recomputes all derived fields before returning, so a caller can never
// observe subtotal, tax and total disagreeing with the items.
//
// All derived amounts are integer cents. The tax amount is derived through
// decimal math from the basis-point rate and rounded half away from zero, so
// the invariant total == subtotal + shipping + tax - discount holds exactly
// in the cents representation (total additionally clamps at zero; a coupon
// can never drive the payable amount negative).
type Ledger struct {
	mu sync.Mutex

	taxRateBPS int
	items      []LineItem

	subtotalCents int64
	taxCents      int64
	shippingCents int64
	discountCents int64
	couponCode    string
	totalCents    int64

	version uint64
}

// New returns an empty ledger with the provided tax rate in basis points.
// Rates outside [0, 10000] fall back to the default policy rate.
func New(taxRateBPS int) *Ledger {
	if taxRateBPS < 0 || taxRateBPS > 10000 {
		taxRateBPS = DefaultTaxRateBPS
	}
	return &Ledger{taxRateBPS: taxRateBPS}
}

// AddItem appends the item, merging into an existing line when the product and
// variant key match. Rejects non-positive quantity and negative price.
func (l *Ledger) AddItem(item LineItem) (Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if item.ProductID == uuid.Nil {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if item.Quantity < 1 {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if item.UnitPriceCents < 0 {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
	}
	item.VariantKey = strings.TrimSpace(item.VariantKey)

	merged := false
	for i := range l.items {
		if l.items[i].sameUnit(item.ProductID, item.VariantKey) {
			l.items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		l.items = append(l.items, item)
	}

	l.recompute()
	return l.snapshotLocked(), nil
}

// RemoveItem removes all lines for the product; when variantKey is non-empty
// only that variant is removed. An absent id is a no-op, not an error.
func (l *Ledger) RemoveItem(productID uuid.UUID, variantKey string) Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	variantKey = strings.TrimSpace(variantKey)
	kept := l.items[:0]
	for _, item := range l.items {
		if item.ProductID == productID {
			if variantKey == "" || item.VariantKey == variantKey {
				continue
			}
		}
		kept = append(kept, item)
	}
	if len(kept) == len(l.items) {
		// nothing matched; leave the version untouched
		return l.snapshotLocked()
	}
	l.items = kept

	l.recompute()
	return l.snapshotLocked()
}

// UpdateQuantity sets the absolute quantity for one product+variant line.
// A target of zero or less removes the line, matching cart UX. An absent id
// is a no-op.
func (l *Ledger) UpdateQuantity(productID uuid.UUID, variantKey string, quantity int) Snapshot {
	if quantity < 1 {
		return l.RemoveItem(productID, strings.TrimSpace(variantKey))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	variantKey = strings.TrimSpace(variantKey)
	for i := range l.items {
		if l.items[i].sameUnit(productID, variantKey) {
			l.items[i].Quantity = quantity
			l.recompute()
			break
		}
	}
	return l.snapshotLocked()
}

// ApplyCoupon records a pre-validated discount. Only one coupon is ever
// active; re-applying overwrites the previous discount entirely. An empty code
// with zero amount clears the coupon.
func (l *Ledger) ApplyCoupon(code string, discountCents int64) (Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	code = strings.TrimSpace(code)
	if discountCents < 0 {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "discount cannot be negative")
	}
	if code == "" && discountCents > 0 {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}

	if discountCents == 0 {
		l.couponCode = ""
		l.discountCents = 0
	} else {
		l.couponCode = code
		l.discountCents = discountCents
	}

	l.recompute()
	return l.snapshotLocked(), nil
}

// RemoveCoupon clears any active coupon.
func (l *Ledger) RemoveCoupon() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.couponCode = ""
	l.discountCents = 0

	l.recompute()
	return l.snapshotLocked()
}

// UpdateShipping sets the externally supplied shipping cost.
func (l *Ledger) UpdateShipping(amountCents int64) (Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if amountCents < 0 {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "shipping cannot be negative")
	}
	l.shippingCents = amountCents

	l.recompute()
	return l.snapshotLocked(), nil
}

// Clear empties the cart and resets every derived and externally supplied
// field. Used after a successful order submission.
func (l *Ledger) Clear() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.items = nil
	l.shippingCents = 0
	l.discountCents = 0
	l.couponCode = ""

	l.recompute()
	return l.snapshotLocked()
}

// Snapshot returns a deep copy of the current state without mutating it.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

// Version returns the current mutation counter.
func (l *Ledger) Version() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.version
}

// recompute re-derives subtotal, tax and total from the items and the
// externally supplied fields, then bumps the version. Callers hold the lock.
func (l *Ledger) recompute() {
	var subtotal int64
	for _, item := range l.items {
		subtotal += item.LineSubtotalCents()
	}
	l.subtotalCents = subtotal
	l.taxCents = taxFor(subtotal, l.taxRateBPS)

	raw := l.subtotalCents + l.shippingCents + l.taxCents - l.discountCents
	if raw < 0 {
		raw = 0
	}
	l.totalCents = raw
	l.version++
}

// taxFor derives the tax amount in cents from a basis-point rate, rounding
// half away from zero.
func taxFor(subtotalCents int64, rateBPS int) int64 {
	if subtotalCents == 0 || rateBPS == 0 {
		return 0
	}
	rate := decimal.New(int64(rateBPS), -4)
	return decimal.NewFromInt(subtotalCents).Mul(rate).Round(0).IntPart()
}
