package ledger

// Snapshot is an immutable, JSON-serializable view of the ledger at one
// version. The cart service persists snapshots and the checkout assembler
// captures one to detect concurrent edits before submission.
type Snapshot struct {
	Items         []LineItem `json:"items"`
	SubtotalCents int64      `json:"subtotal_cents"`
	TaxRateBPS    int        `json:"tax_rate_bps"`
	TaxCents      int64      `json:"tax_cents"`
	ShippingCents int64      `json:"shipping_cents"`
	DiscountCents int64      `json:"discount_cents"`
	CouponCode    string     `json:"coupon_code,omitempty"`
	TotalCents    int64      `json:"total_cents"`
	Version       uint64     `json:"version"`
}

// IsEmpty reports whether the snapshot carries no items.
func (s Snapshot) IsEmpty() bool {
	return len(s.Items) == 0
}

// ItemCount returns the total unit count across all lines.
func (s Snapshot) ItemCount() int {
	var n int
	for _, item := range s.Items {
		n += item.Quantity
	}
	return n
}

func (l *Ledger) snapshotLocked() Snapshot {
	items := make([]LineItem, len(l.items))
	copy(items, l.items)
	return Snapshot{
		Items:         items,
		SubtotalCents: l.subtotalCents,
		TaxRateBPS:    l.taxRateBPS,
		TaxCents:      l.taxCents,
		ShippingCents: l.shippingCents,
		DiscountCents: l.discountCents,
		CouponCode:    l.couponCode,
		TotalCents:    l.totalCents,
		Version:       l.version,
	}
}

// FromSnapshot rehydrates a ledger from a persisted snapshot. Derived fields
// are recomputed from the items rather than trusted, but the version counter
// is carried over so staleness checks survive the round trip.
func FromSnapshot(s Snapshot) *Ledger {
	l := New(s.TaxRateBPS)
	l.items = make([]LineItem, len(s.Items))
	copy(l.items, s.Items)
	l.shippingCents = s.ShippingCents
	l.discountCents = s.DiscountCents
	l.couponCode = s.CouponCode
	l.recompute()
	l.version = s.Version
	return l
}
