package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/baseemali/neushop-backend/internal/ledger"
	"github.com/baseemali/neushop-backend/internal/orders"
	"github.com/baseemali/neushop-backend/pkg/db/models"
	"github.com/baseemali/neushop-backend/pkg/enums"
	pkgerrors "github.com/baseemali/neushop-backend/pkg/errors"
)

type stubCart struct {
	snap    ledger.Snapshot
	getErr  error
	cleared int
}

func (s *stubCart) Get(_ context.Context, _ string) (ledger.Snapshot, error) {
	return s.snap, s.getErr
}

func (s *stubCart) Clear(_ context.Context, _ string) (ledger.Snapshot, error) {
	s.cleared++
	return ledger.Snapshot{}, nil
}

type stubAddresses struct {
	address *models.Address
	err     error
}

func (s *stubAddresses) Get(_ context.Context, _ string, _ uuid.UUID) (*models.Address, error) {
	return s.address, s.err
}

type stubMethods struct {
	method *models.PaymentMethod
	err    error
}

func (s *stubMethods) Get(_ context.Context, _ string, _ uuid.UUID) (*models.PaymentMethod, error) {
	return s.method, s.err
}

type stubSubmitter struct {
	receipt     *orders.Receipt
	err         error
	submissions []orders.Submission
}

func (s *stubSubmitter) Submit(_ context.Context, submission orders.Submission) (*orders.Receipt, error) {
	s.submissions = append(s.submissions, submission)
	return s.receipt, s.err
}

type stubRedeemer struct {
	redeemed []string
}

func (s *stubRedeemer) Redeem(_ context.Context, code string) error {
	s.redeemed = append(s.redeemed, code)
	return nil
}

type stubIdempotency struct {
	keys    map[string]bool
	deleted []string
}

func newStubIdempotency() *stubIdempotency {
	return &stubIdempotency{keys: map[string]bool{}}
}

func (s *stubIdempotency) Get(_ context.Context, _ string) (string, error) { return "", nil }

func (s *stubIdempotency) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	if s.keys[key] {
		return false, nil
	}
	s.keys[key] = true
	return true, nil
}

func (s *stubIdempotency) IdempotencyKey(scope, id string) string {
	return "ns:idempotency:" + scope + ":" + id
}

func (s *stubIdempotency) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.keys, key)
		s.deleted = append(s.deleted, key)
	}
	return nil
}

type fixture struct {
	cart        *stubCart
	submitter   *stubSubmitter
	redeemer    *stubRedeemer
	idempotency *stubIdempotency
	svc         Service
}

func cartSnapshot() ledger.Snapshot {
	return ledger.Snapshot{
		Items: []ledger.LineItem{
			{ProductID: uuid.New(), Name: "Tee", UnitPriceCents: 10000, Quantity: 2},
		},
		SubtotalCents: 20000,
		TaxRateBPS:    1000,
		TaxCents:      2000,
		ShippingCents: 1000,
		DiscountCents: 1000,
		CouponCode:    "SAVE10",
		TotalCents:    22000,
		Version:       7,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		cart: &stubCart{snap: cartSnapshot()},
		submitter: &stubSubmitter{receipt: &orders.Receipt{
			OrderID: "ord-1",
			Status:  enums.OrderStatusConfirmed,
		}},
		redeemer:    &stubRedeemer{},
		idempotency: newStubIdempotency(),
	}
	svc, err := NewService(ServiceParams{
		Cart: f.cart,
		Addresses: &stubAddresses{address: &models.Address{
			Line1: "500 Elm St", City: "Austin", State: "TX", PostalCode: "78701", Country: "US",
		}},
		PaymentMethods: &stubMethods{method: &models.PaymentMethod{VaultToken: "vault-abc"}},
		Orders:         f.submitter,
		Coupons:        f.redeemer,
		Idempotency:    f.idempotency,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	f.svc = svc
	return f
}

func validInput() Input {
	return Input{
		AddressID:       uuid.New(),
		PaymentMethodID: uuid.New(),
		ExpectedVersion: 7,
		IdempotencyKey:  "chk-1",
	}
}

func TestAssembleBuildsSubmissionFromSnapshot(t *testing.T) {
	f := newFixture(t)

	submission, err := f.svc.Assemble(context.Background(), "cust-1", validInput())
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if submission.TotalCents != 22000 {
		t.Fatalf("total = %d, want 22000", submission.TotalCents)
	}
	if submission.CouponCode != "SAVE10" {
		t.Fatalf("coupon = %q, want SAVE10", submission.CouponCode)
	}
	if submission.PaymentToken != "vault-abc" {
		t.Fatalf("payment token = %q", submission.PaymentToken)
	}
	if submission.ShippingAddress.City != "Austin" {
		t.Fatalf("address not mapped: %+v", submission.ShippingAddress)
	}
	if len(submission.Items) != 1 || submission.Items[0].Quantity != 2 {
		t.Fatalf("items not mapped: %+v", submission.Items)
	}
}

func TestAssembleStaleSnapshot(t *testing.T) {
	f := newFixture(t)

	input := validInput()
	input.ExpectedVersion = 3
	_, err := f.svc.Assemble(context.Background(), "cust-1", input)
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeStateConflict {
		t.Fatalf("code = %s, want %s", code, pkgerrors.CodeStateConflict)
	}
	if len(f.submitter.submissions) != 0 {
		t.Fatalf("stale checkout must not submit")
	}
}

func TestAssembleEmptyCart(t *testing.T) {
	f := newFixture(t)
	f.cart.snap = ledger.Snapshot{Version: 7}

	_, err := f.svc.Assemble(context.Background(), "cust-1", validInput())
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeStateConflict {
		t.Fatalf("code = %s, want %s", code, pkgerrors.CodeStateConflict)
	}
}

func TestSubmitClearsCartAndRedeemsCoupon(t *testing.T) {
	f := newFixture(t)

	receipt, err := f.svc.Submit(context.Background(), "cust-1", validInput())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if receipt.OrderID != "ord-1" {
		t.Fatalf("order id = %q", receipt.OrderID)
	}
	if f.cart.cleared != 1 {
		t.Fatalf("cart cleared %d times, want 1", f.cart.cleared)
	}
	if len(f.redeemer.redeemed) != 1 || f.redeemer.redeemed[0] != "SAVE10" {
		t.Fatalf("coupon not redeemed: %v", f.redeemer.redeemed)
	}
}

func TestSubmitDeclinedKeepsCart(t *testing.T) {
	f := newFixture(t)
	f.submitter.receipt = nil
	f.submitter.err = pkgerrors.New(pkgerrors.CodeStateConflict, "order was declined")

	_, err := f.svc.Submit(context.Background(), "cust-1", validInput())
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeStateConflict {
		t.Fatalf("code = %s, want %s", code, pkgerrors.CodeStateConflict)
	}
	if f.cart.cleared != 0 {
		t.Fatalf("declined submission must not clear the cart")
	}
	if len(f.redeemer.redeemed) != 0 {
		t.Fatalf("declined submission must not redeem the coupon")
	}
	// the key is released so the customer can retry
	if len(f.idempotency.deleted) != 1 {
		t.Fatalf("idempotency key was not released")
	}
}

func TestSubmitIdempotencyKeyReuse(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.Submit(context.Background(), "cust-1", validInput()); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	// the cart is cleared after the first order; restore it to isolate the
	// idempotency check
	f.cart.snap = cartSnapshot()

	_, err := f.svc.Submit(context.Background(), "cust-1", validInput())
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeIdempotency {
		t.Fatalf("code = %s, want %s", code, pkgerrors.CodeIdempotency)
	}
	if len(f.submitter.submissions) != 1 {
		t.Fatalf("reused key must not reach the orders api")
	}
}

func TestSubmitRequiresIdempotencyKey(t *testing.T) {
	f := newFixture(t)

	input := validInput()
	input.IdempotencyKey = "  "
	_, err := f.svc.Submit(context.Background(), "cust-1", input)
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeValidation {
		t.Fatalf("code = %s, want %s", code, pkgerrors.CodeValidation)
	}
}
