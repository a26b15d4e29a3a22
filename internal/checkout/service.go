package checkout

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/baseemali/neushop-backend/internal/ledger"
	"github.com/baseemali/neushop-backend/internal/orders"
	"github.com/baseemali/neushop-backend/pkg/db/models"
	pkgerrors "github.com/baseemali/neushop-backend/pkg/errors"
	"github.com/baseemali/neushop-backend/pkg/logger"
	"github.com/baseemali/neushop-backend/pkg/redis"
	"github.com/baseemali/neushop-backend/pkg/types"
)

// Service assembles the cart ledger, a saved address and a vaulted payment
// method into one order submission. The cart is cleared only after the
// fulfillment API accepts the order; a declined or failed submission leaves
// the cart untouched so the customer can retry.
type Service interface {
	Assemble(ctx context.Context, customerID string, input Input) (*orders.Submission, error)
	Submit(ctx context.Context, customerID string, input Input) (*orders.Receipt, error)
}

// Input selects the checkout collaborators. ExpectedVersion is the ledger
// version the customer last saw; a mismatch means the cart changed in another
// tab and the submission is rejected before any money moves.
type Input struct {
	AddressID       uuid.UUID
	PaymentMethodID uuid.UUID
	ExpectedVersion uint64
	IdempotencyKey  string
}

type cartAccessor interface {
	Get(ctx context.Context, customerID string) (ledger.Snapshot, error)
	Clear(ctx context.Context, customerID string) (ledger.Snapshot, error)
}

type addressLoader interface {
	Get(ctx context.Context, customerID string, id uuid.UUID) (*models.Address, error)
}

type paymentMethodLoader interface {
	Get(ctx context.Context, customerID string, id uuid.UUID) (*models.PaymentMethod, error)
}

type orderSubmitter interface {
	Submit(ctx context.Context, submission orders.Submission) (*orders.Receipt, error)
}

type couponRedeemer interface {
	Redeem(ctx context.Context, code string) error
}

type service struct {
	cart           cartAccessor
	addresses      addressLoader
	methods        paymentMethodLoader
	orders         orderSubmitter
	coupons        couponRedeemer
	idempotency    redis.IdempotencyStore
	idempotencyTTL time.Duration
	logg           *logger.Logger
}

// ServiceParams groups dependencies for the checkout service.
type ServiceParams struct {
	Cart           cartAccessor
	Addresses      addressLoader
	PaymentMethods paymentMethodLoader
	Orders         orderSubmitter
	Coupons        couponRedeemer
	Idempotency    redis.IdempotencyStore
	IdempotencyTTL time.Duration
	Logger         *logger.Logger
}

// NewService constructs a checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart accessor required")
	}
	if params.Addresses == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "address loader required")
	}
	if params.PaymentMethods == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment method loader required")
	}
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order submitter required")
	}
	if params.Coupons == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "coupon redeemer required")
	}
	if params.Idempotency == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "idempotency store required")
	}
	ttl := params.IdempotencyTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &service{
		cart:           params.Cart,
		addresses:      params.Addresses,
		methods:        params.PaymentMethods,
		orders:         params.Orders,
		coupons:        params.Coupons,
		idempotency:    params.Idempotency,
		idempotencyTTL: ttl,
		logg:           params.Logger,
	}, nil
}

// Assemble freezes the current ledger snapshot and resolves the address and
// payment method into an outbound submission without sending it.
func (s *service) Assemble(ctx context.Context, customerID string, input Input) (*orders.Submission, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	if strings.TrimSpace(input.IdempotencyKey) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "idempotency key is required")
	}

	snap, err := s.cart.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if snap.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
	}
	if snap.Version != input.ExpectedVersion {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart changed since it was last viewed").
			WithDetails(map[string]uint64{
				"expected_version": input.ExpectedVersion,
				"current_version":  snap.Version,
			})
	}

	addr, err := s.addresses.Get(ctx, customerID, input.AddressID)
	if err != nil {
		return nil, err
	}
	method, err := s.methods.Get(ctx, customerID, input.PaymentMethodID)
	if err != nil {
		return nil, err
	}

	return buildSubmission(customerID, input.IdempotencyKey, snap, addr, method), nil
}

// Submit assembles and sends the order. Reusing an idempotency key for a new
// attempt is rejected; the fulfillment API dedupes retries of the same
// in-flight attempt on its side.
func (s *service) Submit(ctx context.Context, customerID string, input Input) (*orders.Receipt, error) {
	submission, err := s.Assemble(ctx, customerID, input)
	if err != nil {
		return nil, err
	}

	key := s.idempotency.IdempotencyKey("checkout", submission.IdempotencyKey)
	fresh, err := s.idempotency.SetNX(ctx, key, customerID, s.idempotencyTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve idempotency key")
	}
	if !fresh {
		return nil, pkgerrors.New(pkgerrors.CodeIdempotency, "checkout already submitted with this key")
	}

	receipt, err := s.orders.Submit(ctx, *submission)
	if err != nil {
		// free the key so the customer can retry after a decline or outage
		if delErr := s.idempotency.Del(ctx, key); delErr != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "idempotency_key", key), "failed to release idempotency key")
		}
		return nil, err
	}

	if _, err := s.cart.Clear(ctx, customerID); err != nil && s.logg != nil {
		// order is placed; a lingering cart is an annoyance, not a failure
		s.logg.Warn(s.logg.WithField(ctx, "order_id", receipt.OrderID), "failed to clear cart after order submission")
	}
	if submission.CouponCode != "" {
		if err := s.coupons.Redeem(ctx, submission.CouponCode); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "coupon_code", submission.CouponCode), "failed to record coupon redemption")
		}
	}
	return receipt, nil
}

func buildSubmission(customerID, idempotencyKey string, snap ledger.Snapshot, addr *models.Address, method *models.PaymentMethod) *orders.Submission {
	items := make([]orders.SubmissionItem, 0, len(snap.Items))
	currency := "USD"
	for _, item := range snap.Items {
		items = append(items, orders.SubmissionItem{
			ProductID:      item.ProductID.String(),
			VariantKey:     item.VariantKey,
			Name:           item.Name,
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
		})
	}

	return &orders.Submission{
		IdempotencyKey: strings.TrimSpace(idempotencyKey),
		CustomerID:     customerID,
		Items:          items,
		SubtotalCents:  snap.SubtotalCents,
		TaxCents:       snap.TaxCents,
		ShippingCents:  snap.ShippingCents,
		DiscountCents:  snap.DiscountCents,
		TotalCents:     snap.TotalCents,
		CouponCode:     snap.CouponCode,
		Currency:       currency,
		ShippingAddress: types.Address{
			Line1:      addr.Line1,
			Line2:      addr.Line2,
			City:       addr.City,
			State:      addr.State,
			PostalCode: addr.PostalCode,
			Country:    addr.Country,
		},
		PaymentToken: method.VaultToken,
	}
}
