package coupons

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/baseemali/neushop-backend/pkg/db/models"
	"github.com/baseemali/neushop-backend/pkg/enums"
	pkgerrors "github.com/baseemali/neushop-backend/pkg/errors"
)

// Service validates coupon codes against a cart subtotal and computes the
// discount amount the cart records.
type Service interface {
	Validate(ctx context.Context, code string, subtotalCents int64) (*Discount, error)
	Redeem(ctx context.Context, code string) error
}

// Discount is the outcome of a successful validation.
type Discount struct {
	Code        string
	AmountCents int64
	Type        enums.CouponType
}

type couponLoader interface {
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	IncrementRedemption(ctx context.Context, code string) error
}

type service struct {
	repo couponLoader
	now  func() time.Time
}

// NewService constructs a coupon service.
func NewService(repo couponLoader) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "coupons repo required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

// Validate checks eligibility and returns the discount in cents. The amount
// never exceeds the subtotal; percentage discounts round half away from zero.
func (s *service) Validate(ctx context.Context, code string, subtotalCents int64) (*Discount, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	if subtotalCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subtotal cannot be negative")
	}

	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	if coupon == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
	}
	if !coupon.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "coupon is no longer active")
	}
	if coupon.ExpiresAt != nil && !coupon.ExpiresAt.After(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "coupon has expired")
	}
	if coupon.RedemptionLimit != nil && coupon.RedemptionCount >= *coupon.RedemptionLimit {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "coupon redemption limit reached")
	}
	if subtotalCents < coupon.MinSubtotalCents {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart subtotal below coupon minimum").
			WithDetails(map[string]int64{"min_subtotal_cents": coupon.MinSubtotalCents})
	}

	amount, err := discountAmount(coupon, subtotalCents)
	if err != nil {
		return nil, err
	}
	if coupon.MaxDiscountCents != nil && amount > *coupon.MaxDiscountCents {
		amount = *coupon.MaxDiscountCents
	}
	if amount > subtotalCents {
		amount = subtotalCents
	}

	return &Discount{Code: coupon.Code, AmountCents: amount, Type: coupon.Type}, nil
}

// Redeem records one use of the coupon after an order is accepted.
func (s *service) Redeem(ctx context.Context, code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if err := s.repo.IncrementRedemption(ctx, code); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record coupon redemption")
	}
	return nil
}

func discountAmount(coupon *models.Coupon, subtotalCents int64) (int64, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(coupon.Value))
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parse coupon value")
	}
	if value.IsNegative() {
		return 0, pkgerrors.New(pkgerrors.CodeInternal, "coupon value cannot be negative")
	}

	switch coupon.Type {
	case enums.CouponTypePercentage:
		if value.GreaterThan(decimal.NewFromInt(100)) {
			return 0, pkgerrors.New(pkgerrors.CodeInternal, "percentage coupon above 100")
		}
		return decimal.NewFromInt(subtotalCents).
			Mul(value).
			Div(decimal.NewFromInt(100)).
			Round(0).
			IntPart(), nil
	case enums.CouponTypeFixed:
		return value.Round(0).IntPart(), nil
	default:
		return 0, pkgerrors.New(pkgerrors.CodeInternal, "unknown coupon type")
	}
}
