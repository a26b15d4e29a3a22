package coupons

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/baseemali/neushop-backend/pkg/db/models"
	"github.com/baseemali/neushop-backend/pkg/enums"
	pkgerrors "github.com/baseemali/neushop-backend/pkg/errors"
)

type stubCoupons struct {
	coupon   *models.Coupon
	err      error
	redeemed []string
}

func (s *stubCoupons) FindByCode(_ context.Context, _ string) (*models.Coupon, error) {
	return s.coupon, s.err
}

func (s *stubCoupons) IncrementRedemption(_ context.Context, code string) error {
	s.redeemed = append(s.redeemed, code)
	return s.err
}

func newService(t *testing.T, repo couponLoader) *service {
	t.Helper()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc.(*service)
}

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

func TestValidatePercentageCoupon(t *testing.T) {
	svc := newService(t, &stubCoupons{coupon: &models.Coupon{
		Code:     "SAVE10",
		Type:     enums.CouponTypePercentage,
		Value:    "10",
		IsActive: true,
	}})

	discount, err := svc.Validate(context.Background(), "save10", 20000)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if discount.AmountCents != 2000 {
		t.Fatalf("amount = %d, want 2000", discount.AmountCents)
	}
	if discount.Code != "SAVE10" {
		t.Fatalf("code = %q, want SAVE10", discount.Code)
	}
}

func TestValidateFixedCoupon(t *testing.T) {
	svc := newService(t, &stubCoupons{coupon: &models.Coupon{
		Code:     "TAKE5",
		Type:     enums.CouponTypeFixed,
		Value:    "500",
		IsActive: true,
	}})

	discount, err := svc.Validate(context.Background(), "TAKE5", 20000)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if discount.AmountCents != 500 {
		t.Fatalf("amount = %d, want 500", discount.AmountCents)
	}
}

func TestValidateCapsAtMaxAndSubtotal(t *testing.T) {
	svc := newService(t, &stubCoupons{coupon: &models.Coupon{
		Code:             "HALF",
		Type:             enums.CouponTypePercentage,
		Value:            "50",
		MaxDiscountCents: int64Ptr(1500),
		IsActive:         true,
	}})

	discount, err := svc.Validate(context.Background(), "HALF", 20000)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if discount.AmountCents != 1500 {
		t.Fatalf("amount = %d, want cap 1500", discount.AmountCents)
	}

	// fixed discount larger than the cart clamps to the subtotal
	svc = newService(t, &stubCoupons{coupon: &models.Coupon{
		Code:     "MEGA",
		Type:     enums.CouponTypeFixed,
		Value:    "100000",
		IsActive: true,
	}})
	discount, err = svc.Validate(context.Background(), "MEGA", 2000)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if discount.AmountCents != 2000 {
		t.Fatalf("amount = %d, want subtotal clamp 2000", discount.AmountCents)
	}
}

func TestValidateRejections(t *testing.T) {
	expired := time.Now().Add(-time.Hour)

	cases := []struct {
		name     string
		coupon   *models.Coupon
		subtotal int64
		wantCode pkgerrors.Code
	}{
		{"unknown code", nil, 1000, pkgerrors.CodeNotFound},
		{"inactive", &models.Coupon{Code: "X", Type: enums.CouponTypeFixed, Value: "100"}, 1000, pkgerrors.CodeStateConflict},
		{"expired", &models.Coupon{Code: "X", Type: enums.CouponTypeFixed, Value: "100", IsActive: true, ExpiresAt: &expired}, 1000, pkgerrors.CodeStateConflict},
		{"limit reached", &models.Coupon{Code: "X", Type: enums.CouponTypeFixed, Value: "100", IsActive: true, RedemptionCount: 3, RedemptionLimit: intPtr(3)}, 1000, pkgerrors.CodeStateConflict},
		{"below minimum", &models.Coupon{Code: "X", Type: enums.CouponTypeFixed, Value: "100", IsActive: true, MinSubtotalCents: 5000}, 1000, pkgerrors.CodeStateConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newService(t, &stubCoupons{coupon: tc.coupon})
			_, err := svc.Validate(context.Background(), "X", tc.subtotal)
			if err == nil {
				t.Fatalf("expected error")
			}
			if code := pkgerrors.As(err).Code(); code != tc.wantCode {
				t.Fatalf("code = %s, want %s", code, tc.wantCode)
			}
		})
	}
}

func TestValidateValidationErrors(t *testing.T) {
	svc := newService(t, &stubCoupons{})

	if _, err := svc.Validate(context.Background(), "  ", 1000); pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for blank code, got %v", err)
	}
	if _, err := svc.Validate(context.Background(), "X", -1); pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for negative subtotal, got %v", err)
	}
}

func TestValidateRepoFailure(t *testing.T) {
	svc := newService(t, &stubCoupons{err: errors.New("pg down")})

	_, err := svc.Validate(context.Background(), "X", 1000)
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeDependency {
		t.Fatalf("code = %s, want %s", code, pkgerrors.CodeDependency)
	}
}

func TestRedeemNormalizesCode(t *testing.T) {
	repo := &stubCoupons{}
	svc := newService(t, repo)

	if err := svc.Redeem(context.Background(), " save10 "); err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if len(repo.redeemed) != 1 || repo.redeemed[0] != "SAVE10" {
		t.Fatalf("redeemed = %v, want [SAVE10]", repo.redeemed)
	}

	// empty code is a no-op
	if err := svc.Redeem(context.Background(), "  "); err != nil {
		t.Fatalf("Redeem blank: %v", err)
	}
	if len(repo.redeemed) != 1 {
		t.Fatalf("blank redeem must not hit the repo")
	}
}
