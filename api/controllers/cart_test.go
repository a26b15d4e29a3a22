package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/baseemali/neushop-backend/api/middleware"
	cartsvc "github.com/baseemali/neushop-backend/internal/cart"
	"github.com/baseemali/neushop-backend/internal/ledger"
	pkgerrors "github.com/baseemali/neushop-backend/pkg/errors"
	"github.com/baseemali/neushop-backend/pkg/types"
)

type stubCartService struct {
	snap       ledger.Snapshot
	err        error
	lastInput  cartsvc.AddItemInput
	lastCoupon string
}

func (s *stubCartService) Get(_ context.Context, _ string) (ledger.Snapshot, error) {
	return s.snap, s.err
}

func (s *stubCartService) AddItem(_ context.Context, _ string, input cartsvc.AddItemInput) (ledger.Snapshot, error) {
	s.lastInput = input
	return s.snap, s.err
}

func (s *stubCartService) UpdateQuantity(_ context.Context, _ string, _ uuid.UUID, _ string, _ int) (ledger.Snapshot, error) {
	return s.snap, s.err
}

func (s *stubCartService) RemoveItem(_ context.Context, _ string, _ uuid.UUID, _ string) (ledger.Snapshot, error) {
	return s.snap, s.err
}

func (s *stubCartService) ApplyCoupon(_ context.Context, _ string, code string) (ledger.Snapshot, error) {
	s.lastCoupon = code
	return s.snap, s.err
}

func (s *stubCartService) RemoveCoupon(_ context.Context, _ string) (ledger.Snapshot, error) {
	return s.snap, s.err
}

func (s *stubCartService) UpdateShipping(_ context.Context, _ string, _ cartsvc.ShippingInput) (ledger.Snapshot, error) {
	return s.snap, s.err
}

func (s *stubCartService) Clear(_ context.Context, _ string) (ledger.Snapshot, error) {
	return s.snap, s.err
}

func withCustomer(r *http.Request) *http.Request {
	return r.WithContext(middleware.WithCustomerID(r.Context(), "cust-1"))
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return envelope
}

func TestCartFetchRendersSnapshot(t *testing.T) {
	svc := &stubCartService{snap: ledger.Snapshot{
		Items: []ledger.LineItem{
			{ProductID: uuid.New(), Name: "Tee", UnitPriceCents: 2500, Quantity: 2},
		},
		SubtotalCents: 5000,
		TaxCents:      500,
		TotalCents:    5500,
		Version:       3,
	}}

	req := withCustomer(httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	rec := httptest.NewRecorder()
	CartFetch(svc, nil)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	envelope := decodeEnvelope(t, rec)
	data := envelope["data"].(map[string]any)
	if data["total_cents"].(float64) != 5500 {
		t.Fatalf("total = %v, want 5500", data["total_cents"])
	}
	if data["version"].(float64) != 3 {
		t.Fatalf("version = %v, want 3", data["version"])
	}
	if data["item_count"].(float64) != 2 {
		t.Fatalf("item_count = %v, want 2", data["item_count"])
	}
}

func TestCartAddItemHappyPath(t *testing.T) {
	svc := &stubCartService{snap: ledger.Snapshot{Version: 1}}
	productID := uuid.New()

	body := `{"product_id":"` + productID.String() + `","variant_key":"m","quantity":2}`
	req := withCustomer(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body)))
	rec := httptest.NewRecorder()
	CartAddItem(svc, nil, nil)(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if svc.lastInput.ProductID != productID || svc.lastInput.Quantity != 2 || svc.lastInput.VariantKey != "m" {
		t.Fatalf("service input = %+v", svc.lastInput)
	}
}

func TestCartAddItemValidation(t *testing.T) {
	svc := &stubCartService{}

	cases := []struct {
		name string
		body string
	}{
		{"missing product", `{"quantity":1}`},
		{"bad uuid", `{"product_id":"nope","quantity":1}`},
		{"zero quantity", `{"product_id":"` + uuid.NewString() + `"}`},
		{"unknown field", `{"product_id":"` + uuid.NewString() + `","quantity":1,"price_cents":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := withCustomer(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(tc.body)))
			rec := httptest.NewRecorder()
			CartAddItem(svc, nil, nil)(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
			}
			var envelope types.ErrorEnvelope
			if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
				t.Fatalf("decode error envelope: %v", err)
			}
			if envelope.Error.Code != string(pkgerrors.CodeValidation) {
				t.Fatalf("code = %s, want %s", envelope.Error.Code, pkgerrors.CodeValidation)
			}
		})
	}
}

func TestCartApplyCouponForwardsCode(t *testing.T) {
	svc := &stubCartService{snap: ledger.Snapshot{CouponCode: "SAVE10", DiscountCents: 1000}}

	req := withCustomer(httptest.NewRequest(http.MethodPost, "/api/v1/cart/coupon", strings.NewReader(`{"code":"save10"}`)))
	rec := httptest.NewRecorder()
	CartApplyCoupon(svc, nil, nil)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if svc.lastCoupon != "save10" {
		t.Fatalf("code forwarded = %q", svc.lastCoupon)
	}
}

func TestCartErrorsMapToHTTPStatus(t *testing.T) {
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "cannot apply a coupon to an empty cart")}

	req := withCustomer(httptest.NewRequest(http.MethodPost, "/api/v1/cart/coupon", strings.NewReader(`{"code":"SAVE10"}`)))
	rec := httptest.NewRecorder()
	CartApplyCoupon(svc, nil, nil)(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestCartServiceUnavailable(t *testing.T) {
	req := withCustomer(httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	rec := httptest.NewRecorder()
	CartFetch(nil, nil)(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}
