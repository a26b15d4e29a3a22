package paymentmethods

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/baseemali/neushop-backend/pkg/db/models"
	"github.com/baseemali/neushop-backend/pkg/enums"
	pkgerrors "github.com/baseemali/neushop-backend/pkg/errors"
)

type stubMethodsRepo struct {
	methods        []models.PaymentMethod
	createErr      error
	clearedDefault int
	defaultSetTo   uuid.UUID
}

func (s *stubMethodsRepo) WithTx(_ *gorm.DB) Repository { return s }

func (s *stubMethodsRepo) Create(_ context.Context, method *models.PaymentMethod) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.methods = append(s.methods, *method)
	return nil
}

func (s *stubMethodsRepo) Delete(_ context.Context, _ string, id uuid.UUID) (bool, error) {
	kept := s.methods[:0]
	removed := false
	for _, m := range s.methods {
		if m.ID == id {
			removed = true
			continue
		}
		kept = append(kept, m)
	}
	s.methods = kept
	return removed, nil
}

func (s *stubMethodsRepo) FindByID(_ context.Context, customerID string, id uuid.UUID) (*models.PaymentMethod, error) {
	for i := range s.methods {
		if s.methods[i].ID == id && s.methods[i].CustomerID == customerID {
			return &s.methods[i], nil
		}
	}
	return nil, nil
}

func (s *stubMethodsRepo) ListByCustomer(_ context.Context, customerID string) ([]models.PaymentMethod, error) {
	var out []models.PaymentMethod
	for _, m := range s.methods {
		if m.CustomerID == customerID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *stubMethodsRepo) ClearDefault(_ context.Context, _ string) error {
	s.clearedDefault++
	for i := range s.methods {
		s.methods[i].IsDefault = false
	}
	return nil
}

func (s *stubMethodsRepo) SetDefault(_ context.Context, customerID string, id uuid.UUID) (bool, error) {
	s.defaultSetTo = id
	for i := range s.methods {
		if s.methods[i].ID == id && s.methods[i].CustomerID == customerID {
			s.methods[i].IsDefault = true
			return true, nil
		}
	}
	return false, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func cardInput() StoreInput {
	return StoreInput{
		VaultToken:   "vault-abc",
		Type:         enums.PaymentMethodTypeCard,
		CardBrand:    "visa",
		CardLast4:    "4242",
		CardExpMonth: 12,
		CardExpYear:  2030,
		HolderName:   "Dana Ortiz",
	}
}

func TestStoreFirstMethodBecomesDefault(t *testing.T) {
	repo := &stubMethodsRepo{}
	svc, err := NewService(repo, stubTxRunner{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	method, err := svc.Store(context.Background(), "cust-1", cardInput())
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if !method.IsDefault {
		t.Fatalf("first method should default")
	}
	if method.CardLast4 == nil || *method.CardLast4 != "4242" {
		t.Fatalf("card last4 not stored")
	}
}

func TestStoreExplicitDefaultDemotesPrevious(t *testing.T) {
	repo := &stubMethodsRepo{methods: []models.PaymentMethod{
		{ID: uuid.New(), CustomerID: "cust-1", IsDefault: true},
	}}
	svc, _ := NewService(repo, stubTxRunner{})

	input := cardInput()
	input.IsDefault = true
	method, err := svc.Store(context.Background(), "cust-1", input)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if !method.IsDefault {
		t.Fatalf("expected new method to be default")
	}
	if repo.clearedDefault != 1 {
		t.Fatalf("previous default was not demoted")
	}
}

func TestStorePromotesWhenNoDefaultExists(t *testing.T) {
	repo := &stubMethodsRepo{methods: []models.PaymentMethod{
		{ID: uuid.New(), CustomerID: "cust-1"},
	}}
	svc, _ := NewService(repo, stubTxRunner{})

	method, err := svc.Store(context.Background(), "cust-1", cardInput())
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if !method.IsDefault {
		t.Fatalf("method should default when none is marked")
	}
}

func TestStoreValidation(t *testing.T) {
	svc, _ := NewService(&stubMethodsRepo{}, stubTxRunner{})

	cases := []struct {
		name   string
		mutate func(*StoreInput)
	}{
		{"missing token", func(in *StoreInput) { in.VaultToken = "  " }},
		{"bad type", func(in *StoreInput) { in.Type = enums.PaymentMethodType("crypto") }},
		{"bad last4", func(in *StoreInput) { in.CardLast4 = "12" }},
		{"bad month", func(in *StoreInput) { in.CardExpMonth = 13 }},
		{"bad year", func(in *StoreInput) { in.CardExpYear = 99 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := cardInput()
			tc.mutate(&input)
			_, err := svc.Store(context.Background(), "cust-1", input)
			if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeValidation {
				t.Fatalf("code = %s, want %s", code, pkgerrors.CodeValidation)
			}
		})
	}
}

func TestStoreDuplicateToken(t *testing.T) {
	repo := &stubMethodsRepo{createErr: errors.New(`duplicate key value violates unique constraint "vault_token"`)}
	svc, _ := NewService(repo, stubTxRunner{})

	_, err := svc.Store(context.Background(), "cust-1", cardInput())
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeConflict {
		t.Fatalf("code = %s, want %s", code, pkgerrors.CodeConflict)
	}
}

func TestDeleteDefaultPromotesOldestRemaining(t *testing.T) {
	defaultID := uuid.New()
	otherID := uuid.New()
	repo := &stubMethodsRepo{methods: []models.PaymentMethod{
		{ID: defaultID, CustomerID: "cust-1", IsDefault: true},
		{ID: otherID, CustomerID: "cust-1"},
	}}
	svc, _ := NewService(repo, stubTxRunner{})

	if err := svc.Delete(context.Background(), "cust-1", defaultID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if repo.defaultSetTo != otherID {
		t.Fatalf("remaining method was not promoted")
	}
}

func TestSetDefaultUnknownMethod(t *testing.T) {
	svc, _ := NewService(&stubMethodsRepo{}, stubTxRunner{})

	err := svc.SetDefault(context.Background(), "cust-1", uuid.New())
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeNotFound {
		t.Fatalf("code = %s, want %s", code, pkgerrors.CodeNotFound)
	}
}

func TestCustomerIdentityRequired(t *testing.T) {
	svc, _ := NewService(&stubMethodsRepo{}, stubTxRunner{})

	_, err := svc.List(context.Background(), " ")
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeUnauthorized {
		t.Fatalf("code = %s, want %s", code, pkgerrors.CodeUnauthorized)
	}
}
