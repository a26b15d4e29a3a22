package paymentmethods

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/baseemali/neushop-backend/pkg/db"
	"github.com/baseemali/neushop-backend/pkg/db/models"
	"github.com/baseemali/neushop-backend/pkg/enums"
	pkgerrors "github.com/baseemali/neushop-backend/pkg/errors"
)

// Service manages the vaulted instruments a customer can pay with. Card data
// never passes through here; the frontend vaults with the processor and hands
// us the opaque token plus display metadata.
type Service interface {
	Store(ctx context.Context, customerID string, input StoreInput) (*models.PaymentMethod, error)
	List(ctx context.Context, customerID string) ([]models.PaymentMethod, error)
	Get(ctx context.Context, customerID string, id uuid.UUID) (*models.PaymentMethod, error)
	Delete(ctx context.Context, customerID string, id uuid.UUID) error
	SetDefault(ctx context.Context, customerID string, id uuid.UUID) error
}

// StoreInput captures the payload required to save an instrument.
type StoreInput struct {
	VaultToken   string
	Type         enums.PaymentMethodType
	CardBrand    string
	CardLast4    string
	CardExpMonth int
	CardExpYear  int
	HolderName   string
	IsDefault    bool
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo     Repository
	txRunner txRunner
}

// NewService constructs a payment method service.
func NewService(repo Repository, runner txRunner) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment methods repo required")
	}
	if runner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &service{repo: repo, txRunner: runner}, nil
}

// Store persists a vaulted instrument. The first instrument becomes the
// default; an explicit default demotes the previous one. A reused vault
// token maps to a conflict rather than a dependency failure.
func (s *service) Store(ctx context.Context, customerID string, input StoreInput) (*models.PaymentMethod, error) {
	if err := requireCustomer(customerID); err != nil {
		return nil, err
	}
	method, err := buildPaymentMethod(customerID, input)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payment methods")
	}

	hasDefault := false
	for _, m := range existing {
		if m.IsDefault {
			hasDefault = true
			break
		}
	}
	method.IsDefault = input.IsDefault || len(existing) == 0 || !hasDefault

	if err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if method.IsDefault && hasDefault {
			if err := txRepo.ClearDefault(ctx, customerID); err != nil {
				return err
			}
		}
		return txRepo.Create(ctx, method)
	}); err != nil {
		if db.IsUniqueViolation(err, "vault_token") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "payment method already stored")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist payment method")
	}
	return method, nil
}

func (s *service) List(ctx context.Context, customerID string) ([]models.PaymentMethod, error) {
	if err := requireCustomer(customerID); err != nil {
		return nil, err
	}
	out, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payment methods")
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, customerID string, id uuid.UUID) (*models.PaymentMethod, error) {
	if err := requireCustomer(customerID); err != nil {
		return nil, err
	}
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method id is required")
	}
	method, err := s.repo.FindByID(ctx, customerID, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment method")
	}
	if method == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment method not found")
	}
	return method, nil
}

// Delete removes an instrument, promoting the oldest remaining one when the
// default is deleted.
func (s *service) Delete(ctx context.Context, customerID string, id uuid.UUID) error {
	if err := requireCustomer(customerID); err != nil {
		return err
	}
	current, err := s.Get(ctx, customerID, id)
	if err != nil {
		return err
	}

	if err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		deleted, err := txRepo.Delete(ctx, customerID, id)
		if err != nil {
			return err
		}
		if !deleted || !current.IsDefault {
			return nil
		}
		remaining, err := txRepo.ListByCustomer(ctx, customerID)
		if err != nil {
			return err
		}
		if len(remaining) == 0 {
			return nil
		}
		_, err = txRepo.SetDefault(ctx, customerID, remaining[0].ID)
		return err
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete payment method")
	}
	return nil
}

// SetDefault makes one instrument the checkout default, demoting the rest.
func (s *service) SetDefault(ctx context.Context, customerID string, id uuid.UUID) error {
	if err := requireCustomer(customerID); err != nil {
		return err
	}
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment method id is required")
	}

	var found bool
	if err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.ClearDefault(ctx, customerID); err != nil {
			return err
		}
		ok, err := txRepo.SetDefault(ctx, customerID, id)
		if err != nil {
			return err
		}
		found = ok
		return nil
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set default payment method")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "payment method not found")
	}
	return nil
}

func requireCustomer(customerID string) error {
	if strings.TrimSpace(customerID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	return nil
}

func buildPaymentMethod(customerID string, input StoreInput) (*models.PaymentMethod, error) {
	token := strings.TrimSpace(input.VaultToken)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vault_token is required")
	}
	methodType := input.Type
	if methodType == "" {
		methodType = enums.PaymentMethodTypeCard
	}
	if !methodType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method type")
	}

	method := &models.PaymentMethod{
		CustomerID: customerID,
		VaultToken: token,
		Type:       methodType,
	}
	if methodType == enums.PaymentMethodTypeCard {
		last4 := strings.TrimSpace(input.CardLast4)
		if len(last4) != 4 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "card_last4 must be 4 digits")
		}
		method.CardLast4 = &last4
		if brand := strings.TrimSpace(input.CardBrand); brand != "" {
			method.CardBrand = &brand
		}
		if input.CardExpMonth < 1 || input.CardExpMonth > 12 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "card_exp_month out of range")
		}
		if input.CardExpYear < 2000 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "card_exp_year out of range")
		}
		month, year := input.CardExpMonth, input.CardExpYear
		method.CardExpMonth = &month
		method.CardExpYear = &year
	}
	if holder := strings.TrimSpace(input.HolderName); holder != "" {
		method.HolderName = &holder
	}

	metadata, err := json.Marshal(map[string]string{"vault_token": token})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal metadata")
	}
	method.Metadata = metadata
	return method, nil
}
