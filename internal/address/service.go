package address

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/baseemali/neushop-backend/pkg/db/models"
	pkgerrors "github.com/baseemali/neushop-backend/pkg/errors"
	"github.com/baseemali/neushop-backend/pkg/types"
)

// Service manages the customer address book used at checkout.
type Service interface {
	Create(ctx context.Context, customerID string, input Input) (*models.Address, error)
	Update(ctx context.Context, customerID string, id uuid.UUID, input Input) (*models.Address, error)
	Delete(ctx context.Context, customerID string, id uuid.UUID) error
	Get(ctx context.Context, customerID string, id uuid.UUID) (*models.Address, error)
	List(ctx context.Context, customerID string) ([]models.Address, error)
	SetDefault(ctx context.Context, customerID string, id uuid.UUID) error
}

// Input is the create/update payload for a saved address.
type Input struct {
	Label      string
	FullName   string
	Phone      string
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
	IsDefault  bool
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo     Repository
	txRunner txRunner
}

// NewService constructs an address service.
func NewService(repo Repository, runner txRunner) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "address repo required")
	}
	if runner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &service{repo: repo, txRunner: runner}, nil
}

// Create persists a new address. The first address a customer saves becomes
// the default automatically; an explicit default demotes the previous one.
func (s *service) Create(ctx context.Context, customerID string, input Input) (*models.Address, error) {
	if err := requireCustomer(customerID); err != nil {
		return nil, err
	}
	record, err := buildAddress(customerID, input)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
	}
	record.IsDefault = input.IsDefault || len(existing) == 0

	if err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if record.IsDefault && len(existing) > 0 {
			if err := txRepo.ClearDefault(ctx, customerID); err != nil {
				return err
			}
		}
		return txRepo.Create(ctx, record)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist address")
	}
	return record, nil
}

// Update replaces the mutable fields of an existing address. Default status
// is changed through SetDefault, not here.
func (s *service) Update(ctx context.Context, customerID string, id uuid.UUID, input Input) (*models.Address, error) {
	if err := requireCustomer(customerID); err != nil {
		return nil, err
	}
	current, err := s.Get(ctx, customerID, id)
	if err != nil {
		return nil, err
	}

	record, err := buildAddress(customerID, input)
	if err != nil {
		return nil, err
	}
	record.ID = current.ID
	record.IsDefault = current.IsDefault

	if err := s.repo.Update(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update address")
	}
	return record, nil
}

// Delete removes an address. Deleting the default promotes the oldest
// remaining address so the customer always has one default.
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
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete address")
	}
	return nil
}

func (s *service) Get(ctx context.Context, customerID string, id uuid.UUID) (*models.Address, error) {
	if err := requireCustomer(customerID); err != nil {
		return nil, err
	}
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address id is required")
	}
	record, err := s.repo.FindByID(ctx, customerID, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	if record == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return record, nil
}

func (s *service) List(ctx context.Context, customerID string) ([]models.Address, error) {
	if err := requireCustomer(customerID); err != nil {
		return nil, err
	}
	out, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
	}
	return out, nil
}

// SetDefault marks one address as the checkout default, demoting the rest.
func (s *service) SetDefault(ctx context.Context, customerID string, id uuid.UUID) error {
	if err := requireCustomer(customerID); err != nil {
		return err
	}
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "address id is required")
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
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set default address")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return nil
}

func requireCustomer(customerID string) error {
	if strings.TrimSpace(customerID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	return nil
}

func buildAddress(customerID string, input Input) (*models.Address, error) {
	value := types.Address{
		Line1:      strings.TrimSpace(input.Line1),
		City:       strings.TrimSpace(input.City),
		State:      strings.TrimSpace(input.State),
		PostalCode: strings.TrimSpace(input.PostalCode),
		Country:    strings.ToUpper(strings.TrimSpace(input.Country)),
	}
	if line2 := strings.TrimSpace(input.Line2); line2 != "" {
		value.Line2 = &line2
	}
	if value.Country == "" {
		value.Country = "US"
	}
	if field := value.Validate(); field != "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, field+" is required")
	}
	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "full_name is required")
	}

	record := &models.Address{
		CustomerID: customerID,
		FullName:   fullName,
		Line1:      value.Line1,
		Line2:      value.Line2,
		City:       value.City,
		State:      value.State,
		PostalCode: value.PostalCode,
		Country:    value.Country,
	}
	if label := strings.TrimSpace(input.Label); label != "" {
		record.Label = &label
	}
	if phone := strings.TrimSpace(input.Phone); phone != "" {
		record.Phone = &phone
	}
	return record, nil
}
