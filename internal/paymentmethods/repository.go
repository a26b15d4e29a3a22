package paymentmethods

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/baseemali/neushop-backend/pkg/db/models"
)

// Repository defines persistence for vaulted payment instruments.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, method *models.PaymentMethod) error
	Delete(ctx context.Context, customerID string, id uuid.UUID) (bool, error)
	FindByID(ctx context.Context, customerID string, id uuid.UUID) (*models.PaymentMethod, error)
	ListByCustomer(ctx context.Context, customerID string) ([]models.PaymentMethod, error)
	ClearDefault(ctx context.Context, customerID string) error
	SetDefault(ctx context.Context, customerID string, id uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, method *models.PaymentMethod) error {
	return r.db.WithContext(ctx).Create(method).Error
}

func (r *repository) Delete(ctx context.Context, customerID string, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND customer_id = ?", id, customerID).
		Delete(&models.PaymentMethod{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) FindByID(ctx context.Context, customerID string, id uuid.UUID) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	err := r.db.WithContext(ctx).
		First(&method, "id = ? AND customer_id = ?", id, customerID).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &method, nil
}

func (r *repository) ListByCustomer(ctx context.Context, customerID string) ([]models.PaymentMethod, error) {
	var methods []models.PaymentMethod
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("is_default DESC, created_at ASC").
		Find(&methods).
		Error
	if err != nil {
		return nil, err
	}
	return methods, nil
}

func (r *repository) ClearDefault(ctx context.Context, customerID string) error {
	return r.db.WithContext(ctx).
		Model(&models.PaymentMethod{}).
		Where("customer_id = ? AND is_default = ?", customerID, true).
		UpdateColumn("is_default", false).
		Error
}

func (r *repository) SetDefault(ctx context.Context, customerID string, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PaymentMethod{}).
		Where("id = ? AND customer_id = ?", id, customerID).
		UpdateColumn("is_default", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
