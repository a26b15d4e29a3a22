package products

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/baseemali/neushop-backend/pkg/db/models"
	pkgerrors "github.com/baseemali/neushop-backend/pkg/errors"
)

// Service exposes catalog reads for the storefront and the cart.
type Service interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, limit, offset int) ([]models.Product, error)
	PriceFor(ctx context.Context, id uuid.UUID, variantKey string) (*Quote, error)
}

// Quote is the frozen pricing for one product+variant, resolved at add time.
type Quote struct {
	ProductID      uuid.UUID
	VariantKey     string
	Name           string
	ImageURL       string
	UnitPriceCents int64
	Currency       string
}

type catalogReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListActive(ctx context.Context, limit, offset int) ([]models.Product, error)
}

type service struct {
	repo catalogReader
}

// NewService constructs a catalog service.
func NewService(repo catalogReader) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "products repo required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

func (s *service) ListProducts(ctx context.Context, limit, offset int) ([]models.Product, error) {
	out, err := s.repo.ListActive(ctx, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return out, nil
}

// PriceFor resolves the unit price for a product, applying the variant delta
// when a variant key is supplied. Inactive products cannot be priced.
func (s *service) PriceFor(ctx context.Context, id uuid.UUID, variantKey string) (*Quote, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "product is not available")
	}

	quote := &Quote{
		ProductID:      product.ID,
		Name:           product.Name,
		UnitPriceCents: product.PriceCents,
		Currency:       product.Currency,
	}
	if product.ImageURL != nil {
		quote.ImageURL = *product.ImageURL
	}

	variantKey = strings.TrimSpace(variantKey)
	if variantKey == "" {
		return quote, nil
	}

	for _, variant := range product.Variants {
		if variant.VariantKey == variantKey {
			quote.VariantKey = variantKey
			quote.UnitPriceCents += variant.PriceDeltaCents
			if quote.UnitPriceCents < 0 {
				quote.UnitPriceCents = 0
			}
			return quote, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product variant not found")
}
