package shipping

import (
	"context"
	"strings"

	"github.com/baseemali/neushop-backend/pkg/db/models"
	"github.com/baseemali/neushop-backend/pkg/enums"
	pkgerrors "github.com/baseemali/neushop-backend/pkg/errors"
)

// Service resolves shipping cost for a destination and service level.
type Service interface {
	QuoteRate(ctx context.Context, input QuoteInput) (*Rate, error)
	ListOptions(ctx context.Context, country string, subtotalCents int64) ([]Rate, error)
}

// QuoteInput identifies the destination and the cart value used for
// free-shipping thresholds.
type QuoteInput struct {
	Country       string
	Method        enums.ShippingMethod
	SubtotalCents int64
}

// Rate is the resolved shipping quote the cart records.
type Rate struct {
	Method           enums.ShippingMethod `json:"method"`
	AmountCents      int64                `json:"amount_cents"`
	EstimatedDaysMin int                  `json:"estimated_days_min"`
	EstimatedDaysMax int                  `json:"estimated_days_max"`
	FreeShipping     bool                 `json:"free_shipping"`
}

type rateLoader interface {
	FindRate(ctx context.Context, country string, method enums.ShippingMethod) (*models.ShippingRate, error)
	ListRates(ctx context.Context, country string) ([]models.ShippingRate, error)
}

type service struct {
	repo rateLoader
}

// NewService constructs a shipping service.
func NewService(repo rateLoader) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "shipping repo required")
	}
	return &service{repo: repo}, nil
}

// QuoteRate resolves the cost of one service level. Pickup is always free;
// other methods drop to zero above the configured free-shipping threshold.
func (s *service) QuoteRate(ctx context.Context, input QuoteInput) (*Rate, error) {
	country := strings.ToUpper(strings.TrimSpace(input.Country))
	if country == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "country is required")
	}
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown shipping method")
	}
	if input.SubtotalCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subtotal cannot be negative")
	}

	record, err := s.repo.FindRate(ctx, country, input.Method)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipping rate")
	}
	if record == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no shipping rate for destination")
	}

	return buildRate(record, input.SubtotalCents), nil
}

// ListOptions returns every service level available for the destination with
// thresholds already applied, cheapest first.
func (s *service) ListOptions(ctx context.Context, country string, subtotalCents int64) ([]Rate, error) {
	country = strings.ToUpper(strings.TrimSpace(country))
	if country == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "country is required")
	}

	records, err := s.repo.ListRates(ctx, country)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shipping rates")
	}

	out := make([]Rate, 0, len(records))
	for i := range records {
		out = append(out, *buildRate(&records[i], subtotalCents))
	}
	return out, nil
}

func buildRate(record *models.ShippingRate, subtotalCents int64) *Rate {
	rate := &Rate{
		Method:           record.Method,
		AmountCents:      record.AmountCents,
		EstimatedDaysMin: record.EstimatedDaysMin,
		EstimatedDaysMax: record.EstimatedDaysMax,
	}
	if record.Method == enums.ShippingMethodPickup {
		rate.AmountCents = 0
	}
	if record.FreeAboveCents != nil && subtotalCents >= *record.FreeAboveCents {
		rate.AmountCents = 0
	}
	rate.FreeShipping = rate.AmountCents == 0 && record.AmountCents > 0
	return rate
}
