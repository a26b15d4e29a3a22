package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baseemali/neushop-backend/api/responses"
	"github.com/baseemali/neushop-backend/api/validators"
	productsvc "github.com/baseemali/neushop-backend/internal/products"
	"github.com/baseemali/neushop-backend/pkg/db/models"
	pkgerrors "github.com/baseemali/neushop-backend/pkg/errors"
	"github.com/baseemali/neushop-backend/pkg/logger"
)

// ProductVariantResponse renders one sellable variant.
type ProductVariantResponse struct {
	VariantKey      string  `json:"variant_key"`
	Size            *string `json:"size,omitempty"`
	Color           *string `json:"color,omitempty"`
	PriceDeltaCents int64   `json:"price_delta_cents"`
}

// ProductResponse renders a catalog listing.
type ProductResponse struct {
	ID          string                   `json:"id"`
	SKU         string                   `json:"sku"`
	Name        string                   `json:"name"`
	Description *string                  `json:"description,omitempty"`
	ImageURL    *string                  `json:"image_url,omitempty"`
	PriceCents  int64                    `json:"price_cents"`
	Currency    string                   `json:"currency"`
	IsActive    bool                     `json:"is_active"`
	Variants    []ProductVariantResponse `json:"variants,omitempty"`
}

func newProductResponse(record *models.Product) ProductResponse {
	variants := make([]ProductVariantResponse, 0, len(record.Variants))
	for _, v := range record.Variants {
		variants = append(variants, ProductVariantResponse{
			VariantKey:      v.VariantKey,
			Size:            v.Size,
			Color:           v.Color,
			PriceDeltaCents: v.PriceDeltaCents,
		})
	}
	return ProductResponse{
		ID:          record.ID.String(),
		SKU:         record.SKU,
		Name:        record.Name,
		Description: record.Description,
		ImageURL:    record.ImageURL,
		PriceCents:  record.PriceCents,
		Currency:    record.Currency,
		IsActive:    record.IsActive,
		Variants:    variants,
	}
}

// ProductList returns the active catalog.
func ProductList(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 100000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, err := svc.ListProducts(r.Context(), limit, offset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]ProductResponse, 0, len(records))
		for i := range records {
			out = append(out, newProductResponse(&records[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// ProductFetch returns one listing with its variants.
func ProductFetch(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		id, err := validators.ParsePathUUID(chi.URLParam(r, "productID"), "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		record, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProductResponse(record))
	}
}
