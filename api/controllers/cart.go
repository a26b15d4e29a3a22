package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baseemali/neushop-backend/api/middleware"
	"github.com/baseemali/neushop-backend/api/responses"
	"github.com/baseemali/neushop-backend/api/validators"
	cartsvc "github.com/baseemali/neushop-backend/internal/cart"
	"github.com/baseemali/neushop-backend/internal/ledger"
	pkgerrors "github.com/baseemali/neushop-backend/pkg/errors"
	"github.com/baseemali/neushop-backend/pkg/logger"
	"github.com/baseemali/neushop-backend/pkg/metrics"
)

// AddItemRequest adds a catalog product to the cart.
type AddItemRequest struct {
	ProductID  string `json:"product_id" validate:"required,uuid"`
	VariantKey string `json:"variant_key,omitempty"`
	Quantity   int    `json:"quantity" validate:"required,min=1"`
}

// UpdateItemRequest sets the absolute quantity for one line.
type UpdateItemRequest struct {
	VariantKey string `json:"variant_key,omitempty"`
	Quantity   int    `json:"quantity" validate:"min=0"`
}

// ApplyCouponRequest applies a discount code to the cart.
type ApplyCouponRequest struct {
	Code string `json:"code" validate:"required,min=1,max=64"`
}

// UpdateShippingRequest selects a destination and service level.
type UpdateShippingRequest struct {
	Country string `json:"country" validate:"required,len=2"`
	Method  string `json:"method" validate:"required,oneof=standard express pickup"`
}

// CartLineResponse is one rendered cart line.
type CartLineResponse struct {
	ProductID         string `json:"product_id"`
	VariantKey        string `json:"variant_key,omitempty"`
	Name              string `json:"name"`
	ImageURL          string `json:"image_url,omitempty"`
	UnitPriceCents    int64  `json:"unit_price_cents"`
	Quantity          int    `json:"quantity"`
	LineSubtotalCents int64  `json:"line_subtotal_cents"`
}

// CartResponse is the full rendered cart with derived totals.
type CartResponse struct {
	Items         []CartLineResponse `json:"items"`
	ItemCount     int                `json:"item_count"`
	SubtotalCents int64              `json:"subtotal_cents"`
	TaxRateBPS    int                `json:"tax_rate_bps"`
	TaxCents      int64              `json:"tax_cents"`
	ShippingCents int64              `json:"shipping_cents"`
	DiscountCents int64              `json:"discount_cents"`
	CouponCode    string             `json:"coupon_code,omitempty"`
	TotalCents    int64              `json:"total_cents"`
	Version       uint64             `json:"version"`
}

func newCartResponse(snap ledger.Snapshot) CartResponse {
	items := make([]CartLineResponse, 0, len(snap.Items))
	for _, item := range snap.Items {
		items = append(items, CartLineResponse{
			ProductID:         item.ProductID.String(),
			VariantKey:        item.VariantKey,
			Name:              item.Name,
			ImageURL:          item.ImageURL,
			UnitPriceCents:    item.UnitPriceCents,
			Quantity:          item.Quantity,
			LineSubtotalCents: item.LineSubtotalCents(),
		})
	}
	return CartResponse{
		Items:         items,
		ItemCount:     snap.ItemCount(),
		SubtotalCents: snap.SubtotalCents,
		TaxRateBPS:    snap.TaxRateBPS,
		TaxCents:      snap.TaxCents,
		ShippingCents: snap.ShippingCents,
		DiscountCents: snap.DiscountCents,
		CouponCode:    snap.CouponCode,
		TotalCents:    snap.TotalCents,
		Version:       snap.Version,
	}
}

// CartFetch returns the customer's current cart.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		snap, err := svc.Get(r.Context(), middleware.CustomerIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(snap))
	}
}

// CartAddItem adds or merges one product line.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger, m *metrics.HTTPMetrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		var payload AddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParsePathUUID(payload.ProductID, "product_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snap, err := svc.AddItem(r.Context(), middleware.CustomerIDFromContext(r.Context()), cartsvc.AddItemInput{
			ProductID:  productID,
			VariantKey: payload.VariantKey,
			Quantity:   payload.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		m.IncCartOp("add_item")
		responses.WriteSuccessStatus(w, http.StatusCreated, newCartResponse(snap))
	}
}

// CartUpdateItem sets the absolute quantity for a line; zero removes it.
func CartUpdateItem(svc cartsvc.Service, logg *logger.Logger, m *metrics.HTTPMetrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		productID, err := validators.ParsePathUUID(chi.URLParam(r, "productID"), "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload UpdateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snap, err := svc.UpdateQuantity(r.Context(), middleware.CustomerIDFromContext(r.Context()), productID, payload.VariantKey, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		m.IncCartOp("update_quantity")
		responses.WriteSuccess(w, newCartResponse(snap))
	}
}

// CartRemoveItem drops a product (or one variant, via ?variant=) from the cart.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger, m *metrics.HTTPMetrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		productID, err := validators.ParsePathUUID(chi.URLParam(r, "productID"), "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snap, err := svc.RemoveItem(r.Context(), middleware.CustomerIDFromContext(r.Context()), productID, r.URL.Query().Get("variant"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		m.IncCartOp("remove_item")
		responses.WriteSuccess(w, newCartResponse(snap))
	}
}

// CartApplyCoupon validates and records a discount code.
func CartApplyCoupon(svc cartsvc.Service, logg *logger.Logger, m *metrics.HTTPMetrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		var payload ApplyCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snap, err := svc.ApplyCoupon(r.Context(), middleware.CustomerIDFromContext(r.Context()), payload.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		m.IncCartOp("apply_coupon")
		responses.WriteSuccess(w, newCartResponse(snap))
	}
}

// CartRemoveCoupon clears any active discount.
func CartRemoveCoupon(svc cartsvc.Service, logg *logger.Logger, m *metrics.HTTPMetrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		snap, err := svc.RemoveCoupon(r.Context(), middleware.CustomerIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		m.IncCartOp("remove_coupon")
		responses.WriteSuccess(w, newCartResponse(snap))
	}
}

// CartUpdateShipping quotes and records shipping for the cart.
func CartUpdateShipping(svc cartsvc.Service, logg *logger.Logger, m *metrics.HTTPMetrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		var payload UpdateShippingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snap, err := svc.UpdateShipping(r.Context(), middleware.CustomerIDFromContext(r.Context()), cartsvc.ShippingInput{
			Country: payload.Country,
			Method:  payload.Method,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		m.IncCartOp("update_shipping")
		responses.WriteSuccess(w, newCartResponse(snap))
	}
}

// CartClear empties the cart entirely.
func CartClear(svc cartsvc.Service, logg *logger.Logger, m *metrics.HTTPMetrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		snap, err := svc.Clear(r.Context(), middleware.CustomerIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		m.IncCartOp("clear")
		responses.WriteSuccess(w, newCartResponse(snap))
	}
}
