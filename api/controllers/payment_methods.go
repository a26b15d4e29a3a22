package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baseemali/neushop-backend/api/middleware"
	"github.com/baseemali/neushop-backend/api/responses"
	"github.com/baseemali/neushop-backend/api/validators"
	pmsvc "github.com/baseemali/neushop-backend/internal/paymentmethods"
	"github.com/baseemali/neushop-backend/pkg/db/models"
	"github.com/baseemali/neushop-backend/pkg/enums"
	pkgerrors "github.com/baseemali/neushop-backend/pkg/errors"
	"github.com/baseemali/neushop-backend/pkg/logger"
)

// PaymentMethodRequest vaults a new instrument's display metadata.
type PaymentMethodRequest struct {
	VaultToken   string `json:"vault_token" validate:"required,min=1,max=256"`
	Type         string `json:"type,omitempty" validate:"omitempty,oneof=card paypal bank_wire"`
	CardBrand    string `json:"card_brand,omitempty" validate:"max=32"`
	CardLast4    string `json:"card_last4,omitempty" validate:"omitempty,len=4"`
	CardExpMonth int    `json:"card_exp_month,omitempty"`
	CardExpYear  int    `json:"card_exp_year,omitempty"`
	HolderName   string `json:"holder_name,omitempty" validate:"max=128"`
	IsDefault    bool   `json:"is_default,omitempty"`
}

// PaymentMethodResponse is the rendered instrument. The vault token is never
// echoed back.
type PaymentMethodResponse struct {
	ID           string  `json:"id"`
	Type         string  `json:"type"`
	CardBrand    *string `json:"card_brand,omitempty"`
	CardLast4    *string `json:"card_last4,omitempty"`
	CardExpMonth *int    `json:"card_exp_month,omitempty"`
	CardExpYear  *int    `json:"card_exp_year,omitempty"`
	HolderName   *string `json:"holder_name,omitempty"`
	IsDefault    bool    `json:"is_default"`
}

func newPaymentMethodResponse(record *models.PaymentMethod) PaymentMethodResponse {
	return PaymentMethodResponse{
		ID:           record.ID.String(),
		Type:         record.Type.String(),
		CardBrand:    record.CardBrand,
		CardLast4:    record.CardLast4,
		CardExpMonth: record.CardExpMonth,
		CardExpYear:  record.CardExpYear,
		HolderName:   record.HolderName,
		IsDefault:    record.IsDefault,
	}
}

// PaymentMethodList returns the customer's instruments, default first.
func PaymentMethodList(svc pmsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment method service unavailable"))
			return
		}
		records, err := svc.List(r.Context(), middleware.CustomerIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]PaymentMethodResponse, 0, len(records))
		for i := range records {
			out = append(out, newPaymentMethodResponse(&records[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// PaymentMethodStore saves a vaulted instrument.
func PaymentMethodStore(svc pmsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment method service unavailable"))
			return
		}
		var payload PaymentMethodRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		record, err := svc.Store(r.Context(), middleware.CustomerIDFromContext(r.Context()), pmsvc.StoreInput{
			VaultToken:   payload.VaultToken,
			Type:         enums.PaymentMethodType(payload.Type),
			CardBrand:    payload.CardBrand,
			CardLast4:    payload.CardLast4,
			CardExpMonth: payload.CardExpMonth,
			CardExpYear:  payload.CardExpYear,
			HolderName:   payload.HolderName,
			IsDefault:    payload.IsDefault,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newPaymentMethodResponse(record))
	}
}

// PaymentMethodDelete removes an instrument.
func PaymentMethodDelete(svc pmsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment method service unavailable"))
			return
		}
		id, err := validators.ParsePathUUID(chi.URLParam(r, "methodID"), "methodID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), middleware.CustomerIDFromContext(r.Context()), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// PaymentMethodSetDefault makes one instrument the checkout default.
func PaymentMethodSetDefault(svc pmsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment method service unavailable"))
			return
		}
		id, err := validators.ParsePathUUID(chi.URLParam(r, "methodID"), "methodID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.SetDefault(r.Context(), middleware.CustomerIDFromContext(r.Context()), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "default_updated"})
	}
}
