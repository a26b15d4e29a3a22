package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baseemali/neushop-backend/api/middleware"
	"github.com/baseemali/neushop-backend/api/responses"
	"github.com/baseemali/neushop-backend/api/validators"
	addresssvc "github.com/baseemali/neushop-backend/internal/address"
	"github.com/baseemali/neushop-backend/pkg/db/models"
	pkgerrors "github.com/baseemali/neushop-backend/pkg/errors"
	"github.com/baseemali/neushop-backend/pkg/logger"
)

// AddressRequest is the create/update payload for a saved address.
type AddressRequest struct {
	Label      string `json:"label,omitempty" validate:"max=64"`
	FullName   string `json:"full_name" validate:"required,min=1,max=128"`
	Phone      string `json:"phone,omitempty" validate:"max=32"`
	Line1      string `json:"line1" validate:"required,min=1,max=256"`
	Line2      string `json:"line2,omitempty" validate:"max=256"`
	City       string `json:"city" validate:"required,min=1,max=128"`
	State      string `json:"state" validate:"required,min=1,max=64"`
	PostalCode string `json:"postal_code" validate:"required,min=1,max=16"`
	Country    string `json:"country,omitempty" validate:"omitempty,len=2"`
	IsDefault  bool   `json:"is_default,omitempty"`
}

// AddressResponse is the rendered saved address.
type AddressResponse struct {
	ID         string  `json:"id"`
	Label      *string `json:"label,omitempty"`
	FullName   string  `json:"full_name"`
	Phone      *string `json:"phone,omitempty"`
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
	IsDefault  bool    `json:"is_default"`
}

func newAddressResponse(record *models.Address) AddressResponse {
	return AddressResponse{
		ID:         record.ID.String(),
		Label:      record.Label,
		FullName:   record.FullName,
		Phone:      record.Phone,
		Line1:      record.Line1,
		Line2:      record.Line2,
		City:       record.City,
		State:      record.State,
		PostalCode: record.PostalCode,
		Country:    record.Country,
		IsDefault:  record.IsDefault,
	}
}

func toAddressInput(payload AddressRequest) addresssvc.Input {
	return addresssvc.Input{
		Label:      payload.Label,
		FullName:   payload.FullName,
		Phone:      payload.Phone,
		Line1:      payload.Line1,
		Line2:      payload.Line2,
		City:       payload.City,
		State:      payload.State,
		PostalCode: payload.PostalCode,
		Country:    payload.Country,
		IsDefault:  payload.IsDefault,
	}
}

// AddressList returns the customer's address book, default first.
func AddressList(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}
		records, err := svc.List(r.Context(), middleware.CustomerIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]AddressResponse, 0, len(records))
		for i := range records {
			out = append(out, newAddressResponse(&records[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// AddressCreate saves a new address.
func AddressCreate(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}
		var payload AddressRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		record, err := svc.Create(r.Context(), middleware.CustomerIDFromContext(r.Context()), toAddressInput(payload))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newAddressResponse(record))
	}
}

// AddressUpdate replaces the mutable fields of an address.
func AddressUpdate(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}
		id, err := validators.ParsePathUUID(chi.URLParam(r, "addressID"), "addressID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload AddressRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		record, err := svc.Update(r.Context(), middleware.CustomerIDFromContext(r.Context()), id, toAddressInput(payload))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newAddressResponse(record))
	}
}

// AddressDelete removes an address.
func AddressDelete(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}
		id, err := validators.ParsePathUUID(chi.URLParam(r, "addressID"), "addressID")
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

// AddressSetDefault marks one address as the checkout default.
func AddressSetDefault(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}
		id, err := validators.ParsePathUUID(chi.URLParam(r, "addressID"), "addressID")
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
