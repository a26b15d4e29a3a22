package controllers

import (
	"net/http"

	"github.com/baseemali/neushop-backend/api/responses"
	"github.com/baseemali/neushop-backend/api/validators"
	shippingsvc "github.com/baseemali/neushop-backend/internal/shipping"
	pkgerrors "github.com/baseemali/neushop-backend/pkg/errors"
	"github.com/baseemali/neushop-backend/pkg/logger"
)

// ShippingOptions lists the service levels available for a destination, with
// free-shipping thresholds applied against the provided subtotal.
func ShippingOptions(svc shippingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipping service unavailable"))
			return
		}
		subtotal, err := validators.ParseQueryInt(r, "subtotal_cents", 0, 0, 1<<31-1)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		options, err := svc.ListOptions(r.Context(), r.URL.Query().Get("country"), int64(subtotal))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, options)
	}
}
