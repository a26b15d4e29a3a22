package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/baseemali/neushop-backend/api/middleware"
	"github.com/baseemali/neushop-backend/api/responses"
	"github.com/baseemali/neushop-backend/api/validators"
	checkoutsvc "github.com/baseemali/neushop-backend/internal/checkout"
	pkgerrors "github.com/baseemali/neushop-backend/pkg/errors"
	"github.com/baseemali/neushop-backend/pkg/logger"
)

// CheckoutRequest submits the current cart as an order.
type CheckoutRequest struct {
	AddressID       string `json:"address_id" validate:"required,uuid"`
	PaymentMethodID string `json:"payment_method_id" validate:"required,uuid"`
	CartVersion     uint64 `json:"cart_version"`
}

// CheckoutResponse acknowledges an accepted order.
type CheckoutResponse struct {
	OrderID     string    `json:"order_id"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// CheckoutSubmit assembles and submits the order. The Idempotency-Key header
// is required so a retried request cannot double-charge.
func CheckoutSubmit(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		idempotencyKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
		if idempotencyKey == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header is required"))
			return
		}

		var payload CheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		addressID, err := validators.ParsePathUUID(payload.AddressID, "address_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		methodID, err := validators.ParsePathUUID(payload.PaymentMethodID, "payment_method_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		receipt, err := svc.Submit(r.Context(), middleware.CustomerIDFromContext(r.Context()), checkoutsvc.Input{
			AddressID:       addressID,
			PaymentMethodID: methodID,
			ExpectedVersion: payload.CartVersion,
			IdempotencyKey:  idempotencyKey,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, CheckoutResponse{
			OrderID:     receipt.OrderID,
			Status:      receipt.Status.String(),
			SubmittedAt: receipt.SubmittedAt,
		})
	}
}
