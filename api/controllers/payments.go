package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/davivienda-ecommerce/storefront-backend/api/responses"
	"github.com/davivienda-ecommerce/storefront-backend/api/validators"
	"github.com/davivienda-ecommerce/storefront-backend/internal/payments"
	pkgerrors "github.com/davivienda-ecommerce/storefront-backend/pkg/errors"
	"github.com/davivienda-ecommerce/storefront-backend/pkg/logger"
)

type paymentRequest struct {
	CartID            *uuid.UUID `json:"cart_id"`
	EncryptedCardData string     `json:"encrypted_card_data" validate:"required"`
}

// PaymentProcess records a pending payment for the caller's cart.
func PaymentProcess(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		identityID, err := callerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload paymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		receipt, err := svc.Process(r.Context(), identityID, payments.ProcessInput{
			CartID:            payload.CartID,
			EncryptedCardData: payload.EncryptedCardData,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, receipt)
	}
}
