package controllers

import (
	"context"
	"net/http"

	"github.com/davivienda-ecommerce/storefront-backend/api/responses"
	"github.com/davivienda-ecommerce/storefront-backend/api/validators"
	"github.com/davivienda-ecommerce/storefront-backend/internal/identity"
	"github.com/davivienda-ecommerce/storefront-backend/internal/stock"
	pkgerrors "github.com/davivienda-ecommerce/storefront-backend/pkg/errors"
	"github.com/davivienda-ecommerce/storefront-backend/pkg/logger"
)

// DocumentResolver resolves a buyer named by document.
type DocumentResolver interface {
	ResolveByDocument(ctx context.Context, documentType, documentNumber string) (*identity.Identity, error)
}

type stockValidateRequest struct {
	DocumentType   string `json:"document_type" validate:"required_with=DocumentNumber,max=16"`
	DocumentNumber string `json:"document_number" validate:"required_with=DocumentType,max=32"`
}

// StockValidate checks the caller's cart against current stock. A shortage is
// answered as an insufficient stock error carrying the full report.
func StockValidate(checker stock.Checker, resolver DocumentResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock checker unavailable"))
			return
		}

		identityID, err := callerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload stockValidateRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		docType, docNumber := validators.SanitizeDocument(payload.DocumentType, payload.DocumentNumber)
		if docType != "" && docNumber != "" {
			if resolver == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "identity resolver unavailable"))
				return
			}
			named, err := resolver.ResolveByDocument(r.Context(), docType, docNumber)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if named.ID != identityID {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Newf(pkgerrors.ReasonCartUnauthorized, "document does not belong to the caller"))
				return
			}
		}

		report, err := checker.CheckCart(r.Context(), identityID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !report.Available {
			responses.WriteError(r.Context(), logg, w, report.Err())
			return
		}

		responses.WriteSuccess(w, report)
	}
}
