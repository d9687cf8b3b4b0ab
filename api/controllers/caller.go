package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/davivienda-ecommerce/storefront-backend/api/middleware"
	pkgerrors "github.com/davivienda-ecommerce/storefront-backend/pkg/errors"
)

func callerFromContext(r *http.Request) (uuid.UUID, error) {
	identityID := middleware.IdentityIDFromContext(r.Context())
	if identityID == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "identity context missing")
	}
	return identityID, nil
}
