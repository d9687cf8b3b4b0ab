package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/davivienda-ecommerce/storefront-backend/pkg/db"
	"github.com/davivienda-ecommerce/storefront-backend/pkg/db/models"
	pkgerrors "github.com/davivienda-ecommerce/storefront-backend/pkg/errors"
	"github.com/davivienda-ecommerce/storefront-backend/pkg/logger"
	"github.com/davivienda-ecommerce/storefront-backend/pkg/metrics"
	"github.com/google/uuid"
)

// DefaultReferenceAttempts bounds token generation per checkout.
const DefaultReferenceAttempts = 5

// ReferenceStore is the uniqueness index for reference tokens.
type ReferenceStore interface {
	ReferenceExists(ctx context.Context, token string) (bool, error)
	InsertReference(ctx context.Context, ref *models.PaymentReference) (bool, error)
}

// ReferenceGenerator issues opaque random payment reference tokens.
type ReferenceGenerator struct {
	attempts int
	newToken func() string
	logg     *logger.Logger
	metrics  *metrics.CheckoutMetrics
}

// NewReferenceGenerator returns a generator that gives up after attempts
// collisions. Non-positive attempts use DefaultReferenceAttempts.
func NewReferenceGenerator(attempts int, logg *logger.Logger, m *metrics.CheckoutMetrics) (*ReferenceGenerator, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if attempts <= 0 {
		attempts = DefaultReferenceAttempts
	}
	return &ReferenceGenerator{
		attempts: attempts,
		newToken: randomToken,
		logg:     logg,
		metrics:  m,
	}, nil
}

func randomToken() string {
	return strings.ToUpper(uuid.NewString())
}

// Generate checks each candidate against store and persists the first free
// one. A candidate that loses the insert to a concurrent writer counts as a
// collision and uses up an attempt. Exhausting the attempts is fatal for the
// checkout.
func (g *ReferenceGenerator) Generate(ctx context.Context, store ReferenceStore) (*models.PaymentReference, error) {
	for attempt := 1; attempt <= g.attempts; attempt++ {
		token := g.newToken()

		taken, err := store.ReferenceExists(ctx, token)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check payment reference")
		}
		if !taken {
			ref := &models.PaymentReference{Token: token}
			inserted, err := store.InsertReference(ctx, ref)
			if err != nil && !db.IsUniqueViolation(err, "") {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save payment reference")
			}
			if inserted {
				return ref, nil
			}
		}

		g.metrics.IncReferenceCollision()
		g.logg.Warn(g.logg.WithField(ctx, "attempt", attempt), "payment.reference_collision")
	}

	err := pkgerrors.Newf(pkgerrors.ReasonReferenceExhausted, "could not issue a unique payment reference after %d attempts", g.attempts)
	g.logg.Error(ctx, "payment.reference_exhausted", err)
	return nil, err
}
