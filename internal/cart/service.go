package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/davivienda-ecommerce/storefront-backend/pkg/db"
	"github.com/davivienda-ecommerce/storefront-backend/pkg/db/models"
	pkgerrors "github.com/davivienda-ecommerce/storefront-backend/pkg/errors"
	"github.com/davivienda-ecommerce/storefront-backend/pkg/logger"
	"github.com/davivienda-ecommerce/storefront-backend/pkg/metrics"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service exposes the cart lifecycle and item operations. Every call takes
// the caller's identity explicitly and checks ownership against it.
type Service interface {
	CreateCart(ctx context.Context, identityID uuid.UUID) (*CartDTO, error)
	GetOrCreateCart(ctx context.Context, identityID uuid.UUID) (*CartDTO, error)

	AddItem(ctx context.Context, identityID uuid.UUID, input AddItemInput) (*ItemDTO, error)
	AddItems(ctx context.Context, identityID uuid.UUID, input AddBatchInput) (*BatchResult, error)
	UpdateQuantity(ctx context.Context, identityID, itemID uuid.UUID, quantity int) (*ItemDTO, error)
	PatchItem(ctx context.Context, identityID, itemID uuid.UUID, patch ItemPatch) (*ItemDTO, error)
	RemoveItem(ctx context.Context, identityID, itemID uuid.UUID) error
	ClearCart(ctx context.Context, identityID, cartID uuid.UUID) error
	GetItem(ctx context.Context, identityID, itemID uuid.UUID) (*ItemDTO, error)
	ListItems(ctx context.Context, identityID, cartID uuid.UUID) ([]ItemDTO, error)
	Summarize(ctx context.Context, identityID, cartID uuid.UUID) (*Summary, error)
}

type service struct {
	repo       CartRepository
	tx         txRunner
	products   productCatalog
	identities identityResolver
	ledger     stockLedger
	logg       *logger.Logger
	metrics    *metrics.CheckoutMetrics
	clientRole string
}

// NewService builds a cart service. clientRole is the role allowed to add
// products to a cart.
func NewService(
	repo CartRepository,
	tx txRunner,
	products productCatalog,
	identities identityResolver,
	ledger stockLedger,
	logg *logger.Logger,
	m *metrics.CheckoutMetrics,
	clientRole string,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product catalog required")
	}
	if identities == nil {
		return nil, fmt.Errorf("identity resolver required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(clientRole) == "" {
		return nil, fmt.Errorf("client role required")
	}
	return &service{
		repo:       repo,
		tx:         tx,
		products:   products,
		identities: identities,
		ledger:     ledger,
		logg:       logg,
		metrics:    m,
		clientRole: clientRole,
	}, nil
}

// CreateCart is the explicit creation entry point. Unlike GetOrCreateCart it
// refuses when the identity already owns a cart.
func (s *service) CreateCart(ctx context.Context, identityID uuid.UUID) (*CartDTO, error) {
	if err := requireIdentity(identityID); err != nil {
		return nil, err
	}
	ctx = s.logg.WithIdentityID(ctx, identityID.String())

	var created *models.Cart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := s.assertNoExistingCart(ctx, repo, identityID); err != nil {
			return err
		}
		candidate := &models.Cart{IdentityID: identityID}
		inserted, err := repo.CreateIfAbsent(ctx, candidate)
		if err != nil && !db.IsUniqueViolation(err, "") {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart")
		}
		if !inserted {
			return cartExists(identityID)
		}
		created = candidate
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncCartCreated()
	s.logg.Info(s.logg.WithCartID(ctx, created.ID.String()), "cart.created")
	return toCartDTO(created), nil
}

func (s *service) GetOrCreateCart(ctx context.Context, identityID uuid.UUID) (*CartDTO, error) {
	if err := requireIdentity(identityID); err != nil {
		return nil, err
	}
	ctx = s.logg.WithIdentityID(ctx, identityID.String())

	var cart *models.Cart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		cart, err = s.findOrCreate(ctx, s.repo.WithTx(tx), identityID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toCartDTO(cart), nil
}

// findOrCreate returns the identity's cart, inserting it on first use. When a
// concurrent request wins the insert, the winner's row is re-read and
// returned instead of surfacing the conflict.
func (s *service) findOrCreate(ctx context.Context, repo CartRepository, identityID uuid.UUID) (*models.Cart, error) {
	cart, err := repo.FindByIdentity(ctx, identityID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}

	candidate := &models.Cart{IdentityID: identityID}
	inserted, err := repo.CreateIfAbsent(ctx, candidate)
	if err != nil && !db.IsUniqueViolation(err, "") {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart")
	}
	if inserted {
		s.metrics.IncCartCreated()
		s.logg.Info(s.logg.WithCartID(ctx, candidate.ID.String()), "cart.created")
		return candidate, nil
	}

	cart, err = repo.FindByIdentity(ctx, identityID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload cart after conflict")
	}
	s.metrics.IncCartRaceRecovered()
	s.logg.Info(s.logg.WithCartID(ctx, cart.ID.String()), "cart.create_race_recovered")
	return cart, nil
}

// getOwned distinguishes a missing cart from one owned by someone else.
func (s *service) getOwned(ctx context.Context, repo CartRepository, cartID, identityID uuid.UUID) (*models.Cart, error) {
	if cartID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id is required")
	}
	cart, err := repo.FindByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.ReasonCartNotFound, "cart %s not found", cartID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if cart.IdentityID != identityID {
		return nil, cartUnauthorized(cartID)
	}
	return cart, nil
}

func (s *service) assertNoExistingCart(ctx context.Context, repo CartRepository, identityID uuid.UUID) error {
	_, err := repo.FindByIdentity(ctx, identityID)
	switch {
	case err == nil:
		return cartExists(identityID)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	default:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
}

// resolveTargetCart uses an explicitly named cart when it exists and is
// owned by the caller, and otherwise falls back to the caller's own cart.
func (s *service) resolveTargetCart(ctx context.Context, repo CartRepository, identityID uuid.UUID, cartID *uuid.UUID) (*models.Cart, error) {
	if cartID == nil || *cartID == uuid.Nil {
		return s.findOrCreate(ctx, repo, identityID)
	}
	cart, err := repo.FindByID(ctx, *cartID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.findOrCreate(ctx, repo, identityID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if cart.IdentityID != identityID {
		return nil, cartUnauthorized(*cartID)
	}
	return cart, nil
}

// authorizeMutation requires the client role and, when the request names a
// buyer document, that it resolves to the caller.
func (s *service) authorizeMutation(ctx context.Context, identityID uuid.UUID, doc *DocumentRef) error {
	if err := s.identities.RequireRole(ctx, identityID, s.clientRole); err != nil {
		return err
	}
	if doc == nil {
		return nil
	}
	resolved, err := s.identities.ResolveByDocument(ctx, doc.Type, doc.Number)
	if err != nil {
		return err
	}
	if resolved.ID != identityID {
		return pkgerrors.Newf(pkgerrors.ReasonCartUnauthorized, "document %s %s does not belong to the caller", doc.Type, doc.Number)
	}
	return nil
}

func requireIdentity(identityID uuid.UUID) error {
	if identityID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "identity id is required")
	}
	return nil
}

func cartExists(identityID uuid.UUID) error {
	return pkgerrors.Newf(pkgerrors.ReasonCartExists, "identity %s already has a cart", identityID)
}

func cartUnauthorized(cartID uuid.UUID) error {
	return pkgerrors.Newf(pkgerrors.ReasonCartUnauthorized, "cart %s does not belong to the caller", cartID)
}
