package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/davivienda-ecommerce/storefront-backend/internal/cart"
	"github.com/davivienda-ecommerce/storefront-backend/pkg/cardcrypto"
	"github.com/davivienda-ecommerce/storefront-backend/pkg/db/models"
	"github.com/davivienda-ecommerce/storefront-backend/pkg/enums"
	pkgerrors "github.com/davivienda-ecommerce/storefront-backend/pkg/errors"
	"github.com/davivienda-ecommerce/storefront-backend/pkg/logger"
	"github.com/davivienda-ecommerce/storefront-backend/pkg/metrics"
	"github.com/davivienda-ecommerce/storefront-backend/pkg/refcache"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentRepository is the persistence surface of the orchestrator.
type PaymentRepository interface {
	ReferenceStore
	WithTx(tx *gorm.DB) PaymentRepository
	FindPaymentTypeByName(ctx context.Context, name string) (*models.PaymentType, error)
	FindPaymentStatusByName(ctx context.Context, name string) (*models.PaymentStatus, error)
	CreatePayment(ctx context.Context, payment *models.Payment) error
	CreateDebit(ctx context.Context, detail *models.PaymentDebit) error
	CreateCredit(ctx context.Context, detail *models.PaymentCredit) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ProcessInput is a checkout request. CartID is optional; without it the
// caller's own cart is paid.
type ProcessInput struct {
	CartID            *uuid.UUID
	EncryptedCardData string
}

// Receipt is the caller-facing projection of a persisted payment.
type Receipt struct {
	PaymentID        uuid.UUID `json:"payment_id"`
	CartID           uuid.UUID `json:"cart_id"`
	Reference        string    `json:"reference"`
	Status           string    `json:"status"`
	PaymentType      string    `json:"payment_type"`
	MaskedCardNumber string    `json:"masked_card_number"`
	Installments     *int      `json:"installments,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Options tunes the orchestrator.
type Options struct {
	PendingStatusName string
	LookupCacheTTL    time.Duration
	// Now is used for the expiration fallback. Defaults to time.Now.
	Now func() time.Time
}

// Service processes card payments for carts.
type Service interface {
	Process(ctx context.Context, identityID uuid.UUID, input ProcessInput) (*Receipt, error)
}

type service struct {
	repo      PaymentRepository
	carts     cart.CartRepository
	tx        txRunner
	decrypter cardcrypto.Decrypter
	refs      *ReferenceGenerator
	logg      *logger.Logger
	metrics   *metrics.CheckoutMetrics

	pendingStatus string
	now           func() time.Time
	types         *refcache.Cache[models.PaymentType]
	statuses      *refcache.Cache[models.PaymentStatus]
}

func NewService(
	repo PaymentRepository,
	carts cart.CartRepository,
	tx txRunner,
	decrypter cardcrypto.Decrypter,
	refs *ReferenceGenerator,
	logg *logger.Logger,
	m *metrics.CheckoutMetrics,
	opts Options,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payment repository required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if decrypter == nil {
		return nil, fmt.Errorf("card decrypter required")
	}
	if refs == nil {
		return nil, fmt.Errorf("reference generator required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(opts.PendingStatusName) == "" {
		return nil, fmt.Errorf("pending status name required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &service{
		repo:          repo,
		carts:         carts,
		tx:            tx,
		decrypter:     decrypter,
		refs:          refs,
		logg:          logg,
		metrics:       m,
		pendingStatus: opts.PendingStatusName,
		now:           opts.Now,
		types:         refcache.New[models.PaymentType](opts.LookupCacheTTL),
		statuses:      refcache.New[models.PaymentStatus](opts.LookupCacheTTL),
	}, nil
}

// Process decrypts the card, resolves the cart, validates the card and
// persists the payment with its detail row in one transaction. Any failure
// rolls everything back, the reference token included.
func (s *service) Process(ctx context.Context, identityID uuid.UUID, input ProcessInput) (*Receipt, error) {
	start := time.Now()
	outcome := "failure"
	defer func() {
		s.metrics.ObservePayment(outcome, time.Since(start))
	}()

	if identityID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "identity id is required")
	}
	ctx = s.logg.WithIdentityID(ctx, identityID.String())

	data, err := s.openCard(input.EncryptedCardData)
	if err != nil {
		return nil, err
	}

	var receipt *Receipt
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		carts := s.carts.WithTx(tx)

		target, err := s.resolveCart(ctx, carts, identityID, input.CartID)
		if err != nil {
			return err
		}
		ctx = s.logg.WithCartID(ctx, target.ID.String())

		card, err := ValidateCard(data)
		if err != nil {
			return err
		}
		if card.Type == enums.PaymentTypeDebit && card.Requested != nil && *card.Requested > 1 {
			s.logg.Info(s.logg.WithField(ctx, "requested_installments", *card.Requested), "payment.debit_installments_ignored")
		}

		paymentType, err := s.lookupType(ctx, repo, card.Type)
		if err != nil {
			return err
		}
		status, err := s.lookupPendingStatus(ctx, repo)
		if err != nil {
			return err
		}

		ref, err := s.refs.Generate(ctx, repo)
		if err != nil {
			return err
		}

		payment := &models.Payment{
			CartID:             target.ID,
			PaymentTypeID:      paymentType.ID,
			PaymentReferenceID: ref.ID,
			PaymentStatusID:    status.ID,
		}
		if err := repo.CreatePayment(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save payment")
		}

		if err := s.saveDetail(ctx, repo, payment.ID, card); err != nil {
			return err
		}

		receipt = &Receipt{
			PaymentID:        payment.ID,
			CartID:           target.ID,
			Reference:        ref.Token,
			Status:           status.Name,
			PaymentType:      card.Type.String(),
			MaskedCardNumber: card.Masked(),
			CreatedAt:        payment.CreatedAt,
		}
		if card.Installments > 1 {
			installments := card.Installments
			receipt.Installments = &installments
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	outcome = "success"
	s.metrics.IncPaymentProcessed(receipt.PaymentType)
	logCtx := s.logg.WithFields(s.logg.WithPaymentID(ctx, receipt.PaymentID.String()), map[string]any{
		"reference":    receipt.Reference,
		"payment_type": receipt.PaymentType,
	})
	s.logg.Info(logCtx, "payment.processed")
	return receipt, nil
}

// openCard turns the envelope into card data. Envelope failures and payload
// failures are reported separately.
func (s *service) openCard(envelope string) (CardData, error) {
	if strings.TrimSpace(envelope) == "" {
		return CardData{}, pkgerrors.Newf(pkgerrors.ReasonInvalidEncryptedData, "encrypted card data is required")
	}
	plain, err := s.decrypter.Decrypt(envelope)
	if err != nil {
		if errors.Is(err, cardcrypto.ErrInvalidEnvelope) {
			return CardData{}, pkgerrors.WrapReason(pkgerrors.ReasonInvalidEncryptedData, err, "encrypted card data could not be decoded")
		}
		return CardData{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrypt card data")
	}

	var data *CardData
	if err := json.Unmarshal(plain, &data); err != nil {
		return CardData{}, pkgerrors.WrapReason(pkgerrors.ReasonInvalidCardDataFormat, err, "card data is not valid json")
	}
	if data == nil {
		return CardData{}, pkgerrors.Newf(pkgerrors.ReasonInvalidCardDataFormat, "card data is empty")
	}
	return *data, nil
}

func (s *service) resolveCart(ctx context.Context, carts cart.CartRepository, identityID uuid.UUID, cartID *uuid.UUID) (*models.Cart, error) {
	var (
		target *models.Cart
		err    error
	)
	if cartID != nil && *cartID != uuid.Nil {
		target, err = carts.FindByID(ctx, *cartID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.Newf(pkgerrors.ReasonCartNotFound, "cart %s not found", *cartID)
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
		}
		if target.IdentityID != identityID {
			return nil, pkgerrors.Newf(pkgerrors.ReasonCartUnauthorized, "cart %s does not belong to the caller", *cartID)
		}
	} else {
		target, err = carts.FindByIdentity(ctx, identityID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.Newf(pkgerrors.ReasonCartNotFound, "identity %s has no cart", identityID)
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
		}
	}

	items, err := carts.ListItems(ctx, target.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart items")
	}
	if len(items) == 0 {
		return nil, pkgerrors.Newf(pkgerrors.ReasonCartEmpty, "cart %s has no items", target.ID)
	}
	return target, nil
}

func (s *service) lookupType(ctx context.Context, repo PaymentRepository, paymentType enums.PaymentType) (models.PaymentType, error) {
	row, err := s.types.GetOrLoad(paymentType.String(), func() (models.PaymentType, error) {
		found, err := repo.FindPaymentTypeByName(ctx, paymentType.String())
		if err != nil {
			return models.PaymentType{}, err
		}
		return *found, nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return row, pkgerrors.Newf(pkgerrors.ReasonInvalidPaymentType, "payment type %s is not configured", paymentType)
		}
		return row, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load payment type")
	}
	return row, nil
}

// lookupPendingStatus fails with an internal error when the status row is
// missing since that is a deployment problem, not a caller mistake.
func (s *service) lookupPendingStatus(ctx context.Context, repo PaymentRepository) (models.PaymentStatus, error) {
	row, err := s.statuses.GetOrLoad(strings.ToLower(s.pendingStatus), func() (models.PaymentStatus, error) {
		found, err := repo.FindPaymentStatusByName(ctx, s.pendingStatus)
		if err != nil {
			return models.PaymentStatus{}, err
		}
		return *found, nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			typed := pkgerrors.Newf(pkgerrors.ReasonPaymentStatusNotFound, "payment status %s is not configured", s.pendingStatus)
			s.logg.Error(ctx, "payment.pending_status_missing", typed)
			return row, typed
		}
		return row, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load payment status")
	}
	return row, nil
}

func (s *service) saveDetail(ctx context.Context, repo PaymentRepository, paymentID uuid.UUID, card Card) error {
	expiration := card.Expiration
	if !card.ExpirationSet {
		now := s.now().UTC()
		expiration = time.Date(now.Year()+5, now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		s.logg.Warn(ctx, "payment.expiration_defaulted")
	}

	switch card.Type {
	case enums.PaymentTypeDebit:
		detail := &models.PaymentDebit{
			PaymentID:        paymentID,
			MaskedCardNumber: card.Masked(),
			CardHolderName:   card.HolderName,
			ExpirationDate:   expiration,
			Installments:     1,
		}
		if err := repo.CreateDebit(ctx, detail); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save debit detail")
		}
	case enums.PaymentTypeCredit:
		detail := &models.PaymentCredit{
			PaymentID:        paymentID,
			MaskedCardNumber: card.Masked(),
			CardHolderName:   card.HolderName,
			ExpirationDate:   expiration,
			Installments:     card.Installments,
		}
		if err := repo.CreateCredit(ctx, detail); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save credit detail")
		}
	default:
		return pkgerrors.Newf(pkgerrors.ReasonInvalidPaymentType, "unsupported payment type %s", card.Type)
	}
	return nil
}
