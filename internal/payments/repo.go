package payments

import (
	"context"
	"strings"

	"github.com/davivienda-ecommerce/storefront-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists payments, their card details and reference tokens.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a payment repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) PaymentRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// ReferenceExists reports whether token is already issued.
func (r *Repository) ReferenceExists(ctx context.Context, token string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PaymentReference{}).
		Where("token = ?", token).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertReference writes the token unless it is already taken and reports
// whether the row was written.
func (r *Repository) InsertReference(ctx context.Context, ref *models.PaymentReference) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "token"}},
			DoNothing: true,
		}).
		Create(ref)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FindPaymentTypeByName matches the lookup name ignoring case.
func (r *Repository) FindPaymentTypeByName(ctx context.Context, name string) (*models.PaymentType, error) {
	var row models.PaymentType
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// FindPaymentStatusByName matches the lookup name ignoring case.
func (r *Repository) FindPaymentStatusByName(ctx context.Context, name string) (*models.PaymentStatus, error) {
	var row models.PaymentStatus
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// CreatePayment inserts the payment header row.
func (r *Repository) CreatePayment(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

// CreateDebit inserts the debit detail of a payment.
func (r *Repository) CreateDebit(ctx context.Context, detail *models.PaymentDebit) error {
	return r.db.WithContext(ctx).Create(detail).Error
}

// CreateCredit inserts the credit detail of a payment.
func (r *Repository) CreateCredit(ctx context.Context, detail *models.PaymentCredit) error {
	return r.db.WithContext(ctx).Create(detail).Error
}
