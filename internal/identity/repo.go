package identity

import (
	"context"
	"strings"

	"github.com/davivienda-ecommerce/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository reads users, document types and role bindings. The identity
// tables are owned by user management; nothing here writes to them.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an identity repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindDocumentTypeByCode matches the code case-insensitively.
func (r *Repository) FindDocumentTypeByCode(ctx context.Context, code string) (*models.DocumentType, error) {
	var docType models.DocumentType
	err := r.db.WithContext(ctx).
		Where("UPPER(code) = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&docType).Error
	if err != nil {
		return nil, err
	}
	return &docType, nil
}

// FindUserByDocument looks a user up by document type and number.
func (r *Repository) FindUserByDocument(ctx context.Context, documentTypeID uuid.UUID, number string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Preload("DocumentType").
		Where("document_type_id = ? AND document_number = ?", documentTypeID, strings.TrimSpace(number)).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindUserByEmail matches the email case-insensitively.
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Preload("DocumentType").
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListRoleBindings returns the user's bindings oldest first, ties broken by id.
func (r *Repository) ListRoleBindings(ctx context.Context, userID uuid.UUID) ([]models.UserRole, error) {
	var bindings []models.UserRole
	err := r.db.WithContext(ctx).
		Preload("Role").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&bindings).Error
	if err != nil {
		return nil, err
	}
	return bindings, nil
}

// FindRoleBinding loads a binding by its id, which is the identity key.
func (r *Repository) FindRoleBinding(ctx context.Context, id uuid.UUID) (*models.UserRole, error) {
	var binding models.UserRole
	if err := r.db.WithContext(ctx).Preload("Role").First(&binding, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &binding, nil
}
