package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/davivienda-ecommerce/storefront-backend/pkg/db/models"
	pkgerrors "github.com/davivienda-ecommerce/storefront-backend/pkg/errors"
	"github.com/davivienda-ecommerce/storefront-backend/pkg/logger"
	"github.com/davivienda-ecommerce/storefront-backend/pkg/refcache"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type identityRepository interface {
	FindDocumentTypeByCode(ctx context.Context, code string) (*models.DocumentType, error)
	FindUserByDocument(ctx context.Context, documentTypeID uuid.UUID, number string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListRoleBindings(ctx context.Context, userID uuid.UUID) ([]models.UserRole, error)
	FindRoleBinding(ctx context.Context, id uuid.UUID) (*models.UserRole, error)
}

// Identity is a role-scoped user. ID is the user_roles row id and is the key
// carts and payments are owned by.
type Identity struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Email          string
	DocumentType   string
	DocumentNumber string
	RoleName       string
}

// Service resolves callers to identities and enforces role requirements.
type Service interface {
	ResolveByDocument(ctx context.Context, documentType, documentNumber string) (*Identity, error)
	ResolveByEmail(ctx context.Context, email string) (*Identity, error)
	RequireRole(ctx context.Context, identityID uuid.UUID, roleName string) error
}

type service struct {
	repo     identityRepository
	logg     *logger.Logger
	docTypes *refcache.Cache[models.DocumentType]
}

// NewService builds the identity resolver. Document types are cached for
// cacheTTL since they are reference data.
func NewService(repo identityRepository, logg *logger.Logger, cacheTTL time.Duration) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("identity repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		logg:     logg,
		docTypes: refcache.New[models.DocumentType](cacheTTL),
	}, nil
}

func (s *service) ResolveByDocument(ctx context.Context, documentType, documentNumber string) (*Identity, error) {
	code := strings.ToUpper(strings.TrimSpace(documentType))
	number := strings.TrimSpace(documentNumber)
	if code == "" || number == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "document type and number are required")
	}

	docType, err := s.docTypes.GetOrLoad(code, func() (models.DocumentType, error) {
		row, err := s.repo.FindDocumentTypeByCode(ctx, code)
		if err != nil {
			return models.DocumentType{}, err
		}
		return *row, nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.ReasonDocumentTypeNotFound, "document type %s not found", code)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load document type")
	}

	user, err := s.repo.FindUserByDocument(ctx, docType.ID, number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.ReasonUserNotFound, "no user with document %s %s", code, number)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user by document")
	}
	if user.DocumentType == nil {
		user.DocumentType = &docType
	}
	return s.bind(ctx, user)
}

func (s *service) ResolveByEmail(ctx context.Context, email string) (*Identity, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	user, err := s.repo.FindUserByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.ReasonUserNotFound, "no user with email %s", normalized)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user by email")
	}
	return s.bind(ctx, user)
}

// RequireRole fails with RoleNotAllowed unless the identity's role matches
// roleName ignoring case.
func (s *service) RequireRole(ctx context.Context, identityID uuid.UUID, roleName string) error {
	binding, err := s.repo.FindRoleBinding(ctx, identityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Newf(pkgerrors.ReasonNoRolesAssigned, "identity %s has no role binding", identityID)
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load role binding")
	}
	if binding.Role == nil || !strings.EqualFold(strings.TrimSpace(binding.Role.Name), strings.TrimSpace(roleName)) {
		return pkgerrors.Newf(pkgerrors.ReasonRoleNotAllowed, "role %s required", roleName)
	}
	return nil
}

// bind picks the oldest role binding. Users holding several roles resolve
// to the first one and a warning is logged.
func (s *service) bind(ctx context.Context, user *models.User) (*Identity, error) {
	bindings, err := s.repo.ListRoleBindings(ctx, user.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load role bindings")
	}
	if len(bindings) == 0 {
		return nil, pkgerrors.Newf(pkgerrors.ReasonNoRolesAssigned, "user %s has no roles assigned", user.ID)
	}

	first := bindings[0]
	if len(bindings) > 1 {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"user_id":     user.ID.String(),
			"role_count":  len(bindings),
			"identity_id": first.ID.String(),
		})
		s.logg.Warn(logCtx, "identity.multiple_roles")
	}

	ident := &Identity{
		ID:             first.ID,
		UserID:         user.ID,
		Email:          user.Email,
		DocumentNumber: user.DocumentNumber,
	}
	if user.DocumentType != nil {
		ident.DocumentType = user.DocumentType.Code
	}
	if first.Role != nil {
		ident.RoleName = first.Role.Name
	}
	return ident, nil
}
