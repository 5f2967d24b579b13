package service

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/terra-erp-api/internal/models"
	appErrors "github.com/noah-isme/terra-erp-api/pkg/errors"
)

type userApplierRepository interface {
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
}

// UserApplier creates and updates user accounts from change payloads.
type UserApplier struct {
	repo   userApplierRepository
	logger *zap.Logger
}

// NewUserApplier constructs the applier.
func NewUserApplier(repo userApplierRepository, logger *zap.Logger) *UserApplier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserApplier{repo: repo, logger: logger}
}

// Apply implements ChangeApplier.
func (a *UserApplier) Apply(ctx context.Context, change *models.ChangeSet) ([]byte, error) {
	if a.repo == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "user repository not configured")
	}
	payload, err := decodePayload(change.Payload)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid user payload")
	}
	switch change.Operation {
	case models.OperationCreate:
		return a.create(ctx, payload)
	case models.OperationUpdate:
		return a.update(ctx, change.EntityID, payload)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported operation for user")
	}
}

func (a *UserApplier) create(ctx context.Context, payload map[string]json.RawMessage) ([]byte, error) {
	user := models.User{Active: true, Role: models.RoleOperator}
	if str, ok, err := readString(payload, "email"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "email must be a string")
	} else if ok {
		user.Email = strings.ToLower(*str)
	}
	if str, ok, err := readString(payload, "full_name", "fullName"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "fullName must be a string")
	} else if ok {
		user.FullName = *str
	}
	if role, ok, err := readUserRole(payload); err != nil {
		return nil, err
	} else if ok {
		user.Role = role
	}
	if val, ok, err := readBool(payload, "active"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "active must be a boolean")
	} else if ok {
		user.Active = val
	}
	password, hasPassword, err := readString(payload, "password")
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "password must be a string")
	}
	if user.Email == "" || user.FullName == "" || !hasPassword {
		return nil, appErrors.Clone(appErrors.ErrValidation, "email, fullName and password are required")
	}
	if len(*password) < 8 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "password must be at least 8 characters")
	}
	exists, err := a.repo.ExistsByEmail(ctx, user.Email, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	user.PasswordHash = string(hash)
	if err := a.repo.Create(ctx, &user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}
	return marshalSnapshot(a.logger, "user", user), nil
}

func (a *UserApplier) update(ctx context.Context, id string, payload map[string]json.RawMessage) ([]byte, error) {
	user, err := a.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "user not found")
	}
	changes := 0
	if str, ok, err := readString(payload, "email"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "email must be a string")
	} else if ok {
		email := strings.ToLower(*str)
		if email != user.Email {
			exists, err := a.repo.ExistsByEmail(ctx, email, user.ID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate email")
			}
			if exists {
				return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
			}
			user.Email = email
		}
		changes++
	}
	if str, ok, err := readString(payload, "full_name", "fullName"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "fullName must be a string")
	} else if ok {
		user.FullName = *str
		changes++
	}
	if role, ok, err := readUserRole(payload); err != nil {
		return nil, err
	} else if ok {
		user.Role = role
		changes++
	}
	if val, ok, err := readBool(payload, "active"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "active must be a boolean")
	} else if ok {
		user.Active = val
		changes++
	}
	if changes == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no supported user fields provided")
	}
	if err := a.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	return marshalSnapshot(a.logger, "user", *user), nil
}

func readUserRole(payload map[string]json.RawMessage) (models.UserRole, bool, error) {
	str, ok, err := readString(payload, "role")
	if err != nil {
		return "", false, appErrors.Clone(appErrors.ErrValidation, "role must be a string")
	}
	if !ok {
		return "", false, nil
	}
	role := models.UserRole(strings.ToUpper(*str))
	switch role {
	case models.RoleSuperAdmin, models.RoleAdmin, models.RoleOperator:
		return role, true, nil
	default:
		return "", false, appErrors.Clone(appErrors.ErrValidation, "role must be SUPERADMIN, ADMIN or OPERATOR")
	}
}
