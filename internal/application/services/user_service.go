package services

import (
	"context"
	"log"
	"time"

	"github.com/harborcrm/backend/internal/domain/models"
	"github.com/harborcrm/backend/internal/infrastructure/persistence"
	"github.com/harborcrm/backend/pkg/auth"
	"github.com/harborcrm/backend/pkg/constants"
	"github.com/harborcrm/backend/pkg/errors"
	"github.com/harborcrm/backend/pkg/utils"
)

// UserService manages users within a tenant.
type UserService struct {
	users    *persistence.UserRepository
	sessions *persistence.SessionRepository
}

// NewUserService creates a new UserService
func NewUserService(users *persistence.UserRepository, sessions *persistence.SessionRepository) *UserService {
	return &UserService{users: users, sessions: sessions}
}

// UserCreateInput is the payload for adding a user to the tenant.
type UserCreateInput struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Role      string `json:"role" binding:"required,oneof=admin manager rep"`
}

// UserUpdateInput carries the updatable user fields.
type UserUpdateInput struct {
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Role      *string `json:"role"`
	IsActive  *bool   `json:"is_active"`
}

// Create adds a user to the session's tenant.
func (s *UserService) Create(ctx context.Context, sess auth.UserSession, input UserCreateInput) (*models.User, error) {
	if !auth.IsValidEmail(input.Email) {
		return nil, errors.NewValidationError("email", "invalid email address")
	}
	if err := auth.ValidatePasswordStrength(input.Password); err != nil {
		return nil, errors.NewValidationError("password", err.Error())
	}

	taken, err := s.users.EmailConflict(ctx, input.Email, "")
	if err != nil {
		return nil, errors.NewInternalError("failed to check email", err)
	}
	if taken {
		return nil, errors.NewConflictError("User", "email", input.Email)
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, errors.NewInternalError("failed to hash password", err)
	}

	now := time.Now()
	user := &models.User{
		Audit: models.Audit{
			ID:        utils.NewID(),
			TenantID:  sess.TenantID,
			CreatedAt: now,
			CreatedBy: sess.ID,
			UpdatedAt: now,
			UpdatedBy: sess.ID,
		},
		Email:        input.Email,
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Role:         input.Role,
		IsActive:     true,
	}

	if err := s.users.Insert(ctx, user); err != nil {
		return nil, errors.NewInternalError("failed to create user", err)
	}
	return user, nil
}

// Get fetches one user in the tenant.
func (s *UserService) Get(ctx context.Context, sess auth.UserSession, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, sess.TenantID, id)
	if err != nil {
		return nil, errors.NewInternalError("failed to look up user", err)
	}
	if user == nil {
		return nil, errors.NewNotFoundError("User", id)
	}
	return user, nil
}

// List pages through the tenant's users.
func (s *UserService) List(ctx context.Context, sess auth.UserSession, page persistence.Page) (*persistence.PageResult[*models.User], error) {
	result, err := s.users.List(ctx, sess.TenantID, page)
	if err != nil {
		return nil, errors.NewInternalError("failed to list users", err)
	}
	return result, nil
}

// Update edits a user. Deactivating a user revokes their sessions.
func (s *UserService) Update(ctx context.Context, sess auth.UserSession, id string, input UserUpdateInput) (*models.User, error) {
	updates := map[string]interface{}{}
	if input.Email != nil {
		if !auth.IsValidEmail(*input.Email) {
			return nil, errors.NewValidationError("email", "invalid email address")
		}
		taken, err := s.users.EmailConflict(ctx, *input.Email, id)
		if err != nil {
			return nil, errors.NewInternalError("failed to check email", err)
		}
		if taken {
			return nil, errors.NewConflictError("User", "email", *input.Email)
		}
		updates["email"] = *input.Email
	}
	if input.FirstName != nil {
		updates["first_name"] = *input.FirstName
	}
	if input.LastName != nil {
		updates["last_name"] = *input.LastName
	}
	if input.Role != nil {
		switch *input.Role {
		case constants.RoleAdmin, constants.RoleManager, constants.RoleRep:
			updates["role"] = *input.Role
		default:
			return nil, errors.NewValidationError("role", "unknown role")
		}
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	found, err := s.users.Update(ctx, sess.TenantID, id, sess.ID, updates)
	if err != nil {
		return nil, errors.NewInternalError("failed to update user", err)
	}
	if !found {
		return nil, errors.NewNotFoundError("User", id)
	}

	if input.IsActive != nil && !*input.IsActive {
		if err := s.sessions.RevokeAllForUser(ctx, id); err != nil {
			log.Printf("⚠️ Failed to revoke sessions for deactivated user %s: %v", id, err)
		}
	}

	return s.Get(ctx, sess, id)
}

// Delete soft-deletes a user and revokes their sessions. A user cannot delete
// themselves; the tenant would risk locking itself out.
func (s *UserService) Delete(ctx context.Context, sess auth.UserSession, id string) error {
	if id == sess.ID {
		return errors.NewValidationError("id", "cannot delete your own user")
	}

	found, err := s.users.SoftDelete(ctx, sess.TenantID, id, sess.ID)
	if err != nil {
		return errors.NewInternalError("failed to delete user", err)
	}
	if !found {
		return errors.NewNotFoundError("User", id)
	}

	if err := s.sessions.RevokeAllForUser(ctx, id); err != nil {
		log.Printf("⚠️ Failed to revoke sessions for deleted user %s: %v", id, err)
	}
	return nil
}
