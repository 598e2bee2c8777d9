package services

import (
	"context"
	"log"
	"time"

	"github.com/harborcrm/backend/internal/domain/models"
	"github.com/harborcrm/backend/internal/infrastructure/persistence"
	"github.com/harborcrm/backend/pkg/auth"
	"github.com/harborcrm/backend/pkg/errors"
)

// AuthService handles login, logout, session validation and password changes.
type AuthService struct {
	users    *persistence.UserRepository
	tenants  *persistence.TenantRepository
	sessions *persistence.SessionRepository
	tokenTTL time.Duration
}

// NewAuthService creates a new AuthService
func NewAuthService(users *persistence.UserRepository, tenants *persistence.TenantRepository, sessions *persistence.SessionRepository, tokenTTL time.Duration) *AuthService {
	return &AuthService{users: users, tenants: tenants, sessions: sessions, tokenTTL: tokenTTL}
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	Token     string       `json:"token"`
	User      *models.User `json:"user"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// Login authenticates a user and creates a session. The tenant context for
// every later request comes from the matched user row, not from the client.
func (s *AuthService) Login(ctx context.Context, email, password, ip, userAgent string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, errors.NewInternalError("failed to look up user", err)
	}
	if user == nil {
		log.Printf("⚠️ Login failed for %s: user not found", email)
		return nil, errors.NewUnauthorizedError("Invalid email or password")
	}
	if !auth.VerifyPassword(password, user.PasswordHash) {
		log.Printf("⚠️ Login failed for %s: invalid password", email)
		return nil, errors.NewUnauthorizedError("Invalid email or password")
	}
	if !user.IsActive {
		return nil, errors.NewUnauthorizedError("User account is deactivated")
	}

	tenant, err := s.tenants.FindByID(ctx, user.TenantID)
	if err != nil {
		return nil, errors.NewInternalError("failed to look up tenant", err)
	}
	if tenant == nil || !tenant.IsActive {
		return nil, errors.NewUnauthorizedError("Organization is deactivated")
	}

	session := auth.UserSession{
		ID:       user.ID,
		TenantID: user.TenantID,
		Name:     user.FullName(),
		Email:    user.Email,
		Role:     user.Role,
	}

	token, claims, err := auth.GenerateToken(session, s.tokenTTL)
	if err != nil {
		return nil, errors.NewInternalError("failed to generate token", err)
	}

	now := time.Now()
	if err := s.sessions.Insert(ctx, &models.Session{
		ID:           claims.ID,
		UserID:       user.ID,
		TenantID:     user.TenantID,
		Token:        token,
		ExpiresAt:    claims.ExpiresAt.Time,
		IPAddress:    ip,
		UserAgent:    userAgent,
		LastActivity: now,
		CreatedAt:    now,
	}); err != nil {
		return nil, errors.NewInternalError("failed to persist session", err)
	}

	if err := s.users.TouchLastLogin(ctx, user.TenantID, user.ID, now); err != nil {
		log.Printf("⚠️ Failed to record last login for %s: %v", user.ID, err)
	}
	user.LastLoginAt = &now

	return &LoginResult{Token: token, User: user, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// ValidateSession verifies the JWT and checks the server-side session row:
// a revoked or expired session rejects the token even when the signature is
// still valid.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := auth.ValidateToken(token)
	if err != nil {
		return nil, errors.NewUnauthorizedError("Invalid or expired token")
	}

	session, err := s.sessions.FindByID(ctx, claims.ID)
	if err != nil {
		return nil, errors.NewInternalError("failed to look up session", err)
	}
	if session == nil {
		return nil, errors.NewUnauthorizedError("Session not found")
	}
	if session.IsRevoked {
		return nil, errors.NewUnauthorizedError("Session has been revoked")
	}
	if time.Now().After(session.ExpiresAt) {
		return nil, errors.NewUnauthorizedError("Session has expired")
	}

	return claims, nil
}

// TouchSession records session activity. Fire and forget.
func (s *AuthService) TouchSession(sessionID string) {
	go func() {
		if err := s.sessions.Touch(context.Background(), sessionID); err != nil {
			log.Printf("⚠️ Failed to touch session %s: %v", sessionID, err)
		}
	}()
}

// Logout revokes the session backing the token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := auth.ValidateToken(token)
	if err != nil {
		return errors.NewUnauthorizedError("Invalid token")
	}
	if err := s.sessions.Revoke(ctx, claims.ID); err != nil {
		return errors.NewInternalError("failed to revoke session", err)
	}
	return nil
}

// Me returns the full user record for the authenticated session.
func (s *AuthService) Me(ctx context.Context, sess auth.UserSession) (*models.User, error) {
	user, err := s.users.FindByID(ctx, sess.TenantID, sess.ID)
	if err != nil {
		return nil, errors.NewInternalError("failed to look up user", err)
	}
	if user == nil {
		return nil, errors.NewNotFoundError("User", sess.ID)
	}
	return user, nil
}

// ChangePassword verifies the current password, stores the new hash, and
// revokes every session of the user so stolen tokens die with the old
// password.
func (s *AuthService) ChangePassword(ctx context.Context, sess auth.UserSession, current, next string) error {
	user, err := s.users.FindByID(ctx, sess.TenantID, sess.ID)
	if err != nil {
		return errors.NewInternalError("failed to look up user", err)
	}
	if user == nil {
		return errors.NewNotFoundError("User", sess.ID)
	}
	if !auth.VerifyPassword(current, user.PasswordHash) {
		return errors.NewUnauthorizedError("Current password is incorrect")
	}
	if err := auth.ValidatePasswordStrength(next); err != nil {
		return errors.NewValidationError("new_password", err.Error())
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		return errors.NewInternalError("failed to hash password", err)
	}
	if err := s.users.UpdatePassword(ctx, sess.TenantID, sess.ID, hash); err != nil {
		return errors.NewInternalError("failed to update password", err)
	}
	if err := s.sessions.RevokeAllForUser(ctx, sess.ID); err != nil {
		log.Printf("⚠️ Failed to revoke sessions after password change for %s: %v", sess.ID, err)
	}
	return nil
}
