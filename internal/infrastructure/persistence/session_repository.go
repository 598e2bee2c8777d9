package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/harborcrm/backend/internal/domain/models"
	"github.com/harborcrm/backend/pkg/constants"
)

// SessionRepository stores issued tokens server-side, keyed by JWT jti, so
// logout can revoke a token before its natural expiry.
type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, user_id, tenant_id, token, expires_at, is_revoked, ip_address, user_agent, last_activity, created_at`

func (r *SessionRepository) Insert(ctx context.Context, s *models.Session) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		constants.TableSession, sessionColumns)

	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.UserID, s.TenantID, s.Token, s.ExpiresAt, s.IsRevoked,
		s.IPAddress, s.UserAgent, s.LastActivity, s.CreatedAt)
	return err
}

func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.Session, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? LIMIT 1",
		sessionColumns, constants.TableSession)

	var s models.Session
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.UserID, &s.TenantID, &s.Token, &s.ExpiresAt, &s.IsRevoked,
		&s.IPAddress, &s.UserAgent, &s.LastActivity, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Revoke invalidates a session; the token is rejected from then on.
func (r *SessionRepository) Revoke(ctx context.Context, id string) error {
	query := fmt.Sprintf("UPDATE %s SET is_revoked = TRUE WHERE id = ?", constants.TableSession)
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// RevokeAllForUser invalidates every session of a user, e.g. after a password
// change or deactivation.
func (r *SessionRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	query := fmt.Sprintf("UPDATE %s SET is_revoked = TRUE WHERE user_id = ?", constants.TableSession)
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

// Touch updates last_activity; callers fire and forget.
func (r *SessionRepository) Touch(ctx context.Context, id string) error {
	query := fmt.Sprintf("UPDATE %s SET last_activity = ? WHERE id = ?", constants.TableSession)
	_, err := r.db.ExecContext(ctx, query, time.Now(), id)
	return err
}

// PurgeExpired hard-deletes expired and revoked sessions; run by the cron job.
func (r *SessionRepository) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE expires_at < ? OR is_revoked = TRUE", constants.TableSession)
	res, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
