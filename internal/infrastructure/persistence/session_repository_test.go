package persistence

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborcrm/backend/pkg/constants"
)

func TestSessionFindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewSessionRepository(db)
	now := time.Now()

	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? LIMIT 1",
		sessionColumns, constants.TableSession)

	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("jti-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "tenant_id", "token", "expires_at", "is_revoked",
			"ip_address", "user_agent", "last_activity", "created_at",
		}).AddRow("jti-1", "user-1", "tenant-1", "tok", now.Add(time.Hour), false,
			"127.0.0.1", "test-agent", now, now))

	session, err := repo.FindByID(context.Background(), "jti-1")
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "user-1", session.UserID)
	assert.False(t, session.IsRevoked)
}

func TestSessionRevoke(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewSessionRepository(db)

	query := fmt.Sprintf("UPDATE %s SET is_revoked = TRUE WHERE id = ?", constants.TableSession)
	mock.ExpectExec(regexp.QuoteMeta(query)).
		WithArgs("jti-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Revoke(context.Background(), "jti-1")
	assert.NoError(t, err)
}

func TestSessionPurgeExpired(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewSessionRepository(db)
	now := time.Now()

	query := fmt.Sprintf("DELETE FROM %s WHERE expires_at < ? OR is_revoked = TRUE", constants.TableSession)
	mock.ExpectExec(regexp.QuoteMeta(query)).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 7))

	purged, err := repo.PurgeExpired(context.Background(), now)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), purged)
}
