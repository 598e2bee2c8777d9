package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/harborcrm/backend/internal/infrastructure/cache"
	"github.com/harborcrm/backend/internal/infrastructure/persistence"
	"github.com/harborcrm/backend/pkg/errors"
)

func newAccountService(t *testing.T) (*AccountService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { db.Close() })

	store := cache.New("", "", 0, time.Minute) // disabled
	svc := NewAccountService(persistence.NewAccountRepository(db), store)
	return svc, mock
}

func TestAccountUpdateMissingAccountNoFields(t *testing.T) {
	svc, mock := newAccountService(t)

	// No fields set, so no UPDATE is issued; only the reload runs.
	mock.ExpectQuery("SELECT").
		WithArgs("acct-x", "tenant-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := svc.Update(context.Background(), testSession(), "acct-x", AccountUpdateInput{})
	assert.True(t, errors.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountUpdateMissingAccount(t *testing.T) {
	svc, mock := newAccountService(t)

	name := "Analytical Engines"
	mock.ExpectExec("UPDATE").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := svc.Update(context.Background(), testSession(), "acct-x", AccountUpdateInput{Name: &name})
	assert.True(t, errors.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
