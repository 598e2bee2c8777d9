package services

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborcrm/backend/internal/domain/models"
	"github.com/harborcrm/backend/internal/infrastructure/cache"
	"github.com/harborcrm/backend/internal/infrastructure/persistence"
	"github.com/harborcrm/backend/pkg/auth"
	"github.com/harborcrm/backend/pkg/constants"
	"github.com/harborcrm/backend/pkg/errors"
	"github.com/harborcrm/backend/pkg/scoring"
)

func newLeadService(t *testing.T) (*LeadService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { db.Close() })

	store := cache.New("", "", 0, time.Minute) // disabled
	svc := NewLeadService(db,
		persistence.NewLeadRepository(db),
		persistence.NewAccountRepository(db),
		persistence.NewContactRepository(db),
		persistence.NewOpportunityRepository(db),
		scoring.NewEngine(),
		store)
	return svc, mock
}

func testSession() auth.UserSession {
	return auth.UserSession{
		ID: "user-1", TenantID: "tenant-1",
		Name: "Ada Lovelace", Email: "ada@engines.example", Role: constants.RoleAdmin,
	}
}

func leadRow(status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "tenant_id", "first_name", "last_name", "company", "email",
		"phone", "source", "status", "score", "owner_id",
		"account_id", "contact_id", "opportunity_id",
		"created_at", "created_by", "updated_at", "updated_by",
	}).AddRow(
		"lead-1", "tenant-1", "Grace", "Hopper", "Navy", "grace@navy.example",
		"+1 2", "referral", status, 70, "user-1",
		nil, nil, nil, now, "user-1", now, "user-1")
}

func TestLeadCreateScores(t *testing.T) {
	svc, mock := newLeadService(t)

	// has-email 10 + corporate-email 15 + has-company 20 + referral-source 25
	mock.ExpectExec(regexp.QuoteMeta(fmt.Sprintf("INSERT INTO %s", constants.TableLead))).
		WithArgs(sqlmock.AnyArg(), "tenant-1", "Grace", "Hopper", "Navy",
			"grace@navy.example", "", "referral", models.LeadStatusNew, 70, "user-1",
			nil, nil, nil,
			sqlmock.AnyArg(), "user-1", sqlmock.AnyArg(), "user-1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	lead, err := svc.Create(context.Background(), testSession(), LeadCreateInput{
		FirstName: "Grace",
		LastName:  "Hopper",
		Company:   "Navy",
		Email:     "grace@navy.example",
		Source:    "referral",
	})
	require.NoError(t, err)
	assert.Equal(t, 70, lead.Score)
	assert.Equal(t, models.LeadStatusNew, lead.Status)
	assert.Equal(t, "user-1", lead.OwnerID, "owner defaults to the session user")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadCreateRejectsBadEmail(t *testing.T) {
	svc, _ := newLeadService(t)

	_, err := svc.Create(context.Background(), testSession(), LeadCreateInput{
		FirstName: "Grace", LastName: "Hopper", Email: "not-an-email",
	})
	assert.True(t, errors.IsValidation(err))
}

func TestLeadUpdateRejectsConvertedStatus(t *testing.T) {
	svc, _ := newLeadService(t)

	status := models.LeadStatusConverted
	_, err := svc.Update(context.Background(), testSession(), "lead-1", LeadUpdateInput{
		Status: &status,
	})
	assert.True(t, errors.IsValidation(err))
}

func TestLeadUpdateMissingLeadNoFields(t *testing.T) {
	svc, mock := newLeadService(t)

	// No fields set, so no UPDATE is issued; only the reload runs.
	mock.ExpectQuery("SELECT").
		WithArgs("lead-x", "tenant-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := svc.Update(context.Background(), testSession(), "lead-x", LeadUpdateInput{})
	assert.True(t, errors.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadConvertConflictWhenAlreadyConverted(t *testing.T) {
	svc, mock := newLeadService(t)

	mock.ExpectQuery("SELECT").
		WithArgs("lead-1", "tenant-1").
		WillReturnRows(leadRow(models.LeadStatusConverted))

	_, err := svc.Convert(context.Background(), testSession(), "lead-1", ConvertInput{})
	assert.True(t, errors.IsConflict(err))
}

func TestLeadConvertNotFound(t *testing.T) {
	svc, mock := newLeadService(t)

	mock.ExpectQuery("SELECT").
		WithArgs("lead-x", "tenant-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := svc.Convert(context.Background(), testSession(), "lead-x", ConvertInput{})
	assert.True(t, errors.IsNotFound(err))
}

func TestLeadConvertCreatesRecords(t *testing.T) {
	svc, mock := newLeadService(t)

	mock.ExpectQuery("SELECT").
		WithArgs("lead-1", "tenant-1").
		WillReturnRows(leadRow(models.LeadStatusQualified))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(fmt.Sprintf("INSERT INTO %s", constants.TableAccount))).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(fmt.Sprintf("INSERT INTO %s", constants.TableContact))).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(fmt.Sprintf("INSERT INTO %s", constants.TableOpportunity))).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(fmt.Sprintf("UPDATE %s SET status = ?", constants.TableLead))).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := svc.Convert(context.Background(), testSession(), "lead-1", ConvertInput{
		CreateOpportunity: true,
		Amount:            5000,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Account)
	require.NotNil(t, result.Contact)
	require.NotNil(t, result.Opportunity)

	assert.Equal(t, "Navy", result.Account.Name, "account takes the lead company name")
	assert.Equal(t, result.Account.ID, result.Contact.AccountID)
	assert.Equal(t, "Navy - New Business", result.Opportunity.Name)
	assert.Equal(t, models.StageProspecting, result.Opportunity.Stage)
	assert.Equal(t, models.LeadStatusConverted, result.Lead.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
