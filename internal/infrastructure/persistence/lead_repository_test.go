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

	"github.com/harborcrm/backend/internal/domain/models"
	"github.com/harborcrm/backend/pkg/constants"
)

func leadRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "tenant_id", "first_name", "last_name", "company", "email",
		"phone", "source", "status", "score", "owner_id",
		"account_id", "contact_id", "opportunity_id",
		"created_at", "created_by", "updated_at", "updated_by",
	})
}

func TestLeadFindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewLeadRepository(db)
	now := time.Now()

	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? AND %s LIMIT 1",
		leadColumns, constants.TableLead, tenantScope)

	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("lead-1", "tenant-1").
		WillReturnRows(leadRows().AddRow(
			"lead-1", "tenant-1", "Ada", "Lovelace", "Analytical Engines", "ada@engines.example",
			"+44 1", "referral", models.LeadStatusNew, 70, "user-1",
			nil, nil, nil,
			now, "user-1", now, "user-1"))

	lead, err := repo.FindByID(context.Background(), "tenant-1", "lead-1")
	require.NoError(t, err)
	require.NotNil(t, lead)
	assert.Equal(t, "Ada", lead.FirstName)
	assert.Equal(t, 70, lead.Score)
	assert.Nil(t, lead.AccountID)
}

func TestLeadFindByIDMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewLeadRepository(db)

	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? AND %s LIMIT 1",
		leadColumns, constants.TableLead, tenantScope)

	// Missing rows come back as (nil, nil); the caller decides the error.
	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("lead-x", "tenant-1").
		WillReturnRows(leadRows())

	lead, err := repo.FindByID(context.Background(), "tenant-1", "lead-x")
	assert.NoError(t, err)
	assert.Nil(t, lead)
}

func TestLeadInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewLeadRepository(db)
	now := time.Now()

	lead := &models.Lead{
		Audit: models.Audit{
			ID: "lead-1", TenantID: "tenant-1",
			CreatedAt: now, CreatedBy: "user-1", UpdatedAt: now, UpdatedBy: "user-1",
		},
		FirstName: "Ada", LastName: "Lovelace", Company: "Analytical Engines",
		Email: "ada@engines.example", Phone: "+44 1", Source: "referral",
		Status: models.LeadStatusNew, Score: 70, OwnerID: "user-1",
	}

	mock.ExpectExec(regexp.QuoteMeta(fmt.Sprintf("INSERT INTO %s", constants.TableLead))).
		WithArgs("lead-1", "tenant-1", "Ada", "Lovelace", "Analytical Engines",
			"ada@engines.example", "+44 1", "referral", models.LeadStatusNew, 70, "user-1",
			nil, nil, nil, now, "user-1", now, "user-1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.Insert(context.Background(), lead)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadList(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewLeadRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s AND status = ?", constants.TableLead, tenantScope))).
		WithArgs("tenant-1", models.LeadStatusQualified).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	mock.ExpectQuery("ORDER BY created_at DESC, id DESC LIMIT \\? OFFSET \\?").
		WithArgs("tenant-1", models.LeadStatusQualified, DefaultPageSize, 0).
		WillReturnRows(leadRows().AddRow(
			"lead-1", "tenant-1", "Ada", "Lovelace", "Analytical Engines", "ada@engines.example",
			"+44 1", "referral", models.LeadStatusQualified, 90, "user-1",
			nil, nil, nil,
			now, "user-1", now, "user-1"))

	result, err := repo.List(context.Background(), "tenant-1",
		LeadFilter{Status: models.LeadStatusQualified}, Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Total)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "lead-1", result.Items[0].ID)
	assert.Equal(t, DefaultPageSize, result.Limit)
}

func TestLeadSoftDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewLeadRepository(db)

	query := fmt.Sprintf("UPDATE %s SET deleted_at = ?, updated_at = ?, updated_by = ? WHERE id = ? AND %s",
		constants.TableLead, tenantScope)

	mock.ExpectExec(regexp.QuoteMeta(query)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "user-1", "lead-1", "tenant-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	found, err := repo.SoftDelete(context.Background(), "tenant-1", "lead-1", "user-1")
	assert.NoError(t, err)
	assert.True(t, found)

	// Second delete matches no live row
	mock.ExpectExec(regexp.QuoteMeta(query)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "user-1", "lead-1", "tenant-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	found, err = repo.SoftDelete(context.Background(), "tenant-1", "lead-1", "user-1")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestLeadRestore(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewLeadRepository(db)

	query := fmt.Sprintf("UPDATE %s SET deleted_at = NULL, updated_at = ? WHERE id = ? AND tenant_id = ? AND deleted_at IS NOT NULL",
		constants.TableLead)

	mock.ExpectExec(regexp.QuoteMeta(query)).
		WithArgs(sqlmock.AnyArg(), "lead-1", "tenant-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	found, err := repo.Restore(context.Background(), "tenant-1", "lead-1")
	assert.NoError(t, err)
	assert.True(t, found)
}

func TestLeadMarkConverted(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewLeadRepository(db)
	oppID := "opp-1"

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(fmt.Sprintf("UPDATE %s SET status = ?, account_id = ?, contact_id = ?, opportunity_id = ?", constants.TableLead))).
		WithArgs(models.LeadStatusConverted, "acct-1", "contact-1", oppID,
			sqlmock.AnyArg(), "user-1", "lead-1", "tenant-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)

	found, err := repo.MarkConvertedTx(context.Background(), tx, "tenant-1", "lead-1", "user-1", "acct-1", "contact-1", &oppID)
	assert.NoError(t, err)
	assert.True(t, found)
	require.NoError(t, tx.Commit())
}

func TestLeadCountByStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewLeadRepository(db)

	query := fmt.Sprintf("SELECT status, COUNT(*) FROM %s WHERE %s GROUP BY status",
		constants.TableLead, tenantScope)

	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("tenant-1").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow(models.LeadStatusNew, 3).
			AddRow(models.LeadStatusQualified, 1))

	counts, err := repo.CountByStatus(context.Background(), "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts[models.LeadStatusNew])
	assert.Equal(t, int64(1), counts[models.LeadStatusQualified])
}
