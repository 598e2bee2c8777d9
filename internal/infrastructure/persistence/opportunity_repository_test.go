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

func TestOpportunityPipelineSummary(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewOpportunityRepository(db)

	mock.ExpectQuery("SELECT stage, COUNT\\(\\*\\), COALESCE\\(SUM\\(amount\\), 0\\)").
		WithArgs("tenant-1", models.StageClosedWon, models.StageClosedLost).
		WillReturnRows(sqlmock.NewRows([]string{"stage", "count", "amount"}).
			AddRow(models.StageProposal, 2, 50000.0).
			AddRow(models.StageProspecting, 5, 12000.0))

	summary, err := repo.PipelineSummary(context.Background(), "tenant-1")
	require.NoError(t, err)

	// Every open stage appears in order, empty buckets included.
	require.Len(t, summary, len(models.OpenStages))
	assert.Equal(t, models.StageProspecting, summary[0].Stage)
	assert.Equal(t, int64(5), summary[0].Count)
	assert.Equal(t, models.StageQualification, summary[1].Stage)
	assert.Equal(t, int64(0), summary[1].Count)
	assert.Equal(t, models.StageProposal, summary[2].Stage)
	assert.Equal(t, 50000.0, summary[2].Amount)
	assert.Equal(t, models.StageNegotiation, summary[3].Stage)
}

func TestOpportunityClosedTotals(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewOpportunityRepository(db)
	since := time.Now().Add(-30 * 24 * time.Hour)

	mock.ExpectQuery("COALESCE\\(SUM\\(CASE WHEN stage = \\? THEN amount ELSE 0 END\\), 0\\)").
		WithArgs(models.StageClosedWon, models.StageClosedLost, "tenant-1", since).
		WillReturnRows(sqlmock.NewRows([]string{"won", "lost"}).AddRow(95000.0, 20000.0))

	won, lost, err := repo.ClosedTotals(context.Background(), "tenant-1", since)
	require.NoError(t, err)
	assert.Equal(t, 95000.0, won)
	assert.Equal(t, 20000.0, lost)
}

func TestOpportunityUpdateStampsAudit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewOpportunityRepository(db)

	query := fmt.Sprintf("UPDATE %s SET stage = ?, updated_at = ?, updated_by = ? WHERE id = ? AND %s",
		constants.TableOpportunity, tenantScope)

	mock.ExpectExec(regexp.QuoteMeta(query)).
		WithArgs(models.StageProposal, sqlmock.AnyArg(), "user-1", "opp-1", "tenant-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	found, err := repo.Update(context.Background(), "tenant-1", "opp-1", "user-1",
		map[string]interface{}{"stage": models.StageProposal})
	assert.NoError(t, err)
	assert.True(t, found)
}

func TestOpportunityUpdateEmpty(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewOpportunityRepository(db)

	// No columns to set means no statement runs.
	found, err := repo.Update(context.Background(), "tenant-1", "opp-1", "user-1", map[string]interface{}{})
	assert.NoError(t, err)
	assert.True(t, found)
}

func TestOpportunityFindByIDScansNulls(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewOpportunityRepository(db)
	now := time.Now()

	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? AND %s LIMIT 1",
		opportunityColumns, constants.TableOpportunity, tenantScope)

	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("opp-1", "tenant-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "tenant_id", "account_id", "name", "stage", "amount", "probability",
			"expected_close_date", "closed_at", "owner_id",
			"created_at", "created_by", "updated_at", "updated_by",
		}).AddRow(
			"opp-1", "tenant-1", "acct-1", "Big Deal", models.StageProspecting, 10000.0, 10,
			nil, nil, "user-1",
			now, "user-1", now, "user-1"))

	opp, err := repo.FindByID(context.Background(), "tenant-1", "opp-1")
	require.NoError(t, err)
	require.NotNil(t, opp)
	assert.Nil(t, opp.ExpectedCloseDate)
	assert.Nil(t, opp.ClosedAt)
	assert.Equal(t, 10, opp.Probability)
}
