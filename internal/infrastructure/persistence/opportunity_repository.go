package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/harborcrm/backend/internal/domain/models"
	"github.com/harborcrm/backend/pkg/constants"
)

// OpportunityRepository persists opportunities.
type OpportunityRepository struct {
	db *sql.DB
}

func NewOpportunityRepository(db *sql.DB) *OpportunityRepository {
	return &OpportunityRepository{db: db}
}

const opportunityColumns = `id, tenant_id, account_id, name, stage, amount, probability, expected_close_date, closed_at, owner_id, created_at, created_by, updated_at, updated_by`

// OpportunityFilter narrows List results. Zero values are ignored.
type OpportunityFilter struct {
	AccountID string
	Stage     string
	OwnerID   string
	Search    string
}

// StageSummary is one pipeline bucket: open deal count and amount per stage.
type StageSummary struct {
	Stage  string  `json:"stage"`
	Count  int64   `json:"count"`
	Amount float64 `json:"amount"`
}

func (r *OpportunityRepository) Insert(ctx context.Context, o *models.Opportunity) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		constants.TableOpportunity, opportunityColumns)

	_, err := r.db.ExecContext(ctx, query,
		o.ID, o.TenantID, o.AccountID, o.Name, o.Stage, o.Amount, o.Probability,
		nullTime(o.ExpectedCloseDate), nullTime(o.ClosedAt), o.OwnerID,
		o.CreatedAt, o.CreatedBy, o.UpdatedAt, o.UpdatedBy)
	return err
}

// InsertTx inserts inside an existing transaction; used by lead conversion.
func (r *OpportunityRepository) InsertTx(ctx context.Context, tx *sql.Tx, o *models.Opportunity) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		constants.TableOpportunity, opportunityColumns)

	_, err := tx.ExecContext(ctx, query,
		o.ID, o.TenantID, o.AccountID, o.Name, o.Stage, o.Amount, o.Probability,
		nullTime(o.ExpectedCloseDate), nullTime(o.ClosedAt), o.OwnerID,
		o.CreatedAt, o.CreatedBy, o.UpdatedAt, o.UpdatedBy)
	return err
}

func (r *OpportunityRepository) FindByID(ctx context.Context, tenantID, id string) (*models.Opportunity, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? AND %s LIMIT 1",
		opportunityColumns, constants.TableOpportunity, tenantScope)

	row := r.db.QueryRowContext(ctx, query, id, tenantID)
	opp, err := scanOpportunity(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return opp, nil
}

func (r *OpportunityRepository) List(ctx context.Context, tenantID string, filter OpportunityFilter, page Page) (*PageResult[*models.Opportunity], error) {
	page = page.Clamp()

	where := []string{tenantScope}
	args := []interface{}{tenantID}

	if filter.AccountID != "" {
		where = append(where, "account_id = ?")
		args = append(args, filter.AccountID)
	}
	if filter.Stage != "" {
		where = append(where, "stage = ?")
		args = append(args, filter.Stage)
	}
	if filter.OwnerID != "" {
		where = append(where, "owner_id = ?")
		args = append(args, filter.OwnerID)
	}
	if filter.Search != "" {
		where = append(where, "name LIKE ?")
		args = append(args, "%"+filter.Search+"%")
	}

	whereClause := strings.Join(where, " AND ")

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", constants.TableOpportunity, whereClause)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE %s
		ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		opportunityColumns, constants.TableOpportunity, whereClause)
	args = append(args, page.Limit, page.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	opps := make([]*models.Opportunity, 0)
	for rows.Next() {
		opp, err := scanOpportunity(rows)
		if err != nil {
			return nil, err
		}
		opps = append(opps, opp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &PageResult[*models.Opportunity]{Items: opps, Total: total, Limit: page.Limit, Offset: page.Offset}, nil
}

func (r *OpportunityRepository) Update(ctx context.Context, tenantID, id, updatedBy string, updates map[string]interface{}) (bool, error) {
	if len(updates) == 0 {
		return true, nil
	}

	setClauses := make([]string, 0, len(updates)+2)
	args := make([]interface{}, 0, len(updates)+4)
	for col, val := range updates {
		setClauses = append(setClauses, fmt.Sprintf("%s = ?", col))
		args = append(args, val)
	}
	setClauses = append(setClauses, "updated_at = ?", "updated_by = ?")
	args = append(args, time.Now(), updatedBy)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ? AND %s",
		constants.TableOpportunity, strings.Join(setClauses, ", "), tenantScope)
	args = append(args, id, tenantID)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *OpportunityRepository) SoftDelete(ctx context.Context, tenantID, id, deletedBy string) (bool, error) {
	return softDelete(ctx, r.db, constants.TableOpportunity, tenantID, id, deletedBy)
}

func (r *OpportunityRepository) Restore(ctx context.Context, tenantID, id string) (bool, error) {
	return restore(ctx, r.db, constants.TableOpportunity, tenantID, id)
}

// PipelineSummary aggregates open deals per stage.
func (r *OpportunityRepository) PipelineSummary(ctx context.Context, tenantID string) ([]StageSummary, error) {
	query := fmt.Sprintf(`
		SELECT stage, COUNT(*), COALESCE(SUM(amount), 0)
		FROM %s
		WHERE %s AND stage NOT IN (?, ?)
		GROUP BY stage`,
		constants.TableOpportunity, tenantScope)

	rows, err := r.db.QueryContext(ctx, query, tenantID, models.StageClosedWon, models.StageClosedLost)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byStage := make(map[string]StageSummary)
	for rows.Next() {
		var s StageSummary
		if err := rows.Scan(&s.Stage, &s.Count, &s.Amount); err != nil {
			return nil, err
		}
		byStage[s.Stage] = s
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Stable stage order, empty buckets included
	summary := make([]StageSummary, 0, len(models.OpenStages))
	for _, stage := range models.OpenStages {
		s, ok := byStage[stage]
		if !ok {
			s = StageSummary{Stage: stage}
		}
		summary = append(summary, s)
	}
	return summary, nil
}

// ClosedTotals sums won and lost amounts since the given time.
func (r *OpportunityRepository) ClosedTotals(ctx context.Context, tenantID string, since time.Time) (won, lost float64, err error) {
	query := fmt.Sprintf(`
		SELECT
			COALESCE(SUM(CASE WHEN stage = ? THEN amount ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN stage = ? THEN amount ELSE 0 END), 0)
		FROM %s
		WHERE %s AND closed_at >= ?`,
		constants.TableOpportunity, tenantScope)

	err = r.db.QueryRowContext(ctx, query,
		models.StageClosedWon, models.StageClosedLost, tenantID, since).Scan(&won, &lost)
	return won, lost, err
}

func scanOpportunity(row rowScanner) (*models.Opportunity, error) {
	var o models.Opportunity
	var expectedClose, closedAt sql.NullTime
	var createdBy, updatedBy sql.NullString

	err := row.Scan(
		&o.ID, &o.TenantID, &o.AccountID, &o.Name, &o.Stage, &o.Amount,
		&o.Probability, &expectedClose, &closedAt, &o.OwnerID,
		&o.CreatedAt, &createdBy, &o.UpdatedAt, &updatedBy)
	if err != nil {
		return nil, err
	}

	o.ExpectedCloseDate = timePtr(expectedClose)
	o.ClosedAt = timePtr(closedAt)
	o.CreatedBy = createdBy.String
	o.UpdatedBy = updatedBy.String
	return &o, nil
}
