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

// ActivityRepository persists activities (calls, emails, meetings, tasks,
// notes) attached to other CRM records.
type ActivityRepository struct {
	db *sql.DB
}

func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

const activityColumns = `id, tenant_id, related_type, related_id, type, subject, description, due_at, completed_at, owner_id, created_at, created_by, updated_at, updated_by`

// ActivityFilter narrows List results. Zero values are ignored.
type ActivityFilter struct {
	RelatedType string
	RelatedID   string
	Type        string
	OwnerID     string
	// OpenOnly keeps activities without a completed_at stamp.
	OpenOnly bool
}

func (r *ActivityRepository) Insert(ctx context.Context, a *models.Activity) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		constants.TableActivity, activityColumns)

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.TenantID, a.RelatedType, a.RelatedID, a.Type, a.Subject,
		a.Description, nullTime(a.DueAt), nullTime(a.CompletedAt), a.OwnerID,
		a.CreatedAt, a.CreatedBy, a.UpdatedAt, a.UpdatedBy)
	return err
}

func (r *ActivityRepository) FindByID(ctx context.Context, tenantID, id string) (*models.Activity, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? AND %s LIMIT 1",
		activityColumns, constants.TableActivity, tenantScope)

	row := r.db.QueryRowContext(ctx, query, id, tenantID)
	activity, err := scanActivity(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return activity, nil
}

func (r *ActivityRepository) List(ctx context.Context, tenantID string, filter ActivityFilter, page Page) (*PageResult[*models.Activity], error) {
	page = page.Clamp()

	where := []string{tenantScope}
	args := []interface{}{tenantID}

	if filter.RelatedType != "" {
		where = append(where, "related_type = ?")
		args = append(args, filter.RelatedType)
	}
	if filter.RelatedID != "" {
		where = append(where, "related_id = ?")
		args = append(args, filter.RelatedID)
	}
	if filter.Type != "" {
		where = append(where, "type = ?")
		args = append(args, filter.Type)
	}
	if filter.OwnerID != "" {
		where = append(where, "owner_id = ?")
		args = append(args, filter.OwnerID)
	}
	if filter.OpenOnly {
		where = append(where, "completed_at IS NULL")
	}

	whereClause := strings.Join(where, " AND ")

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", constants.TableActivity, whereClause)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE %s
		ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		activityColumns, constants.TableActivity, whereClause)
	args = append(args, page.Limit, page.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := make([]*models.Activity, 0)
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, activity)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &PageResult[*models.Activity]{Items: activities, Total: total, Limit: page.Limit, Offset: page.Offset}, nil
}

// ListOverdue returns open activities whose due date is in the past.
func (r *ActivityRepository) ListOverdue(ctx context.Context, tenantID string, asOf time.Time, page Page) (*PageResult[*models.Activity], error) {
	page = page.Clamp()

	whereClause := tenantScope + " AND completed_at IS NULL AND due_at IS NOT NULL AND due_at < ?"

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", constants.TableActivity, whereClause)
	if err := r.db.QueryRowContext(ctx, countQuery, tenantID, asOf).Scan(&total); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE %s
		ORDER BY due_at ASC, id ASC LIMIT ? OFFSET ?`,
		activityColumns, constants.TableActivity, whereClause)

	rows, err := r.db.QueryContext(ctx, query, tenantID, asOf, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := make([]*models.Activity, 0)
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, activity)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &PageResult[*models.Activity]{Items: activities, Total: total, Limit: page.Limit, Offset: page.Offset}, nil
}

// ListUpcoming returns the next open activities due between now and until.
func (r *ActivityRepository) ListUpcoming(ctx context.Context, tenantID string, from, until time.Time, limit int) ([]*models.Activity, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE %s AND completed_at IS NULL AND due_at IS NOT NULL AND due_at >= ? AND due_at < ?
		ORDER BY due_at ASC, id ASC LIMIT ?`,
		activityColumns, constants.TableActivity, tenantScope)

	rows, err := r.db.QueryContext(ctx, query, tenantID, from, until, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := make([]*models.Activity, 0)
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, activity)
	}
	return activities, rows.Err()
}

func (r *ActivityRepository) Update(ctx context.Context, tenantID, id, updatedBy string, updates map[string]interface{}) (bool, error) {
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
		constants.TableActivity, strings.Join(setClauses, ", "), tenantScope)
	args = append(args, id, tenantID)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Complete stamps the activity done. Completing twice is a no-op that still
// reports the row as found.
func (r *ActivityRepository) Complete(ctx context.Context, tenantID, id, updatedBy string, at time.Time) (bool, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET completed_at = COALESCE(completed_at, ?), updated_at = ?, updated_by = ?
		WHERE id = ? AND %s`,
		constants.TableActivity, tenantScope)

	res, err := r.db.ExecContext(ctx, query, at, time.Now(), updatedBy, id, tenantID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *ActivityRepository) SoftDelete(ctx context.Context, tenantID, id, deletedBy string) (bool, error) {
	return softDelete(ctx, r.db, constants.TableActivity, tenantID, id, deletedBy)
}

func scanActivity(row rowScanner) (*models.Activity, error) {
	var a models.Activity
	var dueAt, completedAt sql.NullTime
	var createdBy, updatedBy sql.NullString

	err := row.Scan(
		&a.ID, &a.TenantID, &a.RelatedType, &a.RelatedID, &a.Type, &a.Subject,
		&a.Description, &dueAt, &completedAt, &a.OwnerID,
		&a.CreatedAt, &createdBy, &a.UpdatedAt, &updatedBy)
	if err != nil {
		return nil, err
	}

	a.DueAt = timePtr(dueAt)
	a.CompletedAt = timePtr(completedAt)
	a.CreatedBy = createdBy.String
	a.UpdatedBy = updatedBy.String
	return &a, nil
}
