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

// LeadRepository persists leads. All reads and writes are tenant-scoped and
// exclude soft-deleted rows.
type LeadRepository struct {
	db *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

const leadColumns = `id, tenant_id, first_name, last_name, company, email, phone, source, status, score, owner_id, account_id, contact_id, opportunity_id, created_at, created_by, updated_at, updated_by`

// LeadFilter narrows List results. Zero values are ignored.
type LeadFilter struct {
	Status  string
	Source  string
	OwnerID string
	Search  string
}

func (r *LeadRepository) Insert(ctx context.Context, l *models.Lead) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		constants.TableLead, leadColumns)

	_, err := r.db.ExecContext(ctx, query,
		l.ID, l.TenantID, l.FirstName, l.LastName, l.Company, l.Email, l.Phone,
		l.Source, l.Status, l.Score, l.OwnerID,
		nullStrPtr(l.AccountID), nullStrPtr(l.ContactID), nullStrPtr(l.OpportunityID),
		l.CreatedAt, l.CreatedBy, l.UpdatedAt, l.UpdatedBy)
	return err
}

// FindByID returns nil when the lead does not exist, is soft-deleted, or
// belongs to another tenant.
func (r *LeadRepository) FindByID(ctx context.Context, tenantID, id string) (*models.Lead, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? AND %s LIMIT 1",
		leadColumns, constants.TableLead, tenantScope)

	row := r.db.QueryRowContext(ctx, query, id, tenantID)
	lead, err := scanLead(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return lead, nil
}

// List returns one page of leads plus the filtered total, newest first.
func (r *LeadRepository) List(ctx context.Context, tenantID string, filter LeadFilter, page Page) (*PageResult[*models.Lead], error) {
	page = page.Clamp()

	where := []string{tenantScope}
	args := []interface{}{tenantID}

	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Source != "" {
		where = append(where, "source = ?")
		args = append(args, filter.Source)
	}
	if filter.OwnerID != "" {
		where = append(where, "owner_id = ?")
		args = append(args, filter.OwnerID)
	}
	if filter.Search != "" {
		where = append(where, "(first_name LIKE ? OR last_name LIKE ? OR company LIKE ? OR email LIKE ?)")
		term := "%" + filter.Search + "%"
		args = append(args, term, term, term, term)
	}

	whereClause := strings.Join(where, " AND ")

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", constants.TableLead, whereClause)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE %s
		ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		leadColumns, constants.TableLead, whereClause)
	args = append(args, page.Limit, page.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]*models.Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &PageResult[*models.Lead]{Items: leads, Total: total, Limit: page.Limit, Offset: page.Offset}, nil
}

// Update applies a partial column update and stamps updated_at/updated_by.
// Returns false when no live row matched.
func (r *LeadRepository) Update(ctx context.Context, tenantID, id, updatedBy string, updates map[string]interface{}) (bool, error) {
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
		constants.TableLead, strings.Join(setClauses, ", "), tenantScope)
	args = append(args, id, tenantID)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// MarkConvertedTx stamps the lead converted and records the created record
// IDs, inside the transaction that creates those records.
func (r *LeadRepository) MarkConvertedTx(ctx context.Context, tx *sql.Tx, tenantID, id, updatedBy, accountID, contactID string, opportunityID *string) (bool, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET status = ?, account_id = ?, contact_id = ?, opportunity_id = ?, updated_at = ?, updated_by = ?
		WHERE id = ? AND %s`,
		constants.TableLead, tenantScope)

	res, err := tx.ExecContext(ctx, query,
		models.LeadStatusConverted, accountID, contactID, nullStrPtr(opportunityID),
		time.Now(), updatedBy, id, tenantID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// SoftDelete hides the lead from all subsequent reads.
func (r *LeadRepository) SoftDelete(ctx context.Context, tenantID, id, deletedBy string) (bool, error) {
	return softDelete(ctx, r.db, constants.TableLead, tenantID, id, deletedBy)
}

// Restore clears the soft-delete marker.
func (r *LeadRepository) Restore(ctx context.Context, tenantID, id string) (bool, error) {
	return restore(ctx, r.db, constants.TableLead, tenantID, id)
}

// CountByStatus aggregates live leads per status for the dashboard.
func (r *LeadRepository) CountByStatus(ctx context.Context, tenantID string) (map[string]int64, error) {
	query := fmt.Sprintf("SELECT status, COUNT(*) FROM %s WHERE %s GROUP BY status",
		constants.TableLead, tenantScope)

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLead(row rowScanner) (*models.Lead, error) {
	var l models.Lead
	var accountID, contactID, opportunityID, createdBy, updatedBy sql.NullString

	err := row.Scan(
		&l.ID, &l.TenantID, &l.FirstName, &l.LastName, &l.Company, &l.Email,
		&l.Phone, &l.Source, &l.Status, &l.Score, &l.OwnerID,
		&accountID, &contactID, &opportunityID,
		&l.CreatedAt, &createdBy, &l.UpdatedAt, &updatedBy)
	if err != nil {
		return nil, err
	}

	l.AccountID = strPtr(accountID)
	l.ContactID = strPtr(contactID)
	l.OpportunityID = strPtr(opportunityID)
	l.CreatedBy = createdBy.String
	l.UpdatedBy = updatedBy.String
	return &l, nil
}

// softDelete marks a row deleted; shared by every tenant-scoped repository.
func softDelete(ctx context.Context, db *sql.DB, table, tenantID, id, deletedBy string) (bool, error) {
	query := fmt.Sprintf("UPDATE %s SET deleted_at = ?, updated_at = ?, updated_by = ? WHERE id = ? AND %s",
		table, tenantScope)

	now := time.Now()
	res, err := db.ExecContext(ctx, query, now, now, deletedBy, id, tenantID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// restore clears the soft-delete marker on a row.
func restore(ctx context.Context, db *sql.DB, table, tenantID, id string) (bool, error) {
	query := fmt.Sprintf("UPDATE %s SET deleted_at = NULL, updated_at = ? WHERE id = ? AND tenant_id = ? AND deleted_at IS NOT NULL",
		table)

	res, err := db.ExecContext(ctx, query, time.Now(), id, tenantID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
