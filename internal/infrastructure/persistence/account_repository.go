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

// AccountRepository persists accounts.
type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, tenant_id, name, industry, website, phone, annual_revenue, employee_count, billing_address, owner_id, created_at, created_by, updated_at, updated_by`

// AccountFilter narrows List results. Zero values are ignored.
type AccountFilter struct {
	Industry string
	OwnerID  string
	Search   string
}

func (r *AccountRepository) Insert(ctx context.Context, a *models.Account) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		constants.TableAccount, accountColumns)

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.TenantID, a.Name, a.Industry, a.Website, a.Phone,
		a.AnnualRevenue, a.EmployeeCount, a.BillingAddress, a.OwnerID,
		a.CreatedAt, a.CreatedBy, a.UpdatedAt, a.UpdatedBy)
	return err
}

// InsertTx inserts inside an existing transaction; used by lead conversion.
func (r *AccountRepository) InsertTx(ctx context.Context, tx *sql.Tx, a *models.Account) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		constants.TableAccount, accountColumns)

	_, err := tx.ExecContext(ctx, query,
		a.ID, a.TenantID, a.Name, a.Industry, a.Website, a.Phone,
		a.AnnualRevenue, a.EmployeeCount, a.BillingAddress, a.OwnerID,
		a.CreatedAt, a.CreatedBy, a.UpdatedAt, a.UpdatedBy)
	return err
}

func (r *AccountRepository) FindByID(ctx context.Context, tenantID, id string) (*models.Account, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? AND %s LIMIT 1",
		accountColumns, constants.TableAccount, tenantScope)

	row := r.db.QueryRowContext(ctx, query, id, tenantID)
	account, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

// Exists reports whether a live account with the ID exists in the tenant.
func (r *AccountRepository) Exists(ctx context.Context, tenantID, id string) (bool, error) {
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE id = ? AND %s)",
		constants.TableAccount, tenantScope)
	err := r.db.QueryRowContext(ctx, query, id, tenantID).Scan(&exists)
	return exists, err
}

func (r *AccountRepository) List(ctx context.Context, tenantID string, filter AccountFilter, page Page) (*PageResult[*models.Account], error) {
	page = page.Clamp()

	where := []string{tenantScope}
	args := []interface{}{tenantID}

	if filter.Industry != "" {
		where = append(where, "industry = ?")
		args = append(args, filter.Industry)
	}
	if filter.OwnerID != "" {
		where = append(where, "owner_id = ?")
		args = append(args, filter.OwnerID)
	}
	if filter.Search != "" {
		where = append(where, "(name LIKE ? OR website LIKE ?)")
		term := "%" + filter.Search + "%"
		args = append(args, term, term)
	}

	whereClause := strings.Join(where, " AND ")

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", constants.TableAccount, whereClause)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE %s
		ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		accountColumns, constants.TableAccount, whereClause)
	args = append(args, page.Limit, page.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]*models.Account, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &PageResult[*models.Account]{Items: accounts, Total: total, Limit: page.Limit, Offset: page.Offset}, nil
}

func (r *AccountRepository) Update(ctx context.Context, tenantID, id, updatedBy string, updates map[string]interface{}) (bool, error) {
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
		constants.TableAccount, strings.Join(setClauses, ", "), tenantScope)
	args = append(args, id, tenantID)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *AccountRepository) SoftDelete(ctx context.Context, tenantID, id, deletedBy string) (bool, error) {
	return softDelete(ctx, r.db, constants.TableAccount, tenantID, id, deletedBy)
}

func (r *AccountRepository) Restore(ctx context.Context, tenantID, id string) (bool, error) {
	return restore(ctx, r.db, constants.TableAccount, tenantID, id)
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var a models.Account
	var createdBy, updatedBy sql.NullString

	err := row.Scan(
		&a.ID, &a.TenantID, &a.Name, &a.Industry, &a.Website, &a.Phone,
		&a.AnnualRevenue, &a.EmployeeCount, &a.BillingAddress, &a.OwnerID,
		&a.CreatedAt, &createdBy, &a.UpdatedAt, &updatedBy)
	if err != nil {
		return nil, err
	}

	a.CreatedBy = createdBy.String
	a.UpdatedBy = updatedBy.String
	return &a, nil
}
