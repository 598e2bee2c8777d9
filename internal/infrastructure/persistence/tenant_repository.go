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

// TenantRepository persists tenants. Tenants are the partition roots and are
// not themselves tenant-scoped.
type TenantRepository struct {
	db *sql.DB
}

func NewTenantRepository(db *sql.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

const tenantColumns = `id, name, slug, plan, is_active, created_at, updated_at`

func (r *TenantRepository) Insert(ctx context.Context, t *models.Tenant) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		constants.TableTenant, tenantColumns)

	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.Name, t.Slug, t.Plan, t.IsActive, t.CreatedAt, t.UpdatedAt)
	return err
}

// InsertTx inserts inside an existing transaction; used by registration so the
// tenant and its admin user land atomically.
func (r *TenantRepository) InsertTx(ctx context.Context, tx *sql.Tx, t *models.Tenant) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		constants.TableTenant, tenantColumns)

	_, err := tx.ExecContext(ctx, query,
		t.ID, t.Name, t.Slug, t.Plan, t.IsActive, t.CreatedAt, t.UpdatedAt)
	return err
}

func (r *TenantRepository) FindByID(ctx context.Context, id string) (*models.Tenant, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? AND deleted_at IS NULL LIMIT 1",
		tenantColumns, constants.TableTenant)

	row := r.db.QueryRowContext(ctx, query, id)
	tenant, err := scanTenant(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

// SlugExists reports whether a live tenant already claimed the slug.
func (r *TenantRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE slug = ? AND deleted_at IS NULL)",
		constants.TableTenant)
	err := r.db.QueryRowContext(ctx, query, slug).Scan(&exists)
	return exists, err
}

func (r *TenantRepository) Update(ctx context.Context, id string, updates map[string]interface{}) (bool, error) {
	if len(updates) == 0 {
		return true, nil
	}

	setClauses := make([]string, 0, len(updates)+1)
	args := make([]interface{}, 0, len(updates)+2)
	for col, val := range updates {
		setClauses = append(setClauses, fmt.Sprintf("%s = ?", col))
		args = append(args, val)
	}
	setClauses = append(setClauses, "updated_at = ?")
	args = append(args, time.Now())

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ? AND deleted_at IS NULL",
		constants.TableTenant, strings.Join(setClauses, ", "))
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func scanTenant(row rowScanner) (*models.Tenant, error) {
	var t models.Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.Plan, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
