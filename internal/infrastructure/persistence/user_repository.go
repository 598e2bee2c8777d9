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

// UserRepository persists tenant users. Email uniqueness is per tenant.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, tenant_id, email, password_hash, first_name, last_name, role, is_active, last_login_at, created_at, created_by, updated_at, updated_by`

func (r *UserRepository) Insert(ctx context.Context, u *models.User) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		constants.TableUser, userColumns)

	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.TenantID, u.Email, u.PasswordHash, u.FirstName, u.LastName,
		u.Role, u.IsActive, nullTime(u.LastLoginAt),
		u.CreatedAt, u.CreatedBy, u.UpdatedAt, u.UpdatedBy)
	return err
}

// InsertTx inserts inside an existing transaction; used by tenant registration.
func (r *UserRepository) InsertTx(ctx context.Context, tx *sql.Tx, u *models.User) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		constants.TableUser, userColumns)

	_, err := tx.ExecContext(ctx, query,
		u.ID, u.TenantID, u.Email, u.PasswordHash, u.FirstName, u.LastName,
		u.Role, u.IsActive, nullTime(u.LastLoginAt),
		u.CreatedAt, u.CreatedBy, u.UpdatedAt, u.UpdatedBy)
	return err
}

func (r *UserRepository) FindByID(ctx context.Context, tenantID, id string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? AND %s LIMIT 1",
		userColumns, constants.TableUser, tenantScope)

	row := r.db.QueryRowContext(ctx, query, id, tenantID)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail looks a user up across tenants; login identifies the tenant
// from the matched row.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE email = ? AND deleted_at IS NULL LIMIT 1",
		userColumns, constants.TableUser)

	row := r.db.QueryRowContext(ctx, query, email)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// EmailConflict reports whether a different live user already holds the email.
// Login emails are unique across tenants.
func (r *UserRepository) EmailConflict(ctx context.Context, email, excludeID string) (bool, error) {
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE email = ? AND id != ? AND deleted_at IS NULL)",
		constants.TableUser)
	err := r.db.QueryRowContext(ctx, query, email, excludeID).Scan(&exists)
	return exists, err
}

func (r *UserRepository) List(ctx context.Context, tenantID string, page Page) (*PageResult[*models.User], error) {
	page = page.Clamp()

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", constants.TableUser, tenantScope)
	if err := r.db.QueryRowContext(ctx, countQuery, tenantID).Scan(&total); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE %s
		ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		userColumns, constants.TableUser, tenantScope)

	rows, err := r.db.QueryContext(ctx, query, tenantID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &PageResult[*models.User]{Items: users, Total: total, Limit: page.Limit, Offset: page.Offset}, nil
}

func (r *UserRepository) Update(ctx context.Context, tenantID, id, updatedBy string, updates map[string]interface{}) (bool, error) {
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
		constants.TableUser, strings.Join(setClauses, ", "), tenantScope)
	args = append(args, id, tenantID)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// UpdatePassword replaces the password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, tenantID, id, passwordHash string) error {
	query := fmt.Sprintf("UPDATE %s SET password_hash = ?, updated_at = ? WHERE id = ? AND %s",
		constants.TableUser, tenantScope)
	_, err := r.db.ExecContext(ctx, query, passwordHash, time.Now(), id, tenantID)
	return err
}

// TouchLastLogin records a successful login.
func (r *UserRepository) TouchLastLogin(ctx context.Context, tenantID, id string, at time.Time) error {
	query := fmt.Sprintf("UPDATE %s SET last_login_at = ? WHERE id = ? AND %s",
		constants.TableUser, tenantScope)
	_, err := r.db.ExecContext(ctx, query, at, id, tenantID)
	return err
}

func (r *UserRepository) SoftDelete(ctx context.Context, tenantID, id, deletedBy string) (bool, error) {
	return softDelete(ctx, r.db, constants.TableUser, tenantID, id, deletedBy)
}

// CountAll counts live users across all tenants; used by the bootstrap seed.
func (r *UserRepository) CountAll(ctx context.Context) (int64, error) {
	var n int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE deleted_at IS NULL", constants.TableUser)
	err := r.db.QueryRowContext(ctx, query).Scan(&n)
	return n, err
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var lastLogin sql.NullTime
	var createdBy, updatedBy sql.NullString

	err := row.Scan(
		&u.ID, &u.TenantID, &u.Email, &u.PasswordHash, &u.FirstName,
		&u.LastName, &u.Role, &u.IsActive, &lastLogin,
		&u.CreatedAt, &createdBy, &u.UpdatedAt, &updatedBy)
	if err != nil {
		return nil, err
	}

	u.LastLoginAt = timePtr(lastLogin)
	u.CreatedBy = createdBy.String
	u.UpdatedBy = updatedBy.String
	return &u, nil
}
