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

// ContactRepository persists contacts.
type ContactRepository struct {
	db *sql.DB
}

func NewContactRepository(db *sql.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

const contactColumns = `id, tenant_id, account_id, first_name, last_name, email, phone, title, owner_id, created_at, created_by, updated_at, updated_by`

// ContactFilter narrows List results. Zero values are ignored.
type ContactFilter struct {
	AccountID string
	OwnerID   string
	Search    string
}

func (r *ContactRepository) Insert(ctx context.Context, c *models.Contact) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		constants.TableContact, contactColumns)

	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.TenantID, c.AccountID, c.FirstName, c.LastName, c.Email,
		c.Phone, c.Title, c.OwnerID,
		c.CreatedAt, c.CreatedBy, c.UpdatedAt, c.UpdatedBy)
	return err
}

// InsertTx inserts inside an existing transaction; used by lead conversion.
func (r *ContactRepository) InsertTx(ctx context.Context, tx *sql.Tx, c *models.Contact) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		constants.TableContact, contactColumns)

	_, err := tx.ExecContext(ctx, query,
		c.ID, c.TenantID, c.AccountID, c.FirstName, c.LastName, c.Email,
		c.Phone, c.Title, c.OwnerID,
		c.CreatedAt, c.CreatedBy, c.UpdatedAt, c.UpdatedBy)
	return err
}

func (r *ContactRepository) FindByID(ctx context.Context, tenantID, id string) (*models.Contact, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? AND %s LIMIT 1",
		contactColumns, constants.TableContact, tenantScope)

	row := r.db.QueryRowContext(ctx, query, id, tenantID)
	contact, err := scanContact(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return contact, nil
}

func (r *ContactRepository) List(ctx context.Context, tenantID string, filter ContactFilter, page Page) (*PageResult[*models.Contact], error) {
	page = page.Clamp()

	where := []string{tenantScope}
	args := []interface{}{tenantID}

	if filter.AccountID != "" {
		where = append(where, "account_id = ?")
		args = append(args, filter.AccountID)
	}
	if filter.OwnerID != "" {
		where = append(where, "owner_id = ?")
		args = append(args, filter.OwnerID)
	}
	if filter.Search != "" {
		where = append(where, "(first_name LIKE ? OR last_name LIKE ? OR email LIKE ?)")
		term := "%" + filter.Search + "%"
		args = append(args, term, term, term)
	}

	whereClause := strings.Join(where, " AND ")

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", constants.TableContact, whereClause)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE %s
		ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		contactColumns, constants.TableContact, whereClause)
	args = append(args, page.Limit, page.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := make([]*models.Contact, 0)
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, contact)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &PageResult[*models.Contact]{Items: contacts, Total: total, Limit: page.Limit, Offset: page.Offset}, nil
}

func (r *ContactRepository) Update(ctx context.Context, tenantID, id, updatedBy string, updates map[string]interface{}) (bool, error) {
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
		constants.TableContact, strings.Join(setClauses, ", "), tenantScope)
	args = append(args, id, tenantID)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *ContactRepository) SoftDelete(ctx context.Context, tenantID, id, deletedBy string) (bool, error) {
	return softDelete(ctx, r.db, constants.TableContact, tenantID, id, deletedBy)
}

func (r *ContactRepository) Restore(ctx context.Context, tenantID, id string) (bool, error) {
	return restore(ctx, r.db, constants.TableContact, tenantID, id)
}

func scanContact(row rowScanner) (*models.Contact, error) {
	var c models.Contact
	var createdBy, updatedBy sql.NullString

	err := row.Scan(
		&c.ID, &c.TenantID, &c.AccountID, &c.FirstName, &c.LastName, &c.Email,
		&c.Phone, &c.Title, &c.OwnerID,
		&c.CreatedAt, &createdBy, &c.UpdatedAt, &updatedBy)
	if err != nil {
		return nil, err
	}

	c.CreatedBy = createdBy.String
	c.UpdatedBy = updatedBy.String
	return &c, nil
}
