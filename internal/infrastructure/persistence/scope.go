package persistence

import (
	"database/sql"
	"time"
)

// Pagination defaults. Limits are clamped so a single page can never drag the
// whole table across the wire.
const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

// Page is an offset/limit pagination request.
type Page struct {
	Limit  int `json:"limit" form:"limit"`
	Offset int `json:"offset" form:"offset"`
}

// Clamp normalizes the page to the allowed bounds.
func (p Page) Clamp() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// PageResult carries one page of records plus the unpaged total, which the
// dashboard tables use for page controls.
type PageResult[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// tenantScope is appended to every query against tenant-scoped tables:
// rows belong to the tenant and are not soft-deleted.
const tenantScope = "tenant_id = ? AND deleted_at IS NULL"

// nullStr converts an empty string to SQL NULL.
func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullStrPtr converts a nil pointer to SQL NULL.
func nullStrPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// nullTime converts a nil time pointer to SQL NULL.
func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// strPtr returns nil for SQL NULL, otherwise a pointer to the value.
func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// timePtr returns nil for SQL NULL, otherwise a pointer to the value.
func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
