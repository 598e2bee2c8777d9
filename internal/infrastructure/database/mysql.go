package database

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/harborcrm/backend/internal/config"
)

// Connection wraps the shared *sql.DB.
// sql.DB is already thread-safe and manages its own connection pool, so no
// additional locking is layered on top.
type Connection struct {
	db *sql.DB
}

var (
	instance *Connection
	once     sync.Once
	initErr  error
	tlsOnce  sync.Once // TLS config may only be registered once per process
)

// GetInstance returns the singleton database connection
func GetInstance(cfg *config.Config) (*Connection, error) {
	once.Do(func() {
		instance, initErr = newConnection(cfg)
	})
	return instance, initErr
}

func newConnection(cfg *config.Config) (*Connection, error) {
	db, err := sql.Open("mysql", buildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// MaxIdleConns must equal MaxOpenConns, otherwise connections churn and
	// exhaust ephemeral ports under load.
	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(100)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(3 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Connection{db: db}, nil
}

// buildDSN assembles the MySQL connection string. Remote hosts (managed
// MySQL/TiDB) require TLS with ServerName set; local hosts connect plain.
func buildDSN(cfg *config.Config) string {
	tlsParam := ""
	if cfg.DBHost != "127.0.0.1" && cfg.DBHost != "localhost" {
		tlsOnce.Do(func() {
			if err := mysql.RegisterTLSConfig("harborcrm", &tls.Config{
				MinVersion: tls.VersionTLS12,
				ServerName: cfg.DBHost,
			}); err != nil {
				log.Printf("Failed to register TLS config: %v", err)
			}
		})
		tlsParam = "&tls=harborcrm"
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local%s",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName, tlsParam)
}

// QueryContext executes a SELECT query with context
func (c *Connection) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return c.db.QueryContext(ctx, query, args...)
}

// QueryRowContext executes a SELECT query with context that returns at most one row
func (c *Connection) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return c.db.QueryRowContext(ctx, query, args...)
}

// ExecContext executes an INSERT, UPDATE, or DELETE query with context
func (c *Connection) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return c.db.ExecContext(ctx, query, args...)
}

// BeginTx starts a new transaction with context
func (c *Connection) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return c.db.BeginTx(ctx, opts)
}

// DB returns the underlying *sql.DB connection
func (c *Connection) DB() *sql.DB {
	return c.db
}

// Close closes the database connection
func (c *Connection) Close() error {
	return c.db.Close()
}
