package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/harborcrm/backend/internal/config"
)

func TestBuildDSNLocal(t *testing.T) {
	cfg := &config.Config{
		DBHost: "127.0.0.1", DBPort: "4000",
		DBUser: "root", DBPassword: "secret", DBName: "harborcrm",
	}

	dsn := buildDSN(cfg)
	assert.Equal(t, "root:secret@tcp(127.0.0.1:4000)/harborcrm?charset=utf8mb4&parseTime=True&loc=Local", dsn)
}

func TestBuildDSNRemoteAddsTLS(t *testing.T) {
	cfg := &config.Config{
		DBHost: "db.example.com", DBPort: "4000",
		DBUser: "app", DBPassword: "secret", DBName: "harborcrm",
	}

	dsn := buildDSN(cfg)
	assert.Contains(t, dsn, "@tcp(db.example.com:4000)/harborcrm")
	assert.Contains(t, dsn, "&tls=harborcrm")
}
