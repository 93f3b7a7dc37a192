package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		Host:            "localhost",
		Port:            5432,
		User:            "manganime",
		Password:        "manganime_dev_password",
		Database:        "manganime_dev",
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 2 * time.Minute,
		Timeout:         10 * time.Second,
	}
}

func TestNewDB(t *testing.T) {
	db, err := NewDB(testConfig())
	if err != nil {
		t.Skipf("Skipping test: PostgreSQL not available: %v", err)
		return
	}
	defer db.Close()

	ctx := context.Background()
	err = db.HealthCheck(ctx)
	require.NoError(t, err)

	stats := db.Stats()
	assert.GreaterOrEqual(t, stats.MaxOpenConnections, 5)
}

func TestHealthCheckCancelledContext(t *testing.T) {
	db, err := NewDB(testConfig())
	if err != nil {
		t.Skipf("Skipping test: PostgreSQL not available: %v", err)
		return
	}
	defer db.Close()

	cancelCtx, cancel := context.WithCancel(context.Background())
	cancel()
	err = db.HealthCheck(cancelCtx)
	assert.Error(t, err)
}

func TestConfigDSNDefaults(t *testing.T) {
	cfg := Config{
		Host:     "db",
		Port:     5432,
		User:     "u",
		Password: "p",
		Database: "d",
		SSLMode:  "disable",
		Timeout:  5 * time.Second,
	}
	assert.Equal(t,
		"host=db port=5432 user=u password=p dbname=d sslmode=disable connect_timeout=5",
		cfg.DSN())
}
