// Package store persists bills, vendors and API tokens in Postgres.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"billtrack/internal/utils"
)

var handle struct {
	sync.Mutex
	dsn string
	db  *sql.DB
}

func postgresPort(cfg utils.PostgresConfig) int {
	if cfg.Port != 0 {
		return cfg.Port
	}
	return 5432
}

func postgresDSN(cfg utils.PostgresConfig) (string, error) {
	if strings.HasPrefix(cfg.Host, "postgres://") || strings.HasPrefix(cfg.Host, "postgresql://") {
		return cfg.Host, nil
	}
	if cfg.Host == "" {
		return "", fmt.Errorf("postgres host is empty")
	}
	if cfg.Database == "" {
		return "", fmt.Errorf("postgres database is empty")
	}
	if cfg.User == "" {
		return "", fmt.Errorf("postgres user is empty")
	}

	hostPort := cfg.Host
	port := postgresPort(cfg)
	// Handle IPv6 or explicit host:port strings.
	if strings.HasPrefix(hostPort, "[") {
		if !strings.Contains(hostPort, "]:") {
			hostPort = fmt.Sprintf("%s:%d", hostPort, port)
		}
	} else if strings.Count(hostPort, ":") >= 2 {
		hostPort = fmt.Sprintf("[%s]:%d", hostPort, port)
	} else if !strings.Contains(hostPort, ":") {
		hostPort = fmt.Sprintf("%s:%d", hostPort, port)
	}

	u := &url.URL{Scheme: "postgres", Host: hostPort, Path: "/" + cfg.Database}
	if cfg.Password != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	} else {
		u.User = url.User(cfg.User)
	}
	q := u.Query()
	if cfg.SSLMode != "" {
		q.Set("sslmode", cfg.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// getDB returns the shared handle for cfg, opening (and pinging) a new
// one when the DSN changed.
func getDB(cfg utils.PostgresConfig) (*sql.DB, error) {
	dsn, err := postgresDSN(cfg)
	if err != nil {
		return nil, err
	}

	handle.Lock()
	defer handle.Unlock()

	if handle.db != nil && handle.dsn == dsn {
		return handle.db, nil
	}
	if handle.db != nil {
		_ = handle.db.Close()
		handle.db = nil
		handle.dsn = ""
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Small service, small pool.
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	handle.db = db
	handle.dsn = dsn
	return handle.db, nil
}

var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS bills (
		id TEXT PRIMARY KEY,
		reference_no TEXT NOT NULL,
		request_date TEXT NOT NULL DEFAULT '',
		vendor_name TEXT NOT NULL DEFAULT '',
		purpose TEXT NOT NULL DEFAULT '',
		payment_method TEXT NOT NULL DEFAULT '',
		priority TEXT NOT NULL DEFAULT 'standard',
		total_amount NUMERIC(14,2) NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'draft',
		requester_name TEXT NOT NULL DEFAULT '',
		bank_name TEXT NOT NULL DEFAULT '',
		account_holder TEXT NOT NULL DEFAULT '',
		account_number TEXT NOT NULL DEFAULT '',
		breakdowns JSONB NOT NULL DEFAULT '[]',
		reason_for_payment TEXT NOT NULL DEFAULT '',
		remarks TEXT NOT NULL DEFAULT '',
		attachments JSONB NOT NULL DEFAULT '[]',
		checked_by TEXT NOT NULL DEFAULT '',
		approved_by TEXT NOT NULL DEFAULT '',
		submitted_date TEXT NOT NULL DEFAULT '',
		approved_date TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_bills_status ON bills (status);`,
	`CREATE INDEX IF NOT EXISTS idx_bills_created_at ON bills (created_at);`,
	`CREATE TABLE IF NOT EXISTS vendors (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		address TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_vendors_name ON vendors (name);`,
	`CREATE TABLE IF NOT EXISTS tokens (
		token TEXT PRIMARY KEY,
		rate_limit INTEGER NOT NULL DEFAULT 60,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		comment TEXT
	);`,
	`CREATE INDEX IF NOT EXISTS idx_tokens_created_at ON tokens (created_at);`,
}

// EnsureSchema creates the bills, vendors and tokens tables if needed.
func EnsureSchema(cfg utils.PostgresConfig) error {
	db, err := getDB(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, ddl := range schemaDDL {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return err
		}
	}
	return nil
}
