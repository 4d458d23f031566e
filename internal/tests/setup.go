package tests

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pressly/goose/v3"
)

// ResolveMigrationDir returns the first existing of:
//   - internal/db/migrations (CWD=module root)
//   - ../../internal/db/migrations (CWD=internal/tests, e.g. go test ./...)
//
// Returns empty string if neither exists.
func ResolveMigrationDir() string {
	for _, dir := range []string{"internal/db/migrations", "../../internal/db/migrations"} {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			abs, _ := filepath.Abs(dir)
			return abs
		}
	}
	return ""
}

// RunMigrations runs goose Up using the resolved migration directory.
func RunMigrations(db *sql.DB) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	dir := ResolveMigrationDir()
	if dir == "" {
		return fmt.Errorf("migrations directory not found; run tests from the module root")
	}
	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// TruncateCoreTables truncates all core tables for a clean test state.
func TruncateCoreTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, "TRUNCATE TABLE contact_submissions, scan_logs, qr_codes RESTART IDENTITY CASCADE")
	if err != nil {
		return fmt.Errorf("truncate core tables: %w", err)
	}
	return nil
}
