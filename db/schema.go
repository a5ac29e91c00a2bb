// ABOUTME: Database schema definitions
// ABOUTME: Handles SQLite table creation for users, validity rules and assets
package db

import (
	"database/sql"
)

// Calendar dates are TEXT (YYYY-MM-DD) rather than DATE so the driver does
// not turn them into timestamps. Asset references are not foreign keys: a
// dangling owner or rule is tolerated and skipped by the notification run.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	role TEXT NOT NULL CHECK(role IN ('Admin', 'SuperViewer', 'User')),
	org_unit TEXT NOT NULL DEFAULT '',
	sub_unit TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_users_role ON users(role);

CREATE TABLE IF NOT EXISTS validity_rules (
	id TEXT PRIMARY KEY,
	domain TEXT NOT NULL CHECK(domain IN ('QUALITY', 'SAFETY', 'LOGISTICS', 'LAB', 'DRIVING')),
	topic TEXT NOT NULL UNIQUE,
	validity_window_days INTEGER NOT NULL CHECK(validity_window_days >= 1),
	created_by TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS assets (
	id TEXT PRIMARY KEY,
	external_id TEXT NOT NULL UNIQUE,
	serial_number TEXT NOT NULL DEFAULT '',
	rule_id TEXT NOT NULL,
	owner_id TEXT NOT NULL,
	last_inspection_date TEXT NOT NULL,
	expiration_date TEXT NOT NULL,
	org_unit TEXT NOT NULL,
	sub_unit TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_assets_expiration ON assets(expiration_date);
CREATE INDEX IF NOT EXISTS idx_assets_scope ON assets(org_unit, sub_unit);
CREATE INDEX IF NOT EXISTS idx_assets_rule ON assets(rule_id);
CREATE INDEX IF NOT EXISTS idx_assets_owner ON assets(owner_id);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
