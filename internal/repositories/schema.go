package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-bank-core/internal/logger"
)

// Schema creates every table the core owns. Statements are idempotent.
var Schema = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE TABLE IF NOT EXISTS accounts (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		account_number VARCHAR(34) NOT NULL UNIQUE,
		holder_name VARCHAR(255) NOT NULL DEFAULT '',
		currency CHAR(3) NOT NULL DEFAULT 'USD',
		cash_balance NUMERIC(20,2) NOT NULL DEFAULT 0 CHECK (cash_balance >= 0),
		bitcoin_balance NUMERIC(20,8) NOT NULL DEFAULT 0 CHECK (bitcoin_balance >= 0),
		status VARCHAR(16) NOT NULL DEFAULT 'active',
		daily_transfer_limit NUMERIC(20,2) NOT NULL DEFAULT 0,
		imf_code_hash VARCHAR(255),
		cot_code_hash VARCHAR(255),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		account_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		type VARCHAR(16) NOT NULL,
		amount NUMERIC(20,8) NOT NULL CHECK (amount > 0),
		balance_before NUMERIC(20,8) NOT NULL,
		balance_after NUMERIC(20,8) NOT NULL,
		currency VARCHAR(8) NOT NULL,
		status VARCHAR(16) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		reference VARCHAR(64) NOT NULL UNIQUE,
		metadata JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS transactions_account_created_idx ON transactions (account_id, created_at DESC);`,
	`CREATE TABLE IF NOT EXISTS transfers (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		sender_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		recipient_id UUID REFERENCES accounts(id) ON DELETE SET NULL,
		recipient_details JSONB NOT NULL DEFAULT '{}',
		type VARCHAR(16) NOT NULL,
		amount NUMERIC(20,8) NOT NULL CHECK (amount > 0),
		fee NUMERIC(20,8) NOT NULL DEFAULT 0,
		total_amount NUMERIC(20,8) NOT NULL,
		currency VARCHAR(8) NOT NULL,
		status VARCHAR(16) NOT NULL,
		reference VARCHAR(64) NOT NULL UNIQUE,
		requires_imf_code BOOLEAN NOT NULL DEFAULT FALSE,
		requires_cot_code BOOLEAN NOT NULL DEFAULT FALSE,
		codes_verified BOOLEAN NOT NULL DEFAULT FALSE,
		description TEXT NOT NULL DEFAULT '',
		metadata JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS transfers_status_created_idx ON transfers (status, created_at);`,
	`CREATE INDEX IF NOT EXISTS transfers_sender_created_idx ON transfers (sender_id, created_at DESC);`,
	`CREATE TABLE IF NOT EXISTS payment_methods (
		transfer_type VARCHAR(16) PRIMARY KEY,
		fee_type VARCHAR(16) NOT NULL CHECK (fee_type IN ('fixed', 'percentage')),
		fee_value NUMERIC(20,8) NOT NULL DEFAULT 0
	);`,
	`CREATE TABLE IF NOT EXISTS audit_log (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		actor VARCHAR(255) NOT NULL,
		action VARCHAR(64) NOT NULL,
		resource VARCHAR(32) NOT NULL,
		resource_id VARCHAR(64) NOT NULL,
		details JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE OR REPLACE RULE audit_log_no_update AS ON UPDATE TO audit_log DO INSTEAD NOTHING;`,
	`CREATE OR REPLACE RULE audit_log_no_delete AS ON DELETE TO audit_log DO INSTEAD NOTHING;`,
}

// Migrate applies Schema.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range Schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			logger.Log.Errorw("migration failed", "statement", stmt, "error", err)
			return fmt.Errorf("migrate: %w", err)
		}
	}
	logger.Log.Infow("schema migrated", "statements", len(Schema))
	return nil
}
