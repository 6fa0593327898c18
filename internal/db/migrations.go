package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'requirement_status') THEN
			CREATE TYPE requirement_status AS ENUM (
				'pending_ae_estimate',
				'awaiting_client_decision',
				'client_good_to_go',
				'ae_call_requested',
				'pending_verification',
				'verified',
				'rejected'
			);
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'po_status') THEN
			CREATE TYPE po_status AS ENUM ('pending_verification', 'verified', 'rejected');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS requirements (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		type VARCHAR(16) NOT NULL,
		subtype VARCHAR(16),
		details JSONB NOT NULL DEFAULT '{}'::jsonb,
		status requirement_status NOT NULL DEFAULT 'pending_ae_estimate',
		owner_id UUID NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT chk_requirement_subtype CHECK (
			(type = 'software' AND subtype IS NOT NULL) OR
			(type <> 'software' AND subtype IS NULL)
		)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_requirements_owner_id ON requirements (owner_id);`,
	`CREATE INDEX IF NOT EXISTS idx_requirements_status ON requirements (status);`,
	`CREATE TABLE IF NOT EXISTS estimates (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		requirement_id UUID NOT NULL REFERENCES requirements(id) ON DELETE CASCADE,
		amount NUMERIC(18,2) NOT NULL CHECK (amount >= 0),
		currency VARCHAR(8) NOT NULL,
		breakdown JSONB NOT NULL DEFAULT '[]'::jsonb,
		notes TEXT NOT NULL DEFAULT '',
		created_by UUID NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_estimates_requirement_id ON estimates (requirement_id);`,
	`CREATE TABLE IF NOT EXISTS purchase_orders (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		requirement_id UUID NOT NULL REFERENCES requirements(id) ON DELETE CASCADE,
		po_number VARCHAR(64) NOT NULL,
		status po_status NOT NULL DEFAULT 'pending_verification',
		submitted_by UUID NOT NULL,
		reviewed_by UUID,
		decision_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_po_requirement_number ON purchase_orders (requirement_id, po_number);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_po_active_requirement ON purchase_orders (requirement_id);`,
	`CREATE INDEX IF NOT EXISTS idx_purchase_orders_status ON purchase_orders (status);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
