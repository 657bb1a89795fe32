package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Schema creates the queue registry tables. Statements are idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS queues (
	id                      UUID PRIMARY KEY,
	tenant_id               UUID NOT NULL,
	service_type            VARCHAR(32) NOT NULL,
	name                    VARCHAR(255) NOT NULL,
	topic                   VARCHAR(255) NOT NULL,
	poll_interval           INTEGER NOT NULL,
	partitions              INTEGER NOT NULL,
	consumer_per_partition  BOOLEAN NOT NULL DEFAULT FALSE,
	pack_processing_timeout BIGINT NOT NULL,
	submit_strategy         JSONB NOT NULL,
	processing_strategy     JSONB NOT NULL,
	additional_info         JSONB,
	created_time            TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS queues_tenant_service_name_uq
	ON queues (tenant_id, service_type, name);

CREATE INDEX IF NOT EXISTS queues_tenant_service_idx
	ON queues (tenant_id, service_type, created_time);
`

// EnsureSchema applies Schema to db
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
