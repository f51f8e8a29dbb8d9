package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tbraverman/leaselens/internal/core/domain"
)

// GroupRepository stores full lease group snapshots as JSONB. The engine
// owns the in-memory state; rows here only exist for restart rehydration
// and a few queryable preview columns.
type GroupRepository struct {
	db *sql.DB
}

func NewGroupRepository(db *sql.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082802)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS lease_groups (
	lease_id TEXT PRIMARY KEY,
	snapshot JSONB NOT NULL,
	tenant TEXT NOT NULL DEFAULT '',
	amendment_count INT NOT NULL DEFAULT 0,
	open_conflicts INT NOT NULL DEFAULT 0,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_lease_groups_updated_at ON lease_groups(updated_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *GroupRepository) SaveGroup(ctx context.Context, group *domain.LeaseGroup) error {
	snapshot, err := json.Marshal(group)
	if err != nil {
		return fmt.Errorf("marshal group snapshot: %w", err)
	}

	open := len(group.OpenConflicts())

	_, err = r.db.ExecContext(ctx, `
INSERT INTO lease_groups (lease_id, snapshot, tenant, amendment_count, open_conflicts, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (lease_id) DO UPDATE SET
	snapshot = EXCLUDED.snapshot,
	tenant = EXCLUDED.tenant,
	amendment_count = EXCLUDED.amendment_count,
	open_conflicts = EXCLUDED.open_conflicts,
	updated_at = EXCLUDED.updated_at
`, group.LeaseID, snapshot, group.Merged.Tenant.LegalName, len(group.Amendments), open, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert lease group: %w", err)
	}
	return nil
}

func (r *GroupRepository) LoadGroups(ctx context.Context) ([]domain.LeaseGroup, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT snapshot FROM lease_groups ORDER BY lease_id`)
	if err != nil {
		return nil, fmt.Errorf("query lease groups: %w", err)
	}
	defer rows.Close()

	var groups []domain.LeaseGroup
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan lease group: %w", err)
		}
		var group domain.LeaseGroup
		if err := json.Unmarshal(raw, &group); err != nil {
			return nil, fmt.Errorf("unmarshal lease group: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lease groups: %w", err)
	}
	return groups, nil
}
