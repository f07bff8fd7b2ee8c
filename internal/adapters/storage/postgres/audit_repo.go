package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"care-team-access/internal/domain/audit"
)

type AuditRepo struct {
	db *sql.DB
}

func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

var _ audit.Repository = (*AuditRepo)(nil)

// Append solo inserta. No existe UPDATE ni DELETE sobre audit_log.
func (r *AuditRepo) Append(ctx context.Context, e audit.Entry) error {
	var meta []byte
	if len(e.Metadata) > 0 {
		b, err := json.Marshal(e.Metadata)
		if err != nil {
			return err
		}
		meta = b
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_log (
			id, action, actor_user_id, target_type, target_id,
			metadata, occurred_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		e.ID,
		string(e.Action),
		e.ActorID,
		string(e.TargetType),
		e.TargetID,
		meta,
		e.OccurredAt,
	)
	return err
}

func (r *AuditRepo) ListRecent(ctx context.Context, limit int) ([]audit.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, action, actor_user_id, target_type, target_id, metadata, occurred_at
		FROM audit_log
		ORDER BY occurred_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]audit.Entry, 0, limit)
	for rows.Next() {
		var e audit.Entry
		var action, targetType string
		var meta []byte

		if err := rows.Scan(
			&e.ID,
			&action,
			&e.ActorID,
			&targetType,
			&e.TargetID,
			&meta,
			&e.OccurredAt,
		); err != nil {
			return nil, err
		}

		e.Action = audit.Action(action)
		e.TargetType = audit.TargetType(targetType)
		if len(meta) > 0 {
			m := map[string]string{}
			if err := json.Unmarshal(meta, &m); err == nil {
				e.Metadata = m
			}
		}

		out = append(out, e)
	}
	return out, rows.Err()
}
