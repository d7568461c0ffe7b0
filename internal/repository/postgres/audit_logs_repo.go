package postgres

import (
	"context"

	"github.com/baharkarakas/payments-core/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type auditLogsRepo struct{ pool *pgxpool.Pool }

func (r *auditLogsRepo) Create(ctx context.Context, l models.AuditLog) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.Details == nil {
		l.Details = map[string]any{}
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_logs(id, entity_type, entity_id, action, actor, details, created_at)
		 VALUES($1,$2,$3,$4,$5,$6,$7)`,
		l.ID, l.EntityType, l.EntityID, l.Action, l.Actor, l.Details, l.CreatedAt)
	return err
}

func (r *auditLogsRepo) ListByEntity(ctx context.Context, entityID string) ([]models.AuditLog, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, entity_type, entity_id, action, actor, details, created_at
		   FROM audit_logs
		  WHERE entity_id=$1
		  ORDER BY created_at`,
		entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AuditLog
	for rows.Next() {
		var l models.AuditLog
		if err := rows.Scan(&l.ID, &l.EntityType, &l.EntityID, &l.Action, &l.Actor, &l.Details, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
