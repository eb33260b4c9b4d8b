package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-bank-core/internal/models"
)

// AuditRepository appends to the insert-only audit log.
type AuditRepository struct {
	db       *sqlx.DB
	txGetter TxGetter
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *sqlx.DB, txGetter TxGetter) *AuditRepository {
	return &AuditRepository{db: db, txGetter: txGetter}
}

// Append records one entry.
func (r *AuditRepository) Append(ctx context.Context, e *models.AuditEntryDB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	query := `
		INSERT INTO audit_log (id, actor, action, resource, resource_id, details)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	args := []any{e.ID, e.Actor, e.Action, e.Resource, e.ResourceID, e.Details}
	err := sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &e.CreatedAt, query, args...)
	logQuery(query, args, e.ID, err)
	return err
}

// ListByResource returns the entries for one resource, oldest first.
func (r *AuditRepository) ListByResource(ctx context.Context, resource, resourceID string) ([]models.AuditEntryDB, error) {
	query := `
		SELECT id, actor, action, resource, resource_id, details, created_at
		FROM audit_log
		WHERE resource = $1 AND resource_id = $2
		ORDER BY created_at, id
	`
	var out []models.AuditEntryDB
	err := sqlx.SelectContext(ctx, executor(ctx, r.db, r.txGetter), &out, query, resource, resourceID)
	logQuery(query, []any{resource, resourceID}, len(out), err)
	return out, err
}
