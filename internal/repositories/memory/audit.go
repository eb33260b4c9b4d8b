package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-bank-core/internal/models"
)

// AuditRepository is the in-memory audit log.
type AuditRepository struct {
	s *Store
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(s *Store) *AuditRepository {
	return &AuditRepository{s: s}
}

// Append records one entry.
func (r *AuditRepository) Append(ctx context.Context, e *models.AuditEntryDB) error {
	defer r.s.lock(ctx)()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = r.s.now()
	stored := *e
	stored.Details = e.Details.Clone()
	r.s.audit = append(r.s.audit, stored)
	return nil
}

// ListByResource returns the entries for one resource, oldest first.
func (r *AuditRepository) ListByResource(ctx context.Context, resource, resourceID string) ([]models.AuditEntryDB, error) {
	defer r.s.lock(ctx)()
	var out []models.AuditEntryDB
	for _, e := range r.s.audit {
		if e.Resource == resource && e.ResourceID == resourceID {
			out = append(out, e)
		}
	}
	return out, nil
}
