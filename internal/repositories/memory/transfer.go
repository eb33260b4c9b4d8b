package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-bank-core/internal/models"
	"github.com/shopspring/decimal"
)

// TransferRepository is the in-memory transfer store.
type TransferRepository struct {
	s *Store
}

// NewTransferRepository creates a new TransferRepository.
func NewTransferRepository(s *Store) *TransferRepository {
	return &TransferRepository{s: s}
}

// Create inserts t; a taken reference yields ErrDuplicateReference.
func (r *TransferRepository) Create(ctx context.Context, t *models.TransferDB) error {
	defer r.s.lock(ctx)()
	for _, existing := range r.s.transfers {
		if existing.Reference == t.Reference {
			return models.ErrDuplicateReference
		}
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	now := r.s.now()
	t.CreatedAt, t.UpdatedAt = now, now
	r.s.transfers[t.ID] = cloneTransfer(*t)
	return nil
}

// GetByID returns a copy of the transfer.
func (r *TransferRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.TransferDB, error) {
	defer r.s.lock(ctx)()
	t, ok := r.s.transfers[id]
	if !ok {
		return nil, models.ErrTransferNotFound
	}
	t = cloneTransfer(t)
	return &t, nil
}

// GetByIDForUpdate behaves like GetByID.
func (r *TransferRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.TransferDB, error) {
	return r.GetByID(ctx, id)
}

// ExistsByReference reports whether a transfer carries ref.
func (r *TransferRepository) ExistsByReference(ctx context.Context, ref string) (bool, error) {
	defer r.s.lock(ctx)()
	for _, t := range r.s.transfers {
		if t.Reference == ref {
			return true, nil
		}
	}
	return false, nil
}

// Update writes the mutable part of a transfer.
func (r *TransferRepository) Update(ctx context.Context, t *models.TransferDB) error {
	defer r.s.lock(ctx)()
	stored, ok := r.s.transfers[t.ID]
	if !ok {
		return models.ErrTransferNotFound
	}
	next := cloneTransfer(*t)
	stored.Status = next.Status
	stored.RecipientID = next.RecipientID
	stored.CodesVerified = next.CodesVerified
	stored.Metadata = next.Metadata
	stored.UpdatedAt = r.s.now()
	t.UpdatedAt = stored.UpdatedAt
	r.s.transfers[t.ID] = stored
	return nil
}

// ListBySender returns a sender's transfers, newest first.
func (r *TransferRepository) ListBySender(ctx context.Context, senderID uuid.UUID, limit, offset int) ([]models.TransferDB, error) {
	defer r.s.lock(ctx)()
	var out []models.TransferDB
	for _, t := range r.s.transfers {
		if t.SenderID == senderID {
			out = append(out, cloneTransfer(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Reference < out[j].Reference
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, limit, offset), nil
}

// ListOpenBySender returns a sender's PENDING and PROCESSING transfers, oldest first.
func (r *TransferRepository) ListOpenBySender(ctx context.Context, senderID uuid.UUID) ([]models.TransferDB, error) {
	defer r.s.lock(ctx)()
	var out []models.TransferDB
	for _, t := range r.s.transfers {
		if t.SenderID == senderID && (t.Status == models.TransferPending || t.Status == models.TransferProcessing) {
			out = append(out, cloneTransfer(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ListStale returns ids of transfers in status created before cutoff, oldest first.
func (r *TransferRepository) ListStale(ctx context.Context, status models.TransferStatus, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	defer r.s.lock(ctx)()
	var stale []models.TransferDB
	for _, t := range r.s.transfers {
		if t.Status == status && t.CreatedAt.Before(cutoff) {
			stale = append(stale, t)
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i].CreatedAt.Before(stale[j].CreatedAt) })
	stale = page(stale, limit, 0)

	ids := make([]uuid.UUID, 0, len(stale))
	for _, t := range stale {
		ids = append(ids, t.ID)
	}
	return ids, nil
}

// SumOutgoingSince totals a sender's transfers of the given types since a point in time.
func (r *TransferRepository) SumOutgoingSince(ctx context.Context, senderID uuid.UUID, types []models.TransferType, since time.Time) (decimal.Decimal, error) {
	defer r.s.lock(ctx)()
	total := decimal.Zero
	for _, t := range r.s.transfers {
		if t.SenderID != senderID || t.CreatedAt.Before(since) || !containsType(types, t.Type) {
			continue
		}
		switch t.Status {
		case models.TransferFailed, models.TransferRejected, models.TransferExpired:
			continue
		}
		total = total.Add(t.Amount)
	}
	return total, nil
}

func containsType(types []models.TransferType, t models.TransferType) bool {
	for _, tt := range types {
		if tt == t {
			return true
		}
	}
	return false
}
