package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-bank-core/internal/models"
)

// TransactionRepository is the in-memory transaction log.
type TransactionRepository struct {
	s *Store
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(s *Store) *TransactionRepository {
	return &TransactionRepository{s: s}
}

// Create inserts t; a taken reference yields ErrDuplicateReference.
func (r *TransactionRepository) Create(ctx context.Context, t *models.TransactionDB) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.transactions[t.Reference]; ok {
		return models.ErrDuplicateReference
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	now := r.s.now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	stored := *t
	stored.Metadata = t.Metadata.Clone()
	r.s.transactions[t.Reference] = stored
	return nil
}

// ExistsByReference reports whether a transaction carries ref.
func (r *TransactionRepository) ExistsByReference(ctx context.Context, ref string) (bool, error) {
	defer r.s.lock(ctx)()
	_, ok := r.s.transactions[ref]
	return ok, nil
}

// GetByReference returns the transaction carrying ref.
func (r *TransactionRepository) GetByReference(ctx context.Context, ref string) (*models.TransactionDB, error) {
	defer r.s.lock(ctx)()
	t, ok := r.s.transactions[ref]
	if !ok {
		return nil, models.ErrTransactionNotFound
	}
	t.Metadata = t.Metadata.Clone()
	return &t, nil
}

// UpdateStatus moves the transaction carrying ref from one status to another.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, ref string, from, to models.TransactionStatus) error {
	defer r.s.lock(ctx)()
	t, ok := r.s.transactions[ref]
	if !ok || t.Status != from {
		return models.ErrTransactionNotFound
	}
	t.Status = to
	t.UpdatedAt = r.s.now()
	r.s.transactions[ref] = t
	return nil
}

// ListByAccount returns an account's transactions, newest first.
func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]models.TransactionDB, error) {
	defer r.s.lock(ctx)()
	var out []models.TransactionDB
	for _, t := range r.s.transactions {
		if t.AccountID == accountID {
			out = append(out, t)
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

// DeleteByAccount removes every transaction of an account.
func (r *TransactionRepository) DeleteByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	defer r.s.lock(ctx)()
	var n int64
	for ref, t := range r.s.transactions {
		if t.AccountID == accountID {
			delete(r.s.transactions, ref)
			n++
		}
	}
	return n, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
