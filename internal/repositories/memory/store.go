// Package memory holds in-process implementations of the repositories. A
// Store serialises transactions behind one mutex and restores a snapshot
// when a transaction fails, so it honours the same atomicity contract as
// the Postgres repositories.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-bank-core/internal/models"
)

type txMarker struct{}

// Store is the shared state behind the memory repositories.
type Store struct {
	mu sync.Mutex

	accounts       map[uuid.UUID]models.AccountDB
	transactions   map[string]models.TransactionDB // by reference
	transfers      map[uuid.UUID]models.TransferDB
	audit          []models.AuditEntryDB
	paymentMethods map[models.TransferType]models.PaymentMethodDB

	now func() time.Time
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		accounts:       make(map[uuid.UUID]models.AccountDB),
		transactions:   make(map[string]models.TransactionDB),
		transfers:      make(map[uuid.UUID]models.TransferDB),
		paymentMethods: make(map[models.TransferType]models.PaymentMethodDB),
		now:            time.Now,
	}
}

type snapshot struct {
	accounts       map[uuid.UUID]models.AccountDB
	transactions   map[string]models.TransactionDB
	transfers      map[uuid.UUID]models.TransferDB
	audit          []models.AuditEntryDB
	paymentMethods map[models.TransferType]models.PaymentMethodDB
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		accounts:       make(map[uuid.UUID]models.AccountDB, len(s.accounts)),
		transactions:   make(map[string]models.TransactionDB, len(s.transactions)),
		transfers:      make(map[uuid.UUID]models.TransferDB, len(s.transfers)),
		audit:          append([]models.AuditEntryDB(nil), s.audit...),
		paymentMethods: make(map[models.TransferType]models.PaymentMethodDB, len(s.paymentMethods)),
	}
	for k, v := range s.accounts {
		snap.accounts[k] = v
	}
	for k, v := range s.transactions {
		snap.transactions[k] = v
	}
	for k, v := range s.transfers {
		snap.transfers[k] = cloneTransfer(v)
	}
	for k, v := range s.paymentMethods {
		snap.paymentMethods[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.accounts = snap.accounts
	s.transactions = snap.transactions
	s.transfers = snap.transfers
	s.audit = snap.audit
	s.paymentMethods = snap.paymentMethods
}

// WithinTx runs fn with exclusive access to the store. Changes made by fn
// are discarded when it returns an error or panics.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	defer func() {
		if rec := recover(); rec != nil {
			s.restore(snap)
			panic(rec)
		}
	}()

	if err := fn(context.WithValue(ctx, txMarker{}, s)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txMarker{}).(*Store)
	return ok
}

// lock acquires the store unless ctx already runs inside WithinTx. The
// returned func releases it.
func (s *Store) lock(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// SetClock replaces the time source used for created_at stamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func cloneTransfer(t models.TransferDB) models.TransferDB {
	v := t.Metadata.Verification
	if v.OTP != nil {
		otp := *v.OTP
		v.OTP = &otp
	}
	t.Metadata.Verification = v
	if t.Metadata.Resolution != nil {
		res := *t.Metadata.Resolution
		t.Metadata.Resolution = &res
	}
	if t.Metadata.Extra != nil {
		t.Metadata.Extra = t.Metadata.Extra.Clone()
	}
	if t.RecipientID != nil {
		id := *t.RecipientID
		t.RecipientID = &id
	}
	return t
}
