package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-bank-core/internal/facades"
	"github.com/sbilibin2017/gw-bank-core/internal/metrics"
	"github.com/sbilibin2017/gw-bank-core/internal/models"
	"github.com/sbilibin2017/gw-bank-core/internal/repositories/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testIMF = "IMF-4821"
	testCOT = "COT-9034"
)

// recordingNotifier keeps every published event.
type recordingNotifier struct {
	mu     sync.Mutex
	events []models.Event
}

func (n *recordingNotifier) Publish(_ context.Context, e models.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *recordingNotifier) ofType(t models.EventType) []models.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []models.Event
	for _, e := range n.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type testEnv struct {
	store     *memory.Store
	accounts  *memory.AccountRepository
	txns      *memory.TransactionRepository
	transfers *memory.TransferRepository
	audit     *memory.AuditRepository
	methods   *memory.PaymentMethodRepository
	attempts  *memory.AttemptRepository
	notifier  *recordingNotifier
	metrics   *metrics.Metrics

	ledger       *LedgerService
	recorder     *RecorderService
	transfer     *TransferService
	verification *VerificationService
	admin        *AdminService

	now     time.Time
	nextOTP string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	env := &testEnv{
		store:     store,
		accounts:  memory.NewAccountRepository(store),
		txns:      memory.NewTransactionRepository(store),
		transfers: memory.NewTransferRepository(store),
		audit:     memory.NewAuditRepository(store),
		methods:   memory.NewPaymentMethodRepository(store),
		attempts:  memory.NewAttemptRepository(15 * time.Minute),
		notifier:  &recordingNotifier{},
		metrics:   metrics.New(),
		now:       time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC),
		nextOTP:   "123456",
	}
	clock := func() time.Time { return env.now }
	store.SetClock(clock)

	env.ledger = NewLedgerService(env.accounts, env.metrics)
	env.recorder = NewRecorderService(env.txns)
	env.transfer = NewTransferService(store, env.accounts, env.transfers, env.txns,
		facades.NewFeePolicy(env.methods), env.audit, env.notifier, env.metrics,
		TransferConfig{Now: clock})
	env.verification = NewVerificationService(store, env.accounts, env.transfers, env.attempts,
		env.audit, env.notifier, env.metrics, VerificationConfig{
			OTPTTL:       10 * time.Minute,
			MaxAttempts:  5,
			BcryptCost:   bcrypt.MinCost,
			Now:          clock,
			OTPGenerator: func() (string, error) { return env.nextOTP, nil },
		})
	env.admin = NewAdminService(store, env.accounts, env.transfers, env.txns, env.audit, env.notifier, env.metrics)
	return env
}

func (e *testEnv) advance(d time.Duration) { e.now = e.now.Add(d) }

type accountOpt func(*models.AccountDB)

func withStatus(s models.AccountStatus) accountOpt {
	return func(a *models.AccountDB) { a.Status = s }
}

func withBitcoin(v string) accountOpt {
	return func(a *models.AccountDB) { a.BitcoinBalance = decimal.RequireFromString(v) }
}

func withDailyLimit(v string) accountOpt {
	return func(a *models.AccountDB) { a.DailyTransferLimit = decimal.RequireFromString(v) }
}

func withCodes(t *testing.T) accountOpt {
	return func(a *models.AccountDB) {
		imf, err := bcrypt.GenerateFromPassword([]byte(testIMF), bcrypt.MinCost)
		require.NoError(t, err)
		cot, err := bcrypt.GenerateFromPassword([]byte(testCOT), bcrypt.MinCost)
		require.NoError(t, err)
		imfHash, cotHash := string(imf), string(cot)
		a.ImfCodeHash, a.CotCodeHash = &imfHash, &cotHash
	}
}

func (e *testEnv) account(t *testing.T, cash string, opts ...accountOpt) *models.AccountDB {
	t.Helper()
	a := &models.AccountDB{
		AccountNumber: "ACC-" + uuid.NewString()[:8],
		HolderName:    "Test Holder",
		Currency:      "USD",
		CashBalance:   decimal.RequireFromString(cash),
		Status:        models.AccountActive,
	}
	for _, opt := range opts {
		opt(a)
	}
	require.NoError(t, e.accounts.Create(context.Background(), a))
	return a
}

func (e *testEnv) balance(t *testing.T, id uuid.UUID, kind models.BalanceKind) decimal.Decimal {
	t.Helper()
	a, err := e.accounts.GetByID(context.Background(), id)
	require.NoError(t, err)
	return a.Balance(kind)
}

func (e *testEnv) history(t *testing.T, id uuid.UUID) []models.TransactionDB {
	t.Helper()
	txns, err := e.txns.ListByAccount(context.Background(), id, 0, 0)
	require.NoError(t, err)
	return txns
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
