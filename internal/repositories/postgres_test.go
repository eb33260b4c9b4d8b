package repositories

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-bank-core/internal/logger"
	"github.com/sbilibin2017/gw-bank-core/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// --- Setup Postgres ---
func setupPostgres(t *testing.T) (*sqlx.DB, func()) {
	if testing.Short() {
		t.Skip("postgres container tests skipped in short mode")
	}
	logger.Initialize("debug")
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_PASSWORD": "secret", "POSTGRES_DB": "testdb", "POSTGRES_USER": "postgres"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://postgres:secret@%s:%s/testdb?sslmode=disable", host, port.Port())
	db, err := sqlx.Connect("pgx", dsn)
	require.NoError(t, err)

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	require.NoError(t, Migrate(ctx, db))

	return db, func() {
		db.Close()
		container.Terminate(ctx)
	}
}

// --- Helpers ---
func seedAccount(t *testing.T, db *sqlx.DB, cash, btc string, status models.AccountStatus) *models.AccountDB {
	a := &models.AccountDB{
		AccountNumber:      "ACC-" + uuid.NewString()[:8],
		HolderName:         "Test Holder",
		Currency:           "USD",
		CashBalance:        decimal.RequireFromString(cash),
		BitcoinBalance:     decimal.RequireFromString(btc),
		Status:             status,
		DailyTransferLimit: decimal.Zero,
	}
	require.NoError(t, NewAccountRepository(db, nil).Create(context.Background(), a))
	return a
}

func getCash(t *testing.T, db *sqlx.DB, id uuid.UUID) decimal.Decimal {
	var cash decimal.Decimal
	require.NoError(t, db.Get(&cash, `SELECT cash_balance FROM accounts WHERE id = $1`, id))
	return cash
}

func TestPostgres_DebitAndCredit(t *testing.T) {
	db, cleanup := setupPostgres(t)
	defer cleanup()
	ctx := context.Background()

	acc := seedAccount(t, db, "2000.00", "0.5", models.AccountActive)
	repo := NewAccountRepository(db, nil)

	change, err := repo.Debit(ctx, acc.ID, models.BalanceCash, decimal.NewFromInt(1000))
	require.NoError(t, err)
	assert.Equal(t, "2000", change.Before.String())
	assert.Equal(t, "1000", change.After.String())

	change, err = repo.Credit(ctx, acc.ID, models.BalanceBitcoin, decimal.RequireFromString("0.00000001"))
	require.NoError(t, err)
	assert.Equal(t, "0.5", change.Before.String())
	assert.Equal(t, "0.50000001", change.After.String())

	_, err = repo.Debit(ctx, acc.ID, models.BalanceCash, decimal.NewFromInt(1001))
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)
	assert.Equal(t, "1000", getCash(t, db, acc.ID).String())
}

func TestPostgres_DebitIneligibleCreditAllowed(t *testing.T) {
	db, cleanup := setupPostgres(t)
	defer cleanup()
	ctx := context.Background()

	acc := seedAccount(t, db, "5000.00", "0", models.AccountDormant)
	repo := NewAccountRepository(db, nil)

	_, err := repo.Debit(ctx, acc.ID, models.BalanceCash, decimal.NewFromInt(10))
	var notEligible *models.AccountNotEligibleError
	require.ErrorAs(t, err, &notEligible)
	assert.Equal(t, models.AccountDormant, notEligible.Status)

	_, err = repo.Credit(ctx, acc.ID, models.BalanceCash, decimal.NewFromInt(10))
	assert.NoError(t, err)
	assert.Equal(t, "5010", getCash(t, db, acc.ID).String())
}

func TestPostgres_ConcurrentDebitsNeverOverdraw(t *testing.T) {
	db, cleanup := setupPostgres(t)
	defer cleanup()
	ctx := context.Background()

	acc := seedAccount(t, db, "100.00", "0", models.AccountActive)
	repo := NewAccountRepository(db, nil)

	const workers = 50
	var ok atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			if _, err := repo.Debit(ctx, acc.ID, models.BalanceCash, decimal.NewFromInt(7)); err == nil {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(14), ok.Load())
	assert.Equal(t, "2", getCash(t, db, acc.ID).String())
}

func TestPostgres_TransactionDuplicateReference(t *testing.T) {
	db, cleanup := setupPostgres(t)
	defer cleanup()
	ctx := context.Background()

	acc := seedAccount(t, db, "100.00", "0", models.AccountActive)
	repo := NewTransactionRepository(db, TxFromContext)
	tr := NewTransactor(db)

	txn := func() *models.TransactionDB {
		return &models.TransactionDB{
			AccountID:     acc.ID,
			Type:          models.TransactionDeposit,
			Amount:        decimal.NewFromInt(10),
			BalanceBefore: decimal.NewFromInt(100),
			BalanceAfter:  decimal.NewFromInt(110),
			Currency:      "USD",
			Status:        models.TransactionCompleted,
			Reference:     "TXN-20250101-ABCDEFGHJK",
			Metadata:      models.Metadata{"source": "test"},
		}
	}

	require.NoError(t, repo.Create(ctx, txn()))

	err := tr.WithinTx(ctx, func(ctx context.Context) error {
		err := repo.Create(ctx, txn())
		assert.ErrorIs(t, err, models.ErrDuplicateReference)

		// the transaction is still usable after the conflict
		exists, err := repo.ExistsByReference(ctx, "TXN-20250101-ABCDEFGHJK")
		assert.NoError(t, err)
		assert.True(t, exists)
		return nil
	})
	require.NoError(t, err)

	got, err := repo.GetByReference(ctx, "TXN-20250101-ABCDEFGHJK")
	require.NoError(t, err)
	assert.Equal(t, "test", got.Metadata["source"])
	assert.NoError(t, got.CheckSnapshot())

	require.NoError(t, repo.UpdateStatus(ctx, got.Reference, models.TransactionCompleted, models.TransactionFailed))
	assert.ErrorIs(t, repo.UpdateStatus(ctx, got.Reference, models.TransactionCompleted, models.TransactionFailed), models.ErrTransactionNotFound)

	n, err := repo.DeleteByAccount(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestPostgres_TransferLifecycle(t *testing.T) {
	db, cleanup := setupPostgres(t)
	defer cleanup()
	ctx := context.Background()

	acc := seedAccount(t, db, "5000.00", "0", models.AccountActive)
	repo := NewTransferRepository(db, nil)

	tr := &models.TransferDB{
		SenderID:         acc.ID,
		RecipientDetails: models.RecipientDetails{AccountNumber: "DE001", SwiftCode: "DEUTDEFF", Country: "DE"},
		Type:             models.TransferInternational,
		Amount:           decimal.NewFromInt(1000),
		Fee:              decimal.NewFromInt(25),
		TotalAmount:      decimal.NewFromInt(1025),
		Currency:         "USD",
		Status:           models.TransferPending,
		Reference:        "TRF-20250101-ABCDEFGHJK",
		RequiresImfCode:  true,
		RequiresCotCode:  true,
		Metadata:         models.TransferMetadata{Verification: models.NewVerification()},
	}
	require.NoError(t, repo.Create(ctx, tr))
	assert.ErrorIs(t, repo.Create(ctx, &models.TransferDB{
		SenderID: acc.ID, Type: models.TransferLocal, Amount: decimal.NewFromInt(1), TotalAmount: decimal.NewFromInt(1),
		Currency: "USD", Status: models.TransferPending, Reference: tr.Reference,
	}), models.ErrDuplicateReference)

	got, err := repo.GetByID(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StagePending, got.Metadata.Verification.Stage)
	assert.Equal(t, "DEUTDEFF", got.RecipientDetails.SwiftCode)

	got.Pass(models.StepIMF, time.Now())
	require.NoError(t, repo.Update(ctx, got))

	got, err = repo.GetByID(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StageImfDone, got.Metadata.Verification.Stage)
	assert.NotNil(t, got.Metadata.Verification.ImfVerifiedAt)

	total, err := repo.SumOutgoingSince(ctx, acc.ID, models.LimitedTransferTypes, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "1000", total.String())

	ids, err := repo.ListStale(ctx, models.TransferPending, time.Now().Add(time.Minute), 10)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{tr.ID}, ids)

	open, err := repo.ListOpenBySender(ctx, acc.ID)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, tr.Reference, open[0].Reference)

	got.Status = models.TransferExpired
	require.NoError(t, repo.Update(ctx, got))

	open, err = repo.ListOpenBySender(ctx, acc.ID)
	require.NoError(t, err)
	assert.Empty(t, open)
	total, err = repo.SumOutgoingSince(ctx, acc.ID, models.LimitedTransferTypes, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.True(t, total.IsZero())

	list, err := repo.ListBySender(ctx, acc.ID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, models.ErrTransferNotFound)
}

func TestPostgres_ClearAndAudit(t *testing.T) {
	db, cleanup := setupPostgres(t)
	defer cleanup()
	ctx := context.Background()

	acc := seedAccount(t, db, "123.45", "0.25", models.AccountActive)
	cash, btc, err := NewAccountRepository(db, nil).Clear(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "123.45", cash.String())
	assert.Equal(t, "0.25", btc.String())
	assert.True(t, getCash(t, db, acc.ID).IsZero())

	audit := NewAuditRepository(db, nil)
	entry := &models.AuditEntryDB{
		Actor:      "admin-1",
		Action:     models.AuditAdminClear,
		Resource:   models.ResourceAccount,
		ResourceID: acc.ID.String(),
		Details:    models.Metadata{"cash_cleared": cash.String()},
	}
	require.NoError(t, audit.Append(ctx, entry))

	// the log is insert-only
	_, err = db.Exec(`DELETE FROM audit_log`)
	require.NoError(t, err)

	entries, err := audit.ListByResource(ctx, models.ResourceAccount, acc.ID.String())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "123.45", entries[0].Details["cash_cleared"])
}

func TestPostgres_PaymentMethods(t *testing.T) {
	db, cleanup := setupPostgres(t)
	defer cleanup()
	ctx := context.Background()

	repo := NewPaymentMethodRepository(db)
	pm, err := repo.GetByTransferType(ctx, models.TransferCrypto)
	require.NoError(t, err)
	assert.Nil(t, pm)

	require.NoError(t, repo.Save(ctx, &models.PaymentMethodDB{
		TransferType: models.TransferLocal, FeeType: models.FeePercentage, FeeValue: decimal.RequireFromString("1.5"),
	}))
	pm, err = repo.GetByTransferType(ctx, models.TransferLocal)
	require.NoError(t, err)
	require.NotNil(t, pm)
	assert.Equal(t, models.FeePercentage, pm.FeeType)
	assert.Equal(t, "1.5", pm.FeeValue.String())
}
