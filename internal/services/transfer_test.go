package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-bank-core/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func international(sender uuid.UUID, amount string) InitiateRequest {
	return InitiateRequest{
		SenderID: sender,
		Type:     models.TransferInternational,
		Amount:   dec(amount),
		Recipient: models.RecipientDetails{
			AccountNumber: "DE89370400440532013000",
			AccountName:   "Max Mustermann",
			BankName:      "Commerzbank",
			Country:       "DE",
			SwiftCode:     "COBADEFFXXX",
		},
		Description: "invoice 42",
	}
}

func TestTransferService_InternationalReservesAmount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.methods.Save(ctx, &models.PaymentMethodDB{
		TransferType: models.TransferInternational, FeeType: models.FeeFixed, FeeValue: dec("10"),
	}))
	sender := env.account(t, "2000.00", withCodes(t))

	tr, err := env.transfer.Initiate(ctx, international(sender.ID, "1000"))
	require.NoError(t, err)

	assert.Equal(t, models.TransferPending, tr.Status)
	assert.True(t, tr.RequiresImfCode)
	assert.True(t, tr.RequiresCotCode)
	assert.False(t, tr.CodesVerified)
	assert.True(t, tr.Fee.Equal(dec("10")))
	assert.True(t, tr.TotalAmount.Equal(dec("1010")))
	assert.Equal(t, models.StepIMF, tr.NextStep())
	assert.True(t, env.balance(t, sender.ID, models.BalanceCash).Equal(dec("1000")))

	txns := env.history(t, sender.ID)
	require.Len(t, txns, 1)
	assert.Equal(t, tr.Reference, txns[0].Reference)
	assert.Equal(t, models.TransactionPending, txns[0].Status)
	assert.True(t, txns[0].BalanceBefore.Equal(dec("2000")))
	assert.True(t, txns[0].BalanceAfter.Equal(dec("1000")))

	initiated := env.notifier.ofType(models.EventTransferInitiated)
	require.Len(t, initiated, 1)
	assert.Equal(t, "imf", initiated[0].Payload["next_step"])
}

func TestTransferService_InternalCompletesSynchronously(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sender := env.account(t, "300.00")
	recipient := env.account(t, "20.00")

	tr, err := env.transfer.Initiate(ctx, InitiateRequest{
		SenderID:  sender.ID,
		Type:      "Internal",
		Amount:    dec("120.50"),
		Recipient: models.RecipientDetails{AccountNumber: recipient.AccountNumber},
	})
	require.NoError(t, err)

	assert.Equal(t, models.TransferCompleted, tr.Status)
	require.NotNil(t, tr.RecipientID)
	assert.Equal(t, recipient.ID, *tr.RecipientID)
	assert.True(t, env.balance(t, sender.ID, models.BalanceCash).Equal(dec("179.50")))
	assert.True(t, env.balance(t, recipient.ID, models.BalanceCash).Equal(dec("140.50")))

	out := env.history(t, sender.ID)
	require.Len(t, out, 1)
	assert.Equal(t, models.TransactionTransferOut, out[0].Type)
	assert.Equal(t, models.TransactionCompleted, out[0].Status)
	assert.Equal(t, tr.Reference, out[0].Reference)

	in := env.history(t, recipient.ID)
	require.Len(t, in, 1)
	assert.Equal(t, models.TransactionTransferIn, in[0].Type)
	assert.Equal(t, tr.Reference, in[0].Metadata["transfer_reference"])

	assert.Len(t, env.notifier.ofType(models.EventBalanceCredited), 1)
	assert.Len(t, env.notifier.ofType(models.EventBalanceDebited), 1)
}

func TestTransferService_InternalRecipientErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sender := env.account(t, "300.00")

	_, err := env.transfer.Initiate(ctx, InitiateRequest{
		SenderID: sender.ID, Type: models.TransferInternal, Amount: dec("1"),
		Recipient: models.RecipientDetails{AccountNumber: "NOPE"},
	})
	assert.ErrorIs(t, err, models.ErrAccountNotFound)

	_, err = env.transfer.Initiate(ctx, InitiateRequest{
		SenderID: sender.ID, Type: models.TransferInternal, Amount: dec("1"),
		Recipient: models.RecipientDetails{AccountNumber: sender.AccountNumber},
	})
	assert.ErrorIs(t, err, models.ErrSameAccount)
	assert.True(t, env.balance(t, sender.ID, models.BalanceCash).Equal(dec("300")))
}

func TestTransferService_InitiateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sender := env.account(t, "300.00")

	_, err := env.transfer.Initiate(ctx, InitiateRequest{SenderID: sender.ID, Type: "wire", Amount: dec("1")})
	assert.ErrorIs(t, err, models.ErrInvalidTransferType)

	_, err = env.transfer.Initiate(ctx, international(sender.ID, "0"))
	assert.ErrorIs(t, err, models.ErrInvalidAmount)

	req := international(sender.ID, "10")
	req.Recipient.SwiftCode = ""
	_, err = env.transfer.Initiate(ctx, req)
	assert.ErrorIs(t, err, models.ErrInvalidRecipient)

	_, err = env.transfer.Initiate(ctx, InitiateRequest{SenderID: sender.ID, Type: models.TransferCrypto, Amount: dec("0.1")})
	assert.ErrorIs(t, err, models.ErrInvalidRecipient)
}

func TestTransferService_RejectedInitiationLeavesNoTrace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	poor := env.account(t, "10.00")
	dormant := env.account(t, "5000.00", withStatus(models.AccountDormant))

	_, err := env.transfer.Initiate(ctx, international(poor.ID, "10.01"))
	var insufficient *models.InsufficientFundsError
	require.ErrorAs(t, err, &insufficient)
	assert.True(t, insufficient.Available.Equal(dec("10")))

	_, err = env.transfer.Initiate(ctx, international(dormant.ID, "10"))
	assert.ErrorIs(t, err, models.ErrAccountNotEligible)
	assert.Contains(t, err.Error(), "dormant")

	for _, id := range []uuid.UUID{poor.ID, dormant.ID} {
		assert.Empty(t, env.history(t, id))
		list, err := env.transfer.ListBySender(ctx, id, 10, 0)
		require.NoError(t, err)
		assert.Empty(t, list)
	}
	assert.True(t, env.balance(t, poor.ID, models.BalanceCash).Equal(dec("10")))
}

func TestTransferService_DailyLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sender := env.account(t, "10000.00", withDailyLimit("1000"))

	_, err := env.transfer.Initiate(ctx, international(sender.ID, "600"))
	require.NoError(t, err)

	_, err = env.transfer.Initiate(ctx, international(sender.ID, "400.01"))
	var exceeded *models.LimitExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.True(t, exceeded.UsedToday.Equal(dec("600")))

	// crypto and internal transfers do not draw from the limit
	recipient := env.account(t, "0")
	_, err = env.transfer.Initiate(ctx, InitiateRequest{
		SenderID: sender.ID, Type: models.TransferInternal, Amount: dec("2000"),
		Recipient: models.RecipientDetails{AccountNumber: recipient.AccountNumber},
	})
	require.NoError(t, err)

	_, err = env.transfer.Initiate(ctx, international(sender.ID, "400"))
	require.NoError(t, err)

	// the allowance resets the next day
	env.advance(24 * time.Hour)
	_, err = env.transfer.Initiate(ctx, international(sender.ID, "1000"))
	assert.NoError(t, err)
}

func TestTransferService_DailyLimitConcurrent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sender := env.account(t, "10000.00", withDailyLimit("1000"))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = env.transfer.Initiate(ctx, international(sender.ID, "300"))
		}()
	}
	wg.Wait()

	list, err := env.transfer.ListBySender(ctx, sender.ID, 100, 0)
	require.NoError(t, err)
	assert.Len(t, list, 3)
	assert.True(t, env.balance(t, sender.ID, models.BalanceCash).Equal(dec("9100")))
}

func TestTransferService_FeeIsInformational(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.methods.Save(ctx, &models.PaymentMethodDB{
		TransferType: models.TransferLocal, FeeType: models.FeePercentage, FeeValue: dec("2.5"),
	}))
	sender := env.account(t, "1000.00")

	tr, err := env.transfer.Initiate(ctx, InitiateRequest{
		SenderID: sender.ID, Type: models.TransferLocal, Amount: dec("200"),
		Recipient: models.RecipientDetails{AccountNumber: "EXT-123", BankName: "Other Bank"},
	})
	require.NoError(t, err)

	assert.True(t, tr.Fee.Equal(dec("5")))
	assert.True(t, tr.TotalAmount.Equal(dec("205")))
	assert.True(t, env.balance(t, sender.ID, models.BalanceCash).Equal(dec("800")))
	assert.Nil(t, tr.RecipientID)
	assert.False(t, tr.RequiresImfCode)
	assert.False(t, tr.RequiresCotCode)
	assert.Equal(t, models.StepOTP, tr.NextStep())
}

func TestTransferService_CryptoUsesBitcoinBalance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sender := env.account(t, "50.00", withBitcoin("1.5"))

	tr, err := env.transfer.Initiate(ctx, InitiateRequest{
		SenderID: sender.ID, Type: models.TransferCrypto, Amount: dec("0.25"),
		Recipient: models.RecipientDetails{WalletAddress: "bc1qxy2kgdygjrsqtzq2n0yrf2493p83kkfjhx0wlh"},
	})
	require.NoError(t, err)

	assert.Equal(t, models.CurrencyBTC, tr.Currency)
	assert.False(t, tr.RequiresImfCode)
	assert.True(t, tr.RequiresCotCode)
	assert.True(t, env.balance(t, sender.ID, models.BalanceBitcoin).Equal(dec("1.25")))
	assert.True(t, env.balance(t, sender.ID, models.BalanceCash).Equal(dec("50")))
}

func TestTransferService_CompleteRequiresVerification(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sender := env.account(t, "2000.00", withCodes(t))

	tr, err := env.transfer.Initiate(ctx, international(sender.ID, "1000"))
	require.NoError(t, err)

	_, err = env.transfer.Complete(ctx, "admin", tr.ID)
	assert.ErrorIs(t, err, models.ErrTransferNotProcessing)

	_, err = env.verification.VerifyIMF(ctx, sender.ID, tr.ID, testIMF)
	require.NoError(t, err)
	_, err = env.transfer.Complete(ctx, "admin", tr.ID)
	assert.ErrorIs(t, err, models.ErrTransferNotProcessing)

	got, err := env.transfer.Get(ctx, sender.ID, tr.ID)
	require.NoError(t, err)
	assert.NotEqual(t, models.TransferCompleted, got.Status)
}

func TestTransferService_CompleteCreditsInternalRecipient(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sender := env.account(t, "500.00")
	recipient := env.account(t, "0")

	tr, err := env.transfer.Initiate(ctx, InitiateRequest{
		SenderID: sender.ID, Type: models.TransferLocal, Amount: dec("200"),
		Recipient: models.RecipientDetails{AccountNumber: recipient.AccountNumber},
	})
	require.NoError(t, err)
	require.NotNil(t, tr.RecipientID)
	assert.True(t, env.balance(t, recipient.ID, models.BalanceCash).IsZero())

	_, err = env.verification.RequestOTP(ctx, sender.ID, tr.ID)
	require.NoError(t, err)
	_, err = env.verification.VerifyOTP(ctx, sender.ID, tr.ID, env.nextOTP)
	require.NoError(t, err)

	done, err := env.transfer.Complete(ctx, "admin-7", tr.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransferCompleted, done.Status)
	assert.Equal(t, "admin-7", done.Metadata.Resolution.By)
	assert.True(t, env.balance(t, recipient.ID, models.BalanceCash).Equal(dec("200")))

	out, err := env.txns.GetByReference(ctx, tr.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionCompleted, out.Status)

	_, err = env.transfer.Complete(ctx, "admin-7", tr.ID)
	assert.ErrorIs(t, err, models.ErrTransferNotProcessing)
}

func TestTransferService_RejectReversesReservation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sender := env.account(t, "2000.00", withCodes(t))

	tr, err := env.transfer.Initiate(ctx, international(sender.ID, "1000"))
	require.NoError(t, err)

	rejected, err := env.transfer.Reject(ctx, "admin-1", tr.ID, "suspicious beneficiary")
	require.NoError(t, err)
	assert.Equal(t, models.TransferRejected, rejected.Status)
	require.NotNil(t, rejected.Metadata.Resolution)
	assert.Equal(t, "suspicious beneficiary", rejected.Metadata.Resolution.Reason)
	assert.True(t, env.balance(t, sender.ID, models.BalanceCash).Equal(dec("2000")))

	orig, err := env.txns.GetByReference(ctx, tr.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionFailed, orig.Status)

	rev, err := env.txns.GetByReference(ctx, rejected.Metadata.Resolution.ReversalReference)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionCredit, rev.Type)
	assert.Equal(t, tr.Reference, rev.Metadata["reversal_of"])
	assert.NoError(t, rev.CheckSnapshot())

	_, err = env.transfer.Reject(ctx, "admin-1", tr.ID, "again")
	assert.ErrorIs(t, err, models.ErrTransferNotPending)

	_, err = env.verification.VerifyIMF(ctx, sender.ID, tr.ID, testIMF)
	assert.ErrorIs(t, err, models.ErrTransferNotPending)

	entries, err := env.audit.ListByResource(ctx, models.ResourceTransfer, tr.ID.String())
	require.NoError(t, err)
	assert.Equal(t, models.AuditTransferReject, entries[0].Action)
}

func TestTransferService_ExpireOnlyPending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sender := env.account(t, "500.00")

	tr, err := env.transfer.Initiate(ctx, InitiateRequest{
		SenderID: sender.ID, Type: models.TransferLocal, Amount: dec("100"),
		Recipient: models.RecipientDetails{AccountNumber: "EXT-1"},
	})
	require.NoError(t, err)

	expired, err := env.transfer.Expire(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransferExpired, expired.Status)
	assert.Equal(t, models.ActorSystem, expired.Metadata.Resolution.By)
	assert.True(t, env.balance(t, sender.ID, models.BalanceCash).Equal(dec("500")))

	_, err = env.transfer.Expire(ctx, tr.ID)
	assert.ErrorIs(t, err, models.ErrTransferNotPending)
}

func TestTransferService_GetHidesOtherSenders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sender := env.account(t, "500.00")

	tr, err := env.transfer.Initiate(ctx, InitiateRequest{
		SenderID: sender.ID, Type: models.TransferLocal, Amount: dec("1"),
		Recipient: models.RecipientDetails{AccountNumber: "EXT-1"},
	})
	require.NoError(t, err)

	_, err = env.transfer.Get(ctx, uuid.New(), tr.ID)
	assert.ErrorIs(t, err, models.ErrTransferNotFound)
}
