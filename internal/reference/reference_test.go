package reference

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/sbilibin2017/gw-bank-core/internal/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var refPattern = regexp.MustCompile(`^TXN-\d{8}-[A-HJ-NP-Z2-9]{10}$`)

var noRetry = resilience.Config{MaxRetries: 0, InitialBackoff: time.Millisecond}

func TestGenerate_Format(t *testing.T) {
	ref := Generate("txn")
	assert.Regexp(t, refPattern, ref)
}

func TestGenerate_Distinct(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		ref := Generate(PrefixTransfer)
		_, dup := seen[ref]
		require.False(t, dup, "duplicate reference %s", ref)
		seen[ref] = struct{}{}
	}
}

func TestUnique_RegeneratesOnCollision(t *testing.T) {
	calls := 0
	exists := func(ctx context.Context, ref string) (bool, error) {
		calls++
		return calls < 3, nil
	}

	ref, err := Unique(context.Background(), PrefixTransaction, exists, noRetry, 5)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Regexp(t, refPattern, ref)
}

func TestUnique_Exhausted(t *testing.T) {
	exists := func(ctx context.Context, ref string) (bool, error) { return true, nil }

	_, err := Unique(context.Background(), PrefixTransaction, exists, noRetry, 2)
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestUnique_RetriesTransientErrors(t *testing.T) {
	calls := 0
	exists := func(ctx context.Context, ref string) (bool, error) {
		calls++
		if calls == 1 {
			return false, errors.New("connection reset")
		}
		return false, nil
	}

	cfg := resilience.Config{MaxRetries: 2, InitialBackoff: time.Millisecond}
	_, err := Unique(context.Background(), PrefixTransaction, exists, cfg, 1)
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestUnique_StorageDown(t *testing.T) {
	down := errors.New("connection refused")
	exists := func(ctx context.Context, ref string) (bool, error) { return false, down }

	_, err := Unique(context.Background(), PrefixTransaction, exists, noRetry, 3)
	assert.ErrorIs(t, err, down)
}

func TestUnique_SingleCheckInsideTransaction(t *testing.T) {
	aborted := errors.New("current transaction is aborted")
	calls := 0
	exists := func(ctx context.Context, ref string) (bool, error) {
		calls++
		return false, aborted
	}

	cfg := resilience.Config{MaxRetries: 3, InitialBackoff: time.Millisecond}
	_, err := Unique(resilience.WithoutRetry(context.Background()), PrefixTransfer, exists, cfg, 5)
	assert.ErrorIs(t, err, aborted)
	assert.Equal(t, 1, calls)
}
