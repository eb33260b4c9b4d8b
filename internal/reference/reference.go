// Package reference generates human-readable, collision-checked identifiers
// for transactions and transfers.
package reference

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/sbilibin2017/gw-bank-core/internal/logger"
	"github.com/sbilibin2017/gw-bank-core/internal/resilience"
)

// Reference prefixes
const (
	PrefixTransaction = "TXN"
	PrefixTransfer    = "TRF"
	PrefixReversal    = "REV"
	PrefixAdmin       = "ADM"
)

// alphabet has no 0/O and 1/I so references survive being read aloud.
const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const randomLen = 10

// DefaultMaxAttempts bounds the regenerate-and-check loop.
const DefaultMaxAttempts = 5

// ErrExhausted is returned when no unused reference was found.
var ErrExhausted = errors.New("could not generate an unused reference")

// ExistsFunc reports whether a reference is already taken.
type ExistsFunc func(ctx context.Context, ref string) (bool, error)

// Generate returns PREFIX-YYYYMMDD-XXXXXXXXXX. Uniqueness is not guaranteed;
// see Unique.
func Generate(prefix string) string {
	var sb strings.Builder
	sb.Grow(len(prefix) + 10 + randomLen)
	sb.WriteString(strings.ToUpper(prefix))
	sb.WriteByte('-')
	sb.WriteString(time.Now().UTC().Format("20060102"))
	sb.WriteByte('-')

	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < randomLen; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand does not fail on supported platforms
			panic(fmt.Sprintf("reference: crypto/rand failed: %v", err))
		}
		sb.WriteByte(alphabet[n.Int64()])
	}
	return sb.String()
}

// Unique generates references until exists reports one unused. The check is
// a best-effort pre-check; the storage unique constraint stays the final
// authority. Transient errors from exists are retried with backoff unless
// ctx is marked with resilience.WithoutRetry.
func Unique(ctx context.Context, prefix string, exists ExistsFunc, retry resilience.Config, maxAttempts int) (string, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		ref := Generate(prefix)

		var taken bool
		err := resilience.RetryWithBackoff(ctx, retry, func() error {
			var err error
			taken, err = exists(ctx, ref)
			return err
		})
		if err != nil {
			return "", fmt.Errorf("check reference %s: %w", ref, err)
		}
		if !taken {
			return ref, nil
		}
		logger.Log.Warnw("reference collision, regenerating", "reference", ref, "attempt", attempt+1)
	}
	return "", ErrExhausted
}
