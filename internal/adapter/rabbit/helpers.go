package rabbit

import (
	"context"
	"time"

	"github.com/Temutjin2k/fleet-ledger/internal/domain/types"
)

// isRecoverableError returns true if the message must be requeued. Domain
// errors will fail the same way on redelivery.
func isRecoverableError(err error) bool {
	return !types.IsOneOf(err,
		types.ErrValidation,
		types.ErrNotFound,
		types.ErrInvalidState,
		types.ErrForbidden,
	)
}

func retry(ctx context.Context, n int, sleep time.Duration, fn func() error) error {
	var err error
	for i := range n {
		if err = fn(); err == nil {
			return nil
		}
		if i == n-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
	}
	return err
}
