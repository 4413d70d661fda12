package rabbit

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Temutjin2k/fleet-ledger/internal/domain/types"
	"github.com/stretchr/testify/assert"
)

func TestIsRecoverableError(t *testing.T) {
	assert.True(t, isRecoverableError(errors.New("connection reset")))
	assert.False(t, isRecoverableError(types.ErrRideNotFound))
	assert.False(t, isRecoverableError(fmt.Errorf("wrapped: %w", types.ErrRideClosed)))
	assert.False(t, isRecoverableError(types.NewValidationError(map[string]string{"latitude": "bad"})))
}

func TestRetry(t *testing.T) {
	calls := 0
	err := retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 2 {
			return errors.New("flaky")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)

	calls = 0
	boom := errors.New("boom")
	err = retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = retry(ctx, 3, time.Hour, func() error { return boom })
	assert.ErrorIs(t, err, context.Canceled)
}
