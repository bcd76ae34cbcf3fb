package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storycanvas/internal/models"
)

func TestMemoryGuard_SecondAcquireFailsWhileInFlight(t *testing.T) {
	guard := NewMemoryGuard(0)
	ctx := context.Background()

	release, err := guard.Acquire(ctx, 1)
	require.NoError(t, err)

	_, err = guard.Acquire(ctx, 1)
	assert.ErrorIs(t, err, models.ErrGenerationInProgress)

	otherRelease, err := guard.Acquire(ctx, 2)
	require.NoError(t, err, "stories are guarded independently")
	otherRelease()

	release()
	release() // idempotent

	again, err := guard.Acquire(ctx, 1)
	require.NoError(t, err)
	again()
}

func TestMemoryGuard_Cooldown(t *testing.T) {
	guard := NewMemoryGuard(3 * time.Second)
	current := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	guard.now = func() time.Time { return current }
	ctx := context.Background()

	release, err := guard.Acquire(ctx, 1)
	require.NoError(t, err)
	release()

	current = current.Add(2 * time.Second)
	_, err = guard.Acquire(ctx, 1)
	assert.ErrorIs(t, err, models.ErrGenerationInProgress)

	current = current.Add(2 * time.Second)
	release, err = guard.Acquire(ctx, 1)
	require.NoError(t, err)
	release()
}

func TestMemoryGuard_ConcurrentAcquireHasOneWinner(t *testing.T) {
	guard := NewMemoryGuard(0)
	ctx := context.Background()

	var wins int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := guard.Acquire(ctx, 1); err == nil {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), wins)
}
