package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storycanvas/internal/models"
)

// GenerationGuard allows at most one generation in flight per story.
type GenerationGuard interface {
	// Acquire marks the story as generating. It fails with
	// models.ErrGenerationInProgress while another generation holds the story
	// or its cooldown has not elapsed. release is safe to call more than once.
	Acquire(ctx context.Context, storyID int64) (release func(), err error)
}

// ---------------------------------------------------------------------------
// In-memory guard
// ---------------------------------------------------------------------------

type guardSlot struct {
	inFlight bool
	until    time.Time
}

// MemoryGuard keeps the generating state in process memory.
type MemoryGuard struct {
	mu       sync.Mutex
	slots    map[int64]*guardSlot
	cooldown time.Duration
	now      func() time.Time
}

// NewMemoryGuard creates a guard. cooldown keeps a story locked after its
// generation has finished.
func NewMemoryGuard(cooldown time.Duration) *MemoryGuard {
	return &MemoryGuard{
		slots:    make(map[int64]*guardSlot),
		cooldown: cooldown,
		now:      time.Now,
	}
}

func (g *MemoryGuard) Acquire(_ context.Context, storyID int64) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	slot, ok := g.slots[storyID]
	if ok && (slot.inFlight || g.now().Before(slot.until)) {
		return nil, models.ErrGenerationInProgress
	}
	if !ok {
		slot = &guardSlot{}
		g.slots[storyID] = slot
	}
	slot.inFlight = true

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			defer g.mu.Unlock()
			if g.cooldown <= 0 {
				delete(g.slots, storyID)
				return
			}
			slot.inFlight = false
			slot.until = g.now().Add(g.cooldown)
		})
	}, nil
}

// ---------------------------------------------------------------------------
// Redis guard
// ---------------------------------------------------------------------------

const guardKeyPrefix = "storycanvas:generating:"

// releaseScript deletes the lock, or shortens it to the cooldown, only when
// the caller still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	if tonumber(ARGV[2]) > 0 then
		return redis.call("PEXPIRE", KEYS[1], ARGV[2])
	end
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisGuard shares the generating state between server instances.
type RedisGuard struct {
	client   *redis.Client
	cooldown time.Duration
	lockTTL  time.Duration
	logger   *zap.Logger
}

// NewRedisGuard creates a guard. lockTTL bounds how long a crashed holder
// keeps a story locked.
func NewRedisGuard(client *redis.Client, cooldown, lockTTL time.Duration, logger *zap.Logger) *RedisGuard {
	if lockTTL <= 0 {
		lockTTL = 2 * time.Minute
	}
	return &RedisGuard{
		client:   client,
		cooldown: cooldown,
		lockTTL:  lockTTL + cooldown,
		logger:   logger.Named("RedisGenerationGuard"),
	}
}

func guardKey(storyID int64) string {
	return fmt.Sprintf("%s%d", guardKeyPrefix, storyID)
}

func (g *RedisGuard) Acquire(ctx context.Context, storyID int64) (func(), error) {
	key := guardKey(storyID)
	token := uuid.NewString()

	ok, err := g.client.SetNX(ctx, key, token, g.lockTTL).Result()
	if err != nil {
		g.logger.Error("Failed to acquire generation lock", zap.Int64("storyId", storyID), zap.Error(err))
		return nil, fmt.Errorf("failed to acquire generation lock: %w", err)
	}
	if !ok {
		return nil, models.ErrGenerationInProgress
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			err := releaseScript.Run(releaseCtx, g.client, []string{key}, token, g.cooldown.Milliseconds()).Err()
			if err != nil && !errors.Is(err, redis.Nil) {
				g.logger.Warn("Failed to release generation lock", zap.Int64("storyId", storyID), zap.Error(err))
			}
		})
	}, nil
}
