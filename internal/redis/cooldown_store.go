package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/botboard/botboard/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

// CooldownStore enforces the upvote cooldown in Redis so the window
// survives restarts and is shared across instances. Each (actor, bot) key
// is a SET NX with the window as TTL: the atomic check-and-set replaces the
// mutex-guarded map of the in-memory tracker, and key expiry doubles as
// eviction.
//
// Any Redis error is returned to the caller; votes are never silently
// admitted when the store is unreachable.
type CooldownStore struct {
	rdb    *goredis.Client
	window time.Duration
}

var _ domain.CooldownTracker = (*CooldownStore)(nil)

func NewCooldownStore(rdb *goredis.Client, window time.Duration) *CooldownStore {
	return &CooldownStore{rdb: rdb, window: window}
}

func cooldownKey(actorID, botID string) string {
	return fmt.Sprintf("cooldown:votes:%s:%s", actorID, botID)
}

func (s *CooldownStore) TryRecord(ctx context.Context, actorID, botID string) (domain.Decision, error) {
	key := cooldownKey(actorID, botID)

	set, err := s.rdb.SetNX(ctx, key, 1, s.window).Result()
	if err != nil {
		return domain.Decision{}, fmt.Errorf("cooldown check failed: %w", err)
	}
	if set {
		return domain.Decision{Allowed: true}, nil
	}

	remaining, err := s.rdb.PTTL(ctx, key).Result()
	if err != nil {
		return domain.Decision{}, fmt.Errorf("cooldown TTL lookup failed: %w", err)
	}
	if remaining <= 0 {
		// Key expired between SETNX and PTTL; claim it now.
		set, err = s.rdb.SetNX(ctx, key, 1, s.window).Result()
		if err != nil {
			return domain.Decision{}, fmt.Errorf("cooldown check failed: %w", err)
		}
		if set {
			return domain.Decision{Allowed: true}, nil
		}
		remaining = s.window
	}

	return domain.Decision{Remaining: remaining}, nil
}

func (s *CooldownStore) Remaining(ctx context.Context, actorID, botID string) (time.Duration, bool, error) {
	remaining, err := s.rdb.PTTL(ctx, cooldownKey(actorID, botID)).Result()
	if err != nil {
		return 0, false, fmt.Errorf("cooldown TTL lookup failed: %w", err)
	}
	if remaining <= 0 {
		// -2 means no key, -1 means no TTL; either way no cooldown applies.
		return 0, false, nil
	}
	return remaining, true, nil
}
