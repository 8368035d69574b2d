// Package vote enforces the upvote cooldown: one vote per actor per bot
// within a configurable window.
package vote

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/botboard/botboard/internal/domain"
	"github.com/botboard/botboard/internal/metrics"
	"github.com/jonboulle/clockwork"
)

// DefaultWindow is the cooldown between successive upvotes by the same
// actor on the same bot.
const DefaultWindow = 6 * time.Hour

// Tracker is the in-memory cooldown store: a mutex-guarded map of
// (actorID, botID) → last-vote time. The check-and-record in TryRecord is
// atomic under the lock, so two concurrent votes on the same key within the
// window admit exactly one.
//
// State is process-local and advisory: it is lost on restart and not shared
// across instances. Use the Redis-backed store when that matters.
type Tracker struct {
	mu     sync.Mutex
	last   map[key]time.Time
	window time.Duration
	clock  clockwork.Clock
}

type key struct {
	actorID string
	botID   string
}

var _ domain.CooldownTracker = (*Tracker)(nil)

func NewTracker(window time.Duration, clock clockwork.Clock) *Tracker {
	return &Tracker{
		last:   make(map[key]time.Time),
		window: window,
		clock:  clock,
	}
}

// TryRecord admits the vote and records now as the last-vote time, or
// rejects it with the remaining wait. The map is only mutated on admit.
func (t *Tracker) TryRecord(_ context.Context, actorID, botID string) (domain.Decision, error) {
	k := key{actorID: actorID, botID: botID}
	now := t.clock.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	if last, ok := t.last[k]; ok {
		if elapsed := now.Sub(last); elapsed < t.window {
			return domain.Decision{Remaining: t.window - elapsed}, nil
		}
	}

	t.last[k] = now
	return domain.Decision{Allowed: true}, nil
}

// Remaining reports the wait left before the next admissible vote, without
// consuming the attempt. ok=false means a vote would be admitted now.
func (t *Tracker) Remaining(_ context.Context, actorID, botID string) (time.Duration, bool, error) {
	k := key{actorID: actorID, botID: botID}
	now := t.clock.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	last, ok := t.last[k]
	if !ok {
		return 0, false, nil
	}
	if elapsed := now.Sub(last); elapsed < t.window {
		return t.window - elapsed, true, nil
	}
	return 0, false, nil
}

// Size returns the current number of entries, including stale ones.
func (t *Tracker) Size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.last)
}

// EvictStale removes entries whose cooldown window has fully elapsed and
// returns the count evicted. Stale entries never affect admission decisions;
// eviction only bounds memory growth.
func (t *Tracker) EvictStale() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	evicted := 0
	for k, last := range t.last {
		if now.Sub(last) >= t.window {
			delete(t.last, k)
			evicted++
		}
	}
	return evicted
}

// StartEvictionTimer starts a background goroutine that periodically evicts
// stale entries. Returns a stop function to clean up the goroutine.
func (t *Tracker) StartEvictionTimer(interval time.Duration) func() {
	ticker := t.clock.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.Chan():
				if evicted := t.EvictStale(); evicted > 0 {
					slog.Debug("Evicted stale cooldown entries",
						"count", evicted,
						"remaining", t.Size(),
					)
					metrics.CooldownEvictions.Add(float64(evicted))
				}
				metrics.CooldownEntries.Set(float64(t.Size()))
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() {
		close(done)
	}
}

// FormatRemaining renders a remaining wait as "Xh Ym", truncated to whole
// hours and minutes; seconds are discarded.
func FormatRemaining(remaining time.Duration) string {
	if remaining < 0 {
		remaining = 0
	}
	seconds := int(remaining / time.Second)
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
