package domain

import (
	"context"
	"time"
)

// CooldownTracker admits or rejects upvote attempts based on the elapsed
// time since the same actor last voted on the same bot.
//
// TryRecord performs an atomic check-and-record: on admit the last-vote
// timestamp is overwritten with now, on reject nothing is mutated. Remaining
// is the read-only variant used for UI hints; ok=false means the next
// attempt would be admitted. Implementations must fail closed: if the
// backing store is unreachable they return an error rather than admitting.
type CooldownTracker interface {
	TryRecord(ctx context.Context, actorID, botID string) (Decision, error)
	Remaining(ctx context.Context, actorID, botID string) (remaining time.Duration, ok bool, err error)
}

// Decision is the outcome of a cooldown check. Remaining is zero when
// Allowed is true.
type Decision struct {
	Allowed   bool
	Remaining time.Duration
}
