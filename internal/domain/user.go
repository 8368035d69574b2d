package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User is an authenticated Discord identity. The internal UUID is what
// sessions carry; DiscordUserID is what ownership and admin checks compare.
type User struct {
	ID            uuid.UUID
	DiscordUserID string
	Username      string
	AvatarURL     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type UserRepository interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*User, error)
	Upsert(ctx context.Context, discordUserID, username, avatarURL string) (*User, error)
}
