package domain

import (
	"context"
	"time"
)

// Bot is a listed chat-bot integration. The ID is the Discord snowflake of
// the bot account; OwnerID is the snowflake of the user who submitted the
// listing and is the authorization key for edits and deletes.
type Bot struct {
	ID               string
	Name             string
	AvatarURL        string
	BannerURL        string
	Description      string
	ShortDescription string
	Prefix           string
	Website          string
	SupportServer    string
	InviteLink       string
	Tags             []string
	OwnerID          string
	OwnerName        string
	AddedAt          time.Time
	Upvotes          int
	ServerCount      int
	Certified        bool
}

// Sort orders accepted by BotListFilter.
const (
	SortNewest  = "newest"
	SortOldest  = "oldest"
	SortPopular = "popular"
)

// BotListFilter narrows and orders the listing query. Zero values mean
// "no filtering" and newest-first ordering.
type BotListFilter struct {
	Search string
	Tag    string
	Sort   string
}

// BotUpdate carries the owner-editable fields of a listing.
type BotUpdate struct {
	Description      string
	ShortDescription string
	Prefix           string
	Website          string
	SupportServer    string
	InviteLink       string
	Tags             []string
}

type BotRepository interface {
	List(ctx context.Context, filter BotListFilter) ([]Bot, error)
	GetByID(ctx context.Context, botID string) (*Bot, error)
	Create(ctx context.Context, bot *Bot) error
	Update(ctx context.Context, botID string, update BotUpdate) error
	SetAdminFields(ctx context.Context, botID string, certified bool, serverCount int) error
	Delete(ctx context.Context, botID string) error
	IncrementUpvotes(ctx context.Context, botID string) (int, error)
}

// PredefinedTags is the fixed tag catalogue offered on the submit and edit
// forms. Listings only ever carry a subset of these values.
var PredefinedTags = []string{
	"Moderation", "Music", "Fun", "Utility", "Games", "Economy",
	"Leveling", "Logging", "Social", "Auto-Moderation", "Welcomer",
	"Tickets", "Analytics", "RPG", "Anime", "Memes", "NSFW",
	"Productivity", "Dashboard", "AI", "Crypto", "NFT", "Multipurpose",
}
