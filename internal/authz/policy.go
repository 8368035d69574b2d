// Package authz decides whether an actor may mutate a listing. Decisions
// are pure functions of the actor and the listing's owner; nothing is
// cached or persisted.
package authz

import "github.com/botboard/botboard/internal/domain"

// Policy evaluates edit/delete permissions. AdminID is the Discord user id
// of the site administrator, injected from configuration.
type Policy struct {
	AdminID string
}

func NewPolicy(adminID string) *Policy {
	return &Policy{AdminID: adminID}
}

// IsAdmin reports whether the actor is the configured site administrator.
// A nil actor or an empty AdminID never matches.
func (p *Policy) IsAdmin(actor *domain.User) bool {
	if actor == nil || p.AdminID == "" {
		return false
	}
	return actor.DiscordUserID == p.AdminID
}

// CanEdit reports whether the actor may edit the listing: the admin may
// edit anything, owners may edit their own listings. Nil actor or nil bot
// is always denied.
func (p *Policy) CanEdit(bot *domain.Bot, actor *domain.User) bool {
	if bot == nil || actor == nil {
		return false
	}
	return p.IsAdmin(actor) || bot.OwnerID == actor.DiscordUserID
}

// CanDelete applies the same rule as CanEdit; there is no separate delete
// policy.
func (p *Policy) CanDelete(bot *domain.Bot, actor *domain.User) bool {
	return p.CanEdit(bot, actor)
}
