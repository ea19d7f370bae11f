package utils

import "github.com/bwmarrin/discordgo"

// Auth provides authorization checks for administrative commands.
type Auth struct {
	adminIDs []string
}

// NewAuth creates an Auth instance from the configured admin user ids.
func NewAuth(adminIDs []string) *Auth {
	return &Auth{adminIDs: adminIDs}
}

// IsAdmin checks if a user is one of the configured administrators.
func (a *Auth) IsAdmin(userID string) bool {
	for _, adminID := range a.adminIDs {
		if userID == adminID {
			return true
		}
	}
	return false
}

// InteractionUserID extracts the acting user's id from an interaction,
// which arrives under Member in guilds and under User in DMs.
func InteractionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
