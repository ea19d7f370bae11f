package handlers

import (
	"github.com/bwmarrin/discordgo"

	"curator-bot/bot"
)

// InteractionCreate handles slash command and component interactions.
func InteractionCreate(b *bot.Bot) func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			switch i.ApplicationCommandData().Name {
			case "register_channel":
				HandleRegisterChannel(b, s, i)
			case "toggle_channel":
				HandleToggleChannel(b, s, i)
			case "channels":
				HandleChannels(b, s, i)
			case "health":
				HandleHealth(s, i)
			}
		case discordgo.InteractionMessageComponent:
			HandleVote(b, s, i)
		}
	}
}
