package handlers

import (
	"log"

	"github.com/bwmarrin/discordgo"

	"curator-bot/bot"
	"curator-bot/utils"
)

// Register all handlers to the bot.
func Register(b *bot.Bot) {
	b.Session.AddHandler(InteractionCreate(b))

	// Add a ready handler to log when the bot is connected.
	b.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Printf("Logged in as: %v#%v", s.State.User.Username, s.State.User.Discriminator)
		utils.InitLogger(s, b.Settings.AdminChannelID)
	})
}
