package handlers

import (
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"

	"curator-bot/bot"
	"curator-bot/database"
	"curator-bot/models"
	"curator-bot/utils"
)

func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Printf("Error responding to interaction: %v", err)
	}
}

// HandleRegisterChannel handles the logic for the /register_channel command.
func HandleRegisterChannel(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	auth := utils.NewAuth(b.Settings.AdminIDs)
	if !auth.IsAdmin(utils.InteractionUserID(i)) {
		utils.Warn("channels", "register", fmt.Sprintf("Unauthorized attempt by user %s", utils.InteractionUserID(i)))
		respondEphemeral(s, i, "You are not allowed to register channels.")
		return
	}

	options := i.ApplicationCommandData().Options
	optionMap := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		optionMap[opt.Name] = opt
	}

	channelOpt, ok := optionMap["channel"]
	if !ok {
		respondEphemeral(s, i, "Error: a channel is required.")
		return
	}
	target := channelOpt.ChannelValue(s)

	sourceKey := ""
	if opt, ok := optionMap["source"]; ok {
		sourceKey = opt.StringValue()
	}

	// Source-specific fields travel in the opaque config map; each
	// source validates its own keys at construction time.
	cfg := map[string]any{}
	for _, key := range []string{"query", "feed_url", "playlist_id", "board_id"} {
		if opt, ok := optionMap[key]; ok && opt.StringValue() != "" {
			cfg[key] = opt.StringValue()
		}
	}

	ch := models.Channel{
		DiscordChannelID: target.ID,
		Name:             target.Name,
		ContentSource:    sourceKey,
		ContentConfig:    cfg,
		AutopostInterval: b.Settings.PostingIntervalSeconds,
		LikeThreshold:    b.Settings.LikeThreshold,
		DislikeThreshold: b.Settings.DislikeThreshold,
	}
	if opt, ok := optionMap["interval"]; ok {
		ch.AutopostInterval = int(opt.IntValue())
	}
	if opt, ok := optionMap["like"]; ok {
		ch.LikeThreshold = int(opt.IntValue())
	}
	if opt, ok := optionMap["dislike"]; ok {
		ch.DislikeThreshold = int(opt.IntValue())
	}
	if opt, ok := optionMap["board"]; ok {
		ch.GoodBoardID = opt.StringValue()
	}
	if opt, ok := optionMap["section"]; ok {
		ch.GoodSectionID = opt.StringValue()
	}
	if opt, ok := optionMap["bad_board"]; ok {
		ch.BadBoardID = opt.StringValue()
	}
	if opt, ok := optionMap["bad_section"]; ok {
		ch.BadSectionID = opt.StringValue()
	}
	// Board ideas scrape the promotion board when no explicit board_id
	// was given.
	if sourceKey == "pinterest_board_ideas" && cfg["board_id"] == nil && ch.GoodBoardID != "" {
		cfg["board_id"] = ch.GoodBoardID
	}

	id, err := database.UpsertChannel(b.DB, ch)
	if err != nil {
		log.Printf("Error registering channel %s: %v", target.ID, err)
		utils.Error("channels", "register", fmt.Sprintf("Failed to save registration for <#%s>: %v", target.ID, err))
		respondEphemeral(s, i, "Error: could not save the channel registration.")
		return
	}

	utils.Info("channels", "register", fmt.Sprintf("Channel <#%s> registered for %s (id=%d)", target.ID, sourceKey, id))
	respondEphemeral(s, i, fmt.Sprintf("Channel <#%s> registered for source **%s** (id=%d).", target.ID, sourceKey, id))
}

// HandleToggleChannel handles the logic for the /toggle_channel command.
func HandleToggleChannel(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	auth := utils.NewAuth(b.Settings.AdminIDs)
	if !auth.IsAdmin(utils.InteractionUserID(i)) {
		utils.Warn("channels", "toggle", fmt.Sprintf("Unauthorized attempt by user %s", utils.InteractionUserID(i)))
		respondEphemeral(s, i, "You are not allowed to manage channels.")
		return
	}

	options := i.ApplicationCommandData().Options
	var id int64
	enabled := true
	for _, opt := range options {
		switch opt.Name {
		case "id":
			id = opt.IntValue()
		case "enabled":
			enabled = opt.BoolValue()
		}
	}

	ch, err := database.GetChannel(b.DB, id)
	if err != nil {
		respondEphemeral(s, i, fmt.Sprintf("No channel registration with id %d.", id))
		return
	}
	if err := database.SetChannelEnabled(b.DB, ch.ID, enabled); err != nil {
		log.Printf("Error toggling channel %d: %v", ch.ID, err)
		utils.Error("channels", "toggle", fmt.Sprintf("Failed to toggle channel %d: %v", ch.ID, err))
		respondEphemeral(s, i, "Error: could not update the channel.")
		return
	}

	state := "disabled"
	if enabled {
		state = "enabled"
	}
	utils.Info("channels", "toggle", fmt.Sprintf("Channel <#%s> (%s) %s", ch.DiscordChannelID, ch.ContentSource, state))
	respondEphemeral(s, i, fmt.Sprintf("Channel <#%s> (%s) is now %s.", ch.DiscordChannelID, ch.ContentSource, state))
}

// HandleChannels handles the logic for the /channels command.
func HandleChannels(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	auth := utils.NewAuth(b.Settings.AdminIDs)
	if !auth.IsAdmin(utils.InteractionUserID(i)) {
		respondEphemeral(s, i, "You are not allowed to list channels.")
		return
	}

	channels, err := database.ListEnabledChannels(b.DB)
	if err != nil {
		log.Printf("Error listing channels: %v", err)
		respondEphemeral(s, i, "Error: could not load the channel list.")
		return
	}
	if len(channels) == 0 {
		respondEphemeral(s, i, "No channels registered.")
		return
	}

	var lines []string
	for _, ch := range channels {
		line := fmt.Sprintf("• #%d <#%s> (%s), interval %ds, like ≥ %d",
			ch.ID, ch.DiscordChannelID, ch.ContentSource, ch.AutopostInterval, ch.LikeThreshold)
		if query, ok := ch.ContentConfig["query"].(string); ok && query != "" {
			line += fmt.Sprintf(", query=%q", query)
		}
		lines = append(lines, line)
	}
	respondEphemeral(s, i, strings.Join(lines, "\n"))
}

// HandleHealth handles the logic for the /health command.
func HandleHealth(s *discordgo.Session, i *discordgo.InteractionCreate) {
	respondEphemeral(s, i, "Curator bot is running ✅")
}
