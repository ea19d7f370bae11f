package command

import "github.com/bwmarrin/discordgo"

// RegisterChannelCommand defines the structure for the /register_channel command.
type RegisterChannelCommand struct{}

// Definition returns the application command definition.
func (c *RegisterChannelCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "register_channel",
		Description: "Register or update a channel for automated posting",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "channel",
				Description: "The channel to post into",
				Type:        discordgo.ApplicationCommandOptionChannel,
				Required:    true,
			},
			{
				Name:        "source",
				Description: "The content source to pull from",
				Type:        discordgo.ApplicationCommandOptionString,
				Required:    true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "Pinterest API search", Value: "pinterest"},
					{Name: "Pinterest RSS feed", Value: "pinterest_rss"},
					{Name: "Pinterest search feed", Value: "pinterest_search"},
					{Name: "Pinterest board ideas", Value: "pinterest_board_ideas"},
					{Name: "Spotify playlist", Value: "spotify_playlist"},
				},
			},
			{
				Name:        "query",
				Description: "Search query (pinterest sources)",
				Type:        discordgo.ApplicationCommandOptionString,
				Required:    false,
			},
			{
				Name:        "feed_url",
				Description: "Board RSS feed URL (pinterest_rss)",
				Type:        discordgo.ApplicationCommandOptionString,
				Required:    false,
			},
			{
				Name:        "playlist_id",
				Description: "Playlist id (spotify_playlist)",
				Type:        discordgo.ApplicationCommandOptionString,
				Required:    false,
			},
			{
				Name:        "board_id",
				Description: "Board id to scrape ideas from (pinterest_board_ideas)",
				Type:        discordgo.ApplicationCommandOptionString,
				Required:    false,
			},
			{
				Name:        "board",
				Description: "Board id for promoted items",
				Type:        discordgo.ApplicationCommandOptionString,
				Required:    false,
			},
			{
				Name:        "section",
				Description: "Board section id for promoted items",
				Type:        discordgo.ApplicationCommandOptionString,
				Required:    false,
			},
			{
				Name:        "bad_board",
				Description: "Board id for demoted items",
				Type:        discordgo.ApplicationCommandOptionString,
				Required:    false,
			},
			{
				Name:        "bad_section",
				Description: "Board section id for demoted items",
				Type:        discordgo.ApplicationCommandOptionString,
				Required:    false,
			},
			{
				Name:        "like",
				Description: "Likes needed for promotion (0 = audience based)",
				Type:        discordgo.ApplicationCommandOptionInteger,
				Required:    false,
			},
			{
				Name:        "dislike",
				Description: "Net score threshold for quarantine (negative, 0 = disabled)",
				Type:        discordgo.ApplicationCommandOptionInteger,
				Required:    false,
			},
			{
				Name:        "interval",
				Description: "Seconds between posting runs",
				Type:        discordgo.ApplicationCommandOptionInteger,
				Required:    false,
			},
		},
	}
}

// ToggleChannelCommand defines the structure for the /toggle_channel command.
type ToggleChannelCommand struct{}

// Definition returns the application command definition.
func (c *ToggleChannelCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "toggle_channel",
		Description: "Enable or disable a registered posting channel",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "id",
				Description: "Registration id (see /channels)",
				Type:        discordgo.ApplicationCommandOptionInteger,
				Required:    true,
			},
			{
				Name:        "enabled",
				Description: "Whether the channel should be scheduled",
				Type:        discordgo.ApplicationCommandOptionBoolean,
				Required:    true,
			},
		},
	}
}

// ChannelsCommand defines the structure for the /channels command.
type ChannelsCommand struct{}

// Definition returns the application command definition.
func (c *ChannelsCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "channels",
		Description: "List registered posting channels",
	}
}

// HealthCommand defines the structure for the /health command.
type HealthCommand struct{}

// Definition returns the application command definition.
func (c *HealthCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "health",
		Description: "Check that the bot is alive",
	}
}
