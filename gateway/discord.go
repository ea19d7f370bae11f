package gateway

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"curator-bot/models"
)

// VoteCustomID builds the component custom id carried by a vote button.
func VoteCustomID(postID int64, value int) string {
	return fmt.Sprintf("vote:%d:%d", postID, value)
}

// ParseVoteCustomID parses a vote button custom id back into its post id
// and vote value. ok is false for non-vote components.
func ParseVoteCustomID(customID string) (postID int64, value int, ok bool) {
	parts := strings.Split(customID, ":")
	if len(parts) != 3 || parts[0] != "vote" {
		return 0, 0, false
	}
	postID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	value, err = strconv.Atoi(parts[2])
	if err != nil || (value != 1 && value != -1) {
		return 0, 0, false
	}
	return postID, value, true
}

// voteButtons renders the like/dislike button row with current counts.
func voteButtons(postID int64, likes, dislikes int) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    fmt.Sprintf("🔥 %d", likes),
					Style:    discordgo.SecondaryButton,
					CustomID: VoteCustomID(postID, 1),
				},
				discordgo.Button{
					Label:    fmt.Sprintf("💩 %d", dislikes),
					Style:    discordgo.SecondaryButton,
					CustomID: VoteCustomID(postID, -1),
				},
			},
		},
	}
}

// DiscordGateway implements Gateway on a discordgo session.
type DiscordGateway struct {
	Session *discordgo.Session
}

// NewDiscordGateway wraps a session.
func NewDiscordGateway(s *discordgo.Session) *DiscordGateway {
	return &DiscordGateway{Session: s}
}

// Publish sends the item as an embed (photo) or a plain video link, with
// the vote button row attached.
func (g *DiscordGateway) Publish(ctx context.Context, channelID string, postID int64, p models.Payload) (string, string, error) {
	send := &discordgo.MessageSend{
		Components: voteButtons(postID, 0, 0),
	}
	if p.VideoURL != "" {
		// Discord renders external video links inline; embeds cannot
		// carry third-party video.
		send.Content = buildCaption(p) + "\n" + p.VideoURL
	} else {
		embed := &discordgo.MessageEmbed{
			Title:       p.Title,
			Description: p.Caption,
			URL:         p.Permalink,
			Image:       &discordgo.MessageEmbedImage{URL: p.MediaURL},
		}
		send.Embeds = []*discordgo.MessageEmbed{embed}
	}

	msg, err := g.Session.ChannelMessageSendComplex(channelID, send, discordgo.WithContext(ctx))
	if err != nil {
		return "", "", fmt.Errorf("failed to publish to channel %s: %w", channelID, err)
	}
	return msg.ChannelID, msg.ID, nil
}

// EditVoteDisplay rewrites the button labels with the new counts.
func (g *DiscordGateway) EditVoteDisplay(ctx context.Context, chatID, messageID string, postID int64, likes, dislikes int) error {
	components := voteButtons(postID, likes, dislikes)
	_, err := g.Session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    chatID,
		ID:         messageID,
		Components: &components,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to edit vote display on %s/%s: %w", chatID, messageID, err)
	}
	return nil
}

// ForwardToQuarantine re-sends the original message's content to the
// quarantine channel.
func (g *DiscordGateway) ForwardToQuarantine(ctx context.Context, dest, chatID, messageID string) error {
	original, err := g.Session.ChannelMessage(chatID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to load message %s/%s for quarantine: %w", chatID, messageID, err)
	}
	send := &discordgo.MessageSend{
		Content: original.Content,
		Embeds:  original.Embeds,
	}
	if send.Content == "" && len(send.Embeds) == 0 {
		send.Content = fmt.Sprintf("Quarantined message %s from <#%s>", messageID, chatID)
	}
	if _, err := g.Session.ChannelMessageSendComplex(dest, send, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to forward %s/%s to quarantine %s: %w", chatID, messageID, dest, err)
	}
	return nil
}

// AudienceSize reports the approximate member count of the channel's
// guild. Returns 0 with no error when the count is unavailable.
func (g *DiscordGateway) AudienceSize(ctx context.Context, chatID string) (int, error) {
	ch, err := g.Session.Channel(chatID, discordgo.WithContext(ctx))
	if err != nil {
		return 0, fmt.Errorf("failed to resolve channel %s: %w", chatID, err)
	}
	if ch.GuildID == "" {
		return 0, nil
	}
	guild, err := g.Session.GuildWithCounts(ch.GuildID, discordgo.WithContext(ctx))
	if err != nil {
		return 0, fmt.Errorf("failed to fetch guild %s: %w", ch.GuildID, err)
	}
	return guild.ApproximateMemberCount, nil
}

// Reply answers in-channel referencing the original post.
func (g *DiscordGateway) Reply(ctx context.Context, chatID, messageID, text string) error {
	_, err := g.Session.ChannelMessageSendReply(chatID, text, &discordgo.MessageReference{
		ChannelID: chatID,
		MessageID: messageID,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to reply to %s/%s: %w", chatID, messageID, err)
	}
	return nil
}

func buildCaption(p models.Payload) string {
	caption := p.Caption
	if caption == "" {
		caption = p.Title
	}
	if p.Permalink != "" {
		if caption != "" {
			caption += "\n"
		}
		caption += "<" + p.Permalink + ">"
	}
	return caption
}
