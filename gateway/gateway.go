// Package gateway abstracts the messaging platform used for publishing
// posts and reflecting vote state.
package gateway

import (
	"context"

	"curator-bot/models"
)

// Gateway is the messaging contract consumed by the autoposter and the
// voting service.
type Gateway interface {
	// Publish sends a content item to a channel with vote controls and
	// returns the platform chat and message identifiers.
	Publish(ctx context.Context, channelID string, postID int64, p models.Payload) (chatID, messageID string, err error)
	// EditVoteDisplay refreshes the vote counters on a published post.
	EditVoteDisplay(ctx context.Context, chatID, messageID string, postID int64, likes, dislikes int) error
	// ForwardToQuarantine copies a published post to the quarantine
	// destination.
	ForwardToQuarantine(ctx context.Context, dest, chatID, messageID string) error
	// AudienceSize reports the channel's audience, 0 when unknown.
	AudienceSize(ctx context.Context, chatID string) (int, error)
	// Reply posts a short notice in the origin message's thread.
	Reply(ctx context.Context, chatID, messageID, text string) error
}
