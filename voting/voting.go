// Package voting records votes and drives a post's moderation
// lifecycle: promotion to the good board, demotion to the bad board and
// quarantine on negative sentiment.
package voting

import (
	"context"
	"database/sql"
	"log"

	"curator-bot/database"
	"curator-bot/gateway"
	"curator-bot/models"
)

// BoardClient publishes an item's media to a curated board.
type BoardClient interface {
	Pin(ctx context.Context, boardID, sectionID string, p models.Payload) error
}

// A net score at or below this sentinel can never be reached, which
// disables the quarantine branch for channels without a configured
// dislike threshold.
const disabledNetThreshold = -9999

// Service evaluates accumulated votes against a channel's thresholds.
type Service struct {
	db                  *sql.DB
	gateway             gateway.Gateway
	boards              BoardClient
	quarantineChannelID string
}

// NewService wires a voting service. boards may be nil when no board
// promotion is configured.
func NewService(db *sql.DB, gw gateway.Gateway, boards BoardClient, quarantineChannelID string) *Service {
	return &Service{
		db:                  db,
		gateway:             gw,
		boards:              boards,
		quarantineChannelID: quarantineChannelID,
	}
}

// RegisterVote upserts one voter's choice, recomputes the aggregates and
// applies every transition rule whose threshold is newly crossed. The
// returned action names the terminal transition that fired during this
// call, ActionNone when nothing new happened.
func (s *Service) RegisterVote(ctx context.Context, postID int64, userID string, value int) (likes, dislikes int, action models.VoteAction, wasNew bool, err error) {
	wasNew, err = database.RecordVote(s.db, postID, userID, value)
	if err != nil {
		return 0, 0, models.ActionNone, false, err
	}
	likes, dislikes, err = database.AggregateVotes(s.db, postID)
	if err != nil {
		return 0, 0, models.ActionNone, wasNew, err
	}

	post, err := database.FetchPost(s.db, postID)
	if err != nil {
		return likes, dislikes, models.ActionNone, wasNew, err
	}
	if post == nil {
		return likes, dislikes, models.ActionNone, wasNew, nil
	}

	likeThreshold, dislikeCountThreshold, netThreshold := thresholds(post)

	// The persisted status decides whether a transition already
	// happened; concurrent votes may race here, but each side effect is
	// gated on the status read from the store.
	if likes >= likeThreshold && post.GoodBoardID != "" && post.Status != models.StatusPinned {
		if s.promote(ctx, post) {
			action = models.ActionPinned
		}
	}

	if dislikes >= dislikeCountThreshold && post.BadBoardID != "" {
		s.demote(ctx, post)
	}

	if likes-dislikes <= netThreshold && post.Status != models.StatusQuarantined {
		if s.quarantine(ctx, post) {
			action = models.ActionQuarantined
		}
	}
	return likes, dislikes, action, wasNew, nil
}

// thresholds resolves the effective thresholds for a post. Explicit
// channel values always win; the audience-derived dynamic threshold is
// only a fallback, and defaults to 1 when the audience is unknown.
func thresholds(post *database.PostDetail) (like, dislikeCount, net int) {
	dynamic := 1
	if post.AudienceSize > 0 {
		dynamic = (post.AudienceSize + 1) / 2
	}

	like = post.LikeThreshold
	if like <= 0 {
		like = dynamic
	}

	if post.DislikeThreshold < 0 {
		dislikeCount = -post.DislikeThreshold
	} else {
		dislikeCount = dynamic
	}

	net = post.DislikeThreshold
	if net == 0 {
		net = disabledNetThreshold
	}
	return like, dislikeCount, net
}

// promote pins the item to the good board and, on success, marks the
// post pinned and notifies the origin thread. A failed pin leaves the
// status untouched so a later vote retries.
func (s *Service) promote(ctx context.Context, post *database.PostDetail) bool {
	if !s.pinToBoard(ctx, post, post.GoodBoardID, post.GoodSectionID) {
		return false
	}
	if err := database.SetPinned(s.db, post.ID); err != nil {
		log.Printf("[voting] Failed to persist pinned status for post %d: %v", post.ID, err)
		return false
	}
	if post.DiscordChatID != "" && post.MessageID != "" {
		if err := s.gateway.Reply(ctx, post.DiscordChatID, post.MessageID, "🔥 This one made the board!"); err != nil {
			log.Printf("[voting] Failed to announce promotion of post %d: %v", post.ID, err)
		}
	}
	return true
}

// demote pins the item to the bad board. This never changes the post's
// status and may fire alongside promotion or quarantine.
func (s *Service) demote(ctx context.Context, post *database.PostDetail) {
	if !s.pinToBoard(ctx, post, post.BadBoardID, post.BadSectionID) {
		log.Printf("[voting] Bad-board demotion failed for post %d", post.ID)
	}
}

func (s *Service) pinToBoard(ctx context.Context, post *database.PostDetail, boardID, sectionID string) bool {
	if s.boards == nil {
		log.Printf("[voting] No board client configured, cannot pin post %d", post.ID)
		return false
	}
	item, err := database.GetContentItem(s.db, post.ContentItemID)
	if err != nil {
		log.Printf("[voting] Failed to load content for post %d: %v", post.ID, err)
		return false
	}
	if err := s.boards.Pin(ctx, boardID, sectionID, item.Payload); err != nil {
		log.Printf("[voting] Failed to pin post %d to board %s: %v", post.ID, boardID, err)
		return false
	}
	return true
}

// quarantine forwards the post to the quarantine channel when one is
// configured, then marks it quarantined. Without a destination the
// status is set directly. A failed forward leaves the status untouched.
func (s *Service) quarantine(ctx context.Context, post *database.PostDetail) bool {
	if s.quarantineChannelID != "" {
		if post.DiscordChatID == "" || post.MessageID == "" {
			return false
		}
		if err := s.gateway.ForwardToQuarantine(ctx, s.quarantineChannelID, post.DiscordChatID, post.MessageID); err != nil {
			log.Printf("[voting] Failed to forward post %d to quarantine: %v", post.ID, err)
			return false
		}
	}
	if err := database.SetQuarantined(s.db, post.ID); err != nil {
		log.Printf("[voting] Failed to persist quarantined status for post %d: %v", post.ID, err)
		return false
	}
	return true
}

// VoteAck renders the user-facing acknowledgement for a vote result.
func VoteAck(action models.VoteAction) string {
	switch action {
	case models.ActionPinned:
		return "Added to the board!"
	case models.ActionQuarantined:
		return "Sent to quarantine."
	default:
		return "Vote counted."
	}
}
