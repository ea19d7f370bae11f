package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"curator-bot/models"
)

// UpsertContentItem inserts a candidate's payload keyed by
// (source_type, source_id), or overwrites the stored payload when the
// key is already known. Safe to call repeatedly; last write wins.
func UpsertContentItem(db *sql.DB, sourceType, sourceID string, payload models.Payload) (int64, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to encode payload for %s/%s: %w", sourceType, sourceID, err)
	}

	query := `
    INSERT INTO content_items (source_type, source_id, payload)
    VALUES (?, ?, ?)
    ON CONFLICT(source_type, source_id) DO UPDATE SET
        payload=excluded.payload
    RETURNING id;`

	var id int64
	if err := db.QueryRow(query, sourceType, sourceID, string(data)).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to upsert content item %s/%s: %w", sourceType, sourceID, err)
	}
	return id, nil
}

// GetContentItem loads a content item by id.
func GetContentItem(db *sql.DB, itemID int64) (models.ContentItem, error) {
	var item models.ContentItem
	var raw string
	err := db.QueryRow(
		`SELECT id, source_type, source_id, payload FROM content_items WHERE id = ?`, itemID,
	).Scan(&item.ID, &item.SourceType, &item.SourceID, &raw)
	if err != nil {
		return item, fmt.Errorf("failed to fetch content item %d: %w", itemID, err)
	}
	if err := json.Unmarshal([]byte(raw), &item.Payload); err != nil {
		return item, fmt.Errorf("failed to decode payload for content item %d: %w", itemID, err)
	}
	return item, nil
}

// FindExistingPost returns the id of the post queued for the given
// (channel, item) pair, or 0 when the item has never been queued there.
func FindExistingPost(db *sql.DB, channelID, itemID int64) (int64, error) {
	var id int64
	err := db.QueryRow(
		`SELECT id FROM posts WHERE channel_id = ? AND content_item_id = ?`, channelID, itemID,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up post for channel %d item %d: %w", channelID, itemID, err)
	}
	return id, nil
}

// CreatePost inserts a pending post for the (channel, item) pair. When
// the pair already exists the row's status is reset to pending, which
// re-queues a previously failed post instead of duplicating it.
func CreatePost(db *sql.DB, channelID, itemID int64) (int64, error) {
	query := `
    INSERT INTO posts (channel_id, content_item_id)
    VALUES (?, ?)
    ON CONFLICT(channel_id, content_item_id) DO UPDATE SET
        status='pending'
    RETURNING id;`

	var id int64
	if err := db.QueryRow(query, channelID, itemID).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to create post for channel %d item %d: %w", channelID, itemID, err)
	}
	return id, nil
}

// CountPendingPosts returns the size of a channel's pending backlog.
func CountPendingPosts(db *sql.DB, channelID int64) (int, error) {
	var n int
	err := db.QueryRow(
		`SELECT COUNT(1) FROM posts WHERE channel_id = ? AND status = 'pending'`, channelID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending posts for channel %d: %w", channelID, err)
	}
	return n, nil
}

// PendingPost pairs a queued post id with its content item.
type PendingPost struct {
	PostID int64
	Item   models.ContentItem
}

// FetchPendingPosts returns up to limit pending posts for a channel,
// oldest enqueued first.
func FetchPendingPosts(db *sql.DB, channelID int64, limit int) ([]PendingPost, error) {
	rows, err := db.Query(`
    SELECT p.id, c.id, c.source_type, c.source_id, c.payload
    FROM posts p JOIN content_items c ON p.content_item_id = c.id
    WHERE p.channel_id = ? AND p.status = 'pending'
    ORDER BY p.id
    LIMIT ?;`, channelID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending posts for channel %d: %w", channelID, err)
	}
	defer rows.Close()

	var pending []PendingPost
	for rows.Next() {
		var p PendingPost
		var raw string
		if err := rows.Scan(&p.PostID, &p.Item.ID, &p.Item.SourceType, &p.Item.SourceID, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan pending post: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &p.Item.Payload); err != nil {
			return nil, fmt.Errorf("failed to decode payload for post %d: %w", p.PostID, err)
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

// MarkPosted records a successful publish: platform identifiers, the
// audience size observed at publish time, and the posted timestamp.
func MarkPosted(db *sql.DB, postID int64, chatID, messageID string, audienceSize int) error {
	_, err := db.Exec(`
    UPDATE posts
    SET status='posted', discord_chat_id=?, message_id=?, audience_size=?, posted_at=CURRENT_TIMESTAMP
    WHERE id=?;`, chatID, messageID, audienceSize, postID)
	if err != nil {
		return fmt.Errorf("failed to mark post %d posted: %w", postID, err)
	}
	return nil
}

// MarkFailed records a publish failure. The post stays out of the queue
// until the item is enqueued again, which resets it to pending.
func MarkFailed(db *sql.DB, postID int64) error {
	_, err := db.Exec(`UPDATE posts SET status='failed' WHERE id=?`, postID)
	if err != nil {
		return fmt.Errorf("failed to mark post %d failed: %w", postID, err)
	}
	return nil
}

// SetPinned advances a post to pinned. Only called after the board
// promotion succeeded; the stored status is the arbiter of whether the
// promotion already happened.
func SetPinned(db *sql.DB, postID int64) error {
	_, err := db.Exec(
		`UPDATE posts SET status='pinned', pinned_at=CURRENT_TIMESTAMP WHERE id=?`, postID)
	if err != nil {
		return fmt.Errorf("failed to mark post %d pinned: %w", postID, err)
	}
	return nil
}

// SetQuarantined advances a post to quarantined.
func SetQuarantined(db *sql.DB, postID int64) error {
	_, err := db.Exec(
		`UPDATE posts SET status='quarantined', quarantined_at=CURRENT_TIMESTAMP WHERE id=?`, postID)
	if err != nil {
		return fmt.Errorf("failed to mark post %d quarantined: %w", postID, err)
	}
	return nil
}

// PostDetail is a post joined with the moderation settings of its channel.
type PostDetail struct {
	models.Post
	LikeThreshold    int
	DislikeThreshold int
	GoodBoardID      string
	GoodSectionID    string
	BadBoardID       string
	BadSectionID     string
}

// FetchPost loads a post together with its channel's thresholds and
// board configuration.
func FetchPost(db *sql.DB, postID int64) (*PostDetail, error) {
	row := db.QueryRow(`
    SELECT p.id, p.channel_id, p.content_item_id, p.status,
           p.discord_chat_id, p.message_id, p.audience_size,
           c.like_threshold, c.dislike_threshold,
           c.good_board_id, c.good_section_id, c.bad_board_id, c.bad_section_id
    FROM posts p JOIN channels c ON p.channel_id = c.id
    WHERE p.id = ?;`, postID)

	var d PostDetail
	var chatID, messageID, goodBoard, goodSection, badBoard, badSection sql.NullString
	err := row.Scan(
		&d.ID, &d.ChannelID, &d.ContentItemID, &d.Status,
		&chatID, &messageID, &d.AudienceSize,
		&d.LikeThreshold, &d.DislikeThreshold,
		&goodBoard, &goodSection, &badBoard, &badSection,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch post %d: %w", postID, err)
	}
	d.DiscordChatID = chatID.String
	d.MessageID = messageID.String
	d.GoodBoardID = goodBoard.String
	d.GoodSectionID = goodSection.String
	d.BadBoardID = badBoard.String
	d.BadSectionID = badSection.String
	return &d, nil
}

// FetchPostIDByMessage resolves a published message back to its post id.
func FetchPostIDByMessage(db *sql.DB, chatID, messageID string) (int64, error) {
	var id int64
	err := db.QueryRow(
		`SELECT id FROM posts WHERE discord_chat_id = ? AND message_id = ?`, chatID, messageID,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve post for message %s/%s: %w", chatID, messageID, err)
	}
	return id, nil
}
