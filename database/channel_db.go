package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"curator-bot/models"
)

// UpsertChannel registers a posting destination, or updates the existing
// row when the (discord_channel_id, content_source) pair is already
// known. Returns the channel's database id.
func UpsertChannel(db *sql.DB, ch models.Channel) (int64, error) {
	cfg, err := json.Marshal(orEmptyConfig(ch.ContentConfig))
	if err != nil {
		return 0, fmt.Errorf("failed to encode content config: %w", err)
	}

	query := `
    INSERT INTO channels (
        discord_channel_id, name, content_source, content_config,
        autopost_interval, like_threshold, dislike_threshold,
        good_board_id, good_section_id, bad_board_id, bad_section_id
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    ON CONFLICT(discord_channel_id, content_source) DO UPDATE SET
        name=excluded.name,
        content_config=excluded.content_config,
        autopost_interval=excluded.autopost_interval,
        like_threshold=excluded.like_threshold,
        dislike_threshold=excluded.dislike_threshold,
        good_board_id=excluded.good_board_id,
        good_section_id=excluded.good_section_id,
        bad_board_id=excluded.bad_board_id,
        bad_section_id=excluded.bad_section_id,
        updated_at=CURRENT_TIMESTAMP
    RETURNING id;`

	var id int64
	err = db.QueryRow(query,
		ch.DiscordChannelID,
		ch.Name,
		ch.ContentSource,
		string(cfg),
		ch.AutopostInterval,
		ch.LikeThreshold,
		ch.DislikeThreshold,
		ch.GoodBoardID,
		ch.GoodSectionID,
		ch.BadBoardID,
		ch.BadSectionID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert channel %s: %w", ch.DiscordChannelID, err)
	}
	return id, nil
}

// ListEnabledChannels returns every enabled channel in registration order.
func ListEnabledChannels(db *sql.DB) ([]models.Channel, error) {
	rows, err := db.Query(`
    SELECT id, discord_channel_id, name, content_source, content_config,
           autopost_interval, like_threshold, dislike_threshold,
           good_board_id, good_section_id, bad_board_id, bad_section_id, enabled
    FROM channels WHERE enabled = 1 ORDER BY id;`)
	if err != nil {
		return nil, fmt.Errorf("failed to query channels: %w", err)
	}
	defer rows.Close()

	var channels []models.Channel
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

// GetChannel loads a single channel by id, enabled or not.
func GetChannel(db *sql.DB, channelID int64) (models.Channel, error) {
	row := db.QueryRow(`
    SELECT id, discord_channel_id, name, content_source, content_config,
           autopost_interval, like_threshold, dislike_threshold,
           good_board_id, good_section_id, bad_board_id, bad_section_id, enabled
    FROM channels WHERE id = ?;`, channelID)

	ch, err := scanChannel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ch, fmt.Errorf("channel %d not found", channelID)
	}
	return ch, err
}

// SetChannelEnabled flips a channel's enabled flag. Channels are never
// deleted; disabling removes them from scheduling.
func SetChannelEnabled(db *sql.DB, channelID int64, enabled bool) error {
	_, err := db.Exec(`UPDATE channels SET enabled = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, enabled, channelID)
	if err != nil {
		return fmt.Errorf("failed to update enabled flag for channel %d: %w", channelID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChannel(row rowScanner) (models.Channel, error) {
	var ch models.Channel
	var cfg string
	var name, goodBoard, goodSection, badBoard, badSection sql.NullString
	err := row.Scan(
		&ch.ID, &ch.DiscordChannelID, &name, &ch.ContentSource, &cfg,
		&ch.AutopostInterval, &ch.LikeThreshold, &ch.DislikeThreshold,
		&goodBoard, &goodSection, &badBoard, &badSection, &ch.Enabled,
	)
	if err != nil {
		return ch, fmt.Errorf("failed to scan channel row: %w", err)
	}
	ch.Name = name.String
	ch.GoodBoardID = goodBoard.String
	ch.GoodSectionID = goodSection.String
	ch.BadBoardID = badBoard.String
	ch.BadSectionID = badSection.String
	if err := json.Unmarshal([]byte(cfg), &ch.ContentConfig); err != nil {
		return ch, fmt.Errorf("failed to decode content config for channel %d: %w", ch.ID, err)
	}
	return ch, nil
}

func orEmptyConfig(cfg map[string]any) map[string]any {
	if cfg == nil {
		return map[string]any{}
	}
	return cfg
}
