package models

import "time"

// PostStatus tracks a post through its lifecycle.
type PostStatus string

const (
	StatusPending     PostStatus = "pending"
	StatusPosted      PostStatus = "posted"
	StatusPinned      PostStatus = "pinned"
	StatusQuarantined PostStatus = "quarantined"
	StatusFailed      PostStatus = "failed"
)

// MediaType describes the kind of media a content item carries.
type MediaType string

const (
	MediaPhoto     MediaType = "photo"
	MediaVideo     MediaType = "video"
	MediaAnimation MediaType = "animation"
)

// Channel is a configured posting destination. A Discord channel can be
// registered once per content source; re-registration updates the row.
type Channel struct {
	ID               int64          `db:"id"`
	DiscordChannelID string         `db:"discord_channel_id"` // Unique together with ContentSource
	Name             string         `db:"name"`
	ContentSource    string         `db:"content_source"`
	ContentConfig    map[string]any `db:"content_config"` // stored as JSON
	AutopostInterval int            `db:"autopost_interval"` // seconds
	LikeThreshold    int            `db:"like_threshold"`
	DislikeThreshold int            `db:"dislike_threshold"`
	GoodBoardID      string         `db:"good_board_id"`
	GoodSectionID    string         `db:"good_section_id"`
	BadBoardID       string         `db:"bad_board_id"`
	BadSectionID     string         `db:"bad_section_id"`
	Enabled          bool           `db:"enabled"`
}

// Payload is the displayable part of a content item. Extra carries
// provider-specific fields: "source_pin_id", "image_signature" and
// "story_pin_data_id" feed the board-promotion path, "published" and
// "audio_preview" are informational.
type Payload struct {
	Title     string            `json:"title"`
	Caption   string            `json:"caption,omitempty"`
	MediaURL  string            `json:"media_url"`
	MediaType MediaType         `json:"media_type"`
	VideoURL  string            `json:"video_url,omitempty"`
	Permalink string            `json:"permalink,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// Candidate is an unposted item returned by a source fetch.
type Candidate struct {
	SourceType string
	SourceID   string
	Payload    Payload
}

// HasMedia reports whether the candidate carries anything publishable.
func (c Candidate) HasMedia() bool {
	return c.Payload.MediaURL != "" || c.Payload.VideoURL != ""
}

// ContentItem is the deduplicated, persisted form of a candidate.
type ContentItem struct {
	ID         int64   `db:"id"`
	SourceType string  `db:"source_type"`
	SourceID   string  `db:"source_id"` // Unique together with SourceType
	Payload    Payload `db:"payload"`   // stored as JSON
}

// Post is a channel's queued or published instance of a content item.
type Post struct {
	ID            int64      `db:"id"`
	ChannelID     int64      `db:"channel_id"`
	ContentItemID int64      `db:"content_item_id"` // Unique together with ChannelID
	Status        PostStatus `db:"status"`
	DiscordChatID string     `db:"discord_chat_id"`
	MessageID     string     `db:"message_id"`
	AudienceSize  int        `db:"audience_size"` // 0 when unknown
	PostedAt      *time.Time `db:"posted_at"`
	PinnedAt      *time.Time `db:"pinned_at"`
	QuarantinedAt *time.Time `db:"quarantined_at"`
}

// Vote is one voter's current choice on one post. Value is +1 or -1; a
// repeat vote by the same voter overwrites the previous value.
type Vote struct {
	PostID    int64     `db:"post_id"`
	UserID    string    `db:"user_id"`
	Value     int       `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}

// VoteAction names the terminal transition that newly fired during a
// vote registration, if any.
type VoteAction string

const (
	ActionNone        VoteAction = ""
	ActionPinned      VoteAction = "pinned"
	ActionQuarantined VoteAction = "quarantined"
)
