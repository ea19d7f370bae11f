package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Settings is the resolved process configuration. It is built once by
// Load and handed to each component's constructor; nothing reads viper
// after startup.
type Settings struct {
	BotToken       string
	AdminIDs       []string
	DatabasePath   string
	AdminChannelID string

	// Autoposting.
	PostingIntervalSeconds int
	MaxPostsPerRun         int
	PostingStartHour       int
	PostingEndHour         int
	Timezone               string
	TickAtStartup          bool

	// Default vote thresholds for newly registered channels.
	LikeThreshold    int
	DislikeThreshold int

	QuarantineChannelID string

	// Provider credentials shared by all channels.
	PinterestAccessToken string
	PinterestCookie      string
	PinterestUserAgent   string
	SpotifyClientID      string
	SpotifyClientSecret  string
	SpotifyRefreshToken  string
}

// Location resolves the configured posting-window time zone, falling
// back to UTC when the name is empty or unknown.
func (s Settings) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		log.Printf("Unknown timezone %q, falling back to UTC", s.Timezone)
		return time.UTC
	}
	return loc
}

// Load reads configuration from a .env file, config.yaml and the
// environment. Environment variables override file settings.
func Load() (Settings, error) {
	// A missing .env is fine; the environment may carry everything.
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, skipping.")
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("posting.intervalSeconds", 900)
	viper.SetDefault("posting.maxPostsPerRun", 5)
	viper.SetDefault("posting.startHour", 0)
	viper.SetDefault("posting.endHour", 24)
	viper.SetDefault("posting.timezone", "UTC")
	viper.SetDefault("posting.tickAtStartup", false)
	viper.SetDefault("votes.likeThreshold", 20)
	viper.SetDefault("votes.dislikeThreshold", -10)
	viper.SetDefault("DATABASE_PATH", "./data/curator.db")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("Config file not found, using environment variables and defaults.")
		} else {
			return Settings{}, fmt.Errorf("fatal error reading config file: %w", err)
		}
	}

	s := Settings{
		BotToken:               viper.GetString("BOT_TOKEN"),
		AdminIDs:               splitList(viper.GetString("bot.adminIds")),
		DatabasePath:           viper.GetString("DATABASE_PATH"),
		AdminChannelID:         viper.GetString("bot.adminChannelId"),
		PostingIntervalSeconds: viper.GetInt("posting.intervalSeconds"),
		MaxPostsPerRun:         viper.GetInt("posting.maxPostsPerRun"),
		PostingStartHour:       viper.GetInt("posting.startHour"),
		PostingEndHour:         viper.GetInt("posting.endHour"),
		Timezone:               viper.GetString("posting.timezone"),
		TickAtStartup:          viper.GetBool("posting.tickAtStartup"),
		LikeThreshold:          viper.GetInt("votes.likeThreshold"),
		DislikeThreshold:       viper.GetInt("votes.dislikeThreshold"),
		QuarantineChannelID:    viper.GetString("QUARANTINE_CHANNEL_ID"),
		PinterestAccessToken:   viper.GetString("PINTEREST_ACCESS_TOKEN"),
		PinterestCookie:        viper.GetString("PINTEREST_COOKIE"),
		PinterestUserAgent:     viper.GetString("PINTEREST_USER_AGENT"),
		SpotifyClientID:        viper.GetString("SPOTIFY_CLIENT_ID"),
		SpotifyClientSecret:    viper.GetString("SPOTIFY_CLIENT_SECRET"),
		SpotifyRefreshToken:    viper.GetString("SPOTIFY_REFRESH_TOKEN"),
	}

	if s.BotToken == "" {
		return Settings{}, fmt.Errorf("no bot token provided: set BOT_TOKEN in .env or config.yaml")
	}
	return s, nil
}

// splitList splits a comma or semicolon separated id list.
func splitList(raw string) []string {
	raw = strings.ReplaceAll(raw, ";", ",")
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
