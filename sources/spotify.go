package sources

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"curator-bot/models"
)

func init() {
	Register("spotify_playlist", newSpotifySource)
}

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyAPIURL   = "https://api.spotify.com/v1"
)

// SpotifyClient authenticates against the Spotify Web API and fetches
// playlist contents. One client is shared by all spotify channels.
type SpotifyClient struct {
	clientID     string
	clientSecret string
	refreshToken string
	httpClient   *http.Client
	tokenURL     string
	apiURL       string

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewSpotifyClient creates a client. refreshToken may be empty, in which
// case the client-credentials grant is used.
func NewSpotifyClient(clientID, clientSecret, refreshToken string) *SpotifyClient {
	return &SpotifyClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		refreshToken: refreshToken,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		tokenURL:     spotifyTokenURL,
		apiURL:       spotifyAPIURL,
	}
}

// ensureToken refreshes the access token when it is missing or within
// 30 seconds of expiry.
func (c *SpotifyClient) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.expiresAt.Add(-30*time.Second)) {
		return c.token, nil
	}

	form := url.Values{}
	if c.refreshToken != "" {
		form.Set("grant_type", "refresh_token")
		form.Set("refresh_token", c.refreshToken)
	} else {
		form.Set("grant_type", "client_credentials")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	auth := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.clientSecret))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request returned %d", resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if payload.ExpiresIn <= 0 {
		payload.ExpiresIn = 3600
	}
	c.token = payload.AccessToken
	c.expiresAt = time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	return c.token, nil
}

type spotifyTrackEntry struct {
	Track *struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Album struct {
			Images []struct {
				URL string `json:"url"`
			} `json:"images"`
		} `json:"album"`
		Artists []struct {
			Name string `json:"name"`
		} `json:"artists"`
		ExternalURLs struct {
			Spotify string `json:"spotify"`
		} `json:"external_urls"`
		PreviewURL string `json:"preview_url"`
	} `json:"track"`
}

// FetchPlaylist returns up to limit entries of a playlist.
func (c *SpotifyClient) FetchPlaylist(ctx context.Context, playlistID string, limit int) ([]spotifyTrackEntry, error) {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/playlists/%s/tracks?limit=%s", c.apiURL, playlistID, strconv.Itoa(limit))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build playlist request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("playlist request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("playlist request returned %d", resp.StatusCode)
	}

	var data struct {
		Items []spotifyTrackEntry `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode playlist response: %w", err)
	}
	return data.Items, nil
}

type spotifyOptions struct {
	PlaylistID      string `mapstructure:"playlist_id"`
	CaptionTemplate string `mapstructure:"caption_template"`
}

// spotifySource posts playlist tracks as album-art candidates.
type spotifySource struct {
	client          *SpotifyClient
	playlistID      string
	captionTemplate string
}

func newSpotifySource(cfg map[string]any, env Env) (Source, error) {
	if env.Spotify == nil {
		return nil, fmt.Errorf("spotify_playlist source requires SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET")
	}
	var opts spotifyOptions
	if err := mapstructure.Decode(cfg, &opts); err != nil {
		return nil, fmt.Errorf("invalid spotify_playlist config: %w", err)
	}
	if opts.PlaylistID == "" {
		return nil, fmt.Errorf("spotify_playlist source requires playlist_id")
	}
	if opts.CaptionTemplate == "" {
		opts.CaptionTemplate = "{artist} - {title}"
	}
	return &spotifySource{
		client:          env.Spotify,
		playlistID:      opts.PlaylistID,
		captionTemplate: opts.CaptionTemplate,
	}, nil
}

func (s *spotifySource) Name() string { return "spotify_playlist" }

func (s *spotifySource) Fetch(ctx context.Context, limit int) ([]models.Candidate, error) {
	entries, err := s.client.FetchPlaylist(ctx, s.playlistID, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch playlist %s: %w", s.playlistID, err)
	}

	var items []models.Candidate
	for _, entry := range entries {
		track := entry.Track
		if track == nil || track.ID == "" || len(track.Album.Images) == 0 {
			continue
		}
		var artists []string
		for _, a := range track.Artists {
			artists = append(artists, a.Name)
		}
		caption := strings.NewReplacer(
			"{artist}", strings.Join(artists, ", "),
			"{title}", track.Name,
		).Replace(s.captionTemplate)

		extra := map[string]string{}
		if track.PreviewURL != "" {
			extra["audio_preview"] = track.PreviewURL
		}
		items = append(items, models.Candidate{
			SourceType: s.Name(),
			SourceID:   track.ID,
			Payload: models.Payload{
				Title:     track.Name,
				Caption:   caption,
				MediaURL:  track.Album.Images[0].URL,
				MediaType: models.MediaPhoto,
				Permalink: track.ExternalURLs.Spotify,
				Extra:     extra,
			},
		})
	}
	return items, nil
}
