package pinterest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"curator-bot/models"
)

const defaultWebBaseURL = "https://www.pinterest.com"

// WebClient drives the cookie-authenticated pinterest.com resource
// endpoints. Unlike the v5 API it can repin an existing pin by id, which
// preserves the pin's media and stats instead of re-uploading.
type WebClient struct {
	httpClient   *http.Client
	baseURL      string
	cookieHeader string
	csrfToken    string
	userAgent    string
}

// NewWebClient creates a web client from a raw browser Cookie header.
func NewWebClient(cookieHeader, userAgent string) *WebClient {
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0 Safari/537.36"
	}
	return &WebClient{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		baseURL:      defaultWebBaseURL,
		cookieHeader: cookieHeader,
		csrfToken:    headerCookieValue(cookieHeader, "csrftoken"),
		userAgent:    userAgent,
	}
}

// NewWebClientWithBaseURL is used by tests to point the client at a stub server.
func NewWebClientWithBaseURL(cookieHeader, userAgent, baseURL string) *WebClient {
	c := NewWebClient(cookieHeader, userAgent)
	c.baseURL = baseURL
	return c
}

// SaveExistingPin repins a pin that already exists on Pinterest onto a
// board, optionally into a section.
func (c *WebClient) SaveExistingPin(ctx context.Context, pinID, boardID, sectionID, description string) error {
	options := map[string]any{
		"pin_id":          pinID,
		"board_id":        boardID,
		"description":     description,
		"link":            nil,
		"retain_comments": true,
	}
	if sectionID != "" {
		options["board_section_id"] = sectionID
	}
	body, err := c.postResource(ctx, "/resource/RepinResource/create/", "/pin/"+pinID+"/", options)
	if err != nil {
		return fmt.Errorf("repin %s to board %s: %w", pinID, boardID, err)
	}
	if body.ResourceResponse.Status != "success" {
		return fmt.Errorf("repin %s to board %s was not accepted", pinID, boardID)
	}
	return nil
}

// CreatePin builds a fresh pin from the item's media URL. Carries the
// image signature and story pin id through when the scraper collected
// them, which lets Pinterest link the upload back to the original media.
func (c *WebClient) CreatePin(ctx context.Context, boardID, sectionID string, p models.Payload) error {
	title := p.Title
	if title == "" {
		title = "Curator pick"
	}
	description := p.Caption
	if description == "" {
		description = title
	}
	// Pinterest rejects pins whose outbound link points back at itself.
	link := p.Permalink
	if strings.Contains(link, "pinterest.com") {
		link = ""
	}
	if link == "" {
		link = p.MediaURL
	}

	var mediaSource map[string]string
	switch {
	case p.VideoURL != "":
		mediaSource = map[string]string{
			"source_type":     "video_url",
			"url":             p.VideoURL,
			"cover_image_url": p.MediaURL,
		}
	case p.MediaURL != "":
		mediaSource = map[string]string{
			"source_type": "image_url",
			"url":         p.MediaURL,
		}
	default:
		return fmt.Errorf("pin for board %s has no media", boardID)
	}

	options := map[string]any{
		"board_id":     boardID,
		"title":        title,
		"description":  description,
		"link":         link,
		"media_source": mediaSource,
		"method":       "scraped",
	}
	if sectionID != "" {
		options["board_section_id"] = sectionID
	}
	if sig := p.Extra["image_signature"]; sig != "" {
		options["image_signature"] = sig
	}
	if storyID := p.Extra["story_pin_data_id"]; storyID != "" {
		options["story_pin_data_id"] = storyID
	}

	body, err := c.postResource(ctx, "/resource/PinResource/create/", "/pin-builder/", options)
	if err != nil {
		return fmt.Errorf("create pin on board %s: %w", boardID, err)
	}
	if body.Status != "success" && body.ResourceResponse.Status != "success" {
		return fmt.Errorf("pin create on board %s was not accepted", boardID)
	}
	return nil
}

type webResponse struct {
	Status           string `json:"status"`
	ResourceResponse struct {
		Status string `json:"status"`
	} `json:"resource_response"`
}

func (c *WebClient) postResource(ctx context.Context, path, sourceURL string, options map[string]any) (webResponse, error) {
	var decoded webResponse
	payload, err := json.Marshal(map[string]any{"options": options, "context": map[string]any{}})
	if err != nil {
		return decoded, fmt.Errorf("failed to encode resource options: %w", err)
	}
	form := url.Values{}
	form.Set("source_url", sourceURL)
	form.Set("data", string(payload))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return decoded, fmt.Errorf("failed to build resource request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Cookie", c.cookieHeader)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Referer", "https://www.pinterest.com/")
	req.Header.Set("Origin", "https://www.pinterest.com")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if c.csrfToken != "" {
		req.Header.Set("X-CSRFToken", c.csrfToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decoded, fmt.Errorf("resource request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decoded, fmt.Errorf("resource endpoint returned %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return decoded, fmt.Errorf("failed to decode resource response: %w", err)
	}
	return decoded, nil
}

// headerCookieValue extracts one value from a raw Cookie header.
func headerCookieValue(header, name string) string {
	for _, part := range strings.Split(header, ";") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) == 2 && kv[0] == name {
			return kv[1]
		}
	}
	return ""
}

// Boards routes board promotion to whichever Pinterest surface is
// configured. The v5 API is preferred; with only browser cookies, items
// scraped from Pinterest are repinned by their source pin id and
// anything else becomes a fresh pin.
type Boards struct {
	API *Client
	Web *WebClient
}

// Pin publishes an item's media to a board.
func (b *Boards) Pin(ctx context.Context, boardID, sectionID string, p models.Payload) error {
	if b.API != nil {
		return b.API.Pin(ctx, boardID, sectionID, p)
	}
	if b.Web != nil {
		if pinID := p.Extra["source_pin_id"]; pinID != "" {
			return b.Web.SaveExistingPin(ctx, pinID, boardID, sectionID, p.Caption)
		}
		return b.Web.CreatePin(ctx, boardID, sectionID, p)
	}
	return fmt.Errorf("no pinterest client configured")
}
