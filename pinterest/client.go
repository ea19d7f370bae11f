// Package pinterest wraps the Pinterest v5 REST API: pin search for the
// recommendation source and board publishing for vote-driven promotion.
package pinterest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"curator-bot/models"
)

const defaultBaseURL = "https://api.pinterest.com/v5"

// Client is an authenticated Pinterest API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient creates a client using the given access token.
func NewClient(accessToken string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		token:      accessToken,
	}
}

// NewClientWithBaseURL is used by tests to point the client at a stub server.
func NewClientWithBaseURL(accessToken, baseURL string) *Client {
	c := NewClient(accessToken)
	c.baseURL = baseURL
	return c
}

// Pin holds the fields of a search result this bot cares about.
type Pin struct {
	ID          string
	Title       string
	Description string
	Link        string
	MediaURL    string
	VideoURL    string
}

type searchResult struct {
	Items []struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Link        string `json:"link"`
		Media       struct {
			Images map[string]struct {
				URL string `json:"url"`
			} `json:"images"`
			Videos map[string]struct {
				URL string `json:"url"`
			} `json:"videos"`
		} `json:"media"`
	} `json:"items"`
}

// SearchPins queries the pin search endpoint.
func (c *Client) SearchPins(ctx context.Context, query string, limit int) ([]Pin, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("page_size", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search/pins?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pin search failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("pin search returned %d: %s", resp.StatusCode, body)
	}

	var result searchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	pins := make([]Pin, 0, len(result.Items))
	for _, item := range result.Items {
		pin := Pin{
			ID:          item.ID,
			Title:       item.Title,
			Description: item.Description,
			Link:        item.Link,
		}
		for _, img := range item.Media.Images {
			pin.MediaURL = img.URL
			break
		}
		for _, vid := range item.Media.Videos {
			pin.VideoURL = vid.URL
			break
		}
		if pin.MediaURL == "" {
			pin.MediaURL = pin.VideoURL
		}
		pins = append(pins, pin)
	}
	return pins, nil
}

// Pin publishes a content item's media to a board, optionally into a
// section. Implements the board-promotion contract used by voting.
func (c *Client) Pin(ctx context.Context, boardID, sectionID string, p models.Payload) error {
	title := p.Title
	if title == "" {
		title = "Curator pick"
	}
	body := map[string]any{
		"board_id": boardID,
		"title":    truncate(title, 60),
		"media_source": map[string]string{
			"source_type": "image_url",
			"url":         p.MediaURL,
		},
	}
	if p.Caption != "" {
		body["description"] = truncate(p.Caption, 500)
	}
	if sectionID != "" {
		body["board_section_id"] = sectionID
	}
	if p.Permalink != "" {
		body["link"] = p.Permalink
	}

	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode pin request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/pins", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build pin request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("pin create failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("pin create returned %d: %s", resp.StatusCode, detail)
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
