package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"curator-bot/models"
)

func init() {
	Register("pinterest_board_ideas", newBoardIdeasSource)
}

const ideasResourceURL = "https://www.pinterest.com/resource/BoardContentRecommendationResource/get/"

type ideasOptions struct {
	BoardID string `mapstructure:"board_id"`
	Locale  string `mapstructure:"locale"`
}

// boardIdeasSource scrapes the "more ideas for this board" feed of an
// owned Pinterest board. Same resource-endpoint plumbing as the search
// scraper, with the pins wrapped in story sections that mix in feed
// headers and the board's own pins.
type boardIdeasSource struct {
	boardID      string
	locale       string
	cookieHeader string
	csrfToken    string
	userAgent    string
	sourceURL    string
	resourceURL  string
	httpClient   *http.Client

	bookmark string
}

func newBoardIdeasSource(cfg map[string]any, env Env) (Source, error) {
	var opts ideasOptions
	if err := mapstructure.Decode(cfg, &opts); err != nil {
		return nil, fmt.Errorf("invalid pinterest_board_ideas config: %w", err)
	}
	if opts.BoardID == "" {
		return nil, fmt.Errorf("pinterest_board_ideas source requires board_id")
	}
	if env.PinterestCookie == "" {
		return nil, fmt.Errorf("pinterest_board_ideas requires PINTEREST_COOKIE")
	}
	if opts.Locale == "" {
		opts.Locale = "en-US"
	}
	userAgent := env.PinterestUserAgent
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0 Safari/537.36"
	}
	return &boardIdeasSource{
		boardID:      opts.BoardID,
		locale:       opts.Locale,
		cookieHeader: env.PinterestCookie,
		csrfToken:    cookieValue(env.PinterestCookie, "csrftoken"),
		userAgent:    userAgent,
		sourceURL:    "/?boardId=" + url.QueryEscape(opts.BoardID),
		resourceURL:  ideasResourceURL,
		httpClient:   &http.Client{Timeout: 25 * time.Second},
	}, nil
}

func (s *boardIdeasSource) Name() string { return "pinterest_board_ideas" }

const ideasMaxPages = 5

func (s *boardIdeasSource) Fetch(ctx context.Context, limit int) ([]models.Candidate, error) {
	if limit <= 0 {
		return nil, nil
	}
	seen := map[string]bool{}
	var items []models.Candidate
	for page := 0; page < ideasMaxPages && len(items) < limit; page++ {
		sections, bookmark, err := s.fetchPage(ctx)
		if err != nil {
			return nil, err
		}
		if len(sections) == 0 {
			break
		}
		for _, pin := range s.sectionPins(sections) {
			if seen[pin.ID] {
				continue
			}
			if c, ok := pinCandidate(s.Name(), pin.searchPin); ok {
				seen[pin.ID] = true
				items = append(items, c)
				if len(items) >= limit {
					break
				}
			}
		}
		s.bookmark = bookmark
		if bookmark == "" || bookmark == "-end-" {
			break
		}
	}
	return items, nil
}

// ideasPin is a pin as the recommendation feed carries it, with the
// owning board attached.
type ideasPin struct {
	searchPin
	Board *struct {
		ID string `json:"id"`
	} `json:"board"`
}

// ideasSection is one entry of the recommendation feed. Pins arrive
// either nested under a story section or as a bare section that is
// itself a pin.
type ideasSection struct {
	ideasPin
	Type                    string     `json:"type"`
	StoryType               string     `json:"story_type"`
	Objects                 []ideasPin `json:"objects"`
	ExpandedViewportObjects []ideasPin `json:"expanded_viewport_objects"`
}

type ideasResponse struct {
	ResourceResponse struct {
		Bookmark string         `json:"bookmark"`
		Data     []ideasSection `json:"data"`
	} `json:"resource_response"`
}

func (s *boardIdeasSource) fetchPage(ctx context.Context) ([]ideasSection, string, error) {
	options := map[string]any{
		"type": "board",
		"id":   s.boardID,
	}
	if s.bookmark != "" && s.bookmark != "-end-" {
		options["bookmarks"] = []string{s.bookmark}
	}
	payload, err := json.Marshal(map[string]any{"options": options, "context": map[string]any{}})
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode recommendation options: %w", err)
	}

	params := url.Values{}
	params.Set("source_url", s.sourceURL)
	params.Set("data", string(payload))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.resourceURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build recommendation request: %w", err)
	}
	req.Header.Set("Cookie", s.cookieHeader)
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept-Language", s.locale)
	req.Header.Set("Referer", "https://www.pinterest.com/")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if s.csrfToken != "" {
		req.Header.Set("X-CSRFToken", s.csrfToken)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("recommendation feed request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("recommendation feed returned %d", resp.StatusCode)
	}

	var decoded ideasResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, "", fmt.Errorf("failed to decode recommendation response: %w", err)
	}
	return decoded.ResourceResponse.Data, decoded.ResourceResponse.Bookmark, nil
}

// sectionPins flattens the feed sections into pins, dropping feed
// headers and pins that already sit on the scraped board.
func (s *boardIdeasSource) sectionPins(sections []ideasSection) []ideasPin {
	var pins []ideasPin
	for _, section := range sections {
		if section.StoryType == "simple_feed_header" {
			continue
		}
		candidates := append(section.Objects, section.ExpandedViewportObjects...)
		if len(candidates) == 0 && section.ID != "" {
			candidates = append(candidates, section.ideasPin)
		}
		for _, pin := range candidates {
			if pin.Board != nil && pin.Board.ID == s.boardID {
				continue
			}
			pins = append(pins, pin)
		}
	}
	return pins
}
