package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"curator-bot/models"
)

func init() {
	Register("pinterest_search", newSearchSource)
}

const searchResourceURL = "https://www.pinterest.com/resource/BaseSearchResource/get/"

type searchOptions struct {
	Query  string `mapstructure:"query"`
	Locale string `mapstructure:"locale"`
}

// searchSource scrapes the Pinterest search feed through the internal
// JSON resource endpoint, authenticating with browser cookies. The
// pagination bookmark lives on the instance, so consecutive fetches walk
// the feed instead of re-reading the first page; the autoposter's source
// cache keeps the instance alive between ticks.
type searchSource struct {
	query        string
	locale       string
	cookieHeader string
	csrfToken    string
	userAgent    string
	sourceURL    string
	resourceURL  string
	httpClient   *http.Client

	bookmark string
}

func newSearchSource(cfg map[string]any, env Env) (Source, error) {
	var opts searchOptions
	if err := mapstructure.Decode(cfg, &opts); err != nil {
		return nil, fmt.Errorf("invalid pinterest_search config: %w", err)
	}
	if opts.Query == "" {
		return nil, fmt.Errorf("pinterest_search source requires a query")
	}
	if env.PinterestCookie == "" {
		return nil, fmt.Errorf("pinterest_search requires PINTEREST_COOKIE")
	}
	if opts.Locale == "" {
		opts.Locale = "en-US"
	}
	userAgent := env.PinterestUserAgent
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0 Safari/537.36"
	}
	return &searchSource{
		query:        opts.Query,
		locale:       opts.Locale,
		cookieHeader: env.PinterestCookie,
		csrfToken:    cookieValue(env.PinterestCookie, "csrftoken"),
		userAgent:    userAgent,
		sourceURL:    "/search/pins/?q=" + url.QueryEscape(opts.Query) + "&rs=typed",
		resourceURL:  searchResourceURL,
		httpClient:   &http.Client{Timeout: 20 * time.Second},
	}, nil
}

func (s *searchSource) Name() string { return "pinterest_search" }

const searchMaxPages = 6

func (s *searchSource) Fetch(ctx context.Context, limit int) ([]models.Candidate, error) {
	if limit <= 0 {
		return nil, nil
	}
	var items []models.Candidate
	for page := 0; page < searchMaxPages && len(items) < limit; page++ {
		results, bookmark, err := s.fetchPage(ctx, limit-len(items))
		if err != nil {
			return nil, err
		}
		for _, pin := range results {
			if c, ok := pinCandidate(s.Name(), pin); ok {
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

type searchPin struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	GridTitle      string `json:"grid_title"`
	Description    string `json:"description"`
	Link           string `json:"link"`
	ImageSignature string `json:"image_signature"`
	StoryPinDataID string `json:"story_pin_data_id"`
	Images         map[string]struct {
		URL string `json:"url"`
	} `json:"images"`
	Videos *struct {
		VideoList map[string]struct {
			URL string `json:"url"`
		} `json:"video_list"`
	} `json:"videos"`
}

type searchResponse struct {
	ResourceResponse struct {
		Bookmark string `json:"bookmark"`
		Data     struct {
			Results []searchPin `json:"results"`
		} `json:"data"`
	} `json:"resource_response"`
}

func (s *searchSource) fetchPage(ctx context.Context, need int) ([]searchPin, string, error) {
	pageSize := need
	if pageSize < 24 {
		pageSize = 24
	}
	options := map[string]any{
		"query":                s.query,
		"scope":                "pins",
		"page_size":            pageSize,
		"rs":                   "typed",
		"source_url":           s.sourceURL,
		"redux_normalize_feed": true,
	}
	if s.bookmark != "" {
		options["bookmarks"] = []string{s.bookmark}
	}
	payload, err := json.Marshal(map[string]any{"options": options, "context": map[string]any{}})
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode search options: %w", err)
	}

	form := url.Values{}
	form.Set("data", string(payload))
	form.Set("source_url", s.sourceURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.resourceURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, "", fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Cookie", s.cookieHeader)
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept-Language", s.locale)
	req.Header.Set("Referer", "https://www.pinterest.com/")
	req.Header.Set("Origin", "https://www.pinterest.com")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if s.csrfToken != "" {
		req.Header.Set("X-CSRFToken", s.csrfToken)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("search feed request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("search feed returned %d", resp.StatusCode)
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, "", fmt.Errorf("failed to decode search feed response: %w", err)
	}
	return decoded.ResourceResponse.Data.Results, decoded.ResourceResponse.Bookmark, nil
}

// pinCandidate converts a scraped pin into a candidate. Shared by the
// search and board-ideas scrapers, which receive the same pin shape.
func pinCandidate(sourceType string, pin searchPin) (models.Candidate, bool) {
	if pin.ID == "" {
		return models.Candidate{}, false
	}
	mediaURL := ""
	if img, ok := pin.Images["orig"]; ok {
		mediaURL = img.URL
	} else {
		for _, img := range pin.Images {
			mediaURL = img.URL
			break
		}
	}
	videoURL := ""
	if pin.Videos != nil {
		for _, v := range pin.Videos.VideoList {
			if strings.HasSuffix(strings.Split(v.URL, "?")[0], ".mp4") {
				videoURL = v.URL
				break
			}
		}
	}
	if mediaURL == "" && videoURL == "" {
		return models.Candidate{}, false
	}

	title := pin.Title
	if title == "" {
		title = pin.GridTitle
	}
	mediaType := models.MediaPhoto
	if videoURL != "" {
		mediaType = models.MediaVideo
	}
	extra := map[string]string{"source_pin_id": pin.ID}
	if pin.ImageSignature != "" {
		extra["image_signature"] = pin.ImageSignature
	}
	if pin.StoryPinDataID != "" {
		extra["story_pin_data_id"] = pin.StoryPinDataID
	}
	permalink := pin.Link
	if permalink == "" {
		permalink = "https://www.pinterest.com/pin/" + pin.ID + "/"
	}
	return models.Candidate{
		SourceType: sourceType,
		SourceID:   pin.ID,
		Payload: models.Payload{
			Title:     title,
			Caption:   pin.Description,
			MediaURL:  mediaURL,
			MediaType: mediaType,
			VideoURL:  videoURL,
			Permalink: permalink,
			Extra:     extra,
		},
	}, true
}

// cookieValue extracts one value from a raw Cookie header.
func cookieValue(header, name string) string {
	for _, part := range strings.Split(header, ";") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) == 2 && kv[0] == name {
			return kv[1]
		}
	}
	return ""
}
