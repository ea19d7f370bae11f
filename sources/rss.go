package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/mmcdole/gofeed"

	"curator-bot/models"
)

func init() {
	Register("pinterest_rss", newRSSSource)
}

type rssOptions struct {
	FeedURL string `mapstructure:"feed_url"`
	Limit   int    `mapstructure:"limit"`
}

// rssSource fetches pins from a public Pinterest board RSS feed.
type rssSource struct {
	feedURL string
	limit   int
	parser  *gofeed.Parser
}

func newRSSSource(cfg map[string]any, _ Env) (Source, error) {
	var opts rssOptions
	if err := mapstructure.Decode(cfg, &opts); err != nil {
		return nil, fmt.Errorf("invalid pinterest_rss config: %w", err)
	}
	if opts.FeedURL == "" {
		return nil, fmt.Errorf("pinterest_rss source requires feed_url")
	}
	parsed, err := url.Parse(opts.FeedURL)
	if err != nil || !strings.Contains(parsed.Host, "pinterest") {
		return nil, fmt.Errorf("feed_url must belong to pinterest.com: %s", opts.FeedURL)
	}
	if opts.Limit <= 0 {
		opts.Limit = 25
	}
	return &rssSource{
		feedURL: opts.FeedURL,
		limit:   opts.Limit,
		parser:  gofeed.NewParser(),
	}, nil
}

func (s *rssSource) Name() string { return "pinterest_rss" }

func (s *rssSource) Fetch(ctx context.Context, limit int) ([]models.Candidate, error) {
	feed, err := s.parser.ParseURLWithContext(s.feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", s.feedURL, err)
	}

	max := limit
	if s.limit < max {
		max = s.limit
	}
	var items []models.Candidate
	for _, entry := range feed.Items {
		if len(items) >= max {
			break
		}
		c, ok := s.entryToCandidate(entry)
		if !ok {
			continue
		}
		items = append(items, c)
	}
	return items, nil
}

func (s *rssSource) entryToCandidate(entry *gofeed.Item) (models.Candidate, bool) {
	guid := entry.GUID
	if guid == "" {
		guid = entry.Link
	}
	if guid == "" {
		return models.Candidate{}, false
	}

	mediaURL := mediaContentURL(entry)
	if mediaURL == "" && entry.Image != nil {
		mediaURL = entry.Image.URL
	}
	if mediaURL == "" {
		mediaURL = entry.Link
	}
	if mediaURL == "" {
		return models.Candidate{}, false
	}

	title := entry.Title
	if title == "" {
		title = "RSS Pin"
	}
	caption := entry.Description
	if caption == "" {
		caption = entry.Title
	}
	extra := map[string]string{}
	if entry.Published != "" {
		extra["published"] = entry.Published
	}
	return models.Candidate{
		SourceType: s.Name(),
		SourceID:   guid,
		Payload: models.Payload{
			Title:     title,
			Caption:   caption,
			MediaURL:  mediaURL,
			MediaType: models.MediaPhoto,
			Permalink: entry.Link,
			Extra:     extra,
		},
	}, true
}

// mediaContentURL pulls the first media:content url extension, which is
// where Pinterest feeds carry the image.
func mediaContentURL(entry *gofeed.Item) string {
	media, ok := entry.Extensions["media"]
	if !ok {
		return ""
	}
	for _, ext := range media["content"] {
		if u := ext.Attrs["url"]; u != "" {
			return u
		}
	}
	return ""
}
