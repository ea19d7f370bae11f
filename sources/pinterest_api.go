package sources

import (
	"context"
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"curator-bot/models"
)

func init() {
	Register("pinterest", newRecommendationsSource)
}

type recommendationsOptions struct {
	Query string `mapstructure:"query"`
}

// recommendationsSource fetches pins from the Pinterest API search feed.
type recommendationsSource struct {
	env   Env
	query string
}

func newRecommendationsSource(cfg map[string]any, env Env) (Source, error) {
	if env.Pinterest == nil {
		return nil, fmt.Errorf("pinterest source requires PINTEREST_ACCESS_TOKEN")
	}
	var opts recommendationsOptions
	if err := mapstructure.Decode(cfg, &opts); err != nil {
		return nil, fmt.Errorf("invalid pinterest config: %w", err)
	}
	if opts.Query == "" {
		return nil, fmt.Errorf("pinterest source requires a query")
	}
	return &recommendationsSource{env: env, query: opts.Query}, nil
}

func (s *recommendationsSource) Name() string { return "pinterest" }

func (s *recommendationsSource) Fetch(ctx context.Context, limit int) ([]models.Candidate, error) {
	pins, err := s.env.Pinterest.SearchPins(ctx, s.query, limit)
	if err != nil {
		return nil, fmt.Errorf("pinterest search for %q: %w", s.query, err)
	}

	var items []models.Candidate
	for _, pin := range pins {
		if pin.ID == "" || (pin.MediaURL == "" && pin.VideoURL == "") {
			continue
		}
		mediaType := models.MediaPhoto
		if pin.VideoURL != "" {
			mediaType = models.MediaVideo
		}
		title := pin.Title
		if title == "" {
			title = "Untitled pick"
		}
		caption := pin.Description
		if caption == "" {
			caption = pin.Title
		}
		items = append(items, models.Candidate{
			SourceType: s.Name(),
			SourceID:   pin.ID,
			Payload: models.Payload{
				Title:     title,
				Caption:   caption,
				MediaURL:  pin.MediaURL,
				MediaType: mediaType,
				VideoURL:  pin.VideoURL,
				Permalink: pin.Link,
				Extra:     map[string]string{"source_pin_id": pin.ID},
			},
		})
	}
	return items, nil
}
