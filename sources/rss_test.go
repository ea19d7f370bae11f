package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mmcdole/gofeed"

	"curator-bot/models"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
  <channel>
    <title>memes</title>
    <item>
      <title>First pin</title>
      <link>https://www.pinterest.com/pin/111/</link>
      <guid>https://www.pinterest.com/pin/111/</guid>
      <description>a very good meme</description>
      <pubDate>Mon, 24 Aug 2026 10:00:00 GMT</pubDate>
      <media:content url="https://i.pinimg.com/originals/aa/11.jpg" medium="image"/>
    </item>
    <item>
      <title></title>
      <link>https://www.pinterest.com/pin/222/</link>
      <guid>https://www.pinterest.com/pin/222/</guid>
      <description></description>
    </item>
    <item>
      <title>No identifiers at all</title>
    </item>
  </channel>
</rss>`

func TestRSSSourceConfigValidation(t *testing.T) {
	if _, err := New("pinterest_rss", map[string]any{}, Env{}); err == nil {
		t.Fatal("expected an error without feed_url")
	}
	if _, err := New("pinterest_rss", map[string]any{"feed_url": "https://evil.example/feed.rss"}, Env{}); err == nil {
		t.Fatal("expected an error for a non-pinterest feed host")
	}
	if _, err := New("pinterest_rss", map[string]any{"feed_url": 42}, Env{}); err == nil {
		t.Fatal("expected an error for a malformed config value")
	}
	src, err := New("pinterest_rss", map[string]any{"feed_url": "https://www.pinterest.com/user/board.rss"}, Env{})
	if err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	if src.Name() != "pinterest_rss" {
		t.Fatalf("unexpected source name %q", src.Name())
	}
}

func TestRSSSourceFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(testFeed))
	}))
	defer srv.Close()

	src := &rssSource{feedURL: srv.URL, limit: 25, parser: gofeed.NewParser()}
	items, err := src.Fetch(context.Background(), 10)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	// The third entry has no guid and no link and is dropped.
	if len(items) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(items))
	}

	first := items[0]
	if first.SourceID != "https://www.pinterest.com/pin/111/" {
		t.Fatalf("expected the guid as source id, got %q", first.SourceID)
	}
	if first.Payload.MediaURL != "https://i.pinimg.com/originals/aa/11.jpg" {
		t.Fatalf("expected the media:content url, got %q", first.Payload.MediaURL)
	}
	if first.Payload.Title != "First pin" || first.Payload.Caption != "a very good meme" {
		t.Fatalf("unexpected payload text: %+v", first.Payload)
	}
	if first.Payload.MediaType != models.MediaPhoto {
		t.Fatalf("expected photo media type, got %q", first.Payload.MediaType)
	}
	if first.Payload.Extra["published"] == "" {
		t.Fatal("expected the publish date carried in extra")
	}

	// The second entry has no media:content and falls back to its link,
	// and gets the placeholder title.
	second := items[1]
	if second.Payload.MediaURL != "https://www.pinterest.com/pin/222/" {
		t.Fatalf("expected link fallback for media, got %q", second.Payload.MediaURL)
	}
	if second.Payload.Title != "RSS Pin" {
		t.Fatalf("expected placeholder title, got %q", second.Payload.Title)
	}
}

func TestRSSSourceFetchRespectsLimits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testFeed))
	}))
	defer srv.Close()

	src := &rssSource{feedURL: srv.URL, limit: 1, parser: gofeed.NewParser()}
	items, err := src.Fetch(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("expected the configured limit to cap the batch, got %d", len(items))
	}
}
