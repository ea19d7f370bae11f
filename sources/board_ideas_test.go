package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"curator-bot/models"
)

func ideasFixture(bookmark string, sections ...map[string]any) []byte {
	body := map[string]any{
		"resource_response": map[string]any{
			"bookmark": bookmark,
			"data":     sections,
		},
	}
	data, _ := json.Marshal(body)
	return data
}

func newTestIdeasSource(resourceURL string) *boardIdeasSource {
	return &boardIdeasSource{
		boardID:      "board-77",
		locale:       "en-US",
		cookieHeader: "csrftoken=tok; sess=abc",
		csrfToken:    "tok",
		userAgent:    "test-agent",
		sourceURL:    "/?boardId=board-77",
		resourceURL:  resourceURL,
		httpClient:   &http.Client{Timeout: 5 * time.Second},
	}
}

func TestBoardIdeasConfigValidation(t *testing.T) {
	env := Env{PinterestCookie: "csrftoken=tok"}
	if _, err := New("pinterest_board_ideas", map[string]any{}, env); err == nil {
		t.Fatal("expected an error without board_id")
	}
	if _, err := New("pinterest_board_ideas", map[string]any{"board_id": "b"}, Env{}); err == nil {
		t.Fatal("expected an error without a cookie")
	}
	src, err := New("pinterest_board_ideas", map[string]any{"board_id": "b"}, env)
	if err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	if src.Name() != "pinterest_board_ideas" {
		t.Fatalf("unexpected source name %q", src.Name())
	}
}

func TestBoardIdeasFetchFlattensSections(t *testing.T) {
	var gotRequest struct {
		cookie string
		data   string
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequest.cookie = r.Header.Get("Cookie")
		gotRequest.data = r.URL.Query().Get("data")
		w.Write(ideasFixture("-end-",
			map[string]any{"story_type": "simple_feed_header", "id": "hdr-1"},
			map[string]any{
				"type": "story",
				"objects": []map[string]any{
					{
						"id":     "2001",
						"title":  "idea one",
						"images": map[string]any{"orig": map[string]any{"url": "https://i.pinimg.com/2001.jpg"}},
					},
					{
						// Already on the scraped board, must be skipped.
						"id":     "2002",
						"board":  map[string]any{"id": "board-77"},
						"images": map[string]any{"orig": map[string]any{"url": "https://i.pinimg.com/2002.jpg"}},
					},
				},
			},
			map[string]any{
				// A bare pin section, repeated id deduplicated.
				"id":     "2001",
				"images": map[string]any{"orig": map[string]any{"url": "https://i.pinimg.com/2001.jpg"}},
			},
			map[string]any{
				"id":              "2003",
				"image_signature": "sig-3",
				"images":          map[string]any{"orig": map[string]any{"url": "https://i.pinimg.com/2003.jpg"}},
			},
		))
	}))
	defer srv.Close()

	src := newTestIdeasSource(srv.URL)
	items, err := src.Fetch(context.Background(), 10)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(items))
	}

	if gotRequest.cookie != "csrftoken=tok; sess=abc" {
		t.Fatalf("expected cookie auth, got %q", gotRequest.cookie)
	}
	var opts struct {
		Options map[string]any `json:"options"`
	}
	if err := json.Unmarshal([]byte(gotRequest.data), &opts); err != nil {
		t.Fatalf("request data is not JSON: %v", err)
	}
	if opts.Options["type"] != "board" || opts.Options["id"] != "board-77" {
		t.Fatalf("unexpected request options: %v", opts.Options)
	}

	if items[0].SourceID != "2001" || items[1].SourceID != "2003" {
		t.Fatalf("unexpected candidates: %q, %q", items[0].SourceID, items[1].SourceID)
	}
	if items[0].SourceType != "pinterest_board_ideas" {
		t.Fatalf("unexpected source type %q", items[0].SourceType)
	}
	if items[0].Payload.MediaType != models.MediaPhoto {
		t.Fatalf("expected photo media type, got %q", items[0].Payload.MediaType)
	}
	if items[1].Payload.Extra["image_signature"] != "sig-3" {
		t.Fatalf("expected the image signature carried, got %v", items[1].Payload.Extra)
	}
}

func TestBoardIdeasPaginatesWithBookmark(t *testing.T) {
	var bookmarksSeen []any
	page := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var opts struct {
			Options map[string]any `json:"options"`
		}
		json.Unmarshal([]byte(r.URL.Query().Get("data")), &opts)
		bookmarksSeen = append(bookmarksSeen, opts.Options["bookmarks"])

		page++
		switch page {
		case 1:
			w.Write(ideasFixture("page-2", map[string]any{
				"id":     "1",
				"images": map[string]any{"orig": map[string]any{"url": "https://i.pinimg.com/1.jpg"}},
			}))
		default:
			w.Write(ideasFixture("-end-", map[string]any{
				"id":     "2",
				"images": map[string]any{"orig": map[string]any{"url": "https://i.pinimg.com/2.jpg"}},
			}))
		}
	}))
	defer srv.Close()

	src := newTestIdeasSource(srv.URL)
	items, err := src.Fetch(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("expected candidates from both pages, got %d", len(items))
	}
	if bookmarksSeen[0] != nil {
		t.Fatalf("expected no bookmark on the first page, got %v", bookmarksSeen[0])
	}
	if got, ok := bookmarksSeen[1].([]any); !ok || len(got) != 1 || got[0] != "page-2" {
		t.Fatalf("expected the first page's bookmark on the second request, got %v", bookmarksSeen[1])
	}
	if src.bookmark != "-end-" {
		t.Fatalf("expected the terminal bookmark persisted, got %q", src.bookmark)
	}
}

func TestBoardIdeasFailsOnHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer srv.Close()

	src := newTestIdeasSource(srv.URL)
	if _, err := src.Fetch(context.Background(), 5); err == nil {
		t.Fatal("expected an error on a non-200 response")
	}
}
