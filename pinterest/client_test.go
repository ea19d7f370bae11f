package pinterest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"curator-bot/models"
)

func TestSearchPins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/pins" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("expected bearer auth, got %q", got)
		}
		if got := r.URL.Query().Get("query"); got != "vintage posters" {
			t.Errorf("unexpected query %q", got)
		}
		if got := r.URL.Query().Get("page_size"); got != "12" {
			t.Errorf("unexpected page_size %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{
					"id":          "p1",
					"title":       "poster",
					"description": "nice one",
					"link":        "https://example.com/p1",
					"media": map[string]any{
						"images": map[string]any{
							"600x": map[string]any{"url": "https://i.pinimg.com/600x/p1.jpg"},
						},
					},
				},
				{
					"id": "p2",
					"media": map[string]any{
						"videos": map[string]any{
							"V_720P": map[string]any{"url": "https://v.pinimg.com/p2.mp4"},
						},
					},
				},
			},
		})
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("tok", srv.URL)
	pins, err := c.SearchPins(context.Background(), "vintage posters", 12)
	if err != nil {
		t.Fatalf("SearchPins failed: %v", err)
	}
	if len(pins) != 2 {
		t.Fatalf("expected 2 pins, got %d", len(pins))
	}
	if pins[0].ID != "p1" || pins[0].MediaURL != "https://i.pinimg.com/600x/p1.jpg" {
		t.Fatalf("unexpected first pin: %+v", pins[0])
	}
	// A video-only pin reuses the video url as its media url.
	if pins[1].VideoURL != "https://v.pinimg.com/p2.mp4" || pins[1].MediaURL != pins[1].VideoURL {
		t.Fatalf("unexpected video pin: %+v", pins[1])
	}
}

func TestSearchPinsSurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"token expired"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("tok", srv.URL)
	_, err := c.SearchPins(context.Background(), "x", 5)
	if err == nil {
		t.Fatal("expected an error on 401")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected the status code in the error, got %v", err)
	}
}

func TestPinCreateRequest(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pins" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("bad body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("tok", srv.URL)
	longTitle := strings.Repeat("t", 80)
	err := c.Pin(context.Background(), "board-1", "section-1", models.Payload{
		Title:     longTitle,
		Caption:   "hello",
		MediaURL:  "https://i.pinimg.com/a.jpg",
		Permalink: "https://www.pinterest.com/pin/1/",
	})
	if err != nil {
		t.Fatalf("Pin failed: %v", err)
	}

	if body["board_id"] != "board-1" || body["board_section_id"] != "section-1" {
		t.Fatalf("unexpected board fields: %v", body)
	}
	if got := body["title"].(string); len(got) != 60 {
		t.Fatalf("expected the title truncated to 60, got %d chars", len(got))
	}
	if body["description"] != "hello" || body["link"] != "https://www.pinterest.com/pin/1/" {
		t.Fatalf("unexpected text fields: %v", body)
	}
	media := body["media_source"].(map[string]any)
	if media["source_type"] != "image_url" || media["url"] != "https://i.pinimg.com/a.jpg" {
		t.Fatalf("unexpected media source: %v", media)
	}
}

func TestPinOmitsOptionalFields(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("tok", srv.URL)
	if err := c.Pin(context.Background(), "board-1", "", models.Payload{MediaURL: "u"}); err != nil {
		t.Fatal(err)
	}
	if _, ok := body["board_section_id"]; ok {
		t.Fatal("expected no section field without a section id")
	}
	if _, ok := body["description"]; ok {
		t.Fatal("expected no description without a caption")
	}
	if body["title"] != "Curator pick" {
		t.Fatalf("expected the default title, got %v", body["title"])
	}
}
