package pinterest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"curator-bot/models"
)

type resourceCall struct {
	path    string
	source  string
	options map[string]any
}

func webStub(t *testing.T, calls *[]resourceCall, status string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Cookie"); got != "csrftoken=tok; sess=abc" {
			t.Errorf("expected cookie auth, got %q", got)
		}
		if got := r.Header.Get("X-CSRFToken"); got != "tok" {
			t.Errorf("expected csrf token, got %q", got)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("bad form: %v", err)
		}
		var payload struct {
			Options map[string]any `json:"options"`
		}
		if err := json.Unmarshal([]byte(r.PostFormValue("data")), &payload); err != nil {
			t.Errorf("request data is not JSON: %v", err)
		}
		*calls = append(*calls, resourceCall{
			path:    r.URL.Path,
			source:  r.PostFormValue("source_url"),
			options: payload.Options,
		})
		json.NewEncoder(w).Encode(map[string]any{
			"status":            status,
			"resource_response": map[string]any{"status": status},
		})
	}))
}

func TestSaveExistingPin(t *testing.T) {
	var calls []resourceCall
	srv := webStub(t, &calls, "success")
	defer srv.Close()

	c := NewWebClientWithBaseURL("csrftoken=tok; sess=abc", "test-agent", srv.URL)
	if err := c.SaveExistingPin(context.Background(), "pin-9", "board-1", "section-1", "a caption"); err != nil {
		t.Fatalf("SaveExistingPin failed: %v", err)
	}

	if len(calls) != 1 {
		t.Fatalf("expected one request, got %d", len(calls))
	}
	call := calls[0]
	if call.path != "/resource/RepinResource/create/" || call.source != "/pin/pin-9/" {
		t.Fatalf("unexpected request target %s %s", call.path, call.source)
	}
	if call.options["pin_id"] != "pin-9" || call.options["board_id"] != "board-1" {
		t.Fatalf("unexpected repin options: %v", call.options)
	}
	if call.options["board_section_id"] != "section-1" || call.options["description"] != "a caption" {
		t.Fatalf("unexpected repin options: %v", call.options)
	}
}

func TestSaveExistingPinRejectedStatus(t *testing.T) {
	var calls []resourceCall
	srv := webStub(t, &calls, "failure")
	defer srv.Close()

	c := NewWebClientWithBaseURL("csrftoken=tok; sess=abc", "", srv.URL)
	if err := c.SaveExistingPin(context.Background(), "pin-9", "board-1", "", ""); err == nil {
		t.Fatal("expected an error when the repin is not accepted")
	}
}

func TestCreatePinCarriesScrapedIdentity(t *testing.T) {
	var calls []resourceCall
	srv := webStub(t, &calls, "success")
	defer srv.Close()

	c := NewWebClientWithBaseURL("csrftoken=tok; sess=abc", "", srv.URL)
	err := c.CreatePin(context.Background(), "board-1", "", models.Payload{
		Title:     "a meme",
		MediaURL:  "https://i.pinimg.com/a.jpg",
		Permalink: "https://www.pinterest.com/pin/1/",
		Extra: map[string]string{
			"image_signature":   "sig-1",
			"story_pin_data_id": "story-1",
		},
	})
	if err != nil {
		t.Fatalf("CreatePin failed: %v", err)
	}

	call := calls[0]
	if call.path != "/resource/PinResource/create/" || call.source != "/pin-builder/" {
		t.Fatalf("unexpected request target %s %s", call.path, call.source)
	}
	if call.options["image_signature"] != "sig-1" || call.options["story_pin_data_id"] != "story-1" {
		t.Fatalf("expected scraped identity in options: %v", call.options)
	}
	// Pinterest permalinks are dropped as outbound links; the media url
	// takes their place.
	if call.options["link"] != "https://i.pinimg.com/a.jpg" {
		t.Fatalf("unexpected link %v", call.options["link"])
	}
	media := call.options["media_source"].(map[string]any)
	if media["source_type"] != "image_url" || media["url"] != "https://i.pinimg.com/a.jpg" {
		t.Fatalf("unexpected media source: %v", media)
	}
}

func TestCreatePinVideoMediaSource(t *testing.T) {
	var calls []resourceCall
	srv := webStub(t, &calls, "success")
	defer srv.Close()

	c := NewWebClientWithBaseURL("csrftoken=tok; sess=abc", "", srv.URL)
	err := c.CreatePin(context.Background(), "board-1", "section-2", models.Payload{
		Title:    "a clip",
		MediaURL: "https://i.pinimg.com/cover.jpg",
		VideoURL: "https://v.pinimg.com/clip.mp4",
	})
	if err != nil {
		t.Fatal(err)
	}

	call := calls[0]
	media := call.options["media_source"].(map[string]any)
	if media["source_type"] != "video_url" || media["url"] != "https://v.pinimg.com/clip.mp4" {
		t.Fatalf("unexpected media source: %v", media)
	}
	if media["cover_image_url"] != "https://i.pinimg.com/cover.jpg" {
		t.Fatalf("expected the photo as video cover, got %v", media)
	}
	if call.options["board_section_id"] != "section-2" {
		t.Fatalf("expected the section carried, got %v", call.options)
	}
}

func TestBoardsPrefersAPIThenRepin(t *testing.T) {
	var calls []resourceCall
	webSrv := webStub(t, &calls, "success")
	defer webSrv.Close()

	apiCalls := 0
	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiCalls++
		w.WriteHeader(http.StatusCreated)
	}))
	defer apiSrv.Close()

	scraped := models.Payload{
		MediaURL: "https://i.pinimg.com/a.jpg",
		Extra:    map[string]string{"source_pin_id": "pin-5"},
	}
	ctx := context.Background()

	// With the API configured it wins regardless of the web client.
	both := &Boards{
		API: NewClientWithBaseURL("tok", apiSrv.URL),
		Web: NewWebClientWithBaseURL("csrftoken=tok; sess=abc", "", webSrv.URL),
	}
	if err := both.Pin(ctx, "board-1", "", scraped); err != nil {
		t.Fatal(err)
	}
	if apiCalls != 1 || len(calls) != 0 {
		t.Fatalf("expected the API path, got api=%d web=%d", apiCalls, len(calls))
	}

	// Web-only with a source pin id repins by id.
	webOnly := &Boards{Web: both.Web}
	if err := webOnly.Pin(ctx, "board-1", "", scraped); err != nil {
		t.Fatal(err)
	}
	if len(calls) != 1 || calls[0].path != "/resource/RepinResource/create/" {
		t.Fatalf("expected a repin call, got %+v", calls)
	}

	// Web-only without a source pin id falls back to creating a pin.
	if err := webOnly.Pin(ctx, "board-1", "", models.Payload{MediaURL: "https://i.pinimg.com/b.jpg"}); err != nil {
		t.Fatal(err)
	}
	if len(calls) != 2 || calls[1].path != "/resource/PinResource/create/" {
		t.Fatalf("expected a create call, got %+v", calls)
	}

	// Nothing configured is an error, which keeps the post retryable.
	if err := (&Boards{}).Pin(ctx, "board-1", "", scraped); err == nil {
		t.Fatal("expected an error with no client configured")
	}
}
