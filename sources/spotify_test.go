package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func spotifyFixtureServer(t *testing.T, tokenGrants *[]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("bad token form: %v", err)
		}
		*tokenGrants = append(*tokenGrants, r.PostFormValue("grant_type"))
		if r.Header.Get("Authorization") == "" {
			t.Error("expected basic auth on the token request")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "token-1",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/v1/playlists/pl-1/tracks", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer token-1" {
			t.Errorf("expected bearer token, got %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{
					"track": map[string]any{
						"id":   "trk-1",
						"name": "Cool Song",
						"album": map[string]any{
							"images": []map[string]any{
								{"url": "https://img.spotify.example/large.jpg"},
								{"url": "https://img.spotify.example/small.jpg"},
							},
						},
						"artists":       []map[string]any{{"name": "Artist A"}, {"name": "Artist B"}},
						"external_urls": map[string]any{"spotify": "https://open.spotify.com/track/trk-1"},
						"preview_url":   "https://p.scdn.example/preview.mp3",
					},
				},
				{"track": nil}, // removed track slot
				{
					"track": map[string]any{
						"id":    "trk-2",
						"name":  "No Art",
						"album": map[string]any{"images": []map[string]any{}},
					},
				},
			},
		})
	})
	return httptest.NewServer(mux)
}

func newTestSpotifyClient(srvURL, refreshToken string) *SpotifyClient {
	c := NewSpotifyClient("id", "secret", refreshToken)
	c.tokenURL = srvURL + "/token"
	c.apiURL = srvURL + "/v1"
	return c
}

func TestSpotifySourceFetch(t *testing.T) {
	var grants []string
	srv := spotifyFixtureServer(t, &grants)
	defer srv.Close()

	client := newTestSpotifyClient(srv.URL, "")
	src, err := New("spotify_playlist", map[string]any{"playlist_id": "pl-1"}, Env{Spotify: client})
	if err != nil {
		t.Fatalf("constructor failed: %v", err)
	}

	items, err := src.Fetch(context.Background(), 10)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	// The removed slot and the artless track are skipped.
	if len(items) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(items))
	}
	got := items[0]
	if got.SourceID != "trk-1" || got.SourceType != "spotify_playlist" {
		t.Fatalf("unexpected identity: %+v", got)
	}
	if got.Payload.MediaURL != "https://img.spotify.example/large.jpg" {
		t.Fatalf("expected the largest album image, got %q", got.Payload.MediaURL)
	}
	if got.Payload.Caption != "Artist A, Artist B - Cool Song" {
		t.Fatalf("unexpected caption %q", got.Payload.Caption)
	}
	if got.Payload.Permalink != "https://open.spotify.com/track/trk-1" {
		t.Fatalf("unexpected permalink %q", got.Payload.Permalink)
	}
	if got.Payload.Extra["audio_preview"] != "https://p.scdn.example/preview.mp3" {
		t.Fatalf("expected the preview url in extra, got %v", got.Payload.Extra)
	}

	if len(grants) != 1 || grants[0] != "client_credentials" {
		t.Fatalf("expected one client_credentials grant, got %v", grants)
	}

	// The cached token is reused while valid.
	if _, err := src.Fetch(context.Background(), 10); err != nil {
		t.Fatal(err)
	}
	if len(grants) != 1 {
		t.Fatalf("expected the token to be cached, saw %d grants", len(grants))
	}
}

func TestSpotifyClientRefreshGrantAndExpiry(t *testing.T) {
	var grants []string
	srv := spotifyFixtureServer(t, &grants)
	defer srv.Close()

	client := newTestSpotifyClient(srv.URL, "refresh-abc")
	if _, err := client.FetchPlaylist(context.Background(), "pl-1", 10); err != nil {
		t.Fatal(err)
	}
	if len(grants) != 1 || grants[0] != "refresh_token" {
		t.Fatalf("expected a refresh_token grant, got %v", grants)
	}

	// Force the token to the edge of expiry; the next call refreshes.
	client.mu.Lock()
	client.expiresAt = time.Now().Add(10 * time.Second)
	client.mu.Unlock()
	if _, err := client.FetchPlaylist(context.Background(), "pl-1", 10); err != nil {
		t.Fatal(err)
	}
	if len(grants) != 2 {
		t.Fatalf("expected a second grant near expiry, got %v", grants)
	}
}

func TestSpotifySourceConfigValidation(t *testing.T) {
	client := NewSpotifyClient("id", "secret", "")
	if _, err := New("spotify_playlist", map[string]any{"playlist_id": "x"}, Env{}); err == nil {
		t.Fatal("expected an error without a spotify client")
	}
	if _, err := New("spotify_playlist", map[string]any{}, Env{Spotify: client}); err == nil {
		t.Fatal("expected an error without playlist_id")
	}
	src, err := New("spotify_playlist", map[string]any{
		"playlist_id":      "x",
		"caption_template": "{title} by {artist}",
	}, Env{Spotify: client})
	if err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	if src.Name() != "spotify_playlist" {
		t.Fatalf("unexpected name %q", src.Name())
	}
}
