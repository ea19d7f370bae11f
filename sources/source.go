// Package sources provides the content-source implementations and the
// registry that maps a channel's source key to a constructor.
package sources

import (
	"context"
	"fmt"
	"sort"

	"curator-bot/models"
	"curator-bot/pinterest"
)

// Source produces content candidates for a channel. Fetch returns up to
// limit fresh candidates sorted newest first; on failure it returns an
// error or an empty slice, never partial items.
type Source interface {
	Name() string
	Fetch(ctx context.Context, limit int) ([]models.Candidate, error)
}

// Env carries process-level provider credentials shared by every
// channel. Channel config cannot override these.
type Env struct {
	Pinterest          *pinterest.Client
	PinterestCookie    string
	PinterestUserAgent string
	Spotify            *SpotifyClient
}

// Constructor builds a source from a channel's opaque config map.
type Constructor func(cfg map[string]any, env Env) (Source, error)

var registry = map[string]Constructor{}

// Register adds a source constructor under a key. Called from init
// functions of the source files.
func Register(key string, ctor Constructor) {
	registry[key] = ctor
}

// New instantiates the source registered under key.
func New(key string, cfg map[string]any, env Env) (Source, error) {
	ctor, ok := registry[key]
	if !ok {
		return nil, fmt.Errorf("unknown content source: %s", key)
	}
	return ctor(cfg, env)
}

// Keys lists the registered source keys, sorted.
func Keys() []string {
	keys := make([]string, 0, len(registry))
	for k := range registry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
