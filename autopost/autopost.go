// Package autopost keeps every enabled channel's pending queue filled
// and periodically publishes a bounded number of posts from it.
package autopost

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"curator-bot/config"
	"curator-bot/database"
	"curator-bot/gateway"
	"curator-bot/models"
	"curator-bot/sources"
)

// Poster drives the per-channel posting pipeline. One Tick processes all
// enabled channels sequentially; failures in one channel never abort the
// others.
type Poster struct {
	db       *sql.DB
	gateway  gateway.Gateway
	settings config.Settings
	env      sources.Env
	loc      *time.Location
	now      func() time.Time

	mu      sync.Mutex
	lastRun map[int64]time.Time
	cache   map[int64]cachedSource
}

// cachedSource keeps a live source instance per channel so stateful
// scrapers carry their pagination cursors across ticks. The signature
// invalidates the cache when the channel's config changes.
type cachedSource struct {
	key       string
	signature string
	source    sources.Source
}

// NewPoster wires a poster.
func NewPoster(db *sql.DB, gw gateway.Gateway, settings config.Settings, env sources.Env) *Poster {
	return &Poster{
		db:       db,
		gateway:  gw,
		settings: settings,
		env:      env,
		loc:      settings.Location(),
		now:      time.Now,
		lastRun:  make(map[int64]time.Time),
		cache:    make(map[int64]cachedSource),
	}
}

// Tick processes every enabled channel once. Errors are logged per
// channel; Tick itself never fails so the scheduler keeps running.
func (p *Poster) Tick(ctx context.Context) {
	channels, err := database.ListEnabledChannels(p.db)
	if err != nil {
		log.Printf("[autopost] Failed to list channels: %v", err)
		return
	}
	now := p.now()
	for _, ch := range channels {
		if err := p.processChannel(ctx, ch, now); err != nil {
			log.Printf("[autopost] Channel %s (%s): %v", ch.DiscordChannelID, ch.ContentSource, err)
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (p *Poster) processChannel(ctx context.Context, ch models.Channel, now time.Time) error {
	if !p.withinWindow(now.In(p.loc)) {
		return nil
	}
	interval := time.Duration(ch.AutopostInterval) * time.Second
	p.mu.Lock()
	last, ran := p.lastRun[ch.ID]
	p.mu.Unlock()
	if ran && now.Sub(last) < interval {
		return nil
	}

	source, err := p.sourceFor(ch)
	if err != nil {
		return fmt.Errorf("source init: %w", err)
	}

	pending, err := database.CountPendingPosts(p.db, ch.ID)
	if err != nil {
		return err
	}
	target := p.settings.MaxPostsPerRun * 2
	if target < p.settings.MaxPostsPerRun {
		target = p.settings.MaxPostsPerRun
	}
	pending, err = p.EnsureQueue(ctx, ch, source, target, pending)
	if err != nil {
		return err
	}

	posted, err := p.PublishFromQueue(ctx, ch, p.settings.MaxPostsPerRun)
	if err != nil {
		return err
	}
	if posted > 0 {
		p.mu.Lock()
		p.lastRun[ch.ID] = now
		p.mu.Unlock()
	} else {
		// Not updating lastRun keeps the channel eligible next tick
		// instead of waiting a full interval for nothing.
		log.Printf("[autopost] No posts published for %s (pending queue=%d)", ch.DiscordChannelID, pending)
	}
	return nil
}

// withinWindow reports whether the hour of t falls inside the posting
// window. A start hour greater than the end hour wraps past midnight.
func (p *Poster) withinWindow(t time.Time) bool {
	start, end := p.settings.PostingStartHour, p.settings.PostingEndHour
	hour := t.Hour()
	if start <= end {
		return start <= hour && hour < end
	}
	return hour >= start || hour < end
}

// sourceFor returns the channel's cached source, rebuilding it when the
// source key or config changed since the last tick.
func (p *Poster) sourceFor(ch models.Channel) (sources.Source, error) {
	signature, err := configSignature(ch.ContentConfig)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	cached, ok := p.cache[ch.ID]
	p.mu.Unlock()
	if ok && cached.key == ch.ContentSource && cached.signature == signature {
		return cached.source, nil
	}

	source, err := sources.New(ch.ContentSource, ch.ContentConfig, p.env)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.cache[ch.ID] = cachedSource{key: ch.ContentSource, signature: signature, source: source}
	p.mu.Unlock()
	return source, nil
}

// configSignature produces a stable fingerprint of a config map.
// encoding/json sorts map keys, so equal maps always match.
func configSignature(cfg map[string]any) (string, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to fingerprint source config: %w", err)
	}
	return string(data), nil
}

// EnsureQueue refills the channel's pending backlog up to target. It
// fetches oversized batches to absorb duplicates and rejects, and stops
// early once a whole batch yields no new enqueues. Fetch failures are
// treated as an empty batch; store failures abort the channel.
func (p *Poster) EnsureQueue(ctx context.Context, ch models.Channel, source sources.Source, target, pending int) (int, error) {
	for pending < target {
		needed := target - pending
		fetchAmount := needed * 3
		if n := p.settings.MaxPostsPerRun * 10; n > fetchAmount {
			fetchAmount = n
		}
		if fetchAmount < 30 {
			fetchAmount = 30
		}

		batch, err := source.Fetch(ctx, fetchAmount)
		if err != nil {
			log.Printf("[autopost] Failed to fetch from %s: %v", source.Name(), err)
			break
		}
		if len(batch) == 0 {
			break
		}

		added := 0
		for _, candidate := range batch {
			queued, err := p.enqueue(ch, candidate)
			if err != nil {
				return pending, err
			}
			if queued {
				pending++
				added++
				if pending >= target {
					break
				}
			}
		}
		if added == 0 {
			// Source exhausted for now; retrying within this tick would loop.
			break
		}
	}
	return pending, nil
}

// enqueue persists one candidate and queues it for the channel. Returns
// false for candidates without media and for items already queued here.
func (p *Poster) enqueue(ch models.Channel, candidate models.Candidate) (bool, error) {
	if !candidate.HasMedia() {
		return false, nil
	}
	itemID, err := database.UpsertContentItem(p.db, candidate.SourceType, candidate.SourceID, candidate.Payload)
	if err != nil {
		return false, err
	}
	existing, err := database.FindExistingPost(p.db, ch.ID, itemID)
	if err != nil {
		return false, err
	}
	if existing != 0 {
		return false, nil
	}
	if _, err := database.CreatePost(p.db, ch.ID, itemID); err != nil {
		return false, err
	}
	return true, nil
}

// PublishFromQueue sends up to maxPosts pending posts, oldest first, and
// returns the number successfully published. A gateway rejection marks
// the post failed and moves on.
func (p *Poster) PublishFromQueue(ctx context.Context, ch models.Channel, maxPosts int) (int, error) {
	pending, err := database.FetchPendingPosts(p.db, ch.ID, maxPosts)
	if err != nil {
		return 0, err
	}

	posted := 0
	for _, entry := range pending {
		chatID, messageID, err := p.gateway.Publish(ctx, ch.DiscordChannelID, entry.PostID, entry.Item.Payload)
		if err != nil {
			log.Printf("[autopost] Unable to send post %d to %s: %v", entry.PostID, ch.DiscordChannelID, err)
			if err := database.MarkFailed(p.db, entry.PostID); err != nil {
				return posted, err
			}
			continue
		}

		audience, err := p.gateway.AudienceSize(ctx, chatID)
		if err != nil {
			log.Printf("[autopost] Cannot fetch audience size for %s: %v", chatID, err)
			audience = 0
		}
		if err := database.MarkPosted(p.db, entry.PostID, chatID, messageID, audience); err != nil {
			return posted, err
		}
		posted++
		log.Printf("[autopost] Posted %s to %s", entry.Item.SourceID, ch.DiscordChannelID)
	}
	return posted, nil
}
