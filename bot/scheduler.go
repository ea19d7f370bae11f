package bot

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"curator-bot/autopost"
	"curator-bot/config"
)

var c *cron.Cron

// startScheduler starts the repeating autopost tick.
func startScheduler(poster *autopost.Poster, settings config.Settings) {
	log.Println("Initializing scheduler...")
	interval := time.Duration(settings.PostingIntervalSeconds) * time.Second
	tick := func() {
		// One tick gets at most one interval to finish; a hung fetch
		// must not stack ticks.
		ctx, cancel := context.WithTimeout(context.Background(), interval)
		defer cancel()
		poster.Tick(ctx)
	}

	c = cron.New()
	_, err := c.AddFunc(fmt.Sprintf("@every %ds", settings.PostingIntervalSeconds), tick)
	if err != nil {
		log.Fatalf("Could not set up cron job: %v", err)
	}
	c.Start()
	log.Printf("Autopost tick scheduled every %s.", interval)

	if settings.TickAtStartup {
		go func() {
			log.Println("Performing initial tick on startup...")
			tick()
		}()
	}
}

// stopScheduler stops the cron loop, letting an in-flight tick finish.
func stopScheduler() {
	if c != nil {
		<-c.Stop().Done()
		log.Println("Scheduler stopped.")
	}
}
