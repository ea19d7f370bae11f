package bot

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"

	"curator-bot/autopost"
	"curator-bot/config"
	"curator-bot/database"
	"curator-bot/gateway"
	"curator-bot/pinterest"
	"curator-bot/sources"
	"curator-bot/voting"
)

// Bot encapsulates the bot's state and its wired services.
type Bot struct {
	Session  *discordgo.Session
	Settings config.Settings
	DB       *sql.DB
	Gateway  *gateway.DiscordGateway
	Poster   *autopost.Poster
	Voting   *voting.Service
}

// NewBot creates and initializes a new Bot instance.
func NewBot() (*Bot, error) {
	settings, err := config.Load()
	if err != nil {
		return nil, err
	}

	dg, err := discordgo.New("Bot " + settings.BotToken)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	db, err := database.InitDB(settings.DatabasePath)
	if err != nil {
		return nil, err
	}

	var boards voting.BoardClient
	env := sources.Env{
		PinterestCookie:    settings.PinterestCookie,
		PinterestUserAgent: settings.PinterestUserAgent,
	}
	pinners := &pinterest.Boards{}
	if settings.PinterestAccessToken != "" {
		client := pinterest.NewClient(settings.PinterestAccessToken)
		env.Pinterest = client
		pinners.API = client
	}
	if settings.PinterestCookie != "" {
		pinners.Web = pinterest.NewWebClient(settings.PinterestCookie, settings.PinterestUserAgent)
	}
	if pinners.API != nil || pinners.Web != nil {
		boards = pinners
	}
	if settings.SpotifyClientID != "" && settings.SpotifyClientSecret != "" {
		env.Spotify = sources.NewSpotifyClient(
			settings.SpotifyClientID,
			settings.SpotifyClientSecret,
			settings.SpotifyRefreshToken,
		)
	}

	gw := gateway.NewDiscordGateway(dg)
	return &Bot{
		Session:  dg,
		Settings: settings,
		DB:       db,
		Gateway:  gw,
		Poster:   autopost.NewPoster(db, gw, settings, env),
		Voting:   voting.NewService(db, gw, boards, settings.QuarantineChannelID),
	}, nil
}

// Start opens the bot's session, registers slash commands and starts the
// autopost scheduler.
func (b *Bot) Start(registerHandlers func(*Bot), commands []*discordgo.ApplicationCommand) error {
	registerHandlers(b)

	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	for _, cmd := range commands {
		if _, err := b.Session.ApplicationCommandCreate(b.Session.State.User.ID, "", cmd); err != nil {
			log.Printf("Cannot create '%v' command: %v", cmd.Name, err)
		}
	}

	startScheduler(b.Poster, b.Settings)

	fmt.Println("Bot is now running. Press CTRL-C to exit.")
	return nil
}

// Stop gracefully shuts the scheduler, the session and the database.
func (b *Bot) Stop() {
	stopScheduler()
	if b.Session != nil {
		b.Session.Close()
	}
	if b.DB != nil {
		b.DB.Close()
	}
	fmt.Println("Bot stopped gracefully.")
}

// Run is the main entry point for the bot application.
func Run(registerHandlers func(*Bot), commands []*discordgo.ApplicationCommand) {
	bot, err := NewBot()
	if err != nil {
		log.Fatalf("Error initializing bot: %v", err)
	}

	if err := bot.Start(registerHandlers, commands); err != nil {
		log.Fatalf("Error starting bot: %v", err)
	}

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	bot.Stop()
}
