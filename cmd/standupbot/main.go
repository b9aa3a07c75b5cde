package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/amirhmoradi/standup-bot/internal/api"
	"github.com/amirhmoradi/standup-bot/internal/bot"
	"github.com/amirhmoradi/standup-bot/internal/config"
	"github.com/amirhmoradi/standup-bot/internal/db"
	"github.com/amirhmoradi/standup-bot/internal/standup"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	database, err := db.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.RunMigrations(context.Background()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize Discord bot; the standup engine sends through it
	discordBot, err := bot.New(cfg.DiscordToken)
	if err != nil {
		log.Fatalf("Failed to create discord bot: %v", err)
	}

	core := standup.NewOrchestrator(database, discordBot.Messenger(), cfg.InterviewTimeout)
	scheduler := standup.NewScheduler(database, func(roomID string) {
		if err := core.Trigger(context.Background(), roomID); err != nil {
			log.Printf("Scheduled standup for room %s failed: %v", roomID, err)
		}
	})
	discordBot.Bind(core, scheduler, cfg.MaxHour)

	// Persisted state is loaded; rebuild every room's job from its rule
	if err := scheduler.RestoreAll(context.Background()); err != nil {
		log.Fatalf("Failed to restore schedules: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Start Discord bot
	if err := discordBot.Start(); err != nil {
		log.Fatalf("Failed to start discord bot: %v", err)
	}
	defer discordBot.Stop()

	// Start API server
	apiServer := api.New(cfg, database)
	go func() {
		if err := apiServer.Start(); err != nil {
			log.Printf("API server error: %v", err)
		}
	}()

	// Wait for signal to stop
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
}
