package main

import (
	"log"

	"github.com/rallyhq/rally/config"
	_ "github.com/rallyhq/rally/docs"
	"github.com/rallyhq/rally/internal/game"
	"github.com/rallyhq/rally/internal/notification"
	"github.com/rallyhq/rally/internal/reminder"
	"github.com/rallyhq/rally/internal/user"
	"github.com/rallyhq/rally/internal/venue"
	"github.com/rallyhq/rally/routes"
)

// @title Rally REST API
// @version 1.0
// @description Coordination server for recurring pickup games 🏀
// @host localhost:8088
// @BasePath /api
func main() {
	if err := config.Initialize(); err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	cfg := config.GetConfig()
	logger := config.Logger

	err := config.DB.AutoMigrate(
		&user.User{},
		&venue.Venue{},
		&game.Game{}, &game.Participant{},
		&reminder.Reminder{},
	)
	if err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}
	log.Println("AutoMigrate successful")

	gameRepo := game.NewGormGameRepository(config.DB)
	venueRepo := venue.NewVenueRepository(config.DB)
	profileRepo := user.NewProfileRepository(config.DB)
	reminderRepo := reminder.NewGormReminderRepository(config.DB)

	var notifier notification.Notifier
	if cfg.SMTP.Host != "" {
		notifier = notification.NewSMTPNotifier(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	} else {
		notifier = notification.NewLogNotifier(logger)
	}

	dispatcher := reminder.NewMessageDispatcher(gameRepo, profileRepo, notifier, logger)
	scheduler := reminder.NewScheduler(reminderRepo, dispatcher, cfg.GraceWindow(), logger)
	gameService := game.NewGameService(gameRepo, venueRepo, profileRepo, scheduler, dispatcher, logger)

	// Re-arm reminders persisted before the last shutdown.
	if err := scheduler.RestorePending(); err != nil {
		log.Fatalf("Failed to restore pending reminders: %v", err)
	}

	r := routes.SetupRoutes(cfg, config.DB, gameService)

	// Use port from loaded configuration
	log.Printf("Starting server on port %s in %s mode\n", cfg.App.Port, cfg.App.Env)
	if err := r.Run(":" + cfg.App.Port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
