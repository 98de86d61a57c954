package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/matchminer/internal/config"
	"github.com/Alias1177/matchminer/internal/database"
	"github.com/Alias1177/matchminer/internal/notify"
)

// digestSize is how many findings of the latest run are sent.
const digestSize = 15

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	if cfg.TelegramToken == "" {
		log.Fatal().Msg("TELEGRAM_BOT_TOKEN not set in environment")
	}
	if len(cfg.TelegramChatIDs) == 0 {
		log.Fatal().Msg("TELEGRAM_CHAT_IDS not set in environment")
	}

	// Initialize database
	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	findings, err := db.LatestFindings(ctx, digestSize)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load latest findings")
	}
	log.Info().Int("findings", len(findings)).Msg("Latest findings loaded")

	// Initialize Telegram bot
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Telegram bot")
	}

	broadcaster := notify.NewBroadcaster(bot, cfg.MessagesPerSecond)
	res, err := broadcaster.Broadcast(ctx, cfg.TelegramChatIDs, findings)
	if err != nil {
		log.Error().Err(err).Int("sent", res.Sent).Msg("Broadcast stopped")
		os.Exit(1)
	}

	log.Info().
		Int("total", len(cfg.TelegramChatIDs)).
		Int("sent", res.Sent).
		Int("failed", res.Failed).
		Float64("success_rate", float64(res.Sent)/float64(len(cfg.TelegramChatIDs))*100).
		Msg("Broadcast completed")
}
