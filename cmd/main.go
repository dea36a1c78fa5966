package main

import (
	"context"
	"log"

	"github.com/maruel/interrupt"

	"measure-bot/config"
	telegram "measure-bot/internal/api"
	"measure-bot/internal/container"
	"measure-bot/internal/infrastructure/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.TelegramToken == "" {
		log.Fatal("TELEGRAM_TOKEN is required")
	}

	// Создаём хранилища пользователей и измерений
	userRepo := storage.NewMemoryUserRepository()
	records := storage.NewMemoryMeasurementRepository()

	// Собираем сервисы приложения
	appContainer, err := container.New(cfg, userRepo, records)
	if err != nil {
		log.Fatalf("Failed to build services: %v", err)
	}

	// Создаём бота
	bot, err := telegram.NewBot(cfg.TelegramToken, appContainer.UserService, appContainer.MeasurementService, cfg.ReferenceLength)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	interrupt.HandleCtrlC()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-interrupt.Channel
		cancel()
	}()

	log.Printf("Bot is running (vision backend: %s)...", appContainer.Engine.Backend())
	if err := bot.Run(ctx); err != nil {
		log.Fatalf("Bot error: %v", err)
	}
	log.Println("Bot stopped")
}
