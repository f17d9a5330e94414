package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/sarhadsec/scanbot/internal/bot"
	"github.com/sarhadsec/scanbot/internal/bot/config"
)

func main() {

	// .env is optional; real deployments pass environment variables directly.
	_ = godotenv.Load()

	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := bot.NewApp(ctx, cfg)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)
}
