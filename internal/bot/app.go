// Package bot wires the application together: storage, provider client,
// services, the Telegram transport and the admin HTTP API, plus signal
// handling and graceful shutdown.
package bot

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/sarhadsec/scanbot/internal/bot/admin"
	"github.com/sarhadsec/scanbot/internal/bot/analysis"
	"github.com/sarhadsec/scanbot/internal/bot/config"
	"github.com/sarhadsec/scanbot/internal/bot/filestore"
	"github.com/sarhadsec/scanbot/internal/bot/onboarding"
	"github.com/sarhadsec/scanbot/internal/bot/repositories/repomanager"
	"github.com/sarhadsec/scanbot/internal/bot/scan"
	"github.com/sarhadsec/scanbot/internal/bot/telegram"
	"github.com/sarhadsec/scanbot/internal/bot/users"
	"github.com/sarhadsec/scanbot/internal/logging"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB

	bot   *telegram.Bot
	admin *admin.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	registry := users.NewRegistry(db, rm, logger)
	machine := onboarding.NewMachine(registry, logger)

	// One limiter for the whole process keeps every scan inside the
	// provider's quota.
	limiter := rate.NewLimiter(rate.Limit(float64(cfg.ProviderRequestsPerMinute)/60.0), cfg.ProviderBurst)
	client := analysis.NewVirusTotal(cfg.ProviderBaseURL, cfg.ProviderAPIKey, limiter, logger)

	store, err := filestore.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("filestore init error: %w", err)
	}

	orchestrator := scan.NewOrchestrator(rm.Users(db), rm.Scans(db), client, store, scan.Options{
		PollInterval:      cfg.PollInterval,
		ScanDeadline:      cfg.ScanDeadline,
		SubmitMaxAttempts: uint64(cfg.SubmitMaxAttempts),
	}, logger)

	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("telegram init error: %w", err)
	}
	logger.Info(ctx, "authorized on telegram", "account", botAPI.Self.UserName)

	bot := telegram.NewBot(botAPI, registry, machine, orchestrator, store,
		cfg.WebAppURL, cfg.MaxFileSize, logger)

	adminSrv := admin.NewServer(cfg.AdminAddr, cfg.BotToken, cfg.AdminIDs,
		registry, rm.Scans(db), logger)

	return &App{config: cfg, logger: logger, db: db, bot: bot, admin: adminSrv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run starts the transport and the admin API and blocks until shutdown.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting scanbot")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.bot.Run(ctx); err != nil && ctx.Err() == nil {
			app.logger.Error(ctx, "telegram transport stopped", "error", err)
			cancelFunc()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.admin.ListenAndServe(); err != nil {
			app.logger.Error(ctx, "admin server stopped", "error", err)
			cancelFunc()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.admin.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(shutdownCtx, "admin shutdown error", "error", err)
	}

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(context.Background(), "db close error", "error", err)
	}
	app.logger.Info(context.Background(), "scanbot stopped")
}
