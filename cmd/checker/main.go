package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qorlgns1/binbang-sub004/internal/app"
	"github.com/qorlgns1/binbang-sub004/internal/infra/config"
	idb "github.com/qorlgns1/binbang-sub004/internal/infra/database"
	"github.com/qorlgns1/binbang-sub004/internal/infra/logger"
	iprobe "github.com/qorlgns1/binbang-sub004/internal/infra/probe"
	"github.com/qorlgns1/binbang-sub004/internal/infra/scheduler"
	itelegram "github.com/qorlgns1/binbang-sub004/internal/infra/telegram"
	"github.com/qorlgns1/binbang-sub004/internal/limiter"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("FATAL: Could not load application configuration: %v", err)
	}

	logger.Init(cfg)
	log := logger.Get()
	log.Infof("Configuration loaded. LogLevel: %s, Environment: %s", cfg.LogLevel, cfg.Environment)

	// Initialize Database Connection, sized to the check worker count
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL, min(cfg.CheckConcurrency, cfg.BrowserPoolSize))
	if err != nil {
		log.Fatalf("FATAL: Could not connect to database: %v", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully.")

	// Initialize Repositories
	listingRepo := idb.NewPostgresListingRepository(db)
	checkRepo := idb.NewPostgresCheckRepository(db)
	heartbeatRepo := idb.NewPostgresHeartbeatRepository(db)
	accountRepo := idb.NewPostgresAccountRepository(db)
	log.Info("Repositories initialized.")

	// Initialize Telegram Bot
	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) { // Global error handler
			entry := log.WithError(err)
			if c != nil && c.Sender() != nil {
				entry = entry.WithField("sender_id", c.Sender().ID)
			}
			entry.Error("Telegram bot error")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		log.Fatalf("FATAL: Could not create Telegram bot: %v", err)
	}
	messengerClient := itelegram.NewTelebotAdapter(bot)

	// Initialize the probe boundary (external availability checker)
	probeClient := iprobe.NewHTTPClient(cfg.CheckerURL, cfg.ProbeTimeout)

	// Initialize the check pipeline
	lim := limiter.New(min(cfg.CheckConcurrency, cfg.BrowserPoolSize))
	checkService := app.NewCheckService(
		listingRepo, checkRepo, heartbeatRepo,
		probeClient, messengerClient, lim, log,
		cfg.CheckConcurrency, cfg.BrowserPoolSize,
	)
	log.Infof("Check service initialized (concurrency %d, pool size %d).",
		checkService.EffectiveConcurrency(), cfg.BrowserPoolSize)

	checkScheduler := scheduler.NewCheckScheduler(checkService, log, cfg.CheckCronSpec)
	checkScheduler.Start()

	// Initialize the heartbeat monitor
	monitorService := app.NewMonitorService(heartbeatRepo, accountRepo, messengerClient, log, app.MonitorConfig{
		HeartbeatInterval: cfg.HeartbeatInterval,
		MissedThreshold:   cfg.HeartbeatMissedThreshold,
		MaxProcessingTime: cfg.MaxProcessingTime,
		CheckInterval:     cfg.MonitorInterval,
		AlertCooldown:     cfg.AlertCooldown,
	})
	monitorService.Start()

	// Register operator command handlers
	opsService := app.NewOpsService(checkRepo, heartbeatRepo, accountRepo)
	itelegram.RegisterOpsHandlers(context.Background(), bot, opsService, log.WithField("component", "ops_handlers"))
	log.Info("Operator command handlers registered.")

	log.Info("Application setup complete. Scheduler, monitor and bot are starting...")

	// Start bot in a goroutine so it doesn't block graceful shutdown handling
	go bot.Start()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit // Block until a signal is received

	log.Info("Shutting down application...")
	checkScheduler.Stop()
	lim.Stop() // reject new checks; admitted ones drain on their own
	monitorService.Stop()
	log.Info("Application shut down gracefully.")
}
