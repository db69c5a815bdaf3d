package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/aj98-official/Nova/internal/auth"
	"github.com/aj98-official/Nova/internal/calendar"
	"github.com/aj98-official/Nova/internal/config"
	"github.com/aj98-official/Nova/internal/discord"
	"github.com/aj98-official/Nova/internal/llm"
	"github.com/aj98-official/Nova/internal/logger"
	"github.com/aj98-official/Nova/internal/schedule"
	"github.com/aj98-official/Nova/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	// Optional local .env for development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	env, err := config.LoadEnv()
	if err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}

	configPath := flag.String("config", env.ConfigPath, "path to config file")
	logLevel := flag.String("log-level", env.LogLevel, "log level (debug, info, warn, error)")
	flag.Parse()

	cfg, err := config.LoadConfigFromFile(*configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(*logLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return runBot(ctx, cfg, log)
}

func runBot(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	stateStore, err := store.Open(ctx, cfg.StateDB)
	if err != nil {
		return fmt.Errorf("failed to open state store: %w", err)
	}
	defer stateStore.Close()

	var tokenStore auth.TokenStore
	if cfg.Google.TokenCachePath != "" {
		tokenStore = auth.NewFileTokenStore(cfg.Google.TokenCachePath)
	}
	creds, err := auth.NewCredentialStore(cfg.Google, tokenStore)
	if err != nil {
		return fmt.Errorf("failed to create credential store: %w", err)
	}

	cal := calendar.NewClient(cfg.Google.CalendarID, log)

	hour, minute, err := config.ParseHHMM(cfg.Schedule.DailySummaryTime)
	if err != nil {
		return fmt.Errorf("invalid daily summary time: %w", err)
	}
	loc := cfg.Location()

	askers := make(map[string]discord.Asker)
	for name, cmdCfg := range cfg.LLM {
		if !cmdCfg.Configured() {
			log.Warn("llm command not fully configured, skipping",
				zap.String("command", name))
			continue
		}
		askers[name] = llm.New(cmdCfg)
		log.Info("llm command registered",
			zap.String("command", name),
			zap.String("provider", cmdCfg.ProviderName),
			zap.String("model", cmdCfg.ModelName),
		)
	}

	var bot *discord.Bot
	sched := schedule.New(
		schedule.Config{
			ChannelID: cfg.Schedule.NotifyChannelID,
			FireAt:    schedule.TimeOfDay{Hour: hour, Minute: minute},
			Location:  loc,
		},
		creds,
		cal,
		notifierFunc(func(ctx context.Context, channelID, text string) error {
			return bot.Deliver(ctx, channelID, text)
		}),
		stateStore,
		log,
	)

	bot, err = discord.New(
		discord.Config{
			Token:    cfg.Discord.BotToken,
			Prefix:   cfg.Discord.CommandPrefix,
			Location: loc,
		},
		sched, creds, cal, askers, log,
	)
	if err != nil {
		return err
	}

	if err := bot.Open(); err != nil {
		return err
	}
	defer bot.Close()

	log.Info("bot started",
		zap.String("channel", cfg.Schedule.NotifyChannelID),
		zap.String("summary_time", cfg.Schedule.DailySummaryTime),
		zap.String("time_zone", cfg.Schedule.TimeZone),
	)

	sched.Run(ctx)

	log.Info("shutting down")
	return nil
}

// notifierFunc adapts a function to schedule.Notifier, breaking the
// construction cycle between the scheduler and the bot.
type notifierFunc func(ctx context.Context, channelID, text string) error

func (f notifierFunc) Deliver(ctx context.Context, channelID, text string) error {
	return f(ctx, channelID, text)
}
