package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/avolkov/signalfusion/config"
	"github.com/avolkov/signalfusion/internal/api/marketdata"
	"github.com/avolkov/signalfusion/internal/database"
	"github.com/avolkov/signalfusion/internal/fusion"
	"github.com/avolkov/signalfusion/internal/notify"
	"github.com/avolkov/signalfusion/internal/orchestrator"
	"github.com/avolkov/signalfusion/internal/portfolio"
	platformhttp "github.com/avolkov/signalfusion/internal/platform/http"
	"github.com/avolkov/signalfusion/internal/sentiment"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	lvl, _ := zerolog.ParseLevel(cfg.LogLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)

	httpClient := platformhttp.NewClient(platformhttp.ClientOptions{
		Timeout: cfg.RequestTimeout,
	})

	priceFeed := marketdata.NewClient(httpClient, marketdata.Options{
		APIKey:     cfg.MarketAPIKey,
		Interval:   cfg.MarketInterval,
		OutputSize: cfg.CandleCount,
	})

	aggregator := sentiment.NewAggregator(buildSources(cfg, httpClient), cfg.SentimentTimeout)
	engine := fusion.NewEngine(aggregator, fusion.DefaultWeights)

	manager, err := portfolio.NewManager(cfg.InitialCash, cfg.Strategy())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create portfolio manager")
	}

	opts := orchestrator.Options{
		Symbols:  cfg.Symbols,
		Interval: cfg.TickInterval,
		Enabled:  cfg.AutoTrading,
	}

	if cfg.DBHost != "" {
		db, err := database.New(database.ConnectionParams{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			DBName:   cfg.DBName,
			SSLMode:  cfg.DBSSLMode,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to the trade journal database")
		}
		defer db.Close()
		opts.Recorder = db
	}

	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != 0 {
		notifier, err := notify.New(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize telegram notifier")
		}
		opts.Notifier = notifier
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop := orchestrator.New(priceFeed, engine, manager, opts)
	if err := loop.Run(ctx); err != nil && err != context.Canceled {
		log.Fatal().Err(err).Msg("Trading loop failed")
	}
}

// buildSources wires one source per configured endpoint; unset sources
// are simply absent and weigh in as neutral.
func buildSources(cfg *config.Config, client *platformhttp.Client) []sentiment.Source {
	endpoints := map[string]string{
		sentiment.SourceNews:     cfg.NewsSentimentURL,
		sentiment.SourceTwitter:  cfg.TwitterSentimentURL,
		sentiment.SourceReddit:   cfg.RedditSentimentURL,
		sentiment.SourceTelegram: cfg.TelegramSentimentURL,
	}

	var sources []sentiment.Source
	for name, endpoint := range endpoints {
		if endpoint == "" {
			continue
		}
		sources = append(sources, sentiment.NewHTTPSource(name, endpoint, client))
	}
	return sources
}
