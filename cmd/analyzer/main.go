package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/avolkov/signalfusion/config"
	"github.com/avolkov/signalfusion/internal/api/marketdata"
	"github.com/avolkov/signalfusion/internal/fusion"
	platformhttp "github.com/avolkov/signalfusion/internal/platform/http"
	"github.com/avolkov/signalfusion/internal/sentiment"
)

// analyzer runs one fusion pass per configured symbol and prints the
// predictions as JSON, without touching portfolio state.
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

	sources := []sentiment.Source{}
	for name, endpoint := range map[string]string{
		sentiment.SourceNews:     cfg.NewsSentimentURL,
		sentiment.SourceTwitter:  cfg.TwitterSentimentURL,
		sentiment.SourceReddit:   cfg.RedditSentimentURL,
		sentiment.SourceTelegram: cfg.TelegramSentimentURL,
	} {
		if endpoint != "" {
			sources = append(sources, sentiment.NewHTTPSource(name, endpoint, httpClient))
		}
	}
	engine := fusion.NewEngine(sentiment.NewAggregator(sources, cfg.SentimentTimeout), fusion.DefaultWeights)

	ctx := context.Background()
	for _, symbol := range cfg.Symbols {
		points, err := priceFeed.History(ctx, symbol)
		if err != nil {
			log.Error().Err(err).Str("symbol", symbol).Msg("Failed to fetch price history")
			continue
		}

		prediction, err := engine.Predict(ctx, symbol, points)
		if err != nil {
			log.Error().Err(err).Str("symbol", symbol).Msg("Prediction failed")
			continue
		}

		out, err := json.MarshalIndent(prediction, "", "  ")
		if err != nil {
			log.Error().Err(err).Str("symbol", symbol).Msg("Failed to encode prediction")
			continue
		}
		fmt.Println(string(out))
	}
}
