package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/avolkov/signalfusion/models"
)

// Config holds all application configuration
type Config struct {
	LogLevel       string
	Symbols        []string
	TickInterval   time.Duration
	InitialCash    float64
	RequestTimeout time.Duration

	// Market data feed
	MarketAPIKey   string
	MarketInterval string
	CandleCount    int

	// Sentiment source endpoints; empty means the source is absent
	// and contributes a neutral 0 through the aggregator.
	NewsSentimentURL     string
	TwitterSentimentURL  string
	RedditSentimentURL   string
	TelegramSentimentURL string
	SentimentTimeout     time.Duration

	// Strategy
	RiskTolerance    string
	MaxPositionSize  float64
	StopLossPct      float64
	TakeProfitPct    float64
	MinConfidence    float64
	MaxDailyTrades   int
	MaxPortfolioRisk float64
	AutoTrading      bool

	// Optional trade journal
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Optional notifications
	TelegramBotToken string
	TelegramChatID   int64
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	cfg := &Config{
		LogLevel:       getEnvWithDefault("LOG_LEVEL", "info"),
		Symbols:        splitSymbols(getEnvWithDefault("SYMBOLS", "BTC,ETH")),
		TickInterval:   time.Duration(getEnvIntWithDefault("TICK_INTERVAL_SEC", 60)) * time.Second,
		InitialCash:    getEnvFloatWithDefault("INITIAL_CASH", 10000),
		RequestTimeout: time.Duration(getEnvIntWithDefault("REQUEST_TIMEOUT", 30)) * time.Second,

		MarketAPIKey:   os.Getenv("MARKET_API_KEY"),
		MarketInterval: getEnvWithDefault("MARKET_INTERVAL", "5min"),
		CandleCount:    getEnvIntWithDefault("CANDLE_COUNT", 40),

		NewsSentimentURL:     os.Getenv("NEWS_SENTIMENT_URL"),
		TwitterSentimentURL:  os.Getenv("TWITTER_SENTIMENT_URL"),
		RedditSentimentURL:   os.Getenv("REDDIT_SENTIMENT_URL"),
		TelegramSentimentURL: os.Getenv("TELEGRAM_SENTIMENT_URL"),
		SentimentTimeout:     time.Duration(getEnvIntWithDefault("SENTIMENT_TIMEOUT_SEC", 3)) * time.Second,

		RiskTolerance:    getEnvWithDefault("RISK_TOLERANCE", models.RiskMedium),
		MaxPositionSize:  getEnvFloatWithDefault("MAX_POSITION_SIZE", 0.1),
		StopLossPct:      getEnvFloatWithDefault("STOP_LOSS_PCT", 0.05),
		TakeProfitPct:    getEnvFloatWithDefault("TAKE_PROFIT_PCT", 0.15),
		MinConfidence:    getEnvFloatWithDefault("MIN_CONFIDENCE", 0.6),
		MaxDailyTrades:   getEnvIntWithDefault("MAX_DAILY_TRADES", 10),
		MaxPortfolioRisk: getEnvFloatWithDefault("MAX_PORTFOLIO_RISK", 0.5),
		AutoTrading:      getEnvBoolWithDefault("AUTO_TRADING", false),

		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     getEnvWithDefault("DB_PORT", "5432"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBSSLMode:  getEnvWithDefault("DB_SSLMODE", "disable"),

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   getEnvInt64WithDefault("TELEGRAM_CHAT_ID", 0),
	}

	return cfg, nil
}

// Strategy maps the loaded configuration onto a strategy.
func (c *Config) Strategy() models.StrategyConfig {
	return models.StrategyConfig{
		RiskTolerance:    c.RiskTolerance,
		MaxPositionSize:  c.MaxPositionSize,
		StopLossPct:      c.StopLossPct,
		TakeProfitPct:    c.TakeProfitPct,
		MinConfidence:    c.MinConfidence,
		MaxDailyTrades:   c.MaxDailyTrades,
		MaxPortfolioRisk: c.MaxPortfolioRisk,
		Symbols:          c.Symbols,
		Enabled:          c.AutoTrading,
	}
}

func splitSymbols(raw string) []string {
	parts := strings.Split(raw, ",")
	symbols := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			symbols = append(symbols, trimmed)
		}
	}
	return symbols
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64WithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}
