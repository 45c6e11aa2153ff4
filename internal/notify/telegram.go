// Package notify pushes trade summaries to a Telegram chat.
package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/avolkov/signalfusion/models"
)

// Notifier sends portfolio events to one configured chat.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger zerolog.Logger
}

// New creates a notifier from a bot token and target chat.
func New(token string, chatID int64) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("initializing telegram bot: %w", err)
	}
	return &Notifier{
		bot:    bot,
		chatID: chatID,
		logger: log.With().Str("component", "notify").Logger(),
	}, nil
}

// TradeExecuted pushes a summary of one fill. Delivery failures are
// logged and swallowed; notification is best effort.
func (n *Notifier) TradeExecuted(exec *models.TradeExecution, signal *models.TradingSignal) {
	emoji := "🟢"
	if exec.Side == models.ActionSell {
		emoji = "🔴"
	}

	text := fmt.Sprintf(
		"%s *%s %s*\n\nAmount: `%.4f`\nPrice: `%.4f`\nConfidence: `%.0f%%`\nRisk: `%s`",
		emoji, exec.Side, exec.Symbol, exec.Amount, exec.Price,
		signal.Confidence*100, signal.RiskLevel,
	)
	if signal.StopLoss > 0 {
		text += fmt.Sprintf("\nStop: `%.4f`  Take: `%.4f`", signal.StopLoss, signal.TakeProfit)
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = "Markdown"

	if _, err := n.bot.Send(msg); err != nil {
		n.logger.Warn().Err(err).Str("symbol", exec.Symbol).Msg("Failed to send trade notification")
	}
}
