// Package telegram provides a client for sending high-risk wallet report
// notifications via Telegram Bot API.
package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/piyushhhxyz/insider-detect/internal/models"
)

// Client handles Telegram notifications.
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client.
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// sendMarkdownV2 sends a MarkdownV2 message with linear-backoff retry.
func (c *Client) sendMarkdownV2(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if _, err := c.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}
	return fmt.Errorf("failed after %d retries: %w", c.maxRetries, lastErr)
}

// SendReports sends a notification summarizing the given wallet reports.
func (c *Client) SendReports(reports []models.Report) error {
	if len(reports) == 0 {
		return nil
	}
	return c.sendMarkdownV2(c.formatMessage(reports))
}

// formatMessage formats wallet reports into a Telegram MarkdownV2 message.
func (c *Client) formatMessage(reports []models.Report) string {
	var b strings.Builder
	b.WriteString("🚨 *High\\-risk wallets detected*\n\n")

	for i, r := range reports {
		b.WriteString(fmt.Sprintf("%d\\. `%s`\n", i+1, escapeMarkdownV2(shortWallet(r.Wallet))))
		b.WriteString(fmt.Sprintf("   score *%s* %s \\| $%s across %d market\\(s\\)\n",
			escapeMarkdownV2(fmt.Sprintf("%.3f", r.Composite)),
			escapeMarkdownV2(string(r.Tier)),
			escapeMarkdownV2(fmt.Sprintf("%.0f", r.Volume)),
			r.MarketCount,
		))
		for _, s := range r.Signals {
			if s.Score < 0.7 {
				continue
			}
			b.WriteString(fmt.Sprintf("   • %s %s\n",
				escapeMarkdownV2(s.Name),
				escapeMarkdownV2(fmt.Sprintf("%.2f", s.Score)),
			))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func shortWallet(wallet string) string {
	if len(wallet) <= 12 {
		return wallet
	}
	return wallet[:6] + "..." + wallet[len(wallet)-4:]
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4) // pre-allocate with room for escapes
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
