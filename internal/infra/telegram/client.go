// internal/infra/telegram/client.go
package telegram

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
	"gopkg.in/telebot.v3"
)

// Telegram caps bots around 30 messages/second overall; stay under it so a
// large cycle fan-out cannot trip flood control.
const sendsPerSecond = 25

// TelebotAdapter implements the messenger.Client interface using the
// gopkg.in/telebot.v3 library. Sends are paced through a shared rate
// limiter.
type TelebotAdapter struct {
	bot     *telebot.Bot
	limiter *rate.Limiter
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{
		bot:     b,
		limiter: rate.NewLimiter(rate.Limit(sendsPerSecond), sendsPerSecond),
	}
}

// Send delivers one message to the given chat.
func (tba *TelebotAdapter) Send(ctx context.Context, chatID int64, title, body, linkURL string) error {
	if err := tba.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	text := body
	if title != "" {
		text = fmt.Sprintf("*%s*\n%s", title, body)
	}
	if linkURL != "" {
		text = fmt.Sprintf("%s\n%s", text, linkURL)
	}

	recipient := &telebot.User{ID: chatID}
	_, err := tba.bot.Send(recipient, text, &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	return err
}
