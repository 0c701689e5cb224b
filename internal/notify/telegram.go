package notify

import (
	"context"
	"strings"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"shopwatch/internal/discord"
	logx "shopwatch/pkg/logx"
)

// TelegramSink mirrors notifications to a Telegram chat as plain text.
// It is a best-effort secondary channel: when the limiter says no, the
// message is dropped, never queued.
type TelegramSink struct {
	bot     *tele.Bot
	chat    *tele.Chat
	limiter *rate.Limiter
	log     logx.Logger
}

func NewTelegramSink(token string, chatID int64, ratePerSec int, log logx.Logger) (*TelegramSink, error) {
	if ratePerSec <= 0 {
		ratePerSec = 1
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	b, err := tele.NewBot(tele.Settings{Token: token})
	if err != nil {
		return nil, err
	}
	return &TelegramSink{
		bot:     b,
		chat:    &tele.Chat{ID: chatID},
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec),
		log:     log,
	}, nil
}

func (s *TelegramSink) Name() string { return "telegram" }

func (s *TelegramSink) Send(ctx context.Context, e discord.Embed) error {
	_ = ctx
	if !s.limiter.Allow() {
		s.log.Debug("telegram sink rate limited; dropping notification")
		return nil
	}
	_, err := s.bot.Send(s.chat, renderText(e), &tele.SendOptions{DisableWebPagePreview: true})
	return err
}

// renderText flattens the embed's fields into "name: value" lines, dropping
// the bold markers the embed format uses.
func renderText(e discord.Embed) string {
	var b strings.Builder
	for i, f := range e.Fields {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(strings.ReplaceAll(f.Name, "**", ""))
		b.WriteString(": ")
		b.WriteString(f.Value)
	}
	return b.String()
}
