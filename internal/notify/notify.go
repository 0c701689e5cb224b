package notify

import (
	"context"

	"shopwatch/internal/discord"
	logx "shopwatch/pkg/logx"
)

// Sink delivers one rendered section notification to a channel.
type Sink interface {
	Name() string
	Send(ctx context.Context, e discord.Embed) error
}

// Notifier fans one notification out to every configured sink. Sink failures
// are independent: a failed Discord send never suppresses the Telegram copy,
// and vice versa. The primary sink's error is what the caller sees.
type Notifier struct {
	primary Sink
	extra   []Sink
	log     logx.Logger
}

func New(primary Sink, log logx.Logger, extra ...Sink) *Notifier {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Notifier{primary: primary, extra: extra, log: log}
}

func (n *Notifier) Send(ctx context.Context, e discord.Embed) error {
	err := n.primary.Send(ctx, e)
	for _, s := range n.extra {
		if serr := s.Send(ctx, e); serr != nil {
			n.log.Warn("secondary sink send failed", logx.String("sink", s.Name()), logx.Err(serr))
		}
	}
	return err
}
