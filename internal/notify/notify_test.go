package notify

import (
	"context"
	"errors"
	"testing"

	"shopwatch/internal/discord"
	logx "shopwatch/pkg/logx"
)

type stubSink struct {
	name string
	err  error
	got  []discord.Embed
}

func (s *stubSink) Name() string { return s.name }

func (s *stubSink) Send(ctx context.Context, e discord.Embed) error {
	s.got = append(s.got, e)
	return s.err
}

func TestNotifierFansOutToAllSinks(t *testing.T) {
	primary := &stubSink{name: "discord"}
	extra := &stubSink{name: "telegram"}
	n := New(primary, logx.Nop(), extra)

	e := discord.Embed{Fields: []discord.EmbedField{{Name: "**Display Name**", Value: "Featured"}}}
	if err := n.Send(context.Background(), e); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(primary.got) != 1 || len(extra.got) != 1 {
		t.Fatalf("primary=%d extra=%d sends, want 1 each", len(primary.got), len(extra.got))
	}
}

func TestNotifierReturnsPrimaryError(t *testing.T) {
	wantErr := errors.New("webhook down")
	primary := &stubSink{name: "discord", err: wantErr}
	extra := &stubSink{name: "telegram"}
	n := New(primary, logx.Nop(), extra)

	err := n.Send(context.Background(), discord.Embed{})
	if !errors.Is(err, wantErr) {
		t.Fatalf("got %v, want primary error", err)
	}
	// The secondary still receives the notification.
	if len(extra.got) != 1 {
		t.Fatalf("extra got %d sends, want 1", len(extra.got))
	}
}

func TestNotifierSwallowsSecondaryError(t *testing.T) {
	primary := &stubSink{name: "discord"}
	extra := &stubSink{name: "telegram", err: errors.New("flood wait")}
	n := New(primary, logx.Nop(), extra)

	if err := n.Send(context.Background(), discord.Embed{}); err != nil {
		t.Fatalf("secondary failure must not surface: %v", err)
	}
}

func TestRenderText(t *testing.T) {
	e := discord.Embed{Fields: []discord.EmbedField{
		{Name: "**Display Name**", Value: "Featured"},
		{Name: "**Section ID**", Value: "Featured1"},
	}}
	got := renderText(e)
	want := "Display Name: Featured\nSection ID: Featured1"
	if got != want {
		t.Fatalf("renderText = %q, want %q", got, want)
	}
}
