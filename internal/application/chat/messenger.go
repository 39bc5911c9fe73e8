package chat

import (
	"context"

	"github.com/rs/zerolog"
)

// Button is one quick-reply option. WhatsApp caps interactive buttons
// at three per message.
type Button struct {
	ID    string
	Title string
}

// ListRow is one selectable row in an interactive list.
type ListRow struct {
	ID          string
	Title       string
	Description string
}

// ListSection groups rows under a heading.
type ListSection struct {
	Title string
	Rows  []ListRow
}

// Messenger is the outbound message primitive. Implementations wrap the
// actual chat transport; delivery failures are reported, and callers
// log rather than propagate them.
type Messenger interface {
	SendText(ctx context.Context, to, body string) error
	SendButtons(ctx context.Context, to, body string, buttons []Button) error
	SendList(ctx context.Context, to, body string, sections []ListSection) error
}

// LogMessenger writes outbound messages to the log instead of a chat
// transport. Used when no transport is configured.
type LogMessenger struct {
	Logger zerolog.Logger
}

func (m LogMessenger) SendText(_ context.Context, to, body string) error {
	m.Logger.Info().Str("to", to).Str("body", body).Msg("outbound text")
	return nil
}

func (m LogMessenger) SendButtons(_ context.Context, to, body string, buttons []Button) error {
	m.Logger.Info().Str("to", to).Str("body", body).Int("buttons", len(buttons)).Msg("outbound buttons")
	return nil
}

func (m LogMessenger) SendList(_ context.Context, to, body string, sections []ListSection) error {
	m.Logger.Info().Str("to", to).Str("body", body).Int("sections", len(sections)).Msg("outbound list")
	return nil
}

// OutboundMessage is the single reply produced by a transition.
type OutboundMessage struct {
	Body     string
	Buttons  []Button
	Sections []ListSection
}

// Send dispatches the message through the right primitive.
func (m OutboundMessage) Send(ctx context.Context, messenger Messenger, to string) error {
	switch {
	case len(m.Sections) > 0:
		return messenger.SendList(ctx, to, m.Body, m.Sections)
	case len(m.Buttons) > 0:
		buttons := m.Buttons
		if len(buttons) > 3 {
			buttons = buttons[:3]
		}
		return messenger.SendButtons(ctx, to, m.Body, buttons)
	default:
		return messenger.SendText(ctx, to, m.Body)
	}
}
