package router

import (
	"context"

	"github.com/Pleso100/Kolgidrat/core/telegram/callbacks"
	tghelpers "github.com/Pleso100/Kolgidrat/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Inbound is the user action carried by a text or callback update.
type Inbound struct {
	UpdateID int
	UserID   int64
	ChatID   int64
	Text     string
	Callback string
	// Button is set for every button press, including ones whose data
	// carries no key.
	Button bool
}

// IsCallback reports whether the action is a button press.
func (in Inbound) IsCallback() bool { return in.Button || in.Callback != "" }

// Handler processes one inbound action; c remains available for replies.
type Handler func(ctx context.Context, c tele.Context, in Inbound) error

// InboundFrom extracts the action from the current update.
func InboundFrom(c tele.Context) Inbound {
	in := Inbound{UpdateID: c.Update().ID}
	if u := c.Sender(); u != nil {
		in.UserID = u.ID
	}
	if chat := c.Chat(); chat != nil {
		in.ChatID = chat.ID
	}
	if c.Callback() != nil {
		in.Button = true
		in.Callback = callbacks.CallbackKey(c)
		return in
	}
	in.Text = c.Text()
	return in
}

func serve(c tele.Context, name string, h Handler) error {
	ctx := tghelpers.WithHandler(c, name)
	return h(ctx, c, InboundFrom(c))
}
