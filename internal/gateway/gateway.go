// Package gateway adapts Telegram updates to dispatcher events and delivers
// the replies back through the bot.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tg "github.com/Pleso100/Kolgidrat/core/telegram"
	"github.com/Pleso100/Kolgidrat/core/telegram/commands"
	tghelpers "github.com/Pleso100/Kolgidrat/core/telegram/helpers"
	"github.com/Pleso100/Kolgidrat/core/telegram/keyboard"
	"github.com/Pleso100/Kolgidrat/core/logger"
	"github.com/Pleso100/Kolgidrat/core/telegram/router"
	"github.com/Pleso100/Kolgidrat/core/telegram/serial"
	"github.com/Pleso100/Kolgidrat/internal/conversation"
	"github.com/Pleso100/Kolgidrat/internal/dispatcher"

	tele "gopkg.in/telebot.v4"
)

const textOnlyText = "Надішліть назву продукту текстом."

// Dispatcher is the part of dispatcher.Dispatcher the gateway needs.
type Dispatcher interface {
	Handle(ctx context.Context, userID int64, ev conversation.Event) ([]dispatcher.Outbound, error)
}

// Gateway owns the bot routes. Updates of one user are dispatched and
// answered in arrival order; different users run in parallel.
type Gateway struct {
	d     Dispatcher
	queue *serial.Queue
}

// New builds a Gateway over d.
func New(d Dispatcher) *Gateway {
	return &Gateway{d: d, queue: serial.New()}
}

// Close stops accepting updates and waits for queued ones to be answered.
func (g *Gateway) Close(ctx context.Context) error {
	return g.queue.Close(ctx)
}

// Registry returns the command menu of the bot.
func Registry() *tg.Registry {
	reg := tg.NewRegistry()
	reg.RegisterCommand("/"+conversation.CommandStart, commands.Command{Description: "Почати спочатку"})
	reg.RegisterCommand("/"+conversation.CommandSearch, commands.Command{Description: "Пошук продукту: /search яблуко"})
	reg.RegisterCommand("/"+conversation.CommandAdmin, commands.Command{Description: "Меню адміністрування", Hidden: true})
	return reg
}

// Routes binds commands, plain text, non-text messages and button presses.
func (g *Gateway) Routes(reg *tg.Registry) []tg.Route {
	routes := router.CommandRoutes(reg, g.Handle)
	routes = append(routes, router.TextRoutes(reg, g.Handle, router.TextOptions{
		UnknownMessage: func(c tele.Context) error {
			return tghelpers.SendText(c, textOnlyText)
		},
	})...)
	return append(routes, router.CallbackRoute(g.Handle))
}

// Handle queues the inbound action behind earlier ones of the same user.
// The bot must deliver updates synchronously so that queue order is
// arrival order.
func (g *Gateway) Handle(ctx context.Context, c tele.Context, in router.Inbound) error {
	if in.UserID == 0 {
		return nil
	}
	return g.queue.Submit(in.UserID, func() {
		if err := g.Deliver(ctx, c, in); err != nil {
			logger.Error(ctx, "tg", "gateway.deliver",
				slog.String("status", logger.Status(err)),
				slog.String("err", err.Error()),
			)
		}
	})
}

// Deliver runs one inbound action through the dispatcher and sends the replies.
func (g *Gateway) Deliver(ctx context.Context, c tele.Context, in router.Inbound) error {
	out, err := g.d.Handle(ctx, in.UserID, EventFrom(in))
	if err != nil {
		failure := conversation.FailureReply()
		sendErr := tghelpers.SendTo(c, recipient(in, in.UserID), failure.Text, nil)
		return errors.Join(fmt.Errorf("gateway: dispatch: %w", err), sendErr)
	}
	var sendErrs []error
	for _, o := range out {
		if err := tghelpers.SendTo(c, recipient(in, o.UserID), o.Text, SendOptions(o)); err != nil {
			sendErrs = append(sendErrs, err)
		}
	}
	return errors.Join(sendErrs...)
}

// EventFrom maps an inbound action to a conversation event.
func EventFrom(in router.Inbound) conversation.Event {
	if in.IsCallback() {
		return conversation.ButtonEvent(in.Callback)
	}
	return conversation.TextEvent(in.Text)
}

// Markup renders a conversation keyboard as inline buttons; nil for none.
func Markup(kb conversation.Keyboard) *tele.ReplyMarkup {
	rows := make([][]keyboard.InlineBtn, 0, len(kb))
	for _, row := range kb {
		r := make([]keyboard.InlineBtn, 0, len(row))
		for _, b := range row {
			r = append(r, keyboard.InlineBtn{Text: b.Label, Unique: b.Callback})
		}
		rows = append(rows, r)
	}
	return keyboard.InlineButtonsRows(rows...)
}

// SendOptions maps parse mode and keyboard of o to telebot options.
func SendOptions(o dispatcher.Outbound) *tele.SendOptions {
	opts := &tele.SendOptions{ReplyMarkup: Markup(o.Keyboard)}
	if o.Markdown {
		opts.ParseMode = tele.ModeMarkdownV2
	}
	return opts
}

// recipient answers in the chat the update came from when the reply is for
// its sender, else directly to the user.
func recipient(in router.Inbound, userID int64) tele.Recipient {
	if in.ChatID != 0 && userID == in.UserID {
		return &tele.Chat{ID: in.ChatID}
	}
	return &tele.User{ID: userID}
}
