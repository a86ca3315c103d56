package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/Pleso100/Kolgidrat/core/logger"
	"github.com/Pleso100/Kolgidrat/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

const (
	messagesKey = "messages"
	keyboardKey = "kb"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

// ResetCounters zeroes the per-update message counters.
func ResetCounters(c tele.Context) {
	c.Set(messagesKey, 0)
	c.Set(keyboardKey, false)
}

// Counters reports how many messages the current update produced and whether
// any of them carried a keyboard.
func Counters(c tele.Context) (int, bool) {
	n, _ := c.Get(messagesKey).(int)
	kb, _ := c.Get(keyboardKey).(bool)
	return n, kb
}

func noteSent(c tele.Context, opts *tele.SendOptions) {
	n, _ := c.Get(messagesKey).(int)
	c.Set(messagesKey, n+1)
	if opts != nil && opts.ReplyMarkup != nil {
		c.Set(keyboardKey, true)
	}
}

func sendAsync(c tele.Context, action, endpoint string, run func() error) error {
	disp := globalDispatcher.Load()
	if disp == nil {
		return run()
	}

	ctx := BuildContext(c)
	if err := disp.Enqueue(ctx, action, endpoint, run); err != nil {
		if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
			logger.Warn(ctx, "tg.sender", "queue.fallback",
				slog.String("op", action),
				slog.String("err", err.Error()),
			)
			return run()
		}
		return err
	}
	return nil
}

// SendTo sends text to an explicit recipient on behalf of the current update.
func SendTo(c tele.Context, to tele.Recipient, text string, opts *tele.SendOptions) error {
	noteSent(c, opts)
	bot := c.Bot()
	return sendAsync(c, "send.text", "sendMessage", func() error {
		if opts != nil {
			_, err := bot.Send(to, text, opts)
			return err
		}
		_, err := bot.Send(to, text)
		return err
	})
}

// SendText sends raw text (no parse mode) to the current chat.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	var sendOpts *tele.SendOptions
	if len(opts) > 0 {
		sendOpts = opts[0]
	}
	noteSent(c, sendOpts)
	return sendAsync(c, "send.text", "sendMessage", func() error {
		if sendOpts != nil {
			return c.Send(text, sendOpts)
		}
		return c.Send(text)
	})
}

// SendMDV2 sends a message with MarkdownV2 parse mode and optional reply markup.
func SendMDV2(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	var rm *tele.ReplyMarkup
	if len(markup) > 0 {
		rm = markup[0]
	}
	return SendText(c, text, &tele.SendOptions{ParseMode: tele.ModeMarkdownV2, ReplyMarkup: rm})
}
