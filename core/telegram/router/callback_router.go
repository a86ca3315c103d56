package router

import (
	"log/slog"
	"time"

	tg "github.com/Pleso100/Kolgidrat/core/telegram"
	"github.com/Pleso100/Kolgidrat/core/telegram/callbacks"
	"github.com/Pleso100/Kolgidrat/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CallbackRoute answers every inline button press and hands its key to h.
func CallbackRoute(h Handler) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if c.Callback() == nil {
			return nil
		}
		key := callbacks.CallbackKey(c)
		name := "callback." + normalizeHandlerName(key)

		// Stops the client spinner; the reply itself is a separate message.
		_ = c.Respond()

		return handleWithSummary(c, name, start, "", "", func() error {
			return serve(c, name, h)
		}, slog.String("cb_key", key))
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
