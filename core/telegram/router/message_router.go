package router

import (
	"time"

	tg "github.com/Pleso100/Kolgidrat/core/telegram"
	"github.com/Pleso100/Kolgidrat/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// TextOptions controls fallback behaviour for non-text messages.
type TextOptions struct {
	// UnknownMessage answers photos, stickers, documents and the like.
	UnknownMessage tele.HandlerFunc
}

// TextRoutes routes every text message, including commands without a
// dedicated route, to h.
func TextRoutes(reg *tg.Registry, h Handler, opts TextOptions) []tg.Route {
	text := func(c tele.Context) error {
		start := time.Now()
		name := "text"
		if reg != nil {
			if key, _, ok := reg.LookupCommand(c.Text()); ok {
				name = "command." + normalizeHandlerName(key)
			}
		}
		return handleWithSummary(c, name, start, "", "", func() error {
			return serve(c, name, h)
		})
	}

	media := func(c tele.Context) error {
		start := time.Now()
		if opts.UnknownMessage == nil {
			logHandlerSummary(c, "unexpected_message", start, "skip", "ok", nil)
			return nil
		}
		return handleWithSummary(c, "unexpected_message", start, "", "", func() error {
			return opts.UnknownMessage(c)
		})
	}

	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(text)),
		},
		{
			Endpoint: tele.OnMedia,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(media)),
		},
	}
}
