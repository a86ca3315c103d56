package router

import (
	"log/slog"
	"time"

	"github.com/Pleso100/Kolgidrat/core/logger"
	tg "github.com/Pleso100/Kolgidrat/core/telegram"
	"github.com/Pleso100/Kolgidrat/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRoutes binds every registered command and alias to h.
func CommandRoutes(reg *tg.Registry, h Handler) []tg.Route {
	if reg == nil || h == nil {
		return nil
	}

	var routes []tg.Route
	for cmd, def := range reg.Commands() {
		name := "command." + normalizeHandlerName(cmd)
		handler := func(c tele.Context) error {
			start := time.Now()
			return handleWithSummary(c, name, start, "", "", func() error {
				return serve(c, name, h)
			})
		}
		wrapped := middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler))
		routes = append(routes, tg.Route{Endpoint: cmd, Handler: wrapped})
		for _, alias := range def.Aliases {
			if alias == "" {
				continue
			}
			if alias[0] != '/' {
				alias = "/" + alias
			}
			routes = append(routes, tg.Route{Endpoint: alias, Handler: wrapped})
		}
	}

	logger.TWire.Info("tg.wire",
		slog.String("event", "commands"),
		slog.Int("count", len(routes)),
	)
	return routes
}
