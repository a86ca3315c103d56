package telegram

import (
	"github.com/Pleso100/Kolgidrat/core/telegram/middleware"
)

// DefaultMiddlewares builds the shared middleware chain: panic recovery,
// update context and receipt logging, then update metrics.
func DefaultMiddlewares(obs middleware.UpdateObserver) []Middleware {
	return []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
		{Name: "logger", Use: middleware.LoggerMiddleware},
		{Name: "metrics", Use: middleware.MetricsMiddleware(obs)},
	}
}
