package middleware

import (
	"time"

	tghelpers "github.com/Pleso100/Kolgidrat/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// UpdateObserver receives one call per handled update.
type UpdateObserver interface {
	UpdateHandled(kind string, err error, elapsed time.Duration)
}

// UpdateKind names the update type for metrics and logs.
func UpdateKind(c tele.Context) string {
	upd := c.Update()
	switch {
	case upd.Callback != nil:
		return "callback"
	case upd.Message != nil && upd.Message.Text != "":
		return "text"
	case upd.Message != nil:
		return "message"
	}
	return "other"
}

// MetricsMiddleware resets per-update message counters and reports the
// handler result to obs. A nil obs only resets the counters.
func MetricsMiddleware(obs UpdateObserver) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			tghelpers.ResetCounters(c)
			start := time.Now()
			err := next(c)
			if obs != nil {
				obs.UpdateHandled(UpdateKind(c), err, time.Since(start))
			}
			return err
		}
	}
}
