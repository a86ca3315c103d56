package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Pleso100/Kolgidrat/core/logger"
	"github.com/Pleso100/Kolgidrat/core/telegram/callbacks"
	tghelpers "github.com/Pleso100/Kolgidrat/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

const keepFor = 10 * time.Second

// seenUpdates remembers update ids for a short while so nested chains log a receipt once.
type seenUpdates struct {
	mu   sync.Mutex
	seen map[int]time.Time
}

var recent = &seenUpdates{seen: make(map[int]time.Time)}

func (s *seenUpdates) first(updateID int, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ts := range s.seen {
		if now.Sub(ts) > keepFor {
			delete(s.seen, id)
		}
	}
	if _, ok := s.seen[updateID]; ok {
		return false
	}
	s.seen[updateID] = now
	return true
}

// LoggerMiddleware stores the update context (rid, update/user/chat ids) and
// logs one debug receipt line per update.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		upd := c.Update()
		ctx := tghelpers.NewUpdateContext(c)
		user := c.Sender()

		if logger.ShouldSampleDebug() && recent.first(upd.ID, time.Now()) {
			attrs := []slog.Attr{slog.String("status", "ok")}
			if user != nil && user.Username != "" {
				attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
			}
			switch {
			case upd.Callback != nil:
				if key := callbacks.CallbackKey(c); key != "" {
					attrs = append(attrs, slog.String("cb_key", logger.SanitizeLimit(key, 128)))
				}
			case upd.Message != nil:
				// Text may be the admin password; log only its size.
				attrs = append(attrs, slog.Int("count", len([]rune(c.Text()))))
			}
			logger.LogEvent(ctx, logger.Component("tg"), slog.LevelDebug, "update.received", attrs...)
		}

		return next(c)
	}
}
