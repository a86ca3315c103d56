// Package dispatcher connects inbound events to per-user sessions and the
// conversation engine.
package dispatcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/Pleso100/Kolgidrat/core/logger"
	"github.com/Pleso100/Kolgidrat/core/telegram/state"
	"github.com/Pleso100/Kolgidrat/internal/conversation"
)

// Outbound is one reply addressed to a user.
type Outbound struct {
	UserID   int64
	Text     string
	Keyboard conversation.Keyboard
	Markdown bool
}

// Engine is the transition logic the dispatcher drives.
type Engine interface {
	Handle(ctx context.Context, s conversation.Session, ev conversation.Event) conversation.Outcome
}

// Observer is notified after every persisted transition.
type Observer interface {
	Transition(from, to, op string, opErr error, elapsed time.Duration)
}

// Dispatcher serializes events per user and persists the resulting session.
type Dispatcher struct {
	sessions *state.Manager[conversation.Session]
	engine   Engine
	obs      Observer
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithObserver reports transitions to obs.
func WithObserver(obs Observer) Option {
	return func(d *Dispatcher) { d.obs = obs }
}

// New builds a Dispatcher.
func New(sessions *state.Manager[conversation.Session], engine Engine, opts ...Option) *Dispatcher {
	d := &Dispatcher{sessions: sessions, engine: engine}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewSessions returns a session manager whose unseen users start idle.
func NewSessions(backend state.Backend[conversation.Session], opts ...state.Option) *state.Manager[conversation.Session] {
	return state.NewManager(backend, conversation.NewSession, opts...)
}

// Handle applies ev for userID and returns the replies to deliver. Errors
// come from the session store only; catalog failures are already turned
// into replies.
func (d *Dispatcher) Handle(ctx context.Context, userID int64, ev conversation.Event) ([]Outbound, error) {
	if logger.UserIDFrom(ctx) == 0 {
		ctx = logger.WithUserID(ctx, userID)
	}
	start := time.Now()

	var (
		from, to conversation.State
		out      conversation.Outcome
	)
	err := d.sessions.Update(ctx, userID, func(ctx context.Context, s conversation.Session) (conversation.Session, error) {
		from = s.State
		out = d.engine.Handle(ctx, s, ev)
		to = out.Next.State
		return out.Next, nil
	})
	elapsed := time.Since(start)
	if err != nil {
		logger.Error(ctx, "fsm", "fsm.dispatch",
			slog.String("status", "fail"),
			slog.String("op", ev.Kind.String()),
			slog.Duration("duration", elapsed),
			slog.String("err", err.Error()),
		)
		return nil, err
	}
	if from == "" {
		from = conversation.StateIdle
	}

	attrs := []slog.Attr{
		slog.String("status", logger.Status(out.OpErr)),
		slog.String("op", out.Op.String()),
		slog.String("from_state", string(from)),
		slog.String("to_state", string(to)),
		slog.String("outcome", ev.Kind.String()),
		slog.Int("messages", len(out.Replies)),
		slog.Duration("duration", elapsed),
	}
	if ev.Kind == conversation.EventButton {
		attrs = append(attrs, slog.String("cb_key", logger.SanitizeLimit(ev.Callback, 64)))
	}
	level := slog.LevelInfo
	if out.OpErr != nil {
		level = slog.LevelWarn
		attrs = append(attrs, slog.String("err", out.OpErr.Error()))
	}
	logger.LogEvent(ctx, logger.FSM, level, "fsm.transition", attrs...)

	if d.obs != nil {
		d.obs.Transition(string(from), string(to), out.Op.String(), out.OpErr, elapsed)
	}

	replies := make([]Outbound, len(out.Replies))
	for i, r := range out.Replies {
		replies[i] = Outbound{UserID: userID, Text: r.Text, Keyboard: r.Keyboard, Markdown: r.Markdown}
	}
	return replies, nil
}
