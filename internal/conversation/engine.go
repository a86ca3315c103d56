package conversation

import (
	"context"
	"fmt"
	"time"

	"github.com/Pleso100/Kolgidrat/internal/catalog"
	"github.com/Pleso100/Kolgidrat/internal/format"
)

// DefaultCatalogTimeout bounds a single catalog call.
const DefaultCatalogTimeout = 3 * time.Second

// Outcome is what Engine.Handle produced for one event.
type Outcome struct {
	Next    Session
	Replies []Reply
	Op      OpKind
	// OpErr is the catalog error, if the operation failed.
	OpErr error
}

// Engine executes decisions against a catalog.
type Engine struct {
	rules   Rules
	store   catalog.Store
	timeout time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithPassword sets the shared admin password.
func WithPassword(p string) Option {
	return func(e *Engine) { e.rules.Password = p }
}

// WithCatalogTimeout overrides DefaultCatalogTimeout. Non-positive values are ignored.
func WithCatalogTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewEngine builds an engine over store.
func NewEngine(store catalog.Store, opts ...Option) *Engine {
	e := &Engine{store: store, timeout: DefaultCatalogTimeout}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Handle applies ev to s. A failed catalog call yields the generic failure
// reply and an idle session with pending data cleared.
func (e *Engine) Handle(ctx context.Context, s Session, ev Event) Outcome {
	d := Decide(s, ev, e.rules)
	out := Outcome{Next: d.Next, Replies: d.Replies, Op: d.Op.Kind}
	if d.Op.Kind == OpNone {
		return out
	}

	reply, err := e.run(ctx, d.Op)
	if err != nil {
		out.OpErr = err
		out.Next = d.Next.idle()
		out.Replies = append(out.Replies, plain(textFailure))
		return out
	}
	out.Replies = append(out.Replies, reply)
	return out
}

type opResult struct {
	reply Reply
	err   error
}

// run bounds the call even when the store ignores ctx.
func (e *Engine) run(ctx context.Context, op Op) (Reply, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	done := make(chan opResult, 1)
	go func() {
		reply, err := e.call(ctx, op)
		done <- opResult{reply: reply, err: err}
	}()
	select {
	case r := <-done:
		return r.reply, r.err
	case <-ctx.Done():
		return Reply{}, fmt.Errorf("catalog %s: %w", op.Kind, ctx.Err())
	}
}

func (e *Engine) call(ctx context.Context, op Op) (Reply, error) {
	switch op.Kind {
	case OpSearch:
		products, err := e.store.Search(ctx, op.Query)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Text: format.Results(products), Markdown: true}, nil
	case OpInsert:
		p, err := e.store.Insert(ctx, op.Product)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Text: format.Added(p), Markdown: true}, nil
	case OpDelete:
		n, err := e.store.DeleteByName(ctx, op.Name)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Text: format.Removed(op.Name, n), Markdown: true}, nil
	}
	return Reply{}, fmt.Errorf("unknown catalog op %d", op.Kind)
}
