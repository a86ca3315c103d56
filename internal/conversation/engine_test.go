package conversation

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pleso100/Kolgidrat/internal/catalog"
	"github.com/Pleso100/Kolgidrat/internal/format"
)

// countingStore records catalog calls and can fail or stall them.
type countingStore struct {
	catalog.Store
	calls atomic.Int32
	err   error
	stall chan struct{}
}

func (c *countingStore) before(ctx context.Context) error {
	c.calls.Add(1)
	if c.stall != nil {
		<-c.stall
	}
	return c.err
}

func (c *countingStore) Search(ctx context.Context, q string) ([]catalog.Product, error) {
	if err := c.before(ctx); err != nil {
		return nil, err
	}
	return c.Store.Search(ctx, q)
}

func (c *countingStore) Insert(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	if err := c.before(ctx); err != nil {
		return catalog.Product{}, err
	}
	return c.Store.Insert(ctx, p)
}

func (c *countingStore) DeleteByName(ctx context.Context, name string) (int64, error) {
	if err := c.before(ctx); err != nil {
		return 0, err
	}
	return c.Store.DeleteByName(ctx, name)
}

func run(t *testing.T, e *Engine, s Session, events ...Event) (Session, []Reply) {
	t.Helper()
	var replies []Reply
	for _, ev := range events {
		out := e.Handle(context.Background(), s, ev)
		require.NoError(t, out.OpErr)
		s = out.Next
		replies = append(replies, out.Replies...)
	}
	return s, replies
}

func TestEngineSearchIsCaseInsensitive(t *testing.T) {
	mem := catalog.NewMemory(catalog.Product{Name: "Apple", Carbs: 11.4, BreadUnits: 1})
	e := NewEngine(mem)
	want := format.Results([]catalog.Product{{ID: 1, Name: "apple", Carbs: 11.4, BreadUnits: 1}})

	for _, q := range []string{"app", "APP", "pp"} {
		_, replies := run(t, e, NewSession(), TextEvent(q))
		require.Len(t, replies, 1)
		assert.Equal(t, want, replies[0].Text, q)
		assert.True(t, replies[0].Markdown)
	}

	_, replies := run(t, e, NewSession(), TextEvent("xyz"))
	require.Len(t, replies, 1)
	assert.Equal(t, format.NotFound(), replies[0].Text)
}

func TestEngineShortQueryNeverTouchesCatalog(t *testing.T) {
	store := &countingStore{Store: catalog.NewMemory()}
	e := NewEngine(store)
	for _, q := range []string{"", "a", " b ", "ї"} {
		_, replies := run(t, e, NewSession(), TextEvent(q))
		require.Len(t, replies, 1)
		assert.Equal(t, textTooShort, replies[0].Text)
	}
	assert.Zero(t, store.calls.Load())
}

func TestEngineAddFlowRoundTrip(t *testing.T) {
	mem := catalog.NewMemory()
	e := NewEngine(mem, WithPassword("s3cret"))

	s, replies := run(t, e, NewSession(),
		TextEvent("s3cret"),
		ButtonEvent(CallbackAddProduct),
		TextEvent("banana"),
		TextEvent("20.5"),
		TextEvent("2"),
	)
	assert.Equal(t, Session{State: StateIdle, IsAdmin: true}, s)
	assert.True(t, s.Pending.Empty())
	assert.Equal(t, []catalog.Product{{ID: 1, Name: "banana", Carbs: 20.5, BreadUnits: 2}}, mem.All())

	last := replies[len(replies)-1]
	assert.Equal(t, format.Added(catalog.Product{ID: 1, Name: "banana", Carbs: 20.5, BreadUnits: 2}), last.Text)
	assert.True(t, last.Markdown)
}

func TestEngineRemoveMissingName(t *testing.T) {
	mem := catalog.NewMemory(catalog.Product{Name: "kiwi", Carbs: 10, BreadUnits: 1})
	e := NewEngine(mem, WithPassword("s3cret"))

	s, replies := run(t, e, NewSession(),
		TextEvent("s3cret"),
		ButtonEvent(CallbackRemoveProduct),
		TextEvent("mango"),
	)
	assert.Equal(t, StateIdle, s.State)
	assert.Equal(t, format.Removed("mango", 0), replies[len(replies)-1].Text)
	assert.Len(t, mem.All(), 1)

	s, _ = run(t, e, s, ButtonEvent(CallbackAdmin), ButtonEvent(CallbackRemoveProduct), TextEvent("KIWI"))
	assert.Equal(t, StateIdle, s.State)
	assert.Empty(t, mem.All())
}

func TestEngineCatalogFailureResetsToIdle(t *testing.T) {
	store := &countingStore{Store: catalog.NewMemory(), err: errors.New("connection refused")}
	e := NewEngine(store)

	s := Session{
		State:   StateAwaitingAddBreadUnits,
		IsAdmin: true,
		Pending: PendingProduct{Name: strp("rice"), Carbs: fp(78)},
	}
	out := e.Handle(context.Background(), s, TextEvent("6.5"))
	require.Error(t, out.OpErr)
	assert.Equal(t, OpInsert, out.Op)
	assert.Equal(t, Session{State: StateIdle, IsAdmin: true}, out.Next)
	require.Len(t, out.Replies, 1)
	assert.Equal(t, textFailure, out.Replies[0].Text)

	out = e.Handle(context.Background(), Session{State: StateAdminMenu, IsAdmin: true}, TextEvent("/search rice"))
	require.Error(t, out.OpErr)
	assert.Equal(t, StateIdle, out.Next.State)
}

func TestEngineCatalogTimeoutIsBounded(t *testing.T) {
	stall := make(chan struct{})
	defer close(stall)
	store := &countingStore{Store: catalog.NewMemory(), stall: stall}
	e := NewEngine(store, WithCatalogTimeout(30*time.Millisecond))

	start := time.Now()
	out := e.Handle(context.Background(), NewSession(), TextEvent("apple"))
	assert.Less(t, time.Since(start), time.Second)
	assert.ErrorIs(t, out.OpErr, context.DeadlineExceeded)
	require.Len(t, out.Replies, 1)
	assert.Equal(t, textFailure, out.Replies[0].Text)
	assert.Equal(t, StateIdle, out.Next.State)
}

func TestEngineWithoutOpLeavesCatalogAlone(t *testing.T) {
	store := &countingStore{Store: catalog.NewMemory()}
	e := NewEngine(store, WithPassword("s3cret"))
	_, _ = run(t, e, NewSession(), TextEvent("/start"), TextEvent("s3cret"), ButtonEvent(CallbackCancel))
	assert.Zero(t, store.calls.Load())
}
