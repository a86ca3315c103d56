package catalog

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(ps []Product) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}

func TestMemorySearchIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_, err := m.Insert(ctx, Product{Name: "Apple", Carbs: 11.4, BreadUnits: 1})
	require.NoError(t, err)

	for _, q := range []string{"app", "APP", "pp", "  Apple "} {
		got, err := m.Search(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, []string{"apple"}, names(got), q)
	}

	got, err := m.Search(ctx, "xyz")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemorySearchKeepsInsertionOrder(t *testing.T) {
	m := NewMemory(
		Product{Name: "pineapple", Carbs: 12, BreadUnits: 1},
		Product{Name: "apple", Carbs: 11, BreadUnits: 1},
		Product{Name: "grape", Carbs: 16, BreadUnits: 1.5},
	)
	got, err := m.Search(context.Background(), "ap")
	require.NoError(t, err)
	assert.Equal(t, []string{"pineapple", "apple", "grape"}, names(got))
}

func TestMemoryInsertAssignsIDAndNormalizes(t *testing.T) {
	m := NewMemory()
	p, err := m.Insert(context.Background(), Product{Name: " Banana ", Carbs: 20.5, BreadUnits: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)
	assert.Equal(t, "banana", p.Name)
	assert.Equal(t, []Product{{ID: 1, Name: "banana", Carbs: 20.5, BreadUnits: 2}}, m.All())
}

func TestMemoryInsertRejectsInvalid(t *testing.T) {
	m := NewMemory()
	for _, p := range []Product{
		{Name: "  ", Carbs: 1, BreadUnits: 1},
		{Name: "x", Carbs: -1, BreadUnits: 1},
		{Name: "x", Carbs: 1, BreadUnits: -0.5},
	} {
		_, err := m.Insert(context.Background(), p)
		assert.ErrorIs(t, err, ErrInvalidProduct)
	}
	assert.Empty(t, m.All())
}

func TestMemoryDeleteByName(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(
		Product{Name: "kiwi", Carbs: 10, BreadUnits: 1},
		Product{Name: "kiwi", Carbs: 11, BreadUnits: 1},
		Product{Name: "kiwi juice", Carbs: 9, BreadUnits: 1},
	)
	n, err := m.DeleteByName(ctx, "KIWI")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, []string{"kiwi juice"}, names(m.All()))

	n, err = m.DeleteByName(ctx, "mango")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemoryHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := NewMemory()
	_, err := m.Search(ctx, "ab")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = m.Insert(ctx, Product{Name: "ab"})
	assert.ErrorIs(t, err, context.Canceled)
	_, err = m.DeleteByName(ctx, "ab")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryConcurrentInserts(t *testing.T) {
	m := NewMemory()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.Insert(context.Background(), Product{Name: "rice", Carbs: 78, BreadUnits: 6.5})
		}()
	}
	wg.Wait()
	all := m.All()
	require.Len(t, all, 32)
	seen := map[int64]bool{}
	for _, p := range all {
		seen[p.ID] = true
	}
	assert.Len(t, seen, 32)
}
