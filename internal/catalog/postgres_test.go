package catalog

import (
	"context"
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, "%app%", containsPattern(" APP "))
	assert.Equal(t, `%100\%\_x%`, containsPattern("100%_x"))
	assert.Equal(t, `%a\\b%`, containsPattern(`a\b`))
}

// Runs against a disposable database: KOLGIDRAT_TEST_DSN=postgres://... go test ./internal/catalog
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("KOLGIDRAT_TEST_DSN")
	if dsn == "" {
		t.Skip("KOLGIDRAT_TEST_DSN not set")
	}
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TEMP TABLE products (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		carbs DOUBLE PRECISION NOT NULL,
		bread_units DOUBLE PRECISION NOT NULL
	)`)
	require.NoError(t, err)

	ctx := context.Background()
	s := NewPostgres(db)

	apple, err := s.Insert(ctx, Product{Name: "Apple", Carbs: 11.4, BreadUnits: 1})
	require.NoError(t, err)
	assert.NotZero(t, apple.ID)
	assert.Equal(t, "apple", apple.Name)

	_, err = s.Insert(ctx, Product{Name: "pineapple", Carbs: 12, BreadUnits: 1})
	require.NoError(t, err)
	_, err = s.Insert(ctx, Product{Name: "100%_juice", Carbs: 10, BreadUnits: 0.8})
	require.NoError(t, err)

	got, err := s.Search(ctx, "APP")
	require.NoError(t, err)
	assert.Equal(t, []string{"apple", "pineapple"}, names(got))

	got, err = s.Search(ctx, "%_")
	require.NoError(t, err)
	assert.Equal(t, []string{"100%_juice"}, names(got))

	n, err := s.DeleteByName(ctx, "APPLE")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.DeleteByName(ctx, "mango")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = s.Insert(ctx, Product{Name: "bad", Carbs: -1})
	assert.ErrorIs(t, err, ErrInvalidProduct)
}
