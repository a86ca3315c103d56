package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Pleso100/Kolgidrat/core/logger"
)

const (
	searchQuery = `SELECT id, name, carbs, bread_units FROM products
WHERE LOWER(name) LIKE $1 ESCAPE '\' ORDER BY id`
	insertQuery = `INSERT INTO products (name, carbs, bread_units)
VALUES (:name, :carbs, :bread_units) RETURNING id`
	deleteQuery = `DELETE FROM products WHERE LOWER(name) = LOWER($1)`
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching query literally anywhere in the name.
func containsPattern(query string) string {
	return "%" + likeEscaper.Replace(NormalizeName(query)) + "%"
}

// Postgres is the products table behind sqlx.
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres wraps an open connection pool. Schema comes from migrations.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

// Search implements Store.
func (s *Postgres) Search(ctx context.Context, query string) ([]Product, error) {
	start := time.Now()
	var out []Product
	err := s.db.SelectContext(ctx, &out, searchQuery, containsPattern(query))
	logCall(ctx, "search", start, err, slog.Int("count", len(out)))
	if err != nil {
		return nil, fmt.Errorf("catalog search: %w", err)
	}
	return out, nil
}

// Insert implements Store.
func (s *Postgres) Insert(ctx context.Context, p Product) (Product, error) {
	p.Name = NormalizeName(p.Name)
	if err := p.Validate(); err != nil {
		return Product{}, err
	}
	start := time.Now()
	rows, err := s.db.NamedQueryContext(ctx, insertQuery, p)
	if err == nil {
		if rows.Next() {
			err = rows.Scan(&p.ID)
		} else if err = rows.Err(); err == nil {
			err = fmt.Errorf("no id returned")
		}
		_ = rows.Close()
	}
	logCall(ctx, "insert", start, err, slog.String("product", p.Name))
	if err != nil {
		return Product{}, fmt.Errorf("catalog insert: %w", err)
	}
	return p, nil
}

// DeleteByName implements Store.
func (s *Postgres) DeleteByName(ctx context.Context, name string) (int64, error) {
	start := time.Now()
	var n int64
	res, err := s.db.ExecContext(ctx, deleteQuery, NormalizeName(name))
	if err == nil {
		n, err = res.RowsAffected()
	}
	logCall(ctx, "delete", start, err, slog.String("product", NormalizeName(name)), slog.Int64("count", n))
	if err != nil {
		return 0, fmt.Errorf("catalog delete: %w", err)
	}
	return n, nil
}

func logCall(ctx context.Context, op string, start time.Time, err error, attrs ...slog.Attr) {
	level := slog.LevelDebug
	attrs = append(attrs,
		slog.String("status", logger.Status(err)),
		slog.String("op", op),
		slog.Duration("duration", logger.Took(start)),
	)
	if err != nil {
		level = slog.LevelError
		attrs = append(attrs, slog.String("err", err.Error()))
	}
	logger.LogEvent(ctx, logger.CAT, level, "catalog."+op, attrs...)
}
