package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Pleso100/Kolgidrat/core/logger"
)

// Seeder loads reference data once storage is reachable.
type Seeder interface {
	Seed(ctx context.Context) (int, error)
}

// SeederFunc adapts a bare function to the Seeder interface.
type SeederFunc func(ctx context.Context) (int, error)

// Seed executes the underlying function.
func (f SeederFunc) Seed(ctx context.Context) (int, error) {
	return f(ctx)
}

// RunSeeders runs seeders in order and stops at the first failure.
func RunSeeders(ctx context.Context, seeders ...Seeder) error {
	for i, s := range seeders {
		if s == nil {
			continue
		}
		start := time.Now()
		n, err := s.Seed(ctx)
		logger.Info(ctx, "db", "seed.done",
			slog.Int("seeder", i),
			slog.Int("count", n),
			slog.String("status", logger.Status(err)),
			slog.Duration("took", logger.Took(start)),
		)
		if err != nil {
			return fmt.Errorf("bootstrap: seeder %d: %w", i, err)
		}
	}
	return nil
}
