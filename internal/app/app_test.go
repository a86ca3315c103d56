package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/Pleso100/Kolgidrat/core/config"
	coredatabase "github.com/Pleso100/Kolgidrat/core/database"
	coretelegram "github.com/Pleso100/Kolgidrat/core/telegram"
	"github.com/Pleso100/Kolgidrat/internal/catalog"
	"github.com/Pleso100/Kolgidrat/internal/conversation"
)

func memoryConfig() *Config {
	cfg := &Config{
		Config:  coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "t"}},
		Admin:   AdminConfig{Password: "s3cret"},
		Catalog: CatalogConfig{Backend: BackendMemory},
	}
	if err := Normalize(cfg); err != nil {
		panic(err)
	}
	return cfg
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `telegram:
  token: from-file
catalog:
  backend: memory
  seed:
    - name: Apple
      carbs: 11.4
      bread_units: 1
session:
  backend: redis
  redis_addr: localhost:6379
  ttl_seconds: 3600
metrics:
  listen: ":9090"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("ADMIN_PASSWORD", "from-env")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Telegram.Token)
	assert.Equal(t, coreconfig.RunModeLongpoll, cfg.Telegram.RunMode)
	assert.Equal(t, "from-env", cfg.Admin.Password)
	assert.Equal(t, []SeedProduct{{Name: "Apple", Carbs: 11.4, BreadUnits: 1}}, cfg.Catalog.Seed)
	assert.Equal(t, conversation.DefaultCatalogTimeout, cfg.Catalog.CatalogTimeout())
	assert.Equal(t, "kolgidrat:session:", cfg.Session.Prefix)
	assert.Equal(t, time.Hour, cfg.Session.TTL())
	assert.Equal(t, ":9090", cfg.Metrics.Listen)
	assert.Same(t, &cfg.Config, cfg.CoreConfig())
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := &Config{
		Config:   coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "t"}},
		Database: coredatabase.Config{Host: "localhost", Name: "kolgidrat", User: "bot"},
	}
	require.NoError(t, Normalize(cfg))
	assert.Equal(t, BackendPostgres, cfg.Catalog.Backend)
	assert.Equal(t, BackendMemory, cfg.Session.Backend)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "migrations", cfg.Database.MigrationsDir)
}

func TestNormalizeRejects(t *testing.T) {
	base := func(mut func(*Config)) *Config {
		cfg := &Config{Config: coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "t"}}, Catalog: CatalogConfig{Backend: BackendMemory}}
		mut(cfg)
		return cfg
	}
	cases := map[string]*Config{
		"nil":              nil,
		"core":             base(func(c *Config) { c.Telegram.Token = "" }),
		"postgres w/o db":  base(func(c *Config) { c.Catalog.Backend = BackendPostgres }),
		"catalog backend":  base(func(c *Config) { c.Catalog.Backend = "sqlite" }),
		"negative timeout": base(func(c *Config) { c.Catalog.TimeoutMS = -1 }),
		"session backend":  base(func(c *Config) { c.Session.Backend = "etcd" }),
		"redis w/o addr":   base(func(c *Config) { c.Session.Backend = BackendRedis }),
		"negative ttl":     base(func(c *Config) { c.Session.TTLSeconds = -1 }),
		"negative lock":    base(func(c *Config) { c.Session.LockTTLMS = -1 }),
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, Normalize(cfg))
		})
	}
}

func TestNewRequiresDatabaseForPostgres(t *testing.T) {
	cfg := memoryConfig()
	cfg.Catalog.Backend = BackendPostgres
	_, err := New(cfg, nil)
	assert.Error(t, err)
}

func TestSeederFillsEmptyCatalogOnce(t *testing.T) {
	cfg := memoryConfig()
	cfg.Catalog.Seed = []SeedProduct{{Name: "Apple", Carbs: 11.4, BreadUnits: 1}, {Name: "Milk", Carbs: 4.7, BreadUnits: 0.4}}
	a, err := New(cfg, nil)
	require.NoError(t, err)

	n, err := a.Seeder().Seed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = a.Seeder().Seed(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	mem := a.store.(*catalog.Memory)
	assert.Equal(t, []string{"apple", "milk"}, []string{mem.All()[0].Name, mem.All()[1].Name})
}

func TestSeederRejectsInvalidRow(t *testing.T) {
	cfg := memoryConfig()
	cfg.Catalog.Seed = []SeedProduct{{Name: " ", Carbs: 1}}
	a, err := New(cfg, nil)
	require.NoError(t, err)
	_, err = a.Seeder().Seed(context.Background())
	assert.ErrorIs(t, err, catalog.ErrInvalidProduct)
}

func TestWiredDispatcherRunsConversation(t *testing.T) {
	a, err := New(memoryConfig(), nil)
	require.NoError(t, err)
	ctx := context.Background()

	out, err := a.dispatcher.Handle(ctx, 7, conversation.TextEvent("s3cret"))
	require.NoError(t, err)
	require.NotEmpty(t, out)
	assert.NotEmpty(t, out[0].Keyboard)
}

func TestRedisSessionsAndHealth(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := memoryConfig()
	cfg.Session = SessionConfig{Backend: BackendRedis, RedisAddr: mr.Addr(), LockTTLMS: 1000}
	require.NoError(t, Normalize(cfg))

	a, err := New(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	_, err = a.dispatcher.Handle(context.Background(), 7, conversation.TextEvent("s3cret"))
	require.NoError(t, err)
	assert.True(t, mr.Exists("kolgidrat:session:7"))

	checks := a.Health()
	require.Contains(t, checks, "redis")
	assert.NoError(t, checks["redis"](context.Background()))
}

func TestRunOptionsServeMetrics(t *testing.T) {
	cfg := memoryConfig()
	cfg.Metrics.Listen = "127.0.0.1:0"
	a, err := New(cfg, nil)
	require.NoError(t, err)

	opts, err := a.TelegramRunOptions()
	require.NoError(t, err)
	assert.Same(t, &cfg.Config, opts.Config)
	assert.NotEmpty(t, opts.Routes)
	assert.Len(t, opts.Middlewares, 3)
	assert.Equal(t, 1, opts.DispatcherOptions.Workers)

	require.NoError(t, opts.OnStart(context.Background(), coretelegram.Runtime{}))
	require.NoError(t, opts.OnStop(context.Background(), coretelegram.Runtime{}))
}
