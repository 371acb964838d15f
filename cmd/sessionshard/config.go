package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/sessionshard"
	"github.com/aretw0/sessionshard/internal/logging"
	"github.com/aretw0/sessionshard/pkg/config"
	"github.com/aretw0/sessionshard/pkg/persistence/middleware"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

func loadDotEnv(files ...string) {
	for _, f := range files {
		// a missing file is not an error
		_ = godotenv.Load(f)
	}
}

// loadConfig builds the configuration from defaults, the config file and
// then flags or environment variables, the later ones winning.
func loadConfig() (config.Config, error) {
	cfg := config.Default()

	if path := viper.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	if viper.IsSet("save-path") {
		cfg.SavePath = viper.GetString("save-path")
	}
	if viper.IsSet("max-lifetime") {
		cfg.MaxLifetime = viper.GetDuration("max-lifetime")
	}
	if viper.IsSet("log-level") {
		cfg.LogLevel = viper.GetString("log-level")
	}
	if viper.IsSet("lock-addr") {
		cfg.Lock.Addr = viper.GetString("lock-addr")
	}
	if viper.IsSet("listen") {
		cfg.Listen = viper.GetString("listen")
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newLogger(cfg config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.New(level), nil
}

// setup loads the configuration and builds the logger it asks for.
func setup() (config.Config, *slog.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

// openHandler opens a session handler for cfg, encrypting values when an
// encryption key is configured.
func openHandler(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...sessionshard.Option) (*sessionshard.Handler, error) {
	opts = append([]sessionshard.Option{sessionshard.WithLogger(logger)}, opts...)

	if raw := viper.GetString("encryption-key"); raw != "" {
		key, err := middleware.ParseKey(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid encryption key: %w", err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("invalid encryption key: want 32 bytes, got %d", len(key))
		}
		opts = append(opts, sessionshard.WithMiddleware(
			middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}),
		))
	}

	return sessionshard.Open(ctx, cfg, opts...)
}

// open is setup followed by openHandler.
func open(ctx context.Context) (*sessionshard.Handler, error) {
	cfg, logger, err := setup()
	if err != nil {
		return nil, err
	}
	return openHandler(ctx, cfg, logger)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
