// Package config loads bookmark hub configuration from environment
// variables (per spec §6), an optional TOML override file, and defaults,
// in that precedence order (lowest first): defaults < file < environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Postgres holds the PG_* connection settings.
type Postgres struct {
	Host          string
	Port          int
	User          string
	Password      string
	Database      string
	MaxConns      int
}

// Config is the fully-resolved runtime configuration for the core.
type Config struct {
	Postgres Postgres

	// HMACKey is accepted and passed through for the (external) auth layer;
	// the core never reads it.
	HMACKey string

	AppBind    string
	AppDataDir string

	ReadabilityURL string

	OllamaURL            string
	OllamaTextModel      string
	OllamaEmbeddingModel string

	// WorkerPoolSize, PollInterval, VisibilityTimeout, and DrainTimeout tune
	// the task queue (§4.2, §5) and have no boundary-facing env var in §6's
	// table, but are still environment-configured per §10.
	WorkerPoolSize    int
	PollInterval      time.Duration
	VisibilityTimeout time.Duration
	DrainTimeout      time.Duration

	Debug bool
}

const envPrefix = "BOOKMARKHUB"

// Load resolves configuration from an optional TOML file, then environment
// variables (BOOKMARKHUB_PG_HOST etc. and the literal names in spec.md §6),
// then defaults for anything left unset.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindBoundaryEnvNames(v)

	cfg := &Config{
		Postgres: Postgres{
			Host:     v.GetString("pg.host"),
			Port:     v.GetInt("pg.port"),
			User:     v.GetString("pg.user"),
			Password: v.GetString("pg.password"),
			Database: v.GetString("pg.database"),
			MaxConns: v.GetInt("pg.max_connections"),
		},
		HMACKey:              v.GetString("hmac.key"),
		AppBind:              v.GetString("app.bind"),
		AppDataDir:           v.GetString("app.data_dir"),
		ReadabilityURL:       v.GetString("readability.url"),
		OllamaURL:            v.GetString("ollama.url"),
		OllamaTextModel:      v.GetString("ollama.text_model"),
		OllamaEmbeddingModel: v.GetString("ollama.embedding_model"),
		WorkerPoolSize:       v.GetInt("worker.pool_size"),
		PollInterval:         v.GetDuration("worker.poll_interval"),
		VisibilityTimeout:    v.GetDuration("worker.visibility_timeout"),
		DrainTimeout:         v.GetDuration("worker.drain_timeout"),
		Debug:                v.GetBool("debug"),
	}

	return cfg, nil
}

// bindBoundaryEnvNames binds the literal environment variable names spec.md
// §6 promises (PG_HOST, READABILITY_URL, ...) in addition to the
// BOOKMARKHUB_-prefixed form AutomaticEnv already provides, so operators can
// use either.
func bindBoundaryEnvNames(v *viper.Viper) {
	pairs := map[string]string{
		"pg.host":             "PG_HOST",
		"pg.port":             "PG_PORT",
		"pg.user":             "PG_USER",
		"pg.password":         "PG_PASSWORD",
		"pg.database":         "PG_DATABASE",
		"pg.max_connections":  "PG_MAX_CONNECTIONS",
		"hmac.key":            "HMAC_KEY",
		"app.bind":            "APP_BIND",
		"app.data_dir":        "APP_DATA_DIR",
		"readability.url":     "READABILITY_URL",
		"ollama.url":          "OLLAMA_URL",
		"ollama.text_model":   "OLLAMA_TEXT_MODEL",
		"ollama.embedding_model": "OLLAMA_EMBEDDING_MODEL",
	}
	for key, env := range pairs {
		_ = v.BindEnv(key, env)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("pg.host", "localhost")
	v.SetDefault("pg.port", 5432)
	v.SetDefault("pg.user", "bookmarkhub")
	v.SetDefault("pg.password", "")
	v.SetDefault("pg.database", "bookmarkhub")
	v.SetDefault("pg.max_connections", 5)

	v.SetDefault("app.bind", ":8080")
	v.SetDefault("app.data_dir", "./data")

	v.SetDefault("readability.url", "http://localhost:3001")
	v.SetDefault("ollama.url", "http://localhost:11434")
	v.SetDefault("ollama.text_model", "llama3.1")
	v.SetDefault("ollama.embedding_model", "nomic-embed-text")

	v.SetDefault("worker.pool_size", 4)
	v.SetDefault("worker.poll_interval", 2*time.Second)
	v.SetDefault("worker.visibility_timeout", 5*time.Minute)
	v.SetDefault("worker.drain_timeout", 30*time.Second)

	v.SetDefault("debug", false)
}

// Watch re-invokes onChange whenever the optional TOML config file changes
// on disk, mirroring viper's own fsnotify-backed WatchConfig. No-op when
// configFile is empty.
func Watch(configFile string, onChange func()) error {
	if configFile == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating config watcher: %w", err)
	}

	if err := watcher.Add(configFile); err != nil {
		watcher.Close()
		return fmt.Errorf("watching config file: %w", err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					onChange()
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return nil
}

// DSN renders a libpq-style connection string for pgx.
func (p Postgres) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		p.Host, p.Port, p.User, p.Password, p.Database,
	)
}
