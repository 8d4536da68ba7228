// Package notefolio wires the application together: configuration, the
// SurrealDB store, the notes service, identity, and the HTTP surface. Live
// views are constructed per consumer from the store's collections; the app
// itself holds no view state.
package notefolio

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/notefolio/notefolio/pkg/identity"
	"github.com/notefolio/notefolio/pkg/notes"
	"github.com/notefolio/notefolio/pkg/store"
	storesurreal "github.com/notefolio/notefolio/pkg/store/surrealdb"
)

// Config holds the application configuration, read from the environment.
type Config struct {
	SurrealDBURL  string
	SurrealDBNS   string
	SurrealDBDB   string
	SurrealDBUser string
	SurrealDBPass string

	ServerPort string
}

// ConfigFromEnv builds a Config from environment variables, with local
// development defaults.
func ConfigFromEnv() *Config {
	return &Config{
		SurrealDBURL:  envOr("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNS:   envOr("SURREALDB_NS", "notefolio"),
		SurrealDBDB:   envOr("SURREALDB_DB", "notefolio"),
		SurrealDBUser: envOr("SURREALDB_USER", "root"),
		SurrealDBPass: envOr("SURREALDB_PASS", "root"),
		ServerPort:    envOr("PORT", "8080"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// App holds the application state.
type App struct {
	config *Config
	store  store.Store
	svc    *notes.Service
	ident  *identity.Memory
	log    zerolog.Logger
}

// New connects to SurrealDB and builds the application.
func New(ctx context.Context, config *Config, log zerolog.Logger) (*App, error) {
	st, err := storesurreal.New(ctx, storesurreal.Config{
		Endpoint:  config.SurrealDBURL,
		Namespace: config.SurrealDBNS,
		Database:  config.SurrealDBDB,
		Username:  config.SurrealDBUser,
		Password:  config.SurrealDBPass,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("connect store: %w", err)
	}
	return NewWithStore(config, st, log), nil
}

// NewWithStore builds the application on an existing store. Tests use this
// with the storetest fake.
func NewWithStore(config *Config, st store.Store, log zerolog.Logger) *App {
	return &App{
		config: config,
		store:  st,
		svc:    notes.NewService(st, log),
		ident:  identity.NewMemory(),
		log:    log,
	}
}

// Store exposes the underlying store for view construction.
func (a *App) Store() store.Store { return a.store }

// Service exposes the mutation service.
func (a *App) Service() *notes.Service { return a.svc }

// Identity exposes the identity provider.
func (a *App) Identity() identity.Provider { return a.ident }

func (a *App) Close() error {
	return a.store.Close()
}
