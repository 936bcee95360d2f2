package providers

import (
	"fmt"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/listenupapp/recipes-server/internal/config"
	"github.com/listenupapp/recipes-server/internal/logger"
	"github.com/listenupapp/recipes-server/internal/store/kv"
	"github.com/listenupapp/recipes-server/internal/store/sqlite"
)

const (
	databaseFile   = "recipes.db"
	sessionsSubdir = "sessions"
)

// StoreHandle wraps the relational store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the SQLite store for users, tags, ingredients and recipes.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := filepath.Join(cfg.Storage.DataPath, databaseFile)
	db, err := sqlite.Open(dbPath, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	log.Info("Database initialized", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}

// SessionRegistryHandle wraps the Badger session registry with shutdown capability.
type SessionRegistryHandle struct {
	*kv.Sessions
}

// Shutdown implements do.Shutdownable.
func (h *SessionRegistryHandle) Shutdown() error {
	return h.Close()
}

// ProvideSessionRegistry provides the registry of live access tokens.
func ProvideSessionRegistry(i do.Injector) (*SessionRegistryHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	path := filepath.Join(cfg.Storage.DataPath, sessionsSubdir)
	sessions, err := kv.Open(path, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("open session registry: %w", err)
	}

	log.Info("Session registry initialized", "path", path)

	return &SessionRegistryHandle{Sessions: sessions}, nil
}
