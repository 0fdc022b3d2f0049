package main

import (
	"context"
	"fmt"

	"github.com/edgeplane/corectl/internal/audit"
	"github.com/edgeplane/corectl/internal/cache"
	"github.com/edgeplane/corectl/internal/callback"
	"github.com/edgeplane/corectl/internal/category"
	"github.com/edgeplane/corectl/internal/procconfig"
	"github.com/edgeplane/corectl/internal/storage/sqlite"
)

// app bundles the collaborators every CLI verb needs: a category store
// bound to an open database, audit log and cache, plus the resolved
// settings (so daemon-only verbs can reach DBPath, ListenAddr, etc.).
type app struct {
	settings  procconfig.Settings
	db        *sqlite.SQLiteStorage
	store     *category.Store
	callbacks *callback.Registry
}

func openApp(ctx context.Context) (*app, error) {
	settings, err := procconfig.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if dbPath != "" {
		settings.DBPath = dbPath
	}

	db, err := sqlite.Open(ctx, settings.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", settings.DBPath, err)
	}

	auditLog, err := audit.Open(settings.AuditLogPath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open audit log: %w", err)
	}

	c := cache.New()
	cb := callback.New()
	if err := cb.Load(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("load persisted interests: %w", err)
	}
	store := category.New(db, c, auditLog, cb)

	return &app{settings: settings, db: db, store: store, callbacks: cb}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}
