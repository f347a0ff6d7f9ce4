package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"pagebuilder/internal/bus"
	"pagebuilder/internal/catalog"
	"pagebuilder/internal/config"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/secret"
	"pagebuilder/internal/service"
	"pagebuilder/internal/storage"
)

// app is the wiring shared by the commands: the storage database and an
// editor backed by it.
type app struct {
	cfg     *config.Config
	logger  *log.Logger
	db      *storage.DB
	docs    *storage.DocumentStore
	history *storage.HistoryStore
	editor  *service.EditorService
}

// openApp opens the configured database and builds an editor on it.
// emitter may be nil.
func openApp(ctx context.Context, emitter service.EventEmitter) (*app, error) {
	cfg := configFromContext(ctx)
	logger := loggerFromContext(ctx)

	db, err := storage.New(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	logger.Debug("storage opened", "path", db.Path())

	a := &app{
		cfg:     cfg,
		logger:  logger,
		db:      db,
		docs:    storage.NewDocumentStore(db),
		history: storage.NewHistoryStore(db),
	}
	a.editor = service.NewEditorService(service.EditorConfig{
		Registry:     bus.NewRegistry(),
		Effects:      logEffects{logger},
		Store:        a.docs,
		History:      a.history,
		GridSize:     cfg.Editor.GridSize,
		HistoryLimit: cfg.Editor.HistoryLimit,
		MaxHops:      cfg.Editor.MaxHops,
	}, emitter, logger)
	return a, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// secrets holds catalog passwords. Tests replace it.
var secrets secret.SecretStore = secret.NewKeychainStore()

// openCatalog connects the configured catalog, read through Redis when an
// address is set. It returns nil when no catalog database is configured.
// The password comes from the environment, else from the keychain.
func openCatalog(ctx context.Context, cfg *config.Config, logger *log.Logger) (catalog.Source, error) {
	c := cfg.Catalog
	if c.Driver == "" && c.Database == "" {
		return nil, nil
	}
	password, err := secret.Resolve(secrets, secret.CatalogKey(c.Driver, c.Host, c.Database), c.Password)
	if err != nil {
		return nil, err
	}
	src, err := catalog.Open(ctx, c.Config, password)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	logger.Info("catalog connected", "driver", c.Driver, "database", c.Database)

	if c.RedisAddr == "" {
		return src, nil
	}
	cache, err := catalog.NewRedisCache(ctx, c.RedisAddr)
	if err != nil {
		logger.Warn("catalog cache disabled", "err", err)
		return src, nil
	}
	logger.Info("catalog cache enabled", "redis", c.RedisAddr, "ttl", c.CacheTTL.Duration)
	return catalog.Cached(src, cache, c.CacheTTL.Duration), nil
}

// logEffects reports cart and navigate side effects in the log; the CLI has
// no cart or router of its own.
type logEffects struct {
	logger *log.Logger
}

func (e logEffects) AddToCart(c domain.Connection, p bus.Payload) {
	e.logger.Info("add to cart", "connection", c.ID, "target", c.TargetElementID, "value", p.Value)
}

func (e logEffects) Navigate(c domain.Connection, p bus.Payload) {
	e.logger.Info("navigate", "connection", c.ID, "target", c.TargetElementID, "value", p.Value)
}
