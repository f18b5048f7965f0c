// Package daemon wires configuration, database, provider client, auth
// engine and web service together into the running process.
package daemon

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/storage"
	"github.com/gofiber/storage/memory"
	sessionmysql "github.com/gofiber/storage/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/alexandrevcalmon/authcore/internal/auth"
	"github.com/alexandrevcalmon/authcore/internal/cache"
	"github.com/alexandrevcalmon/authcore/internal/config"
	"github.com/alexandrevcalmon/authcore/internal/db/dsn"
	"github.com/alexandrevcalmon/authcore/internal/db/models"
	"github.com/alexandrevcalmon/authcore/internal/provider"
	"github.com/alexandrevcalmon/authcore/internal/web"
	"github.com/alexandrevcalmon/authcore/internal/web/session"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg       *config.Config
	db        *gorm.DB
	storage   storage.Storage
	client    *provider.HTTPClient
	roleCache *cache.RoleCache
}

// New prepares a Daemon from the provided configuration: database,
// session storage, provider client and cache. The engine itself binds to
// the run context inside Start.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err = db.AutoMigrate(
		&models.Producer{},
		&models.Company{},
		&models.CompanyUser{},
		&models.Profile{},
	); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	if cfg.DevMode {
		seed(db)
	}

	sessionStorage := openStorage(cfg)
	session.Init(sessionStorage)

	client := provider.NewHTTPClient(provider.HTTPConfig{
		BaseURL:    cfg.Provider.URL,
		AnonKey:    cfg.Provider.AnonKey,
		ServiceKey: cfg.Provider.ServiceKey,
		JWTSecret:  cfg.Provider.JWTSecret,
		Timeout:    cfg.Provider.Timeout,
		Store:      provider.NewStorageTokenStore(sessionStorage),
	})

	var roleCache *cache.RoleCache
	if cfg.Cache.Enabled {
		roleCache = cache.New(cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB)

		log.Info().Str("addr", cfg.Cache.Addr).Msg("role cache enabled")
	}

	return &Daemon{
		cfg:       cfg,
		db:        db,
		storage:   sessionStorage,
		client:    client,
		roleCache: roleCache,
	}, nil
}

// Start runs the daemon until ctx is canceled or a termination signal
// arrives.
func (d *Daemon) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine := auth.New(ctx, auth.Config{
		Provider:            d.client,
		DB:                  d.db,
		Cache:               d.roleCache,
		Storage:             d.storage,
		MonitorInterval:     d.cfg.Monitor.Interval,
		PasswordRedirectURL: d.cfg.Provider.PasswordRedirectURL,
	})

	webService, err := web.New(d.cfg, engine)
	if err != nil {
		return fmt.Errorf("init web service: %w", err)
	}

	engine.Start(ctx)
	defer engine.Close()

	addr := fmt.Sprintf(":%d", d.cfg.Webserver.Port)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("starting http server")

		return webService.Start(addr)
	})

	g.Go(func() error {
		return engine.RunMonitor(ctx)
	})

	g.Go(func() error {
		<-ctx.Done()

		log.Info().Msg("shutdown requested")
		webService.Shutdown()

		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	if d.roleCache != nil {
		if err := d.roleCache.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close role cache")
		}
	}

	log.Info().Msg("daemon stopped")

	return nil
}

// openDatabase opens the gorm connection for the configured engine.
func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.DB.GormEngine {
	case "mysql":
		dialector = gormmysql.Open(dsn.Create(cfg))
	case "postgres":
		dialector = gormpostgres.Open(dsn.CreatePostgres(cfg))
	case "sqlite":
		dialector = sqlite.Open(cfg.DB.Name)
	default:
		return nil, fmt.Errorf("unknown gorm engine %q", cfg.DB.GormEngine)
	}

	return gorm.Open(dialector, &gorm.Config{})
}

// openStorage picks the session storage backend. Sessions only need to
// survive restarts on mysql; everything else runs in memory.
func openStorage(cfg *config.Config) storage.Storage {
	if cfg.DB.GormEngine == "mysql" && !cfg.DevMode {
		return sessionmysql.New(sessionmysql.Config{
			ConnectionURI: dsn.Create(cfg),
			Table:         "sessions",
		})
	}

	return memory.New()
}
