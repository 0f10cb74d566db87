package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"lrcsync/internal/cache"
	"lrcsync/internal/config"
	"lrcsync/internal/hooks"
	"lrcsync/internal/index"
	"lrcsync/internal/localcatalog"
	"lrcsync/internal/logging"
	"lrcsync/internal/orchestrator"
	"lrcsync/internal/remoteclient"
	"lrcsync/internal/reporttemplate"
	"lrcsync/internal/resolver"
)

// commandContext lazily builds and caches the handles shared across
// subcommands: config, structured logger, the Index store, the cache
// tiers, the optional local catalog, the remote HTTP client, and the
// Resolver/Orchestrator built from them.
type commandContext struct {
	configFlag     *string
	debugComponent *string
	jsonLogPath    *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error

	storeOnce sync.Once
	store     *index.Store
	storeErr  error

	catalogOnce sync.Once
	catalog     *localcatalog.Catalog
	catalogErr  error

	hooksOnce sync.Once
	hooks     *hooks.Manager
	hooksErr  error

	templatesOnce sync.Once
	templates     *reporttemplate.Engine
	templatesErr  error

	kvTier *cache.KVTier

	resolverOnce sync.Once
	resolver     *resolver.Resolver
	resolverErr  error

	orchestratorOnce sync.Once
	orchestrator     *orchestrator.Orchestrator
	orchestratorErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

// componentLogger returns a logger tagged with the given component name. If
// --debug-component names this component, its minimum level is forced to
// debug regardless of the configured logging.level, so a single noisy
// subsystem can be inspected without dropping the rest of the run to debug
// verbosity.
func (c *commandContext) componentLogger(logger *slog.Logger, name string) *slog.Logger {
	tagged := logging.NewComponentLogger(logger, name)
	if c.debugComponent == nil {
		return tagged
	}
	want := strings.TrimSpace(*c.debugComponent)
	if want == "" || !strings.EqualFold(want, name) {
		return tagged
	}
	return logging.WithLevelOverride(tagged, slog.LevelDebug)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = err
			return
		}
		if c.jsonLogPath != nil {
			logger, err = logging.TeeJSONFile(logger, *c.jsonLogPath, slog.LevelDebug)
			if err != nil {
				c.loggerErr = err
				return
			}
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) ensureStore() (*index.Store, error) {
	c.storeOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.storeErr = err
			return
		}
		store, err := index.Open(cfg.Paths.DatabasePath)
		if err != nil {
			c.storeErr = fmt.Errorf("open index: %w", err)
			return
		}
		c.store = store
	})
	return c.store, c.storeErr
}

func (c *commandContext) ensureCatalog() (*localcatalog.Catalog, error) {
	c.catalogOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.catalogErr = err
			return
		}
		path := strings.TrimSpace(cfg.Paths.LocalCatalogPath)
		if path == "" {
			return
		}
		if _, statErr := os.Stat(path); statErr != nil {
			return
		}
		catalog, err := localcatalog.Open(path)
		if err != nil {
			c.catalogErr = fmt.Errorf("open local catalog: %w", err)
			return
		}
		c.catalog = catalog
	})
	return c.catalog, c.catalogErr
}

// hooksConfigPath returns the path of the hooks.toml file sibling to the
// Index database, the same directory convention the sample config's
// `config path` and the cache/file-cache directories use.
func (c *commandContext) hooksConfigPath() (string, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(cfg.Paths.DatabasePath)
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, "hooks.toml"), nil
}

func (c *commandContext) ensureHooks() (*hooks.Manager, error) {
	c.hooksOnce.Do(func() {
		logger, err := c.ensureLogger()
		if err != nil {
			c.hooksErr = err
			return
		}
		path, err := c.hooksConfigPath()
		if err != nil {
			c.hooksErr = err
			return
		}
		manager := hooks.NewManager(c.componentLogger(logger, "hooks"))
		if err := manager.Load(path); err != nil {
			c.hooksErr = fmt.Errorf("load hooks config: %w", err)
			return
		}
		c.hooks = manager
	})
	return c.hooks, c.hooksErr
}

// templatesConfigPath returns the path of the templates.toml file sibling
// to the Index database, the same directory convention hooksConfigPath
// uses.
func (c *commandContext) templatesConfigPath() (string, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(cfg.Paths.DatabasePath)
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, "templates.toml"), nil
}

func (c *commandContext) ensureTemplates() (*reporttemplate.Engine, error) {
	c.templatesOnce.Do(func() {
		path, err := c.templatesConfigPath()
		if err != nil {
			c.templatesErr = err
			return
		}
		engine := reporttemplate.NewEngine()
		if err := engine.Load(path); err != nil {
			c.templatesErr = fmt.Errorf("load templates config: %w", err)
			return
		}
		c.templates = engine
	})
	return c.templates, c.templatesErr
}

func (c *commandContext) ensureResolver() (*resolver.Resolver, error) {
	c.resolverOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.resolverErr = err
			return
		}
		logger, err := c.ensureLogger()
		if err != nil {
			c.resolverErr = err
			return
		}

		fileTier, err := cache.NewFileTier(
			cfg.Paths.FileCacheDir,
			cfg.FileCache.MaxBytes,
			time.Duration(cfg.FileCache.RetentionDays)*24*time.Hour,
		)
		if err != nil {
			c.resolverErr = fmt.Errorf("open file cache: %w", err)
			return
		}

		var kvTier *cache.KVTier
		if cfg.SharedCache.Enabled {
			kvTier = cache.NewKVTier(cfg.SharedCache.URL, cfg.SharedCache.Namespace, c.componentLogger(logger, "cache.kv"))
			c.kvTier = kvTier
		}

		catalog, err := c.ensureCatalog()
		if err != nil {
			c.resolverErr = err
			return
		}

		remote, err := remoteclient.New(remoteclient.Config{
			BaseURL:           cfg.Remote.BaseURL,
			RequestsPerSecond: cfg.Remote.RequestsPerSecond,
			AttemptTimeout:    time.Duration(cfg.Remote.TimeoutSeconds) * time.Second,
			CallBudget:        time.Duration(cfg.Remote.CallBudgetSeconds) * time.Second,
		})
		if err != nil {
			c.resolverErr = fmt.Errorf("build remote client: %w", err)
			return
		}

		c.resolver = &resolver.Resolver{
			Cache:   cache.NewTier(kvTier, fileTier),
			Catalog: catalog,
			Remote:  remote,
		}
	})
	return c.resolver, c.resolverErr
}

func (c *commandContext) ensureOrchestrator() (*orchestrator.Orchestrator, error) {
	c.orchestratorOnce.Do(func() {
		store, err := c.ensureStore()
		if err != nil {
			c.orchestratorErr = err
			return
		}
		res, err := c.ensureResolver()
		if err != nil {
			c.orchestratorErr = err
			return
		}
		logger, err := c.ensureLogger()
		if err != nil {
			c.orchestratorErr = err
			return
		}
		hookManager, err := c.ensureHooks()
		if err != nil {
			c.orchestratorErr = err
			return
		}
		c.orchestrator = &orchestrator.Orchestrator{
			Store:    store,
			Resolver: res,
			Logger:   c.componentLogger(logger, "orchestrator"),
			Hooks:    hookManager,
		}
	})
	return c.orchestrator, c.orchestratorErr
}

// pathResolver builds an orchestrator.PathResolver backed by the Index's
// registered directories.
func (c *commandContext) pathResolver() (orchestrator.PathResolver, error) {
	store, err := c.ensureStore()
	if err != nil {
		return nil, err
	}
	dirs, err := store.ListDirectories(context.Background())
	if err != nil {
		return nil, fmt.Errorf("list directories: %w", err)
	}
	byID := make(map[int64]string, len(dirs))
	for _, d := range dirs {
		byID[d.ID] = d.Path
	}
	return func(directoryID int64) (string, bool) {
		path, ok := byID[directoryID]
		return path, ok
	}, nil
}

// close releases any resources this context opened, in the reverse order
// they were acquired.
func (c *commandContext) close() {
	if c.kvTier != nil {
		_ = c.kvTier.Close()
	}
	if c.catalog != nil {
		_ = c.catalog.Close()
	}
	if c.store != nil {
		_ = c.store.Close()
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for cur := cmd; cur != nil; cur = cur.Parent() {
		if cur.Annotations != nil && cur.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
