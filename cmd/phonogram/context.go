package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"log/slog"

	"phonogram/internal/config"
	"phonogram/internal/licensing"
	"phonogram/internal/logging"
	"phonogram/internal/registry"
	"phonogram/internal/services/ledger"
	"phonogram/internal/services/storage"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
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

func (c *commandContext) withStore(fn func(*config.Config, *registry.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := registry.Open(cfg)
	if err != nil {
		return fmt.Errorf("open registry: %w", err)
	}
	defer store.Close()
	return fn(cfg, store)
}

func (c *commandContext) newLogger(cfg *config.Config, toFile bool) (*slog.Logger, error) {
	opts := logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}
	if toFile {
		opts.OutputPaths = []string{"stdout", cfg.LogPath()}
	}
	return logging.New(opts)
}

func (c *commandContext) newStorageClient(cfg *config.Config) (*storage.Client, error) {
	return storage.New(
		cfg.StorageGateway.APIKey,
		cfg.StorageGateway.UploadBaseURL,
		cfg.StorageGateway.GatewayBaseURL,
		storage.WithTimeout(time.Duration(cfg.StorageGateway.RequestTimeout)*time.Second),
	)
}

func (c *commandContext) newLedgerClient(cfg *config.Config) (*ledger.HTTPClient, error) {
	return ledger.New(
		cfg.Ledger.APIKey,
		cfg.Ledger.BaseURL,
		ledger.WithTimeout(time.Duration(cfg.Ledger.RequestTimeout)*time.Second),
	)
}

func (c *commandContext) newLicensingManager(cfg *config.Config, store *registry.Store, logger *slog.Logger) (*licensing.Manager, error) {
	uploader, err := c.newStorageClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("build storage client: %w", err)
	}
	relayer, err := c.newLedgerClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("build ledger client: %w", err)
	}
	return licensing.NewManager(relayer, uploader, store, cfg, logger), nil
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
