// Package app resolves the layered configuration of a gongwen command and
// builds the components commands share: the logger, the generation runner,
// the backend client and the local sinks.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/gongwen/pkg/client"
	"github.com/papercomputeco/gongwen/pkg/config"
	"github.com/papercomputeco/gongwen/pkg/credentials"
	"github.com/papercomputeco/gongwen/pkg/dotdir"
	"github.com/papercomputeco/gongwen/pkg/eventstream"
	"github.com/papercomputeco/gongwen/pkg/eventstream/kafka"
	"github.com/papercomputeco/gongwen/pkg/eventstream/nop"
	"github.com/papercomputeco/gongwen/pkg/generate"
	"github.com/papercomputeco/gongwen/pkg/logger"
	"github.com/papercomputeco/gongwen/pkg/storage"
	"github.com/papercomputeco/gongwen/pkg/storage/inmemory"
	"github.com/papercomputeco/gongwen/pkg/storage/postgres"
	"github.com/papercomputeco/gongwen/pkg/storage/sqlite"
	"github.com/papercomputeco/gongwen/pkg/transport"
	"github.com/papercomputeco/gongwen/pkg/utils"
)

// ClientName identifies this program in published events.
const ClientName = "gongwen"

// App holds the resolved configuration of one command invocation.
type App struct {
	ConfigDir string
	Debug     bool
	Config    *config.Config
	Logger    *slog.Logger
	Creds     *credentials.Manager

	store     storage.Driver
	publisher eventstream.Publisher
}

// Load reads the persistent --config-dir and --debug flags of cmd, layers
// flags, environment, config file and defaults, and binds the registry flags
// named by keys that cmd registered.
func Load(cmd *cobra.Command, keys ...string) (*App, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")
	debug, _ := cmd.Flags().GetBool("debug")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	config.BindRegisteredFlags(v, cmd, config.GenerationFlags, keys)
	cfg := config.FromViper(v)

	if _, err := cfg.Server.TimeoutDuration(); err != nil {
		return nil, fmt.Errorf("invalid server.timeout %q: %w", cfg.Server.Timeout, err)
	}

	creds, err := credentials.NewManager(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}

	log := logger.New(
		logger.WithDebug(debug),
		logger.WithPretty(cfg.UI.Pretty),
		logger.WithWriter(cmd.ErrOrStderr()),
	)

	return &App{
		ConfigDir: configDir,
		Debug:     debug,
		Config:    cfg,
		Logger:    log,
		Creds:     creds,
	}, nil
}

// Transport builds the streaming transport for the configured backend.
func (a *App) Transport() (*transport.HTTP, error) {
	timeout, err := a.Config.Server.TimeoutDuration()
	if err != nil {
		return nil, err
	}

	return transport.NewHTTP(transport.HTTPConfig{
		BaseURL:        a.Config.Server.BaseURL,
		Tokens:         a.Creds,
		ConnectTimeout: timeout,
		Logger:         a.Logger,
	})
}

// Client builds the request/response client for the configured backend.
func (a *App) Client() (*client.Client, error) {
	timeout, err := a.Config.Server.TimeoutDuration()
	if err != nil {
		return nil, err
	}

	return client.New(client.Config{
		BaseURL: a.Config.Server.BaseURL,
		Tokens:  a.Creds,
		Timeout: timeout,
		Logger:  a.Logger,
	})
}

// Store opens the local archive once per App.
func (a *App) Store() (storage.Driver, error) {
	if a.store != nil {
		return a.store, nil
	}

	if dsn := a.Config.Storage.PostgresDSN; dsn != "" {
		driver, err := postgres.NewDriver(context.Background(), dsn)
		if err != nil {
			return nil, fmt.Errorf("opening PostgreSQL archive: %w", err)
		}
		a.Logger.Debug("using PostgreSQL archive")
		a.store = driver
		return a.store, nil
	}

	path := a.Config.Storage.SQLitePath
	if path == config.StorageInMemory {
		a.Logger.Debug("using in-memory archive")
		a.store = inmemory.NewDriver()
		return a.store, nil
	}

	if path == "" {
		dir, err := dotdir.NewManager().Ensure(a.ConfigDir)
		if err != nil {
			return nil, fmt.Errorf("resolving archive dir: %w", err)
		}
		path = filepath.Join(dir, config.DefaultSQLiteFile)
	}

	driver, err := sqlite.NewDriver(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", path, err)
	}
	a.Logger.Debug("using SQLite archive", "path", path)
	a.store = driver

	return a.store, nil
}

// Publisher creates the generation event publisher once per App.
func (a *App) Publisher() (eventstream.Publisher, error) {
	if a.publisher != nil {
		return a.publisher, nil
	}

	es := a.Config.EventStream
	switch es.Provider {
	case "", config.ProviderNop:
		a.publisher = nop.NewPublisher()
	case config.ProviderKafka:
		p, err := kafka.NewPublisher(kafka.Config{
			Brokers: es.BrokerList(),
			Topic:   es.Topic,
			Logger:  a.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		a.Logger.Debug("publishing generation events", "topic", es.Topic, "brokers", es.Brokers)
		a.publisher = p
	default:
		return nil, fmt.Errorf("unknown event provider: %q", es.Provider)
	}

	return a.publisher, nil
}

// Runner wires transport, archive and publisher into a generation runner.
func (a *App) Runner() (*generate.Runner, error) {
	tr, err := a.Transport()
	if err != nil {
		return nil, err
	}

	store, err := a.Store()
	if err != nil {
		return nil, err
	}

	pub, err := a.Publisher()
	if err != nil {
		return nil, err
	}

	return generate.NewRunner(generate.Config{
		Transport: tr,
		Store:     store,
		Publisher: pub,
		Source: eventstream.EventSource{
			Client:  ClientName,
			Version: utils.Version,
			BaseURL: a.Config.Server.BaseURL,
		},
		DocType:    a.Config.Generate.DocType,
		TemplateID: a.Config.Generate.TemplateID,
		Logger:     a.Logger,
	})
}

// Close releases the archive and the publisher.
func (a *App) Close() error {
	var errs []error
	if a.publisher != nil {
		errs = append(errs, a.publisher.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	return errors.Join(errs...)
}

// Remember points the active conversation at convID so "gongwen chat
// --resume" continues it. Failures are logged.
func (a *App) Remember(convID, docType, title string) {
	if convID == "" {
		return
	}

	err := dotdir.NewManager().SaveActive(&dotdir.ActiveConversation{
		ConvID:  convID,
		DocType: docType,
		Title:   utils.Truncate(title, 40),
	}, a.ConfigDir)
	if err != nil {
		a.Logger.Warn("could not save active conversation", "error", err)
	}
}

// Stdin reports whether stdin is a pipe or a file rather than a terminal.
func Stdin() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice == 0
}

// LoadClient loads cmd's configuration and builds the backend client, for
// commands registered with BackendKeys.
func LoadClient(cmd *cobra.Command) (*App, *client.Client, error) {
	a, err := Load(cmd, BackendKeys...)
	if err != nil {
		return nil, nil, err
	}

	c, err := a.Client()
	if err != nil {
		return nil, nil, err
	}

	return a, c, nil
}

// SetConfigValue writes key to config.toml, creating the config directory
// when none exists yet. It returns the path written.
func SetConfigValue(configDir, key, value string) (string, error) {
	if _, err := dotdir.NewManager().Ensure(configDir); err != nil {
		return "", fmt.Errorf("resolving config dir: %w", err)
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return "", fmt.Errorf("loading config: %w", err)
	}

	if err := cfger.SetConfigValue(key, value); err != nil {
		return "", err
	}

	return cfger.GetTarget(), nil
}
