// Package cli implements the skyquery command-line interface.
package cli

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/tmarkert/skyquery/pkg/archives"
	"github.com/tmarkert/skyquery/pkg/buildinfo"
	"github.com/tmarkert/skyquery/pkg/cache"
	"github.com/tmarkert/skyquery/pkg/credentials"
)

// appName is the application name used for directories and display.
const appName = "skyquery"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger   *log.Logger
	registry *archives.Registry

	cfgOnce sync.Once
	cfg     *Config
	cfgErr  error
}

// New creates a CLI instance with a default logger. Commands resolve
// services through the process-wide registry, adjusted by the config file.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:   newLogger(w, level),
		registry: archives.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "skyquery",
		Short: "Skyquery queries astronomical archives from the terminal",
		Long: `Skyquery talks to astronomical archive services: it resolves object names,
runs cone searches and ADQL queries, tracks asynchronous jobs, and inspects
TAP schemas. Results render as terminal tables or export to VOTable, CSV,
or JSON.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.setup(); err != nil {
				return err
			}
			installHooks(c.Logger)
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.coneCommand())
	root.AddCommand(c.queryCommand())
	root.AddCommand(c.jobCommand())
	root.AddCommand(c.servicesCommand())
	root.AddCommand(c.schemaCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.authCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads the config file once and folds its service overrides into the
// registry. Commands run with the merged view.
func (c *CLI) setup() error {
	c.cfgOnce.Do(func() {
		cfg, err := LoadConfig(configPath())
		if err != nil {
			c.cfgErr = err
			return
		}
		c.cfg = cfg
		c.cfgErr = cfg.ApplyServices(c.registry)
	})
	return c.cfgErr
}

// config returns the loaded configuration, or defaults when no file exists.
func (c *CLI) config() *Config {
	if c.cfg == nil {
		return &Config{}
	}
	return c.cfg
}

// newCache builds the cache backend the config selects. The caller owns the
// returned cache and must Close it.
func (c *CLI) newCache(cmd *cobra.Command, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	return c.config().Cache.Open(cmd.Context())
}

// store opens the credentials store at its default location.
func (c *CLI) store() (*credentials.Store, error) {
	return credentials.NewStore("")
}

// cacheDir returns the cache directory using XDG conventions
// (~/.cache/skyquery/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// configPath returns the config file location under the user config
// directory (~/.config/skyquery/config.toml with XDG defaults).
func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appName, "config.toml")
}
