// Package cli implements the rxrprep command-line interface.
//
// rxrprep bundles the offline data-preparation steps for the RxR
// vision-and-language navigation dataset:
//   - landmarks: render first-person crops of every silver landmark
//   - vizargs: assemble the args bundle for the pose-trace viewer
//
// All commands support --verbose (-v) for debug-level logging and --config
// for a TOML file holding directory defaults.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/rxrprep/pkg/buildinfo"
)

// appName is the application name used for display.
const appName = "rxrprep"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	config     *Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "rxrprep prepares RxR data for rendering and visualization",
		Long: `rxrprep is a set of batch tools for the RxR dataset: it renders landmark
crops through a panorama rendering engine and builds the args bundle used by
the pose-trace viewer.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.registerHooks()
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "TOML file with directory defaults")

	root.AddCommand(c.landmarksCommand())
	root.AddCommand(c.vizargsCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads --config once; commands see an empty config without it.
func (c *CLI) loadConfig() error {
	if c.config != nil {
		return nil
	}
	if c.configPath == "" {
		c.config = &Config{}
		return nil
	}
	cfg, err := LoadConfig(c.configPath)
	if err != nil {
		return err
	}
	c.Logger.Debug("Loaded config", "path", c.configPath)
	c.config = cfg
	return nil
}

func (c *CLI) settings() *Config {
	if c.config == nil {
		return &Config{}
	}
	return c.config
}
