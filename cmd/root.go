// Package cmd implements the genesis command line.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/magnusknutas/genesis/genesis"
	"github.com/magnusknutas/genesis/internal/config"
	"github.com/magnusknutas/genesis/internal/document"
	"github.com/magnusknutas/genesis/internal/linecache"
	"github.com/magnusknutas/genesis/internal/log"
)

const defaultConfigPath = ".genesis/config.yaml"

// keyDelim replaces viper's "." so theme rule keys such as
// "atom.marker.active" survive as single map keys.
const keyDelim = "::"

var version = "dev"

// app carries what every subcommand needs once flags and config are read.
type app struct {
	v        *viper.Viper
	cfgFile  string
	cfg      config.Config
	host     *cliHost
	closeLog func()
}

// newRootCmd builds a fresh command tree with its own viper instance.
func newRootCmd() (*cobra.Command, *app) {
	a := &app{v: viper.NewWithOptions(viper.KeyDelimiter(keyDelim))}

	root := &cobra.Command{
		Use:   "genesis",
		Short: "Tokenize and highlight Genesis markup",
		Long: `genesis tokenizes Genesis markup (.genesis files) into classified spans,
renders them with a colour theme and answers completion requests.`,
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "",
		"config file (default: .genesis/config.yaml, then ~/.config/genesis/config.yaml)")
	root.PersistentFlags().StringP("grammar", "g", "", "grammar variant: bracket or registration")
	root.PersistentFlags().Bool("debug", false, "write debug logs")
	root.PersistentFlags().String("log-file", "", `debug log path, "-" for stderr (default: genesis-debug.log)`)

	_ = a.v.BindPFlag("grammar", root.PersistentFlags().Lookup("grammar"))
	_ = a.v.BindPFlag("debug", root.PersistentFlags().Lookup("debug"))
	_ = a.v.BindPFlag("log_file", root.PersistentFlags().Lookup("log-file"))

	root.AddCommand(
		newTokensCmd(a),
		newHighlightCmd(a),
		newCompleteCmd(a),
		newThemeCmd(a),
		newInitCmd(a),
	)
	return root, a
}

func (a *app) initViper() {
	defaults := config.Defaults()
	a.v.SetDefault("grammar", defaults.Grammar)
	a.v.SetDefault("theme::preset", defaults.Theme.Preset)
	a.v.SetDefault("output::formatter", defaults.Output.Formatter)
	a.v.SetDefault("cache::enabled", defaults.Cache.Enabled)
	a.v.SetDefault("cache::ttl", defaults.Cache.TTL)
	a.v.SetDefault("cache::max_line_length", defaults.Cache.MaxLineLength)
	a.v.SetDefault("watch::debounce", defaults.Watch.Debounce)
	a.v.SetDefault("log_level", defaults.LogLevel)

	a.v.SetEnvPrefix("GENESIS")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(keyDelim, "_"))
	a.v.AutomaticEnv()

	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
		return
	}
	// Config lookup order:
	// 1. .genesis/config.yaml (current directory)
	// 2. ~/.config/genesis/config.yaml (user config)
	if _, err := os.Stat(defaultConfigPath); err == nil {
		a.v.SetConfigFile(defaultConfigPath)
		return
	}
	if home, err := os.UserHomeDir(); err == nil {
		a.v.AddConfigPath(filepath.Join(home, ".config", "genesis"))
	}
	a.v.SetConfigName("config")
	a.v.SetConfigType("yaml")
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	a.initViper()

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	if err := a.v.Unmarshal(&a.cfg); err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}

	if a.cfg.Debug {
		if err := a.initLog(cmd); err != nil {
			return err
		}
	}
	log.Debug(log.CatConfig, "config loaded", "file", a.v.ConfigFileUsed(), "grammar", a.cfg.Grammar)

	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	variant, _ := a.cfg.Variant()
	theme, err := a.cfg.ResolveTheme()
	if err != nil {
		return err
	}
	lang, err := genesis.Setup(genesis.SetupOptions{Variant: variant, Theme: &theme})
	if err != nil {
		return err
	}

	a.host = newCLIHost()
	if err := lang.Install(a.host); err != nil {
		return err
	}
	log.Debug(log.CatCLI, "language installed", "command", cmd.Name(), "grammar", variant.String(), "theme", theme.Name)
	return nil
}

// initLog starts debug logging to log_file, or to stderr when it is "-".
func (a *app) initLog(cmd *cobra.Command) error {
	level, err := log.ParseLevel(a.cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid configuration: log_level: %w", err)
	}

	path := a.cfg.LogFile
	if path == "" {
		path = "genesis-debug.log"
	}
	if path == "-" {
		log.InitWriter(cmd.ErrOrStderr(), level)
		a.closeLog = log.Reset
		return nil
	}

	closeLog, err := log.Init(path)
	if err != nil {
		return err
	}
	log.SetMinLevel(level)
	a.closeLog = closeLog
	return nil
}

func (a *app) teardown() {
	if a.closeLog != nil {
		a.closeLog()
		a.closeLog = nil
	}
}

// lineTokenizer returns the installed tokenizer, behind the line cache when
// it is enabled.
func (a *app) lineTokenizer() document.LineTokenizer {
	if !a.cfg.Cache.Enabled {
		return a.host.tokenizer
	}
	return linecache.New(a.host.tokenizer, linecache.Options{
		Expiration:    a.cfg.Cache.TTL,
		MaxLineLength: a.cfg.Cache.MaxLineLength,
	})
}

// Execute runs the root command
func Execute() error {
	return execute(newRootCmd())
}

// execute runs root and closes the debug log whether or not the command
// failed; cobra skips post-run hooks after an error.
func execute(root *cobra.Command, a *app) error {
	defer a.teardown()
	return root.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
}
