// Package config holds kishmat's settings. Values come from defaults, an
// optional config file, KISHMAT_ environment variables and command-line
// flags, in increasing order of priority.
package config

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigDebug              = "debug"
	ConfigFile               = "config"
	ConfigSearchDepth        = "search-depth"
	ConfigTTMegabytes        = "tt-megabytes"
	ConfigTTMemoryFraction   = "tt-memory-fraction"
	ConfigBookPath           = "book-path"
	ConfigUseBook            = "use-book"
	ConfigNullMove           = "null-move"
	ConfigLMR                = "lmr"
	ConfigQuiescence         = "quiescence"
	ConfigTranspositionTable = "transposition-table"
	ConfigNatsURL            = "nats-url"
	ConfigBotChannel         = "bot-channel"
	ConfigBatchWorkers       = "batch-workers"
	ConfigCPUProfile         = "cpu-profile"
	ConfigMemProfile         = "mem-profile"
	ConfigHistoryFile        = "history-file"
)

const (
	envPrefix           = "kishmat"
	defaultBotChannel   = "kishmat.bot"
	defaultNatsURL      = "nats://127.0.0.1:4222"
	defaultSearchDepth  = 5
	defaultTTMegabytes  = 64
	defaultBatchWorkers = 4
	historyFileBasename = ".kishmat_history"
)

type Config struct {
	*viper.Viper
	args []string
}

// DefaultConfig returns a config holding only the defaults. Tests and
// library callers that never parse a command line use it.
func DefaultConfig() *Config {
	c := &Config{Viper: viper.New()}
	c.setDefaults()
	return c
}

func (c *Config) setDefaults() {
	c.SetDefault(ConfigDebug, false)
	c.SetDefault(ConfigSearchDepth, defaultSearchDepth)
	c.SetDefault(ConfigTTMegabytes, defaultTTMegabytes)
	c.SetDefault(ConfigTTMemoryFraction, 0.0)
	c.SetDefault(ConfigBookPath, "")
	c.SetDefault(ConfigUseBook, true)
	c.SetDefault(ConfigNullMove, true)
	c.SetDefault(ConfigLMR, true)
	c.SetDefault(ConfigQuiescence, true)
	c.SetDefault(ConfigTranspositionTable, true)
	c.SetDefault(ConfigNatsURL, defaultNatsURL)
	c.SetDefault(ConfigBotChannel, defaultBotChannel)
	c.SetDefault(ConfigBatchWorkers, defaultBatchWorkers)
	c.SetDefault(ConfigCPUProfile, "")
	c.SetDefault(ConfigMemProfile, "")
	c.SetDefault(ConfigHistoryFile, "")
}

func flagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("kishmat", pflag.ContinueOnError)
	// everything after the first positional argument is a command for the
	// shell, flags included.
	fs.SetInterspersed(false)
	fs.String(ConfigFile, "", "path to a yaml/json/toml config file")
	fs.Bool(ConfigDebug, false, "debug logging on")
	fs.Int(ConfigSearchDepth, defaultSearchDepth, "default search depth in plies")
	fs.Int(ConfigTTMegabytes, defaultTTMegabytes, "transposition table size in MiB")
	fs.Float64(ConfigTTMemoryFraction, 0, "if non-zero, size the transposition table to this fraction of RAM instead")
	fs.String(ConfigBookPath, "", "opening book file")
	fs.Bool(ConfigUseBook, true, "consult the opening book before searching")
	fs.Bool(ConfigNullMove, true, "null-move pruning")
	fs.Bool(ConfigLMR, true, "late move reductions")
	fs.Bool(ConfigQuiescence, true, "quiescence search at the horizon")
	fs.Bool(ConfigTranspositionTable, true, "use the transposition table")
	fs.String(ConfigNatsURL, defaultNatsURL, "NATS server for the analysis service")
	fs.String(ConfigBotChannel, defaultBotChannel, "NATS subject the analysis service listens on")
	fs.Int(ConfigBatchWorkers, defaultBatchWorkers, "parallel workers for batch analysis")
	fs.String(ConfigCPUProfile, "", "write a CPU profile to this file")
	fs.String(ConfigMemProfile, "", "write a heap profile to this file on exit")
	fs.String(ConfigHistoryFile, "", "shell history file (default ~/"+historyFileBasename+")")
	return fs
}

// Load parses args and layers every source. Arguments left after the flags
// are kept and returned by Args.
func (c *Config) Load(args []string) error {
	c.Viper = viper.New()
	c.setDefaults()
	c.SetEnvPrefix(envPrefix)
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()

	fs := flagSet()
	if err := fs.Parse(args); err != nil {
		return err
	}
	c.args = fs.Args()
	if err := c.BindPFlags(fs); err != nil {
		return err
	}
	if cf := c.GetString(ConfigFile); cf != "" {
		c.SetConfigFile(cf)
		if err := c.ReadInConfig(); err != nil {
			return err
		}
		log.Debug().Str("file", c.ConfigFileUsed()).Msg("read-config-file")
	}
	return nil
}

// Args are the positional arguments that followed the flags.
func (c *Config) Args() []string { return c.args }

// AdjustRelativePaths makes a relative book path absolute. A path that
// does not exist relative to the working directory is taken relative to
// basepath, usually the executable's directory.
func (c *Config) AdjustRelativePaths(basepath string) {
	for _, key := range []string{ConfigBookPath} {
		p := c.GetString(key)
		if p == "" || filepath.IsAbs(p) {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			if abs, err := filepath.Abs(p); err == nil {
				c.Set(key, abs)
			}
			continue
		}
		c.Set(key, filepath.Join(basepath, p))
	}
}

// HistoryFile is where the shell keeps its readline history.
func (c *Config) HistoryFile() string {
	if h := c.GetString(ConfigHistoryFile); h != "" {
		return h
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), historyFileBasename)
	}
	return filepath.Join(home, historyFileBasename)
}

// SanitizedSettings is every setting with credentials stripped, for
// printing.
func (c *Config) SanitizedSettings() map[string]any {
	all := c.AllSettings()
	if raw, ok := all[ConfigNatsURL].(string); ok {
		if u, err := url.Parse(raw); err == nil && u.User != nil {
			u.User = url.User("redacted")
			all[ConfigNatsURL] = u.String()
		}
	}
	return all
}

// Write saves the current settings to the config file given at load time.
func (c *Config) Write() error {
	cf := c.ConfigFileUsed()
	if cf == "" {
		cf = c.GetString(ConfigFile)
	}
	if cf == "" {
		return errors.New("no config file in use; start with --config <file>")
	}
	return c.WriteConfigAs(cf)
}
