package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// configFileName is looked up in the project directory unless --config
	// names another file.
	configFileName = ".docgen.toml"
	envPrefix      = "DOCGEN"
)

// config is the effective configuration of a run. Relative paths are
// resolved against the project directory.
type config struct {
	ControlFile   string `mapstructure:"control_file" toml:"control_file"`
	OutputDir     string `mapstructure:"output_dir" toml:"output_dir"`
	OutputFile    string `mapstructure:"output_file" toml:"output_file"`
	CommandsDir   string `mapstructure:"commands_dir" toml:"commands_dir,omitempty"`
	Compiler      string `mapstructure:"compiler" toml:"compiler"`
	LogLevel      string `mapstructure:"log_level" toml:"log_level"`
	MaxAliasDepth int    `mapstructure:"max_alias_depth" toml:"max_alias_depth"`
	Strict        bool   `mapstructure:"strict" toml:"strict"`
}

func defaultConfig() config {
	return config{
		ControlFile:   ".docgen",
		OutputDir:     "docs",
		OutputFile:    "index.md",
		Compiler:      defaultCompiler,
		LogLevel:      "info",
		MaxAliasDepth: defaultMaxAliasDepth,
	}
}

// flagKeys maps config keys to the CLI flags that override them.
var flagKeys = map[string]string{
	"control_file":    "control",
	"output_dir":      "output",
	"output_file":     "out-file",
	"commands_dir":    "commands-dir",
	"compiler":        "compiler",
	"log_level":       "log-level",
	"max_alias_depth": "max-alias-depth",
	"strict":          "strict",
}

// loadConfig layers defaults, the TOML config file, DOCGEN_* environment
// variables and flags, in increasing precedence. It returns the config and
// the file it was read from ("" when none was found).
func loadConfig(root, path string, flags *pflag.FlagSet) (config, string, error) {
	v := viper.New()
	defaults := defaultConfig()
	v.SetDefault("control_file", defaults.ControlFile)
	v.SetDefault("output_dir", defaults.OutputDir)
	v.SetDefault("output_file", defaults.OutputFile)
	v.SetDefault("commands_dir", defaults.CommandsDir)
	v.SetDefault("compiler", defaults.Compiler)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("max_alias_depth", defaults.MaxAliasDepth)
	v.SetDefault("strict", defaults.Strict)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		path = filepath.Join(root, configFileName)
	}
	resolved := ""
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return config{}, "", fmt.Errorf("read config %s: %w", path, err)
		}
		resolved = path
	} else if explicit || !errors.Is(err, os.ErrNotExist) {
		return config{}, "", fmt.Errorf("config file %s: %w", path, err)
	}

	if flags != nil {
		for key, name := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return config{}, "", fmt.Errorf("bind flag --%s: %w", name, err)
				}
			}
		}
	}

	var cfg config
	if err := v.Unmarshal(&cfg); err != nil {
		return config{}, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return config{}, "", err
	}
	return cfg, resolved, nil
}

func (c config) validate() error {
	if strings.TrimSpace(c.ControlFile) == "" {
		return errors.New("control_file must not be empty")
	}
	if strings.TrimSpace(c.OutputFile) == "" {
		return errors.New("output_file must not be empty")
	}
	if c.MaxAliasDepth < 1 {
		return fmt.Errorf("max_alias_depth must be positive, got %d", c.MaxAliasDepth)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return nil
}

func resolvePath(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

func (c config) controlPath(root string) string { return resolvePath(root, c.ControlFile) }

func (c config) outputDir(root string) string { return resolvePath(root, c.OutputDir) }

// commandsDir holds NEW_COMMAND sources and artifacts; it defaults to
// <output_dir>/commands.
func (c config) commandsDir(root string) string {
	if c.CommandsDir != "" {
		return resolvePath(root, c.CommandsDir)
	}
	return filepath.Join(c.outputDir(root), "commands")
}

// outputPath is where the document is written; "-" means stdout.
func (c config) outputPath(root string) string {
	if c.OutputFile == "-" {
		return "-"
	}
	return resolvePath(c.outputDir(root), c.OutputFile)
}
