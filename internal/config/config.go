// Package config provides configuration management for gshctx.
// Values come from DefaultConfig, then ~/.gshctx/config.yaml, then
// GSHCTX_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap/zapcore"

	"github.com/atinylittleshell/gshctx/internal/shell"
)

// EnvPrefix prefixes every environment override, e.g. GSHCTX_DISABLED.
const EnvPrefix = "GSHCTX"

// Config holds the settings of the terminal context provider.
type Config struct {
	// Disabled turns every execution into ErrDisabled.
	Disabled bool `yaml:"disabled"`

	// Shell and ShellArgs select the shell binary. Empty means the platform
	// default (bash -l, or powershell on windows).
	Shell     string   `yaml:"shell"`
	ShellArgs []string `yaml:"shell_args" split_words:"true"`

	// WorkingDir is where the shell starts. Empty means the current directory.
	WorkingDir string `yaml:"working_dir" split_words:"true"`

	Timeout  time.Duration `yaml:"timeout"`
	LogLevel string        `yaml:"log_level" split_words:"true"`

	// Denylist replaces the default denylist when set; ExtraDenylist adds to
	// whichever list is in effect.
	Denylist      []string `yaml:"denylist"`
	ExtraDenylist []string `yaml:"extra_denylist" split_words:"true"`

	// HistoryLimit is how many entries the terminal_history retriever shows.
	HistoryLimit int `yaml:"history_limit" split_words:"true"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Timeout:      shell.DefaultTimeout,
		LogLevel:     "info",
		HistoryLimit: 20,
	}
}

// Validate reports settings that cannot be used as given.
func (c *Config) Validate() []error {
	var errs []error
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err))
	}
	if c.HistoryLimit < 0 {
		errs = append(errs, fmt.Errorf("history_limit must not be negative, got %d", c.HistoryLimit))
	}
	if c.Shell == "" && len(c.ShellArgs) > 0 {
		errs = append(errs, fmt.Errorf("shell_args is set but shell is not"))
	}
	return errs
}

// Level returns the configured log level, or info if it does not parse.
func (c *Config) Level() zapcore.Level {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// BuildDenylist returns the denylist in effect.
func (c *Config) BuildDenylist() *shell.Denylist {
	base := shell.DefaultDenylist()
	if len(c.Denylist) > 0 {
		base = shell.NewDenylist(c.Denylist...)
	}
	extra := lo.Filter(c.ExtraDenylist, func(token string, _ int) bool {
		return strings.TrimSpace(token) != ""
	})
	if len(extra) == 0 {
		return base
	}
	return base.With(extra...)
}
