package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/atinylittleshell/gshctx/internal/core"
)

// Loader handles loading of the yaml configuration file and env overrides.
type Loader struct {
	logger *zap.Logger
}

// NewLoader creates a new configuration loader.
func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		logger: logger,
	}
}

// LoadResult contains the result of loading the configuration.
type LoadResult struct {
	Config *Config
	Errors []error
}

// LoadFromFile loads configuration from a yaml file, then applies env
// overrides. A missing file is not an error. Problems with individual values
// are collected in LoadResult.Errors and the affected settings keep their
// defaults.
func (l *Loader) LoadFromFile(path string) (*LoadResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			l.logger.Debug("no config file, using defaults", zap.String("path", path))
			return l.LoadFromString("")
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return l.LoadFromString(string(content))
}

// LoadFromString loads configuration from yaml source, then applies env
// overrides.
func (l *Loader) LoadFromString(source string) (*LoadResult, error) {
	result := &LoadResult{
		Config: DefaultConfig(),
		Errors: []error{},
	}

	if source != "" {
		parsed := DefaultConfig()
		if err := yaml.Unmarshal([]byte(source), parsed); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("parse error: %w", err))
		} else {
			result.Config = parsed
		}
	}

	// Fields without a matching variable keep their current value.
	overlaid := *result.Config
	if err := envconfig.Process(EnvPrefix, &overlaid); err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("env error: %w", err))
	} else {
		result.Config = &overlaid
	}

	if errs := result.Config.Validate(); len(errs) > 0 {
		result.Errors = append(result.Errors, errs...)
		l.repair(result.Config)
	}

	for _, err := range result.Errors {
		l.logger.Warn("config problem", zap.Error(err))
	}
	return result, nil
}

// LoadDefaultConfigPath loads configuration from ~/.gshctx/config.yaml.
func (l *Loader) LoadDefaultConfigPath() (*LoadResult, error) {
	return l.LoadFromFile(core.ConfigFile())
}

// repair resets invalid settings to their defaults.
func (l *Loader) repair(cfg *Config) {
	defaults := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if _, err := zap.ParseAtomicLevel(cfg.LogLevel); err != nil {
		cfg.LogLevel = defaults.LogLevel
	}
	if cfg.HistoryLimit < 0 {
		cfg.HistoryLimit = defaults.HistoryLimit
	}
	if cfg.Shell == "" {
		cfg.ShellArgs = nil
	}
}
