// Package config loads the optional jez.yaml configuration file.
package config

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable consulted when no --config flag
// is given.
const EnvVar = "JEZ_CONFIG"

// DefaultFile is picked up from the working directory when present.
const DefaultFile = "jez.yaml"

// Config is the full configuration.
type Config struct {
	Repl  ReplConfig `yaml:"repl"`
	Log   LogConfig  `yaml:"log"`
	Stats bool       `yaml:"stats"`
}

// ReplConfig configures the interactive prompt.
type ReplConfig struct {
	Prompt             string `yaml:"prompt"`
	ContinuationPrompt string `yaml:"continuation_prompt"`
	HistoryFile        string `yaml:"history_file"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console or json
}

// Default returns the configuration used when no file is found.
func Default() Config {
	return Config{
		Repl: ReplConfig{
			Prompt:             "jez> ",
			ContinuationPrompt: "...  ",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// ValidationError lists every invalid setting.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("config validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// Load reads path over the defaults. Unknown keys are rejected; an empty
// file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	file, err := os.Open(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "config: open %s", path)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, errors.Wrapf(err, "config: parse %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Locate picks the config file: explicit, then $JEZ_CONFIG, then
// ./jez.yaml. It returns "" when none applies.
func Locate(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(EnvVar); env != "" {
		return env
	}
	if _, err := os.Stat(DefaultFile); err == nil {
		return DefaultFile
	}
	return ""
}

// Resolve locates and loads the configuration, falling back to Default.
func Resolve(explicit string) (Config, error) {
	path := Locate(explicit)
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks enumerated settings.
func (c Config) Validate() error {
	var issues []string
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		issues = append(issues, "log.level: unknown level "+quote(c.Log.Level))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		issues = append(issues, "log.format: must be console or json, got "+quote(c.Log.Format))
	}
	if c.Repl.Prompt == "" {
		issues = append(issues, "repl.prompt: must not be empty")
	}
	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

func quote(s string) string {
	return "\"" + s + "\""
}

// NewLogger builds a zap logger writing to stderr.
func (l LogConfig) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(l.Level)
	if err != nil {
		return nil, errors.Wrap(err, "config: log level")
	}

	var zc zap.Config
	if l.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	logger, err := zc.Build()
	if err != nil {
		return nil, errors.Wrap(err, "config: build logger")
	}
	return logger, nil
}
