package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/proxy-bootstrap/internal/render"
)

const (
	defaultLogLevel  = "info"
	defaultLogFormat = "json"
)

// ErrInvalidConfig wraps every validation and manifest parsing failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// DefaultLaunchCommand runs nginx in the foreground.
func DefaultLaunchCommand() []string {
	return []string{"nginx", "-g", "daemon off;"}
}

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML manifest > Environment variables > Defaults
type Config struct {
	// Root is prepended to every target path.
	Root      string
	Targets   []render.Target
	Launch    []string
	Supervise bool
	NoLaunch  bool
	Check     bool
	LogLevel  string
	LogFormat string
	// Env is the environment snapshot placeholders are resolved from and
	// the server is launched with.
	Env render.Env
}

// yamlConfig represents the YAML manifest structure.
type yamlConfig struct {
	Root      string       `yaml:"root"`
	Launch    []string     `yaml:"launch"`
	Supervise *bool        `yaml:"supervise"`
	Check     *bool        `yaml:"check"`
	Targets   []yamlTarget `yaml:"targets"`
	Log       yamlLog      `yaml:"log"`
}

type yamlTarget struct {
	Path         string            `yaml:"path"`
	Placeholders []yamlPlaceholder `yaml:"placeholders"`
}

// yamlPlaceholder leaves Default nil when the key is absent, which marks the
// variable as required.
type yamlPlaceholder struct {
	Token   string  `yaml:"token"`
	Env     string  `yaml:"env"`
	Default *string `yaml:"default"`
}

type yamlLog struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile string
	Root       *string
	Launch     []string
	Supervise  *bool
	NoLaunch   *bool
	Check      *bool
	LogLevel   *string
	LogFormat  *string
}

// Load snapshots the process environment and resolves configuration from it.
func Load(overrides *CLIOverrides) (Config, error) {
	return LoadWithEnv(overrides, render.EnvFromPairs(os.Environ()))
}

// LoadWithEnv resolves configuration with precedence:
// CLI flags > YAML manifest > Environment variables > Defaults
func LoadWithEnv(overrides *CLIOverrides, env render.Env) (Config, error) {
	cfg := defaultConfig()
	cfg.Env = env

	applyEnvConfig(&cfg, env)

	configFile := strings.TrimSpace(env["BOOTSTRAP_CONFIG"])
	if overrides != nil && overrides.ConfigFile != "" {
		configFile = overrides.ConfigFile
	}
	if configFile != "" {
		yamlCfg, err := loadFromFile(configFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML manifest: %w", err)
		}
		applyYAMLConfig(&cfg, yamlCfg)
	}

	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Targets:   render.DefaultTargets(),
		Launch:    DefaultLaunchCommand(),
		LogLevel:  defaultLogLevel,
		LogFormat: defaultLogFormat,
	}
}

// loadFromFile loads the manifest, rejecting unknown keys.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read file: %w", ErrInvalidConfig, err)
	}

	var yamlCfg yamlConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&yamlCfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: parse YAML: %w", ErrInvalidConfig, err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies manifest values to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) {
	if yamlCfg.Root != "" {
		cfg.Root = yamlCfg.Root
	}

	if len(yamlCfg.Launch) > 0 {
		cfg.Launch = yamlCfg.Launch
	}

	if yamlCfg.Supervise != nil {
		cfg.Supervise = *yamlCfg.Supervise
	}

	if yamlCfg.Check != nil {
		cfg.Check = *yamlCfg.Check
	}

	if len(yamlCfg.Targets) > 0 {
		targets := make([]render.Target, 0, len(yamlCfg.Targets))
		for _, yt := range yamlCfg.Targets {
			target := render.Target{Path: yt.Path}
			for _, yp := range yt.Placeholders {
				target.Placeholders = append(target.Placeholders, render.Placeholder{
					Token:   yp.Token,
					EnvVar:  yp.Env,
					Default: yp.Default,
				})
			}
			targets = append(targets, target)
		}
		cfg.Targets = targets
	}

	if yamlCfg.Log.Level != "" {
		cfg.LogLevel = yamlCfg.Log.Level
	}

	if yamlCfg.Log.Format != "" {
		cfg.LogFormat = yamlCfg.Log.Format
	}
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config, env render.Env) {
	if root := strings.TrimSpace(env["BOOTSTRAP_ROOT"]); root != "" {
		cfg.Root = root
	}

	if raw := strings.TrimSpace(env["BOOTSTRAP_SUPERVISE"]); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			cfg.Supervise = value
		}
	}

	if level := strings.TrimSpace(env["LOG_LEVEL"]); level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}

	if format := strings.TrimSpace(env["LOG_FORMAT"]); format != "" {
		cfg.LogFormat = strings.ToLower(format)
	}
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	if overrides.Root != nil && *overrides.Root != "" {
		cfg.Root = *overrides.Root
	}

	if len(overrides.Launch) > 0 {
		cfg.Launch = overrides.Launch
	}

	if overrides.Supervise != nil {
		cfg.Supervise = *overrides.Supervise
	}

	if overrides.NoLaunch != nil {
		cfg.NoLaunch = *overrides.NoLaunch
	}

	if overrides.Check != nil {
		cfg.Check = *overrides.Check
	}

	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = *overrides.LogLevel
	}

	if overrides.LogFormat != nil && *overrides.LogFormat != "" {
		cfg.LogFormat = *overrides.LogFormat
	}
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if len(cfg.Targets) == 0 {
		return fmt.Errorf("%w: no targets configured", ErrInvalidConfig)
	}
	for _, target := range cfg.Targets {
		if err := target.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	if !cfg.NoLaunch && (len(cfg.Launch) == 0 || strings.TrimSpace(cfg.Launch[0]) == "") {
		return fmt.Errorf("%w: launch command cannot be empty", ErrInvalidConfig)
	}
	switch cfg.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("%w: log format must be json or console, got %q", ErrInvalidConfig, cfg.LogFormat)
	}
	return nil
}
