package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/jackzampolin/booklet/internal/booklet"
	"github.com/jackzampolin/booklet/internal/fetch"
	"github.com/jackzampolin/booklet/internal/grayscale"
	"github.com/jackzampolin/booklet/internal/holidays"
	"github.com/jackzampolin/booklet/internal/pdfdoc"
)

// EnvPrefix prefixes every environment override, e.g. BOOKLET_SERVER_PORT.
const EnvPrefix = "BOOKLET"

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	mu        sync.RWMutex
	v         *viper.Viper
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a new config manager and loads initial config.
func NewManager(cfgFile string) (*Manager, error) {
	cm := &Manager{
		v:         viper.New(),
		callbacks: make([]func(*Config), 0),
	}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile string) error {
	setDefaults(cm.v, DefaultConfig())

	// Environment variables with BOOKLET_ prefix; nested keys use underscores
	cm.v.SetEnvPrefix(EnvPrefix)
	cm.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cm.v.AutomaticEnv()

	// Config file
	if cfgFile != "" {
		cm.v.SetConfigFile(cfgFile)
	} else {
		cm.v.SetConfigName("config")
		cm.v.SetConfigType("yaml")
		cm.v.AddConfigPath(".")
		cm.v.AddConfigPath("$HOME/.booklet")
	}

	// Try to read config file (not required)
	if err := cm.v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// setDefaults registers every leaf key so that environment overrides reach
// nested settings.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("log_level", d.LogLevel)

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.max_body_bytes", d.Server.MaxBodyBytes)

	v.SetDefault("grayscale.default_strategy", d.Grayscale.DefaultStrategy)
	v.SetDefault("grayscale.url", d.Grayscale.URL)
	v.SetDefault("grayscale.api_key", d.Grayscale.APIKey)
	v.SetDefault("grayscale.same_origin", d.Grayscale.SameOrigin)
	v.SetDefault("grayscale.cache_size", d.Grayscale.CacheSize)
	v.SetDefault("grayscale.max_concurrent", d.Grayscale.MaxConcurrent)
	v.SetDefault("grayscale.shrink_threshold", d.Grayscale.ShrinkThreshold)
	v.SetDefault("grayscale.shrink_target", d.Grayscale.ShrinkTarget)
	v.SetDefault("grayscale.timeout_seconds", d.Grayscale.TimeoutSeconds)
	v.SetDefault("grayscale.max_retries", d.Grayscale.MaxRetries)

	v.SetDefault("holidays.base_url", d.Holidays.BaseURL)
	v.SetDefault("holidays.language", d.Holidays.Language)
	v.SetDefault("holidays.rate_limit", d.Holidays.RateLimit)
	v.SetDefault("holidays.timeout_seconds", d.Holidays.TimeoutSeconds)
	v.SetDefault("holidays.max_retries", d.Holidays.MaxRetries)

	v.SetDefault("fetch.timeout_seconds", d.Fetch.TimeoutSeconds)
	v.SetDefault("fetch.max_bytes", d.Fetch.MaxBytes)

	v.SetDefault("engine.planner_lead_in_days", d.Engine.PlannerLeadInDays)
	v.SetDefault("engine.preview_weeks", d.Engine.PreviewWeeks)
	v.SetDefault("engine.preview_pages", d.Engine.PreviewPages)
	v.SetDefault("engine.bleed_mm", d.Engine.BleedMM)
	v.SetDefault("engine.page_numbers", d.Engine.PageNumbers)
	v.SetDefault("engine.watermark_path", d.Engine.WatermarkPath)
	v.SetDefault("engine.compression", d.Engine.Compression)
}

// load parses the current viper state into a Config struct.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// File returns the config file in use, or "" when running on defaults.
func (cm *Manager) File() string {
	return cm.v.ConfigFileUsed()
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration.
func (cm *Manager) WatchConfig() {
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	cm.v.WatchConfig()
}

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	return envPattern.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// ParseLogLevel maps a config level name to a slog level. Unknown names
// fall back to info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// GrayscaleClientConfig converts the grayscale section for grayscale.NewClient.
// It resolves ${ENV_VAR} references in the API key.
func (c *Config) GrayscaleClientConfig(logger *slog.Logger) grayscale.ClientConfig {
	g := c.Grayscale
	return grayscale.ClientConfig{
		URL:             g.URL,
		APIKey:          ResolveEnvVars(g.APIKey),
		SameOrigin:      g.SameOrigin,
		Timeout:         seconds(g.TimeoutSeconds),
		MaxConcurrent:   g.MaxConcurrent,
		CacheSize:       g.CacheSize,
		ShrinkThreshold: g.ShrinkThreshold,
		ShrinkTarget:    g.ShrinkTarget,
		MaxRetries:      g.MaxRetries,
		Logger:          logger,
	}
}

// HolidaysClientConfig converts the holidays section for holidays.NewClient.
func (c *Config) HolidaysClientConfig(logger *slog.Logger) holidays.ClientConfig {
	h := c.Holidays
	return holidays.ClientConfig{
		BaseURL:    h.BaseURL,
		Language:   h.Language,
		RateLimit:  h.RateLimit,
		Timeout:    seconds(h.TimeoutSeconds),
		MaxRetries: h.MaxRetries,
		Logger:     logger,
	}
}

// FetchConfig converts the fetch section for fetch.New.
func (c *Config) FetchConfig(logger *slog.Logger) fetch.Config {
	return fetch.Config{
		Timeout:  seconds(c.Fetch.TimeoutSeconds),
		MaxBytes: c.Fetch.MaxBytes,
		Logger:   logger,
	}
}

// EngineSettings converts the engine section into booklet settings. Zero
// values keep the engine defaults.
func (c *Config) EngineSettings() booklet.Settings {
	e := c.Engine
	return booklet.Settings{
		PlannerLeadIn: time.Duration(e.PlannerLeadInDays) * 24 * time.Hour,
		PreviewWeeks:  e.PreviewWeeks,
		PreviewPages:  e.PreviewPages,
		BleedMM:       e.BleedMM,
	}
}

// BuildOptions returns the default build options. The watermark image is
// read from WatermarkPath when set.
func (c *Config) BuildOptions() (booklet.Options, error) {
	e := c.Engine
	compression, err := pdfdoc.ParseCompression(e.Compression)
	if err != nil {
		return booklet.Options{}, err
	}
	opts := booklet.Options{
		PageNumbers: e.PageNumbers,
		Compression: compression,
		Converter:   c.Grayscale.DefaultStrategy,
	}
	if e.WatermarkPath != "" {
		img, err := os.ReadFile(e.WatermarkPath)
		if err != nil {
			return booklet.Options{}, fmt.Errorf("failed to read watermark: %w", err)
		}
		opts.Watermark = img
	}
	return opts, nil
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Booklet configuration
# API keys use ${ENV_VAR} syntax to reference environment variables
# Any key can be overridden from the environment: BOOKLET_SERVER_PORT=9000

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
