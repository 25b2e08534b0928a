package config

// Config holds booklet configuration.
// Stored at: {home}/config.yaml
type Config struct {
	LogLevel  string       `mapstructure:"log_level" yaml:"log_level"`
	Server    ServerCfg    `mapstructure:"server" yaml:"server"`
	Grayscale GrayscaleCfg `mapstructure:"grayscale" yaml:"grayscale"`
	Holidays  HolidaysCfg  `mapstructure:"holidays" yaml:"holidays"`
	Fetch     FetchCfg     `mapstructure:"fetch" yaml:"fetch"`
	Engine    EngineCfg    `mapstructure:"engine" yaml:"engine"`
}

// ServerCfg configures the HTTP service.
type ServerCfg struct {
	Host         string `mapstructure:"host" yaml:"host"`
	Port         string `mapstructure:"port" yaml:"port"`
	MaxBodyBytes int64  `mapstructure:"max_body_bytes" yaml:"max_body_bytes"` // Request body limit
}

// GrayscaleCfg configures colour conversion.
type GrayscaleCfg struct {
	DefaultStrategy string `mapstructure:"default_strategy" yaml:"default_strategy"` // "remote" or "local"
	URL             string `mapstructure:"url" yaml:"url"`
	APIKey          string `mapstructure:"api_key" yaml:"api_key"` // Supports ${ENV_VAR} syntax
	SameOrigin      bool   `mapstructure:"same_origin" yaml:"same_origin"`
	CacheSize       int    `mapstructure:"cache_size" yaml:"cache_size"`
	MaxConcurrent   int    `mapstructure:"max_concurrent" yaml:"max_concurrent"`
	ShrinkThreshold int    `mapstructure:"shrink_threshold" yaml:"shrink_threshold"` // Bytes
	ShrinkTarget    int    `mapstructure:"shrink_target" yaml:"shrink_target"`       // Bytes
	TimeoutSeconds  int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	MaxRetries      uint   `mapstructure:"max_retries" yaml:"max_retries"`
}

// HolidaysCfg configures the holiday data service client.
type HolidaysCfg struct {
	BaseURL        string  `mapstructure:"base_url" yaml:"base_url"`
	Language       string  `mapstructure:"language" yaml:"language"`
	RateLimit      float64 `mapstructure:"rate_limit" yaml:"rate_limit"` // Requests per second
	TimeoutSeconds int     `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	MaxRetries     uint    `mapstructure:"max_retries" yaml:"max_retries"`
}

// FetchCfg configures fragment downloads.
type FetchCfg struct {
	TimeoutSeconds int   `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	MaxBytes       int64 `mapstructure:"max_bytes" yaml:"max_bytes"`
}

// EngineCfg holds the assembly settings and default build options.
type EngineCfg struct {
	PlannerLeadInDays int     `mapstructure:"planner_lead_in_days" yaml:"planner_lead_in_days"`
	PreviewWeeks      int     `mapstructure:"preview_weeks" yaml:"preview_weeks"`
	PreviewPages      int     `mapstructure:"preview_pages" yaml:"preview_pages"`
	BleedMM           float64 `mapstructure:"bleed_mm" yaml:"bleed_mm"`
	PageNumbers       bool    `mapstructure:"page_numbers" yaml:"page_numbers"`
	WatermarkPath     string  `mapstructure:"watermark_path" yaml:"watermark_path"` // Image stamped on every page
	Compression       string  `mapstructure:"compression" yaml:"compression"`       // "none", "standard" or "max"
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Server: ServerCfg{
			Host:         "127.0.0.1",
			Port:         "8090",
			MaxBodyBytes: 64 << 20,
		},
		Grayscale: GrayscaleCfg{
			DefaultStrategy: "local",
			APIKey:          "${GRAYSCALE_API_KEY}",
			CacheSize:       32,
			MaxConcurrent:   2,
			ShrinkThreshold: 8 << 20,
			ShrinkTarget:    8 << 20,
			TimeoutSeconds:  120,
			MaxRetries:      3,
		},
		Holidays: HolidaysCfg{
			BaseURL:        "https://openholidaysapi.org",
			Language:       "DE",
			RateLimit:      5,
			TimeoutSeconds: 15,
			MaxRetries:     3,
		},
		Fetch: FetchCfg{
			TimeoutSeconds: 30,
			MaxBytes:       64 << 20,
		},
		Engine: EngineCfg{
			PlannerLeadInDays: 7,
			PreviewWeeks:      4,
			PreviewPages:      5,
			BleedMM:           3,
			Compression:       "standard",
		},
	}
}
