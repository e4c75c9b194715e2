package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Extractor ExtractorConfig `yaml:"extractor"`
	Delivery  DeliveryConfig  `yaml:"delivery"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Port       int    `yaml:"port"`
	APIKey     string `yaml:"api_key"`
	CORSOrigin string `yaml:"cors_origin"`
}

// ExtractorConfig configures the yt-dlp collaborator. The anti-bot knobs
// (user agent, cookie file, extra args) are passed through verbatim.
type ExtractorConfig struct {
	BinaryPath string `yaml:"binary_path"`
	UserAgent  string `yaml:"user_agent"`
	CookieFile string `yaml:"cookie_file"`
	Retries    int    `yaml:"retries"`
	// MaxDurationSeconds rejects single items longer than this. 0 disables
	// the ceiling.
	MaxDurationSeconds int      `yaml:"max_duration_seconds"`
	ExtraArgs          []string `yaml:"extra_args"`
}

type DeliveryConfig struct {
	// Strategy is "pipe" (stream from the ffmpeg subprocess) or "staged"
	// (let the extractor materialize a complete file first).
	Strategy   string `yaml:"strategy"`
	FFmpegPath string `yaml:"ffmpeg_path"`
	ScratchDir string `yaml:"scratch_dir"`
}

type RateLimitConfig struct {
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	PerHour       int    `yaml:"per_hour"`
	PerDay        int    `yaml:"per_day"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config from YAML file and applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.CORSOrigin == "" {
		cfg.Server.CORSOrigin = "*"
	}
	if cfg.Extractor.BinaryPath == "" {
		cfg.Extractor.BinaryPath = "yt-dlp"
	}
	if cfg.Extractor.Retries == 0 {
		cfg.Extractor.Retries = 3
	}
	if cfg.Delivery.Strategy == "" {
		cfg.Delivery.Strategy = "pipe"
	}
	if cfg.Delivery.FFmpegPath == "" {
		cfg.Delivery.FFmpegPath = "ffmpeg"
	}
	if cfg.Delivery.ScratchDir == "" {
		cfg.Delivery.ScratchDir = os.TempDir()
	}
	if cfg.RateLimit.PerHour == 0 {
		cfg.RateLimit.PerHour = 1000
	}
	if cfg.RateLimit.PerDay == 0 {
		cfg.RateLimit.PerDay = 5000
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MEDIAPROXY_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("MEDIAPROXY_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("MEDIAPROXY_CORS_ORIGIN"); v != "" {
		cfg.Server.CORSOrigin = v
	}
	if v := os.Getenv("MEDIAPROXY_YTDLP_PATH"); v != "" {
		cfg.Extractor.BinaryPath = v
	}
	if v := os.Getenv("MEDIAPROXY_USER_AGENT"); v != "" {
		cfg.Extractor.UserAgent = v
	}
	if v := os.Getenv("MEDIAPROXY_COOKIE_FILE"); v != "" {
		cfg.Extractor.CookieFile = v
	}
	if v := os.Getenv("MAX_DURATION_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Extractor.MaxDurationSeconds = n
		}
	}
	if v := os.Getenv("MEDIAPROXY_DELIVERY_STRATEGY"); v != "" {
		cfg.Delivery.Strategy = v
	}
	if v := os.Getenv("MEDIAPROXY_FFMPEG_PATH"); v != "" {
		cfg.Delivery.FFmpegPath = v
	}
	if v := os.Getenv("MEDIAPROXY_SCRATCH_DIR"); v != "" {
		cfg.Delivery.ScratchDir = v
	}
	if v := os.Getenv("MEDIAPROXY_REDIS_ADDR"); v != "" {
		cfg.RateLimit.RedisAddr = v
	}
	if v := os.Getenv("MEDIAPROXY_REDIS_PASSWORD"); v != "" {
		cfg.RateLimit.RedisPassword = v
	}
	if v := os.Getenv("MEDIAPROXY_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("MEDIAPROXY_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
